package productcontroller

import (
	"context"
	"errors"
	"net/http"

	"github.com/alexcata03/Shop-Online/controllers/render"
	"github.com/alexcata03/Shop-Online/models"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func Get(ctx context.Context, db *gorm.DB, id uint) (models.Product, error) {
	var product models.Product
	if err := db.WithContext(ctx).First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Product{}, ErrProductNotFound
		}
		return models.Product{}, err
	}
	return product, nil
}

// GetProductByID returns a single product.
// URL param: /products/:productId
func GetProductByID(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := render.PathID(c, "productId")
		if err != nil {
			render.Error(c, err)
			return
		}
		product, err := Get(c.Request.Context(), db, id)
		if err != nil {
			render.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, product)
	}
}
