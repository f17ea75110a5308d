package productcontroller

import (
	"context"
	"errors"
	"net/http"

	"github.com/alexcata03/Shop-Online/auth"
	"github.com/alexcata03/Shop-Online/controllers/render"
	"github.com/alexcata03/Shop-Online/models"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Update overwrites only the fields present in in.
func Update(ctx context.Context, db *gorm.DB, access auth.AccessContext, id uint, in ProductInput) (models.Product, error) {
	if err := access.Require(); err != nil {
		return models.Product{}, err
	}

	var product models.Product
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&product, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrProductNotFound
			}
			return err
		}
		in.apply(&product)
		if err := validate(product); err != nil {
			return err
		}
		return tx.Save(&product).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return models.Product{}, ErrProductExists
	}
	if err != nil {
		return models.Product{}, err
	}
	return product, nil
}

// UpdateProduct handles PUT /products/:productId.
func UpdateProduct(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := render.PathID(c, "productId")
		if err != nil {
			render.Error(c, err)
			return
		}
		var in ProductInput
		if err := c.ShouldBindJSON(&in); err != nil {
			render.BindError(c, err)
			return
		}
		product, err := Update(c.Request.Context(), db, auth.Access(c), id, in)
		if err != nil {
			render.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, product)
	}
}
