package productcontroller

import (
	"context"
	"errors"
	"net/http"

	"github.com/alexcata03/Shop-Online/apperrors"
	"github.com/alexcata03/Shop-Online/auth"
	"github.com/alexcata03/Shop-Online/controllers/render"
	"github.com/alexcata03/Shop-Online/models"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Create inserts a new product. Name and price are required.
func Create(ctx context.Context, db *gorm.DB, access auth.AccessContext, in ProductInput) (models.Product, error) {
	if err := access.Require(); err != nil {
		return models.Product{}, err
	}
	if in.Price == nil {
		return models.Product{}, apperrors.Invalid("product price is required")
	}

	var product models.Product
	in.apply(&product)
	if err := validate(product); err != nil {
		return models.Product{}, err
	}

	if err := db.WithContext(ctx).Create(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return models.Product{}, ErrProductExists
		}
		return models.Product{}, err
	}
	return product, nil
}

// CreateProduct handles POST /products with a JSON body.
func CreateProduct(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in ProductInput
		if err := c.ShouldBindJSON(&in); err != nil {
			render.BindError(c, err)
			return
		}
		product, err := Create(c.Request.Context(), db, auth.Access(c), in)
		if err != nil {
			render.Error(c, err)
			return
		}
		c.JSON(http.StatusCreated, product)
	}
}
