package productcontroller

import (
	"context"
	"net/http"
	"strings"

	"github.com/alexcata03/Shop-Online/apperrors"
	"github.com/alexcata03/Shop-Online/controllers/render"
	"github.com/alexcata03/Shop-Online/models"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// sortColumns is the closed set of columns /filtered-products may order by.
var sortColumns = map[string]string{
	"":         "id",
	"name":     "name",
	"price":    "price",
	"category": "category",
}

// ListAll returns every product ordered by id.
func ListAll(ctx context.Context, db *gorm.DB) ([]models.Product, error) {
	products := []models.Product{}
	if err := db.WithContext(ctx).Order("id").Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// ListByCategory returns the products of category in ascending sort order.
func ListByCategory(ctx context.Context, db *gorm.DB, category, sort string) ([]models.Product, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		return nil, ErrNoCategory
	}
	column, ok := sortColumns[strings.ToLower(strings.TrimSpace(sort))]
	if !ok {
		return nil, apperrors.Invalid("cannot sort by %q (use name, price or category)", sort)
	}

	products := []models.Product{}
	err := db.WithContext(ctx).
		Where("category = ?", category).
		Order(column + " ASC").
		Order("id").
		Find(&products).Error
	if err != nil {
		return nil, err
	}
	return products, nil
}

// GET /products
func GetProducts(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		products, err := ListAll(c.Request.Context(), db)
		if err != nil {
			render.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, products)
	}
}

// GET /filtered-products?category=&order=
func GetFilteredProducts(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		products, err := ListByCategory(c.Request.Context(), db, c.Query("category"), c.Query("order"))
		if err != nil {
			render.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, products)
	}
}
