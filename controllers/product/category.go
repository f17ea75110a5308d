package productcontroller

import (
	"context"
	"net/http"

	"github.com/alexcata03/Shop-Online/controllers/render"
	"github.com/alexcata03/Shop-Online/models"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type CategorySummary struct {
	Category string `json:"category"`
	Products int64  `json:"products"`
}

// ListCategories returns each non-empty category with its product count.
func ListCategories(ctx context.Context, db *gorm.DB) ([]CategorySummary, error) {
	out := []CategorySummary{}
	err := db.WithContext(ctx).Model(&models.Product{}).
		Select("category, COUNT(*) AS products").
		Where("category <> ''").
		Group("category").
		Order("category").
		Scan(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GET /categories
func GetAllCategories(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		categories, err := ListCategories(c.Request.Context(), db)
		if err != nil {
			render.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, categories)
	}
}
