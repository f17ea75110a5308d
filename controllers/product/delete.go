package productcontroller

import (
	"context"
	"net/http"

	"github.com/alexcata03/Shop-Online/auth"
	cartControllers "github.com/alexcata03/Shop-Online/controllers/cart"
	"github.com/alexcata03/Shop-Online/controllers/render"
	"github.com/alexcata03/Shop-Online/models"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Delete removes the product and every cart line that references it. Order
// lines keep their snapshot. Deleting an absent product succeeds.
func Delete(ctx context.Context, db *gorm.DB, access auth.AccessContext, id uint) error {
	if err := access.Require(); err != nil {
		return err
	}
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cartIDs []uint
		if err := tx.Model(&models.CartItem{}).
			Where("product_id = ?", id).
			Distinct().
			Pluck("cart_id", &cartIDs).Error; err != nil {
			return err
		}
		if err := tx.Where("product_id = ?", id).Delete(&models.CartItem{}).Error; err != nil {
			return err
		}
		for _, cartID := range cartIDs {
			if _, err := cartControllers.RecomputeTotal(tx, cartID); err != nil {
				return err
			}
		}
		return tx.Delete(&models.Product{}, id).Error
	})
}

// DeleteProduct handles DELETE /products/:productId.
func DeleteProduct(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := render.PathID(c, "productId")
		if err != nil {
			render.Error(c, err)
			return
		}
		if err := Delete(c.Request.Context(), db, auth.Access(c), id); err != nil {
			render.Error(c, err)
			return
		}
		render.Message(c, http.StatusOK, "product deleted")
	}
}
