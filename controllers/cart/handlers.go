package cartControllers

import (
	"net/http"

	"github.com/alexcata03/Shop-Online/auth"
	"github.com/alexcata03/Shop-Online/controllers/render"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// POST /users/:username/shopping_cart
func CreateCartHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		view, err := CreateCart(c.Request.Context(), db, auth.Access(c), c.Param("username"))
		if err != nil {
			render.Error(c, err)
			return
		}
		c.JSON(http.StatusCreated, view)
	}
}

// GET /users/:username/shopping_cart
func GetCartHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		view, err := GetCart(c.Request.Context(), db, auth.Access(c), c.Param("username"))
		if err != nil {
			render.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, view)
	}
}

// DELETE /users/:username/shopping_cart
func DeleteCartHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := DeleteCart(c.Request.Context(), db, auth.Access(c), c.Param("username")); err != nil {
			render.Error(c, err)
			return
		}
		render.Message(c, http.StatusOK, "shopping cart deleted")
	}
}

// POST /users/:username/shopping_cart/:productId
func AddItemHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		productID, err := render.PathID(c, "productId")
		if err != nil {
			render.Error(c, err)
			return
		}
		view, err := AddItem(c.Request.Context(), db, auth.Access(c), c.Param("username"), productID)
		if err != nil {
			render.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, view)
	}
}

// DELETE /users/:username/shopping_cart/:productId
func RemoveItemHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		productID, err := render.PathID(c, "productId")
		if err != nil {
			render.Error(c, err)
			return
		}
		view, err := RemoveItem(c.Request.Context(), db, auth.Access(c), c.Param("username"), productID)
		if err != nil {
			render.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, view)
	}
}

// GET /all_carts
func ListAllCartsHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		carts, err := ListAllCarts(c.Request.Context(), db, auth.Access(c))
		if err != nil {
			render.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, carts)
	}
}
