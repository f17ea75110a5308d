package routes

import (
	cartControllers "github.com/alexcata03/Shop-Online/controllers/cart"
	userControllers "github.com/alexcata03/Shop-Online/controllers/user"
	"github.com/alexcata03/Shop-Online/middleware"
	"github.com/gin-gonic/gin"
)

// SetupUserRoutes registers all "/users/*" endpoints. Requires a session.
func SetupUserRoutes(r *gin.Engine, d Deps) {
	userGroup := r.Group("/users")
	userGroup.Use(middleware.RequireAuth)
	{
		// ──────────────── User Profile ────────────────
		userGroup.GET("/:username", userControllers.GetUserHandler(d.DB))
		userGroup.PUT("/:id", userControllers.UpdateUserHandler(d.DB, d.Identity.Passwords()))

		// ──────────────── Shopping Cart ────────────────
		cartGroup := userGroup.Group("/:username/shopping_cart")
		{
			cartGroup.GET("", cartControllers.GetCartHandler(d.DB))
			cartGroup.POST("", cartControllers.CreateCartHandler(d.DB))
			cartGroup.DELETE("", cartControllers.DeleteCartHandler(d.DB))
			cartGroup.POST("/:productId", cartControllers.AddItemHandler(d.DB))
			cartGroup.DELETE("/:productId", cartControllers.RemoveItemHandler(d.DB))
		}
	}
}
