package routes

import (
	cartControllers "github.com/alexcata03/Shop-Online/controllers/cart"
	productcontroller "github.com/alexcata03/Shop-Online/controllers/product"
	userControllers "github.com/alexcata03/Shop-Online/controllers/user"
	"github.com/alexcata03/Shop-Online/middleware"
	"github.com/alexcata03/Shop-Online/models"
	"github.com/gin-gonic/gin"
)

// SetupAdminRoutes registers the endpoints reserved for privileged users.
func SetupAdminRoutes(r *gin.Engine, d Deps) {
	adminGroup := r.Group("")
	adminGroup.Use(middleware.RequireRole(models.RolePrivileged))
	{
		// ─────────── User Management ───────────
		adminGroup.GET("/users", userControllers.GetAllUsers(d.DB))
		adminGroup.DELETE("/users/:username", userControllers.DeleteUserHandler(d.DB))

		// ─────────── Product Spreadsheets ───────────
		adminGroup.GET("/products/export", productcontroller.ExportProductsToExcel(d.DB))
		adminGroup.POST("/products/import", productcontroller.ImportProductsFromExcel(d.DB))

		// ─────────── Carts & Order Feed ───────────
		adminGroup.GET("/all_carts", cartControllers.ListAllCartsHandler(d.DB))
		if d.Hub != nil {
			adminGroup.GET("/ws/orders", d.Hub.OrderWebSocketHandler)
		}
	}
}
