package routes

import (
	productcontroller "github.com/alexcata03/Shop-Online/controllers/product"
	"github.com/alexcata03/Shop-Online/middleware"
	"github.com/gin-gonic/gin"
)

// SetupProductRoutes registers the catalog. Reads are public, writes need a
// session.
func SetupProductRoutes(r *gin.Engine, d Deps) {
	r.GET("/products", productcontroller.GetProducts(d.DB))
	r.GET("/products/:productId", productcontroller.GetProductByID(d.DB))
	r.GET("/filtered-products", productcontroller.GetFilteredProducts(d.DB))
	r.GET("/categories", productcontroller.GetAllCategories(d.DB))

	productGroup := r.Group("/products")
	productGroup.Use(middleware.RequireAuth)
	{
		productGroup.POST("", productcontroller.CreateProduct(d.DB))
		productGroup.PUT("/:productId", productcontroller.UpdateProduct(d.DB))
		productGroup.DELETE("/:productId", productcontroller.DeleteProduct(d.DB))
	}
}
