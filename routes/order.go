package routes

import (
	orderControllers "github.com/alexcata03/Shop-Online/controllers/order"
	"github.com/alexcata03/Shop-Online/middleware"
	"github.com/gin-gonic/gin"
)

func SetupOrderRoutes(r *gin.Engine, d Deps) {
	orders := r.Group("/orders")
	orders.Use(middleware.RequireAuth)
	{
		// Create a new order
		orders.POST("", orderControllers.CreateOrderHandler(d.DB, d.Hub))

		// Own orders, or all of them for privileged users
		orders.GET("", orderControllers.GetAllOrdersHandler(d.DB))

		// Fetch orders for a specific user
		orders.GET("/:user_id", orderControllers.GetUserOrdersHandler(d.DB))

		// Update contact details, order status or payment status
		orders.PUT("/:orderId", orderControllers.UpdateOrderHandler(d.DB, d.Hub))

		// Delete an order
		orders.DELETE("/:orderId", orderControllers.DeleteOrderHandler(d.DB, d.Hub))
	}

	r.GET("/order/:orderId", middleware.RequireAuth, orderControllers.GetOrderByIDHandler(d.DB))
}
