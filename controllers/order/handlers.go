package orderControllers

import (
	"net/http"

	"github.com/alexcata03/Shop-Online/auth"
	"github.com/alexcata03/Shop-Online/controllers/render"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// -------- Handlers --------

// POST /orders
func CreateOrderHandler(db *gorm.DB, hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateOrderRequest
		if err := c.ShouldBind(&req); err != nil {
			render.BindError(c, err)
			return
		}
		order, err := CreateOrder(c.Request.Context(), db, auth.Access(c), req)
		if err != nil {
			render.Error(c, err)
			return
		}
		hub.Broadcast(Event{Type: EventOrderCreated, OrderID: order.ID, Order: &order})
		c.JSON(http.StatusCreated, order)
	}
}

// GET /orders
func GetAllOrdersHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		orders, err := ListOrders(c.Request.Context(), db, auth.Access(c))
		if err != nil {
			render.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, orders)
	}
}

// GET /orders/:user_id
func GetUserOrdersHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := render.PathID(c, "user_id")
		if err != nil {
			render.Error(c, err)
			return
		}
		orders, err := ListOrdersByUser(c.Request.Context(), db, auth.Access(c), userID)
		if err != nil {
			render.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, orders)
	}
}

// GET /order/:orderId
func GetOrderByIDHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := render.PathID(c, "orderId")
		if err != nil {
			render.Error(c, err)
			return
		}
		order, err := GetOrder(c.Request.Context(), db, auth.Access(c), id)
		if err != nil {
			render.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, order)
	}
}

// PUT /orders/:orderId
func UpdateOrderHandler(db *gorm.DB, hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := render.PathID(c, "orderId")
		if err != nil {
			render.Error(c, err)
			return
		}
		var req UpdateOrderRequest
		if err := c.ShouldBind(&req); err != nil {
			render.BindError(c, err)
			return
		}
		order, err := UpdateOrder(c.Request.Context(), db, auth.Access(c), id, req)
		if err != nil {
			render.Error(c, err)
			return
		}
		hub.Broadcast(Event{Type: EventOrderUpdated, OrderID: order.ID, Order: &order})
		c.JSON(http.StatusOK, order)
	}
}

// DELETE /orders/:orderId
func DeleteOrderHandler(db *gorm.DB, hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := render.PathID(c, "orderId")
		if err != nil {
			render.Error(c, err)
			return
		}
		deleted, err := DeleteOrder(c.Request.Context(), db, auth.Access(c), id)
		if err != nil {
			render.Error(c, err)
			return
		}
		if deleted {
			hub.Broadcast(Event{Type: EventOrderDeleted, OrderID: id})
		}
		render.Message(c, http.StatusOK, "order deleted")
	}
}
