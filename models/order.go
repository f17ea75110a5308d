package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string
type PaymentStatus string

const (
	// Order statuses (typical e-commerce flow)
	OrderStatusPending     OrderStatus = "pending"       // Order placed, awaiting confirmation
	OrderStatusConfirmed   OrderStatus = "confirmed"     // Confirmed by seller
	OrderStatusReadyToShip OrderStatus = "ready_to_ship" // Packed and ready for dispatch
	OrderStatusShipped     OrderStatus = "shipped"       // Out for delivery
	OrderStatusDelivered   OrderStatus = "delivered"     // Customer received the item
	OrderStatusReturned    OrderStatus = "returned"      // Customer returned the item
	OrderStatusCancelled   OrderStatus = "cancelled"     // Cancelled before shipping

	// Payment statuses
	PaymentStatusPending  PaymentStatus = "pending"  // Payment not completed yet
	PaymentStatusPaid     PaymentStatus = "paid"     // Payment completed successfully
	PaymentStatusFailed   PaymentStatus = "failed"   // Payment attempt failed
	PaymentStatusRefunded PaymentStatus = "refunded" // Money returned to customer
)

type Order struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	UserID        uint            `gorm:"not null;index" json:"user_id"`
	Name          string          `gorm:"not null" json:"name"`
	Phone         string          `gorm:"not null" json:"phone"`
	Email         string          `gorm:"not null" json:"email"`
	Address       string          `gorm:"not null" json:"address"`
	Method        string          `gorm:"not null" json:"method"` // e.g. "card", "cod"
	PaymentStatus PaymentStatus   `gorm:"type:VARCHAR(20);default:'pending'" json:"payment_status"`
	Status        OrderStatus     `gorm:"type:VARCHAR(20);default:'pending'" json:"status"`
	TotalPrice    decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"total_price"` // fixed at creation
	PlacedOn      time.Time       `json:"placed_on"`
	Items         []OrderItem     `gorm:"foreignKey:OrderID" json:"items"`
}

// OrderItem keeps the unit price the product had when the order was placed.
type OrderItem struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	OrderID      uint            `gorm:"not null;uniqueIndex:idx_order_product" json:"order_id"`
	ProductID    uint            `gorm:"not null;uniqueIndex:idx_order_product" json:"product_id"`
	Quantity     int             `gorm:"not null" json:"quantity"`
	PricePerItem decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price_per_item"`
}

func (OrderItem) TableName() string { return "orders_items" }
