package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartLifetimeMonths is how long a cart stays usable after creation.
const CartLifetimeMonths = 1

type Cart struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	Username       string          `gorm:"uniqueIndex;not null" json:"username"` // one cart row per user
	CreationDate   time.Time       `gorm:"not null" json:"creation_date"`
	ExpirationDate time.Time       `gorm:"not null" json:"expiration_date"`
	TotalPrice     decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"total_price"`
	Items          []CartItem      `gorm:"foreignKey:CartID" json:"items,omitempty"`
}

// Expired reports whether the cart can no longer be used at now.
func (c Cart) Expired(now time.Time) bool {
	return !now.Before(c.ExpirationDate)
}

// CartItem is one product line of a cart.
type CartItem struct {
	ID        uint `gorm:"primaryKey" json:"id"`
	CartID    uint `gorm:"not null;uniqueIndex:idx_cart_product" json:"cart_id"`
	ProductID uint `gorm:"not null;uniqueIndex:idx_cart_product" json:"product_id"`
	Quantity  int  `gorm:"not null" json:"quantity"`
}

func (CartItem) TableName() string { return "products_carts" }
