package cartControllers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alexcata03/Shop-Online/apperrors"
	"github.com/alexcata03/Shop-Online/auth"
	"github.com/alexcata03/Shop-Online/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrNoCart          = apperrors.New(apperrors.ErrNotFound, "user has no active shopping cart")
	ErrItemNotFound    = apperrors.New(apperrors.ErrNotFound, "product is not in the shopping cart")
	ErrCartExists      = apperrors.New(apperrors.ErrAlreadyExists, "user already has a shopping cart")
	ErrProductNotFound = apperrors.New(apperrors.ErrNotFound, "product not found")
	ErrUserNotFound    = apperrors.New(apperrors.ErrNotFound, "user not found")
)

// overridden in tests
var timeNow = time.Now

// CartLine is one product line as shown to clients.
type CartLine struct {
	ProductID uint            `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
}

type CartView struct {
	ID             uint       `json:"id"`
	Username       string     `json:"username"`
	CreationDate   time.Time  `json:"creation_date"`
	ExpirationDate time.Time  `json:"expiration_date"`
	Expired        bool       `json:"expired,omitempty"`
	Items          []CartLine `json:"items"`
	TotalPrice     string     `json:"total_price"`
}

// -------- Core Logic --------

// CreateCart opens a cart for username. An expired cart is replaced.
func CreateCart(ctx context.Context, db *gorm.DB, access auth.AccessContext, username string) (CartView, error) {
	if err := auth.AuthorizeOwner(access, username); err != nil {
		return CartView{}, err
	}
	now := timeNow().UTC()

	var cart models.Cart
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.User{}).Where("username = ?", username).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return ErrUserNotFound
		}

		var existing models.Cart
		err := tx.Where("username = ?", username).First(&existing).Error
		switch {
		case err == nil && !existing.Expired(now):
			return ErrCartExists
		case err == nil:
			if err := purge(tx, existing.ID); err != nil {
				return err
			}
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}

		today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		cart = models.Cart{
			Username:       username,
			CreationDate:   today,
			ExpirationDate: today.AddDate(0, models.CartLifetimeMonths, 0),
			TotalPrice:     decimal.Zero,
		}
		return tx.Create(&cart).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return CartView{}, ErrCartExists
	}
	if err != nil {
		return CartView{}, err
	}
	return CartView{
		ID:             cart.ID,
		Username:       cart.Username,
		CreationDate:   cart.CreationDate,
		ExpirationDate: cart.ExpirationDate,
		Items:          []CartLine{},
		TotalPrice:     cart.TotalPrice.StringFixed(2),
	}, nil
}

// AddItem adds one unit of productID to the user's cart.
func AddItem(ctx context.Context, db *gorm.DB, access auth.AccessContext, username string, productID uint) (CartView, error) {
	if err := auth.AuthorizeOwner(access, username); err != nil {
		return CartView{}, err
	}

	var view CartView
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cart, err := liveCart(tx, username, timeNow())
		if err != nil {
			return err
		}
		if err := tx.Select("id").First(&models.Product{}, productID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrProductNotFound
			}
			return err
		}

		// one row per (cart, product): a second add bumps the quantity
		line := models.CartItem{CartID: cart.ID, ProductID: productID, Quantity: 1}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "cart_id"}, {Name: "product_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{"quantity": gorm.Expr("products_carts.quantity + 1")}),
		}).Create(&line).Error; err != nil {
			return err
		}

		view, err = refresh(tx, cart)
		return err
	})
	if err != nil {
		return CartView{}, err
	}
	return view, nil
}

// RemoveItem takes one unit of productID out of the cart, dropping the line
// when it reaches zero.
func RemoveItem(ctx context.Context, db *gorm.DB, access auth.AccessContext, username string, productID uint) (CartView, error) {
	if err := auth.AuthorizeOwner(access, username); err != nil {
		return CartView{}, err
	}

	var view CartView
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cart, err := liveCart(tx, username, timeNow())
		if err != nil {
			return err
		}

		res := tx.Model(&models.CartItem{}).
			Where("cart_id = ? AND product_id = ? AND quantity > 1", cart.ID, productID).
			Update("quantity", gorm.Expr("quantity - 1"))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			res = tx.Where("cart_id = ? AND product_id = ?", cart.ID, productID).Delete(&models.CartItem{})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return ErrItemNotFound
			}
		}

		view, err = refresh(tx, cart)
		return err
	})
	if err != nil {
		return CartView{}, err
	}
	return view, nil
}

func GetCart(ctx context.Context, db *gorm.DB, access auth.AccessContext, username string) (CartView, error) {
	if err := auth.AuthorizeOwner(access, username); err != nil {
		return CartView{}, err
	}
	tx := db.WithContext(ctx)
	now := timeNow()
	cart, err := liveCart(tx, username, now)
	if err != nil {
		return CartView{}, err
	}
	return buildView(tx, cart, now)
}

// DeleteCart removes the cart and its lines. Expired carts can be deleted too.
func DeleteCart(ctx context.Context, db *gorm.DB, access auth.AccessContext, username string) error {
	if err := auth.AuthorizeOwner(access, username); err != nil {
		return err
	}
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cart models.Cart
		if err := tx.Where("username = ?", username).First(&cart).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNoCart
			}
			return err
		}
		return purge(tx, cart.ID)
	})
}

// ListAllCarts returns every cart, expired ones flagged.
func ListAllCarts(ctx context.Context, db *gorm.DB, access auth.AccessContext) ([]CartView, error) {
	if err := auth.Authorize(access, models.RolePrivileged); err != nil {
		return nil, err
	}
	tx := db.WithContext(ctx)

	var carts []models.Cart
	if err := tx.Order("id").Find(&carts).Error; err != nil {
		return nil, err
	}
	now := timeNow()
	views := make([]CartView, 0, len(carts))
	for _, cart := range carts {
		view, err := buildView(tx, cart, now)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	return views, nil
}

// RemoveUserCart deletes username's cart and lines inside tx, if there is one.
func RemoveUserCart(tx *gorm.DB, username string) error {
	var cart models.Cart
	err := tx.Where("username = ?", username).First(&cart).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return purge(tx, cart.ID)
}

// RecomputeTotal stores Σ(price × quantity) of cartID's lines on the cart.
func RecomputeTotal(tx *gorm.DB, cartID uint) (decimal.Decimal, error) {
	lines, err := loadLines(tx, cartID)
	if err != nil {
		return decimal.Zero, err
	}
	total := sum(lines)
	if err := tx.Model(&models.Cart{}).Where("id = ?", cartID).Update("total_price", total).Error; err != nil {
		return decimal.Zero, fmt.Errorf("store cart total: %w", err)
	}
	return total, nil
}

// -------- Helpers --------

func liveCart(tx *gorm.DB, username string, now time.Time) (models.Cart, error) {
	var cart models.Cart
	if err := tx.Where("username = ?", username).First(&cart).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Cart{}, ErrNoCart
		}
		return models.Cart{}, err
	}
	if cart.Expired(now) {
		return models.Cart{}, ErrNoCart
	}
	return cart, nil
}

func purge(tx *gorm.DB, cartID uint) error {
	if err := tx.Where("cart_id = ?", cartID).Delete(&models.CartItem{}).Error; err != nil {
		return err
	}
	return tx.Delete(&models.Cart{}, cartID).Error
}

func loadLines(tx *gorm.DB, cartID uint) ([]CartLine, error) {
	lines := []CartLine{}
	err := tx.Table("products_carts").
		Select("products_carts.product_id, products.name, products.price, products_carts.quantity").
		Joins("JOIN products ON products.id = products_carts.product_id").
		Where("products_carts.cart_id = ?", cartID).
		Order("products_carts.id").
		Scan(&lines).Error
	if err != nil {
		return nil, fmt.Errorf("load cart lines: %w", err)
	}
	return lines, nil
}

func sum(lines []CartLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Price.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return total
}

// refresh recomputes and stores the total, then returns the cart as shown.
func refresh(tx *gorm.DB, cart models.Cart) (CartView, error) {
	if _, err := RecomputeTotal(tx, cart.ID); err != nil {
		return CartView{}, err
	}
	return buildView(tx, cart, timeNow())
}

func buildView(tx *gorm.DB, cart models.Cart, now time.Time) (CartView, error) {
	lines, err := loadLines(tx, cart.ID)
	if err != nil {
		return CartView{}, err
	}
	return CartView{
		ID:             cart.ID,
		Username:       cart.Username,
		CreationDate:   cart.CreationDate,
		ExpirationDate: cart.ExpirationDate,
		Expired:        cart.Expired(now),
		Items:          lines,
		TotalPrice:     sum(lines).StringFixed(2),
	}, nil
}
