package orderControllers

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/alexcata03/Shop-Online/apperrors"
	"github.com/alexcata03/Shop-Online/auth"
	"github.com/alexcata03/Shop-Online/metrics"
	"github.com/alexcata03/Shop-Online/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrOrderNotFound   = apperrors.New(apperrors.ErrNotFound, "order not found")
	ErrProductNotFound = apperrors.New(apperrors.ErrNotFound, "product not found")
	ErrUserNotFound    = apperrors.New(apperrors.ErrNotFound, "user not found")
)

// -------- Request Structs --------

// CreateOrderRequest accepts form or JSON. ProductIDs and Quantities are
// comma-joined lists matched by position.
type CreateOrderRequest struct {
	UserID        string `form:"user_id" json:"user_id"`
	Name          string `form:"name" json:"name"`
	Phone         string `form:"phone" json:"phone"`
	Email         string `form:"email" json:"email"`
	Method        string `form:"method" json:"method"`
	Address       string `form:"address" json:"address"`
	PaymentStatus string `form:"payment_status" json:"payment_status"`
	Status        string `form:"status" json:"status"`
	ProductIDs    string `form:"productIds" json:"productIds"`
	Quantities    string `form:"quantities" json:"quantities"`
}

// UpdateOrderRequest carries the fields an order may change after placement.
// Lines and total are fixed.
type UpdateOrderRequest struct {
	Name          *string `form:"name" json:"name"`
	Phone         *string `form:"phone" json:"phone"`
	Email         *string `form:"email" json:"email"`
	Method        *string `form:"method" json:"method"`
	Address       *string `form:"address" json:"address"`
	PaymentStatus *string `form:"payment_status" json:"payment_status"`
	Status        *string `form:"status" json:"status"`
}

// -------- Helpers --------

// Map string to OrderStatus
func mapOrderStatus(status string) (models.OrderStatus, error) {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "", string(models.OrderStatusPending):
		return models.OrderStatusPending, nil
	case string(models.OrderStatusConfirmed):
		return models.OrderStatusConfirmed, nil
	case string(models.OrderStatusReadyToShip):
		return models.OrderStatusReadyToShip, nil
	case string(models.OrderStatusShipped):
		return models.OrderStatusShipped, nil
	case string(models.OrderStatusDelivered):
		return models.OrderStatusDelivered, nil
	case string(models.OrderStatusReturned):
		return models.OrderStatusReturned, nil
	case string(models.OrderStatusCancelled):
		return models.OrderStatusCancelled, nil
	default:
		return "", apperrors.Invalid("invalid order status %q", status)
	}
}

// Map string to PaymentStatus
func mapPaymentStatus(status string) (models.PaymentStatus, error) {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "", string(models.PaymentStatusPending):
		return models.PaymentStatusPending, nil
	case string(models.PaymentStatusPaid):
		return models.PaymentStatusPaid, nil
	case string(models.PaymentStatusFailed):
		return models.PaymentStatusFailed, nil
	case string(models.PaymentStatusRefunded):
		return models.PaymentStatusRefunded, nil
	default:
		return "", apperrors.Invalid("invalid payment status %q", status)
	}
}

type orderLine struct {
	productID uint
	quantity  int
}

// parseLines pairs product ids with quantities. Missing quantities default
// to 1 and repeated products are merged.
func parseLines(productIDs, quantities string) ([]orderLine, error) {
	ids := splitList(productIDs)
	if len(ids) == 0 {
		return nil, apperrors.Invalid("at least one product id is required")
	}
	qtys := splitList(quantities)
	if len(qtys) > len(ids) {
		return nil, apperrors.Invalid("got %d quantities for %d products", len(qtys), len(ids))
	}

	merged := make(map[uint]int, len(ids))
	for i, raw := range ids {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || id == 0 {
			return nil, apperrors.Invalid("invalid product id %q", raw)
		}
		qty := 1
		if i < len(qtys) {
			qty, err = strconv.Atoi(qtys[i])
			if err != nil || qty <= 0 {
				return nil, apperrors.Invalid("invalid quantity %q", qtys[i])
			}
		}
		merged[uint(id)] += qty
	}

	lines := make([]orderLine, 0, len(merged))
	for id, qty := range merged {
		lines = append(lines, orderLine{productID: id, quantity: qty})
	}
	// deterministic line order
	sort.Slice(lines, func(i, j int) bool { return lines[i].productID < lines[j].productID })
	return lines, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (r CreateOrderRequest) validate() error {
	var missing []string
	for _, f := range []struct{ name, value string }{
		{"name", r.Name}, {"phone", r.Phone}, {"email", r.Email},
		{"method", r.Method}, {"address", r.Address},
	} {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return apperrors.Invalid("missing required fields: %s", strings.Join(missing, ", "))
	}
	return nil
}

// resolveCustomer returns the user an order is placed for. Ordinary callers
// can only order for themselves.
func resolveCustomer(tx *gorm.DB, access auth.AccessContext, raw string) (uint, error) {
	if strings.TrimSpace(raw) == "" {
		return access.UserID, nil
	}
	id, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil || id == 0 {
		return 0, apperrors.Invalid("invalid user_id %q", raw)
	}
	if err := auth.AuthorizeUser(access, uint(id)); err != nil {
		return 0, err
	}
	var n int64
	if err := tx.Model(&models.User{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, ErrUserNotFound
	}
	return uint(id), nil
}

// -------- Core Logic --------

// CreateOrder places an order. Each line snapshots the product's current
// price; the total is fixed here and never recomputed. Product stock is
// informational and is not checked.
func CreateOrder(ctx context.Context, db *gorm.DB, access auth.AccessContext, req CreateOrderRequest) (models.Order, error) {
	if err := access.Require(); err != nil {
		return models.Order{}, err
	}
	if err := req.validate(); err != nil {
		return models.Order{}, err
	}
	lines, err := parseLines(req.ProductIDs, req.Quantities)
	if err != nil {
		return models.Order{}, err
	}
	orderStatus, err := mapOrderStatus(req.Status)
	if err != nil {
		return models.Order{}, err
	}
	paymentStatus, err := mapPaymentStatus(req.PaymentStatus)
	if err != nil {
		return models.Order{}, err
	}

	var order models.Order
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		userID, err := resolveCustomer(tx, access, req.UserID)
		if err != nil {
			return err
		}

		total := decimal.Zero
		items := make([]models.OrderItem, 0, len(lines))
		for _, line := range lines {
			var product models.Product
			if err := tx.First(&product, line.productID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("%w: %d", ErrProductNotFound, line.productID)
				}
				return err
			}

			total = total.Add(product.Price.Mul(decimal.NewFromInt(int64(line.quantity))))
			items = append(items, models.OrderItem{
				ProductID:    product.ID,
				Quantity:     line.quantity,
				PricePerItem: product.Price,
			})
		}

		order = models.Order{
			UserID:        userID,
			Name:          strings.TrimSpace(req.Name),
			Phone:         strings.TrimSpace(req.Phone),
			Email:         strings.TrimSpace(req.Email),
			Address:       strings.TrimSpace(req.Address),
			Method:        strings.TrimSpace(req.Method),
			PaymentStatus: paymentStatus,
			Status:        orderStatus,
			TotalPrice:    total,
			PlacedOn:      time.Now().UTC(),
			Items:         items,
		}
		return tx.Create(&order).Error
	})
	if err != nil {
		return models.Order{}, err
	}
	metrics.RecordOrderCreated()
	return order, nil
}

// ListOrders returns every order to privileged callers and the caller's own
// orders otherwise.
func ListOrders(ctx context.Context, db *gorm.DB, access auth.AccessContext) ([]models.Order, error) {
	if err := access.Require(); err != nil {
		return nil, err
	}
	q := db.WithContext(ctx).Preload("Items")
	if !access.IsPrivileged() {
		q = q.Where("user_id = ?", access.UserID)
	}
	orders := []models.Order{}
	if err := q.Order("id").Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func ListOrdersByUser(ctx context.Context, db *gorm.DB, access auth.AccessContext, userID uint) ([]models.Order, error) {
	if err := auth.AuthorizeUser(access, userID); err != nil {
		return nil, err
	}
	orders := []models.Order{}
	err := db.WithContext(ctx).
		Preload("Items").
		Where("user_id = ?", userID).
		Order("id").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func GetOrder(ctx context.Context, db *gorm.DB, access auth.AccessContext, id uint) (models.Order, error) {
	if err := access.Require(); err != nil {
		return models.Order{}, err
	}
	order, err := loadOrder(db.WithContext(ctx).Preload("Items"), id)
	if err != nil {
		return models.Order{}, err
	}
	if err := auth.AuthorizeUser(access, order.UserID); err != nil {
		return models.Order{}, err
	}
	return order, nil
}

// UpdateOrder merges the supplied fields over the stored order.
func UpdateOrder(ctx context.Context, db *gorm.DB, access auth.AccessContext, id uint, req UpdateOrderRequest) (models.Order, error) {
	if err := access.Require(); err != nil {
		return models.Order{}, err
	}

	var order models.Order
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if order, err = loadOrder(tx, id); err != nil {
			return err
		}
		if err := auth.AuthorizeUser(access, order.UserID); err != nil {
			return err
		}
		if err := req.apply(&order); err != nil {
			return err
		}
		if err := tx.Omit(clause.Associations).Save(&order).Error; err != nil {
			return err
		}
		return tx.Where("order_id = ?", order.ID).Order("id").Find(&order.Items).Error
	})
	if err != nil {
		return models.Order{}, err
	}
	return order, nil
}

func (r UpdateOrderRequest) apply(o *models.Order) error {
	for _, f := range []struct {
		src *string
		dst *string
	}{
		{r.Name, &o.Name}, {r.Phone, &o.Phone}, {r.Email, &o.Email},
		{r.Method, &o.Method}, {r.Address, &o.Address},
	} {
		if f.src == nil {
			continue
		}
		v := strings.TrimSpace(*f.src)
		if v == "" {
			return apperrors.Invalid("order contact fields cannot be blank")
		}
		*f.dst = v
	}
	if r.Status != nil {
		s, err := mapOrderStatus(*r.Status)
		if err != nil {
			return err
		}
		o.Status = s
	}
	if r.PaymentStatus != nil {
		s, err := mapPaymentStatus(*r.PaymentStatus)
		if err != nil {
			return err
		}
		o.PaymentStatus = s
	}
	return nil
}

// DeleteOrder removes the order lines, then the order. It reports whether an
// order was deleted; an absent id is not an error.
func DeleteOrder(ctx context.Context, db *gorm.DB, access auth.AccessContext, id uint) (bool, error) {
	if err := access.Require(); err != nil {
		return false, err
	}
	deleted := false
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err := loadOrder(tx, id)
		if errors.Is(err, ErrOrderNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := auth.AuthorizeUser(access, order.UserID); err != nil {
			return err
		}
		if err := tx.Where("order_id = ?", id).Delete(&models.OrderItem{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.Order{}, id).Error; err != nil {
			return err
		}
		deleted = true
		return nil
	})
	return deleted, err
}

func loadOrder(tx *gorm.DB, id uint) (models.Order, error) {
	var order models.Order
	if err := tx.First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Order{}, ErrOrderNotFound
		}
		return models.Order{}, err
	}
	return order, nil
}
