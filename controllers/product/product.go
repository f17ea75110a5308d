package productcontroller

import (
	"strings"

	"github.com/alexcata03/Shop-Online/apperrors"
	"github.com/alexcata03/Shop-Online/models"
	"github.com/shopspring/decimal"
)

var (
	ErrProductNotFound = apperrors.New(apperrors.ErrNotFound, "product not found")
	ErrProductExists   = apperrors.New(apperrors.ErrAlreadyExists, "a product with this name already exists")
	ErrNoCategory      = apperrors.New(apperrors.ErrNotFound, "category is required")
)

// ProductInput carries caller-supplied fields. Nil fields are left alone on
// update.
type ProductInput struct {
	Name        *string          `json:"name"`
	Category    *string          `json:"category"`
	PhotoURL    *string          `json:"photoUrl"`
	Quantity    *int             `json:"quantity"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	Discount    *decimal.Decimal `json:"discount"`
}

// apply copies the supplied fields onto p.
func (in ProductInput) apply(p *models.Product) {
	if in.Name != nil {
		p.Name = strings.TrimSpace(*in.Name)
	}
	if in.Category != nil {
		p.Category = strings.TrimSpace(*in.Category)
	}
	if in.PhotoURL != nil {
		p.PhotoURL = *in.PhotoURL
	}
	if in.Quantity != nil {
		p.Quantity = *in.Quantity
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.Price != nil {
		p.Price = *in.Price
	}
	if in.Discount != nil {
		p.Discount = *in.Discount
	}
}

func validate(p models.Product) error {
	switch {
	case p.Name == "":
		return apperrors.Invalid("product name is required")
	case p.Price.IsNegative():
		return apperrors.Invalid("price must not be negative")
	case p.Discount.IsNegative():
		return apperrors.Invalid("discount must not be negative")
	case p.Quantity < 0:
		return apperrors.Invalid("quantity must not be negative")
	}
	return nil
}
