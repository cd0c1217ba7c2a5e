package models

import (
	"time"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

type Product struct {
	ID              int64            `json:"id"`
	Name            string           `json:"name"`
	Model           string           `json:"model"`
	SerialNumber    string           `json:"serial_number"`
	Description     string           `json:"description"`
	Price           decimal.Decimal  `json:"price"`
	Cost            *decimal.Decimal `json:"cost,omitempty"`
	DiscountPercent decimal.Decimal  `json:"discount_percent"`
	DiscountedPrice *decimal.Decimal `json:"discounted_price,omitempty"`
	Stock           int              `json:"stock"`
	CategoryID      *int64           `json:"category_id,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// UnitPrice is the price a customer pays right now.
func (p *Product) UnitPrice() decimal.Decimal {
	if p.DiscountedPrice != nil {
		return *p.DiscountedPrice
	}
	return p.Price
}

// UnitCost falls back to the selling price when no cost is recorded.
func (p *Product) UnitCost(price decimal.Decimal) decimal.Decimal {
	if p.Cost != nil {
		return *p.Cost
	}
	return price
}

// ApplyPricing recomputes DiscountedPrice from Price and DiscountPercent.
// Must be called whenever either changes.
func (p *Product) ApplyPricing() {
	if p.DiscountPercent.IsZero() {
		p.DiscountedPrice = nil
		return
	}
	factor := decimal.NewFromInt(1).Sub(p.DiscountPercent.Div(hundred))
	discounted := p.Price.Mul(factor).Round(2)
	p.DiscountedPrice = &discounted
}

type CreateProductRequest struct {
	Name         string           `json:"name" binding:"required"`
	Model        string           `json:"model" binding:"required"`
	SerialNumber string           `json:"serial_number" binding:"required"`
	Description  string           `json:"description"`
	Price        decimal.Decimal  `json:"price"`
	Cost         *decimal.Decimal `json:"cost"`
	Stock        int              `json:"stock" binding:"gte=0"`
	CategoryID   *int64           `json:"category_id"`
}

// UpdateProductRequest changes catalogue details. Price and stock have
// their own endpoints.
type UpdateProductRequest struct {
	Name         *string          `json:"name"`
	Model        *string          `json:"model"`
	SerialNumber *string          `json:"serial_number"`
	Description  *string          `json:"description"`
	Cost         *decimal.Decimal `json:"cost"`
	CategoryID   *int64           `json:"category_id"`
}
