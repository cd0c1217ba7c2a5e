package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type RefundStatus string

const (
	RefundStatusPending   RefundStatus = "pending"
	RefundStatusApproved  RefundStatus = "approved"
	RefundStatusRejected  RefundStatus = "rejected"
	RefundStatusCompleted RefundStatus = "completed"
)

// RefundWindow is how long after order creation a refund may be requested.
const RefundWindow = 30 * 24 * time.Hour

type Refund struct {
	ID                int64           `json:"id"`
	OrderID           int64           `json:"order_id"`
	UserID            int64           `json:"user_id"`
	Items             []RefundItem    `json:"items"`
	TotalRefundAmount decimal.Decimal `json:"total_refund_amount"`
	Status            RefundStatus    `json:"status"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
	DecidedAt         *time.Time      `json:"decided_at,omitempty"`
}

type RefundItem struct {
	ProductID       int64           `json:"product_id"`
	Quantity        int             `json:"quantity"`
	PriceAtPurchase decimal.Decimal `json:"price_at_purchase"`
	Reason          string          `json:"reason"`
}

type RefundLineRequest struct {
	ProductID int64  `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,gt=0"`
	Reason    string `json:"reason" binding:"required"`
}

type RefundRequest struct {
	Items []RefundLineRequest `json:"items" binding:"required,min=1,dive"`
}
