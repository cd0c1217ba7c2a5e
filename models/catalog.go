package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Category struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type CategoryRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

type CategoryProducts struct {
	Category Category  `json:"category"`
	Products []Product `json:"products"`
}

type WishlistItem struct {
	ID                int64            `json:"id"`
	UserID            int64            `json:"user_id"`
	ProductID         int64            `json:"product_id"`
	NotifyOnDiscount  bool             `json:"notify_on_discount"`
	LastNotifiedPrice *decimal.Decimal `json:"last_notified_price,omitempty"`
	CreatedAt         time.Time        `json:"created_at"`
	Product           *Product         `json:"product,omitempty"`
}

// WishlistSubscriber is a wishlist entry joined with the owner's contact
// details, used when announcing a discount.
type WishlistSubscriber struct {
	ItemID            int64
	UserID            int64
	Name              string
	Email             string
	LastNotifiedPrice *decimal.Decimal
}

// DiscountNotice summarises one discount announcement.
type DiscountNotice struct {
	ProductID  int64 `json:"product_id"`
	Subscribed int   `json:"total_notified"`
	Successful int   `json:"successful"`
	Failed     int   `json:"failed"`
}

const (
	MinRating = 1
	MaxRating = 5
)

type Review struct {
	ID        int64     `json:"id"`
	ProductID int64     `json:"product_id"`
	UserID    int64     `json:"user_id"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	Approved  bool      `json:"approved"`
	CreatedAt time.Time `json:"created_at"`
}

// NeedsApproval reports whether a product manager has to look at the
// review. Bare ratings are published straight away.
func (r *Review) NeedsApproval() bool {
	return strings.TrimSpace(r.Comment) != ""
}

// Public hides a comment that has not been approved yet.
func (r Review) Public() Review {
	if !r.Approved {
		r.Comment = ""
	}
	return r
}

type CreateReviewRequest struct {
	Rating  int    `json:"rating" binding:"required"`
	Comment string `json:"comment"`
}

type BulkNotificationRequest struct {
	UserIDs []int64          `json:"user_ids" binding:"required,min=1,dive,gt=0"`
	Title   string           `json:"title" binding:"required"`
	Message string           `json:"message" binding:"required"`
	Type    NotificationType `json:"type" binding:"omitempty,oneof=discount order system"`
	Link    string           `json:"link"`
}
