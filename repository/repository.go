package repository

import (
	"context"
	"errors"
	"time"

	"storefront-service/models"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound = errors.New("record not found")
	// ErrConflict means a conditional write matched no row: the record was
	// no longer in the state the caller expected.
	ErrConflict          = errors.New("record state conflict")
	ErrDuplicate         = errors.New("duplicate record")
	ErrInsufficientStock = errors.New("insufficient stock")
)

type ProductRepository interface {
	FindAll(ctx context.Context) ([]models.Product, error)
	FindByID(ctx context.Context, id int64) (*models.Product, error)
	Create(ctx context.Context, p *models.Product) error
	UpdateStock(ctx context.Context, id int64, stock int) error
	UpdatePricing(ctx context.Context, p *models.Product) error
	// Update saves catalogue details; price, discount and stock are left
	// alone.
	Update(ctx context.Context, p *models.Product) error
	// Delete removes the product and any cart lines holding it.
	Delete(ctx context.Context, id int64) error
	FindByCategory(ctx context.Context, categoryID int64) ([]models.Product, error)
}

type CategoryRepository interface {
	Create(ctx context.Context, c *models.Category) error
	FindAll(ctx context.Context) ([]models.Category, error)
	FindByID(ctx context.Context, id int64) (*models.Category, error)
	Update(ctx context.Context, c *models.Category) error
	Delete(ctx context.Context, id int64) error
}

type WishlistRepository interface {
	// Add returns ErrDuplicate if the user already lists the product.
	Add(ctx context.Context, item *models.WishlistItem) error
	Remove(ctx context.Context, userID, productID int64) error
	FindByUser(ctx context.Context, userID int64) ([]models.WishlistItem, error)
	SetNotify(ctx context.Context, userID, productID int64, notify bool) error
	// FindSubscribers lists the entries for productID that want discount
	// notices, with the owners' names and e-mail addresses.
	FindSubscribers(ctx context.Context, productID int64) ([]models.WishlistSubscriber, error)
	MarkNotified(ctx context.Context, itemID int64, price decimal.Decimal) error
}

type ReviewRepository interface {
	// Create returns ErrDuplicate if the user already reviewed the product.
	Create(ctx context.Context, r *models.Review) error
	FindByProduct(ctx context.Context, productID int64) ([]models.Review, error)
	FindAll(ctx context.Context) ([]models.Review, error)
	// FindPending lists commented reviews still waiting for approval.
	FindPending(ctx context.Context) ([]models.Review, error)
	Approve(ctx context.Context, id int64) error
	Delete(ctx context.Context, id int64) error
	// HasDeliveredPurchase reports whether one of the user's delivered
	// orders contains the product.
	HasDeliveredPurchase(ctx context.Context, userID, productID int64) (bool, error)
}

type UserRepository interface {
	Create(ctx context.Context, u *models.User) error
	FindByID(ctx context.Context, id int64) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateAddress(ctx context.Context, id int64, addr models.Address) error
}

type CartRepository interface {
	FindByID(ctx context.Context, id string) (*models.Cart, error)
	FindByUser(ctx context.Context, userID int64) (*models.Cart, error)
	Create(ctx context.Context, cart *models.Cart) error
	// SaveItems replaces the cart's lines with items.
	SaveItems(ctx context.Context, cartID string, items []models.CartItem) error
	Delete(ctx context.Context, id string) error
}

type OrderRepository interface {
	// PlaceOrder inserts the order, decrements stock for every line and
	// empties the cart in one transaction. It returns ErrInsufficientStock,
	// leaving nothing behind, if any line cannot be covered.
	PlaceOrder(ctx context.Context, order *models.Order, cartID string) error
	FindByID(ctx context.Context, id int64) (*models.Order, error)
	FindByUser(ctx context.Context, userID int64) ([]models.Order, error)
	FindByStatus(ctx context.Context, status models.OrderStatus) ([]models.Order, error)
	FindCreatedBetween(ctx context.Context, from, to time.Time) ([]models.Order, error)
	// UpdateStatus moves the order from one status to another, returning
	// ErrConflict if it is no longer in from.
	UpdateStatus(ctx context.Context, id int64, from, to models.OrderStatus) error
	// Cancel marks a processing order cancelled and restores its stock.
	Cancel(ctx context.Context, id int64, at time.Time) error
}

type RefundRepository interface {
	// Create stores a pending refund. It returns ErrConflict if, together
	// with the order's pending and approved refunds, a line would exceed the
	// purchased quantity.
	Create(ctx context.Context, r *models.Refund) error
	// RefundedQuantities sums, per product, the units of an order claimed by
	// pending or approved refunds.
	RefundedQuantities(ctx context.Context, orderID int64) (map[int64]int, error)
	FindByID(ctx context.Context, id int64) (*models.Refund, error)
	FindByStatus(ctx context.Context, status models.RefundStatus) ([]models.Refund, error)
	// Approve moves a pending refund to approved and restores stock for its
	// lines. ErrConflict if the refund is not pending.
	Approve(ctx context.Context, id int64, at time.Time) error
	Reject(ctx context.Context, id int64, at time.Time) error
}

type NotificationRepository interface {
	Create(ctx context.Context, n *models.Notification) error
	FindByUser(ctx context.Context, userID int64) ([]models.Notification, error)
	MarkRead(ctx context.Context, userID int64, id string) error
	Delete(ctx context.Context, userID int64, id string) error
}

// BulkNotificationRepository is implemented by stores that can insert many
// notifications in one round trip.
type BulkNotificationRepository interface {
	CreateMany(ctx context.Context, ns []*models.Notification) error
}
