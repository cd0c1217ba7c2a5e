package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"storefront-service/models"
	"storefront-service/repository"

	"github.com/shopspring/decimal"
)

// Orders above this total get their invoice job prioritised.
var highValueTotal = decimal.NewFromInt(1000)

// JobDispatcher hands an invoice job to whatever runs it after the order
// is committed. Dispatch must not block on the job itself.
type JobDispatcher interface {
	Dispatch(ctx context.Context, job models.InvoiceJob) error
}

type CheckoutResult struct {
	Order      *models.Order `json:"order"`
	InvoiceURL string        `json:"invoiceUrl"`
}

type CheckoutService struct {
	carts      repository.CartRepository
	users      repository.UserRepository
	products   repository.ProductRepository
	orders     repository.OrderRepository
	cartCache  *CartService
	dispatcher JobDispatcher
}

func NewCheckoutService(
	carts repository.CartRepository,
	users repository.UserRepository,
	products repository.ProductRepository,
	orders repository.OrderRepository,
	cartService *CartService,
	dispatcher JobDispatcher,
) *CheckoutService {
	return &CheckoutService{
		carts:      carts,
		users:      users,
		products:   products,
		orders:     orders,
		cartCache:  cartService,
		dispatcher: dispatcher,
	}
}

// InvoiceURL is where the invoice of an order is served once rendered.
func InvoiceURL(orderID int64) string {
	return fmt.Sprintf("/invoices/invoice-%d.pdf", orderID)
}

// Checkout turns the user's cart into an order. Stock is decremented and
// the cart emptied in the same transaction as the order insert; the invoice
// is produced afterwards by the dispatched job.
func (s *CheckoutService) Checkout(ctx context.Context, userID int64) (*CheckoutResult, error) {
	cart, err := s.carts.FindByUser(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrEmptyCart
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	if cart.IsEmpty() {
		return nil, ErrEmptyCart
	}

	user, err := s.users.FindByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if !user.Address.Complete() {
		return nil, ErrIncompleteAddress
	}

	order := &models.Order{
		UserID:          userID,
		Items:           make([]models.OrderItem, 0, len(cart.Items)),
		Total:           decimal.Zero,
		Status:          models.OrderStatusProcessing,
		ShippingAddress: user.Address.Trimmed(),
	}
	for _, line := range cart.Items {
		product, err := s.products.FindByID(ctx, line.ProductID)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("product %d: %w", line.ProductID, ErrStockConflict)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load product %d: %w", line.ProductID, err)
		}

		price := product.UnitPrice()
		item := models.OrderItem{
			ProductID:       product.ID,
			ProductName:     product.Name,
			Quantity:        line.Quantity,
			PriceAtPurchase: price,
			CostAtPurchase:  product.UnitCost(price),
		}
		order.Items = append(order.Items, item)
		order.Total = order.Total.Add(item.Subtotal())
	}

	if err := s.orders.PlaceOrder(ctx, order, cart.ID); err != nil {
		if errors.Is(err, repository.ErrInsufficientStock) {
			return nil, fmt.Errorf("%w: %v", ErrStockConflict, err)
		}
		return nil, fmt.Errorf("failed to place order: %w", err)
	}
	if s.cartCache != nil {
		s.cartCache.Invalidate(models.UserOwner{UserID: userID})
	}

	result := &CheckoutResult{Order: order}
	if s.dispatcher == nil {
		return result, nil
	}
	job := models.InvoiceJob{
		OrderID:   order.ID,
		UserID:    userID,
		HighValue: order.Total.GreaterThan(highValueTotal),
		Occurred:  order.CreatedAt,
	}
	if err := s.dispatcher.Dispatch(ctx, job); err != nil {
		slog.Error("Failed to dispatch invoice job", "order_id", order.ID, "err", err)
	} else {
		result.InvoiceURL = InvoiceURL(order.ID)
	}
	return result, nil
}
