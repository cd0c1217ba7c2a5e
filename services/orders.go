package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront-service/models"
	"storefront-service/repository"
)

type OrderService struct {
	orders        repository.OrderRepository
	notifications *NotificationService
	now           func() time.Time
}

func NewOrderService(orders repository.OrderRepository, notifications *NotificationService) *OrderService {
	return &OrderService{
		orders:        orders,
		notifications: notifications,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

func (s *OrderService) find(ctx context.Context, orderID int64) (*models.Order, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load order: %w", err)
	}
	return order, nil
}

// Get returns one of the user's orders. Another user's order reads as
// not found.
func (s *OrderService) Get(ctx context.Context, userID, orderID int64) (*models.Order, error) {
	order, err := s.find(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// GetAny loads an order regardless of owner, for privileged callers.
func (s *OrderService) GetAny(ctx context.Context, orderID int64) (*models.Order, error) {
	return s.find(ctx, orderID)
}

func (s *OrderService) ListForUser(ctx context.Context, userID int64) ([]models.Order, error) {
	return s.orders.FindByUser(ctx, userID)
}

// ListByStatus backs the deliveries view. An empty status lists every
// order still on its way.
func (s *OrderService) ListByStatus(ctx context.Context, status models.OrderStatus) ([]models.Order, error) {
	if status == "" {
		processing, err := s.orders.FindByStatus(ctx, models.OrderStatusProcessing)
		if err != nil {
			return nil, err
		}
		inTransit, err := s.orders.FindByStatus(ctx, models.OrderStatusInTransit)
		if err != nil {
			return nil, err
		}
		return append(processing, inTransit...), nil
	}
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, status)
	}
	return s.orders.FindByStatus(ctx, status)
}

// UpdateStatus moves an order forward along processing, in-transit,
// delivered. Cancellation has its own path.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID int64, target models.OrderStatus) (*models.Order, error) {
	switch target {
	case models.OrderStatusProcessing, models.OrderStatusInTransit, models.OrderStatusDelivered:
	default:
		return nil, fmt.Errorf("%w: status must be one of processing, in-transit, delivered", ErrValidation)
	}

	order, err := s.find(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !order.Status.CanTransitionTo(target) {
		return nil, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, order.Status, target)
	}

	err = s.orders.UpdateStatus(ctx, orderID, order.Status, target)
	if errors.Is(err, repository.ErrConflict) {
		// someone else moved the order between our read and write
		return nil, fmt.Errorf("%w: order %d changed concurrently", ErrInvalidTransition, orderID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}
	order.Status = target
	order.UpdatedAt = s.now()

	s.notifications.Notify(ctx, order.UserID, models.NotificationOrder,
		"Order update",
		fmt.Sprintf("Your order #%d is now %s.", order.ID, target),
		fmt.Sprintf("/orders/%d", order.ID))
	return order, nil
}

// Cancel cancels a processing order on behalf of its owner and puts the
// ordered quantities back in stock.
func (s *OrderService) Cancel(ctx context.Context, userID, orderID int64) (*models.Order, error) {
	order, err := s.find(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, ErrNotOrderOwner
	}
	if order.Status != models.OrderStatusProcessing {
		return nil, ErrOrderNotCancellable
	}

	at := s.now()
	err = s.orders.Cancel(ctx, orderID, at)
	if errors.Is(err, repository.ErrConflict) {
		return nil, ErrOrderNotCancellable
	}
	if err != nil {
		return nil, fmt.Errorf("failed to cancel order: %w", err)
	}
	order.Status = models.OrderStatusCancelled
	order.CancelledAt = &at
	order.UpdatedAt = at

	s.notifications.Notify(ctx, order.UserID, models.NotificationOrder,
		"Order cancelled",
		fmt.Sprintf("Your order #%d has been cancelled.", order.ID),
		fmt.Sprintf("/orders/%d", order.ID))
	return order, nil
}
