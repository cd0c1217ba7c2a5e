package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"storefront-service/models"
	"storefront-service/repository"

	"github.com/shopspring/decimal"
)

type RefundService struct {
	refunds       repository.RefundRepository
	orders        repository.OrderRepository
	notifications *NotificationService
	now           func() time.Time
}

func NewRefundService(refunds repository.RefundRepository, orders repository.OrderRepository, notifications *NotificationService) *RefundService {
	return &RefundService{
		refunds:       refunds,
		orders:        orders,
		notifications: notifications,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// Request opens a pending refund for lines of a delivered order. Nothing
// about the order or stock changes until the refund is approved.
func (s *RefundService) Request(ctx context.Context, userID, orderID int64, lines []models.RefundLineRequest) (*models.Refund, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load order: %w", err)
	}
	if order.UserID != userID {
		return nil, ErrNotOrderOwner
	}
	if order.Status != models.OrderStatusDelivered {
		return nil, ErrRefundNotAllowed
	}
	if s.now().Sub(order.CreatedAt) > models.RefundWindow {
		return nil, ErrRefundWindowExpired
	}

	claimed, err := s.refunds.RefundedQuantities(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load earlier refunds: %w", err)
	}
	items, err := refundItems(order, lines, claimed)
	if err != nil {
		return nil, err
	}
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.PriceAtPurchase.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	refund := &models.Refund{
		OrderID:           order.ID,
		UserID:            userID,
		Items:             items,
		TotalRefundAmount: total,
		Status:            models.RefundStatusPending,
	}
	err = s.refunds.Create(ctx, refund)
	if errors.Is(err, repository.ErrConflict) {
		// a concurrent request claimed the same units first
		return nil, fmt.Errorf("%w: quantities already claimed by another refund", ErrInvalidRefundItems)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create refund: %w", err)
	}
	return refund, nil
}

// refundItems validates the requested lines against the order. Repeated
// lines for one product are summed, and units already claimed by pending or
// approved refunds count against the purchased quantity.
func refundItems(order *models.Order, lines []models.RefundLineRequest, claimed map[int64]int) ([]models.RefundItem, error) {
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: no items", ErrInvalidRefundItems)
	}

	var items []models.RefundItem
	index := make(map[int64]int)
	for _, line := range lines {
		reason := strings.TrimSpace(line.Reason)
		if line.Quantity <= 0 || reason == "" {
			return nil, fmt.Errorf("%w: product %d needs a positive quantity and a reason", ErrInvalidRefundItems, line.ProductID)
		}
		purchased, ok := order.Item(line.ProductID)
		if !ok {
			return nil, fmt.Errorf("%w: product %d is not in the order", ErrInvalidRefundItems, line.ProductID)
		}

		if i, seen := index[line.ProductID]; seen {
			items[i].Quantity += line.Quantity
			items[i].Reason += "; " + reason
		} else {
			index[line.ProductID] = len(items)
			items = append(items, models.RefundItem{
				ProductID:       line.ProductID,
				Quantity:        line.Quantity,
				PriceAtPurchase: purchased.PriceAtPurchase,
				Reason:          reason,
			})
		}
		if items[index[line.ProductID]].Quantity+claimed[line.ProductID] > purchased.Quantity {
			return nil, fmt.Errorf("%w: product %d exceeds purchased quantity %d (%d already refunded or pending)",
				ErrInvalidRefundItems, line.ProductID, purchased.Quantity, claimed[line.ProductID])
		}
	}
	return items, nil
}

func (s *RefundService) ListPending(ctx context.Context) ([]models.Refund, error) {
	return s.refunds.FindByStatus(ctx, models.RefundStatusPending)
}

// Approve accepts a pending refund and restores the refunded quantities to
// stock. Deciding a refund twice fails with ErrRefundProcessed.
func (s *RefundService) Approve(ctx context.Context, refundID int64) (*models.Refund, error) {
	return s.decide(ctx, refundID, models.RefundStatusApproved, s.refunds.Approve)
}

func (s *RefundService) Reject(ctx context.Context, refundID int64) (*models.Refund, error) {
	return s.decide(ctx, refundID, models.RefundStatusRejected, s.refunds.Reject)
}

func (s *RefundService) decide(ctx context.Context, refundID int64, status models.RefundStatus, apply func(context.Context, int64, time.Time) error) (*models.Refund, error) {
	refund, err := s.refunds.FindByID(ctx, refundID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrRefundNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load refund: %w", err)
	}
	if refund.Status != models.RefundStatusPending {
		return nil, ErrRefundProcessed
	}

	at := s.now()
	err = apply(ctx, refundID, at)
	if errors.Is(err, repository.ErrConflict) {
		return nil, ErrRefundProcessed
	}
	if err != nil {
		return nil, fmt.Errorf("failed to mark refund %s: %w", status, err)
	}
	refund.Status = status
	refund.DecidedAt = &at
	refund.UpdatedAt = at

	s.notifications.Notify(ctx, refund.UserID, models.NotificationOrder,
		"Refund "+string(status),
		fmt.Sprintf("Your refund request for order #%d was %s.", refund.OrderID, status),
		fmt.Sprintf("/orders/%d", refund.OrderID))
	return refund, nil
}
