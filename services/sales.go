package services

import (
	"context"
	"fmt"
	"time"

	"storefront-service/models"
	"storefront-service/repository"

	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

type DailyAmount struct {
	Date   string          `json:"date"`
	Amount decimal.Decimal `json:"amount"`
}

type InvoiceRef struct {
	OrderID    int64              `json:"order_id"`
	UserID     int64              `json:"user_id"`
	Total      decimal.Decimal    `json:"total"`
	Status     models.OrderStatus `json:"status"`
	CreatedAt  time.Time          `json:"created_at"`
	InvoiceURL string             `json:"invoice_url"`
}

type SalesService struct {
	orders repository.OrderRepository
}

func NewSalesService(orders repository.OrderRepository) *SalesService {
	return &SalesService{orders: orders}
}

const maxReportDays = 366

// ParseDateRange turns two YYYY-MM-DD dates into UTC bounds covering both
// days completely.
func ParseDateRange(start, end string) (time.Time, time.Time, error) {
	from, err := time.ParseInLocation(dateLayout, start, time.UTC)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: start must be YYYY-MM-DD", ErrValidation)
	}
	to, err := time.ParseInLocation(dateLayout, end, time.UTC)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: end must be YYYY-MM-DD", ErrValidation)
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: end is before start", ErrValidation)
	}
	if days := int(to.Sub(from).Hours()/24) + 1; days > maxReportDays {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: range spans %d days, at most %d allowed", ErrValidation, days, maxReportDays)
	}
	return from, to.Add(24*time.Hour - time.Nanosecond), nil
}

func (s *SalesService) Invoices(ctx context.Context, from, to time.Time) ([]InvoiceRef, error) {
	orders, err := s.orders.FindCreatedBetween(ctx, from, to)
	if err != nil {
		return nil, err
	}
	refs := make([]InvoiceRef, 0, len(orders))
	for _, o := range orders {
		refs = append(refs, InvoiceRef{
			OrderID:    o.ID,
			UserID:     o.UserID,
			Total:      o.Total,
			Status:     o.Status,
			CreatedAt:  o.CreatedAt,
			InvoiceURL: InvoiceURL(o.ID),
		})
	}
	return refs, nil
}

// Revenue sums order totals per UTC day. Cancelled orders do not count.
func (s *SalesService) Revenue(ctx context.Context, from, to time.Time) ([]DailyAmount, error) {
	return s.daily(ctx, from, to, func(o models.Order) decimal.Decimal { return o.Total })
}

// Profit sums (price - cost) x quantity per UTC day.
func (s *SalesService) Profit(ctx context.Context, from, to time.Time) ([]DailyAmount, error) {
	return s.daily(ctx, from, to, func(o models.Order) decimal.Decimal {
		profit := decimal.Zero
		for _, item := range o.Items {
			margin := item.PriceAtPurchase.Sub(item.CostAtPurchase)
			profit = profit.Add(margin.Mul(decimal.NewFromInt(int64(item.Quantity))))
		}
		return profit
	})
}

func (s *SalesService) daily(ctx context.Context, from, to time.Time, amount func(models.Order) decimal.Decimal) ([]DailyAmount, error) {
	orders, err := s.orders.FindCreatedBetween(ctx, from, to)
	if err != nil {
		return nil, err
	}

	byDay := make(map[string]decimal.Decimal)
	for _, o := range orders {
		if o.Status == models.OrderStatusCancelled {
			continue
		}
		day := o.CreatedAt.UTC().Format(dateLayout)
		byDay[day] = byDay[day].Add(amount(o))
	}

	// every day in the range appears, zero when nothing sold
	out := []DailyAmount{}
	for d := from.UTC().Truncate(24 * time.Hour); !d.After(to); d = d.Add(24 * time.Hour) {
		day := d.Format(dateLayout)
		out = append(out, DailyAmount{Date: day, Amount: byDay[day]})
	}
	return out, nil
}
