package consumers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"storefront-service/invoices"
	"storefront-service/mailer"
	"storefront-service/middlewares"
	"storefront-service/models"
	"storefront-service/services"
)

type OrderFinder interface {
	FindByID(ctx context.Context, id int64) (*models.Order, error)
}

type UserFinder interface {
	FindByID(ctx context.Context, id int64) (*models.User, error)
}

type InvoiceRenderer interface {
	Render(ctx context.Context, order *models.Order, customer *models.User) ([]byte, error)
}

type JobHandler interface {
	Handle(ctx context.Context, job models.InvoiceJob) error
}

// InvoiceWorker renders the invoice of a placed order, mails it to the
// customer and leaves an in-app notification. Only a failure to load the
// order or its owner is returned; everything after that is best effort.
type InvoiceWorker struct {
	Orders        OrderFinder
	Users         UserFinder
	Renderer      InvoiceRenderer
	Store         *invoices.Store
	Mailer        mailer.Mailer
	Notifications *services.NotificationService
	RenderTimeout time.Duration
	EmailTimeout  time.Duration
}

func (w *InvoiceWorker) Handle(ctx context.Context, job models.InvoiceJob) error {
	order, err := w.Orders.FindByID(ctx, job.OrderID)
	if err != nil {
		return fmt.Errorf("failed to load order %d: %w", job.OrderID, err)
	}
	user, err := w.Users.FindByID(ctx, order.UserID)
	if err != nil {
		return fmt.Errorf("failed to load user %d: %w", order.UserID, err)
	}

	path := w.invoice(ctx, order, user)
	w.email(ctx, order, user, path)

	w.Notifications.Notify(ctx, user.ID, models.NotificationOrder,
		"Order confirmed",
		fmt.Sprintf("Your order #%d has been placed. Total: %s", order.ID, order.Total.StringFixed(2)),
		services.InvoiceURL(order.ID))
	return nil
}

// invoice returns the path of the stored invoice, or "" when none could be
// produced. A redelivered job reuses the existing file.
func (w *InvoiceWorker) invoice(ctx context.Context, order *models.Order, user *models.User) string {
	if path, err := w.Store.Path(order.ID); err == nil {
		return path
	}

	renderCtx, cancel := context.WithTimeout(ctx, w.RenderTimeout)
	defer cancel()

	data, err := w.Renderer.Render(renderCtx, order, user)
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		middlewares.RecordInvoiceRender("timeout")
		slog.Warn("Invoice rendering timed out", "order_id", order.ID, "timeout", w.RenderTimeout)
		return ""
	case errors.Is(err, invoices.ErrInvoiceTooLarge):
		middlewares.RecordInvoiceRender("too_large")
		slog.Warn("Invoice too large, skipped", "order_id", order.ID)
		return ""
	case err != nil:
		middlewares.RecordInvoiceRender("error")
		slog.Error("Invoice rendering failed", "order_id", order.ID, "err", err)
		return ""
	}

	path, err := w.Store.Save(order.ID, data)
	if err != nil {
		middlewares.RecordInvoiceRender("error")
		slog.Error("Failed to store invoice", "order_id", order.ID, "err", err)
		return ""
	}
	middlewares.RecordInvoiceRender("success")
	return path
}

func (w *InvoiceWorker) email(ctx context.Context, order *models.Order, user *models.User, invoicePath string) {
	msg := mailer.Message{
		To:      user.Email,
		Subject: fmt.Sprintf("Your invoice for order #%d", order.ID),
		Body: fmt.Sprintf("Hello %s,\n\nThank you for your purchase. Your order #%d totals %s.\n",
			user.Name, order.ID, order.Total.StringFixed(2)),
	}
	if invoicePath != "" {
		msg.Attachments = []string{invoicePath}
	}

	emailCtx, cancel := context.WithTimeout(ctx, w.EmailTimeout)
	defer cancel()

	err := w.Mailer.Send(emailCtx, msg)
	switch {
	case err == nil:
		middlewares.RecordInvoiceEmail("success")
	case errors.Is(err, context.DeadlineExceeded):
		middlewares.RecordInvoiceEmail("timeout")
		slog.Warn("Invoice email timed out", "order_id", order.ID, "timeout", w.EmailTimeout)
	case errors.Is(err, mailer.ErrUnavailable):
		middlewares.RecordInvoiceEmail("unavailable")
		slog.Warn("Invoice email skipped, mail server unavailable", "order_id", order.ID)
	default:
		middlewares.RecordInvoiceEmail("error")
		slog.Error("Invoice email failed", "order_id", order.ID, "err", err)
	}
}
