package invoices

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"storefront-service/models"

	"github.com/go-pdf/fpdf"
)

var ErrInvoiceTooLarge = errors.New("invoice exceeds size limit")

const (
	DefaultMaxBytes = 5 << 20
	// maxPages stops a runaway layout long before Output is reached.
	maxPages = 100
)

// limitedBuffer fails writes once more than max bytes would be held.
type limitedBuffer struct {
	buf bytes.Buffer
	max int
}

func (l *limitedBuffer) Write(p []byte) (int, error) {
	if l.buf.Len()+len(p) > l.max {
		return 0, ErrInvoiceTooLarge
	}
	return l.buf.Write(p)
}

type Renderer struct {
	ShopName string
	MaxBytes int
}

// Render draws the invoice of order. It gives up with ctx.Err() when ctx
// ends first and with ErrInvoiceTooLarge once output passes MaxBytes.
func (r Renderer) Render(ctx context.Context, order *models.Order, customer *models.User) ([]byte, error) {
	type result struct {
		data []byte
		err  error
	}
	done := make(chan result, 1)
	go func() {
		data, err := r.render(order, customer)
		done <- result{data, err}
	}()

	select {
	case res := <-done:
		return res.data, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (r Renderer) maxBytes() int {
	if r.MaxBytes <= 0 {
		return DefaultMaxBytes
	}
	return r.MaxBytes
}

func (r Renderer) render(order *models.Order, customer *models.User) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(fmt.Sprintf("Invoice %d", order.ID), true)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 10, r.ShopName+" Invoice", "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, 6, fmt.Sprintf("Order ID: %d", order.ID), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, "Date: "+order.CreatedAt.UTC().Format("2006-01-02 15:04 MST"), "", 1, "L", false, 0, "")
	if customer != nil {
		pdf.CellFormat(0, 6, "Customer: "+customer.Name+" <"+customer.Email+">", "", 1, "L", false, 0, "")
	}
	addr := order.ShippingAddress
	pdf.CellFormat(0, 6, fmt.Sprintf("Ship to: %s, %s %s", addr.Street, addr.City, addr.PostalCode), "", 1, "L", false, 0, "")
	pdf.Ln(6)

	widths := []float64{20, 90, 35, 35}
	pdf.SetFont("Helvetica", "B", 11)
	for i, h := range []string{"Qty", "Product", "Unit price", "Subtotal"} {
		pdf.CellFormat(widths[i], 8, h, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 11)
	for _, item := range order.Items {
		if pdf.PageNo() > maxPages {
			return nil, ErrInvoiceTooLarge
		}
		pdf.CellFormat(widths[0], 7, fmt.Sprintf("%d", item.Quantity), "1", 0, "C", false, 0, "")
		pdf.CellFormat(widths[1], 7, item.ProductName, "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[2], 7, item.PriceAtPurchase.StringFixed(2), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[3], 7, item.Subtotal().StringFixed(2), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(widths[0]+widths[1]+widths[2], 8, "Total", "1", 0, "R", false, 0, "")
	pdf.CellFormat(widths[3], 8, order.Total.StringFixed(2), "1", 1, "R", false, 0, "")

	out := &limitedBuffer{max: r.maxBytes()}
	if err := pdf.Output(out); err != nil {
		if errors.Is(err, ErrInvoiceTooLarge) {
			return nil, ErrInvoiceTooLarge
		}
		return nil, fmt.Errorf("failed to render invoice %d: %w", order.ID, err)
	}
	return out.buf.Bytes(), nil
}
