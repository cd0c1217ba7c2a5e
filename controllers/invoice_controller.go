package controllers

import (
	"errors"
	"net/http"

	"storefront-service/invoices"
	"storefront-service/middlewares"
	"storefront-service/models"

	"github.com/gin-gonic/gin"
)

// ServeInvoice sends a stored invoice PDF to the order's owner or to staff
// allowed to view invoices. Anyone else gets a 404 so order ids do not leak.
func ServeInvoice(c *gin.Context) {
	orderID, err := invoices.ParseFileName(c.Param("filename"))
	if err != nil {
		fail(c, http.StatusNotFound, "Invoice not found")
		return
	}

	userID, _ := middlewares.UserID(c)
	order, err := svc.Orders.GetAny(c.Request.Context(), orderID)
	if err != nil {
		respondError(c, err)
		return
	}
	if order.UserID != userID && !middlewares.Role(c).Can(models.CapViewInvoices) {
		fail(c, http.StatusNotFound, "Invoice not found")
		return
	}

	path, err := svc.Invoices.Path(orderID)
	if errors.Is(err, invoices.ErrNotFound) {
		fail(c, http.StatusNotFound, "Invoice not found")
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Type", "application/pdf")
	c.File(path)
}
