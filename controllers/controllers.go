package controllers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"storefront-service/invoices"
	"storefront-service/services"

	"github.com/gin-gonic/gin"
)

// Services are the handlers' dependencies, installed once at start-up.
type Services struct {
	Auth          *services.AuthService
	Carts         *services.CartService
	Checkout      *services.CheckoutService
	Orders        *services.OrderService
	Refunds       *services.RefundService
	Products      *services.ProductService
	Sales         *services.SalesService
	Notifications *services.NotificationService
	Wishlist      *services.WishlistService
	Reviews       *services.ReviewService
	Categories    *services.CategoryService
	Invoices      *invoices.Store
}

var svc Services

func SetServices(s Services) {
	svc = s
}

func success(c *gin.Context, code int, data any) {
	c.JSON(code, gin.H{"status": "success", "data": data})
}

func fail(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{"status": "fail", "message": message})
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, services.ErrValidation),
		errors.Is(err, services.ErrEmptyCart),
		errors.Is(err, services.ErrIncompleteAddress),
		errors.Is(err, services.ErrOrderNotCancellable),
		errors.Is(err, services.ErrRefundNotAllowed),
		errors.Is(err, services.ErrRefundWindowExpired),
		errors.Is(err, services.ErrInvalidRefundItems),
		errors.Is(err, services.ErrReviewNotAllowed),
		errors.Is(err, services.ErrNoDiscount):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrNotOrderOwner):
		return http.StatusForbidden
	case errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrProductNotFound),
		errors.Is(err, services.ErrCartNotFound),
		errors.Is(err, services.ErrCartItemNotFound),
		errors.Is(err, services.ErrOrderNotFound),
		errors.Is(err, services.ErrRefundNotFound),
		errors.Is(err, services.ErrNotificationMissing),
		errors.Is(err, services.ErrCategoryNotFound),
		errors.Is(err, services.ErrNotInWishlist),
		errors.Is(err, services.ErrReviewNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrStockConflict),
		errors.Is(err, services.ErrInvalidTransition),
		errors.Is(err, services.ErrRefundProcessed),
		errors.Is(err, services.ErrEmailTaken),
		errors.Is(err, services.ErrCategoryExists),
		errors.Is(err, services.ErrAlreadyInWishlist),
		errors.Is(err, services.ErrAlreadyReviewed):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// respondError maps service errors to status codes. Anything unexpected is
// logged and hidden behind a generic 500.
func respondError(c *gin.Context, err error) {
	code := errorStatus(err)
	if code == http.StatusInternalServerError {
		slog.Error("Request failed", "method", c.Request.Method, "path", c.FullPath(), "err", err)
		c.JSON(code, gin.H{"status": "error", "message": "Internal server error"})
		return
	}
	fail(c, code, err.Error())
}

func idParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		fail(c, http.StatusBadRequest, "Invalid "+name)
		return 0, false
	}
	return id, true
}

func succeeded(c *gin.Context) bool {
	return c.Writer.Status() >= 200 && c.Writer.Status() < 300
}
