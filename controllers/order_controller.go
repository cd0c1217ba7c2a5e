package controllers

import (
	"net/http"

	"storefront-service/middlewares"
	"storefront-service/models"

	"github.com/gin-gonic/gin"
)

func Checkout(c *gin.Context) {
	defer func() { middlewares.RecordOperation("checkout", succeeded(c)) }()

	userID, _ := middlewares.UserID(c)
	res, err := svc.Checkout.Checkout(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	success(c, http.StatusOK, res)
}

func GetUserOrders(c *gin.Context) {
	defer func() { middlewares.RecordOperation("list", succeeded(c)) }()

	userID, _ := middlewares.UserID(c)
	orders, err := svc.Orders.ListForUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	success(c, http.StatusOK, orders)
}

func GetOrderDetails(c *gin.Context) {
	defer func() { middlewares.RecordOperation("details", succeeded(c)) }()

	userID, _ := middlewares.UserID(c)
	orderID, ok := idParam(c, "id")
	if !ok {
		return
	}
	order, err := svc.Orders.Get(c.Request.Context(), userID, orderID)
	if err != nil {
		respondError(c, err)
		return
	}
	success(c, http.StatusOK, order)
}

func UpdateOrderStatus(c *gin.Context) {
	defer func() { middlewares.RecordOperation("update_status", succeeded(c)) }()

	orderID, ok := idParam(c, "id")
	if !ok {
		return
	}
	var request struct {
		Status models.OrderStatus `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		fail(c, http.StatusBadRequest, "status is required")
		return
	}

	order, err := svc.Orders.UpdateStatus(c.Request.Context(), orderID, request.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	success(c, http.StatusOK, order)
}

func CancelOrder(c *gin.Context) {
	defer func() { middlewares.RecordOperation("cancel", succeeded(c)) }()

	userID, _ := middlewares.UserID(c)
	orderID, ok := idParam(c, "id")
	if !ok {
		return
	}
	order, err := svc.Orders.Cancel(c.Request.Context(), userID, orderID)
	if err != nil {
		respondError(c, err)
		return
	}
	success(c, http.StatusOK, order)
}

func RequestRefund(c *gin.Context) {
	defer func() { middlewares.RecordOperation("refund_request", succeeded(c)) }()

	userID, _ := middlewares.UserID(c)
	orderID, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req models.RefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	refund, err := svc.Refunds.Request(c.Request.Context(), userID, orderID, req.Items)
	if err != nil {
		respondError(c, err)
		return
	}
	success(c, http.StatusCreated, refund)
}

// GetDeliveries lists orders for the delivery team, optionally filtered by
// ?status=.
func GetDeliveries(c *gin.Context) {
	orders, err := svc.Orders.ListByStatus(c.Request.Context(), models.OrderStatus(c.Query("status")))
	if err != nil {
		respondError(c, err)
		return
	}
	success(c, http.StatusOK, orders)
}
