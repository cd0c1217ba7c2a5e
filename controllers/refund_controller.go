package controllers

import (
	"net/http"

	"storefront-service/middlewares"

	"github.com/gin-gonic/gin"
)

func GetPendingRefunds(c *gin.Context) {
	refunds, err := svc.Refunds.ListPending(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	success(c, http.StatusOK, refunds)
}

func ApproveRefund(c *gin.Context) {
	defer func() { middlewares.RecordOperation("refund_approve", succeeded(c)) }()

	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	refund, err := svc.Refunds.Approve(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	success(c, http.StatusOK, refund)
}

func RejectRefund(c *gin.Context) {
	defer func() { middlewares.RecordOperation("refund_reject", succeeded(c)) }()

	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	refund, err := svc.Refunds.Reject(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	success(c, http.StatusOK, refund)
}
