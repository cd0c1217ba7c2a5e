package controllers

import (
	"context"
	"net/http"
	"time"

	"storefront-service/services"

	"github.com/gin-gonic/gin"
)

// dateRangeHandler parses ?start=&end= (YYYY-MM-DD) before calling report.
func dateRangeHandler[T any](report func(ctx context.Context, from, to time.Time) (T, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		from, to, err := services.ParseDateRange(c.Query("start"), c.Query("end"))
		if err != nil {
			respondError(c, err)
			return
		}
		data, err := report(c.Request.Context(), from, to)
		if err != nil {
			respondError(c, err)
			return
		}
		success(c, http.StatusOK, data)
	}
}

func GetInvoices(c *gin.Context) {
	dateRangeHandler(svc.Sales.Invoices)(c)
}

func GetRevenue(c *gin.Context) {
	dateRangeHandler(svc.Sales.Revenue)(c)
}

func GetProfit(c *gin.Context) {
	dateRangeHandler(svc.Sales.Profit)(c)
}
