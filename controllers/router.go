package controllers

import (
	"net/http"

	"storefront-service/middlewares"
	"storefront-service/models"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter wires every route. SetServices must have been called first.
func NewRouter(jwtSecret string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middlewares.PrometheusMiddleware())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	auth := middlewares.AuthMiddleware(jwtSecret)
	can := middlewares.RequireCapability

	r.GET("/invoices/:filename", auth, ServeInvoice)

	api := r.Group("/api")

	api.POST("/auth/signup", Signup)
	api.POST("/auth/login", Login)

	users := api.Group("/users", auth)
	{
		users.GET("/me", GetMe)
		users.PATCH("/me/address", UpdateAddress)
	}

	cart := api.Group("/cart", middlewares.OptionalAuth(jwtSecret))
	{
		cart.GET("", GetCart)
		cart.POST("/add", AddToCart)
		cart.POST("/update", UpdateCartItem)
		cart.POST("/remove", RemoveFromCart)
	}

	orders := api.Group("/orders", auth)
	{
		orders.POST("/checkout", Checkout)
		orders.GET("", GetUserOrders)
		orders.GET("/history", GetUserOrders)
		orders.GET("/:id", GetOrderDetails)
		orders.PATCH("/:id/status", can(models.CapUpdateOrderStatus), UpdateOrderStatus)
		orders.POST("/:id/cancel", CancelOrder)
		orders.POST("/:id/refund", RequestRefund)
	}

	api.GET("/deliveries", auth, can(models.CapUpdateOrderStatus), GetDeliveries)

	refunds := api.Group("/refunds", auth, can(models.CapReviewRefunds))
	{
		refunds.GET("/pending", GetPendingRefunds)
		refunds.PATCH("/:id/approve", ApproveRefund)
		refunds.PATCH("/:id/reject", RejectRefund)
	}

	api.GET("/products", ListProducts)
	api.GET("/products/:id", GetProduct)
	api.POST("/products", auth, can(models.CapManageProducts), CreateProduct)
	api.PATCH("/products/:id", auth, can(models.CapManageProducts), UpdateProduct)
	api.DELETE("/products/:id", auth, can(models.CapManageProducts), DeleteProduct)
	api.PATCH("/products/:id/stock", auth, can(models.CapManageProducts), UpdateStock)
	api.GET("/products/:id/reviews", GetProductReviews)
	api.POST("/products/:id/reviews", auth, CreateReview)

	api.GET("/categories", ListCategories)
	api.GET("/categories/:id/products", GetCategoryProducts)
	api.POST("/categories", auth, can(models.CapManageProducts), CreateCategory)
	api.PATCH("/categories/:id", auth, can(models.CapManageProducts), UpdateCategory)
	api.DELETE("/categories/:id", auth, can(models.CapManageProducts), DeleteCategory)

	reviews := api.Group("/reviews", auth, can(models.CapManageProducts))
	{
		reviews.GET("", GetAllReviews)
		reviews.GET("/pending", GetPendingReviews)
		reviews.PATCH("/:id/approve", ApproveReview)
		reviews.PATCH("/:id/reject", RejectReview)
	}

	wishlist := api.Group("/wishlist", auth)
	{
		wishlist.GET("", GetWishlist)
		wishlist.POST("", AddToWishlist)
		wishlist.DELETE("/:productId", RemoveFromWishlist)
		wishlist.PATCH("/:productId", ToggleDiscountNotification)
	}

	sales := api.Group("/sales", auth)
	{
		sales.PATCH("/products/:id/price", can(models.CapManagePricing), UpdatePrice)
		sales.PATCH("/products/:id/discount", can(models.CapManagePricing), UpdateDiscount)
		sales.POST("/products/:id/notify-discount", can(models.CapManagePricing), NotifyDiscount)
		sales.GET("/invoices", can(models.CapViewReports), GetInvoices)
		sales.GET("/revenue", can(models.CapViewReports), GetRevenue)
		sales.GET("/profit", can(models.CapViewReports), GetProfit)
	}

	notifications := api.Group("/notifications", auth)
	{
		notifications.GET("", GetNotifications)
		notifications.POST("", can(models.CapSendNotifications), CreateNotification)
		notifications.POST("/bulk", can(models.CapSendNotifications), CreateBulkNotifications)
		notifications.PATCH("/:id/read", MarkNotificationRead)
		notifications.DELETE("/:id", DeleteNotification)
	}

	return r
}
