package controllers

import (
	"net/http"

	"storefront-service/middlewares"

	"github.com/gin-gonic/gin"
)

func GetWishlist(c *gin.Context) {
	userID, _ := middlewares.UserID(c)
	items, err := svc.Wishlist.List(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	success(c, http.StatusOK, items)
}

func AddToWishlist(c *gin.Context) {
	userID, _ := middlewares.UserID(c)
	var req struct {
		ProductID int64 `json:"product_id" binding:"required,gt=0"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "product_id is required")
		return
	}
	item, err := svc.Wishlist.Add(c.Request.Context(), userID, req.ProductID)
	if err != nil {
		respondError(c, err)
		return
	}
	success(c, http.StatusCreated, item)
}

func RemoveFromWishlist(c *gin.Context) {
	productID, ok := idParam(c, "productId")
	if !ok {
		return
	}
	userID, _ := middlewares.UserID(c)
	if err := svc.Wishlist.Remove(c.Request.Context(), userID, productID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func ToggleDiscountNotification(c *gin.Context) {
	productID, ok := idParam(c, "productId")
	if !ok {
		return
	}
	var req struct {
		NotifyOnDiscount *bool `json:"notify_on_discount" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "notify_on_discount is required")
		return
	}
	userID, _ := middlewares.UserID(c)
	if err := svc.Wishlist.SetNotify(c.Request.Context(), userID, productID, *req.NotifyOnDiscount); err != nil {
		respondError(c, err)
		return
	}
	success(c, http.StatusOK, gin.H{"product_id": productID, "notify_on_discount": *req.NotifyOnDiscount})
}
