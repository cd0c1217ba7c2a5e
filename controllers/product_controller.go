package controllers

import (
	"net/http"

	"storefront-service/models"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

func ListProducts(c *gin.Context) {
	products, err := svc.Products.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	success(c, http.StatusOK, products)
}

func GetProduct(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	product, err := svc.Products.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	success(c, http.StatusOK, product)
}

func CreateProduct(c *gin.Context) {
	var req models.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	product, err := svc.Products.Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	success(c, http.StatusCreated, product)
}

func UpdateProduct(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req models.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	product, err := svc.Products.Update(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	success(c, http.StatusOK, product)
}

func DeleteProduct(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := svc.Products.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func UpdateStock(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req struct {
		Stock *int `json:"stock" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "stock is required")
		return
	}
	product, err := svc.Products.UpdateStock(c.Request.Context(), id, *req.Stock)
	if err != nil {
		respondError(c, err)
		return
	}
	success(c, http.StatusOK, product)
}

func UpdatePrice(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req struct {
		Price *decimal.Decimal `json:"price" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "price is required")
		return
	}
	product, err := svc.Products.SetPrice(c.Request.Context(), id, *req.Price)
	if err != nil {
		respondError(c, err)
		return
	}
	success(c, http.StatusOK, product)
}

func UpdateDiscount(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req struct {
		Discount *decimal.Decimal `json:"discount" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "discount is required")
		return
	}
	product, err := svc.Products.SetDiscount(c.Request.Context(), id, *req.Discount)
	if err != nil {
		respondError(c, err)
		return
	}
	success(c, http.StatusOK, product)
}

// NotifyDiscount re-announces the product's current discount to wishlist
// subscribers who have not heard about this price yet.
func NotifyDiscount(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	product, err := svc.Products.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	notice, err := svc.Wishlist.NotifyDiscount(c.Request.Context(), product)
	if err != nil {
		respondError(c, err)
		return
	}
	success(c, http.StatusOK, notice)
}
