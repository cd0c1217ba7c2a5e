package controllers

import (
	"net/http"

	"storefront-service/models"

	"github.com/gin-gonic/gin"
)

func ListCategories(c *gin.Context) {
	categories, err := svc.Categories.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	success(c, http.StatusOK, categories)
}

func GetCategoryProducts(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	listing, err := svc.Categories.Products(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	success(c, http.StatusOK, listing)
}

func CreateCategory(c *gin.Context) {
	var req models.CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "name is required")
		return
	}
	category, err := svc.Categories.Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	success(c, http.StatusCreated, category)
}

func UpdateCategory(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req models.CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "name is required")
		return
	}
	category, err := svc.Categories.Update(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	success(c, http.StatusOK, category)
}

func DeleteCategory(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := svc.Categories.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
