package controllers

import (
	"net/http"

	"storefront-service/middlewares"
	"storefront-service/models"

	"github.com/gin-gonic/gin"
)

func GetProductReviews(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	reviews, err := svc.Reviews.ForProduct(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	success(c, http.StatusOK, reviews)
}

func CreateReview(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req models.CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "rating is required")
		return
	}
	userID, _ := middlewares.UserID(c)
	review, err := svc.Reviews.Create(c.Request.Context(), userID, id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	success(c, http.StatusCreated, review)
}

func GetAllReviews(c *gin.Context) {
	reviews, err := svc.Reviews.All(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	success(c, http.StatusOK, reviews)
}

func GetPendingReviews(c *gin.Context) {
	reviews, err := svc.Reviews.Pending(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	success(c, http.StatusOK, reviews)
}

func ApproveReview(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := svc.Reviews.Approve(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	success(c, http.StatusOK, gin.H{"id": id, "approved": true})
}

func RejectReview(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := svc.Reviews.Reject(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
