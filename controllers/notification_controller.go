package controllers

import (
	"net/http"

	"storefront-service/middlewares"
	"storefront-service/models"

	"github.com/gin-gonic/gin"
)

func GetNotifications(c *gin.Context) {
	userID, _ := middlewares.UserID(c)
	list, err := svc.Notifications.List(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	success(c, http.StatusOK, list)
}

func MarkNotificationRead(c *gin.Context) {
	userID, _ := middlewares.UserID(c)
	if err := svc.Notifications.MarkRead(c.Request.Context(), userID, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	success(c, http.StatusOK, nil)
}

func DeleteNotification(c *gin.Context) {
	userID, _ := middlewares.UserID(c)
	if err := svc.Notifications.Delete(c.Request.Context(), userID, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func CreateNotification(c *gin.Context) {
	var req models.CreateNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	n, err := svc.Notifications.Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	success(c, http.StatusCreated, n)
}

func CreateBulkNotifications(c *gin.Context) {
	var req models.BulkNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	list, err := svc.Notifications.CreateBulk(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	success(c, http.StatusCreated, list)
}
