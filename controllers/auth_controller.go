package controllers

import (
	"net/http"

	"storefront-service/middlewares"
	"storefront-service/models"

	"github.com/gin-gonic/gin"
)

func Signup(c *gin.Context) {
	defer func() { middlewares.RecordOperation("signup", succeeded(c)) }()

	var req models.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	res, err := svc.Auth.Signup(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	success(c, http.StatusCreated, res)
}

// Login also accepts the guest cart id from the cartid header so the
// guest's cart can be merged.
func Login(c *gin.Context) {
	defer func() { middlewares.RecordOperation("login", succeeded(c)) }()

	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Please provide email and password")
		return
	}
	if req.CartID == "" {
		req.CartID = c.GetHeader(cartIDHeader)
	}
	res, err := svc.Auth.Login(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	success(c, http.StatusOK, res)
}

func GetMe(c *gin.Context) {
	userID, _ := middlewares.UserID(c)
	user, err := svc.Auth.Profile(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	success(c, http.StatusOK, user)
}

func UpdateAddress(c *gin.Context) {
	userID, _ := middlewares.UserID(c)
	var addr models.Address
	if err := c.ShouldBindJSON(&addr); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	user, err := svc.Auth.UpdateAddress(c.Request.Context(), userID, addr)
	if err != nil {
		respondError(c, err)
		return
	}
	success(c, http.StatusOK, user)
}
