package controllers

import (
	"net/http"

	"storefront-service/middlewares"
	"storefront-service/models"

	"github.com/gin-gonic/gin"
)

const cartIDHeader = "cartid"

// cartOwner picks the authenticated user when there is one. Otherwise the
// request is a guest identified by the cart id in the header, body or query.
func cartOwner(c *gin.Context, bodyCartID string) models.CartOwner {
	if userID, ok := middlewares.UserID(c); ok {
		return models.UserOwner{UserID: userID}
	}
	cartID := c.GetHeader(cartIDHeader)
	if cartID == "" {
		cartID = bodyCartID
	}
	if cartID == "" {
		cartID = c.Query("cartId")
	}
	return models.GuestOwner{CartID: cartID}
}

func cartResponse(c *gin.Context, code int, cart *models.Cart) {
	success(c, code, gin.H{"cart": cart, "cartId": cart.ID})
}

func GetCart(c *gin.Context) {
	cart, err := svc.Carts.Get(c.Request.Context(), cartOwner(c, ""))
	if err != nil {
		respondError(c, err)
		return
	}
	cartResponse(c, http.StatusOK, cart)
}

func AddToCart(c *gin.Context) {
	var req models.CartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	cart, err := svc.Carts.Add(c.Request.Context(), cartOwner(c, req.CartID), req.ProductID, req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}
	cartResponse(c, http.StatusOK, cart)
}

func UpdateCartItem(c *gin.Context) {
	var req models.CartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	cart, err := svc.Carts.Update(c.Request.Context(), cartOwner(c, req.CartID), req.ProductID, req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}
	cartResponse(c, http.StatusOK, cart)
}

func RemoveFromCart(c *gin.Context) {
	var req models.CartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	cart, err := svc.Carts.Remove(c.Request.Context(), cartOwner(c, req.CartID), req.ProductID)
	if err != nil {
		respondError(c, err)
		return
	}
	cartResponse(c, http.StatusOK, cart)
}
