package services

import "errors"

var (
	ErrValidation = errors.New("validation failed")

	ErrEmptyCart         = errors.New("cart is empty, nothing to checkout")
	ErrUserNotFound      = errors.New("user not found")
	ErrIncompleteAddress = errors.New("shipping address is incomplete")
	ErrStockConflict     = errors.New("insufficient stock for one or more items")
	ErrProductNotFound   = errors.New("product not found")
	ErrCartNotFound      = errors.New("cart not found")
	ErrCartItemNotFound  = errors.New("product is not in the cart")

	ErrOrderNotFound       = errors.New("order not found")
	ErrNotOrderOwner       = errors.New("order belongs to another user")
	ErrInvalidTransition   = errors.New("illegal order status transition")
	ErrOrderNotCancellable = errors.New("only processing orders can be cancelled")

	ErrRefundNotAllowed    = errors.New("refunds are only possible for delivered orders")
	ErrRefundWindowExpired = errors.New("refund window has expired")
	ErrInvalidRefundItems  = errors.New("invalid refund items")
	ErrRefundNotFound      = errors.New("refund request not found")
	ErrRefundProcessed     = errors.New("refund already processed")

	ErrEmailTaken          = errors.New("email is already registered")
	ErrInvalidCredentials  = errors.New("incorrect email or password")
	ErrNotificationMissing = errors.New("notification not found")

	ErrCategoryNotFound  = errors.New("category not found")
	ErrCategoryExists    = errors.New("a category with this name already exists")
	ErrAlreadyInWishlist = errors.New("product already in wishlist")
	ErrNotInWishlist     = errors.New("product not found in wishlist")
	ErrReviewNotFound    = errors.New("review not found")
	ErrReviewNotAllowed  = errors.New("you can review only products that have been delivered to you")
	ErrAlreadyReviewed   = errors.New("you have already reviewed this product")
	ErrNoDiscount        = errors.New("product is not discounted")
)
