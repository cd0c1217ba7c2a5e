package models

import "time"

// CartOwner identifies who a cart belongs to. It is either a UserOwner or a
// GuestOwner; no other implementations exist.
type CartOwner interface {
	cartOwner()
}

// UserOwner is an authenticated customer. There is at most one cart per user.
type UserOwner struct {
	UserID int64
}

// GuestOwner is an anonymous session addressed by its cart id. CartID is
// empty when the guest has no cart yet.
type GuestOwner struct {
	CartID string
}

func (UserOwner) cartOwner()  {}
func (GuestOwner) cartOwner() {}

type Cart struct {
	ID        string     `json:"id"`
	UserID    *int64     `json:"user_id,omitempty"`
	Items     []CartItem `json:"items"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

type CartItem struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

func (c *Cart) IsGuest() bool {
	return c.UserID == nil
}

func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// AddQuantity increases the quantity of productID, appending a new line when
// the product is not in the cart yet.
func (c *Cart) AddQuantity(productID int64, quantity int) {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items[i].Quantity += quantity
			return
		}
	}
	c.Items = append(c.Items, CartItem{ProductID: productID, Quantity: quantity})
}

// SetQuantity overwrites the quantity of productID. A quantity of zero
// removes the line. It reports whether the product was in the cart.
func (c *Cart) SetQuantity(productID int64, quantity int) bool {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			if quantity <= 0 {
				c.Items = append(c.Items[:i], c.Items[i+1:]...)
			} else {
				c.Items[i].Quantity = quantity
			}
			return true
		}
	}
	return false
}

func (c *Cart) Remove(productID int64) bool {
	return c.SetQuantity(productID, 0)
}

// Merge folds other's lines into c, summing quantities per product.
func (c *Cart) Merge(other *Cart) {
	for _, item := range other.Items {
		c.AddQuantity(item.ProductID, item.Quantity)
	}
}

type CartItemRequest struct {
	ProductID int64  `json:"productId" binding:"required"`
	Quantity  int    `json:"quantity"`
	CartID    string `json:"cartId"`
}
