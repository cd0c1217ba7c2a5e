package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"storefront-service/cache"
	"storefront-service/models"
	"storefront-service/repository"

	"golang.org/x/sync/singleflight"
)

type CartService struct {
	carts    repository.CartRepository
	products repository.ProductRepository
	cache    cache.CartCache
	sfg      singleflight.Group // collapses concurrent cache misses for one cart
}

func NewCartService(carts repository.CartRepository, products repository.ProductRepository, c cache.CartCache) *CartService {
	if c == nil {
		c = cache.NopCache{}
	}
	return &CartService{carts: carts, products: products, cache: c}
}

func ownerKey(owner models.CartOwner) string {
	switch o := owner.(type) {
	case models.UserOwner:
		return "user:" + strconv.FormatInt(o.UserID, 10)
	case models.GuestOwner:
		return "guest:" + o.CartID
	}
	return ""
}

// Get returns the owner's cart. A user without a cart gets an empty one; a
// guest must name an existing cart.
func (s *CartService) Get(ctx context.Context, owner models.CartOwner) (*models.Cart, error) {
	if g, ok := owner.(models.GuestOwner); ok && g.CartID == "" {
		return nil, ErrCartNotFound
	}

	key := ownerKey(owner)
	v, err, _ := s.sfg.Do(key, func() (interface{}, error) {
		cart, err := s.cache.Get(ctx, key)
		if err == nil {
			return cart, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			slog.Warn("Cart cache get failed", "key", key, "err", err)
		}

		cart, err = s.load(ctx, owner)
		if errors.Is(err, repository.ErrNotFound) {
			if u, ok := owner.(models.UserOwner); ok {
				return &models.Cart{UserID: &u.UserID, Items: []models.CartItem{}}, nil
			}
			return nil, ErrCartNotFound
		}
		if err != nil {
			return nil, err
		}

		if err := s.cache.Set(ctx, key, cart); err != nil {
			slog.Warn("Cart cache set failed", "key", key, "err", err)
		}
		return cart, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.Cart), nil
}

func (s *CartService) load(ctx context.Context, owner models.CartOwner) (*models.Cart, error) {
	switch o := owner.(type) {
	case models.UserOwner:
		return s.carts.FindByUser(ctx, o.UserID)
	case models.GuestOwner:
		cart, err := s.carts.FindByID(ctx, o.CartID)
		if err != nil {
			return nil, err
		}
		// a user's cart is never reachable by its id alone
		if !cart.IsGuest() {
			return nil, repository.ErrNotFound
		}
		return cart, nil
	}
	return nil, fmt.Errorf("unknown cart owner %T", owner)
}

// loadOrCreate returns the owner's persisted cart, creating an empty one
// when none exists. A guest naming an unknown cart gets a fresh cart.
func (s *CartService) loadOrCreate(ctx context.Context, owner models.CartOwner) (*models.Cart, bool, error) {
	if g, ok := owner.(models.GuestOwner); !ok || g.CartID != "" {
		cart, err := s.load(ctx, owner)
		if err == nil {
			return cart, false, nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, false, err
		}
	}

	cart := &models.Cart{Items: []models.CartItem{}}
	if u, ok := owner.(models.UserOwner); ok {
		cart.UserID = &u.UserID
	}
	return cart, true, nil
}

func (s *CartService) Add(ctx context.Context, owner models.CartOwner, productID int64, quantity int) (*models.Cart, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", ErrValidation)
	}
	if _, err := s.products.FindByID(ctx, productID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}

	cart, isNew, err := s.loadOrCreate(ctx, owner)
	if err != nil {
		return nil, err
	}
	cart.AddQuantity(productID, quantity)

	if isNew {
		err = s.carts.Create(ctx, cart)
	} else {
		err = s.carts.SaveItems(ctx, cart.ID, cart.Items)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to save cart: %w", err)
	}

	s.invalidate(owner)
	if isNew {
		if _, ok := owner.(models.GuestOwner); ok {
			s.invalidate(models.GuestOwner{CartID: cart.ID})
		}
	}
	return cart, nil
}

// Update sets a line's quantity; zero removes the line.
func (s *CartService) Update(ctx context.Context, owner models.CartOwner, productID int64, quantity int) (*models.Cart, error) {
	if quantity < 0 {
		return nil, fmt.Errorf("%w: quantity must not be negative", ErrValidation)
	}
	cart, err := s.existing(ctx, owner)
	if err != nil {
		return nil, err
	}
	if !cart.SetQuantity(productID, quantity) {
		return nil, ErrCartItemNotFound
	}
	if err := s.carts.SaveItems(ctx, cart.ID, cart.Items); err != nil {
		return nil, fmt.Errorf("failed to save cart: %w", err)
	}
	s.invalidate(owner)
	return cart, nil
}

func (s *CartService) Remove(ctx context.Context, owner models.CartOwner, productID int64) (*models.Cart, error) {
	cart, err := s.existing(ctx, owner)
	if err != nil {
		return nil, err
	}
	cart.Remove(productID)
	if err := s.carts.SaveItems(ctx, cart.ID, cart.Items); err != nil {
		return nil, fmt.Errorf("failed to save cart: %w", err)
	}
	s.invalidate(owner)
	return cart, nil
}

func (s *CartService) existing(ctx context.Context, owner models.CartOwner) (*models.Cart, error) {
	if g, ok := owner.(models.GuestOwner); ok && g.CartID == "" {
		return nil, ErrCartNotFound
	}
	cart, err := s.load(ctx, owner)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrCartNotFound
	}
	return cart, err
}

// MergeGuest folds a guest cart into the user's cart and deletes the guest
// cart. A missing or empty guest cart is a no-op.
func (s *CartService) MergeGuest(ctx context.Context, userID int64, guestCartID string) error {
	if guestCartID == "" {
		return nil
	}
	guest, err := s.carts.FindByID(ctx, guestCartID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load guest cart: %w", err)
	}
	// only anonymous carts may be merged; never another user's cart
	if !guest.IsGuest() || guest.IsEmpty() {
		return nil
	}

	owner := models.UserOwner{UserID: userID}
	cart, isNew, err := s.loadOrCreate(ctx, owner)
	if err != nil {
		return err
	}
	cart.Merge(guest)

	if isNew {
		err = s.carts.Create(ctx, cart)
	} else {
		err = s.carts.SaveItems(ctx, cart.ID, cart.Items)
	}
	if err != nil {
		return fmt.Errorf("failed to save merged cart: %w", err)
	}

	if err := s.carts.Delete(ctx, guest.ID); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("failed to delete guest cart: %w", err)
	}
	s.invalidate(owner)
	s.invalidate(models.GuestOwner{CartID: guest.ID})
	return nil
}

// Invalidate drops the cached copy of the owner's cart.
func (s *CartService) Invalidate(owner models.CartOwner) {
	s.invalidate(owner)
}

func (s *CartService) invalidate(owner models.CartOwner) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, ownerKey(owner)); err != nil {
		slog.Warn("Cart cache invalidate failed", "err", err)
	}
}
