package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"storefront-service/mailer"
	"storefront-service/models"
	"storefront-service/repository"
)

type WishlistService struct {
	wishlists     repository.WishlistRepository
	products      repository.ProductRepository
	notifications *NotificationService
	mail          mailer.Mailer
	mailTimeout   time.Duration
}

func NewWishlistService(wishlists repository.WishlistRepository, products repository.ProductRepository,
	notifications *NotificationService, mail mailer.Mailer, mailTimeout time.Duration) *WishlistService {
	return &WishlistService{
		wishlists:     wishlists,
		products:      products,
		notifications: notifications,
		mail:          mail,
		mailTimeout:   mailTimeout,
	}
}

// Add puts the product on the user's wishlist with discount notices on.
// The current price is remembered so only later drops are announced.
func (s *WishlistService) Add(ctx context.Context, userID, productID int64) (*models.WishlistItem, error) {
	p, err := s.products.FindByID(ctx, productID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}

	price := p.UnitPrice()
	item := &models.WishlistItem{
		UserID:            userID,
		ProductID:         productID,
		NotifyOnDiscount:  true,
		LastNotifiedPrice: &price,
	}
	if err := s.wishlists.Add(ctx, item); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrAlreadyInWishlist
		}
		return nil, fmt.Errorf("failed to add to wishlist: %w", err)
	}
	item.Product = p
	return item, nil
}

func (s *WishlistService) Remove(ctx context.Context, userID, productID int64) error {
	err := s.wishlists.Remove(ctx, userID, productID)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotInWishlist
	}
	return err
}

func (s *WishlistService) List(ctx context.Context, userID int64) ([]models.WishlistItem, error) {
	items, err := s.wishlists.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	for i := range items {
		p, err := s.products.FindByID(ctx, items[i].ProductID)
		if errors.Is(err, repository.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		items[i].Product = p
	}
	return items, nil
}

func (s *WishlistService) SetNotify(ctx context.Context, userID, productID int64, notify bool) error {
	err := s.wishlists.SetNotify(ctx, userID, productID, notify)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotInWishlist
	}
	return err
}

// NotifyDiscount tells every subscriber of p about its discounted price,
// in app and by e-mail. Subscribers already told about this price or a
// lower one are skipped. A failed e-mail is counted, never returned.
func (s *WishlistService) NotifyDiscount(ctx context.Context, p *models.Product) (*models.DiscountNotice, error) {
	if p.DiscountedPrice == nil {
		return nil, ErrNoDiscount
	}
	subs, err := s.wishlists.FindSubscribers(ctx, p.ID)
	if err != nil {
		return nil, err
	}

	price := *p.DiscountedPrice
	notice := &models.DiscountNotice{ProductID: p.ID}
	title := "Price drop alert"
	message := fmt.Sprintf("%s has been discounted by %s%%! New price: %s (was %s)",
		p.Name, p.DiscountPercent.String(), price.StringFixed(2), p.Price.StringFixed(2))
	link := fmt.Sprintf("/product/%d", p.ID)

	for _, sub := range subs {
		if sub.LastNotifiedPrice != nil && price.GreaterThanOrEqual(*sub.LastNotifiedPrice) {
			continue
		}
		notice.Subscribed++
		s.notifications.Notify(ctx, sub.UserID, models.NotificationDiscount, title, message, link)

		if err := s.sendMail(ctx, sub, message); err != nil {
			slog.Warn("Failed to mail discount notice", "user_id", sub.UserID, "product_id", p.ID, "err", err)
			notice.Failed++
		} else {
			notice.Successful++
		}
		if err := s.wishlists.MarkNotified(ctx, sub.ItemID, price); err != nil {
			slog.Warn("Failed to record notified price", "wishlist_item_id", sub.ItemID, "err", err)
		}
	}
	return notice, nil
}

func (s *WishlistService) sendMail(ctx context.Context, sub models.WishlistSubscriber, message string) error {
	if s.mail == nil {
		return nil
	}
	if s.mailTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.mailTimeout)
		defer cancel()
	}
	return s.mail.Send(ctx, mailer.Message{
		To:      sub.Email,
		Subject: "Price drop alert",
		Body: fmt.Sprintf("Hello %s,\n\nA product in your wishlist has been discounted!\n\n%s\n\nVisit the store to check it out.\n",
			sub.Name, message),
	})
}
