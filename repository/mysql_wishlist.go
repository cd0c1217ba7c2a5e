package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"storefront-service/models"

	"github.com/shopspring/decimal"
)

type mysqlWishlistRepository struct {
	db *sql.DB
}

func NewWishlistRepository(db *sql.DB) WishlistRepository {
	return &mysqlWishlistRepository{db: db}
}

func (r *mysqlWishlistRepository) Add(ctx context.Context, item *models.WishlistItem) error {
	item.CreatedAt = time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO wishlists (user_id, product_id, notify_on_discount, last_notified_price, created_at) VALUES (?, ?, ?, ?, ?)",
		item.UserID, item.ProductID, item.NotifyOnDiscount, nullDecimal(item.LastNotifiedPrice), item.CreatedAt,
	)
	if isDuplicate(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("failed to insert wishlist item: %w", err)
	}
	item.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get wishlist item id: %w", err)
	}
	return nil
}

func (r *mysqlWishlistRepository) Remove(ctx context.Context, userID, productID int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM wishlists WHERE user_id = ? AND product_id = ?", userID, productID)
	if err != nil {
		return fmt.Errorf("failed to remove product %d from wishlist: %w", productID, err)
	}
	return expectAffected(res)
}

func (r *mysqlWishlistRepository) FindByUser(ctx context.Context, userID int64) ([]models.WishlistItem, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, user_id, product_id, notify_on_discount, last_notified_price, created_at FROM wishlists WHERE user_id = ? ORDER BY created_at DESC",
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query wishlist: %w", err)
	}
	defer rows.Close()

	items := []models.WishlistItem{}
	for rows.Next() {
		var (
			item models.WishlistItem
			last decimal.NullDecimal
		)
		if err := rows.Scan(&item.ID, &item.UserID, &item.ProductID, &item.NotifyOnDiscount, &last, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan wishlist item: %w", err)
		}
		if last.Valid {
			item.LastNotifiedPrice = &last.Decimal
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// SetNotify does not bump any timestamp, so MySQL reports zero changed rows
// when the flag already has the requested value; existence is checked
// separately.
func (r *mysqlWishlistRepository) SetNotify(ctx context.Context, userID, productID int64, notify bool) error {
	var id int64
	err := r.db.QueryRowContext(ctx,
		"SELECT id FROM wishlists WHERE user_id = ? AND product_id = ?", userID, productID,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to find wishlist item: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, "UPDATE wishlists SET notify_on_discount = ? WHERE id = ?", notify, id); err != nil {
		return fmt.Errorf("failed to update wishlist item %d: %w", id, err)
	}
	return nil
}

func (r *mysqlWishlistRepository) FindSubscribers(ctx context.Context, productID int64) ([]models.WishlistSubscriber, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT w.id, w.user_id, u.name, u.email, w.last_notified_price
		FROM wishlists w JOIN users u ON u.id = w.user_id
		WHERE w.product_id = ? AND w.notify_on_discount = TRUE
		ORDER BY w.id`,
		productID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query wishlist subscribers: %w", err)
	}
	defer rows.Close()

	subs := []models.WishlistSubscriber{}
	for rows.Next() {
		var (
			s    models.WishlistSubscriber
			last decimal.NullDecimal
		)
		if err := rows.Scan(&s.ItemID, &s.UserID, &s.Name, &s.Email, &last); err != nil {
			return nil, fmt.Errorf("failed to scan wishlist subscriber: %w", err)
		}
		if last.Valid {
			s.LastNotifiedPrice = &last.Decimal
		}
		subs = append(subs, s)
	}
	return subs, rows.Err()
}

func (r *mysqlWishlistRepository) MarkNotified(ctx context.Context, itemID int64, price decimal.Decimal) error {
	if _, err := r.db.ExecContext(ctx, "UPDATE wishlists SET last_notified_price = ? WHERE id = ?", price, itemID); err != nil {
		return fmt.Errorf("failed to record notified price for wishlist item %d: %w", itemID, err)
	}
	return nil
}
