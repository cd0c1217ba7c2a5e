package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"storefront-service/models"

	"github.com/google/uuid"
)

type mysqlCartRepository struct {
	db *sql.DB
}

func NewCartRepository(db *sql.DB) CartRepository {
	return &mysqlCartRepository{db: db}
}

func (r *mysqlCartRepository) FindByID(ctx context.Context, id string) (*models.Cart, error) {
	return r.find(ctx, "SELECT id, user_id, created_at, updated_at FROM carts WHERE id = ?", id)
}

func (r *mysqlCartRepository) FindByUser(ctx context.Context, userID int64) (*models.Cart, error) {
	return r.find(ctx, "SELECT id, user_id, created_at, updated_at FROM carts WHERE user_id = ?", userID)
}

func (r *mysqlCartRepository) find(ctx context.Context, query string, arg any) (*models.Cart, error) {
	var (
		cart   models.Cart
		userID sql.NullInt64
	)
	err := r.db.QueryRowContext(ctx, query, arg).Scan(&cart.ID, &userID, &cart.CreatedAt, &cart.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}
	if userID.Valid {
		cart.UserID = &userID.Int64
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT product_id, quantity FROM cart_items WHERE cart_id = ? ORDER BY id", cart.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to query cart items: %w", err)
	}
	defer rows.Close()

	cart.Items = []models.CartItem{}
	for rows.Next() {
		var item models.CartItem
		if err := rows.Scan(&item.ProductID, &item.Quantity); err != nil {
			return nil, fmt.Errorf("failed to scan cart item: %w", err)
		}
		cart.Items = append(cart.Items, item)
	}
	return &cart, rows.Err()
}

func (r *mysqlCartRepository) Create(ctx context.Context, cart *models.Cart) error {
	if cart.ID == "" {
		cart.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	cart.CreatedAt, cart.UpdatedAt = now, now

	var userID sql.NullInt64
	if cart.UserID != nil {
		userID = sql.NullInt64{Int64: *cart.UserID, Valid: true}
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO carts (id, user_id, created_at, updated_at) VALUES (?, ?, ?, ?)",
		cart.ID, userID, cart.CreatedAt, cart.UpdatedAt,
	)
	if isDuplicate(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("failed to insert cart: %w", err)
	}
	if err := insertCartItems(ctx, tx, cart.ID, cart.Items); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit cart: %w", err)
	}
	return nil
}

func (r *mysqlCartRepository) SaveItems(ctx context.Context, cartID string, items []models.CartItem) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, "UPDATE carts SET updated_at = ? WHERE id = ?", time.Now().UTC(), cartID)
	if err != nil {
		return fmt.Errorf("failed to touch cart: %w", err)
	}
	if err := expectAffected(res); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM cart_items WHERE cart_id = ?", cartID); err != nil {
		return fmt.Errorf("failed to clear cart items: %w", err)
	}
	if err := insertCartItems(ctx, tx, cartID, items); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit cart items: %w", err)
	}
	return nil
}

func insertCartItems(ctx context.Context, tx *sql.Tx, cartID string, items []models.CartItem) error {
	for _, item := range items {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO cart_items (cart_id, product_id, quantity) VALUES (?, ?, ?)",
			cartID, item.ProductID, item.Quantity,
		)
		if err != nil {
			return fmt.Errorf("failed to insert cart item: %w", err)
		}
	}
	return nil
}

func (r *mysqlCartRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM carts WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete cart: %w", err)
	}
	return expectAffected(res)
}
