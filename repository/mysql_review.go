package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"storefront-service/models"
)

const reviewColumns = "id, product_id, user_id, rating, comment, approved, created_at"

type mysqlReviewRepository struct {
	db *sql.DB
}

func NewReviewRepository(db *sql.DB) ReviewRepository {
	return &mysqlReviewRepository{db: db}
}

func (r *mysqlReviewRepository) Create(ctx context.Context, rv *models.Review) error {
	rv.CreatedAt = time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO reviews (product_id, user_id, rating, comment, approved, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		rv.ProductID, rv.UserID, rv.Rating, rv.Comment, rv.Approved, rv.CreatedAt,
	)
	if isDuplicate(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("failed to insert review: %w", err)
	}
	rv.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get review id: %w", err)
	}
	return nil
}

func (r *mysqlReviewRepository) FindByProduct(ctx context.Context, productID int64) ([]models.Review, error) {
	return r.query(ctx, "SELECT "+reviewColumns+" FROM reviews WHERE product_id = ? ORDER BY created_at DESC", productID)
}

func (r *mysqlReviewRepository) FindAll(ctx context.Context) ([]models.Review, error) {
	return r.query(ctx, "SELECT "+reviewColumns+" FROM reviews ORDER BY created_at DESC")
}

func (r *mysqlReviewRepository) FindPending(ctx context.Context) ([]models.Review, error) {
	return r.query(ctx, "SELECT "+reviewColumns+" FROM reviews WHERE approved = FALSE AND comment <> '' ORDER BY created_at")
}

func (r *mysqlReviewRepository) query(ctx context.Context, query string, args ...any) ([]models.Review, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query reviews: %w", err)
	}
	defer rows.Close()

	reviews := []models.Review{}
	for rows.Next() {
		var rv models.Review
		if err := rows.Scan(&rv.ID, &rv.ProductID, &rv.UserID, &rv.Rating, &rv.Comment, &rv.Approved, &rv.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
		reviews = append(reviews, rv)
	}
	return reviews, rows.Err()
}

// Approve is idempotent: approving twice still finds the row.
func (r *mysqlReviewRepository) Approve(ctx context.Context, id int64) error {
	var exists bool
	err := r.db.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM reviews WHERE id = ?)", id).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to find review %d: %w", id, err)
	}
	if !exists {
		return ErrNotFound
	}
	if _, err := r.db.ExecContext(ctx, "UPDATE reviews SET approved = TRUE WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to approve review %d: %w", id, err)
	}
	return nil
}

func (r *mysqlReviewRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM reviews WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete review %d: %w", id, err)
	}
	return expectAffected(res)
}

func (r *mysqlReviewRepository) HasDeliveredPurchase(ctx context.Context, userID, productID int64) (bool, error) {
	var ok bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(
			SELECT 1 FROM orders o JOIN order_items oi ON oi.order_id = o.id
			WHERE o.user_id = ? AND o.status = ? AND oi.product_id = ?)`,
		userID, models.OrderStatusDelivered, productID,
	).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("failed to check deliveries of product %d: %w", productID, err)
	}
	return ok, nil
}
