package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"storefront-service/models"
)

const refundColumns = "id, order_id, user_id, total_refund_amount, status, created_at, updated_at, decided_at"

type mysqlRefundRepository struct {
	db *sql.DB
}

func NewRefundRepository(db *sql.DB) RefundRepository {
	return &mysqlRefundRepository{db: db}
}

func (r *mysqlRefundRepository) Create(ctx context.Context, refund *models.Refund) error {
	now := time.Now().UTC()
	refund.CreatedAt, refund.UpdatedAt = now, now

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// the order row lock serialises refund requests for one order
	var orderID int64
	err = tx.QueryRowContext(ctx, "SELECT id FROM orders WHERE id = ? FOR UPDATE", refund.OrderID).Scan(&orderID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to lock order %d: %w", refund.OrderID, err)
	}

	purchased, err := sumQuantities(ctx, tx,
		"SELECT product_id, SUM(quantity) FROM order_items WHERE order_id = ? GROUP BY product_id", refund.OrderID)
	if err != nil {
		return err
	}
	claimed, err := sumQuantities(ctx, tx, refundedQuantitiesQuery, refund.OrderID)
	if err != nil {
		return err
	}
	for _, item := range refund.Items {
		if claimed[item.ProductID]+item.Quantity > purchased[item.ProductID] {
			return ErrConflict
		}
	}

	res, err := tx.ExecContext(ctx,
		"INSERT INTO refunds (order_id, user_id, total_refund_amount, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)",
		refund.OrderID, refund.UserID, refund.TotalRefundAmount, refund.Status, refund.CreatedAt, refund.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert refund: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get refund id: %w", err)
	}

	for _, item := range refund.Items {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO refund_items (refund_id, product_id, quantity, price_at_purchase, reason) VALUES (?, ?, ?, ?, ?)",
			id, item.ProductID, item.Quantity, item.PriceAtPurchase, item.Reason,
		)
		if err != nil {
			return fmt.Errorf("failed to insert refund item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit refund: %w", err)
	}
	refund.ID = id
	return nil
}

const refundedQuantitiesQuery = `SELECT ri.product_id, SUM(ri.quantity)
FROM refund_items ri JOIN refunds r ON r.id = ri.refund_id
WHERE r.order_id = ? AND r.status IN ('pending', 'approved')
GROUP BY ri.product_id`

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func sumQuantities(ctx context.Context, q querier, query string, orderID int64) (map[int64]int, error) {
	rows, err := q.QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to sum quantities for order %d: %w", orderID, err)
	}
	defer rows.Close()

	out := make(map[int64]int)
	for rows.Next() {
		var (
			productID int64
			quantity  int
		)
		if err := rows.Scan(&productID, &quantity); err != nil {
			return nil, fmt.Errorf("failed to scan quantity: %w", err)
		}
		out[productID] = quantity
	}
	return out, rows.Err()
}

func (r *mysqlRefundRepository) RefundedQuantities(ctx context.Context, orderID int64) (map[int64]int, error) {
	return sumQuantities(ctx, r.db, refundedQuantitiesQuery, orderID)
}

func scanRefund(row scanner) (*models.Refund, error) {
	var (
		rf        models.Refund
		decidedAt sql.NullTime
	)
	err := row.Scan(&rf.ID, &rf.OrderID, &rf.UserID, &rf.TotalRefundAmount, &rf.Status,
		&rf.CreatedAt, &rf.UpdatedAt, &decidedAt)
	if err != nil {
		return nil, err
	}
	if decidedAt.Valid {
		rf.DecidedAt = &decidedAt.Time
	}
	return &rf, nil
}

func (r *mysqlRefundRepository) FindByID(ctx context.Context, id int64) (*models.Refund, error) {
	rf, err := scanRefund(r.db.QueryRowContext(ctx, "SELECT "+refundColumns+" FROM refunds WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get refund %d: %w", id, err)
	}
	if rf.Items, err = r.loadItems(ctx, rf.ID); err != nil {
		return nil, err
	}
	return rf, nil
}

func (r *mysqlRefundRepository) FindByStatus(ctx context.Context, status models.RefundStatus) ([]models.Refund, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+refundColumns+" FROM refunds WHERE status = ? ORDER BY created_at", status)
	if err != nil {
		return nil, fmt.Errorf("failed to query refunds: %w", err)
	}

	refunds := []models.Refund{}
	for rows.Next() {
		rf, err := scanRefund(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan refund: %w", err)
		}
		refunds = append(refunds, *rf)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate refunds: %w", err)
	}

	for i := range refunds {
		if refunds[i].Items, err = r.loadItems(ctx, refunds[i].ID); err != nil {
			return nil, err
		}
	}
	return refunds, nil
}

func (r *mysqlRefundRepository) loadItems(ctx context.Context, refundID int64) ([]models.RefundItem, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT product_id, quantity, price_at_purchase, reason FROM refund_items WHERE refund_id = ? ORDER BY id",
		refundID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query refund items: %w", err)
	}
	defer rows.Close()

	items := []models.RefundItem{}
	for rows.Next() {
		var item models.RefundItem
		if err := rows.Scan(&item.ProductID, &item.Quantity, &item.PriceAtPurchase, &item.Reason); err != nil {
			return nil, fmt.Errorf("failed to scan refund item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *mysqlRefundRepository) Approve(ctx context.Context, id int64, at time.Time) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := decideRefund(ctx, tx, id, models.RefundStatusApproved, at); err != nil {
		return err
	}

	lines, err := queryStockLines(ctx, tx, "SELECT product_id, quantity FROM refund_items WHERE refund_id = ?", id)
	if err != nil {
		return err
	}
	if err := restoreStock(ctx, tx, lines, at); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit refund approval: %w", err)
	}
	return nil
}

func (r *mysqlRefundRepository) Reject(ctx context.Context, id int64, at time.Time) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := decideRefund(ctx, tx, id, models.RefundStatusRejected, at); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit refund rejection: %w", err)
	}
	return nil
}

func decideRefund(ctx context.Context, tx *sql.Tx, id int64, status models.RefundStatus, at time.Time) error {
	res, err := tx.ExecContext(ctx,
		"UPDATE refunds SET status = ?, decided_at = ?, updated_at = ? WHERE id = ? AND status = ?",
		status, at, at, id, models.RefundStatusPending,
	)
	if err != nil {
		return fmt.Errorf("failed to update refund %d: %w", id, err)
	}
	if err := expectAffected(res); err != nil {
		return ErrConflict
	}
	return nil
}
