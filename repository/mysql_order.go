package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"storefront-service/models"
)

const orderColumns = "id, user_id, total, status, street, city, postal_code, created_at, updated_at, cancelled_at"

type mysqlOrderRepository struct {
	db *sql.DB
}

func NewOrderRepository(db *sql.DB) OrderRepository {
	return &mysqlOrderRepository{db: db}
}

func (r *mysqlOrderRepository) PlaceOrder(ctx context.Context, order *models.Order, cartID string) error {
	now := time.Now().UTC()
	order.CreatedAt, order.UpdatedAt = now, now

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"INSERT INTO orders (user_id, total, status, street, city, postal_code, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		order.UserID, order.Total, order.Status,
		order.ShippingAddress.Street, order.ShippingAddress.City, order.ShippingAddress.PostalCode,
		order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}
	orderID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get order id: %w", err)
	}

	for _, item := range order.Items {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO order_items (order_id, product_id, product_name, quantity, price_at_purchase, cost_at_purchase) VALUES (?, ?, ?, ?, ?, ?)",
			orderID, item.ProductID, item.ProductName, item.Quantity, item.PriceAtPurchase, item.CostAtPurchase,
		)
		if err != nil {
			return fmt.Errorf("failed to insert order item: %w", err)
		}

		// Conditional decrement: a concurrent checkout that got there first
		// leaves too little stock and this matches no row.
		res, err := tx.ExecContext(ctx,
			"UPDATE products SET stock = stock - ?, updated_at = ? WHERE id = ? AND stock >= ?",
			item.Quantity, now, item.ProductID, item.Quantity,
		)
		if err != nil {
			return fmt.Errorf("failed to update product stock: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to read affected rows: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("product %d: %w", item.ProductID, ErrInsufficientStock)
		}
	}

	if cartID != "" {
		if _, err := tx.ExecContext(ctx, "DELETE FROM cart_items WHERE cart_id = ?", cartID); err != nil {
			return fmt.Errorf("failed to clear cart: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "UPDATE carts SET updated_at = ? WHERE id = ?", now, cartID); err != nil {
			return fmt.Errorf("failed to touch cart: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit order: %w", err)
	}
	order.ID = orderID
	return nil
}

func scanOrder(row scanner) (*models.Order, error) {
	var (
		o           models.Order
		cancelledAt sql.NullTime
	)
	err := row.Scan(&o.ID, &o.UserID, &o.Total, &o.Status,
		&o.ShippingAddress.Street, &o.ShippingAddress.City, &o.ShippingAddress.PostalCode,
		&o.CreatedAt, &o.UpdatedAt, &cancelledAt)
	if err != nil {
		return nil, err
	}
	if cancelledAt.Valid {
		o.CancelledAt = &cancelledAt.Time
	}
	return &o, nil
}

func (r *mysqlOrderRepository) FindByID(ctx context.Context, id int64) (*models.Order, error) {
	o, err := scanOrder(r.db.QueryRowContext(ctx, "SELECT "+orderColumns+" FROM orders WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order %d: %w", id, err)
	}
	if o.Items, err = r.loadItems(ctx, o.ID); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *mysqlOrderRepository) FindByUser(ctx context.Context, userID int64) ([]models.Order, error) {
	return r.query(ctx, "SELECT "+orderColumns+" FROM orders WHERE user_id = ? ORDER BY created_at DESC", userID)
}

func (r *mysqlOrderRepository) FindByStatus(ctx context.Context, status models.OrderStatus) ([]models.Order, error) {
	return r.query(ctx, "SELECT "+orderColumns+" FROM orders WHERE status = ? ORDER BY created_at DESC", status)
}

func (r *mysqlOrderRepository) FindCreatedBetween(ctx context.Context, from, to time.Time) ([]models.Order, error) {
	return r.query(ctx,
		"SELECT "+orderColumns+" FROM orders WHERE created_at >= ? AND created_at <= ? ORDER BY created_at",
		from, to)
}

func (r *mysqlOrderRepository) query(ctx context.Context, query string, args ...any) ([]models.Order, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}

	orders := []models.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, *o)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate orders: %w", err)
	}

	for i := range orders {
		if orders[i].Items, err = r.loadItems(ctx, orders[i].ID); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

func (r *mysqlOrderRepository) loadItems(ctx context.Context, orderID int64) ([]models.OrderItem, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT product_id, product_name, quantity, price_at_purchase, cost_at_purchase FROM order_items WHERE order_id = ? ORDER BY id",
		orderID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	items := []models.OrderItem{}
	for rows.Next() {
		var item models.OrderItem
		if err := rows.Scan(&item.ProductID, &item.ProductName, &item.Quantity, &item.PriceAtPurchase, &item.CostAtPurchase); err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *mysqlOrderRepository) UpdateStatus(ctx context.Context, id int64, from, to models.OrderStatus) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE orders SET status = ?, updated_at = ? WHERE id = ? AND status = ?",
		to, time.Now().UTC(), id, from,
	)
	if err != nil {
		return fmt.Errorf("failed to update order %d status: %w", id, err)
	}
	if err := expectAffected(res); err != nil {
		return ErrConflict
	}
	return nil
}

func (r *mysqlOrderRepository) Cancel(ctx context.Context, id int64, at time.Time) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"UPDATE orders SET status = ?, cancelled_at = ?, updated_at = ? WHERE id = ? AND status = ?",
		models.OrderStatusCancelled, at, at, id, models.OrderStatusProcessing,
	)
	if err != nil {
		return fmt.Errorf("failed to cancel order %d: %w", id, err)
	}
	if err := expectAffected(res); err != nil {
		return ErrConflict
	}

	lines, err := queryStockLines(ctx, tx, "SELECT product_id, quantity FROM order_items WHERE order_id = ?", id)
	if err != nil {
		return err
	}
	if err := restoreStock(ctx, tx, lines, at); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit cancellation: %w", err)
	}
	return nil
}

type stockLine struct {
	productID int64
	quantity  int
}

// queryStockLines reads every row before returning so the transaction's
// connection is free for the following updates.
func queryStockLines(ctx context.Context, tx *sql.Tx, query string, id int64) ([]stockLine, error) {
	rows, err := tx.QueryContext(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query lines: %w", err)
	}
	defer rows.Close()

	var lines []stockLine
	for rows.Next() {
		var l stockLine
		if err := rows.Scan(&l.productID, &l.quantity); err != nil {
			return nil, fmt.Errorf("failed to scan line: %w", err)
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

func restoreStock(ctx context.Context, tx *sql.Tx, lines []stockLine, at time.Time) error {
	for _, l := range lines {
		_, err := tx.ExecContext(ctx,
			"UPDATE products SET stock = stock + ?, updated_at = ? WHERE id = ?",
			l.quantity, at, l.productID,
		)
		if err != nil {
			return fmt.Errorf("failed to restore stock of product %d: %w", l.productID, err)
		}
	}
	return nil
}
