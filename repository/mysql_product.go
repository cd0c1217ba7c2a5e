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

const productColumns = "id, name, model, serial_number, description, price, cost, discount_percent, discounted_price, stock, category_id, created_at, updated_at"

type mysqlProductRepository struct {
	db *sql.DB
}

func NewProductRepository(db *sql.DB) ProductRepository {
	return &mysqlProductRepository{db: db}
}

func scanProduct(row scanner) (*models.Product, error) {
	var (
		p          models.Product
		cost       decimal.NullDecimal
		discounted decimal.NullDecimal
		category   sql.NullInt64
	)
	err := row.Scan(&p.ID, &p.Name, &p.Model, &p.SerialNumber, &p.Description,
		&p.Price, &cost, &p.DiscountPercent, &discounted, &p.Stock, &category, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if cost.Valid {
		p.Cost = &cost.Decimal
	}
	if discounted.Valid {
		p.DiscountedPrice = &discounted.Decimal
	}
	if category.Valid {
		p.CategoryID = &category.Int64
	}
	return &p, nil
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}

func (r *mysqlProductRepository) FindAll(ctx context.Context) ([]models.Product, error) {
	return r.query(ctx, "SELECT "+productColumns+" FROM products ORDER BY name")
}

func (r *mysqlProductRepository) FindByCategory(ctx context.Context, categoryID int64) ([]models.Product, error) {
	return r.query(ctx, "SELECT "+productColumns+" FROM products WHERE category_id = ? ORDER BY name", categoryID)
}

func (r *mysqlProductRepository) query(ctx context.Context, query string, args ...any) ([]models.Product, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	products := []models.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, *p)
	}
	return products, rows.Err()
}

func (r *mysqlProductRepository) FindByID(ctx context.Context, id int64) (*models.Product, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+productColumns+" FROM products WHERE id = ?", id)
	p, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product %d: %w", id, err)
	}
	return p, nil
}

func (r *mysqlProductRepository) Create(ctx context.Context, p *models.Product) error {
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now

	res, err := r.db.ExecContext(ctx,
		"INSERT INTO products (name, model, serial_number, description, price, cost, discount_percent, discounted_price, stock, category_id, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		p.Name, p.Model, p.SerialNumber, p.Description, p.Price, nullDecimal(p.Cost),
		p.DiscountPercent, nullDecimal(p.DiscountedPrice), p.Stock, nullInt64(p.CategoryID), p.CreatedAt, p.UpdatedAt,
	)
	if isDuplicate(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("failed to insert product: %w", err)
	}

	p.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get product id: %w", err)
	}
	return nil
}

func (r *mysqlProductRepository) UpdateStock(ctx context.Context, id int64, stock int) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE products SET stock = ?, updated_at = ? WHERE id = ?",
		stock, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update stock of product %d: %w", id, err)
	}
	return expectAffected(res)
}

func (r *mysqlProductRepository) UpdatePricing(ctx context.Context, p *models.Product) error {
	p.UpdatedAt = time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		"UPDATE products SET price = ?, discount_percent = ?, discounted_price = ?, updated_at = ? WHERE id = ?",
		p.Price, p.DiscountPercent, nullDecimal(p.DiscountedPrice), p.UpdatedAt, p.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update pricing of product %d: %w", p.ID, err)
	}
	return expectAffected(res)
}

func (r *mysqlProductRepository) Update(ctx context.Context, p *models.Product) error {
	p.UpdatedAt = time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		"UPDATE products SET name = ?, model = ?, serial_number = ?, description = ?, cost = ?, category_id = ?, updated_at = ? WHERE id = ?",
		p.Name, p.Model, p.SerialNumber, p.Description, nullDecimal(p.Cost), nullInt64(p.CategoryID), p.UpdatedAt, p.ID,
	)
	if isDuplicate(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("failed to update product %d: %w", p.ID, err)
	}
	return expectAffected(res)
}

func (r *mysqlProductRepository) Delete(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM cart_items WHERE product_id = ?", id); err != nil {
		return fmt.Errorf("failed to remove product %d from carts: %w", id, err)
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM products WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete product %d: %w", id, err)
	}
	if err := expectAffected(res); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit product delete: %w", err)
	}
	return nil
}

// expectAffected maps an UPDATE that matched nothing to ErrNotFound. MySQL
// counts changed rows, so callers always bump updated_at.
func expectAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
