package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"storefront-service/models"
)

const userColumns = "id, name, email, password_hash, role, street, city, postal_code, created_at"

type mysqlUserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) UserRepository {
	return &mysqlUserRepository{db: db}
}

func scanUser(row scanner) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role,
		&u.Address.Street, &u.Address.City, &u.Address.PostalCode, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *mysqlUserRepository) Create(ctx context.Context, u *models.User) error {
	u.CreatedAt = time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO users (name, email, password_hash, role, street, city, postal_code, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		u.Name, u.Email, u.PasswordHash, u.Role, u.Address.Street, u.Address.City, u.Address.PostalCode, u.CreatedAt,
	)
	if isDuplicate(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	u.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get user id: %w", err)
	}
	return nil
}

func (r *mysqlUserRepository) FindByID(ctx context.Context, id int64) (*models.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE id = ?", id))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("failed to get user %d: %w", id, err)
	}
	return u, err
}

func (r *mysqlUserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE email = ?", email))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return u, err
}

func (r *mysqlUserRepository) UpdateAddress(ctx context.Context, id int64, addr models.Address) error {
	// Re-saving an identical address changes no row; look the user up
	// instead of trusting RowsAffected.
	if _, err := r.FindByID(ctx, id); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx,
		"UPDATE users SET street = ?, city = ?, postal_code = ? WHERE id = ?",
		addr.Street, addr.City, addr.PostalCode, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update address of user %d: %w", id, err)
	}
	return nil
}
