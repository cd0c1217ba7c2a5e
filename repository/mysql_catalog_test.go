package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"storefront-service/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeleteProduct_RemovesCartLines(t *testing.T) {
	db, mock := newMock(t)
	repo := NewProductRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM cart_items WHERE product_id = ?")).
		WithArgs(int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM products WHERE id = ?")).
		WithArgs(int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Delete(context.Background(), 3))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteProduct_MissingRollsBack(t *testing.T) {
	db, mock := newMock(t)
	repo := NewProductRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM cart_items")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM products")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.Delete(context.Background(), 9)

	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateProduct_WritesCategory(t *testing.T) {
	db, mock := newMock(t)
	repo := NewProductRepository(db)
	cat := int64(4)
	p := &models.Product{ID: 2, Name: "Mug", Model: "M2", SerialNumber: "SN2", CategoryID: &cat}

	mock.ExpectExec(regexp.QuoteMeta("UPDATE products SET name = ?, model = ?, serial_number = ?, description = ?, cost = ?, category_id = ?, updated_at = ? WHERE id = ?")).
		WithArgs("Mug", "M2", "SN2", "", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Update(context.Background(), p))
	assert.False(t, p.UpdatedAt.IsZero())
}

func TestCreateCategory_DuplicateName(t *testing.T) {
	db, mock := newMock(t)
	repo := NewCategoryRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO categories")).
		WithArgs("Coffee", "", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnError(&mysql.MySQLError{Number: mysqlDuplicateEntry, Message: "Duplicate entry"})

	err := repo.Create(context.Background(), &models.Category{Name: "Coffee"})

	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestFindProductsByCategory(t *testing.T) {
	db, mock := newMock(t)
	repo := NewProductRepository(db)
	now := time.Now().UTC()

	cols := []string{"id", "name", "model", "serial_number", "description", "price", "cost",
		"discount_percent", "discounted_price", "stock", "category_id", "created_at", "updated_at"}
	mock.ExpectQuery(regexp.QuoteMeta("SELECT " + productColumns + " FROM products WHERE category_id = ? ORDER BY name")).
		WithArgs(int64(4)).
		WillReturnRows(sqlmock.NewRows(cols).AddRow(1, "Mug", "M1", "SN1", "", "10.00", nil, "0", nil, 5, 4, now, now))

	products, err := repo.FindByCategory(context.Background(), 4)

	require.NoError(t, err)
	require.Len(t, products, 1)
	require.NotNil(t, products[0].CategoryID)
	assert.Equal(t, int64(4), *products[0].CategoryID)
}

func TestWishlistSubscribers_OnlyNotifyEnabled(t *testing.T) {
	db, mock := newMock(t)
	repo := NewWishlistRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE w.product_id = ? AND w.notify_on_discount = TRUE")).
		WithArgs(int64(8)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "name", "email", "last_notified_price"}).
			AddRow(1, 7, "Ada", "ada@example.com", "12.50").
			AddRow(2, 9, "Bo", "bo@example.com", nil))

	subs, err := repo.FindSubscribers(context.Background(), 8)

	require.NoError(t, err)
	require.Len(t, subs, 2)
	require.NotNil(t, subs[0].LastNotifiedPrice)
	assert.True(t, decimal.RequireFromString("12.50").Equal(*subs[0].LastNotifiedPrice))
	assert.Nil(t, subs[1].LastNotifiedPrice)
}

func TestWishlistSetNotify_MissingItem(t *testing.T) {
	db, mock := newMock(t)
	repo := NewWishlistRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM wishlists WHERE user_id = ? AND product_id = ?")).
		WithArgs(int64(7), int64(8)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	err := repo.SetNotify(context.Background(), 7, 8, false)

	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWishlistAdd_Duplicate(t *testing.T) {
	db, mock := newMock(t)
	repo := NewWishlistRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO wishlists")).
		WillReturnError(&mysql.MySQLError{Number: mysqlDuplicateEntry})

	err := repo.Add(context.Background(), &models.WishlistItem{UserID: 7, ProductID: 8, NotifyOnDiscount: true})

	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestHasDeliveredPurchase(t *testing.T) {
	db, mock := newMock(t)
	repo := NewReviewRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE o.user_id = ? AND o.status = ? AND oi.product_id = ?")).
		WithArgs(int64(7), models.OrderStatusDelivered, int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	ok, err := repo.HasDeliveredPurchase(context.Background(), 7, 3)

	require.NoError(t, err)
	assert.True(t, ok)
}

func TestApproveReview_Missing(t *testing.T) {
	db, mock := newMock(t)
	repo := NewReviewRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS(SELECT 1 FROM reviews WHERE id = ?)")).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	err := repo.Approve(context.Background(), 5)

	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindPendingReviews(t *testing.T) {
	db, mock := newMock(t)
	repo := NewReviewRepository(db)
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta("WHERE approved = FALSE AND comment <> ''")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "product_id", "user_id", "rating", "comment", "approved", "created_at"}).
			AddRow(1, 3, 7, 2, "too loud", false, now))

	reviews, err := repo.FindPending(context.Background())

	require.NoError(t, err)
	require.Len(t, reviews, 1)
	assert.Equal(t, "too loud", reviews[0].Comment)
	assert.False(t, reviews[0].Approved)
}
