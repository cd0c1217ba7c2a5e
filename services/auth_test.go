package services

import (
	"context"
	"testing"
	"time"

	"storefront-service/models"
	"storefront-service/utils"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthFixture(t *testing.T) (*memStore, *AuthService, *CartService) {
	t.Helper()
	store := newMemStore()
	carts := NewCartService(fakeCarts{store}, fakeProducts{store}, nil)
	return store, NewAuthService(fakeUsers{store}, carts, "secret", time.Hour), carts
}

func signup(email string) models.SignupRequest {
	return models.SignupRequest{Name: "Grace", Email: email, Password: "hunter2", PasswordConfirm: "hunter2"}
}

func TestSignup_AssignsRoleAndHashesPassword(t *testing.T) {
	store, auth, _ := newAuthFixture(t)

	res, err := auth.Signup(context.Background(), signup(" Boss@Sales.com "))

	require.NoError(t, err)
	assert.Equal(t, "boss@sales.com", res.User.Email)
	assert.Equal(t, models.RoleSalesManager, res.User.Role)
	assert.NotEqual(t, "hunter2", store.users[res.User.ID].PasswordHash)

	claims, err := utils.ParseToken(res.Token, "secret")
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, claims.UserID)
	assert.Equal(t, models.RoleSalesManager, claims.Role)
}

func TestSignup_Validation(t *testing.T) {
	_, auth, _ := newAuthFixture(t)
	ctx := context.Background()

	req := signup("a@example.com")
	req.PasswordConfirm = "other"
	_, err := auth.Signup(ctx, req)
	assert.ErrorIs(t, err, ErrValidation)

	req = signup("a@example.com")
	req.Password, req.PasswordConfirm = "abc", "abc"
	_, err = auth.Signup(ctx, req)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = auth.Signup(ctx, signup("not-an-email"))
	assert.ErrorIs(t, err, ErrValidation)

	_, err = auth.Signup(ctx, signup("a@example.com"))
	require.NoError(t, err)
	_, err = auth.Signup(ctx, signup("A@example.com"))
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestLogin_MergesGuestCart(t *testing.T) {
	store, auth, carts := newAuthFixture(t)
	ctx := context.Background()
	res, err := auth.Signup(ctx, signup("shopper@example.com"))
	require.NoError(t, err)

	p := &models.Product{Name: "A", Price: decimal.NewFromInt(1), Stock: 3}
	require.NoError(t, fakeProducts{store}.Create(ctx, p))
	guest, err := carts.Add(ctx, models.GuestOwner{}, p.ID, 2)
	require.NoError(t, err)

	logged, err := auth.Login(ctx, models.LoginRequest{Email: "SHOPPER@example.com", Password: "hunter2", CartID: guest.ID})
	require.NoError(t, err)
	assert.NotEmpty(t, logged.Token)

	cart, err := carts.Get(ctx, models.UserOwner{UserID: res.User.ID})
	require.NoError(t, err)
	assert.Equal(t, []models.CartItem{{ProductID: p.ID, Quantity: 2}}, cart.Items)
}

func TestLogin_RejectsBadCredentials(t *testing.T) {
	_, auth, _ := newAuthFixture(t)
	ctx := context.Background()
	_, err := auth.Signup(ctx, signup("shopper@example.com"))
	require.NoError(t, err)

	_, err = auth.Login(ctx, models.LoginRequest{Email: "shopper@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = auth.Login(ctx, models.LoginRequest{Email: "ghost@example.com", Password: "hunter2"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	// an unknown guest cart does not block login
	_, err = auth.Login(ctx, models.LoginRequest{Email: "shopper@example.com", Password: "hunter2", CartID: "gone"})
	assert.NoError(t, err)
}

func TestUpdateAddress(t *testing.T) {
	_, auth, _ := newAuthFixture(t)
	ctx := context.Background()
	res, err := auth.Signup(ctx, signup("home@example.com"))
	require.NoError(t, err)

	_, err = auth.UpdateAddress(ctx, res.User.ID, models.Address{Street: "x", City: "", PostalCode: "1"})
	assert.ErrorIs(t, err, ErrIncompleteAddress)

	user, err := auth.UpdateAddress(ctx, res.User.ID, models.Address{Street: " Elm 2 ", City: "Ankara", PostalCode: "06000"})
	require.NoError(t, err)
	assert.Equal(t, "Elm 2", user.Address.Street)

	_, err = auth.UpdateAddress(ctx, 404, models.Address{Street: "a", City: "b", PostalCode: "c"})
	assert.ErrorIs(t, err, ErrUserNotFound)
}
