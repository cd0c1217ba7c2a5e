package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"storefront-service/invoices"
	"storefront-service/middlewares"
	"storefront-service/models"
	"storefront-service/repository"
	"storefront-service/services"
	"storefront-service/utils"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

type stubProducts struct {
	mu    sync.Mutex
	items map[int64]models.Product
}

func (s *stubProducts) FindAll(context.Context) ([]models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Product, 0, len(s.items))
	for _, p := range s.items {
		out = append(out, p)
	}
	return out, nil
}

func (s *stubProducts) FindByID(_ context.Context, id int64) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (s *stubProducts) Create(_ context.Context, p *models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID = int64(len(s.items) + 1)
	s.items[p.ID] = *p
	return nil
}

func (s *stubProducts) UpdateStock(_ context.Context, id int64, stock int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.items[id]
	if !ok {
		return repository.ErrNotFound
	}
	p.Stock = stock
	s.items[id] = p
	return nil
}

func (s *stubProducts) UpdatePricing(_ context.Context, p *models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[p.ID] = *p
	return nil
}

// stubOrders serves reads from a fixed set of orders.
type stubOrders struct {
	orders map[int64]models.Order
}

func (s stubOrders) PlaceOrder(context.Context, *models.Order, string) error {
	return repository.ErrInsufficientStock
}

func (s stubOrders) FindByID(_ context.Context, id int64) (*models.Order, error) {
	o, ok := s.orders[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &o, nil
}

func (s stubOrders) FindByUser(_ context.Context, userID int64) ([]models.Order, error) {
	var out []models.Order
	for _, o := range s.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (s stubOrders) FindByStatus(_ context.Context, status models.OrderStatus) ([]models.Order, error) {
	var out []models.Order
	for _, o := range s.orders {
		if o.Status == status {
			out = append(out, o)
		}
	}
	return out, nil
}

func (s stubOrders) FindCreatedBetween(_ context.Context, from, to time.Time) ([]models.Order, error) {
	var out []models.Order
	for _, o := range s.orders {
		if !o.CreatedAt.Before(from) && !o.CreatedAt.After(to) {
			out = append(out, o)
		}
	}
	return out, nil
}

func (s stubOrders) UpdateStatus(context.Context, int64, models.OrderStatus, models.OrderStatus) error {
	return repository.ErrConflict
}

func (s stubOrders) Cancel(context.Context, int64, time.Time) error {
	return repository.ErrConflict
}

type fixture struct {
	router *gin.Engine
	store  *invoices.Store
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store, err := invoices.NewStore(t.TempDir())
	require.NoError(t, err)

	products := &stubProducts{items: map[int64]models.Product{
		1: {ID: 1, Name: "Lamp", Price: decimal.NewFromInt(20), Stock: 4},
	}}
	orders := stubOrders{orders: map[int64]models.Order{
		1: {ID: 1, UserID: 3, Status: models.OrderStatusProcessing, Total: decimal.NewFromInt(20),
			CreatedAt: time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)},
	}}
	notifications := services.NewNotificationService(repository.NewMemoryNotificationRepository())
	categories := &stubCategories{items: map[int64]models.Category{}}
	wishlist := services.NewWishlistService(&stubWishlists{}, products, notifications, nil, 0)
	productService := services.NewProductService(products, categories)
	productService.SetDiscountNotifier(wishlist)

	SetServices(Services{
		Orders:        services.NewOrderService(orders, notifications),
		Products:      productService,
		Sales:         services.NewSalesService(orders),
		Notifications: notifications,
		Wishlist:      wishlist,
		Reviews:       services.NewReviewService(&stubReviews{delivered: map[int64]bool{1: true}}, products),
		Categories:    services.NewCategoryService(categories, products),
		Invoices:      store,
	})
	return &fixture{router: NewRouter(testSecret), store: store}
}

func token(t *testing.T, userID int64, role models.Role) string {
	t.Helper()
	tok, err := utils.GenerateToken(&models.User{ID: userID, Email: "someone@example.com", Role: role}, testSecret, time.Hour)
	require.NoError(t, err)
	return tok
}

func (f *fixture) do(method, path, tok string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{services.ErrEmptyCart, http.StatusBadRequest},
		{services.ErrRefundWindowExpired, http.StatusBadRequest},
		{services.ErrInvalidCredentials, http.StatusUnauthorized},
		{services.ErrNotOrderOwner, http.StatusForbidden},
		{services.ErrOrderNotFound, http.StatusNotFound},
		{fmt.Errorf("%w: product 4", services.ErrStockConflict), http.StatusConflict},
		{services.ErrInvalidTransition, http.StatusConflict},
		{services.ErrRefundProcessed, http.StatusConflict},
		{services.ErrAlreadyInWishlist, http.StatusConflict},
		{services.ErrReviewNotAllowed, http.StatusBadRequest},
		{services.ErrCategoryNotFound, http.StatusNotFound},
		{fmt.Errorf("dial tcp: refused"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, errorStatus(tt.err))
		})
	}
}

func TestRoutesRequireAuthAndCapabilities(t *testing.T) {
	f := newFixture(t)
	customer := token(t, 3, models.RoleUser)

	assert.Equal(t, http.StatusUnauthorized, f.do(http.MethodPost, "/api/orders/checkout", "", nil).Code)
	assert.Equal(t, http.StatusForbidden, f.do(http.MethodPatch, "/api/refunds/1/approve", customer, nil).Code)
	assert.Equal(t, http.StatusForbidden, f.do(http.MethodPatch, "/api/orders/1/status", customer,
		gin.H{"status": "delivered"}).Code)
	assert.Equal(t, http.StatusForbidden, f.do(http.MethodGet, "/api/sales/revenue", token(t, 3, models.RoleDelivery), nil).Code)
	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/health", "", nil).Code)
}

func TestProductEndpoints(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodGet, "/api/products/1", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	env := decode(t, w)
	assert.Equal(t, "success", env.Status)
	var p models.Product
	require.NoError(t, json.Unmarshal(env.Data, &p))
	assert.Equal(t, "Lamp", p.Name)

	assert.Equal(t, http.StatusNotFound, f.do(http.MethodGet, "/api/products/9", "", nil).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodGet, "/api/products/abc", "", nil).Code)

	pm := token(t, 8, models.RoleProductManager)
	w = f.do(http.MethodPatch, "/api/products/1/stock", pm, gin.H{"stock": 11})
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &p))
	assert.Equal(t, 11, p.Stock)

	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodPatch, "/api/products/1/stock", pm, gin.H{}).Code)

	sm := token(t, 9, models.RoleSalesManager)
	w = f.do(http.MethodPatch, "/api/sales/products/1/discount", sm, gin.H{"discount": "50"})
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &p))
	require.NotNil(t, p.DiscountedPrice)
	assert.True(t, decimal.NewFromInt(10).Equal(*p.DiscountedPrice))
}

func TestOrderEndpoints(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodGet, "/api/orders/1", token(t, 4, models.RoleUser), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.do(http.MethodGet, "/api/orders/history", token(t, 3, models.RoleUser), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var orders []models.Order
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &orders))
	assert.Len(t, orders, 1)

	w = f.do(http.MethodPatch, "/api/orders/1/status", token(t, 5, models.RoleDelivery), gin.H{"status": "returned"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(http.MethodGet, "/api/deliveries?status=bogus", token(t, 5, models.RoleDelivery), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSalesReportValidatesRange(t *testing.T) {
	f := newFixture(t)
	sm := token(t, 9, models.RoleSalesManager)

	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodGet, "/api/sales/revenue?start=bad&end=2026-03-02", sm, nil).Code)

	w := f.do(http.MethodGet, "/api/sales/revenue?start=2026-03-01&end=2026-03-02", sm, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var days []services.DailyAmount
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &days))
	require.Len(t, days, 2)
	assert.True(t, decimal.NewFromInt(20).Equal(days[1].Amount))
}

func TestNotificationLifecycle(t *testing.T) {
	f := newFixture(t)
	admin := token(t, 1, models.RoleAdmin)
	user := token(t, 3, models.RoleUser)

	w := f.do(http.MethodPost, "/api/notifications", admin, gin.H{"user_id": 3, "title": "Sale", "message": "20% off"})
	require.Equal(t, http.StatusCreated, w.Code)
	var n models.Notification
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &n))

	assert.Equal(t, http.StatusForbidden,
		f.do(http.MethodPost, "/api/notifications", user, gin.H{"user_id": 3, "title": "x", "message": "y"}).Code)

	w = f.do(http.MethodGet, "/api/notifications", user, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list []models.Notification
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &list))
	require.Len(t, list, 1)

	assert.Equal(t, http.StatusOK, f.do(http.MethodPatch, "/api/notifications/"+n.ID+"/read", user, nil).Code)
	assert.Equal(t, http.StatusNotFound, f.do(http.MethodDelete, "/api/notifications/"+n.ID, admin, nil).Code)
	assert.Equal(t, http.StatusNoContent, f.do(http.MethodDelete, "/api/notifications/"+n.ID, user, nil).Code)
	assert.Equal(t, http.StatusNotFound, f.do(http.MethodDelete, "/api/notifications/"+n.ID, user, nil).Code)
}

func TestServeInvoice(t *testing.T) {
	f := newFixture(t)
	_, err := f.store.Save(1, []byte("%PDF-1.3 test"))
	require.NoError(t, err)

	w := f.do(http.MethodGet, "/invoices/invoice-1.pdf", token(t, 3, models.RoleUser), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Equal(t, "%PDF-1.3 test", w.Body.String())

	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/invoices/invoice-1.pdf", token(t, 9, models.RoleSalesManager), nil).Code)
	assert.Equal(t, http.StatusNotFound, f.do(http.MethodGet, "/invoices/invoice-1.pdf", token(t, 4, models.RoleUser), nil).Code)
	assert.Equal(t, http.StatusNotFound, f.do(http.MethodGet, "/invoices/invoice-01.pdf", token(t, 3, models.RoleUser), nil).Code)
	assert.Equal(t, http.StatusUnauthorized, f.do(http.MethodGet, "/invoices/invoice-1.pdf", "", nil).Code)
}

func TestCartOwner(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/cart?cartId=from-query", nil)

	assert.Equal(t, models.GuestOwner{CartID: "from-body"}, cartOwner(c, "from-body"))
	assert.Equal(t, models.GuestOwner{CartID: "from-query"}, cartOwner(c, ""))

	c.Request.Header.Set(cartIDHeader, "from-header")
	assert.Equal(t, models.GuestOwner{CartID: "from-header"}, cartOwner(c, "from-body"))

	c.Set(middlewares.ContextUserID, int64(12))
	assert.Equal(t, models.UserOwner{UserID: 12}, cartOwner(c, "from-body"))
}
