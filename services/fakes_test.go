package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"storefront-service/mailer"
	"storefront-service/models"
	"storefront-service/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// memStore backs all fake repositories so that order placement, stock and
// carts move together the way the SQL transaction does.
type memStore struct {
	mu       sync.Mutex
	products map[int64]models.Product
	users    map[int64]models.User
	carts    map[string]models.Cart
	orders   map[int64]models.Order
	refunds    map[int64]models.Refund
	categories map[int64]models.Category
	wishlists  map[int64]models.WishlistItem
	reviews    map[int64]models.Review
	nextID     int64
}

func newMemStore() *memStore {
	return &memStore{
		products: make(map[int64]models.Product),
		users:    make(map[int64]models.User),
		carts:    make(map[string]models.Cart),
		orders:   make(map[int64]models.Order),
		refunds:    make(map[int64]models.Refund),
		categories: make(map[int64]models.Category),
		wishlists:  make(map[int64]models.WishlistItem),
		reviews:    make(map[int64]models.Review),
	}
}

func (s *memStore) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *memStore) stock(id int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.products[id].Stock
}

func copyCart(c models.Cart) *models.Cart {
	c.Items = append([]models.CartItem{}, c.Items...)
	return &c
}

type fakeProducts struct{ *memStore }

func (f fakeProducts) FindAll(context.Context) ([]models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Product{}
	for _, p := range f.products {
		out = append(out, p)
	}
	return out, nil
}

func (f fakeProducts) FindByID(_ context.Context, id int64) (*models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (f fakeProducts) Create(_ context.Context, p *models.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p.ID = f.id()
	f.products[p.ID] = *p
	return nil
}

func (f fakeProducts) UpdateStock(_ context.Context, id int64, stock int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[id]
	if !ok {
		return repository.ErrNotFound
	}
	p.Stock = stock
	f.products[id] = p
	return nil
}

func (f fakeProducts) UpdatePricing(_ context.Context, p *models.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.products[p.ID]; !ok {
		return repository.ErrNotFound
	}
	f.products[p.ID] = *p
	return nil
}

func (f fakeProducts) Update(_ context.Context, p *models.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	old, ok := f.products[p.ID]
	if !ok {
		return repository.ErrNotFound
	}
	for id, other := range f.products {
		if id != p.ID && other.SerialNumber == p.SerialNumber {
			return repository.ErrDuplicate
		}
	}
	old.Name, old.Model, old.SerialNumber = p.Name, p.Model, p.SerialNumber
	old.Description, old.Cost, old.CategoryID = p.Description, p.Cost, p.CategoryID
	f.products[p.ID] = old
	return nil
}

func (f fakeProducts) Delete(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.products[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.products, id)
	for cid, c := range f.carts {
		kept := c.Items[:0]
		for _, item := range c.Items {
			if item.ProductID != id {
				kept = append(kept, item)
			}
		}
		c.Items = kept
		f.carts[cid] = c
	}
	for wid, w := range f.wishlists {
		if w.ProductID == id {
			delete(f.wishlists, wid)
		}
	}
	return nil
}

func (f fakeProducts) FindByCategory(_ context.Context, categoryID int64) ([]models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Product{}
	for _, p := range f.products {
		if p.CategoryID != nil && *p.CategoryID == categoryID {
			out = append(out, p)
		}
	}
	return out, nil
}

type fakeCategories struct{ *memStore }

func (f fakeCategories) nameTaken(name string, except int64) bool {
	for id, c := range f.categories {
		if id != except && c.Name == name {
			return true
		}
	}
	return false
}

func (f fakeCategories) Create(_ context.Context, c *models.Category) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.nameTaken(c.Name, 0) {
		return repository.ErrDuplicate
	}
	c.ID = f.id()
	f.categories[c.ID] = *c
	return nil
}

func (f fakeCategories) FindAll(context.Context) ([]models.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Category{}
	for _, c := range f.categories {
		out = append(out, c)
	}
	return out, nil
}

func (f fakeCategories) FindByID(_ context.Context, id int64) (*models.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.categories[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &c, nil
}

func (f fakeCategories) Update(_ context.Context, c *models.Category) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.categories[c.ID]; !ok {
		return repository.ErrNotFound
	}
	if f.nameTaken(c.Name, c.ID) {
		return repository.ErrDuplicate
	}
	f.categories[c.ID] = *c
	return nil
}

func (f fakeCategories) Delete(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.categories[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.categories, id)
	for pid, p := range f.products {
		if p.CategoryID != nil && *p.CategoryID == id {
			p.CategoryID = nil
			f.products[pid] = p
		}
	}
	return nil
}

type fakeWishlists struct{ *memStore }

func (f fakeWishlists) find(userID, productID int64) (int64, bool) {
	for id, w := range f.wishlists {
		if w.UserID == userID && w.ProductID == productID {
			return id, true
		}
	}
	return 0, false
}

func (f fakeWishlists) Add(_ context.Context, item *models.WishlistItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.find(item.UserID, item.ProductID); ok {
		return repository.ErrDuplicate
	}
	item.ID = f.id()
	item.CreatedAt = time.Now().UTC()
	f.wishlists[item.ID] = *item
	return nil
}

func (f fakeWishlists) Remove(_ context.Context, userID, productID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.find(userID, productID)
	if !ok {
		return repository.ErrNotFound
	}
	delete(f.wishlists, id)
	return nil
}

func (f fakeWishlists) FindByUser(_ context.Context, userID int64) ([]models.WishlistItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.WishlistItem{}
	for _, w := range f.wishlists {
		if w.UserID == userID {
			out = append(out, w)
		}
	}
	return out, nil
}

func (f fakeWishlists) SetNotify(_ context.Context, userID, productID int64, notify bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.find(userID, productID)
	if !ok {
		return repository.ErrNotFound
	}
	w := f.wishlists[id]
	w.NotifyOnDiscount = notify
	f.wishlists[id] = w
	return nil
}

func (f fakeWishlists) FindSubscribers(_ context.Context, productID int64) ([]models.WishlistSubscriber, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.WishlistSubscriber{}
	for _, w := range f.wishlists {
		if w.ProductID != productID || !w.NotifyOnDiscount {
			continue
		}
		u := f.users[w.UserID]
		out = append(out, models.WishlistSubscriber{
			ItemID: w.ID, UserID: w.UserID, Name: u.Name, Email: u.Email, LastNotifiedPrice: w.LastNotifiedPrice,
		})
	}
	return out, nil
}

func (f fakeWishlists) MarkNotified(_ context.Context, itemID int64, price decimal.Decimal) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, ok := f.wishlists[itemID]
	if !ok {
		return repository.ErrNotFound
	}
	w.LastNotifiedPrice = &price
	f.wishlists[itemID] = w
	return nil
}

type fakeReviews struct{ *memStore }

func (f fakeReviews) Create(_ context.Context, r *models.Review) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.reviews {
		if existing.UserID == r.UserID && existing.ProductID == r.ProductID {
			return repository.ErrDuplicate
		}
	}
	r.ID = f.id()
	r.CreatedAt = time.Now().UTC()
	f.reviews[r.ID] = *r
	return nil
}

func (f fakeReviews) filter(keep func(models.Review) bool) []models.Review {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Review{}
	for _, r := range f.reviews {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

func (f fakeReviews) FindByProduct(_ context.Context, productID int64) ([]models.Review, error) {
	return f.filter(func(r models.Review) bool { return r.ProductID == productID }), nil
}

func (f fakeReviews) FindAll(context.Context) ([]models.Review, error) {
	return f.filter(func(models.Review) bool { return true }), nil
}

func (f fakeReviews) FindPending(context.Context) ([]models.Review, error) {
	return f.filter(func(r models.Review) bool { return !r.Approved && r.Comment != "" }), nil
}

func (f fakeReviews) Approve(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.reviews[id]
	if !ok {
		return repository.ErrNotFound
	}
	r.Approved = true
	f.reviews[id] = r
	return nil
}

func (f fakeReviews) Delete(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.reviews[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.reviews, id)
	return nil
}

func (f fakeReviews) HasDeliveredPurchase(_ context.Context, userID, productID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.orders {
		if o.UserID != userID || o.Status != models.OrderStatusDelivered {
			continue
		}
		if _, ok := o.Item(productID); ok {
			return true, nil
		}
	}
	return false, nil
}

type fakeUsers struct{ *memStore }

func (f fakeUsers) Create(_ context.Context, u *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.users {
		if existing.Email == u.Email {
			return repository.ErrDuplicate
		}
	}
	u.ID = f.id()
	f.users[u.ID] = *u
	return nil
}

func (f fakeUsers) FindByID(_ context.Context, id int64) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (f fakeUsers) FindByEmail(_ context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f fakeUsers) UpdateAddress(_ context.Context, id int64, addr models.Address) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.Address = addr
	f.users[id] = u
	return nil
}

type fakeCarts struct{ *memStore }

func (f fakeCarts) FindByID(_ context.Context, id string) (*models.Cart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.carts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return copyCart(c), nil
}

func (f fakeCarts) FindByUser(_ context.Context, userID int64) (*models.Cart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.carts {
		if c.UserID != nil && *c.UserID == userID {
			return copyCart(c), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f fakeCarts) Create(_ context.Context, cart *models.Cart) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cart.ID = uuid.NewString()
	f.carts[cart.ID] = *copyCart(*cart)
	return nil
}

func (f fakeCarts) SaveItems(_ context.Context, cartID string, items []models.CartItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.carts[cartID]
	if !ok {
		return repository.ErrNotFound
	}
	c.Items = append([]models.CartItem{}, items...)
	f.carts[cartID] = c
	return nil
}

func (f fakeCarts) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.carts[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.carts, id)
	return nil
}

type fakeOrders struct{ *memStore }

func (f fakeOrders) PlaceOrder(_ context.Context, order *models.Order, cartID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	// check every line first so a failure leaves nothing behind
	for _, item := range order.Items {
		p, ok := f.products[item.ProductID]
		if !ok || p.Stock < item.Quantity {
			return fmt.Errorf("product %d: %w", item.ProductID, repository.ErrInsufficientStock)
		}
	}
	for _, item := range order.Items {
		p := f.products[item.ProductID]
		p.Stock -= item.Quantity
		f.products[item.ProductID] = p
	}
	if c, ok := f.carts[cartID]; ok {
		c.Items = []models.CartItem{}
		f.carts[cartID] = c
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now().UTC()
	}
	order.ID = f.id()
	f.orders[order.ID] = *order
	return nil
}

func (f fakeOrders) FindByID(_ context.Context, id int64) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &o, nil
}

func (f fakeOrders) filter(keep func(models.Order) bool) []models.Order {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Order{}
	for _, o := range f.orders {
		if keep(o) {
			out = append(out, o)
		}
	}
	return out
}

func (f fakeOrders) FindByUser(_ context.Context, userID int64) ([]models.Order, error) {
	return f.filter(func(o models.Order) bool { return o.UserID == userID }), nil
}

func (f fakeOrders) FindByStatus(_ context.Context, status models.OrderStatus) ([]models.Order, error) {
	return f.filter(func(o models.Order) bool { return o.Status == status }), nil
}

func (f fakeOrders) FindCreatedBetween(_ context.Context, from, to time.Time) ([]models.Order, error) {
	return f.filter(func(o models.Order) bool {
		return !o.CreatedAt.Before(from) && !o.CreatedAt.After(to)
	}), nil
}

func (f fakeOrders) UpdateStatus(_ context.Context, id int64, from, to models.OrderStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok || o.Status != from {
		return repository.ErrConflict
	}
	o.Status = to
	f.orders[id] = o
	return nil
}

func (f fakeOrders) Cancel(_ context.Context, id int64, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok || o.Status != models.OrderStatusProcessing {
		return repository.ErrConflict
	}
	o.Status = models.OrderStatusCancelled
	o.CancelledAt = &at
	f.orders[id] = o
	for _, item := range o.Items {
		p := f.products[item.ProductID]
		p.Stock += item.Quantity
		f.products[item.ProductID] = p
	}
	return nil
}

type fakeRefunds struct{ *memStore }

func (f fakeRefunds) Create(_ context.Context, r *models.Refund) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	order, ok := f.orders[r.OrderID]
	if !ok {
		return repository.ErrNotFound
	}
	claimed := f.claimed(r.OrderID)
	for _, item := range r.Items {
		purchased, _ := order.Item(item.ProductID)
		if claimed[item.ProductID]+item.Quantity > purchased.Quantity {
			return repository.ErrConflict
		}
	}
	r.ID = f.id()
	r.CreatedAt = time.Now().UTC()
	f.refunds[r.ID] = *r
	return nil
}

func (f fakeRefunds) claimed(orderID int64) map[int64]int {
	out := make(map[int64]int)
	for _, r := range f.refunds {
		if r.OrderID != orderID || r.Status == models.RefundStatusRejected {
			continue
		}
		for _, item := range r.Items {
			out[item.ProductID] += item.Quantity
		}
	}
	return out
}

func (f fakeRefunds) RefundedQuantities(_ context.Context, orderID int64) (map[int64]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.claimed(orderID), nil
}

func (f fakeRefunds) FindByID(_ context.Context, id int64) (*models.Refund, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.refunds[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &r, nil
}

func (f fakeRefunds) FindByStatus(_ context.Context, status models.RefundStatus) ([]models.Refund, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Refund{}
	for _, r := range f.refunds {
		if r.Status == status {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f fakeRefunds) decide(id int64, status models.RefundStatus, at time.Time) (models.Refund, error) {
	r, ok := f.refunds[id]
	if !ok || r.Status != models.RefundStatusPending {
		return r, repository.ErrConflict
	}
	r.Status = status
	r.DecidedAt = &at
	f.refunds[id] = r
	return r, nil
}

func (f fakeRefunds) Approve(_ context.Context, id int64, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, err := f.decide(id, models.RefundStatusApproved, at)
	if err != nil {
		return err
	}
	for _, item := range r.Items {
		p := f.products[item.ProductID]
		p.Stock += item.Quantity
		f.products[item.ProductID] = p
	}
	return nil
}

func (f fakeRefunds) Reject(_ context.Context, id int64, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, err := f.decide(id, models.RefundStatusRejected, at)
	return err
}

type recordingDispatcher struct {
	mu   sync.Mutex
	jobs []models.InvoiceJob
	err  error
}

func (d *recordingDispatcher) Dispatch(_ context.Context, job models.InvoiceJob) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	d.jobs = append(d.jobs, job)
	return nil
}

var errBrokerDown = errors.New("broker down")

type recordingMailer struct {
	mu   sync.Mutex
	sent []mailer.Message
	err  error
}

func (m *recordingMailer) Send(_ context.Context, msg mailer.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}
