package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"storefront-service/models"
	"storefront-service/repository"

	"github.com/shopspring/decimal"
)

// DiscountNotifier announces a product's new discounted price.
type DiscountNotifier interface {
	NotifyDiscount(ctx context.Context, p *models.Product) (*models.DiscountNotice, error)
}

type ProductService struct {
	products   repository.ProductRepository
	categories repository.CategoryRepository
	discounts  DiscountNotifier
}

func NewProductService(products repository.ProductRepository, categories repository.CategoryRepository) *ProductService {
	return &ProductService{products: products, categories: categories}
}

// SetDiscountNotifier makes SetDiscount announce every new discount.
func (s *ProductService) SetDiscountNotifier(n DiscountNotifier) {
	s.discounts = n
}

func (s *ProductService) List(ctx context.Context) ([]models.Product, error) {
	return s.products.FindAll(ctx)
}

func (s *ProductService) Get(ctx context.Context, id int64) (*models.Product, error) {
	p, err := s.products.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrProductNotFound
	}
	return p, err
}

func (s *ProductService) Create(ctx context.Context, req models.CreateProductRequest) (*models.Product, error) {
	if req.Price.IsNegative() {
		return nil, fmt.Errorf("%w: price must not be negative", ErrValidation)
	}
	if req.Cost != nil && req.Cost.IsNegative() {
		return nil, fmt.Errorf("%w: cost must not be negative", ErrValidation)
	}
	if req.Stock < 0 {
		return nil, fmt.Errorf("%w: stock must not be negative", ErrValidation)
	}
	if err := s.checkCategory(ctx, req.CategoryID); err != nil {
		return nil, err
	}

	p := &models.Product{
		Name:         strings.TrimSpace(req.Name),
		Model:        strings.TrimSpace(req.Model),
		SerialNumber: strings.TrimSpace(req.SerialNumber),
		Description:  req.Description,
		Price:        req.Price,
		Cost:         req.Cost,
		Stock:        req.Stock,
		CategoryID:   req.CategoryID,
	}
	if err := s.products.Create(ctx, p); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, fmt.Errorf("%w: serial number already exists", ErrValidation)
		}
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return p, nil
}

func (s *ProductService) checkCategory(ctx context.Context, id *int64) error {
	if id == nil {
		return nil
	}
	_, err := s.categories.FindByID(ctx, *id)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrCategoryNotFound
	}
	return err
}

// Update applies the fields present in req.
func (s *ProductService) Update(ctx context.Context, id int64, req models.UpdateProductRequest) (*models.Product, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	for _, f := range []struct {
		name string
		src  *string
		dst  *string
	}{
		{"name", req.Name, &p.Name},
		{"model", req.Model, &p.Model},
		{"serial number", req.SerialNumber, &p.SerialNumber},
	} {
		if f.src == nil {
			continue
		}
		v := strings.TrimSpace(*f.src)
		if v == "" {
			return nil, fmt.Errorf("%w: %s must not be empty", ErrValidation, f.name)
		}
		*f.dst = v
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if req.Cost != nil {
		if req.Cost.IsNegative() {
			return nil, fmt.Errorf("%w: cost must not be negative", ErrValidation)
		}
		p.Cost = req.Cost
	}
	switch {
	case req.CategoryID == nil:
	case *req.CategoryID == 0:
		// zero clears the category
		p.CategoryID = nil
	default:
		if err := s.checkCategory(ctx, req.CategoryID); err != nil {
			return nil, err
		}
		p.CategoryID = req.CategoryID
	}

	err = s.products.Update(ctx, p)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil, ErrProductNotFound
	case errors.Is(err, repository.ErrDuplicate):
		return nil, fmt.Errorf("%w: serial number already exists", ErrValidation)
	case err != nil:
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	return p, nil
}

// Delete removes the product. Past orders keep their copied line details.
func (s *ProductService) Delete(ctx context.Context, id int64) error {
	err := s.products.Delete(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrProductNotFound
	}
	return err
}

func (s *ProductService) UpdateStock(ctx context.Context, id int64, stock int) (*models.Product, error) {
	if stock < 0 {
		return nil, fmt.Errorf("%w: stock must not be negative", ErrValidation)
	}
	err := s.products.UpdateStock(ctx, id, stock)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

func (s *ProductService) SetPrice(ctx context.Context, id int64, price decimal.Decimal) (*models.Product, error) {
	if price.IsNegative() {
		return nil, fmt.Errorf("%w: price must not be negative", ErrValidation)
	}
	return s.reprice(ctx, id, func(p *models.Product) { p.Price = price })
}

func (s *ProductService) SetDiscount(ctx context.Context, id int64, percent decimal.Decimal) (*models.Product, error) {
	if percent.IsNegative() || percent.GreaterThan(decimal.NewFromInt(100)) {
		return nil, fmt.Errorf("%w: discount must be between 0 and 100", ErrValidation)
	}
	p, err := s.reprice(ctx, id, func(p *models.Product) { p.DiscountPercent = percent })
	if err != nil {
		return nil, err
	}
	if s.discounts != nil && p.DiscountedPrice != nil {
		if _, err := s.discounts.NotifyDiscount(ctx, p); err != nil {
			slog.Warn("Failed to announce discount", "product_id", p.ID, "err", err)
		}
	}
	return p, nil
}

// reprice applies change and recomputes the discounted price before saving.
func (s *ProductService) reprice(ctx context.Context, id int64, change func(*models.Product)) (*models.Product, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	change(p)
	p.ApplyPricing()

	err = s.products.UpdatePricing(ctx, p)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}
