package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"storefront-service/models"
	"storefront-service/repository"
)

type CategoryService struct {
	categories repository.CategoryRepository
	products   repository.ProductRepository
}

func NewCategoryService(categories repository.CategoryRepository, products repository.ProductRepository) *CategoryService {
	return &CategoryService{categories: categories, products: products}
}

func categoryWriteError(err error) error {
	switch {
	case errors.Is(err, repository.ErrDuplicate):
		return ErrCategoryExists
	case errors.Is(err, repository.ErrNotFound):
		return ErrCategoryNotFound
	}
	return err
}

func (s *CategoryService) Create(ctx context.Context, req models.CategoryRequest) (*models.Category, error) {
	c := &models.Category{Name: strings.TrimSpace(req.Name), Description: strings.TrimSpace(req.Description)}
	if c.Name == "" {
		return nil, fmt.Errorf("%w: category name is required", ErrValidation)
	}
	if err := s.categories.Create(ctx, c); err != nil {
		return nil, categoryWriteError(err)
	}
	return c, nil
}

func (s *CategoryService) List(ctx context.Context) ([]models.Category, error) {
	return s.categories.FindAll(ctx)
}

func (s *CategoryService) Get(ctx context.Context, id int64) (*models.Category, error) {
	c, err := s.categories.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrCategoryNotFound
	}
	return c, err
}

func (s *CategoryService) Update(ctx context.Context, id int64, req models.CategoryRequest) (*models.Category, error) {
	c, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	c.Name = strings.TrimSpace(req.Name)
	c.Description = strings.TrimSpace(req.Description)
	if c.Name == "" {
		return nil, fmt.Errorf("%w: category name is required", ErrValidation)
	}
	if err := s.categories.Update(ctx, c); err != nil {
		return nil, categoryWriteError(err)
	}
	return c, nil
}

func (s *CategoryService) Delete(ctx context.Context, id int64) error {
	return categoryWriteError(s.categories.Delete(ctx, id))
}

func (s *CategoryService) Products(ctx context.Context, id int64) (*models.CategoryProducts, error) {
	c, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	products, err := s.products.FindByCategory(ctx, id)
	if err != nil {
		return nil, err
	}
	return &models.CategoryProducts{Category: *c, Products: products}, nil
}
