package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"storefront-service/models"
	"storefront-service/repository"
)

type ReviewService struct {
	reviews  repository.ReviewRepository
	products repository.ProductRepository
}

func NewReviewService(reviews repository.ReviewRepository, products repository.ProductRepository) *ReviewService {
	return &ReviewService{reviews: reviews, products: products}
}

// Create records a review by a customer who received the product. Ratings
// are published at once; a comment waits for a product manager.
func (s *ReviewService) Create(ctx context.Context, userID, productID int64, req models.CreateReviewRequest) (*models.Review, error) {
	if req.Rating < models.MinRating || req.Rating > models.MaxRating {
		return nil, fmt.Errorf("%w: rating must be between %d and %d", ErrValidation, models.MinRating, models.MaxRating)
	}
	if _, err := s.product(ctx, productID); err != nil {
		return nil, err
	}
	received, err := s.reviews.HasDeliveredPurchase(ctx, userID, productID)
	if err != nil {
		return nil, err
	}
	if !received {
		return nil, ErrReviewNotAllowed
	}

	r := &models.Review{
		ProductID: productID,
		UserID:    userID,
		Rating:    req.Rating,
		Comment:   strings.TrimSpace(req.Comment),
	}
	r.Approved = !r.NeedsApproval()
	if err := s.reviews.Create(ctx, r); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrAlreadyReviewed
		}
		return nil, fmt.Errorf("failed to create review: %w", err)
	}
	return r, nil
}

func (s *ReviewService) product(ctx context.Context, id int64) (*models.Product, error) {
	p, err := s.products.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrProductNotFound
	}
	return p, err
}

// ForProduct lists the product's reviews with unapproved comments blanked.
func (s *ReviewService) ForProduct(ctx context.Context, productID int64) ([]models.Review, error) {
	if _, err := s.product(ctx, productID); err != nil {
		return nil, err
	}
	reviews, err := s.reviews.FindByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	for i := range reviews {
		reviews[i] = reviews[i].Public()
	}
	return reviews, nil
}

func (s *ReviewService) All(ctx context.Context) ([]models.Review, error) {
	return s.reviews.FindAll(ctx)
}

func (s *ReviewService) Pending(ctx context.Context) ([]models.Review, error) {
	return s.reviews.FindPending(ctx)
}

func (s *ReviewService) Approve(ctx context.Context, id int64) error {
	err := s.reviews.Approve(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrReviewNotFound
	}
	return err
}

// Reject deletes the review.
func (s *ReviewService) Reject(ctx context.Context, id int64) error {
	err := s.reviews.Delete(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrReviewNotFound
	}
	return err
}
