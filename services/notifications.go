package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"storefront-service/models"
	"storefront-service/repository"
)

type NotificationService struct {
	repo repository.NotificationRepository
}

func NewNotificationService(repo repository.NotificationRepository) *NotificationService {
	return &NotificationService{repo: repo}
}

func (s *NotificationService) Create(ctx context.Context, req models.CreateNotificationRequest) (*models.Notification, error) {
	n := &models.Notification{
		UserID:  req.UserID,
		Title:   req.Title,
		Message: req.Message,
		Type:    req.Type,
		Link:    req.Link,
	}
	if n.Type == "" {
		n.Type = models.NotificationSystem
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}
	return n, nil
}

const maxBulkRecipients = 1000

// CreateBulk sends the same notification to every listed user, once each.
func (s *NotificationService) CreateBulk(ctx context.Context, req models.BulkNotificationRequest) ([]models.Notification, error) {
	typ := req.Type
	if typ == "" {
		typ = models.NotificationSystem
	}

	seen := make(map[int64]bool, len(req.UserIDs))
	batch := make([]*models.Notification, 0, len(req.UserIDs))
	for _, id := range req.UserIDs {
		if id <= 0 {
			return nil, fmt.Errorf("%w: invalid user id %d", ErrValidation, id)
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		batch = append(batch, &models.Notification{UserID: id, Title: req.Title, Message: req.Message, Type: typ, Link: req.Link})
	}
	if len(batch) == 0 {
		return nil, fmt.Errorf("%w: at least one user id is required", ErrValidation)
	}
	if len(batch) > maxBulkRecipients {
		return nil, fmt.Errorf("%w: at most %d recipients per request", ErrValidation, maxBulkRecipients)
	}

	if bulk, ok := s.repo.(repository.BulkNotificationRepository); ok {
		if err := bulk.CreateMany(ctx, batch); err != nil {
			return nil, fmt.Errorf("failed to create notifications: %w", err)
		}
	} else {
		for _, n := range batch {
			if err := s.repo.Create(ctx, n); err != nil {
				return nil, fmt.Errorf("failed to create notification for user %d: %w", n.UserID, err)
			}
		}
	}

	out := make([]models.Notification, 0, len(batch))
	for _, n := range batch {
		out = append(out, *n)
	}
	return out, nil
}

// Notify stores a notification for the user. Failures are logged and never
// returned: a missing notification must not fail the operation behind it.
func (s *NotificationService) Notify(ctx context.Context, userID int64, typ models.NotificationType, title, message, link string) {
	if s == nil {
		return
	}
	n := &models.Notification{UserID: userID, Title: title, Message: message, Type: typ, Link: link}
	if err := s.repo.Create(ctx, n); err != nil {
		slog.Warn("Failed to store notification", "user_id", userID, "err", err)
	}
}

func (s *NotificationService) List(ctx context.Context, userID int64) ([]models.Notification, error) {
	return s.repo.FindByUser(ctx, userID)
}

func (s *NotificationService) MarkRead(ctx context.Context, userID int64, id string) error {
	err := s.repo.MarkRead(ctx, userID, id)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotificationMissing
	}
	return err
}

func (s *NotificationService) Delete(ctx context.Context, userID int64, id string) error {
	err := s.repo.Delete(ctx, userID, id)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotificationMissing
	}
	return err
}
