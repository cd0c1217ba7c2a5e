package repository

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"storefront-service/models"
)

// MemoryNotificationRepository keeps notifications in process. It is used
// when no MongoDB is configured.
type MemoryNotificationRepository struct {
	mu     sync.RWMutex
	nextID int
	items  map[string]models.Notification
}

func NewMemoryNotificationRepository() *MemoryNotificationRepository {
	return &MemoryNotificationRepository{items: make(map[string]models.Notification)}
}

func (m *MemoryNotificationRepository) Create(_ context.Context, n *models.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	n.ID = strconv.Itoa(m.nextID)
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	m.items[n.ID] = *n
	return nil
}

func (m *MemoryNotificationRepository) FindByUser(_ context.Context, userID int64) ([]models.Notification, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []models.Notification{}
	for _, n := range m.items {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			a, _ := strconv.Atoi(out[i].ID)
			b, _ := strconv.Atoi(out[j].ID)
			return a > b
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if len(out) > notificationListLimit {
		out = out[:notificationListLimit]
	}
	return out, nil
}

func (m *MemoryNotificationRepository) MarkRead(_ context.Context, userID int64, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.items[id]
	if !ok || n.UserID != userID {
		return ErrNotFound
	}
	n.Read = true
	m.items[id] = n
	return nil
}

func (m *MemoryNotificationRepository) Delete(_ context.Context, userID int64, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.items[id]
	if !ok || n.UserID != userID {
		return ErrNotFound
	}
	delete(m.items, id)
	return nil
}
