package services

import (
	"context"
	"testing"

	"storefront-service/models"
	"storefront-service/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// batchingNotifications counts CreateMany calls on top of the in-memory
// store.
type batchingNotifications struct {
	*repository.MemoryNotificationRepository
	batches int
}

func (b *batchingNotifications) CreateMany(ctx context.Context, ns []*models.Notification) error {
	b.batches++
	for _, n := range ns {
		if err := b.Create(ctx, n); err != nil {
			return err
		}
	}
	return nil
}

func TestCreateBulk_OncePerUser(t *testing.T) {
	repo := repository.NewMemoryNotificationRepository()
	notes := NewNotificationService(repo)
	ctx := context.Background()

	out, err := notes.CreateBulk(ctx, models.BulkNotificationRequest{
		UserIDs: []int64{3, 4, 3},
		Title:   "Maintenance",
		Message: "Back at 6",
	})

	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, models.NotificationSystem, out[0].Type)
	assert.NotEmpty(t, out[0].ID)
	for _, user := range []int64{3, 4} {
		list, err := repo.FindByUser(ctx, user)
		require.NoError(t, err)
		assert.Len(t, list, 1)
	}
}

func TestCreateBulk_UsesBatchInsert(t *testing.T) {
	repo := &batchingNotifications{MemoryNotificationRepository: repository.NewMemoryNotificationRepository()}
	notes := NewNotificationService(repo)

	out, err := notes.CreateBulk(context.Background(), models.BulkNotificationRequest{
		UserIDs: []int64{1, 2, 3},
		Title:   "Sale",
		Message: "All mugs 20% off",
		Type:    models.NotificationDiscount,
	})

	require.NoError(t, err)
	assert.Len(t, out, 3)
	assert.Equal(t, 1, repo.batches)
}

func TestCreateBulk_Validation(t *testing.T) {
	notes := NewNotificationService(repository.NewMemoryNotificationRepository())
	ctx := context.Background()

	_, err := notes.CreateBulk(ctx, models.BulkNotificationRequest{Title: "t", Message: "m"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = notes.CreateBulk(ctx, models.BulkNotificationRequest{UserIDs: []int64{1, -2}, Title: "t", Message: "m"})
	assert.ErrorIs(t, err, ErrValidation)

	many := make([]int64, maxBulkRecipients+1)
	for i := range many {
		many[i] = int64(i + 1)
	}
	_, err = notes.CreateBulk(ctx, models.BulkNotificationRequest{UserIDs: many, Title: "t", Message: "m"})
	assert.ErrorIs(t, err, ErrValidation)
}
