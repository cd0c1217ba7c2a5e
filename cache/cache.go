package cache

import (
	"context"
	"errors"

	"storefront-service/models"
)

type CartCache interface {
	Get(ctx context.Context, key string) (*models.Cart, error)
	Set(ctx context.Context, key string, cart *models.Cart) error
	Delete(ctx context.Context, key string) error
}

var ErrCacheMiss = errors.New("cache miss")

// NopCache always misses. Used when no Redis is configured.
type NopCache struct{}

func (NopCache) Get(context.Context, string) (*models.Cart, error) { return nil, ErrCacheMiss }
func (NopCache) Set(context.Context, string, *models.Cart) error   { return nil }
func (NopCache) Delete(context.Context, string) error              { return nil }
