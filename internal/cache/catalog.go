package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ArowuTest/padel-arena-backend/internal/models"
	"github.com/redis/go-redis/v9"
)

// PrizeCatalog caches the drawable prize list of each draw type.
type PrizeCatalog interface {
	// Get returns ok=false on a miss.
	Get(ctx context.Context, drawType models.DrawType) (prizes []*models.Prize, ok bool, err error)
	Set(ctx context.Context, drawType models.DrawType, prizes []*models.Prize) error
	Invalidate(ctx context.Context, drawType models.DrawType) error
}

// RedisPrizeCatalog stores the list as one JSON value per draw type.
type RedisPrizeCatalog struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisPrizeCatalog creates a catalog whose entries expire after ttl.
func NewRedisPrizeCatalog(client *redis.Client, ttl time.Duration) *RedisPrizeCatalog {
	return &RedisPrizeCatalog{client: client, ttl: ttl}
}

func catalogKey(drawType models.DrawType) string {
	return fmt.Sprintf("%scatalog:%s", keyPrefix, drawType.Slug())
}

// Get reads the cached list
func (c *RedisPrizeCatalog) Get(ctx context.Context, drawType models.DrawType) ([]*models.Prize, bool, error) {
	val, err := c.client.Get(ctx, catalogKey(drawType)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var prizes []*models.Prize
	if err := json.Unmarshal(val, &prizes); err != nil {
		return nil, false, err
	}
	return prizes, true, nil
}

// Set writes the list
func (c *RedisPrizeCatalog) Set(ctx context.Context, drawType models.DrawType, prizes []*models.Prize) error {
	data, err := json.Marshal(prizes)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, catalogKey(drawType), data, c.ttl).Err()
}

// Invalidate drops the cached list
func (c *RedisPrizeCatalog) Invalidate(ctx context.Context, drawType models.DrawType) error {
	return c.client.Del(ctx, catalogKey(drawType)).Err()
}

// NopPrizeCatalog never caches.
type NopPrizeCatalog struct{}

func (NopPrizeCatalog) Get(context.Context, models.DrawType) ([]*models.Prize, bool, error) {
	return nil, false, nil
}

func (NopPrizeCatalog) Set(context.Context, models.DrawType, []*models.Prize) error { return nil }

func (NopPrizeCatalog) Invalidate(context.Context, models.DrawType) error { return nil }
