package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"bukinn/internal/microservices/http-api/models"

	"github.com/redis/go-redis/v9"
)

const trendingPrefix = "trending:"

// TrendingCache keeps trending book lists keyed by period and limit.
type TrendingCache interface {
	Get(ctx context.Context, period string, limit int) ([]models.Book, bool, error)
	Set(ctx context.Context, period string, limit int, books []models.Book) error
	Invalidate(ctx context.Context) error
}

type redisTrendingCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewTrendingCache(client *redis.Client, ttl time.Duration) TrendingCache {
	return &redisTrendingCache{client: client, ttl: ttl}
}

func trendingKey(period string, limit int) string {
	return fmt.Sprintf("%s%s:%d", trendingPrefix, period, limit)
}

// Get reports false on a miss.
func (c *redisTrendingCache) Get(ctx context.Context, period string, limit int) ([]models.Book, bool, error) {
	raw, err := c.client.Get(ctx, trendingKey(period, limit)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var books []models.Book
	if err := json.Unmarshal(raw, &books); err != nil {
		return nil, false, fmt.Errorf("unmarshal trending books: %w", err)
	}
	return books, true, nil
}

func (c *redisTrendingCache) Set(ctx context.Context, period string, limit int, books []models.Book) error {
	raw, err := json.Marshal(books)
	if err != nil {
		return fmt.Errorf("marshal trending books: %w", err)
	}
	return c.client.Set(ctx, trendingKey(period, limit), raw, c.ttl).Err()
}

// Invalidate drops every trending list.
func (c *redisTrendingCache) Invalidate(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, trendingPrefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}

// NopTrendingCache never hits. It serves callers that run without Redis.
type NopTrendingCache struct{}

func (NopTrendingCache) Get(context.Context, string, int) ([]models.Book, bool, error) {
	return nil, false, nil
}

func (NopTrendingCache) Set(context.Context, string, int, []models.Book) error { return nil }

func (NopTrendingCache) Invalidate(context.Context) error { return nil }
