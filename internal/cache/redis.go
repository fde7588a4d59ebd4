package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/j-chowder/anime-recommendation-backend/internal/domain"
)

const defaultTTL = 10 * time.Minute

// Cache holds ranked recommendation lists between requests, keyed per
// entry point ("rec:title:...", "rec:genre:...", "rec:user:...").
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Cache{client: client, ttl: ttl}
}

// Get a ranked list from cache
func (c *Cache) Get(ctx context.Context, key string) ([]domain.RankedRecommendation, bool, error) {
	val, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get recommendations from cache: %w", err)
	}

	var recs []domain.RankedRecommendation
	if err := json.Unmarshal([]byte(val), &recs); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal recommendations %s: %w", key, err)
	}

	return recs, true, nil
}

// Store a ranked list in cache
func (c *Cache) Set(ctx context.Context, key string, recs []domain.RankedRecommendation) error {
	val, err := json.Marshal(recs)
	if err != nil {
		return fmt.Errorf("failed to marshal recommendations: %w", err)
	}

	if err := c.client.Set(ctx, key, val, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set recommendations in cache: %w", err)
	}

	return nil
}

// InvalidateUser drops a user's cached list: used when their list changes upstream
func (c *Cache) InvalidateUser(ctx context.Context, user string) error {
	key := fmt.Sprintf("rec:user:%s", user)
	if err := c.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("cache delete %s: %w", key, err)
	}
	return nil
}

// Ping connectivity
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
