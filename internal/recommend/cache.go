package recommend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache stores resolved recommendation responses in redis for a short
// TTL. Time-of-request features make responses hour-granular, so the
// TTL must stay well under an hour. Cache failures are soft: callers
// log them and fall through to the pipeline.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache creates a response cache.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

var _ ResultCache = (*Cache)(nil)

func cacheKey(userID int64, limit int) string {
	return fmt.Sprintf("rec:%d:%d", userID, limit)
}

// Get returns the cached result for (user, limit), or nil on a miss.
func (c *Cache) Get(ctx context.Context, userID int64, limit int) (*Result, error) {
	data, err := c.client.Get(ctx, cacheKey(userID, limit)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cache get: %w", err)
	}

	var result Result
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("cache decode: %w", err)
	}
	return &result, nil
}

// Set stores a result for (user, limit).
func (c *Cache) Set(ctx context.Context, userID int64, limit int, result *Result) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("cache encode: %w", err)
	}
	if err := c.client.Set(ctx, cacheKey(userID, limit), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}
