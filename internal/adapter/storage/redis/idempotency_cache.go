package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const idempotencyKeyPrefix = "idempotency:"

// IdempotencyCache is the Redis fast path for replay detection. It is
// best-effort only: the Postgres idempotency record stays authoritative,
// so a flushed or unavailable Redis never changes outcomes.
type IdempotencyCache struct {
	client *goredis.Client
}

func NewIdempotencyCache(client *goredis.Client) *IdempotencyCache {
	return &IdempotencyCache{client: client}
}

// Get returns the cached response body for a reference, or nil on a miss.
func (c *IdempotencyCache) Get(ctx context.Context, reference string) ([]byte, error) {
	body, err := c.client.Get(ctx, idempotencyKeyPrefix+reference).Bytes()
	switch {
	case errors.Is(err, goredis.Nil):
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("idempotency cache get: %w", err)
	}
	return body, nil
}

// Set caches a response body under the reference for the retention window.
func (c *IdempotencyCache) Set(ctx context.Context, reference string, body []byte, ttl time.Duration) error {
	if err := c.client.Set(ctx, idempotencyKeyPrefix+reference, body, ttl).Err(); err != nil {
		return fmt.Errorf("idempotency cache set: %w", err)
	}
	return nil
}
