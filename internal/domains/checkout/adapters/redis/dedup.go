package redis

import (
	"context"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/washly/order-api/internal/domains/checkout/ports"
)

// Dedup marks callback deliveries in Redis so every API instance shares one
// view of which gateway notifications were already handled.
type Dedup struct {
	client goredis.UniversalClient
	ttl    time.Duration
}

// NewDedup wraps a Redis client with the given retention window.
func NewDedup(client goredis.UniversalClient, ttl time.Duration) *Dedup {
	return &Dedup{client: client, ttl: ttl}
}

// Mark sets the key only if absent. SETNX makes the first-delivery check
// atomic across instances; the TTL bounds memory for refs that never repeat.
func (d *Dedup) Mark(ctx context.Context, key string) (bool, error) {
	return d.client.SetNX(ctx, key, 1, d.ttl).Result()
}

var _ ports.Dedup = (*Dedup)(nil)
