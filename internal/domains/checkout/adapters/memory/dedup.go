package memory

import (
	"context"
	"sync"
	"time"

	"github.com/washly/order-api/internal/domains/checkout/ports"
)

// Dedup tracks seen keys in memory with a retention window. Suitable for a
// single-instance deployment or tests; multi-instance setups use the Redis
// adapter so all instances share one view of delivered callbacks.
type Dedup struct {
	mu   sync.Mutex
	seen map[string]time.Time
	ttl  time.Duration
	now  func() time.Time
}

// NewDedup builds a dedup store retaining keys for ttl.
func NewDedup(ttl time.Duration) *Dedup {
	return &Dedup{
		seen: make(map[string]time.Time),
		ttl:  ttl,
		now:  time.Now,
	}
}

// Mark records the key, reporting true on first delivery within the window.
func (d *Dedup) Mark(_ context.Context, key string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	now := d.now()
	if expiry, ok := d.seen[key]; ok && now.Before(expiry) {
		return false, nil
	}
	d.seen[key] = now.Add(d.ttl)
	d.sweep(now)
	return true, nil
}

// sweep drops expired entries. Called under the lock.
func (d *Dedup) sweep(now time.Time) {
	for key, expiry := range d.seen {
		if now.After(expiry) {
			delete(d.seen, key)
		}
	}
}

var _ ports.Dedup = (*Dedup)(nil)
