package ports

import "context"

// Dedup remembers gateway callback deliveries so duplicates can be swallowed
// before they reach the ledger. The ledger's already-completed no-op remains
// the backstop; this keeps duplicate deliveries out of the hot path entirely.
type Dedup interface {
	// Mark records the key and reports whether this was its first delivery.
	Mark(ctx context.Context, key string) (bool, error)
}
