package ports

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/washly/order-api/internal/domains/orders/domain"
)

var (
	ErrNotFound = errors.New("order not found")
	// ErrStatusConflict signals that the conditional status write matched no
	// row because another request transitioned the order first. Callers must
	// re-read and re-evaluate rather than retry the same write.
	ErrStatusConflict = errors.New("order status changed concurrently")
)

// ListFilter narrows List results. Zero values match everything.
type ListFilter struct {
	Status     *domain.Status
	CustomerID string
	WorkerID   string
}

// Repository persists orders. UpdateStatus and Claim are conditional writes:
// both re-check the persisted state inside the store so transitions and
// assignments stay atomic under concurrent callers and multiple processes.
type Repository interface {
	Create(ctx context.Context, order *domain.Order) (*domain.Order, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	List(ctx context.Context, filter ListFilter) ([]*domain.Order, error)

	// UpdateStatus writes the mutated order only if the persisted status still
	// equals expected, returning ErrStatusConflict otherwise.
	UpdateStatus(ctx context.Context, order *domain.Order, expected domain.Status) (*domain.Order, error)

	// Claim atomically assigns an unclaimed order to the worker. Exactly one
	// of N concurrent claims succeeds; losers observe domain.ErrAlreadyAssigned
	// (worker already set) or domain.ErrNotAvailable (status left the
	// claimable set).
	Claim(ctx context.Context, id uuid.UUID, workerID string) (*domain.Order, error)
}
