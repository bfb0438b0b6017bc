package ports

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/washly/order-api/internal/domains/payments/domain"
)

var (
	ErrNotFound = errors.New("payment not found")
	// ErrDuplicatePayment enforces the 1:1 order/payment invariant.
	ErrDuplicatePayment = errors.New("payment already exists for order")
	// ErrStatusConflict signals the conditional status write lost a race.
	ErrStatusConflict = errors.New("payment status changed concurrently")
)

// Repository persists payments. UpdateStatus is a conditional write keyed on
// the current persisted status, matching the orders repository contract.
type Repository interface {
	Create(ctx context.Context, payment *domain.Payment) (*domain.Payment, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Payment, error)
	GetByOrderID(ctx context.Context, orderID uuid.UUID) (*domain.Payment, error)
	GetByProviderRef(ctx context.Context, providerRef string) (*domain.Payment, error)
	UpdateStatus(ctx context.Context, payment *domain.Payment, expected domain.Status) (*domain.Payment, error)

	// ListStuckProcessing returns payments sitting in processing with a
	// provider reference whose last update is older than the cutoff. Used by
	// the reconciler to chase gateways that never delivered a callback.
	ListStuckProcessing(ctx context.Context, updatedBefore time.Time) ([]*domain.Payment, error)
}
