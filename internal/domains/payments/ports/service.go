package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/washly/order-api/internal/domains/payments/domain"
	"github.com/washly/order-api/internal/shared/actor"
)

// CreateInput snapshots the owning order at payment-creation time.
type CreateInput struct {
	OrderID    uuid.UUID
	CustomerID string
	WorkerID   *string
	Amount     decimal.Decimal
	Method     domain.Method
}

// Service exposes payment ledger use cases.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*domain.Payment, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Payment, error)
	GetByOrderID(ctx context.Context, orderID uuid.UUID) (*domain.Payment, error)
	GetByProviderRef(ctx context.Context, providerRef string) (*domain.Payment, error)

	// Transition drives an explicit status change on behalf of an actor.
	// Administrators may drive any declared edge; the assigned worker only on
	// payments of their own orders; customers may not drive payment edges.
	Transition(ctx context.Context, id uuid.UUID, act actor.Actor, target domain.Status, note string) (*domain.Payment, error)

	// BeginProcessing moves a pending payment to processing before the
	// gateway call, so a timeout can land on a declared processing -> failed
	// edge instead of leaving the payment ambiguous.
	BeginProcessing(ctx context.Context, id uuid.UUID, note string) (*domain.Payment, error)

	// ApplyGatewayResult maps a gateway outcome onto the ledger. Duplicate
	// "completed" signals for an already-completed payment are a no-op.
	ApplyGatewayResult(ctx context.Context, id uuid.UUID, result GatewayResult) (*domain.Payment, error)

	// CancelForOrder retires a non-terminal payment when its order is
	// cancelled. A terminal payment is left untouched.
	CancelForOrder(ctx context.Context, orderID uuid.UUID, actorID, note string) (*domain.Payment, error)

	ListStuckProcessing(ctx context.Context, olderThan time.Duration) ([]*domain.Payment, error)
}
