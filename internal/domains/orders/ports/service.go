package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/washly/order-api/internal/domains/orders/domain"
	"github.com/washly/order-api/internal/shared/actor"
)

// Service exposes order workflow use cases to adapters and the coordinator.
type Service interface {
	Create(ctx context.Context, order *domain.Order) (*domain.Order, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	List(ctx context.Context, filter ListFilter) ([]*domain.Order, error)
	Transition(ctx context.Context, id uuid.UUID, act actor.Actor, target domain.Status, note string) (*domain.Order, error)
	AssignSelf(ctx context.Context, id uuid.UUID, workerID string) (*domain.Order, error)

	// ConfirmOnPayment advances a pending order to confirmed after its payment
	// completes. Driven by the coordinator, recorded against the system actor.
	ConfirmOnPayment(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	// CancelBySystem cancels an order on behalf of the platform, e.g. when
	// payment creation fails during placement.
	CancelBySystem(ctx context.Context, id uuid.UUID, note string) (*domain.Order, error)
}
