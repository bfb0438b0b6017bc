package application

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/washly/order-api/internal/domains/orders/domain"
	"github.com/washly/order-api/internal/domains/orders/ports"
	"github.com/washly/order-api/internal/shared/actor"
)

// transitionAttempts bounds conditional-write retries when a concurrent
// request moves the order between our read and write.
const transitionAttempts = 3

// Service orchestrates order workflow use cases over a repository whose
// conditional writes provide the atomicity guarantees.
type Service struct {
	repo ports.Repository
}

func NewService(repo ports.Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	if order == nil {
		return nil, errors.New("order is nil")
	}
	return s.repo.Create(ctx, order)
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, filter ports.ListFilter) ([]*domain.Order, error) {
	return s.repo.List(ctx, filter)
}

// Transition re-reads the order immediately before each write attempt so the
// edge check always runs against the current persisted status.
func (s *Service) Transition(ctx context.Context, id uuid.UUID, act actor.Actor, target domain.Status, note string) (*domain.Order, error) {
	var lastErr error
	for attempt := 0; attempt < transitionAttempts; attempt++ {
		order, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		expected := order.Status
		mutated := order.Clone()
		if err := mutated.Transition(target, act, note); err != nil {
			return nil, mapError(err)
		}
		updated, err := s.repo.UpdateStatus(ctx, mutated, expected)
		if errors.Is(err, ports.ErrStatusConflict) {
			lastErr = err
			continue
		}
		if err != nil {
			return nil, err
		}
		return updated, nil
	}
	return nil, lastErr
}

// AssignSelf performs the exclusive claim. The repository guarantees that
// exactly one concurrent caller wins; losers surface as AlreadyAssigned or
// NotAvailable. A worker re-attempting after its own win receives
// AlreadyAssigned and should compare the returned worker id with its own.
func (s *Service) AssignSelf(ctx context.Context, id uuid.UUID, workerID string) (*domain.Order, error) {
	order, err := s.repo.Claim(ctx, id, workerID)
	if err != nil {
		return nil, mapError(err)
	}
	return order, nil
}

func (s *Service) ConfirmOnPayment(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	return s.systemTransition(ctx, id, domain.StatusConfirmed, "payment completed")
}

func (s *Service) CancelBySystem(ctx context.Context, id uuid.UUID, note string) (*domain.Order, error) {
	return s.systemTransition(ctx, id, domain.StatusCancelled, note)
}

func (s *Service) systemTransition(ctx context.Context, id uuid.UUID, target domain.Status, note string) (*domain.Order, error) {
	return s.Transition(ctx, id, actor.System(), target, note)
}

var _ ports.Service = (*Service)(nil)
