package application

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/washly/order-api/internal/domains/payments/domain"
	"github.com/washly/order-api/internal/domains/payments/ports"
	"github.com/washly/order-api/internal/shared/actor"
)

const transitionAttempts = 3

// gatewayActorID is recorded in history entries for gateway-driven changes.
const gatewayActorID = "gateway"

// Service owns the payment ledger: every status change goes through here and
// lands in the append-only history.
type Service struct {
	repo ports.Repository
}

func NewService(repo ports.Repository) *Service {
	return &Service{repo: repo}
}

// Create enforces the 1:1 order/payment invariant before inserting. The
// repository's unique constraint closes the remaining race.
func (s *Service) Create(ctx context.Context, input ports.CreateInput) (*domain.Payment, error) {
	if _, err := s.repo.GetByOrderID(ctx, input.OrderID); err == nil {
		return nil, ports.ErrDuplicatePayment
	} else if !errors.Is(err, ports.ErrNotFound) {
		return nil, err
	}
	payment, err := domain.NewPayment(input.OrderID, input.CustomerID, input.WorkerID, input.Amount, input.Method)
	if err != nil {
		return nil, mapError(err)
	}
	return s.repo.Create(ctx, payment)
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*domain.Payment, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetByOrderID(ctx context.Context, orderID uuid.UUID) (*domain.Payment, error) {
	return s.repo.GetByOrderID(ctx, orderID)
}

func (s *Service) GetByProviderRef(ctx context.Context, providerRef string) (*domain.Payment, error) {
	return s.repo.GetByProviderRef(ctx, providerRef)
}

// Transition drives an explicit edge on behalf of an actor. The edge table is
// enforced for everyone; authorization narrows who may drive it.
func (s *Service) Transition(ctx context.Context, id uuid.UUID, act actor.Actor, target domain.Status, note string) (*domain.Payment, error) {
	return s.transition(ctx, id, act.ID, target, note, func(p *domain.Payment) error {
		return authorize(p, act)
	})
}

// BeginProcessing is driven by the coordinator right before a gateway call.
// A payment already in processing is returned unchanged so retried
// initiations stay safe.
func (s *Service) BeginProcessing(ctx context.Context, id uuid.UUID, note string) (*domain.Payment, error) {
	payment, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if payment.Status == domain.StatusProcessing {
		return payment, nil
	}
	return s.transition(ctx, id, actor.SystemID, domain.StatusProcessing, note, nil)
}

// ApplyGatewayResult maps the provider outcome onto the ledger. An
// already-completed payment swallows any further signal: gateways deliver
// at least once, so a duplicate confirmation is not an error.
func (s *Service) ApplyGatewayResult(ctx context.Context, id uuid.UUID, result ports.GatewayResult) (*domain.Payment, error) {
	var lastErr error
	for attempt := 0; attempt < transitionAttempts; attempt++ {
		payment, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if payment.Status == domain.StatusCompleted {
			return payment, nil
		}
		target := targetFor(result.SubStatus)
		expected := payment.Status
		mutated := payment.Clone()
		applyCorrelation(mutated, result)
		if target != mutated.Status {
			if err := mutated.Transition(target, gatewayActorID, result.Message); err != nil {
				return nil, mapError(err)
			}
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

// CancelForOrder retires a payment when its order is cancelled. Payments that
// already reached a state with no cancel edge are left untouched.
func (s *Service) CancelForOrder(ctx context.Context, orderID uuid.UUID, actorID, note string) (*domain.Payment, error) {
	payment, err := s.repo.GetByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !payment.Status.CanTransitionTo(domain.StatusCancelled) {
		return payment, nil
	}
	return s.transition(ctx, payment.ID, actorID, domain.StatusCancelled, note, nil)
}

func (s *Service) ListStuckProcessing(ctx context.Context, olderThan time.Duration) ([]*domain.Payment, error) {
	return s.repo.ListStuckProcessing(ctx, time.Now().UTC().Add(-olderThan))
}

func (s *Service) transition(ctx context.Context, id uuid.UUID, actorID string, target domain.Status, note string, check func(*domain.Payment) error) (*domain.Payment, error) {
	var lastErr error
	for attempt := 0; attempt < transitionAttempts; attempt++ {
		payment, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if check != nil {
			if err := check(payment); err != nil {
				return nil, err
			}
		}
		expected := payment.Status
		mutated := payment.Clone()
		if err := mutated.Transition(target, actorID, note); err != nil {
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

func authorize(p *domain.Payment, act actor.Actor) error {
	switch act.Role {
	case actor.RoleAdmin:
		return nil
	case actor.RoleWorker:
		if p.WorkerID == nil || *p.WorkerID != act.ID {
			return ErrForbidden
		}
		return nil
	default:
		return ErrForbidden
	}
}

func targetFor(sub ports.SubStatus) domain.Status {
	switch sub {
	case ports.SubStatusCompleted:
		return domain.StatusCompleted
	case ports.SubStatusFailed:
		return domain.StatusFailed
	default:
		return domain.StatusProcessing
	}
}

func applyCorrelation(p *domain.Payment, result ports.GatewayResult) {
	if result.ProviderRef != "" {
		p.ProviderRef = result.ProviderRef
	}
	if result.TransactionID != "" {
		p.ProviderTransactionID = result.TransactionID
	}
	p.ProviderSubStatus = string(result.SubStatus)
}

var _ ports.Service = (*Service)(nil)
