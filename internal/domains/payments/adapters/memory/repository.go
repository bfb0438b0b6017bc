package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/washly/order-api/internal/domains/payments/domain"
	"github.com/washly/order-api/internal/domains/payments/ports"
)

var _ ports.Repository = (*Repository)(nil)

// Repository is an in-memory payment persistence adapter.
type Repository struct {
	mu       sync.RWMutex
	payments map[uuid.UUID]*domain.Payment
	byOrder  map[uuid.UUID]uuid.UUID
}

func NewRepository() *Repository {
	return &Repository{
		payments: map[uuid.UUID]*domain.Payment{},
		byOrder:  map[uuid.UUID]uuid.UUID{},
	}
}

func (r *Repository) Create(_ context.Context, payment *domain.Payment) (*domain.Payment, error) {
	if payment == nil {
		return nil, errors.New("payment is nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byOrder[payment.OrderID]; exists {
		return nil, ports.ErrDuplicatePayment
	}
	clone := payment.Clone()
	r.payments[clone.ID] = clone
	r.byOrder[clone.OrderID] = clone.ID
	return clone.Clone(), nil
}

func (r *Repository) GetByID(_ context.Context, id uuid.UUID) (*domain.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	payment, ok := r.payments[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return payment.Clone(), nil
}

func (r *Repository) GetByOrderID(_ context.Context, orderID uuid.UUID) (*domain.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byOrder[orderID]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return r.payments[id].Clone(), nil
}

func (r *Repository) GetByProviderRef(_ context.Context, providerRef string) (*domain.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, payment := range r.payments {
		if payment.ProviderRef != "" && payment.ProviderRef == providerRef {
			return payment.Clone(), nil
		}
	}
	return nil, ports.ErrNotFound
}

func (r *Repository) UpdateStatus(_ context.Context, payment *domain.Payment, expected domain.Status) (*domain.Payment, error) {
	if payment == nil {
		return nil, errors.New("payment is nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.payments[payment.ID]
	if !ok {
		return nil, ports.ErrNotFound
	}
	if current.Status != expected {
		return nil, ports.ErrStatusConflict
	}
	clone := payment.Clone()
	r.payments[clone.ID] = clone
	return clone.Clone(), nil
}

func (r *Repository) ListStuckProcessing(_ context.Context, updatedBefore time.Time) ([]*domain.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var list []*domain.Payment
	for _, payment := range r.payments {
		if payment.Status == domain.StatusProcessing &&
			payment.ProviderRef != "" &&
			payment.UpdatedAt.Before(updatedBefore) {
			list = append(list, payment.Clone())
		}
	}
	return list, nil
}
