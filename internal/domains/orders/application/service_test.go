package application

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	ordersmemory "github.com/washly/order-api/internal/domains/orders/adapters/memory"
	"github.com/washly/order-api/internal/domains/orders/domain"
	"github.com/washly/order-api/internal/domains/orders/ports"
	"github.com/washly/order-api/internal/shared/actor"
)

func newStoredOrder(t *testing.T, svc *Service) *domain.Order {
	t.Helper()
	order, err := domain.NewOrder("cust-1", []domain.LineItem{
		{ServiceID: "wash-fold", Name: "Wash & Fold", Quantity: 2, UnitPrice: decimal.RequireFromString("5.00")},
	}, decimal.RequireFromString("0.10"), decimal.Zero, decimal.Zero)
	require.NoError(t, err)
	stored, err := svc.Create(context.Background(), order)
	require.NoError(t, err)
	return stored
}

func TestTransition_PersistsStatusAndHistory(t *testing.T) {
	svc := NewService(ordersmemory.NewRepository())
	order := newStoredOrder(t, svc)
	admin := actor.Actor{ID: "admin-1", Role: actor.RoleAdmin}

	updated, err := svc.Transition(context.Background(), order.ID, admin, domain.StatusConfirmed, "")
	require.NoError(t, err)
	require.Equal(t, domain.StatusConfirmed, updated.Status)

	reloaded, err := svc.GetByID(context.Background(), order.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusConfirmed, reloaded.Status)
	require.Len(t, reloaded.History, 2)
}

func TestTransition_UnknownOrder(t *testing.T) {
	svc := NewService(ordersmemory.NewRepository())
	admin := actor.Actor{ID: "admin-1", Role: actor.RoleAdmin}

	order, err := domain.NewOrder("cust-1", []domain.LineItem{
		{ServiceID: "wash-fold", Quantity: 1, UnitPrice: decimal.RequireFromString("5.00")},
	}, decimal.Zero, decimal.Zero, decimal.Zero)
	require.NoError(t, err)

	_, err = svc.Transition(context.Background(), order.ID, admin, domain.StatusConfirmed, "")
	require.ErrorIs(t, err, ports.ErrNotFound)
}

func TestTransition_UndeclaredEdgeSurfacesConflict(t *testing.T) {
	svc := NewService(ordersmemory.NewRepository())
	order := newStoredOrder(t, svc)
	customer := actor.Actor{ID: "cust-1", Role: actor.RoleCustomer}

	_, err := svc.Transition(context.Background(), order.ID, customer, domain.StatusCompleted, "")
	require.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestAssignSelf_ExactlyOneWinner(t *testing.T) {
	svc := NewService(ordersmemory.NewRepository())
	order := newStoredOrder(t, svc)

	const workers = 16
	var wg sync.WaitGroup
	winners := make([]string, 0, workers)
	var mu sync.Mutex

	for i := 0; i < workers; i++ {
		wg.Add(1)
		workerID := "worker-" + string(rune('a'+i))
		go func() {
			defer wg.Done()
			updated, err := svc.AssignSelf(context.Background(), order.ID, workerID)
			if err == nil {
				mu.Lock()
				winners = append(winners, *updated.WorkerID)
				mu.Unlock()
				return
			}
			// Losers must land on one of the two declared conflict outcomes.
			if !errorsIsAny(err, domain.ErrAlreadyAssigned, domain.ErrNotAvailable) {
				t.Errorf("unexpected assignment error: %v", err)
			}
		}()
	}
	wg.Wait()

	require.Len(t, winners, 1)
	stored, err := svc.GetByID(context.Background(), order.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusAssigned, stored.Status)
	require.Equal(t, winners[0], *stored.WorkerID)
}

func TestAssignSelf_RetryAfterWinReportsAlreadyAssigned(t *testing.T) {
	svc := NewService(ordersmemory.NewRepository())
	order := newStoredOrder(t, svc)

	won, err := svc.AssignSelf(context.Background(), order.ID, "worker-1")
	require.NoError(t, err)
	require.Equal(t, "worker-1", *won.WorkerID)

	_, err = svc.AssignSelf(context.Background(), order.ID, "worker-1")
	require.ErrorIs(t, err, domain.ErrAlreadyAssigned)
}

func TestAssignSelf_NotClaimableAfterProgress(t *testing.T) {
	svc := NewService(ordersmemory.NewRepository())
	order := newStoredOrder(t, svc)
	admin := actor.Actor{ID: "admin-1", Role: actor.RoleAdmin}

	_, err := svc.Transition(context.Background(), order.ID, admin, domain.StatusInProgress, "")
	require.NoError(t, err)

	_, err = svc.AssignSelf(context.Background(), order.ID, "worker-1")
	require.ErrorIs(t, err, domain.ErrNotAvailable)
}

func TestConfirmOnPayment_RecordsSystemActor(t *testing.T) {
	svc := NewService(ordersmemory.NewRepository())
	order := newStoredOrder(t, svc)

	updated, err := svc.ConfirmOnPayment(context.Background(), order.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusConfirmed, updated.Status)
	last := updated.History[len(updated.History)-1]
	require.Equal(t, actor.SystemID, last.ActorID)
	require.Equal(t, "payment completed", last.Note)
}

func TestCancelBySystem(t *testing.T) {
	svc := NewService(ordersmemory.NewRepository())
	order := newStoredOrder(t, svc)

	updated, err := svc.CancelBySystem(context.Background(), order.ID, "payment creation failed")
	require.NoError(t, err)
	require.Equal(t, domain.StatusCancelled, updated.Status)
}

func TestList_FiltersByStatusAndOwner(t *testing.T) {
	svc := NewService(ordersmemory.NewRepository())
	first := newStoredOrder(t, svc)
	_ = newStoredOrder(t, svc)

	admin := actor.Actor{ID: "admin-1", Role: actor.RoleAdmin}
	_, err := svc.Transition(context.Background(), first.ID, admin, domain.StatusConfirmed, "")
	require.NoError(t, err)

	confirmed := domain.StatusConfirmed
	list, err := svc.List(context.Background(), ports.ListFilter{Status: &confirmed})
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, first.ID, list[0].ID)

	list, err = svc.List(context.Background(), ports.ListFilter{CustomerID: "cust-1"})
	require.NoError(t, err)
	require.Len(t, list, 2)

	list, err = svc.List(context.Background(), ports.ListFilter{CustomerID: "cust-2"})
	require.NoError(t, err)
	require.Empty(t, list)
}

func errorsIsAny(err error, targets ...error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
