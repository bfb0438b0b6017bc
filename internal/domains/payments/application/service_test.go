package application

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/washly/order-api/internal/domains/payments/adapters/memory"
	"github.com/washly/order-api/internal/domains/payments/domain"
	"github.com/washly/order-api/internal/domains/payments/ports"
	"github.com/washly/order-api/internal/shared/actor"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	return NewService(memory.NewRepository())
}

func createInput(orderID uuid.UUID) ports.CreateInput {
	worker := "worker-1"
	return ports.CreateInput{
		OrderID:    orderID,
		CustomerID: "customer-1",
		WorkerID:   &worker,
		Amount:     decimal.RequireFromString("65.50"),
		Method:     domain.MethodMobileMoney,
	}
}

func TestCreate_StartsPendingWithSnapshot(t *testing.T) {
	svc := newTestService(t)
	orderID := uuid.New()

	payment, err := svc.Create(context.Background(), createInput(orderID))
	require.NoError(t, err)
	require.Equal(t, domain.StatusPending, payment.Status)
	require.Equal(t, orderID, payment.OrderID)
	require.True(t, payment.Amount.Equal(decimal.RequireFromString("65.50")))
	require.Len(t, payment.History, 1)
}

func TestCreate_SecondPaymentForOrderRejected(t *testing.T) {
	svc := newTestService(t)
	orderID := uuid.New()

	_, err := svc.Create(context.Background(), createInput(orderID))
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), createInput(orderID))
	require.ErrorIs(t, err, ports.ErrDuplicatePayment)
}

func TestCreate_NegativeAmountRejected(t *testing.T) {
	svc := newTestService(t)
	input := createInput(uuid.New())
	input.Amount = decimal.RequireFromString("-1.00")

	_, err := svc.Create(context.Background(), input)
	require.ErrorIs(t, err, ErrInvalidInput)
	require.ErrorIs(t, err, domain.ErrInvalidAmount)
}

func TestBeginProcessing_Idempotent(t *testing.T) {
	svc := newTestService(t)
	payment, err := svc.Create(context.Background(), createInput(uuid.New()))
	require.NoError(t, err)

	first, err := svc.BeginProcessing(context.Background(), payment.ID, "collection started")
	require.NoError(t, err)
	require.Equal(t, domain.StatusProcessing, first.Status)
	require.Len(t, first.History, 2)
	require.Equal(t, actor.SystemID, first.History[1].ActorID)

	second, err := svc.BeginProcessing(context.Background(), payment.ID, "collection started")
	require.NoError(t, err)
	require.Equal(t, domain.StatusProcessing, second.Status)
	require.Len(t, second.History, 2, "retried initiation must not append history")
}

func TestApplyGatewayResult_CompletedSignalIsFinal(t *testing.T) {
	svc := newTestService(t)
	payment, err := svc.Create(context.Background(), createInput(uuid.New()))
	require.NoError(t, err)
	_, err = svc.BeginProcessing(context.Background(), payment.ID, "collection started")
	require.NoError(t, err)

	result := ports.GatewayResult{
		Accepted:      true,
		ProviderRef:   "ref-123",
		SubStatus:     ports.SubStatusCompleted,
		TransactionID: "txn-456",
		Message:       "settled",
	}
	completed, err := svc.ApplyGatewayResult(context.Background(), payment.ID, result)
	require.NoError(t, err)
	require.Equal(t, domain.StatusCompleted, completed.Status)
	require.Equal(t, "ref-123", completed.ProviderRef)
	require.Equal(t, "txn-456", completed.ProviderTransactionID)
	require.Equal(t, string(ports.SubStatusCompleted), completed.ProviderSubStatus)
	require.Equal(t, "gateway", completed.History[len(completed.History)-1].ActorID)

	// A gateway may deliver the same confirmation more than once.
	again, err := svc.ApplyGatewayResult(context.Background(), payment.ID, result)
	require.NoError(t, err)
	require.Equal(t, domain.StatusCompleted, again.Status)
	require.Len(t, again.History, len(completed.History))
}

func TestApplyGatewayResult_FailedLandsOnFailed(t *testing.T) {
	svc := newTestService(t)
	payment, err := svc.Create(context.Background(), createInput(uuid.New()))
	require.NoError(t, err)
	_, err = svc.BeginProcessing(context.Background(), payment.ID, "collection started")
	require.NoError(t, err)

	failed, err := svc.ApplyGatewayResult(context.Background(), payment.ID, ports.GatewayResult{
		ProviderRef: "ref-789",
		SubStatus:   ports.SubStatusFailed,
		Message:     "insufficient balance",
	})
	require.NoError(t, err)
	require.Equal(t, domain.StatusFailed, failed.Status)
	require.Equal(t, "insufficient balance", failed.History[len(failed.History)-1].Note)
}

func TestApplyGatewayResult_PendingRefreshesCorrelationOnly(t *testing.T) {
	svc := newTestService(t)
	payment, err := svc.Create(context.Background(), createInput(uuid.New()))
	require.NoError(t, err)
	processing, err := svc.BeginProcessing(context.Background(), payment.ID, "collection started")
	require.NoError(t, err)

	refreshed, err := svc.ApplyGatewayResult(context.Background(), payment.ID, ports.GatewayResult{
		Accepted:    true,
		ProviderRef: "ref-001",
		SubStatus:   ports.SubStatusPending,
	})
	require.NoError(t, err)
	require.Equal(t, domain.StatusProcessing, refreshed.Status)
	require.Equal(t, "ref-001", refreshed.ProviderRef)
	require.Len(t, refreshed.History, len(processing.History), "same-status refresh must not append history")
}

func TestCancelForOrder_CancelsPendingPayment(t *testing.T) {
	svc := newTestService(t)
	orderID := uuid.New()
	_, err := svc.Create(context.Background(), createInput(orderID))
	require.NoError(t, err)

	cancelled, err := svc.CancelForOrder(context.Background(), orderID, actor.SystemID, "order cancelled")
	require.NoError(t, err)
	require.Equal(t, domain.StatusCancelled, cancelled.Status)
	require.Equal(t, "order cancelled", cancelled.History[len(cancelled.History)-1].Note)
}

func TestCancelForOrder_LeavesCompletedPaymentUntouched(t *testing.T) {
	svc := newTestService(t)
	orderID := uuid.New()
	payment, err := svc.Create(context.Background(), createInput(orderID))
	require.NoError(t, err)
	_, err = svc.BeginProcessing(context.Background(), payment.ID, "collection started")
	require.NoError(t, err)
	_, err = svc.ApplyGatewayResult(context.Background(), payment.ID, ports.GatewayResult{
		SubStatus: ports.SubStatusCompleted,
	})
	require.NoError(t, err)

	untouched, err := svc.CancelForOrder(context.Background(), orderID, actor.SystemID, "order cancelled")
	require.NoError(t, err)
	require.Equal(t, domain.StatusCompleted, untouched.Status)
}

func TestCancelForOrder_UnknownOrder(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.CancelForOrder(context.Background(), uuid.New(), actor.SystemID, "order cancelled")
	require.ErrorIs(t, err, ports.ErrNotFound)
}

func TestTransition_AdminMayDriveDeclaredEdges(t *testing.T) {
	svc := newTestService(t)
	payment, err := svc.Create(context.Background(), createInput(uuid.New()))
	require.NoError(t, err)

	admin := actor.Actor{ID: "admin-1", Role: actor.RoleAdmin}
	updated, err := svc.Transition(context.Background(), payment.ID, admin, domain.StatusCancelled, "refund requested")
	require.NoError(t, err)
	require.Equal(t, domain.StatusCancelled, updated.Status)
}

func TestTransition_AdminCannotSkipEdges(t *testing.T) {
	svc := newTestService(t)
	payment, err := svc.Create(context.Background(), createInput(uuid.New()))
	require.NoError(t, err)

	admin := actor.Actor{ID: "admin-1", Role: actor.RoleAdmin}
	_, err = svc.Transition(context.Background(), payment.ID, admin, domain.StatusCompleted, "force settle")
	require.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestTransition_WorkerOnlyOnOwnPayments(t *testing.T) {
	svc := newTestService(t)
	payment, err := svc.Create(context.Background(), createInput(uuid.New()))
	require.NoError(t, err)

	assigned := actor.Actor{ID: "worker-1", Role: actor.RoleWorker}
	updated, err := svc.Transition(context.Background(), payment.ID, assigned, domain.StatusProcessing, "cash collected")
	require.NoError(t, err)
	require.Equal(t, domain.StatusProcessing, updated.Status)

	other := actor.Actor{ID: "worker-2", Role: actor.RoleWorker}
	_, err = svc.Transition(context.Background(), payment.ID, other, domain.StatusCompleted, "cash counted")
	require.ErrorIs(t, err, ErrForbidden)
}

func TestTransition_CustomerForbidden(t *testing.T) {
	svc := newTestService(t)
	payment, err := svc.Create(context.Background(), createInput(uuid.New()))
	require.NoError(t, err)

	customer := actor.Actor{ID: "customer-1", Role: actor.RoleCustomer}
	_, err = svc.Transition(context.Background(), payment.ID, customer, domain.StatusCancelled, "changed my mind")
	require.ErrorIs(t, err, ErrForbidden)
}

func TestListStuckProcessing_FiltersByAgeAndCorrelation(t *testing.T) {
	svc := newTestService(t)

	stuck, err := svc.Create(context.Background(), createInput(uuid.New()))
	require.NoError(t, err)
	_, err = svc.BeginProcessing(context.Background(), stuck.ID, "collection started")
	require.NoError(t, err)
	_, err = svc.ApplyGatewayResult(context.Background(), stuck.ID, ports.GatewayResult{
		Accepted:    true,
		ProviderRef: "ref-stuck",
		SubStatus:   ports.SubStatusPending,
	})
	require.NoError(t, err)

	// Processing but without a provider reference: nothing to chase.
	uncorrelated, err := svc.Create(context.Background(), createInput(uuid.New()))
	require.NoError(t, err)
	_, err = svc.BeginProcessing(context.Background(), uncorrelated.ID, "collection started")
	require.NoError(t, err)

	list, err := svc.ListStuckProcessing(context.Background(), -time.Second)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, stuck.ID, list[0].ID)
}
