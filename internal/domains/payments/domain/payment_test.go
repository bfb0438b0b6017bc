package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func newTestPayment(t *testing.T) *Payment {
	t.Helper()
	payment, err := NewPayment(uuid.New(), "cust-1", nil, decimal.RequireFromString("65.50"), MethodMobileMoney)
	require.NoError(t, err)
	return payment
}

func TestNewPayment_StartsPending(t *testing.T) {
	payment := newTestPayment(t)

	require.Equal(t, StatusPending, payment.Status)
	require.True(t, payment.Amount.Equal(decimal.RequireFromString("65.50")))
	require.Len(t, payment.History, 1)
	require.Equal(t, StatusPending, payment.History[0].Status)
	require.Equal(t, "cust-1", payment.History[0].ActorID)
}

func TestNewPayment_Validation(t *testing.T) {
	amount := decimal.RequireFromString("10.00")

	_, err := NewPayment(uuid.Nil, "cust-1", nil, amount, MethodCash)
	require.ErrorIs(t, err, ErrEmptyOrder)

	_, err = NewPayment(uuid.New(), "cust-1", nil, decimal.RequireFromString("-1"), MethodCash)
	require.ErrorIs(t, err, ErrInvalidAmount)

	_, err = NewPayment(uuid.New(), "cust-1", nil, amount, Method("crypto"))
	require.ErrorIs(t, err, ErrInvalidMethod)
}

func TestStatus_DeclaredEdges(t *testing.T) {
	cases := []struct {
		from    Status
		to      Status
		allowed bool
	}{
		{StatusPending, StatusProcessing, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusCompleted, false},
		{StatusPending, StatusFailed, false},
		{StatusProcessing, StatusCompleted, true},
		{StatusProcessing, StatusFailed, true},
		{StatusProcessing, StatusCancelled, true},
		{StatusProcessing, StatusPending, false},
		{StatusFailed, StatusPending, true},
		{StatusFailed, StatusProcessing, false},
		{StatusCompleted, StatusCancelled, false},
		{StatusCancelled, StatusPending, false},
	}
	for _, tc := range cases {
		require.Equal(t, tc.allowed, tc.from.CanTransitionTo(tc.to), "%s -> %s", tc.from, tc.to)
	}
	require.True(t, StatusCompleted.Terminal())
	require.True(t, StatusCancelled.Terminal())
	require.False(t, StatusFailed.Terminal())
}

func TestTransition_NoAdminBypass(t *testing.T) {
	payment := newTestPayment(t)

	// Even the platform may not jump pending -> completed directly.
	err := payment.Transition(StatusCompleted, "admin-1", "")
	require.ErrorIs(t, err, ErrInvalidTransition)
	require.Equal(t, StatusPending, payment.Status)
}

func TestTransition_FailedRetriesThroughPending(t *testing.T) {
	payment := newTestPayment(t)

	require.NoError(t, payment.Transition(StatusProcessing, "cust-1", ""))
	require.NoError(t, payment.Transition(StatusFailed, "gateway", "insufficient funds"))
	require.NoError(t, payment.Transition(StatusPending, "cust-1", "retrying"))
	require.NoError(t, payment.Transition(StatusProcessing, "cust-1", ""))
	require.NoError(t, payment.Transition(StatusCompleted, "gateway", ""))

	require.Equal(t, StatusCompleted, payment.Status)
	require.Len(t, payment.History, 6)
	require.Equal(t, StatusCompleted, payment.History[len(payment.History)-1].Status)
}

func TestTransition_RejectsUnknownStatus(t *testing.T) {
	payment := newTestPayment(t)

	err := payment.Transition(Status("refunded"), "admin-1", "")
	require.ErrorIs(t, err, ErrInvalidStatus)
}

func TestParseMethod(t *testing.T) {
	method, err := ParseMethod(" Mobile_Money ")
	require.NoError(t, err)
	require.Equal(t, MethodMobileMoney, method)

	_, err = ParseMethod("barter")
	require.ErrorIs(t, err, ErrInvalidMethod)
}

func TestClone_DoesNotAliasHistory(t *testing.T) {
	worker := "worker-1"
	payment, err := NewPayment(uuid.New(), "cust-1", &worker, decimal.RequireFromString("10.00"), MethodCash)
	require.NoError(t, err)

	clone := payment.Clone()
	require.NoError(t, clone.Transition(StatusProcessing, "cust-1", ""))
	*clone.WorkerID = "worker-9"

	require.Equal(t, StatusPending, payment.Status)
	require.Len(t, payment.History, 1)
	require.Equal(t, "worker-1", *payment.WorkerID)
}
