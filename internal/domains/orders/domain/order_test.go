package domain

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/washly/order-api/internal/shared/actor"
)

func sampleItems() []LineItem {
	return []LineItem{
		{ServiceID: "wash-fold", Name: "Wash & Fold", Quantity: 10, UnitPrice: decimal.RequireFromString("5.00")},
		{ServiceID: "iron-only", Name: "Ironing", Quantity: 1, UnitPrice: decimal.RequireFromString("5.00")},
	}
}

func newTestOrder(t *testing.T) *Order {
	t.Helper()
	order, err := NewOrder("cust-1", sampleItems(), decimal.RequireFromString("0.10"), decimal.RequireFromString("5.00"), decimal.Zero)
	require.NoError(t, err)
	return order
}

func TestNewOrder_ComputesTotals(t *testing.T) {
	order := newTestOrder(t)

	require.True(t, order.Subtotal.Equal(decimal.RequireFromString("55.00")), "subtotal = %s", order.Subtotal)
	require.True(t, order.Tax.Equal(decimal.RequireFromString("5.50")), "tax = %s", order.Tax)
	require.True(t, order.Total.Equal(decimal.RequireFromString("65.50")), "total = %s", order.Total)
	require.Equal(t, StatusPending, order.Status)
	require.Nil(t, order.WorkerID)
	require.Len(t, order.History, 1)
	require.Equal(t, StatusPending, order.History[0].Status)
}

func TestNewOrder_Validation(t *testing.T) {
	taxRate := decimal.RequireFromString("0.10")

	_, err := NewOrder("", sampleItems(), taxRate, decimal.Zero, decimal.Zero)
	require.ErrorIs(t, err, ErrEmptyCustomer)

	_, err = NewOrder("cust-1", nil, taxRate, decimal.Zero, decimal.Zero)
	require.ErrorIs(t, err, ErrNoItems)

	items := sampleItems()
	items[0].Quantity = 0
	_, err = NewOrder("cust-1", items, taxRate, decimal.Zero, decimal.Zero)
	require.ErrorIs(t, err, ErrInvalidQuantity)

	items = sampleItems()
	items[1].UnitPrice = decimal.RequireFromString("-1")
	_, err = NewOrder("cust-1", items, taxRate, decimal.Zero, decimal.Zero)
	require.ErrorIs(t, err, ErrNegativePrice)

	_, err = NewOrder("cust-1", sampleItems(), taxRate, decimal.RequireFromString("-1"), decimal.Zero)
	require.ErrorIs(t, err, ErrNegativeAdjust)
}

func TestNumber_DerivedFromID(t *testing.T) {
	order := newTestOrder(t)

	number := order.Number()
	require.True(t, strings.HasPrefix(number, "ORD-"))
	require.Len(t, number, 12)
	require.Equal(t, strings.ToUpper(number), number)
}

func TestStatus_DeclaredEdges(t *testing.T) {
	cases := []struct {
		from    Status
		to      Status
		allowed bool
	}{
		{StatusPending, StatusConfirmed, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusAssigned, false},
		{StatusPending, StatusCompleted, false},
		{StatusConfirmed, StatusAssigned, true},
		{StatusConfirmed, StatusInProgress, true},
		{StatusConfirmed, StatusCancelled, true},
		{StatusAssigned, StatusConfirmed, true},
		{StatusAssigned, StatusInProgress, true},
		{StatusAssigned, StatusCancelled, true},
		{StatusAssigned, StatusReadyForPickup, false},
		{StatusInProgress, StatusReadyForPickup, true},
		{StatusInProgress, StatusCancelled, true},
		{StatusInProgress, StatusCompleted, false},
		{StatusReadyForPickup, StatusCompleted, true},
		{StatusReadyForPickup, StatusCancelled, true},
		{StatusCompleted, StatusCancelled, false},
		{StatusCancelled, StatusPending, false},
	}
	for _, tc := range cases {
		require.Equal(t, tc.allowed, tc.from.CanTransitionTo(tc.to), "%s -> %s", tc.from, tc.to)
	}
	require.True(t, StatusCompleted.Terminal())
	require.True(t, StatusCancelled.Terminal())
	require.False(t, StatusReadyForPickup.Terminal())
}

func TestTransition_AdminBypassesEdges(t *testing.T) {
	order := newTestOrder(t)
	admin := actor.Actor{ID: "admin-1", Role: actor.RoleAdmin}

	require.NoError(t, order.Transition(StatusCompleted, admin, "resolved manually"))
	require.Equal(t, StatusCompleted, order.Status)
	require.Equal(t, "resolved manually", order.AdminNotes)
}

func TestTransition_RejectsUndeclaredEdge(t *testing.T) {
	order := newTestOrder(t)
	customer := actor.Actor{ID: "cust-1", Role: actor.RoleCustomer}

	err := order.Transition(StatusCompleted, customer, "")
	require.ErrorIs(t, err, ErrInvalidTransition)
	require.Equal(t, StatusPending, order.Status)
}

func TestTransition_RejectsUnknownStatus(t *testing.T) {
	order := newTestOrder(t)
	admin := actor.Actor{ID: "admin-1", Role: actor.RoleAdmin}

	err := order.Transition(Status("shipped"), admin, "")
	require.ErrorIs(t, err, ErrInvalidStatus)
}

func TestTransition_CustomerOnlyOnOwnOrder(t *testing.T) {
	order := newTestOrder(t)
	stranger := actor.Actor{ID: "cust-2", Role: actor.RoleCustomer}

	err := order.Transition(StatusCancelled, stranger, "")
	require.ErrorIs(t, err, ErrForbidden)

	owner := actor.Actor{ID: "cust-1", Role: actor.RoleCustomer}
	require.NoError(t, order.Transition(StatusCancelled, owner, "changed my mind"))
	require.Equal(t, StatusCancelled, order.Status)
	require.Equal(t, "changed my mind", order.CustomerNotes)
}

func TestTransition_WorkerMustBeAssigned(t *testing.T) {
	order := newTestOrder(t)
	worker := actor.Actor{ID: "worker-1", Role: actor.RoleWorker}

	err := order.Transition(StatusConfirmed, worker, "")
	require.ErrorIs(t, err, ErrForbidden)

	require.NoError(t, order.Assign("worker-1"))
	require.NoError(t, order.Transition(StatusInProgress, worker, "picked up"))
	require.Equal(t, StatusInProgress, order.Status)
	require.Equal(t, "picked up", order.WorkerNotes)

	other := actor.Actor{ID: "worker-2", Role: actor.RoleWorker}
	err = order.Transition(StatusReadyForPickup, other, "")
	require.ErrorIs(t, err, ErrForbidden)
}

func TestAssign_ClaimsOrderOnce(t *testing.T) {
	order := newTestOrder(t)

	require.NoError(t, order.Assign("worker-1"))
	require.Equal(t, StatusAssigned, order.Status)
	require.NotNil(t, order.WorkerID)
	require.Equal(t, "worker-1", *order.WorkerID)

	err := order.Assign("worker-2")
	require.ErrorIs(t, err, ErrAlreadyAssigned)
	require.Equal(t, "worker-1", *order.WorkerID)
}

func TestAssign_RequiresClaimableStatus(t *testing.T) {
	order := newTestOrder(t)
	admin := actor.Actor{ID: "admin-1", Role: actor.RoleAdmin}
	require.NoError(t, order.Transition(StatusInProgress, admin, ""))

	err := order.Assign("worker-1")
	require.ErrorIs(t, err, ErrNotAvailable)
}

func TestNotes_PartitionedByRole(t *testing.T) {
	order := newTestOrder(t)
	admin := actor.Actor{ID: "admin-1", Role: actor.RoleAdmin}

	require.NoError(t, order.Transition(StatusConfirmed, admin, "verified payment"))
	require.NoError(t, order.Assign("worker-1"))
	worker := actor.Actor{ID: "worker-1", Role: actor.RoleWorker}
	require.NoError(t, order.Transition(StatusInProgress, worker, "on my way"))

	require.Equal(t, "verified payment", order.AdminNotes)
	require.Equal(t, "self-assigned\non my way", order.WorkerNotes)
	require.Empty(t, order.CustomerNotes)
}

func TestHistory_AppendOnly(t *testing.T) {
	order := newTestOrder(t)
	admin := actor.Actor{ID: "admin-1", Role: actor.RoleAdmin}

	require.NoError(t, order.Transition(StatusConfirmed, admin, ""))
	require.NoError(t, order.Transition(StatusInProgress, admin, ""))

	require.Len(t, order.History, 3)
	require.Equal(t, StatusPending, order.History[0].Status)
	require.Equal(t, StatusConfirmed, order.History[1].Status)
	require.Equal(t, StatusInProgress, order.History[2].Status)
	require.Equal(t, "admin-1", order.History[2].ActorID)
}

func TestClone_DoesNotAliasState(t *testing.T) {
	order := newTestOrder(t)
	require.NoError(t, order.Assign("worker-1"))

	clone := order.Clone()
	worker := actor.Actor{ID: "worker-1", Role: actor.RoleWorker}
	require.NoError(t, clone.Transition(StatusInProgress, worker, "note"))

	require.Equal(t, StatusAssigned, order.Status)
	require.Len(t, order.History, 2)
	require.Len(t, clone.History, 3)
	*clone.WorkerID = "worker-9"
	require.Equal(t, "worker-1", *order.WorkerID)
}

func TestParseStatus(t *testing.T) {
	status, err := ParseStatus("  Ready_For_Pickup ")
	require.NoError(t, err)
	require.Equal(t, StatusReadyForPickup, status)

	_, err = ParseStatus("shipped")
	require.ErrorIs(t, err, ErrInvalidStatus)
}
