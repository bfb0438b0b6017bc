package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/washly/order-api/internal/shared/actor"
)

// Status enumerates order progression.
type Status string

const (
	StatusPending        Status = "pending"
	StatusConfirmed      Status = "confirmed"
	StatusAssigned       Status = "assigned"
	StatusInProgress     Status = "in_progress"
	StatusReadyForPickup Status = "ready_for_pickup"
	StatusCompleted      Status = "completed"
	StatusCancelled      Status = "cancelled"
)

// transitions declares the allowed edges of the order state machine.
// Administrators bypass this table; everyone else is bound by it.
var transitions = map[Status][]Status{
	StatusPending:        {StatusConfirmed, StatusCancelled},
	StatusConfirmed:      {StatusAssigned, StatusInProgress, StatusCancelled},
	StatusAssigned:       {StatusConfirmed, StatusInProgress, StatusCancelled},
	StatusInProgress:     {StatusReadyForPickup, StatusCancelled},
	StatusReadyForPickup: {StatusCompleted, StatusCancelled},
	StatusCompleted:      {},
	StatusCancelled:      {},
}

var (
	ErrEmptyCustomer     = errors.New("order customer is required")
	ErrNoItems           = errors.New("order requires at least one line item")
	ErrInvalidQuantity   = errors.New("line item quantity must be at least one")
	ErrNegativePrice     = errors.New("line item unit price must not be negative")
	ErrNegativeAdjust    = errors.New("delivery fee and discount must not be negative")
	ErrInvalidStatus     = errors.New("order status is invalid")
	ErrInvalidTransition = errors.New("order status transition not allowed")
	ErrForbidden         = errors.New("actor may not act on this order")
	ErrNotAvailable      = errors.New("order is not available for assignment")
	ErrAlreadyAssigned   = errors.New("order is already assigned to a worker")
)

// ParseStatus validates a raw status value.
func ParseStatus(raw string) (Status, error) {
	s := Status(strings.TrimSpace(strings.ToLower(raw)))
	if _, ok := transitions[s]; !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, raw)
	}
	return s, nil
}

// CanTransitionTo reports whether the edge s -> target is declared.
func (s Status) CanTransitionTo(target Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// Terminal reports whether no edges lead out of s.
func (s Status) Terminal() bool {
	return len(transitions[s]) == 0
}

// Claimable reports whether a worker may still self-assign at this status.
func (s Status) Claimable() bool {
	return s == StatusPending || s == StatusConfirmed
}

// LineItem snapshots one catalog service on an order.
type LineItem struct {
	ServiceID string
	Name      string
	Quantity  int
	UnitPrice decimal.Decimal
}

// Total returns quantity times unit price.
func (li LineItem) Total() decimal.Decimal {
	return li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// StatusChange is one append-only history entry.
type StatusChange struct {
	Status  Status    `json:"status"`
	ActorID string    `json:"actorId"`
	At      time.Time `json:"at"`
	Note    string    `json:"note,omitempty"`
}

// Order is the aggregate owned by the orders bounded context.
type Order struct {
	ID         uuid.UUID
	CustomerID string
	WorkerID   *string
	Items      []LineItem
	Status     Status

	TaxRate     decimal.Decimal
	Subtotal    decimal.Decimal
	Tax         decimal.Decimal
	DeliveryFee decimal.Decimal
	Discount    decimal.Decimal
	Total       decimal.Decimal

	PickupAddress   string
	DeliveryAddress string
	PickupDate      time.Time
	DeliveryDate    time.Time

	CustomerNotes string
	WorkerNotes   string
	AdminNotes    string

	History []StatusChange

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewOrder validates input and constructs a pending, unassigned order with
// server-computed totals. Client-submitted totals are never trusted.
func NewOrder(customerID string, items []LineItem, taxRate, deliveryFee, discount decimal.Decimal) (*Order, error) {
	customerID = strings.TrimSpace(customerID)
	if customerID == "" {
		return nil, ErrEmptyCustomer
	}
	if len(items) == 0 {
		return nil, ErrNoItems
	}
	for _, item := range items {
		if item.Quantity < 1 {
			return nil, fmt.Errorf("%w: service %s", ErrInvalidQuantity, item.ServiceID)
		}
		if item.UnitPrice.IsNegative() {
			return nil, fmt.Errorf("%w: service %s", ErrNegativePrice, item.ServiceID)
		}
	}
	if deliveryFee.IsNegative() || discount.IsNegative() || taxRate.IsNegative() {
		return nil, ErrNegativeAdjust
	}
	now := time.Now().UTC()
	order := &Order{
		ID:          uuid.New(),
		CustomerID:  customerID,
		Items:       append([]LineItem{}, items...),
		Status:      StatusPending,
		TaxRate:     taxRate,
		DeliveryFee: deliveryFee,
		Discount:    discount,
		CreatedAt:   now,
		UpdatedAt:   now,
		History: []StatusChange{{
			Status:  StatusPending,
			ActorID: customerID,
			At:      now,
			Note:    "order placed",
		}},
	}
	order.RecomputeTotals()
	return order, nil
}

// RecomputeTotals derives subtotal, tax, and total from the current line
// items and adjustments. Total is never stored from input.
func (o *Order) RecomputeTotals() {
	subtotal := decimal.Zero
	for _, item := range o.Items {
		subtotal = subtotal.Add(item.Total())
	}
	o.Subtotal = subtotal
	o.Tax = subtotal.Mul(o.TaxRate).Round(2)
	o.Total = o.Subtotal.Add(o.Tax).Add(o.DeliveryFee).Sub(o.Discount)
}

// Number derives the public display identifier from the order id.
func (o *Order) Number() string {
	compact := strings.ReplaceAll(o.ID.String(), "-", "")
	if len(compact) > 8 {
		compact = compact[:8]
	}
	return "ORD-" + strings.ToUpper(compact)
}

// Transition moves the order along a declared edge on behalf of an actor.
// Workers may only act on orders assigned to them, customers only on their
// own orders; administrators may drive any transition unconditionally.
func (o *Order) Transition(target Status, act actor.Actor, note string) error {
	if _, ok := transitions[target]; !ok {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, target)
	}
	if err := o.authorize(act); err != nil {
		return err
	}
	if !act.IsAdmin() && !o.Status.CanTransitionTo(target) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.Status, target)
	}
	o.apply(target, act, note)
	return nil
}

// Assign claims an unassigned order for a worker and moves it to assigned.
// The repository is responsible for making the claim atomic; this method
// encodes the precondition and the resulting mutation.
func (o *Order) Assign(workerID string) error {
	if o.WorkerID != nil {
		return ErrAlreadyAssigned
	}
	if !o.Status.Claimable() {
		return ErrNotAvailable
	}
	worker := workerID
	o.WorkerID = &worker
	o.apply(StatusAssigned, actor.Actor{ID: workerID, Role: actor.RoleWorker}, "self-assigned")
	return nil
}

func (o *Order) authorize(act actor.Actor) error {
	switch act.Role {
	case actor.RoleAdmin:
		return nil
	case actor.RoleWorker:
		if o.WorkerID == nil || *o.WorkerID != act.ID {
			return ErrForbidden
		}
		return nil
	case actor.RoleCustomer:
		if o.CustomerID != act.ID {
			return ErrForbidden
		}
		return nil
	default:
		return ErrForbidden
	}
}

func (o *Order) apply(target Status, act actor.Actor, note string) {
	now := time.Now().UTC()
	o.Status = target
	o.UpdatedAt = now
	o.History = append(o.History, StatusChange{
		Status:  target,
		ActorID: act.ID,
		At:      now,
		Note:    note,
	})
	o.appendNote(act, note)
}

// appendNote files free-text notes under the author's role.
func (o *Order) appendNote(act actor.Actor, note string) {
	note = strings.TrimSpace(note)
	if note == "" {
		return
	}
	switch act.Role {
	case actor.RoleWorker:
		o.WorkerNotes = joinNotes(o.WorkerNotes, note)
	case actor.RoleAdmin:
		o.AdminNotes = joinNotes(o.AdminNotes, note)
	default:
		o.CustomerNotes = joinNotes(o.CustomerNotes, note)
	}
}

func joinNotes(existing, note string) string {
	if existing == "" {
		return note
	}
	return existing + "\n" + note
}

// Clone returns a deep copy safe to mutate without aliasing stored state.
func (o *Order) Clone() *Order {
	clone := *o
	clone.Items = append([]LineItem{}, o.Items...)
	clone.History = append([]StatusChange{}, o.History...)
	if o.WorkerID != nil {
		worker := *o.WorkerID
		clone.WorkerID = &worker
	}
	return &clone
}
