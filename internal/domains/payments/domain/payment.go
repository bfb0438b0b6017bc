package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status enumerates payment settlement states.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusCancelled  Status = "cancelled"
)

// transitions declares the payment edges. Unlike orders there is no
// administrator bypass, but failed payments may re-enter pending for a retry.
var transitions = map[Status][]Status{
	StatusPending:    {StatusProcessing, StatusCancelled},
	StatusProcessing: {StatusCompleted, StatusFailed, StatusCancelled},
	StatusFailed:     {StatusPending},
	StatusCompleted:  {},
	StatusCancelled:  {},
}

// Method enumerates how an order's total is settled.
type Method string

const (
	MethodCreditCard   Method = "credit_card"
	MethodDebitCard    Method = "debit_card"
	MethodBankTransfer Method = "bank_transfer"
	MethodCash         Method = "cash"
	MethodMobileMoney  Method = "mobile_money"
)

var (
	ErrInvalidStatus     = errors.New("payment status is invalid")
	ErrInvalidMethod     = errors.New("payment method is invalid")
	ErrInvalidTransition = errors.New("payment status transition not allowed")
	ErrInvalidAmount     = errors.New("payment amount must not be negative")
	ErrEmptyOrder        = errors.New("payment requires an order reference")
)

// ParseStatus validates a raw status value.
func ParseStatus(raw string) (Status, error) {
	s := Status(strings.TrimSpace(strings.ToLower(raw)))
	if _, ok := transitions[s]; !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, raw)
	}
	return s, nil
}

// ParseMethod validates a raw method value.
func ParseMethod(raw string) (Method, error) {
	switch Method(strings.TrimSpace(strings.ToLower(raw))) {
	case MethodCreditCard:
		return MethodCreditCard, nil
	case MethodDebitCard:
		return MethodDebitCard, nil
	case MethodBankTransfer:
		return MethodBankTransfer, nil
	case MethodCash:
		return MethodCash, nil
	case MethodMobileMoney:
		return MethodMobileMoney, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidMethod, raw)
	}
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

// StatusChange is one append-only history entry.
type StatusChange struct {
	Status  Status    `json:"status"`
	ActorID string    `json:"actorId"`
	At      time.Time `json:"at"`
	Note    string    `json:"note,omitempty"`
}

// Payment tracks how exactly one order's total is settled. Amount snapshots
// the order total at creation and never changes afterwards.
type Payment struct {
	ID         uuid.UUID
	OrderID    uuid.UUID
	CustomerID string
	WorkerID   *string

	Amount decimal.Decimal
	Method Method
	Status Status

	// Gateway correlation, filled in once a mobile-money collection starts.
	ProviderRef           string
	ProviderSubStatus     string
	ProviderTransactionID string

	History []StatusChange

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewPayment snapshots the owning order's references and total.
func NewPayment(orderID uuid.UUID, customerID string, workerID *string, amount decimal.Decimal, method Method) (*Payment, error) {
	if orderID == uuid.Nil {
		return nil, ErrEmptyOrder
	}
	if amount.IsNegative() {
		return nil, ErrInvalidAmount
	}
	if _, err := ParseMethod(string(method)); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	payment := &Payment{
		ID:         uuid.New(),
		OrderID:    orderID,
		CustomerID: customerID,
		Amount:     amount,
		Method:     method,
		Status:     StatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
		History: []StatusChange{{
			Status:  StatusPending,
			ActorID: customerID,
			At:      now,
			Note:    "payment created",
		}},
	}
	if workerID != nil {
		worker := *workerID
		payment.WorkerID = &worker
	}
	return payment, nil
}

// Transition moves the payment along a declared edge, appending history so
// the last entry always matches the current status.
func (p *Payment) Transition(target Status, actorID, note string) error {
	if _, ok := transitions[target]; !ok {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, target)
	}
	if !p.Status.CanTransitionTo(target) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, p.Status, target)
	}
	now := time.Now().UTC()
	p.Status = target
	p.UpdatedAt = now
	p.History = append(p.History, StatusChange{
		Status:  target,
		ActorID: actorID,
		At:      now,
		Note:    note,
	})
	return nil
}

// Clone returns a deep copy safe to mutate without aliasing stored state.
func (p *Payment) Clone() *Payment {
	clone := *p
	clone.History = append([]StatusChange{}, p.History...)
	if p.WorkerID != nil {
		worker := *p.WorkerID
		clone.WorkerID = &worker
	}
	return &clone
}
