package ports

import "context"

// Event describes a status change worth telling the customer or worker about.
type Event struct {
	Kind      string
	OrderID   string
	PaymentID string
	Status    string
	Message   string
}

// Notifier delivers status-change events to the notification collaborator.
// Delivery is fire-and-forget: a notify failure must never fail the
// underlying transition, so the coordinator only logs returned errors.
type Notifier interface {
	Notify(ctx context.Context, event Event) error
}
