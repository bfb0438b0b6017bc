package notify

import (
	"context"
	"log/slog"

	"github.com/washly/order-api/internal/domains/checkout/ports"
)

// LogNotifier writes status-change events to the structured log. It stands in
// for the SMS/push notification collaborator, which lives outside this
// service; swapping it does not touch the coordinator.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier wraps a slog logger as a notifier.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

// Notify logs the event at info level.
func (n *LogNotifier) Notify(_ context.Context, event ports.Event) error {
	n.logger.Info("status notification",
		slog.String("event.kind", event.Kind),
		slog.String("order.id", event.OrderID),
		slog.String("payment.id", event.PaymentID),
		slog.String("status", event.Status),
		slog.String("message", event.Message))
	return nil
}

var _ ports.Notifier = (*LogNotifier)(nil)
