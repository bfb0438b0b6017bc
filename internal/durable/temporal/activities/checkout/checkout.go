package checkout

import (
	"context"
	"errors"

	"go.temporal.io/sdk/activity"

	"github.com/washly/order-api/internal/domains/checkout/ports"
)

// PlaceOrderActivityName creates an order together with its payment record.
const PlaceOrderActivityName = "checkout.activities.PlaceOrder"

// Activities groups activities that operate on the checkout bounded context.
type Activities struct {
	coordinator ports.Service
}

// NewActivities wires the checkout coordinator into the activities bundle.
func NewActivities(coordinator ports.Service) *Activities {
	return &Activities{coordinator: coordinator}
}

// PlaceOrder runs the coordinator's placement sequence. The coordinator
// already rolls the order back when payment creation fails, so a retried
// activity never observes a half-placed order.
func (a *Activities) PlaceOrder(ctx context.Context, input ports.PlaceOrderInput) (*ports.Placement, error) {
	logger := activity.GetLogger(ctx)
	if a == nil || a.coordinator == nil {
		logger.Error("place order activity not initialized", "customerId", input.CustomerID)
		return nil, errors.New("place order activity not initialized")
	}
	logger.Info("PlaceOrder activity started", "customerId", input.CustomerID)
	placement, err := a.coordinator.PlaceOrder(ctx, input)
	if err != nil {
		logger.Error("PlaceOrder activity failed", "customerId", input.CustomerID, "error", err)
		return nil, err
	}
	logger.Info("PlaceOrder activity completed",
		"orderId", placement.Order.ID, "paymentId", placement.Payment.ID)
	return placement, nil
}
