package sequences

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	checkoutports "github.com/washly/order-api/internal/domains/checkout/ports"
	checkoutactivities "github.com/washly/order-api/internal/durable/temporal/activities/checkout"
)

// RunOrderPlacementSequence executes the ordered set of activities needed to
// place an order with its payment record.
func RunOrderPlacementSequence(ctx workflow.Context, input checkoutports.PlaceOrderInput) (*checkoutports.Placement, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("order placement sequence started", "customerId", input.CustomerID)
	options := workflow.ActivityOptions{
		StartToCloseTimeout: time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    2 * time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    10 * time.Second,
			MaximumAttempts:    5,
			// Validation failures never succeed on retry.
			NonRetryableErrorTypes: []string{"invalid order"},
		},
	}
	ctx = workflow.WithActivityOptions(ctx, options)

	var placement checkoutports.Placement
	err := workflow.ExecuteActivity(ctx, checkoutactivities.PlaceOrderActivityName, input).Get(ctx, &placement)
	if err != nil {
		logger.Error("order placement sequence failed", "customerId", input.CustomerID, "error", err)
		return nil, err
	}
	if placement.Order != nil {
		logger.Info("order placement sequence completed", "orderId", placement.Order.ID)
	} else {
		logger.Info("order placement sequence completed")
	}
	return &placement, nil
}
