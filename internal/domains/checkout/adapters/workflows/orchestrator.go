package workflows

import (
	"context"
	"errors"
	"fmt"
	"time"

	oteltrace "go.opentelemetry.io/otel/trace"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"

	"github.com/washly/order-api/internal/domains/checkout/ports"
	orderworkflows "github.com/washly/order-api/internal/durable/temporal/workflows/orders"
)

var (
	_ ports.PlacementOrchestrator = (*TemporalPlacement)(nil)
	_ ports.PlacementOrchestrator = (*InlinePlacement)(nil)
)

// TemporalPlacement starts order placements on a Temporal cluster.
type TemporalPlacement struct {
	client    client.Client
	taskQueue string
}

// NewTemporalPlacement wires a Temporal client into the orchestrator.
func NewTemporalPlacement(c client.Client) *TemporalPlacement {
	return &TemporalPlacement{client: c, taskQueue: orderworkflows.OrderPlacementTaskQueue}
}

// PlaceOrder starts the durable workflow and waits for its result. A
// concurrent start with the same workflow ID attaches to the running
// execution instead of placing a second order.
func (o *TemporalPlacement) PlaceOrder(ctx context.Context, input ports.PlaceOrderInput) (*ports.Placement, error) {
	if o == nil || o.client == nil {
		return nil, errors.New("temporal placement not configured")
	}
	traceComponent := workflowTraceComponent(ctx)
	options := client.StartWorkflowOptions{
		ID:        fmt.Sprintf("order-placement-%s-%s", input.CustomerID, traceComponent),
		TaskQueue: o.taskQueue,
	}
	run, err := o.client.ExecuteWorkflow(
		ctx,
		options,
		orderworkflows.OrderPlacementWorkflow,
		orderworkflows.OrderPlacementWorkflowInput{Command: input, TraceID: traceComponent},
	)
	if err != nil {
		var alreadyStarted *serviceerror.WorkflowExecutionAlreadyStarted
		if errors.As(err, &alreadyStarted) {
			existingRun := o.client.GetWorkflow(ctx, options.ID, alreadyStarted.RunId)
			var placement ports.Placement
			if err := existingRun.Get(ctx, &placement); err != nil {
				return nil, err
			}
			return &placement, nil
		}
		return nil, err
	}
	var placement ports.Placement
	if err := run.Get(ctx, &placement); err != nil {
		return nil, err
	}
	return &placement, nil
}

// InlinePlacement executes the coordinator directly without Temporal, useful
// for tests or dev fallbacks.
type InlinePlacement struct {
	service ports.Service
}

// NewInlinePlacement wraps the coordinator for synchronous execution.
func NewInlinePlacement(service ports.Service) *InlinePlacement {
	return &InlinePlacement{service: service}
}

// PlaceOrder delegates to the coordinator without durable orchestration.
func (o *InlinePlacement) PlaceOrder(ctx context.Context, input ports.PlaceOrderInput) (*ports.Placement, error) {
	if o == nil || o.service == nil {
		return nil, errors.New("inline placement not configured")
	}
	return o.service.PlaceOrder(ctx, input)
}

func workflowTraceComponent(ctx context.Context) string {
	if traceID := workflowTraceID(ctx); traceID != "" {
		return traceID
	}
	return fmt.Sprintf("fallback-%d", time.Now().UnixNano())
}

func workflowTraceID(ctx context.Context) string {
	span := oteltrace.SpanFromContext(ctx)
	if span == nil {
		return ""
	}
	spanCtx := span.SpanContext()
	if !spanCtx.IsValid() {
		return ""
	}
	traceID := spanCtx.TraceID()
	if !traceID.IsValid() {
		return ""
	}
	return traceID.String()
}
