package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/washly/order-api/internal/domains/checkout/ports"
	ordersdomain "github.com/washly/order-api/internal/domains/orders/domain"
	ordersports "github.com/washly/order-api/internal/domains/orders/ports"
	paymentsdomain "github.com/washly/order-api/internal/domains/payments/domain"
	paymentsports "github.com/washly/order-api/internal/domains/payments/ports"
	"github.com/washly/order-api/internal/shared/actor"
)

// Coordinator sequences order and payment changes so the two records stay
// mutually consistent. All cross-entity rules live here; the workflow and
// ledger services stay testable in isolation.
type Coordinator struct {
	orders   ordersports.Service
	payments paymentsports.Service
	gateway  paymentsports.Gateway
	catalog  ports.Catalog
	notifier ports.Notifier
	dedup    ports.Dedup
	taxRate  decimal.Decimal
	logger   *slog.Logger
}

// Option configures optional coordinator collaborators.
type Option func(*Coordinator)

// WithNotifier injects the notification sink.
func WithNotifier(n ports.Notifier) Option {
	return func(c *Coordinator) { c.notifier = n }
}

// WithDedup injects the gateway callback deduplication store.
func WithDedup(d ports.Dedup) Option {
	return func(c *Coordinator) { c.dedup = d }
}

// WithLogger injects a slog logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) { c.logger = logger }
}

// NewCoordinator wires the coordinator over its collaborator ports.
func NewCoordinator(
	orders ordersports.Service,
	payments paymentsports.Service,
	gateway paymentsports.Gateway,
	catalog ports.Catalog,
	taxRate decimal.Decimal,
	opts ...Option,
) *Coordinator {
	c := &Coordinator{
		orders:   orders,
		payments: payments,
		gateway:  gateway,
		catalog:  catalog,
		taxRate:  taxRate,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// PlaceOrder validates line items against the catalog, creates the order,
// then creates its payment. An order is never left without a payment record:
// if payment creation fails the order is cancelled with a system note.
func (c *Coordinator) PlaceOrder(ctx context.Context, input ports.PlaceOrderInput) (*ports.Placement, error) {
	items, err := c.resolveItems(ctx, input.Items)
	if err != nil {
		return nil, err
	}
	order, err := ordersdomain.NewOrder(input.CustomerID, items, c.taxRate, input.DeliveryFee, input.Discount)
	if err != nil {
		return nil, mapOrderError(err)
	}
	order.PickupAddress = input.PickupAddress
	order.DeliveryAddress = input.DeliveryAddress
	order.PickupDate = input.PickupDate
	order.DeliveryDate = input.DeliveryDate
	order.CustomerNotes = input.Notes

	created, err := c.orders.Create(ctx, order)
	if err != nil {
		return nil, err
	}

	payment, err := c.payments.Create(ctx, paymentsports.CreateInput{
		OrderID:    created.ID,
		CustomerID: created.CustomerID,
		WorkerID:   created.WorkerID,
		Amount:     created.Total,
		Method:     input.Method,
	})
	if err != nil {
		if _, cancelErr := c.orders.CancelBySystem(ctx, created.ID, "payment creation failed"); cancelErr != nil {
			c.logger.Error("failed to roll back order after payment creation failure",
				slog.String("order.id", created.ID.String()),
				slog.String("error", cancelErr.Error()))
		}
		return nil, fmt.Errorf("create payment for order %s: %w", created.Number(), err)
	}

	c.notify(ctx, ports.Event{
		Kind:      "order.placed",
		OrderID:   created.ID.String(),
		PaymentID: payment.ID.String(),
		Status:    string(created.Status),
	})
	return &ports.Placement{Order: created, Payment: payment}, nil
}

// CreatePaymentForOrder is the repair path for orders that somehow lack a
// payment record. The 1:1 invariant is still enforced by the ledger.
func (c *Coordinator) CreatePaymentForOrder(ctx context.Context, orderID uuid.UUID, act actor.Actor, method paymentsdomain.Method) (*paymentsdomain.Payment, error) {
	order, err := c.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !act.IsAdmin() && order.CustomerID != act.ID {
		return nil, ordersdomain.ErrForbidden
	}
	return c.payments.Create(ctx, paymentsports.CreateInput{
		OrderID:    order.ID,
		CustomerID: order.CustomerID,
		WorkerID:   order.WorkerID,
		Amount:     order.Total,
		Method:     method,
	})
}

// CancelOrder cancels the order, then cascades to its payment unless the
// payment already reached a state with no cancel edge.
func (c *Coordinator) CancelOrder(ctx context.Context, orderID uuid.UUID, act actor.Actor, reason string) (*ordersdomain.Order, error) {
	order, err := c.orders.Transition(ctx, orderID, act, ordersdomain.StatusCancelled, reason)
	if err != nil {
		return nil, err
	}
	payment, err := c.payments.CancelForOrder(ctx, orderID, act.ID, "order cancelled")
	if err != nil && !errors.Is(err, paymentsports.ErrNotFound) {
		return nil, err
	}
	event := ports.Event{
		Kind:    "order.cancelled",
		OrderID: order.ID.String(),
		Status:  string(order.Status),
		Message: reason,
	}
	if payment != nil {
		event.PaymentID = payment.ID.String()
	}
	c.notify(ctx, event)
	return order, nil
}

// InitiateMobileMoney starts a gateway collection for a pending
// mobile-money payment. The phone number is validated before the ledger
// moves, so a typo is a plain validation error and the customer retries
// against an untouched pending payment. Once validated, the payment enters
// processing before the network call so a timeout lands on the declared
// processing -> failed edge, never leaving the outcome ambiguous.
func (c *Coordinator) InitiateMobileMoney(ctx context.Context, paymentID uuid.UUID, act actor.Actor, phoneNumber string) (*paymentsdomain.Payment, error) {
	payment, err := c.payments.GetByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if !act.IsAdmin() && payment.CustomerID != act.ID {
		return nil, ordersdomain.ErrForbidden
	}
	if payment.Method != paymentsdomain.MethodMobileMoney {
		return nil, fmt.Errorf("%w: payment method is %s", ErrNotMobileMoney, payment.Method)
	}
	phone, err := paymentsports.NormalizePhone(phoneNumber)
	if err != nil {
		return nil, err
	}
	order, err := c.orders.GetByID(ctx, payment.OrderID)
	if err != nil {
		return nil, err
	}

	payment, err = c.payments.BeginProcessing(ctx, paymentID, "mobile money collection initiated")
	if err != nil {
		return nil, err
	}

	result, gatewayErr := c.gateway.Initiate(ctx, paymentsports.InitiateRequest{
		Amount:       payment.Amount,
		PhoneNumber:  phone,
		CustomerName: payment.CustomerID,
		OrderRef:     order.Number(),
	})
	updated, err := c.applyGatewayOutcome(ctx, payment.ID, result)
	if err != nil {
		return nil, err
	}
	// The gateway error is surfaced after the ledger recorded the definite
	// outcome, so the payment status is never left ambiguous.
	if gatewayErr != nil {
		return updated, gatewayErr
	}
	return updated, nil
}

// CheckMobileMoneyStatus polls the gateway for a payment with a provider
// reference and applies the result through the same path as a callback. The
// poll is a read: an unreachable gateway surfaces the error and leaves the
// ledger untouched, so the provider's eventual callback still lands on a
// declared edge. Only definite provider answers are recorded.
func (c *Coordinator) CheckMobileMoneyStatus(ctx context.Context, paymentID uuid.UUID, act actor.Actor) (*paymentsdomain.Payment, error) {
	payment, err := c.payments.GetByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if !act.IsAdmin() && payment.CustomerID != act.ID {
		return nil, ordersdomain.ErrForbidden
	}
	if payment.ProviderRef == "" {
		return nil, fmt.Errorf("%w: payment %s has no provider reference", ErrUnknownTransaction, paymentID)
	}
	result, gatewayErr := c.gateway.CheckStatus(ctx, payment.ProviderRef)
	if gatewayErr != nil && !errors.Is(gatewayErr, paymentsports.ErrGatewayDeclined) {
		return nil, gatewayErr
	}
	updated, err := c.applyGatewayOutcome(ctx, payment.ID, result)
	if err != nil {
		return nil, err
	}
	if gatewayErr != nil {
		return updated, gatewayErr
	}
	return updated, nil
}

// RecordGatewayCallback correlates an asynchronous provider notification with
// its payment. Unknown references are rejected rather than creating
// speculative records; duplicate deliveries are swallowed silently.
func (c *Coordinator) RecordGatewayCallback(ctx context.Context, providerRef string, result paymentsports.GatewayResult) (*paymentsdomain.Payment, error) {
	payment, err := c.payments.GetByProviderRef(ctx, providerRef)
	if err != nil {
		if errors.Is(err, paymentsports.ErrNotFound) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownTransaction, providerRef)
		}
		return nil, err
	}
	if c.dedup != nil {
		first, err := c.dedup.Mark(ctx, callbackKey(providerRef, result.SubStatus))
		if err != nil {
			// Dedup is an optimization; the ledger's completed no-op is the
			// backstop, so a store failure never drops a callback.
			c.logger.Warn("callback dedup unavailable, continuing",
				slog.String("provider.ref", providerRef),
				slog.String("error", err.Error()))
		} else if !first {
			return payment, nil
		}
	}
	return c.applyGatewayOutcome(ctx, payment.ID, result)
}

// ReconcileProcessing sweeps payments stuck in processing and polls the
// gateway for each, covering callbacks the provider never delivered.
func (c *Coordinator) ReconcileProcessing(ctx context.Context, olderThan time.Duration) (int, error) {
	stuck, err := c.payments.ListStuckProcessing(ctx, olderThan)
	if err != nil {
		return 0, err
	}
	reconciled := 0
	for _, payment := range stuck {
		result, gatewayErr := c.gateway.CheckStatus(ctx, payment.ProviderRef)
		if gatewayErr != nil {
			c.logger.Warn("reconcile: gateway status check failed",
				slog.String("payment.id", payment.ID.String()),
				slog.String("error", gatewayErr.Error()))
			continue
		}
		if _, err := c.applyGatewayOutcome(ctx, payment.ID, result); err != nil {
			c.logger.Error("reconcile: failed to apply gateway result",
				slog.String("payment.id", payment.ID.String()),
				slog.String("error", err.Error()))
			continue
		}
		reconciled++
	}
	return reconciled, nil
}

// applyGatewayOutcome records the result in the ledger and, when the payment
// completes while its order is still pending, confirms the order.
func (c *Coordinator) applyGatewayOutcome(ctx context.Context, paymentID uuid.UUID, result paymentsports.GatewayResult) (*paymentsdomain.Payment, error) {
	payment, err := c.payments.ApplyGatewayResult(ctx, paymentID, result)
	if err != nil {
		return nil, err
	}
	if payment.Status == paymentsdomain.StatusCompleted {
		order, err := c.orders.GetByID(ctx, payment.OrderID)
		if err != nil {
			return nil, err
		}
		if order.Status == ordersdomain.StatusPending {
			if _, err := c.orders.ConfirmOnPayment(ctx, order.ID); err != nil {
				return nil, err
			}
		}
	}
	c.notify(ctx, ports.Event{
		Kind:      "payment." + string(payment.Status),
		OrderID:   payment.OrderID.String(),
		PaymentID: payment.ID.String(),
		Status:    string(payment.Status),
		Message:   result.Message,
	})
	return payment, nil
}

func (c *Coordinator) resolveItems(ctx context.Context, inputs []ports.LineItemInput) ([]ordersdomain.LineItem, error) {
	items := make([]ordersdomain.LineItem, 0, len(inputs))
	for _, input := range inputs {
		service, err := c.catalog.Lookup(ctx, input.ServiceID)
		if err != nil {
			return nil, err
		}
		price := service.UnitPrice
		if input.UnitPrice != nil {
			price = *input.UnitPrice
		}
		items = append(items, ordersdomain.LineItem{
			ServiceID: service.ID,
			Name:      service.Name,
			Quantity:  input.Quantity,
			UnitPrice: price,
		})
	}
	return items, nil
}

func (c *Coordinator) notify(ctx context.Context, event ports.Event) {
	if c.notifier == nil {
		return
	}
	if err := c.notifier.Notify(ctx, event); err != nil {
		c.logger.Warn("notification delivery failed",
			slog.String("event.kind", event.Kind),
			slog.String("order.id", event.OrderID),
			slog.String("error", err.Error()))
	}
}

func callbackKey(providerRef string, sub paymentsports.SubStatus) string {
	return "gateway:callback:" + providerRef + ":" + string(sub)
}

var _ ports.Service = (*Coordinator)(nil)
