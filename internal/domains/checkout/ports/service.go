package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	ordersdomain "github.com/washly/order-api/internal/domains/orders/domain"
	paymentsdomain "github.com/washly/order-api/internal/domains/payments/domain"
	paymentsports "github.com/washly/order-api/internal/domains/payments/ports"
	"github.com/washly/order-api/internal/shared/actor"
)

// LineItemInput references a catalog service on an incoming order. UnitPrice
// is optional; when omitted the catalog price is used.
type LineItemInput struct {
	ServiceID string
	Quantity  int
	UnitPrice *decimal.Decimal
}

// PlaceOrderInput carries everything needed to create an order and its
// payment as one unit. Totals are always server-computed.
type PlaceOrderInput struct {
	CustomerID      string
	Items           []LineItemInput
	Method          paymentsdomain.Method
	DeliveryFee     decimal.Decimal
	Discount        decimal.Decimal
	PickupAddress   string
	DeliveryAddress string
	PickupDate      time.Time
	DeliveryDate    time.Time
	Notes           string
}

// Placement is the pair produced by a successful order placement.
type Placement struct {
	Order   *ordersdomain.Order
	Payment *paymentsdomain.Payment
}

// Service sequences multi-entity operations so orders and payments can never
// drift apart under partial failure.
type Service interface {
	PlaceOrder(ctx context.Context, input PlaceOrderInput) (*Placement, error)
	CreatePaymentForOrder(ctx context.Context, orderID uuid.UUID, act actor.Actor, method paymentsdomain.Method) (*paymentsdomain.Payment, error)
	CancelOrder(ctx context.Context, orderID uuid.UUID, act actor.Actor, reason string) (*ordersdomain.Order, error)

	InitiateMobileMoney(ctx context.Context, paymentID uuid.UUID, act actor.Actor, phoneNumber string) (*paymentsdomain.Payment, error)
	CheckMobileMoneyStatus(ctx context.Context, paymentID uuid.UUID, act actor.Actor) (*paymentsdomain.Payment, error)
	RecordGatewayCallback(ctx context.Context, providerRef string, result paymentsports.GatewayResult) (*paymentsdomain.Payment, error)

	// ReconcileProcessing chases payments stuck in processing by polling the
	// gateway, applying each result through the same path as a callback.
	ReconcileProcessing(ctx context.Context, olderThan time.Duration) (int, error)
}

// PlacementOrchestrator runs the place-order sequence, either inline or as a
// durable workflow when a Temporal cluster is available.
type PlacementOrchestrator interface {
	PlaceOrder(ctx context.Context, input PlaceOrderInput) (*Placement, error)
}
