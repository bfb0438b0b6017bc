package server

import (
	"time"

	"github.com/shopspring/decimal"

	checkoutports "github.com/washly/order-api/internal/domains/checkout/ports"
	ordersdomain "github.com/washly/order-api/internal/domains/orders/domain"
	paymentsdomain "github.com/washly/order-api/internal/domains/payments/domain"
)

type lineItemPayload struct {
	ServiceID string           `json:"serviceId" binding:"required"`
	Quantity  int              `json:"quantity" binding:"required"`
	UnitPrice *decimal.Decimal `json:"unitPrice,omitempty"`
}

type placeOrderPayload struct {
	Items           []lineItemPayload `json:"items" binding:"required"`
	PaymentMethod   string            `json:"paymentMethod" binding:"required"`
	DeliveryFee     decimal.Decimal   `json:"deliveryFee"`
	Discount        decimal.Decimal   `json:"discount"`
	PickupAddress   string            `json:"pickupAddress"`
	DeliveryAddress string            `json:"deliveryAddress"`
	PickupDate      time.Time         `json:"pickupDate"`
	DeliveryDate    time.Time         `json:"deliveryDate"`
	Notes           string            `json:"notes"`
}

type statusChangePayload struct {
	Status string `json:"status" binding:"required"`
	Note   string `json:"note"`
}

type createPaymentPayload struct {
	Method string `json:"method" binding:"required"`
}

type mobileMoneyPayload struct {
	PhoneNumber string `json:"phoneNumber" binding:"required"`
}

// gatewayCallbackPayload mirrors the provider's notification body.
type gatewayCallbackPayload struct {
	TransactionReference string `json:"transactionReference" binding:"required"`
	Status               string `json:"status" binding:"required"`
	TransactionID        string `json:"transactionId"`
	Message              string `json:"message"`
}

type statusChangeView struct {
	Status  string    `json:"status"`
	ActorID string    `json:"actorId"`
	At      time.Time `json:"at"`
	Note    string    `json:"note,omitempty"`
}

type lineItemView struct {
	ServiceID string          `json:"serviceId"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Total     decimal.Decimal `json:"total"`
}

type orderView struct {
	ID              string             `json:"id"`
	Number          string             `json:"number"`
	CustomerID      string             `json:"customerId"`
	WorkerID        *string            `json:"workerId,omitempty"`
	Status          string             `json:"status"`
	Items           []lineItemView     `json:"items"`
	Subtotal        decimal.Decimal    `json:"subtotal"`
	Tax             decimal.Decimal    `json:"tax"`
	DeliveryFee     decimal.Decimal    `json:"deliveryFee"`
	Discount        decimal.Decimal    `json:"discount"`
	Total           decimal.Decimal    `json:"total"`
	PickupAddress   string             `json:"pickupAddress,omitempty"`
	DeliveryAddress string             `json:"deliveryAddress,omitempty"`
	PickupDate      *time.Time         `json:"pickupDate,omitempty"`
	DeliveryDate    *time.Time         `json:"deliveryDate,omitempty"`
	CustomerNotes   string             `json:"customerNotes,omitempty"`
	WorkerNotes     string             `json:"workerNotes,omitempty"`
	AdminNotes      string             `json:"adminNotes,omitempty"`
	History         []statusChangeView `json:"history"`
	CreatedAt       time.Time          `json:"createdAt"`
	UpdatedAt       time.Time          `json:"updatedAt"`
}

type paymentView struct {
	ID                    string             `json:"id"`
	OrderID               string             `json:"orderId"`
	CustomerID            string             `json:"customerId"`
	WorkerID              *string            `json:"workerId,omitempty"`
	Amount                decimal.Decimal    `json:"amount"`
	Method                string             `json:"method"`
	Status                string             `json:"status"`
	ProviderRef           string             `json:"providerRef,omitempty"`
	ProviderSubStatus     string             `json:"providerSubStatus,omitempty"`
	ProviderTransactionID string             `json:"providerTransactionId,omitempty"`
	History               []statusChangeView `json:"history"`
	CreatedAt             time.Time          `json:"createdAt"`
	UpdatedAt             time.Time          `json:"updatedAt"`
}

type placementView struct {
	Order   orderView   `json:"order"`
	Payment paymentView `json:"payment"`
}

func toOrderView(order *ordersdomain.Order) orderView {
	items := make([]lineItemView, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, lineItemView{
			ServiceID: item.ServiceID,
			Name:      item.Name,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			Total:     item.Total(),
		})
	}
	view := orderView{
		ID:              order.ID.String(),
		Number:          order.Number(),
		CustomerID:      order.CustomerID,
		WorkerID:        order.WorkerID,
		Status:          string(order.Status),
		Items:           items,
		Subtotal:        order.Subtotal,
		Tax:             order.Tax,
		DeliveryFee:     order.DeliveryFee,
		Discount:        order.Discount,
		Total:           order.Total,
		PickupAddress:   order.PickupAddress,
		DeliveryAddress: order.DeliveryAddress,
		CustomerNotes:   order.CustomerNotes,
		WorkerNotes:     order.WorkerNotes,
		AdminNotes:      order.AdminNotes,
		History:         toOrderHistoryView(order.History),
		CreatedAt:       order.CreatedAt,
		UpdatedAt:       order.UpdatedAt,
	}
	if !order.PickupDate.IsZero() {
		pickup := order.PickupDate
		view.PickupDate = &pickup
	}
	if !order.DeliveryDate.IsZero() {
		delivery := order.DeliveryDate
		view.DeliveryDate = &delivery
	}
	return view
}

func toOrderViewList(orders []*ordersdomain.Order) []orderView {
	views := make([]orderView, 0, len(orders))
	for _, order := range orders {
		views = append(views, toOrderView(order))
	}
	return views
}

func toPaymentView(payment *paymentsdomain.Payment) paymentView {
	return paymentView{
		ID:                    payment.ID.String(),
		OrderID:               payment.OrderID.String(),
		CustomerID:            payment.CustomerID,
		WorkerID:              payment.WorkerID,
		Amount:                payment.Amount,
		Method:                string(payment.Method),
		Status:                string(payment.Status),
		ProviderRef:           payment.ProviderRef,
		ProviderSubStatus:     payment.ProviderSubStatus,
		ProviderTransactionID: payment.ProviderTransactionID,
		History:               toPaymentHistoryView(payment.History),
		CreatedAt:             payment.CreatedAt,
		UpdatedAt:             payment.UpdatedAt,
	}
}

func toOrderHistoryView(changes []ordersdomain.StatusChange) []statusChangeView {
	views := make([]statusChangeView, 0, len(changes))
	for _, change := range changes {
		views = append(views, statusChangeView{
			Status:  string(change.Status),
			ActorID: change.ActorID,
			At:      change.At,
			Note:    change.Note,
		})
	}
	return views
}

func toPaymentHistoryView(changes []paymentsdomain.StatusChange) []statusChangeView {
	views := make([]statusChangeView, 0, len(changes))
	for _, change := range changes {
		views = append(views, statusChangeView{
			Status:  string(change.Status),
			ActorID: change.ActorID,
			At:      change.At,
			Note:    change.Note,
		})
	}
	return views
}

func toPlacementView(placement *checkoutports.Placement) placementView {
	return placementView{
		Order:   toOrderView(placement.Order),
		Payment: toPaymentView(placement.Payment),
	}
}
