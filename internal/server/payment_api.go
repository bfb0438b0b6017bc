package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	checkoutports "github.com/washly/order-api/internal/domains/checkout/ports"
	paymentsdomain "github.com/washly/order-api/internal/domains/payments/domain"
	paymentsports "github.com/washly/order-api/internal/domains/payments/ports"
	"github.com/washly/order-api/internal/shared/actor"
	apierrors "github.com/washly/order-api/internal/shared/errors"
)

// PaymentAPI wires HTTP transport with the payments service and the checkout
// coordinator.
type PaymentAPI struct {
	payments    paymentsports.Service
	coordinator checkoutports.Service
}

// NewPaymentAPI creates a PaymentAPI backed by the provided collaborators.
func NewPaymentAPI(payments paymentsports.Service, coordinator checkoutports.Service) PaymentAPI {
	return PaymentAPI{payments: payments, coordinator: coordinator}
}

// Get /v1/payments/:paymentId
// Fetch one payment
func (api *PaymentAPI) GetPayment(c *gin.Context) {
	id, ok := parseUUIDParam(c, "paymentId")
	if !ok {
		return
	}
	payment, err := api.payments.GetByID(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if problem, ok := authorizePaymentRead(actorFrom(c), payment); !ok {
		apierrors.Respond(c, problem)
		return
	}
	c.JSON(http.StatusOK, toPaymentView(payment))
}

// Get /v1/orders/:orderId/payment
// Fetch the payment record of an order
func (api *PaymentAPI) GetPaymentForOrder(c *gin.Context) {
	orderID, ok := parseUUIDParam(c, "orderId")
	if !ok {
		return
	}
	payment, err := api.payments.GetByOrderID(c.Request.Context(), orderID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if problem, ok := authorizePaymentRead(actorFrom(c), payment); !ok {
		apierrors.Respond(c, problem)
		return
	}
	c.JSON(http.StatusOK, toPaymentView(payment))
}

// Post /v1/orders/:orderId/payment
// Create the payment record for an order that lacks one
func (api *PaymentAPI) CreatePaymentForOrder(c *gin.Context) {
	orderID, ok := parseUUIDParam(c, "orderId")
	if !ok {
		return
	}
	var payload createPaymentPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		apierrors.Respond(c, apierrors.ErrBadRequest.WithDetail(err.Error()))
		return
	}
	method, err := paymentsdomain.ParseMethod(payload.Method)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	payment, err := api.coordinator.CreatePaymentForOrder(c.Request.Context(), orderID, actorFrom(c), method)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toPaymentView(payment))
}

// Patch /v1/payments/:paymentId/status
// Drive one declared payment transition
func (api *PaymentAPI) UpdatePaymentStatus(c *gin.Context) {
	id, ok := parseUUIDParam(c, "paymentId")
	if !ok {
		return
	}
	var payload statusChangePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		apierrors.Respond(c, apierrors.ErrBadRequest.WithDetail(err.Error()))
		return
	}
	target, err := paymentsdomain.ParseStatus(payload.Status)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	payment, err := api.payments.Transition(c.Request.Context(), id, actorFrom(c), target, payload.Note)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, toPaymentView(payment))
}

// Post /v1/payments/:paymentId/mobile-money
// Start a mobile-money collection
func (api *PaymentAPI) InitiateMobileMoney(c *gin.Context) {
	id, ok := parseUUIDParam(c, "paymentId")
	if !ok {
		return
	}
	var payload mobileMoneyPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		apierrors.Respond(c, apierrors.ErrBadRequest.WithDetail(err.Error()))
		return
	}
	payment, err := api.coordinator.InitiateMobileMoney(c.Request.Context(), id, actorFrom(c), payload.PhoneNumber)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, toPaymentView(payment))
}

// Get /v1/payments/:paymentId/mobile-money
// Poll the provider for the collection outcome
func (api *PaymentAPI) CheckMobileMoneyStatus(c *gin.Context) {
	id, ok := parseUUIDParam(c, "paymentId")
	if !ok {
		return
	}
	payment, err := api.coordinator.CheckMobileMoneyStatus(c.Request.Context(), id, actorFrom(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, toPaymentView(payment))
}

// Post /v1/gateway/callbacks
// Receive an asynchronous provider notification
func (api *PaymentAPI) GatewayCallback(c *gin.Context) {
	var payload gatewayCallbackPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		apierrors.Respond(c, apierrors.ErrBadRequest.WithDetail(err.Error()))
		return
	}
	sub, ok := parseSubStatus(payload.Status)
	if !ok {
		apierrors.Respond(c, apierrors.ErrBadRequest.WithDetail("unrecognized callback status "+payload.Status))
		return
	}
	result := paymentsports.GatewayResult{
		Accepted:      true,
		ProviderRef:   payload.TransactionReference,
		SubStatus:     sub,
		TransactionID: payload.TransactionID,
		Message:       payload.Message,
	}
	payment, err := api.coordinator.RecordGatewayCallback(c.Request.Context(), payload.TransactionReference, result)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, toPaymentView(payment))
}

func parseSubStatus(raw string) (paymentsports.SubStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "completed", "success", "successful":
		return paymentsports.SubStatusCompleted, true
	case "failed", "failure", "declined":
		return paymentsports.SubStatusFailed, true
	case "pending", "processing":
		return paymentsports.SubStatusPending, true
	}
	return "", false
}

func authorizePaymentRead(act actor.Actor, payment *paymentsdomain.Payment) (apierrors.ProblemDetail, bool) {
	if act.IsAdmin() || payment.CustomerID == act.ID {
		return apierrors.ProblemDetail{}, true
	}
	if payment.WorkerID != nil && *payment.WorkerID == act.ID {
		return apierrors.ProblemDetail{}, true
	}
	return apierrors.ErrForbidden.WithDetail("payment belongs to another customer"), false
}
