package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	checkoutports "github.com/washly/order-api/internal/domains/checkout/ports"
	ordersdomain "github.com/washly/order-api/internal/domains/orders/domain"
	ordersports "github.com/washly/order-api/internal/domains/orders/ports"
	paymentsdomain "github.com/washly/order-api/internal/domains/payments/domain"
	"github.com/washly/order-api/internal/shared/actor"
	apierrors "github.com/washly/order-api/internal/shared/errors"
)

// OrderAPI wires HTTP transport with the orders service and the checkout
// coordinator.
type OrderAPI struct {
	orders      ordersports.Service
	coordinator checkoutports.Service
	placements  checkoutports.PlacementOrchestrator
}

// NewOrderAPI creates an OrderAPI backed by the provided collaborators.
func NewOrderAPI(orders ordersports.Service, coordinator checkoutports.Service, placements checkoutports.PlacementOrchestrator) OrderAPI {
	return OrderAPI{orders: orders, coordinator: coordinator, placements: placements}
}

// Post /v1/orders
// Place a new order with its payment record
func (api *OrderAPI) PlaceOrder(c *gin.Context) {
	var payload placeOrderPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		apierrors.Respond(c, apierrors.ErrBadRequest.WithDetail(err.Error()))
		return
	}
	method, err := paymentsdomain.ParseMethod(payload.PaymentMethod)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	act := actorFrom(c)
	input := checkoutports.PlaceOrderInput{
		CustomerID:      act.ID,
		Method:          method,
		DeliveryFee:     payload.DeliveryFee,
		Discount:        payload.Discount,
		PickupAddress:   payload.PickupAddress,
		DeliveryAddress: payload.DeliveryAddress,
		PickupDate:      payload.PickupDate,
		DeliveryDate:    payload.DeliveryDate,
		Notes:           payload.Notes,
	}
	for _, item := range payload.Items {
		input.Items = append(input.Items, checkoutports.LineItemInput{
			ServiceID: item.ServiceID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}
	placement, err := api.place(c, input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toPlacementView(placement))
}

func (api *OrderAPI) place(c *gin.Context, input checkoutports.PlaceOrderInput) (*checkoutports.Placement, error) {
	if api.placements != nil {
		return api.placements.PlaceOrder(c.Request.Context(), input)
	}
	return api.coordinator.PlaceOrder(c.Request.Context(), input)
}

// Get /v1/orders/:orderId
// Fetch one order
func (api *OrderAPI) GetOrder(c *gin.Context) {
	id, ok := parseUUIDParam(c, "orderId")
	if !ok {
		return
	}
	order, err := api.orders.GetByID(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if problem, ok := authorizeOrderRead(actorFrom(c), order); !ok {
		apierrors.Respond(c, problem)
		return
	}
	c.JSON(http.StatusOK, toOrderView(order))
}

// Get /v1/orders
// List orders visible to the caller
func (api *OrderAPI) ListOrders(c *gin.Context) {
	filter := ordersports.ListFilter{}
	if raw := c.Query("status"); raw != "" {
		status, err := ordersdomain.ParseStatus(raw)
		if err != nil {
			respondServiceError(c, err)
			return
		}
		filter.Status = &status
	}
	act := actorFrom(c)
	switch act.Role {
	case actor.RoleCustomer:
		filter.CustomerID = act.ID
	case actor.RoleWorker:
		filter.WorkerID = act.ID
	default:
		filter.CustomerID = c.Query("customerId")
		filter.WorkerID = c.Query("workerId")
	}
	orders, err := api.orders.List(c.Request.Context(), filter)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderViewList(orders))
}

// Patch /v1/orders/:orderId/status
// Drive one declared status transition
func (api *OrderAPI) UpdateOrderStatus(c *gin.Context) {
	id, ok := parseUUIDParam(c, "orderId")
	if !ok {
		return
	}
	var payload statusChangePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		apierrors.Respond(c, apierrors.ErrBadRequest.WithDetail(err.Error()))
		return
	}
	target, err := ordersdomain.ParseStatus(payload.Status)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	act := actorFrom(c)
	var order *ordersdomain.Order
	if target == ordersdomain.StatusCancelled {
		// Cancellation cascades to the payment, so it routes through the
		// coordinator rather than the orders service alone.
		order, err = api.coordinator.CancelOrder(c.Request.Context(), id, act, payload.Note)
	} else {
		order, err = api.orders.Transition(c.Request.Context(), id, act, target, payload.Note)
	}
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderView(order))
}

// Post /v1/orders/:orderId/assign
// Worker claims an unassigned order
func (api *OrderAPI) AssignOrder(c *gin.Context) {
	id, ok := parseUUIDParam(c, "orderId")
	if !ok {
		return
	}
	act := actorFrom(c)
	if act.Role != actor.RoleWorker {
		apierrors.Respond(c, apierrors.ErrForbidden.WithDetail("only service providers may claim orders"))
		return
	}
	order, err := api.orders.AssignSelf(c.Request.Context(), id, act.ID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderView(order))
}

func authorizeOrderRead(act actor.Actor, order *ordersdomain.Order) (apierrors.ProblemDetail, bool) {
	if act.IsAdmin() || order.CustomerID == act.ID {
		return apierrors.ProblemDetail{}, true
	}
	if order.WorkerID != nil && *order.WorkerID == act.ID {
		return apierrors.ProblemDetail{}, true
	}
	if act.Role == actor.RoleWorker && order.Status.Claimable() {
		// Unassigned claimable orders are visible to workers browsing for jobs.
		return apierrors.ProblemDetail{}, true
	}
	return apierrors.ErrForbidden.WithDetail("order belongs to another customer"), false
}

func parseUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		apierrors.Respond(c, apierrors.ErrBadRequest.WithDetail(name+" must be a UUID"))
		return uuid.Nil, false
	}
	return id, true
}
