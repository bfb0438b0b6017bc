package server

import (
	"errors"

	"github.com/gin-gonic/gin"

	checkoutapp "github.com/washly/order-api/internal/domains/checkout/application"
	checkoutports "github.com/washly/order-api/internal/domains/checkout/ports"
	ordersapp "github.com/washly/order-api/internal/domains/orders/application"
	ordersdomain "github.com/washly/order-api/internal/domains/orders/domain"
	ordersports "github.com/washly/order-api/internal/domains/orders/ports"
	paymentsapp "github.com/washly/order-api/internal/domains/payments/application"
	paymentsdomain "github.com/washly/order-api/internal/domains/payments/domain"
	paymentsports "github.com/washly/order-api/internal/domains/payments/ports"
	apierrors "github.com/washly/order-api/internal/shared/errors"
)

// responder maps every error the bounded contexts can surface onto an RFC
// 7807 problem. Handlers never pick status codes themselves.
var responder = apierrors.NewChainedResponder("", mapDomainError)

func respondServiceError(c *gin.Context, err error) {
	responder.RespondError(c, err)
}

func mapDomainError(err error) (apierrors.ProblemDetail, bool) {
	switch {
	case errors.Is(err, ordersports.ErrNotFound):
		return apierrors.ErrNotFound.WithDetail("order not found"), true
	case errors.Is(err, paymentsports.ErrNotFound):
		return apierrors.ErrNotFound.WithDetail("payment not found"), true
	case errors.Is(err, checkoutapp.ErrUnknownTransaction):
		return apierrors.ErrUnknownTransaction.WithDetail(err.Error()), true

	case errors.Is(err, ordersdomain.ErrForbidden),
		errors.Is(err, paymentsapp.ErrForbidden):
		return apierrors.ErrForbidden.WithDetail(err.Error()), true

	case errors.Is(err, ordersdomain.ErrAlreadyAssigned):
		return apierrors.ErrAlreadyAssigned.WithDetail(err.Error()), true
	case errors.Is(err, ordersdomain.ErrNotAvailable):
		return apierrors.ErrNotAvailable.WithDetail(err.Error()), true
	case errors.Is(err, ordersdomain.ErrInvalidTransition),
		errors.Is(err, paymentsdomain.ErrInvalidTransition):
		return apierrors.ErrInvalidTransition.WithDetail(err.Error()), true
	case errors.Is(err, paymentsports.ErrDuplicatePayment):
		return apierrors.ErrDuplicatePayment.WithDetail(err.Error()), true
	case errors.Is(err, ordersports.ErrStatusConflict),
		errors.Is(err, paymentsports.ErrStatusConflict):
		return apierrors.ErrConflict.WithDetail(err.Error()), true

	case errors.Is(err, paymentsports.ErrGatewayDeclined):
		return apierrors.ErrPaymentDeclined.WithDetail(err.Error()), true
	case errors.Is(err, paymentsports.ErrGatewayUnavailable):
		return apierrors.ErrBadGateway.WithDetail(err.Error()), true

	case errors.Is(err, paymentsports.ErrInvalidPhoneNumber),
		errors.Is(err, checkoutports.ErrServiceNotFound),
		errors.Is(err, checkoutapp.ErrNotMobileMoney),
		errors.Is(err, ordersapp.ErrInvalidInput),
		errors.Is(err, paymentsapp.ErrInvalidInput),
		errors.Is(err, ordersdomain.ErrInvalidStatus),
		errors.Is(err, paymentsdomain.ErrInvalidStatus),
		errors.Is(err, paymentsdomain.ErrInvalidMethod),
		errors.Is(err, ordersdomain.ErrEmptyCustomer),
		errors.Is(err, ordersdomain.ErrNoItems),
		errors.Is(err, ordersdomain.ErrInvalidQuantity),
		errors.Is(err, ordersdomain.ErrNegativePrice),
		errors.Is(err, ordersdomain.ErrNegativeAdjust):
		return apierrors.ErrValidation.WithDetail(err.Error()), true
	}
	return apierrors.ProblemDetail{}, false
}
