package application

import (
	"errors"
	"fmt"

	ordersdomain "github.com/washly/order-api/internal/domains/orders/domain"
)

var (
	// ErrUnknownTransaction marks a gateway reference with no matching payment.
	ErrUnknownTransaction = errors.New("unknown gateway transaction")
	// ErrNotMobileMoney marks a mobile-money operation on a payment that uses
	// a different method.
	ErrNotMobileMoney = errors.New("payment is not mobile money")
)

func mapOrderError(err error) error {
	switch {
	case errors.Is(err, ordersdomain.ErrEmptyCustomer),
		errors.Is(err, ordersdomain.ErrNoItems),
		errors.Is(err, ordersdomain.ErrInvalidQuantity),
		errors.Is(err, ordersdomain.ErrNegativePrice),
		errors.Is(err, ordersdomain.ErrNegativeAdjust):
		return fmt.Errorf("invalid order: %w", err)
	default:
		return err
	}
}
