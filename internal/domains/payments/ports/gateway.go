package ports

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	// ErrGatewayUnavailable marks timeouts and transport failures talking to
	// the provider, where the outcome is unknown on their side.
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
	// ErrGatewayDeclined marks a definite provider-side rejection.
	ErrGatewayDeclined = errors.New("payment gateway declined the request")
	// ErrInvalidPhoneNumber rejects phone numbers the gateway client cannot
	// normalize to the single international form.
	ErrInvalidPhoneNumber = errors.New("phone number is not valid for mobile money")
)

// SubStatus is the provider-reported state of a collection request.
type SubStatus string

const (
	SubStatusPending   SubStatus = "pending"
	SubStatusCompleted SubStatus = "completed"
	SubStatusFailed    SubStatus = "failed"
)

// GatewayResult is the normalized outcome of any gateway interaction. The
// client classifies; the ledger decides what to do with it.
type GatewayResult struct {
	Accepted      bool
	ProviderRef   string
	SubStatus     SubStatus
	TransactionID string
	Message       string
}

// InitiateRequest starts a mobile-money collection against a customer phone.
type InitiateRequest struct {
	Amount       decimal.Decimal
	PhoneNumber  string
	CustomerName string
	OrderRef     string
}

// Gateway talks to the external mobile-money provider.
type Gateway interface {
	Initiate(ctx context.Context, req InitiateRequest) (GatewayResult, error)
	CheckStatus(ctx context.Context, providerRef string) (GatewayResult, error)
}

// NormalizePhone converts a local or international mobile number into the
// single canonical form the provider accepts (2557XXXXXXXX). Callers reject
// anything else before any payment state changes.
func NormalizePhone(raw string) (string, error) {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, strings.TrimPrefix(strings.TrimSpace(raw), "+"))

	switch {
	case len(digits) == 10 && strings.HasPrefix(digits, "0"):
		digits = "255" + digits[1:]
	case len(digits) == 12 && strings.HasPrefix(digits, "255"):
		// already international
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidPhoneNumber, raw)
	}
	if digits[3] != '6' && digits[3] != '7' {
		return "", fmt.Errorf("%w: %q", ErrInvalidPhoneNumber, raw)
	}
	return digits, nil
}
