// Package mobilemoney talks to the external mobile-money collection gateway.
// It normalizes every outcome into a small result type and never decides what
// the payment ledger should do with it.
package mobilemoney

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/washly/order-api/internal/domains/payments/ports"
)

// DefaultTimeout bounds every gateway call so a hung provider produces a
// definite failed result instead of an indefinitely processing payment.
const DefaultTimeout = 5 * time.Second

// Config carries the gateway credentials and endpoint, passed in at
// construction instead of read from process-wide state.
type Config struct {
	BaseURL   string
	APIKey    string
	AccountID string
	Timeout   time.Duration
}

// Client implements the payments gateway port over the provider's HTTP API.
type Client struct {
	cfg  Config
	http *http.Client
}

var _ ports.Gateway = (*Client)(nil)

// NewClient instantiates the gateway client with sane defaults.
func NewClient(cfg Config, httpClient *http.Client) (*Client, error) {
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		return nil, errors.New("gateway base URL is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{cfg: cfg, http: httpClient}, nil
}

type initiatePayload struct {
	AccountID    string          `json:"accountId"`
	Amount       decimal.Decimal `json:"amount"`
	PhoneNumber  string          `json:"phoneNumber"`
	CustomerName string          `json:"customerName,omitempty"`
	ExternalRef  string          `json:"externalRef"`
}

type collectionResponse struct {
	Reference     string `json:"reference"`
	Status        string `json:"status"`
	TransactionID string `json:"transactionId"`
	Message       string `json:"message"`
}

// Initiate asks the provider to collect the amount from the customer's phone.
// Transport failures and timeouts return a definite failed result plus
// ErrGatewayUnavailable; provider rejections return ErrGatewayDeclined.
func (c *Client) Initiate(ctx context.Context, req ports.InitiateRequest) (ports.GatewayResult, error) {
	phone, err := ports.NormalizePhone(req.PhoneNumber)
	if err != nil {
		return failedResult("invalid phone number"), err
	}
	payload := initiatePayload{
		AccountID:    c.cfg.AccountID,
		Amount:       req.Amount,
		PhoneNumber:  phone,
		CustomerName: req.CustomerName,
		ExternalRef:  req.OrderRef,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return failedResult("failed to process"), err
	}
	return c.call(ctx, http.MethodPost, "/v1/collections", bytes.NewReader(body))
}

// CheckStatus polls the provider for the current state of a collection.
// Safe to call repeatedly; it performs a read on the provider side.
func (c *Client) CheckStatus(ctx context.Context, providerRef string) (ports.GatewayResult, error) {
	providerRef = strings.TrimSpace(providerRef)
	if providerRef == "" {
		return failedResult("missing provider reference"), errors.New("provider reference is required")
	}
	return c.call(ctx, http.MethodGet, "/v1/collections/"+url.PathEscape(providerRef), nil)
}

func (c *Client) call(ctx context.Context, method, path string, body *bytes.Reader) (ports.GatewayResult, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		reader = body
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, reader)
	if err != nil {
		return failedResult("failed to process"), err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return failedResult("failed to process"), fmt.Errorf("%w: %w", ports.ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	var parsed collectionResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil && resp.StatusCode < http.StatusBadRequest {
		return failedResult("failed to process"), fmt.Errorf("%w: decode response: %w", ports.ErrGatewayUnavailable, err)
	}

	switch {
	case resp.StatusCode >= http.StatusInternalServerError:
		return failedResult(messageOr(parsed.Message, "failed to process")),
			fmt.Errorf("%w: provider returned %s", ports.ErrGatewayUnavailable, resp.Status)
	case resp.StatusCode >= http.StatusBadRequest:
		return failedResult(messageOr(parsed.Message, "request declined")),
			fmt.Errorf("%w: provider returned %s", ports.ErrGatewayDeclined, resp.Status)
	}

	return ports.GatewayResult{
		Accepted:      true,
		ProviderRef:   parsed.Reference,
		SubStatus:     normalizeSubStatus(parsed.Status),
		TransactionID: parsed.TransactionID,
		Message:       parsed.Message,
	}, nil
}

func normalizeSubStatus(raw string) ports.SubStatus {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "completed", "success", "succeeded":
		return ports.SubStatusCompleted
	case "failed", "declined", "rejected":
		return ports.SubStatusFailed
	default:
		return ports.SubStatusPending
	}
}

func failedResult(message string) ports.GatewayResult {
	return ports.GatewayResult{Accepted: false, SubStatus: ports.SubStatusFailed, Message: message}
}

func messageOr(message, fallback string) string {
	if strings.TrimSpace(message) != "" {
		return message
	}
	return fallback
}
