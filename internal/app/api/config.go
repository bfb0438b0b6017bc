package api

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.temporal.io/sdk/client"
)

// DefaultTaxRate applies when TAX_RATE is unset.
const DefaultTaxRate = "0.10"

// Config carries environment-driven settings for the API process.
type Config struct {
	Port        string
	PostgresDSN string
	RedisAddr   string

	TaxRate decimal.Decimal

	GatewayBaseURL   string
	GatewayAPIKey    string
	GatewayAccountID string
	GatewayTimeout   time.Duration

	TemporalAddress   string
	TemporalNamespace string
	TemporalDisabled  bool

	CallbackDedupTTL  time.Duration
	ReconcileInterval time.Duration
	ReconcileAfter    time.Duration
}

// LoadConfig reads environment variables, applies defaults, and validates
// basic constraints.
func LoadConfig() (Config, error) {
	cfg := Config{
		Port:              envDefault("PORT", "8080"),
		PostgresDSN:       strings.TrimSpace(os.Getenv("POSTGRES_DSN")),
		RedisAddr:         strings.TrimSpace(os.Getenv("REDIS_ADDR")),
		GatewayBaseURL:    strings.TrimSpace(os.Getenv("GATEWAY_BASE_URL")),
		GatewayAPIKey:     strings.TrimSpace(os.Getenv("GATEWAY_API_KEY")),
		GatewayAccountID:  strings.TrimSpace(os.Getenv("GATEWAY_ACCOUNT_ID")),
		TemporalAddress:   envDefault("TEMPORAL_ADDRESS", client.DefaultHostPort),
		TemporalNamespace: envDefault("TEMPORAL_NAMESPACE", client.DefaultNamespace),
		TemporalDisabled:  isTruthy(os.Getenv("TEMPORAL_DISABLED")),
		CallbackDedupTTL:  48 * time.Hour,
		ReconcileAfter:    10 * time.Minute,
	}

	rate, err := decimal.NewFromString(envDefault("TAX_RATE", DefaultTaxRate))
	if err != nil || rate.IsNegative() {
		return Config{}, fmt.Errorf("TAX_RATE must be a non-negative decimal")
	}
	cfg.TaxRate = rate

	if raw := strings.TrimSpace(os.Getenv("GATEWAY_TIMEOUT_SECONDS")); raw != "" {
		seconds, err := strconv.Atoi(raw)
		if err != nil || seconds <= 0 {
			return Config{}, fmt.Errorf("GATEWAY_TIMEOUT_SECONDS must be a positive integer")
		}
		cfg.GatewayTimeout = time.Duration(seconds) * time.Second
	}
	if raw := strings.TrimSpace(os.Getenv("RECONCILE_INTERVAL_MINUTES")); raw != "" {
		minutes, err := strconv.Atoi(raw)
		if err != nil || minutes <= 0 {
			return Config{}, fmt.Errorf("RECONCILE_INTERVAL_MINUTES must be a positive integer")
		}
		cfg.ReconcileInterval = time.Duration(minutes) * time.Minute
	}
	if raw := strings.TrimSpace(os.Getenv("RECONCILE_AFTER_MINUTES")); raw != "" {
		minutes, err := strconv.Atoi(raw)
		if err != nil || minutes <= 0 {
			return Config{}, fmt.Errorf("RECONCILE_AFTER_MINUTES must be a positive integer")
		}
		cfg.ReconcileAfter = time.Duration(minutes) * time.Minute
	}
	return cfg, nil
}

func envDefault(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

func isTruthy(value string) bool {
	value = strings.TrimSpace(strings.ToLower(value))
	return value == "1" || value == "true" || value == "yes"
}
