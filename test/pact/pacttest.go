//go:build pact
// +build pact

package pacttest

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

const (
	ProviderName = "order-api"
	ConsumerName = "customer-app"

	StateOrdersBaseline = "orders baseline"
	StateOrderExists    = "an order owned by customer pact-customer exists"
	StateOrderMissing   = "no order with the requested id exists"
)

const (
	// ExistingOrderID is seeded by the provider state handlers.
	ExistingOrderID = "7e57ab1e-0000-4000-8000-0000000c0ffe"
	MissingOrderID  = "00000000-0000-4000-8000-000000000404"

	CustomerID = "pact-customer"
)

// ExamplePlaceOrderPayload provides stable request data for pact interactions.
func ExamplePlaceOrderPayload() map[string]any {
	return map[string]any{
		"items": []map[string]any{
			{"serviceId": "wash-fold", "quantity": 10},
			{"serviceId": "iron-only", "quantity": 1},
		},
		"paymentMethod": "mobile_money",
		"deliveryFee":   "5.00",
		"pickupAddress": "12 Mianzini Rd",
	}
}

// PactDir returns the workspace-level directory for generated pact files.
func PactDir(t testing.TB) string {
	t.Helper()
	dir := filepath.Join(projectRoot(t), "pacts")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create pact dir: %v", err)
	}
	return dir
}

// PactFile returns the canonical pact file path for the customer app consumer.
func PactFile(t testing.TB) string {
	t.Helper()
	return filepath.Join(PactDir(t), ConsumerName+"-"+ProviderName+".json")
}

// LogDir returns the log output directory for pact-go.
func LogDir(t testing.TB) string {
	t.Helper()
	dir := filepath.Join(projectRoot(t), "bin", "pact-logs")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create pact log dir: %v", err)
	}
	return dir
}

// projectRoot walks up from this file to the workspace root.
func projectRoot(t testing.TB) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("cannot determine caller for pact paths")
	}
	return filepath.Clean(filepath.Join(filepath.Dir(file), "..", ".."))
}
