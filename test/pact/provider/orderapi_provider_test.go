//go:build pact
// +build pact

package provider_test

import (
	"context"
	"errors"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	pacttest "github.com/washly/order-api/test/pact"

	checkoutmemory "github.com/washly/order-api/internal/domains/checkout/adapters/memory"
	checkoutapp "github.com/washly/order-api/internal/domains/checkout/application"
	ordersmemory "github.com/washly/order-api/internal/domains/orders/adapters/memory"
	ordersapp "github.com/washly/order-api/internal/domains/orders/application"
	ordersdomain "github.com/washly/order-api/internal/domains/orders/domain"
	paymentsmemory "github.com/washly/order-api/internal/domains/payments/adapters/memory"
	paymentsapp "github.com/washly/order-api/internal/domains/payments/application"
	paymentsports "github.com/washly/order-api/internal/domains/payments/ports"
	"github.com/washly/order-api/internal/server"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pact-foundation/pact-go/v2/models"
	pactprovider "github.com/pact-foundation/pact-go/v2/provider"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestOrderAPIProviderPact(t *testing.T) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	app := newContractProviderApp(t)
	pactFile := filepath.ToSlash(pacttest.PactFile(t))
	if _, err := os.Stat(pactFile); errors.Is(err, os.ErrNotExist) {
		t.Fatalf("pact file not found at %s - run the pact consumer tests first", pactFile)
	} else {
		require.NoError(t, err)
	}

	verifier := pactprovider.NewVerifier()
	stateHandlers := models.StateHandlers{
		pacttest.StateOrdersBaseline: func(setup bool, _ models.ProviderState) (models.ProviderStateResponse, error) {
			return nil, nil
		},
		pacttest.StateOrderExists: func(setup bool, _ models.ProviderState) (models.ProviderStateResponse, error) {
			if setup {
				app.seedOrder(t)
			}
			return nil, nil
		},
		pacttest.StateOrderMissing: func(setup bool, _ models.ProviderState) (models.ProviderStateResponse, error) {
			return nil, nil
		},
	}

	err := verifier.VerifyProvider(t, pactprovider.VerifyRequest{
		ProviderBaseURL: app.server.URL,
		Provider:        pacttest.ProviderName,
		PactFiles:       []string{pactFile},
		StateHandlers:   stateHandlers,
	})
	require.NoError(t, err)
}

type stubGateway struct{}

func (stubGateway) Initiate(context.Context, paymentsports.InitiateRequest) (paymentsports.GatewayResult, error) {
	return paymentsports.GatewayResult{Accepted: true, SubStatus: paymentsports.SubStatusPending}, nil
}

func (stubGateway) CheckStatus(context.Context, string) (paymentsports.GatewayResult, error) {
	return paymentsports.GatewayResult{Accepted: true, SubStatus: paymentsports.SubStatusPending}, nil
}

type contractProviderApp struct {
	repo   *ordersmemory.Repository
	server *httptest.Server
}

func newContractProviderApp(t testing.TB) *contractProviderApp {
	t.Helper()

	orderRepo := ordersmemory.NewRepository()
	orders := ordersapp.NewService(orderRepo)
	payments := paymentsapp.NewService(paymentsmemory.NewRepository())
	catalog := checkoutmemory.DefaultCatalog()
	coordinator := checkoutapp.NewCoordinator(orders, payments, stubGateway{}, catalog,
		decimal.RequireFromString("0.10"),
		checkoutapp.WithDedup(checkoutmemory.NewDedup(time.Hour)))

	handlers := server.APIHandlers{
		Orders:   server.NewOrderAPI(orders, coordinator, nil),
		Payments: server.NewPaymentAPI(payments, coordinator),
	}
	router := server.NewRouter(handlers)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return &contractProviderApp{
		repo:   orderRepo,
		server: srv,
	}
}

// seedOrder installs the order the contract's "order exists" state refers to.
// Creating with a fixed ID is idempotent in the memory repository.
func (a *contractProviderApp) seedOrder(t testing.TB) {
	t.Helper()
	order, err := ordersdomain.NewOrder(pacttest.CustomerID, []ordersdomain.LineItem{
		{ServiceID: "wash-fold", Name: "Wash & Fold", Quantity: 10, UnitPrice: decimal.RequireFromString("5.00")},
		{ServiceID: "iron-only", Name: "Ironing", Quantity: 1, UnitPrice: decimal.RequireFromString("5.00")},
	}, decimal.RequireFromString("0.10"), decimal.RequireFromString("5.00"), decimal.Zero)
	require.NoError(t, err)
	order.ID = uuid.MustParse(pacttest.ExistingOrderID)

	_, err = a.repo.Create(context.Background(), order)
	require.NoError(t, err)
}
