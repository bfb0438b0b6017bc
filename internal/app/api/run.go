package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"go.temporal.io/sdk/client"
	temporalotel "go.temporal.io/sdk/contrib/opentelemetry"
	workerlog "go.temporal.io/sdk/log"

	"github.com/washly/order-api/internal/clients/http/mobilemoney"
	checkoutmemory "github.com/washly/order-api/internal/domains/checkout/adapters/memory"
	checkoutnotify "github.com/washly/order-api/internal/domains/checkout/adapters/notify"
	checkoutredis "github.com/washly/order-api/internal/domains/checkout/adapters/redis"
	checkoutworkflows "github.com/washly/order-api/internal/domains/checkout/adapters/workflows"
	checkoutapp "github.com/washly/order-api/internal/domains/checkout/application"
	checkoutports "github.com/washly/order-api/internal/domains/checkout/ports"
	ordersmemory "github.com/washly/order-api/internal/domains/orders/adapters/memory"
	ordersobs "github.com/washly/order-api/internal/domains/orders/adapters/observability"
	orderspostgres "github.com/washly/order-api/internal/domains/orders/adapters/persistence/postgres"
	ordersapp "github.com/washly/order-api/internal/domains/orders/application"
	ordersports "github.com/washly/order-api/internal/domains/orders/ports"
	paymentsmemory "github.com/washly/order-api/internal/domains/payments/adapters/memory"
	paymentspostgres "github.com/washly/order-api/internal/domains/payments/adapters/persistence/postgres"
	paymentsapp "github.com/washly/order-api/internal/domains/payments/application"
	paymentsports "github.com/washly/order-api/internal/domains/payments/ports"
	platformmigrations "github.com/washly/order-api/internal/platform/migrations"
	platformobservability "github.com/washly/order-api/internal/platform/observability"
	platformpostgres "github.com/washly/order-api/internal/platform/postgres"
	platformredis "github.com/washly/order-api/internal/platform/redis"
	"github.com/washly/order-api/internal/server"
)

// Run boots the order HTTP API with observability, repositories, the gateway
// client, and workflows wired.
func Run(ctx context.Context) error {
	const serviceName = "order-api"
	instruments, shutdown, err := platformobservability.Init(ctx, serviceName)
	if err != nil {
		return fmt.Errorf("failed to initialize observability: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			instruments.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	}()
	logger := instruments.Logger

	cfg, err := LoadConfig()
	if err != nil {
		return err
	}

	db, cleanupDB := platformpostgres.ConnectFromEnv(ctx, logger)
	defer cleanupDB()
	if db != nil {
		if err := platformmigrations.Run(db); err != nil {
			return fmt.Errorf("failed to migrate schema: %w", err)
		}
	}

	var orderRepo ordersports.Repository = ordersmemory.NewRepository()
	var paymentRepo paymentsports.Repository = paymentsmemory.NewRepository()
	if db != nil {
		orderRepo = orderspostgres.NewRepository(db)
		paymentRepo = paymentspostgres.NewRepository(db)
		logger.Info("repositories configured with postgres")
	}

	orderService := ordersobs.New(
		ordersapp.NewService(orderRepo),
		ordersobs.WithLogger(logger),
		ordersobs.WithTracer(instruments.Tracer("internal.orders.application")),
		ordersobs.WithMeter(instruments.Meter("internal.orders.application")),
	)
	paymentService := paymentsapp.NewService(paymentRepo)

	gateway := BuildGateway(cfg, logger)

	var dedup checkoutports.Dedup = checkoutmemory.NewDedup(cfg.CallbackDedupTTL)
	redisClient, cleanupRedis := platformredis.ConnectFromEnv(ctx, logger)
	defer cleanupRedis()
	if redisClient != nil {
		dedup = checkoutredis.NewDedup(redisClient, cfg.CallbackDedupTTL)
	}

	coordinator := checkoutapp.NewCoordinator(
		orderService,
		paymentService,
		gateway,
		checkoutmemory.DefaultCatalog(),
		cfg.TaxRate,
		checkoutapp.WithNotifier(checkoutnotify.NewLogNotifier(logger)),
		checkoutapp.WithDedup(dedup),
		checkoutapp.WithLogger(logger),
	)

	var placements checkoutports.PlacementOrchestrator = checkoutworkflows.NewInlinePlacement(coordinator)
	if temporalClient, err := connectTemporalClient(cfg, instruments); err != nil {
		logger.Warn("Temporal workflows unavailable, running inline placement", slog.String("error", err.Error()))
	} else {
		defer temporalClient.Close()
		placements = checkoutworkflows.NewTemporalPlacement(temporalClient)
		logger.Info("Temporal workflows enabled", slog.String("namespace", cfg.TemporalNamespace))
	}

	if cfg.ReconcileInterval > 0 {
		go reconcileLoop(ctx, coordinator, cfg, logger)
	}

	handlers := server.APIHandlers{
		Orders:   server.NewOrderAPI(orderService, coordinator, placements),
		Payments: server.NewPaymentAPI(paymentService, coordinator),
	}
	router := server.NewRouter(handlers, server.WithTracing(serviceName))
	addr := ":" + cfg.Port
	logger.Info("order API listening", slog.String("addr", addr))
	if err := router.Run(addr); err != nil {
		logger.Error("order API server exited", slog.String("addr", addr), slog.String("error", err.Error()))
		return err
	}
	return nil
}

// BuildGateway constructs the mobile-money gateway client, degrading to a
// stub that reports unavailable when credentials are missing. Shared with
// the Temporal worker so both processes wire the gateway the same way.
func BuildGateway(cfg Config, logger *slog.Logger) paymentsports.Gateway {
	if cfg.GatewayBaseURL == "" {
		logger.Warn("GATEWAY_BASE_URL not set, mobile money collections disabled")
		return unconfiguredGateway{}
	}
	gateway, err := mobilemoney.NewClient(mobilemoney.Config{
		BaseURL:   cfg.GatewayBaseURL,
		APIKey:    cfg.GatewayAPIKey,
		AccountID: cfg.GatewayAccountID,
		Timeout:   cfg.GatewayTimeout,
	}, http.DefaultClient)
	if err != nil {
		logger.Warn("gateway client misconfigured, mobile money collections disabled", slog.String("error", err.Error()))
		return unconfiguredGateway{}
	}
	return gateway
}

// unconfiguredGateway reports every call as unavailable so the rest of the
// API keeps working without provider credentials.
type unconfiguredGateway struct{}

func (unconfiguredGateway) Initiate(context.Context, paymentsports.InitiateRequest) (paymentsports.GatewayResult, error) {
	return paymentsports.GatewayResult{SubStatus: paymentsports.SubStatusFailed, Message: "gateway not configured"},
		fmt.Errorf("%w: gateway not configured", paymentsports.ErrGatewayUnavailable)
}

func (unconfiguredGateway) CheckStatus(context.Context, string) (paymentsports.GatewayResult, error) {
	return paymentsports.GatewayResult{SubStatus: paymentsports.SubStatusPending, Message: "gateway not configured"},
		fmt.Errorf("%w: gateway not configured", paymentsports.ErrGatewayUnavailable)
}

func reconcileLoop(ctx context.Context, coordinator checkoutports.Service, cfg Config, logger *slog.Logger) {
	ticker := time.NewTicker(cfg.ReconcileInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			count, err := coordinator.ReconcileProcessing(ctx, cfg.ReconcileAfter)
			if err != nil {
				logger.Error("payment reconciliation failed", slog.String("error", err.Error()))
				continue
			}
			if count > 0 {
				logger.Info("payment reconciliation completed", slog.Int("reconciled", count))
			}
		}
	}
}

func connectTemporalClient(cfg Config, instruments *platformobservability.Instruments) (client.Client, error) {
	if cfg.TemporalDisabled {
		return nil, errors.New("temporal disabled via TEMPORAL_DISABLED env")
	}
	tracerOptions := temporalotel.TracerOptions{}
	if instruments != nil {
		tracerOptions.Tracer = instruments.Tracer("temporal-client")
	}
	tracingInterceptor, err := temporalotel.NewTracingInterceptor(tracerOptions)
	if err != nil {
		return nil, err
	}
	options := client.Options{
		HostPort:  cfg.TemporalAddress,
		Namespace: cfg.TemporalNamespace,
		Logger:    workerlog.NewStructuredLogger(instruments.Logger),
	}
	options.Interceptors = append(options.Interceptors, tracingInterceptor)
	return client.Dial(options)
}
