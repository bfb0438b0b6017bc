package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/client"
	temporalotel "go.temporal.io/sdk/contrib/opentelemetry"
	workerlog "go.temporal.io/sdk/log"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"

	appapi "github.com/washly/order-api/internal/app/api"
	checkoutmemory "github.com/washly/order-api/internal/domains/checkout/adapters/memory"
	checkoutnotify "github.com/washly/order-api/internal/domains/checkout/adapters/notify"
	checkoutapp "github.com/washly/order-api/internal/domains/checkout/application"
	ordersmemory "github.com/washly/order-api/internal/domains/orders/adapters/memory"
	orderspostgres "github.com/washly/order-api/internal/domains/orders/adapters/persistence/postgres"
	ordersapp "github.com/washly/order-api/internal/domains/orders/application"
	ordersports "github.com/washly/order-api/internal/domains/orders/ports"
	paymentsmemory "github.com/washly/order-api/internal/domains/payments/adapters/memory"
	paymentspostgres "github.com/washly/order-api/internal/domains/payments/adapters/persistence/postgres"
	paymentsapp "github.com/washly/order-api/internal/domains/payments/application"
	paymentsports "github.com/washly/order-api/internal/domains/payments/ports"
	checkoutactivities "github.com/washly/order-api/internal/durable/temporal/activities/checkout"
	orderworkflows "github.com/washly/order-api/internal/durable/temporal/workflows/orders"
	platformmigrations "github.com/washly/order-api/internal/platform/migrations"
	platformobservability "github.com/washly/order-api/internal/platform/observability"
	platformpostgres "github.com/washly/order-api/internal/platform/postgres"
)

func main() {
	ctx := context.Background()
	const serviceName = "order-worker"
	instruments, shutdown, err := platformobservability.Init(ctx, serviceName)
	if err != nil {
		log.Fatalf("failed to initialize observability: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			instruments.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	}()
	logger := instruments.Logger

	cfg, err := appapi.LoadConfig()
	if err != nil {
		logger.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	db, cleanupDB := platformpostgres.ConnectFromEnv(ctx, logger)
	defer cleanupDB()
	if db != nil {
		if err := platformmigrations.Run(db); err != nil {
			logger.Error("failed to migrate schema", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	var orderRepo ordersports.Repository = ordersmemory.NewRepository()
	var paymentRepo paymentsports.Repository = paymentsmemory.NewRepository()
	if db != nil {
		orderRepo = orderspostgres.NewRepository(db)
		paymentRepo = paymentspostgres.NewRepository(db)
	}
	orderService := ordersapp.NewService(orderRepo)
	paymentService := paymentsapp.NewService(paymentRepo)

	gateway := appapi.BuildGateway(cfg, logger)

	coordinator := checkoutapp.NewCoordinator(
		orderService,
		paymentService,
		gateway,
		checkoutmemory.DefaultCatalog(),
		cfg.TaxRate,
		checkoutapp.WithNotifier(checkoutnotify.NewLogNotifier(logger)),
		checkoutapp.WithLogger(logger),
	)
	activities := checkoutactivities.NewActivities(coordinator)

	tracerOptions := temporalotel.TracerOptions{Tracer: instruments.Tracer("temporal-worker")}
	tracingInterceptor, err := temporalotel.NewTracingInterceptor(tracerOptions)
	if err != nil {
		logger.Error("failed to configure Temporal tracing interceptor", slog.String("error", err.Error()))
		os.Exit(1)
	}
	clientOptions := client.Options{
		HostPort:  cfg.TemporalAddress,
		Namespace: cfg.TemporalNamespace,
		Logger:    workerlog.NewStructuredLogger(logger),
	}
	clientOptions.Interceptors = append(clientOptions.Interceptors, tracingInterceptor)
	temporalClient, err := client.Dial(clientOptions)
	if err != nil {
		logger.Error("failed to create Temporal client", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer temporalClient.Close()

	w := worker.New(temporalClient, orderworkflows.OrderPlacementTaskQueue, worker.Options{})
	w.RegisterWorkflowWithOptions(orderworkflows.OrderPlacementWorkflow, workflow.RegisterOptions{Name: orderworkflows.OrderPlacementWorkflowName})
	w.RegisterActivityWithOptions(activities.PlaceOrder, activity.RegisterOptions{Name: checkoutactivities.PlaceOrderActivityName})

	logger.Info("worker listening", slog.String("taskQueue", orderworkflows.OrderPlacementTaskQueue), slog.String("namespace", clientOptions.Namespace))
	if err := w.Run(worker.InterruptCh()); err != nil {
		logger.Error("Temporal worker exited with error", slog.String("error", err.Error()))
		return
	}
	logger.Info("Temporal worker stopped")
}
