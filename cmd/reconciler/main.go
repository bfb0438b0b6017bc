package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	appapi "github.com/washly/order-api/internal/app/api"
	checkoutmemory "github.com/washly/order-api/internal/domains/checkout/adapters/memory"
	checkoutnotify "github.com/washly/order-api/internal/domains/checkout/adapters/notify"
	checkoutapp "github.com/washly/order-api/internal/domains/checkout/application"
	orderspostgres "github.com/washly/order-api/internal/domains/orders/adapters/persistence/postgres"
	ordersapp "github.com/washly/order-api/internal/domains/orders/application"
	paymentspostgres "github.com/washly/order-api/internal/domains/payments/adapters/persistence/postgres"
	paymentsapp "github.com/washly/order-api/internal/domains/payments/application"
	platformpostgres "github.com/washly/order-api/internal/platform/postgres"
)

// Sweeps payments stuck in processing and polls the gateway for their
// outcome. Intended to run on a schedule, e.g. a Kubernetes CronJob.
func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	cfg, err := appapi.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	db, cleanup := platformpostgres.ConnectFromEnv(ctx, logger)
	defer cleanup()
	if db == nil {
		log.Fatal("POSTGRES_DSN not set or connection failed; cannot reconcile payments")
	}

	orderService := ordersapp.NewService(orderspostgres.NewRepository(db))
	paymentService := paymentsapp.NewService(paymentspostgres.NewRepository(db))
	coordinator := checkoutapp.NewCoordinator(
		orderService,
		paymentService,
		appapi.BuildGateway(cfg, logger),
		checkoutmemory.DefaultCatalog(),
		cfg.TaxRate,
		checkoutapp.WithNotifier(checkoutnotify.NewLogNotifier(logger)),
		checkoutapp.WithLogger(logger),
	)

	count, err := coordinator.ReconcileProcessing(ctx, cfg.ReconcileAfter)
	if err != nil {
		log.Fatalf("failed to reconcile payments: %v", err)
	}
	log.Printf("payment reconciliation completed, %d payment(s) updated", count)
}
