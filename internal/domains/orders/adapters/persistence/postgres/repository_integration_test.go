//go:build integration
// +build integration

// To enable gopls support for this file, add the following to your VSCode settings.json:
// "gopls": {
//   "buildFlags": ["-tags=integration"]
// }

package postgres_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	orderspostgres "github.com/washly/order-api/internal/domains/orders/adapters/persistence/postgres"
	"github.com/washly/order-api/internal/domains/orders/domain"
	"github.com/washly/order-api/internal/domains/orders/ports"
	"github.com/washly/order-api/internal/platform/migrations"
	"github.com/washly/order-api/internal/shared/actor"
)

func setupPostgresContainer(t *testing.T) (*gorm.DB, func()) {
	ctx := context.Background()

	pgContainer, err := tcpostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:15-alpine"),
		tcpostgres.WithDatabase("orders_test"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	err = migrations.Run(db)
	require.NoError(t, err)

	cleanup := func() {
		sqlDB, _ := db.DB()
		if sqlDB != nil {
			sqlDB.Close()
		}
		pgContainer.Terminate(ctx)
	}

	return db, cleanup
}

func newPersistedOrder(t *testing.T, repo *orderspostgres.Repository) *domain.Order {
	t.Helper()
	order, err := domain.NewOrder("customer-1", []domain.LineItem{
		{ServiceID: "wash-fold", Name: "Wash & Fold", Quantity: 10, UnitPrice: decimal.RequireFromString("5.00")},
		{ServiceID: "iron-only", Name: "Ironing", Quantity: 1, UnitPrice: decimal.RequireFromString("5.00")},
	}, decimal.RequireFromString("0.10"), decimal.RequireFromString("5.00"), decimal.Zero)
	require.NoError(t, err)
	order.PickupAddress = "12 Mianzini Rd"

	created, err := repo.Create(context.Background(), order)
	require.NoError(t, err)
	return created
}

func TestPostgresRepository_CreateAndGetByID(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupPostgresContainer(t)
	defer cleanup()

	repo := orderspostgres.NewRepository(db)
	created := newPersistedOrder(t, repo)

	retrieved, err := repo.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, retrieved.Status)
	assert.Equal(t, "customer-1", retrieved.CustomerID)
	assert.Len(t, retrieved.Items, 2)
	assert.True(t, retrieved.Total.Equal(decimal.RequireFromString("65.50")))
	assert.Len(t, retrieved.History, 1)
}

func TestPostgresRepository_List(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupPostgresContainer(t)
	defer cleanup()

	repo := orderspostgres.NewRepository(db)
	ctx := context.Background()

	first := newPersistedOrder(t, repo)
	newPersistedOrder(t, repo)

	admin := actor.Actor{ID: "admin-1", Role: actor.RoleAdmin}
	mutated := first.Clone()
	require.NoError(t, mutated.Transition(domain.StatusConfirmed, admin, ""))
	_, err := repo.UpdateStatus(ctx, mutated, domain.StatusPending)
	require.NoError(t, err)

	all, err := repo.List(ctx, ports.ListFilter{CustomerID: "customer-1"})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	confirmed := domain.StatusConfirmed
	filtered, err := repo.List(ctx, ports.ListFilter{Status: &confirmed})
	require.NoError(t, err)
	assert.Len(t, filtered, 1)
	assert.Equal(t, first.ID, filtered[0].ID)
}

func TestPostgresRepository_UpdateStatusConditionalWrite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupPostgresContainer(t)
	defer cleanup()

	repo := orderspostgres.NewRepository(db)
	ctx := context.Background()
	created := newPersistedOrder(t, repo)
	admin := actor.Actor{ID: "admin-1", Role: actor.RoleAdmin}

	mutated := created.Clone()
	require.NoError(t, mutated.Transition(domain.StatusConfirmed, admin, "paid in cash"))
	updated, err := repo.UpdateStatus(ctx, mutated, domain.StatusPending)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusConfirmed, updated.Status)
	assert.Len(t, updated.History, 2)

	// A second writer still holding the stale status must lose.
	stale := created.Clone()
	require.NoError(t, stale.Transition(domain.StatusCancelled, admin, ""))
	_, err = repo.UpdateStatus(ctx, stale, domain.StatusPending)
	assert.ErrorIs(t, err, ports.ErrStatusConflict)
}

func TestPostgresRepository_ClaimExactlyOneWinner(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupPostgresContainer(t)
	defer cleanup()

	repo := orderspostgres.NewRepository(db)
	ctx := context.Background()
	created := newPersistedOrder(t, repo)

	const workers = 8
	var wg sync.WaitGroup
	var mu sync.Mutex
	var winners []string

	for i := 0; i < workers; i++ {
		wg.Add(1)
		workerID := "worker-" + string(rune('a'+i))
		go func() {
			defer wg.Done()
			if _, err := repo.Claim(ctx, created.ID, workerID); err == nil {
				mu.Lock()
				winners = append(winners, workerID)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	require.Len(t, winners, 1)
	retrieved, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, retrieved.WorkerID)
	assert.Equal(t, winners[0], *retrieved.WorkerID)
	assert.Equal(t, domain.StatusAssigned, retrieved.Status)
}

func TestPostgresRepository_ClaimAssignedOrderRejected(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupPostgresContainer(t)
	defer cleanup()

	repo := orderspostgres.NewRepository(db)
	ctx := context.Background()
	created := newPersistedOrder(t, repo)

	_, err := repo.Claim(ctx, created.ID, "worker-1")
	require.NoError(t, err)

	_, err = repo.Claim(ctx, created.ID, "worker-2")
	assert.ErrorIs(t, err, domain.ErrAlreadyAssigned)
}
