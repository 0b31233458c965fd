package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	catalogDomain "github.com/xl-c111/Flora-sub001/internal/catalog/domain"
	catalogPersistence "github.com/xl-c111/Flora-sub001/internal/catalog/infrastructure/persistence"
	identityPersistence "github.com/xl-c111/Flora-sub001/internal/identity/infrastructure/persistence"
	orderingPersistence "github.com/xl-c111/Flora-sub001/internal/ordering/infrastructure/persistence"
	"github.com/xl-c111/Flora-sub001/internal/shared/infrastructure/database"
	"github.com/xl-c111/Flora-sub001/internal/shared/infrastructure/database/dbtest"
	"github.com/xl-c111/Flora-sub001/internal/shared/infrastructure/outbox"
	"github.com/xl-c111/Flora-sub001/internal/subscriptions/application/services"
	"github.com/xl-c111/Flora-sub001/internal/subscriptions/domain"
	subPersistence "github.com/xl-c111/Flora-sub001/internal/subscriptions/infrastructure/persistence"
	"github.com/xl-c111/Flora-sub001/pkg/observability"
)

type sqliteWorld struct {
	conn     database.Connection
	repo     domain.Repository
	products catalogDomain.ProductRepository
	orders   *orderingPersistence.OrderStore
	scanner  *services.DueDeliveryScanner
}

func newSQLiteWorld(t *testing.T, f *fixture, roseStock, fernStock int) *sqliteWorld {
	t.Helper()
	ctx := context.Background()
	conn := dbtest.SQLite(t)

	w := &sqliteWorld{
		conn:     conn,
		repo:     subPersistence.NewSubscriptionRepository(conn),
		products: catalogPersistence.NewProductRepository(conn),
		orders:   orderingPersistence.NewOrderStore(conn, f.clock),
	}
	require.NoError(t, identityPersistence.NewUserDirectory(conn, f.clock).EnsureExists(ctx, f.owner))
	for _, p := range []*catalogDomain.Product{
		{ID: f.rose, Name: "Rose", PriceCents: f.prices[f.rose], Stock: roseStock, CreatedAt: f.baseTime},
		{ID: f.fern, Name: "Fern", PriceCents: f.prices[f.fern], Stock: fernStock, CreatedAt: f.baseTime},
	} {
		require.NoError(t, w.products.Save(ctx, p))
	}

	outboxRepo := outbox.NewRepository(conn)
	uow := database.NewUnitOfWork(conn)
	engine := services.NewOrderDerivationEngine(services.EngineDeps{
		Repo:    w.repo,
		Outbox:  outboxRepo,
		UoW:     uow,
		Orders:  w.orders,
		Prices:  w.products,
		Pricing: f.pricing,
		Clock:   f.clock,
		Metrics: observability.NewInMemoryMetrics(),
	})
	w.scanner = services.NewDueDeliveryScanner(w.repo, outboxRepo, uow, engine, f.policy,
		services.DefaultScannerConfig(), nil, nil)
	return w
}

func (w *sqliteWorld) stock(t *testing.T) map[string]int {
	t.Helper()
	products, err := w.products.List(context.Background())
	require.NoError(t, err)
	out := map[string]int{}
	for _, p := range products {
		out[p.Name] = p.Stock
	}
	return out
}

func TestScan_SQLite_DeliversAndReservesStock(t *testing.T) {
	ctx := context.Background()
	today := at(2024, 3, 8)
	f := newFixture(t, today)
	w := newSQLiteWorld(t, f, 10, 10)

	next := at(2024, 3, 8)
	sub := f.subscription(t, domain.TypeRecurringWeekly, domain.StatusActive, &next)
	require.NoError(t, w.repo.Save(ctx, sub))

	report, err := w.scanner.ProcessDueDeliveries(ctx, today)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Delivered)
	assert.Equal(t, 1, report.Rescheduled)

	stored, err := w.repo.FindByID(ctx, sub.ID())
	require.NoError(t, err)
	require.NotNil(t, stored.LastDeliveryDate())
	assert.True(t, today.Equal(*stored.LastDeliveryDate()))
	assert.True(t, at(2024, 3, 15).Equal(*stored.NextDeliveryDate()))
	assert.Equal(t, map[string]int{"Rose": 8, "Fern": 9}, w.stock(t))

	orders, err := w.orders.ListBySubscription(ctx, sub.ID())
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, int64(2*1250+800), orders[0].Subtotal())
}

func TestScan_SQLite_OutOfStockStillReschedules(t *testing.T) {
	ctx := context.Background()
	today := at(2024, 3, 8)
	f := newFixture(t, today)
	w := newSQLiteWorld(t, f, 0, 10)

	next := at(2024, 3, 8)
	sub := f.subscription(t, domain.TypeRecurringWeekly, domain.StatusActive, &next)
	require.NoError(t, w.repo.Save(ctx, sub))

	report, err := w.scanner.ProcessDueDeliveries(ctx, today)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 1, report.Rescheduled)

	stored, err := w.repo.FindByID(ctx, sub.ID())
	require.NoError(t, err)
	assert.Nil(t, stored.LastDeliveryDate())
	assert.True(t, at(2024, 3, 15).Equal(*stored.NextDeliveryDate()))
	assert.Equal(t, map[string]int{"Rose": 0, "Fern": 10}, w.stock(t), "no partial reservation")

	orders, err := w.orders.ListBySubscription(ctx, sub.ID())
	require.NoError(t, err)
	assert.Empty(t, orders)

	pending, err := outbox.NewRepository(w.conn).GetUnpublished(ctx, today, 10)
	require.NoError(t, err)
	var keys []string
	for _, m := range pending {
		keys = append(keys, m.RoutingKey)
	}
	assert.ElementsMatch(t, []string{domain.RoutingKeyDeliveryFailed, domain.RoutingKeyRescheduled}, keys)
}
