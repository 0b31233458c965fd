package commands

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	catalogDomain "github.com/xl-c111/Flora-sub001/internal/catalog/domain"
	catalogPersistence "github.com/xl-c111/Flora-sub001/internal/catalog/infrastructure/persistence"
	identityPersistence "github.com/xl-c111/Flora-sub001/internal/identity/infrastructure/persistence"
	orderingDomain "github.com/xl-c111/Flora-sub001/internal/ordering/domain"
	orderingPersistence "github.com/xl-c111/Flora-sub001/internal/ordering/infrastructure/persistence"
	sharedDomain "github.com/xl-c111/Flora-sub001/internal/shared/domain"
	"github.com/xl-c111/Flora-sub001/internal/shared/infrastructure/database"
	"github.com/xl-c111/Flora-sub001/internal/shared/infrastructure/database/dbtest"
	"github.com/xl-c111/Flora-sub001/internal/shared/infrastructure/outbox"
	"github.com/xl-c111/Flora-sub001/internal/subscriptions/application/services"
	"github.com/xl-c111/Flora-sub001/internal/subscriptions/domain"
	subPersistence "github.com/xl-c111/Flora-sub001/internal/subscriptions/infrastructure/persistence"
	"github.com/xl-c111/Flora-sub001/pkg/observability"
)

type sqliteCreate struct {
	handler *CreateSubscriptionHandler
	orders  *orderingPersistence.OrderStore
	outbox  outbox.Repository
	product uuid.UUID
}

func newSQLiteCreate(t *testing.T, now time.Time) *sqliteCreate {
	t.Helper()
	conn := dbtest.SQLite(t)
	clock := sharedDomain.NewFixedClock(now)

	products := catalogPersistence.NewProductRepository(conn)
	product, err := catalogDomain.NewProduct("Tulip bunch", 4500, 20, now)
	require.NoError(t, err)
	require.NoError(t, products.Save(context.Background(), product))

	repo := subPersistence.NewSubscriptionRepository(conn)
	outboxRepo := outbox.NewRepository(conn)
	uow := database.NewUnitOfWork(conn)
	orders := orderingPersistence.NewOrderStore(conn, clock)
	policy := domain.NewSchedulePolicy(domain.NewSeededRandom(42))
	engine := services.NewOrderDerivationEngine(services.EngineDeps{
		Repo: repo, Outbox: outboxRepo, UoW: uow, Orders: orders, Prices: products, Clock: clock,
	})

	return &sqliteCreate{
		handler: NewCreateSubscriptionHandler(repo, outboxRepo, uow,
			identityPersistence.NewUserDirectory(conn, clock), engine, policy, clock, nil, nil),
		orders:  orders,
		outbox:  outboxRepo,
		product: product.ID,
	}
}

func (s *sqliteCreate) command(typ string) CreateSubscriptionCommand {
	return CreateSubscriptionCommand{
		UserID:       uuid.New(),
		Type:         typ,
		Address:      testAddress,
		DeliveryType: "standard",
		Items:        []domain.ItemInput{{ProductID: s.product, Quantity: 2}},
	}
}

func TestCreateSubscription_RecurringMonthlyOnLastOfJanuary(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 31, 9, 0, 0, 0, time.UTC)
	w := newSQLiteCreate(t, now)

	result, err := w.handler.Handle(ctx, w.command("RECURRING_MONTHLY"))
	require.NoError(t, err)
	require.NotNil(t, result.FirstOrder)

	sub := result.Subscription
	assert.Equal(t, domain.StatusActive, sub.Status())
	require.NotNil(t, sub.LastDeliveryDate())
	assert.True(t, now.Equal(*sub.LastDeliveryDate()))
	assert.True(t, time.Date(2024, 2, 29, 9, 0, 0, 0, time.UTC).Equal(*sub.NextDeliveryDate()))

	orders, err := w.orders.ListBySubscription(ctx, sub.ID())
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, int64(2*4500), orders[0].Subtotal())
	assert.Equal(t, int64(899), orders[0].DeliveryFee)

	pending, err := w.outbox.GetUnpublished(ctx, now, 10)
	require.NoError(t, err)
	var keys []string
	for _, m := range pending {
		keys = append(keys, m.RoutingKey)
	}
	assert.Equal(t, []string{domain.RoutingKeyCreated, domain.RoutingKeyDelivered}, keys)
}

func TestCreateSubscription_SpontaneousWeeklyHasNoFirstOrder(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	w := newSQLiteCreate(t, now)

	result, err := w.handler.Handle(ctx, w.command("SPONTANEOUS_WEEKLY"))
	require.NoError(t, err)
	assert.Nil(t, result.FirstOrder)

	next := *result.Subscription.NextDeliveryDate()
	assert.False(t, next.Before(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)), "got %s", next)
	assert.True(t, next.Before(time.Date(2024, 1, 9, 0, 0, 0, 0, time.UTC)), "got %s", next)
	assert.Nil(t, result.Subscription.LastDeliveryDate())

	orders, err := w.orders.ListBySubscription(ctx, result.Subscription.ID())
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestCreateSubscription_RejectsInvalidInput(t *testing.T) {
	valid := CreateSubscriptionCommand{
		UserID:  uuid.New(),
		Type:    "RECURRING_WEEKLY",
		Address: testAddress,
		Items:   []domain.ItemInput{{ProductID: uuid.New(), Quantity: 1}},
	}

	tests := []struct {
		name   string
		mutate func(*CreateSubscriptionCommand)
		expect error
	}{
		{"guest user", func(c *CreateSubscriptionCommand) { c.UserID = uuid.Nil }, domain.ErrValidation},
		{"unknown cadence", func(c *CreateSubscriptionCommand) { c.Type = "DAILY" }, domain.ErrUnsupportedCadence},
		{"pickup delivery", func(c *CreateSubscriptionCommand) { c.DeliveryType = "PICKUP" }, domain.ErrValidation},
		{"unknown delivery", func(c *CreateSubscriptionCommand) { c.DeliveryType = "DRONE" }, domain.ErrValidation},
		{"missing city", func(c *CreateSubscriptionCommand) { c.Address.City = " " }, domain.ErrValidation},
		{"no items", func(c *CreateSubscriptionCommand) { c.Items = nil }, domain.ErrValidation},
		{"zero quantity", func(c *CreateSubscriptionCommand) { c.Items[0].Quantity = 0 }, domain.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(mockSubscriptionRepo)
			users := new(mockUsers)
			users.On("EnsureExists", mock.Anything, mock.Anything).Return(nil).Maybe()
			uow := &mockUnitOfWork{}
			handler := NewCreateSubscriptionHandler(repo, outbox.NewInMemoryRepository(), uow, users,
				new(mockDeriver), domain.NewSchedulePolicy(nil), nil, nil, nil)

			cmd := valid
			cmd.Items = append([]domain.ItemInput(nil), valid.Items...)
			tt.mutate(&cmd)

			result, err := handler.Handle(context.Background(), cmd)
			assert.ErrorIs(t, err, tt.expect)
			assert.Nil(t, result)
			repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
			assert.Zero(t, uow.committed)
		})
	}
}

func TestCreateSubscription_FirstOrderFailureIsSwallowed(t *testing.T) {
	repo := new(mockSubscriptionRepo)
	repo.On("Save", mock.Anything, mock.Anything).Return(nil)
	users := new(mockUsers)
	users.On("EnsureExists", mock.Anything, mock.Anything).Return(nil)
	deriver := new(mockDeriver)
	deriver.On("DeriveScheduledOrder", mock.Anything, mock.Anything).
		Return(nil, errors.Join(domain.ErrUpstreamFailure, errors.New("out of roses")))
	ob := outbox.NewInMemoryRepository()
	uow := &mockUnitOfWork{}
	metrics := observability.NewInMemoryMetrics()

	handler := NewCreateSubscriptionHandler(repo, ob, uow, users, deriver,
		domain.NewSchedulePolicy(nil), sharedDomain.NewFixedClock(time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)), metrics, nil)

	cmd := CreateSubscriptionCommand{
		UserID:  uuid.New(),
		Type:    "recurring_biweekly",
		Address: testAddress,
		Items:   []domain.ItemInput{{ProductID: uuid.New(), Quantity: 3}},
	}
	result, err := handler.Handle(context.Background(), cmd)
	require.NoError(t, err)
	assert.Nil(t, result.FirstOrder)
	assert.Equal(t, domain.TypeRecurringBiweekly, result.Subscription.Type())
	assert.True(t, time.Date(2024, 5, 15, 8, 0, 0, 0, time.UTC).Equal(*result.Subscription.NextDeliveryDate()))
	assert.Equal(t, 1, uow.committed)
	assert.Equal(t, []string{domain.RoutingKeyCreated}, routingKeys(ob))
	assert.Equal(t, int64(1), metrics.GetCounter(observability.MetricSubscriptionsCreated, observability.T("type", "RECURRING_BIWEEKLY")))
	repo.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
}

func TestCreateSubscription_ReloadFailureStillReturnsSubscription(t *testing.T) {
	repo := new(mockSubscriptionRepo)
	repo.On("Save", mock.Anything, mock.Anything).Return(nil)
	repo.On("FindByID", mock.Anything, mock.Anything).Return(nil, errors.New("database is locked"))
	users := new(mockUsers)
	users.On("EnsureExists", mock.Anything, mock.Anything).Return(nil)
	order := &orderingDomain.Order{ID: uuid.New(), Status: orderingDomain.StatusConfirmed}
	deriver := new(mockDeriver)
	deriver.On("DeriveScheduledOrder", mock.Anything, mock.Anything).Return(order, nil)

	handler := NewCreateSubscriptionHandler(repo, outbox.NewInMemoryRepository(), &mockUnitOfWork{}, users, deriver,
		domain.NewSchedulePolicy(nil), sharedDomain.NewFixedClock(time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)), nil, nil)

	result, err := handler.Handle(context.Background(), CreateSubscriptionCommand{
		UserID:  uuid.New(),
		Type:    "recurring_weekly",
		Address: testAddress,
		Items:   []domain.ItemInput{{ProductID: uuid.New(), Quantity: 1}},
	})
	require.NoError(t, err)
	require.NotNil(t, result)
	require.NotNil(t, result.Subscription)
	assert.Same(t, order, result.FirstOrder)
	assert.Equal(t, domain.TypeRecurringWeekly, result.Subscription.Type())
	assert.Equal(t, domain.StatusActive, result.Subscription.Status())
}

func TestCreateSubscription_UserDirectoryFailureRollsBack(t *testing.T) {
	repo := new(mockSubscriptionRepo)
	users := new(mockUsers)
	users.On("EnsureExists", mock.Anything, mock.Anything).Return(errors.New("users table missing"))
	uow := &mockUnitOfWork{}

	handler := NewCreateSubscriptionHandler(repo, outbox.NewInMemoryRepository(), uow, users,
		new(mockDeriver), domain.NewSchedulePolicy(nil), nil, nil, nil)
	_, err := handler.Handle(context.Background(), CreateSubscriptionCommand{
		UserID:  uuid.New(),
		Type:    "SPONTANEOUS",
		Address: testAddress,
		Items:   []domain.ItemInput{{ProductID: uuid.New(), Quantity: 1}},
	})
	require.Error(t, err)
	assert.Equal(t, 1, uow.rolledBack)
	repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestCreateFromProduct_DefaultsQuantity(t *testing.T) {
	repo := new(mockSubscriptionRepo)
	repo.On("Save", mock.Anything, mock.Anything).Return(nil)
	users := new(mockUsers)
	users.On("EnsureExists", mock.Anything, mock.Anything).Return(nil)

	create := NewCreateSubscriptionHandler(repo, outbox.NewInMemoryRepository(), &mockUnitOfWork{}, users,
		new(mockDeriver), domain.NewSchedulePolicy(nil), nil, nil, nil)
	handler := NewCreateFromProductHandler(create)

	productID := uuid.New()
	result, err := handler.Handle(context.Background(), CreateFromProductCommand{
		UserID:    uuid.New(),
		ProductID: productID,
		Type:      "SPONTANEOUS_MONTHLY",
		Address:   testAddress,
	})
	require.NoError(t, err)
	items := result.Subscription.Items()
	require.Len(t, items, 1)
	assert.Equal(t, productID, items[0].ProductID())
	assert.Equal(t, 1, items[0].Quantity())
}
