package queries

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	catalogDomain "github.com/xl-c111/Flora-sub001/internal/catalog/domain"
	catalogPersistence "github.com/xl-c111/Flora-sub001/internal/catalog/infrastructure/persistence"
	deliveryDomain "github.com/xl-c111/Flora-sub001/internal/delivery/domain"
	identityPersistence "github.com/xl-c111/Flora-sub001/internal/identity/infrastructure/persistence"
	orderingDomain "github.com/xl-c111/Flora-sub001/internal/ordering/domain"
	orderingPersistence "github.com/xl-c111/Flora-sub001/internal/ordering/infrastructure/persistence"
	sharedDomain "github.com/xl-c111/Flora-sub001/internal/shared/domain"
	"github.com/xl-c111/Flora-sub001/internal/shared/infrastructure/database/dbtest"
	"github.com/xl-c111/Flora-sub001/internal/subscriptions/domain"
	subPersistence "github.com/xl-c111/Flora-sub001/internal/subscriptions/infrastructure/persistence"
)

var queryNow = time.Date(2024, 4, 2, 7, 0, 0, 0, time.UTC)

type readSide struct {
	repo    domain.Repository
	orders  *orderingPersistence.OrderStore
	owner   uuid.UUID
	product *catalogDomain.Product
}

func newReadSide(t *testing.T) *readSide {
	t.Helper()
	ctx := context.Background()
	conn := dbtest.SQLite(t)
	clock := sharedDomain.NewFixedClock(queryNow)

	product, err := catalogDomain.NewProduct("Monstera", 3900, 10, queryNow)
	require.NoError(t, err)
	require.NoError(t, catalogPersistence.NewProductRepository(conn).Save(ctx, product))

	r := &readSide{
		repo:    subPersistence.NewSubscriptionRepository(conn),
		orders:  orderingPersistence.NewOrderStore(conn, clock),
		owner:   uuid.New(),
		product: product,
	}
	require.NoError(t, identityPersistence.NewUserDirectory(conn, clock).EnsureExists(ctx, r.owner))
	return r
}

func (r *readSide) save(t *testing.T, typ domain.SubscriptionType, status domain.Status, created time.Time) *domain.Subscription {
	t.Helper()
	item, err := domain.NewItem(r.product.ID, 2)
	require.NoError(t, err)
	address, err := domain.NewAddressSnapshot(domain.AddressInput{
		FirstName: "Ada", LastName: "Byron", Street1: "3 Fig Tree Ln", City: "Perth", State: "WA", ZipCode: "6000",
	})
	require.NoError(t, err)
	next := queryNow.AddDate(0, 0, 4)
	sub := domain.RehydrateSubscription(sharedDomain.NewBaseAggregateRoot(created), r.owner, typ, status,
		&next, nil, deliveryDomain.TypeStandard, "porch", address, []domain.Item{item}, "")
	require.NoError(t, r.repo.Save(context.Background(), sub))
	return sub
}

func TestGetSubscriptionHandler(t *testing.T) {
	r := newReadSide(t)
	sub := r.save(t, domain.TypeSpontaneousBiweekly, domain.StatusActive, queryNow)
	handler := NewGetSubscriptionHandler(r.repo)

	dto, err := handler.Handle(context.Background(), GetSubscriptionQuery{SubscriptionID: sub.ID(), UserID: r.owner})
	require.NoError(t, err)
	assert.Equal(t, "SPONTANEOUS_BIWEEKLY", dto.Type)
	assert.True(t, dto.Spontaneous)
	assert.Equal(t, "Perth", dto.Address.City)
	assert.Equal(t, []domain.ItemInput{{ProductID: r.product.ID, Quantity: 2}}, dto.Items)
	assert.Equal(t, "porch", dto.DeliveryNotes)

	_, err = handler.Handle(context.Background(), GetSubscriptionQuery{SubscriptionID: sub.ID(), UserID: uuid.New()})
	assert.ErrorIs(t, err, domain.ErrForbidden)
	_, err = handler.Handle(context.Background(), GetSubscriptionQuery{SubscriptionID: uuid.New(), UserID: r.owner})
	assert.ErrorIs(t, err, domain.ErrSubscriptionNotFound)
}

func TestListSubscriptionsHandler(t *testing.T) {
	r := newReadSide(t)
	older := r.save(t, domain.TypeRecurringWeekly, domain.StatusActive, queryNow.AddDate(0, 0, -10))
	newer := r.save(t, domain.TypeRecurringMonthly, domain.StatusPaused, queryNow)
	handler := NewListSubscriptionsHandler(r.repo)

	all, err := handler.Handle(context.Background(), ListSubscriptionsQuery{UserID: r.owner})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, newer.ID(), all[0].ID)
	assert.Equal(t, older.ID(), all[1].ID)

	paused, err := handler.Handle(context.Background(), ListSubscriptionsQuery{UserID: r.owner, Status: "paused"})
	require.NoError(t, err)
	require.Len(t, paused, 1)
	assert.Equal(t, newer.ID(), paused[0].ID)

	_, err = handler.Handle(context.Background(), ListSubscriptionsQuery{UserID: r.owner, Status: "expired"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	none, err := handler.Handle(context.Background(), ListSubscriptionsQuery{UserID: uuid.New()})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestListSubscriptionOrdersHandler(t *testing.T) {
	ctx := context.Background()
	r := newReadSide(t)
	sub := r.save(t, domain.TypeRecurringWeekly, domain.StatusActive, queryNow)

	subID := sub.ID()
	_, err := r.orders.CreateOrder(ctx, orderingDomain.OrderRequest{
		SubscriptionID: &subID,
		UserID:         r.owner,
		PurchaseType:   orderingDomain.PurchaseTypeSubscription,
		Items:          []orderingDomain.OrderLine{{ProductID: r.product.ID, Quantity: 2, UnitPrice: 3900}},
		Address:        orderingDomain.Address{FirstName: "Ada", LastName: "Byron", Street1: "3 Fig Tree Ln", City: "Perth", State: "WA", ZipCode: "6000"},
		DeliveryType:   "STANDARD",
		DeliveryFee:    899,
	})
	require.NoError(t, err)

	handler := NewListSubscriptionOrdersHandler(r.repo, r.orders)
	orders, err := handler.Handle(ctx, ListSubscriptionOrdersQuery{SubscriptionID: sub.ID(), UserID: r.owner})
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, int64(7800), orders[0].Subtotal)
	assert.Equal(t, int64(7800+899), orders[0].Total)
	assert.Equal(t, 1, orders[0].ItemCount)

	_, err = handler.Handle(ctx, ListSubscriptionOrdersQuery{SubscriptionID: sub.ID(), UserID: uuid.New()})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}
