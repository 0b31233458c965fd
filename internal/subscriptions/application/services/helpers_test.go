package services_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	catalogDomain "github.com/xl-c111/Flora-sub001/internal/catalog/domain"
	deliveryDomain "github.com/xl-c111/Flora-sub001/internal/delivery/domain"
	orderingDomain "github.com/xl-c111/Flora-sub001/internal/ordering/domain"
	sharedDomain "github.com/xl-c111/Flora-sub001/internal/shared/domain"
	"github.com/xl-c111/Flora-sub001/internal/subscriptions/domain"
)

// memRepo stores clones so that callers only see committed state.
type memRepo struct {
	mu      sync.Mutex
	subs    map[uuid.UUID]*domain.Subscription
	findDue func(asOf time.Time) ([]*domain.Subscription, error)
}

func newMemRepo(subs ...*domain.Subscription) *memRepo {
	r := &memRepo{subs: make(map[uuid.UUID]*domain.Subscription)}
	for _, s := range subs {
		r.subs[s.ID()] = clone(s)
	}
	return r
}

func (r *memRepo) Save(_ context.Context, s *domain.Subscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subs[s.ID()] = clone(s)
	return nil
}

func (r *memRepo) FindByID(_ context.Context, id uuid.UUID) (*domain.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.subs[id]
	if !ok {
		return nil, nil
	}
	return clone(s), nil
}

func (r *memRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Subscription, error) {
	return r.FindByID(ctx, id)
}

func (r *memRepo) FindByOwner(_ context.Context, ownerID uuid.UUID) ([]*domain.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Subscription
	for _, s := range r.subs {
		if s.OwnerID() == ownerID {
			out = append(out, clone(s))
		}
	}
	return out, nil
}

func (r *memRepo) FindDue(_ context.Context, asOf time.Time) ([]*domain.Subscription, error) {
	if r.findDue != nil {
		return r.findDue(asOf)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Subscription
	for _, s := range r.subs {
		if s.IsDue(asOf) {
			out = append(out, clone(s))
		}
	}
	return out, nil
}

func (r *memRepo) UpdateSchedule(ctx context.Context, s *domain.Subscription) error {
	return r.Save(ctx, s)
}

func (r *memRepo) get(t *testing.T, id uuid.UUID) *domain.Subscription {
	t.Helper()
	s, err := r.FindByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, s)
	return s
}

func clone(s *domain.Subscription) *domain.Subscription {
	base := sharedDomain.RehydrateBaseAggregateRoot(
		sharedDomain.RehydrateBaseEntity(s.ID(), s.CreatedAt(), s.UpdatedAt()), s.Version())
	return domain.RehydrateSubscription(base, s.OwnerID(), s.Type(), s.Status(),
		s.NextDeliveryDate(), s.LastDeliveryDate(), s.DeliveryType(), s.DeliveryNotes(),
		s.Address(), s.Items(), s.PaymentSubscriptionRef())
}

type fakeUoW struct{}

func (fakeUoW) Begin(ctx context.Context) (context.Context, error) { return ctx, nil }
func (fakeUoW) Commit(context.Context) error                       { return nil }
func (fakeUoW) Rollback(context.Context) error                     { return nil }

type mockOrderCreator struct {
	mock.Mock
}

func (m *mockOrderCreator) CreateOrder(ctx context.Context, req orderingDomain.OrderRequest) (*orderingDomain.Order, error) {
	args := m.Called(ctx, req)
	switch v := args.Get(0).(type) {
	case func(context.Context, orderingDomain.OrderRequest) *orderingDomain.Order:
		return v(ctx, req), args.Error(1)
	case *orderingDomain.Order:
		return v, args.Error(1)
	default:
		return nil, args.Error(1)
	}
}

// confirm echoes the request back as a confirmed order.
func confirm(req orderingDomain.OrderRequest) *orderingDomain.Order {
	return &orderingDomain.Order{ID: uuid.New(), Status: orderingDomain.StatusConfirmed, OrderRequest: req}
}

type mockPrices struct {
	mock.Mock
}

func (m *mockPrices) PriceOf(ctx context.Context, id uuid.UUID) (int64, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockPrices) PricesOf(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]int64, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[uuid.UUID]int64), args.Error(1)
}

var _ catalogDomain.PriceLookup = (*mockPrices)(nil)

type fixture struct {
	owner    uuid.UUID
	rose     uuid.UUID
	fern     uuid.UUID
	address  domain.AddressSnapshot
	policy   *domain.SchedulePolicy
	clock    *sharedDomain.FixedClock
	prices   map[uuid.UUID]int64
	pricing  *deliveryDomain.PricingTable
	baseTime time.Time
}

func newFixture(t *testing.T, now time.Time) *fixture {
	t.Helper()
	address, err := domain.NewAddressSnapshot(domain.AddressInput{
		FirstName: "Ada", LastName: "Lovelace", Street1: "12 Acacia Ave",
		City: "Melbourne", State: "VIC", ZipCode: "3000",
	})
	require.NoError(t, err)
	f := &fixture{
		owner:    uuid.New(),
		rose:     uuid.New(),
		fern:     uuid.New(),
		address:  address,
		policy:   domain.NewSchedulePolicy(domain.NewSeededRandom(7)),
		clock:    sharedDomain.NewFixedClock(now),
		pricing:  deliveryDomain.NewPricingTable(nil),
		baseTime: now,
	}
	f.prices = map[uuid.UUID]int64{f.rose: 1250, f.fern: 800}
	return f
}

// subscription builds a stored subscription with an explicit status and next date.
func (f *fixture) subscription(t *testing.T, typ domain.SubscriptionType, status domain.Status, next *time.Time) *domain.Subscription {
	t.Helper()
	rose, err := domain.NewItem(f.rose, 2)
	require.NoError(t, err)
	fern, err := domain.NewItem(f.fern, 1)
	require.NoError(t, err)
	base := sharedDomain.NewBaseAggregateRoot(f.baseTime.AddDate(0, -1, 0))
	return domain.RehydrateSubscription(base, f.owner, typ, status, next, nil,
		deliveryDomain.TypeExpress, "leave at door", f.address, []domain.Item{rose, fern}, "")
}

func at(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 10, 30, 0, 0, time.UTC)
}

func ptr[T any](v T) *T { return &v }
