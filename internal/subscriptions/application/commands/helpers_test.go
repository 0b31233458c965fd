package commands

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	deliveryDomain "github.com/xl-c111/Flora-sub001/internal/delivery/domain"
	orderingDomain "github.com/xl-c111/Flora-sub001/internal/ordering/domain"
	sharedDomain "github.com/xl-c111/Flora-sub001/internal/shared/domain"
	"github.com/xl-c111/Flora-sub001/internal/shared/infrastructure/outbox"
	"github.com/xl-c111/Flora-sub001/internal/subscriptions/domain"
)

type mockSubscriptionRepo struct {
	mock.Mock
}

func (m *mockSubscriptionRepo) Save(ctx context.Context, s *domain.Subscription) error {
	return m.Called(ctx, s).Error(0)
}

func (m *mockSubscriptionRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.Subscription, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Subscription), args.Error(1)
}

func (m *mockSubscriptionRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Subscription, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Subscription), args.Error(1)
}

func (m *mockSubscriptionRepo) FindByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Subscription, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Subscription), args.Error(1)
}

func (m *mockSubscriptionRepo) FindDue(ctx context.Context, asOf time.Time) ([]*domain.Subscription, error) {
	args := m.Called(ctx, asOf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Subscription), args.Error(1)
}

func (m *mockSubscriptionRepo) UpdateSchedule(ctx context.Context, s *domain.Subscription) error {
	return m.Called(ctx, s).Error(0)
}

// mockUnitOfWork records how the transaction ended.
type mockUnitOfWork struct {
	began, committed, rolledBack int
}

func (u *mockUnitOfWork) Begin(ctx context.Context) (context.Context, error) {
	u.began++
	return ctx, nil
}

func (u *mockUnitOfWork) Commit(context.Context) error {
	u.committed++
	return nil
}

func (u *mockUnitOfWork) Rollback(context.Context) error {
	u.rolledBack++
	return nil
}

type mockUsers struct {
	mock.Mock
}

func (m *mockUsers) EnsureExists(ctx context.Context, userID uuid.UUID) error {
	return m.Called(ctx, userID).Error(0)
}

type mockDeriver struct {
	mock.Mock
}

func (m *mockDeriver) DeriveScheduledOrder(ctx context.Context, sub *domain.Subscription) (*orderingDomain.Order, error) {
	args := m.Called(ctx, sub)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*orderingDomain.Order), args.Error(1)
}

func routingKeys(repo *outbox.InMemoryRepository) []string {
	var keys []string
	for _, m := range repo.Messages() {
		keys = append(keys, m.RoutingKey)
	}
	return keys
}

var testAddress = domain.AddressInput{
	FirstName: "Grace", LastName: "Hopper", Street1: "7 Wattle St",
	City: "Sydney", State: "NSW", ZipCode: "2000",
}

// storedSubscription builds a subscription as a repository would return it.
func storedSubscription(t *testing.T, owner uuid.UUID, typ domain.SubscriptionType, status domain.Status, next time.Time) *domain.Subscription {
	t.Helper()
	item, err := domain.NewItem(uuid.New(), 1)
	require.NoError(t, err)
	base := sharedDomain.NewBaseAggregateRoot(next.AddDate(0, -1, 0))
	return domain.RehydrateSubscription(base, owner, typ, status, &next, nil,
		deliveryDomain.TypeStandard, "", domain.RehydrateAddressSnapshot(testAddress), []domain.Item{item}, "")
}
