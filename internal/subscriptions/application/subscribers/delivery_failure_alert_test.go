package subscribers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	deliveryDomain "github.com/xl-c111/Flora-sub001/internal/delivery/domain"
	sharedDomain "github.com/xl-c111/Flora-sub001/internal/shared/domain"
	"github.com/xl-c111/Flora-sub001/internal/shared/infrastructure/eventbus"
	"github.com/xl-c111/Flora-sub001/internal/shared/infrastructure/outbox"
	"github.com/xl-c111/Flora-sub001/internal/subscriptions/domain"
	"github.com/xl-c111/Flora-sub001/pkg/observability"
)

func failedEvent(t *testing.T, reason string) *domain.DeliveryFailed {
	t.Helper()
	now := time.Date(2024, 9, 2, 6, 0, 0, 0, time.UTC)
	item, err := domain.NewItem(uuid.New(), 1)
	require.NoError(t, err)
	sub := domain.RehydrateSubscription(sharedDomain.NewBaseAggregateRoot(now), uuid.New(),
		domain.TypeRecurringWeekly, domain.StatusActive, &now, nil, deliveryDomain.TypeStandard, "",
		domain.RehydrateAddressSnapshot(domain.AddressInput{City: "Hobart"}), []domain.Item{item}, "")
	return domain.NewDeliveryFailed(sub, reason, errors.New("product out of stock"), now)
}

func TestDeliveryFailureAlert_ThroughOutboxAndBus(t *testing.T) {
	ctx := context.Background()
	metrics := observability.NewInMemoryMetrics()
	bus := eventbus.NewInProcessEventBus(nil)
	bus.RegisterConsumer(NewDeliveryFailureAlert(metrics, nil))

	repo := outbox.NewInMemoryRepository()
	msg, err := outbox.NewMessage(failedEvent(t, "out_of_stock"))
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, msg))

	processor := outbox.NewProcessor(repo, bus, outbox.DefaultProcessorConfig(), nil, metrics, nil)
	require.NoError(t, processor.ProcessOnce(ctx))

	assert.Equal(t, int64(1), metrics.GetCounter(observability.MetricDeliveryAlerts, observability.T("reason", "out_of_stock")))
	assert.Equal(t, uint64(1), processor.GetStats().PublishedCount)
}

func TestDeliveryFailureAlert_Handle(t *testing.T) {
	metrics := observability.NewInMemoryMetrics()
	alert := NewDeliveryFailureAlert(metrics, nil)
	assert.Equal(t, []string{domain.RoutingKeyDeliveryFailed}, alert.EventTypes())

	t.Run("blank reason counts as unknown", func(t *testing.T) {
		payload, err := outbox.NewMessage(failedEvent(t, ""))
		require.NoError(t, err)
		err = alert.Handle(context.Background(), &eventbus.ConsumedEvent{
			RoutingKey: domain.RoutingKeyDeliveryFailed,
			Payload:    payload.Payload,
		})
		require.NoError(t, err)
		assert.Equal(t, int64(1), metrics.GetCounter(observability.MetricDeliveryAlerts, observability.T("reason", "unknown")))
	})

	t.Run("undecodable payload", func(t *testing.T) {
		err := alert.Handle(context.Background(), &eventbus.ConsumedEvent{
			RoutingKey: domain.RoutingKeyDeliveryFailed,
			Payload:    []byte(`"not an object"`),
		})
		assert.ErrorContains(t, err, "failed to decode")
	})
}
