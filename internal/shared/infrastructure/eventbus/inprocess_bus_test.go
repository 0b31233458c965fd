package eventbus_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xl-c111/Flora-sub001/internal/shared/infrastructure/eventbus"
)

func TestInProcessEventBus_Publish(t *testing.T) {
	bus := eventbus.NewInProcessEventBus(nil)
	consumer := &mockConsumer{keys: []string{keyFailed}}
	bus.RegisterConsumer(consumer)

	event := &eventbus.ConsumedEvent{
		EventID:       uuid.New(),
		AggregateID:   uuid.New(),
		AggregateType: "subscription",
		OccurredAt:    time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC),
	}
	body, err := event.Encode()
	require.NoError(t, err)

	require.NoError(t, bus.Publish(context.Background(), keyFailed, body))
	require.Len(t, consumer.events, 1)
	assert.Equal(t, event.EventID, consumer.events[0].EventID)
	assert.Equal(t, keyFailed, consumer.events[0].RoutingKey)
}

func TestInProcessEventBus_PublishSwallowsFailures(t *testing.T) {
	bus := eventbus.NewInProcessEventBus(nil)
	consumer := &mockConsumer{keys: []string{keyFailed}, err: errors.New("boom")}
	bus.RegisterConsumer(consumer)

	body, err := (&eventbus.ConsumedEvent{EventID: uuid.New(), RoutingKey: keyFailed}).Encode()
	require.NoError(t, err)

	assert.NoError(t, bus.Publish(context.Background(), keyFailed, body))
	assert.NoError(t, bus.Publish(context.Background(), keyFailed, []byte("{broken")))
	assert.Len(t, consumer.events, 1)
}

func TestInProcessEventBus_PublishEventReportsFailures(t *testing.T) {
	bus := eventbus.NewInProcessEventBus(nil)
	boom := errors.New("boom")
	bus.RegisterConsumer(&mockConsumer{keys: []string{keyFailed}, err: boom})

	err := bus.PublishEvent(context.Background(), &eventbus.ConsumedEvent{RoutingKey: keyFailed})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, bus.Registry().ConsumerCount())
	assert.NoError(t, bus.Close())
}

func TestNoopPublisher(t *testing.T) {
	p := eventbus.NewNoopPublisher(nil)
	assert.NoError(t, p.Publish(context.Background(), keyFailed, []byte("{}")))
	assert.NoError(t, p.Close())
}
