package eventbus_test

import (
	"context"
	"errors"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xl-c111/Flora-sub001/internal/shared/infrastructure/eventbus"
)

func TestKafkaPublisher_KeysByAggregate(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	aggregateID := uuid.New()

	producer.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		if msg.Topic != "flora.events" {
			return errors.New("unexpected topic " + msg.Topic)
		}
		key, err := msg.Key.Encode()
		if err != nil {
			return err
		}
		if string(key) != aggregateID.String() {
			return errors.New("unexpected key " + string(key))
		}
		if len(msg.Headers) != 1 || string(msg.Headers[0].Value) != keyFailed {
			return errors.New("missing routing_key header")
		}
		return nil
	})

	publisher := eventbus.NewKafkaPublisherWithProducer(producer, "flora.events", nil)
	body, err := (&eventbus.ConsumedEvent{EventID: uuid.New(), AggregateID: aggregateID, RoutingKey: keyFailed}).Encode()
	require.NoError(t, err)

	require.NoError(t, publisher.Publish(context.Background(), keyFailed, body))
	require.NoError(t, publisher.Close())
}

func TestKafkaPublisher_FallsBackToRoutingKey(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	producer.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		if msg.Topic != eventbus.DefaultKafkaTopic {
			return errors.New("expected default topic")
		}
		key, _ := msg.Key.Encode()
		if string(key) != keyDelivered {
			return errors.New("unexpected key " + string(key))
		}
		return nil
	})

	publisher := eventbus.NewKafkaPublisherWithProducer(producer, "", nil)
	require.NoError(t, publisher.Publish(context.Background(), keyDelivered, []byte("raw")))
	require.NoError(t, publisher.Close())
}

func TestKafkaPublisher_SendFailure(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	producer.ExpectSendMessageAndFail(sarama.ErrNotLeaderForPartition)

	publisher := eventbus.NewKafkaPublisherWithProducer(producer, "flora.events", nil)
	err := publisher.Publish(context.Background(), keyFailed, []byte("{}"))
	require.Error(t, err)
	assert.ErrorIs(t, err, sarama.ErrNotLeaderForPartition)
	require.NoError(t, publisher.Close())
}

func TestNewKafkaPublisher_RequiresBrokers(t *testing.T) {
	_, err := eventbus.NewKafkaPublisher(eventbus.KafkaConfig{}, nil)
	assert.Error(t, err)
}
