package domain_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/xl-c111/Flora-sub001/internal/shared/domain"
)

func TestNewBaseEvent(t *testing.T) {
	aggregateID := uuid.New()
	at := time.Date(2024, 3, 10, 12, 0, 0, 0, time.FixedZone("AEDT", 11*3600))

	event := domain.NewBaseEvent(aggregateID, "TestAggregate", "test.event.created", at)

	assert.NotEqual(t, uuid.Nil, event.EventID())
	assert.Equal(t, aggregateID, event.AggregateID())
	assert.Equal(t, "TestAggregate", event.AggregateType())
	assert.Equal(t, "test.event.created", event.RoutingKey())
	assert.Equal(t, time.UTC, event.OccurredAt().Location())
	assert.True(t, event.OccurredAt().Equal(at))
}

func TestBaseEvent_SetMetadata(t *testing.T) {
	event := domain.NewBaseEvent(uuid.New(), "TestAggregate", "test.event.created", time.Now())
	metadata := domain.EventMetadata{
		CorrelationID: uuid.New(),
		CausationID:   uuid.New(),
		UserID:        uuid.New(),
	}

	event.SetMetadata(metadata)

	assert.Equal(t, metadata, event.Metadata())
}

func TestClock(t *testing.T) {
	t.Run("fixed clock advances", func(t *testing.T) {
		clock := domain.NewFixedClock(testNow)
		clock.Advance(48 * time.Hour)
		assert.Equal(t, testNow.AddDate(0, 0, 2), clock.Now())
	})

	t.Run("nil clock falls back to system time", func(t *testing.T) {
		clock := domain.ClockOrSystem(nil)
		assert.Equal(t, time.UTC, clock.Now().Location())
	})
}
