package domain_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/xl-c111/Flora-sub001/internal/shared/domain"
)

var testNow = time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

type testAggregate struct {
	domain.BaseAggregateRoot
	Name string
}

func newTestAggregate(name string) *testAggregate {
	return &testAggregate{
		BaseAggregateRoot: domain.NewBaseAggregateRoot(testNow),
		Name:              name,
	}
}

type testAggregateEvent struct {
	domain.BaseEvent
}

func newTestAggregateEvent(aggregateID uuid.UUID) *testAggregateEvent {
	return &testAggregateEvent{
		BaseEvent: domain.NewBaseEvent(aggregateID, "TestAggregate", "test.aggregate.created", testNow),
	}
}

func TestNewBaseAggregateRoot(t *testing.T) {
	agg := domain.NewBaseAggregateRoot(testNow)

	assert.NotEqual(t, uuid.Nil, agg.ID())
	assert.Equal(t, 0, agg.Version())
	assert.Empty(t, agg.DomainEvents())
	assert.Equal(t, testNow, agg.CreatedAt())
	assert.Equal(t, testNow, agg.UpdatedAt())
}

func TestBaseAggregateRoot_Events(t *testing.T) {
	agg := newTestAggregate("Test")
	event := newTestAggregateEvent(agg.ID())

	agg.AddDomainEvent(event)
	assert.Len(t, agg.DomainEvents(), 1)
	assert.Equal(t, event.EventID(), agg.DomainEvents()[0].EventID())

	agg.ClearDomainEvents()
	assert.Empty(t, agg.DomainEvents())
}

func TestBaseAggregateRoot_Version(t *testing.T) {
	agg := newTestAggregate("Test")
	agg.IncrementVersion()
	agg.IncrementVersion()
	assert.Equal(t, 2, agg.Version())

	rehydrated := domain.RehydrateBaseAggregateRoot(
		domain.RehydrateBaseEntity(agg.ID(), agg.CreatedAt(), agg.UpdatedAt()), 7)
	assert.Equal(t, 7, rehydrated.Version())
	assert.True(t, rehydrated.Equals(agg))
}

func TestBaseEntity_Touch(t *testing.T) {
	entity := domain.NewBaseEntity(testNow)
	later := testNow.Add(time.Hour)

	entity.Touch(later)

	assert.Equal(t, testNow, entity.CreatedAt())
	assert.Equal(t, later, entity.UpdatedAt())
	assert.False(t, entity.Equals(nil))
}
