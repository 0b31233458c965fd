package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	deliveryDomain "github.com/xl-c111/Flora-sub001/internal/delivery/domain"
)

var created = time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

func testAddress(t *testing.T) AddressSnapshot {
	t.Helper()
	a, err := NewAddressSnapshot(AddressInput{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Street1:   "12 Garden Row",
		City:      "Melbourne",
		State:     "VIC",
		ZipCode:   "3000",
	})
	require.NoError(t, err)
	return a
}

func testItems(t *testing.T) []Item {
	t.Helper()
	items, err := NewItems([]ItemInput{{ProductID: uuid.New(), Quantity: 2}})
	require.NoError(t, err)
	return items
}

func newTestSubscription(t *testing.T, typ SubscriptionType) *Subscription {
	t.Helper()
	s, err := NewSubscription(NewSubscriptionParams{
		OwnerID:       uuid.New(),
		Type:          typ,
		Address:       testAddress(t),
		DeliveryType:  deliveryDomain.TypeStandard,
		DeliveryNotes: "  leave at the door ",
		Items:         testItems(t),
	}, NewSchedulePolicy(NewSeededRandom(1)), created)
	require.NoError(t, err)
	return s
}

func TestNewSubscription(t *testing.T) {
	t.Run("creates an active subscription with a scheduled first delivery", func(t *testing.T) {
		s := newTestSubscription(t, TypeRecurringWeekly)

		assert.Equal(t, StatusActive, s.Status())
		require.NotNil(t, s.NextDeliveryDate())
		assert.Equal(t, created.AddDate(0, 0, 7), *s.NextDeliveryDate())
		assert.Nil(t, s.LastDeliveryDate())
		assert.Equal(t, "leave at the door", s.DeliveryNotes())
		require.Len(t, s.DomainEvents(), 1)
		assert.Equal(t, RoutingKeyCreated, s.DomainEvents()[0].RoutingKey())
	})

	t.Run("spontaneous weekly lands inside its window", func(t *testing.T) {
		s := newTestSubscription(t, TypeSpontaneousWeekly)

		next := *s.NextDeliveryDate()
		assert.False(t, next.Before(time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC)))
		assert.False(t, next.After(time.Date(2024, 1, 8, 9, 0, 0, 0, time.UTC)))
	})

	policy := NewSchedulePolicy(nil)
	valid := func() NewSubscriptionParams {
		return NewSubscriptionParams{
			OwnerID:      uuid.New(),
			Type:         TypeRecurringMonthly,
			Address:      testAddress(t),
			DeliveryType: deliveryDomain.TypeExpress,
			Items:        testItems(t),
		}
	}

	tests := []struct {
		name   string
		mutate func(p *NewSubscriptionParams)
		err    error
	}{
		{"missing owner", func(p *NewSubscriptionParams) { p.OwnerID = uuid.Nil }, ErrValidation},
		{"no items", func(p *NewSubscriptionParams) { p.Items = nil }, ErrValidation},
		{"pickup delivery", func(p *NewSubscriptionParams) { p.DeliveryType = deliveryDomain.TypePickup }, ErrValidation},
		{"missing address", func(p *NewSubscriptionParams) { p.Address = AddressSnapshot{} }, ErrValidation},
		{"unknown type", func(p *NewSubscriptionParams) { p.Type = "RECURRING_DAILY" }, ErrUnsupportedCadence},
	}
	for _, tt := range tests {
		t.Run("rejects "+tt.name, func(t *testing.T) {
			p := valid()
			tt.mutate(&p)
			_, err := NewSubscription(p, policy, created)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestNewItems(t *testing.T) {
	_, err := NewItems([]ItemInput{{ProductID: uuid.New(), Quantity: 0}})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = NewItems([]ItemInput{{ProductID: uuid.Nil, Quantity: 1}})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = NewItems(nil)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestNewAddressSnapshot(t *testing.T) {
	_, err := NewAddressSnapshot(AddressInput{FirstName: "Ada", LastName: "L", Street1: "1 St", City: "X", State: "Y"})
	assert.ErrorIs(t, err, ErrValidation)

	a := testAddress(t)
	b := RehydrateAddressSnapshot(a.Input())
	assert.True(t, a.Equals(b))
}

func TestSubscription_Pause(t *testing.T) {
	s := newTestSubscription(t, TypeRecurringWeekly)
	s.ClearDomainEvents()
	next := *s.NextDeliveryDate()

	changed, err := s.Pause(created.Add(time.Hour))
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = s.Pause(created.Add(2 * time.Hour))
	require.NoError(t, err)
	assert.False(t, changed, "second pause is a no-op")

	assert.Equal(t, StatusPaused, s.Status())
	assert.Equal(t, next, *s.NextDeliveryDate())
	assert.Len(t, s.DomainEvents(), 1)
	assert.False(t, s.IsDue(next.AddDate(1, 0, 0)))
}

func TestSubscription_Resume(t *testing.T) {
	policy := NewSchedulePolicy(NewSeededRandom(3))

	t.Run("restarts the cadence from now", func(t *testing.T) {
		s := newTestSubscription(t, TypeRecurringWeekly)
		_, err := s.Pause(created)
		require.NoError(t, err)

		now := created.AddDate(1, 0, 0)
		require.NoError(t, s.Resume(policy, now))

		assert.Equal(t, StatusActive, s.Status())
		assert.Equal(t, now.AddDate(0, 0, 7), *s.NextDeliveryDate())
	})

	t.Run("always schedules strictly after now", func(t *testing.T) {
		for _, typ := range SubscriptionTypes() {
			s := newTestSubscription(t, typ)
			_, err := s.Pause(created)
			require.NoError(t, err)

			now := created.AddDate(3, 0, 0)
			require.NoError(t, s.Resume(policy, now))
			assert.True(t, s.NextDeliveryDate().After(now), typ)
		}
	})

	t.Run("resuming an active subscription is allowed", func(t *testing.T) {
		s := newTestSubscription(t, TypeRecurringMonthly)
		assert.NoError(t, s.Resume(policy, created))
	})

	t.Run("cancelled subscriptions cannot resume", func(t *testing.T) {
		s := newTestSubscription(t, TypeRecurringMonthly)
		require.NoError(t, s.Cancel(created))

		assert.ErrorIs(t, s.Resume(policy, created), ErrInvalidTransition)
		_, err := s.Pause(created)
		assert.ErrorIs(t, err, ErrInvalidTransition)
		assert.ErrorIs(t, s.Cancel(created), ErrInvalidTransition)
	})
}

func TestSubscription_Cancel(t *testing.T) {
	s := newTestSubscription(t, TypeRecurringWeekly)
	_, err := s.Pause(created)
	require.NoError(t, err)

	require.NoError(t, s.Cancel(created.Add(time.Minute)))

	assert.Equal(t, StatusCancelled, s.Status())
	assert.NotNil(t, s.NextDeliveryDate(), "the stale date is kept for history")
	assert.False(t, s.IsDue(created.AddDate(5, 0, 0)))
}

func TestSubscription_Apply(t *testing.T) {
	policy := NewSchedulePolicy(nil)

	t.Run("changing type keeps the schedule", func(t *testing.T) {
		s := newTestSubscription(t, TypeRecurringWeekly)
		s.ClearDomainEvents()
		before := *s.NextDeliveryDate()
		monthly := TypeRecurringMonthly
		notes := "ring twice"
		ref := "sub_123"

		require.NoError(t, s.Apply(Patch{Type: &monthly, DeliveryNotes: &notes, PaymentSubscriptionRef: &ref}, policy, created))

		assert.Equal(t, TypeRecurringMonthly, s.Type())
		assert.Equal(t, before, *s.NextDeliveryDate())
		assert.Equal(t, "ring twice", s.DeliveryNotes())
		assert.Equal(t, "sub_123", s.PaymentSubscriptionRef())
		require.Len(t, s.DomainEvents(), 1)
		updated := s.DomainEvents()[0].(*SubscriptionUpdated)
		assert.Equal(t, []string{"type", "delivery_notes", "payment_subscription_ref"}, updated.Fields)
	})

	t.Run("status goes through the transition rules", func(t *testing.T) {
		s := newTestSubscription(t, TypeRecurringWeekly)
		paused := StatusPaused
		require.NoError(t, s.Apply(Patch{Status: &paused}, policy, created))
		assert.Equal(t, StatusPaused, s.Status())

		cancelled := StatusCancelled
		require.NoError(t, s.Apply(Patch{Status: &cancelled}, policy, created))

		active := StatusActive
		assert.ErrorIs(t, s.Apply(Patch{Status: &active}, policy, created), ErrInvalidTransition)
	})

	t.Run("rejects pickup and unknown types without partial changes", func(t *testing.T) {
		s := newTestSubscription(t, TypeRecurringWeekly)
		pickup := deliveryDomain.TypePickup
		notes := "changed"

		assert.ErrorIs(t, s.Apply(Patch{DeliveryType: &pickup, DeliveryNotes: &notes}, policy, created), ErrValidation)
		assert.Equal(t, "leave at the door", s.DeliveryNotes())

		bogus := SubscriptionType("WHENEVER")
		assert.ErrorIs(t, s.Apply(Patch{Type: &bogus}, policy, created), ErrUnsupportedCadence)
	})
}

func TestSubscription_CheckSpontaneousDelivery(t *testing.T) {
	recurring := newTestSubscription(t, TypeRecurringWeekly)
	assert.ErrorIs(t, recurring.CheckSpontaneousDelivery(), ErrInvalidCadence)

	spontaneous := newTestSubscription(t, TypeSpontaneousMonthly)
	assert.NoError(t, spontaneous.CheckSpontaneousDelivery())

	_, err := spontaneous.Pause(created)
	require.NoError(t, err)
	assert.ErrorIs(t, spontaneous.CheckSpontaneousDelivery(), ErrInvalidTransition)
}

func TestSubscription_MarkDeliveredRequiresActive(t *testing.T) {
	now := date(2024, 3, 8)

	paused := newTestSubscription(t, TypeRecurringWeekly)
	_, err := paused.Pause(now)
	require.NoError(t, err)
	assert.ErrorIs(t, paused.MarkDelivered(uuid.New(), "SUBSCRIPTION", now), ErrInvalidTransition)
	assert.Nil(t, paused.LastDeliveryDate())

	cancelled := newTestSubscription(t, TypeRecurringWeekly)
	require.NoError(t, cancelled.Cancel(now))
	cancelled.ClearDomainEvents()
	assert.ErrorIs(t, cancelled.MarkDelivered(uuid.New(), "SUBSCRIPTION", now), ErrInvalidTransition)
	assert.Nil(t, cancelled.LastDeliveryDate())
	assert.Empty(t, cancelled.DomainEvents())
}

func TestNormalizeDeliveryNotes(t *testing.T) {
	notes, err := NormalizeDeliveryNotes("  ring twice  ")
	require.NoError(t, err)
	assert.Equal(t, "ring twice", notes)

	_, err = NormalizeDeliveryNotes(strings.Repeat("x", maxNotesLength+1))
	assert.ErrorIs(t, err, ErrValidation)
}

func TestSubscription_MarkDeliveredAndReschedule(t *testing.T) {
	policy := NewSchedulePolicy(nil)
	s := newTestSubscription(t, TypeRecurringWeekly)
	s.ClearDomainEvents()
	due := *s.NextDeliveryDate()

	assert.True(t, s.IsDue(due))
	assert.False(t, s.IsDue(due.Add(-time.Second)))

	orderID := uuid.New()
	require.NoError(t, s.MarkDelivered(orderID, "SUBSCRIPTION", due))
	assert.Equal(t, due, *s.LastDeliveryDate())

	next, err := s.Reschedule(policy, due)
	require.NoError(t, err)
	assert.Equal(t, due.AddDate(0, 0, 7), next)

	require.Len(t, s.DomainEvents(), 2)
	assert.Equal(t, orderID, s.DomainEvents()[0].(*DeliveryDerived).OrderID)
	rescheduled := s.DomainEvents()[1].(*SubscriptionRescheduled)
	assert.Equal(t, due, *rescheduled.PreviousDate)

	t.Run("falls back to today without a previous date", func(t *testing.T) {
		orphan := RehydrateSubscription(s.BaseAggregateRoot, s.OwnerID(), TypeRecurringBiweekly, StatusActive,
			nil, nil, s.DeliveryType(), "", s.Address(), s.Items(), "")
		today := date(2024, 6, 1)

		next, err := orphan.Reschedule(policy, today)
		require.NoError(t, err)
		assert.Equal(t, today.AddDate(0, 0, 14), next)
	})
}
