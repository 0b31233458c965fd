package domain

import (
	"fmt"
	"strings"
)

// SubscriptionType fixes both the cadence and whether deliveries are randomized.
type SubscriptionType string

const (
	TypeRecurringWeekly    SubscriptionType = "RECURRING_WEEKLY"
	TypeRecurringBiweekly  SubscriptionType = "RECURRING_BIWEEKLY"
	TypeRecurringMonthly   SubscriptionType = "RECURRING_MONTHLY"
	TypeRecurringQuarterly SubscriptionType = "RECURRING_QUARTERLY"
	TypeRecurringYearly    SubscriptionType = "RECURRING_YEARLY"

	// TypeSpontaneous is the legacy spontaneous type; it behaves like TypeSpontaneousBiweekly.
	TypeSpontaneous         SubscriptionType = "SPONTANEOUS"
	TypeSpontaneousWeekly   SubscriptionType = "SPONTANEOUS_WEEKLY"
	TypeSpontaneousBiweekly SubscriptionType = "SPONTANEOUS_BIWEEKLY"
	TypeSpontaneousMonthly  SubscriptionType = "SPONTANEOUS_MONTHLY"
)

type cadence struct {
	spontaneous bool
	days        int // fixed offset, or the random window for spontaneous types
	months      int
}

var cadences = map[SubscriptionType]cadence{
	TypeRecurringWeekly:     {days: 7},
	TypeRecurringBiweekly:   {days: 14},
	TypeRecurringMonthly:    {months: 1},
	TypeRecurringQuarterly:  {months: 3},
	TypeRecurringYearly:     {months: 12},
	TypeSpontaneous:         {spontaneous: true, days: 14},
	TypeSpontaneousWeekly:   {spontaneous: true, days: 7},
	TypeSpontaneousBiweekly: {spontaneous: true, days: 14},
	TypeSpontaneousMonthly:  {spontaneous: true, days: 30},
}

// SubscriptionTypes lists every supported type in display order.
func SubscriptionTypes() []SubscriptionType {
	return []SubscriptionType{
		TypeRecurringWeekly, TypeRecurringBiweekly, TypeRecurringMonthly,
		TypeRecurringQuarterly, TypeRecurringYearly,
		TypeSpontaneous, TypeSpontaneousWeekly, TypeSpontaneousBiweekly, TypeSpontaneousMonthly,
	}
}

// ParseSubscriptionType normalizes s and rejects anything outside the closed set.
func ParseSubscriptionType(s string) (SubscriptionType, error) {
	t := SubscriptionType(strings.ToUpper(strings.TrimSpace(s)))
	if !t.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedCadence, s)
	}
	return t, nil
}

// IsValid reports whether t is a known type.
func (t SubscriptionType) IsValid() bool {
	_, ok := cadences[t]
	return ok
}

// IsSpontaneous reports whether deliveries land at a random point in a window.
func (t SubscriptionType) IsSpontaneous() bool {
	return cadences[t].spontaneous
}

// WindowDays is the random window for spontaneous types and 0 otherwise.
func (t SubscriptionType) WindowDays() int {
	c := cadences[t]
	if !c.spontaneous {
		return 0
	}
	return c.days
}

func (t SubscriptionType) String() string { return string(t) }
