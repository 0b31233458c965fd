package domain

import (
	"fmt"
	"math/rand/v2"
	"sync"
	"time"
)

// RandomSource draws the day offset for spontaneous deliveries.
type RandomSource interface {
	// IntN returns a uniform integer in [0, n).
	IntN(n int) int
}

// lockedRand makes a *rand.Rand safe for the scanner's concurrent workers.
type lockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

func (l *lockedRand) IntN(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.IntN(n)
}

// NewSeededRandom returns a deterministic source for tests and replays.
func NewSeededRandom(seed uint64) RandomSource {
	return &lockedRand{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

// SchedulePolicy computes the next delivery date for a subscription type.
//
// Recurring types add a fixed number of days, or calendar months. Month
// arithmetic clamps to the last valid day, so Jan 31 plus one month is Feb 29
// in a leap year and Feb 28 otherwise. Spontaneous types add a uniformly drawn
// number of days in [1, WindowDays].
type SchedulePolicy struct {
	random RandomSource
}

// NewSchedulePolicy creates a policy. A nil source uses the process-wide generator.
func NewSchedulePolicy(random RandomSource) *SchedulePolicy {
	if random == nil {
		random = globalRand{}
	}
	return &SchedulePolicy{random: random}
}

// Next returns the delivery date following reference for type t.
func (p *SchedulePolicy) Next(reference time.Time, t SubscriptionType) (time.Time, error) {
	c, ok := cadences[t]
	if !ok {
		return time.Time{}, fmt.Errorf("%w: %q", ErrUnsupportedCadence, t)
	}
	switch {
	case c.spontaneous:
		return reference.AddDate(0, 0, 1+p.random.IntN(c.days)), nil
	case c.months > 0:
		return AddMonthsClamped(reference, c.months), nil
	default:
		return reference.AddDate(0, 0, c.days), nil
	}
}

// NextAfter steps from reference until the result is strictly after floor, so an
// overdue subscription lands on its next slot instead of being due again at once.
func (p *SchedulePolicy) NextAfter(reference, floor time.Time, t SubscriptionType) (time.Time, error) {
	const maxSteps = 10000

	next, err := p.Next(reference, t)
	for i := 0; err == nil && !next.After(floor); i++ {
		if i == maxSteps {
			return time.Time{}, fmt.Errorf("schedule for %s did not pass %s", t, floor.Format(time.DateOnly))
		}
		next, err = p.Next(next, t)
	}
	return next, err
}

// AddMonthsClamped adds months to t, keeping the time of day and clamping the
// day to the last day of the target month.
func AddMonthsClamped(t time.Time, months int) time.Time {
	year, month, day := t.Date()
	firstOfTarget := time.Date(year, month+time.Month(months), 1, 0, 0, 0, 0, t.Location())
	lastDay := firstOfTarget.AddDate(0, 1, -1).Day()
	if day > lastDay {
		day = lastDay
	}
	hour, minute, sec := t.Clock()
	return time.Date(firstOfTarget.Year(), firstOfTarget.Month(), day, hour, minute, sec, t.Nanosecond(), t.Location())
}
