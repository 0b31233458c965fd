package lock

import (
	"context"
	"sync"
	"time"

	"github.com/xl-c111/Flora-sub001/internal/shared/domain"
)

// LocalLocker is the single-process fallback used when Redis is not configured.
type LocalLocker struct {
	mu     sync.Mutex
	clock  domain.Clock
	held   map[string]localHold
	nextID uint64
}

type localHold struct {
	id        uint64
	expiresAt time.Time
}

// NewLocalLocker creates an in-process locker. A nil clock reads the wall clock.
func NewLocalLocker(clock domain.Clock) *LocalLocker {
	return &LocalLocker{clock: domain.ClockOrSystem(clock), held: make(map[string]localHold)}
}

func (l *LocalLocker) TryAcquire(_ context.Context, key string, ttl time.Duration) (Lease, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()
	if h, ok := l.held[key]; ok && now.Before(h.expiresAt) {
		return nil, false, nil
	}
	l.nextID++
	l.held[key] = localHold{id: l.nextID, expiresAt: now.Add(ttl)}
	return &localLease{locker: l, key: key, id: l.nextID}, true, nil
}

type localLease struct {
	locker *LocalLocker
	key    string
	id     uint64
}

func (l *localLease) Release(context.Context) error {
	l.locker.mu.Lock()
	defer l.locker.mu.Unlock()
	if h, ok := l.locker.held[l.key]; ok && h.id == l.id {
		delete(l.locker.held, l.key)
	}
	return nil
}
