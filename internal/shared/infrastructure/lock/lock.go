// Package lock provides short leases that keep periodic jobs single-instance.
package lock

import (
	"context"
	"time"
)

// Locker hands out leases on named keys. A lease expires after its ttl even if
// the holder dies, so a crashed worker never blocks the next tick for long.
type Locker interface {
	// TryAcquire returns ok=false without error when another holder owns key.
	TryAcquire(ctx context.Context, key string, ttl time.Duration) (lease Lease, ok bool, err error)
}

// Lease is a held lock.
type Lease interface {
	// Release frees the key if this lease still owns it.
	Release(ctx context.Context) error
}
