package procurement

import (
	"context"
	"time"
)

// DefaultLockTTL bounds how long a cascade lock is held
const DefaultLockTTL = 30 * time.Second

// Locker serializes cascade operations on the same disbursement across
// instances. Row locks and versions remain authoritative; the lock only
// avoids wasted transactions under contention.
type Locker interface {
	// Obtain acquires the key and returns its release function
	Obtain(ctx context.Context, key string, ttl time.Duration) (release func(context.Context) error, err error)
}

// NoopLocker never blocks
type NoopLocker struct{}

// Obtain returns immediately
func (NoopLocker) Obtain(context.Context, string, time.Duration) (func(context.Context) error, error) {
	return func(context.Context) error { return nil }, nil
}
