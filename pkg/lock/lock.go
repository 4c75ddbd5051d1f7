// Package lock provides keyed mutual exclusion, in process or across
// instances through Redis.
package lock

import (
	"context"
	"errors"
	"time"

	"github.com/shashiranjanraj/storefront/pkg/metrics"
)

// ErrNotAcquired is returned when the context ends before the lock is won.
var ErrNotAcquired = errors.New("lock: not acquired")

// Locker hands out exclusive locks by key. The returned release func is
// safe to call more than once.
type Locker interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

func observeWait(driver string, start time.Time) {
	metrics.LockWait.WithLabelValues(driver).Observe(time.Since(start).Seconds())
}
