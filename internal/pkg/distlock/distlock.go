// Package distlock provides distributed locking so that exactly one server
// process dispatches a given announcement when multiple instances run.
package distlock

import (
	"context"
	"time"
)

// Lock is a distributed mutual-exclusion primitive.
type Lock interface {
	// Acquire tries to take the lock. Returns true if this process now owns it.
	Acquire(ctx context.Context) (bool, error)
	// Release releases the lock if still owned by this process.
	Release(ctx context.Context) error
	// Extend renews the lock TTL for long-running work.
	Extend(ctx context.Context, ttl time.Duration) error
}
