// Package cache holds the injected key-value abstraction and the
// subject-keyed validation cache built on top of it. All eviction happens
// through explicit calls co-located with the mutating operation; nothing here
// evicts as a hidden side effect.
package cache

import (
	"context"
	"time"
)

// KeyValue is the process-wide cache abstraction. Implementations must be
// safe for concurrent use and evictions must be visible to subsequent Gets.
type KeyValue interface {
	// Get returns the value and whether the key was present.
	Get(ctx context.Context, key string) (string, bool, error)
	Put(ctx context.Context, key string, value string, ttl time.Duration) error
	Evict(ctx context.Context, keys ...string) error
}
