// Package cache is a TTL key/value store for gateway results. Analysis
// for a given spot on the map does not change minute to minute, so a
// hit saves a full round of model calls.
//
// The contract is deliberately error-free: a broken store degrades to a
// cache that always misses, and the gateway stays correct but uncached.
package cache

import (
	"context"
	"time"
)

// Store is a point-lookup TTL cache. Get reports a miss for absent and
// expired keys alike. Neither method returns an error; implementations
// swallow storage failures.
type Store interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, value string, ttl time.Duration)
}

// Sizer is implemented by stores that can report how many live entries
// they hold. Used by the admin stats endpoint.
type Sizer interface {
	Size(ctx context.Context) int64
}
