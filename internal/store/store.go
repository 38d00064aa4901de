package store

import (
	"context"
	"time"
)

// Store is the key-value contract every cache component works against. The
// Redis implementation is the production backend; tests inject fakes.
//
// No multi-key atomicity is promised: writes are full-value overwrites and
// races between writers resolve to last-writer-wins.
type Store interface {
	// Ready reports whether the store is reachable. Callers that get
	// false bypass caching entirely rather than erroring.
	Ready(ctx context.Context) bool

	// Get returns the raw value and whether the key exists.
	Get(ctx context.Context, key string) (string, bool, error)

	// SetEx writes value under key with a mandatory expiry. No entry is
	// ever written without one.
	SetEx(ctx context.Context, key, value string, ttl time.Duration) error

	Del(ctx context.Context, keys ...string) error
}
