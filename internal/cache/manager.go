package cache

import (
	"context"
	"encoding/json"
	"time"
	"tournament-tracker/internal/constants"
	"tournament-tracker/internal/store"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// Domain is the non-generic view of a Manager used by the refresh
// coordinator and the operational status surface.
type Domain interface {
	Name() string
	ForceRefresh(ctx context.Context) error
	LastRefreshed(ctx context.Context) (time.Time, bool)
	Stale(ctx context.Context) bool
	StaleAfter() time.Duration
	Clear(ctx context.Context) error
}

// Manager is a cache-aside front for one domain of sheet data. One instance
// per domain is constructed at process start and passed to whatever needs
// it; there is no package-level state.
//
// The store is advisory: when it is unreachable the manager fetches from
// the source provider directly and the caller never sees a store error.
// A failed source fetch during refresh has no cached fallback and is
// propagated.
type Manager[T any] struct {
	name       string
	dataKey    string
	tsKey      string
	ttl        time.Duration
	staleAfter time.Duration
	store      store.Store
	fetch      func(context.Context) (T, error)
	flight     singleflight.Group
	logger     zerolog.Logger
}

func NewManager[T any](name string, staleAfter time.Duration, st store.Store, fetch func(context.Context) (T, error), logger zerolog.Logger) *Manager[T] {
	return &Manager[T]{
		name:       name,
		dataKey:    name + ":data",
		tsKey:      name + ":updated",
		ttl:        constants.DomainCacheTTL,
		staleAfter: staleAfter,
		store:      st,
		fetch:      fetch,
		logger:     logger.With().Str("cache", name).Logger(),
	}
}

func (m *Manager[T]) Name() string { return m.name }

func (m *Manager[T]) StaleAfter() time.Duration { return m.staleAfter }

// Get returns the domain payload, from cache when possible. Misses trigger
// a coalesced refresh; a failed refresh falls back to one last direct
// source fetch before giving up.
func (m *Manager[T]) Get(ctx context.Context) (T, error) {
	if !m.store.Ready(ctx) {
		m.logger.Debug().Msg("store unreachable, fetching directly")
		return m.fetch(ctx)
	}

	raw, ok, err := m.store.Get(ctx, m.dataKey)
	if err != nil {
		m.logger.Warn().Err(err).Msg("cache read failed, fetching directly")
		return m.fetch(ctx)
	}
	if ok {
		var payload T
		decodeErr := json.Unmarshal([]byte(raw), &payload)
		if decodeErr == nil {
			return payload, nil
		}
		m.logger.Warn().Err(decodeErr).Msg("corrupt cache entry, refreshing")
	}

	payload, err := m.Refresh(ctx)
	if err != nil {
		m.logger.Warn().Err(err).Msg("refresh failed, fetching directly")
		return m.fetch(ctx)
	}
	return payload, nil
}

// Refresh fetches from the source provider and overwrites the cache entry.
// Concurrent callers are collapsed into a single in-flight fetch; every
// waiter gets that flight's payload or error. A source fetch failure is
// propagated. A store write failure is not: it is logged and the fresh
// payload is still returned.
func (m *Manager[T]) Refresh(ctx context.Context) (T, error) {
	result, err, shared := m.flight.Do(m.name, func() (any, error) {
		payload, err := m.fetch(ctx)
		if err != nil {
			return nil, err
		}
		m.write(ctx, payload)
		return payload, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	if shared {
		m.logger.Debug().Msg("refresh coalesced with in-flight fetch")
	}
	return result.(T), nil
}

// ForceRefresh is Refresh for callers that only care whether it worked.
func (m *Manager[T]) ForceRefresh(ctx context.Context) error {
	_, err := m.Refresh(ctx)
	return err
}

func (m *Manager[T]) write(ctx context.Context, payload T) {
	data, err := json.Marshal(payload)
	if err != nil {
		m.logger.Error().Err(err).Msg("failed to marshal payload for cache")
		return
	}
	if err := m.store.SetEx(ctx, m.dataKey, string(data), m.ttl); err != nil {
		m.logger.Warn().Err(err).Msg("cache write failed, returning fetched data uncached")
		return
	}
	if err := m.store.SetEx(ctx, m.tsKey, time.Now().Format(time.RFC3339Nano), m.ttl); err != nil {
		m.logger.Warn().Err(err).Msg("timestamp write failed")
	}
}

// LastRefreshed reads the companion marker key. It reports when the cache
// entry was last written, for operational tooling; Get never consults it.
func (m *Manager[T]) LastRefreshed(ctx context.Context) (time.Time, bool) {
	raw, ok, err := m.store.Get(ctx, m.tsKey)
	if err != nil || !ok {
		return time.Time{}, false
	}
	ts, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}

// IsStale reports whether the last refresh is older than maxAge. A missing
// marker counts as stale.
func (m *Manager[T]) IsStale(ctx context.Context, maxAge time.Duration) bool {
	ts, ok := m.LastRefreshed(ctx)
	if !ok {
		return true
	}
	return time.Since(ts) > maxAge
}

// Stale applies the domain's configured staleness threshold.
func (m *Manager[T]) Stale(ctx context.Context) bool {
	return m.IsStale(ctx, m.staleAfter)
}

// Clear drops the cache entry and its marker. Admin use only; the next Get
// repopulates from the source.
func (m *Manager[T]) Clear(ctx context.Context) error {
	return m.store.Del(ctx, m.dataKey, m.tsKey)
}
