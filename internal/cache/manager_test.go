package cache

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
	"tournament-tracker/internal/domain"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEntry struct {
	value     string
	expiresAt time.Time
}

// fakeStore is an in-memory Store with TTL semantics and failure toggles.
type fakeStore struct {
	mu         sync.Mutex
	data       map[string]fakeEntry
	unready    bool
	failReads  bool
	failWrites bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: make(map[string]fakeEntry)}
}

func (s *fakeStore) Ready(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.unready
}

func (s *fakeStore) Get(ctx context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failReads {
		return "", false, errors.New("store read refused")
	}
	ent, ok := s.data[key]
	if !ok || time.Now().After(ent.expiresAt) {
		delete(s.data, key)
		return "", false, nil
	}
	return ent.value, true, nil
}

func (s *fakeStore) SetEx(ctx context.Context, key, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWrites {
		return errors.New("store write refused")
	}
	s.data[key] = fakeEntry{value: value, expiresAt: time.Now().Add(ttl)}
	return nil
}

func (s *fakeStore) Del(ctx context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		delete(s.data, k)
	}
	return nil
}

func (s *fakeStore) ttlOf(key string) (time.Duration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ent, ok := s.data[key]
	if !ok {
		return 0, false
	}
	return time.Until(ent.expiresAt), true
}

// countingFetch wraps a payload in a source fetch that counts calls and can
// be made slow or failing.
type countingFetch[T any] struct {
	calls   atomic.Int32
	payload T
	err     error
	delay   time.Duration
}

func (f *countingFetch[T]) fetch(ctx context.Context) (T, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.err != nil {
		var zero T
		return zero, f.err
	}
	return f.payload, nil
}

func testMatches() []domain.Match {
	return []domain.Match{
		{
			Date:             time.Now().AddDate(0, 0, -1),
			Winner:           "Alice",
			Loser:            "Bob",
			WinnerRoundsLost: 1,
			MatchType:        domain.DivisionHLD,
		},
	}
}

func newTestManager(st *fakeStore, fetch *countingFetch[[]domain.Match]) *Manager[[]domain.Match] {
	return NewManager("matches", 24*time.Hour, st, fetch.fetch, zerolog.Nop())
}

func TestGetMissThenHit(t *testing.T) {
	ctx := context.Background()
	st := newFakeStore()
	fetch := &countingFetch[[]domain.Match]{payload: testMatches()}
	m := newTestManager(st, fetch)

	first, err := m.Get(ctx)
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, int32(1), fetch.calls.Load())

	// Second call within TTL hits the cache; payloads are identical and
	// the source is not consulted again.
	second, err := m.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), fetch.calls.Load())
}

func TestGetUsesExistingEntry(t *testing.T) {
	ctx := context.Background()
	st := newFakeStore()
	cached := testMatches()
	raw, err := json.Marshal(cached)
	require.NoError(t, err)
	require.NoError(t, st.SetEx(ctx, "matches:data", string(raw), time.Hour))

	fetch := &countingFetch[[]domain.Match]{payload: nil}
	m := newTestManager(st, fetch)

	got, err := m.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Alice", got[0].Winner)
	assert.Equal(t, int32(0), fetch.calls.Load(), "cache hit must not touch the source")
}

func TestGetDegradesWhenStoreUnreachable(t *testing.T) {
	ctx := context.Background()
	st := newFakeStore()
	st.unready = true
	fetch := &countingFetch[[]domain.Match]{payload: testMatches()}
	m := newTestManager(st, fetch)

	got, err := m.Get(ctx)
	require.NoError(t, err, "store outage must not surface to the caller")
	assert.Len(t, got, 1)
	assert.Equal(t, int32(1), fetch.calls.Load())

	// Nothing was cached, so every call goes to the source.
	_, err = m.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(2), fetch.calls.Load())
}

func TestGetDegradesOnReadError(t *testing.T) {
	ctx := context.Background()
	st := newFakeStore()
	st.failReads = true
	fetch := &countingFetch[[]domain.Match]{payload: testMatches()}
	m := newTestManager(st, fetch)

	got, err := m.Get(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestRefreshCoalescesConcurrentCallers(t *testing.T) {
	ctx := context.Background()
	st := newFakeStore()
	fetch := &countingFetch[[]domain.Match]{payload: testMatches(), delay: 100 * time.Millisecond}
	m := newTestManager(st, fetch)

	const callers = 10
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = m.Refresh(ctx)
		}()
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), fetch.calls.Load(), "concurrent refreshes must collapse into one fetch")
}

func TestRefreshPropagatesSourceFailure(t *testing.T) {
	ctx := context.Background()
	st := newFakeStore()
	fetch := &countingFetch[[]domain.Match]{err: errors.New("sheet quota exceeded")}
	m := newTestManager(st, fetch)

	_, err := m.Refresh(ctx)
	require.Error(t, err)
	assert.ErrorContains(t, err, "sheet quota exceeded")
}

func TestRefreshSwallowsWriteFailure(t *testing.T) {
	ctx := context.Background()
	st := newFakeStore()
	st.failWrites = true
	fetch := &countingFetch[[]domain.Match]{payload: testMatches()}
	m := newTestManager(st, fetch)

	got, err := m.Refresh(ctx)
	require.NoError(t, err, "a failed cache write must not fail the refresh")
	assert.Len(t, got, 1)
}

func TestRefreshWritesWithTTL(t *testing.T) {
	ctx := context.Background()
	st := newFakeStore()
	fetch := &countingFetch[[]domain.Match]{payload: testMatches()}
	m := newTestManager(st, fetch)

	_, err := m.Refresh(ctx)
	require.NoError(t, err)

	ttl, ok := st.ttlOf("matches:data")
	require.True(t, ok)
	assert.Greater(t, ttl, 6*24*time.Hour, "entries are written with the week-long TTL")
}

func TestGetFallsBackToDirectFetchAfterFailedRefresh(t *testing.T) {
	ctx := context.Background()
	st := newFakeStore()

	var calls atomic.Int32
	fetch := func(ctx context.Context) ([]domain.Match, error) {
		if calls.Add(1) == 1 {
			return nil, errors.New("transient source error")
		}
		return testMatches(), nil
	}
	m := NewManager("matches", 24*time.Hour, st, fetch, zerolog.Nop())

	got, err := m.Get(ctx)
	require.NoError(t, err, "the direct-fetch fallback should rescue the call")
	assert.Len(t, got, 1)
	assert.Equal(t, int32(2), calls.Load())
}

func TestStalenessBoundary(t *testing.T) {
	ctx := context.Background()
	st := newFakeStore()
	fetch := &countingFetch[[]domain.Match]{payload: testMatches()}
	m := newTestManager(st, fetch)

	assert.True(t, m.IsStale(ctx, time.Millisecond), "no marker yet means stale")

	_, err := m.Refresh(ctx)
	require.NoError(t, err)

	assert.False(t, m.IsStale(ctx, time.Second), "fresh immediately after refresh")

	time.Sleep(5 * time.Millisecond)
	assert.True(t, m.IsStale(ctx, time.Millisecond), "stale once the window lapses")

	ts, ok := m.LastRefreshed(ctx)
	require.True(t, ok)
	assert.WithinDuration(t, time.Now(), ts, time.Second)
}

func TestClearForcesNextGetToRefetch(t *testing.T) {
	ctx := context.Background()
	st := newFakeStore()
	fetch := &countingFetch[[]domain.Match]{payload: testMatches()}
	m := newTestManager(st, fetch)

	_, err := m.Get(ctx)
	require.NoError(t, err)
	require.NoError(t, m.Clear(ctx))

	_, ok := m.LastRefreshed(ctx)
	assert.False(t, ok, "clear drops the marker too")

	_, err = m.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(2), fetch.calls.Load())
}

func TestCorruptEntryTriggersRefresh(t *testing.T) {
	ctx := context.Background()
	st := newFakeStore()
	require.NoError(t, st.SetEx(ctx, "matches:data", "{not json", time.Hour))

	fetch := &countingFetch[[]domain.Match]{payload: testMatches()}
	m := newTestManager(st, fetch)

	got, err := m.Get(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, int32(1), fetch.calls.Load())
}
