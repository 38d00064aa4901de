package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
	"tournament-tracker/internal/cache"
	"tournament-tracker/internal/domain"
	"tournament-tracker/internal/rankings"
	"tournament-tracker/internal/refresh"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEntry struct {
	value     string
	expiresAt time.Time
}

type fakeStore struct {
	mu   sync.Mutex
	data map[string]fakeEntry
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: make(map[string]fakeEntry)}
}

func (s *fakeStore) Ready(ctx context.Context) bool { return true }

func (s *fakeStore) Get(ctx context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ent, ok := s.data[key]
	if !ok || time.Now().After(ent.expiresAt) {
		return "", false, nil
	}
	return ent.value, true, nil
}

func (s *fakeStore) SetEx(ctx context.Context, key, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
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

type fakeProvider struct{}

func (fakeProvider) FetchMatches(ctx context.Context) ([]domain.Match, error) {
	return []domain.Match{
		{Date: time.Now().AddDate(0, 0, -1), Winner: "Hammer", Loser: "Anvil", MatchType: domain.DivisionHLD},
	}, nil
}

func (fakeProvider) FetchRoster(ctx context.Context) (domain.Roster, error) {
	return domain.Roster{}, nil
}

func (fakeProvider) FetchRules(ctx context.Context) (*domain.RulesDocument, error) {
	return &domain.RulesDocument{}, nil
}

func (fakeProvider) FetchPlayers(ctx context.Context) ([]domain.PlayerEntry, error) {
	return nil, nil
}

func (fakeProvider) FetchSignups(ctx context.Context) ([]domain.Signup, error) {
	return nil, nil
}

func (fakeProvider) FetchChampion(ctx context.Context, division domain.Division) (string, error) {
	return "", nil
}

func newTestMux(t *testing.T) *http.ServeMux {
	t.Helper()
	logger := zerolog.Nop()
	st := newFakeStore()
	provider := fakeProvider{}

	matches := cache.NewMatchesCache(st, provider, logger)
	roster := cache.NewRosterCache(st, provider, logger)
	rules := cache.NewRulesCache(st, provider, logger)
	players := cache.NewPlayersCache(st, provider, logger)
	signups := cache.NewSignupsCache(st, provider, logger)
	rankingsSvc := rankings.NewService(matches, provider, st, logger)
	coord := refresh.NewCoordinator(matches, roster, rules, players, signups, rankingsSvc, logger)

	mux := http.NewServeMux()
	NewOpsServer(coord, rankingsSvc, logger).Routes(mux)
	return mux
}

func TestRankingsEndpoint(t *testing.T) {
	mux := newTestMux(t)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/rankings/hld", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var snap domain.RankingsSnapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Equal(t, domain.DivisionHLD, snap.Division)
	assert.Len(t, snap.Players, 2)
}

func TestRankingsEndpointRejectsUnknownDivision(t *testing.T) {
	mux := newTestMux(t)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/rankings/SOLO", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStatusEndpoint(t *testing.T) {
	mux := newTestMux(t)

	// Refresh first so at least the matches domain has a marker.
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/refresh", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/status", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Domains []struct {
			Domain        string     `json:"domain"`
			LastRefreshed *time.Time `json:"last_refreshed"`
			Stale         bool       `json:"stale"`
		} `json:"domains"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Domains, 6, "five domains plus rankings")

	for _, d := range body.Domains {
		assert.NotNil(t, d.LastRefreshed, d.Domain)
		assert.False(t, d.Stale, d.Domain)
	}
}

func TestClearEndpoint(t *testing.T) {
	mux := newTestMux(t)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/refresh", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/cache/clear?domain=matches", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/cache/clear?domain=nonsense", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
