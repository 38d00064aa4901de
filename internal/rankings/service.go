package rankings

import (
	"context"
	"encoding/json"
	"time"
	"tournament-tracker/internal/cache"
	"tournament-tracker/internal/constants"
	"tournament-tracker/internal/domain"
	"tournament-tracker/internal/source"
	"tournament-tracker/internal/store"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

const tsKey = "rankings:updated"

// Service is the derived aggregation cache over the matches domain. Each
// division's snapshot is cached under its own key with the same TTL and
// coalescing discipline as the domain caches.
type Service struct {
	matches *cache.MatchesCache
	src     source.Provider
	store   store.Store
	flight  singleflight.Group
	logger  zerolog.Logger
}

func NewService(matches *cache.MatchesCache, src source.Provider, st store.Store, logger zerolog.Logger) *Service {
	return &Service{
		matches: matches,
		src:     src,
		store:   st,
		logger:  logger.With().Str("cache", "rankings").Logger(),
	}
}

func snapshotKey(division domain.Division) string {
	return "rankings:" + string(division)
}

// Get returns the division's ranking, computing and caching it on a miss.
func (s *Service) Get(ctx context.Context, division domain.Division) (*domain.RankingsSnapshot, error) {
	if !s.store.Ready(ctx) {
		s.logger.Debug().Str("division", string(division)).Msg("store unreachable, computing directly")
		return s.computeDivision(ctx, division, nil)
	}

	raw, ok, err := s.store.Get(ctx, snapshotKey(division))
	if err == nil && ok {
		var snap domain.RankingsSnapshot
		decodeErr := json.Unmarshal([]byte(raw), &snap)
		if decodeErr == nil {
			return &snap, nil
		}
		s.logger.Warn().Err(decodeErr).Str("division", string(division)).Msg("corrupt rankings entry, recomputing")
	}

	return s.refreshDivision(ctx, division)
}

// refreshDivision computes one division from the matches cache, coalescing
// concurrent callers per division key.
func (s *Service) refreshDivision(ctx context.Context, division domain.Division) (*domain.RankingsSnapshot, error) {
	result, err, _ := s.flight.Do(snapshotKey(division), func() (any, error) {
		return s.computeDivision(ctx, division, nil)
	})
	if err != nil {
		return nil, err
	}
	return result.(*domain.RankingsSnapshot), nil
}

// computeDivision ranks one division. A non-nil matchesSnapshot is used
// as-is (the full-refresh path); otherwise the matches cache is consulted.
func (s *Service) computeDivision(ctx context.Context, division domain.Division, matchesSnapshot []domain.Match) (*domain.RankingsSnapshot, error) {
	matches := matchesSnapshot
	if matches == nil {
		var err error
		matches, err = s.matches.Get(ctx)
		if err != nil {
			return nil, err
		}
	}

	snap := Compute(division, matches, time.Now())
	s.attachChampion(ctx, snap)
	s.write(ctx, snap)
	return snap, nil
}

// RefreshAll recomputes every division from a single matches snapshot so
// the three rankings are time-consistent, then stamps the shared marker.
func (s *Service) RefreshAll(ctx context.Context) error {
	matches, err := s.matches.Get(ctx)
	if err != nil {
		return err
	}

	for _, division := range domain.Divisions() {
		snap := Compute(division, matches, time.Now())
		s.attachChampion(ctx, snap)
		s.write(ctx, snap)
		s.logger.Info().
			Str("division", string(division)).
			Int("players", len(snap.Players)).
			Int("total_players", snap.TotalPlayers).
			Msg("division rankings refreshed")
	}

	if err := s.store.SetEx(ctx, tsKey, time.Now().Format(time.RFC3339Nano), constants.DomainCacheTTL); err != nil {
		s.logger.Warn().Err(err).Msg("rankings timestamp write failed")
	}
	return nil
}

// attachChampion resolves the division's current champion with a live
// lookup and attaches it only when that player appears in the ranked list.
func (s *Service) attachChampion(ctx context.Context, snap *domain.RankingsSnapshot) {
	name, err := s.src.FetchChampion(ctx, snap.Division)
	if err != nil {
		s.logger.Warn().Err(err).Str("division", string(snap.Division)).Msg("champion lookup failed")
		return
	}
	if name == "" {
		return
	}
	for _, p := range snap.Players {
		if p.Name == name {
			snap.Champion = &domain.ChampionRef{Name: name}
			return
		}
	}
}

func (s *Service) write(ctx context.Context, snap *domain.RankingsSnapshot) {
	data, err := json.Marshal(snap)
	if err != nil {
		s.logger.Error().Err(err).Str("division", string(snap.Division)).Msg("failed to marshal rankings")
		return
	}
	if err := s.store.SetEx(ctx, snapshotKey(snap.Division), string(data), constants.DomainCacheTTL); err != nil {
		s.logger.Warn().Err(err).Str("division", string(snap.Division)).Msg("rankings write failed, returning uncached")
	}
}

// Clear drops every division snapshot and the shared marker.
func (s *Service) Clear(ctx context.Context) error {
	keys := make([]string, 0, len(domain.Divisions())+1)
	for _, division := range domain.Divisions() {
		keys = append(keys, snapshotKey(division))
	}
	keys = append(keys, tsKey)
	return s.store.Del(ctx, keys...)
}

func (s *Service) LastRefreshed(ctx context.Context) (time.Time, bool) {
	raw, ok, err := s.store.Get(ctx, tsKey)
	if err != nil || !ok {
		return time.Time{}, false
	}
	ts, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}
