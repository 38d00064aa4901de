package refresh

import (
	"context"
	"sync/atomic"
	"time"
	"tournament-tracker/internal/cache"
	"tournament-tracker/internal/rankings"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Coordinator drives synchronized full refreshes of every domain cache plus
// the rankings. Domain refreshes run in parallel and independently: one
// domain failing never aborts the others. Rankings always run after the
// domain phase so they compute from the matches data refreshed in the same
// cycle.
type Coordinator struct {
	matches  *cache.MatchesCache
	domains  []cache.Domain
	rankings *rankings.Service
	logger   zerolog.Logger
}

func NewCoordinator(
	matches *cache.MatchesCache,
	roster *cache.RosterCache,
	rules *cache.RulesCache,
	players *cache.PlayersCache,
	signups *cache.SignupsCache,
	rankingsSvc *rankings.Service,
	logger zerolog.Logger,
) *Coordinator {
	return &Coordinator{
		matches:  matches,
		domains:  []cache.Domain{matches, roster, rules, players, signups},
		rankings: rankingsSvc,
		logger:   logger.With().Str("component", "refresh").Logger(),
	}
}

// Domains exposes the managed caches for the operational status surface.
func (c *Coordinator) Domains() []cache.Domain {
	return c.domains
}

// RunCycle refreshes all five domains, then the rankings. Per-domain
// failures are logged and counted, never propagated; the returned error is
// reserved for the rankings phase.
func (c *Coordinator) RunCycle(ctx context.Context) error {
	cycleID, err := gonanoid.New(8)
	if err != nil {
		cycleID = "unknown"
	}
	logger := c.logger.With().Str("cycle_id", cycleID).Logger()

	start := time.Now()
	logger.Info().Msg("refresh cycle starting")

	var failed atomic.Int32
	var g errgroup.Group
	for _, d := range c.domains {
		g.Go(func() error {
			if err := d.ForceRefresh(ctx); err != nil {
				failed.Add(1)
				logger.Error().Err(err).Str("domain", d.Name()).Msg("domain refresh failed")
				return nil
			}
			logger.Info().Str("domain", d.Name()).Msg("domain refreshed")
			return nil
		})
	}
	_ = g.Wait()

	rankErr := c.rankings.RefreshAll(ctx)
	if rankErr != nil {
		logger.Error().Err(rankErr).Msg("rankings refresh failed")
	}

	logger.Info().
		Int32("failed_domains", failed.Load()).
		Dur("duration", time.Since(start)).
		Msg("refresh cycle completed")
	return rankErr
}

// RefreshMatchData is the targeted refresh triggered after a match report
// lands in the sheet: matches first, then the rankings derived from them.
func (c *Coordinator) RefreshMatchData(ctx context.Context) error {
	if err := c.matches.ForceRefresh(ctx); err != nil {
		return err
	}
	return c.rankings.RefreshAll(ctx)
}
