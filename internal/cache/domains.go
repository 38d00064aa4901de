package cache

import (
	"tournament-tracker/internal/constants"
	"tournament-tracker/internal/domain"
	"tournament-tracker/internal/source"
	"tournament-tracker/internal/store"

	"github.com/rs/zerolog"
)

// One Manager per sheet domain. The five share the cache-aside behavior and
// week-long TTL; only the payload type, key prefix, and staleness threshold
// differ.
type (
	MatchesCache = Manager[[]domain.Match]
	RosterCache  = Manager[domain.Roster]
	RulesCache   = Manager[*domain.RulesDocument]
	PlayersCache = Manager[[]domain.PlayerEntry]
	SignupsCache = Manager[[]domain.Signup]
)

func NewMatchesCache(st store.Store, src source.Provider, logger zerolog.Logger) *MatchesCache {
	return NewManager("matches", constants.FastStaleThreshold, st, src.FetchMatches, logger)
}

func NewRosterCache(st store.Store, src source.Provider, logger zerolog.Logger) *RosterCache {
	return NewManager("roster", constants.FastStaleThreshold, st, src.FetchRoster, logger)
}

func NewRulesCache(st store.Store, src source.Provider, logger zerolog.Logger) *RulesCache {
	return NewManager("rules", constants.FastStaleThreshold, st, src.FetchRules, logger)
}

func NewPlayersCache(st store.Store, src source.Provider, logger zerolog.Logger) *PlayersCache {
	return NewManager("players", constants.PlayerListStaleThreshold, st, src.FetchPlayers, logger)
}

func NewSignupsCache(st store.Store, src source.Provider, logger zerolog.Logger) *SignupsCache {
	return NewManager("signups", constants.FastStaleThreshold, st, src.FetchSignups, logger)
}
