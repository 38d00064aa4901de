package rankings

import (
	"sort"
	"time"
	"tournament-tracker/internal/constants"
	"tournament-tracker/internal/domain"
)

// Compute builds a division's ranking from a matches snapshot. Pure: the
// caller decides where the snapshot comes from, which is what lets a full
// refresh rank all divisions off one fetch.
//
// Matches outside the trailing window or belonging to another division are
// ignored. Zero qualifying matches yields an empty player list, not an
// error.
func Compute(division domain.Division, matches []domain.Match, now time.Time) *domain.RankingsSnapshot {
	cutoff := now.AddDate(0, 0, -constants.RankingsWindowDays)

	stats := make(map[string]*domain.PlayerStat)
	statFor := func(name string) *domain.PlayerStat {
		if s, ok := stats[name]; ok {
			return s
		}
		s := &domain.PlayerStat{Name: name}
		stats[name] = s
		return s
	}

	for _, m := range matches {
		if m.MatchType != division || m.Date.Before(cutoff) {
			continue
		}

		w := statFor(m.Winner)
		w.Wins++
		w.RoundsLost += m.WinnerRoundsLost

		// The sheet only records the winner's rounds lost; the loser
		// is credited the full best-of-5.
		l := statFor(m.Loser)
		l.Losses++
		l.RoundsLost += constants.LoserRoundsLost
	}

	players := make([]domain.PlayerStat, 0, len(stats))
	for _, s := range stats {
		s.Duels = s.Wins + s.Losses
		if s.Duels > 0 {
			s.WinRate = float64(s.Wins) / float64(s.Duels)
			s.ARL = float64(s.RoundsLost) / float64(s.Duels)
		}
		players = append(players, *s)
	}

	// Wins first, then win rate, then fewest average rounds lost. Name
	// breaks full ties so recomputes are deterministic.
	sort.Slice(players, func(i, j int) bool {
		a, b := players[i], players[j]
		if a.Wins != b.Wins {
			return a.Wins > b.Wins
		}
		if a.WinRate != b.WinRate {
			return a.WinRate > b.WinRate
		}
		if a.ARL != b.ARL {
			return a.ARL < b.ARL
		}
		return a.Name < b.Name
	})

	total := len(players)
	if len(players) > constants.RankingsLimit {
		players = players[:constants.RankingsLimit]
	}

	return &domain.RankingsSnapshot{
		Division:     division,
		Players:      players,
		TotalPlayers: total,
		ComputedAt:   now,
		DaysWindow:   constants.RankingsWindowDays,
	}
}
