package domain

import (
	"time"
)

// Match is one recorded duel, parsed from a sheet row at the source
// boundary so downstream code never touches positional fields.
type Match struct {
	Date             time.Time `json:"date"`
	Winner           string    `json:"winner"`
	WinnerClass      string    `json:"winner_class"`
	WinnerBuild      string    `json:"winner_build"`
	Loser            string    `json:"loser"`
	LoserClass       string    `json:"loser_class"`
	LoserBuild       string    `json:"loser_build"`
	WinnerRoundsLost int       `json:"winner_rounds_lost"`
	MatchType        Division  `json:"match_type"`
	Title            string    `json:"title"`
}

// RosterEntry maps a player's registered identities. The roster payload is
// keyed by UUID, unique per player.
type RosterEntry struct {
	UUID        string `json:"uuid"`
	ArenaName   string `json:"arena_name"`
	DataName    string `json:"data_name"`
	DiscordName string `json:"discord_name"`
}

type Roster map[string]RosterEntry

type RuleSection struct {
	Heading string `json:"heading"`
	Body    string `json:"body"`
}

type RulesDocument struct {
	Title    string        `json:"title"`
	Sections []RuleSection `json:"sections"`
	Revised  string        `json:"revised"`
}

// PlayerEntry is one row of the registered player list.
type PlayerEntry struct {
	Name        string `json:"name"`
	DiscordName string `json:"discord_name"`
	Timezone    string `json:"timezone"`
	Joined      string `json:"joined"`
}

// Signup is one pending tournament signup row.
type Signup struct {
	SubmittedAt time.Time `json:"submitted_at"`
	PlayerName  string    `json:"player_name"`
	Division    Division  `json:"division"`
	Class       string    `json:"class"`
	Build       string    `json:"build"`
	Notes       string    `json:"notes"`
}

// PlayerStat is one ranked player's accumulated record over the rankings
// window.
type PlayerStat struct {
	Name       string  `json:"name"`
	Wins       int     `json:"wins"`
	Losses     int     `json:"losses"`
	WinRate    float64 `json:"win_rate"`
	RoundsLost int     `json:"rounds_lost"`
	Duels      int     `json:"duels"`
	ARL        float64 `json:"arl"`
}

type ChampionRef struct {
	Name string `json:"name"`
}

// RankingsSnapshot is a wholesale-computed ranking for one division. It is
// never patched incrementally; every refresh replaces it entirely.
type RankingsSnapshot struct {
	Division     Division     `json:"division"`
	Players      []PlayerStat `json:"players"`
	Champion     *ChampionRef `json:"champion,omitempty"`
	TotalPlayers int          `json:"total_players"`
	ComputedAt   time.Time    `json:"computed_at"`
	DaysWindow   int          `json:"days_window"`
}

// Session is the mutable step-state of one user's in-flight wizard (match
// report, signup). Each step does a full read-modify-write of the whole
// object; last writer wins.
type Session struct {
	UserID    string            `json:"user_id"`
	Flow      string            `json:"flow"`
	Step      int               `json:"step"`
	Fields    map[string]string `json:"fields"`
	StartedAt time.Time         `json:"started_at"`
}
