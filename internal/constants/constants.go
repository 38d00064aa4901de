package constants

import "time"

const (
	DomainCacheTTL = 7 * 24 * time.Hour
	SessionTTL     = 10 * time.Minute
)

// Staleness thresholds are reporting configuration for operational tooling,
// not an eviction policy. The player list changes rarely and gets a week.
const (
	FastStaleThreshold       = 24 * time.Hour
	PlayerListStaleThreshold = 7 * 24 * time.Hour
)

const (
	ExternalAPITimeout = 10 * time.Second
	StoreTimeout       = 5 * time.Second
	RequestTimeout     = 30 * time.Second
)

const (
	RankingsWindowDays = 100
	RankingsLimit      = 30

	// Rounds lost credited to the losing side of a duel. The sheet only
	// records the winner's rounds lost; the loser is assumed to have
	// dropped the full best-of-5.
	LoserRoundsLost = 3
)

const (
	ShutdownTimeout = 5 * time.Second
)
