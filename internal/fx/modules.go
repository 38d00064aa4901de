package fx

import (
	"tournament-tracker/internal/cache"
	"tournament-tracker/internal/config"
	"tournament-tracker/internal/logger"
	"tournament-tracker/internal/rankings"
	"tournament-tracker/internal/refresh"
	"tournament-tracker/internal/server"
	"tournament-tracker/internal/source"
	"tournament-tracker/internal/store"

	"go.uber.org/fx"
)

var Module = fx.Options(
	fx.Provide(logger.New),
	fx.Provide(config.Load),
	fx.Provide(fx.Annotate(store.NewRedis, fx.As(new(store.Store)))),
	// source provider
	fx.Provide(fx.Annotate(source.NewClient, fx.As(new(source.Provider)))),
	// domain caches
	fx.Provide(cache.NewMatchesCache),
	fx.Provide(cache.NewRosterCache),
	fx.Provide(cache.NewRulesCache),
	fx.Provide(cache.NewPlayersCache),
	fx.Provide(cache.NewSignupsCache),
	fx.Provide(cache.NewSessions),
	// derived rankings
	fx.Provide(rankings.NewService),
	// refresh orchestration
	fx.Provide(refresh.NewCoordinator),
	fx.Provide(refresh.NewScheduler),
	// ops surface
	fx.Provide(server.NewOpsServer),
)
