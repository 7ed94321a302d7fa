// Package app assembles the database, cache, reporter and ratings client
// shared by the pickem CLI and the worker.
package app

import (
	"context"
	"fmt"

	"pickem/ingestion/internal/cache"
	"pickem/ingestion/internal/client"
	"pickem/ingestion/internal/config"
	"pickem/ingestion/internal/registry"
	"pickem/ingestion/internal/report"
	"pickem/ingestion/internal/repository"
	"pickem/ingestion/internal/service"

	"github.com/rs/zerolog/log"
)

// App holds the long-lived dependencies of one process.
type App struct {
	Config   *config.Config
	DB       *repository.Database
	Cache    *cache.RedisCache // nil when Redis is unreachable
	Roster   registry.Source
	Reporter *report.Async
	Service  *service.Service
}

// Open connects to the database and, if reachable, to Redis. name tags the
// error reports this process raises.
func Open(ctx context.Context, cfg *config.Config, name string) (*App, error) {
	db, err := repository.NewDatabase(ctx, cfg.Database())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	a := &App{Config: cfg, DB: db, Roster: db}

	redisCache, err := cache.NewRedisCache(cfg.Redis())
	if err != nil {
		log.Warn().Err(err).Msg("Failed to connect to Redis - continuing without cache")
	} else {
		a.Cache = redisCache
		a.Roster = cache.NewRosterSource(db, redisCache, cfg.CacheTTLRegistry)
		log.Info().Msg("Redis cache connected")
	}

	var sink report.Sink = report.LogSink{}
	if a.Cache != nil {
		sink = report.NewRedisSink(a.Cache.Client(), cfg.ReportChannel)
	}
	a.Reporter = report.NewAsync(name, sink, cfg.ReportBuffer)

	fetcher := client.NewClient(client.Options{
		Timeout:     cfg.SagarinTimeout,
		InsecureTLS: cfg.SagarinInsecureTLS,
		MaxAttempts: cfg.FetchMaxAttempts,
	})

	a.Service = service.New(service.Config{
		Roster:     a.Roster,
		Store:      db,
		Seasons:    db.Seasons,
		Fetcher:    fetcher,
		Reporter:   a.Reporter,
		ByeTeamID:  cfg.ByeTeamID,
		RatingsURL: cfg.SagarinURL,
	})

	return a, nil
}

// InvalidateRoster drops cached rosters after the registry tables change.
func (a *App) InvalidateRoster(ctx context.Context) {
	rs, ok := a.Roster.(*cache.RosterSource)
	if !ok {
		return
	}
	if err := rs.Invalidate(ctx); err != nil {
		log.Warn().Err(err).Msg("Failed to invalidate roster cache")
	}
}

// Close flushes pending reports and releases connections.
func (a *App) Close() {
	if a.Reporter != nil {
		a.Reporter.Close()
	}
	if a.Cache != nil {
		a.Cache.Close()
	}
	a.DB.Close()
}
