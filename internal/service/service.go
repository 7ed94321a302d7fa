// Package service wires the registry, the feeds and the store into the three
// ingestion runs. Every run loads a fresh registry snapshot.
package service

import (
	"context"
	"fmt"

	"pickem/ingestion/internal/batch"
	"pickem/ingestion/internal/feeds"
	"pickem/ingestion/internal/ingest"
	"pickem/ingestion/internal/models"
	"pickem/ingestion/internal/registry"
	"pickem/ingestion/internal/resolve"

	"github.com/rs/zerolog/log"
)

// SeasonFinder looks up the season new schedules and streaks belong to.
type SeasonFinder interface {
	MostRecent(ctx context.Context) (*models.Season, error)
}

// RatingsFetcher downloads and parses a ratings page.
type RatingsFetcher interface {
	FetchRatings(ctx context.Context, url string) (models.RatingsFeed, error)
}

// Config holds the service dependencies.
type Config struct {
	Roster     registry.Source
	Store      ingest.Store
	Seasons    SeasonFinder
	Fetcher    RatingsFetcher
	Reporter   batch.Reporter
	ByeTeamID  string
	RatingsURL string // used when a run names no URL

	DriverOptions []ingest.Option
}

// Service runs ingestion feeds.
type Service struct {
	cfg Config
}

// New creates a service.
func New(cfg Config) *Service {
	return &Service{cfg: cfg}
}

// RunRatings fetches the ratings page at url, or the configured page when url
// is empty, and ingests it.
func (s *Service) RunRatings(ctx context.Context, url string) (*ingest.Summary, error) {
	if url == "" {
		url = s.cfg.RatingsURL
	}

	feed, err := s.cfg.Fetcher.FetchRatings(ctx, url)
	if err != nil {
		return nil, err
	}

	d, err := s.driver(ctx)
	if err != nil {
		return nil, err
	}
	return d.IngestRatings(ctx, feed)
}

// RunSchedule ingests a season schedule for the most recent season.
func (s *Service) RunSchedule(ctx context.Context, schedule feeds.Schedule) (*ingest.Summary, error) {
	season, err := s.cfg.Seasons.MostRecent(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to find season: %w", err)
	}

	d, err := s.driver(ctx)
	if err != nil {
		return nil, err
	}
	return d.IngestSchedule(ctx, season.ID, schedule)
}

// RunStreaks ingests remaining teams and pick types for week of the most
// recent season. types may be nil.
func (s *Service) RunStreaks(ctx context.Context, week int, remaining feeds.Remaining, types feeds.PickTypes) (*ingest.Summary, error) {
	if week < 0 {
		return nil, fmt.Errorf("invalid week number %d", week)
	}

	season, err := s.cfg.Seasons.MostRecent(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to find season: %w", err)
	}

	d, err := s.driver(ctx)
	if err != nil {
		return nil, err
	}
	return d.IngestStreaks(ctx, season.ID, week, remaining, types)
}

func (s *Service) driver(ctx context.Context) (*ingest.Driver, error) {
	reg, err := registry.Load(ctx, s.cfg.Roster, s.cfg.ByeTeamID)
	if err != nil {
		return nil, fmt.Errorf("failed to load registry: %w", err)
	}

	log.Debug().
		Int("team_aliases", reg.Len(registry.Team)).
		Int("picker_aliases", reg.Len(registry.Picker)).
		Msg("Registry snapshot ready")

	return ingest.NewDriver(resolve.New(reg), s.cfg.Reporter, s.cfg.Store, s.cfg.DriverOptions...), nil
}
