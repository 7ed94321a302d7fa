package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"pickem/ingestion/internal/batch"
	"pickem/ingestion/internal/ingest"
	"pickem/ingestion/internal/metrics"

	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// Trigger sources
const (
	SourceCron  = "cron"
	SourceRedis = "redis"
	SourceHTTP  = "http"
)

// ErrNotStarted is returned by Trigger before Start or after Stop.
var ErrNotStarted = errors.New("scheduler not running")

// RatingsRunner runs one ratings ingestion. An empty url means the default page.
type RatingsRunner interface {
	RunRatings(ctx context.Context, url string) (*ingest.Summary, error)
}

// Options configures the scheduler
type Options struct {
	// ScrapeCron is a standard 5-field cron spec. Empty disables the cron entry.
	ScrapeCron string
	// TriggerChannel is the Redis channel carrying scrape messages. Ignored
	// without a Redis client.
	TriggerChannel string
}

// Scheduler starts ratings runs from a cron entry, Redis scrape messages and
// direct triggers. Runs may overlap; each gets its own registry snapshot.
type Scheduler struct {
	opts   Options
	runner RatingsRunner
	rdb    *redis.Client
	cron   *cron.Cron

	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	running sync.WaitGroup
	sub     *TriggerSubscription
}

// NewScheduler creates a new scheduler instance. rdb may be nil.
func NewScheduler(opts Options, runner RatingsRunner, rdb *redis.Client) *Scheduler {
	return &Scheduler{
		opts:   opts,
		runner: runner,
		rdb:    rdb,
		cron:   cron.New(),
	}
}

// Start starts the scheduler
func (s *Scheduler) Start(ctx context.Context) error {
	log.Info().Msg("Scheduler starting...")

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctx != nil {
		return fmt.Errorf("scheduler already started")
	}

	runCtx, cancel := context.WithCancel(ctx)

	if s.opts.ScrapeCron != "" {
		if _, err := s.cron.AddFunc(s.opts.ScrapeCron, func() {
			if err := s.Trigger(SourceCron, ""); err != nil {
				log.Warn().Err(err).Msg("Scheduled scrape skipped")
			}
		}); err != nil {
			cancel()
			return fmt.Errorf("failed to schedule ratings scrape: %w", err)
		}
		log.Info().
			Str("schedule", s.opts.ScrapeCron).
			Msg("Ratings scrape scheduled")
	}

	if s.rdb != nil && s.opts.TriggerChannel != "" {
		sub, err := SubscribeTriggers(runCtx, s.rdb, s.opts.TriggerChannel)
		if err != nil {
			cancel()
			return err
		}
		s.sub = sub
		go s.consumeTriggers(sub)
		log.Info().
			Str("channel", s.opts.TriggerChannel).
			Msg("Listening for scrape messages")
	}

	s.ctx, s.cancel = runCtx, cancel
	s.cron.Start()
	return nil
}

// Stop stops accepting triggers and waits for in-flight runs to finish
func (s *Scheduler) Stop() {
	log.Info().Msg("Stopping scheduler...")

	<-s.cron.Stop().Done()

	s.mu.Lock()
	if s.sub != nil {
		s.sub.Close()
	}
	cancel := s.cancel
	s.ctx, s.cancel = nil, nil
	s.mu.Unlock()

	s.running.Wait()
	if cancel != nil {
		cancel()
	}

	log.Info().Msg("Scheduler stopped")
}

// Trigger starts a ratings run in the background
func (s *Scheduler) Trigger(source, url string) error {
	s.mu.Lock()
	ctx := s.ctx
	if ctx == nil {
		s.mu.Unlock()
		return ErrNotStarted
	}
	s.running.Add(1)
	s.mu.Unlock()

	metrics.RecordTrigger(source)
	log.Info().
		Str("source", source).
		Str("url", url).
		Msg("Ratings run triggered")

	go func() {
		defer s.running.Done()
		s.run(ctx, source, url)
	}()
	return nil
}

func (s *Scheduler) run(ctx context.Context, source, url string) {
	start := time.Now()
	summary, err := s.runner.RunRatings(ctx, url)

	var aborted *batch.RunAbortedError
	switch {
	case errors.As(err, &aborted):
		log.Error().
			Str("source", source).
			Int("errors", aborted.Counts.Total()).
			Str("counts", aborted.Counts.String()).
			Msg("Ratings run aborted, fix the registry and trigger again")
	case err != nil:
		log.Error().
			Err(err).
			Str("source", source).
			Msg("Ratings run failed")
	default:
		log.Info().
			Str("source", source).
			Str("run_id", summary.RunID.String()).
			Int("records", summary.Records).
			Dur("duration", time.Since(start)).
			Msg("Ratings run complete")
	}
}

// consumeTriggers starts a run for every scrape message until the subscription closes
func (s *Scheduler) consumeTriggers(sub *TriggerSubscription) {
	events, errs := sub.Events(), sub.Errors()
	for events != nil || errs != nil {
		select {
		case msg, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if err := s.Trigger(SourceRedis, msg.URL); err != nil {
				log.Warn().Err(err).Msg("Scrape message dropped")
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			log.Warn().Err(err).Msg("Bad scrape message")
		}
	}
	log.Info().Msg("Scrape message listener stopped")
}
