// Package ingest drives name resolution and validation over one parsed input
// and commits the result as a single write-set.
package ingest

import (
	"context"
	"sort"
	"time"

	"pickem/ingestion/internal/batch"
	"pickem/ingestion/internal/metrics"
	"pickem/ingestion/internal/models"
	"pickem/ingestion/internal/resolve"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Feed names used in logs, metrics and reports.
const (
	FeedRatings  = "ratings"
	FeedSchedule = "schedule"
	FeedStreaks  = "streaks"
)

// Store persists one run. Each call must make the parent and all of its
// children visible together or not at all.
type Store interface {
	WriteRatings(ctx context.Context, snap *models.RatingSnapshot, ratings []models.Rating) error
	WriteSchedules(ctx context.Context, snap *models.ScheduleSnapshot, schedules []models.TeamSchedule) error
	WriteStreaks(ctx context.Context, snap *models.StreakSnapshot, streaks []models.Streak) error
}

// Summary describes a committed run.
type Summary struct {
	Feed    string
	RunID   uuid.UUID
	Records int
}

// Driver runs the ingestion feeds against one registry snapshot.
type Driver struct {
	resolver *resolve.Resolver
	reporter batch.Reporter
	store    Store
	now      func() time.Time
	newID    func() uuid.UUID
}

// Option customizes a Driver.
type Option func(*Driver)

// WithClock overrides the clock used for parent record timestamps.
func WithClock(now func() time.Time) Option {
	return func(d *Driver) { d.now = now }
}

// WithIDs overrides run id generation.
func WithIDs(newID func() uuid.UUID) Option {
	return func(d *Driver) { d.newID = newID }
}

// NewDriver creates a driver. reporter may be nil.
func NewDriver(resolver *resolve.Resolver, reporter batch.Reporter, store Store, opts ...Option) *Driver {
	d := &Driver{
		resolver: resolver,
		reporter: reporter,
		store:    store,
		now:      func() time.Time { return time.Now().UTC() },
		newID:    uuid.New,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// finish records metrics and logs for a run that has passed or failed.
func finish(feed string, start time.Time, runID uuid.UUID, records int, err error) {
	duration := time.Since(start).Seconds()
	if err != nil {
		status := "error"
		if batch.IsRunAborted(err) {
			status = "aborted"
		}
		metrics.RecordRun(feed, status, duration)
		return
	}

	metrics.RecordRun(feed, "success", duration)
	metrics.RecordWritten(feed, records)
	log.Info().
		Str("feed", feed).
		Str("run_id", runID.String()).
		Int("records", records).
		Float64("duration_s", duration).
		Msg("Run committed")
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
