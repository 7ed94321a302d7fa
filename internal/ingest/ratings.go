package ingest

import (
	"context"
	"fmt"
	"time"

	"pickem/ingestion/internal/batch"
	"pickem/ingestion/internal/models"

	"github.com/rs/zerolog/log"
)

// IngestRatings resolves every rated team and writes the snapshot only if all
// of them resolved.
func (d *Driver) IngestRatings(ctx context.Context, feed models.RatingsFeed) (summary *Summary, err error) {
	start := time.Now()
	snap := &models.RatingSnapshot{
		ID:            d.newID(),
		Source:        feed.Source,
		HomeAdvantage: feed.HomeAdvantage,
		FetchedAt:     feed.Timestamp,
		CreatedAt:     d.now(),
	}
	defer func() {
		finish(FeedRatings, start, snap.ID, recordsOf(summary), err)
	}()

	log.Info().
		Str("run_id", snap.ID.String()).
		Str("source", feed.Source).
		Int("teams", len(feed.Ratings)).
		Float64("home_advantage", feed.HomeAdvantage).
		Msg("Ingesting ratings")

	c := batch.NewCollector[models.Rating](FeedRatings, d.reporter)
	for _, name := range sortedKeys(feed.Ratings) {
		teamID, err := d.resolver.Team(name)
		if err != nil {
			c.Reject(err)
			continue
		}
		c.Accept(models.Rating{
			SnapshotID:  snap.ID,
			TeamID:      teamID,
			DisplayName: name,
			Rating:      feed.Ratings[name],
		})
		log.Debug().Str("name", name).Str("team_id", teamID).Msg("Linked team")
	}

	ratings, err := c.Finalize()
	if err != nil {
		return nil, err
	}

	if err := d.store.WriteRatings(ctx, snap, ratings); err != nil {
		return nil, fmt.Errorf("failed to write ratings snapshot %s: %w", snap.ID, err)
	}

	return &Summary{Feed: FeedRatings, RunID: snap.ID, Records: len(ratings)}, nil
}

func recordsOf(s *Summary) int {
	if s == nil {
		return 0
	}
	return s.Records
}
