package ingest

import (
	"context"
	"fmt"
	"time"

	"pickem/ingestion/internal/batch"
	"pickem/ingestion/internal/locale"
	"pickem/ingestion/internal/models"

	"github.com/rs/zerolog/log"
)

// IngestSchedule resolves each team and every opponent token. schedule maps a
// team name to its weekly opponent tokens; an empty token is a bye.
func (d *Driver) IngestSchedule(ctx context.Context, seasonID string, schedule map[string][]string) (summary *Summary, err error) {
	start := time.Now()
	snap := &models.ScheduleSnapshot{
		ID:        d.newID(),
		SeasonID:  seasonID,
		CreatedAt: d.now(),
	}
	defer func() {
		finish(FeedSchedule, start, snap.ID, recordsOf(summary), err)
	}()

	log.Info().
		Str("run_id", snap.ID.String()).
		Str("season", seasonID).
		Int("teams", len(schedule)).
		Msg("Ingesting schedule")

	c := batch.NewCollector[models.TeamSchedule](FeedSchedule, d.reporter)
	for _, name := range sortedKeys(schedule) {
		tokens := schedule[name]

		teamID, teamErr := d.resolver.Team(name)
		if teamErr != nil {
			c.Reject(teamErr)
		}

		opponents := make([]string, len(tokens))
		locales := make([]int, len(tokens))
		for i, token := range tokens {
			if locale.IsBye(token) {
				opponents[i] = d.resolver.Bye()
				locales[i] = int(locale.Neutral)
				continue
			}

			opponent, code := locale.Decode(token)
			opponentID, err := d.resolver.Team(opponent)
			if err != nil {
				c.Reject(fmt.Errorf("week %d of %q: %w", i, name, err))
				continue
			}
			opponents[i] = opponentID
			locales[i] = int(code)
		}

		if teamErr != nil {
			continue
		}
		c.Accept(models.TeamSchedule{
			SnapshotID: snap.ID,
			TeamID:     teamID,
			Opponents:  opponents,
			Locales:    locales,
		})
		log.Debug().Str("team_id", teamID).Int("weeks", len(tokens)).Msg("Parsed schedule")
	}

	schedules, err := c.Finalize()
	if err != nil {
		return nil, err
	}

	if err := d.store.WriteSchedules(ctx, snap, schedules); err != nil {
		return nil, fmt.Errorf("failed to write schedule snapshot %s: %w", snap.ID, err)
	}

	return &Summary{Feed: FeedSchedule, RunID: snap.ID, Records: len(schedules)}, nil
}
