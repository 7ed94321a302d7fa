package ingest

import (
	"context"
	"fmt"
	"time"

	"pickem/ingestion/internal/batch"
	"pickem/ingestion/internal/models"
	"pickem/ingestion/internal/picktypes"

	"github.com/rs/zerolog/log"
)

// IngestStreaks resolves each picker and their remaining teams and checks the
// picker's pick-type distribution. types may be nil, and pickers missing from
// it get one single-team pick per remaining team.
func (d *Driver) IngestStreaks(ctx context.Context, seasonID string, week int, remaining map[string][]string, types map[string][]int) (summary *Summary, err error) {
	if week < 0 {
		return nil, fmt.Errorf("invalid week number %d", week)
	}

	start := time.Now()
	snap := &models.StreakSnapshot{
		ID:        d.newID(),
		SeasonID:  seasonID,
		Week:      week,
		CreatedAt: d.now(),
	}
	defer func() {
		finish(FeedStreaks, start, snap.ID, recordsOf(summary), err)
	}()

	log.Info().
		Str("run_id", snap.ID.String()).
		Str("season", seasonID).
		Int("week", week).
		Int("pickers", len(remaining)).
		Bool("explicit_types", types != nil).
		Msg("Ingesting streaks")

	for _, name := range sortedKeys(types) {
		if _, ok := remaining[name]; !ok {
			log.Warn().Str("picker", name).Msg("Pick types given for picker with no remaining teams, ignoring")
		}
	}

	c := batch.NewCollector[models.Streak](FeedStreaks, d.reporter)
	for _, name := range sortedKeys(remaining) {
		pickerID, pickerErr := d.resolver.Picker(name)
		if pickerErr != nil {
			c.Reject(pickerErr)
		}

		teams := make([]string, 0, len(remaining[name]))
		teamErrs := 0
		for _, team := range remaining[name] {
			teamID, err := d.resolver.Team(team)
			if err != nil {
				c.Reject(fmt.Errorf("remaining teams of %q: %w", name, err))
				teamErrs++
				continue
			}
			teams = append(teams, teamID)
		}
		if pickerErr != nil || teamErrs > 0 {
			continue
		}

		dist, ok := types[name]
		if !ok {
			dist = picktypes.Default(len(teams))
			log.Debug().Str("picker", name).Int("teams", len(teams)).Msg("Assuming single picks for remaining teams")
		}
		if err := picktypes.Validate(dist, len(teams)); err != nil {
			c.Reject(fmt.Errorf("picker %q (%s): %w", name, pickerID, err))
			continue
		}

		counts := make([]int, len(dist))
		copy(counts, dist)
		c.Accept(models.Streak{
			SnapshotID:         snap.ID,
			PickerID:           pickerID,
			Remaining:          teams,
			PickTypesRemaining: counts,
		})
		log.Debug().Str("picker_id", pickerID).Int("remaining", len(teams)).Msg("Parsed streak")
	}

	streaks, err := c.Finalize()
	if err != nil {
		return nil, err
	}

	if err := d.store.WriteStreaks(ctx, snap, streaks); err != nil {
		return nil, fmt.Errorf("failed to write streak snapshot %s: %w", snap.ID, err)
	}

	return &Summary{Feed: FeedStreaks, RunID: snap.ID, Records: len(streaks)}, nil
}
