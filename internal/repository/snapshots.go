package repository

import (
	"context"
	"fmt"
	"time"

	"pickem/ingestion/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"
)

// SnapshotRepository writes ingestion runs. Each write stores the parent
// snapshot and all of its children in one transaction.
type SnapshotRepository struct {
	db *Database
}

// WriteRatings stores a ratings snapshot and its team ratings
func (r *SnapshotRepository) WriteRatings(ctx context.Context, snap *models.RatingSnapshot, ratings []models.Rating) (err error) {
	defer func(start time.Time) { observe("insert", "rating_snapshots", start, err) }(time.Now())

	err = r.db.inTx(ctx, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO rating_snapshots (id, source, home_advantage, fetched_at)
			VALUES ($1, $2, $3, $4)
			RETURNING created_at
		`, snap.ID.String(), snap.Source, snap.HomeAdvantage, snap.FetchedAt).Scan(&snap.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert rating snapshot: %w", err)
		}

		batch := &pgx.Batch{}
		for _, rt := range ratings {
			batch.Queue(`
				INSERT INTO team_ratings (snapshot_id, team_id, display_name, rating)
				VALUES ($1, $2, $3, $4)
			`, snap.ID.String(), rt.TeamID, rt.DisplayName, rt.Rating)
		}
		return sendBatch(ctx, tx, batch, "team_ratings")
	})
	if err != nil {
		return err
	}

	log.Debug().
		Str("snapshot_id", snap.ID.String()).
		Int("ratings", len(ratings)).
		Msg("Rating snapshot written")
	return nil
}

// WriteSchedules stores a schedule snapshot and its team schedules
func (r *SnapshotRepository) WriteSchedules(ctx context.Context, snap *models.ScheduleSnapshot, schedules []models.TeamSchedule) (err error) {
	defer func(start time.Time) { observe("insert", "schedule_snapshots", start, err) }(time.Now())

	err = r.db.inTx(ctx, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO schedule_snapshots (id, season_id)
			VALUES ($1, $2)
			RETURNING created_at
		`, snap.ID.String(), snap.SeasonID).Scan(&snap.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert schedule snapshot: %w", err)
		}

		batch := &pgx.Batch{}
		for _, s := range schedules {
			batch.Queue(`
				INSERT INTO team_schedules (snapshot_id, team_id, opponents, locales)
				VALUES ($1, $2, $3, $4)
			`, snap.ID.String(), s.TeamID, nonNil(s.Opponents), nonNilInts(s.Locales))
		}
		return sendBatch(ctx, tx, batch, "team_schedules")
	})
	if err != nil {
		return err
	}

	log.Debug().
		Str("snapshot_id", snap.ID.String()).
		Str("season_id", snap.SeasonID).
		Int("schedules", len(schedules)).
		Msg("Schedule snapshot written")
	return nil
}

// WriteStreaks stores a streak snapshot and its picker streaks
func (r *SnapshotRepository) WriteStreaks(ctx context.Context, snap *models.StreakSnapshot, streaks []models.Streak) (err error) {
	defer func(start time.Time) { observe("insert", "streak_snapshots", start, err) }(time.Now())

	err = r.db.inTx(ctx, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO streak_snapshots (id, season_id, week)
			VALUES ($1, $2, $3)
			RETURNING created_at
		`, snap.ID.String(), snap.SeasonID, snap.Week).Scan(&snap.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert streak snapshot: %w", err)
		}

		batch := &pgx.Batch{}
		for _, s := range streaks {
			batch.Queue(`
				INSERT INTO streaks (snapshot_id, picker_id, remaining, pick_types_remaining)
				VALUES ($1, $2, $3, $4)
			`, snap.ID.String(), s.PickerID, nonNil(s.Remaining), nonNilInts(s.PickTypesRemaining))
		}
		return sendBatch(ctx, tx, batch, "streaks")
	})
	if err != nil {
		return err
	}

	log.Debug().
		Str("snapshot_id", snap.ID.String()).
		Int("week", snap.Week).
		Int("streaks", len(streaks)).
		Msg("Streak snapshot written")
	return nil
}

// LatestRatings returns the team ratings of the most recent ratings snapshot
func (r *SnapshotRepository) LatestRatings(ctx context.Context) ([]models.Rating, error) {
	query := `
		SELECT tr.snapshot_id::text, tr.team_id, tr.display_name, tr.rating
		FROM team_ratings tr
		WHERE tr.snapshot_id = (
			SELECT id FROM rating_snapshots ORDER BY fetched_at DESC, created_at DESC LIMIT 1
		)
		ORDER BY tr.team_id
	`

	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query latest ratings: %w", err)
	}
	defer rows.Close()

	var ratings []models.Rating
	for rows.Next() {
		var rt models.Rating
		var snapshotID string
		if err := rows.Scan(&snapshotID, &rt.TeamID, &rt.DisplayName, &rt.Rating); err != nil {
			return nil, fmt.Errorf("failed to scan rating: %w", err)
		}
		if err := rt.SnapshotID.UnmarshalText([]byte(snapshotID)); err != nil {
			return nil, fmt.Errorf("bad snapshot id %q: %w", snapshotID, err)
		}
		ratings = append(ratings, rt)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ratings: %w", err)
	}

	return ratings, nil
}

// CountSnapshots returns how many parent records table holds
func (r *SnapshotRepository) CountSnapshots(ctx context.Context, table string) (int, error) {
	switch table {
	case "rating_snapshots", "schedule_snapshots", "streak_snapshots":
	default:
		return 0, fmt.Errorf("unknown snapshot table %q", table)
	}

	var count int
	if err := r.db.Pool.QueryRow(ctx, "SELECT COUNT(*) FROM "+table).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", table, err)
	}
	return count, nil
}

// sendBatch executes every queued statement and closes the results so the
// enclosing transaction can commit
func sendBatch(ctx context.Context, tx pgx.Tx, batch *pgx.Batch, table string) error {
	results := tx.SendBatch(ctx, batch)

	for i := 0; i < batch.Len(); i++ {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return fmt.Errorf("failed to insert into %s (row %d): %w", table, i, err)
		}
	}

	if err := results.Close(); err != nil {
		return fmt.Errorf("failed to close %s batch: %w", table, err)
	}
	return nil
}
