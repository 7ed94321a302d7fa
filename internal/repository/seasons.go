package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pickem/ingestion/internal/models"

	"github.com/jackc/pgx/v5"
)

// SeasonRepository handles season lookups
type SeasonRepository struct {
	db *Database
}

// Upsert inserts or updates a season
func (r *SeasonRepository) Upsert(ctx context.Context, season *models.Season) error {
	query := `
		INSERT INTO seasons (id, start)
		VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET start = EXCLUDED.start
	`

	if _, err := r.db.Pool.Exec(ctx, query, season.ID, season.Start); err != nil {
		return fmt.Errorf("failed to upsert season: %w", err)
	}
	return nil
}

// MostRecent returns the season with the latest start date. Schedules and
// streaks are always tagged with it.
func (r *SeasonRepository) MostRecent(ctx context.Context) (_ *models.Season, err error) {
	defer func(start time.Time) { observe("select", "seasons", start, err) }(time.Now())

	var s models.Season
	err = r.db.Pool.QueryRow(ctx, `SELECT id, start FROM seasons ORDER BY start DESC LIMIT 1`).
		Scan(&s.ID, &s.Start)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("no season configured: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get most recent season: %w", err)
	}

	return &s, nil
}
