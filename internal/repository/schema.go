package repository

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
)

// schema is idempotent; EnsureSchema may run on every start.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS teams (
		id          TEXT PRIMARY KEY,
		school_name TEXT NOT NULL,
		conference  TEXT,
		other_names TEXT[] NOT NULL DEFAULT '{}',
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS pickers (
		id         TEXT PRIMARY KEY,
		name       TEXT NOT NULL,
		aliases    TEXT[] NOT NULL DEFAULT '{}',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS seasons (
		id    TEXT PRIMARY KEY,
		start DATE NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS rating_snapshots (
		id             UUID PRIMARY KEY,
		source         TEXT NOT NULL,
		home_advantage DOUBLE PRECISION NOT NULL,
		fetched_at     TIMESTAMPTZ NOT NULL,
		created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS team_ratings (
		snapshot_id  UUID NOT NULL REFERENCES rating_snapshots(id) ON DELETE CASCADE,
		team_id      TEXT NOT NULL REFERENCES teams(id),
		display_name TEXT NOT NULL,
		rating       DOUBLE PRECISION NOT NULL,
		PRIMARY KEY (snapshot_id, display_name)
	)`,
	`CREATE TABLE IF NOT EXISTS schedule_snapshots (
		id         UUID PRIMARY KEY,
		season_id  TEXT NOT NULL REFERENCES seasons(id),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS team_schedules (
		snapshot_id UUID NOT NULL REFERENCES schedule_snapshots(id) ON DELETE CASCADE,
		team_id     TEXT NOT NULL REFERENCES teams(id),
		opponents   TEXT[] NOT NULL,
		locales     INTEGER[] NOT NULL,
		CHECK (cardinality(opponents) = cardinality(locales))
	)`,
	`CREATE TABLE IF NOT EXISTS streak_snapshots (
		id         UUID PRIMARY KEY,
		season_id  TEXT NOT NULL REFERENCES seasons(id),
		week       INTEGER NOT NULL CHECK (week >= 0),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS streaks (
		snapshot_id          UUID NOT NULL REFERENCES streak_snapshots(id) ON DELETE CASCADE,
		picker_id            TEXT NOT NULL REFERENCES pickers(id),
		remaining            TEXT[] NOT NULL,
		pick_types_remaining INTEGER[] NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_team_schedules_snapshot ON team_schedules (snapshot_id)`,
	`CREATE INDEX IF NOT EXISTS idx_streaks_snapshot ON streaks (snapshot_id)`,
	`CREATE INDEX IF NOT EXISTS idx_rating_snapshots_fetched_at ON rating_snapshots (fetched_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_seasons_start ON seasons (start DESC)`,
}

// EnsureSchema creates any missing tables
func (db *Database) EnsureSchema(ctx context.Context) error {
	for i, stmt := range schema {
		if _, err := db.Pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement %d: %w", i, err)
		}
	}

	log.Info().Int("statements", len(schema)).Msg("Database schema ensured")
	return nil
}
