package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pickem/ingestion/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"
)

// ErrNotFound is returned when a looked-up row does not exist
var ErrNotFound = errors.New("not found")

// TeamRepository handles team database operations
type TeamRepository struct {
	db *Database
}

// Upsert inserts or updates a team
func (r *TeamRepository) Upsert(ctx context.Context, team *models.Team) (err error) {
	defer func(start time.Time) { observe("upsert", "teams", start, err) }(time.Now())

	query := `
		INSERT INTO teams (id, school_name, conference, other_names)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			school_name = EXCLUDED.school_name,
			conference = EXCLUDED.conference,
			other_names = EXCLUDED.other_names,
			updated_at = NOW()
		RETURNING created_at, updated_at
	`

	err = r.db.Pool.QueryRow(
		ctx, query,
		team.ID, team.SchoolName, team.Conference, nonNil(team.OtherNames),
	).Scan(&team.CreatedAt, &team.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to upsert team: %w", err)
	}

	log.Debug().
		Str("id", team.ID).
		Str("school", team.SchoolName).
		Int("other_names", len(team.OtherNames)).
		Msg("Team upserted")

	return nil
}

// GetByID retrieves a team by its canonical id
func (r *TeamRepository) GetByID(ctx context.Context, id string) (*models.Team, error) {
	query := `
		SELECT id, school_name, conference, other_names, created_at, updated_at
		FROM teams
		WHERE id = $1
	`

	var team models.Team
	err := r.db.Pool.QueryRow(ctx, query, id).Scan(
		&team.ID, &team.SchoolName, &team.Conference,
		&team.OtherNames, &team.CreatedAt, &team.UpdatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("team %q: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get team: %w", err)
	}

	return &team, nil
}

// List retrieves all teams
func (r *TeamRepository) List(ctx context.Context) (teams []*models.Team, err error) {
	defer func(start time.Time) { observe("select", "teams", start, err) }(time.Now())

	query := `
		SELECT id, school_name, conference, other_names, created_at, updated_at
		FROM teams
		ORDER BY id
	`

	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var team models.Team
		err := rows.Scan(
			&team.ID, &team.SchoolName, &team.Conference,
			&team.OtherNames, &team.CreatedAt, &team.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan team: %w", err)
		}
		teams = append(teams, &team)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating teams: %w", err)
	}

	return teams, nil
}

// AddOtherName appends name to a team's other_names if it is not already there
func (r *TeamRepository) AddOtherName(ctx context.Context, id, name string) error {
	query := `
		UPDATE teams SET
			other_names = array_append(other_names, $2),
			updated_at = NOW()
		WHERE id = $1 AND NOT ($2 = ANY(other_names))
	`

	result, err := r.db.Pool.Exec(ctx, query, id, name)
	if err != nil {
		return fmt.Errorf("failed to add team name: %w", err)
	}

	if result.RowsAffected() == 0 {
		// Either the team is missing or the name is already there.
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return nil
	}

	log.Info().Str("id", id).Str("name", name).Msg("Team name added")
	return nil
}

// EnsureBye stores the sentinel team that schedules use for bye weeks.
// An existing row is left as it is.
func (r *TeamRepository) EnsureBye(ctx context.Context, id string) error {
	result, err := r.db.Pool.Exec(ctx, `
		INSERT INTO teams (id, school_name)
		VALUES ($1, 'Bye')
		ON CONFLICT (id) DO NOTHING
	`, id)
	if err != nil {
		return fmt.Errorf("failed to ensure bye team: %w", err)
	}

	if result.RowsAffected() > 0 {
		log.Info().Str("id", id).Msg("Bye team created")
	}
	return nil
}

// Count returns the total number of teams
func (r *TeamRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM teams`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count teams: %w", err)
	}
	return count, nil
}

// PickerRepository handles picker database operations
type PickerRepository struct {
	db *Database
}

// Upsert inserts or updates a picker
func (r *PickerRepository) Upsert(ctx context.Context, picker *models.Picker) error {
	query := `
		INSERT INTO pickers (id, name, aliases)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			aliases = EXCLUDED.aliases
		RETURNING created_at
	`

	err := r.db.Pool.QueryRow(ctx, query, picker.ID, picker.Name, nonNil(picker.Aliases)).
		Scan(&picker.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert picker: %w", err)
	}
	return nil
}

// List retrieves all pickers
func (r *PickerRepository) List(ctx context.Context) (pickers []*models.Picker, err error) {
	defer func(start time.Time) { observe("select", "pickers", start, err) }(time.Now())

	rows, err := r.db.Pool.Query(ctx, `SELECT id, name, aliases, created_at FROM pickers ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list pickers: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p models.Picker
		if err := rows.Scan(&p.ID, &p.Name, &p.Aliases, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan picker: %w", err)
		}
		pickers = append(pickers, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating pickers: %w", err)
	}

	return pickers, nil
}

// AddAlias appends alias to a picker's aliases if it is not already there
func (r *PickerRepository) AddAlias(ctx context.Context, id, alias string) error {
	query := `
		UPDATE pickers SET aliases = array_append(aliases, $2)
		WHERE id = $1 AND NOT ($2 = ANY(aliases))
	`

	result, err := r.db.Pool.Exec(ctx, query, id, alias)
	if err != nil {
		return fmt.Errorf("failed to add picker alias: %w", err)
	}

	if result.RowsAffected() == 0 {
		var exists bool
		if err := r.db.Pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM pickers WHERE id = $1)`, id).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check picker: %w", err)
		}
		if !exists {
			return fmt.Errorf("picker %q: %w", id, ErrNotFound)
		}
		return nil
	}

	log.Info().Str("id", id).Str("alias", alias).Msg("Picker alias added")
	return nil
}

// nonNil keeps NOT NULL array columns from receiving SQL NULL
func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nonNilInts(s []int) []int {
	if s == nil {
		return []int{}
	}
	return s
}
