package models

import (
	"database/sql"
	"time"

	"pickem/ingestion/internal/registry"
)

// Team represents a canonical team and the names other sites use for it
type Team struct {
	ID         string         `db:"id" json:"id"`
	SchoolName string         `db:"school_name" json:"school_name"`
	Conference sql.NullString `db:"conference" json:"-"`
	OtherNames []string       `db:"other_names" json:"other_names"`
	CreatedAt  time.Time      `db:"created_at" json:"-"`
	UpdatedAt  time.Time      `db:"updated_at" json:"-"`
}

// ToEntity converts a Team to its registry form
func (t *Team) ToEntity() registry.Entity {
	return registry.Entity{
		ID:      t.ID,
		Kind:    registry.Team,
		Name:    t.SchoolName,
		Aliases: t.OtherNames,
	}
}

// Picker represents a contest participant
type Picker struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Aliases   []string  `db:"aliases" json:"aliases"`
	CreatedAt time.Time `db:"created_at" json:"-"`
}

// ToEntity converts a Picker to its registry form
func (p *Picker) ToEntity() registry.Entity {
	return registry.Entity{
		ID:      p.ID,
		Kind:    registry.Picker,
		Name:    p.Name,
		Aliases: p.Aliases,
	}
}

// Season represents one contest season
type Season struct {
	ID    string    `db:"id"`
	Start time.Time `db:"start"`
}
