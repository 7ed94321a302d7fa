package models

import (
	"time"

	"github.com/google/uuid"
)

// StreakSnapshot is the parent record of one streak run
type StreakSnapshot struct {
	ID        uuid.UUID `db:"id"`
	SeasonID  string    `db:"season_id"`
	Week      int       `db:"week"`
	CreatedAt time.Time `db:"created_at"`
}

// Streak is a picker's remaining teams and remaining pick types
type Streak struct {
	SnapshotID         uuid.UUID `db:"snapshot_id"`
	PickerID           string    `db:"picker_id"`
	Remaining          []string  `db:"remaining"`
	PickTypesRemaining []int     `db:"pick_types_remaining"`
}
