package models

import (
	"time"

	"github.com/google/uuid"
)

// ScheduleSnapshot is the parent record of one schedule run
type ScheduleSnapshot struct {
	ID        uuid.UUID `db:"id"`
	SeasonID  string    `db:"season_id"`
	CreatedAt time.Time `db:"created_at"`
}

// TeamSchedule is one team's season; Opponents[i] is played at Locales[i]
type TeamSchedule struct {
	SnapshotID uuid.UUID `db:"snapshot_id"`
	TeamID     string    `db:"team_id"`
	Opponents  []string  `db:"opponents"`
	Locales    []int     `db:"locales"`
}
