package models

import (
	"time"

	"github.com/google/uuid"
)

// RatingsFeed is one parsed download of a ratings page
type RatingsFeed struct {
	Source        string
	Ratings       map[string]float64 // display name -> rating
	HomeAdvantage float64
	Timestamp     time.Time // when the page was downloaded
}

// RatingSnapshot is the parent record of one ratings run
type RatingSnapshot struct {
	ID            uuid.UUID `db:"id"`
	Source        string    `db:"source"`
	HomeAdvantage float64   `db:"home_advantage"`
	FetchedAt     time.Time `db:"fetched_at"`
	CreatedAt     time.Time `db:"created_at"`
}

// Rating is one team's rating within a snapshot
type Rating struct {
	SnapshotID  uuid.UUID `db:"snapshot_id"`
	TeamID      string    `db:"team_id"`
	DisplayName string    `db:"display_name"`
	Rating      float64   `db:"rating"`
}
