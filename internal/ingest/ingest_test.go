package ingest

import (
	"context"
	"errors"
	"testing"
	"time"

	"pickem/ingestion/internal/batch"
	"pickem/ingestion/internal/locale"
	"pickem/ingestion/internal/models"
	"pickem/ingestion/internal/registry"
	"pickem/ingestion/internal/resolve"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	calls int
	err   error

	ratingSnap *models.RatingSnapshot
	ratings    []models.Rating

	scheduleSnap *models.ScheduleSnapshot
	schedules    []models.TeamSchedule

	streakSnap *models.StreakSnapshot
	streaks    []models.Streak
}

func (f *fakeStore) WriteRatings(ctx context.Context, snap *models.RatingSnapshot, ratings []models.Rating) error {
	f.calls++
	f.ratingSnap, f.ratings = snap, ratings
	return f.err
}

func (f *fakeStore) WriteSchedules(ctx context.Context, snap *models.ScheduleSnapshot, schedules []models.TeamSchedule) error {
	f.calls++
	f.scheduleSnap, f.schedules = snap, schedules
	return f.err
}

func (f *fakeStore) WriteStreaks(ctx context.Context, snap *models.StreakSnapshot, streaks []models.Streak) error {
	f.calls++
	f.streakSnap, f.streaks = snap, streaks
	return f.err
}

type recordingReporter struct {
	messages []string
}

func (r *recordingReporter) Report(message string) {
	r.messages = append(r.messages, message)
}

var (
	runID   = uuid.MustParse("5f0c8d2e-1b7a-4c39-9e61-2d4f8a7b3c10")
	fixedAt = time.Date(2024, 9, 2, 12, 0, 0, 0, time.UTC)
)

func testDriver(t *testing.T, store Store, rep batch.Reporter) *Driver {
	t.Helper()
	reg, err := registry.New("bye00",
		registry.Entity{ID: "bye00", Kind: registry.Team},
		registry.Entity{ID: "duke01", Kind: registry.Team, Aliases: []string{"Duke", "DUKE"}},
		registry.Entity{ID: "unc01", Kind: registry.Team, Aliases: []string{"North Carolina"}},
		registry.Entity{ID: "ncst01", Kind: registry.Team, Aliases: []string{"NC State", "N.C. State"}},
		registry.Entity{ID: "miami-fl", Kind: registry.Team, Aliases: []string{"Miami", "Miami-Florida"}},
		registry.Entity{ID: "miami-oh", Kind: registry.Team, Aliases: []string{"Miami", "Miami-Ohio"}},
		registry.Entity{ID: "phil", Kind: registry.Picker, Aliases: []string{"Phil"}},
		registry.Entity{ID: "sam", Kind: registry.Picker, Aliases: []string{"Sam"}},
	)
	require.NoError(t, err)

	return NewDriver(resolve.New(reg), rep, store,
		WithClock(func() time.Time { return fixedAt }),
		WithIDs(func() uuid.UUID { return runID }),
	)
}

func requireAborted(t *testing.T, err error) *batch.RunAbortedError {
	t.Helper()
	var aborted *batch.RunAbortedError
	require.True(t, errors.As(err, &aborted), "expected run aborted, got %v", err)
	return aborted
}

func TestIngestRatings_Commits(t *testing.T) {
	store := &fakeStore{}
	d := testDriver(t, store, nil)

	feed := models.RatingsFeed{
		Source:        "https://sagarin.com/sports/cfsend.htm",
		Ratings:       map[string]float64{"Duke": 71.2, "North Carolina": 75.9, "Miami-Ohio": 60.1},
		HomeAdvantage: 2.31,
		Timestamp:     fixedAt.Add(-time.Minute),
	}

	summary, err := d.IngestRatings(context.Background(), feed)
	require.NoError(t, err)
	assert.Equal(t, runID, summary.RunID)
	assert.Equal(t, 3, summary.Records)

	assert.Equal(t, 1, store.calls, "one logical write")
	assert.Equal(t, runID, store.ratingSnap.ID)
	assert.Equal(t, 2.31, store.ratingSnap.HomeAdvantage)
	assert.Equal(t, feed.Timestamp, store.ratingSnap.FetchedAt)
	assert.Equal(t, fixedAt, store.ratingSnap.CreatedAt)

	require.Len(t, store.ratings, 3)
	assert.Equal(t, models.Rating{SnapshotID: runID, TeamID: "duke01", DisplayName: "Duke", Rating: 71.2}, store.ratings[0])
	assert.Equal(t, "miami-oh", store.ratings[1].TeamID)
	assert.Equal(t, "unc01", store.ratings[2].TeamID)
}

func TestIngestRatings_OneBadNameWritesNothing(t *testing.T) {
	store := &fakeStore{}
	rep := &recordingReporter{}
	d := testDriver(t, store, rep)

	_, err := d.IngestRatings(context.Background(), models.RatingsFeed{
		Ratings: map[string]float64{"Duke": 71.2, "Miami": 70.0, "Wake": 65.0, "NC State": 66.6},
	})

	aborted := requireAborted(t, err)
	assert.Equal(t, batch.Counts{resolve.CategoryTeamAmbiguous: 1, resolve.CategoryTeamNotFound: 1}, aborted.Counts)
	assert.Zero(t, store.calls)
	assert.Len(t, rep.messages, 3, "two entries and the abort summary")
}

func TestIngestRatings_StoreFailure(t *testing.T) {
	store := &fakeStore{err: errors.New("deadline exceeded")}
	d := testDriver(t, store, nil)

	_, err := d.IngestRatings(context.Background(), models.RatingsFeed{Ratings: map[string]float64{"Duke": 1}})
	require.Error(t, err)
	assert.False(t, batch.IsRunAborted(err))
	assert.Contains(t, err.Error(), "deadline exceeded")
}

func TestIngestSchedule_Commits(t *testing.T) {
	store := &fakeStore{}
	d := testDriver(t, store, nil)

	summary, err := d.IngestSchedule(context.Background(), "2024", map[string][]string{
		"Duke":           {"@North Carolina", "", "!NC State", "<Miami-Florida", ">NC State", "North Carolina"},
		"North Carolina": {"Duke", "", "", "", "", ""},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Records)

	require.Equal(t, 1, store.calls)
	assert.Equal(t, "2024", store.scheduleSnap.SeasonID)
	require.Len(t, store.schedules, 2)

	duke := store.schedules[0]
	assert.Equal(t, "duke01", duke.TeamID)
	assert.Equal(t, []string{"unc01", "bye00", "ncst01", "miami-fl", "ncst01", "unc01"}, duke.Opponents)
	assert.Equal(t, []int{int(locale.Away), int(locale.Neutral), int(locale.Neutral), int(locale.Near), int(locale.Far), int(locale.Home)}, duke.Locales)

	unc := store.schedules[1]
	assert.Equal(t, "unc01", unc.TeamID)
	assert.Len(t, unc.Opponents, len(unc.Locales))
	assert.Equal(t, []int{2, 0, 0, 0, 0, 0}, unc.Locales)
}

func TestIngestSchedule_UnresolvableOpponentAbortsRun(t *testing.T) {
	reg, err := registry.New("bye00",
		registry.Entity{ID: "bye00", Kind: registry.Team},
		registry.Entity{ID: "duke01", Kind: registry.Team, Aliases: []string{"Duke", "DUKE"}},
	)
	require.NoError(t, err)
	store := &fakeStore{}
	rep := &recordingReporter{}
	d := NewDriver(resolve.New(reg), rep, store)

	_, err = d.IngestSchedule(context.Background(), "2024", map[string][]string{
		"Duke": {"@UNC", ""},
	})

	aborted := requireAborted(t, err)
	assert.Equal(t, batch.Counts{resolve.CategoryTeamNotFound: 1}, aborted.Counts)
	assert.Zero(t, store.calls)
	require.NotEmpty(t, rep.messages)
	assert.Contains(t, rep.messages[0], `"UNC" not found`)

	var nf *resolve.NotFoundError
	assert.False(t, errors.As(err, &nf), "the run error is the aggregate, not the first failure")
}

func TestIngestSchedule_CountsEveryFailure(t *testing.T) {
	store := &fakeStore{}
	d := testDriver(t, store, nil)

	_, err := d.IngestSchedule(context.Background(), "2024", map[string][]string{
		"Duke":     {"@Wake", "Miami", "!Clemson"},
		"Stanford": {"Duke", ""},
	})

	aborted := requireAborted(t, err)
	assert.Equal(t, batch.Counts{
		resolve.CategoryTeamNotFound:  3,
		resolve.CategoryTeamAmbiguous: 1,
	}, aborted.Counts)
	assert.Zero(t, store.calls)
}

func TestIngestStreaks_Commits(t *testing.T) {
	store := &fakeStore{}
	d := testDriver(t, store, nil)

	summary, err := d.IngestStreaks(context.Background(), "2024", 3,
		map[string][]string{
			"Phil": {"Duke", "North Carolina", "NC State", "Miami-Ohio"},
			"Sam":  {"Duke", "NC State"},
		},
		map[string][]int{
			"Phil": {0, 2, 1},
		},
	)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Records)

	require.Equal(t, 1, store.calls)
	assert.Equal(t, 3, store.streakSnap.Week)
	require.Len(t, store.streaks, 2)

	phil := store.streaks[0]
	assert.Equal(t, "phil", phil.PickerID)
	assert.Equal(t, []string{"duke01", "unc01", "ncst01", "miami-oh"}, phil.Remaining)
	assert.Equal(t, []int{0, 2, 1}, phil.PickTypesRemaining)

	sam := store.streaks[1]
	assert.Equal(t, "sam", sam.PickerID)
	assert.Equal(t, []int{0, 2}, sam.PickTypesRemaining, "default distribution")
}

func TestIngestStreaks_NoTypesFile(t *testing.T) {
	store := &fakeStore{}
	d := testDriver(t, store, nil)

	_, err := d.IngestStreaks(context.Background(), "2024", 0,
		map[string][]string{"Phil": {"Duke"}}, nil)
	require.NoError(t, err)
	require.Len(t, store.streaks, 1)
	assert.Equal(t, []int{0, 1}, store.streaks[0].PickTypesRemaining)
}

func TestIngestStreaks_EmptyDistributionIsNotNil(t *testing.T) {
	store := &fakeStore{}
	d := testDriver(t, store, nil)

	_, err := d.IngestStreaks(context.Background(), "2024", 17,
		map[string][]string{"Phil": {}},
		map[string][]int{"Phil": {}},
	)
	require.NoError(t, err)
	require.Len(t, store.streaks, 1)

	phil := store.streaks[0]
	assert.NotNil(t, phil.Remaining)
	assert.NotNil(t, phil.PickTypesRemaining, "stored as an empty array, not NULL")
	assert.Empty(t, phil.PickTypesRemaining)
}

func TestIngestStreaks_InconsistentDistribution(t *testing.T) {
	store := &fakeStore{}
	d := testDriver(t, store, nil)

	_, err := d.IngestStreaks(context.Background(), "2024", 5,
		map[string][]string{
			"Phil": {"Duke", "North Carolina", "NC State", "Miami-Ohio", "Miami-Florida"},
			"Sam":  {"Duke"},
		},
		map[string][]int{"Phil": {0, 2, 1}},
	)

	aborted := requireAborted(t, err)
	assert.Equal(t, batch.Counts{"inconsistent_distribution": 1}, aborted.Counts)
	assert.Zero(t, store.calls)
}

func TestIngestStreaks_CollectsAllCategories(t *testing.T) {
	store := &fakeStore{}
	d := testDriver(t, store, nil)

	_, err := d.IngestStreaks(context.Background(), "2024", 1,
		map[string][]string{
			"Luke": {"Duke"},
			"Phil": {"Duke", "Miami", "Wake"},
			"Sam":  {"Duke", "NC State"},
		},
		map[string][]int{"Sam": {0, 1}},
	)

	aborted := requireAborted(t, err)
	assert.Equal(t, batch.Counts{
		resolve.CategoryPickerNotFound: 1,
		resolve.CategoryTeamAmbiguous:  1,
		resolve.CategoryTeamNotFound:   1,
		"inconsistent_distribution":    1,
	}, aborted.Counts)
	assert.Equal(t, 4, aborted.Counts.Total())
	assert.Zero(t, store.calls)
}

func TestIngestStreaks_NegativeWeek(t *testing.T) {
	store := &fakeStore{}
	d := testDriver(t, store, nil)

	_, err := d.IngestStreaks(context.Background(), "2024", -1, map[string][]string{"Phil": {"Duke"}}, nil)
	require.Error(t, err)
	assert.False(t, batch.IsRunAborted(err))
	assert.Zero(t, store.calls)
}
