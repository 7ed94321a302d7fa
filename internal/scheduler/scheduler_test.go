package scheduler

import (
	"context"
	"testing"
	"time"

	"pickem/ingestion/internal/batch"
	"pickem/ingestion/internal/ingest"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type chanRunner struct {
	urls chan string
	err  error
}

func newChanRunner() *chanRunner {
	return &chanRunner{urls: make(chan string, 10)}
}

func (r *chanRunner) RunRatings(ctx context.Context, url string) (*ingest.Summary, error) {
	r.urls <- url
	if r.err != nil {
		return nil, r.err
	}
	return &ingest.Summary{Feed: ingest.FeedRatings, RunID: uuid.New(), Records: 1}, nil
}

func (r *chanRunner) next(t *testing.T) string {
	t.Helper()
	select {
	case url := <-r.urls:
		return url
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a ratings run")
		return ""
	}
}

func setupRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return rdb
}

func TestScheduler_TriggerBeforeStart(t *testing.T) {
	s := NewScheduler(Options{}, newChanRunner(), nil)
	assert.ErrorIs(t, s.Trigger(SourceHTTP, ""), ErrNotStarted)
}

func TestScheduler_DirectTrigger(t *testing.T) {
	runner := newChanRunner()
	s := NewScheduler(Options{}, runner, nil)
	require.NoError(t, s.Start(context.Background()))

	require.NoError(t, s.Trigger(SourceHTTP, "http://mirror.example/cfsend.htm"))
	assert.Equal(t, "http://mirror.example/cfsend.htm", runner.next(t))

	s.Stop()
	assert.ErrorIs(t, s.Trigger(SourceHTTP, ""), ErrNotStarted, "stopped scheduler refuses runs")
}

func TestScheduler_AbortedRunDoesNotStopScheduler(t *testing.T) {
	runner := newChanRunner()
	runner.err = &batch.RunAbortedError{Feed: ingest.FeedRatings, Counts: batch.Counts{"team_not_found": 2}}
	s := NewScheduler(Options{}, runner, nil)
	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	require.NoError(t, s.Trigger(SourceHTTP, ""))
	runner.next(t)
	require.NoError(t, s.Trigger(SourceHTTP, ""))
	runner.next(t)
}

func TestScheduler_BadCronSpec(t *testing.T) {
	s := NewScheduler(Options{ScrapeCron: "not a cron"}, newChanRunner(), nil)
	assert.Error(t, s.Start(context.Background()))
}

func TestScheduler_StartTwice(t *testing.T) {
	s := NewScheduler(Options{ScrapeCron: "0 6 * * *"}, newChanRunner(), nil)
	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()
	assert.Error(t, s.Start(context.Background()))
}

func TestScheduler_RedisTrigger(t *testing.T) {
	rdb := setupRedis(t)
	runner := newChanRunner()
	s := NewScheduler(Options{TriggerChannel: "pickem:scrape"}, runner, rdb)
	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	ctx := context.Background()
	require.NoError(t, PublishTrigger(ctx, rdb, "pickem:scrape", ScrapeMessage{URL: "https://sagarin.com/sports/cfsend.htm"}))
	assert.Equal(t, "https://sagarin.com/sports/cfsend.htm", runner.next(t))

	// Malformed messages are skipped and the listener keeps going.
	require.NoError(t, rdb.Publish(ctx, "pickem:scrape", "{not json").Err())
	require.NoError(t, PublishTrigger(ctx, rdb, "pickem:scrape", ScrapeMessage{}))
	assert.Equal(t, "", runner.next(t))
}

func TestSubscribeTriggers_Close(t *testing.T) {
	rdb := setupRedis(t)

	sub, err := SubscribeTriggers(context.Background(), rdb, "pickem:scrape")
	require.NoError(t, err)

	require.NoError(t, rdb.Publish(context.Background(), "pickem:scrape", "[]").Err())
	select {
	case err := <-sub.Errors():
		assert.Error(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("expected an unmarshal error")
	}

	require.NoError(t, sub.Close())
	require.NoError(t, sub.Close(), "second close is a no-op")

	select {
	case _, ok := <-sub.Events():
		assert.False(t, ok, "events channel closes")
	case <-time.After(2 * time.Second):
		t.Fatal("events channel not closed")
	}
}
