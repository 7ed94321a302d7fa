package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const page = `<font color="#000000">  HOME ADVANTAGE=[<font color="#9900ff">  2.63</font>]  [<font color="#0000ff">  2.51</font>]
<font color="#000000">   1  Georgia                 A  =</font><font color="#9900ff">  97.45</font>   12   1</font>
<font color="#000000">   2  Duke                    A  =</font><font color="#9900ff">  71.20</font>   14   0</font>`

func testClient(attempts int) *Client {
	return NewClient(Options{
		Timeout:     time.Second,
		MaxAttempts: attempts,
		NewBackOff:  func() backoff.BackOff { return backoff.NewConstantBackOff(time.Millisecond) },
	})
}

func TestFetchRatings(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(page))
	}))
	defer srv.Close()

	feed, err := testClient(1).FetchRatings(context.Background(), srv.URL)
	require.NoError(t, err)

	assert.Equal(t, srv.URL, feed.Source)
	assert.InDelta(t, 2.51, feed.HomeAdvantage, 1e-9)
	assert.Len(t, feed.Ratings, 2)
	assert.False(t, feed.Timestamp.IsZero())
}

func TestFetchRatings_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(page))
	}))
	defer srv.Close()

	_, err := testClient(3).FetchRatings(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestFetchRatings_GivesUp(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := testClient(2).FetchRatings(context.Background(), srv.URL)
	require.Error(t, err)
	assert.True(t, IsStatus(err, http.StatusServiceUnavailable))
	assert.Equal(t, int32(2), calls.Load())
}

func TestFetchRatings_NotFoundIsPermanent(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	_, err := testClient(5).FetchRatings(context.Background(), srv.URL)
	require.Error(t, err)
	assert.True(t, IsStatus(err, http.StatusNotFound))
	assert.Equal(t, int32(1), calls.Load(), "4xx is not retried")
}

func TestFetchRatings_UnparseablePage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>maintenance</html>"))
	}))
	defer srv.Close()

	_, err := testClient(1).FetchRatings(context.Background(), srv.URL)
	assert.Error(t, err)
}
