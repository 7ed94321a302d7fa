package scheduler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type recordingTriggerer struct {
	sources []string
	urls    []string
	err     error
}

func (r *recordingTriggerer) Trigger(source, url string) error {
	r.sources = append(r.sources, source)
	r.urls = append(r.urls, url)
	return r.err
}

func TestTriggerHandler(t *testing.T) {
	tests := []struct {
		name    string
		method  string
		target  string
		body    string
		status  int
		wantURL string
	}{
		{"json body", http.MethodPost, "/trigger/ratings", `{"url":"http://a.example"}`, http.StatusAccepted, "http://a.example"},
		{"query parameter", http.MethodPost, "/trigger/ratings?url=http://b.example", "", http.StatusAccepted, "http://b.example"},
		{"default page", http.MethodPost, "/trigger/ratings", "", http.StatusAccepted, ""},
		{"bad body", http.MethodPost, "/trigger/ratings", `{"url":`, http.StatusBadRequest, ""},
		{"wrong method", http.MethodGet, "/trigger/ratings", "", http.StatusMethodNotAllowed, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recordingTriggerer{}
			w := httptest.NewRecorder()
			req := httptest.NewRequest(tt.method, tt.target, strings.NewReader(tt.body))

			TriggerHandler(rec).ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusAccepted {
				assert.Equal(t, []string{SourceHTTP}, rec.sources)
				assert.Equal(t, []string{tt.wantURL}, rec.urls)
			} else {
				assert.Empty(t, rec.sources)
			}
		})
	}
}

func TestTriggerHandler_NotRunning(t *testing.T) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/trigger/ratings", nil)

	TriggerHandler(&recordingTriggerer{err: ErrNotStarted}).ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
