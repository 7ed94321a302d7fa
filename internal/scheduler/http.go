package scheduler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
)

// Triggerer starts a background ratings run.
type Triggerer interface {
	Trigger(source, url string) error
}

// TriggerHandler serves POST /trigger/ratings. The page URL comes from a JSON
// body {"url": "..."} or the url query parameter; neither means the default page.
func TriggerHandler(t Triggerer) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/trigger/ratings", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
			return
		}

		var msg ScrapeMessage
		if err := json.NewDecoder(io.LimitReader(r.Body, 1<<16)).Decode(&msg); err != nil && !errors.Is(err, io.EOF) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "body must be {\"url\": \"...\"}"})
			return
		}
		if msg.URL == "" {
			msg.URL = r.URL.Query().Get("url")
		}

		if err := t.Trigger(SourceHTTP, msg.URL); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted", "url": msg.URL})
	})
	return mux
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
