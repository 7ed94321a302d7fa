// Package batch gates a run's writes on every entry having been accepted.
package batch

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"pickem/ingestion/internal/metrics"

	"github.com/rs/zerolog/log"
)

// CategoryOther is used for errors that carry no category of their own.
const CategoryOther = "other"

// Categorized errors name the counter they are tallied under.
type Categorized interface {
	Category() string
}

// Reporter receives one human-readable message per rejected entry. It must
// not block and must not fail back into the caller.
type Reporter interface {
	Report(message string)
}

// Counts holds rejected entries by category.
type Counts map[string]int

// Total sums every category.
func (c Counts) Total() int {
	total := 0
	for _, n := range c {
		total += n
	}
	return total
}

func (c Counts) String() string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%d %s", c[k], k)
	}
	return strings.Join(parts, ", ")
}

// RunAbortedError is returned by Finalize when any entry was rejected.
type RunAbortedError struct {
	Feed   string
	Counts Counts
}

func (e *RunAbortedError) Error() string {
	return fmt.Sprintf("%s run aborted, nothing written: fix %s", e.Feed, e.Counts)
}

// IsRunAborted reports whether err is a gated run failure.
func IsRunAborted(err error) bool {
	var aborted *RunAbortedError
	return errors.As(err, &aborted)
}

// Collector accumulates accepted records and rejection counts for one run.
// It is not safe for concurrent use.
type Collector[T any] struct {
	feed     string
	reporter Reporter
	pending  []T
	counts   Counts
}

// NewCollector starts an empty run for feed. A nil reporter discards reports.
func NewCollector[T any](feed string, reporter Reporter) *Collector[T] {
	return &Collector[T]{
		feed:     feed,
		reporter: reporter,
		counts:   make(Counts),
	}
}

// Accept queues a record for the final write.
func (c *Collector[T]) Accept(record T) {
	c.pending = append(c.pending, record)
}

// Reject tallies err under its category and reports it.
func (c *Collector[T]) Reject(err error) {
	category := CategoryOther
	var cat Categorized
	if errors.As(err, &cat) {
		category = cat.Category()
	}
	c.counts[category]++

	metrics.RecordError(c.feed, category)
	log.Error().
		Err(err).
		Str("feed", c.feed).
		Str("category", category).
		Msg("Entry rejected")

	if c.reporter != nil {
		c.reporter.Report(fmt.Sprintf("%s: %v", c.feed, err))
	}
}

// Counts returns a copy of the rejection counts so far.
func (c *Collector[T]) Counts() Counts {
	out := make(Counts, len(c.counts))
	for k, v := range c.counts {
		out[k] = v
	}
	return out
}

// Pending returns the number of accepted records.
func (c *Collector[T]) Pending() int {
	return len(c.pending)
}

// Finalize closes the run. With any rejection it returns a *RunAbortedError
// and no records; otherwise every accepted record in the order accepted.
func (c *Collector[T]) Finalize() ([]T, error) {
	if c.counts.Total() > 0 {
		counts := c.Counts()
		log.Error().
			Str("feed", c.feed).
			Int("errors", counts.Total()).
			Int("discarded", len(c.pending)).
			Str("counts", counts.String()).
			Msg("Run aborted, no records written")
		if c.reporter != nil {
			c.reporter.Report(fmt.Sprintf("%s: run aborted: fix %s", c.feed, counts))
		}
		c.pending = nil
		return nil, &RunAbortedError{Feed: c.feed, Counts: counts}
	}

	out := c.pending
	c.pending = nil
	return out, nil
}
