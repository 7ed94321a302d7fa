// Package report delivers operator-facing error reports without blocking the
// run that produced them.
package report

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"pickem/ingestion/internal/metrics"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Sink delivers one report. It may block and may fail.
type Sink interface {
	Send(ctx context.Context, r Report) error
}

// Report is one message plus the service that raised it.
type Report struct {
	Service   string    `json:"service"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Async queues reports for a background sender and drops them when the queue
// is full. Report never blocks.
type Async struct {
	service string
	sink    Sink
	queue   chan Report
	timeout time.Duration

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

// NewAsync starts a sender goroutine that forwards to sink.
func NewAsync(service string, sink Sink, buffer int) *Async {
	a := &Async{
		service: service,
		sink:    sink,
		queue:   make(chan Report, buffer),
		timeout: 5 * time.Second,
		done:    make(chan struct{}),
	}
	go a.run()
	return a
}

// Report implements batch.Reporter.
func (a *Async) Report(message string) {
	r := Report{Service: a.service, Message: message, Timestamp: time.Now().UTC()}

	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		metrics.RecordReportDropped()
		return
	}

	select {
	case a.queue <- r:
	default:
		metrics.RecordReportDropped()
		log.Warn().Str("message", message).Msg("Report queue full, dropping report")
	}
}

// Close stops accepting reports and waits for queued ones to be sent.
func (a *Async) Close() {
	a.mu.Lock()
	if !a.closed {
		a.closed = true
		close(a.queue)
	}
	a.mu.Unlock()

	<-a.done
}

func (a *Async) run() {
	defer close(a.done)
	for r := range a.queue {
		ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
		if err := a.sink.Send(ctx, r); err != nil {
			metrics.RecordReportDropped()
			log.Warn().Err(err).Str("message", r.Message).Msg("Could not deliver report")
		}
		cancel()
	}
}

// RedisSink publishes reports as JSON on a Redis Pub/Sub channel.
type RedisSink struct {
	rdb     *redis.Client
	channel string
}

// NewRedisSink creates a sink publishing on channel.
func NewRedisSink(rdb *redis.Client, channel string) *RedisSink {
	return &RedisSink{rdb: rdb, channel: channel}
}

// Send publishes r.
func (s *RedisSink) Send(ctx context.Context, r Report) error {
	payload, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	if err := s.rdb.Publish(ctx, s.channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish report: %w", err)
	}
	return nil
}

// LogSink writes reports to the structured log only.
type LogSink struct{}

// Send logs r.
func (LogSink) Send(ctx context.Context, r Report) error {
	log.Warn().
		Str("service", r.Service).
		Time("reported_at", r.Timestamp).
		Msg(r.Message)
	return nil
}
