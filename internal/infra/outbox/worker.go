package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrWorkerNotConfigured = errors.New("outbox: worker missing dependencies")

// EventRow is one staged event as seen by the relay.
type EventRow struct {
	ID          string
	Name        string
	Payload     []byte
	OccurredAt  time.Time
	Aggregate   string
	Headers     map[string]string
	State       string
	Attempts    int
	NextAttempt time.Time
	LastError   string
}

// RelayStore is the durable queue the worker drains.
type RelayStore interface {
	Claim(ctx context.Context, workerID string) (*EventRow, error)
	MarkSent(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string, next time.Time, errMsg string) error
}

type Producer interface {
	Publish(ctx context.Context, topic string, key string, payload []byte, headers map[string]string) error
}

// Worker polls the outbox table and publishes staged events as CloudEvents.
type Worker struct {
	Store       RelayStore
	Producer    Producer
	Interval    time.Duration
	TopicPrefix string
	Source      string
	ID          string
	Backoff     []time.Duration
	Logger      *slog.Logger
}

// Run polls until the context is done. A failing pass is logged and retried
// on the next tick; only a misconfigured worker or context cancellation
// stops the loop.
func (w *Worker) Run(ctx context.Context) error {
	if w.Store == nil || w.Producer == nil {
		return ErrWorkerNotConfigured
	}
	ticker := time.NewTicker(w.interval())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.processOnce(ctx); err != nil {
				w.logger().Warn("outbox relay pass failed", "error", err)
			}
		}
	}
}

func (w *Worker) processOnce(ctx context.Context) error {
	row, err := w.Store.Claim(ctx, w.workerID())
	if err != nil || row == nil {
		return err
	}
	topic := w.topicFor(row.Name)
	payload, headers, err := w.formatPayload(row)
	if err != nil {
		_ = w.Store.MarkFailed(ctx, row.ID, w.nextRetry(row.Attempts), err.Error())
		return nil
	}
	if err := w.Producer.Publish(ctx, topic, row.Aggregate, payload, headers); err != nil {
		_ = w.Store.MarkFailed(ctx, row.ID, w.nextRetry(row.Attempts), err.Error())
		return nil
	}
	return w.Store.MarkSent(ctx, row.ID)
}

func (w *Worker) formatPayload(row *EventRow) ([]byte, map[string]string, error) {
	if row.Headers == nil {
		row.Headers = map[string]string{}
	}
	data := map[string]any{}
	if err := json.Unmarshal(row.Payload, &data); err != nil {
		return nil, nil, err
	}
	evt := map[string]any{
		"specversion":     "1.0",
		"id":              uuid.NewString(),
		"type":            row.Name + ".v1",
		"source":          w.source(),
		"time":            row.OccurredAt,
		"datacontenttype": "application/json",
		"data":            data,
	}
	if trace, ok := row.Headers["traceparent"]; ok {
		evt["traceparent"] = trace
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		return nil, nil, err
	}
	headers := map[string]string{
		"content-type": "application/cloudevents+json",
	}
	for k, v := range row.Headers {
		headers[k] = v
	}
	return payload, headers, nil
}

func (w *Worker) topicFor(name string) string {
	base := name
	if idx := strings.IndexRune(name, '.'); idx > 0 {
		base = name[:idx]
	}
	topic := base + ".events.v1"
	if w.TopicPrefix != "" {
		topic = w.TopicPrefix + topic
	}
	return topic
}

func (w *Worker) workerID() string {
	if w.ID != "" {
		return w.ID
	}
	return uuid.NewString()
}

func (w *Worker) interval() time.Duration {
	if w.Interval <= 0 {
		return 500 * time.Millisecond
	}
	return w.Interval
}

func (w *Worker) nextRetry(attempts int) time.Time {
	if attempts < len(w.Backoff) {
		return time.Now().Add(w.Backoff[attempts])
	}
	if len(w.Backoff) > 0 {
		return time.Now().Add(w.Backoff[len(w.Backoff)-1])
	}
	return time.Now().Add(5 * time.Second)
}

func (w *Worker) source() string {
	if w.Source != "" {
		return w.Source
	}
	return "app://heavenly"
}

func (w *Worker) logger() *slog.Logger {
	if w.Logger != nil {
		return w.Logger
	}
	return slog.Default()
}
