package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	rows   []*EventRow
	sent   []string
	failed []string
}

func (s *fakeStore) Claim(ctx context.Context, workerID string) (*EventRow, error) {
	if len(s.rows) == 0 {
		return nil, nil
	}
	row := s.rows[0]
	s.rows = s.rows[1:]
	return row, nil
}

func (s *fakeStore) MarkSent(ctx context.Context, id string) error {
	s.sent = append(s.sent, id)
	return nil
}

func (s *fakeStore) MarkFailed(ctx context.Context, id string, next time.Time, errMsg string) error {
	s.failed = append(s.failed, id)
	return nil
}

type fakeProducer struct {
	topics   []string
	keys     []string
	payloads [][]byte
	headers  []map[string]string
	err      error
}

func (p *fakeProducer) Publish(ctx context.Context, topic, key string, payload []byte, headers map[string]string) error {
	if p.err != nil {
		return p.err
	}
	p.topics = append(p.topics, topic)
	p.keys = append(p.keys, key)
	p.payloads = append(p.payloads, payload)
	p.headers = append(p.headers, headers)
	return nil
}

func sampleRow() *EventRow {
	return &EventRow{
		ID:         "evt-1",
		Name:       "booking.requested",
		Payload:    []byte(`{"booking_id":7}`),
		OccurredAt: time.Date(2024, time.May, 1, 12, 0, 0, 0, time.UTC),
		Aggregate:  "7",
		Headers:    map[string]string{"traceparent": "00-abc-def-01"},
	}
}

func TestWorkerPublishesCloudEvent(t *testing.T) {
	store := &fakeStore{rows: []*EventRow{sampleRow()}}
	producer := &fakeProducer{}
	w := &Worker{Store: store, Producer: producer, ID: "w1"}

	require.NoError(t, w.processOnce(context.Background()))

	require.Len(t, producer.topics, 1)
	assert.Equal(t, "booking.events.v1", producer.topics[0])
	assert.Equal(t, "7", producer.keys[0])
	assert.Equal(t, []string{"evt-1"}, store.sent)
	assert.Empty(t, store.failed)

	var evt map[string]any
	require.NoError(t, json.Unmarshal(producer.payloads[0], &evt))
	assert.Equal(t, "1.0", evt["specversion"])
	assert.Equal(t, "booking.requested.v1", evt["type"])
	assert.Equal(t, "app://heavenly", evt["source"])
	assert.Equal(t, "00-abc-def-01", evt["traceparent"])
	data, ok := evt["data"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(7), data["booking_id"])

	assert.Equal(t, "application/cloudevents+json", producer.headers[0]["content-type"])
	assert.Equal(t, "00-abc-def-01", producer.headers[0]["traceparent"])
}

func TestWorkerTopicPrefix(t *testing.T) {
	w := &Worker{TopicPrefix: "staging."}
	assert.Equal(t, "staging.booking.events.v1", w.topicFor("booking.requested"))
	assert.Equal(t, "staging.calendar.events.v1", w.topicFor("calendar.stay_blocked"))
}

func TestWorkerMarksFailedOnPublishError(t *testing.T) {
	store := &fakeStore{rows: []*EventRow{sampleRow()}}
	producer := &fakeProducer{err: errors.New("broker down")}
	w := &Worker{Store: store, Producer: producer, ID: "w1"}

	require.NoError(t, w.processOnce(context.Background()))
	assert.Empty(t, store.sent)
	assert.Equal(t, []string{"evt-1"}, store.failed)
}

func TestWorkerMarksFailedOnBadPayload(t *testing.T) {
	row := sampleRow()
	row.Payload = []byte("not-json")
	store := &fakeStore{rows: []*EventRow{row}}
	w := &Worker{Store: store, Producer: &fakeProducer{}, ID: "w1"}

	require.NoError(t, w.processOnce(context.Background()))
	assert.Equal(t, []string{"evt-1"}, store.failed)
}

func TestWorkerIdleClaimIsNoop(t *testing.T) {
	store := &fakeStore{}
	w := &Worker{Store: store, Producer: &fakeProducer{}, ID: "w1"}
	require.NoError(t, w.processOnce(context.Background()))
	assert.Empty(t, store.sent)
	assert.Empty(t, store.failed)
}

// flakyStore fails its first claims before handing out rows, mimicking a
// database that comes back after a transient outage.
type flakyStore struct {
	mu       sync.Mutex
	failures int
	rows     []*EventRow
	sent     []string
}

func (s *flakyStore) Claim(ctx context.Context, workerID string) (*EventRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failures > 0 {
		s.failures--
		return nil, errors.New("connection reset")
	}
	if len(s.rows) == 0 {
		return nil, nil
	}
	row := s.rows[0]
	s.rows = s.rows[1:]
	return row, nil
}

func (s *flakyStore) MarkSent(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, id)
	return nil
}

func (s *flakyStore) MarkFailed(ctx context.Context, id string, next time.Time, errMsg string) error {
	return nil
}

func (s *flakyStore) sentIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.sent...)
}

func TestRunSurvivesTransientStoreErrors(t *testing.T) {
	store := &flakyStore{failures: 3, rows: []*EventRow{sampleRow()}}
	w := &Worker{
		Store:    store,
		Producer: &fakeProducer{},
		ID:       "w1",
		Interval: time.Millisecond,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.Eventually(t, func() bool {
		return len(store.sentIDs()) == 1
	}, time.Second, 5*time.Millisecond, "relay must outlive claim errors and drain the row")

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestWorkerRequiresDependencies(t *testing.T) {
	w := &Worker{}
	assert.ErrorIs(t, w.Run(context.Background()), ErrWorkerNotConfigured)
}

func TestNextRetryFollowsBackoffSchedule(t *testing.T) {
	w := &Worker{Backoff: []time.Duration{time.Second, time.Minute}}

	first := w.nextRetry(0)
	assert.WithinDuration(t, time.Now().Add(time.Second), first, 200*time.Millisecond)

	capped := w.nextRetry(9)
	assert.WithinDuration(t, time.Now().Add(time.Minute), capped, 200*time.Millisecond)
}
