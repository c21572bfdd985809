package searchlog

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/occupation-matcher/internal/db"
	"github.com/jonathan/occupation-matcher/internal/types"
)

type fakeStore struct {
	mu      sync.Mutex
	entries []db.SearchLogEntry
	err     error
}

func (f *fakeStore) InsertSearch(_ context.Context, e db.SearchLogEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.entries = append(f.entries, e)
	return nil
}

type fakePublisher struct {
	mu       sync.Mutex
	subjects []string
	payloads [][]byte
}

func (f *fakePublisher) Publish(subject string, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subjects = append(f.subjects, subject)
	f.payloads = append(f.payloads, data)
	return nil
}

type fakeMetrics struct {
	mu      sync.Mutex
	logged  map[string]int
	failed  int
	dropped int
}

func (m *fakeMetrics) SearchLogged(sink string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.logged == nil {
		m.logged = make(map[string]int)
	}
	m.logged[sink]++
	if err != nil {
		m.failed++
	}
}

func (m *fakeMetrics) SearchDropped() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dropped++
}

func closeQueue(t *testing.T, q *Queue) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, q.Close(ctx))
}

func TestQueue_WritesToAllSinks(t *testing.T) {
	store := &fakeStore{}
	pub := &fakePublisher{}
	metrics := &fakeMetrics{}
	q := NewQueue(8, nil, metrics, NewDBSink(store), NewNATSSink(pub, "matcher.search"))

	q.Log(Entry{SearchTerm: "Lassen", Normalized: "lassen", ConceptType: types.ConceptHumanCapability, FoundExact: true, ResultsCount: 1})
	q.Log(Entry{SearchTerm: "xyz", Normalized: "xyz"})
	closeQueue(t, q)

	require.Len(t, store.entries, 2)
	assert.Equal(t, "lassen", store.entries[0].SearchTermNormalized)
	assert.True(t, store.entries[0].FoundExact)
	assert.Equal(t, types.ConceptHumanCapability, store.entries[0].ConceptType)
	assert.Equal(t, 0, store.entries[1].ResultsCount)

	require.Len(t, pub.payloads, 2)
	assert.Equal(t, "matcher.search", pub.subjects[0])
	var event Entry
	require.NoError(t, json.Unmarshal(pub.payloads[1], &event))
	assert.Equal(t, "xyz", event.SearchTerm)
	assert.False(t, event.At.IsZero())

	assert.Equal(t, 2, metrics.logged["postgres"])
	assert.Equal(t, 2, metrics.logged["nats"])
}

func TestQueue_SinkFailureIsIsolated(t *testing.T) {
	failing := &fakeStore{err: errors.New("connection refused")}
	pub := &fakePublisher{}
	metrics := &fakeMetrics{}
	q := NewQueue(8, nil, metrics, NewDBSink(failing), NewNATSSink(pub, "s"))

	q.Log(Entry{SearchTerm: "lassen"})
	closeQueue(t, q)

	assert.Len(t, pub.payloads, 1, "other sinks still receive the entry")
	assert.Equal(t, 1, metrics.failed)
}

type blockingSink struct {
	release chan struct{}
}

func (b *blockingSink) Name() string { return "blocking" }

func (b *blockingSink) Record(ctx context.Context, _ Entry) error {
	select {
	case <-b.release:
	case <-ctx.Done():
	}
	return nil
}

func TestQueue_DropsWhenFull(t *testing.T) {
	sink := &blockingSink{release: make(chan struct{})}
	metrics := &fakeMetrics{}
	q := NewQueue(1, nil, metrics, sink)

	// One entry in the worker, one buffered, the rest dropped
	for i := 0; i < 10; i++ {
		q.Log(Entry{SearchTerm: "term"})
	}
	close(sink.release)
	closeQueue(t, q)

	metrics.mu.Lock()
	defer metrics.mu.Unlock()
	assert.GreaterOrEqual(t, metrics.dropped, 8)
}

func TestQueue_LogAfterClose(t *testing.T) {
	metrics := &fakeMetrics{}
	q := NewQueue(1, nil, metrics)
	closeQueue(t, q)

	assert.NotPanics(t, func() { q.Log(Entry{SearchTerm: "late"}) })
	assert.Equal(t, 1, metrics.dropped)
	closeQueue(t, q)
}
