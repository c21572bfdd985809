// Package searchlog records resolution attempts off the request path.
package searchlog

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jonathan/occupation-matcher/internal/db"
	"github.com/jonathan/occupation-matcher/internal/types"
)

// DefaultQueueSize is used when NewQueue is given a non-positive size
const DefaultQueueSize = 256

// sinkTimeout bounds one sink write
const sinkTimeout = 5 * time.Second

// Entry is one resolution attempt
type Entry struct {
	SearchTerm   string            `json:"search_term"`
	Normalized   string            `json:"normalized"`
	ConceptType  types.ConceptType `json:"concept_type,omitempty"`
	FoundExact   bool              `json:"found_exact"`
	FoundFuzzy   bool              `json:"found_fuzzy"`
	ResultsCount int               `json:"results_count"`
	At           time.Time         `json:"at"`
}

// Sink persists or forwards entries
type Sink interface {
	Name() string
	Record(ctx context.Context, e Entry) error
}

// Metrics receives queue outcomes. Implementations must be safe for concurrent use.
type Metrics interface {
	SearchLogged(sink string, err error)
	SearchDropped()
}

// Queue buffers entries and writes them to every sink from a single worker.
// Sink failures are logged and never reach the caller.
type Queue struct {
	entries chan Entry
	sinks   []Sink
	logger  *slog.Logger
	metrics Metrics

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

// NewQueue creates a queue and starts its worker. Call Close to drain it.
func NewQueue(size int, logger *slog.Logger, metrics Metrics, sinks ...Sink) *Queue {
	if size <= 0 {
		size = DefaultQueueSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	q := &Queue{
		entries: make(chan Entry, size),
		sinks:   sinks,
		logger:  logger.With(slog.String("component", "searchlog")),
		metrics: metrics,
		done:    make(chan struct{}),
	}
	go q.run()
	return q
}

// Log enqueues an entry without blocking. When the buffer is full the entry is dropped.
func (q *Queue) Log(e Entry) {
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		q.drop(e)
		return
	}
	select {
	case q.entries <- e:
	default:
		q.drop(e)
	}
}

// Close stops accepting entries and waits until buffered entries are written
// or ctx is done.
func (q *Queue) Close(ctx context.Context) error {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.entries)
	}
	q.mu.Unlock()
	select {
	case <-q.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("failed to drain search log: %w", ctx.Err())
	}
}

func (q *Queue) drop(e Entry) {
	q.logger.Warn("search log entry dropped", slog.String("term", e.SearchTerm))
	if q.metrics != nil {
		q.metrics.SearchDropped()
	}
}

func (q *Queue) run() {
	defer close(q.done)
	for e := range q.entries {
		for _, sink := range q.sinks {
			ctx, cancel := context.WithTimeout(context.Background(), sinkTimeout)
			err := sink.Record(ctx, e)
			cancel()
			if err != nil {
				q.logger.Warn("failed to record search",
					slog.String("sink", sink.Name()),
					slog.String("term", e.SearchTerm),
					slog.Any("error", err))
			}
			if q.metrics != nil {
				q.metrics.SearchLogged(sink.Name(), err)
			}
		}
	}
}

// SearchStore is the table the database sink writes to
type SearchStore interface {
	InsertSearch(ctx context.Context, entry db.SearchLogEntry) error
}

// DBSink writes entries to the concept_search_log table
type DBSink struct {
	store SearchStore
}

// NewDBSink creates a database sink
func NewDBSink(store SearchStore) *DBSink {
	return &DBSink{store: store}
}

// Name implements Sink
func (s *DBSink) Name() string { return "postgres" }

// Record implements Sink
func (s *DBSink) Record(ctx context.Context, e Entry) error {
	return s.store.InsertSearch(ctx, db.SearchLogEntry{
		SearchTerm:           e.SearchTerm,
		SearchTermNormalized: e.Normalized,
		ConceptType:          e.ConceptType,
		FoundExact:           e.FoundExact,
		FoundFuzzy:           e.FoundFuzzy,
		ResultsCount:         e.ResultsCount,
	})
}

// Publisher is satisfied by *nats.Conn
type Publisher interface {
	Publish(subject string, data []byte) error
}

// NATSSink publishes entries as JSON events
type NATSSink struct {
	pub     Publisher
	subject string
}

// NewNATSSink creates a sink publishing on subject
func NewNATSSink(pub Publisher, subject string) *NATSSink {
	return &NATSSink{pub: pub, subject: subject}
}

// Name implements Sink
func (s *NATSSink) Name() string { return "nats" }

// Record implements Sink
func (s *NATSSink) Record(_ context.Context, e Entry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal search event: %w", err)
	}
	if err := s.pub.Publish(s.subject, data); err != nil {
		return fmt.Errorf("failed to publish search event: %w", err)
	}
	return nil
}
