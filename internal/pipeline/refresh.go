// Package pipeline orchestrates the batch refresh of the requirement index and
// the IDF weights derived from it.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonathan/occupation-matcher/internal/index"
	"github.com/jonathan/occupation-matcher/internal/skills"
	"github.com/jonathan/occupation-matcher/internal/types"
)

// Refresh steps
const (
	StepIndex   = "index"
	StepIDF     = "idf"
	StepPersist = "persist"
	StepActive  = "activate"
)

// ProgressEvent represents a progress update during a refresh
type ProgressEvent struct {
	Step    string `json:"step"`
	Message string `json:"message"`
	Content any    `json:"content,omitempty"`
}

// ProgressCallback is called when refresh progress occurs
type ProgressCallback func(event ProgressEvent)

// IndexSource builds or rebuilds the requirement index
type IndexSource interface {
	EnsureReady(ctx context.Context) (*index.Snapshot, error)
	Refresh(ctx context.Context) (*index.Snapshot, error)
}

// OccupationCounter counts every occupation in the knowledge graph
type OccupationCounter interface {
	CountOccupations(ctx context.Context) (int, error)
}

// SnapshotStore persists IDF snapshots
type SnapshotStore interface {
	ReplaceIdfSnapshot(ctx context.Context, snapshot *types.IdfSnapshot) error
}

// WeightSink activates a computed snapshot for matching
type WeightSink interface {
	Set(snapshot *types.IdfSnapshot) *skills.Table
}

// Metrics records the active IDF snapshot
type Metrics interface {
	SetIdfSnapshot(weights, totalOccupations int)
}

// Options configures a Refresher
type Options struct {
	ConceptTypes []types.ConceptType
	Categorizer  *skills.Categorizer
	OnProgress   ProgressCallback
}

// Refresher runs the refresh steps. Counter, store, weights and metrics are
// optional; missing ones skip their step.
type Refresher struct {
	index   IndexSource
	counter OccupationCounter
	store   SnapshotStore
	weights WeightSink
	metrics Metrics
	opts    Options
	logger  *slog.Logger
}

// NewRefresher creates a Refresher
func NewRefresher(idx IndexSource, counter OccupationCounter, store SnapshotStore, weights WeightSink, opts Options, logger *slog.Logger, metrics Metrics) *Refresher {
	if len(opts.ConceptTypes) == 0 {
		opts.ConceptTypes = []types.ConceptType{types.ConceptHumanCapability}
	}
	if opts.Categorizer == nil {
		opts.Categorizer = skills.DefaultCategorizer()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Refresher{
		index:   idx,
		counter: counter,
		store:   store,
		weights: weights,
		metrics: metrics,
		opts:    opts,
		logger:  logger.With("component", "pipeline"),
	}
}

func (r *Refresher) emit(step, message string, content any) {
	if r.opts.OnProgress != nil {
		r.opts.OnProgress(ProgressEvent{Step: step, Message: message, Content: content})
	}
}

// Result summarizes one refresh
type Result struct {
	Index    index.Stats        `json:"index"`
	Snapshot *types.IdfSnapshot `json:"-"`
	Weights  int                `json:"weights"`
	Duration time.Duration      `json:"duration"`
}

// RefreshIndex rebuilds the requirement index and swaps it in
func (r *Refresher) RefreshIndex(ctx context.Context) (*index.Snapshot, error) {
	snap, err := r.index.Refresh(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to refresh requirement index: %w", err)
	}
	stats := snap.Stats()
	r.emit(StepIndex, fmt.Sprintf("indexed %d links for %d occupations", stats.Links, stats.Occupations), stats)
	return snap, nil
}

// ComputeIDF derives a snapshot from the requirement index. The occupation
// total comes from the counter when set; it is never below the number of
// occupations in the index.
func (r *Refresher) ComputeIDF(ctx context.Context, snap *index.Snapshot) (*types.IdfSnapshot, error) {
	total := snap.OccupationCount()
	if r.counter != nil {
		counted, err := r.counter.CountOccupations(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to count occupations: %w", err)
		}
		if counted < total {
			r.logger.Warn("occupation count below indexed occupations", "counted", counted, "indexed", total)
		} else {
			total = counted
		}
	}

	idf, err := skills.Compute(snap.Frequencies(r.opts.ConceptTypes...), total, r.opts.ConceptTypes, r.opts.Categorizer, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to compute idf weights: %w", err)
	}
	r.emit(StepIDF, fmt.Sprintf("computed %d weights over %d occupations", len(idf.Weights), total), nil)
	return idf, nil
}

// Compute derives a snapshot from the current index, building it if needed
func (r *Refresher) Compute(ctx context.Context) (*types.IdfSnapshot, error) {
	snap, err := r.index.EnsureReady(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare requirement index: %w", err)
	}
	return r.ComputeIDF(ctx, snap)
}

// Publish persists a snapshot and makes it the active weight table
func (r *Refresher) Publish(ctx context.Context, idf *types.IdfSnapshot) error {
	if r.store != nil {
		if err := r.store.ReplaceIdfSnapshot(ctx, idf); err != nil {
			return fmt.Errorf("failed to persist idf snapshot: %w", err)
		}
		r.emit(StepPersist, fmt.Sprintf("stored snapshot %s", idf.Version), nil)
	}
	if r.weights != nil {
		r.weights.Set(idf)
		r.emit(StepActive, fmt.Sprintf("activated snapshot %s", idf.Version), nil)
	}
	if r.metrics != nil {
		r.metrics.SetIdfSnapshot(len(idf.Weights), idf.TotalOccupations)
	}
	return nil
}

// Run refreshes the index and, when recomputeIDF is set, recomputes and
// publishes the IDF weights from the fresh index. A failed IDF step leaves
// the new index in place and the previous weights active.
func (r *Refresher) Run(ctx context.Context, recomputeIDF bool) (*Result, error) {
	start := time.Now()

	snap, err := r.RefreshIndex(ctx)
	if err != nil {
		return nil, err
	}
	res := &Result{Index: snap.Stats()}

	if recomputeIDF {
		idf, err := r.ComputeIDF(ctx, snap)
		if err != nil {
			return res, err
		}
		if err := r.Publish(ctx, idf); err != nil {
			return res, err
		}
		res.Snapshot = idf
		res.Weights = len(idf.Weights)
	}

	res.Duration = time.Since(start)
	r.logger.Info("refresh complete",
		"occupations", res.Index.Occupations,
		"links", res.Index.Links,
		"weights", res.Weights,
		"duration", res.Duration)
	return res, nil
}
