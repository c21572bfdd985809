// Package index materializes the occupation requirement graph in memory.
//
// The index is built once per process, or per explicit refresh, from every
// requirement link in the knowledge graph. Concurrent callers share a single
// in-flight build and readers always see a complete snapshot.
package index

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/jonathan/occupation-matcher/internal/types"
)

// State of the index lifecycle
type State int

const (
	StateEmpty State = iota
	StateBuilding
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateBuilding:
		return "building"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// DefaultBuildTimeout bounds one build
const DefaultBuildTimeout = 5 * time.Minute

const buildKey = "requirement-index"

// LinkSource fetches every requirement link of one tier
type LinkSource interface {
	FetchLinks(ctx context.Context, tier types.Tier) ([]types.RequirementLink, error)
}

// Metrics receives build outcomes
type Metrics interface {
	ObserveIndexBuild(d time.Duration, err error)
	SetIndexSize(occupations, concepts, links int)
}

// Index is the process-wide requirement index
type Index struct {
	source  LinkSource
	timeout time.Duration
	logger  *slog.Logger
	metrics Metrics

	current atomic.Pointer[Snapshot]
	group   singleflight.Group

	mu      sync.Mutex
	state   State
	lastErr error
	builds  int
}

// New creates an empty index. Nothing is fetched until EnsureReady or Refresh.
func New(source LinkSource, timeout time.Duration, logger *slog.Logger, metrics Metrics) *Index {
	if timeout <= 0 {
		timeout = DefaultBuildTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Index{
		source:  source,
		timeout: timeout,
		logger:  logger.With(slog.String("component", "index")),
		metrics: metrics,
	}
}

// EnsureReady returns the current snapshot, building it first when needed.
// Concurrent calls attach to one build. ctx only bounds the wait: a caller
// giving up does not cancel the build for the others.
func (idx *Index) EnsureReady(ctx context.Context) (*Snapshot, error) {
	if snap := idx.current.Load(); snap != nil {
		return snap, nil
	}
	return idx.build(ctx, false)
}

// Refresh rebuilds the index and swaps it in atomically. On failure the
// previous snapshot, if any, stays in service.
func (idx *Index) Refresh(ctx context.Context) (*Snapshot, error) {
	return idx.build(ctx, true)
}

// Snapshot returns the current snapshot, or nil before the first build
func (idx *Index) Snapshot() *Snapshot {
	return idx.current.Load()
}

// State returns the lifecycle state and the error of the last failed build
func (idx *Index) State() (State, error) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	return idx.state, idx.lastErr
}

// Builds returns how many builds were started
func (idx *Index) Builds() int {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	return idx.builds
}

func (idx *Index) build(ctx context.Context, force bool) (*Snapshot, error) {
	ch := idx.group.DoChan(buildKey, func() (any, error) {
		// A build may have completed between the caller's check and this call
		if !force {
			if snap := idx.current.Load(); snap != nil {
				return snap, nil
			}
		}
		buildCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), idx.timeout)
		defer cancel()
		return idx.runBuild(buildCtx)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Snapshot), nil
	case <-ctx.Done():
		return nil, fmt.Errorf("waiting for requirement index: %w", ctx.Err())
	}
}

func (idx *Index) runBuild(ctx context.Context) (*Snapshot, error) {
	idx.mu.Lock()
	idx.builds++
	if idx.current.Load() == nil {
		idx.state = StateBuilding
	}
	idx.mu.Unlock()

	start := time.Now()
	idx.logger.Info("building requirement index")

	snap, err := Build(ctx, idx.source)
	elapsed := time.Since(start)
	if idx.metrics != nil {
		idx.metrics.ObserveIndexBuild(elapsed, err)
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	if err != nil {
		idx.lastErr = err
		if idx.current.Load() == nil {
			idx.state = StateFailed
		}
		idx.logger.Error("requirement index build failed",
			slog.Duration("elapsed", elapsed),
			slog.Any("error", err))
		return nil, err
	}

	idx.current.Store(snap)
	idx.state = StateReady
	idx.lastErr = nil

	stats := snap.Stats()
	if idx.metrics != nil {
		idx.metrics.SetIndexSize(stats.Occupations, stats.Concepts, stats.Links)
	}
	idx.logger.Info("requirement index ready",
		slog.Int("occupations", stats.Occupations),
		slog.Int("concepts", stats.Concepts),
		slog.Int("links", stats.Links),
		slog.Int("duplicates", stats.Duplicates),
		slog.Duration("elapsed", elapsed))
	return snap, nil
}

// Build fetches all tiers concurrently and ingests them strongest tier first,
// so a pair seen at several tiers keeps its strongest one.
func Build(ctx context.Context, source LinkSource) (*Snapshot, error) {
	results := make([][]types.RequirementLink, len(types.Tiers))

	g, gctx := errgroup.WithContext(ctx)
	for i, tier := range types.Tiers {
		g.Go(func() error {
			links, err := source.FetchLinks(gctx, tier)
			if err != nil {
				return fmt.Errorf("fetch %s links: %w", tier, err)
			}
			results[i] = links
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, &BuildError{Cause: err}
	}

	snap := newSnapshot()
	for _, links := range results {
		for _, l := range links {
			if l.SubjectURI == "" || l.ObjectURI == "" {
				continue
			}
			snap.add(l)
		}
	}
	if snap.links == 0 {
		return nil, &BuildError{Cause: ErrEmptyIndex}
	}
	snap.builtAt = time.Now().UTC()
	return snap, nil
}

// IsBuildError reports whether err came from a failed build
func IsBuildError(err error) bool {
	var be *BuildError
	return errors.As(err, &be)
}
