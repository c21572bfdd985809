// Package matching ranks occupations against a resolved skill profile.
package matching

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/occupation-matcher/internal/index"
	"github.com/jonathan/occupation-matcher/internal/parsing"
	"github.com/jonathan/occupation-matcher/internal/skills"
	"github.com/jonathan/occupation-matcher/internal/types"
)

// Resolver resolves one profile entry
type Resolver interface {
	ResolveTerm(ctx context.Context, input string, category types.Category) (types.ResolvedTerm, error)
}

// Index provides the ready requirement index
type Index interface {
	EnsureReady(ctx context.Context) (*index.Snapshot, error)
}

// Weights provides the active IDF table
type Weights interface {
	Table() *skills.Table
}

// Metrics observes match calls. Implementations must be safe for concurrent use.
type Metrics interface {
	ObserveMatch(d time.Duration, returned int, err error)
}

// Config holds scoring parameters
type Config struct {
	TierWeights        map[types.Tier]float64
	CategoryWeights    map[types.Category]float64
	GapLimits          map[types.Category]int
	MaxLimit           int
	ResolveConcurrency int
}

// DefaultConfig returns the default scoring parameters. Categories are
// weighted equally.
func DefaultConfig() Config {
	return Config{
		TierWeights: map[types.Tier]float64{
			types.TierEssential: 1.0,
			types.TierImportant: 0.4,
			types.TierSomewhat:  0.2,
		},
		CategoryWeights: map[types.Category]float64{
			types.CategorySkills:    1.0,
			types.CategoryKnowledge: 1.0,
			types.CategoryTasks:     1.0,
		},
		GapLimits: map[types.Category]int{
			types.CategorySkills:    10,
			types.CategoryKnowledge: 5,
			types.CategoryTasks:     5,
		},
		MaxLimit:           100,
		ResolveConcurrency: 8,
	}
}

// Engine matches profiles against the requirement index
type Engine struct {
	resolver Resolver
	index    Index
	weights  Weights
	cfg      Config
	logger   *slog.Logger
	metrics  Metrics
}

// New creates an Engine. Missing config entries fall back to DefaultConfig.
func New(resolver Resolver, idx Index, weights Weights, cfg Config, logger *slog.Logger, metrics Metrics) *Engine {
	defaults := DefaultConfig()
	if len(cfg.TierWeights) == 0 {
		cfg.TierWeights = defaults.TierWeights
	}
	if len(cfg.CategoryWeights) == 0 {
		cfg.CategoryWeights = defaults.CategoryWeights
	}
	if cfg.GapLimits == nil {
		cfg.GapLimits = defaults.GapLimits
	}
	if cfg.MaxLimit <= 0 {
		cfg.MaxLimit = defaults.MaxLimit
	}
	if cfg.ResolveConcurrency <= 0 {
		cfg.ResolveConcurrency = defaults.ResolveConcurrency
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		resolver: resolver,
		index:    idx,
		weights:  weights,
		cfg:      cfg,
		logger:   logger.With("component", "matching"),
		metrics:  metrics,
	}
}

// MatchProfile resolves the profile, scores every occupation requiring a
// resolved concept and returns the ranked candidates. Unresolved entries are
// reported in the response meta, never dropped. Infrastructure faults are
// returned unchanged.
func (e *Engine) MatchProfile(ctx context.Context, profile *types.MatchProfile, opts types.MatchOptions) (*types.MatchResponse, error) {
	start := time.Now()
	resp, err := e.matchProfile(ctx, profile, opts, start)
	if e.metrics != nil {
		returned := 0
		if resp != nil {
			returned = len(resp.Matches)
		}
		e.metrics.ObserveMatch(time.Since(start), returned, err)
	}
	return resp, err
}

func (e *Engine) matchProfile(ctx context.Context, profile *types.MatchProfile, opts types.MatchOptions, start time.Time) (*types.MatchResponse, error) {
	cleaned, err := e.checkInput(profile, opts)
	if err != nil {
		return nil, err
	}

	terms, err := e.resolveProfile(ctx, cleaned)
	if err != nil {
		return nil, err
	}

	resp := &types.MatchResponse{
		Success: true,
		Matches: []types.Candidate{},
		Meta: types.MatchMeta{
			ResolvedProfile: partition(terms),
			Weights:         copyWeights(e.cfg.CategoryWeights),
		},
	}

	if len(resp.Meta.ResolvedProfile.Resolved) == 0 {
		resp.Meta.Diagnostic = fmt.Sprintf("no resolvable terms: none of the %d profile entries matched a known concept", len(terms))
		resp.Meta.ExecutionTime = time.Since(start)
		return resp, nil
	}

	snap, err := e.index.EnsureReady(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare requirement index: %w", err)
	}
	resp.Meta.Index = &types.IndexInfo{BuiltAt: snap.BuiltAt(), Age: time.Since(snap.BuiltAt())}

	table := e.weights.Table()
	concepts := collectConcepts(resp.Meta.ResolvedProfile.Resolved, table)
	scored := e.score(snap, concepts)
	resp.Meta.TotalCandidates = len(scored)

	kept := scored[:0]
	for _, s := range scored {
		if s.score >= opts.MinScore {
			kept = append(kept, s)
		}
	}
	sortScored(kept)
	resp.Meta.MatchedCandidates = len(kept)

	if len(kept) > opts.Limit {
		kept = kept[:opts.Limit]
	}
	for _, s := range kept {
		resp.Matches = append(resp.Matches, e.candidate(snap, table, concepts, s, opts))
	}
	resp.Meta.ReturnedMatches = len(resp.Matches)

	if resp.Meta.TotalCandidates == 0 {
		resp.Meta.Diagnostic = "no occupation requires any of the resolved terms"
	}
	resp.Meta.ExecutionTime = time.Since(start)

	e.logger.Debug("profile matched",
		"resolved", len(resp.Meta.ResolvedProfile.Resolved),
		"unresolved", len(resp.Meta.ResolvedProfile.Unresolved),
		"candidates", resp.Meta.TotalCandidates,
		"returned", resp.Meta.ReturnedMatches,
		"duration", resp.Meta.ExecutionTime)
	return resp, nil
}

// checkInput validates the request without touching any store
func (e *Engine) checkInput(profile *types.MatchProfile, opts types.MatchOptions) (types.MatchProfile, error) {
	if profile == nil {
		return types.MatchProfile{}, &InputError{Field: "profile", Message: "profile is required"}
	}
	cleaned := parsing.CleanProfile(*profile)
	if cleaned.Empty() {
		return cleaned, &InputError{Field: "profile", Message: "profile must contain at least one skill, knowledge area or task"}
	}

	if err := opts.Validate(); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return cleaned, &InputError{
				Field:   verrs[0].Field(),
				Message: fmt.Sprintf("failed %s=%s check", verrs[0].Tag(), verrs[0].Param()),
			}
		}
		return cleaned, &InputError{Field: "options", Message: err.Error()}
	}
	if opts.Limit > e.cfg.MaxLimit {
		return cleaned, &InputError{Field: "Limit", Message: fmt.Sprintf("must be at most %d", e.cfg.MaxLimit)}
	}
	return cleaned, nil
}

// resolveProfile resolves every entry concurrently, keeping profile order
func (e *Engine) resolveProfile(ctx context.Context, profile types.MatchProfile) ([]types.ResolvedTerm, error) {
	type entry struct {
		input    string
		category types.Category
	}
	var entries []entry
	for _, c := range types.Categories {
		for _, term := range profile.Terms(c) {
			entries = append(entries, entry{input: term, category: c})
		}
	}

	terms := make([]types.ResolvedTerm, len(entries))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.ResolveConcurrency)
	for i, en := range entries {
		g.Go(func() error {
			rt, err := e.resolver.ResolveTerm(gctx, en.input, en.category)
			if err != nil {
				return fmt.Errorf("failed to resolve %q: %w", en.input, err)
			}
			terms[i] = rt
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return terms, nil
}

func partition(terms []types.ResolvedTerm) types.ResolvedProfile {
	rp := types.ResolvedProfile{Resolved: []types.ResolvedTerm{}, Unresolved: []string{}}
	for _, t := range terms {
		if t.Resolved() {
			rp.Resolved = append(rp.Resolved, t)
		} else {
			rp.Unresolved = append(rp.Unresolved, t.InputText)
		}
	}
	return rp
}

func copyWeights(w map[types.Category]float64) map[types.Category]float64 {
	out := make(map[types.Category]float64, len(w))
	for k, v := range w {
		out[k] = v
	}
	return out
}

// ErrorResponse renders a failed match call. Input errors are never retryable.
func ErrorResponse(err error) *types.MatchResponse {
	return &types.MatchResponse{
		Success:   false,
		Error:     err.Error(),
		Retryable: !IsInputError(err) && types.IsRetryable(err),
		Matches:   []types.Candidate{},
	}
}
