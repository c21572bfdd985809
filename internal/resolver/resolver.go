// Package resolver maps free-text terms onto knowledge-graph concepts.
//
// Tiers are tried strictly in order and the first non-empty tier wins:
// exact label, curated synonym, contains, full-text relevance.
package resolver

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/jonathan/occupation-matcher/internal/parsing"
	"github.com/jonathan/occupation-matcher/internal/searchlog"
	"github.com/jonathan/occupation-matcher/internal/types"
)

// Store is the label cache the resolver reads and writes.
// An empty concept type searches all types.
type Store interface {
	ExactLabels(ctx context.Context, normalized string, conceptType types.ConceptType, limit int) ([]types.ConceptMatch, error)
	SynonymMatches(ctx context.Context, normalized string, conceptType types.ConceptType, limit int) ([]types.ConceptMatch, error)
	ContainsLabels(ctx context.Context, normalized string, conceptType types.ConceptType, limit int) ([]types.ConceptMatch, error)
	RelevanceLabels(ctx context.Context, term string, conceptType types.ConceptType, limit int) ([]types.ConceptMatch, error)
	SuggestLabels(ctx context.Context, normalizedPrefix string, conceptType types.ConceptType, limit int) ([]types.LabelSuggestion, error)
	LabelExists(ctx context.Context, conceptURI, normalized string) (bool, error)
	BumpUsage(ctx context.Context, conceptURI, normalized string) error
	UpsertSynonym(ctx context.Context, s types.Synonym) error
	ConfirmLatestSearch(ctx context.Context, normalized, selectedURI, selectedPrefLabel string) (bool, error)
	MissingTerms(ctx context.Context, limit int) ([]types.MissingTerm, error)
}

// SearchLogger receives one entry per resolution attempt
type SearchLogger interface {
	Log(e searchlog.Entry)
}

// Metrics receives resolution outcomes
type Metrics interface {
	ObserveResolve(tier types.MatchTier, d time.Duration)
}

// Options tunes result sizes and write-back confidence
type Options struct {
	ExactLimit          int
	SynonymLimit        int
	ContainsLimit       int
	RelevanceLimit      int
	ConfirmedConfidence float64
}

// DefaultOptions returns the standard result limits
func DefaultOptions() Options {
	return Options{
		ExactLimit:          10,
		SynonymLimit:        10,
		ContainsLimit:       15,
		RelevanceLimit:      10,
		ConfirmedConfidence: 0.8,
	}
}

// minContainsLength keeps one-letter terms from matching most of the vocabulary
const minContainsLength = 2

// ManualSynonymConfidence is used by AddSynonym when no confidence is given
const ManualSynonymConfidence = 0.9

// Resolver resolves terms against the label store. It is safe for concurrent use.
type Resolver struct {
	store   Store
	log     SearchLogger
	opts    Options
	logger  *slog.Logger
	metrics Metrics
}

// New creates a resolver. log and metrics may be nil.
func New(store Store, log SearchLogger, opts Options, logger *slog.Logger, metrics Metrics) *Resolver {
	defaults := DefaultOptions()
	if opts.ExactLimit <= 0 {
		opts.ExactLimit = defaults.ExactLimit
	}
	if opts.SynonymLimit <= 0 {
		opts.SynonymLimit = defaults.SynonymLimit
	}
	if opts.ContainsLimit <= 0 {
		opts.ContainsLimit = defaults.ContainsLimit
	}
	if opts.RelevanceLimit <= 0 {
		opts.RelevanceLimit = defaults.RelevanceLimit
	}
	if opts.ConfirmedConfidence <= 0 {
		opts.ConfirmedConfidence = defaults.ConfirmedConfidence
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		store:   store,
		log:     log,
		opts:    opts,
		logger:  logger.With(slog.String("component", "resolver")),
		metrics: metrics,
	}
}

// Resolve resolves term against every concept type
func (r *Resolver) Resolve(ctx context.Context, term string) (*types.ResolveResult, error) {
	return r.ResolveType(ctx, term, "")
}

// ResolveType resolves term against one concept type (all types when empty).
// A store fault fails the whole resolution with a *StoreError.
func (r *Resolver) ResolveType(ctx context.Context, term string, conceptType types.ConceptType) (*types.ResolveResult, error) {
	start := time.Now()
	term = strings.TrimSpace(term)
	normalized := parsing.NormalizeLabel(term)
	if normalized == "" {
		return nil, ErrEmptyTerm
	}

	result := &types.ResolveResult{SearchTerm: term, Normalized: normalized}

	matches, err := r.store.ExactLabels(ctx, normalized, conceptType, r.opts.ExactLimit)
	if err != nil {
		return nil, &StoreError{Op: "exact lookup", Term: term, Cause: err}
	}
	if len(matches) > 0 {
		sortExact(matches)
		result.Exact = true
		r.finish(result, matches, types.MatchExact, conceptType, start)
		result.NeedsConfirmation = result.DistinctConcepts() > 1
		return result, nil
	}

	matches, err = r.store.SynonymMatches(ctx, normalized, conceptType, r.opts.SynonymLimit)
	if err != nil {
		return nil, &StoreError{Op: "synonym lookup", Term: term, Cause: err}
	}
	if len(matches) > 0 {
		sortByConfidence(matches)
		r.finish(result, matches, types.MatchSynonym, conceptType, start)
		result.NeedsConfirmation = result.DistinctConcepts() > 1
		return result, nil
	}

	if len([]rune(normalized)) >= minContainsLength {
		matches, err = r.store.ContainsLabels(ctx, normalized, conceptType, r.opts.ContainsLimit)
		if err != nil {
			return nil, &StoreError{Op: "contains lookup", Term: term, Cause: err}
		}
		if len(matches) > 0 {
			sortByConfidence(matches)
			r.finish(result, matches, types.MatchFuzzy, conceptType, start)
			result.NeedsConfirmation = true
			return result, nil
		}
	}

	matches, err = r.store.RelevanceLabels(ctx, term, conceptType, r.opts.RelevanceLimit)
	if err != nil {
		return nil, &StoreError{Op: "relevance lookup", Term: term, Cause: err}
	}
	if len(matches) > 0 {
		sortByConfidence(matches)
		r.finish(result, matches, types.MatchFuzzy, conceptType, start)
		result.NeedsConfirmation = true
		result.Suggestion = fmt.Sprintf("Did you mean %q?", result.Matches[0].PrefLabel)
		return result, nil
	}

	result.Matches = []types.ConceptMatch{}
	result.Suggestion = fmt.Sprintf("No concept found for %q. Try a more general or differently spelled term.", term)
	r.record(result, types.MatchNone, conceptType, start)
	r.logger.Debug("term not resolved", slog.String("term", term), slog.String("normalized", normalized))
	return result, nil
}

func (r *Resolver) finish(result *types.ResolveResult, matches []types.ConceptMatch, tier types.MatchTier, conceptType types.ConceptType, start time.Time) {
	if tier == types.MatchFuzzy {
		matches = dedupeByConcept(matches)
	}
	result.Found = true
	result.Matches = matches
	r.record(result, tier, conceptType, start)
}

func (r *Resolver) record(result *types.ResolveResult, tier types.MatchTier, conceptType types.ConceptType, start time.Time) {
	if r.log != nil {
		r.log.Log(searchlog.Entry{
			SearchTerm:   result.SearchTerm,
			Normalized:   result.Normalized,
			ConceptType:  conceptType,
			FoundExact:   tier == types.MatchExact || tier == types.MatchSynonym,
			FoundFuzzy:   tier == types.MatchFuzzy,
			ResultsCount: len(result.Matches),
		})
	}
	if r.metrics != nil {
		r.metrics.ObserveResolve(tier, time.Since(start))
	}
}

// ResolveTerm resolves one profile entry for the given category. Entries that
// are already concept URIs pass through with confidence 1.
func (r *Resolver) ResolveTerm(ctx context.Context, input string, category types.Category) (types.ResolvedTerm, error) {
	rt := types.ResolvedTerm{InputText: input, Category: category, MatchTier: types.MatchNone}

	if parsing.IsConceptURI(input) {
		rt.ConceptURI = strings.TrimSpace(input)
		rt.MatchTier = types.MatchExact
		rt.Confidence = 1.0
		return rt, nil
	}

	res, err := r.ResolveType(ctx, input, category.ConceptType())
	if err != nil {
		if err == ErrEmptyTerm {
			return rt, nil
		}
		return rt, err
	}
	if !res.Found {
		return rt, nil
	}

	top := res.Matches[0]
	rt.ConceptURI = top.URI
	rt.PrefLabel = top.PrefLabel
	rt.MatchTier = top.MatchType.Tier()
	rt.Confidence = top.Confidence
	rt.NeedsConfirmation = res.NeedsConfirmation
	rt.Alternatives = res.DistinctConcepts() - 1
	return rt, nil
}

// ConfirmResult reports what a confirmation changed
type ConfirmResult struct {
	SearchUpdated bool `json:"search_updated"`
	SynonymAdded  bool `json:"synonym_added"`
}

// Confirm records that the user picked conceptURI for term. When the term is
// not already a label of the concept it is stored as a synonym.
func (r *Resolver) Confirm(ctx context.Context, term, conceptURI, prefLabel string, conceptType types.ConceptType) (*ConfirmResult, error) {
	normalized := parsing.NormalizeLabel(term)
	if normalized == "" {
		return nil, ErrEmptyTerm
	}
	if !parsing.IsConceptURI(conceptURI) {
		return nil, ErrInvalidURI
	}

	updated, err := r.store.ConfirmLatestSearch(ctx, normalized, conceptURI, prefLabel)
	if err != nil {
		return nil, &StoreError{Op: "confirm search", Term: term, Cause: err}
	}
	if err := r.store.BumpUsage(ctx, conceptURI, normalized); err != nil {
		return nil, &StoreError{Op: "bump usage", Term: term, Cause: err}
	}

	exists, err := r.store.LabelExists(ctx, conceptURI, normalized)
	if err != nil {
		return nil, &StoreError{Op: "label check", Term: term, Cause: err}
	}

	result := &ConfirmResult{SearchUpdated: updated}
	if !exists {
		err := r.store.UpsertSynonym(ctx, types.Synonym{
			Synonym:           strings.TrimSpace(term),
			SynonymNormalized: normalized,
			ConceptURI:        conceptURI,
			ConceptType:       conceptType,
			PrefLabel:         prefLabel,
			Confidence:        r.opts.ConfirmedConfidence,
			AddedBy:           types.AddedByUserConfirmed,
		})
		if err != nil {
			return nil, &StoreError{Op: "add synonym", Term: term, Cause: err}
		}
		result.SynonymAdded = true
	}

	r.logger.Info("selection confirmed",
		slog.String("term", term),
		slog.String("uri", conceptURI),
		slog.Bool("synonym_added", result.SynonymAdded))
	return result, nil
}

// AddSynonym stores a curated synonym. A zero confidence uses ManualSynonymConfidence.
func (r *Resolver) AddSynonym(ctx context.Context, s types.Synonym) error {
	s.Synonym = strings.TrimSpace(s.Synonym)
	s.SynonymNormalized = parsing.NormalizeLabel(s.Synonym)
	if s.SynonymNormalized == "" {
		return ErrEmptyTerm
	}
	if !parsing.IsConceptURI(s.ConceptURI) {
		return ErrInvalidURI
	}
	if s.Confidence <= 0 {
		s.Confidence = ManualSynonymConfidence
	}
	if s.Confidence > 1 {
		return fmt.Errorf("synonym confidence %.2f is out of range [0,1]", s.Confidence)
	}
	if s.AddedBy == "" {
		s.AddedBy = types.AddedByManual
	}
	if err := r.store.UpsertSynonym(ctx, s); err != nil {
		return &StoreError{Op: "add synonym", Term: s.Synonym, Cause: err}
	}
	return nil
}

// Suggest returns autocomplete entries for a partial term
func (r *Resolver) Suggest(ctx context.Context, partial string, conceptType types.ConceptType, limit int) ([]types.LabelSuggestion, error) {
	normalized := parsing.NormalizeLabel(partial)
	if len([]rune(normalized)) < minContainsLength {
		return []types.LabelSuggestion{}, nil
	}
	if limit <= 0 {
		limit = r.opts.ExactLimit
	}
	suggestions, err := r.store.SuggestLabels(ctx, normalized, conceptType, limit)
	if err != nil {
		return nil, &StoreError{Op: "suggest", Term: partial, Cause: err}
	}
	return suggestions, nil
}

// MissingTerms lists unresolved searches, most frequent first
func (r *Resolver) MissingTerms(ctx context.Context, limit int) ([]types.MissingTerm, error) {
	if limit <= 0 {
		limit = 20
	}
	terms, err := r.store.MissingTerms(ctx, limit)
	if err != nil {
		return nil, &StoreError{Op: "missing terms", Cause: err}
	}
	return terms, nil
}

func sortExact(matches []types.ConceptMatch) {
	sort.SliceStable(matches, func(i, j int) bool {
		ri, rj := matches[i].LabelType.Rank(), matches[j].LabelType.Rank()
		if ri != rj {
			return ri < rj
		}
		return matches[i].URI < matches[j].URI
	})
}

// sortByConfidence orders by confidence, then shorter matched label, then URI
func sortByConfidence(matches []types.ConceptMatch) {
	sort.SliceStable(matches, func(i, j int) bool {
		a, b := matches[i], matches[j]
		if a.Confidence != b.Confidence {
			return a.Confidence > b.Confidence
		}
		la, lb := len([]rune(a.MatchedLabel)), len([]rune(b.MatchedLabel))
		if la != lb {
			return la < lb
		}
		return a.URI < b.URI
	})
}

func dedupeByConcept(matches []types.ConceptMatch) []types.ConceptMatch {
	seen := make(map[string]struct{}, len(matches))
	out := matches[:0]
	for _, m := range matches {
		if _, ok := seen[m.URI]; ok {
			continue
		}
		seen[m.URI] = struct{}{}
		out = append(out, m)
	}
	return out
}
