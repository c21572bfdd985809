package resolver

import (
	"context"
	"math"
	"strings"
	"sync"

	"github.com/jonathan/occupation-matcher/internal/searchlog"
	"github.com/jonathan/occupation-matcher/internal/types"
)

// memStore is an in-memory Store for tests. Relevance results are configured
// directly since there is no full-text engine.
type memStore struct {
	mu        sync.Mutex
	labels    []types.Label
	synonyms  map[string]types.Synonym // key: normalized|uri
	relevance map[string][]types.ConceptMatch
	usage     map[string]int
	searches  []searchlog.Entry
	confirmed map[string]string
	err       error
	failOn    string
	calls     []string
}

func newMemStore(labels ...types.Label) *memStore {
	return &memStore{
		labels:    labels,
		synonyms:  make(map[string]types.Synonym),
		relevance: make(map[string][]types.ConceptMatch),
		usage:     make(map[string]int),
		confirmed: make(map[string]string),
	}
}

func (m *memStore) call(op string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, op)
	if m.err != nil && (m.failOn == "" || m.failOn == op) {
		return m.err
	}
	return nil
}

func matchType(ct, want types.ConceptType) bool {
	return want == "" || ct == want
}

func labelMatch(l types.Label, mt types.MatchType, confidence float64) types.ConceptMatch {
	return types.ConceptMatch{
		URI: l.ConceptURI, ConceptType: l.ConceptType, PrefLabel: l.PrefLabel,
		MatchedLabel: l.Text, LabelType: l.LabelType, MatchType: mt, Confidence: confidence,
	}
}

func (m *memStore) ExactLabels(_ context.Context, normalized string, ct types.ConceptType, limit int) ([]types.ConceptMatch, error) {
	if err := m.call("exact"); err != nil {
		return nil, err
	}
	var out []types.ConceptMatch
	for _, l := range m.labels {
		if l.NormalizedText == normalized && matchType(l.ConceptType, ct) && len(out) < limit {
			out = append(out, labelMatch(l, types.MatchTypeExact, 1.0))
		}
	}
	return out, nil
}

func (m *memStore) SynonymMatches(_ context.Context, normalized string, ct types.ConceptType, limit int) ([]types.ConceptMatch, error) {
	if err := m.call("synonym"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []types.ConceptMatch
	for _, s := range m.synonyms {
		if s.SynonymNormalized == normalized && matchType(s.ConceptType, ct) && len(out) < limit {
			out = append(out, types.ConceptMatch{
				URI: s.ConceptURI, ConceptType: s.ConceptType, PrefLabel: s.PrefLabel, MatchedLabel: s.Synonym,
				LabelType: types.LabelSynonym, MatchType: types.MatchTypeSynonym, Confidence: s.Confidence,
			})
		}
	}
	return out, nil
}

func (m *memStore) ContainsLabels(_ context.Context, normalized string, ct types.ConceptType, limit int) ([]types.ConceptMatch, error) {
	if err := m.call("contains"); err != nil {
		return nil, err
	}
	var out []types.ConceptMatch
	for _, l := range m.labels {
		if !matchType(l.ConceptType, ct) || len(out) >= limit {
			continue
		}
		var confidence float64
		switch {
		case l.NormalizedText == normalized:
			confidence = 1.0
		case strings.HasPrefix(l.NormalizedText, normalized):
			confidence = 0.9
		case strings.HasSuffix(l.NormalizedText, normalized):
			confidence = 0.8
		case strings.Contains(l.NormalizedText, normalized):
			confidence = 0.7
		default:
			continue
		}
		out = append(out, labelMatch(l, types.MatchTypeContains, confidence))
	}
	return out, nil
}

func (m *memStore) RelevanceLabels(_ context.Context, term string, ct types.ConceptType, limit int) ([]types.ConceptMatch, error) {
	if err := m.call("relevance"); err != nil {
		return nil, err
	}
	var out []types.ConceptMatch
	for _, match := range m.relevance[term] {
		if matchType(match.ConceptType, ct) && len(out) < limit {
			out = append(out, match)
		}
	}
	return out, nil
}

func (m *memStore) SuggestLabels(_ context.Context, prefix string, ct types.ConceptType, limit int) ([]types.LabelSuggestion, error) {
	if err := m.call("suggest"); err != nil {
		return nil, err
	}
	var out []types.LabelSuggestion
	for _, l := range m.labels {
		if strings.HasPrefix(l.NormalizedText, prefix) && matchType(l.ConceptType, ct) && len(out) < limit {
			out = append(out, types.LabelSuggestion{Label: l.Text, PrefLabel: l.PrefLabel, URI: l.ConceptURI})
		}
	}
	return out, nil
}

func (m *memStore) LabelExists(_ context.Context, uri, normalized string) (bool, error) {
	if err := m.call("label_exists"); err != nil {
		return false, err
	}
	for _, l := range m.labels {
		if l.ConceptURI == uri && l.NormalizedText == normalized {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) BumpUsage(_ context.Context, uri, normalized string) error {
	if err := m.call("bump_usage"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.usage[uri+"|"+normalized]++
	return nil
}

func (m *memStore) UpsertSynonym(_ context.Context, s types.Synonym) error {
	if err := m.call("upsert_synonym"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	key := s.SynonymNormalized + "|" + s.ConceptURI
	if existing, ok := m.synonyms[key]; ok {
		existing.Confidence = math.Max(existing.Confidence, s.Confidence)
		m.synonyms[key] = existing
		return nil
	}
	m.synonyms[key] = s
	return nil
}

func (m *memStore) ConfirmLatestSearch(_ context.Context, normalized, uri, _ string) (bool, error) {
	if err := m.call("confirm_search"); err != nil {
		return false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.searches) - 1; i >= 0; i-- {
		if m.searches[i].Normalized == normalized {
			m.confirmed[normalized] = uri
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) MissingTerms(_ context.Context, limit int) ([]types.MissingTerm, error) {
	if err := m.call("missing"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := make(map[string]int)
	var order []string
	for _, s := range m.searches {
		if s.FoundExact || s.FoundFuzzy {
			continue
		}
		if counts[s.SearchTerm] == 0 {
			order = append(order, s.SearchTerm)
		}
		counts[s.SearchTerm]++
	}
	var out []types.MissingTerm
	for _, term := range order {
		if len(out) >= limit {
			break
		}
		out = append(out, types.MissingTerm{SearchTerm: term, SearchCount: counts[term]})
	}
	return out, nil
}

// Log lets the store double as the resolver's synchronous search logger
func (m *memStore) Log(e searchlog.Entry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.searches = append(m.searches, e)
}

func (m *memStore) lastSearch() searchlog.Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.searches[len(m.searches)-1]
}
