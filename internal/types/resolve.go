package types

// MatchType is how a single candidate label matched a search term.
type MatchType string

const (
	MatchTypeExact    MatchType = "exact"
	MatchTypeSynonym  MatchType = "synonym"
	MatchTypeContains MatchType = "contains"
	MatchTypeFuzzy    MatchType = "fuzzy"
)

// Tier maps a candidate match type onto the term-level match tier.
func (m MatchType) Tier() MatchTier {
	switch m {
	case MatchTypeExact:
		return MatchExact
	case MatchTypeSynonym:
		return MatchSynonym
	case MatchTypeContains, MatchTypeFuzzy:
		return MatchFuzzy
	default:
		return MatchNone
	}
}

// ConceptMatch is one candidate concept for a search term.
type ConceptMatch struct {
	URI          string      `json:"uri"`
	ConceptType  ConceptType `json:"concept_type"`
	PrefLabel    string      `json:"pref_label"`
	MatchedLabel string      `json:"matched_label"`
	LabelType    LabelType   `json:"label_type"`
	MatchType    MatchType   `json:"match_type"`
	Confidence   float64     `json:"confidence"`
}

// ResolveResult is the output of a concept resolution.
type ResolveResult struct {
	Found             bool           `json:"found"`
	Exact             bool           `json:"exact"`
	SearchTerm        string         `json:"search_term"`
	Normalized        string         `json:"normalized"`
	Matches           []ConceptMatch `json:"matches"`
	NeedsConfirmation bool           `json:"needs_confirmation"`
	Suggestion        string         `json:"suggestion,omitempty"`
}

// DistinctConcepts counts the distinct concept URIs among the matches.
func (r *ResolveResult) DistinctConcepts() int {
	seen := make(map[string]struct{}, len(r.Matches))
	for _, m := range r.Matches {
		seen[m.URI] = struct{}{}
	}
	return len(seen)
}

// Origins of curated synonyms
const (
	AddedByManual        = "manual"
	AddedByUserConfirmed = "user_confirmed"
)

// Synonym is a curated mapping from free text to a concept.
type Synonym struct {
	Synonym           string      `json:"synonym"`
	SynonymNormalized string      `json:"synonym_normalized"`
	ConceptURI        string      `json:"concept_uri"`
	ConceptType       ConceptType `json:"concept_type"`
	PrefLabel         string      `json:"pref_label"`
	Confidence        float64     `json:"confidence"`
	AddedBy           string      `json:"added_by"`
}

// LabelSuggestion is an autocomplete entry.
type LabelSuggestion struct {
	Label     string `json:"label"`
	PrefLabel string `json:"pref_label"`
	URI       string `json:"uri"`
}

// MissingTerm aggregates unresolved searches for vocabulary review.
type MissingTerm struct {
	SearchTerm   string `json:"search_term"`
	SearchCount  int    `json:"search_count"`
	LastSearched string `json:"last_searched"`
}
