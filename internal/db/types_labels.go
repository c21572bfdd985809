package db

import (
	"time"

	"github.com/jonathan/occupation-matcher/internal/types"
)

// LabelRecord is a row of the concept_labels table
type LabelRecord struct {
	ID              int64             `json:"id"`
	ConceptURI      string            `json:"concept_uri"`
	ConceptType     types.ConceptType `json:"concept_type"`
	PrefLabel       string            `json:"pref_label"`
	Label           string            `json:"label"`
	LabelNormalized string            `json:"label_normalized"`
	LabelType       types.LabelType   `json:"label_type"`
	Confidence      float64           `json:"confidence"`
	UsageCount      int               `json:"usage_count"`
	LastUsed        *time.Time        `json:"last_used,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
}

// LabelCount is the number of cached labels of one concept type
type LabelCount struct {
	ConceptType types.ConceptType `json:"concept_type"`
	Labels      int               `json:"labels"`
	Concepts    int               `json:"concepts"`
}

// Confidence assigned by the contains tier, by specificity
const (
	ContainsEqualConfidence     = 1.0
	ContainsPrefixConfidence    = 0.9
	ContainsSuffixConfidence    = 0.8
	ContainsSubstringConfidence = 0.7
)

// containsPatterns returns LIKE patterns for prefix, suffix and substring
// matches. Normalized text only holds letters, digits and single spaces, so no
// LIKE metacharacters need escaping.
func containsPatterns(normalized string) (prefix, suffix, substring string) {
	return normalized + "%", "%" + normalized, "%" + normalized + "%"
}

// relevanceConfidence maps a ts_rank score normalized with flag 32 (rank/(rank+1))
// onto a confidence in [0,1].
func relevanceConfidence(rank float64) float64 {
	if rank <= 0 {
		return 0
	}
	if rank >= 1 {
		return 1
	}
	return rank
}
