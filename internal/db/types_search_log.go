package db

import (
	"time"

	"github.com/jonathan/occupation-matcher/internal/types"
)

// SearchLogEntry is a row of the concept_search_log table
type SearchLogEntry struct {
	ID                   int64             `json:"id"`
	SearchTerm           string            `json:"search_term"`
	SearchTermNormalized string            `json:"search_term_normalized"`
	ConceptType          types.ConceptType `json:"concept_type,omitempty"`
	FoundExact           bool              `json:"found_exact"`
	FoundFuzzy           bool              `json:"found_fuzzy"`
	ResultsCount         int               `json:"results_count"`
	SelectedURI          *string           `json:"selected_uri,omitempty"`
	SelectedPrefLabel    *string           `json:"selected_pref_label,omitempty"`
	UserConfirmed        bool              `json:"user_confirmed"`
	CreatedAt            time.Time         `json:"created_at"`
}
