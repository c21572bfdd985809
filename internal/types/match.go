package types

import "time"

// RequirementRef describes one requirement of an occupation in a result.
type RequirementRef struct {
	URI   string  `json:"uri,omitempty"`
	Label string  `json:"label"`
	Tier  Tier    `json:"relevance"`
	IDF   float64 `json:"idf,omitempty"`
}

// CategoryScore is the per-category breakdown of a candidate's score.
type CategoryScore struct {
	Score        float64 `json:"score"`
	Weight       float64 `json:"weight"`
	MatchedCount int     `json:"matched_count"`
	TotalCount   int     `json:"total_count"`
}

// OccupationRef identifies a candidate occupation.
type OccupationRef struct {
	URI   string `json:"uri"`
	Label string `json:"label"`
}

// Candidate is a transient scoring result for one occupation.
type Candidate struct {
	Occupation   OccupationRef                 `json:"occupation"`
	Score        float64                       `json:"score"`
	Breakdown    map[Category]CategoryScore    `json:"breakdown"`
	MatchedTerms []ResolvedTerm                `json:"matched,omitempty"`
	MissingTerms []string                      `json:"missing,omitempty"`
	Gaps         map[Category][]RequirementRef `json:"gaps,omitempty"`
}

// ResolvedProfile reports how the profile's entries were resolved.
type ResolvedProfile struct {
	Resolved   []ResolvedTerm `json:"resolved"`
	Unresolved []string       `json:"unresolved"`
}

// IndexInfo describes the requirement index used for a match.
type IndexInfo struct {
	BuiltAt time.Time     `json:"built_at"`
	Age     time.Duration `json:"age"`
}

// MatchMeta carries diagnostics about a match call.
type MatchMeta struct {
	ExecutionTime     time.Duration        `json:"execution_time"`
	TotalCandidates   int                  `json:"total_candidates"`
	MatchedCandidates int                  `json:"matched_candidates"`
	ReturnedMatches   int                  `json:"returned_matches"`
	ResolvedProfile   ResolvedProfile      `json:"resolved_profile"`
	Weights           map[Category]float64 `json:"weights"`
	Index             *IndexInfo           `json:"index,omitempty"`
	Diagnostic        string               `json:"diagnostic,omitempty"`
}

// MatchResponse is the output of a matching call.
type MatchResponse struct {
	Success   bool        `json:"success"`
	Error     string      `json:"error,omitempty"`
	Retryable bool        `json:"retryable,omitempty"`
	Matches   []Candidate `json:"matches"`
	Meta      MatchMeta   `json:"meta"`
}
