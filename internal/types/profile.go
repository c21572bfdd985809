package types

import (
	"github.com/go-playground/validator/v10"
)

// Category is a profile dimension.
type Category string

// Profile categories
const (
	CategorySkills    Category = "skills"
	CategoryKnowledge Category = "knowledge"
	CategoryTasks     Category = "tasks"
)

// Categories lists profile categories in scoring order.
var Categories = []Category{CategorySkills, CategoryKnowledge, CategoryTasks}

// ConceptType returns the concept type a category resolves against.
func (c Category) ConceptType() ConceptType {
	switch c {
	case CategorySkills:
		return ConceptHumanCapability
	case CategoryKnowledge:
		return ConceptKnowledgeArea
	case CategoryTasks:
		return ConceptTask
	default:
		return ""
	}
}

// CategoryFor returns the profile category of a required concept type.
func CategoryFor(ct ConceptType) Category {
	switch ct {
	case ConceptKnowledgeArea:
		return CategoryKnowledge
	case ConceptTask:
		return CategoryTasks
	default:
		return CategorySkills
	}
}

// MatchProfile is raw user text grouped by category. Entries may also be concept URIs.
type MatchProfile struct {
	Skills    []string `json:"skills"`
	Knowledge []string `json:"knowledge,omitempty"`
	Tasks     []string `json:"tasks,omitempty"`
}

// Terms returns the profile entries of one category.
func (p *MatchProfile) Terms(c Category) []string {
	switch c {
	case CategorySkills:
		return p.Skills
	case CategoryKnowledge:
		return p.Knowledge
	case CategoryTasks:
		return p.Tasks
	default:
		return nil
	}
}

// Empty reports whether the profile has no entries at all.
func (p *MatchProfile) Empty() bool {
	return p == nil || (len(p.Skills) == 0 && len(p.Knowledge) == 0 && len(p.Tasks) == 0)
}

// MatchOptions controls ranking output.
type MatchOptions struct {
	Limit          int     `json:"limit" validate:"min=1"` // upper bound is the engine's configured max
	MinScore       float64 `json:"min_score" validate:"min=0,max=1"`
	IncludeGaps    bool    `json:"include_gaps"`
	IncludeMatched bool    `json:"include_matched"`
}

// DefaultMatchOptions mirrors the defaults of the matching endpoint.
func DefaultMatchOptions() MatchOptions {
	return MatchOptions{
		Limit:          50,
		MinScore:       0.1,
		IncludeGaps:    true,
		IncludeMatched: true,
	}
}

// Validate validates the MatchOptions using the validator.
func (o *MatchOptions) Validate() error {
	validate := validator.New()
	return validate.Struct(o)
}

// MatchTier is the resolver strategy that produced a concept for a term.
type MatchTier string

const (
	MatchExact   MatchTier = "exact"
	MatchSynonym MatchTier = "synonym"
	MatchFuzzy   MatchTier = "fuzzy"
	MatchNone    MatchTier = "none"
)

// ResolvedTerm is the resolution outcome for one profile entry.
// An empty ConceptURI marks an unresolved term.
type ResolvedTerm struct {
	InputText         string    `json:"input"`
	Category          Category  `json:"category"`
	ConceptURI        string    `json:"uri,omitempty"`
	PrefLabel         string    `json:"resolved,omitempty"`
	MatchTier         MatchTier `json:"match_tier"`
	Confidence        float64   `json:"confidence"`
	NeedsConfirmation bool      `json:"needs_confirmation,omitempty"`
	Alternatives      int       `json:"alternatives,omitempty"`
}

// Resolved reports whether the term maps to a concept.
func (r ResolvedTerm) Resolved() bool {
	return r.ConceptURI != ""
}
