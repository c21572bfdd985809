// Package types provides type definitions for structured data used throughout the occupation matcher.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"fmt"
	"strings"
)

// ConceptType is the class of a node in the labor-market knowledge graph.
type ConceptType string

// Concept types known to the matcher
const (
	ConceptOccupation      ConceptType = "Occupation"
	ConceptHumanCapability ConceptType = "HumanCapability"
	ConceptKnowledgeArea   ConceptType = "KnowledgeArea"
	ConceptTask            ConceptType = "Task"
	ConceptEducationalNorm ConceptType = "EducationalNorm"
)

// AllConceptTypes lists every concept type in a stable order.
var AllConceptTypes = []ConceptType{
	ConceptOccupation,
	ConceptHumanCapability,
	ConceptKnowledgeArea,
	ConceptTask,
	ConceptEducationalNorm,
}

// ParseConceptType parses a concept type name case-insensitively.
func ParseConceptType(s string) (ConceptType, error) {
	for _, ct := range AllConceptTypes {
		if strings.EqualFold(s, string(ct)) {
			return ct, nil
		}
	}
	return "", fmt.Errorf("unknown concept type %q", s)
}

// Concept is a typed node in the knowledge graph, identified by its URI.
type Concept struct {
	URI       string      `json:"uri"`
	Type      ConceptType `json:"type"`
	PrefLabel string      `json:"pref_label"`
}

// LabelType distinguishes preferred, alternate and synonym labels.
type LabelType string

const (
	LabelPref    LabelType = "pref"
	LabelAlt     LabelType = "alt"
	LabelSynonym LabelType = "synonym"
)

// Rank orders label types for exact-tier results: preferred labels first.
func (lt LabelType) Rank() int {
	switch lt {
	case LabelPref:
		return 0
	case LabelAlt:
		return 1
	case LabelSynonym:
		return 2
	default:
		return 3
	}
}

// Label is one textual name of a concept as mirrored in the label cache.
// Uniqueness is on (ConceptURI, NormalizedText).
type Label struct {
	ConceptURI     string      `json:"concept_uri"`
	ConceptType    ConceptType `json:"concept_type"`
	PrefLabel      string      `json:"pref_label"`
	Text           string      `json:"text"`
	NormalizedText string      `json:"normalized_text"`
	LabelType      LabelType   `json:"label_type"`
	Confidence     float64     `json:"confidence"`
}

// Tier is the strength of a requirement relation.
type Tier int

// Requirement tiers in ingestion order (strongest first)
const (
	TierEssential Tier = iota + 1
	TierImportant
	TierSomewhat
)

// Tiers lists requirement tiers strongest first; index ingestion follows this order.
var Tiers = []Tier{TierEssential, TierImportant, TierSomewhat}

func (t Tier) String() string {
	switch t {
	case TierEssential:
		return "essential"
	case TierImportant:
		return "important"
	case TierSomewhat:
		return "somewhat"
	default:
		return "unknown"
	}
}

// Stronger reports whether t outranks other.
func (t Tier) Stronger(other Tier) bool {
	return t != 0 && (other == 0 || t < other)
}

// MarshalText encodes the tier by name.
func (t Tier) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText decodes a tier name.
func (t *Tier) UnmarshalText(b []byte) error {
	parsed, err := ParseTier(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ParseTier parses a tier name ("essential", "important", "somewhat").
func ParseTier(s string) (Tier, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "essential":
		return TierEssential, nil
	case "important":
		return TierImportant, nil
	case "somewhat", "optional":
		return TierSomewhat, nil
	default:
		return 0, fmt.Errorf("unknown requirement tier %q", s)
	}
}

// RequirementLink is one requirement triple between an occupation (or
// educational norm) and a capability, knowledge area or task.
type RequirementLink struct {
	SubjectURI   string      `json:"subject_uri"`
	SubjectLabel string      `json:"subject_label,omitempty"`
	ObjectURI    string      `json:"object_uri"`
	ObjectLabel  string      `json:"object_label,omitempty"`
	ObjectType   ConceptType `json:"object_type"`
	Tier         Tier        `json:"tier"`
}
