package types

import (
	"time"

	"github.com/google/uuid"
)

// IdfWeight is the inverse document frequency of one required concept.
type IdfWeight struct {
	SkillURI          string  `json:"uri"`
	SkillLabel        string  `json:"label"`
	Category          string  `json:"category,omitempty"`
	DocumentFrequency int     `json:"occupation_count"`
	TotalOccupations  int     `json:"total_occupations"`
	IDF               float64 `json:"idf"`
	CoveragePercent   float64 `json:"coverage"`
}

// IdfSnapshot is one complete batch of IDF weights. Snapshots replace each
// other as a whole.
type IdfSnapshot struct {
	Version          uuid.UUID     `json:"version"`
	ComputedAt       time.Time     `json:"computed_at"`
	TotalOccupations int           `json:"total_occupations"`
	ConceptTypes     []ConceptType `json:"concept_types,omitempty"`
	Weights          []IdfWeight   `json:"weights"`
}

// ConceptFrequency is the number of distinct occupations requiring a concept,
// at any tier.
type ConceptFrequency struct {
	URI               string      `json:"uri"`
	Label             string      `json:"label,omitempty"`
	Type              ConceptType `json:"type"`
	DocumentFrequency int         `json:"occupation_count"`
}
