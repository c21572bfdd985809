// Package skills computes and serves inverse document frequency weights for
// required concepts.
package skills

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/occupation-matcher/internal/types"
)

// IDF returns ln(total / max(df, 1))
func IDF(documentFrequency, totalOccupations int) float64 {
	if totalOccupations <= 0 {
		return 0
	}
	return math.Log(float64(totalOccupations) / float64(max(documentFrequency, 1)))
}

// Coverage returns the percentage of occupations requiring a concept
func Coverage(documentFrequency, totalOccupations int) float64 {
	if totalOccupations <= 0 {
		return 0
	}
	return float64(documentFrequency) / float64(totalOccupations) * 100
}

// Compute builds a complete IDF snapshot from per-concept document frequencies.
// Weights are ranked by IDF descending, ties by URI. categorizer may be nil.
func Compute(freqs []types.ConceptFrequency, totalOccupations int, conceptTypes []types.ConceptType, categorizer *Categorizer, now time.Time) (*types.IdfSnapshot, error) {
	if totalOccupations <= 0 {
		return nil, fmt.Errorf("total occupations must be positive, got %d", totalOccupations)
	}

	want := make(map[types.ConceptType]bool, len(conceptTypes))
	for _, ct := range conceptTypes {
		want[ct] = true
	}

	weights := make([]types.IdfWeight, 0, len(freqs))
	seen := make(map[string]bool, len(freqs))
	for _, f := range freqs {
		if len(want) > 0 && !want[f.Type] {
			continue
		}
		if seen[f.URI] {
			return nil, fmt.Errorf("duplicate concept %s in frequencies", f.URI)
		}
		seen[f.URI] = true

		if f.DocumentFrequency > totalOccupations {
			return nil, fmt.Errorf("concept %s is required by %d occupations, more than the total %d",
				f.URI, f.DocumentFrequency, totalOccupations)
		}

		w := types.IdfWeight{
			SkillURI:          f.URI,
			SkillLabel:        f.Label,
			DocumentFrequency: f.DocumentFrequency,
			TotalOccupations:  totalOccupations,
			IDF:               IDF(f.DocumentFrequency, totalOccupations),
			CoveragePercent:   Coverage(f.DocumentFrequency, totalOccupations),
		}
		if categorizer != nil {
			w.Category = categorizer.Categorize(f.Label)
		}
		weights = append(weights, w)
	}

	sort.Slice(weights, func(i, j int) bool {
		if weights[i].IDF != weights[j].IDF {
			return weights[i].IDF > weights[j].IDF
		}
		return weights[i].SkillURI < weights[j].SkillURI
	})

	return &types.IdfSnapshot{
		Version:          uuid.New(),
		ComputedAt:       now.UTC(),
		TotalOccupations: totalOccupations,
		ConceptTypes:     conceptTypes,
		Weights:          weights,
	}, nil
}
