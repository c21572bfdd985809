package skills

import (
	"sort"

	"github.com/jonathan/occupation-matcher/internal/types"
)

// Coverage thresholds for summary statistics
const (
	UniversalCoverage = 90.0
	SpecificCoverage  = 10.0
)

// CategoryStats aggregates weights of one skill category
type CategoryStats struct {
	Category string  `json:"category"`
	Count    int     `json:"count"`
	AvgIDF   float64 `json:"avg_idf"`
}

// Summary describes an IDF snapshot
type Summary struct {
	TotalSkills   int               `json:"total_skills"`
	AvgIDF        float64           `json:"avg_idf"`
	MinIDF        float64           `json:"min_idf"`
	MaxIDF        float64           `json:"max_idf"`
	Universal     int               `json:"universal_skills"` // coverage above UniversalCoverage
	Specific      int               `json:"specific_skills"`  // coverage below SpecificCoverage
	MostUnique    []types.IdfWeight `json:"most_unique"`
	MostUniversal []types.IdfWeight `json:"most_universal"`
	Categories    []CategoryStats   `json:"categories"`
}

// Summarize computes summary statistics with top lists of size top
func Summarize(snapshot *types.IdfSnapshot, top int) Summary {
	var s Summary
	if snapshot == nil || len(snapshot.Weights) == 0 {
		return s
	}

	weights := append([]types.IdfWeight(nil), snapshot.Weights...)
	sort.Slice(weights, func(i, j int) bool {
		if weights[i].IDF != weights[j].IDF {
			return weights[i].IDF > weights[j].IDF
		}
		return weights[i].SkillURI < weights[j].SkillURI
	})

	s.TotalSkills = len(weights)
	s.MaxIDF = weights[0].IDF
	s.MinIDF = weights[len(weights)-1].IDF

	var sum float64
	type agg struct {
		count int
		sum   float64
	}
	byCategory := make(map[string]*agg)
	for _, w := range weights {
		sum += w.IDF
		if w.CoveragePercent > UniversalCoverage {
			s.Universal++
		}
		if w.CoveragePercent < SpecificCoverage {
			s.Specific++
		}
		a := byCategory[w.Category]
		if a == nil {
			a = &agg{}
			byCategory[w.Category] = a
		}
		a.count++
		a.sum += w.IDF
	}
	s.AvgIDF = sum / float64(len(weights))

	if top > len(weights) {
		top = len(weights)
	}
	s.MostUnique = weights[:top]
	for i := len(weights) - 1; i >= len(weights)-top; i-- {
		s.MostUniversal = append(s.MostUniversal, weights[i])
	}

	for name, a := range byCategory {
		s.Categories = append(s.Categories, CategoryStats{Category: name, Count: a.count, AvgIDF: a.sum / float64(a.count)})
	}
	sort.Slice(s.Categories, func(i, j int) bool {
		if s.Categories[i].AvgIDF != s.Categories[j].AvgIDF {
			return s.Categories[i].AvgIDF < s.Categories[j].AvgIDF
		}
		return s.Categories[i].Category < s.Categories[j].Category
	})
	return s
}
