package matching

import (
	"sort"

	"github.com/jonathan/occupation-matcher/internal/index"
	"github.com/jonathan/occupation-matcher/internal/skills"
	"github.com/jonathan/occupation-matcher/internal/types"
)

// profileConcept is one distinct resolved concept of a profile category.
// Several entries may resolve to the same concept; it is scored once.
type profileConcept struct {
	uri      string
	category types.Category
	idf      float64
	terms    []types.ResolvedTerm
}

// scored is the accumulated evidence for one occupation
type scored struct {
	occupation string
	score      float64
	raw        map[types.Category]float64
	matched    map[types.Category]int
	concepts   map[string]bool
	total      int
}

// collectConcepts groups resolved terms by (category, concept) in profile order
func collectConcepts(resolved []types.ResolvedTerm, table *skills.Table) []*profileConcept {
	var out []*profileConcept
	byKey := make(map[string]*profileConcept)
	for _, t := range resolved {
		key := string(t.Category) + "|" + t.ConceptURI
		pc, ok := byKey[key]
		if !ok {
			pc = &profileConcept{uri: t.ConceptURI, category: t.Category, idf: table.Weight(t.ConceptURI)}
			byKey[key] = pc
			out = append(out, pc)
		}
		pc.terms = append(pc.terms, t)
	}
	return out
}

func (e *Engine) tierWeight(t types.Tier) float64 {
	return e.cfg.TierWeights[t]
}

func (e *Engine) maxTierWeight() float64 {
	var m float64
	for _, w := range e.cfg.TierWeights {
		if w > m {
			m = w
		}
	}
	return m
}

// maxPossible is the per-category score of an occupation requiring every
// profile concept at the strongest tier
func (e *Engine) maxPossible(concepts []*profileConcept) map[types.Category]float64 {
	top := e.maxTierWeight()
	out := make(map[types.Category]float64, len(types.Categories))
	for _, pc := range concepts {
		out[pc.category] += pc.idf * top
	}
	return out
}

// score accumulates idf * tier weight per category over the inverse index and
// normalizes by the maximum the profile could reach, weighted per category.
func (e *Engine) score(snap *index.Snapshot, concepts []*profileConcept) []*scored {
	byOccupation := make(map[string]*scored)
	for _, pc := range concepts {
		for occ, tier := range snap.RequiringTiers(pc.uri) {
			s, ok := byOccupation[occ]
			if !ok {
				s = &scored{
					occupation: occ,
					raw:        make(map[types.Category]float64),
					matched:    make(map[types.Category]int),
					concepts:   make(map[string]bool),
				}
				byOccupation[occ] = s
			}
			s.raw[pc.category] += pc.idf * e.tierWeight(tier)
			s.matched[pc.category]++
			if !s.concepts[pc.uri] {
				s.concepts[pc.uri] = true
				s.total++
			}
		}
	}

	maxima := e.maxPossible(concepts)
	var denominator float64
	for c, m := range maxima {
		denominator += e.cfg.CategoryWeights[c] * m
	}

	out := make([]*scored, 0, len(byOccupation))
	for _, s := range byOccupation {
		if denominator > 0 {
			var numerator float64
			for c, raw := range s.raw {
				numerator += e.cfg.CategoryWeights[c] * raw
			}
			s.score = numerator / denominator
		}
		out = append(out, s)
	}
	return out
}

// sortScored orders by score, then matched concept count, then URI
func sortScored(s []*scored) {
	sort.Slice(s, func(i, j int) bool {
		if s[i].score != s[j].score {
			return s[i].score > s[j].score
		}
		if s[i].total != s[j].total {
			return s[i].total > s[j].total
		}
		return s[i].occupation < s[j].occupation
	})
}

// candidate renders a scored occupation with breakdown, matched terms and gaps
func (e *Engine) candidate(snap *index.Snapshot, table *skills.Table, concepts []*profileConcept, s *scored, opts types.MatchOptions) types.Candidate {
	c := types.Candidate{
		Occupation: types.OccupationRef{URI: s.occupation, Label: snap.OccupationLabel(s.occupation)},
		Score:      s.score,
		Breakdown:  make(map[types.Category]types.CategoryScore, len(types.Categories)),
	}

	requirements := snap.Requirements(s.occupation)
	totals := make(map[types.Category]int, len(types.Categories))
	for _, r := range requirements {
		totals[types.CategoryFor(r.ConceptType)]++
	}

	maxima := e.maxPossible(concepts)
	for _, cat := range types.Categories {
		cs := types.CategoryScore{
			Weight:       e.cfg.CategoryWeights[cat],
			MatchedCount: s.matched[cat],
			TotalCount:   totals[cat],
		}
		if m := maxima[cat]; m > 0 {
			cs.Score = s.raw[cat] / m
		}
		c.Breakdown[cat] = cs
	}

	if opts.IncludeMatched {
		for _, pc := range concepts {
			if s.concepts[pc.uri] {
				c.MatchedTerms = append(c.MatchedTerms, pc.terms...)
			}
		}
	}
	if opts.IncludeGaps {
		for _, pc := range concepts {
			if !s.concepts[pc.uri] {
				for _, t := range pc.terms {
					c.MissingTerms = append(c.MissingTerms, t.InputText)
				}
			}
		}
		c.Gaps = e.gaps(requirements, table, concepts)
	}
	return c
}

// gaps lists the occupation's requirements absent from the profile, per
// category, strongest evidence first
func (e *Engine) gaps(requirements []index.Requirement, table *skills.Table, concepts []*profileConcept) map[types.Category][]types.RequirementRef {
	have := make(map[string]bool, len(concepts))
	for _, pc := range concepts {
		have[pc.uri] = true
	}

	type gap struct {
		ref    types.RequirementRef
		weight float64
	}
	byCategory := make(map[types.Category][]gap)
	for _, r := range requirements {
		if have[r.ConceptURI] {
			continue
		}
		idf := table.Weight(r.ConceptURI)
		cat := types.CategoryFor(r.ConceptType)
		byCategory[cat] = append(byCategory[cat], gap{
			ref:    types.RequirementRef{URI: r.ConceptURI, Label: r.Label, Tier: r.Tier, IDF: idf},
			weight: idf * e.tierWeight(r.Tier),
		})
	}

	out := make(map[types.Category][]types.RequirementRef, len(byCategory))
	for cat, list := range byCategory {
		sort.Slice(list, func(i, j int) bool {
			if list[i].weight != list[j].weight {
				return list[i].weight > list[j].weight
			}
			return list[i].ref.URI < list[j].ref.URI
		})
		limit := e.cfg.GapLimits[cat]
		if limit <= 0 {
			continue
		}
		if len(list) > limit {
			list = list[:limit]
		}
		refs := make([]types.RequirementRef, len(list))
		for i, g := range list {
			refs[i] = g.ref
		}
		out[cat] = refs
	}
	return out
}
