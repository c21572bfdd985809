package index

import (
	"sort"
	"time"

	"github.com/jonathan/occupation-matcher/internal/types"
)

// Requirement is one tier-annotated requirement of an occupation
type Requirement struct {
	ConceptURI  string            `json:"uri"`
	ConceptType types.ConceptType `json:"type"`
	Label       string            `json:"label,omitempty"`
	Tier        types.Tier        `json:"tier"`
}

type conceptInfo struct {
	label       string
	conceptType types.ConceptType
}

// Snapshot is an immutable requirement index. Readers share it without locking.
type Snapshot struct {
	forward     map[string]map[string]types.Tier // occupation -> concept -> tier
	inverse     map[string]map[string]types.Tier // concept -> occupation -> tier
	occupations map[string]string                // occupation -> label
	concepts    map[string]conceptInfo

	builtAt    time.Time
	links      int
	duplicates int
}

// Stats summarizes a snapshot
type Stats struct {
	Occupations int           `json:"occupations"`
	Concepts    int           `json:"concepts"`
	Links       int           `json:"links"`
	Duplicates  int           `json:"duplicates"`
	BuiltAt     time.Time     `json:"built_at"`
	Age         time.Duration `json:"age"`
}

func newSnapshot() *Snapshot {
	return &Snapshot{
		forward:     make(map[string]map[string]types.Tier),
		inverse:     make(map[string]map[string]types.Tier),
		occupations: make(map[string]string),
		concepts:    make(map[string]conceptInfo),
	}
}

// add ingests one link. The first tier seen for a pair wins; links must be
// added strongest tier first. It reports whether the link was new.
func (s *Snapshot) add(l types.RequirementLink) bool {
	if s.occupations[l.SubjectURI] == "" {
		s.occupations[l.SubjectURI] = l.SubjectLabel
	}
	if s.concepts[l.ObjectURI].label == "" {
		s.concepts[l.ObjectURI] = conceptInfo{label: l.ObjectLabel, conceptType: l.ObjectType}
	}

	reqs := s.forward[l.SubjectURI]
	if reqs == nil {
		reqs = make(map[string]types.Tier)
		s.forward[l.SubjectURI] = reqs
	}
	if existing, ok := reqs[l.ObjectURI]; ok {
		if l.Tier.Stronger(existing) {
			// Out-of-order input; keep the strongest tier
			reqs[l.ObjectURI] = l.Tier
			s.inverse[l.ObjectURI][l.SubjectURI] = l.Tier
		}
		s.duplicates++
		return false
	}
	reqs[l.ObjectURI] = l.Tier

	occs := s.inverse[l.ObjectURI]
	if occs == nil {
		occs = make(map[string]types.Tier)
		s.inverse[l.ObjectURI] = occs
	}
	occs[l.SubjectURI] = l.Tier
	s.links++
	return true
}

// BuiltAt returns when the snapshot was completed
func (s *Snapshot) BuiltAt() time.Time {
	return s.builtAt
}

// Requirements returns the requirements of an occupation, strongest tier first
// and then by URI. Unknown occupations return nil.
func (s *Snapshot) Requirements(occupationURI string) []Requirement {
	reqs := s.forward[occupationURI]
	if len(reqs) == 0 {
		return nil
	}
	out := make([]Requirement, 0, len(reqs))
	for uri, tier := range reqs {
		info := s.concepts[uri]
		out = append(out, Requirement{ConceptURI: uri, ConceptType: info.conceptType, Label: info.label, Tier: tier})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Tier != out[j].Tier {
			return out[i].Tier < out[j].Tier
		}
		return out[i].ConceptURI < out[j].ConceptURI
	})
	return out
}

// Tier returns the tier at which occupationURI requires conceptURI
func (s *Snapshot) Tier(occupationURI, conceptURI string) (types.Tier, bool) {
	tier, ok := s.forward[occupationURI][conceptURI]
	return tier, ok
}

// RequiringOccupations returns the occupations requiring conceptURI, sorted
func (s *Snapshot) RequiringOccupations(conceptURI string) []string {
	occs := s.inverse[conceptURI]
	if len(occs) == 0 {
		return nil
	}
	out := make([]string, 0, len(occs))
	for uri := range occs {
		out = append(out, uri)
	}
	sort.Strings(out)
	return out
}

// RequiringTiers returns occupation -> tier for conceptURI. The map must not be modified.
func (s *Snapshot) RequiringTiers(conceptURI string) map[string]types.Tier {
	return s.inverse[conceptURI]
}

// OccupationLabel returns the preferred label of an occupation
func (s *Snapshot) OccupationLabel(uri string) string {
	return s.occupations[uri]
}

// ConceptLabel returns the preferred label of a required concept
func (s *Snapshot) ConceptLabel(uri string) string {
	return s.concepts[uri].label
}

// OccupationCount returns the number of occupations with at least one requirement
func (s *Snapshot) OccupationCount() int {
	return len(s.forward)
}

// Frequencies returns, per required concept of the given types, the number of
// distinct occupations requiring it. No types means all types. Sorted by URI.
func (s *Snapshot) Frequencies(conceptTypes ...types.ConceptType) []types.ConceptFrequency {
	want := make(map[types.ConceptType]bool, len(conceptTypes))
	for _, ct := range conceptTypes {
		want[ct] = true
	}

	out := make([]types.ConceptFrequency, 0, len(s.inverse))
	for uri, occs := range s.inverse {
		info := s.concepts[uri]
		if len(want) > 0 && !want[info.conceptType] {
			continue
		}
		out = append(out, types.ConceptFrequency{
			URI:               uri,
			Label:             info.label,
			Type:              info.conceptType,
			DocumentFrequency: len(occs),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].URI < out[j].URI })
	return out
}

// Stats summarizes the snapshot
func (s *Snapshot) Stats() Stats {
	return Stats{
		Occupations: len(s.forward),
		Concepts:    len(s.inverse),
		Links:       s.links,
		Duplicates:  s.duplicates,
		BuiltAt:     s.builtAt,
		Age:         time.Since(s.builtAt),
	}
}
