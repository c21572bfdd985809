package skills

import (
	"github.com/google/uuid"

	"github.com/jonathan/occupation-matcher/internal/types"
)

// DefaultIDF is the neutral weight of concepts outside the snapshot
const DefaultIDF = 0.5

// Table serves IDF lookups. A missing key means "not computed" and gets the
// default weight; an IDF of zero is a real value.
type Table struct {
	weights    map[string]float64
	defaultIDF float64
	version    uuid.UUID
}

// NewTable indexes a snapshot. snapshot may be nil, in which case every
// lookup falls back to the default.
func NewTable(snapshot *types.IdfSnapshot, defaultIDF float64) *Table {
	t := &Table{weights: make(map[string]float64), defaultIDF: defaultIDF}
	if snapshot == nil {
		return t
	}
	t.version = snapshot.Version
	for _, w := range snapshot.Weights {
		t.weights[w.SkillURI] = w.IDF
	}
	return t
}

// Lookup returns the stored IDF of uri and whether it exists
func (t *Table) Lookup(uri string) (float64, bool) {
	if t == nil {
		return 0, false
	}
	w, ok := t.weights[uri]
	return w, ok
}

// Weight returns the stored IDF of uri, or the default when absent
func (t *Table) Weight(uri string) float64 {
	if w, ok := t.Lookup(uri); ok {
		return w
	}
	return t.Default()
}

// Default returns the neutral weight
func (t *Table) Default() float64 {
	if t == nil {
		return DefaultIDF
	}
	return t.defaultIDF
}

// Len returns the number of stored weights
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.weights)
}

// Version returns the snapshot version, or uuid.Nil for an empty table
func (t *Table) Version() uuid.UUID {
	if t == nil {
		return uuid.Nil
	}
	return t.version
}
