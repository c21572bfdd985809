package skills

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/jonathan/occupation-matcher/internal/types"
)

// SnapshotLoader loads the current persisted IDF snapshot. A nil snapshot
// with a nil error means none has been computed yet.
type SnapshotLoader interface {
	LoadIdfSnapshot(ctx context.Context) (*types.IdfSnapshot, error)
}

// Provider holds the active weight table. Reloads swap the whole table.
type Provider struct {
	table      atomic.Pointer[Table]
	defaultIDF float64
}

// NewProvider returns a provider serving only the default weight until a
// snapshot is set or loaded.
func NewProvider(defaultIDF float64) *Provider {
	p := &Provider{defaultIDF: defaultIDF}
	p.table.Store(NewTable(nil, defaultIDF))
	return p
}

// Table returns the active weight table
func (p *Provider) Table() *Table {
	return p.table.Load()
}

// Set replaces the active table with one built from snapshot
func (p *Provider) Set(snapshot *types.IdfSnapshot) *Table {
	t := NewTable(snapshot, p.defaultIDF)
	p.table.Store(t)
	return t
}

// Load reads the persisted snapshot and makes it active. The current table is
// kept when loading fails.
func (p *Provider) Load(ctx context.Context, loader SnapshotLoader) (*Table, error) {
	snapshot, err := loader.LoadIdfSnapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load idf snapshot: %w", err)
	}
	return p.Set(snapshot), nil
}
