package skills

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/occupation-matcher/internal/types"
)

type stubLoader struct {
	snapshot *types.IdfSnapshot
	err      error
}

func (s stubLoader) LoadIdfSnapshot(context.Context) (*types.IdfSnapshot, error) {
	return s.snapshot, s.err
}

func TestProvider(t *testing.T) {
	p := NewProvider(0.5)
	assert.Equal(t, 0.5, p.Table().Weight("u"))

	snap := &types.IdfSnapshot{Version: uuid.New(), Weights: []types.IdfWeight{{SkillURI: "u", IDF: 2}}}
	table, err := p.Load(context.Background(), stubLoader{snapshot: snap})
	require.NoError(t, err)
	assert.Equal(t, 2.0, table.Weight("u"))
	assert.Same(t, table, p.Table())

	_, err = p.Load(context.Background(), stubLoader{err: errors.New("db down")})
	assert.Error(t, err)
	// failed load keeps the previous table
	assert.Equal(t, 2.0, p.Table().Weight("u"))

	_, err = p.Load(context.Background(), stubLoader{})
	require.NoError(t, err)
	assert.Equal(t, 0.5, p.Table().Weight("u"))
}
