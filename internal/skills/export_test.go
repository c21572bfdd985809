package skills

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/occupation-matcher/internal/types"
)

func sampleSnapshot(t *testing.T) *types.IdfSnapshot {
	t.Helper()
	snap, err := Compute([]types.ConceptFrequency{
		{URI: "https://example.com/a", Label: "Lassen", Type: types.ConceptHumanCapability, DocumentFrequency: 1},
		{URI: "https://example.com/b", Label: "Samenwerken", Type: types.ConceptHumanCapability, DocumentFrequency: 3},
	}, 4, []types.ConceptType{types.ConceptHumanCapability}, DefaultCategorizer(), time.Now())
	require.NoError(t, err)
	return snap
}

func TestExportImport(t *testing.T) {
	snap := sampleSnapshot(t)

	var buf bytes.Buffer
	require.NoError(t, Export(&buf, snap))

	got, err := Import(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, snap.Version, got.Version)
	assert.Equal(t, snap.TotalOccupations, got.TotalOccupations)
	require.Len(t, got.Weights, 2)
	assert.InDelta(t, snap.Weights[0].IDF, got.Weights[0].IDF, 1e-9)
}

func TestExportImportFile(t *testing.T) {
	snap := sampleSnapshot(t)
	path := filepath.Join(t.TempDir(), "idf.json")

	require.NoError(t, ExportFile(path, snap))
	got, err := ImportFile(path)
	require.NoError(t, err)
	assert.Equal(t, snap.Version, got.Version)
}

func TestImport_Invalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"not json", `{`},
		{"missing weights", `{"version":"v","computed_at":"2026-01-01T00:00:00Z","total_occupations":4}`},
		{"zero total", `{"version":"v","computed_at":"2026-01-01T00:00:00Z","total_occupations":0,"weights":[]}`},
		{"coverage above 100", `{"version":"3f1c5f9e-2c1a-4d6b-9a51-0c4c6b1f2e3d","computed_at":"2026-01-01T00:00:00Z","total_occupations":4,
			"weights":[{"uri":"u","occupation_count":1,"total_occupations":4,"idf":1.386,"coverage":250}]}`},
		{"inconsistent idf", `{"version":"3f1c5f9e-2c1a-4d6b-9a51-0c4c6b1f2e3d","computed_at":"2026-01-01T00:00:00Z","total_occupations":4,
			"weights":[{"uri":"u","occupation_count":1,"total_occupations":4,"idf":9,"coverage":25}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Import([]byte(tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestImportFile_NotFound(t *testing.T) {
	_, err := ImportFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
