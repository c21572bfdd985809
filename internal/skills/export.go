package skills

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	embedded "github.com/jonathan/occupation-matcher/schemas"

	"github.com/jonathan/occupation-matcher/internal/schemas"
	"github.com/jonathan/occupation-matcher/internal/types"
)

// Export writes a snapshot as indented JSON
func Export(w io.Writer, snapshot *types.IdfSnapshot) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snapshot); err != nil {
		return fmt.Errorf("failed to encode idf snapshot: %w", err)
	}
	return nil
}

// ExportFile writes a snapshot to path
func ExportFile(path string, snapshot *types.IdfSnapshot) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := Export(f, snapshot); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// Import parses and schema-validates a snapshot document. Weights whose idf
// does not match their frequencies are rejected.
func Import(data []byte) (*types.IdfSnapshot, error) {
	if err := schemas.ValidateDocument(embedded.IdfSnapshot, data); err != nil {
		return nil, err
	}

	var snapshot types.IdfSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to parse idf snapshot: %w", err)
	}

	for _, w := range snapshot.Weights {
		want := IDF(w.DocumentFrequency, w.TotalOccupations)
		if diff := want - w.IDF; diff > 1e-3 || diff < -1e-3 {
			return nil, fmt.Errorf("weight for %s has idf %.4f, expected %.4f", w.SkillURI, w.IDF, want)
		}
	}
	return &snapshot, nil
}

// ImportFile reads a snapshot from path
func ImportFile(path string) (*types.IdfSnapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return Import(data)
}
