package parsing

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/jonathan/occupation-matcher/internal/schemas"
	"github.com/jonathan/occupation-matcher/internal/types"
	embedded "github.com/jonathan/occupation-matcher/schemas"
)

// ParseProfile decodes a MatchProfile document, validating it against the
// match profile schema and cleaning every category.
func ParseProfile(data []byte) (*types.MatchProfile, error) {
	if err := schemas.ValidateDocument(embedded.MatchProfile, data); err != nil {
		return nil, &ParseError{Message: "profile does not match schema", Cause: err}
	}

	var profile types.MatchProfile
	if err := json.Unmarshal(data, &profile); err != nil {
		return nil, &ParseError{Message: "failed to unmarshal profile JSON", Cause: err}
	}

	cleaned := CleanProfile(profile)
	if cleaned.Empty() {
		return nil, &ValidationError{Message: "profile must contain at least one skill, knowledge area or task"}
	}
	return &cleaned, nil
}

// LoadProfile reads and parses a MatchProfile JSON file.
func LoadProfile(path string) (*types.MatchProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile file %s: %w", path, err)
	}
	return ParseProfile(data)
}

// CleanProfile returns a copy of the profile with every category cleaned.
func CleanProfile(profile types.MatchProfile) types.MatchProfile {
	return types.MatchProfile{
		Skills:    CleanTerms(profile.Skills),
		Knowledge: CleanTerms(profile.Knowledge),
		Tasks:     CleanTerms(profile.Tasks),
	}
}
