package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/occupation-matcher/internal/types"
)

func TestLoadConfig_ValidJSON(t *testing.T) {
	content := `{
		"database_url": "postgres://localhost/matcher",
		"sparql_endpoint": "https://example.com/sparql",
		"sparql_timeout": "10s",
		"default_limit": 20,
		"category_weights": {"skills": 0.5},
		"verbose": true
	}`

	tmpFile := filepath.Join(t.TempDir(), "config.json")
	err := os.WriteFile(tmpFile, []byte(content), 0644)
	require.NoError(t, err)

	cfg, err := LoadConfig(tmpFile)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "postgres://localhost/matcher", cfg.DatabaseURL)
	assert.Equal(t, "https://example.com/sparql", cfg.SPARQLEndpoint)
	assert.Equal(t, 10*time.Second, cfg.SPARQLTimeout.Std())
	assert.Equal(t, 20, cfg.DefaultLimit)
	assert.Equal(t, 0.5, cfg.CategoryWeights["skills"])
	assert.True(t, cfg.Verbose)
}

func TestLoadConfig_InvalidJSON(t *testing.T) {
	content := `{ invalid json }`

	tmpFile := filepath.Join(t.TempDir(), "config.json")
	err := os.WriteFile(tmpFile, []byte(content), 0644)
	require.NoError(t, err)

	cfg, err := LoadConfig(tmpFile)
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to parse config JSON")
}

func TestLoadConfig_InvalidDuration(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(tmpFile, []byte(`{"sparql_timeout": "soon"}`), 0644))

	_, err := LoadConfig(tmpFile)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid duration")
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	cfg, err := LoadConfig("/nonexistent/path/config.json")
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadConfig_EmptyPath(t *testing.T) {
	cfg, err := LoadConfig("")
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "config path is empty")
}

func TestDefaults_Valid(t *testing.T) {
	cfg := Defaults()
	require.NoError(t, cfg.Validate())

	weights := cfg.TierWeights()
	assert.Equal(t, 1.0, weights[types.TierEssential])
	assert.Equal(t, 0.4, weights[types.TierImportant])
	assert.Equal(t, 0.2, weights[types.TierSomewhat])
	assert.Equal(t, []types.ConceptType{types.ConceptHumanCapability}, cfg.ConceptTypesForIDF())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{
			name:    "non-monotonic tier weights",
			cfg:     Config{EssentialWeight: 0.4, ImportantWeight: 0.4, SomewhatWeight: 0.2},
			wantErr: "tier weights",
		},
		{
			name:    "unknown category",
			cfg:     Config{CategoryWeights: map[string]float64{"hobbies": 1}},
			wantErr: "unknown category",
		},
		{
			name:    "negative category weight",
			cfg:     Config{CategoryWeights: map[string]float64{"skills": -1}},
			wantErr: "must be non-negative",
		},
		{
			name:    "min score out of range",
			cfg:     Config{DefaultMinScore: 1.5},
			wantErr: "default_min_score",
		},
		{
			name:    "default limit above max",
			cfg:     Config{DefaultLimit: 200, MaxLimit: 100},
			wantErr: "default_limit",
		},
		{
			name:    "bad schedule",
			cfg:     Config{IndexRefreshSchedule: "every now and then"},
			wantErr: "index_refresh_schedule",
		},
		{
			name:    "unknown idf concept type",
			cfg:     Config{IDFConceptTypes: []string{"Hobby"}},
			wantErr: "idf_concept_types",
		},
		{
			name:    "negative retries",
			cfg:     Config{SPARQLMaxRetries: -1},
			wantErr: "sparql_max_retries",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate_ValidConfig(t *testing.T) {
	cfg := &Config{
		EssentialWeight:      1,
		ImportantWeight:      0.5,
		SomewhatWeight:       0.1,
		DefaultLimit:         10,
		MaxLimit:             100,
		IndexRefreshSchedule: "*/15 * * * *",
	}

	err := cfg.Validate()
	assert.NoError(t, err)
}

func TestMergeWithDefaults(t *testing.T) {
	partial := Config{
		DatabaseURL:     "postgres://custom",
		DefaultLimit:    5,
		CategoryWeights: map[string]float64{"tasks": 0.2},
	}

	merged := partial.MergeWithDefaults(Defaults())

	// Custom values should be preserved
	assert.Equal(t, "postgres://custom", merged.DatabaseURL)
	assert.Equal(t, 5, merged.DefaultLimit)
	assert.Equal(t, 0.2, merged.CategoryWeights["tasks"])

	// Default values should fill in empty fields
	assert.Equal(t, 1.0, merged.CategoryWeights["skills"])
	assert.Equal(t, "https://sparql.competentnl.nl", merged.SPARQLEndpoint)
	assert.Equal(t, 30*time.Second, merged.SPARQLTimeout.Std())
	assert.Equal(t, 0.5, merged.DefaultIDF)
	assert.Equal(t, 100, merged.MaxLimit)
	assert.Equal(t, "@every 1h", merged.IndexRefreshSchedule)

	// The input should not be mutated
	assert.Len(t, partial.CategoryWeights, 1)
}

func TestMergeWithDefaults_EmptyDefaults(t *testing.T) {
	cfg := Config{
		DatabaseURL: "postgres://test",
		Language:    "en",
	}

	merged := cfg.MergeWithDefaults(Config{})

	assert.Equal(t, "postgres://test", merged.DatabaseURL)
	assert.Equal(t, "en", merged.Language)
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"DATABASE_URL":         "postgres://env",
		"COMPETENTNL_API_KEY":  "secret",
		"COMPETENTNL_ENDPOINT": "https://sparql.test",
		"NATS_URL":             "nats://localhost:4222",
		"DEFAULT_IDF":          "0.75",
	}

	cfg := Defaults()
	cfg.ApplyEnv(func(k string) string { return env[k] })

	assert.Equal(t, "postgres://env", cfg.DatabaseURL)
	assert.Equal(t, "secret", cfg.SPARQLAPIKey)
	assert.Equal(t, "https://sparql.test", cfg.SPARQLEndpoint)
	assert.Equal(t, "nats://localhost:4222", cfg.NATSURL)
	assert.Equal(t, 0.75, cfg.DefaultIDF)
	assert.Equal(t, ":9090", cfg.MetricsAddr)
}
