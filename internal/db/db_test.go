package db

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSchema_DefinesTables(t *testing.T) {
	schema := Schema()
	tables := []string{
		"concept_labels",
		"concept_synonyms",
		"concept_search_log",
		"idf_snapshots",
		"skill_idf_weights",
	}

	for _, table := range tables {
		assert.Contains(t, schema, "CREATE TABLE IF NOT EXISTS "+table, "schema should create %s", table)
	}
	assert.Contains(t, schema, "UNIQUE (concept_uri, label_normalized)")
	assert.Contains(t, schema, "UNIQUE (synonym_normalized, concept_uri)")
}

func TestSchema_Idempotent(t *testing.T) {
	for _, line := range strings.Split(Schema(), "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "CREATE ") {
			assert.Contains(t, line, "IF NOT EXISTS", "statement should be idempotent: %s", line)
		}
	}
}

func TestContainsPatterns(t *testing.T) {
	prefix, suffix, substring := containsPatterns("lassen")

	assert.Equal(t, "lassen%", prefix)
	assert.Equal(t, "%lassen", suffix)
	assert.Equal(t, "%lassen%", substring)
}

func TestContainsConfidenceOrder(t *testing.T) {
	assert.Greater(t, ContainsEqualConfidence, ContainsPrefixConfidence)
	assert.Greater(t, ContainsPrefixConfidence, ContainsSuffixConfidence)
	assert.Greater(t, ContainsSuffixConfidence, ContainsSubstringConfidence)
}

func TestRelevanceConfidence(t *testing.T) {
	tests := []struct {
		rank float64
		want float64
	}{
		{rank: -0.1, want: 0},
		{rank: 0, want: 0},
		{rank: 0.42, want: 0.42},
		{rank: 1.5, want: 1},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, relevanceConfidence(tt.rank))
	}
}
