package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jonathan/occupation-matcher/internal/types"
)

// ExactLabels returns labels whose normalized text equals normalized.
// Preferred labels come first, then alternate labels, then the rest.
// An empty conceptType searches all concept types.
func (db *DB) ExactLabels(ctx context.Context, normalized string, conceptType types.ConceptType, limit int) ([]types.ConceptMatch, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT concept_uri, concept_type, pref_label, label, label_type, 1.0 AS confidence
		 FROM concept_labels
		 WHERE label_normalized = $1 AND ($2 = '' OR concept_type = $2)
		 ORDER BY
		   CASE label_type WHEN 'pref' THEN 0 WHEN 'alt' THEN 1 ELSE 2 END,
		   concept_uri
		 LIMIT $3`,
		normalized, string(conceptType), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query exact labels: %w", err)
	}
	return collectMatches(rows, types.MatchTypeExact)
}

// ContainsLabels returns labels whose normalized text starts with, ends with or
// contains normalized, most specific first and then shortest label first.
func (db *DB) ContainsLabels(ctx context.Context, normalized string, conceptType types.ConceptType, limit int) ([]types.ConceptMatch, error) {
	prefix, suffix, substring := containsPatterns(normalized)
	rows, err := db.pool.Query(ctx,
		`SELECT concept_uri, concept_type, pref_label, label, label_type,
		   CASE
		     WHEN label_normalized = $1 THEN $5::float8
		     WHEN label_normalized LIKE $2 THEN $6::float8
		     WHEN label_normalized LIKE $3 THEN $7::float8
		     ELSE $8::float8
		   END AS confidence
		 FROM concept_labels
		 WHERE label_normalized LIKE $4 AND ($9 = '' OR concept_type = $9)
		 ORDER BY confidence DESC, LENGTH(label) ASC, concept_uri
		 LIMIT $10`,
		normalized, prefix, suffix, substring,
		ContainsEqualConfidence, ContainsPrefixConfidence, ContainsSuffixConfidence, ContainsSubstringConfidence,
		string(conceptType), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query contains labels: %w", err)
	}
	return collectMatches(rows, types.MatchTypeContains)
}

// RelevanceLabels runs a ranked full-text search over labels and preferred labels.
func (db *DB) RelevanceLabels(ctx context.Context, term string, conceptType types.ConceptType, limit int) ([]types.ConceptMatch, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT concept_uri, concept_type, pref_label, label, label_type,
		   ts_rank(search_vector, plainto_tsquery('dutch', $1), 32) AS confidence
		 FROM concept_labels
		 WHERE search_vector @@ plainto_tsquery('dutch', $1) AND ($2 = '' OR concept_type = $2)
		 ORDER BY confidence DESC, LENGTH(label) ASC, concept_uri
		 LIMIT $3`,
		term, string(conceptType), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query relevance labels: %w", err)
	}
	matches, err := collectMatches(rows, types.MatchTypeFuzzy)
	if err != nil {
		return nil, err
	}
	for i := range matches {
		matches[i].Confidence = relevanceConfidence(matches[i].Confidence)
	}
	return matches, nil
}

// SuggestLabels returns autocomplete entries for a normalized prefix,
// an exact hit first and then shorter labels first.
func (db *DB) SuggestLabels(ctx context.Context, normalizedPrefix string, conceptType types.ConceptType, limit int) ([]types.LabelSuggestion, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT label, pref_label, concept_uri
		 FROM concept_labels
		 WHERE label_normalized LIKE $2 AND ($3 = '' OR concept_type = $3)
		 ORDER BY CASE WHEN label_normalized = $1 THEN 0 ELSE 1 END, LENGTH(label), label, concept_uri
		 LIMIT $4`,
		normalizedPrefix, normalizedPrefix+"%", string(conceptType), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query label suggestions: %w", err)
	}
	defer rows.Close()

	var suggestions []types.LabelSuggestion
	for rows.Next() {
		var s types.LabelSuggestion
		if err := rows.Scan(&s.Label, &s.PrefLabel, &s.URI); err != nil {
			return nil, fmt.Errorf("failed to scan label suggestion: %w", err)
		}
		suggestions = append(suggestions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read label suggestions: %w", err)
	}
	return suggestions, nil
}

// LabelExists reports whether normalized is already a label of conceptURI
func (db *DB) LabelExists(ctx context.Context, conceptURI, normalized string) (bool, error) {
	var one int
	err := db.pool.QueryRow(ctx,
		`SELECT 1 FROM concept_labels WHERE concept_uri = $1 AND label_normalized = $2 LIMIT 1`,
		conceptURI, normalized,
	).Scan(&one)
	if err != nil {
		if err == pgx.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("failed to check label: %w", err)
	}
	return true, nil
}

// BumpUsage increments the usage counter of a confirmed label
func (db *DB) BumpUsage(ctx context.Context, conceptURI, normalized string) error {
	_, err := db.pool.Exec(ctx,
		`UPDATE concept_labels SET usage_count = usage_count + 1, last_used = NOW()
		 WHERE concept_uri = $1 AND label_normalized = $2`,
		conceptURI, normalized,
	)
	if err != nil {
		return fmt.Errorf("failed to bump label usage: %w", err)
	}
	return nil
}

// UpsertLabels inserts labels, keeping existing rows and their usage counters
func (db *DB) UpsertLabels(ctx context.Context, labels []types.Label) error {
	if len(labels) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, l := range labels {
		labelType := l.LabelType
		if labelType == "" {
			labelType = types.LabelPref
		}
		confidence := l.Confidence
		if confidence == 0 {
			confidence = 1.0
		}
		batch.Queue(
			`INSERT INTO concept_labels (concept_uri, concept_type, pref_label, label, label_normalized, label_type, confidence)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)
			 ON CONFLICT (concept_uri, label_normalized) DO UPDATE
			   SET pref_label = EXCLUDED.pref_label, label_type = EXCLUDED.label_type`,
			l.ConceptURI, string(l.ConceptType), l.PrefLabel, l.Text, l.NormalizedText, string(labelType), confidence,
		)
	}
	if err := db.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to upsert labels: %w", err)
	}
	return nil
}

// CountLabels returns label and concept counts per concept type
func (db *DB) CountLabels(ctx context.Context) ([]LabelCount, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT concept_type, COUNT(*), COUNT(DISTINCT concept_uri)
		 FROM concept_labels GROUP BY concept_type ORDER BY concept_type`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to count labels: %w", err)
	}
	defer rows.Close()

	var counts []LabelCount
	for rows.Next() {
		var c LabelCount
		if err := rows.Scan(&c.ConceptType, &c.Labels, &c.Concepts); err != nil {
			return nil, fmt.Errorf("failed to scan label count: %w", err)
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

func collectMatches(rows pgx.Rows, matchType types.MatchType) ([]types.ConceptMatch, error) {
	defer rows.Close()

	var matches []types.ConceptMatch
	for rows.Next() {
		var m types.ConceptMatch
		var conceptType, labelType string
		if err := rows.Scan(&m.URI, &conceptType, &m.PrefLabel, &m.MatchedLabel, &labelType, &m.Confidence); err != nil {
			return nil, fmt.Errorf("failed to scan label match: %w", err)
		}
		m.ConceptType = types.ConceptType(conceptType)
		m.LabelType = types.LabelType(labelType)
		m.MatchType = matchType
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read label matches: %w", err)
	}
	return matches, nil
}
