package db

import (
	"context"
	"fmt"

	"github.com/jonathan/occupation-matcher/internal/types"
)

// SynonymMatches returns curated synonyms for a normalized term, highest confidence first
func (db *DB) SynonymMatches(ctx context.Context, normalized string, conceptType types.ConceptType, limit int) ([]types.ConceptMatch, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT concept_uri, concept_type, pref_label, synonym, 'synonym' AS label_type, confidence
		 FROM concept_synonyms
		 WHERE synonym_normalized = $1 AND ($2 = '' OR concept_type = $2)
		 ORDER BY confidence DESC, concept_uri
		 LIMIT $3`,
		normalized, string(conceptType), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query synonyms: %w", err)
	}
	return collectMatches(rows, types.MatchTypeSynonym)
}

// UpsertSynonym inserts a synonym or raises the stored confidence of an existing one.
// Confidence never decreases on conflict.
func (db *DB) UpsertSynonym(ctx context.Context, s types.Synonym) error {
	addedBy := s.AddedBy
	if addedBy == "" {
		addedBy = types.AddedByManual
	}
	_, err := db.pool.Exec(ctx,
		`INSERT INTO concept_synonyms (synonym, synonym_normalized, concept_uri, concept_type, pref_label, confidence, added_by)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (synonym_normalized, concept_uri) DO UPDATE
		   SET confidence = GREATEST(concept_synonyms.confidence, EXCLUDED.confidence),
		       updated_at = NOW()`,
		s.Synonym, s.SynonymNormalized, s.ConceptURI, string(s.ConceptType), s.PrefLabel, s.Confidence, addedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert synonym %q: %w", s.Synonym, err)
	}
	return nil
}

// ListSynonyms returns the synonyms recorded for a concept
func (db *DB) ListSynonyms(ctx context.Context, conceptURI string) ([]types.Synonym, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT synonym, synonym_normalized, concept_uri, concept_type, pref_label, confidence, added_by
		 FROM concept_synonyms WHERE concept_uri = $1 ORDER BY confidence DESC, synonym`,
		conceptURI,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list synonyms: %w", err)
	}
	defer rows.Close()

	var out []types.Synonym
	for rows.Next() {
		var s types.Synonym
		var conceptType string
		if err := rows.Scan(&s.Synonym, &s.SynonymNormalized, &s.ConceptURI, &conceptType, &s.PrefLabel, &s.Confidence, &s.AddedBy); err != nil {
			return nil, fmt.Errorf("failed to scan synonym: %w", err)
		}
		s.ConceptType = types.ConceptType(conceptType)
		out = append(out, s)
	}
	return out, rows.Err()
}
