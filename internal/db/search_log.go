package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jonathan/occupation-matcher/internal/types"
)

// InsertSearch records one resolution attempt
func (db *DB) InsertSearch(ctx context.Context, entry SearchLogEntry) error {
	var conceptType *string
	if entry.ConceptType != "" {
		ct := string(entry.ConceptType)
		conceptType = &ct
	}
	_, err := db.pool.Exec(ctx,
		`INSERT INTO concept_search_log
		 (search_term, search_term_normalized, concept_type, found_exact, found_fuzzy, results_count)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		entry.SearchTerm, entry.SearchTermNormalized, conceptType, entry.FoundExact, entry.FoundFuzzy, entry.ResultsCount,
	)
	if err != nil {
		return fmt.Errorf("failed to insert search log: %w", err)
	}
	return nil
}

// ConfirmLatestSearch marks the most recent search for normalized as confirmed by the user.
// It returns false when no search for the term was logged.
func (db *DB) ConfirmLatestSearch(ctx context.Context, normalized, selectedURI, selectedPrefLabel string) (bool, error) {
	tag, err := db.pool.Exec(ctx,
		`UPDATE concept_search_log
		 SET selected_uri = $2, selected_pref_label = $3, user_confirmed = TRUE
		 WHERE id = (
		   SELECT id FROM concept_search_log
		   WHERE search_term_normalized = $1
		   ORDER BY created_at DESC, id DESC
		   LIMIT 1
		 )`,
		normalized, selectedURI, selectedPrefLabel,
	)
	if err != nil {
		return false, fmt.Errorf("failed to confirm search: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// MissingTerms aggregates searches that found nothing, most frequent first
func (db *DB) MissingTerms(ctx context.Context, limit int) ([]types.MissingTerm, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT search_term, COUNT(*) AS search_count, MAX(created_at) AS last_searched
		 FROM concept_search_log
		 WHERE found_exact = FALSE AND found_fuzzy = FALSE
		 GROUP BY search_term
		 ORDER BY search_count DESC, last_searched DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query missing terms: %w", err)
	}
	defer rows.Close()

	var out []types.MissingTerm
	for rows.Next() {
		var m types.MissingTerm
		var last time.Time
		if err := rows.Scan(&m.SearchTerm, &m.SearchCount, &last); err != nil {
			return nil, fmt.Errorf("failed to scan missing term: %w", err)
		}
		m.LastSearched = last.UTC().Format(time.RFC3339)
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read missing terms: %w", err)
	}
	return out, nil
}
