package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/occupation-matcher/internal/types"
)

// ReplaceIdfSnapshot swaps the stored IDF weights for snapshot in one transaction
func (db *DB) ReplaceIdfSnapshot(ctx context.Context, snapshot *types.IdfSnapshot) error {
	if snapshot == nil {
		return fmt.Errorf("snapshot is nil")
	}
	if snapshot.Version == uuid.Nil {
		return fmt.Errorf("snapshot version is not set")
	}

	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	conceptTypes := make([]string, len(snapshot.ConceptTypes))
	for i, ct := range snapshot.ConceptTypes {
		conceptTypes[i] = string(ct)
	}

	if _, err := tx.Exec(ctx, `UPDATE idf_snapshots SET is_current = FALSE WHERE is_current`); err != nil {
		return fmt.Errorf("failed to retire idf snapshot: %w", err)
	}
	if _, err := tx.Exec(ctx,
		`INSERT INTO idf_snapshots (version, computed_at, total_occupations, concept_types, is_current)
		 VALUES ($1, $2, $3, $4, TRUE)`,
		snapshot.Version, snapshot.ComputedAt, snapshot.TotalOccupations, conceptTypes,
	); err != nil {
		return fmt.Errorf("failed to insert idf snapshot: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM skill_idf_weights`); err != nil {
		return fmt.Errorf("failed to clear idf weights: %w", err)
	}

	rows := make([][]any, len(snapshot.Weights))
	for i, w := range snapshot.Weights {
		rows[i] = []any{
			w.SkillURI, w.SkillLabel, w.Category, w.DocumentFrequency, w.TotalOccupations,
			w.IDF, w.CoveragePercent, snapshot.Version,
		}
	}
	if _, err := tx.CopyFrom(ctx,
		pgx.Identifier{"skill_idf_weights"},
		[]string{"skill_uri", "skill_label", "skill_category", "occupation_count", "total_occupations",
			"idf_weight", "coverage_percent", "snapshot_version"},
		pgx.CopyFromRows(rows),
	); err != nil {
		return fmt.Errorf("failed to copy idf weights: %w", err)
	}

	// Older snapshots no longer own any weights
	if _, err := tx.Exec(ctx, `DELETE FROM idf_snapshots WHERE NOT is_current`); err != nil {
		return fmt.Errorf("failed to prune idf snapshots: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit idf snapshot: %w", err)
	}
	return nil
}

// LoadIdfSnapshot returns the current IDF snapshot, or nil when none was stored
func (db *DB) LoadIdfSnapshot(ctx context.Context) (*types.IdfSnapshot, error) {
	var snapshot types.IdfSnapshot
	var conceptTypes []string
	err := db.pool.QueryRow(ctx,
		`SELECT version, computed_at, total_occupations, concept_types
		 FROM idf_snapshots WHERE is_current`,
	).Scan(&snapshot.Version, &snapshot.ComputedAt, &snapshot.TotalOccupations, &conceptTypes)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get idf snapshot: %w", err)
	}
	for _, ct := range conceptTypes {
		snapshot.ConceptTypes = append(snapshot.ConceptTypes, types.ConceptType(ct))
	}

	rows, err := db.pool.Query(ctx,
		`SELECT skill_uri, skill_label, skill_category, occupation_count, total_occupations, idf_weight, coverage_percent
		 FROM skill_idf_weights
		 WHERE snapshot_version = $1
		 ORDER BY idf_weight DESC, skill_uri`,
		snapshot.Version,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query idf weights: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var w types.IdfWeight
		if err := rows.Scan(&w.SkillURI, &w.SkillLabel, &w.Category, &w.DocumentFrequency,
			&w.TotalOccupations, &w.IDF, &w.CoveragePercent); err != nil {
			return nil, fmt.Errorf("failed to scan idf weight: %w", err)
		}
		snapshot.Weights = append(snapshot.Weights, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read idf weights: %w", err)
	}
	return &snapshot, nil
}
