package state

import (
	"database/sql"
	"fmt"

	"github.com/lakeforge-labs/cascade/pkg/core"
)

const columnFields = `column_id, stage_id, stage_name, artifact_id, artifact_name,
	column_name, "order", data_type, column_comment, column_business_name, column_group,
	source_column_name, lookup_fields, etl_simple_transformation,
	ai_transformation_prompt, etl_ai_transformation`

// InsertColumns appends column records in one transaction, preserving the
// slice order as insertion order.
func (s *SQLiteStore) InsertColumns(columns []*core.Column) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}
	if len(columns) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(
		`INSERT INTO columns (` + columnFields + `)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, c := range columns {
		if _, err := stmt.Exec(
			c.ID, c.StageID, c.StageName, c.ArtifactID, c.ArtifactName,
			c.Name, c.Order, c.DataType, c.Comment, c.BusinessName, string(c.Group),
			c.SourceColumn, c.LookupFields, c.ETLTransformation,
			c.AIPrompt, c.ETLAITransformation,
		); err != nil {
			return fmt.Errorf("failed to insert column %q: %w", c.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetArtifactColumns returns an artifact's columns in insertion order.
func (s *SQLiteStore) GetArtifactColumns(artifactID string) ([]*core.Column, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}
	return s.queryColumns(
		`SELECT `+columnFields+` FROM columns WHERE artifact_id = ? ORDER BY rowid`,
		artifactID,
	)
}

// ListColumns returns every column in the store in insertion order.
func (s *SQLiteStore) ListColumns() ([]*core.Column, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}
	return s.queryColumns(`SELECT ` + columnFields + ` FROM columns ORDER BY rowid`)
}

// DeleteColumn removes a single column by id. Freed ids are never reused.
func (s *SQLiteStore) DeleteColumn(id int64) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	result, err := s.db.Exec(`DELETE FROM columns WHERE column_id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete column: %w", err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("column not found: %d", id)
	}
	return nil
}

// MaxColumnID returns the highest column id ever assigned, 0 when the store
// holds no columns.
func (s *SQLiteStore) MaxColumnID() (int64, error) {
	if s.db == nil {
		return 0, fmt.Errorf("database not opened")
	}

	var max sql.NullInt64
	if err := s.db.QueryRow(`SELECT MAX(column_id) FROM columns`).Scan(&max); err != nil {
		return 0, fmt.Errorf("failed to query max column id: %w", err)
	}
	if !max.Valid {
		return 0, nil
	}
	return max.Int64, nil
}

func (s *SQLiteStore) queryColumns(query string, args ...any) ([]*core.Column, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query columns: %w", err)
	}
	defer rows.Close()

	var columns []*core.Column
	for rows.Next() {
		c := &core.Column{}
		var group string
		if err := rows.Scan(
			&c.ID, &c.StageID, &c.StageName, &c.ArtifactID, &c.ArtifactName,
			&c.Name, &c.Order, &c.DataType, &c.Comment, &c.BusinessName, &group,
			&c.SourceColumn, &c.LookupFields, &c.ETLTransformation,
			&c.AIPrompt, &c.ETLAITransformation,
		); err != nil {
			return nil, fmt.Errorf("failed to scan column: %w", err)
		}
		c.Group = core.ColumnGroup(group)
		columns = append(columns, c)
	}

	return columns, rows.Err()
}
