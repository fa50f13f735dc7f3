package state

import (
	"database/sql"
	"fmt"

	"github.com/lakeforge-labs/cascade/pkg/core"
)

// SaveStage inserts a stage or updates an existing one by id.
func (s *SQLiteStore) SaveStage(stage *core.Stage) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	_, err := s.db.Exec(
		`INSERT INTO stages (stage_id, stage_name, platform, side) VALUES (?, ?, ?, ?)
		 ON CONFLICT (stage_id) DO UPDATE SET stage_name = excluded.stage_name,
		   platform = excluded.platform, side = excluded.side`,
		stage.ID, stage.Name, stage.Platform, string(stage.Side),
	)
	if err != nil {
		return fmt.Errorf("failed to save stage: %w", err)
	}
	return nil
}

// GetStage retrieves a stage by id. Returns nil without error when missing.
func (s *SQLiteStore) GetStage(id string) (*core.Stage, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	stage := &core.Stage{}
	var side string
	err := s.db.QueryRow(
		`SELECT stage_id, stage_name, platform, side FROM stages WHERE stage_id = ?`,
		id,
	).Scan(&stage.ID, &stage.Name, &stage.Platform, &side)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get stage: %w", err)
	}

	stage.Side = core.StageSide(side)
	return stage, nil
}

// ListStages retrieves all stages in insertion order.
func (s *SQLiteStore) ListStages() ([]*core.Stage, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.db.Query(
		`SELECT stage_id, stage_name, platform, side FROM stages ORDER BY rowid`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list stages: %w", err)
	}
	defer rows.Close()

	var stages []*core.Stage
	for rows.Next() {
		stage := &core.Stage{}
		var side string
		if err := rows.Scan(&stage.ID, &stage.Name, &stage.Platform, &side); err != nil {
			return nil, fmt.Errorf("failed to scan stage: %w", err)
		}
		stage.Side = core.StageSide(side)
		stages = append(stages, stage)
	}

	return stages, rows.Err()
}
