package state

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/lakeforge-labs/cascade/pkg/core"
)

// CreateCascadeRun records the start of a cascade run.
func (s *SQLiteStore) CreateCascadeRun() (*core.CascadeRun, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	run := &core.CascadeRun{
		ID:        uuid.New().String(),
		Status:    core.CascadeStatusRunning,
		StartedAt: time.Now().UTC(),
	}

	_, err := s.db.Exec(
		`INSERT INTO cascade_runs (id, status, started_at) VALUES (?, ?, ?)`,
		run.ID, string(run.Status), run.StartedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create cascade run: %w", err)
	}

	return run, nil
}

// CompleteCascadeRun finalizes a run with its status and counters.
func (s *SQLiteStore) CompleteCascadeRun(id string, status core.CascadeStatus, processed, skipped, failed int, errMsg string) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	now := time.Now().UTC()
	var errorPtr *string
	if errMsg != "" {
		errorPtr = &errMsg
	}

	result, err := s.db.Exec(
		`UPDATE cascade_runs SET status = ?, processed = ?, skipped = ?, failed = ?,
		   completed_at = ?, error = ? WHERE id = ?`,
		string(status), processed, skipped, failed, now, errorPtr, id,
	)
	if err != nil {
		return fmt.Errorf("failed to complete cascade run: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("cascade run not found: %s", id)
	}
	return nil
}

// GetCascadeRun retrieves a run by id.
func (s *SQLiteStore) GetCascadeRun(id string) (*core.CascadeRun, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}
	run, err := s.scanCascadeRun(s.db.QueryRow(
		`SELECT id, status, processed, skipped, failed, started_at, completed_at, error
		 FROM cascade_runs WHERE id = ?`, id))
	if err == nil && run == nil {
		return nil, fmt.Errorf("cascade run not found: %s", id)
	}
	return run, err
}

// LatestCascadeRun retrieves the most recent run, nil when none exist.
func (s *SQLiteStore) LatestCascadeRun() (*core.CascadeRun, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}
	return s.scanCascadeRun(s.db.QueryRow(
		`SELECT id, status, processed, skipped, failed, started_at, completed_at, error
		 FROM cascade_runs ORDER BY started_at DESC LIMIT 1`))
}

// scanCascadeRun scans one run row; a missing row yields (nil, nil).
func (s *SQLiteStore) scanCascadeRun(row *sql.Row) (*core.CascadeRun, error) {
	run := &core.CascadeRun{}
	var status string
	var completedAt sql.NullTime
	var errMsg sql.NullString

	err := row.Scan(&run.ID, &status, &run.Processed, &run.Skipped, &run.Failed,
		&run.StartedAt, &completedAt, &errMsg)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cascade run: %w", err)
	}

	run.Status = core.CascadeStatus(status)
	if completedAt.Valid {
		run.CompletedAt = &completedAt.Time
	}
	if errMsg.Valid {
		run.Error = errMsg.String
	}
	return run, nil
}
