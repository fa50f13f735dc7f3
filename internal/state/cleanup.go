package state

import (
	"fmt"
)

// RemoveDuplicateColumns deletes every column whose (artifact, name) pair is
// already taken by an earlier insertion, keeping the first occurrence. The
// operation is idempotent: a second call removes nothing.
func (s *SQLiteStore) RemoveDuplicateColumns() (int, error) {
	if s.db == nil {
		return 0, fmt.Errorf("database not opened")
	}

	result, err := s.db.Exec(
		`DELETE FROM columns WHERE rowid NOT IN (
		   SELECT MIN(rowid) FROM columns GROUP BY artifact_id, column_name
		 )`,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to remove duplicate columns: %w", err)
	}

	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count removed columns: %w", err)
	}
	if removed > 0 {
		s.logger.Info("removed duplicate columns", "count", removed)
	}
	return int(removed), nil
}

// ReenumerateColumnIDs reassigns column ids as a dense 1..N sequence ordered
// by artifact, then position within the artifact. Insertion order (rowid) is
// untouched, so stores that were already dense come out unchanged.
//
// The rewrite runs in two passes inside one transaction: ids are first moved
// to their negated target so the unique constraint never sees a collision
// while old and new sequences overlap.
func (s *SQLiteStore) ReenumerateColumnIDs() (int, error) {
	if s.db == nil {
		return 0, fmt.Errorf("database not opened")
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.Query(
		`SELECT rowid FROM columns ORDER BY artifact_id, "order", rowid`,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to order columns: %w", err)
	}

	var ordered []int64
	for rows.Next() {
		var rowid int64
		if err := rows.Scan(&rowid); err != nil {
			rows.Close()
			return 0, fmt.Errorf("failed to scan column rowid: %w", err)
		}
		ordered = append(ordered, rowid)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return 0, fmt.Errorf("failed to order columns: %w", err)
	}
	rows.Close()

	stmt, err := tx.Prepare(`UPDATE columns SET column_id = ? WHERE rowid = ?`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare renumber: %w", err)
	}
	defer stmt.Close()

	for i, rowid := range ordered {
		if _, err := stmt.Exec(-(int64(i) + 1), rowid); err != nil {
			return 0, fmt.Errorf("failed to stage column id: %w", err)
		}
	}
	if _, err := tx.Exec(`UPDATE columns SET column_id = -column_id WHERE column_id < 0`); err != nil {
		return 0, fmt.Errorf("failed to finalize column ids: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.logger.Info("reenumerated column ids", "count", len(ordered))
	return len(ordered), nil
}
