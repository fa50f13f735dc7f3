package state

import (
	"fmt"

	"github.com/lakeforge-labs/cascade/pkg/core"
)

// SaveTypeMapping inserts or replaces one platform type translation row.
func (s *SQLiteStore) SaveTypeMapping(mapping *core.TypeMapping) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	_, err := s.db.Exec(
		`INSERT INTO data_type_mappings (source_platform, source_data_type, target_platform, target_data_type)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (source_platform, source_data_type, target_platform)
		 DO UPDATE SET target_data_type = excluded.target_data_type`,
		mapping.SourcePlatform, mapping.SourceType, mapping.TargetPlatform, mapping.TargetType,
	)
	if err != nil {
		return fmt.Errorf("failed to save type mapping: %w", err)
	}
	return nil
}

// ListTypeMappings retrieves all type translation rows.
func (s *SQLiteStore) ListTypeMappings() ([]*core.TypeMapping, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.db.Query(
		`SELECT source_platform, source_data_type, target_platform, target_data_type
		 FROM data_type_mappings ORDER BY rowid`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list type mappings: %w", err)
	}
	defer rows.Close()

	var mappings []*core.TypeMapping
	for rows.Next() {
		m := &core.TypeMapping{}
		if err := rows.Scan(&m.SourcePlatform, &m.SourceType, &m.TargetPlatform, &m.TargetType); err != nil {
			return nil, fmt.Errorf("failed to scan type mapping: %w", err)
		}
		mappings = append(mappings, m)
	}

	return mappings, rows.Err()
}
