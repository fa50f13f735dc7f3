package state

import (
	"database/sql"
	"fmt"

	"github.com/lakeforge-labs/cascade/pkg/core"
)

// SaveArtifact inserts an artifact or updates an existing one by id.
func (s *SQLiteStore) SaveArtifact(artifact *core.Artifact) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	_, err := s.db.Exec(
		`INSERT INTO artifacts (artifact_id, artifact_name, stage_id, artifact_type, upstream_artifact, relation_type)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (artifact_id) DO UPDATE SET artifact_name = excluded.artifact_name,
		   stage_id = excluded.stage_id, artifact_type = excluded.artifact_type,
		   upstream_artifact = excluded.upstream_artifact, relation_type = excluded.relation_type`,
		artifact.ID, artifact.Name, artifact.StageID, artifact.Type,
		artifact.Upstream, string(artifact.Relation),
	)
	if err != nil {
		return fmt.Errorf("failed to save artifact: %w", err)
	}
	return nil
}

// GetArtifact retrieves an artifact by id. Returns nil without error when missing.
func (s *SQLiteStore) GetArtifact(id string) (*core.Artifact, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	artifact := &core.Artifact{}
	var relation string
	err := s.db.QueryRow(
		`SELECT artifact_id, artifact_name, stage_id, artifact_type, upstream_artifact, relation_type
		 FROM artifacts WHERE artifact_id = ?`,
		id,
	).Scan(&artifact.ID, &artifact.Name, &artifact.StageID, &artifact.Type,
		&artifact.Upstream, &relation)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get artifact: %w", err)
	}

	artifact.Relation = core.RelationKind(relation)
	return artifact, nil
}

// ListArtifacts retrieves all artifacts in store (insertion) order.
// CascadeAll relies on this ordering.
func (s *SQLiteStore) ListArtifacts() ([]*core.Artifact, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.db.Query(
		`SELECT artifact_id, artifact_name, stage_id, artifact_type, upstream_artifact, relation_type
		 FROM artifacts ORDER BY rowid`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list artifacts: %w", err)
	}
	defer rows.Close()

	var artifacts []*core.Artifact
	for rows.Next() {
		artifact := &core.Artifact{}
		var relation string
		if err := rows.Scan(&artifact.ID, &artifact.Name, &artifact.StageID,
			&artifact.Type, &artifact.Upstream, &relation); err != nil {
			return nil, fmt.Errorf("failed to scan artifact: %w", err)
		}
		artifact.Relation = core.RelationKind(relation)
		artifacts = append(artifacts, artifact)
	}

	return artifacts, rows.Err()
}
