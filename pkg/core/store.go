package core

import "time"

// CascadeStatus is the lifecycle state of a cascade run.
type CascadeStatus string

const (
	CascadeStatusRunning   CascadeStatus = "running"
	CascadeStatusCompleted CascadeStatus = "completed"
	CascadeStatusFailed    CascadeStatus = "failed"
)

// CascadeRun is the persisted record of one cascade run.
type CascadeRun struct {
	ID          string
	Status      CascadeStatus
	Processed   int
	Skipped     int
	Failed      int
	StartedAt   time.Time
	CompletedAt *time.Time
	Error       string
}

// CascadeReport is the user-visible result of a cascade run: counts of
// artifacts processed/skipped/failed plus the specific warnings raised along
// the way. A run never returns a silent partial result.
type CascadeReport struct {
	RunID     string
	Processed int
	Skipped   int
	Failed    int
	Warnings  []string
	Errors    []string
}

// AddWarning appends a warning to the report.
func (r *CascadeReport) AddWarning(msg string) {
	r.Warnings = append(r.Warnings, msg)
}

// Store defines the persisted workbench store: four record tables
// (stages, artifacts, columns, data_type_mappings) plus cascade run
// tracking. A cascading run assumes exclusive access to the store for its
// duration; the store performs no waiting or retrying of its own.
type Store interface {
	Open(path string) error
	Close() error
	Migrate() error

	// Stage operations
	SaveStage(stage *Stage) error
	GetStage(id string) (*Stage, error)
	ListStages() ([]*Stage, error)

	// Artifact operations
	SaveArtifact(artifact *Artifact) error
	GetArtifact(id string) (*Artifact, error)
	// ListArtifacts returns artifacts in store (insertion) order.
	ListArtifacts() ([]*Artifact, error)

	// Column operations
	InsertColumns(columns []*Column) error
	// GetArtifactColumns returns an artifact's columns in insertion order.
	GetArtifactColumns(artifactID string) ([]*Column, error)
	ListColumns() ([]*Column, error)
	DeleteColumn(id int64) error
	// MaxColumnID returns the highest column id ever assigned (0 when empty).
	MaxColumnID() (int64, error)

	// Type mapping operations
	SaveTypeMapping(mapping *TypeMapping) error
	ListTypeMappings() ([]*TypeMapping, error)

	// Cleanup pass
	RemoveDuplicateColumns() (removed int, err error)
	ReenumerateColumnIDs() (renumbered int, err error)

	// Cascade run tracking
	CreateCascadeRun() (*CascadeRun, error)
	CompleteCascadeRun(id string, status CascadeStatus, processed, skipped, failed int, errMsg string) error
	GetCascadeRun(id string) (*CascadeRun, error)
	LatestCascadeRun() (*CascadeRun, error)
}
