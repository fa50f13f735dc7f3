package core

import (
	"sort"
	"strings"
)

// StageSide classifies a stage as source-oriented or business-oriented.
type StageSide string

const (
	// SideSource exposes raw source-system naming (landing, bronze).
	SideSource StageSide = "source"
	// SideBusiness exposes business-facing naming (silver and above).
	SideBusiness StageSide = "business"
)

// Stage is a named layer of the pipeline (landing, bronze, silver, gold,
// mart, semantic model). Immutable once referenced by artifacts.
type Stage struct {
	// ID is the stage identifier (e.g., "s2")
	ID string
	// Name is the display name (e.g., "silver")
	Name string
	// Platform is the target platform for this stage (e.g., "databricks")
	Platform string
	// Side is the naming side: source or business
	Side StageSide
}

// ArtifactType is the semantic kind of a table-like artifact.
type ArtifactType string

const (
	ArtifactDimension ArtifactType = "dimension"
	ArtifactFact      ArtifactType = "fact"
	ArtifactBridge    ArtifactType = "bridge"
	ArtifactUnknown   ArtifactType = "unknown"
)

// RelationKind is the declared propagation strategy between an artifact and
// one of its upstream artifacts.
type RelationKind string

const (
	// RelationMain propagates every upstream column plus technical fields.
	RelationMain RelationKind = "main"
	// RelationGetKey extracts surrogate/business keys from a dimension.
	RelationGetKey RelationKind = "get_key"
	// RelationLookup selects a limited set of columns by group priority.
	RelationLookup RelationKind = "lookup"
	// RelationPBI produces a lean semantic-model column set.
	RelationPBI RelationKind = "pbi"
)

// Artifact is a table-like entity belonging to a stage. Upstream holds zero
// or more upstream artifact ids as a comma-separated set; all upstream
// references of one artifact share the same relation kind.
type Artifact struct {
	// ID is the artifact identifier (e.g., "a_7")
	ID string
	// Name is the artifact name (e.g., "dim_customer")
	Name string
	// StageID is the owning stage
	StageID string
	// Type is the declared artifact type; may be blank (inferred from name)
	Type string
	// Upstream is the comma-separated list of upstream artifact ids
	Upstream string
	// Relation is the relation kind shared by all upstream references
	Relation RelationKind
}

// UpstreamIDs splits the comma-separated upstream reference list,
// trimming whitespace and dropping empty entries.
func (a *Artifact) UpstreamIDs() []string {
	if strings.TrimSpace(a.Upstream) == "" {
		return nil
	}
	var ids []string
	for _, part := range strings.Split(a.Upstream, ",") {
		if id := strings.TrimSpace(part); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// ColumnGroup classifies a column within an artifact.
type ColumnGroup string

const (
	GroupSurrogateKey ColumnGroup = "surrogate_key"
	GroupBusinessKey  ColumnGroup = "business_key"
	GroupAttribute    ColumnGroup = "attribute"
	// GroupMeasure marks numeric fact/measure columns (used by the pbi relation).
	GroupMeasure      ColumnGroup = "measure"
	GroupTechnical    ColumnGroup = "technical"
	GroupUnclassified ColumnGroup = "unclassified"
)

// groupRanks orders column groups within an artifact:
// surrogate_key < business_key < attribute < technical.
// Measures sort with the attribute block; unclassified before technical.
var groupRanks = map[ColumnGroup]int{
	GroupSurrogateKey: 0,
	GroupBusinessKey:  1,
	GroupAttribute:    2,
	GroupMeasure:      2,
	GroupUnclassified: 3,
	GroupTechnical:    4,
}

// Rank returns the ordering rank of the group. Unrecognized groups rank
// with unclassified.
func (g ColumnGroup) Rank() int {
	if r, ok := groupRanks[g]; ok {
		return r
	}
	return groupRanks[GroupUnclassified]
}

// IsKey reports whether the group is a surrogate or business key.
func (g ColumnGroup) IsKey() bool {
	return g == GroupSurrogateKey || g == GroupBusinessKey
}

// Column is one column record of the persisted store. IDs are globally
// unique across the whole store (not per artifact), monotonically assigned
// and never reused.
type Column struct {
	// ID is the globally unique column identifier
	ID int64
	// StageID / StageName denormalize the owning stage
	StageID   string
	StageName string
	// ArtifactID / ArtifactName denormalize the owning artifact
	ArtifactID   string
	ArtifactName string
	// Name is the technical column name; never blank once persisted
	Name string
	// BusinessName is the business-facing name; may be blank
	BusinessName string
	// DataType is the platform-specific type string
	DataType string
	// Order drives downstream rendering
	Order int
	// Group is the column classification
	Group ColumnGroup
	// Comment is the column description
	Comment string
	// SourceColumn references the upstream column this was derived from
	SourceColumn string
	// LookupFields is an optional comma-separated lookup-field list
	LookupFields string
	// ETLTransformation is a simple transformation expression
	ETLTransformation string
	// AIPrompt is the prompt used by the upstream suggestion producer
	AIPrompt string
	// ETLAITransformation is the producer-generated transformation
	ETLAITransformation string
}

// SortColumns orders columns for rendering: group hierarchy first
// (surrogate_key < business_key < attribute < technical), declared order
// within a group, id as the final tiebreaker. The sort is in place.
func SortColumns(columns []*Column) {
	sort.SliceStable(columns, func(i, j int) bool {
		if ri, rj := columns[i].Group.Rank(), columns[j].Group.Rank(); ri != rj {
			return ri < rj
		}
		if columns[i].Order != columns[j].Order {
			return columns[i].Order < columns[j].Order
		}
		return columns[i].ID < columns[j].ID
	})
}

// ResolvedName returns the business name when present and non-blank,
// falling back to the technical name. A column never resolves to "".
func (c *Column) ResolvedName() string {
	if name := strings.TrimSpace(c.BusinessName); name != "" {
		return name
	}
	return c.Name
}

// TypeMapping is one row of the platform type translation table.
// Keyed by (SourcePlatform, SourceType); pure data, never mutated by the engine.
type TypeMapping struct {
	SourcePlatform string
	SourceType     string
	TargetPlatform string
	TargetType     string
}

// TypeMap indexes mappings for lookup during cascading.
type TypeMap struct {
	byKey map[string]TypeMapping
}

// NewTypeMap builds a lookup index over mapping rows. Later rows with the
// same (source platform, source type) key win.
func NewTypeMap(rows []TypeMapping) *TypeMap {
	m := &TypeMap{byKey: make(map[string]TypeMapping, len(rows))}
	for _, row := range rows {
		m.byKey[mappingKey(row.SourcePlatform, row.SourceType)] = row
	}
	return m
}

// Lookup returns the target type for (sourcePlatform, sourceType) when a
// mapping exists whose target platform matches targetPlatform. The type
// match is case-insensitive.
func (m *TypeMap) Lookup(sourcePlatform, sourceType, targetPlatform string) (string, bool) {
	if m == nil {
		return "", false
	}
	row, ok := m.byKey[mappingKey(sourcePlatform, sourceType)]
	if !ok || !strings.EqualFold(row.TargetPlatform, targetPlatform) {
		return "", false
	}
	return row.TargetType, true
}

// Len returns the number of indexed mappings.
func (m *TypeMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.byKey)
}

func mappingKey(platform, dataType string) string {
	return strings.ToLower(strings.TrimSpace(platform)) + "\x00" +
		strings.ToLower(strings.TrimSpace(dataType))
}
