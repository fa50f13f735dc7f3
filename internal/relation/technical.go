package relation

import (
	"github.com/lakeforge-labs/cascade/pkg/core"
)

// technicalBaseOrder places technical fields after every authored and
// cascaded column.
const technicalBaseOrder = 1000

// TechnicalColumns returns the technical/audit fields for a cascade target:
// the per-layer load marker pair for every recognized transition, the
// layer-specific audit fields, and the artifact-kind fields. The engine
// injects these exactly once per cascaded artifact regardless of how many
// upstream merges feed it.
//
// An unspecified transition contributes no layer fields; artifact-kind
// fields still apply.
func TechnicalColumns(ctx Context) []*core.Column {
	var fields []*core.Column

	add := func(name, dataType string) {
		fields = append(fields, &core.Column{
			Name:     name,
			DataType: dataType,
			Group:    core.GroupTechnical,
		})
	}

	if layer := ctx.Transition.TargetLayer(); layer != "" {
		add("__"+layer+"_loadDate", "datetime2")
		add("__"+layer+"_source", "varchar(100)")

		switch ctx.Transition {
		case TransitionBronzeToSilver:
			add("__silver_validFrom", "datetime2")
			add("__silver_validTo", "datetime2")
		case TransitionSilverToGold:
			add("__gold_lastRefresh", "datetime2")
			add("__gold_aggregationLevel", "varchar(50)")
		}
	}

	switch ctx.ArtifactType {
	case core.ArtifactDimension:
		add("__dim_scdType", "int")
		add("__dim_isCurrent", "bit")
	case core.ArtifactFact:
		add("__fact_grainLevel", "varchar(100)")
		add("__fact_measureUnit", "varchar(50)")
	}

	for i, f := range fields {
		f.Order = technicalBaseOrder + i
	}
	return fields
}
