// Package relation derives downstream column candidates from upstream column
// sets. The processor is a pure-function layer: it never touches the store,
// and everything it needs from the artifact graph arrives in a Context.
//
// The cascading engine owns identity, final ordering and persistence; the
// candidates returned here carry the upstream order, group and lineage fields
// the engine works from.
package relation

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/lakeforge-labs/cascade/pkg/core"
)

// DefaultLookupLimit caps how many fields a lookup relation propagates when
// no limit is configured.
const DefaultLookupLimit = 3

// Context carries the graph context for one upstream merge.
type Context struct {
	// SourceStage / TargetStage are the stages of the upstream and target
	// artifacts. Either may be nil when the stage is not registered.
	SourceStage *core.Stage
	TargetStage *core.Stage
	// ArtifactType is the target artifact's resolved kind.
	ArtifactType core.ArtifactType
	// Transition is the detected stage transition.
	Transition Transition
	// Types translates platform data types on business-side merges.
	Types *core.TypeMap
}

// Result is the outcome of processing one upstream artifact.
type Result struct {
	Columns  []*core.Column
	Warnings []string
}

func (r *Result) warnf(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// Processor implements the per-relation-kind propagation strategies.
type Processor struct {
	logger      *slog.Logger
	lookupLimit int
}

// NewProcessor creates a relation processor. A nil logger discards all log
// output; a lookupLimit below 1 falls back to DefaultLookupLimit.
func NewProcessor(logger *slog.Logger, lookupLimit int) *Processor {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if lookupLimit < 1 {
		lookupLimit = DefaultLookupLimit
	}
	return &Processor{logger: logger, lookupLimit: lookupLimit}
}

// Process dispatches on the relation kind and returns the candidate columns
// derived from one upstream artifact's column set. An unknown kind yields an
// empty result with a warning, not an error.
func (p *Processor) Process(kind core.RelationKind, upstream []*core.Column, ctx Context) Result {
	switch kind {
	case core.RelationMain:
		return p.processMain(upstream, ctx)
	case core.RelationGetKey:
		return p.processGetKey(upstream)
	case core.RelationLookup:
		return p.processLookup(upstream)
	case core.RelationPBI:
		return p.processPBI(upstream)
	default:
		var result Result
		result.warnf("unknown relation kind %q: nothing propagated", kind)
		p.logger.Warn("unknown relation kind", "kind", string(kind))
		return result
	}
}

// processMain propagates every upstream column. Business-side sources resolve
// names through the business-name fallback and translate data types through
// the mapping table.
func (p *Processor) processMain(upstream []*core.Column, ctx Context) Result {
	var result Result
	businessSide := ctx.SourceStage != nil && ctx.SourceStage.Side == core.SideBusiness

	for _, src := range upstream {
		candidate := *src
		candidate.SourceColumn = src.Name

		if businessSide {
			candidate.Name = src.ResolvedName()
			candidate.DataType = p.convertType(src, ctx, &result)
		}

		result.Columns = append(result.Columns, &candidate)
	}

	applyTransitionRules(result.Columns, ctx.Transition)
	applyArtifactTypeRules(result.Columns, ctx.ArtifactType)
	return result
}

// convertType translates a business-side column's data type to the target
// stage's platform. A missing mapping passes the type through with a warning.
func (p *Processor) convertType(src *core.Column, ctx Context, result *Result) string {
	if ctx.SourceStage == nil || ctx.TargetStage == nil {
		return src.DataType
	}
	if strings.TrimSpace(src.DataType) == "" {
		return src.DataType
	}
	if strings.EqualFold(ctx.SourceStage.Platform, ctx.TargetStage.Platform) {
		return src.DataType
	}

	target, ok := ctx.Types.Lookup(ctx.SourceStage.Platform, src.DataType, ctx.TargetStage.Platform)
	if !ok {
		result.warnf("no type mapping for %s %q to platform %s: column %q keeps its type",
			ctx.SourceStage.Platform, src.DataType, ctx.TargetStage.Platform, src.Name)
		return src.DataType
	}
	return target
}

// processGetKey extracts surrogate and business keys, typically from a
// dimension into a fact. Columns whose names carry the conventional _sk/_bk
// suffix count as keys even when unclassified.
func (p *Processor) processGetKey(upstream []*core.Column) Result {
	var result Result
	for _, src := range upstream {
		lower := strings.ToLower(src.Name)
		if src.Group.IsKey() || strings.HasSuffix(lower, "_sk") || strings.HasSuffix(lower, "_bk") {
			candidate := *src
			candidate.SourceColumn = src.Name
			result.Columns = append(result.Columns, &candidate)
		}
	}
	return result
}

// processLookup selects up to the configured limit of columns by group
// priority: surrogate keys first, then business keys, then attributes.
func (p *Processor) processLookup(upstream []*core.Column) Result {
	var result Result
	priority := []core.ColumnGroup{core.GroupSurrogateKey, core.GroupBusinessKey, core.GroupAttribute}

	for _, group := range priority {
		for _, src := range upstream {
			if len(result.Columns) >= p.lookupLimit {
				return result
			}
			if src.Group != group {
				continue
			}
			candidate := *src
			candidate.SourceColumn = src.Name
			result.Columns = append(result.Columns, &candidate)
		}
	}
	return result
}

// processPBI produces the lean semantic-model set: keys, measures, and
// numeric attributes. Technical fields never propagate here.
func (p *Processor) processPBI(upstream []*core.Column) Result {
	var result Result
	for _, src := range upstream {
		keep := src.Group.IsKey() ||
			src.Group == core.GroupMeasure ||
			(src.Group == core.GroupAttribute && isNumericType(src.DataType))
		if !keep {
			continue
		}
		candidate := *src
		candidate.SourceColumn = src.Name
		result.Columns = append(result.Columns, &candidate)
	}
	return result
}

// applyTransitionRules mutates candidates with per-transition cleanups.
// Entering silver strips legacy bronze_ name prefixes.
func applyTransitionRules(columns []*core.Column, transition Transition) {
	if transition != TransitionBronzeToSilver {
		return
	}
	for _, c := range columns {
		c.Name = strings.TrimPrefix(c.Name, "bronze_")
	}
}

// applyArtifactTypeRules mutates candidates with per-kind cleanups. Fact
// measures stuck on a text type get the default measure type.
func applyArtifactTypeRules(columns []*core.Column, artifactType core.ArtifactType) {
	if artifactType != core.ArtifactFact {
		return
	}
	for _, c := range columns {
		if c.Group != core.GroupMeasure {
			continue
		}
		switch strings.ToLower(c.DataType) {
		case "varchar", "text", "string":
			c.DataType = "decimal(18,2)"
		}
	}
}

// numericPrefixes covers the platform type spellings that count as numeric
// for pbi attribute selection.
var numericPrefixes = []string{
	"int", "bigint", "smallint", "tinyint",
	"decimal", "numeric", "float", "real", "double", "money",
}

func isNumericType(dataType string) bool {
	lower := strings.ToLower(strings.TrimSpace(dataType))
	for _, prefix := range numericPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}
