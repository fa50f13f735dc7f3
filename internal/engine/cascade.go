package engine

import (
	"context"
	"fmt"

	"github.com/lakeforge-labs/cascade/internal/dag"
	"github.com/lakeforge-labs/cascade/internal/relation"
	"github.com/lakeforge-labs/cascade/internal/state"
	"github.com/lakeforge-labs/cascade/pkg/core"
)

// CascadeAll cascades every artifact that declares upstream references, in
// store order. Artifacts without upstream references are skipped. A failing
// artifact is recorded and processing continues with the next one.
func (e *Engine) CascadeAll(ctx context.Context) (*core.CascadeReport, error) {
	artifacts, err := e.store.ListArtifacts()
	if err != nil {
		return nil, fmt.Errorf("failed to list artifacts: %w", err)
	}
	return e.run(ctx, artifacts, true)
}

// CascadeOne cascades a single artifact by id.
func (e *Engine) CascadeOne(ctx context.Context, artifactID string) (*core.CascadeReport, error) {
	artifact, err := e.store.GetArtifact(artifactID)
	if err != nil {
		return nil, fmt.Errorf("failed to get artifact: %w", err)
	}
	if artifact == nil {
		return nil, fmt.Errorf("artifact not found: %s", artifactID)
	}
	return e.run(ctx, []*core.Artifact{artifact}, false)
}

// run executes one tracked cascade over the given artifacts.
func (e *Engine) run(ctx context.Context, artifacts []*core.Artifact, checkGraph bool) (*core.CascadeReport, error) {
	runRecord, err := e.store.CreateCascadeRun()
	if err != nil {
		return nil, fmt.Errorf("failed to create cascade run: %w", err)
	}
	report := &core.CascadeReport{RunID: runRecord.ID}

	e.logger.Info("cascade run started", "run_id", runRecord.ID, "artifacts", len(artifacts))

	if checkGraph {
		graph, warnings := dag.Build(artifacts)
		for _, w := range warnings {
			report.AddWarning(w)
		}
		if hasCycle, path := graph.HasCycle(); hasCycle {
			report.AddWarning(fmt.Sprintf("artifact graph contains a cycle: %v", path))
			e.logger.Warn("artifact graph contains a cycle", "path", path)
		}
	}

	alloc, err := state.NewAllocator(e.store)
	if err != nil {
		e.completeRun(runRecord.ID, report, err)
		return nil, err
	}
	types, err := e.loadTypeMap()
	if err != nil {
		e.completeRun(runRecord.ID, report, err)
		return nil, err
	}

	for _, artifact := range artifacts {
		if err := ctx.Err(); err != nil {
			e.completeRun(runRecord.ID, report, err)
			return report, err
		}

		if len(artifact.UpstreamIDs()) == 0 {
			report.Skipped++
			continue
		}

		added, warnings, err := e.cascadeArtifact(artifact, alloc, types)
		for _, w := range warnings {
			report.AddWarning(fmt.Sprintf("%s: %s", artifact.ID, w))
		}
		if err != nil {
			report.Failed++
			report.Errors = append(report.Errors, fmt.Sprintf("%s: %v", artifact.ID, err))
			e.logger.Error("cascade failed for artifact", "artifact", artifact.ID, "error", err)
			continue
		}

		report.Processed++
		e.logger.Debug("cascaded artifact", "artifact", artifact.ID, "columns_added", added)
	}

	e.completeRun(runRecord.ID, report, nil)
	e.logger.Info("cascade run finished", "run_id", runRecord.ID,
		"processed", report.Processed, "skipped", report.Skipped, "failed", report.Failed)
	return report, nil
}

// completeRun finalizes the run record. abort is non-nil when the run was cut
// short before processing every artifact.
func (e *Engine) completeRun(runID string, report *core.CascadeReport, abort error) {
	status := core.CascadeStatusCompleted
	errMsg := ""
	switch {
	case abort != nil:
		status = core.CascadeStatusFailed
		errMsg = abort.Error()
	case report.Failed > 0:
		status = core.CascadeStatusFailed
		errMsg = report.Errors[0]
	}

	if err := e.store.CompleteCascadeRun(runID, status, report.Processed, report.Skipped, report.Failed, errMsg); err != nil {
		e.logger.Error("failed to finalize cascade run", "run_id", runID, "error", err)
	}
}

// cascadeArtifact merges every upstream artifact's derived candidates into
// the target, skipping names the target already holds, and injects technical
// fields once at the end for main relations.
func (e *Engine) cascadeArtifact(artifact *core.Artifact, alloc *state.Allocator, types *core.TypeMap) (int, []string, error) {
	var warnings []string

	targetStage, err := e.store.GetStage(artifact.StageID)
	if err != nil {
		return 0, warnings, err
	}
	if targetStage == nil {
		warnings = append(warnings, fmt.Sprintf("stage %q not registered", artifact.StageID))
	}

	existing, err := e.store.GetArtifactColumns(artifact.ID)
	if err != nil {
		return 0, warnings, err
	}

	seen := make(map[string]bool, len(existing))
	attrOrder := 100
	for _, c := range existing {
		seen[c.Name] = true
		if c.Group == core.GroupAttribute && c.Order >= attrOrder {
			attrOrder = c.Order + 1
		}
	}

	artifactType := relation.DetectArtifactType(artifact.Name, artifact.Type)

	var newColumns []*core.Column
	var techCtx relation.Context
	techCtxSet := false

	for _, upstreamID := range artifact.UpstreamIDs() {
		upstream, err := e.store.GetArtifact(upstreamID)
		if err != nil {
			return 0, warnings, err
		}
		if upstream == nil {
			warnings = append(warnings, fmt.Sprintf("upstream artifact %q not found: skipped", upstreamID))
			continue
		}

		upstreamStage, err := e.store.GetStage(upstream.StageID)
		if err != nil {
			return 0, warnings, err
		}
		upstreamColumns, err := e.store.GetArtifactColumns(upstreamID)
		if err != nil {
			return 0, warnings, err
		}

		rctx := relation.Context{
			SourceStage:  upstreamStage,
			TargetStage:  targetStage,
			ArtifactType: artifactType,
			Transition:   relation.DetectTransition(upstream.StageID, artifact.StageID),
			Types:        types,
		}
		// Technical fields are injected once per artifact; the first
		// recognized transition decides the layer fields.
		if !techCtxSet || (techCtx.Transition == relation.TransitionUnspecified && rctx.Transition != relation.TransitionUnspecified) {
			techCtx = rctx
			techCtxSet = true
		}

		result := e.processor.Process(artifact.Relation, upstreamColumns, rctx)
		warnings = append(warnings, result.Warnings...)

		for _, candidate := range result.Columns {
			if candidate.Name == "" || seen[candidate.Name] {
				continue
			}
			seen[candidate.Name] = true

			order := candidate.Order + 100
			group := candidate.Group
			if group == "" {
				group = core.GroupUnclassified
			}
			if group == core.GroupAttribute {
				order = attrOrder
				attrOrder++
			}

			newColumns = append(newColumns, e.newColumn(artifact, targetStage, alloc, candidate, order, group))
		}
	}

	if artifact.Relation == core.RelationMain && techCtxSet {
		for _, tech := range relation.TechnicalColumns(techCtx) {
			if seen[tech.Name] {
				continue
			}
			seen[tech.Name] = true
			newColumns = append(newColumns, e.newColumn(artifact, targetStage, alloc, tech, tech.Order, core.GroupTechnical))
		}
	}

	if len(newColumns) == 0 {
		return 0, warnings, nil
	}
	if err := e.store.InsertColumns(newColumns); err != nil {
		return 0, warnings, err
	}
	return len(newColumns), warnings, nil
}

// newColumn materializes one candidate as a persisted column of the target
// artifact.
func (e *Engine) newColumn(artifact *core.Artifact, stage *core.Stage, alloc *state.Allocator, candidate *core.Column, order int, group core.ColumnGroup) *core.Column {
	stageName := ""
	if stage != nil {
		stageName = stage.Name
	}
	return &core.Column{
		ID:                  alloc.Next(),
		StageID:             artifact.StageID,
		StageName:           stageName,
		ArtifactID:          artifact.ID,
		ArtifactName:        artifact.Name,
		Name:                candidate.Name,
		BusinessName:        candidate.BusinessName,
		DataType:            candidate.DataType,
		Order:               order,
		Group:               group,
		Comment:             candidate.Comment,
		SourceColumn:        candidate.SourceColumn,
		LookupFields:        candidate.LookupFields,
		ETLTransformation:   candidate.ETLTransformation,
		AIPrompt:            candidate.AIPrompt,
		ETLAITransformation: candidate.ETLAITransformation,
	}
}

func (e *Engine) loadTypeMap() (*core.TypeMap, error) {
	rows, err := e.store.ListTypeMappings()
	if err != nil {
		return nil, fmt.Errorf("failed to load type mappings: %w", err)
	}
	mappings := make([]core.TypeMapping, 0, len(rows))
	for _, row := range rows {
		mappings = append(mappings, *row)
	}
	return core.NewTypeMap(mappings), nil
}
