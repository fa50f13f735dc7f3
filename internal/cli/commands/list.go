package commands

import (
	"fmt"
	"io"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/lakeforge-labs/cascade/pkg/core"
)

// NewListCommand creates the list command.
func NewListCommand() *cobra.Command {
	var artifactID string

	cmd := &cobra.Command{
		Use:       "list {stages|artifacts|columns}",
		Short:     "List stages, artifacts or columns in the store",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"stages", "artifacts", "columns"},
		Example: `  # List all artifacts
  cascade list artifacts

  # List the columns of one artifact in rendering order
  cascade list columns --artifact dim_customer`,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEngine()
			if err != nil {
				return err
			}
			defer e.Close()

			out := cmd.OutOrStdout()
			switch args[0] {
			case "stages":
				return listStages(out, e.Store())
			case "artifacts":
				return listArtifacts(out, e.Store())
			case "columns":
				return listColumns(out, e.Store(), artifactID)
			default:
				return fmt.Errorf("unknown object type %q (expected stages, artifacts or columns)", args[0])
			}
		},
	}

	cmd.Flags().StringVarP(&artifactID, "artifact", "a", "", "Restrict columns to one artifact")
	return cmd
}

func listStages(w io.Writer, store core.Store) error {
	stages, err := store.ListStages()
	if err != nil {
		return err
	}

	t := newTable(w, table.Row{"ID", "Name", "Platform", "Side"})
	for _, stage := range stages {
		t.AppendRow(table.Row{stage.ID, stage.Name, stage.Platform, string(stage.Side)})
	}
	t.Render()
	_, _ = fmt.Fprintf(w, "(%d stages)\n", len(stages))
	return nil
}

func listArtifacts(w io.Writer, store core.Store) error {
	artifacts, err := store.ListArtifacts()
	if err != nil {
		return err
	}

	t := newTable(w, table.Row{"ID", "Name", "Stage", "Type", "Upstream", "Relation"})
	for _, artifact := range artifacts {
		t.AppendRow(table.Row{
			artifact.ID, artifact.Name, artifact.StageID,
			artifact.Type, artifact.Upstream, string(artifact.Relation),
		})
	}
	t.Render()
	_, _ = fmt.Fprintf(w, "(%d artifacts)\n", len(artifacts))
	return nil
}

func listColumns(w io.Writer, store core.Store, artifactID string) error {
	var columns []*core.Column
	var err error
	if artifactID != "" {
		columns, err = store.GetArtifactColumns(artifactID)
	} else {
		columns, err = store.ListColumns()
	}
	if err != nil {
		return err
	}

	// Rendering order within each artifact; artifacts grouped together.
	sort.SliceStable(columns, func(i, j int) bool {
		return columns[i].ArtifactID < columns[j].ArtifactID
	})
	for start := 0; start < len(columns); {
		end := start
		for end < len(columns) && columns[end].ArtifactID == columns[start].ArtifactID {
			end++
		}
		core.SortColumns(columns[start:end])
		start = end
	}

	t := newTable(w, table.Row{"ID", "Artifact", "Name", "Type", "Order", "Group"})
	for _, c := range columns {
		t.AppendRow(table.Row{c.ID, c.ArtifactID, c.ResolvedName(), c.DataType, c.Order, string(c.Group)})
	}
	t.Render()
	_, _ = fmt.Fprintf(w, "(%d columns)\n", len(columns))
	return nil
}

func newTable(w io.Writer, header table.Row) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(header)
	return t
}
