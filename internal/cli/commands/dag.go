package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/lakeforge-labs/cascade/internal/dag"
)

// NewDAGCommand creates the dag command.
func NewDAGCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "dag",
		Short: "Show the artifact graph grouped by cascade depth",
		Long: `Display the artifact graph as levels: level 0 holds artifacts with no
upstream references, each following level the artifacts fed by the one
above. Broken upstream references and cycles are reported.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := openEngine()
			if err != nil {
				return err
			}
			defer e.Close()

			artifacts, err := e.Store().ListArtifacts()
			if err != nil {
				return err
			}

			graph, warnings := dag.Build(artifacts)
			out := cmd.OutOrStdout()
			for _, w := range warnings {
				_, _ = fmt.Fprintf(out, "warning: %s\n", w)
			}

			levels, err := graph.Levels()
			if err != nil {
				return err
			}

			renderLevels(out, graph, levels)
			return nil
		},
	}
}

func renderLevels(w io.Writer, graph *dag.Graph, levels [][]string) {
	for i, level := range levels {
		_, _ = fmt.Fprintf(w, "Level %d:\n", i)
		for _, id := range level {
			node, _ := graph.Node(id)
			upstream := ""
			if parents := graph.Parents(id); len(parents) > 0 {
				upstream = fmt.Sprintf("  <- %v (%s)", parents, node.Artifact.Relation)
			}
			_, _ = fmt.Fprintf(w, "  %s%s\n", id, upstream)
		}
	}
	_, _ = fmt.Fprintf(w, "(%d artifacts, %d references)\n", graph.NodeCount(), graph.EdgeCount())
}
