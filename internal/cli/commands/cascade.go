package commands

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/lakeforge-labs/cascade/pkg/core"
)

// NewCascadeCommand creates the cascade command.
func NewCascadeCommand() *cobra.Command {
	var artifactID string

	cmd := &cobra.Command{
		Use:   "cascade",
		Short: "Cascade column metadata through the artifact graph",
		Long: `Derive downstream column sets from upstream artifacts.

Every artifact with upstream references is processed in store order;
columns the target already holds are skipped, technical fields are
injected once per artifact. Use --artifact to cascade a single artifact.`,
		Example: `  # Cascade every artifact
  cascade cascade

  # Cascade one artifact
  cascade cascade --artifact fact_sales_gold`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := openEngine()
			if err != nil {
				return err
			}
			defer e.Close()

			var report *core.CascadeReport
			if artifactID != "" {
				report, err = e.CascadeOne(cmd.Context(), artifactID)
			} else {
				report, err = e.CascadeAll(cmd.Context())
			}
			if err != nil {
				return err
			}

			renderReport(cmd.OutOrStdout(), report)
			if report.Failed > 0 {
				return fmt.Errorf("%d artifact(s) failed", report.Failed)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&artifactID, "artifact", "a", "", "Cascade a single artifact by id")
	return cmd
}

func renderReport(w io.Writer, report *core.CascadeReport) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Run", "Processed", "Skipped", "Failed"})
	t.AppendRow(table.Row{report.RunID, report.Processed, report.Skipped, report.Failed})
	t.Render()

	for _, warning := range report.Warnings {
		_, _ = fmt.Fprintf(w, "warning: %s\n", warning)
	}
	for _, errMsg := range report.Errors {
		_, _ = fmt.Fprintf(w, "error: %s\n", errMsg)
	}
}
