package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewCleanupCommand creates the cleanup command.
func NewCleanupCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Remove duplicate columns from the store",
		Long: `Remove columns whose (artifact, name) pair appears more than once,
keeping the first occurrence of each. Running cleanup twice removes
nothing on the second pass.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := openEngine()
			if err != nil {
				return err
			}
			defer e.Close()

			removed, err := e.Cleanup()
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Removed %d duplicate column(s)\n", removed)
			return nil
		},
	}
}
