package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewReenumerateCommand creates the reenumerate command.
func NewReenumerateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "reenumerate",
		Short: "Renumber all column ids as a dense sequence",
		Long: `Reassign every column id as a dense 1..N sequence ordered by artifact
and declared column order. Useful after heavy editing has left large id
gaps; cascading never requires it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := openEngine()
			if err != nil {
				return err
			}
			defer e.Close()

			renumbered, err := e.Reenumerate()
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Renumbered %d column(s)\n", renumbered)
			return nil
		},
	}
}
