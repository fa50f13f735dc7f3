package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/lakeforge-labs/cascade/internal/cli/config"
	"github.com/lakeforge-labs/cascade/pkg/core"
)

// defaultStages is the medallion stage ladder registered by init.
var defaultStages = []*core.Stage{
	{ID: "s0", Name: "landing", Platform: "sqlserver", Side: core.SideSource},
	{ID: "s1", Name: "bronze", Platform: "databricks", Side: core.SideSource},
	{ID: "s2", Name: "silver", Platform: "databricks", Side: core.SideBusiness},
	{ID: "s3", Name: "gold", Platform: "databricks", Side: core.SideBusiness},
	{ID: "s4", Name: "mart", Platform: "databricks", Side: core.SideBusiness},
	{ID: "s5", Name: "semantic", Platform: "powerbi", Side: core.SideBusiness},
	{ID: "s6", Name: "report", Platform: "powerbi", Side: core.SideBusiness},
}

// defaultTypeMappings seeds the cross-platform type translations a fresh
// workbench usually needs.
var defaultTypeMappings = []*core.TypeMapping{
	{SourcePlatform: "sqlserver", SourceType: "nvarchar(100)", TargetPlatform: "databricks", TargetType: "STRING"},
	{SourcePlatform: "sqlserver", SourceType: "nvarchar(50)", TargetPlatform: "databricks", TargetType: "STRING"},
	{SourcePlatform: "sqlserver", SourceType: "datetime2", TargetPlatform: "databricks", TargetType: "TIMESTAMP"},
	{SourcePlatform: "sqlserver", SourceType: "int", TargetPlatform: "databricks", TargetType: "INT"},
	{SourcePlatform: "sqlserver", SourceType: "bigint", TargetPlatform: "databricks", TargetType: "BIGINT"},
	{SourcePlatform: "sqlserver", SourceType: "bit", TargetPlatform: "databricks", TargetType: "BOOLEAN"},
	{SourcePlatform: "sqlserver", SourceType: "decimal(18,2)", TargetPlatform: "databricks", TargetType: "DECIMAL(18,2)"},
	{SourcePlatform: "databricks", SourceType: "STRING", TargetPlatform: "powerbi", TargetType: "Text"},
	{SourcePlatform: "databricks", SourceType: "BIGINT", TargetPlatform: "powerbi", TargetType: "Whole Number"},
	{SourcePlatform: "databricks", SourceType: "TIMESTAMP", TargetPlatform: "powerbi", TargetType: "DateTime"},
	{SourcePlatform: "databricks", SourceType: "DECIMAL(18,2)", TargetPlatform: "powerbi", TargetType: "Decimal"},
}

// NewInitCommand creates the init command.
func NewInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new cascade workbench",
		Long: `Initialize a new cascade workbench with default configuration.

This creates:
  - cascade.yaml configuration file
  - the workbench store with the medallion stage ladder registered
  - starter data type mappings between the default platforms`,
		Example: `  # Initialize in the current directory
  cascade init

  # Initialize in a new directory
  cascade init my-model

  # Overwrite an existing configuration
  cascade init --force`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			return runInit(cmd, dir, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing configuration")
	return cmd
}

func runInit(cmd *cobra.Command, dir string, force bool) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	cfgPath := filepath.Join(dir, "cascade.yaml")
	if _, err := os.Stat(cfgPath); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", cfgPath)
	}

	cfgBytes, err := yaml.Marshal(&config.Config{
		StorePath:   config.DefaultStoreFile,
		LookupLimit: config.DefaultLookupLimit,
	})
	if err != nil {
		return fmt.Errorf("failed to render config: %w", err)
	}
	if err := os.WriteFile(cfgPath, cfgBytes, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", cfgPath, err)
	}

	storePath := filepath.Join(dir, config.DefaultStoreFile)
	if err := seedStore(storePath); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Created %s\n", cfgPath)
	_, _ = fmt.Fprintf(out, "Created workbench store %s\n", storePath)
	_, _ = fmt.Fprintf(out, "Registered %d stages and %d type mappings\n",
		len(defaultStages), len(defaultTypeMappings))
	return nil
}

// seedStore creates the store and registers the default stage ladder and
// type mappings. Re-running against an existing store is harmless: both
// writes are upserts.
func seedStore(storePath string) error {
	if err := os.MkdirAll(filepath.Dir(storePath), 0755); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}

	store := newStore()
	if err := store.Open(storePath); err != nil {
		return err
	}
	defer store.Close()

	if err := store.Migrate(); err != nil {
		return err
	}

	for _, stage := range defaultStages {
		if err := store.SaveStage(stage); err != nil {
			return err
		}
	}
	for _, mapping := range defaultTypeMappings {
		if err := store.SaveTypeMapping(mapping); err != nil {
			return err
		}
	}
	return nil
}
