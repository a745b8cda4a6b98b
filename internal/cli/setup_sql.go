package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aqasim81/supamigrate/internal/tracker"
)

var setupSQLCmd = &cobra.Command{ //nolint:gochecknoglobals // standard Cobra pattern
	Use:   "setup-sql",
	Short: "Print the SQL that creates the migration infrastructure",
	Long: `Print the DDL for the schema_migrations table and the exec_migration_sql
function. Run it once in the Supabase SQL Editor before the first apply.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		fmt.Fprint(cmd.OutOrStdout(), tracker.SetupSQL)
		return nil
	},
}

func init() { //nolint:gochecknoinits // standard Cobra pattern for flag registration
	rootCmd.AddCommand(setupSQLCmd)
}
