package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/aqasim81/supamigrate/internal/console"
	"github.com/aqasim81/supamigrate/internal/runner"
)

var statusCmd = &cobra.Command{ //nolint:gochecknoglobals // standard Cobra pattern
	Use:   "status",
	Short: "Show migration status",
	Long: `Display how many migrations are recorded, which files are pending and
which recorded files have been modified since they ran. Nothing is executed.`,
	RunE: runStatus,
}

func init() { //nolint:gochecknoinits // standard Cobra pattern for flag registration
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	cfg := AppConfig

	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	conn, err := openBackend(ctx, cfg, appLogger, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer conn.close()

	plan, err := runner.New(conn.backend, cfg.MigrationsDir, runner.WithLogger(appLogger)).Status(ctx)
	if err != nil {
		return err
	}

	console.NewPrinter(cmd.OutOrStdout(), cmd.ErrOrStderr()).Status(plan)

	return nil
}
