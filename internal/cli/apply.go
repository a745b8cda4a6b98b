package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/aqasim81/supamigrate/internal/backend/rest"
	"github.com/aqasim81/supamigrate/internal/config"
	"github.com/aqasim81/supamigrate/internal/console"
	"github.com/aqasim81/supamigrate/internal/database"
	"github.com/aqasim81/supamigrate/internal/runner"
)

// errLockNeedsDatabaseURL is returned when --advisory-lock is used with the REST backend.
var errLockNeedsDatabaseURL = errors.New( //nolint:gochecknoglobals // sentinel error
	"--advisory-lock requires a direct connection (set --database-url or SUPAMIGRATE_DATABASE_URL)",
)

var applyCmd = &cobra.Command{ //nolint:gochecknoglobals // standard Cobra pattern
	Use:   "apply",
	Short: "Apply pending migrations",
	Long: `Apply every migration file that is not yet recorded in schema_migrations.
If the ledger table or exec_migration_sql function is missing, the setup SQL is
printed and the run waits for ENTER (skipped when CI or NETLIFY is set).`,
	RunE: runApply,
}

func init() { //nolint:gochecknoinits // standard Cobra pattern for flag registration
	applyCmd.Flags().Bool("dry-run", false, "show what would be applied without executing")
	applyCmd.Flags().Bool("yes", false, "do not wait for confirmation after printing setup SQL")
	applyCmd.Flags().Bool("check-syntax", false, "parse every pending migration before executing any")
	applyCmd.Flags().Bool("advisory-lock", false, "hold a Postgres advisory lock for the run (direct connection only)")
	applyCmd.Flags().Duration("timeout", 0, "override the per-request timeout (e.g., 30s, 2m)")
	rootCmd.AddCommand(applyCmd)
}

type applyOpts struct {
	dryRun      bool
	yes         bool
	checkSyntax bool
	lock        bool
}

func runApply(cmd *cobra.Command, _ []string) error {
	cfg := AppConfig

	if cmd.Flags().Changed("timeout") {
		cfg.RequestTimeout, _ = cmd.Flags().GetDuration("timeout")
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	var opts applyOpts
	opts.dryRun, _ = cmd.Flags().GetBool("dry-run")
	opts.yes, _ = cmd.Flags().GetBool("yes")
	opts.checkSyntax, _ = cmd.Flags().GetBool("check-syntax")
	opts.lock, _ = cmd.Flags().GetBool("advisory-lock")

	if opts.lock && !cfg.UseDirectConnection() {
		return errLockNeedsDatabaseURL
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	printer := console.NewPrinter(cmd.OutOrStdout(), cmd.ErrOrStderr())
	printer.Banner()

	conn, err := openBackend(ctx, cfg, appLogger, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer conn.close()

	runnerOpts := []runner.Option{
		runner.WithReporter(printer),
		runner.WithLogger(appLogger),
		runner.WithConfirmer(newConfirmer(cfg, opts.yes, printer, cmd.InOrStdin())),
		runner.WithDryRun(opts.dryRun),
		runner.WithSyntaxCheck(opts.checkSyntax),
	}

	if opts.lock {
		runnerOpts = append(runnerOpts, runner.WithLocker(conn.lock))
	}

	appLogger.DebugContext(ctx, "starting run", "migrations_dir", cfg.MigrationsDir, "dry_run", opts.dryRun)

	_, err = runner.New(conn.backend, cfg.MigrationsDir, runnerOpts...).Run(ctx)

	return err
}

// connection is an opened runner.Backend plus whatever it needs torn down.
type connection struct {
	backend runner.Backend
	lock    runner.LockFunc
	close   func()
}

// openBackend selects the direct Postgres backend when a database URL is
// configured and the REST API otherwise.
func openBackend(ctx context.Context, cfg *config.Config, logger *slog.Logger, out io.Writer) (*connection, error) {
	if cfg.UseDirectConnection() {
		fmt.Fprintf(out, "Connecting to %s\n\n", config.RedactURL(cfg.DatabaseURL))

		pool, err := database.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("connecting to database: %w", err)
		}

		b := database.NewBackend(pool)

		return &connection{
			backend: b,
			lock: func(ctx context.Context) (runner.Releaser, error) {
				h, err := b.AcquireLock(ctx)
				if err != nil {
					return nil, err
				}

				return h, nil
			},
			close: pool.Close,
		}, nil
	}

	logger.DebugContext(ctx, "using REST backend",
		"url", config.RedactURL(cfg.SupabaseURL),
		"key", config.RedactKey(cfg.ServiceRoleKey),
		"timeout", cfg.RequestTimeout,
	)

	client := rest.New(cfg.SupabaseURL, cfg.ServiceRoleKey,
		rest.WithTimeout(requestTimeout(cfg)),
		rest.WithLogger(logger),
		rest.WithClientInfo(clientInfo()),
	)

	return &connection{backend: client, close: func() {}}, nil
}

// newConfirmer waits on in for ENTER unless the run is automated.
func newConfirmer(cfg *config.Config, yes bool, p *console.Printer, in io.Reader) runner.Confirmer {
	if cfg.Automated || yes {
		return runner.AutoConfirmer{Notify: p.AutomatedSetup}
	}

	prompt := runner.PromptConfirmer{In: in}

	return runner.ConfirmFunc(func(ctx context.Context) error {
		p.AwaitingConfirmation()
		return prompt.Confirm(ctx)
	})
}

func requestTimeout(cfg *config.Config) time.Duration {
	if cfg.RequestTimeout <= 0 {
		return config.DefaultRequestTimeout
	}

	return cfg.RequestTimeout
}

func clientInfo() string {
	if runID == "" {
		return "supamigrate/" + version
	}

	return fmt.Sprintf("supamigrate/%s (run %s)", version, runID)
}
