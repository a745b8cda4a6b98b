package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/aqasim81/supamigrate/internal/config"
	"github.com/aqasim81/supamigrate/internal/console"
	"github.com/aqasim81/supamigrate/internal/runner"
)

const version = "0.1.0"

// AppConfig holds the loaded configuration, set during PersistentPreRunE.
var AppConfig *config.Config //nolint:gochecknoglobals // standard Cobra pattern for shared config

// appLogger carries the run id of the current invocation.
var appLogger = slog.Default() //nolint:gochecknoglobals // set alongside AppConfig

// runID identifies one invocation in logs and request headers.
var runID string //nolint:gochecknoglobals // set alongside AppConfig

// rootCmd is the base command for the supamigrate CLI.
var rootCmd = &cobra.Command{ //nolint:gochecknoglobals // standard Cobra pattern
	Use:     "supamigrate",
	Version: version,
	Short:   "Apply SQL migrations to a hosted Supabase database",
	Long: `supamigrate applies the .sql files of a migrations directory, in numeric
prefix order, to a Supabase project through its REST API. Every executed file
is recorded in the schema_migrations table and is never run again.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if err := loadConfig(cmd); err != nil {
			return err
		}

		verbose, _ := cmd.Flags().GetBool("verbose")
		runID = uuid.NewString()
		appLogger = newLogger(cmd.ErrOrStderr(), AppConfig.LogLevel, verbose).With("run_id", runID)

		return nil
	},
}

func init() { //nolint:gochecknoinits // standard Cobra pattern for flag registration
	rootCmd.PersistentFlags().String("config", config.DefaultConfigFile, "path to configuration file")
	rootCmd.PersistentFlags().String("database-url", "", "PostgreSQL connection string (bypasses the REST API)")
	rootCmd.PersistentFlags().String("migrations-dir", "", "path to migration files")
	rootCmd.PersistentFlags().Bool("verbose", false, "enable debug logging")
}

// Execute runs the root command and exits 1 on any error. Called from main.
func Execute(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		report(console.NewPrinter(os.Stdout, os.Stderr), err)
		os.Exit(1)
	}
}

// report prints err unless the run already reported it.
func report(p *console.Printer, err error) {
	switch {
	case errors.Is(err, config.ErrMissingEnv):
		p.MissingEnv(err)
	case errors.Is(err, runner.ErrInfrastructureIncomplete):
		p.SetupIncomplete(err)
	case errors.Is(err, runner.ErrExecutionFailed), errors.Is(err, runner.ErrRecordFailed):
		// already printed as a failed progress event
	default:
		p.Fatal(err)
	}
}

// loadConfig loads configuration with precedence: flag > env > file.
func loadConfig(cmd *cobra.Command) error {
	configPath, _ := cmd.Flags().GetString("config")
	allowMissing := !cmd.Flags().Changed("config")

	cfg, err := config.Load(configPath, allowMissing)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	if err := config.MergeEnv(cfg); err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	mergeFlags(cmd, cfg)
	cfg.MigrationsDir = resolveMigrationsDir(cfg.MigrationsDir)

	AppConfig = cfg

	return nil
}

// mergeFlags overrides config with explicitly-set CLI flags.
func mergeFlags(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("database-url") {
		cfg.DatabaseURL, _ = cmd.Flags().GetString("database-url")
	}

	if cmd.Flags().Changed("migrations-dir") {
		cfg.MigrationsDir, _ = cmd.Flags().GetString("migrations-dir")
	}
}

// resolveMigrationsDir falls back to the supabase directory next to the
// installed binary when the default relative directory does not exist.
func resolveMigrationsDir(dir string) string {
	if dir != config.DefaultMigrationsDir {
		return dir
	}

	if _, err := os.Stat(dir); err == nil {
		return dir
	}

	exe, err := os.Executable()
	if err != nil {
		return dir
	}

	return config.DefaultMigrationsDirFor(exe)
}

func newLogger(w io.Writer, level string, verbose bool) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		lvl = slog.LevelInfo
	}

	if verbose {
		lvl = slog.LevelDebug
	}

	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}
