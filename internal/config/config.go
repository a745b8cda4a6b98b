package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Default values for configuration fields.
const (
	DefaultConfigFile     = "supamigrate.yml"
	DefaultMigrationsDir  = "./supabase"
	DefaultRequestTimeout = 60 * time.Second
	DefaultLogLevel       = "info"
)

// Environment variable names read by MergeEnv.
const (
	EnvSupabaseURL       = "SUPABASE_URL"
	EnvPublicSupabaseURL = "NEXT_PUBLIC_SUPABASE_URL"
	EnvServiceRoleKey    = "SUPABASE_SERVICE_ROLE_KEY"
	EnvDatabaseURL       = "SUPAMIGRATE_DATABASE_URL"
	EnvMigrationsDir     = "SUPAMIGRATE_MIGRATIONS_DIR"
	EnvTimeout           = "SUPAMIGRATE_TIMEOUT"
	EnvLogLevel          = "SUPAMIGRATE_LOG_LEVEL"
)

// automationMarkers are environment variables whose presence means nobody is
// around to answer the setup prompt.
var automationMarkers = []string{"CI", "NETLIFY"} //nolint:gochecknoglobals // fixed list

// Config holds the application configuration loaded from file, environment, and flags.
type Config struct {
	SupabaseURL    string
	ServiceRoleKey string
	DatabaseURL    string
	MigrationsDir  string
	RequestTimeout time.Duration
	LogLevel       string
	Automated      bool
}

// yamlConfig is the raw YAML file representation with string durations.
type yamlConfig struct {
	SupabaseURL    string `yaml:"supabase_url"`
	ServiceRoleKey string `yaml:"service_role_key"`
	DatabaseURL    string `yaml:"database_url"`
	MigrationsDir  string `yaml:"migrations_dir"`
	RequestTimeout string `yaml:"request_timeout"`
	LogLevel       string `yaml:"log_level"`
	Automated      bool   `yaml:"automated"`
}

// New returns a Config populated with default values.
func New() *Config {
	return &Config{
		MigrationsDir:  DefaultMigrationsDir,
		RequestTimeout: DefaultRequestTimeout,
		LogLevel:       DefaultLogLevel,
	}
}

// DefaultMigrationsDirFor resolves the migrations directory relative to the
// tool's own location: a binary installed as <root>/scripts/supamigrate reads
// <root>/supabase.
func DefaultMigrationsDirFor(executable string) string {
	if executable == "" {
		return DefaultMigrationsDir
	}

	return filepath.Join(filepath.Dir(executable), "..", "supabase")
}

// Load reads a YAML configuration file and returns a Config.
// If allowMissing is true and the file does not exist, defaults are returned.
func Load(path string, allowMissing bool) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && allowMissing {
			return New(), nil
		}

		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	var raw yamlConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	return fromYAML(&raw)
}

// fromYAML converts the raw YAML representation to a Config with defaults applied.
func fromYAML(raw *yamlConfig) (*Config, error) {
	cfg := New()

	cfg.SupabaseURL = raw.SupabaseURL
	cfg.ServiceRoleKey = raw.ServiceRoleKey
	cfg.DatabaseURL = raw.DatabaseURL
	cfg.Automated = raw.Automated

	if raw.MigrationsDir != "" {
		cfg.MigrationsDir = raw.MigrationsDir
	}

	if raw.RequestTimeout != "" {
		d, err := time.ParseDuration(raw.RequestTimeout)
		if err != nil {
			return nil, fmt.Errorf("parsing request_timeout %q: %w", raw.RequestTimeout, err)
		}

		cfg.RequestTimeout = d
	}

	if raw.LogLevel != "" {
		cfg.LogLevel = raw.LogLevel
	}

	return cfg, nil
}

// MergeEnv overrides config fields from the environment. The first non-empty
// of SUPABASE_URL and NEXT_PUBLIC_SUPABASE_URL wins. An unparsable
// SUPAMIGRATE_TIMEOUT is an error, like a bad request_timeout in the file.
func MergeEnv(cfg *Config) error {
	if v := firstNonEmpty(os.Getenv(EnvSupabaseURL), os.Getenv(EnvPublicSupabaseURL)); v != "" {
		cfg.SupabaseURL = v
	}

	if v := os.Getenv(EnvServiceRoleKey); v != "" {
		cfg.ServiceRoleKey = v
	}

	if v := os.Getenv(EnvDatabaseURL); v != "" {
		cfg.DatabaseURL = v
	}

	if v := os.Getenv(EnvMigrationsDir); v != "" {
		cfg.MigrationsDir = v
	}

	if v := os.Getenv(EnvTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parsing %s %q: %w", EnvTimeout, v, err)
		}

		cfg.RequestTimeout = d
	}

	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.LogLevel = v
	}

	for _, marker := range automationMarkers {
		if os.Getenv(marker) != "" {
			cfg.Automated = true
		}
	}

	return nil
}

// UseDirectConnection reports whether migrations go straight to Postgres
// instead of through the REST API.
func (c *Config) UseDirectConnection() bool {
	return c.DatabaseURL != ""
}

// Validate checks that the selected backend has the credentials it needs.
func (c *Config) Validate() error {
	if c.UseDirectConnection() {
		return nil
	}

	if c.SupabaseURL == "" || c.ServiceRoleKey == "" {
		return fmt.Errorf("%w: required %s (or %s), %s",
			ErrMissingEnv, EnvSupabaseURL, EnvPublicSupabaseURL, EnvServiceRoleKey)
	}

	if err := checkHTTPURL(c.SupabaseURL); err != nil {
		return err
	}

	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}

	return ""
}
