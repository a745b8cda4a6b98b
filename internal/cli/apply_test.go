package cli

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aqasim81/supamigrate/internal/config"
	"github.com/aqasim81/supamigrate/internal/console"
	"github.com/aqasim81/supamigrate/internal/runner"
)

// stubAPI answers just enough of PostgREST for a run over an empty ledger.
type stubAPI struct {
	mu       sync.Mutex
	rpcCalls int
	inserts  int
	missing  bool
}

func (s *stubAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case s.missing && strings.HasSuffix(r.URL.Path, "/schema_migrations"):
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"code":"42P01","message":"relation \"schema_migrations\" does not exist"}`))
	case r.Method == http.MethodGet:
		_, _ = w.Write([]byte(`[]`))
	case strings.HasSuffix(r.URL.Path, "/rpc/exec_migration_sql"):
		s.rpcCalls++
		w.WriteHeader(http.StatusNoContent)
	default:
		s.inserts++
		w.WriteHeader(http.StatusCreated)
	}
}

func (s *stubAPI) counts() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.rpcCalls, s.inserts
}

func newApplyCmd(t *testing.T, args ...string) (*cobra.Command, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()

	cmd := &cobra.Command{}
	cmd.Flags().Bool("dry-run", false, "")
	cmd.Flags().Bool("yes", false, "")
	cmd.Flags().Bool("check-syntax", false, "")
	cmd.Flags().Bool("advisory-lock", false, "")
	cmd.Flags().Duration("timeout", 0, "")
	require.NoError(t, cmd.Flags().Parse(args))

	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(""))
	cmd.SetContext(context.Background())

	return cmd, &out, &errOut
}

func migrationsDir(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "2_users.sql"), []byte("CREATE TABLE users (id INT);"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "10_posts.sql"), []byte("CREATE TABLE posts (id INT);"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.sql"), []byte("-- docs"), 0o644))

	return dir
}

// Tests below write to the global AppConfig and must not be parallel.

func TestRunApply_missingEnv_returnsError(t *testing.T) { //nolint:paralleltest // writes global AppConfig
	AppConfig = &config.Config{MigrationsDir: t.TempDir()}

	cmd, _, _ := newApplyCmd(t)

	err := runApply(cmd, nil)

	require.ErrorIs(t, err, config.ErrMissingEnv)
}

func TestRunApply_lockWithoutDatabaseURL_returnsError(t *testing.T) { //nolint:paralleltest // writes global AppConfig
	AppConfig = &config.Config{
		SupabaseURL:    "https://proj.supabase.co",
		ServiceRoleKey: "key",
		MigrationsDir:  t.TempDir(),
	}

	cmd, _, _ := newApplyCmd(t, "--advisory-lock")

	require.ErrorIs(t, runApply(cmd, nil), errLockNeedsDatabaseURL)
}

func TestRunApply_appliesPendingOverREST(t *testing.T) { //nolint:paralleltest // writes global AppConfig
	api := &stubAPI{}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	AppConfig = &config.Config{
		SupabaseURL:    srv.URL,
		ServiceRoleKey: "key",
		MigrationsDir:  migrationsDir(t),
	}

	cmd, out, _ := newApplyCmd(t, "--timeout", "5s")

	require.NoError(t, runApply(cmd, nil))

	rpc, inserts := api.counts()
	assert.Equal(t, 3, rpc) // probe plus two migrations
	assert.Equal(t, 2, inserts)
	assert.Contains(t, out.String(), "Found: 2 migration files")
	assert.Contains(t, out.String(), "Executed 2/2 migrations")
	assert.Less(t, strings.Index(out.String(), "2_users.sql"), strings.Index(out.String(), "10_posts.sql"))
	assert.Equal(t, "5s", AppConfig.RequestTimeout.String())
}

func TestRunApply_dryRun_executesNothing(t *testing.T) { //nolint:paralleltest // writes global AppConfig
	api := &stubAPI{}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	AppConfig = &config.Config{
		SupabaseURL:    srv.URL,
		ServiceRoleKey: "key",
		MigrationsDir:  migrationsDir(t),
	}

	cmd, out, _ := newApplyCmd(t, "--dry-run")

	require.NoError(t, runApply(cmd, nil))

	rpc, inserts := api.counts()
	assert.Equal(t, 1, rpc)
	assert.Zero(t, inserts)
	assert.Contains(t, out.String(), "Dry run")
}

func TestRunApply_infrastructureMissingInCI_failsAfterRecheck(t *testing.T) { //nolint:paralleltest // writes global AppConfig
	srv := httptest.NewServer(&stubAPI{missing: true})
	t.Cleanup(srv.Close)

	AppConfig = &config.Config{
		SupabaseURL:    srv.URL,
		ServiceRoleKey: "key",
		MigrationsDir:  migrationsDir(t),
		Automated:      true,
	}

	cmd, out, _ := newApplyCmd(t)

	err := runApply(cmd, nil)

	require.ErrorIs(t, err, runner.ErrInfrastructureIncomplete)
	assert.Contains(t, out.String(), "CREATE TABLE IF NOT EXISTS schema_migrations")
	assert.Contains(t, out.String(), "Automated mode detected")
}

func TestRunStatus_listsPending(t *testing.T) { //nolint:paralleltest // writes global AppConfig
	api := &stubAPI{}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	AppConfig = &config.Config{
		SupabaseURL:    srv.URL,
		ServiceRoleKey: "key",
		MigrationsDir:  migrationsDir(t),
	}

	cmd, out, _ := newApplyCmd(t)

	require.NoError(t, runStatus(cmd, nil))

	_, inserts := api.counts()
	assert.Zero(t, inserts)
	assert.Contains(t, out.String(), "Pending: 2")
}

func TestNewConfirmer(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		automated bool
		yes       bool
		wantOut   string
	}{
		{name: "automated", automated: true, wantOut: "Automated mode detected"},
		{name: "yes flag", yes: true, wantOut: "Automated mode detected"},
		{name: "interactive", wantOut: "press ENTER to continue"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var out bytes.Buffer
			cfg := &config.Config{Automated: tt.automated}
			c := newConfirmer(cfg, tt.yes, console.NewPrinter(&out, &out), strings.NewReader("\n"))

			require.NoError(t, c.Confirm(context.Background()))
			assert.Contains(t, out.String(), tt.wantOut)
		})
	}
}

func TestSetupSQLCommand_printsDDL(t *testing.T) { //nolint:paralleltest // shares rootCmd
	var out bytes.Buffer
	setupSQLCmd.SetOut(&out)
	t.Cleanup(func() { setupSQLCmd.SetOut(nil) })

	require.NoError(t, setupSQLCmd.RunE(setupSQLCmd, nil))
	assert.Contains(t, out.String(), "exec_migration_sql")
}
