//go:build integration

package integration

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aqasim81/supamigrate/internal/database"
	"github.com/aqasim81/supamigrate/internal/runner"
)

func migrationFiles() map[string]string {
	return map[string]string{
		"1_users.sql":  "CREATE TABLE users (id SERIAL PRIMARY KEY, email TEXT NOT NULL);",
		"2_posts.sql":  "CREATE TABLE posts (id SERIAL PRIMARY KEY, user_id INT REFERENCES users(id));",
		"10_index.sql": "CREATE INDEX idx_posts_user ON posts(user_id);",
		"README.sql":   "this is not SQL",
		"notes.md":     "# notes",
	}
}

func tableExists(t *testing.T, b *database.Backend, name string) bool {
	t.Helper()

	err := b.ExecSQL(context.Background(), "SELECT 1 FROM "+name+" LIMIT 0")

	return err == nil
}

func TestRunner_appliesAllThenNothing(t *testing.T) {
	t.Parallel()

	pool := SetupPostgres(t)
	InstallInfrastructure(t, pool)

	b := database.NewBackend(pool)
	dir := WriteMigrations(t, migrationFiles())
	ctx := context.Background()

	res, err := runner.New(b, dir).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Executed)
	assert.True(t, tableExists(t, b, "posts"))

	applied, err := b.ListApplied(ctx)
	require.NoError(t, err)
	require.Len(t, applied, 3)

	res, err = runner.New(b, dir).Run(ctx)
	require.NoError(t, err)
	assert.Zero(t, res.Executed)
	assert.Empty(t, res.Plan.Pending)
}

func TestRunner_partialFailure_earlierMigrationsRecorded(t *testing.T) {
	t.Parallel()

	pool := SetupPostgres(t)
	InstallInfrastructure(t, pool)

	b := database.NewBackend(pool)
	dir := WriteMigrations(t, map[string]string{
		"1_a.sql": "CREATE TABLE a (id INT);",
		"2_b.sql": "CREATE TABLE b (id INT REFERENCES missing(id));",
		"3_c.sql": "CREATE TABLE c (id INT);",
	})
	ctx := context.Background()

	_, err := runner.New(b, dir).Run(ctx)
	require.ErrorIs(t, err, runner.ErrExecutionFailed)

	applied, err := b.ListApplied(ctx)
	require.NoError(t, err)
	require.Len(t, applied, 1)
	assert.Equal(t, "1_a.sql", applied[0].MigrationName)
	assert.False(t, tableExists(t, b, "c"))
}

func TestRunner_modifiedMigrationIsNotRerun(t *testing.T) {
	t.Parallel()

	pool := SetupPostgres(t)
	InstallInfrastructure(t, pool)

	b := database.NewBackend(pool)
	files := map[string]string{"1_a.sql": "CREATE TABLE a (id INT);"}
	ctx := context.Background()

	_, err := runner.New(b, WriteMigrations(t, files)).Run(ctx)
	require.NoError(t, err)

	files["1_a.sql"] = "CREATE TABLE a (id INT, name TEXT);"

	plan, err := runner.New(b, WriteMigrations(t, files)).Status(ctx)
	require.NoError(t, err)
	assert.Empty(t, plan.Pending)
	require.Len(t, plan.Drifted, 1)
	assert.Equal(t, "1_a.sql", plan.Drifted[0].Name)
}

func TestRunner_setupDuringConfirmation_proceeds(t *testing.T) {
	t.Parallel()

	pool := SetupPostgres(t)
	b := database.NewBackend(pool)
	dir := WriteMigrations(t, map[string]string{"1_a.sql": "CREATE TABLE a (id INT);"})

	confirm := runner.ConfirmFunc(func(_ context.Context) error {
		InstallInfrastructure(t, pool)
		return nil
	})

	res, err := runner.New(b, dir, runner.WithConfirmer(confirm)).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Executed)
}

func TestRunner_setupNeverRun_fails(t *testing.T) {
	t.Parallel()

	b := database.NewBackend(SetupPostgres(t))
	dir := WriteMigrations(t, map[string]string{"1_a.sql": "CREATE TABLE a (id INT);"})

	_, err := runner.New(b, dir).Run(context.Background())
	require.ErrorIs(t, err, runner.ErrInfrastructureIncomplete)
}

func TestRunner_advisoryLockHeldElsewhere_refusesToRun(t *testing.T) {
	t.Parallel()

	pool := SetupPostgres(t)
	InstallInfrastructure(t, pool)

	b := database.NewBackend(pool)
	ctx := context.Background()

	held, err := b.AcquireLock(ctx)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = held.Release(context.Background())
	})

	locker := func(ctx context.Context) (runner.Releaser, error) {
		h, err := b.AcquireLock(ctx)
		if err != nil {
			return nil, err
		}

		return h, nil
	}

	dir := WriteMigrations(t, map[string]string{"1_a.sql": "CREATE TABLE a (id INT);"})

	_, err = runner.New(b, dir, runner.WithLocker(locker)).Run(ctx)
	require.ErrorIs(t, err, database.ErrLockNotAcquired)
	assert.False(t, tableExists(t, b, "a"))
}
