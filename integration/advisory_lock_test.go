//go:build integration

package integration

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aqasim81/supamigrate/internal/database"
)

func TestAdvisoryLock_acquireAndRelease(t *testing.T) {
	t.Parallel()

	pool := SetupPostgres(t)
	ctx := context.Background()

	handle, err := database.NewBackend(pool).AcquireLock(ctx)
	require.NoError(t, err)
	require.NotNil(t, handle)

	require.NoError(t, handle.Release(ctx))
}

func TestAdvisoryLock_secondRunIsRejected(t *testing.T) {
	t.Parallel()

	pool := SetupPostgres(t)
	ctx := context.Background()

	first, err := database.TryAcquireLock(ctx, pool)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = first.Release(context.Background())
	})

	second, err := database.TryAcquireLock(ctx, pool)
	assert.Nil(t, second)
	require.ErrorIs(t, err, database.ErrLockNotAcquired)
}

func TestAdvisoryLock_releaseAllowsReacquire(t *testing.T) {
	t.Parallel()

	pool := SetupPostgres(t)
	ctx := context.Background()

	first, err := database.TryAcquireLock(ctx, pool)
	require.NoError(t, err)
	require.NoError(t, first.Release(ctx))
	require.NoError(t, first.Release(ctx))

	second, err := database.TryAcquireLock(ctx, pool)
	require.NoError(t, err)
	require.NoError(t, second.Release(ctx))
}
