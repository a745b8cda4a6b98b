package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aqasim81/supamigrate/internal/tracker"
)

// Backend runs migrations over a direct Postgres connection. It goes through
// the same ledger table and exec_migration_sql function as the REST API, so
// both backends can be used against one project interchangeably.
type Backend struct {
	pool *pgxpool.Pool
}

// NewBackend creates a Backend on top of an open pool.
func NewBackend(pool *pgxpool.Pool) *Backend {
	return &Backend{pool: pool}
}

// ProbeLedger performs a trivial read of the ledger table.
func (b *Backend) ProbeLedger(ctx context.Context) error {
	_, err := b.pool.Exec(ctx, `SELECT id FROM schema_migrations LIMIT 1`)
	if err != nil {
		return classify(err, tracker.CodeUndefinedTable, tracker.ErrLedgerMissing)
	}

	return nil
}

// ProbeExecFunction calls the exec function with a no-op statement.
func (b *Backend) ProbeExecFunction(ctx context.Context) error {
	if err := b.ExecSQL(ctx, "SELECT 1"); err != nil {
		return classify(err, tracker.CodeUndefinedFunction, tracker.ErrExecFunctionMissing)
	}

	return nil
}

// ListApplied returns every ledger row ordered by migration name.
func (b *Backend) ListApplied(ctx context.Context) ([]tracker.AppliedMigration, error) {
	rows, err := b.pool.Query(ctx,
		`SELECT id, migration_name, COALESCE(checksum, ''), executed_at, COALESCE(execution_time_ms, 0)
		 FROM schema_migrations
		 ORDER BY migration_name`,
	)
	if err != nil {
		return nil, fmt.Errorf("querying applied migrations: %w", err)
	}
	defer rows.Close()

	applied, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (tracker.AppliedMigration, error) {
		var (
			m          tracker.AppliedMigration
			executedAt *time.Time
		)

		if scanErr := row.Scan(&m.ID, &m.MigrationName, &m.Checksum, &executedAt, &m.ExecutionTimeMs); scanErr != nil {
			return tracker.AppliedMigration{}, fmt.Errorf("scanning migration row: %w", scanErr)
		}

		if executedAt != nil {
			m.ExecutedAt = *executedAt
		}

		return m, nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning applied migrations: %w", err)
	}

	return applied, nil
}

// ExecSQL hands sql to exec_migration_sql as a single text argument.
func (b *Backend) ExecSQL(ctx context.Context, sql string) error {
	if _, err := b.pool.Exec(ctx, `SELECT exec_migration_sql($1)`, sql); err != nil {
		return fmt.Errorf("calling %s: %w", tracker.ExecFunction, err)
	}

	return nil
}

// RecordApplied inserts a ledger row.
func (b *Backend) RecordApplied(ctx context.Context, p tracker.RecordParams) error {
	_, err := b.pool.Exec(ctx,
		`INSERT INTO schema_migrations (migration_name, checksum, execution_time_ms)
		 VALUES ($1, $2, $3)`,
		p.MigrationName, p.Checksum, p.ExecutionTimeMs,
	)
	if err != nil {
		return fmt.Errorf("recording migration %s: %w", p.MigrationName, err)
	}

	return nil
}

// AcquireLock takes the session advisory lock for the duration of a run.
func (b *Backend) AcquireLock(ctx context.Context) (*LockHandle, error) {
	return TryAcquireLock(ctx, b.pool)
}

func classify(err error, code string, sentinel error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == code {
		return fmt.Errorf("%w: %w", sentinel, err)
	}

	return err
}
