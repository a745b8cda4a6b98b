package tracker

import "errors"

// ErrLedgerMissing indicates the schema_migrations table does not exist.
var ErrLedgerMissing = errors.New("schema_migrations table does not exist")

// ErrExecFunctionMissing indicates the exec_migration_sql function does not exist.
var ErrExecFunctionMissing = errors.New("exec_migration_sql function does not exist")

// SQLSTATE codes Postgres reports for missing objects.
const (
	CodeUndefinedTable    = "42P01"
	CodeUndefinedFunction = "42883"
)
