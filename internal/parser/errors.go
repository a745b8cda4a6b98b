package parser //nolint:revive // see parser.go

import "errors"

// ErrInvalidSQL indicates the migration is not valid PostgreSQL.
var ErrInvalidSQL = errors.New("invalid SQL")

// ErrNotAllowedInFunction indicates a statement that cannot run inside the
// transaction exec_migration_sql executes in.
var ErrNotAllowedInFunction = errors.New("statement cannot run inside exec_migration_sql")
