package tracker

import (
	"errors"
	"time"
)

// AppliedMigration represents a row of the schema_migrations table.
type AppliedMigration struct {
	ID              int64
	MigrationName   string
	Checksum        string
	ExecutedAt      time.Time
	ExecutionTimeMs int
}

// RecordParams contains the fields needed to record a migration as applied.
// executed_at is filled in by the database default.
type RecordParams struct {
	MigrationName   string
	Checksum        string
	ExecutionTimeMs int
}

// ChecksumIndex maps migration names to their recorded checksums.
func ChecksumIndex(applied []AppliedMigration) map[string]string {
	index := make(map[string]string, len(applied))
	for _, a := range applied {
		index[a.MigrationName] = a.Checksum
	}

	return index
}

// IsInfrastructureMissing reports whether err means the ledger table or the
// exec function has not been created yet.
func IsInfrastructureMissing(err error) bool {
	return errors.Is(err, ErrLedgerMissing) || errors.Is(err, ErrExecFunctionMissing)
}
