package runner

import "errors"

// ErrInfrastructureIncomplete indicates the ledger table or exec function is
// still missing after the operator was asked to create them.
var ErrInfrastructureIncomplete = errors.New("migration infrastructure setup incomplete")

// ErrLedgerLoad indicates the applied-migrations ledger could not be read.
var ErrLedgerLoad = errors.New("fetching executed migrations")

// ErrExecutionFailed indicates a migration failed to execute.
var ErrExecutionFailed = errors.New("migration execution failed")

// ErrRecordFailed indicates a migration ran but its ledger row could not be written.
var ErrRecordFailed = errors.New("recording migration failed")

// ErrSyntaxCheck indicates a pending migration failed the pre-flight parse.
var ErrSyntaxCheck = errors.New("migration failed syntax check")
