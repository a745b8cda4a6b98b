package runner

import (
	"time"

	"github.com/aqasim81/supamigrate/internal/migration"
)

// Progress status constants reported via ProgressEvent.
const (
	StatusStarting  = "starting"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// ProgressEvent is emitted for each pending migration the runner executes.
type ProgressEvent struct {
	Migration *migration.Migration
	Status    string
	Duration  time.Duration
	Error     error
}

// Reporter receives the human-facing milestones of a run.
type Reporter interface {
	InfrastructureMissing(problems []error)
	SetupInstructions(sql string)
	InfrastructureReady()
	LedgerLoaded(applied int)
	FilesFound(files int)
	Drift(d Drift)
	UpToDate()
	DryRun(pending []migration.Migration)
	RunningPending(n int)
	Progress(ev ProgressEvent)
	Summary(res Result)
}

type nopReporter struct{}

func (nopReporter) InfrastructureMissing([]error) {}
func (nopReporter) SetupInstructions(string)      {}
func (nopReporter) InfrastructureReady()          {}
func (nopReporter) LedgerLoaded(int)              {}
func (nopReporter) FilesFound(int)                {}
func (nopReporter) Drift(Drift)                   {}
func (nopReporter) UpToDate()                     {}
func (nopReporter) DryRun([]migration.Migration)  {}
func (nopReporter) RunningPending(int)            {}
func (nopReporter) Progress(ProgressEvent)        {}
func (nopReporter) Summary(Result)                {}
