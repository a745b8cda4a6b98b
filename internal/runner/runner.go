package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aqasim81/supamigrate/internal/migration"
	"github.com/aqasim81/supamigrate/internal/parser"
	"github.com/aqasim81/supamigrate/internal/tracker"
)

// Backend is the hosted database as the runner sees it: a ledger table and a
// function that executes arbitrary SQL.
type Backend interface {
	ProbeLedger(ctx context.Context) error
	ProbeExecFunction(ctx context.Context) error
	ListApplied(ctx context.Context) ([]tracker.AppliedMigration, error)
	ExecSQL(ctx context.Context, sql string) error
	RecordApplied(ctx context.Context, p tracker.RecordParams) error
}

// Releaser is returned by a LockFunc and must be released when the run ends.
type Releaser interface {
	Release(ctx context.Context) error
}

// LockFunc acquires a lock that excludes other runs.
type LockFunc func(ctx context.Context) (Releaser, error)

// Drift is an applied migration whose file no longer matches the ledger.
type Drift struct {
	Name     string
	Recorded string
	Current  string
}

// Plan is the local migration set diffed against the ledger.
type Plan struct {
	Pending      []migration.Migration
	Drifted      []Drift
	AppliedCount int
	FileCount    int
}

// Result summarises a run.
type Result struct {
	Plan     Plan
	Executed int
	Total    time.Duration
}

// Runner applies pending migrations from a directory through a Backend.
type Runner struct {
	backend     Backend
	dir         string
	confirmer   Confirmer
	reporter    Reporter
	logger      *slog.Logger
	dryRun      bool
	checkSyntax bool
	acquireLock LockFunc
	now         func() time.Time
}

// Option configures a Runner.
type Option func(*Runner)

// WithConfirmer sets the gate used after printing setup instructions.
func WithConfirmer(c Confirmer) Option {
	return func(r *Runner) { r.confirmer = c }
}

// WithReporter sets where run milestones are reported.
func WithReporter(rep Reporter) Option {
	return func(r *Runner) { r.reporter = rep }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

// WithDryRun stops after computing the plan.
func WithDryRun(b bool) Option {
	return func(r *Runner) { r.dryRun = b }
}

// WithSyntaxCheck parses every pending migration before executing any of them.
func WithSyntaxCheck(b bool) Option {
	return func(r *Runner) { r.checkSyntax = b }
}

// WithLocker holds a lock for the duration of Run.
func WithLocker(fn LockFunc) Option {
	return func(r *Runner) { r.acquireLock = fn }
}

// WithClock overrides the time source used to measure execution time.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

// New creates a Runner reading migrations from dir.
func New(b Backend, dir string, opts ...Option) *Runner {
	r := &Runner{
		backend:   b,
		dir:       dir,
		confirmer: AutoConfirmer{},
		reporter:  nopReporter{},
		logger:    slog.Default(),
		now:       time.Now,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Run makes sure the remote infrastructure exists, then executes every
// pending migration in order. The first failure stops the run; the returned
// Result still counts what was executed before it.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	if r.acquireLock != nil {
		lock, err := r.acquireLock(ctx)
		if err != nil {
			return nil, fmt.Errorf("acquiring migration lock: %w", err)
		}
		defer lock.Release(ctx) //nolint:errcheck // best-effort release on return
	}

	if err := r.ensureInfrastructure(ctx); err != nil {
		return nil, err
	}

	r.reporter.InfrastructureReady()

	plan, err := r.plan(ctx)
	if err != nil {
		return nil, err
	}

	res := &Result{Plan: *plan}

	if len(plan.Pending) == 0 {
		r.reporter.UpToDate()
		return res, nil
	}

	if r.checkSyntax {
		if err := checkSyntax(plan.Pending); err != nil {
			return res, err
		}
	}

	if r.dryRun {
		r.reporter.DryRun(plan.Pending)
		return res, nil
	}

	r.reporter.RunningPending(len(plan.Pending))

	for i := range plan.Pending {
		d, err := r.applyOne(ctx, &plan.Pending[i])
		if err != nil {
			return res, err
		}

		res.Executed++
		res.Total += d
	}

	r.reporter.Summary(*res)

	return res, nil
}

// Status reports the plan without prompting or executing anything.
func (r *Runner) Status(ctx context.Context) (*Plan, error) {
	if err := r.checkInfrastructure(ctx); err != nil {
		return nil, err
	}

	return r.plan(ctx)
}

func (r *Runner) ensureInfrastructure(ctx context.Context) error {
	err := r.checkInfrastructure(ctx)
	if err == nil {
		return nil
	}

	r.logger.DebugContext(ctx, "migration infrastructure missing", "error", err)
	r.reporter.InfrastructureMissing([]error{err})
	r.reporter.SetupInstructions(tracker.SetupSQL)

	if err := r.confirmer.Confirm(ctx); err != nil {
		return fmt.Errorf("waiting for setup confirmation: %w", err)
	}

	if err := r.checkInfrastructure(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrInfrastructureIncomplete, err)
	}

	return nil
}

// checkInfrastructure returns a missing-infrastructure error, or nil. Probe
// failures of any other kind are left for the ledger load to surface.
func (r *Runner) checkInfrastructure(ctx context.Context) error {
	probes := []struct {
		name string
		fn   func(context.Context) error
	}{
		{tracker.LedgerTable, r.backend.ProbeLedger},
		{tracker.ExecFunction, r.backend.ProbeExecFunction},
	}

	for _, p := range probes {
		err := p.fn(ctx)
		if err == nil {
			continue
		}

		if tracker.IsInfrastructureMissing(err) {
			return err
		}

		r.logger.DebugContext(ctx, "infrastructure probe failed", "object", p.name, "error", err)
	}

	return nil
}

func (r *Runner) plan(ctx context.Context) (*Plan, error) {
	applied, err := r.backend.ListApplied(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLedgerLoad, err)
	}

	recorded := tracker.ChecksumIndex(applied)
	r.reporter.LedgerLoaded(len(recorded))

	files, err := migration.LoadFromDir(r.dir)
	if err != nil {
		return nil, fmt.Errorf("loading migrations: %w", err)
	}

	sorted := migration.Sort(files)
	r.reporter.FilesFound(len(sorted))

	plan := &Plan{AppliedCount: len(recorded), FileCount: len(sorted)}

	for _, m := range sorted {
		checksum, ok := recorded[m.Name]
		if !ok {
			plan.Pending = append(plan.Pending, m)
			continue
		}

		if checksum != m.Checksum {
			d := Drift{Name: m.Name, Recorded: checksum, Current: m.Checksum}
			plan.Drifted = append(plan.Drifted, d)

			r.logger.DebugContext(ctx, "checksum drift", "migration", m.Name, "recorded", checksum, "current", m.Checksum)
			r.reporter.Drift(d)
		}
	}

	return plan, nil
}

// applyOne executes a migration and then records it. The two remote calls are
// not atomic: a failed record leaves the migration applied but unrecorded.
func (r *Runner) applyOne(ctx context.Context, m *migration.Migration) (time.Duration, error) {
	r.reporter.Progress(ProgressEvent{Migration: m, Status: StatusStarting})

	start := r.now()
	execErr := r.backend.ExecSQL(ctx, m.SQL)
	duration := r.now().Sub(start)

	if execErr != nil {
		r.reporter.Progress(ProgressEvent{Migration: m, Status: StatusFailed, Duration: duration, Error: execErr})

		return 0, fmt.Errorf("%w: %s: %w", ErrExecutionFailed, m.Name, execErr)
	}

	err := r.backend.RecordApplied(ctx, tracker.RecordParams{
		MigrationName:   m.Name,
		Checksum:        m.Checksum,
		ExecutionTimeMs: int(duration.Milliseconds()),
	})
	if err != nil {
		r.reporter.Progress(ProgressEvent{Migration: m, Status: StatusFailed, Duration: duration, Error: err})

		return 0, fmt.Errorf("%w: %s: %w", ErrRecordFailed, m.Name, err)
	}

	r.logger.DebugContext(ctx, "migration applied",
		"migration", m.Name,
		"checksum", m.Checksum,
		"duration_ms", duration.Milliseconds(),
	)
	r.reporter.Progress(ProgressEvent{Migration: m, Status: StatusCompleted, Duration: duration})

	return duration, nil
}

func checkSyntax(pending []migration.Migration) error {
	var errs []error

	for i := range pending {
		if _, err := parser.Check(pending[i].SQL); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", pending[i].Name, err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrSyntaxCheck, errors.Join(errs...))
	}

	return nil
}
