// Package console renders run progress for a human at a terminal.
package console

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/aqasim81/supamigrate/internal/migration"
	"github.com/aqasim81/supamigrate/internal/runner"
)

const separatorWidth = 60

// Printer implements runner.Reporter by writing emoji-prefixed lines. Errors
// go to errOut, everything else to out.
type Printer struct {
	out    io.Writer
	errOut io.Writer

	title   lipgloss.Style
	success lipgloss.Style
	warning lipgloss.Style
	danger  lipgloss.Style
	muted   lipgloss.Style
}

var _ runner.Reporter = (*Printer)(nil)

// NewPrinter creates a Printer. Colors are only emitted when out is a terminal.
func NewPrinter(out, errOut io.Writer) *Printer {
	r := lipgloss.NewRenderer(out)

	return &Printer{
		out:     out,
		errOut:  errOut,
		title:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED")),
		success: r.NewStyle().Foreground(lipgloss.Color("#22C55E")),
		warning: r.NewStyle().Bold(true).Foreground(lipgloss.Color("#F59E0B")),
		danger:  r.NewStyle().Bold(true).Foreground(lipgloss.Color("#EF4444")),
		muted:   r.NewStyle().Foreground(lipgloss.Color("#6B7280")),
	}
}

// Banner prints the run header.
func (p *Printer) Banner() {
	fmt.Fprintf(p.out, "%s\n\n", p.title.Render("🚀 Supabase Migration Runner"))
}

// MissingEnv reports that the credentials are not configured.
func (p *Printer) MissingEnv(err error) {
	fmt.Fprintln(p.errOut, p.danger.Render("❌ Error: Missing required environment variables"))
	fmt.Fprintf(p.errOut, "   %v\n", err)
}

// Fatal reports an error that ends the run.
func (p *Printer) Fatal(err error) {
	fmt.Fprintf(p.errOut, "\n%s %v\n", p.danger.Render("💥 Unexpected error:"), err)
}

// SetupIncomplete reports that the setup SQL still has not been run.
func (p *Printer) SetupIncomplete(err error) {
	fmt.Fprintf(p.errOut, "\n%s\n", p.danger.Render("❌ Infrastructure setup incomplete."))
	fmt.Fprintln(p.errOut, "   Please run the setup SQL in Supabase SQL Editor and try again.")
	fmt.Fprintf(p.errOut, "   %s\n\n", p.muted.Render(err.Error()))
}

// AutomatedSetup explains why the setup prompt was skipped.
func (p *Printer) AutomatedSetup() {
	fmt.Fprintf(p.out, "\n%s\n\n", p.muted.Render("⚙️  Automated mode detected - assuming setup is complete"))
}

// AwaitingConfirmation asks the operator to continue once setup is done.
func (p *Printer) AwaitingConfirmation() {
	fmt.Fprintln(p.out, "\nOnce executed, press ENTER to continue...")
}

// InfrastructureMissing implements runner.Reporter.
func (p *Printer) InfrastructureMissing(problems []error) {
	fmt.Fprintf(p.out, "%s\n\n", p.warning.Render("⚠️  Migration infrastructure not detected!"))

	for _, err := range problems {
		fmt.Fprintf(p.out, "   %s\n", p.muted.Render(err.Error()))
	}

	fmt.Fprintln(p.out, "📋 Setting up migration infrastructure...")
	fmt.Fprintln(p.out)
}

// SetupInstructions implements runner.Reporter.
func (p *Printer) SetupInstructions(sql string) {
	sep := p.muted.Render(strings.Repeat("─", separatorWidth))

	fmt.Fprintln(p.out, "📝 Please execute the following SQL in your Supabase SQL Editor:")
	fmt.Fprintln(p.out, "   (Go to your Supabase Dashboard → SQL Editor → New query)")
	fmt.Fprintln(p.out)
	fmt.Fprintln(p.out, sep)
	fmt.Fprintln(p.out, sql)
	fmt.Fprintln(p.out, sep)
}

// InfrastructureReady implements runner.Reporter.
func (p *Printer) InfrastructureReady() {
	fmt.Fprintf(p.out, "%s\n\n", p.success.Render("✅ Migration infrastructure ready"))
}

// LedgerLoaded implements runner.Reporter.
func (p *Printer) LedgerLoaded(applied int) {
	fmt.Fprintf(p.out, "📊 Previously executed: %d migrations\n\n", applied)
}

// FilesFound implements runner.Reporter.
func (p *Printer) FilesFound(files int) {
	fmt.Fprintf(p.out, "📁 Found: %d migration files\n\n", files)
}

// Drift implements runner.Reporter.
func (p *Printer) Drift(d runner.Drift) {
	fmt.Fprintln(p.errOut, p.warning.Render(fmt.Sprintf("⚠️  Warning: %s has been modified", d.Name)))
	fmt.Fprintln(p.errOut, "   (checksum mismatch - skipping re-execution)")
	fmt.Fprintln(p.errOut)
}

// UpToDate implements runner.Reporter.
func (p *Printer) UpToDate() {
	fmt.Fprintf(p.out, "%s\n\n", p.success.Render("✨ All migrations up to date!"))
}

// DryRun implements runner.Reporter.
func (p *Printer) DryRun(pending []migration.Migration) {
	fmt.Fprintf(p.out, "🔍 Dry run: %d pending migrations would be executed:\n\n", len(pending))

	for i := range pending {
		fmt.Fprintf(p.out, "  %d. %s %s\n", i+1, pending[i].Name, p.muted.Render(pending[i].Checksum))
	}

	fmt.Fprintln(p.out)
}

// RunningPending implements runner.Reporter.
func (p *Printer) RunningPending(n int) {
	fmt.Fprintf(p.out, "🔧 Running %d pending migrations:\n\n", n)
}

// Progress implements runner.Reporter.
func (p *Printer) Progress(ev runner.ProgressEvent) {
	name := ev.Migration.Name

	switch ev.Status {
	case runner.StatusStarting:
		fmt.Fprintf(p.out, "  ⏳ Executing %s...\n", name)
	case runner.StatusCompleted:
		fmt.Fprintf(p.out, "  %s (%dms)\n", p.success.Render(fmt.Sprintf("✅ %s completed", name)), ev.Duration.Milliseconds())
	case runner.StatusFailed:
		fmt.Fprintf(p.errOut, "\n%s\n", p.danger.Render("❌ Migration failed: "+name))
		fmt.Fprintf(p.errOut, "   Error: %v\n\n", ev.Error)
	}
}

// Summary implements runner.Reporter.
func (p *Printer) Summary(res runner.Result) {
	fmt.Fprintf(p.out, "\n%s\n", p.success.Render(
		fmt.Sprintf("✨ Success! Executed %d/%d migrations", res.Executed, len(res.Plan.Pending))))
	fmt.Fprintf(p.out, "   Total time: %dms\n\n", res.Total.Milliseconds())
}

// Status prints the plan computed by runner.Status.
func (p *Printer) Status(plan *runner.Plan) {
	fmt.Fprintf(p.out, "Applied: %d  Files: %d  Pending: %d  Modified: %d\n\n",
		plan.AppliedCount, plan.FileCount, len(plan.Pending), len(plan.Drifted))

	for i := range plan.Pending {
		fmt.Fprintf(p.out, "  %s  %s\n", p.warning.Render("pending"), plan.Pending[i].Name)
	}

	for _, d := range plan.Drifted {
		fmt.Fprintf(p.out, "  %s %s %s\n", p.danger.Render("modified"), d.Name,
			p.muted.Render(fmt.Sprintf("(recorded %s, now %s)", d.Recorded, d.Current)))
	}

	if len(plan.Pending) == 0 && len(plan.Drifted) == 0 {
		fmt.Fprintln(p.out, p.success.Render("✨ All migrations up to date!"))
	}
}
