package tools

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/codeagent/internal/journal"
)

// Observer receives per-invocation measurements. *metrics.Recorder
// satisfies it.
type Observer interface {
	ObserveChain(tool, status string, d time.Duration)
	ObserveReport(chars int, truncated bool)
}

type nopObserver struct{}

func (nopObserver) ObserveChain(string, string, time.Duration) {}

func (nopObserver) ObserveReport(int, bool) {}

// chainFunc runs one prompt chain over a bounded report.
type chainFunc func(ctx context.Context, report string) (string, error)

// Runner executes the report → chain pipeline shared by the planning
// tools and records each invocation.
type Runner struct {
	reports  ReportSource
	journal  InvocationRecorder
	observer Observer
	logger   *slog.Logger
	now      func() time.Time
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithJournal records every invocation in j.
func WithJournal(j InvocationRecorder) RunnerOption {
	return func(r *Runner) {
		r.journal = j
	}
}

// WithObserver reports durations and report sizes to o.
func WithObserver(o Observer) RunnerOption {
	return func(r *Runner) {
		r.observer = o
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = logger
	}
}

// NewRunner creates a Runner that obtains reports from reports.
func NewRunner(reports ReportSource, opts ...RunnerOption) *Runner {
	r := &Runner{
		reports:  reports,
		observer: nopObserver{},
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// run validates dir, generates the report and feeds it to chain. Every
// failure becomes a tool error result; the returned Go error is always
// nil so mcp-go relays the message to the client.
func (r *Runner) run(ctx context.Context, tool, dir, failure string, chain chainFunc) (*mcp.CallToolResult, error) {
	start := r.now()
	inv := journal.Invocation{Tool: tool, Directory: dir}

	finish := func(result *mcp.CallToolResult, errMsg string) (*mcp.CallToolResult, error) {
		elapsed := r.now().Sub(start)
		inv.DurationMS = elapsed.Milliseconds()
		inv.Status = journal.StatusSuccess
		if errMsg != "" {
			inv.Status = journal.StatusError
			inv.Error = errMsg
		}
		r.observer.ObserveChain(tool, inv.Status, elapsed)
		r.record(inv)
		return result, nil
	}
	fail := func(msg string) (*mcp.CallToolResult, error) {
		r.logger.Error("Tool invocation failed", "tool", tool, "directory", dir, "error", msg)
		return finish(mcp.NewToolResultError(msg), msg)
	}

	cleaned, err := validateDirectory(dir)
	if err != nil {
		return fail(err.Error())
	}
	inv.Directory = cleaned

	r.logger.Info("Received tool request", "tool", tool, "directory", cleaned)

	rep, err := r.reports.Generate(ctx, cleaned)
	if err != nil {
		return fail(fmt.Sprintf("Failed to generate codebase report: %v", err))
	}
	inv.ReportChars = rep.RawChars
	inv.Truncated = rep.Truncated
	r.observer.ObserveReport(rep.RawChars, rep.Truncated)

	text, err := chain(ctx, rep.Text)
	if err != nil {
		return fail(fmt.Sprintf("%s: %v", failure, err))
	}

	r.logger.Info("Tool request completed", "tool", tool, "directory", cleaned, "chars", len(text))
	return finish(mcp.NewToolResultText(text), "")
}

// record writes inv to the journal. Journal failures are logged and never
// reach the client.
func (r *Runner) record(inv journal.Invocation) {
	if r.journal == nil {
		return
	}
	if _, err := r.journal.Record(inv); err != nil {
		r.logger.Warn("Failed to record invocation", "tool", inv.Tool, "error", err)
	}
}
