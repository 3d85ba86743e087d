package tools

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/codeagent/internal/journal"
	"github.com/HendryAvila/codeagent/internal/report"
)

// --- Test helpers ---

// fakeReports returns a fixed report or error and remembers the
// directories it was asked for.
type fakeReports struct {
	mu   sync.Mutex
	rep  *report.Report
	err  error
	dirs []string
}

func (f *fakeReports) Generate(_ context.Context, dir string) (*report.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dirs = append(f.dirs, dir)
	if f.err != nil {
		return nil, f.err
	}
	return f.rep, nil
}

// fakeChains echoes its inputs so tests can see what reached the chain.
type fakeChains struct {
	err      error
	lastCall string
	report   string
	request  string
}

func (f *fakeChains) answer(call, report, request string) (string, error) {
	f.lastCall, f.report, f.request = call, report, request
	if f.err != nil {
		return "", f.err
	}
	return call + " answer for " + request, nil
}

func (f *fakeChains) FeaturePlan(_ context.Context, report, prompt string) (string, error) {
	return f.answer("feature", report, prompt)
}

func (f *fakeChains) BugFixPlan(_ context.Context, report, bug string) (string, error) {
	return f.answer("bugfix", report, bug)
}

func (f *fakeChains) Explain(_ context.Context, report, query string) (string, error) {
	return f.answer("explain", report, query)
}

// memJournal is an in-memory InvocationRecorder and InvocationReader.
type memJournal struct {
	mu      sync.Mutex
	records []journal.Invocation
	err     error
}

func (m *memJournal) Record(inv journal.Invocation) (journal.Invocation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return inv, m.err
	}
	m.records = append(m.records, inv)
	return inv, nil
}

func (m *memJournal) Recent(opts journal.RecentOptions) ([]journal.Invocation, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.records, nil
}

func (m *memJournal) Stats() (*journal.Stats, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &journal.Stats{}, nil
}

type chainObservation struct {
	tool, status string
}

type fakeObserver struct {
	chains  []chainObservation
	reports []int
}

func (f *fakeObserver) ObserveChain(tool, status string, _ time.Duration) {
	f.chains = append(f.chains, chainObservation{tool, status})
}

func (f *fakeObserver) ObserveReport(chars int, _ bool) {
	f.reports = append(f.reports, chars)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type harness struct {
	reports  *fakeReports
	chains   *fakeChains
	journal  *memJournal
	observer *fakeObserver
	runner   *Runner
}

func newHarness() *harness {
	h := &harness{
		reports:  &fakeReports{rep: &report.Report{Text: "REPORT", RawChars: 6}},
		chains:   &fakeChains{},
		journal:  &memJournal{},
		observer: &fakeObserver{},
	}
	h.runner = NewRunner(h.reports,
		WithJournal(h.journal),
		WithObserver(h.observer),
		WithLogger(quietLogger()),
	)
	return h
}

func callTool(args map[string]interface{}) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

// isErrorResult checks if the result is a tool error.
func isErrorResult(result *mcp.CallToolResult) bool {
	return result != nil && result.IsError
}

// getResultText extracts the text content from a CallToolResult.
func getResultText(result *mcp.CallToolResult) string {
	if result == nil || len(result.Content) == 0 {
		return ""
	}
	for _, c := range result.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

// --- Planning tools ---

func TestPlanningTools_Success(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name     string
		handle   func(h *harness) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)
		argName  string
		wantCall string
		tool     string
	}{
		{
			name:     "plan_feature",
			handle:   func(h *harness) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) { return NewPlanFeatureTool(h.runner, h.chains).Handle },
			argName:  "feature_prompt",
			wantCall: "feature",
			tool:     "plan_feature",
		},
		{
			name:     "plan_bug_fix",
			handle:   func(h *harness) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) { return NewPlanBugFixTool(h.runner, h.chains).Handle },
			argName:  "bug_description",
			wantCall: "bugfix",
			tool:     "plan_bug_fix",
		},
		{
			name:     "explain_code",
			handle:   func(h *harness) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) { return NewExplainCodeTool(h.runner, h.chains).Handle },
			argName:  "explanation_query",
			wantCall: "explain",
			tool:     "explain_code",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness()
			result, err := tt.handle(h)(context.Background(), callTool(map[string]interface{}{
				"directory": dir,
				tt.argName:  "do the thing",
			}))
			if err != nil {
				t.Fatalf("unexpected Go error: %v", err)
			}
			if isErrorResult(result) {
				t.Fatalf("unexpected tool error: %s", getResultText(result))
			}
			if got := getResultText(result); got != tt.wantCall+" answer for do the thing" {
				t.Errorf("result = %q", got)
			}
			if h.chains.lastCall != tt.wantCall || h.chains.report != "REPORT" {
				t.Errorf("chain saw call=%q report=%q", h.chains.lastCall, h.chains.report)
			}
			if len(h.reports.dirs) != 1 || h.reports.dirs[0] != dir {
				t.Errorf("report requested for %v, want %s", h.reports.dirs, dir)
			}

			if len(h.journal.records) != 1 {
				t.Fatalf("journal has %d records, want 1", len(h.journal.records))
			}
			rec := h.journal.records[0]
			if rec.Tool != tt.tool || rec.Status != journal.StatusSuccess || rec.Directory != dir || rec.ReportChars != 6 {
				t.Errorf("journal record = %+v", rec)
			}
			if len(h.observer.chains) != 1 || h.observer.chains[0] != (chainObservation{tt.tool, "success"}) {
				t.Errorf("chain observations = %v", h.observer.chains)
			}
		})
	}
}

func TestPlanFeature_MissingPrompt(t *testing.T) {
	h := newHarness()
	tool := NewPlanFeatureTool(h.runner, h.chains)

	result, err := tool.Handle(context.Background(), callTool(map[string]interface{}{
		"directory":      t.TempDir(),
		"feature_prompt": "   ",
	}))
	if err != nil {
		t.Fatalf("unexpected Go error: %v", err)
	}
	if !isErrorResult(result) {
		t.Fatal("expected error result")
	}
	if !strings.Contains(getResultText(result), "feature_prompt") {
		t.Errorf("error should name the parameter, got %q", getResultText(result))
	}
	if len(h.reports.dirs) != 0 {
		t.Error("report should not be generated")
	}
}

func TestPlanningTools_DirectoryValidation(t *testing.T) {
	file := filepath.Join(t.TempDir(), "main.go")
	if err := os.WriteFile(file, []byte("package main\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		dir     string
		wantErr string
	}{
		{"missing", "", "'directory' is required"},
		{"relative", "projects/app", "absolute path"},
		{"does not exist", filepath.Join(t.TempDir(), "gone"), "does not exist"},
		{"is a file", file, "is not a directory"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness()
			tool := NewExplainCodeTool(h.runner, h.chains)
			result, err := tool.Handle(context.Background(), callTool(map[string]interface{}{
				"directory":         tt.dir,
				"explanation_query": "how does it work?",
			}))
			if err != nil {
				t.Fatalf("unexpected Go error: %v", err)
			}
			if !isErrorResult(result) {
				t.Fatal("expected error result")
			}
			if !strings.Contains(getResultText(result), tt.wantErr) {
				t.Errorf("error = %q, want containing %q", getResultText(result), tt.wantErr)
			}
			if len(h.reports.dirs) != 0 {
				t.Error("report should not be generated for an invalid directory")
			}
			if len(h.journal.records) != 1 || h.journal.records[0].Status != journal.StatusError {
				t.Errorf("invalid directory should be journaled as an error: %+v", h.journal.records)
			}
		})
	}
}

func TestPlanningTools_ReportFailure(t *testing.T) {
	h := newHarness()
	h.reports.err = &report.ViewerError{ExitCode: 2, Stderr: "bad path"}
	tool := NewPlanBugFixTool(h.runner, h.chains)

	result, err := tool.Handle(context.Background(), callTool(map[string]interface{}{
		"directory":       t.TempDir(),
		"bug_description": "crash",
	}))
	if err != nil {
		t.Fatalf("unexpected Go error: %v", err)
	}
	if !isErrorResult(result) {
		t.Fatal("expected error result")
	}
	text := getResultText(result)
	if !strings.HasPrefix(text, "Failed to generate codebase report: ") || !strings.Contains(text, "bad path") {
		t.Errorf("error = %q", text)
	}
	if h.chains.lastCall != "" {
		t.Error("chain should not run when the report fails")
	}
	if len(h.observer.reports) != 0 {
		t.Error("no report size should be observed")
	}
}

func TestPlanningTools_ChainFailureMessages(t *testing.T) {
	tests := []struct {
		name       string
		run        func(h *harness, dir string) (*mcp.CallToolResult, error)
		wantPrefix string
	}{
		{
			name: "feature",
			run: func(h *harness, dir string) (*mcp.CallToolResult, error) {
				return NewPlanFeatureTool(h.runner, h.chains).Handle(context.Background(),
					callTool(map[string]interface{}{"directory": dir, "feature_prompt": "x"}))
			},
			wantPrefix: "Failed to generate feature plan: ",
		},
		{
			name: "bug fix",
			run: func(h *harness, dir string) (*mcp.CallToolResult, error) {
				return NewPlanBugFixTool(h.runner, h.chains).Handle(context.Background(),
					callTool(map[string]interface{}{"directory": dir, "bug_description": "x"}))
			},
			wantPrefix: "Failed to generate bug fix plan: ",
		},
		{
			name: "explain",
			run: func(h *harness, dir string) (*mcp.CallToolResult, error) {
				return NewExplainCodeTool(h.runner, h.chains).Handle(context.Background(),
					callTool(map[string]interface{}{"directory": dir, "explanation_query": "x"}))
			},
			wantPrefix: "Failed to generate explanation: ",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness()
			h.chains.err = errors.New("stage 1: LLM API error (status 500): overloaded")

			result, err := tt.run(h, t.TempDir())
			if err != nil {
				t.Fatalf("unexpected Go error: %v", err)
			}
			if !isErrorResult(result) {
				t.Fatal("expected error result")
			}
			text := getResultText(result)
			if !strings.HasPrefix(text, tt.wantPrefix) || !strings.Contains(text, "overloaded") {
				t.Errorf("error = %q, want prefix %q", text, tt.wantPrefix)
			}
			rec := h.journal.records[0]
			if rec.Status != journal.StatusError || rec.Error != text {
				t.Errorf("journal record = %+v", rec)
			}
			if h.observer.chains[0].status != "error" {
				t.Errorf("observed status = %q", h.observer.chains[0].status)
			}
		})
	}
}

func TestRunner_JournalFailureIsNotSurfaced(t *testing.T) {
	h := newHarness()
	h.journal.err = errors.New("database is locked")
	tool := NewPlanFeatureTool(h.runner, h.chains)

	result, err := tool.Handle(context.Background(), callTool(map[string]interface{}{
		"directory":      t.TempDir(),
		"feature_prompt": "x",
	}))
	if err != nil {
		t.Fatalf("unexpected Go error: %v", err)
	}
	if isErrorResult(result) {
		t.Fatalf("journal failure leaked to the client: %s", getResultText(result))
	}
}

func TestRunner_WithoutJournal(t *testing.T) {
	reports := &fakeReports{rep: &report.Report{Text: "R"}}
	runner := NewRunner(reports, WithLogger(quietLogger()))
	tool := NewExplainCodeTool(runner, &fakeChains{})

	result, err := tool.Handle(context.Background(), callTool(map[string]interface{}{
		"directory":         t.TempDir(),
		"explanation_query": "x",
	}))
	if err != nil || isErrorResult(result) {
		t.Fatalf("result = %v, err = %v", getResultText(result), err)
	}
}

func TestRunner_RecordsTruncation(t *testing.T) {
	h := newHarness()
	h.reports.rep = &report.Report{Text: "short" + report.TruncationMarker, RawChars: 900_000, Truncated: true}
	tool := NewPlanFeatureTool(h.runner, h.chains)

	if _, err := tool.Handle(context.Background(), callTool(map[string]interface{}{
		"directory":      t.TempDir(),
		"feature_prompt": "x",
	})); err != nil {
		t.Fatal(err)
	}
	rec := h.journal.records[0]
	if !rec.Truncated || rec.ReportChars != 900_000 {
		t.Errorf("journal record = %+v", rec)
	}
	if len(h.observer.reports) != 1 || h.observer.reports[0] != 900_000 {
		t.Errorf("observed reports = %v", h.observer.reports)
	}
}

// --- Definitions ---

func TestDefinitions_RequiredParams(t *testing.T) {
	h := newHarness()
	tests := []struct {
		def      mcp.Tool
		name     string
		required []string
	}{
		{NewPlanFeatureTool(h.runner, h.chains).Definition(), "plan_feature", []string{"directory", "feature_prompt"}},
		{NewPlanBugFixTool(h.runner, h.chains).Definition(), "plan_bug_fix", []string{"directory", "bug_description"}},
		{NewExplainCodeTool(h.runner, h.chains).Definition(), "explain_code", []string{"directory", "explanation_query"}},
		{NewHistoryTool(h.journal).Definition(), "invocation_history", nil},
		{NewStatsTool(h.journal).Definition(), "invocation_stats", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.def.Name != tt.name {
				t.Errorf("Name = %q, want %q", tt.def.Name, tt.name)
			}
			if strings.Join(tt.def.InputSchema.Required, ",") != strings.Join(tt.required, ",") {
				t.Errorf("Required = %v, want %v", tt.def.InputSchema.Required, tt.required)
			}
		})
	}
}
