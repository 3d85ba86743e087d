// Package tools implements the MCP tool handlers.
//
// Each tool is a struct that receives its dependencies through its
// constructor and exposes Definition() for registration and Handle() as
// an mcp-go tool handler.
//
// plan_feature, plan_bug_fix and explain_code share a Runner that turns a
// directory into a budgeted codebase report, runs the tool's prompt chain
// over it, and records the outcome. invocation_history and
// invocation_stats read the journal those runs write.
package tools

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/codeagent/internal/journal"
	"github.com/HendryAvila/codeagent/internal/report"
)

// directoryDescription is shared by every tool that takes a codebase path.
const directoryDescription = "Full absolute path to the codebase directory (e.g., /workspace/myapp or C:/projects/myapp). Must NOT be a relative path."

// ReportSource produces a budgeted codebase report. *report.Generator
// satisfies it.
type ReportSource interface {
	Generate(ctx context.Context, dir string) (*report.Report, error)
}

// Chains runs the two-stage prompt chains. *chains.Planner satisfies it.
type Chains interface {
	FeaturePlan(ctx context.Context, report, featurePrompt string) (string, error)
	BugFixPlan(ctx context.Context, report, bugDescription string) (string, error)
	Explain(ctx context.Context, report, query string) (string, error)
}

// InvocationRecorder persists one invocation. *journal.Store satisfies it.
type InvocationRecorder interface {
	Record(inv journal.Invocation) (journal.Invocation, error)
}

// InvocationReader reads the journal. *journal.Store satisfies it.
type InvocationReader interface {
	Recent(opts journal.RecentOptions) ([]journal.Invocation, error)
	Stats() (*journal.Stats, error)
}

// intArg extracts an integer argument from a tool request, returning
// defaultVal if the key is missing or not a number (JSON numbers are float64).
func intArg(req mcp.CallToolRequest, key string, defaultVal int) int {
	v, ok := req.GetArguments()[key].(float64)
	if !ok {
		return defaultVal
	}
	return int(v)
}

// validateDirectory checks that dir is an absolute path to an existing
// directory and returns it cleaned.
func validateDirectory(dir string) (string, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return "", errors.New("'directory' is required")
	}
	if !filepath.IsAbs(dir) {
		return "", fmt.Errorf("'directory' must be an absolute path, got %q", dir)
	}
	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("directory %s does not exist", dir)
		}
		return "", fmt.Errorf("checking directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%s is not a directory", dir)
	}
	return filepath.Clean(dir), nil
}
