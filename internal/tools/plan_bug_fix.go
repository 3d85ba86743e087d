package tools

import (
	"context"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// PlanBugFixTool handles the plan_bug_fix MCP tool.
// It performs a root-cause analysis and then a remediation plan.
type PlanBugFixTool struct {
	runner *Runner
	chains Chains
}

// NewPlanBugFixTool creates a PlanBugFixTool.
func NewPlanBugFixTool(runner *Runner, chains Chains) *PlanBugFixTool {
	return &PlanBugFixTool{runner: runner, chains: chains}
}

// Definition returns the MCP tool definition for registration.
func (t *PlanBugFixTool) Definition() mcp.Tool {
	return mcp.NewTool("plan_bug_fix",
		mcp.WithDescription(
			"Analyzes bugs and generates detailed fix implementation plans. "+
				"Performs root cause analysis, identifies affected files, and provides step-by-step "+
				"remediation with code examples. For large projects, narrow scope to the relevant subsystem "+
				"(e.g., just the authentication module or API layer) to stay within the 200k token limit. "+
				"Include error messages, stack traces, or reproduction steps in bug_description for best results.",
		),
		mcp.WithString("directory",
			mcp.Required(),
			mcp.Description(directoryDescription),
		),
		mcp.WithString("bug_description",
			mcp.Required(),
			mcp.Description("What goes wrong, with error messages, stack traces or reproduction steps"),
		),
	)
}

// Handle processes the plan_bug_fix tool call.
func (t *PlanBugFixTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	bug := strings.TrimSpace(req.GetString("bug_description", ""))
	if bug == "" {
		return mcp.NewToolResultError("'bug_description' is required"), nil
	}

	return t.runner.run(ctx, "plan_bug_fix", req.GetString("directory", ""), "Failed to generate bug fix plan",
		func(ctx context.Context, report string) (string, error) {
			return t.chains.BugFixPlan(ctx, report, bug)
		})
}
