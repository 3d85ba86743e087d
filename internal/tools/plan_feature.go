package tools

import (
	"context"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// PlanFeatureTool handles the plan_feature MCP tool.
// It produces a high-level architecture plan and then a detailed
// implementation guide for a requested feature.
type PlanFeatureTool struct {
	runner *Runner
	chains Chains
}

// NewPlanFeatureTool creates a PlanFeatureTool.
func NewPlanFeatureTool(runner *Runner, chains Chains) *PlanFeatureTool {
	return &PlanFeatureTool{runner: runner, chains: chains}
}

// Definition returns the MCP tool definition for registration.
func (t *PlanFeatureTool) Definition() mcp.Tool {
	return mcp.NewTool("plan_feature",
		mcp.WithDescription(
			"Generates a comprehensive, two-step feature implementation plan. "+
				"Analyzes codebase structure, creates a high-level architecture plan, then produces a "+
				"detailed implementation guide with file references and code snippets. "+
				"For large projects, split requests by concern (e.g., separate frontend/backend or by module) "+
				"to stay within the 200k token limit. Best for small-medium codebases or focused subdirectories.",
		),
		mcp.WithString("directory",
			mcp.Required(),
			mcp.Description(directoryDescription),
		),
		mcp.WithString("feature_prompt",
			mcp.Required(),
			mcp.Description("The feature to plan, in as much detail as you have"),
		),
	)
}

// Handle processes the plan_feature tool call.
func (t *PlanFeatureTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	prompt := strings.TrimSpace(req.GetString("feature_prompt", ""))
	if prompt == "" {
		return mcp.NewToolResultError("'feature_prompt' is required"), nil
	}

	return t.runner.run(ctx, "plan_feature", req.GetString("directory", ""), "Failed to generate feature plan",
		func(ctx context.Context, report string) (string, error) {
			return t.chains.FeaturePlan(ctx, report, prompt)
		})
}
