package tools

import (
	"context"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// ExplainCodeTool handles the explain_code MCP tool.
type ExplainCodeTool struct {
	runner *Runner
	chains Chains
}

// NewExplainCodeTool creates an ExplainCodeTool.
func NewExplainCodeTool(runner *Runner, chains Chains) *ExplainCodeTool {
	return &ExplainCodeTool{runner: runner, chains: chains}
}

// Definition returns the MCP tool definition for registration.
func (t *ExplainCodeTool) Definition() mcp.Tool {
	return mcp.NewTool("explain_code",
		mcp.WithDescription(
			"Provides detailed technical explanations of codebase components. "+
				"Identifies key files, explains architecture patterns, data flow, and inter-component "+
				"relationships with code examples. For large projects, target specific subsystems "+
				"(e.g., 'explain the authentication system' vs 'explain the entire backend') to stay within "+
				"the 200k token limit. Best for onboarding, documentation, or understanding complex logic.",
		),
		mcp.WithString("directory",
			mcp.Required(),
			mcp.Description(directoryDescription),
		),
		mcp.WithString("explanation_query",
			mcp.Required(),
			mcp.Description("What to explain about the codebase"),
		),
	)
}

// Handle processes the explain_code tool call.
func (t *ExplainCodeTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := strings.TrimSpace(req.GetString("explanation_query", ""))
	if query == "" {
		return mcp.NewToolResultError("'explanation_query' is required"), nil
	}

	return t.runner.run(ctx, "explain_code", req.GetString("directory", ""), "Failed to generate explanation",
		func(ctx context.Context, report string) (string, error) {
			return t.chains.Explain(ctx, report, query)
		})
}
