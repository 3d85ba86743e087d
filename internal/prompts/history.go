package prompts

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

// HistoryPrompt handles the codeagent-history MCP prompt.
type HistoryPrompt struct{}

// NewHistoryPrompt creates a HistoryPrompt.
func NewHistoryPrompt() *HistoryPrompt {
	return &HistoryPrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *HistoryPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("codeagent-history",
		mcp.WithPromptDescription(
			"Review recent planning runs: what was asked of which codebase, "+
				"what failed and which reports were truncated.",
		),
	)
}

// Handle processes the codeagent-history prompt request.
func (p *HistoryPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	return &mcp.GetPromptResult{
		Description: "Code agent invocation history",
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(
					"Please run `invocation_stats` and then `invocation_history`.\n\n" +
						"Then:\n" +
						"1. Summarise how many runs succeeded and failed per tool\n" +
						"2. List recent failures with their error messages and what probably caused them\n" +
						"3. Point out directories whose reports were truncated and suggest narrower subdirectories\n" +
						"4. Tell me if anything looks like a configuration problem (API keys, viewer path, model)",
				),
			},
		},
	}, nil
}
