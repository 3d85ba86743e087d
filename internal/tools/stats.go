package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// StatsTool handles the invocation_stats MCP tool.
type StatsTool struct {
	store InvocationReader
}

// NewStatsTool creates a StatsTool over the journal.
func NewStatsTool(store InvocationReader) *StatsTool {
	return &StatsTool{store: store}
}

// Definition returns the MCP tool definition for invocation_stats.
func (t *StatsTool) Definition() mcp.Tool {
	return mcp.NewTool("invocation_stats",
		mcp.WithDescription(
			"Show invocation statistics: totals per tool and outcome, truncated reports and average duration.",
		),
	)
}

// Handle processes the invocation_stats tool call.
func (t *StatsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats, err := t.store.Stats()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to get stats: %v", err)), nil
	}

	var sb strings.Builder
	sb.WriteString("## Invocation Statistics\n\n")
	sb.WriteString(fmt.Sprintf("- **Total**: %d\n", stats.Total))
	sb.WriteString(fmt.Sprintf("- **Succeeded**: %d\n", stats.Success))
	sb.WriteString(fmt.Sprintf("- **Failed**: %d\n", stats.Error))

	if len(stats.Tools) == 0 {
		sb.WriteString("- **Tools**: none\n")
		return mcp.NewToolResultText(sb.String()), nil
	}

	sb.WriteString("\n| Tool | Succeeded | Failed | Truncated | Avg duration |\n")
	sb.WriteString("|---|---|---|---|---|\n")
	for _, ts := range stats.Tools {
		sb.WriteString(fmt.Sprintf("| %s | %d | %d | %d | %s |\n",
			ts.Tool, ts.Success, ts.Error, ts.Truncated, formatDuration(ts.AvgDurationMS)))
	}
	return mcp.NewToolResultText(sb.String()), nil
}
