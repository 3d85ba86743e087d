package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/codeagent/internal/journal"
)

// HistoryTool handles the invocation_history MCP tool.
type HistoryTool struct {
	store InvocationReader
}

// NewHistoryTool creates a HistoryTool over the journal.
func NewHistoryTool(store InvocationReader) *HistoryTool {
	return &HistoryTool{store: store}
}

// Definition returns the MCP tool definition for invocation_history.
func (t *HistoryTool) Definition() mcp.Tool {
	return mcp.NewTool("invocation_history",
		mcp.WithDescription(
			"List recent plan_feature, plan_bug_fix and explain_code invocations, newest first. "+
				"Shows directory, outcome, report size and duration. Prompts and answers are not stored.",
		),
		mcp.WithNumber("limit",
			mcp.Description(fmt.Sprintf("Maximum entries to return (default %d, max %d)",
				journal.DefaultRecentLimit, journal.MaxRecentLimit)),
		),
		mcp.WithString("tool",
			mcp.Description("Only show invocations of this tool"),
		),
	)
}

// Handle processes the invocation_history tool call.
func (t *HistoryTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	opts := journal.RecentOptions{
		Tool:  strings.TrimSpace(req.GetString("tool", "")),
		Limit: intArg(req, "limit", journal.DefaultRecentLimit),
	}

	invocations, err := t.store.Recent(opts)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to read invocation history: %v", err)), nil
	}
	if len(invocations) == 0 {
		return mcp.NewToolResultText("No invocations recorded yet."), nil
	}

	return mcp.NewToolResultText(FormatHistory(invocations)), nil
}

// FormatHistory renders invocations as a markdown list.
func FormatHistory(invocations []journal.Invocation) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## Recent Invocations (%d)\n\n", len(invocations)))
	for _, inv := range invocations {
		sb.WriteString(fmt.Sprintf("- **%s** `%s`: %s, %s",
			inv.Tool, inv.Directory, inv.Status, formatDuration(inv.DurationMS)))
		if inv.ReportChars > 0 {
			sb.WriteString(fmt.Sprintf(", report %d chars", inv.ReportChars))
			if inv.Truncated {
				sb.WriteString(" (truncated)")
			}
		}
		sb.WriteString(fmt.Sprintf(" · %s\n", inv.CreatedAt.Local().Format("2006-01-02 15:04:05")))
		if inv.Error != "" {
			sb.WriteString(fmt.Sprintf("  - error: %s\n", inv.Error))
		}
	}
	return sb.String()
}

func formatDuration(ms int64) string {
	if ms < 1000 {
		return fmt.Sprintf("%dms", ms)
	}
	return fmt.Sprintf("%.1fs", float64(ms)/1000)
}
