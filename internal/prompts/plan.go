// Package prompts implements MCP prompt handlers.
//
// MCP prompts are user-triggered workflows (like slash commands) that
// instruct the AI to call a specific tool. Unlike tools (which the AI
// calls), prompts are initiated by the user.
package prompts

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// Plan kinds accepted by the codeagent-plan prompt, mapped to the tool
// and request parameter each one drives.
var planKinds = map[string]struct {
	tool  string
	param string
	noun  string
}{
	"feature": {tool: "plan_feature", param: "feature_prompt", noun: "feature"},
	"bug":     {tool: "plan_bug_fix", param: "bug_description", noun: "bug"},
	"explain": {tool: "explain_code", param: "explanation_query", noun: "question"},
}

// PlanPrompt handles the codeagent-plan MCP prompt.
// It tells the AI which planning tool to call and with what arguments.
type PlanPrompt struct{}

// NewPlanPrompt creates a PlanPrompt.
func NewPlanPrompt() *PlanPrompt {
	return &PlanPrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *PlanPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("codeagent-plan",
		mcp.WithPromptDescription(
			"Plan a feature, a bug fix or an explanation for a codebase. "+
				"Picks the right tool and reminds you to keep the directory focused "+
				"so the codebase report fits the token limit.",
		),
		mcp.WithArgument("kind",
			mcp.ArgumentDescription("What to produce: 'feature' (default), 'bug' or 'explain'"),
		),
		mcp.WithArgument("directory",
			mcp.ArgumentDescription("Absolute path to the codebase or subdirectory"),
		),
		mcp.WithArgument("request",
			mcp.ArgumentDescription("The feature, bug description or question"),
		),
	)
}

// Handle processes the codeagent-plan prompt request.
func (p *PlanPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	args := req.Params.Arguments

	kind := strings.ToLower(strings.TrimSpace(args["kind"]))
	if kind == "" {
		kind = "feature"
	}
	k, ok := planKinds[kind]
	if !ok {
		return nil, fmt.Errorf("unknown kind %q: use feature, bug or explain", kind)
	}

	directory := strings.TrimSpace(args["directory"])
	if directory == "" {
		directory = "(ask me for the absolute path of the codebase)"
	}
	request := strings.TrimSpace(args["request"])
	if request == "" {
		request = fmt.Sprintf("(ask me to describe the %s)", k.noun)
	}

	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Run %s", k.tool),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(fmt.Sprintf(
					"Please call `%s` with:\n"+
						"- directory: %s\n"+
						"- %s: %s\n\n"+
						"Before calling it:\n"+
						"1. Make sure the directory is an absolute path, never a relative one\n"+
						"2. If the project is large, point it at the subsystem that matters so the report stays within the token limit\n"+
						"3. Include any error messages, stack traces or constraints I mentioned in the %s\n\n"+
						"The call can take several minutes. When it returns, present the result as-is and then summarise the key steps.",
					k.tool, directory, k.param, request, k.param,
				)),
			},
		},
	}, nil
}
