// Package resources implements MCP resource handlers.
//
// Resources provide read-only data that the host can consume for context.
// They use URI-based addressing (codeagent://...) following MCP conventions.
package resources

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/codeagent/internal/journal"
)

// RecentURI addresses the recent invocations resource.
const RecentURI = "codeagent://invocations/recent"

// Reader is the journal view the handler needs. *journal.Store satisfies it.
type Reader interface {
	Recent(opts journal.RecentOptions) ([]journal.Invocation, error)
	Stats() (*journal.Stats, error)
}

// Handler manages the journal resource endpoints.
type Handler struct {
	store Reader
}

// NewHandler creates a resource Handler with its dependencies.
func NewHandler(store Reader) *Handler {
	return &Handler{store: store}
}

// recentPayload is the JSON body of the recent invocations resource.
type recentPayload struct {
	Stats       *journal.Stats       `json:"stats"`
	Invocations []journal.Invocation `json:"invocations"`
}

// RecentResource returns the MCP resource definition for recent invocations.
func (h *Handler) RecentResource() mcp.Resource {
	return mcp.NewResource(
		RecentURI,
		"Recent Code Agent Invocations",
		mcp.WithResourceDescription("Aggregate statistics and the most recent planning invocations"),
		mcp.WithMIMEType("application/json"),
	)
}

// HandleRecent returns statistics and recent invocations as JSON.
func (h *Handler) HandleRecent(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	stats, err := h.store.Stats()
	if err != nil {
		return errorResource(req.Params.URI, err.Error()), nil
	}
	invocations, err := h.store.Recent(journal.RecentOptions{})
	if err != nil {
		return errorResource(req.Params.URI, err.Error()), nil
	}
	if invocations == nil {
		invocations = []journal.Invocation{}
	}

	data, err := json.MarshalIndent(recentPayload{Stats: stats, Invocations: invocations}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling invocations: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

// errorResource returns a resource with an error message.
func errorResource(uri, message string) []mcp.ResourceContents {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "text/plain",
			Text:     fmt.Sprintf("Error: %s", message),
		},
	}
}
