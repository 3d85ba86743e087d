// codeagent: an MCP server that plans features, bug fixes and
// explanations for a codebase.
//
// It renders the codebase to a text report with the external
// codebase_viewer tool, bounds the report to a character budget and runs
// a two-stage prompt chain against an OpenAI-compatible model endpoint,
// rotating across API keys and retrying transient failures.
//
// Usage:
//
//	codeagent serve     # Start MCP server (stdio transport)
//	codeagent history   # Print recent invocations
//	codeagent version   # Print the version
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
