// Package server wires all MCP components and creates the server instance.
//
// This is the composition root: it creates concrete implementations and
// injects them into the tools, prompts and resources that depend on
// interfaces. No business logic lives here, only wiring.
package server

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/mark3labs/mcp-go/server"

	"github.com/HendryAvila/codeagent/internal/chains"
	"github.com/HendryAvila/codeagent/internal/config"
	"github.com/HendryAvila/codeagent/internal/journal"
	"github.com/HendryAvila/codeagent/internal/keypool"
	"github.com/HendryAvila/codeagent/internal/llm"
	"github.com/HendryAvila/codeagent/internal/metrics"
	"github.com/HendryAvila/codeagent/internal/prompts"
	"github.com/HendryAvila/codeagent/internal/report"
	"github.com/HendryAvila/codeagent/internal/resources"
	"github.com/HendryAvila/codeagent/internal/tools"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Option configures New.
type Option func(*options)

type options struct {
	logger     *slog.Logger
	recorder   *metrics.Recorder
	httpClient *http.Client
	schedule   llm.Schedule
}

// WithLogger sets the logger handed to every component.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithMetrics records into rec instead of a private recorder.
func WithMetrics(rec *metrics.Recorder) Option {
	return func(o *options) {
		o.recorder = rec
	}
}

// WithHTTPClient sets the client used for LLM requests.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) {
		o.httpClient = c
	}
}

// WithSchedule overrides the LLM retry schedule.
func WithSchedule(s llm.Schedule) Option {
	return func(o *options) {
		o.schedule = s
	}
}

// New creates and configures the MCP server with all tools, prompts and
// resources registered. This is the single place where all dependencies
// are resolved.
//
// The returned cleanup function closes the journal and must be called on
// shutdown (typically via defer). It is always non-nil and safe to call
// even if the journal failed to open.
func New(cfg *config.Config, opts ...Option) (*server.MCPServer, func(), error) {
	o := options{
		logger:   slog.Default(),
		schedule: llm.DefaultSchedule,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.recorder == nil {
		o.recorder = metrics.NewRecorder()
	}
	logger := o.logger

	// --- Create shared dependencies ---

	if err := report.CheckViewer(cfg.ViewerPath); err != nil {
		return nil, noop, err
	}

	pool, err := keypool.New(cfg.Keys)
	if err != nil {
		return nil, noop, fmt.Errorf("creating key pool: %w", err)
	}
	logger.Info("Initialized API key rotation", "keys", pool.Len(), "model", cfg.Model)

	engineOpts := []llm.Option{
		llm.WithSchedule(o.schedule),
		llm.WithAttemptTimeout(cfg.AttemptTimeout),
		llm.WithLogger(logger),
		llm.WithRecorder(o.recorder),
	}
	if o.httpClient != nil {
		engineOpts = append(engineOpts, llm.WithHTTPClient(o.httpClient))
	}
	engine, err := llm.NewEngine(llm.Endpoint{BaseURL: cfg.BaseURL, Model: cfg.Model, Keys: pool}, engineOpts...)
	if err != nil {
		return nil, noop, fmt.Errorf("creating query engine: %w", err)
	}

	planner := chains.NewPlanner(engine, cfg.Model)
	generator := report.NewGenerator(cfg.ViewerPath, cfg.CharLimit, report.WithLogger(logger))

	// --- Create the MCP server ---

	s := server.NewMCPServer(
		"codeagent",
		Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithPromptCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	// --- Journal ---
	//
	// The journal is an independent subsystem: if it fails to open, the
	// planning tools keep working without history.

	cleanup := noop
	runnerOpts := []tools.RunnerOption{
		tools.WithObserver(o.recorder),
		tools.WithLogger(logger),
	}

	store, journalErr := journal.New(cfg.DataDir)
	if journalErr != nil {
		logger.Warn("Invocation journal disabled", "error", journalErr)
	} else {
		cleanup = func() {
			if err := store.Close(); err != nil {
				logger.Warn("Closing invocation journal", "error", err)
			}
		}
		runnerOpts = append(runnerOpts, tools.WithJournal(store))
	}

	// --- Register planning tools ---

	runner := tools.NewRunner(generator, runnerOpts...)

	planFeature := tools.NewPlanFeatureTool(runner, planner)
	s.AddTool(planFeature.Definition(), planFeature.Handle)

	planBugFix := tools.NewPlanBugFixTool(runner, planner)
	s.AddTool(planBugFix.Definition(), planBugFix.Handle)

	explainCode := tools.NewExplainCodeTool(runner, planner)
	s.AddTool(explainCode.Definition(), explainCode.Handle)

	planPrompt := prompts.NewPlanPrompt()
	s.AddPrompt(planPrompt.Definition(), planPrompt.Handle)

	if journalErr == nil {
		registerJournal(s, store)
	}

	return s, cleanup, nil
}

// noop is the cleanup function used when there is nothing to close.
func noop() {}

// registerJournal adds the journal-backed tools, prompt and resource.
func registerJournal(s *server.MCPServer, store *journal.Store) {
	history := tools.NewHistoryTool(store)
	s.AddTool(history.Definition(), history.Handle)

	stats := tools.NewStatsTool(store)
	s.AddTool(stats.Definition(), stats.Handle)

	historyPrompt := prompts.NewHistoryPrompt()
	s.AddPrompt(historyPrompt.Definition(), historyPrompt.Handle)

	resourceHandler := resources.NewHandler(store)
	s.AddResource(resourceHandler.RecentResource(), resourceHandler.HandleRecent)
}

// serverInstructions returns the system instructions that tell the AI
// how to use the code agent effectively.
func serverInstructions() string {
	return `You have access to codeagent, an MCP server that plans and explains code
by sending a report of a whole codebase to a large-context model.

## TOOLS

- plan_feature(directory, feature_prompt): a high-level architecture plan followed by
  a detailed implementation guide with file paths and code snippets.
- plan_bug_fix(directory, bug_description): a root-cause analysis followed by a
  remediation plan with before/after code.
- explain_code(directory, explanation_query): the relevant components followed by a
  technical walkthrough.
- invocation_history(limit?, tool?) and invocation_stats: what ran recently and how it went.

## RULES

- directory MUST be an absolute path to an existing directory. Never pass a relative path.
- The codebase report is capped (about 200k characters). For large projects, point
  directory at the subsystem that matters instead of the repository root. A report
  that hits the cap is cut off and the answer will miss whatever was dropped.
- Put error messages, stack traces and reproduction steps into bug_description.
- Each call makes two model requests and may retry on provider errors, so it can take
  several minutes. Do not call the same tool again while one is running.
- Present the returned plan as-is, then summarise the key steps.`
}
