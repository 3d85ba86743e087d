package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/HendryAvila/codeagent/internal/config"
	"github.com/HendryAvila/codeagent/internal/journal"
	"github.com/HendryAvila/codeagent/internal/metrics"
	agentserver "github.com/HendryAvila/codeagent/internal/server"
	"github.com/HendryAvila/codeagent/internal/tools"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "codeagent",
		Short:         "AI code agent MCP server",
		SilenceUsage:  true,
		SilenceErrors: true,
		Long: `codeagent is an MCP server exposing plan_feature, plan_bug_fix and explain_code.

Configuration is read from flags, then the environment, then a .env file
in the working directory:

  CODEBASE_VIEWER_PATH        path to the codebase_viewer executable (required)
  GEMINI_API_KEYS             comma-separated API keys, rotated per request
  GEMINI_API_KEY              single API key, used when GEMINI_API_KEYS is unset
  GEMINI_MODEL                model name (default ` + config.DefaultModel + `)
  GEMINI_BASE_URL             OpenAI-compatible endpoint
  TOKEN_CHAR_LIMIT            report character ceiling (default 200000)
  CODEAGENT_ATTEMPT_TIMEOUT   per-request timeout, 0 disables (default 5m)
  CODEAGENT_DATA_DIR          invocation journal directory (default ~/.codeagent)
  CODEAGENT_METRICS_ADDR      serve Prometheus metrics on this address
  CODEAGENT_LOG_LEVEL         debug, info, warn or error

Add to your AI tool's MCP config:

  {
    "mcpServers": {
      "codeagent": {
        "command": "codeagent",
        "args": ["serve"]
      }
    }
  }`,
	}

	root.AddCommand(newServeCmd(), newHistoryCmd(), newVersionCmd())
	return root
}

// loadViper builds the layered configuration for cmd.
func loadViper(cmd *cobra.Command) (*viper.Viper, error) {
	v := config.New()
	if err := config.ReadDotEnv(v, config.DefaultDotEnv); err != nil {
		return nil, err
	}
	if err := config.BindFlags(v, cmd.Flags()); err != nil {
		return nil, err
	}
	return v, nil
}

// newLogger writes text logs to w. Stdout belongs to the MCP transport,
// so callers pass stderr.
func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server (stdio transport)",
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := loadViper(cmd)
			if err != nil {
				return err
			}
			cfg, err := config.Load(v)
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg, os.Stdin, os.Stdout, cmd.ErrOrStderr())
		},
	}
	config.RegisterFlags(cmd.Flags())
	return cmd
}

func runServe(parent context.Context, cfg *config.Config, stdin io.Reader, stdout, stderr io.Writer) error {
	logger := newLogger(stderr, cfg.LogLevel)
	slog.SetDefault(logger)

	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	rec := metrics.NewRecorder()
	s, cleanup, err := agentserver.New(cfg, agentserver.WithLogger(logger), agentserver.WithMetrics(rec))
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}
	defer cleanup()

	if cfg.MetricsAddr != "" {
		go func() {
			logger.Info("Serving metrics", "addr", cfg.MetricsAddr)
			if err := rec.Serve(ctx, cfg.MetricsAddr); err != nil {
				logger.Error("Metrics server stopped", "error", err)
			}
		}()
	}

	logger.Info("Starting code agent MCP server", "version", agentserver.Version, "model", cfg.Model)

	stdio := server.NewStdioServer(s)
	stdio.SetErrorLogger(slog.NewLogLogger(logger.Handler(), slog.LevelError))
	if err := stdio.Listen(ctx, stdin, stdout); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	logger.Info("Server shut down")
	return nil
}

func newHistoryCmd() *cobra.Command {
	var (
		limit int
		tool  string
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Print recent tool invocations from the journal",
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := loadViper(cmd)
			if err != nil {
				return err
			}
			return runHistory(cmd.OutOrStdout(), v.GetString(config.KeyDataDir), journal.RecentOptions{Tool: tool, Limit: limit})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", journal.DefaultRecentLimit, "Maximum entries to print")
	cmd.Flags().StringVar(&tool, "tool", "", "Only show invocations of this tool")
	cmd.Flags().String("data-dir", "", "Directory holding the invocation journal (env CODEAGENT_DATA_DIR)")
	return cmd
}

func runHistory(w io.Writer, dataDir string, opts journal.RecentOptions) error {
	store, err := journal.New(dataDir)
	if err != nil {
		return err
	}
	defer store.Close()

	invocations, err := store.Recent(opts)
	if err != nil {
		return err
	}
	if len(invocations) == 0 {
		_, err := fmt.Fprintln(w, "No invocations recorded yet.")
		return err
	}
	_, err = fmt.Fprint(w, tools.FormatHistory(invocations))
	return err
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "codeagent v%s\n", agentserver.Version)
		},
	}
}
