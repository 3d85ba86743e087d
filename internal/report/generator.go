// Package report obtains a textual codebase report from the external
// codebase_viewer executable and bounds it to a character budget before
// it is handed to a prompt chain.
//
// The viewer is treated as a black box: it is invoked as
//
//	codebase_viewer generate --path <dir> --output <file> --all
//
// and must write its report to <file> and exit 0.
package report

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Report is a budgeted codebase report.
type Report struct {
	// Text is the report after budgeting.
	Text string
	// RawChars is the character count before budgeting.
	RawChars int
	// Truncated is true when Text was cut down to the limit.
	Truncated bool
}

// ViewerError is returned when the viewer exits with a non-zero status.
type ViewerError struct {
	ExitCode int
	Stderr   string
}

func (e *ViewerError) Error() string {
	return fmt.Sprintf("codebase_viewer failed with exit status %d: %s", e.ExitCode, e.Stderr)
}

// Generator runs the viewer and budgets its output.
type Generator struct {
	viewerPath string
	limit      int
	tempDir    string
	logger     *slog.Logger
}

// Option configures a Generator.
type Option func(*Generator)

// WithTempDir sets where intermediate report files are written.
func WithTempDir(dir string) Option {
	return func(g *Generator) {
		g.tempDir = dir
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Generator) {
		g.logger = logger
	}
}

// NewGenerator creates a Generator for the viewer at viewerPath. A limit
// of zero or less means DefaultCharLimit.
func NewGenerator(viewerPath string, limit int, opts ...Option) *Generator {
	if limit <= 0 {
		limit = DefaultCharLimit
	}
	g := &Generator{
		viewerPath: viewerPath,
		limit:      limit,
		tempDir:    os.TempDir(),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Limit returns the configured character ceiling.
func (g *Generator) Limit() int {
	return g.limit
}

// Generate produces the budgeted report for dir. The intermediate file
// is always removed.
func (g *Generator) Generate(ctx context.Context, dir string) (*Report, error) {
	out := filepath.Join(g.tempDir, fmt.Sprintf("report-%s.md", uuid.NewString()))
	defer func() { _ = os.Remove(out) }() // best-effort: the file may never have been written

	g.logger.Info("Generating codebase report", "directory", dir, "viewer", g.viewerPath)

	// Stdout is left nil (discarded): the MCP transport owns our stdout.
	cmd := exec.CommandContext(ctx, g.viewerPath, "generate", "--path", dir, "--output", out, "--all")
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && ctx.Err() == nil {
			g.logger.Error("codebase_viewer failed",
				"directory", dir, "exit_code", exitErr.ExitCode(), "stderr", strings.TrimSpace(stderr.String()))
			return nil, &ViewerError{ExitCode: exitErr.ExitCode(), Stderr: strings.TrimSpace(stderr.String())}
		}
		return nil, fmt.Errorf("executing codebase_viewer: %w", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		return nil, fmt.Errorf("reading generated report file: %w", err)
	}

	text := string(data)
	r := &Report{
		RawChars:  utf8.RuneCountInString(text),
		Truncated: Truncated(text, g.limit),
	}
	if r.Truncated {
		g.logger.Warn("Report length exceeds character limit, truncating",
			"directory", dir, "length", r.RawChars, "limit", g.limit)
	}
	r.Text = Budget(text, g.limit)
	return r, nil
}

// CheckViewer verifies that path names an executable regular file.
func CheckViewer(path string) error {
	if strings.TrimSpace(path) == "" {
		return errors.New("codebase viewer path is required")
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("codebase viewer: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("codebase viewer %s is a directory", path)
	}
	if info.Mode().Perm()&0o111 == 0 {
		return fmt.Errorf("codebase viewer %s is not executable", path)
	}
	return nil
}
