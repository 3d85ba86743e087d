// Package config resolves the server configuration from flags, the
// environment and an optional .env file, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/HendryAvila/codeagent/internal/journal"
	"github.com/HendryAvila/codeagent/internal/keypool"
	"github.com/HendryAvila/codeagent/internal/llm"
	"github.com/HendryAvila/codeagent/internal/report"
)

// Defaults.
const (
	DefaultModel          = "gemini-2.5-pro"
	DefaultBaseURL        = "https://generativelanguage.googleapis.com/v1beta/openai"
	DefaultCharLimit      = report.DefaultCharLimit
	DefaultAttemptTimeout = llm.DefaultAttemptTimeout
	DefaultLogLevel       = "info"
	DefaultDotEnv         = ".env"
)

// Viper keys. Each matches its environment variable once upper-cased.
const (
	KeyViewerPath     = "codebase_viewer_path"
	KeyAPIKeys        = "gemini_api_keys"
	KeyAPIKey         = "gemini_api_key"
	KeyModel          = "gemini_model"
	KeyBaseURL        = "gemini_base_url"
	KeyCharLimit      = "token_char_limit"
	KeyAttemptTimeout = "codeagent_attempt_timeout"
	KeyDataDir        = "codeagent_data_dir"
	KeyMetricsAddr    = "codeagent_metrics_addr"
	KeyLogLevel       = "codeagent_log_level"
)

// flagKeys maps serve flags to the viper keys they override.
var flagKeys = map[string]string{
	"codebase-viewer-path": KeyViewerPath,
	"model":                KeyModel,
	"base-url":             KeyBaseURL,
	"token-char-limit":     KeyCharLimit,
	"attempt-timeout":      KeyAttemptTimeout,
	"data-dir":             KeyDataDir,
	"metrics-addr":         KeyMetricsAddr,
	"log-level":            KeyLogLevel,
}

// Config is the resolved server configuration. It is not modified after
// Load returns.
type Config struct {
	ViewerPath     string
	Keys           []string
	Model          string
	BaseURL        string
	CharLimit      int
	AttemptTimeout time.Duration
	DataDir        string
	MetricsAddr    string
	LogLevel       slog.Level
}

// New returns a viper instance with defaults and environment lookup set
// up.
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault(KeyModel, DefaultModel)
	v.SetDefault(KeyBaseURL, DefaultBaseURL)
	v.SetDefault(KeyCharLimit, DefaultCharLimit)
	v.SetDefault(KeyAttemptTimeout, DefaultAttemptTimeout)
	v.SetDefault(KeyDataDir, journal.DefaultDataDir())
	v.SetDefault(KeyLogLevel, DefaultLogLevel)
	v.AutomaticEnv()
	return v
}

// ReadDotEnv merges KEY=VALUE pairs from path into v. A missing file is
// not an error. Real environment variables still take precedence.
func ReadDotEnv(v *viper.Viper, path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	v.SetConfigFile(path)
	v.SetConfigType("env")
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	return nil
}

// RegisterFlags adds the serve flags to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("codebase-viewer-path", "", "Path to the codebase_viewer executable (env CODEBASE_VIEWER_PATH)")
	fs.String("model", "", "Model name (env GEMINI_MODEL, default "+DefaultModel+")")
	fs.String("base-url", "", "OpenAI-compatible endpoint (env GEMINI_BASE_URL)")
	fs.Int("token-char-limit", 0, "Maximum report characters (env TOKEN_CHAR_LIMIT, default 200000)")
	fs.Duration("attempt-timeout", 0, "Per-attempt request timeout, 0 disables (env CODEAGENT_ATTEMPT_TIMEOUT, default 5m)")
	fs.String("data-dir", "", "Directory for the invocation journal (env CODEAGENT_DATA_DIR)")
	fs.String("metrics-addr", "", "Serve Prometheus metrics on this address (env CODEAGENT_METRICS_ADDR)")
	fs.String("log-level", "", "debug, info, warn or error (env CODEAGENT_LOG_LEVEL)")
}

// BindFlags binds every registered flag present in fs to its key. Only
// flags set on the command line override other sources.
func BindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for name, key := range flagKeys {
		f := fs.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("binding flag %s: %w", name, err)
		}
	}
	return nil
}

// Load resolves and validates the configuration held by v.
func Load(v *viper.Viper) (*Config, error) {
	level, err := ParseLevel(v.GetString(KeyLogLevel))
	if err != nil {
		return nil, err
	}
	timeout, err := time.ParseDuration(strings.TrimSpace(v.GetString(KeyAttemptTimeout)))
	if err != nil {
		return nil, fmt.Errorf("invalid attempt timeout: %w", err)
	}

	cfg := &Config{
		ViewerPath:     strings.TrimSpace(v.GetString(KeyViewerPath)),
		Keys:           keypool.Parse(v.GetString(KeyAPIKeys), v.GetString(KeyAPIKey)),
		Model:          strings.TrimSpace(v.GetString(KeyModel)),
		BaseURL:        strings.TrimSpace(v.GetString(KeyBaseURL)),
		CharLimit:      parseCharLimit(v.GetString(KeyCharLimit)),
		AttemptTimeout: timeout,
		DataDir:        strings.TrimSpace(v.GetString(KeyDataDir)),
		MetricsAddr:    strings.TrimSpace(v.GetString(KeyMetricsAddr)),
		LogLevel:       level,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the hard preconditions for serving.
func (c *Config) Validate() error {
	var errs []error
	if len(c.Keys) == 0 {
		errs = append(errs, errors.New("either GEMINI_API_KEY or GEMINI_API_KEYS must be set"))
	}
	if c.ViewerPath == "" {
		errs = append(errs, errors.New("CODEBASE_VIEWER_PATH must be set via --codebase-viewer-path flag or environment variable"))
	}
	if c.CharLimit <= 0 {
		errs = append(errs, fmt.Errorf("token char limit must be positive, got %d", c.CharLimit))
	}
	if c.AttemptTimeout < 0 {
		errs = append(errs, fmt.Errorf("attempt timeout must not be negative, got %s", c.AttemptTimeout))
	}
	if c.Model == "" {
		errs = append(errs, errors.New("model must not be empty"))
	}
	if c.BaseURL == "" {
		errs = append(errs, errors.New("base URL must not be empty"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}

// ParseLevel maps a level name to a slog.Level. Empty means info.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// parseCharLimit falls back to the default when the value is not an
// integer. An explicit zero or negative number is kept so Validate can
// reject it.
func parseCharLimit(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return DefaultCharLimit
	}
	return n
}
