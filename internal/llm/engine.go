// Package llm is the resilient query engine behind every prompt chain.
//
// An Engine sends one system+user turn to an OpenAI-compatible chat
// endpoint. Each attempt draws the next key from a keypool.Pool, and
// transient failures walk a fixed backoff Schedule before a final,
// unretried attempt decides the outcome.
package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sashabaranov/go-openai"

	"github.com/HendryAvila/codeagent/internal/keypool"
)

// DefaultAttemptTimeout bounds a single HTTP attempt.
const DefaultAttemptTimeout = 5 * time.Minute

// Attempt outcomes reported to the Recorder.
const (
	OutcomeSuccess   = "success"
	OutcomeError     = "error"
	OutcomeNoContent = "no_content"
	OutcomeInvalid   = "invalid"
)

// Endpoint is the immutable provider configuration shared by all calls.
type Endpoint struct {
	BaseURL string
	Model   string
	Keys    *keypool.Pool
}

// Turn is one system instruction paired with one user message.
type Turn struct {
	System string
	User   string
}

func (t Turn) validate() error {
	if strings.TrimSpace(t.System) == "" {
		return fmt.Errorf("%w: empty system instruction", ErrInvalidRequest)
	}
	if strings.TrimSpace(t.User) == "" {
		return fmt.Errorf("%w: empty user content", ErrInvalidRequest)
	}
	return nil
}

// Recorder observes engine activity. metrics.Recorder implements it.
type Recorder interface {
	ObserveAttempt(outcome string)
	ObserveQuery(outcome string, d time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) ObserveAttempt(string) {}

func (nopRecorder) ObserveQuery(string, time.Duration) {}

// Engine issues chat completions with key rotation and retry.
type Engine struct {
	endpoint       Endpoint
	schedule       Schedule
	attemptTimeout time.Duration
	httpClient     *http.Client
	logger         *slog.Logger
	recorder       Recorder
	newTimer       func() backoff.Timer
}

// Option configures an Engine.
type Option func(*Engine)

// WithSchedule replaces DefaultSchedule. The slice is copied.
func WithSchedule(s Schedule) Option {
	return func(e *Engine) {
		e.schedule = append(Schedule(nil), s...)
	}
}

// WithAttemptTimeout bounds each HTTP attempt. Zero disables the bound.
func WithAttemptTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.attemptTimeout = d
	}
}

// WithHTTPClient sets the HTTP client used for every attempt.
func WithHTTPClient(c *http.Client) Option {
	return func(e *Engine) {
		e.httpClient = c
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(e *Engine) {
		e.recorder = r
	}
}

// WithTimer overrides the timer used between attempts. Tests use it to
// record delays without sleeping.
func WithTimer(newTimer func() backoff.Timer) Option {
	return func(e *Engine) {
		e.newTimer = newTimer
	}
}

// NewEngine creates an Engine for endpoint.
func NewEngine(endpoint Endpoint, opts ...Option) (*Engine, error) {
	if endpoint.Keys == nil {
		return nil, errors.New("llm: endpoint has no key pool")
	}
	if strings.TrimSpace(endpoint.BaseURL) == "" {
		return nil, errors.New("llm: endpoint base URL is required")
	}

	e := &Engine{
		endpoint:       endpoint,
		schedule:       DefaultSchedule,
		attemptTimeout: DefaultAttemptTimeout,
		logger:         slog.Default(),
		recorder:       nopRecorder{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Model returns the endpoint's default model identifier.
func (e *Engine) Model() string {
	return e.endpoint.Model
}

// Query sends one turn and returns the first choice's text.
//
// An empty model falls back to the endpoint model. Transport and protocol
// failures are retried along the schedule with a freshly rotated key per
// attempt; ErrNoContent and ErrInvalidRequest fail at once.
func (e *Engine) Query(ctx context.Context, model, system, user string) (string, error) {
	turn := Turn{System: system, User: user}
	if err := turn.validate(); err != nil {
		e.recorder.ObserveAttempt(OutcomeInvalid)
		return "", err
	}
	if model == "" {
		model = e.endpoint.Model
	}

	start := time.Now()
	maxTries := e.schedule.Attempts()
	attempt := 0
	var content string

	op := func() error {
		attempt++
		key := e.endpoint.Keys.Next()
		e.logger.Debug("LLM request attempt",
			"attempt", attempt, "max_attempts", maxTries, "model", model)

		text, err := e.complete(ctx, key, model, turn)
		switch {
		case err == nil:
			e.recorder.ObserveAttempt(OutcomeSuccess)
			content = text
			return nil
		case errors.Is(err, ErrNoContent):
			e.recorder.ObserveAttempt(OutcomeNoContent)
			return backoff.Permanent(err)
		default:
			e.recorder.ObserveAttempt(OutcomeError)
			return err
		}
	}

	notify := func(err error, delay time.Duration) {
		e.logger.Warn("LLM request failed, retrying",
			"attempt", attempt, "delay", delay, "error", err)
	}

	var timer backoff.Timer
	if e.newTimer != nil {
		timer = e.newTimer()
	}

	err := backoff.RetryNotifyWithTimer(op, backoff.WithContext(e.schedule.BackOff(), ctx), notify, timer)
	if err != nil {
		outcome := OutcomeError
		if errors.Is(err, ErrNoContent) {
			outcome = OutcomeNoContent
		} else {
			e.logger.Error("LLM request failed after all retries",
				"attempts", attempt, "model", model, "error", err)
		}
		e.recorder.ObserveQuery(outcome, time.Since(start))
		return "", err
	}

	e.recorder.ObserveQuery(OutcomeSuccess, time.Since(start))
	return content, nil
}

// complete performs a single attempt with key.
func (e *Engine) complete(ctx context.Context, key, model string, turn Turn) (string, error) {
	if e.attemptTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.attemptTimeout)
		defer cancel()
	}

	resp, err := e.client(key).CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: turn.System},
			{Role: openai.ChatMessageRoleUser, Content: turn.User},
		},
	})
	if err != nil {
		return "", newAPIError(err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", ErrNoContent
	}
	return resp.Choices[0].Message.Content, nil
}

// client builds a go-openai client bound to one key.
func (e *Engine) client(key string) *openai.Client {
	cfg := openai.DefaultConfig(key)
	cfg.BaseURL = strings.TrimRight(e.endpoint.BaseURL, "/")
	if e.httpClient != nil {
		cfg.HTTPClient = e.httpClient
	}
	return openai.NewClientWithConfig(cfg)
}
