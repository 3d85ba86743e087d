// Package metrics provides Prometheus instrumentation for LLM attempts,
// prompt chains and codebase reports.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder holds the server's collectors on a private registry so tests
// and multiple servers in one process never collide.
type Recorder struct {
	registry *prometheus.Registry

	attemptsTotal  *prometheus.CounterVec
	queryDuration  *prometheus.HistogramVec
	chainDuration  *prometheus.HistogramVec
	reportChars    prometheus.Histogram
	reportsTrimmed prometheus.Counter
}

// NewRecorder creates a Recorder with its own registry.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		attemptsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "codeagent_llm_attempts_total",
				Help: "Total number of LLM request attempts by outcome",
			},
			[]string{"outcome"},
		),
		queryDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "codeagent_llm_query_duration_seconds",
				Help:    "Duration of LLM queries including retries, in seconds",
				Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
			},
			[]string{"outcome"},
		),
		chainDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "codeagent_chain_duration_seconds",
				Help:    "Duration of a full tool invocation, in seconds",
				Buckets: []float64{5, 15, 30, 60, 120, 300, 600, 1200},
			},
			[]string{"tool", "status"},
		),
		reportChars: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "codeagent_report_chars",
				Help:    "Character count of generated codebase reports before budgeting",
				Buckets: prometheus.ExponentialBuckets(1000, 4, 8),
			},
		),
		reportsTrimmed: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "codeagent_reports_truncated_total",
				Help: "Total number of codebase reports cut down to the character limit",
			},
		),
	}
}

// ObserveAttempt counts one LLM request attempt.
func (r *Recorder) ObserveAttempt(outcome string) {
	r.attemptsTotal.WithLabelValues(outcome).Inc()
}

// ObserveQuery records the duration of a whole query, retries included.
func (r *Recorder) ObserveQuery(outcome string, d time.Duration) {
	r.queryDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

// ObserveChain records the duration of one tool invocation.
func (r *Recorder) ObserveChain(tool, status string, d time.Duration) {
	r.chainDuration.WithLabelValues(tool, status).Observe(d.Seconds())
}

// ObserveReport records a report's raw size and whether it was truncated.
func (r *Recorder) ObserveReport(chars int, truncated bool) {
	r.reportChars.Observe(float64(chars))
	if truncated {
		r.reportsTrimmed.Inc()
	}
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is cancelled.
func (r *Recorder) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", r.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
