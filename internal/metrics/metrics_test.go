package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HendryAvila/codeagent/internal/llm"
)

var _ llm.Recorder = (*Recorder)(nil)

func TestObserveAttempt(t *testing.T) {
	r := NewRecorder()
	r.ObserveAttempt(llm.OutcomeError)
	r.ObserveAttempt(llm.OutcomeError)
	r.ObserveAttempt(llm.OutcomeSuccess)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.attemptsTotal.WithLabelValues(llm.OutcomeError)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.attemptsTotal.WithLabelValues(llm.OutcomeSuccess)))
}

func TestObserveQueryAndChain(t *testing.T) {
	r := NewRecorder()
	r.ObserveQuery(llm.OutcomeSuccess, 3*time.Second)
	r.ObserveChain("plan_feature", "success", 40*time.Second)
	r.ObserveChain("plan_feature", "error", time.Second)

	assert.Equal(t, 1, testutil.CollectAndCount(r.queryDuration))
	assert.Equal(t, 2, testutil.CollectAndCount(r.chainDuration))
}

func TestObserveReport(t *testing.T) {
	r := NewRecorder()
	r.ObserveReport(1200, false)
	r.ObserveReport(500_000, true)

	assert.Equal(t, 1.0, testutil.ToFloat64(r.reportsTrimmed))
	assert.Equal(t, 1, testutil.CollectAndCount(r.reportChars))
}

func TestRecordersAreIndependent(t *testing.T) {
	a, b := NewRecorder(), NewRecorder()
	a.ObserveAttempt(llm.OutcomeSuccess)

	assert.Equal(t, 0.0, testutil.ToFloat64(b.attemptsTotal.WithLabelValues(llm.OutcomeSuccess)))
}

func TestHandler_ExposesMetrics(t *testing.T) {
	r := NewRecorder()
	r.ObserveAttempt(llm.OutcomeNoContent)

	srv := httptest.NewServer(r.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), `codeagent_llm_attempts_total{outcome="no_content"} 1`),
		"exposition should include the attempt counter, got:\n%s", body)
}
