package metrics_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HendryAvila/dentcheck/internal/engine"
	"github.com/HendryAvila/dentcheck/internal/metrics"
	"github.com/HendryAvila/dentcheck/internal/rules"
)

func TestObserveReport(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	m.ObserveReport(engine.Report{
		Status: engine.StatusOutsideLimits,
		Checks: []engine.CheckResult{
			{Key: "max_depth_mm", Outcome: rules.OutcomePass},
			{Key: "max_diameter_mm", Outcome: rules.OutcomeFail},
		},
	}, 3*time.Millisecond)
	m.ObserveReport(engine.Report{Status: engine.StatusNoRuleFound}, time.Millisecond)
	m.ObserveConfigError()

	count, err := testutil.GatherAndCount(reg, "dentcheck_assessments_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count, "one series per status")

	expected := `
# HELP dentcheck_limit_checks_total Total limit checks of winning rules by outcome
# TYPE dentcheck_limit_checks_total counter
dentcheck_limit_checks_total{outcome="fail"} 1
dentcheck_limit_checks_total{outcome="pass"} 1
# HELP dentcheck_config_errors_total Total assessments aborted by a rule configuration error
# TYPE dentcheck_config_errors_total counter
dentcheck_config_errors_total 1
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"dentcheck_limit_checks_total", "dentcheck_config_errors_total"))

	hist, err := testutil.GatherAndCount(reg, "dentcheck_assessment_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, hist)
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *metrics.Metrics
	assert.NotPanics(t, func() {
		m.ObserveReport(engine.Report{Status: engine.StatusWithinLimits}, time.Second)
		m.ObserveConfigError()
	})
}

func TestNewServer(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics.New(reg).ObserveReport(engine.Report{Status: engine.StatusWithinLimits}, time.Millisecond)

	srv := metrics.NewServer(":0", reg)
	assert.Equal(t, ":0", srv.Addr)

	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	rec = httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `dentcheck_assessments_total{status="within-limits"} 1`)
}
