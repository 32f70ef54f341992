package assess_test

import (
	"bytes"
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HendryAvila/dentcheck/internal/assess"
	"github.com/HendryAvila/dentcheck/internal/engine"
	"github.com/HendryAvila/dentcheck/internal/metrics"
	"github.com/HendryAvila/dentcheck/internal/rules"
	"github.com/HendryAvila/dentcheck/internal/store"
)

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	store   *store.Store
	svc     *assess.Service
	reg     *prometheus.Registry
	logs    *bytes.Buffer
	setID   int64
	crownID int64
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	s, err := store.New(store.Config{DataDir: t.TempDir(), DBFile: "rules.db"})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	setID, err := s.CreateRuleSet(rules.RuleSet{Name: "B787 dents", AircraftFamily: "B787", Revision: "R12"})
	require.NoError(t, err)
	crownID, err := s.AddRule(rules.Rule{
		RuleSetID:     setID,
		Enabled:       true,
		DamageType:    "dent",
		Structure:     "skin",
		StructureZone: "crown",
		Station:       rules.Bounds(rules.Ptr(400.0), rules.Ptr(600.0)),
		Limits: []rules.Limit{
			{Key: "max_depth_to_thickness", Op: rules.OpMax, Measure: rules.MeasureDepthToThickness, Threshold: 0.5},
		},
		SRMRef: "53-00-01 Fig 201",
	})
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	var logs bytes.Buffer
	svc := assess.New(s, engine.New(engine.Options{}), assess.Options{
		Logger:  zerolog.New(&logs),
		Metrics: metrics.New(reg),
		Now:     func() time.Time { return fixedNow },
	})
	return &fixture{store: s, svc: svc, reg: reg, logs: &logs, setID: setID, crownID: crownID}
}

func crownRequest(depth float64) rules.DentAssessmentRequest {
	return rules.DentAssessmentRequest{
		AircraftFamily: "B787",
		DamageType:     "dent",
		Structure:      "skin",
		StructureZone:  "crown",
		Station:        rules.Ptr(500.0),
		Depth:          rules.Ptr(depth),
		Thickness:      rules.Ptr(2.0),
	}
}

func TestAssess_WithinLimits(t *testing.T) {
	f := newFixture(t)

	report, err := f.svc.Assess(f.setID, crownRequest(1.0))
	require.NoError(t, err)

	assert.Equal(t, engine.StatusWithinLimits, report.Status)
	require.NotNil(t, report.RuleID)
	assert.Equal(t, f.crownID, *report.RuleID)
	assert.Equal(t, f.setID, report.RuleSetID)
	assert.Equal(t, fixedNow, report.EvaluatedAt)
	_, err = uuid.Parse(report.AssessmentID)
	assert.NoError(t, err, "assessment id is a UUID")

	expected := `
# HELP dentcheck_assessments_total Total dent assessments by report status
# TYPE dentcheck_assessments_total counter
dentcheck_assessments_total{status="within-limits"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(f.reg, strings.NewReader(expected), "dentcheck_assessments_total"))
	assert.Contains(t, f.logs.String(), `"message":"assessment complete"`)
	assert.Contains(t, f.logs.String(), `"status":"within-limits"`)
}

func TestAssess_UniqueAssessmentIDs(t *testing.T) {
	f := newFixture(t)
	a, err := f.svc.Assess(f.setID, crownRequest(1.0))
	require.NoError(t, err)
	b, err := f.svc.Assess(f.setID, crownRequest(1.0))
	require.NoError(t, err)
	assert.NotEqual(t, a.AssessmentID, b.AssessmentID)
}

func TestAssess_OutsideLimits(t *testing.T) {
	f := newFixture(t)
	report, err := f.svc.Assess(f.setID, crownRequest(1.6))
	require.NoError(t, err)
	assert.Equal(t, engine.StatusOutsideLimits, report.Status)
	assert.Equal(t, rules.DispositionEngineeringReview, report.Disposition)
}

func TestAssess_NoRuleFoundIsAReport(t *testing.T) {
	f := newFixture(t)
	req := crownRequest(1.0)
	req.Station = rules.Ptr(700.0)

	report, err := f.svc.Assess(f.setID, req)
	require.NoError(t, err)
	assert.Equal(t, engine.StatusNoRuleFound, report.Status)
	assert.Nil(t, report.RuleID)
	assert.NotEmpty(t, report.AssessmentID)
}

func TestAssess_InvalidRequest(t *testing.T) {
	f := newFixture(t)
	req := crownRequest(1.0)
	req.StructureZone = ""

	_, err := f.svc.Assess(f.setID, req)
	require.Error(t, err)
	assert.ErrorIs(t, err, rules.ErrInvalidRule)
	assert.False(t, rules.IsConfigError(err))
}

func TestAssess_UnknownRuleSet(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Assess(f.setID+100, crownRequest(1.0))
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestAssess_ConfigErrorIsCountedAndLogged(t *testing.T) {
	f := newFixture(t)
	db, err := sql.Open("sqlite", f.store.Path())
	require.NoError(t, err)
	defer db.Close()
	_, err = db.Exec(`UPDATE rules SET limits_json = '{"depth_mm": 3}' WHERE id = ?`, f.crownID)
	require.NoError(t, err)

	_, err = f.svc.Assess(f.setID, crownRequest(1.0))
	require.Error(t, err)
	assert.True(t, rules.IsConfigError(err))

	expected := `
# HELP dentcheck_config_errors_total Total assessments aborted by a rule configuration error
# TYPE dentcheck_config_errors_total counter
dentcheck_config_errors_total 1
`
	assert.NoError(t, testutil.GatherAndCompare(f.reg, strings.NewReader(expected), "dentcheck_config_errors_total"))
	assert.Contains(t, f.logs.String(), "rule configuration error")
}

func TestAssessLatest(t *testing.T) {
	f := newFixture(t)
	newer, err := f.store.CreateRuleSet(rules.RuleSet{Name: "B787 dents", AircraftFamily: "B787", Revision: "R13"})
	require.NoError(t, err)

	t.Run("newest rule set wins", func(t *testing.T) {
		report, err := f.svc.AssessLatest("B787", "", crownRequest(1.0))
		require.NoError(t, err)
		assert.Equal(t, newer, report.RuleSetID)
		assert.Equal(t, engine.StatusNoRuleFound, report.Status, "R13 has no rules yet")
	})

	t.Run("revision pin", func(t *testing.T) {
		report, err := f.svc.AssessLatest("B787", "R12", crownRequest(1.0))
		require.NoError(t, err)
		assert.Equal(t, f.setID, report.RuleSetID)
		assert.Equal(t, engine.StatusWithinLimits, report.Status)
	})

	t.Run("family from request", func(t *testing.T) {
		report, err := f.svc.AssessLatest("", "R12", crownRequest(1.0))
		require.NoError(t, err)
		assert.Equal(t, f.setID, report.RuleSetID)
	})

	t.Run("unknown family", func(t *testing.T) {
		_, err := f.svc.AssessLatest("A350", "", crownRequest(1.0))
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("no family anywhere", func(t *testing.T) {
		req := crownRequest(1.0)
		req.AircraftFamily = ""
		_, err := f.svc.AssessLatest("", "", req)
		assert.ErrorIs(t, err, assess.ErrNoFamily)
	})
}

func TestFamily_FallsBackToDefault(t *testing.T) {
	svc := assess.New(nil, engine.New(engine.Options{}), assess.Options{DefaultFamily: " B787 "})
	assert.Equal(t, "B787", svc.Family("", rules.DentAssessmentRequest{}))
	assert.Equal(t, "A350", svc.Family("", rules.DentAssessmentRequest{AircraftFamily: "A350"}))
	assert.Equal(t, "B777", svc.Family("B777", rules.DentAssessmentRequest{AircraftFamily: "A350"}))
}
