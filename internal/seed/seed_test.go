package seed_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HendryAvila/dentcheck/internal/rules"
	"github.com/HendryAvila/dentcheck/internal/seed"
	"github.com/HendryAvila/dentcheck/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New(store.Config{DataDir: t.TempDir(), DBFile: "rules.db"})
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func writeSeed(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestFormatFor(t *testing.T) {
	assert.Equal(t, seed.FormatYAML, seed.FormatFor("rules.yaml"))
	assert.Equal(t, seed.FormatYAML, seed.FormatFor("RULES.YML"))
	assert.Equal(t, seed.FormatJSON, seed.FormatFor("rules.json"))
	assert.Equal(t, seed.FormatJSON, seed.FormatFor("rules"))
}

func TestLoad_JSON(t *testing.T) {
	f, err := seed.Load("testdata/b787_dents.json")
	require.NoError(t, err)

	assert.Equal(t, "B787", f.RuleSet.AircraftFamily)
	assert.Equal(t, "R12", f.RuleSet.Revision)
	assert.Equal(t, "2024-03-01", f.RuleSet.EffectiveDate)
	require.Len(t, f.Rules, 2)

	crown := f.Rules[0]
	assert.True(t, crown.Enabled, "enabled defaults to true")
	assert.Equal(t, 10, crown.Priority)
	assert.Equal(t, rules.SideLH, crown.Side)
	assert.Equal(t, 400.0, *crown.Station.Min)
	assert.Equal(t, 600.0, *crown.Station.Max)
	require.NotNil(t, crown.Pressurized)
	assert.True(t, *crown.Pressurized, "1 decodes as true")
	assert.True(t, crown.Conditions.RequiresNoVisibleCrack)
	require.Len(t, crown.Limits, 2)
	assert.Equal(t, "max_depth_to_thickness", crown.Limits[0].Key)
	assert.Equal(t, rules.MeasureDiameter, crown.Limits[1].Measure)
	assert.Equal(t, "ALLOWABLE_NO_REPAIR", crown.Actions.WithinLimits.Disposition)
	assert.Equal(t, rules.DispositionEngineeringReview, crown.Actions.OutsideLimits.Disposition)
	assert.Equal(t, rules.SeverityAllow, crown.Severity)
	assert.Equal(t, []string{"crown", "Pressurized"}, crown.Tags)

	stringers := f.Rules[1]
	assert.False(t, stringers.Enabled)
	assert.Equal(t, 0, stringers.Priority)
	assert.Equal(t, rules.SideAny, stringers.Side, "side defaults to ANY")
	assert.Equal(t, rules.SeverityEngineering, stringers.Severity, "severity defaults to engineering")
	assert.Equal(t, 8, *stringers.Stringer.Min)
	assert.Nil(t, stringers.Pressurized)
	assert.Equal(t, "REPAIR_REQUIRED", stringers.Actions.OutsideLimits.Disposition)
	assert.Equal(t, rules.DispositionEngineeringReview, stringers.Actions.Indeterminate.Disposition)
}

func TestLoad_YAML(t *testing.T) {
	f, err := seed.Load("testdata/b787_dents.yaml")
	require.NoError(t, err)

	assert.Equal(t, "R13", f.RuleSet.Revision)
	require.Len(t, f.Rules, 1)
	r := f.Rules[0]
	assert.Equal(t, rules.SideRH, r.Side, "side is normalized")
	assert.Equal(t, 250.5, *r.Waterline.Max)
	assert.Nil(t, r.Station.Min)
	require.Len(t, r.Conditions.Matches, 1)
	assert.Equal(t, "near_fastener_row", r.Conditions.Matches[0].Field)
	assert.Equal(t, false, r.Conditions.Matches[0].Equals)
	require.Len(t, r.Conditions.AllowIf, 1)
	assert.Equal(t, rules.CompareOp(">="), r.Conditions.AllowIf[0].Op)
	assert.Equal(t, "MEASURE_AGAIN", r.Actions.Indeterminate.Disposition)
	assert.Equal(t, []string{"Measure skin thickness at the dent."}, r.Actions.Indeterminate.NextSteps)
	assert.Equal(t, rules.SeverityRepair, r.Severity)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := seed.Load(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{
			name:    "missing rule_set",
			content: `{"rules": []}`,
			want:    "RuleSet",
		},
		{
			name:    "missing rules",
			content: `{"rule_set": {"name": "n", "aircraft_family": "B787", "revision": "R1"}}`,
			want:    "Rules",
		},
		{
			name:    "rule set without revision",
			content: `{"rule_set": {"name": "n", "aircraft_family": "B787"}, "rules": []}`,
			want:    "Revision",
		},
		{
			name: "rule without structure_zone",
			content: `{"rule_set": {"name": "n", "aircraft_family": "B787", "revision": "R1"},
				"rules": [{"damage_type": "dent", "structure": "skin"}]}`,
			want: "rules[0]",
		},
		{
			name: "unsupported limit key",
			content: `{"rule_set": {"name": "n", "aircraft_family": "B787", "revision": "R1"},
				"rules": [{"damage_type": "dent", "structure": "skin", "structure_zone": "crown",
				"limits": {"depth_mm": 3}}]}`,
			want: "unsupported limit key",
		},
		{
			name: "bad enabled flag",
			content: `{"rule_set": {"name": "n", "aircraft_family": "B787", "revision": "R1"},
				"rules": [{"enabled": "yes", "damage_type": "dent", "structure": "skin", "structure_zone": "crown"}]}`,
			want: "expected true, false, 0 or 1",
		},
		{
			name: "inverted station range",
			content: `{"rule_set": {"name": "n", "aircraft_family": "B787", "revision": "R1"},
				"rules": [{"damage_type": "dent", "structure": "skin", "structure_zone": "crown",
				"sta_min": 600, "sta_max": 400}]}`,
			want: "min > max",
		},
		{
			name: "invalid side",
			content: `{"rule_set": {"name": "n", "aircraft_family": "B787", "revision": "R1"},
				"rules": [{"damage_type": "dent", "structure": "skin", "structure_zone": "crown", "side": "UP"}]}`,
			want: "invalid side",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := seed.Parse([]byte(tt.content), seed.FormatJSON)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParse_LimitErrorIsConfigError(t *testing.T) {
	_, err := seed.Parse([]byte(`{"rule_set": {"name": "n", "aircraft_family": "B787", "revision": "R1"},
		"rules": [{"damage_type": "dent", "structure": "skin", "structure_zone": "crown",
		"limits": {"max_bogus": 1}}]}`), seed.FormatJSON)
	require.Error(t, err)
	assert.True(t, rules.IsConfigError(err))
	assert.ErrorIs(t, err, rules.ErrInvalidRule)
}

func TestParse_BadYAML(t *testing.T) {
	_, err := seed.Parse([]byte("rule_set: [unterminated"), seed.FormatYAML)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode yaml")
}

func TestApply_InsertsRuleSetAndRules(t *testing.T) {
	s := newTestStore(t)
	f, err := seed.Load("testdata/b787_dents.json")
	require.NoError(t, err)

	res, err := seed.Apply(s, f, seed.Options{})
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.Equal(t, 2, res.Inserted)
	assert.Equal(t, 2, res.Total)

	got, err := s.ListRules(res.RuleSetID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, []string{"crown", "pressurized"}, got[0].Tags, "tags are normalized")
}

func TestApply_UpsertAndWipe(t *testing.T) {
	s := newTestStore(t)
	f, err := seed.Load("testdata/b787_dents.json")
	require.NoError(t, err)

	first, err := seed.Apply(s, f, seed.Options{UpsertRuleSet: true})
	require.NoError(t, err)

	again, err := seed.Apply(s, f, seed.Options{UpsertRuleSet: true})
	require.NoError(t, err)
	assert.Equal(t, first.RuleSetID, again.RuleSetID)
	assert.False(t, again.Created)
	assert.Equal(t, 4, again.Total, "without wipe rules accumulate")

	wiped, err := seed.Apply(s, f, seed.Options{UpsertRuleSet: true, WipeRules: true})
	require.NoError(t, err)
	assert.Equal(t, first.RuleSetID, wiped.RuleSetID)
	assert.Equal(t, int64(4), wiped.Wiped)
	assert.Equal(t, 2, wiped.Total)
}

func TestApply_WithoutUpsertCreatesNewRuleSet(t *testing.T) {
	s := newTestStore(t)
	f, err := seed.Load("testdata/b787_dents.json")
	require.NoError(t, err)

	a, err := seed.Apply(s, f, seed.Options{})
	require.NoError(t, err)
	b, err := seed.Apply(s, f, seed.Options{WipeRules: true})
	require.NoError(t, err)
	assert.NotEqual(t, a.RuleSetID, b.RuleSetID)
	assert.Equal(t, 2, b.Total)
}

func TestLoad_FromTempFile(t *testing.T) {
	path := writeSeed(t, "tiny.yml", `
rule_set: {name: tiny, aircraft_family: B787, revision: R1}
rules:
  - {damage_type: dent, structure: skin, structure_zone: crown, enabled: 0}
`)
	f, err := seed.Load(path)
	require.NoError(t, err)
	require.Len(t, f.Rules, 1)
	assert.False(t, f.Rules[0].Enabled)
}

// ─── Request files ───────────────────────────────────────────────────────────

func TestLoadRequest_JSONAndYAML(t *testing.T) {
	jsonPath := writeSeed(t, "req.json", `{
  "aircraft_family": "B787",
  "damage_type": "dent", "structure": "skin", "structure_zone": "fuselage",
  "side": "lh", "station": 1280, "stringer": 10,
  "depth_mm": 3, "diameter_mm": 25, "visible_crack": false
}`)
	yamlPath := writeSeed(t, "req.yaml", `
aircraft_family: B787
damage_type: dent
structure: skin
structure_zone: fuselage
side: lh
station: 1280
stringer: 10
depth_mm: 3
diameter_mm: 25
visible_crack: false
`)

	fromJSON, err := seed.LoadRequest(jsonPath)
	require.NoError(t, err)
	fromYAML, err := seed.LoadRequest(yamlPath)
	require.NoError(t, err)

	assert.Equal(t, fromJSON, fromYAML)
	require.NotNil(t, fromJSON.Stringer)
	assert.Equal(t, 10, *fromJSON.Stringer)
	require.NotNil(t, fromJSON.VisibleCrack)
	assert.False(t, *fromJSON.VisibleCrack)
	assert.Nil(t, fromJSON.Thickness)
}

func TestLoadRequest_Errors(t *testing.T) {
	_, err := seed.LoadRequest(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	unknown := writeSeed(t, "req.json", `{"damage_type": "dent", "depth": 3}`)
	_, err = seed.LoadRequest(unknown)
	assert.ErrorContains(t, err, "unknown field")
}
