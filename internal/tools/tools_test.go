package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/dentcheck/internal/assess"
	"github.com/HendryAvila/dentcheck/internal/engine"
	"github.com/HendryAvila/dentcheck/internal/rules"
	"github.com/HendryAvila/dentcheck/internal/store"
)

// --- Test helpers ---

// newTestStore creates a rule store in a temp directory for testing.
func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New(store.Config{DataDir: t.TempDir(), DBFile: "rules.db"})
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// seedCrown creates a B787 rule set with one crown dent rule.
func seedCrown(t *testing.T, s *store.Store) (setID, ruleID int64) {
	t.Helper()
	setID, err := s.CreateRuleSet(rules.RuleSet{Name: "B787 dents", AircraftFamily: "B787", Revision: "R12", EffectiveDate: "2024-03-01"})
	if err != nil {
		t.Fatalf("setup: create rule set: %v", err)
	}
	ruleID, err = s.AddRule(rules.Rule{
		RuleSetID:     setID,
		Enabled:       true,
		Priority:      10,
		DamageType:    "dent",
		Structure:     "skin",
		StructureZone: "fuselage",
		Station:       rules.Bounds(rules.Ptr(1000.0), rules.Ptr(1500.0)),
		Limits: []rules.Limit{
			{Key: "max_depth_to_thickness", Op: rules.OpMax, Measure: rules.MeasureDepthToThickness, Threshold: 0.5},
			{Key: "max_diameter_mm", Op: rules.OpMax, Measure: rules.MeasureDiameter, Threshold: 50},
		},
		SRMRef: "53-00-01 Fig 201",
		Tags:   []string{"crown"},
	})
	if err != nil {
		t.Fatalf("setup: add rule: %v", err)
	}
	return setID, ruleID
}

// makeReq builds a mcp.CallToolRequest with the given arguments.
func makeReq(args map[string]interface{}) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

// resultText extracts the text content from a tool result.
func resultText(r *mcp.CallToolResult) string {
	if r == nil || len(r.Content) == 0 {
		return ""
	}
	for _, c := range r.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func hasRequired(def mcp.Tool, name string) bool {
	for _, r := range def.InputSchema.Required {
		if r == name {
			return true
		}
	}
	return false
}

// fakeAssessor records the last call and returns a canned result.
type fakeAssessor struct {
	report    engine.Report
	err       error
	ruleSetID int64
	family    string
	revision  string
	req       rules.DentAssessmentRequest
}

func (f *fakeAssessor) Assess(id int64, req rules.DentAssessmentRequest) (engine.Report, error) {
	f.ruleSetID, f.req = id, req
	return f.report, f.err
}

func (f *fakeAssessor) AssessLatest(family, revision string, req rules.DentAssessmentRequest) (engine.Report, error) {
	f.family, f.revision, f.req = family, revision, req
	return f.report, f.err
}

// --- Definitions ---

func TestDefinitions(t *testing.T) {
	s := newTestStore(t)
	tests := []struct {
		def      mcp.Tool
		name     string
		required []string
		props    []string
	}{
		{NewAssessTool(&fakeAssessor{}).Definition(), "dent_assess", nil,
			[]string{"rule_set_id", "description", "depth_mm", "thickness_mm", "station", "visible_crack", "side"}},
		{NewDescribeTool().Definition(), "dent_parse_description", []string{"text"}, []string{"text"}},
		{NewRuleSetsListTool(s).Definition(), "rule_sets_list", nil, []string{"aircraft_family"}},
		{NewRuleGetTool(s).Definition(), "rule_get", []string{"rule_id"}, []string{"rule_id"}},
		{NewRulesSearchTool(s).Definition(), "rules_search", nil, []string{"tag", "rule_set_id", "limit"}},
		{NewRuleTagTool(s).Definition(), "rule_tag", []string{"rule_id", "tags"}, []string{"remove"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.def.Name != tt.name {
				t.Errorf("tool name = %q, want %q", tt.def.Name, tt.name)
			}
			for _, p := range tt.props {
				if _, ok := tt.def.InputSchema.Properties[p]; !ok {
					t.Errorf("missing %q parameter", p)
				}
			}
			for _, r := range tt.required {
				if !hasRequired(tt.def, r) {
					t.Errorf("%q should be required", r)
				}
			}
		})
	}
}

// --- dent_assess ---

func TestAssessTool_ArgumentsBuildRequest(t *testing.T) {
	fake := &fakeAssessor{report: engine.Report{Status: engine.StatusNoRuleFound}}
	tool := NewAssessTool(fake)

	result, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{
		"rule_set_id":    float64(3),
		"damage_type":    "dent",
		"structure":      "skin",
		"structure_zone": "fuselage",
		"side":           "lh",
		"station":        float64(1280),
		"stringer":       float64(10),
		"depth_mm":       float64(1.5),
		"thickness_mm":   float64(2),
		"visible_crack":  false,
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %s", resultText(result))
	}
	if fake.ruleSetID != 3 {
		t.Errorf("rule set = %d, want 3", fake.ruleSetID)
	}
	r := fake.req
	if r.StructureZone != "fuselage" || r.Side != "lh" {
		t.Errorf("zone/side = %q/%q", r.StructureZone, r.Side)
	}
	if r.Station == nil || *r.Station != 1280 {
		t.Errorf("station = %v, want 1280", r.Station)
	}
	if r.Stringer == nil || *r.Stringer != 10 {
		t.Errorf("stringer = %v, want 10", r.Stringer)
	}
	if r.VisibleCrack == nil || *r.VisibleCrack {
		t.Errorf("visible_crack = %v, want false", r.VisibleCrack)
	}
	if r.Diameter != nil {
		t.Errorf("diameter should be unset, got %v", *r.Diameter)
	}
}

func TestAssessTool_DescriptionWithOverrides(t *testing.T) {
	fake := &fakeAssessor{report: engine.Report{Status: engine.StatusNoRuleFound}}
	tool := NewAssessTool(fake)

	_, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{
		"description":  "B787, fuselage, LH side, STA 1280, S-10L, skin dent 25mm dia, 3mm depth, no visible crack.",
		"depth_mm":     float64(1.2),
		"thickness_mm": float64(2.4),
		"revision":     "R12",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fake.family != "" || fake.revision != "R12" {
		t.Errorf("AssessLatest(%q, %q), want family from request and revision R12", fake.family, fake.revision)
	}
	r := fake.req
	if r.AircraftFamily != "B787" {
		t.Errorf("aircraft family = %q, want B787 (parsed)", r.AircraftFamily)
	}
	if *r.Depth != 1.2 {
		t.Errorf("depth = %v, want explicit 1.2 to override parsed 3", *r.Depth)
	}
	if *r.Diameter != 25 {
		t.Errorf("diameter = %v, want parsed 25", *r.Diameter)
	}
	if *r.Thickness != 2.4 {
		t.Errorf("thickness = %v, want 2.4", *r.Thickness)
	}
}

func TestAssessTool_Errors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"config error", fmt.Errorf("assess: %w", &rules.ConfigError{RuleID: 7, Key: "depth_mm", Reason: "unsupported limit key"}), "rule configuration error"},
		{"no family", fmt.Errorf("assess: %w", assess.ErrNoFamily), "pass rule_set_id or aircraft_family"},
		{"unknown rule set", fmt.Errorf("assess: store: rule_set 9: %w", store.ErrNotFound), "rule set not found"},
		{"invalid request", fmt.Errorf("assess: %w: request: structure_zone", rules.ErrInvalidRule), "invalid request"},
		{"other", errors.New("disk I/O error"), "assessment failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tool := NewAssessTool(&fakeAssessor{err: tt.err})
			result, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{"rule_set_id": float64(1)}))
			if err != nil {
				t.Fatalf("unexpected Go error: %v", err)
			}
			if !result.IsError {
				t.Fatal("expected tool error")
			}
			if text := resultText(result); !strings.Contains(text, tt.want) {
				t.Errorf("error text %q does not contain %q", text, tt.want)
			}
		})
	}
}

func TestAssessTool_FractionalStringerRejected(t *testing.T) {
	fake := &fakeAssessor{report: engine.Report{Status: engine.StatusWithinLimits}}
	tool := NewAssessTool(fake)

	result, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{
		"rule_set_id": float64(1),
		"stringer":    10.7,
	}))
	if err != nil {
		t.Fatalf("unexpected Go error: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected tool error for stringer 10.7")
	}
	if text := resultText(result); !strings.Contains(text, "stringer must be a whole number") {
		t.Errorf("unexpected error text: %s", text)
	}
	if fake.ruleSetID != 0 {
		t.Error("assessor must not be called with a truncated stringer")
	}

	result, err = tool.Handle(context.Background(), makeReq(map[string]interface{}{
		"rule_set_id": float64(1),
		"stringer":    float64(10),
	}))
	if err != nil || result.IsError {
		t.Fatalf("whole stringer should be accepted: %v %s", err, resultText(result))
	}
	if fake.req.Stringer == nil || *fake.req.Stringer != 10 {
		t.Errorf("Stringer = %v, want 10", fake.req.Stringer)
	}
}

func TestAssessTool_EndToEnd(t *testing.T) {
	s := newTestStore(t)
	setID, ruleID := seedCrown(t, s)
	svc := assess.New(s, engine.New(engine.Options{}), assess.Options{
		Now: func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) },
	})
	tool := NewAssessTool(svc)

	args := map[string]interface{}{
		"description":  "B787, fuselage, LH side, STA 1280, S-10L, skin dent 25mm dia, 0.9mm depth, no visible crack.",
		"thickness_mm": float64(2),
	}

	result, err := tool.Handle(context.Background(), makeReq(args))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	text := resultText(result)
	if result.IsError {
		t.Fatalf("unexpected tool error: %s", text)
	}
	if !strings.Contains(text, fmt.Sprintf("WITHIN the configured limits of rule #%d", ruleID)) {
		t.Errorf("summary missing verdict:\n%s", text)
	}
	if !strings.Contains(text, "Assessment ID:") || !strings.Contains(text, "2024-05-01T12:00:00Z") {
		t.Errorf("summary missing assessment footer:\n%s", text)
	}

	args["format"] = "json"
	args["depth_mm"] = float64(1.4)
	result, err = tool.Handle(context.Background(), makeReq(args))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var report engine.Report
	if err := json.Unmarshal([]byte(resultText(result)), &report); err != nil {
		t.Fatalf("json output: %v\n%s", err, resultText(result))
	}
	if report.Status != engine.StatusOutsideLimits {
		t.Errorf("status = %s, want outside-limits", report.Status)
	}
	if report.RuleSetID != setID {
		t.Errorf("rule set = %d, want %d", report.RuleSetID, setID)
	}
}

// --- dent_parse_description ---

func TestDescribeTool(t *testing.T) {
	tool := NewDescribeTool()

	result, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{
		"text": "B787, fuselage, LH side, STA 1280, skin dent 25mm dia, 3mm depth",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	text := resultText(result)
	if !strings.Contains(text, "Still needed for a reliable assessment: thickness_mm") {
		t.Errorf("missing fields not reported:\n%s", text)
	}
	if !strings.Contains(text, `"station": 1280`) {
		t.Errorf("parsed request not included:\n%s", text)
	}
}

func TestDescribeTool_EmptyText(t *testing.T) {
	result, _ := NewDescribeTool().Handle(context.Background(), makeReq(map[string]interface{}{"text": "  "}))
	if !result.IsError {
		t.Error("expected error for empty text")
	}
}

// --- rule_sets_list ---

func TestRuleSetsListTool(t *testing.T) {
	s := newTestStore(t)
	tool := NewRuleSetsListTool(s)

	result, _ := tool.Handle(context.Background(), makeReq(map[string]interface{}{}))
	if !strings.Contains(resultText(result), "No rule sets yet") {
		t.Errorf("empty store text = %q", resultText(result))
	}

	setID, _ := seedCrown(t, s)
	result, _ = tool.Handle(context.Background(), makeReq(map[string]interface{}{"aircraft_family": "B787"}))
	text := resultText(result)
	if !strings.Contains(text, fmt.Sprintf("#%d B787 dents | B787 rev R12 | effective 2024-03-01 | 1 rules (1 enabled)", setID)) {
		t.Errorf("unexpected listing:\n%s", text)
	}

	result, _ = tool.Handle(context.Background(), makeReq(map[string]interface{}{"aircraft_family": "A350"}))
	if !strings.Contains(resultText(result), "No rule sets for A350") {
		t.Errorf("family filter text = %q", resultText(result))
	}
}

// --- rule_get ---

func TestRuleGetTool(t *testing.T) {
	s := newTestStore(t)
	_, ruleID := seedCrown(t, s)
	tool := NewRuleGetTool(s)

	result, _ := tool.Handle(context.Background(), makeReq(map[string]interface{}{"rule_id": float64(ruleID)}))
	if result.IsError {
		t.Fatalf("unexpected tool error: %s", resultText(result))
	}
	var r rules.Rule
	if err := json.Unmarshal([]byte(resultText(result)), &r); err != nil {
		t.Fatalf("rule json: %v", err)
	}
	if r.ID != ruleID || r.SRMRef != "53-00-01 Fig 201" {
		t.Errorf("got rule #%d %q", r.ID, r.SRMRef)
	}

	result, _ = tool.Handle(context.Background(), makeReq(map[string]interface{}{"rule_id": float64(999)}))
	if !result.IsError || !strings.Contains(resultText(result), "not found") {
		t.Errorf("missing rule: %q", resultText(result))
	}

	result, _ = tool.Handle(context.Background(), makeReq(map[string]interface{}{}))
	if !result.IsError {
		t.Error("expected error without rule_id")
	}
}

// --- rules_search ---

func TestRulesSearchTool(t *testing.T) {
	s := newTestStore(t)
	setID, ruleID := seedCrown(t, s)
	tool := NewRulesSearchTool(s)

	result, _ := tool.Handle(context.Background(), makeReq(map[string]interface{}{}))
	if !result.IsError {
		t.Error("expected error without filters")
	}

	result, _ = tool.Handle(context.Background(), makeReq(map[string]interface{}{"tag": "CROWN"}))
	text := resultText(result)
	want := fmt.Sprintf("#%d [set %d, priority 10] dent/skin/fuselage side ANY STA [1000, 1500] | 53-00-01 Fig 201 | tags: crown", ruleID, setID)
	if !strings.Contains(text, want) {
		t.Errorf("search output:\n%s\nwant line:\n%s", text, want)
	}

	result, _ = tool.Handle(context.Background(), makeReq(map[string]interface{}{"rule_set_id": float64(setID)}))
	if !strings.Contains(resultText(result), "Found 1 rule(s)") {
		t.Errorf("by rule set: %q", resultText(result))
	}

	result, _ = tool.Handle(context.Background(), makeReq(map[string]interface{}{"tag": "nope"}))
	if resultText(result) != "No rules found." {
		t.Errorf("unknown tag: %q", resultText(result))
	}
}

// --- rule_tag ---

func TestRuleTagTool(t *testing.T) {
	s := newTestStore(t)
	_, ruleID := seedCrown(t, s)
	tool := NewRuleTagTool(s)

	result, _ := tool.Handle(context.Background(), makeReq(map[string]interface{}{
		"rule_id": float64(ruleID),
		"tags":    "Needs-Review, lap-joint",
	}))
	if got := resultText(result); got != fmt.Sprintf("Rule #%d tags: crown, lap-joint, needs-review", ruleID) {
		t.Errorf("after tagging: %q", got)
	}

	result, _ = tool.Handle(context.Background(), makeReq(map[string]interface{}{
		"rule_id": float64(ruleID),
		"tags":    "crown,lap-joint,needs-review",
		"remove":  true,
	}))
	if got := resultText(result); got != fmt.Sprintf("Rule #%d has no tags.", ruleID) {
		t.Errorf("after untagging: %q", got)
	}

	result, _ = tool.Handle(context.Background(), makeReq(map[string]interface{}{
		"rule_id": float64(ruleID),
		"tags":    "crown",
		"remove":  true,
	}))
	if !result.IsError {
		t.Error("removing an absent tag should be an error")
	}

	result, _ = tool.Handle(context.Background(), makeReq(map[string]interface{}{
		"rule_id": float64(999),
		"tags":    "crown",
	}))
	if !result.IsError || !strings.Contains(resultText(result), "not found") {
		t.Errorf("unknown rule: %q", resultText(result))
	}
}

func TestSplitList(t *testing.T) {
	got := splitList(" a, b,,c ,")
	if strings.Join(got, "|") != "a|b|c" {
		t.Errorf("splitList = %v", got)
	}
}
