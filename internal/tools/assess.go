package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/dentcheck/internal/assess"
	"github.com/HendryAvila/dentcheck/internal/describe"
	"github.com/HendryAvila/dentcheck/internal/engine"
	"github.com/HendryAvila/dentcheck/internal/rules"
	"github.com/HendryAvila/dentcheck/internal/store"
)

// Assessor evaluates requests against stored rule sets.
type Assessor interface {
	Assess(ruleSetID int64, req rules.DentAssessmentRequest) (engine.Report, error)
	AssessLatest(family, revision string, req rules.DentAssessmentRequest) (engine.Report, error)
}

// AssessTool handles the dent_assess MCP tool.
type AssessTool struct {
	assessor Assessor
}

// NewAssessTool creates an AssessTool.
func NewAssessTool(a Assessor) *AssessTool {
	return &AssessTool{assessor: a}
}

// Definition returns the MCP tool definition for dent_assess.
func (t *AssessTool) Definition() mcp.Tool {
	opts := []mcp.ToolOption{
		mcp.WithDescription(
			"Assess a fuselage dent against the SRM rule set. Picks the most specific matching rule, " +
				"checks every configured limit and returns the disposition with a rationale. " +
				"Results are ADVISORY and must be verified against the current SRM. " +
				"Pass rule_set_id to evaluate a specific revision, otherwise the newest rule set " +
				"of aircraft_family (optionally pinned with revision) is used.",
		),
		mcp.WithNumber("rule_set_id",
			mcp.Description("Rule set to evaluate against. Takes precedence over aircraft_family/revision"),
		),
		mcp.WithString("revision",
			mcp.Description("Pin the SRM revision when selecting by aircraft_family"),
		),
		mcp.WithString("description",
			mcp.Description("Free-text damage report, e.g. 'B787, fuselage, LH side, STA 1280, S-10L, skin dent 25mm dia, 3mm depth, no visible crack.' Explicit arguments override what is parsed from it"),
		),
		mcp.WithString("format",
			mcp.Description("Output format: text (default) or json"),
			mcp.Enum("text", "json"),
		),
	}
	opts = append(opts, requestOptions()...)
	return mcp.NewTool("dent_assess", opts...)
}

// Handle processes the dent_assess tool call.
func (t *AssessTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var dr rules.DentAssessmentRequest
	if text := strings.TrimSpace(req.GetString("description", "")); text != "" {
		dr = describe.Parse(text).Request
	}
	if err := applyArgs(&dr, req); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid request: %v", err)), nil
	}

	var (
		report engine.Report
		err    error
	)
	if id := intArg(req, "rule_set_id", 0); id > 0 {
		report, err = t.assessor.Assess(int64(id), dr)
	} else {
		report, err = t.assessor.AssessLatest(req.GetString("aircraft_family", ""), req.GetString("revision", ""), dr)
	}
	if err != nil {
		return mcp.NewToolResultError(assessError(err)), nil
	}

	if req.GetString("format", "text") == "json" {
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("marshaling report: %w", err)
		}
		return mcp.NewToolResultText(string(data)), nil
	}

	var b strings.Builder
	b.WriteString(report.Summary())
	fmt.Fprintf(&b, "\nAssessment ID: %s | rule set #%d | evaluated %s\n",
		report.AssessmentID, report.RuleSetID, report.EvaluatedAt.Format(time.RFC3339))
	return mcp.NewToolResultText(b.String()), nil
}

// assessError words an assessment failure for the host, separating rule
// authoring problems from request problems.
func assessError(err error) string {
	switch {
	case rules.IsConfigError(err):
		return fmt.Sprintf("rule configuration error (the rule set needs fixing, not the request): %v", err)
	case errors.Is(err, assess.ErrNoFamily):
		return "no rule set selected: pass rule_set_id or aircraft_family"
	case errors.Is(err, store.ErrNotFound):
		return fmt.Sprintf("rule set not found: %v", err)
	case errors.Is(err, rules.ErrInvalidRule):
		return fmt.Sprintf("invalid request: %v", err)
	default:
		return fmt.Sprintf("assessment failed: %v", err)
	}
}
