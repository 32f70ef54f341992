package engine

import (
	"time"

	"github.com/HendryAvila/dentcheck/internal/rules"
)

// Status is the final verdict of an assessment.
type Status string

const (
	StatusWithinLimits  Status = "within-limits"
	StatusOutsideLimits Status = "outside-limits"
	StatusIndeterminate Status = "indeterminate"
	StatusNoRuleFound   Status = "no-rule-found"
)

// StatusFor maps a winning rule outcome to a report status.
func StatusFor(o rules.Outcome) Status {
	switch o {
	case rules.OutcomePass:
		return StatusWithinLimits
	case rules.OutcomeFail:
		return StatusOutsideLimits
	default:
		return StatusIndeterminate
	}
}

// CandidateOutcome records how one matching rule scored, for audit.
type CandidateOutcome struct {
	RuleID   int64         `json:"rule_id"`
	Priority int           `json:"priority"`
	SRMRef   string        `json:"srm_ref,omitempty"`
	Outcome  rules.Outcome `json:"outcome"`
}

// Report is the final, advisory result of one assessment.
type Report struct {
	AssessmentID string `json:"assessment_id,omitempty"`
	RuleSetID    int64  `json:"rule_set_id"`

	Status      Status   `json:"status"`
	Disposition string   `json:"disposition,omitempty"`
	NextSteps   []string `json:"next_steps,omitempty"`

	RuleID     *int64         `json:"rule_id"`
	SRMRef     string         `json:"srm_ref,omitempty"`
	Severity   rules.Severity `json:"severity,omitempty"`
	SourcePage string         `json:"source_page,omitempty"`
	Notes      string         `json:"notes,omitempty"`

	Checks         []CheckResult      `json:"checks"`
	OtherMatches   int                `json:"other_matches"`
	AmbiguousMatch bool               `json:"ambiguous_match"`
	Indeterminate  bool               `json:"indeterminate"`
	Candidates     []CandidateOutcome `json:"candidates,omitempty"`

	EvaluatedAt time.Time `json:"evaluated_at"`
}

// noRuleSteps is what the caller is told when nothing applies.
var noRuleSteps = []string{
	"No applicable rule in this rule set; escalate to Structures Engineering.",
	"Capture more location detail or add rules for this case.",
}

// Resolve picks the authoritative rule among candidates, which must already
// be in Select order, and assembles the report. evals[i] is the evaluation
// of candidates[i].
//
// The winner is the first candidate with a determinate outcome. When every
// candidate is indeterminate the first one wins and the report is flagged.
// ambiguous_match is set when another candidate at the winner's priority
// reached a different outcome, indeterminate included.
func Resolve(candidates []rules.Rule, evals []RuleEvaluation) Report {
	if len(candidates) == 0 {
		return Report{
			Status:    StatusNoRuleFound,
			NextSteps: append([]string(nil), noRuleSteps...),
			Checks:    []CheckResult{},
		}
	}

	winner := 0
	for i := range candidates {
		if evals[i].Outcome != rules.OutcomeIndeterminate {
			winner = i
			break
		}
	}

	w, ev := candidates[winner], evals[winner]
	action := w.Actions.WithDefaults().For(ev.Outcome)
	id := w.ID

	report := Report{
		Status:        StatusFor(ev.Outcome),
		Disposition:   action.Disposition,
		NextSteps:     action.NextSteps,
		RuleID:        &id,
		SRMRef:        w.SRMRef,
		Severity:      w.Severity,
		SourcePage:    w.SourcePage,
		Notes:         w.Notes,
		Checks:        ev.Checks,
		OtherMatches:  len(candidates) - 1,
		Indeterminate: ev.Outcome == rules.OutcomeIndeterminate,
		Candidates:    make([]CandidateOutcome, 0, len(candidates)),
	}

	for i, c := range candidates {
		report.Candidates = append(report.Candidates, CandidateOutcome{
			RuleID:   c.ID,
			Priority: c.Priority,
			SRMRef:   c.SRMRef,
			Outcome:  evals[i].Outcome,
		})
		if i == winner || report.Indeterminate {
			continue
		}
		if c.Priority == w.Priority && evals[i].Outcome != ev.Outcome {
			report.AmbiguousMatch = true
		}
	}
	return report
}
