package engine

import (
	"errors"
	"fmt"
	"strings"

	"github.com/HendryAvila/dentcheck/internal/rules"
)

// CheckResult is the outcome of one limit of one rule.
type CheckResult struct {
	Key         string        `json:"key"`
	Measure     rules.Measure `json:"measure"`
	Op          rules.LimitOp `json:"op"`
	Value       *float64      `json:"value"`
	Threshold   float64       `json:"threshold"`
	Outcome     rules.Outcome `json:"outcome"`
	Explanation string        `json:"explanation"`
}

// RuleEvaluation is every check of a rule plus the rule's overall outcome.
type RuleEvaluation struct {
	RuleID  int64         `json:"rule_id"`
	Checks  []CheckResult `json:"checks"`
	Outcome rules.Outcome `json:"outcome"`
}

// Evaluate scores req against every limit of the rule, in key order.
// The overall outcome is fail if any check fails, indeterminate if none
// failed but at least one could not be computed, pass otherwise.
func (e *Engine) Evaluate(r rules.Rule, req rules.DentAssessmentRequest) (RuleEvaluation, error) {
	ev := RuleEvaluation{RuleID: r.ID, Checks: make([]CheckResult, 0, len(r.Limits))}
	for _, l := range r.Limits {
		if err := l.Validate(); err != nil {
			var ce *rules.ConfigError
			if !errors.As(err, &ce) {
				ce = &rules.ConfigError{Key: l.Key, Reason: err.Error()}
			}
			ce.RuleID = r.ID
			return RuleEvaluation{}, ce
		}
		ev.Checks = append(ev.Checks, e.check(l, req))
	}
	ev.Outcome = Overall(ev.Checks)
	return ev, nil
}

// Overall folds check outcomes into a rule outcome.
func Overall(checks []CheckResult) rules.Outcome {
	out := rules.OutcomePass
	for _, c := range checks {
		switch c.Outcome {
		case rules.OutcomeFail:
			return rules.OutcomeFail
		case rules.OutcomeIndeterminate:
			out = rules.OutcomeIndeterminate
		}
	}
	return out
}

func (e *Engine) check(l rules.Limit, req rules.DentAssessmentRequest) CheckResult {
	res := CheckResult{Key: l.Key, Measure: l.Measure, Op: l.Op, Threshold: l.Threshold}
	m := l.Measure

	v, ok := m.From(req)
	if !ok {
		res.Outcome = rules.OutcomeIndeterminate
		res.Explanation = fmt.Sprintf("%s cannot be computed: %s → indeterminate", m.Label(), missingInputs(m, req))
		return res
	}
	res.Value = &v

	label, val, lim := m.Label(), m.Format(v), m.Format(l.Threshold)
	switch l.Op {
	case rules.OpMax:
		if v <= l.Threshold+e.tolerance {
			res.Outcome = rules.OutcomePass
			res.Explanation = fmt.Sprintf("%s = %s ≤ limit %s → within limit", label, val, lim)
		} else {
			res.Outcome = rules.OutcomeFail
			res.Explanation = fmt.Sprintf("%s = %s > limit %s → exceeds limit", label, val, lim)
		}
	case rules.OpMin:
		if v >= l.Threshold-e.tolerance {
			res.Outcome = rules.OutcomePass
			res.Explanation = fmt.Sprintf("%s = %s ≥ minimum %s → within limit", label, val, lim)
		} else {
			res.Outcome = rules.OutcomeFail
			res.Explanation = fmt.Sprintf("%s = %s < minimum %s → below minimum", label, val, lim)
		}
	}
	return res
}

func missingInputs(m rules.Measure, req rules.DentAssessmentRequest) string {
	var missing []string
	for _, field := range m.Inputs() {
		if _, ok := req.Lookup(field); !ok {
			missing = append(missing, field)
		}
	}
	if len(missing) == 0 {
		// Inputs present but unusable, e.g. zero thickness.
		return strings.Join(m.Inputs(), ", ") + " not usable"
	}
	return strings.Join(missing, ", ") + " not provided"
}
