// Package engine evaluates a dent assessment request against the rules of
// one rule set.
//
// The pipeline is Select, Evaluate, Resolve. Every step is a pure function
// of its inputs: the rule set to evaluate against is always passed in
// explicitly, never held as ambient state.
package engine

import (
	"fmt"

	"github.com/HendryAvila/dentcheck/internal/rules"
)

// DefaultTolerance absorbs floating point noise in limit comparisons, so
// 0.05/0.10 compares equal to a 0.5 threshold.
const DefaultTolerance = 1e-9

// RuleSource supplies the rules of a rule set that may apply to a request.
// Implementations may pre-filter; the engine re-applies every predicate.
type RuleSource interface {
	Candidates(ruleSetID int64, req rules.DentAssessmentRequest) ([]rules.Rule, error)
}

// Options configures an Engine.
type Options struct {
	// Tolerance is added to max_ thresholds and subtracted from min_
	// thresholds. Zero means DefaultTolerance.
	Tolerance float64
}

// Engine runs the selection, evaluation and resolution steps.
type Engine struct {
	tolerance float64
}

// New creates an Engine.
func New(opts Options) *Engine {
	tol := opts.Tolerance
	if tol <= 0 {
		tol = DefaultTolerance
	}
	return &Engine{tolerance: tol}
}

// Tolerance returns the comparison tolerance in use.
func (e *Engine) Tolerance() float64 { return e.tolerance }

// Assess selects the candidate rules of ruleSetID for req, evaluates each
// one and resolves the final report. A rule whose limits cannot be
// evaluated is returned as a *rules.ConfigError, never folded into a
// failed check.
func (e *Engine) Assess(src RuleSource, ruleSetID int64, req rules.DentAssessmentRequest) (Report, error) {
	rows, err := src.Candidates(ruleSetID, req)
	if err != nil {
		return Report{}, fmt.Errorf("load candidates for rule set %d: %w", ruleSetID, err)
	}

	candidates := e.Select(ruleSetID, rows, req)
	evals := make([]RuleEvaluation, 0, len(candidates))
	for _, r := range candidates {
		ev, err := e.Evaluate(r, req)
		if err != nil {
			return Report{}, err
		}
		evals = append(evals, ev)
	}

	report := Resolve(candidates, evals)
	report.RuleSetID = ruleSetID
	return report, nil
}

// RulesSource adapts an in-memory slice to RuleSource.
type RulesSource []rules.Rule

// Candidates returns every rule of the slice; Select does the filtering.
func (s RulesSource) Candidates(_ int64, _ rules.DentAssessmentRequest) ([]rules.Rule, error) {
	return s, nil
}
