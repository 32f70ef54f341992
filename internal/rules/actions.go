package rules

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Default dispositions applied when a rule does not configure one.
const (
	DispositionWithinLimits      = "WITHIN_LIMITS"
	DispositionEngineeringReview = "ENGINEERING_REVIEW"
)

// ActionSpec is the disposition label and follow-up steps emitted for one
// outcome of a rule.
type ActionSpec struct {
	Disposition string   `json:"disposition,omitempty" yaml:"disposition"`
	NextSteps   []string `json:"next_steps,omitempty" yaml:"next_steps"`
}

// Actions maps each rule outcome to what the report should say.
type Actions struct {
	WithinLimits  ActionSpec `json:"within_limits" yaml:"within_limits"`
	OutsideLimits ActionSpec `json:"outside_limits" yaml:"outside_limits"`
	Indeterminate ActionSpec `json:"indeterminate" yaml:"indeterminate"`
}

// WithDefaults fills empty dispositions. A fail or indeterminate result
// never inherits the within-limits label.
func (a Actions) WithDefaults() Actions {
	if a.WithinLimits.Disposition == "" {
		a.WithinLimits.Disposition = DispositionWithinLimits
	}
	if a.OutsideLimits.Disposition == "" {
		a.OutsideLimits.Disposition = DispositionEngineeringReview
	}
	if a.Indeterminate.Disposition == "" {
		a.Indeterminate.Disposition = DispositionEngineeringReview
	}
	return a
}

// For returns the action configured for an outcome.
func (a Actions) For(o Outcome) ActionSpec {
	switch o {
	case OutcomePass:
		return a.WithinLimits
	case OutcomeFail:
		return a.OutsideLimits
	default:
		return a.Indeterminate
	}
}

// actionsWire accepts both the per-outcome form and the flat
// {disposition, next_steps} form older rule payloads use.
type actionsWire struct {
	WithinLimits  *ActionSpec `json:"within_limits" yaml:"within_limits"`
	OutsideLimits *ActionSpec `json:"outside_limits" yaml:"outside_limits"`
	Indeterminate *ActionSpec `json:"indeterminate" yaml:"indeterminate"`
	Disposition   string      `json:"disposition" yaml:"disposition"`
	NextSteps     []string    `json:"next_steps" yaml:"next_steps"`
}

func (w actionsWire) actions() (Actions, error) {
	var a Actions
	if w.WithinLimits != nil {
		a.WithinLimits = *w.WithinLimits
	}
	if w.OutsideLimits != nil {
		a.OutsideLimits = *w.OutsideLimits
	}
	if w.Indeterminate != nil {
		a.Indeterminate = *w.Indeterminate
	}
	if w.Disposition != "" || len(w.NextSteps) > 0 {
		if w.WithinLimits != nil {
			return Actions{}, &ConfigError{Key: "actions", Reason: "flat disposition conflicts with within_limits"}
		}
		a.WithinLimits = ActionSpec{Disposition: w.Disposition, NextSteps: w.NextSteps}
	}
	return a, nil
}

func (a *Actions) UnmarshalJSON(data []byte) error {
	var w actionsWire
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("actions: %w", err)
	}
	out, err := w.actions()
	if err != nil {
		return err
	}
	*a = out
	return nil
}

func (a *Actions) UnmarshalYAML(node *yaml.Node) error {
	var w actionsWire
	if err := node.Decode(&w); err != nil {
		return fmt.Errorf("actions: %w", err)
	}
	out, err := w.actions()
	if err != nil {
		return err
	}
	*a = out
	return nil
}
