package engine

import (
	"fmt"
	"math"

	"github.com/HendryAvila/dentcheck/internal/rules"
)

// ConditionsHold evaluates a rule's additional predicates. A predicate on a
// field the request leaves empty never holds: the rule does not match
// rather than being assumed to apply. The string explains the first
// predicate that rejected the request.
func (e *Engine) ConditionsHold(c rules.Conditions, req rules.DentAssessmentRequest) (bool, string) {
	if c.RequiresNoVisibleCrack {
		crack, ok := req.Lookup("visible_crack")
		if !ok {
			return false, "visible crack status not provided"
		}
		if crack.(bool) {
			return false, "visible crack present"
		}
	}

	for _, m := range c.Matches {
		actual, ok := req.Lookup(m.Field)
		if !ok {
			return false, fmt.Sprintf("%s not provided", m.Field)
		}
		if m.Range != nil {
			f, isNum := rules.ToFloat(actual)
			if !isNum || !e.inRange(*m.Range, f) {
				return false, fmt.Sprintf("%s = %v outside %s", m.Field, actual, m.Range)
			}
			continue
		}
		if !e.equal(actual, m.Equals) {
			return false, fmt.Sprintf("%s = %v, rule requires %v", m.Field, actual, m.Equals)
		}
	}

	for _, cl := range c.DenyIf {
		hit, known := e.clauseHolds(cl, req)
		if !known {
			return false, fmt.Sprintf("%s not provided", cl.Field)
		}
		if hit {
			return false, "denied by condition: " + cl.String()
		}
	}

	for _, cl := range c.AllowIf {
		hit, known := e.clauseHolds(cl, req)
		if !known {
			return false, fmt.Sprintf("%s not provided", cl.Field)
		}
		if !hit {
			return false, "allow-if condition not met: " + cl.String()
		}
	}
	return true, ""
}

// clauseHolds evaluates one clause. known is false when the request has no
// value for the field.
func (e *Engine) clauseHolds(cl rules.Clause, req rules.DentAssessmentRequest) (hit, known bool) {
	actual, ok := req.Lookup(cl.Field)
	if !ok {
		return false, false
	}
	switch cl.Op {
	case rules.OpEq:
		return e.equal(actual, cl.Value), true
	case rules.OpNe:
		return !e.equal(actual, cl.Value), true
	}

	a, okA := rules.ToFloat(actual)
	b, okB := rules.ToFloat(cl.Value)
	if !okA || !okB {
		return false, true
	}
	switch cl.Op {
	case rules.OpLt:
		return a < b-e.tolerance, true
	case rules.OpLe:
		return a <= b+e.tolerance, true
	case rules.OpGt:
		return a > b+e.tolerance, true
	case rules.OpGe:
		return a >= b-e.tolerance, true
	}
	return false, true
}

func (e *Engine) equal(actual, want any) bool {
	if a, ok := rules.ToFloat(actual); ok {
		b, ok := rules.ToFloat(want)
		return ok && math.Abs(a-b) <= e.tolerance
	}
	switch a := actual.(type) {
	case string:
		w, ok := want.(string)
		return ok && a == w
	case bool:
		w, ok := want.(bool)
		return ok && a == w
	}
	return false
}

func (e *Engine) inRange(r rules.Range[float64], v float64) bool {
	if r.Min != nil && v < *r.Min-e.tolerance {
		return false
	}
	if r.Max != nil && v > *r.Max+e.tolerance {
		return false
	}
	return true
}
