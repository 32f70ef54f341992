package engine

import (
	"sort"

	"github.com/HendryAvila/dentcheck/internal/rules"
)

// Select returns the enabled rules of ruleSetID whose scope, location gates
// and conditions all accept req, ordered by priority descending then id
// ascending. No match is an empty result, not an error.
func (e *Engine) Select(ruleSetID int64, candidates []rules.Rule, req rules.DentAssessmentRequest) []rules.Rule {
	out := make([]rules.Rule, 0, len(candidates))
	for _, r := range candidates {
		if e.Matches(ruleSetID, r, req) {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority > out[j].Priority
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Matches reports whether a single rule applies to req.
func (e *Engine) Matches(ruleSetID int64, r rules.Rule, req rules.DentAssessmentRequest) bool {
	if r.RuleSetID != ruleSetID || !r.Enabled {
		return false
	}
	if !scopeMatches(r, req) {
		return false
	}
	if !r.Station.Contains(req.Station) ||
		!r.Waterline.Contains(req.Waterline) ||
		!r.Stringer.Contains(req.Stringer) {
		return false
	}
	ok, _ := e.ConditionsHold(r.Conditions, req)
	return ok
}

func scopeMatches(r rules.Rule, req rules.DentAssessmentRequest) bool {
	if r.DamageType != req.DamageType || r.Structure != req.Structure || r.StructureZone != req.StructureZone {
		return false
	}
	if r.ZoneDetail != "" && r.ZoneDetail != req.ZoneDetail {
		return false
	}
	if r.Side != rules.SideAny && r.Side != "" && r.Side != req.Side {
		return false
	}
	if r.Pressurized != nil && (req.Pressurized == nil || *r.Pressurized != *req.Pressurized) {
		return false
	}
	if r.Material != "" && r.Material != req.Material {
		return false
	}
	return true
}
