package engine

import (
	"fmt"
	"strings"

	"github.com/HendryAvila/dentcheck/internal/rules"
)

// advisoryNote closes every summary.
const advisoryNote = "NOTE: This assessment is advisory only and must be verified " +
	"against the latest applicable SRM and company procedures."

// Summary renders the report as plain text for a human reviewer.
func (r Report) Summary() string {
	var b strings.Builder

	switch r.Status {
	case StatusNoRuleFound:
		b.WriteString("Assessment: NO RULE FOUND. No enabled rule in this rule set matches the dent.\n")
	case StatusWithinLimits:
		fmt.Fprintf(&b, "Assessment: Dent is WITHIN the configured limits of rule #%d.\n", rules.Deref(r.RuleID))
	case StatusOutsideLimits:
		fmt.Fprintf(&b, "Assessment: Dent is OUTSIDE the configured limits of rule #%d.\n", rules.Deref(r.RuleID))
	default:
		fmt.Fprintf(&b, "Assessment: INDETERMINATE. Rule #%d needs measurements that were not provided.\n", rules.Deref(r.RuleID))
	}

	if r.Disposition != "" {
		fmt.Fprintf(&b, "Disposition: %s", r.Disposition)
		if r.Severity != "" {
			fmt.Fprintf(&b, " (severity: %s)", r.Severity)
		}
		b.WriteString("\n")
	}
	if r.SRMRef != "" {
		ref := r.SRMRef
		if r.SourcePage != "" {
			ref += ", p. " + r.SourcePage
		}
		fmt.Fprintf(&b, "Applicable reference: %s\n", ref)
	}
	if r.AmbiguousMatch {
		b.WriteString("WARNING: another rule at the same priority reached a different outcome. Human review required.\n")
	}
	if r.OtherMatches > 0 {
		fmt.Fprintf(&b, "Other matching rules: %d\n", r.OtherMatches)
	}

	if len(r.Checks) > 0 {
		b.WriteString("\nCheck details:\n")
		for _, c := range r.Checks {
			fmt.Fprintf(&b, " - %s %s\n", checkMark(c.Outcome), c.Explanation)
		}
	}

	b.WriteString("\nSuggested action (non-authoritative):\n")
	if len(r.NextSteps) == 0 {
		b.WriteString(" - " + defaultSuggestion(r.Status) + "\n")
	}
	for _, step := range r.NextSteps {
		fmt.Fprintf(&b, " - %s\n", step)
	}

	b.WriteString("\n" + advisoryNote)
	return b.String()
}

func checkMark(o rules.Outcome) string {
	switch o {
	case rules.OutcomePass:
		return "✔"
	case rules.OutcomeFail:
		return "✘"
	default:
		return "?"
	}
}

func defaultSuggestion(s Status) string {
	if s == StatusWithinLimits {
		return "No repair required per these limits. Record damage and continue " +
			"operation in accordance with the current SRM revision."
	}
	return "Outside configured limits or insufficient data. Refer to Structures " +
		"Engineering and verify against the current SRM revision."
}
