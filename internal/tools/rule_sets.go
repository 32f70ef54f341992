package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/dentcheck/internal/store"
)

// RuleSetsListTool handles the rule_sets_list MCP tool.
type RuleSetsListTool struct {
	store *store.Store
}

// NewRuleSetsListTool creates a RuleSetsListTool.
func NewRuleSetsListTool(s *store.Store) *RuleSetsListTool {
	return &RuleSetsListTool{store: s}
}

// Definition returns the MCP tool definition for rule_sets_list.
func (t *RuleSetsListTool) Definition() mcp.Tool {
	return mcp.NewTool("rule_sets_list",
		mcp.WithDescription(
			"List the SRM rule sets (one per aircraft family and revision) with their rule counts. "+
				"Use the id with dent_assess to evaluate against a specific revision.",
		),
		mcp.WithString("aircraft_family",
			mcp.Description("Only list rule sets of this aircraft family"),
		),
	)
}

// Handle processes the rule_sets_list tool call.
func (t *RuleSetsListTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	family := strings.TrimSpace(req.GetString("aircraft_family", ""))
	sets, err := t.store.ListRuleSets(family)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("listing rule sets failed: %v", err)), nil
	}
	if len(sets) == 0 {
		if family != "" {
			return mcp.NewToolResultText(fmt.Sprintf("No rule sets for %s. Seed one with `dentcheck seed`.", family)), nil
		}
		return mcp.NewToolResultText("No rule sets yet. Seed one with `dentcheck seed`."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d rule set(s):\n\n", len(sets))
	for _, rs := range sets {
		fmt.Fprintf(&b, "#%d %s | %s rev %s", rs.ID, rs.Name, rs.AircraftFamily, rs.Revision)
		if rs.EffectiveDate != "" {
			fmt.Fprintf(&b, " | effective %s", rs.EffectiveDate)
		}
		fmt.Fprintf(&b, " | %d rules (%d enabled)\n", rs.RuleCount, rs.EnabledCount)
		if rs.Source != "" {
			fmt.Fprintf(&b, "    source: %s\n", rs.Source)
		}
	}
	return mcp.NewToolResultText(b.String()), nil
}
