package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/dentcheck/internal/rules"
	"github.com/HendryAvila/dentcheck/internal/store"
)

// RulesSearchTool handles the rules_search MCP tool.
type RulesSearchTool struct {
	store *store.Store
}

// NewRulesSearchTool creates a RulesSearchTool.
func NewRulesSearchTool(s *store.Store) *RulesSearchTool {
	return &RulesSearchTool{store: s}
}

// Definition returns the MCP tool definition for rules_search.
func (t *RulesSearchTool) Definition() mcp.Tool {
	return mcp.NewTool("rules_search",
		mcp.WithDescription(
			"List rules in selection order (priority first, then id). Filter by tag, by rule set, or both. "+
				"At least one of tag or rule_set_id is required.",
		),
		mcp.WithString("tag",
			mcp.Description("Only rules carrying this tag"),
		),
		mcp.WithNumber("rule_set_id",
			mcp.Description("Only rules of this rule set"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Max results (default: 50)"),
		),
	)
}

// Handle processes the rules_search tool call.
func (t *RulesSearchTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tag := strings.TrimSpace(req.GetString("tag", ""))
	setID := int64(intArg(req, "rule_set_id", 0))
	limit := intArg(req, "limit", 50)
	if tag == "" && setID <= 0 {
		return mcp.NewToolResultError("pass 'tag', 'rule_set_id' or both"), nil
	}

	var (
		found []rules.Rule
		err   error
	)
	if tag != "" {
		found, err = t.store.RulesByTag(tag, setID)
	} else {
		found, err = t.store.ListRules(setID)
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}
	if len(found) == 0 {
		return mcp.NewToolResultText("No rules found."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d rule(s):\n\n", len(found))
	for i, r := range found {
		if limit > 0 && i == limit {
			fmt.Fprintf(&b, "... %d more\n", len(found)-limit)
			break
		}
		b.WriteString(ruleLine(r))
		b.WriteString("\n")
	}
	return mcp.NewToolResultText(b.String()), nil
}

// ruleLine renders a one-line digest of a rule's scope.
func ruleLine(r rules.Rule) string {
	var b strings.Builder
	fmt.Fprintf(&b, "#%d [set %d, priority %d]", r.ID, r.RuleSetID, r.Priority)
	if !r.Enabled {
		b.WriteString(" DISABLED")
	}
	fmt.Fprintf(&b, " %s/%s/%s", r.DamageType, r.Structure, r.StructureZone)
	if r.ZoneDetail != "" {
		fmt.Fprintf(&b, "/%s", r.ZoneDetail)
	}
	fmt.Fprintf(&b, " side %s", r.Side)
	if !r.Station.Unbounded() {
		fmt.Fprintf(&b, " STA %s", r.Station)
	}
	if !r.Waterline.Unbounded() {
		fmt.Fprintf(&b, " WL %s", r.Waterline)
	}
	if !r.Stringer.Unbounded() {
		fmt.Fprintf(&b, " S %s", r.Stringer)
	}
	if r.SRMRef != "" {
		fmt.Fprintf(&b, " | %s", r.SRMRef)
	}
	if len(r.Tags) > 0 {
		fmt.Fprintf(&b, " | tags: %s", strings.Join(r.Tags, ", "))
	}
	return b.String()
}
