package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/dentcheck/internal/store"
)

// RuleGetTool handles the rule_get MCP tool.
type RuleGetTool struct {
	store *store.Store
}

// NewRuleGetTool creates a RuleGetTool.
func NewRuleGetTool(s *store.Store) *RuleGetTool {
	return &RuleGetTool{store: s}
}

// Definition returns the MCP tool definition for rule_get.
func (t *RuleGetTool) Definition() mcp.Tool {
	return mcp.NewTool("rule_get",
		mcp.WithDescription(
			"Show one rule in full: scope, conditions, limits, per-outcome actions, SRM reference and tags. "+
				"Use it to explain why a rule did or did not apply.",
		),
		mcp.WithNumber("rule_id",
			mcp.Required(),
			mcp.Description("Rule id as shown in an assessment or in rules_search"),
		),
	)
}

// Handle processes the rule_get tool call.
func (t *RuleGetTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := intArg(req, "rule_id", 0)
	if id <= 0 {
		return mcp.NewToolResultError("'rule_id' is required and must be a positive number"), nil
	}

	r, err := t.store.GetRule(int64(id))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("rule #%d not found", id)), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("loading rule #%d failed: %v", id, err)), nil
	}

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling rule: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}
