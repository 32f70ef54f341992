package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/dentcheck/internal/store"
)

// RuleTagTool handles the rule_tag MCP tool.
type RuleTagTool struct {
	store *store.Store
}

// NewRuleTagTool creates a RuleTagTool.
func NewRuleTagTool(s *store.Store) *RuleTagTool {
	return &RuleTagTool{store: s}
}

// Definition returns the MCP tool definition for rule_tag.
func (t *RuleTagTool) Definition() mcp.Tool {
	return mcp.NewTool("rule_tag",
		mcp.WithDescription(
			"Add or remove labels on a rule (e.g. 'crown', 'needs-review'). "+
				"Tags are for organizing and searching rules; they never change how a rule is evaluated.",
		),
		mcp.WithNumber("rule_id",
			mcp.Required(),
			mcp.Description("Rule to label"),
		),
		mcp.WithString("tags",
			mcp.Required(),
			mcp.Description("Comma-separated tags"),
		),
		mcp.WithBoolean("remove",
			mcp.Description("Remove the tags instead of adding them (default: false)"),
		),
	)
}

// Handle processes the rule_tag tool call.
func (t *RuleTagTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := int64(intArg(req, "rule_id", 0))
	if id <= 0 {
		return mcp.NewToolResultError("'rule_id' is required and must be a positive number"), nil
	}
	tags := splitList(req.GetString("tags", ""))
	if len(tags) == 0 {
		return mcp.NewToolResultError("'tags' is required"), nil
	}

	if boolArg(req, "remove", false) {
		var missing []string
		for _, tag := range tags {
			if err := t.store.UntagRule(id, tag); err != nil {
				if errors.Is(err, store.ErrNotFound) {
					missing = append(missing, tag)
					continue
				}
				return mcp.NewToolResultError(fmt.Sprintf("untag failed: %v", err)), nil
			}
		}
		if len(missing) == len(tags) {
			return mcp.NewToolResultError(fmt.Sprintf("rule #%d has none of: %s", id, strings.Join(tags, ", "))), nil
		}
	} else if err := t.store.TagRule(id, tags...); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("rule #%d not found", id)), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("tag failed: %v", err)), nil
	}

	current, err := t.store.RuleTags(id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("reading tags failed: %v", err)), nil
	}
	if len(current) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("Rule #%d has no tags.", id)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Rule #%d tags: %s", id, strings.Join(current, ", "))), nil
}
