package prompts

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// ReviewPrompt handles the rule-set-review MCP prompt.
// It instructs the host to inspect a rule set for authoring problems.
type ReviewPrompt struct{}

// NewReviewPrompt creates a ReviewPrompt.
func NewReviewPrompt() *ReviewPrompt {
	return &ReviewPrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *ReviewPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("rule-set-review",
		mcp.WithPromptDescription(
			"Review an SRM rule set: overlapping rules at the same priority, "+
				"disabled rules and rules without limits.",
		),
		mcp.WithArgument("rule_set_id",
			mcp.ArgumentDescription("Rule set to review. Default: ask"),
		),
	)
}

// Handle processes the rule-set-review prompt request.
func (p *ReviewPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	target := "Run `rule_sets_list` and ask me which rule set to review."
	if args := req.Params.Arguments; args != nil {
		if id := strings.TrimSpace(args["rule_set_id"]); id != "" {
			target = fmt.Sprintf("Review rule set #%s.", id)
		}
	}

	return &mcp.GetPromptResult{
		Description: "SRM rule set review",
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(
					target + "\n\n" +
						"Then:\n" +
						"1. Run `rules_search` with the rule_set_id to list its rules in selection order\n" +
						"2. Flag rules at the same priority whose scopes overlap; those produce ambiguous matches\n" +
						"3. Flag disabled rules and rules with no limits (they always pass)\n" +
						"4. Use `rule_get` on anything suspicious and explain the issue\n" +
						"5. Suggest tags with `rule_tag` (for example needs-review) but do not change rules without asking me",
				),
			},
		},
	}, nil
}
