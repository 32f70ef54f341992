// Package prompts implements MCP prompt handlers for dent assessment.
//
// MCP prompts are user-triggered workflows (like slash commands) that
// instruct the host to execute a specific sequence. Unlike tools (which
// the host calls), prompts are initiated by the user.
package prompts

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// AssessmentPrompt handles the dent-assessment MCP prompt.
// It guides the host through collecting the measurements an assessment
// needs and presenting the advisory result.
type AssessmentPrompt struct{}

// NewAssessmentPrompt creates an AssessmentPrompt.
func NewAssessmentPrompt() *AssessmentPrompt {
	return &AssessmentPrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *AssessmentPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("dent-assessment",
		mcp.WithPromptDescription(
			"Assess a fuselage dent against the SRM rule set. "+
				"Collects location and measurements, runs the assessment "+
				"and explains the advisory disposition.",
		),
		mcp.WithArgument("description",
			mcp.ArgumentDescription("Free-text damage report, e.g. 'B787, fuselage, LH side, STA 1280, S-10L, skin dent 25mm dia, 3mm depth, no visible crack.'"),
		),
		mcp.WithArgument("aircraft_family",
			mcp.ArgumentDescription("Aircraft family whose newest rule set should be used, e.g. B787"),
		),
	)
}

// Handle processes the dent-assessment prompt request.
func (p *AssessmentPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	description := ""
	family := ""
	if args := req.Params.Arguments; args != nil {
		description = strings.TrimSpace(args["description"])
		family = strings.TrimSpace(args["aircraft_family"])
	}

	var intro string
	switch {
	case description != "":
		intro = fmt.Sprintf("I have a dent to assess. The damage report says:\n\n> %s\n\n"+
			"1. Run `dent_parse_description` on that text and show me what was recognized\n", description)
	default:
		intro = "I have a dent to assess.\n\n" +
			"1. Ask me for the damage report or the location (zone, side, STA, WL, stringer)\n"
	}

	familyStep := "2. Run `rule_sets_list` and confirm with me which rule set (aircraft family and SRM revision) applies\n"
	if family != "" {
		familyStep = fmt.Sprintf("2. Run `rule_sets_list` with aircraft_family='%s' and confirm the SRM revision with me\n", family)
	}

	return &mcp.GetPromptResult{
		Description: "Dent assessment",
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(
					intro +
						familyStep +
						"3. Ask me only for what is missing: damage type, structure, zone, depth, skin thickness, " +
						"diameter (or length and width) and whether a crack is visible. Do not guess measurements\n" +
						"4. Run `dent_assess` with the rule_set_id and every field I gave you\n" +
						"5. Present the verdict, the disposition, the SRM reference and each limit check. " +
						"If the result is indeterminate, tell me which measurement to take. " +
						"If the match is ambiguous, say so and show the other candidate rules with `rule_get`\n\n" +
						"Always remind me that the result is advisory and must be verified against the current SRM.",
				),
			},
		},
	}, nil
}
