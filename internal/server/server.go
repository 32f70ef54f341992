// Package server wires all MCP components and creates the server instance.
//
// This is the composition root: it opens the rule store, builds the engine
// and the assessment service and injects them into the tools, prompts and
// resources that depend on them. No business logic lives here, only wiring.
package server

import (
	"fmt"

	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"

	"github.com/HendryAvila/dentcheck/internal/assess"
	"github.com/HendryAvila/dentcheck/internal/config"
	"github.com/HendryAvila/dentcheck/internal/engine"
	"github.com/HendryAvila/dentcheck/internal/metrics"
	"github.com/HendryAvila/dentcheck/internal/prompts"
	"github.com/HendryAvila/dentcheck/internal/resources"
	"github.com/HendryAvila/dentcheck/internal/store"
	"github.com/HendryAvila/dentcheck/internal/tools"
)

// Version is set at build time via ldflags.
var Version = "dev"

// New opens the rule store and creates the MCP server with all tools,
// prompts and resources registered.
//
// The returned cleanup function closes the store and must be called on
// shutdown (typically via defer). It is always non-nil.
func New(cfg *config.Config, log zerolog.Logger, m *metrics.Metrics) (*server.MCPServer, func(), error) {
	st, err := store.New(cfg.Store())
	if err != nil {
		return nil, noop, fmt.Errorf("opening rule store: %w", err)
	}
	cleanup := func() {
		if err := st.Close(); err != nil {
			log.Warn().Err(err).Msg("rule store close")
		}
	}

	svc := assess.New(st, engine.New(cfg.Engine()), assess.Options{
		Logger:        log,
		Metrics:       m,
		DefaultFamily: cfg.DefaultAircraftFamily,
	})

	s := NewWithDeps(st, svc)
	log.Info().Str("db", st.Path()).Str("version", Version).Msg("mcp server ready")
	return s, cleanup, nil
}

// NewWithDeps creates the MCP server around an already opened store and
// assessment service.
func NewWithDeps(st *store.Store, a tools.Assessor) *server.MCPServer {
	s := server.NewMCPServer(
		"dentcheck",
		Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithPromptCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	// --- Assessment tools ---

	assessTool := tools.NewAssessTool(a)
	s.AddTool(assessTool.Definition(), assessTool.Handle)

	describeTool := tools.NewDescribeTool()
	s.AddTool(describeTool.Definition(), describeTool.Handle)

	// --- Rule store tools ---

	ruleSetsTool := tools.NewRuleSetsListTool(st)
	s.AddTool(ruleSetsTool.Definition(), ruleSetsTool.Handle)

	ruleGetTool := tools.NewRuleGetTool(st)
	s.AddTool(ruleGetTool.Definition(), ruleGetTool.Handle)

	rulesSearchTool := tools.NewRulesSearchTool(st)
	s.AddTool(rulesSearchTool.Definition(), rulesSearchTool.Handle)

	ruleTagTool := tools.NewRuleTagTool(st)
	s.AddTool(ruleTagTool.Definition(), ruleTagTool.Handle)

	// --- Prompts ---

	assessmentPrompt := prompts.NewAssessmentPrompt()
	s.AddPrompt(assessmentPrompt.Definition(), assessmentPrompt.Handle)

	reviewPrompt := prompts.NewReviewPrompt()
	s.AddPrompt(reviewPrompt.Definition(), reviewPrompt.Handle)

	// --- Resources ---

	resourceHandler := resources.NewHandler(st)
	s.AddResource(resourceHandler.RuleSetsResource(), resourceHandler.HandleRuleSets)
	s.AddResource(resourceHandler.FieldsResource(), resourceHandler.HandleFields)
	s.AddResourceTemplate(resourceHandler.RuleSetRulesTemplate(), resourceHandler.HandleRuleSetRules)

	return s
}

// noop is the cleanup returned when nothing was opened.
func noop() {}

// serverInstructions tells the host how to use the dent tools.
func serverInstructions() string {
	return `You have access to dentcheck, an SRM dent assessment server for aircraft fuselage damage.

## WHAT IT DOES

Given a dent (location, size, depth, skin thickness) and an SRM rule set, dentcheck
selects the most specific applicable rule, checks every configured limit and returns
a disposition with a rationale. Every result is ADVISORY. Always tell the user to verify
it against the current SRM and company procedures. Never present it as an approval.

## HOW TO ASSESS

1. If the user pastes a damage report, run dent_parse_description first and ask only
   for the missing fields. Never invent measurements.
2. Pick the rule set explicitly: use rule_sets_list and pass rule_set_id to dent_assess,
   or pass aircraft_family (and revision when the user names one).
3. Run dent_assess with every field you have.

## READING THE RESULT

- within-limits: every limit of the winning rule passed.
- outside-limits: at least one limit failed. Show which one and by how much.
- indeterminate: a limit needs a measurement that was not provided. Ask for it and re-run.
- no-rule-found: nothing in the rule set covers this dent. Escalate to engineering.
- ambiguous_match: another rule at the same priority disagrees. Show both (rule_get).
- A rule configuration error means the rule set is broken, not the request. Report it.

## RULE MAINTENANCE

rules_search lists rules by tag or rule set; rule_tag labels rules for review.
Tags never change evaluation. The dentcheck://rulesets and dentcheck://fields resources
describe the available rule sets and the request vocabulary.`
}
