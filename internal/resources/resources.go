// Package resources implements MCP resource handlers for the dent
// assessment server.
//
// Resources provide read-only data that the host can consume for context.
// They use URI-based addressing (dentcheck://...) following MCP conventions.
package resources

import (
	"context"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/dentcheck/internal/rules"
	"github.com/HendryAvila/dentcheck/internal/store"
)

// URIs served by the Handler.
const (
	RuleSetsURI      = "dentcheck://rulesets"
	RuleSetRulesURI  = "dentcheck://rulesets/{id}/rules"
	RequestFieldsURI = "dentcheck://fields"
)

// Handler manages rule store resource endpoints.
type Handler struct {
	store *store.Store
}

// NewHandler creates a resource Handler with its dependencies.
func NewHandler(s *store.Store) *Handler {
	return &Handler{store: s}
}

// RuleSetsResource returns the MCP resource definition for the rule set list.
func (h *Handler) RuleSetsResource() mcp.Resource {
	return mcp.NewResource(
		RuleSetsURI,
		"SRM Rule Sets",
		mcp.WithResourceDescription("Every SRM rule set with aircraft family, revision and rule counts"),
		mcp.WithMIMEType("application/json"),
	)
}

// HandleRuleSets returns all rule sets as JSON.
func (h *Handler) HandleRuleSets(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	sets, err := h.store.ListRuleSets("")
	if err != nil {
		return errorResource(req.Params.URI, err.Error()), nil
	}
	if sets == nil {
		sets = []store.RuleSetSummary{}
	}
	return jsonResource(req.Params.URI, sets)
}

// RuleSetRulesTemplate returns the resource template for the rules of one
// rule set.
func (h *Handler) RuleSetRulesTemplate() mcp.ResourceTemplate {
	return mcp.NewResourceTemplate(
		RuleSetRulesURI,
		"Rules of an SRM rule set",
		mcp.WithTemplateDescription("All rules of a rule set in selection order (priority first, then id)"),
		mcp.WithTemplateMIMEType("application/json"),
	)
}

// HandleRuleSetRules returns the rules of the rule set named in the URI.
func (h *Handler) HandleRuleSetRules(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	id, err := ruleSetIDFromURI(req.Params.URI)
	if err != nil {
		return errorResource(req.Params.URI, err.Error()), nil
	}
	if _, err := h.store.GetRuleSet(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return errorResource(req.Params.URI, fmt.Sprintf("rule set %d not found", id)), nil
		}
		return nil, fmt.Errorf("loading rule set %d: %w", id, err)
	}
	list, err := h.store.ListRules(id)
	if err != nil {
		return errorResource(req.Params.URI, err.Error()), nil
	}
	if list == nil {
		list = []rules.Rule{}
	}
	return jsonResource(req.Params.URI, list)
}

// FieldsResource returns the MCP resource definition for the request
// vocabulary rule authors and hosts share.
func (h *Handler) FieldsResource() mcp.Resource {
	return mcp.NewResource(
		RequestFieldsURI,
		"Dent request fields and limit measures",
		mcp.WithResourceDescription("Request fields conditions may reference and the measures limit keys may name (max_<measure>, min_<measure>)"),
		mcp.WithMIMEType("application/json"),
	)
}

type measureInfo struct {
	Name   string   `json:"name"`
	Label  string   `json:"label"`
	Unit   string   `json:"unit,omitempty"`
	Inputs []string `json:"inputs"`
}

// HandleFields returns the request fields and measures as JSON.
func (h *Handler) HandleFields(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	ms := rules.Measures()
	infos := make([]measureInfo, 0, len(ms))
	for _, m := range ms {
		infos = append(infos, measureInfo{Name: string(m), Label: m.Label(), Unit: m.Unit(), Inputs: m.Inputs()})
	}
	return jsonResource(req.Params.URI, map[string]any{
		"request_fields": rules.RequestFields(),
		"measures":       infos,
	})
}
