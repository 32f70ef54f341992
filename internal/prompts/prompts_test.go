package prompts

import (
	"context"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
)

func promptReq(args map[string]string) mcp.GetPromptRequest {
	req := mcp.GetPromptRequest{}
	req.Params.Arguments = args
	return req
}

func promptText(t *testing.T, res *mcp.GetPromptResult) string {
	t.Helper()
	if len(res.Messages) != 1 {
		t.Fatalf("got %d messages, want 1", len(res.Messages))
	}
	tc, ok := res.Messages[0].Content.(mcp.TextContent)
	if !ok {
		t.Fatalf("content type = %T", res.Messages[0].Content)
	}
	return tc.Text
}

func TestAssessmentPrompt_Definition(t *testing.T) {
	def := NewAssessmentPrompt().Definition()
	if def.Name != "dent-assessment" {
		t.Errorf("prompt name = %q", def.Name)
	}
	if len(def.Arguments) != 2 {
		t.Errorf("got %d arguments, want 2", len(def.Arguments))
	}
}

func TestAssessmentPrompt_WithDescription(t *testing.T) {
	res, err := NewAssessmentPrompt().Handle(context.Background(), promptReq(map[string]string{
		"description":     "B787 skin dent STA 1280",
		"aircraft_family": "B787",
	}))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	text := promptText(t, res)
	for _, want := range []string{"> B787 skin dent STA 1280", "dent_parse_description", "aircraft_family='B787'", "dent_assess", "advisory"} {
		if !strings.Contains(text, want) {
			t.Errorf("prompt missing %q:\n%s", want, text)
		}
	}
}

func TestAssessmentPrompt_NoArguments(t *testing.T) {
	res, err := NewAssessmentPrompt().Handle(context.Background(), promptReq(nil))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	text := promptText(t, res)
	if strings.Contains(text, "dent_parse_description") {
		t.Error("should not parse without a description")
	}
	if !strings.Contains(text, "confirm with me which rule set") {
		t.Errorf("should ask for the rule set:\n%s", text)
	}
}

func TestReviewPrompt(t *testing.T) {
	p := NewReviewPrompt()
	if p.Definition().Name != "rule-set-review" {
		t.Errorf("prompt name = %q", p.Definition().Name)
	}

	res, err := p.Handle(context.Background(), promptReq(map[string]string{"rule_set_id": "4"}))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if text := promptText(t, res); !strings.HasPrefix(text, "Review rule set #4.") {
		t.Errorf("unexpected text:\n%s", text)
	}

	res, _ = p.Handle(context.Background(), promptReq(nil))
	if text := promptText(t, res); !strings.Contains(text, "rule_sets_list") {
		t.Errorf("should list rule sets first:\n%s", text)
	}
}
