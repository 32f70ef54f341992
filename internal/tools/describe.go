package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/dentcheck/internal/describe"
)

// DescribeTool handles the dent_parse_description MCP tool.
type DescribeTool struct{}

// NewDescribeTool creates a DescribeTool.
func NewDescribeTool() *DescribeTool {
	return &DescribeTool{}
}

// Definition returns the MCP tool definition for dent_parse_description.
func (t *DescribeTool) Definition() mcp.Tool {
	return mcp.NewTool("dent_parse_description",
		mcp.WithDescription(
			"Extract structured dent fields from a free-text damage report (AOG message, logbook entry). "+
				"Returns the parsed request and the fields still missing for an assessment. "+
				"Use it to pre-fill dent_assess and ask the user only for what is missing.",
		),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("Damage description, e.g. 'B787, fuselage, LH side, STA 1280, S-10L, skin dent 25mm dia, 3mm depth, no visible crack.'"),
		),
	)
}

// Handle processes the dent_parse_description tool call.
func (t *DescribeTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text := strings.TrimSpace(req.GetString("text", ""))
	if text == "" {
		return mcp.NewToolResultError("'text' is required"), nil
	}

	res := describe.Parse(text)
	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling parse result: %w", err)
	}

	var b strings.Builder
	if len(res.Found) == 0 {
		b.WriteString("Nothing recognizable in the description.\n\n")
	} else {
		fmt.Fprintf(&b, "Recognized %d field(s): %s\n", len(res.Found), strings.Join(res.Found, ", "))
	}
	if len(res.Missing) > 0 {
		fmt.Fprintf(&b, "Still needed for a reliable assessment: %s\n", strings.Join(res.Missing, ", "))
	}
	b.WriteString("\n")
	b.Write(data)
	return mcp.NewToolResultText(b.String()), nil
}
