package resources

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// jsonResource marshals v as a single JSON resource content.
func jsonResource(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling %s: %w", uri, err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

// errorResource returns a resource with an error message.
func errorResource(uri, message string) []mcp.ResourceContents {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "text/plain",
			Text:     fmt.Sprintf("Error: %s", message),
		},
	}
}

// ruleSetIDFromURI extracts {id} from dentcheck://rulesets/{id}/rules.
func ruleSetIDFromURI(uri string) (int64, error) {
	rest, ok := strings.CutPrefix(uri, "dentcheck://rulesets/")
	if !ok {
		return 0, fmt.Errorf("unexpected resource URI %q", uri)
	}
	idPart, ok := strings.CutSuffix(rest, "/rules")
	if !ok {
		return 0, fmt.Errorf("unexpected resource URI %q", uri)
	}
	id, err := strconv.ParseInt(idPart, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid rule set id %q", idPart)
	}
	return id, nil
}
