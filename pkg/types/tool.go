package types

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// ToolSchema is an OpenAI-style function tool definition supplied by the
// client at session creation and forwarded to the LLM.
type ToolSchema struct {
	Type     string       `json:"type"`
	Function ToolFunction `json:"function"`
}

// ToolFunction describes the callable surface of a tool.
type ToolFunction struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}

// Tool names are PascalCase with a "Tool" suffix, e.g. NavigateToUrlTool.
var toolNameRe = regexp.MustCompile(`^([A-Z][a-z0-9]*)+Tool$`)

// ValidateToolSchema checks the shape the control plane accepts.
func ValidateToolSchema(t ToolSchema) error {
	if t.Type != "function" {
		return fmt.Errorf("tool type must be %q, got %q", "function", t.Type)
	}
	if !toolNameRe.MatchString(t.Function.Name) {
		return fmt.Errorf("tool name %q does not match PascalCaseTool", t.Function.Name)
	}
	return nil
}

var camelBoundaryRe = regexp.MustCompile(`([a-z0-9])([A-Z])`)

// PrettyToolName converts a tool class name to the prompt-facing form:
// "NavigateToUrlTool" -> "navigate to url".
func PrettyToolName(name string) string {
	s := camelBoundaryRe.ReplaceAllString(name, "$1 $2")
	s = strings.ToLower(s)
	return strings.TrimSuffix(s, " tool")
}
