package agent

import (
	"context"
	"fmt"
	"strconv"

	"github.com/cloudwego/eino/schema"

	"github.com/sudoCommit/alumnium/internal/llm"
)

// Area is the area agent's structured output. The id refers to the opaque
// tree ID of the element whose subtree covers the described area.
type Area struct {
	Explanation string `json:"explanation"`
	ID          int    `json:"id"`
}

var areaSchema = llm.MustStructuredSchema(
	"Area",
	"Area of the accessibility tree to use.",
	`{
		"type": "object",
		"properties": {
			"explanation": {
				"type": "string",
				"description": "Explanation how the area was determined and why it's related to the requested information. Always include the requested information and its value in the explanation."
			},
			"id": {
				"type": "integer",
				"description": "Identifier of the element that corresponds to the area in the accessibility tree."
			}
		},
		"required": ["explanation", "id"]
	}`,
)

// AreaAgent narrows subsequent calls to a subtree of the screen.
type AreaAgent struct {
	base
}

// NewAreaAgent builds the area agent.
func NewAreaAgent(handle *llm.Handle, promptDir string) (*AreaAgent, error) {
	b, err := newBase("area", handle, promptDir)
	if err != nil {
		return nil, err
	}
	return &AreaAgent{base: b}, nil
}

// Invoke locates the area matching the description.
func (a *AreaAgent) Invoke(ctx context.Context, description, accessibilityTreeXML string) (*Area, error) {
	a.log.Info().Str("description", description).Msg("starting area detection")
	a.log.Debug().Str("accessibility_tree", accessibilityTreeXML).Send()

	req := llm.Request{
		Messages: []*schema.Message{
			schema.SystemMessage(a.prompts["system"]),
			schema.UserMessage(render(a.prompts["user"], map[string]string{
				"accessibility_tree": accessibilityTreeXML,
				"description":        description,
			})),
		},
	}
	if !a.handle.Unstructured() {
		req.Schema = areaSchema
	}

	resp, err := a.invoke(ctx, req)
	if err != nil {
		return nil, err
	}

	var area Area
	if a.handle.Unstructured() {
		area.ID, err = parseElementID(resp.Content)
		if err != nil {
			return nil, err
		}
	} else {
		if err := resp.DecodeStructured(&area); err != nil {
			return nil, err
		}
	}
	a.log.Info().Int("id", area.ID).Any("usage", resp.Usage).Msg("area detected")
	return &area, nil
}

// parseElementID reads an element id from unstructured-mode output: the
// first separator field, stray separators stripped.
func parseElementID(content string) (int, error) {
	fields := splitSeparated(normalizeSeparators(content))
	if len(fields) == 0 {
		return 0, fmt.Errorf("model returned no element id: %q", content)
	}
	id, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0, fmt.Errorf("model returned no element id: %q", content)
	}
	return id, nil
}
