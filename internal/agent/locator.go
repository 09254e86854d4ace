package agent

import (
	"context"

	"github.com/cloudwego/eino/schema"

	"github.com/sudoCommit/alumnium/internal/llm"
)

// Locator is the locator agent's structured output.
type Locator struct {
	Explanation string `json:"explanation"`
	ID          int    `json:"id"`
}

var locatorSchema = llm.MustStructuredSchema(
	"Locator",
	"Element locator in the accessibility tree.",
	`{
		"type": "object",
		"properties": {
			"explanation": {
				"type": "string",
				"description": "Explanation how the element was identified and why it matches the description. Always include the description and the matching element in the explanation."
			},
			"id": {
				"type": "integer",
				"description": "Identifier of the element that matches the description in the accessibility tree."
			}
		},
		"required": ["explanation", "id"]
	}`,
)

// LocatorAgent finds elements by natural-language description.
type LocatorAgent struct {
	base
}

// NewLocatorAgent builds the locator agent.
func NewLocatorAgent(handle *llm.Handle, promptDir string) (*LocatorAgent, error) {
	b, err := newBase("locator", handle, promptDir)
	if err != nil {
		return nil, err
	}
	return &LocatorAgent{base: b}, nil
}

// Invoke locates elements matching the description. The list currently
// carries a single element.
func (l *LocatorAgent) Invoke(ctx context.Context, description, accessibilityTreeXML string) ([]Locator, error) {
	l.log.Info().Str("description", description).Msg("starting element location")
	l.log.Debug().Str("accessibility_tree", accessibilityTreeXML).Send()

	req := llm.Request{
		Messages: []*schema.Message{
			schema.SystemMessage(l.prompts["system"]),
			schema.UserMessage(render(l.prompts["user"], map[string]string{
				"accessibility_tree": accessibilityTreeXML,
				"description":        description,
			})),
		},
	}
	if !l.handle.Unstructured() {
		req.Schema = locatorSchema
	}

	resp, err := l.invoke(ctx, req)
	if err != nil {
		return nil, err
	}

	var located Locator
	if l.handle.Unstructured() {
		located.ID, err = parseElementID(resp.Content)
		if err != nil {
			return nil, err
		}
	} else {
		if err := resp.DecodeStructured(&located); err != nil {
			return nil, err
		}
	}
	l.log.Info().Int("id", located.ID).Any("usage", resp.Usage).Msg("element located")
	return []Locator{located}, nil
}
