package agent

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/cloudwego/eino/schema"

	"github.com/sudoCommit/alumnium/internal/llm"
	"github.com/sudoCommit/alumnium/pkg/types"
)

// Plan is the planner's structured output.
type Plan struct {
	Explanation string   `json:"explanation"`
	Actions     []string `json:"actions"`
}

var planSchema = llm.MustStructuredSchema(
	"Plan",
	"Plan of actions to achieve a goal.",
	`{
		"type": "object",
		"properties": {
			"explanation": {
				"type": "string",
				"description": "Explanation how the actions were determined and why they are related to the goal. Always include the goal, actions to achieve it, and their order in the explanation."
			},
			"actions": {
				"type": "array",
				"items": {"type": "string"},
				"description": "List of actions to achieve the goal."
			}
		},
		"required": ["explanation", "actions"]
	}`,
)

// Few-shot examples appended to the system prompt when the session's tool
// set contains the matching tool.
const navigateToURLExample = `Example:
Input:
Given the following XML accessibility tree:
` + "```xml" + `
<link href="http://foo.bar/baz" />
` + "```" + `
Outline the actions needed to achieve the following goal: open 'http://foo.bar/baz/123' URL
Output:
Explanation: In order to open URL, I am going to directly navigate to the requested URL.
Actions: ['navigate to "http://foo.bar/baz/123" URL']`

const uploadExample = `Example:
Input:
Given the following XML accessibility tree:
` + "```xml" + `
<button name="Choose File" />
` + "```" + `
Outline the actions needed to achieve the following goal: upload '/tmp/test.txt', '/tmp/image.png'
Output:
Explanation: In order to upload the file, I am going to use the upload action on the file input button.
I don't need to click the button first, as the upload action will handle that.
Actions: ['upload ["/tmp/test.txt", "/tmp/image.png"] to button "Choose File"']`

// Planner turns a goal plus the current accessibility tree into an ordered
// list of natural-language steps.
type Planner struct {
	base
	system string
}

// NewPlanner builds the planner for a session's tool set. Tool names feed
// the system prompt in prettified form.
func NewPlanner(handle *llm.Handle, tools []types.ToolSchema, promptDir string) (*Planner, error) {
	b, err := newBase("planner", handle, promptDir)
	if err != nil {
		return nil, err
	}

	toolNames := make([]string, 0, len(tools))
	hasNavigate, hasUpload := false, false
	for _, t := range tools {
		toolNames = append(toolNames, types.PrettyToolName(t.Function.Name))
		switch t.Function.Name {
		case "NavigateToUrlTool":
			hasNavigate = true
		case "UploadTool":
			hasUpload = true
		}
	}

	extraExamples := ""
	if hasNavigate {
		extraExamples += "\n\n" + navigateToURLExample
	}
	if hasUpload {
		extraExamples += "\n\n" + uploadExample
	}

	system := render(b.prompts["system"], map[string]string{
		"separator":      ListSeparator,
		"tools":          strings.Join(toolNames, ", "),
		"extra_examples": extraExamples,
	})

	return &Planner{base: b, system: system}, nil
}

// Invoke plans the actions for a goal. Learned examples are injected as
// alternating user/assistant turns between the system message and the
// final user message.
func (p *Planner) Invoke(ctx context.Context, goal, accessibilityTreeXML string, examples []types.Example) (string, []string, error) {
	p.log.Info().Str("goal", goal).Msg("starting planning")
	p.log.Debug().Str("accessibility_tree", accessibilityTreeXML).Send()

	messages := []*schema.Message{schema.SystemMessage(p.system)}
	for _, example := range examples {
		messages = append(messages,
			schema.UserMessage(p.userPrompt(example.Goal, "")),
			schema.AssistantMessage(p.exampleOutput(example.Actions), nil),
		)
	}
	messages = append(messages, schema.UserMessage(p.userPrompt(goal, accessibilityTreeXML)))

	req := llm.Request{Messages: messages}
	if !p.handle.Unstructured() {
		req.Schema = planSchema
	}

	resp, err := p.invoke(ctx, req)
	if err != nil {
		return "", nil, err
	}

	if p.handle.Unstructured() {
		steps := make([]string, 0)
		for _, step := range splitSeparated(normalizeSeparators(resp.Content)) {
			if strings.EqualFold(step, "NOOP") {
				continue
			}
			steps = append(steps, step)
		}
		p.log.Info().Strs("steps", steps).Msg("planned")
		return "", steps, nil
	}

	var plan Plan
	if err := resp.DecodeStructured(&plan); err != nil {
		return "", nil, err
	}
	steps := make([]string, 0, len(plan.Actions))
	for _, action := range plan.Actions {
		if action != "" {
			steps = append(steps, action)
		}
	}
	p.log.Info().Strs("steps", steps).Any("usage", resp.Usage).Msg("planned")
	return plan.Explanation, steps, nil
}

func (p *Planner) userPrompt(goal, accessibilityTreeXML string) string {
	return render(p.prompts["user"], map[string]string{
		"goal":               goal,
		"accessibility_tree": accessibilityTreeXML,
	})
}

// exampleOutput renders a learned example's actions the way the model is
// expected to answer: a JSON Plan object (empty explanation) in structured
// mode, separator-joined text otherwise.
func (p *Planner) exampleOutput(actions []string) string {
	if p.handle.Unstructured() {
		return strings.Join(actions, ListSeparator)
	}
	out, _ := json.Marshal(Plan{Explanation: "", Actions: actions})
	return string(out)
}
