package agent

import (
	"context"
	"strings"

	"github.com/cloudwego/eino/schema"

	"github.com/sudoCommit/alumnium/internal/llm"
	"github.com/sudoCommit/alumnium/pkg/types"
)

// Actor turns one planner step into concrete tool calls referencing opaque
// tree IDs. The caller rewrites those to raw driver IDs before dispatch.
type Actor struct {
	base
	tools []*schema.ToolInfo
}

// NewActor binds the session's full tool schema.
func NewActor(handle *llm.Handle, tools []types.ToolSchema, promptDir string) (*Actor, error) {
	b, err := newBase("actor", handle, promptDir)
	if err != nil {
		return nil, err
	}

	toolInfos := make([]*schema.ToolInfo, 0, len(tools))
	for _, t := range tools {
		toolInfos = append(toolInfos, &schema.ToolInfo{
			Name:        t.Function.Name,
			Desc:        t.Function.Description,
			ParamsOneOf: llm.ParamsFromJSONSchema(t.Function.Parameters),
		})
	}
	return &Actor{base: b, tools: toolInfos}, nil
}

// Invoke emits the tool calls for a step. An empty or whitespace step
// yields no calls and no LLM round trip.
func (a *Actor) Invoke(ctx context.Context, goal, step, accessibilityTreeXML string) (string, []types.ToolCall, error) {
	if strings.TrimSpace(step) == "" {
		return "", nil, nil
	}

	a.log.Info().Str("goal", goal).Str("step", step).Msg("starting action")
	a.log.Debug().Str("accessibility_tree", accessibilityTreeXML).Send()

	vars := map[string]string{
		"goal":               goal,
		"step":               step,
		"accessibility_tree": accessibilityTreeXML,
	}
	resp, err := a.invoke(ctx, llm.Request{
		Messages: []*schema.Message{
			schema.SystemMessage(render(a.prompts["system"], vars)),
			schema.UserMessage(render(a.prompts["user"], vars)),
		},
		Tools: a.tools,
	})
	if err != nil {
		return "", nil, err
	}

	a.log.Info().Any("tools", resp.ToolCalls).Any("usage", resp.Usage).Msg("acted")
	return resp.Reasoning, resp.ToolCalls, nil
}
