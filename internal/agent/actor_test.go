package agent

import (
	"context"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sudoCommit/alumnium/internal/llmtest"
	"github.com/sudoCommit/alumnium/pkg/types"
)

func TestActorEmptyStepSkipsTheModel(t *testing.T) {
	fake := llmtest.New()
	actor, err := NewActor(testHandle(t, fake, types.ProviderOpenAI), testTools, "")
	require.NoError(t, err)

	explanation, actions, err := actor.Invoke(context.Background(), "goal", "   ", "<root />")
	require.NoError(t, err)

	assert.Empty(t, explanation)
	assert.Empty(t, actions)
	assert.Zero(t, fake.CallCount(), "no LLM round trip for a blank step")
	assert.Zero(t, actor.Usage().TotalTokens)
}

func TestActorBindsSessionToolsAndReturnsCalls(t *testing.T) {
	fake := llmtest.New(llmtest.ToolCalls(30, 8,
		schema.ToolCall{ID: "c1", Function: schema.FunctionCall{Name: "ClickTool", Arguments: `{"id": 9}`}},
		schema.ToolCall{ID: "c2", Function: schema.FunctionCall{Name: "TypeTool", Arguments: `{"id": 9, "text": "Buy milk"}`}},
	))
	actor, err := NewActor(testHandle(t, fake, types.ProviderOpenAI), testTools, "")
	require.NoError(t, err)

	_, actions, err := actor.Invoke(context.Background(), "add a todo", "click the input", "<root />")
	require.NoError(t, err)

	require.Len(t, actions, 2)
	assert.Equal(t, "ClickTool", actions[0].Tool)
	assert.Equal(t, float64(9), actions[0].Args["id"], "the actor speaks opaque ids")
	assert.Equal(t, "Buy milk", actions[1].Args["text"])

	require.Len(t, fake.BoundTools, 2, "the full session tool schema is bound")
	assert.Equal(t, "ClickTool", fake.BoundTools[0].Name)

	assert.Equal(t, 38, actor.Usage().TotalTokens)
}
