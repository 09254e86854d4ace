package session

import (
	"context"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sudoCommit/alumnium/internal/llmtest"
	"github.com/sudoCommit/alumnium/pkg/types"
)

var testTools = []types.ToolSchema{
	{Type: "function", Function: types.ToolFunction{
		Name:        "ClickTool",
		Description: "Click an element.",
		Parameters:  []byte(`{"type":"object","properties":{"id":{"type":"integer"}},"required":["id"]}`),
	}},
	{Type: "function", Function: types.ToolFunction{
		Name:        "TypeTool",
		Description: "Type text into an element.",
		Parameters:  []byte(`{"type":"object","properties":{"id":{"type":"integer"},"text":{"type":"string"}},"required":["id","text"]}`),
	}},
}

const chromiumTree = `{
	"nodes": [
		{"nodeId": "root", "role": {"value": "RootWebArea"}, "name": {"value": "App"}, "childIds": ["btn"]},
		{"nodeId": "btn", "role": {"value": "button"}, "name": {"value": "Submit"}}
	]
}`

func newTestSession(t *testing.T, fake *llmtest.FakeChatModel, plannerEnabled bool) *Session {
	t.Helper()
	s, err := New(context.Background(), "test-session",
		types.NewModel(types.ProviderOpenAI, ""), types.PlatformChromium,
		testTools, plannerEnabled, Options{ChatModel: fake})
	require.NoError(t, err)
	return s
}

func TestPlanWithPlannerDisabled(t *testing.T) {
	fake := llmtest.New()
	s := newTestSession(t, fake, false)

	explanation, steps, err := s.Plan(context.Background(), "click submit", "<root/>")
	require.NoError(t, err)

	assert.Equal(t, "click submit", explanation)
	assert.Equal(t, []string{"click submit"}, steps)
	assert.Zero(t, fake.CallCount(), "planner off means no LLM call")
	assert.Zero(t, s.Stats().Total.TotalTokens)
}

func TestExecuteStepRewritesOpaqueIDs(t *testing.T) {
	fake := llmtest.New(llmtest.ToolCalls(10, 5, schema.ToolCall{
		ID:       "c1",
		Function: schema.FunctionCall{Name: "ClickTool", Arguments: `{"id": 2}`},
	}))
	s := newTestSession(t, fake, true)

	_, actions, err := s.ExecuteStep(context.Background(), "submit the form", "click submit", chromiumTree)
	require.NoError(t, err)

	require.Len(t, actions, 1)
	assert.Equal(t, "btn", actions[0].Args["id"], "actions leave the session with raw driver ids")
}

func TestStatsSumAgentsAndCacheSeparately(t *testing.T) {
	fake := llmtest.New(llmtest.Structured("Plan", `{"explanation": "e", "actions": ["step"]}`, 100, 20))
	s := newTestSession(t, fake, true)
	ctx := context.Background()

	_, _, err := s.Plan(ctx, "goal", chromiumTree)
	require.NoError(t, err)

	stats := s.Stats()
	assert.Equal(t, 120, stats.Total.TotalTokens)
	assert.Zero(t, stats.Cache.TotalTokens)

	// The identical plan again: served from cache, total untouched.
	_, _, err = s.Plan(ctx, "goal", chromiumTree)
	require.NoError(t, err)

	stats = s.Stats()
	assert.Equal(t, 120, stats.Total.TotalTokens, "cache hits do not increment totals")
	assert.Equal(t, 120, stats.Cache.TotalTokens, "cache tally records what the hit substituted for")
	assert.Equal(t, 1, fake.CallCount())
}

func TestAnalyzeChangesURLSentences(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		before    string
		after     string
		wantStart string
	}{
		{"url changed", "https://e.com/1", "https://e.com/2", "URL changed to https://e.com/2. "},
		{"url unchanged", "https://e.com/1", "https://e.com/1", "URL did not change. "},
		{"urls empty", "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := llmtest.New(llmtest.Text("X", 1, 1))
			s := newTestSession(t, fake, true)

			result, err := s.AnalyzeChanges(ctx,
				ChangeState{Tree: chromiumTree, URL: tt.before},
				ChangeState{Tree: chromiumTree, URL: tt.after},
			)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStart+"X", result)
		})
	}
}

func TestExamplesLifecycle(t *testing.T) {
	s := newTestSession(t, llmtest.New(), true)

	s.AddExample(types.Example{Goal: "g", Actions: []string{"a"}})
	s.AddExample(types.Example{Goal: "h", Actions: []string{"b"}})

	s.ClearExamples()
	s.ClearExamples() // idempotent

	s.mu.Lock()
	defer s.mu.Unlock()
	assert.Empty(t, s.examples)
}

func TestProcessTreeUnknownPlatformFails(t *testing.T) {
	s := newTestSession(t, llmtest.New(), true)
	s.Platform = types.Platform("palmos")

	_, err := s.ProcessTree(chromiumTree)
	assert.Error(t, err)
}
