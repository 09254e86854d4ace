package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateToolSchema(t *testing.T) {
	tests := []struct {
		name    string
		tool    ToolSchema
		wantErr bool
	}{
		{
			name: "valid click tool",
			tool: ToolSchema{Type: "function", Function: ToolFunction{Name: "ClickTool"}},
		},
		{
			name: "valid multi-word tool",
			tool: ToolSchema{Type: "function", Function: ToolFunction{Name: "NavigateToUrlTool"}},
		},
		{
			name:    "missing Tool suffix",
			tool:    ToolSchema{Type: "function", Function: ToolFunction{Name: "Click"}},
			wantErr: true,
		},
		{
			name:    "lowercase name",
			tool:    ToolSchema{Type: "function", Function: ToolFunction{Name: "clickTool"}},
			wantErr: true,
		},
		{
			name:    "snake case",
			tool:    ToolSchema{Type: "function", Function: ToolFunction{Name: "click_tool"}},
			wantErr: true,
		},
		{
			name:    "wrong type",
			tool:    ToolSchema{Type: "tool", Function: ToolFunction{Name: "ClickTool"}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateToolSchema(tt.tool)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPrettyToolName(t *testing.T) {
	assert.Equal(t, "click", PrettyToolName("ClickTool"))
	assert.Equal(t, "navigate to url", PrettyToolName("NavigateToUrlTool"))
	assert.Equal(t, "some thing", PrettyToolName("SomeThingTool"))
}

func TestParseModel(t *testing.T) {
	m, err := ParseModel("anthropic/claude-sonnet-4-20250514")
	require.NoError(t, err)
	assert.Equal(t, ProviderAnthropic, m.Provider)
	assert.Equal(t, "claude-sonnet-4-20250514", m.Name)

	m, err = ParseModel("openai")
	require.NoError(t, err)
	assert.Equal(t, ProviderOpenAI, m.Provider)
	assert.NotEmpty(t, m.Name, "bare provider resolves the default model")

	_, err = ParseModel("netscape/navigator")
	assert.Error(t, err)
}

func TestParsePlatform(t *testing.T) {
	for _, valid := range []string{"chromium", "xcuitest", "uiautomator2"} {
		_, err := ParsePlatform(valid)
		assert.NoError(t, err)
	}
	_, err := ParsePlatform("webos")
	assert.Error(t, err)
}
