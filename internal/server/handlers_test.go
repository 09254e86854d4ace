package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sudoCommit/alumnium/internal/llmtest"
	"github.com/sudoCommit/alumnium/internal/session"
	"github.com/sudoCommit/alumnium/pkg/types"
)

func newTestServer(fake *llmtest.FakeChatModel) *Server {
	mgr := session.NewManager(session.Options{ChatModel: fake})
	return New(DefaultConfig(), mgr, types.NewModel(types.ProviderAnthropic, ""))
}

func do(t *testing.T, srv *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body == nil {
		reader = bytes.NewReader(nil)
	} else if raw, ok := body.(string); ok {
		reader = bytes.NewReader([]byte(raw))
	} else {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(w.Body).Decode(v))
}

func sampleToolSchemas() []map[string]any {
	return []map[string]any{
		{
			"type": "function",
			"function": map[string]any{
				"name":        "ClickTool",
				"description": "Click an element.",
				"parameters": map[string]any{
					"type":       "object",
					"properties": map[string]any{"id": map[string]any{"type": "integer"}},
					"required":   []string{"id"},
				},
			},
		},
		{
			"type": "function",
			"function": map[string]any{
				"name":        "TypeTool",
				"description": "Type text into an element.",
				"parameters": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"id":   map[string]any{"type": "integer"},
						"text": map[string]any{"type": "string"},
					},
					"required": []string{"id", "text"},
				},
			},
		},
	}
}

func createTestSession(t *testing.T, srv *Server, overrides map[string]any) string {
	t.Helper()

	body := map[string]any{
		"provider": "anthropic",
		"platform": "chromium",
		"tools":    sampleToolSchemas(),
	}
	for k, v := range overrides {
		body[k] = v
	}

	w := do(t, srv, http.MethodPost, "/v1/sessions", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp SessionResponse
	decode(t, w, &resp)
	require.NotEmpty(t, resp.SessionID)
	return resp.SessionID
}

func TestHealth(t *testing.T) {
	srv := newTestServer(llmtest.New())

	w := do(t, srv, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp HealthResponse
	decode(t, w, &resp)
	assert.Equal(t, "healthy", resp.Status)
	assert.Contains(t, resp.Model, "anthropic/")
}

// Session lifecycle: create, list, delete, list again.
func TestSessionLifecycle(t *testing.T) {
	srv := newTestServer(llmtest.New())

	sid := createTestSession(t, srv, nil)

	var ids []string
	w := do(t, srv, http.MethodGet, "/v1/sessions", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &ids)
	assert.Contains(t, ids, sid)

	w = do(t, srv, http.MethodDelete, "/v1/sessions/"+sid, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(t, srv, http.MethodGet, "/v1/sessions", nil)
	decode(t, w, &ids)
	assert.NotContains(t, ids, sid)

	w = do(t, srv, http.MethodDelete, "/v1/sessions/"+sid, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// Plan with planner off: the goal passes through, stats stay at zero.
func TestPlanWithPlannerOff(t *testing.T) {
	fake := llmtest.New()
	srv := newTestServer(fake)
	sid := createTestSession(t, srv, map[string]any{"planner": false})

	w := do(t, srv, http.MethodPost, "/v1/sessions/"+sid+"/plans", map[string]any{
		"goal":               "click submit",
		"accessibility_tree": "<root/>",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp PlanResponse
	decode(t, w, &resp)
	assert.Equal(t, "click submit", resp.Explanation)
	assert.Equal(t, []string{"click submit"}, resp.Steps)
	assert.Zero(t, fake.CallCount())

	var stats types.SessionStats
	w = do(t, srv, http.MethodGet, "/v1/sessions/"+sid+"/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &stats)
	assert.Zero(t, stats.Total.TotalTokens)
}

// stepTree has a button whose opaque id is 9 and raw id is "btn-submit":
// the root plus seven text nodes precede it in document order.
func stepTree() string {
	nodes := []string{`{"nodeId": "root", "role": {"value": "RootWebArea"}, "name": {"value": "Form"}, "childIds": ["t1","t2","t3","t4","t5","t6","t7","btn-submit"]}`}
	for i := 1; i <= 7; i++ {
		nodes = append(nodes, fmt.Sprintf(`{"nodeId": "t%d", "role": {"value": "text"}, "name": {"value": "field %d"}}`, i, i))
	}
	nodes = append(nodes, `{"nodeId": "btn-submit", "role": {"value": "button"}, "name": {"value": "Submit"}}`)
	return `{"nodes": [` + strings.Join(nodes, ",") + `]}`
}

// Step ID rewrite: the actor answers with opaque id 9, the response carries
// the raw driver id.
func TestStepRewritesOpaqueIDToRawID(t *testing.T) {
	fake := llmtest.New(llmtest.ToolCalls(10, 5, schema.ToolCall{
		ID:       "c1",
		Function: schema.FunctionCall{Name: "ClickTool", Arguments: `{"id": 9}`},
	}))
	srv := newTestServer(fake)
	sid := createTestSession(t, srv, nil)

	w := do(t, srv, http.MethodPost, "/v1/sessions/"+sid+"/steps", map[string]any{
		"goal":               "submit the form",
		"step":               "click the submit button",
		"accessibility_tree": stepTree(),
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp StepResponse
	decode(t, w, &resp)
	require.Len(t, resp.Actions, 1)
	assert.Equal(t, "ClickTool", resp.Actions[0].Tool)
	assert.Equal(t, "btn-submit", resp.Actions[0].Args["id"])
}

// Changes with URL change: the URL sentence is prepended to the analyzer
// output.
func TestChangesWithURLChange(t *testing.T) {
	fake := llmtest.New(llmtest.Text("X", 1, 1))
	srv := newTestServer(fake)
	sid := createTestSession(t, srv, nil)

	tree := `{"nodes": [{"nodeId": "r", "role": {"value": "RootWebArea"}, "name": {"value": "App"}}]}`
	w := do(t, srv, http.MethodPost, "/v1/sessions/"+sid+"/changes", map[string]any{
		"before": map[string]any{"accessibility_tree": tree, "url": "https://e.com/1"},
		"after":  map[string]any{"accessibility_tree": tree, "url": "https://e.com/2"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp ChangesResponse
	decode(t, w, &resp)
	assert.True(t, strings.HasPrefix(resp.Result, "URL changed to https://e.com/2. "), resp.Result)
	assert.True(t, strings.HasSuffix(resp.Result, "X"), resp.Result)
}

// Retriever multi-value: separator-delimited values arrive as a list.
func TestStatementMultiValue(t *testing.T) {
	fake := llmtest.New(llmtest.Structured("RetrievedInformation",
		`{"explanation": "found the list", "value": "a<SEP>b<SEP>c"}`, 5, 5))
	srv := newTestServer(fake)
	sid := createTestSession(t, srv, nil)

	tree := `{"nodes": [{"nodeId": "r", "role": {"value": "RootWebArea"}, "name": {"value": "App"}}]}`
	w := do(t, srv, http.MethodPost, "/v1/sessions/"+sid+"/statements", map[string]any{
		"statement":          "all items",
		"accessibility_tree": tree,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp StatementResponse
	decode(t, w, &resp)
	assert.Equal(t, []any{"a", "b", "c"}, resp.Result)
	assert.Equal(t, "found the list", resp.Explanation)
}

// Unknown session: 404 with the error envelope.
func TestUnknownSession(t *testing.T) {
	srv := newTestServer(llmtest.New())

	w := do(t, srv, http.MethodPost, "/v1/sessions/does-not-exist/plans", map[string]any{
		"goal":               "anything",
		"accessibility_tree": "<root/>",
	})
	require.Equal(t, http.StatusNotFound, w.Code)

	var resp ErrorResponse
	decode(t, w, &resp)
	assert.Equal(t, "Session not found", resp.Error)
}

func TestAreaReturnsRawID(t *testing.T) {
	fake := llmtest.New(llmtest.Structured("Area",
		`{"explanation": "the list area", "id": 2}`, 5, 5))
	srv := newTestServer(fake)
	sid := createTestSession(t, srv, nil)

	tree := `{"nodes": [
		{"nodeId": "r", "role": {"value": "RootWebArea"}, "name": {"value": "App"}, "childIds": ["list"]},
		{"nodeId": "list", "role": {"value": "list"}, "name": {"value": "Todos"}}
	]}`
	w := do(t, srv, http.MethodPost, "/v1/sessions/"+sid+"/areas", map[string]any{
		"description":        "the todo list",
		"accessibility_tree": tree,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp AreaResponse
	decode(t, w, &resp)
	assert.Equal(t, "list", resp.ID)
	assert.Equal(t, "the list area", resp.Explanation)
}

func TestFindElementsReturnsRawIDs(t *testing.T) {
	fake := llmtest.New(llmtest.Structured("Locator",
		`{"explanation": "the checkbox", "id": 2}`, 5, 5))
	srv := newTestServer(fake)
	sid := createTestSession(t, srv, nil)

	tree := `{"nodes": [
		{"nodeId": "r", "role": {"value": "RootWebArea"}, "name": {"value": "App"}, "childIds": ["cb"]},
		{"nodeId": "cb", "role": {"value": "checkbox"}, "name": {"value": "Done"}}
	]}`
	w := do(t, srv, http.MethodPost, "/v1/sessions/"+sid+"/elements", map[string]any{
		"description":        "the done checkbox",
		"accessibility_tree": tree,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp FindResponse
	decode(t, w, &resp)
	require.Len(t, resp.Elements, 1)
	assert.Equal(t, "cb", resp.Elements[0].ID)
}

func TestExampleEndpoints(t *testing.T) {
	srv := newTestServer(llmtest.New())
	sid := createTestSession(t, srv, nil)

	w := do(t, srv, http.MethodPost, "/v1/sessions/"+sid+"/examples", map[string]any{
		"goal":    "open settings",
		"actions": []string{"click the gear icon"},
	})
	require.Equal(t, http.StatusOK, w.Code)

	var ack AckResponse
	decode(t, w, &ack)
	assert.True(t, ack.Success)

	// Missing actions is a validation failure.
	w = do(t, srv, http.MethodPost, "/v1/sessions/"+sid+"/examples", map[string]any{"goal": "g"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	// Clearing twice stays successful.
	for i := 0; i < 2; i++ {
		w = do(t, srv, http.MethodDelete, "/v1/sessions/"+sid+"/examples", nil)
		require.Equal(t, http.StatusOK, w.Code)
		decode(t, w, &ack)
		assert.True(t, ack.Success)
	}
}

func TestCacheEndpoints(t *testing.T) {
	srv := newTestServer(llmtest.New())
	sid := createTestSession(t, srv, nil)

	var ack AckResponse
	w := do(t, srv, http.MethodPost, "/v1/sessions/"+sid+"/caches", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &ack)
	assert.True(t, ack.Success)

	w = do(t, srv, http.MethodDelete, "/v1/sessions/"+sid+"/caches", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &ack)
	assert.True(t, ack.Success)
}

func TestCreateSessionValidation(t *testing.T) {
	srv := newTestServer(llmtest.New())

	// Unknown provider.
	w := do(t, srv, http.MethodPost, "/v1/sessions", map[string]any{
		"provider": "netscape", "platform": "chromium", "tools": sampleToolSchemas(),
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	// Unknown platform.
	w = do(t, srv, http.MethodPost, "/v1/sessions", map[string]any{
		"provider": "anthropic", "platform": "webos", "tools": sampleToolSchemas(),
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	// Tool name not PascalCaseTool.
	w = do(t, srv, http.MethodPost, "/v1/sessions", map[string]any{
		"provider": "anthropic", "platform": "chromium",
		"tools": []map[string]any{{"type": "function", "function": map[string]any{"name": "click_tool"}}},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	// Malformed JSON.
	w = do(t, srv, http.MethodPost, "/v1/sessions", "{not json")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestPlanValidation(t *testing.T) {
	srv := newTestServer(llmtest.New())
	sid := createTestSession(t, srv, nil)

	w := do(t, srv, http.MethodPost, "/v1/sessions/"+sid+"/plans", map[string]any{"goal": "g"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestMalformedTreeIsAnInternalError(t *testing.T) {
	fake := llmtest.New(llmtest.Structured("Plan", `{"explanation": "", "actions": []}`, 1, 1))
	srv := newTestServer(fake)
	sid := createTestSession(t, srv, nil)

	w := do(t, srv, http.MethodPost, "/v1/sessions/"+sid+"/plans", map[string]any{
		"goal":               "g",
		"accessibility_tree": "{broken",
	})
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var resp ErrorResponse
	decode(t, w, &resp)
	assert.NotEmpty(t, resp.Detail)
}
