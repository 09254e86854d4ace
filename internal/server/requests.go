package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/sudoCommit/alumnium/internal/session"
	"github.com/sudoCommit/alumnium/pkg/types"
)

// Request bodies. Every body carries api_version defaulting to "v1".

// CreateSessionRequest creates a session.
type CreateSessionRequest struct {
	APIVersion string             `json:"api_version"`
	Provider   string             `json:"provider"`
	Name       string             `json:"name"`
	Platform   string             `json:"platform"`
	Tools      []types.ToolSchema `json:"tools"`
	Planner    *bool              `json:"planner"`
}

// PlanRequest asks the planner for steps.
type PlanRequest struct {
	APIVersion        string `json:"api_version"`
	Goal              string `json:"goal"`
	AccessibilityTree string `json:"accessibility_tree"`
	URL               string `json:"url"`
	Title             string `json:"title"`
}

// StepRequest asks the actor for the tool calls of one step.
type StepRequest struct {
	APIVersion        string `json:"api_version"`
	Goal              string `json:"goal"`
	Step              string `json:"step"`
	AccessibilityTree string `json:"accessibility_tree"`
}

// StatementRequest asks the retriever for information.
type StatementRequest struct {
	APIVersion        string `json:"api_version"`
	Statement         string `json:"statement"`
	AccessibilityTree string `json:"accessibility_tree"`
	URL               string `json:"url"`
	Title             string `json:"title"`
	Screenshot        string `json:"screenshot"`
}

// AreaRequest asks the area agent for a subtree.
type AreaRequest struct {
	APIVersion        string `json:"api_version"`
	Description       string `json:"description"`
	AccessibilityTree string `json:"accessibility_tree"`
}

// FindRequest asks the locator agent for elements.
type FindRequest struct {
	APIVersion        string `json:"api_version"`
	Description       string `json:"description"`
	AccessibilityTree string `json:"accessibility_tree"`
}

// ChangeStateBody is one side of a before/after comparison.
type ChangeStateBody struct {
	AccessibilityTree string `json:"accessibility_tree"`
	URL               string `json:"url"`
}

// ChangesRequest asks the changes analyzer for a summary.
type ChangesRequest struct {
	APIVersion string           `json:"api_version"`
	Before     *ChangeStateBody `json:"before"`
	After      *ChangeStateBody `json:"after"`
}

// AddExampleRequest appends a learned planner example.
type AddExampleRequest struct {
	APIVersion string   `json:"api_version"`
	Goal       string   `json:"goal"`
	Actions    []string `json:"actions"`
}

// Response bodies.

// HealthResponse reports liveness and the process-wide model.
type HealthResponse struct {
	Status string `json:"status"`
	Model  string `json:"model"`
}

// SessionResponse returns a created session's ID.
type SessionResponse struct {
	APIVersion string `json:"api_version"`
	SessionID  string `json:"session_id"`
}

// PlanResponse carries the planner output.
type PlanResponse struct {
	APIVersion  string   `json:"api_version"`
	Explanation string   `json:"explanation"`
	Steps       []string `json:"steps"`
}

// StepResponse carries the actor output with raw driver IDs.
type StepResponse struct {
	APIVersion  string           `json:"api_version"`
	Explanation string           `json:"explanation"`
	Actions     []types.ToolCall `json:"actions"`
}

// StatementResponse carries the retriever output; result is a string or a
// list of strings.
type StatementResponse struct {
	APIVersion  string `json:"api_version"`
	Result      any    `json:"result"`
	Explanation string `json:"explanation"`
}

// AreaResponse carries the located area with its raw driver ID.
type AreaResponse struct {
	APIVersion  string `json:"api_version"`
	ID          any    `json:"id"`
	Explanation string `json:"explanation"`
}

// FindResponse carries located elements with raw driver IDs.
type FindResponse struct {
	APIVersion string                  `json:"api_version"`
	Elements   []session.ElementResult `json:"elements"`
}

// ChangesResponse carries the change summary.
type ChangesResponse struct {
	APIVersion string `json:"api_version"`
	Result     string `json:"result"`
}

// AckResponse acknowledges example and cache operations.
type AckResponse struct {
	APIVersion string `json:"api_version"`
	Success    bool   `json:"success"`
	Message    string `json:"message"`
}

// decodeBody decodes a JSON request body. Malformed JSON is a validation
// failure, not a bad request: clients speak a typed protocol.
func decodeBody(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}
