package server

import (
	"net/http"

	"github.com/sudoCommit/alumnium/internal/session"
)

// planActions handles POST /v1/sessions/{sessionID}/plans.
func (s *Server) planActions(w http.ResponseWriter, r *http.Request) {
	sess := s.resolve(w, r)
	if sess == nil {
		return
	}

	var req PlanRequest
	if err := decodeBody(r, &req); err != nil {
		validationError(w, err.Error())
		return
	}
	if req.Goal == "" || req.AccessibilityTree == "" {
		validationError(w, "goal and accessibility_tree are required")
		return
	}

	explanation, steps, err := sess.Plan(r.Context(), req.Goal, req.AccessibilityTree)
	if err != nil {
		internalError(w, "Failed to plan actions", err)
		return
	}
	if steps == nil {
		steps = []string{}
	}

	writeJSON(w, http.StatusOK, PlanResponse{
		APIVersion:  apiVersion,
		Explanation: explanation,
		Steps:       steps,
	})
}

// planStepActions handles POST /v1/sessions/{sessionID}/steps.
func (s *Server) planStepActions(w http.ResponseWriter, r *http.Request) {
	sess := s.resolve(w, r)
	if sess == nil {
		return
	}

	var req StepRequest
	if err := decodeBody(r, &req); err != nil {
		validationError(w, err.Error())
		return
	}
	if req.Goal == "" || req.AccessibilityTree == "" {
		validationError(w, "goal and accessibility_tree are required")
		return
	}

	explanation, actions, err := sess.ExecuteStep(r.Context(), req.Goal, req.Step, req.AccessibilityTree)
	if err != nil {
		internalError(w, "Failed to execute actions", err)
		return
	}

	writeJSON(w, http.StatusOK, StepResponse{
		APIVersion:  apiVersion,
		Explanation: explanation,
		Actions:     actions,
	})
}

// executeStatement handles POST /v1/sessions/{sessionID}/statements.
func (s *Server) executeStatement(w http.ResponseWriter, r *http.Request) {
	sess := s.resolve(w, r)
	if sess == nil {
		return
	}

	var req StatementRequest
	if err := decodeBody(r, &req); err != nil {
		validationError(w, err.Error())
		return
	}
	if req.Statement == "" || req.AccessibilityTree == "" {
		validationError(w, "statement and accessibility_tree are required")
		return
	}

	explanation, result, err := sess.Retrieve(r.Context(), req.Statement, req.AccessibilityTree, req.Title, req.URL, req.Screenshot)
	if err != nil {
		internalError(w, "Failed to verify statement", err)
		return
	}

	writeJSON(w, http.StatusOK, StatementResponse{
		APIVersion:  apiVersion,
		Result:      result,
		Explanation: explanation,
	})
}

// chooseArea handles POST /v1/sessions/{sessionID}/areas.
func (s *Server) chooseArea(w http.ResponseWriter, r *http.Request) {
	sess := s.resolve(w, r)
	if sess == nil {
		return
	}

	var req AreaRequest
	if err := decodeBody(r, &req); err != nil {
		validationError(w, err.Error())
		return
	}
	if req.Description == "" || req.AccessibilityTree == "" {
		validationError(w, "description and accessibility_tree are required")
		return
	}

	area, err := sess.FindArea(r.Context(), req.Description, req.AccessibilityTree)
	if err != nil {
		internalError(w, "Failed to choose accessibility area", err)
		return
	}

	writeJSON(w, http.StatusOK, AreaResponse{
		APIVersion:  apiVersion,
		ID:          area.ID,
		Explanation: area.Explanation,
	})
}

// findElements handles POST /v1/sessions/{sessionID}/elements.
func (s *Server) findElements(w http.ResponseWriter, r *http.Request) {
	sess := s.resolve(w, r)
	if sess == nil {
		return
	}

	var req FindRequest
	if err := decodeBody(r, &req); err != nil {
		validationError(w, err.Error())
		return
	}
	if req.Description == "" || req.AccessibilityTree == "" {
		validationError(w, "description and accessibility_tree are required")
		return
	}

	elements, err := sess.FindElements(r.Context(), req.Description, req.AccessibilityTree)
	if err != nil {
		internalError(w, "Failed to find element", err)
		return
	}

	writeJSON(w, http.StatusOK, FindResponse{APIVersion: apiVersion, Elements: elements})
}

// analyzeChanges handles POST /v1/sessions/{sessionID}/changes.
func (s *Server) analyzeChanges(w http.ResponseWriter, r *http.Request) {
	sess := s.resolve(w, r)
	if sess == nil {
		return
	}

	var req ChangesRequest
	if err := decodeBody(r, &req); err != nil {
		validationError(w, err.Error())
		return
	}
	if req.Before == nil || req.After == nil || req.Before.AccessibilityTree == "" || req.After.AccessibilityTree == "" {
		validationError(w, "before and after states with accessibility trees are required")
		return
	}

	result, err := sess.AnalyzeChanges(r.Context(),
		session.ChangeState{Tree: req.Before.AccessibilityTree, URL: req.Before.URL},
		session.ChangeState{Tree: req.After.AccessibilityTree, URL: req.After.URL},
	)
	if err != nil {
		internalError(w, "Failed to analyze change", err)
		return
	}

	writeJSON(w, http.StatusOK, ChangesResponse{APIVersion: apiVersion, Result: result})
}
