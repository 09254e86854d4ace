package server

import (
	"net/http"

	"github.com/sudoCommit/alumnium/pkg/types"
)

// addExample handles POST /v1/sessions/{sessionID}/examples.
func (s *Server) addExample(w http.ResponseWriter, r *http.Request) {
	sess := s.resolve(w, r)
	if sess == nil {
		return
	}

	var req AddExampleRequest
	if err := decodeBody(r, &req); err != nil {
		validationError(w, err.Error())
		return
	}
	if req.Goal == "" || len(req.Actions) == 0 {
		validationError(w, "goal and actions are required")
		return
	}

	sess.AddExample(types.Example{Goal: req.Goal, Actions: req.Actions})
	writeJSON(w, http.StatusOK, AckResponse{
		APIVersion: apiVersion,
		Success:    true,
		Message:    "Example added successfully",
	})
}

// clearExamples handles DELETE /v1/sessions/{sessionID}/examples.
func (s *Server) clearExamples(w http.ResponseWriter, r *http.Request) {
	sess := s.resolve(w, r)
	if sess == nil {
		return
	}

	sess.ClearExamples()
	writeJSON(w, http.StatusOK, AckResponse{
		APIVersion: apiVersion,
		Success:    true,
		Message:    "All examples cleared successfully",
	})
}

// saveCache handles POST /v1/sessions/{sessionID}/caches.
func (s *Server) saveCache(w http.ResponseWriter, r *http.Request) {
	sess := s.resolve(w, r)
	if sess == nil {
		return
	}

	if err := sess.SaveCache(r.Context()); err != nil {
		internalError(w, "Failed to save cache", err)
		return
	}
	writeJSON(w, http.StatusOK, AckResponse{
		APIVersion: apiVersion,
		Success:    true,
		Message:    "Cache saved successfully",
	})
}

// discardCache handles DELETE /v1/sessions/{sessionID}/caches.
func (s *Server) discardCache(w http.ResponseWriter, r *http.Request) {
	sess := s.resolve(w, r)
	if sess == nil {
		return
	}

	sess.DiscardCache()
	writeJSON(w, http.StatusOK, AckResponse{
		APIVersion: apiVersion,
		Success:    true,
		Message:    "Cache discarded successfully",
	})
}
