package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sudoCommit/alumnium/internal/session"
	"github.com/sudoCommit/alumnium/pkg/types"
)

// health handles GET /health.
func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status: "healthy",
		Model:  s.model.String(),
	})
}

// createSession handles POST /v1/sessions.
func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if err := decodeBody(r, &req); err != nil {
		validationError(w, err.Error())
		return
	}

	provider, err := types.ParseProvider(req.Provider)
	if err != nil {
		validationError(w, err.Error())
		return
	}
	platform, err := types.ParsePlatform(req.Platform)
	if err != nil {
		validationError(w, err.Error())
		return
	}
	for _, tool := range req.Tools {
		if err := types.ValidateToolSchema(tool); err != nil {
			validationError(w, err.Error())
			return
		}
	}

	plannerEnabled := true
	if req.Planner != nil {
		plannerEnabled = *req.Planner
	}

	id, err := s.sessions.Create(r.Context(), types.NewModel(provider, req.Name), platform, req.Tools, plannerEnabled)
	if err != nil {
		internalError(w, "Failed to create session", err)
		return
	}

	writeJSON(w, http.StatusOK, SessionResponse{APIVersion: apiVersion, SessionID: id})
}

// listSessions handles GET /v1/sessions.
func (s *Server) listSessions(w http.ResponseWriter, _ *http.Request) {
	ids := s.sessions.List()
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, ids)
}

// deleteSession handles DELETE /v1/sessions/{sessionID}.
func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request) {
	if !s.sessions.Delete(chi.URLParam(r, "sessionID")) {
		notFound(w)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// sessionStats handles GET /v1/sessions/{sessionID}/stats.
func (s *Server) sessionStats(w http.ResponseWriter, r *http.Request) {
	sess := s.resolve(w, r)
	if sess == nil {
		return
	}
	writeJSON(w, http.StatusOK, sess.Stats())
}

// totalStats handles GET /v1/stats.
func (s *Server) totalStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.sessions.TotalStats())
}

// resolve loads the request's session, writing the 404 envelope when it
// does not exist.
func (s *Server) resolve(w http.ResponseWriter, r *http.Request) *session.Session {
	sess := s.sessions.Get(chi.URLParam(r, "sessionID"))
	if sess == nil {
		notFound(w)
	}
	return sess
}
