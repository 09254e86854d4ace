package server

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// setupRoutes configures all API routes. Timeouts are attached per route:
// agent pipelines get the long budget, locate calls a middling one and
// registry operations the short one.
func (s *Server) setupRoutes() {
	r := s.router

	r.Get("/health", s.health)

	control := middleware.Timeout(controlTimeout)
	agents := middleware.Timeout(agentTimeout)
	locate := middleware.Timeout(locateTimeout)

	r.Route("/v1", func(r chi.Router) {
		r.With(control).Post("/sessions", s.createSession)
		r.With(control).Get("/sessions", s.listSessions)
		r.With(control).Get("/stats", s.totalStats)

		r.Route("/sessions/{sessionID}", func(r chi.Router) {
			r.With(control).Delete("/", s.deleteSession)
			r.With(control).Get("/stats", s.sessionStats)

			r.With(agents).Post("/plans", s.planActions)
			r.With(agents).Post("/steps", s.planStepActions)
			r.With(agents).Post("/statements", s.executeStatement)
			r.With(agents).Post("/changes", s.analyzeChanges)

			r.With(locate).Post("/areas", s.chooseArea)
			r.With(locate).Post("/elements", s.findElements)

			r.With(control).Post("/examples", s.addExample)
			r.With(control).Delete("/examples", s.clearExamples)

			r.With(control).Post("/caches", s.saveCache)
			r.With(control).Delete("/caches", s.discardCache)
		})
	})
}
