package http

import (
	"net/http"

	"spendtrack/internal/core"
)

// handleStats serves the aggregate view over the caller's visible rows.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		MethodNotAllowedError("GET").Write(w)
		return
	}

	stats, err := s.svc.Stats(r.Context(), core.Filter{UserID: s.scopeUserID(r)})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	NewJSONResponse().Body(stats).Write(w)
}
