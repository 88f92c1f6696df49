package api

import (
	"encoding/json"
	"net/http"
	"strconv"
)

func (s *Server) handleRenderStats(w http.ResponseWriter, r *http.Request) {
	if s.stats == nil {
		jsonError(w, "render stats unavailable", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"sessions": s.sessions.Len(),
		"stats":    s.stats.Snapshot(),
	})
}

func (s *Server) handleRenders(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		jsonError(w, "render history disabled", http.StatusServiceUnavailable)
		return
	}
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	entries, err := s.history.Recent(r.Context(), limit)
	if err != nil {
		jsonError(w, "failed to list renders: "+err.Error(), http.StatusInternalServerError)
		return
	}
	counts, err := s.history.CountByDialect(r.Context())
	if err != nil {
		jsonError(w, "failed to count renders: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"renders":    entries,
		"by_dialect": counts,
	})
}
