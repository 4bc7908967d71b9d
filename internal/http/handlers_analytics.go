package http

import (
	"net/http"

	"fintrack/internal/auth"
)

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	month, year, err := periodParams(r)
	if err != nil {
		s.writeError(w, r, err, "")
		return
	}

	key := summaryCacheKey(userID, year, month)
	if summary, ok := s.summaryCache.Get(key); ok {
		s.writeJSON(w, http.StatusOK, summary)
		return
	}

	summary, err := s.deps.Aggregator.Summarize(r.Context(), userID, month, year)
	if err != nil {
		s.writeError(w, r, err, "")
		return
	}

	s.summaryCache.Set(key, summary)
	s.writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleTrends(w http.ResponseWriter, r *http.Request) {
	months, err := monthsParam(r)
	if err != nil {
		s.writeError(w, r, err, "")
		return
	}

	points, err := s.deps.Trends.Trends(r.Context(), auth.UserID(r.Context()), months)
	if err != nil {
		s.writeError(w, r, err, "")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"trends": points})
}

func (s *Server) handleCategoryTrends(w http.ResponseWriter, r *http.Request) {
	months, err := monthsParam(r)
	if err != nil {
		s.writeError(w, r, err, "")
		return
	}

	trends, err := s.deps.Trends.CategoryTrends(r.Context(), auth.UserID(r.Context()), months)
	if err != nil {
		s.writeError(w, r, err, "")
		return
	}
	s.writeJSON(w, http.StatusOK, trends)
}
