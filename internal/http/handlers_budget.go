package http

import (
	"errors"
	"net/http"

	"fintrack/internal/auth"
	"fintrack/internal/core"
)

type budgetRequest struct {
	Month           int                  `json:"month"`
	Year            int                  `json:"year"`
	TotalBudget     core.Money           `json:"total_budget"`
	CategoryBudgets core.CategoryBudgets `json:"category_budgets"`
}

func (s *Server) handleSaveBudget(w http.ResponseWriter, r *http.Request) {
	var req budgetRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	budget, err := s.deps.Ledger.SaveBudget(r.Context(), core.Budget{
		UserID:          auth.UserID(r.Context()),
		Month:           req.Month,
		Year:            req.Year,
		TotalBudget:     req.TotalBudget,
		CategoryBudgets: req.CategoryBudgets,
	})
	if err != nil {
		s.writeError(w, r, err, "")
		return
	}
	s.writeJSON(w, http.StatusOK, budget)
}

func (s *Server) handleGetBudget(w http.ResponseWriter, r *http.Request) {
	month, year, err := periodParams(r)
	if err != nil {
		s.writeError(w, r, err, "")
		return
	}

	budget, err := s.deps.Ledger.GetBudget(r.Context(), auth.UserID(r.Context()), year, month)
	if errors.Is(err, core.ErrNotFound) {
		// An unset budget reads back as JSON null, not an error.
		s.writeJSON(w, http.StatusOK, nil)
		return
	}
	if err != nil {
		s.writeError(w, r, err, "")
		return
	}
	s.writeJSON(w, http.StatusOK, budget)
}

func (s *Server) handleBudgetAlerts(w http.ResponseWriter, r *http.Request) {
	month, year, err := periodParams(r)
	if err != nil {
		s.writeError(w, r, err, "")
		return
	}

	report, err := s.deps.Alerts.Evaluate(r.Context(), auth.UserID(r.Context()), month, year)
	if err != nil {
		s.writeError(w, r, err, "")
		return
	}
	s.writeJSON(w, http.StatusOK, report)
}
