package http

import (
	"errors"
	"net/http"

	"fintrack/internal/auth"
	"fintrack/internal/core"
)

type incomeRequest struct {
	Source      string     `json:"source"`
	Amount      core.Money `json:"amount"`
	Date        core.Date  `json:"date"`
	Description string     `json:"description"`
}

func (s *Server) handleCreateIncome(w http.ResponseWriter, r *http.Request) {
	var req incomeRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	in, err := s.deps.Ledger.CreateIncome(r.Context(), core.Income{
		UserID:      auth.UserID(r.Context()),
		Source:      req.Source,
		Amount:      req.Amount,
		Date:        req.Date,
		Description: req.Description,
	})
	if err != nil {
		s.writeError(w, r, err, "")
		return
	}

	s.invalidateSummary(in.UserID, in.Date.Year(), in.Date.Month())
	s.writeJSON(w, http.StatusOK, in)
}

func (s *Server) handleListIncome(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	month, year, scoped, err := optionalPeriodParams(r)
	if err != nil {
		s.writeError(w, r, err, "")
		return
	}

	var incomes []core.Income
	if scoped {
		incomes, err = s.deps.Ledger.ListIncomesByMonth(r.Context(), userID, year, month)
	} else {
		incomes, err = s.deps.Ledger.ListIncomes(r.Context(), userID)
	}
	if err != nil {
		s.writeError(w, r, err, "")
		return
	}
	if incomes == nil {
		incomes = []core.Income{}
	}
	s.writeJSON(w, http.StatusOK, incomes)
}

func (s *Server) handleDeleteIncome(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	id := r.PathValue("id")

	// Fetch first so the summary cache for the record's month can be dropped.
	in, err := s.deps.Ledger.GetIncome(r.Context(), userID, id)
	if err != nil && !errors.Is(err, core.ErrNotFound) {
		s.writeError(w, r, err, "")
		return
	}

	if err := s.deps.Ledger.DeleteIncome(r.Context(), userID, id); err != nil {
		s.writeError(w, r, err, "Income not found")
		return
	}

	s.invalidateSummary(userID, in.Date.Year(), in.Date.Month())
	s.writeMessage(w, http.StatusOK, "Income deleted")
}
