package http

import (
	"errors"
	"net/http"
	"strings"

	"fintrack/internal/auth"
	"fintrack/internal/core"
)

type expenseRequest struct {
	Category      string             `json:"category"`
	Amount        core.Money         `json:"amount"`
	Date          core.Date          `json:"date"`
	Description   string             `json:"description"`
	PaymentMethod core.PaymentMethod `json:"payment_method"`
	CreditCardID  string             `json:"credit_card_id"`
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	e, err := s.deps.Ledger.CreateExpense(r.Context(), core.Expense{
		UserID:        auth.UserID(r.Context()),
		Category:      req.Category,
		Amount:        req.Amount,
		Date:          req.Date,
		Description:   req.Description,
		PaymentMethod: req.PaymentMethod,
		CreditCardID:  req.CreditCardID,
	})
	if err != nil {
		s.writeError(w, r, err, "Credit card not found")
		return
	}

	s.invalidateSummary(e.UserID, e.Date.Year(), e.Date.Month())
	s.writeJSON(w, http.StatusOK, e)
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	month, year, scoped, err := optionalPeriodParams(r)
	if err != nil {
		s.writeError(w, r, err, "")
		return
	}

	var expenses []core.Expense
	if scoped {
		expenses, err = s.deps.Ledger.ListExpensesByMonth(r.Context(), userID, year, month)
	} else {
		expenses, err = s.deps.Ledger.ListExpenses(r.Context(), userID)
	}
	if err != nil {
		s.writeError(w, r, err, "")
		return
	}
	if category := strings.TrimSpace(r.URL.Query().Get("category")); category != "" {
		filtered := make([]core.Expense, 0, len(expenses))
		for _, e := range expenses {
			if e.Category == category {
				filtered = append(filtered, e)
			}
		}
		expenses = filtered
	}
	if expenses == nil {
		expenses = []core.Expense{}
	}
	s.writeJSON(w, http.StatusOK, expenses)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	id := r.PathValue("id")

	e, err := s.deps.Ledger.GetExpense(r.Context(), userID, id)
	if err != nil && !errors.Is(err, core.ErrNotFound) {
		s.writeError(w, r, err, "")
		return
	}

	if err := s.deps.Ledger.DeleteExpense(r.Context(), userID, id); err != nil {
		s.writeError(w, r, err, "Expense not found")
		return
	}

	s.invalidateSummary(userID, e.Date.Year(), e.Date.Month())
	s.writeMessage(w, http.StatusOK, "Expense deleted")
}
