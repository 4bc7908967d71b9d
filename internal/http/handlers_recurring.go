package http

import (
	"fmt"
	"net/http"

	"fintrack/internal/auth"
	"fintrack/internal/core"
)

type recurringItemRequest struct {
	ItemType      core.ItemType      `json:"item_type"`
	Source        string             `json:"source"`
	Category      string             `json:"category"`
	Amount        core.Money         `json:"amount"`
	Description   string             `json:"description"`
	PaymentMethod core.PaymentMethod `json:"payment_method"`
	CreditCardID  string             `json:"credit_card_id"`
	DayOfMonth    int                `json:"day_of_month"`
}

// recurringItemUpdate uses pointers so absent fields keep their stored value.
type recurringItemUpdate struct {
	Source        *string             `json:"source"`
	Category      *string             `json:"category"`
	Amount        *core.Money         `json:"amount"`
	Description   *string             `json:"description"`
	PaymentMethod *core.PaymentMethod `json:"payment_method"`
	CreditCardID  *string             `json:"credit_card_id"`
	DayOfMonth    *int                `json:"day_of_month"`
	IsActive      *bool               `json:"is_active"`
}

func (s *Server) handleCreateRecurringItem(w http.ResponseWriter, r *http.Request) {
	var req recurringItemRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	item, err := s.deps.Ledger.CreateRecurringItem(r.Context(), core.RecurringItem{
		UserID:        auth.UserID(r.Context()),
		ItemType:      req.ItemType,
		Source:        req.Source,
		Category:      req.Category,
		Amount:        req.Amount,
		Description:   req.Description,
		PaymentMethod: req.PaymentMethod,
		CreditCardID:  req.CreditCardID,
		DayOfMonth:    req.DayOfMonth,
	})
	if err != nil {
		s.writeError(w, r, err, "Credit card not found")
		return
	}
	s.writeJSON(w, http.StatusOK, item)
}

func (s *Server) handleListRecurringItems(w http.ResponseWriter, r *http.Request) {
	items, err := s.deps.Ledger.ListRecurringItems(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		s.writeError(w, r, err, "")
		return
	}
	if items == nil {
		items = []core.RecurringItem{}
	}
	s.writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleUpdateRecurringItem(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	id := r.PathValue("id")

	item, err := s.deps.Ledger.GetRecurringItem(r.Context(), userID, id)
	if err != nil {
		s.writeError(w, r, err, "Recurring item not found")
		return
	}

	var req recurringItemUpdate
	if !s.decodeJSON(w, r, &req) {
		return
	}

	if req.Source != nil {
		item.Source = *req.Source
	}
	if req.Category != nil {
		item.Category = *req.Category
	}
	if req.Amount != nil {
		item.Amount = *req.Amount
	}
	if req.Description != nil {
		item.Description = *req.Description
	}
	if req.PaymentMethod != nil {
		item.PaymentMethod = *req.PaymentMethod
	}
	if req.CreditCardID != nil {
		item.CreditCardID = *req.CreditCardID
	}
	if req.DayOfMonth != nil {
		item.DayOfMonth = *req.DayOfMonth
	}
	if req.IsActive != nil {
		item.IsActive = *req.IsActive
	}

	updated, err := s.deps.Ledger.UpdateRecurringItem(r.Context(), item)
	if err != nil {
		s.writeError(w, r, err, "Recurring item not found")
		return
	}
	s.writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteRecurringItem(w http.ResponseWriter, r *http.Request) {
	err := s.deps.Ledger.DeleteRecurringItem(r.Context(), auth.UserID(r.Context()), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err, "Recurring item not found")
		return
	}
	s.writeMessage(w, http.StatusOK, "Recurring item deleted")
}

func (s *Server) handleProcessRecurring(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	month, year, err := periodParams(r)
	if err != nil {
		s.writeError(w, r, err, "")
		return
	}

	result, err := s.deps.Materializer.Process(r.Context(), userID, month, year)
	if err != nil {
		s.writeError(w, r, err, "")
		return
	}

	s.invalidateSummary(userID, year, month)
	s.writeJSON(w, http.StatusOK, map[string]any{
		"message":       fmt.Sprintf("Processed %d recurring items", result.CreatedCount),
		"created_count": result.CreatedCount,
		"created_ids":   result.CreatedIDs,
	})
}
