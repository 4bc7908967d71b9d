package http

import (
	"net/http"

	"fintrack/internal/auth"
	"fintrack/internal/core"
)

type cardRequest struct {
	Name           string `json:"name"`
	LastFourDigits string `json:"last_four_digits"`
	CardType       string `json:"card_type"`
}

func (s *Server) handleCreateCard(w http.ResponseWriter, r *http.Request) {
	var req cardRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	card, err := s.deps.Ledger.CreateCard(r.Context(), core.CreditCard{
		UserID:         auth.UserID(r.Context()),
		Name:           req.Name,
		LastFourDigits: req.LastFourDigits,
		CardType:       req.CardType,
	})
	if err != nil {
		s.writeError(w, r, err, "")
		return
	}
	s.writeJSON(w, http.StatusOK, card)
}

func (s *Server) handleListCards(w http.ResponseWriter, r *http.Request) {
	cards, err := s.deps.Ledger.ListCards(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		s.writeError(w, r, err, "")
		return
	}
	if cards == nil {
		cards = []core.CreditCard{}
	}
	s.writeJSON(w, http.StatusOK, cards)
}

func (s *Server) handleDeleteCard(w http.ResponseWriter, r *http.Request) {
	err := s.deps.Ledger.DeleteCard(r.Context(), auth.UserID(r.Context()), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err, "Credit card not found")
		return
	}
	s.writeMessage(w, http.StatusOK, "Credit card deleted")
}
