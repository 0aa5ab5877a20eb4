package http

import (
	"net/http"
)

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := s.dashboard.Compose(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, d)
}

func (s *Server) handleDashboardBalances(w http.ResponseWriter, r *http.Request) {
	d, err := s.dashboard.Compose(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"account_balances": d.AccountBalances})
}

func (s *Server) handleDashboardCreditCards(w http.ResponseWriter, r *http.Request) {
	d, err := s.dashboard.Compose(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"credit_card_dues": d.CreditCardDues})
}
