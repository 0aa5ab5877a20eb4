package http

import (
	"net/http"

	"conti/internal/core"
)

type (
	creditCardPayload struct {
		CreditLimit float64 `json:"credit_limit"`
		CloseDay    int     `json:"close_day"`
		DueDay      int     `json:"due_day"`
	}

	accountPayload struct {
		Name       string             `json:"name"`
		CategoryID int64              `json:"category_id"`
		CurrencyID *int64             `json:"currency_id"`
		Nature     string             `json:"nature"`
		Term       string             `json:"term"`
		CreditCard *creditCardPayload `json:"credit_card"`
	}

	accountResponse struct {
		ID                int64              `json:"id"`
		Name              string             `json:"name"`
		CategoryID        int64              `json:"category_id"`
		CurrencyID        *int64             `json:"currency_id"`
		Nature            string             `json:"nature"`
		Term              string             `json:"term"`
		IsCreditCard      bool               `json:"is_credit_card"`
		CreditCard        *creditCardPayload `json:"credit_card,omitempty"`
		ClassificationIDs []int64            `json:"classification_ids,omitempty"`
	}
)

func (p accountPayload) toDomain(id int64) (core.Account, error) {
	a := core.Account{
		ID:         id,
		Name:       p.Name,
		CategoryID: p.CategoryID,
		CurrencyID: p.CurrencyID,
		Nature:     core.Nature(p.Nature),
		Term:       core.Term(p.Term),
	}
	if p.Nature == "" {
		a.Nature = core.NatureBoth
	}
	if p.Term == "" {
		a.Term = core.TermUndefined
	}
	if p.CreditCard != nil {
		a.CreditCard = &core.CreditCard{
			CreditLimit: p.CreditCard.CreditLimit,
			CloseDay:    p.CreditCard.CloseDay,
			DueDay:      p.CreditCard.DueDay,
		}
	}
	return a, a.Validate()
}

func toAccountResponse(a core.Account) accountResponse {
	resp := accountResponse{
		ID:                a.ID,
		Name:              a.Name,
		CategoryID:        a.CategoryID,
		CurrencyID:        a.CurrencyID,
		Nature:            string(a.Nature),
		Term:              string(a.Term),
		IsCreditCard:      a.CreditCard != nil,
		ClassificationIDs: a.ClassificationIDs,
	}
	if a.CreditCard != nil {
		resp.CreditCard = &creditCardPayload{
			CreditLimit: a.CreditCard.CreditLimit,
			CloseDay:    a.CreditCard.CloseDay,
			DueDay:      a.CreditCard.DueDay,
		}
	}
	return resp
}

func accountsResponse(accounts []core.Account) map[string]any {
	resp := make([]accountResponse, 0, len(accounts))
	for _, a := range accounts {
		resp = append(resp, toAccountResponse(a))
	}
	return map[string]any{"accounts": resp}
}

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := s.store.Accounts(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, accountsResponse(accounts))
}

func (s *Server) handleListAccountsDetailed(w http.ResponseWriter, r *http.Request) {
	accounts, err := s.store.AccountsDetailed(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, accountsResponse(accounts))
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var payload accountPayload
	if err := decodeJSON(r, &payload); err != nil {
		respondError(w, r, err)
		return
	}
	a, err := payload.toDomain(0)
	if err != nil {
		respondError(w, r, err)
		return
	}

	created, err := s.store.CreateAccount(r.Context(), a)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, toAccountResponse(created))
}

func (s *Server) handleUpdateAccount(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	var payload accountPayload
	if err := decodeJSON(r, &payload); err != nil {
		respondError(w, r, err)
		return
	}
	a, err := payload.toDomain(id)
	if err != nil {
		respondError(w, r, err)
		return
	}

	updated, err := s.store.UpdateAccount(r.Context(), a)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toAccountResponse(updated))
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	if err := s.store.DeleteAccount(r.Context(), id); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "account deleted"})
}

func (s *Server) handleLinkClassification(w http.ResponseWriter, r *http.Request) {
	accountID, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	classificationID, err := pathID(r, "cid")
	if err != nil {
		respondError(w, r, err)
		return
	}
	if err := s.store.LinkClassification(r.Context(), accountID, classificationID); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{"message": "classification linked"})
}

func (s *Server) handleUnlinkClassification(w http.ResponseWriter, r *http.Request) {
	accountID, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	classificationID, err := pathID(r, "cid")
	if err != nil {
		respondError(w, r, err)
		return
	}
	if err := s.store.UnlinkClassification(r.Context(), accountID, classificationID); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "classification unlinked"})
}
