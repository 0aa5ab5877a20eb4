package http

import (
	"net/http"
	"time"

	"conti/internal/core"
	"conti/internal/storage"
)

const (
	defaultPageLimit = 100
	lineDateFormat   = "2006-01-02"
)

type (
	transactionLinePayload struct {
		AccountID        int64    `json:"account_id"`
		Debit            *float64 `json:"debit"`
		Credit           *float64 `json:"credit"`
		Date             string   `json:"date"`
		ClassificationID *int64   `json:"classification_id"`
	}

	transactionPayload struct {
		Description string                   `json:"description"`
		CurrencyID  *int64                   `json:"currency_id"`
		Lines       []transactionLinePayload `json:"lines"`
	}

	transactionLineResponse struct {
		ID               int64    `json:"id"`
		TransactionID    int64    `json:"transaction_id"`
		AccountID        int64    `json:"account_id"`
		Debit            *float64 `json:"debit"`
		Credit           *float64 `json:"credit"`
		Date             string   `json:"date"`
		ClassificationID *int64   `json:"classification_id"`
	}

	transactionResponse struct {
		ID          int64                     `json:"id"`
		Description string                    `json:"description"`
		CurrencyID  *int64                    `json:"currency_id"`
		Lines       []transactionLineResponse `json:"lines"`
	}

	transactionListResponse struct {
		Transactions []storage.TransactionSummary `json:"transactions"`
		Total        int                          `json:"total"`
	}
)

func (p transactionPayload) toDomain(id int64) (core.Transaction, error) {
	t := core.Transaction{
		ID:          id,
		Description: p.Description,
		CurrencyID:  p.CurrencyID,
	}
	for _, lp := range p.Lines {
		line := core.TransactionLine{
			AccountID:        lp.AccountID,
			Debit:            lp.Debit,
			Credit:           lp.Credit,
			ClassificationID: lp.ClassificationID,
		}
		if lp.Date != "" {
			date, err := time.Parse(lineDateFormat, lp.Date)
			if err != nil {
				return core.Transaction{}, &core.ValidationError{Field: "date", Err: err}
			}
			line.Date = date
		}
		t.Lines = append(t.Lines, line)
	}
	return t, t.Validate()
}

func toTransactionResponse(t core.Transaction) transactionResponse {
	resp := transactionResponse{
		ID:          t.ID,
		Description: t.Description,
		CurrencyID:  t.CurrencyID,
		Lines:       make([]transactionLineResponse, 0, len(t.Lines)),
	}
	for _, l := range t.Lines {
		resp.Lines = append(resp.Lines, transactionLineResponse{
			ID:               l.ID,
			TransactionID:    l.TransactionID,
			AccountID:        l.AccountID,
			Debit:            l.Debit,
			Credit:           l.Credit,
			Date:             l.Date.Format(lineDateFormat),
			ClassificationID: l.ClassificationID,
		})
	}
	return resp
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	skip := queryInt(r, "skip", 0)
	limit := queryInt(r, "limit", defaultPageLimit)

	summaries, err := s.store.TransactionSummaries(r.Context(), skip, limit)
	if err != nil {
		respondError(w, r, err)
		return
	}
	total, err := s.store.CountTransactions(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	if summaries == nil {
		summaries = []storage.TransactionSummary{}
	}
	respondJSON(w, http.StatusOK, transactionListResponse{Transactions: summaries, Total: total})
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	t, err := s.store.Transaction(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toTransactionResponse(t))
}

func (s *Server) handleTransactionLines(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	lines, err := s.store.TransactionLines(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	resp := make([]transactionLineResponse, 0, len(lines))
	for _, l := range lines {
		resp = append(resp, transactionLineResponse{
			ID:               l.ID,
			TransactionID:    l.TransactionID,
			AccountID:        l.AccountID,
			Debit:            l.Debit,
			Credit:           l.Credit,
			Date:             l.Date.Format(lineDateFormat),
			ClassificationID: l.ClassificationID,
		})
	}
	respondJSON(w, http.StatusOK, map[string]any{"lines": resp})
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var payload transactionPayload
	if err := decodeJSON(r, &payload); err != nil {
		respondError(w, r, err)
		return
	}
	t, err := payload.toDomain(0)
	if err != nil {
		respondError(w, r, err)
		return
	}

	created, err := s.store.CreateTransaction(r.Context(), t)
	if err != nil {
		respondError(w, r, err)
		return
	}
	s.publishEvent(r.Context(), "created", created.ID)
	respondJSON(w, http.StatusCreated, toTransactionResponse(created))
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	var payload transactionPayload
	if err := decodeJSON(r, &payload); err != nil {
		respondError(w, r, err)
		return
	}
	t, err := payload.toDomain(id)
	if err != nil {
		respondError(w, r, err)
		return
	}

	updated, err := s.store.UpdateTransaction(r.Context(), t)
	if err != nil {
		respondError(w, r, err)
		return
	}
	s.publishEvent(r.Context(), "updated", updated.ID)
	respondJSON(w, http.StatusOK, toTransactionResponse(updated))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	if err := s.store.DeleteTransaction(r.Context(), id); err != nil {
		respondError(w, r, err)
		return
	}
	s.publishEvent(r.Context(), "deleted", id)
	respondJSON(w, http.StatusOK, map[string]string{"message": "transaction deleted"})
}
