package http

import (
	"net/http"

	"conti/internal/core"
)

type (
	currencyPayload struct {
		Name         string   `json:"name"`
		ExchangeRate *float64 `json:"exchange_rate"`
	}

	currencyResponse struct {
		ID           int64   `json:"id"`
		Name         string  `json:"name"`
		ExchangeRate float64 `json:"exchange_rate"`
	}

	namePayload struct {
		Name string `json:"name"`
	}

	nameResponse struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	}
)

func (p currencyPayload) toDomain(id int64) (core.Currency, error) {
	c := core.Currency{ID: id, Name: p.Name, ExchangeRate: 1.0}
	if p.ExchangeRate != nil {
		c.ExchangeRate = *p.ExchangeRate
	}
	return c, c.Validate()
}

func (s *Server) handleListCurrencies(w http.ResponseWriter, r *http.Request) {
	currencies, err := s.store.Currencies(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	resp := make([]currencyResponse, 0, len(currencies))
	for _, c := range currencies {
		resp = append(resp, currencyResponse{ID: c.ID, Name: c.Name, ExchangeRate: c.ExchangeRate})
	}
	respondJSON(w, http.StatusOK, map[string]any{"currencies": resp})
}

func (s *Server) handleCreateCurrency(w http.ResponseWriter, r *http.Request) {
	var payload currencyPayload
	if err := decodeJSON(r, &payload); err != nil {
		respondError(w, r, err)
		return
	}
	c, err := payload.toDomain(0)
	if err != nil {
		respondError(w, r, err)
		return
	}
	created, err := s.store.CreateCurrency(r.Context(), c)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, currencyResponse{ID: created.ID, Name: created.Name, ExchangeRate: created.ExchangeRate})
}

func (s *Server) handleUpdateCurrency(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	var payload currencyPayload
	if err := decodeJSON(r, &payload); err != nil {
		respondError(w, r, err)
		return
	}
	c, err := payload.toDomain(id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	updated, err := s.store.UpdateCurrency(r.Context(), c)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, currencyResponse{ID: updated.ID, Name: updated.Name, ExchangeRate: updated.ExchangeRate})
}

func (s *Server) handleDeleteCurrency(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	if err := s.store.DeleteCurrency(r.Context(), id); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "currency deleted"})
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.store.Categories(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	resp := make([]nameResponse, 0, len(categories))
	for _, c := range categories {
		resp = append(resp, nameResponse{ID: c.ID, Name: c.Name})
	}
	respondJSON(w, http.StatusOK, map[string]any{"categories": resp})
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var payload namePayload
	if err := decodeJSON(r, &payload); err != nil {
		respondError(w, r, err)
		return
	}
	c := core.Category{Name: payload.Name}
	if err := c.Validate(); err != nil {
		respondError(w, r, err)
		return
	}
	created, err := s.store.CreateCategory(r.Context(), c)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, nameResponse{ID: created.ID, Name: created.Name})
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	var payload namePayload
	if err := decodeJSON(r, &payload); err != nil {
		respondError(w, r, err)
		return
	}
	c := core.Category{ID: id, Name: payload.Name}
	if err := c.Validate(); err != nil {
		respondError(w, r, err)
		return
	}
	updated, err := s.store.UpdateCategory(r.Context(), c)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, nameResponse{ID: updated.ID, Name: updated.Name})
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	if err := s.store.DeleteCategory(r.Context(), id); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "category deleted"})
}

func (s *Server) handleListClassifications(w http.ResponseWriter, r *http.Request) {
	classifications, err := s.store.Classifications(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	resp := make([]nameResponse, 0, len(classifications))
	for _, c := range classifications {
		resp = append(resp, nameResponse{ID: c.ID, Name: c.Name})
	}
	respondJSON(w, http.StatusOK, map[string]any{"classifications": resp})
}

func (s *Server) handleCreateClassification(w http.ResponseWriter, r *http.Request) {
	var payload namePayload
	if err := decodeJSON(r, &payload); err != nil {
		respondError(w, r, err)
		return
	}
	c := core.Classification{Name: payload.Name}
	if err := c.Validate(); err != nil {
		respondError(w, r, err)
		return
	}
	created, err := s.store.CreateClassification(r.Context(), c)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, nameResponse{ID: created.ID, Name: created.Name})
}

func (s *Server) handleUpdateClassification(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	var payload namePayload
	if err := decodeJSON(r, &payload); err != nil {
		respondError(w, r, err)
		return
	}
	c := core.Classification{ID: id, Name: payload.Name}
	if err := c.Validate(); err != nil {
		respondError(w, r, err)
		return
	}
	updated, err := s.store.UpdateClassification(r.Context(), c)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, nameResponse{ID: updated.ID, Name: updated.Name})
}

func (s *Server) handleDeleteClassification(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	if err := s.store.DeleteClassification(r.Context(), id); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "classification deleted"})
}
