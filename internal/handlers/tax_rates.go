package handlers

import (
	"net/http"

	"lynkledger/internal/models"

	"github.com/go-chi/chi/v5"
)

func (h *Handler) CreateTaxRate(w http.ResponseWriter, r *http.Request) {
	sub, ok := subjectFrom(w, r)
	if !ok {
		return
	}
	var req models.TaxRate
	if !decodeJSON(w, r, &req) {
		return
	}
	rate, err := h.taxRates.Create(r.Context(), sub.OrganizationID, sub.UserID, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, rate)
}

func (h *Handler) ListTaxRates(w http.ResponseWriter, r *http.Request) {
	sub, ok := subjectFrom(w, r)
	if !ok {
		return
	}
	rates, err := h.taxRates.List(r.Context(), sub.OrganizationID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, rates)
}

func (h *Handler) DeleteTaxRate(w http.ResponseWriter, r *http.Request) {
	sub, ok := subjectFrom(w, r)
	if !ok {
		return
	}
	if err := h.taxRates.Delete(r.Context(), sub.OrganizationID, sub.UserID, chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
