package handlers

import (
	"net/http"

	"lynkledger/internal/models"
	"lynkledger/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type recordPaymentRequest struct {
	Date          string               `json:"date"`
	Amount        string               `json:"amount"`
	Currency      string               `json:"currency"`
	ExchangeRate  decimal.Decimal      `json:"exchange_rate"`
	Method        models.PaymentMethod `json:"payment_method"`
	Status        models.PaymentStatus `json:"status"`
	Reference     string               `json:"reference"`
	BankAccountID *string              `json:"bank_account_id"`
	Notes         string               `json:"notes"`
}

// RecordPayment records a payment against the invoice in the path.
func (h *Handler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	sub, ok := subjectFrom(w, r)
	if !ok {
		return
	}
	var req recordPaymentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	date, err := parseDateOr(req.Date, today())
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	result, err := h.invoices.RecordPayment(r.Context(), services.RecordPaymentRequest{
		OrganizationID: sub.OrganizationID,
		ActorID:        sub.UserID,
		InvoiceID:      chi.URLParam(r, "id"),
		Date:           date,
		Amount:         amount,
		Currency:       req.Currency,
		ExchangeRate:   req.ExchangeRate,
		Method:         req.Method,
		Status:         req.Status,
		Reference:      req.Reference,
		BankAccountID:  req.BankAccountID,
		Notes:          req.Notes,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, result)
}

func (h *Handler) VoidPayment(w http.ResponseWriter, r *http.Request) {
	sub, ok := subjectFrom(w, r)
	if !ok {
		return
	}
	result, err := h.invoices.VoidPayment(r.Context(), sub.OrganizationID, sub.UserID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

type paymentStatusRequest struct {
	Status models.PaymentStatus `json:"status"`
}

func (h *Handler) SetPaymentStatus(w http.ResponseWriter, r *http.Request) {
	sub, ok := subjectFrom(w, r)
	if !ok {
		return
	}
	var req paymentStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	result, err := h.invoices.SetPaymentStatus(r.Context(), sub.OrganizationID, sub.UserID, chi.URLParam(r, "id"), req.Status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}
