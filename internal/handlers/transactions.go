package handlers

import (
	"context"
	"net/http"

	"lynkledger/internal/models"
	"lynkledger/internal/services"
	"lynkledger/internal/store"

	"github.com/go-chi/chi/v5"
)

type createTransactionRequest struct {
	Date              string         `json:"date"`
	Description       string         `json:"description"`
	Reference         string         `json:"reference"`
	Tags              models.Tags    `json:"tags"`
	IsRecurring       bool           `json:"is_recurring"`
	RecurrenceType    string         `json:"recurrence_type"`
	RecurrenceEndDate string         `json:"recurrence_end_date"`
	Entries           models.Entries `json:"entries"`
}

func (h *Handler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	sub, ok := subjectFrom(w, r)
	if !ok {
		return
	}
	var req createTransactionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	date, err := parseDateOr(req.Date, today())
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	recurrenceEnd, err := parseOptionalDate(req.RecurrenceEndDate)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	transaction, err := h.ledger.CreateTransaction(r.Context(), services.CreateTransactionRequest{
		OrganizationID:    sub.OrganizationID,
		ActorID:           sub.UserID,
		Date:              date,
		Description:       req.Description,
		Reference:         req.Reference,
		Tags:              req.Tags,
		IsRecurring:       req.IsRecurring,
		RecurrenceType:    req.RecurrenceType,
		RecurrenceEndDate: recurrenceEnd,
		Entries:           req.Entries,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, transaction)
}

func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	sub, ok := subjectFrom(w, r)
	if !ok {
		return
	}
	limit, offset := pagination(r)
	transactions, err := h.ledger.ListTransactions(r.Context(), sub.OrganizationID, store.TransactionFilter{
		Status: r.URL.Query().Get("status"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, transactions)
}

func (h *Handler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	sub, ok := subjectFrom(w, r)
	if !ok {
		return
	}
	transaction, err := h.ledger.GetTransaction(r.Context(), sub.OrganizationID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, transaction)
}

type replaceEntriesRequest struct {
	Entries models.Entries `json:"entries"`
}

func (h *Handler) ReplaceEntries(w http.ResponseWriter, r *http.Request) {
	sub, ok := subjectFrom(w, r)
	if !ok {
		return
	}
	var req replaceEntriesRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	transaction, err := h.ledger.ReplaceEntries(r.Context(), sub.OrganizationID, sub.UserID, chi.URLParam(r, "id"), req.Entries)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, transaction)
}

type transactionAction func(ctx context.Context, orgID, actorID, transactionID string) (models.Transaction, error)

func (h *Handler) runTransactionAction(w http.ResponseWriter, r *http.Request, action transactionAction) {
	sub, ok := subjectFrom(w, r)
	if !ok {
		return
	}
	transaction, err := action(r.Context(), sub.OrganizationID, sub.UserID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, transaction)
}

func (h *Handler) SubmitTransaction(w http.ResponseWriter, r *http.Request) {
	h.runTransactionAction(w, r, h.ledger.Submit)
}

func (h *Handler) ApproveTransaction(w http.ResponseWriter, r *http.Request) {
	h.runTransactionAction(w, r, h.ledger.Approve)
}

// PostTransaction applies an approved transaction to account balances.
func (h *Handler) PostTransaction(w http.ResponseWriter, r *http.Request) {
	h.runTransactionAction(w, r, h.ledger.Post)
}

func (h *Handler) VoidTransaction(w http.ResponseWriter, r *http.Request) {
	h.runTransactionAction(w, r, h.ledger.Void)
}

func (h *Handler) ReconcileTransaction(w http.ResponseWriter, r *http.Request) {
	h.runTransactionAction(w, r, h.ledger.Reconcile)
}

type reverseRequest struct {
	Date string `json:"date"`
}

func (h *Handler) ReverseTransaction(w http.ResponseWriter, r *http.Request) {
	sub, ok := subjectFrom(w, r)
	if !ok {
		return
	}
	var req reverseRequest
	if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
		return
	}
	date, err := parseDateOr(req.Date, today())
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	reversal, err := h.ledger.Reverse(r.Context(), sub.OrganizationID, sub.UserID, chi.URLParam(r, "id"), date)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, reversal)
}
