package handlers

import (
	"net/http"

	"lynkledger/internal/models"
	"lynkledger/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

func (h *Handler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	sub, ok := subjectFrom(w, r)
	if !ok {
		return
	}
	includeArchived := r.URL.Query().Get("include_archived") == "true"
	accounts, err := h.accounts.List(r.Context(), sub.OrganizationID, includeArchived)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, accounts)
}

type createAccountRequest struct {
	Name        string                `json:"name"`
	Code        string                `json:"code"`
	Description string                `json:"description"`
	Type        models.AccountType    `json:"account_type"`
	Subtype     models.AccountSubtype `json:"subtype"`
	ParentID    *string               `json:"parent_id"`
	Currency    string                `json:"currency"`
}

func (h *Handler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	sub, ok := subjectFrom(w, r)
	if !ok {
		return
	}
	var req createAccountRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	account, err := h.accounts.Create(r.Context(), services.CreateAccountRequest{
		OrganizationID: sub.OrganizationID,
		ActorID:        sub.UserID,
		Name:           req.Name,
		Code:           req.Code,
		Description:    req.Description,
		Type:           req.Type,
		Subtype:        req.Subtype,
		ParentID:       req.ParentID,
		Currency:       req.Currency,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, account)
}

func (h *Handler) GetAccount(w http.ResponseWriter, r *http.Request) {
	sub, ok := subjectFrom(w, r)
	if !ok {
		return
	}
	account, err := h.accounts.Get(r.Context(), sub.OrganizationID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, account)
}

func (h *Handler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	sub, ok := subjectFrom(w, r)
	if !ok {
		return
	}
	if err := h.accounts.Delete(r.Context(), sub.OrganizationID, sub.UserID, chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ArchiveAccount(w http.ResponseWriter, r *http.Request) {
	sub, ok := subjectFrom(w, r)
	if !ok {
		return
	}
	if err := h.accounts.Archive(r.Context(), sub.OrganizationID, sub.UserID, chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type setParentRequest struct {
	ParentID *string `json:"parent_id"`
}

func (h *Handler) SetAccountParent(w http.ResponseWriter, r *http.Request) {
	sub, ok := subjectFrom(w, r)
	if !ok {
		return
	}
	var req setParentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	account, err := h.accounts.SetParent(r.Context(), sub.OrganizationID, sub.UserID, chi.URLParam(r, "id"), req.ParentID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, account)
}

func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	sub, ok := subjectFrom(w, r)
	if !ok {
		return
	}
	asOf, err := asOfParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	balance, err := h.ledger.AccountBalance(r.Context(), sub.OrganizationID, chi.URLParam(r, "id"), asOf)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, balance)
}

func (h *Handler) AccountEntries(w http.ResponseWriter, r *http.Request) {
	sub, ok := subjectFrom(w, r)
	if !ok {
		return
	}
	period, err := periodParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if period.Start.IsZero() {
		period.Start = period.End.AddDate(0, 0, 1-period.End.Day())
	}
	statement, err := h.accounts.Entries(r.Context(), sub.OrganizationID, chi.URLParam(r, "id"), period.Start, period.End)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, statement)
}

type reconcileAccountRequest struct {
	StatementDate    string          `json:"statement_date"`
	StatementBalance decimal.Decimal `json:"statement_balance"`
	EntryIDs         []string        `json:"entry_ids"`
}

func (h *Handler) ReconcileAccount(w http.ResponseWriter, r *http.Request) {
	sub, ok := subjectFrom(w, r)
	if !ok {
		return
	}
	var req reconcileAccountRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	date, err := parseDate(req.StatementDate)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	result, err := h.accounts.ReconcileStatement(r.Context(), sub.OrganizationID, sub.UserID, chi.URLParam(r, "id"), services.ReconcileRequest{
		StatementDate:    date,
		StatementBalance: req.StatementBalance,
		EntryIDs:         req.EntryIDs,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// SelfCheck compares cached balances with the booked entries behind them.
func (h *Handler) SelfCheck(w http.ResponseWriter, r *http.Request) {
	sub, ok := subjectFrom(w, r)
	if !ok {
		return
	}
	result, err := h.ledger.VerifyBalances(r.Context(), sub.OrganizationID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}
