package handlers

import (
	"net/http"

	"lynkledger/internal/models"
)

func (h *Handler) TrialBalance(w http.ResponseWriter, r *http.Request) {
	sub, ok := subjectFrom(w, r)
	if !ok {
		return
	}
	asOf, err := asOfParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	report, err := h.reports.TrialBalance(r.Context(), sub.OrganizationID, asOf)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, report)
}

func (h *Handler) BalanceSheet(w http.ResponseWriter, r *http.Request) {
	sub, ok := subjectFrom(w, r)
	if !ok {
		return
	}
	asOf, err := asOfParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	report, err := h.reports.BalanceSheet(r.Context(), sub.OrganizationID, asOf)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, report)
}

func (h *Handler) IncomeStatement(w http.ResponseWriter, r *http.Request) {
	sub, ok := subjectFrom(w, r)
	if !ok {
		return
	}
	period, err := periodParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	report, err := h.reports.IncomeStatement(r.Context(), sub.OrganizationID, period)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, report)
}

func (h *Handler) CashFlow(w http.ResponseWriter, r *http.Request) {
	sub, ok := subjectFrom(w, r)
	if !ok {
		return
	}
	period, err := periodParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	report, err := h.reports.CashFlow(r.Context(), sub.OrganizationID, period)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, report)
}

func (h *Handler) FinancialStatements(w http.ResponseWriter, r *http.Request) {
	sub, ok := subjectFrom(w, r)
	if !ok {
		return
	}
	period, err := periodParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	report, err := h.reports.FinancialStatements(r.Context(), sub.OrganizationID, period)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, report)
}

func (h *Handler) AgedReceivables(w http.ResponseWriter, r *http.Request) {
	h.aging(w, r, models.InvoiceSale)
}

func (h *Handler) AgedPayables(w http.ResponseWriter, r *http.Request) {
	h.aging(w, r, models.InvoicePurchase)
}

func (h *Handler) aging(w http.ResponseWriter, r *http.Request, invoiceType models.InvoiceType) {
	sub, ok := subjectFrom(w, r)
	if !ok {
		return
	}
	asOf, err := asOfParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	report, err := h.reports.Aging(r.Context(), sub.OrganizationID, invoiceType, asOf)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, report)
}

func (h *Handler) BudgetVsActual(w http.ResponseWriter, r *http.Request) {
	sub, ok := subjectFrom(w, r)
	if !ok {
		return
	}
	asOf, err := asOfParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	report, err := h.reports.BudgetVsActual(r.Context(), sub.OrganizationID, r.URL.Query().Get("budget_id"), asOf)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, report)
}

func (h *Handler) TaxSummary(w http.ResponseWriter, r *http.Request) {
	sub, ok := subjectFrom(w, r)
	if !ok {
		return
	}
	period, err := periodParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	report, err := h.reports.TaxSummary(r.Context(), sub.OrganizationID, period)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, report)
}
