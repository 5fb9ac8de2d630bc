package handlers

import (
	"net/http"
	"strconv"

	"lynkledger/internal/models"

	"github.com/go-chi/chi/v5"
)

type createRecurringRequest struct {
	Name        string             `json:"name"`
	InvoiceType models.InvoiceType `json:"invoice_type"`
	StartDate   string             `json:"start_date"`
	EndDate     string             `json:"end_date"`
	Frequency   models.Frequency   `json:"frequency"`
	models.Party
	Currency string                        `json:"currency"`
	Terms    string                        `json:"terms"`
	Notes    string                        `json:"notes"`
	AutoSend bool                          `json:"auto_send"`
	DaysDue  int                           `json:"days_due"`
	Items    []models.RecurringInvoiceItem `json:"items"`
}

func (h *Handler) CreateRecurring(w http.ResponseWriter, r *http.Request) {
	sub, ok := subjectFrom(w, r)
	if !ok {
		return
	}
	var req createRecurringRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	start, err := parseDate(req.StartDate)
	if err != nil {
		respondError(w, http.StatusBadRequest, "start_date: "+err.Error())
		return
	}
	end, err := parseOptionalDate(req.EndDate)
	if err != nil {
		respondError(w, http.StatusBadRequest, "end_date: "+err.Error())
		return
	}
	template, err := h.recurring.Create(r.Context(), sub.OrganizationID, sub.UserID, models.RecurringInvoice{
		Name:        req.Name,
		InvoiceType: req.InvoiceType,
		StartDate:   start,
		EndDate:     end,
		Frequency:   req.Frequency,
		Party:       req.Party,
		Currency:    req.Currency,
		Terms:       req.Terms,
		Notes:       req.Notes,
		AutoSend:    req.AutoSend,
		DaysDue:     req.DaysDue,
		Items:       req.Items,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, template)
}

func (h *Handler) ListRecurring(w http.ResponseWriter, r *http.Request) {
	sub, ok := subjectFrom(w, r)
	if !ok {
		return
	}
	templates, err := h.recurring.List(r.Context(), sub.OrganizationID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, templates)
}

func (h *Handler) GetRecurring(w http.ResponseWriter, r *http.Request) {
	sub, ok := subjectFrom(w, r)
	if !ok {
		return
	}
	template, err := h.recurring.Get(r.Context(), sub.OrganizationID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, template)
}

func (h *Handler) GenerateRecurring(w http.ResponseWriter, r *http.Request) {
	sub, ok := subjectFrom(w, r)
	if !ok {
		return
	}
	invoice, err := h.recurring.Generate(r.Context(), sub.OrganizationID, sub.UserID, chi.URLParam(r, "id"), today())
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, invoice)
}

func (h *Handler) PreviewRecurring(w http.ResponseWriter, r *http.Request) {
	sub, ok := subjectFrom(w, r)
	if !ok {
		return
	}
	count := 0
	if raw := r.URL.Query().Get("count"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid count")
			return
		}
		count = parsed
	}
	dates, err := h.recurring.PreviewNext(r.Context(), sub.OrganizationID, chi.URLParam(r, "id"), count)
	if err != nil {
		writeError(w, r, err)
		return
	}
	formatted := make([]string, len(dates))
	for i, date := range dates {
		formatted[i] = date.Format(dateLayout)
	}
	respondJSON(w, http.StatusOK, map[string]any{"dates": formatted})
}

type runRecurringRequest struct {
	Date string `json:"date"`
}

// RunRecurring generates every template of the organization due on date.
func (h *Handler) RunRecurring(w http.ResponseWriter, r *http.Request) {
	sub, ok := subjectFrom(w, r)
	if !ok {
		return
	}
	var req runRecurringRequest
	if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
		return
	}
	date, err := parseDateOr(req.Date, today())
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	result, err := h.recurring.RunDue(r.Context(), sub.OrganizationID, sub.UserID, date)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}
