package handlers

import (
	"context"
	"net/http"
	"strings"

	"lynkledger/internal/models"
	"lynkledger/internal/services"
	"lynkledger/internal/store"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type createInvoiceRequest struct {
	Type      models.InvoiceType `json:"type"`
	Number    string             `json:"number"`
	Reference string             `json:"reference"`
	Date      string             `json:"date"`
	DueDate   string             `json:"due_date"`
	models.Party
	Currency     string               `json:"currency"`
	ExchangeRate decimal.Decimal      `json:"exchange_rate"`
	Notes        string               `json:"notes"`
	Terms        string               `json:"terms"`
	Items        []models.InvoiceItem `json:"items"`
}

func (h *Handler) CreateInvoice(w http.ResponseWriter, r *http.Request) {
	sub, ok := subjectFrom(w, r)
	if !ok {
		return
	}
	var req createInvoiceRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	date, err := parseDateOr(req.Date, today())
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	dueDate, err := parseDate(req.DueDate)
	if err != nil {
		respondError(w, http.StatusBadRequest, "due_date: "+err.Error())
		return
	}
	invoice, err := h.invoices.CreateInvoice(r.Context(), services.CreateInvoiceRequest{
		OrganizationID: sub.OrganizationID,
		ActorID:        sub.UserID,
		Type:           req.Type,
		Number:         req.Number,
		Reference:      req.Reference,
		Date:           date,
		DueDate:        dueDate,
		Party:          req.Party,
		Currency:       req.Currency,
		ExchangeRate:   req.ExchangeRate,
		Notes:          req.Notes,
		Terms:          req.Terms,
		Items:          req.Items,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, invoice)
}

// ListInvoices filters by ?type and a comma separated ?status list.
func (h *Handler) ListInvoices(w http.ResponseWriter, r *http.Request) {
	sub, ok := subjectFrom(w, r)
	if !ok {
		return
	}
	limit, offset := pagination(r)
	filter := store.InvoiceFilter{
		Type:   r.URL.Query().Get("type"),
		Limit:  limit,
		Offset: offset,
	}
	if raw := r.URL.Query().Get("status"); raw != "" {
		filter.Statuses = strings.Split(raw, ",")
	}
	invoices, err := h.invoices.ListInvoices(r.Context(), sub.OrganizationID, filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, invoices)
}

func (h *Handler) GetInvoice(w http.ResponseWriter, r *http.Request) {
	sub, ok := subjectFrom(w, r)
	if !ok {
		return
	}
	detail, err := h.invoices.GetInvoice(r.Context(), sub.OrganizationID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, detail)
}

type updateItemsRequest struct {
	Items []models.InvoiceItem `json:"items"`
}

func (h *Handler) UpdateInvoiceItems(w http.ResponseWriter, r *http.Request) {
	sub, ok := subjectFrom(w, r)
	if !ok {
		return
	}
	var req updateItemsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	invoice, err := h.invoices.UpdateItems(r.Context(), sub.OrganizationID, sub.UserID, chi.URLParam(r, "id"), req.Items)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, invoice)
}

type invoiceAction func(ctx context.Context, orgID, actorID, invoiceID string) (models.Invoice, error)

func (h *Handler) runInvoiceAction(w http.ResponseWriter, r *http.Request, action invoiceAction) {
	sub, ok := subjectFrom(w, r)
	if !ok {
		return
	}
	invoice, err := action(r.Context(), sub.OrganizationID, sub.UserID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, invoice)
}

func (h *Handler) SendInvoice(w http.ResponseWriter, r *http.Request) {
	h.runInvoiceAction(w, r, h.invoices.Send)
}

func (h *Handler) CancelInvoice(w http.ResponseWriter, r *http.Request) {
	h.runInvoiceAction(w, r, h.invoices.Cancel)
}

func (h *Handler) VoidInvoice(w http.ResponseWriter, r *http.Request) {
	h.runInvoiceAction(w, r, h.invoices.Void)
}

type markOverdueRequest struct {
	AsOf string `json:"as_of"`
}

func (h *Handler) MarkOverdue(w http.ResponseWriter, r *http.Request) {
	sub, ok := subjectFrom(w, r)
	if !ok {
		return
	}
	var req markOverdueRequest
	if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
		return
	}
	asOf, err := parseDateOr(req.AsOf, today())
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	ids, err := h.invoices.MarkOverdue(r.Context(), sub.OrganizationID, sub.UserID, asOf)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"overdue": ids})
}
