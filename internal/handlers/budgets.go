package handlers

import (
	"net/http"

	"lynkledger/internal/models"

	"github.com/go-chi/chi/v5"
)

type createBudgetRequest struct {
	Name        string              `json:"name"`
	Description string              `json:"description"`
	StartDate   string              `json:"start_date"`
	EndDate     string              `json:"end_date"`
	Period      models.BudgetPeriod `json:"period"`
	Items       []models.BudgetItem `json:"items"`
}

func (h *Handler) CreateBudget(w http.ResponseWriter, r *http.Request) {
	sub, ok := subjectFrom(w, r)
	if !ok {
		return
	}
	var req createBudgetRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	start, err := parseDate(req.StartDate)
	if err != nil {
		respondError(w, http.StatusBadRequest, "start_date: "+err.Error())
		return
	}
	end, err := parseDate(req.EndDate)
	if err != nil {
		respondError(w, http.StatusBadRequest, "end_date: "+err.Error())
		return
	}
	budget, err := h.budgets.Create(r.Context(), sub.OrganizationID, sub.UserID, models.Budget{
		Name:        req.Name,
		Description: req.Description,
		StartDate:   start,
		EndDate:     end,
		Period:      req.Period,
		Items:       req.Items,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, budget)
}

// ListBudgets returns every budget, or only those covering ?active_on.
func (h *Handler) ListBudgets(w http.ResponseWriter, r *http.Request) {
	sub, ok := subjectFrom(w, r)
	if !ok {
		return
	}
	var (
		budgets []models.Budget
		err     error
	)
	if raw := r.URL.Query().Get("active_on"); raw != "" {
		date, parseErr := parseDate(raw)
		if parseErr != nil {
			respondError(w, http.StatusBadRequest, parseErr.Error())
			return
		}
		budgets, err = h.budgets.ActiveOn(r.Context(), sub.OrganizationID, date)
	} else {
		budgets, err = h.budgets.List(r.Context(), sub.OrganizationID)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, budgets)
}

func (h *Handler) GetBudget(w http.ResponseWriter, r *http.Request) {
	sub, ok := subjectFrom(w, r)
	if !ok {
		return
	}
	budget, err := h.budgets.Get(r.Context(), sub.OrganizationID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, budget)
}

func (h *Handler) BudgetPerformance(w http.ResponseWriter, r *http.Request) {
	sub, ok := subjectFrom(w, r)
	if !ok {
		return
	}
	budget, err := h.budgets.Get(r.Context(), sub.OrganizationID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	report, err := h.reports.BudgetVsActual(r.Context(), sub.OrganizationID, budget.ID, budget.EndDate)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, report)
}
