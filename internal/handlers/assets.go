package handlers

import (
	"net/http"

	"lynkledger/internal/models"
	"lynkledger/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type createAssetRequest struct {
	Name               string                    `json:"name"`
	AssetNumber        string                    `json:"asset_number"`
	Description        string                    `json:"description"`
	PurchaseDate       string                    `json:"purchase_date"`
	PurchaseCost       decimal.Decimal           `json:"purchase_cost"`
	UsefulLifeYears    int                       `json:"useful_life_years"`
	SalvageValue       decimal.Decimal           `json:"salvage_value"`
	DepreciationMethod models.DepreciationMethod `json:"depreciation_method"`
	AssetAccountID     *string                   `json:"asset_account_id"`
	Location           string                    `json:"location"`
}

func (h *Handler) CreateAsset(w http.ResponseWriter, r *http.Request) {
	sub, ok := subjectFrom(w, r)
	if !ok {
		return
	}
	var req createAssetRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	purchased, err := parseDate(req.PurchaseDate)
	if err != nil {
		respondError(w, http.StatusBadRequest, "purchase_date: "+err.Error())
		return
	}
	asset, err := h.assets.Create(r.Context(), sub.OrganizationID, sub.UserID, models.FixedAsset{
		Name:               req.Name,
		AssetNumber:        req.AssetNumber,
		Description:        req.Description,
		PurchaseDate:       purchased,
		PurchaseCost:       req.PurchaseCost,
		UsefulLifeYears:    req.UsefulLifeYears,
		SalvageValue:       req.SalvageValue,
		DepreciationMethod: req.DepreciationMethod,
		AssetAccountID:     req.AssetAccountID,
		Location:           req.Location,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, asset)
}

func (h *Handler) ListAssets(w http.ResponseWriter, r *http.Request) {
	sub, ok := subjectFrom(w, r)
	if !ok {
		return
	}
	assets, err := h.assets.List(r.Context(), sub.OrganizationID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, assets)
}

func (h *Handler) GetAsset(w http.ResponseWriter, r *http.Request) {
	sub, ok := subjectFrom(w, r)
	if !ok {
		return
	}
	asset, err := h.assets.Get(r.Context(), sub.OrganizationID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, asset)
}

func (h *Handler) AssetDepreciation(w http.ResponseWriter, r *http.Request) {
	sub, ok := subjectFrom(w, r)
	if !ok {
		return
	}
	asOf, err := asOfParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	view, err := h.assets.Depreciation(r.Context(), sub.OrganizationID, chi.URLParam(r, "id"), asOf)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

func (h *Handler) RecalculateAsset(w http.ResponseWriter, r *http.Request) {
	sub, ok := subjectFrom(w, r)
	if !ok {
		return
	}
	asOf, err := asOfParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	asset, err := h.assets.Recalculate(r.Context(), sub.OrganizationID, sub.UserID, chi.URLParam(r, "id"), asOf)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, asset)
}

type disposeAssetRequest struct {
	Date   string             `json:"date"`
	Value  string             `json:"value"`
	Status models.AssetStatus `json:"status"`
}

func (h *Handler) DisposeAsset(w http.ResponseWriter, r *http.Request) {
	sub, ok := subjectFrom(w, r)
	if !ok {
		return
	}
	var req disposeAssetRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	date, err := parseDateOr(req.Date, today())
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	value, err := parseAmount(req.Value)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	asset, err := h.assets.Dispose(r.Context(), sub.OrganizationID, sub.UserID, chi.URLParam(r, "id"), services.DisposeRequest{
		Date:   date,
		Value:  value,
		Status: req.Status,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, asset)
}
