package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"lynkledger/internal/db"
	"lynkledger/internal/logger"
	"lynkledger/internal/middleware"
	"lynkledger/internal/models"
	"lynkledger/internal/services"
)

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dest any) bool {
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return false
	}
	return true
}

// writeError maps a service error onto an HTTP status. Entities of another
// organization are reported as missing.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var validation *models.ValidationError
	switch {
	case errors.As(err, &validation):
		respondError(w, http.StatusBadRequest, validation.Error())
	case errors.Is(err, services.ErrValidation), errors.Is(err, services.ErrInvalidDateRange):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrNotFound), errors.Is(err, services.ErrCrossOrganization):
		respondError(w, http.StatusNotFound, "not found")
	case errors.Is(err, services.ErrInvalidCredentials):
		respondError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, services.ErrInvalidTransition),
		errors.Is(err, services.ErrStaleState),
		errors.Is(err, services.ErrAccountInUse),
		errors.Is(err, services.ErrTaxRateInUse),
		errors.Is(err, services.ErrConflict),
		errors.Is(err, services.ErrAssetNotActive),
		errors.Is(err, services.ErrLastOwner),
		errors.Is(err, services.ErrInvoiceHasNoItems),
		errors.Is(err, services.ErrTemplateExhausted),
		errors.Is(err, services.ErrAccountCycle):
		respondError(w, http.StatusConflict, err.Error())
	case db.IsUniqueViolation(err):
		respondError(w, http.StatusConflict, "record already exists")
	default:
		orgID, _ := middleware.OrganizationIDFromContext(r.Context())
		log := logger.WithOrganization("http", orgID)
		log.Error().Err(err).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("request failed")
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}

type subject struct {
	UserID         string
	OrganizationID string
}

// subjectFrom reads the authenticated user and organization, answering 401
// itself when either is missing.
func subjectFrom(w http.ResponseWriter, r *http.Request) (subject, bool) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return subject{}, false
	}
	orgID, ok := middleware.OrganizationIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return subject{}, false
	}
	return subject{UserID: userID, OrganizationID: orgID}, true
}
