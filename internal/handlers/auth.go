package handlers

import (
	"net/http"

	"lynkledger/internal/services"
)

type registerRequest struct {
	OrganizationName string `json:"organization_name"`
	Currency         string `json:"currency"`
	Username         string `json:"username"`
	Email            string `json:"email"`
	Password         string `json:"password"`
}

// Register creates an organization with the caller as its owner.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	session, err := h.users.Register(r.Context(), services.RegisterRequest{
		OrganizationName: req.OrganizationName,
		Currency:         req.Currency,
		Username:         req.Username,
		Email:            req.Email,
		Password:         req.Password,
		RemoteAddr:       r.RemoteAddr,
		UserAgent:        r.UserAgent(),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, session)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	session, err := h.users.Login(r.Context(), req.Email, req.Password, r.RemoteAddr, r.UserAgent())
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, session)
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	sub, ok := subjectFrom(w, r)
	if !ok {
		return
	}
	session, err := h.users.Me(r.Context(), sub.OrganizationID, sub.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"user":         session.User,
		"organization": session.Organization,
	})
}
