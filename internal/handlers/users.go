package handlers

import (
	"net/http"

	"lynkledger/internal/models"
	"lynkledger/internal/services"

	"github.com/go-chi/chi/v5"
)

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	sub, ok := subjectFrom(w, r)
	if !ok {
		return
	}
	users, err := h.users.List(r.Context(), sub.OrganizationID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, users)
}

type addUserRequest struct {
	Username string      `json:"username"`
	Email    string      `json:"email"`
	Password string      `json:"password"`
	Role     models.Role `json:"role"`
}

func (h *Handler) AddUser(w http.ResponseWriter, r *http.Request) {
	sub, ok := subjectFrom(w, r)
	if !ok {
		return
	}
	var req addUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	user, err := h.users.AddUser(r.Context(), sub.OrganizationID, sub.UserID, services.AddUserRequest{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, user)
}

type setRoleRequest struct {
	Role models.Role `json:"role"`
}

func (h *Handler) SetUserRole(w http.ResponseWriter, r *http.Request) {
	sub, ok := subjectFrom(w, r)
	if !ok {
		return
	}
	var req setRoleRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	user, err := h.users.SetRole(r.Context(), sub.OrganizationID, sub.UserID, chi.URLParam(r, "id"), req.Role)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, user)
}

func (h *Handler) ListAuditLogs(w http.ResponseWriter, r *http.Request) {
	sub, ok := subjectFrom(w, r)
	if !ok {
		return
	}
	limit, offset := pagination(r)
	logs, err := h.audit.List(r.Context(), sub.OrganizationID, limit, offset)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, logs)
}
