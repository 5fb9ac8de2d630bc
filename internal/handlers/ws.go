package handlers

import (
	"net/http"

	"lynkledger/internal/websocket"
)

// WSBalances streams balance updates for the caller's organization.
func (h *Handler) WSBalances(w http.ResponseWriter, r *http.Request) {
	sub, ok := subjectFrom(w, r)
	if !ok {
		return
	}
	websocket.ServeWS(w, r, h.hub, sub.OrganizationID)
}
