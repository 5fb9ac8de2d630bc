package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"lynkledger/internal/models"
)

func serveRole(handler http.Handler, role models.Role) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	if role != "" {
		req = req.WithContext(WithClaims(req.Context(), "user-1", "org-1", role))
	}
	handler.ServeHTTP(rr, req)
	return rr
}

func TestRequireWriterMissingClaims(t *testing.T) {
	handler := RequireWriter()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("handler should not be called")
	}))
	if rr := serveRole(handler, ""); rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestRequireWriterRejectsViewer(t *testing.T) {
	handler := RequireWriter()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("handler should not be called")
	}))
	if rr := serveRole(handler, models.RoleViewer); rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rr.Code)
	}
}

func TestRequireWriterAllowsAccountant(t *testing.T) {
	handler := RequireWriter()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	for _, role := range []models.Role{models.RoleOwner, models.RoleAdmin, models.RoleAccountant} {
		if rr := serveRole(handler, role); rr.Code != http.StatusNoContent {
			t.Fatalf("expected 204 for %s, got %d", role, rr.Code)
		}
	}
}

func TestRequireRole(t *testing.T) {
	handler := RequireRole(models.RoleOwner, models.RoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	if rr := serveRole(handler, models.RoleAdmin); rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if rr := serveRole(handler, models.RoleAccountant); rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rr.Code)
	}
}
