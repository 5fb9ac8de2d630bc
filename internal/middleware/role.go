package middleware

import (
	"net/http"

	"lynkledger/internal/models"
)

// RequireRole admits only requests whose token carries one of roles.
func RequireRole(roles ...models.Role) func(http.Handler) http.Handler {
	return requireRole(func(role models.Role) bool {
		for _, allowed := range roles {
			if role == allowed {
				return true
			}
		}
		return false
	})
}

// RequireWriter admits roles allowed to change ledger data.
func RequireWriter() func(http.Handler) http.Handler {
	return requireRole(models.Role.CanWrite)
}

func requireRole(allow func(models.Role) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, ok := RoleFromContext(r.Context())
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			if !allow(role) {
				http.Error(w, "insufficient role", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
