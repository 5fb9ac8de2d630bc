package middleware

import (
	"context"
	"net/http"
	"strings"

	"lynkledger/internal/auth"
	"lynkledger/internal/models"
)

type contextKey string

const (
	userIDKey         contextKey = "user_id"
	organizationIDKey contextKey = "organization_id"
	roleKey           contextKey = "role"
)

func UserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(userIDKey).(string)
	return userID, ok
}

func OrganizationIDFromContext(ctx context.Context) (string, bool) {
	orgID, ok := ctx.Value(organizationIDKey).(string)
	return orgID, ok
}

func RoleFromContext(ctx context.Context) (models.Role, bool) {
	role, ok := ctx.Value(roleKey).(models.Role)
	return role, ok
}

// WithClaims stores the token subject on ctx.
func WithClaims(ctx context.Context, userID, orgID string, role models.Role) context.Context {
	ctx = context.WithValue(ctx, userIDKey, userID)
	ctx = context.WithValue(ctx, organizationIDKey, orgID)
	return context.WithValue(ctx, roleKey, role)
}

// Auth requires a bearer token. Browsers cannot set headers on a websocket
// handshake, so a token query parameter is accepted when the header is absent.
func Auth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				http.Error(w, "missing authorization header", http.StatusUnauthorized)
				return
			}
			if raw == "" {
				http.Error(w, "invalid authorization header", http.StatusUnauthorized)
				return
			}
			claims, err := auth.ParseToken(secret, raw)
			if err != nil {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}
			ctx := WithClaims(r.Context(), claims.UserID, claims.OrganizationID, models.Role(claims.Role))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		token := r.URL.Query().Get("token")
		return token, token != ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", true
	}
	return strings.TrimSpace(parts[1]), true
}
