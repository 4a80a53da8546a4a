package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"rentals/internal/entities"
)

type contextKey struct{}

// Middleware checks bearer tokens against a shared HS256 secret.
type Middleware struct {
	secret []byte
}

func NewMiddleware(secret string) *Middleware {
	return &Middleware{secret: []byte(secret)}
}

// RequireUser rejects requests without a valid bearer token and stores the
// caller in the request context.
func (m *Middleware) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || raw == "" {
			unauthorized(w, "Missing bearer token")
			return
		}
		claims, err := ParseToken(m.secret, raw)
		if err != nil {
			unauthorized(w, "Invalid or expired token")
			return
		}
		req := entities.Requestor{UserID: claims.UserID, Email: claims.Email, Admin: claims.Role == RoleAdmin}
		next.ServeHTTP(w, r.WithContext(WithRequestor(r.Context(), req)))
	})
}

// RequireAdmin is RequireUser plus a role=admin check.
func (m *Middleware) RequireAdmin(next http.Handler) http.Handler {
	return m.RequireUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req, _ := RequestorFromContext(r.Context())
		if !req.Admin {
			writeAuthError(w, http.StatusForbidden, "Admin access required", "forbidden")
			return
		}
		next.ServeHTTP(w, r)
	}))
}

func WithRequestor(ctx context.Context, req entities.Requestor) context.Context {
	return context.WithValue(ctx, contextKey{}, req)
}

func RequestorFromContext(ctx context.Context) (entities.Requestor, bool) {
	req, ok := ctx.Value(contextKey{}).(entities.Requestor)
	return req, ok
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="rentals"`)
	writeAuthError(w, http.StatusUnauthorized, message, "unauthorized")
}

func writeAuthError(w http.ResponseWriter, status int, message, kind string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message, "kind": kind})
}
