package middleware

import (
	"errors"
	"log/slog"
	"net/http"

	"precinct/internal/apperr"
	"precinct/internal/authz"
)

// RBACMiddleware gates routes on roles and permission codes. It reads the
// actor's current roles on every request.
type RBACMiddleware struct {
	checker *authz.Checker
}

// NewRBACMiddleware creates a new RBAC middleware
func NewRBACMiddleware(checker *authz.Checker) *RBACMiddleware {
	return &RBACMiddleware{checker: checker}
}

// RequirePermission checks if the user is granted the permission code
func (m *RBACMiddleware) RequirePermission(code authz.Permission) func(http.Handler) http.Handler {
	return m.require(func(p *authz.Principal) bool { return p.Can(code) })
}

// RequireAnyRole checks if the user has any of the required roles
func (m *RBACMiddleware) RequireAnyRole(roles ...authz.Role) func(http.Handler) http.Handler {
	return m.require(func(p *authz.Principal) bool { return p.HasAnyRole(roles...) })
}

// RequireAdmin checks if the user administers the system
func (m *RBACMiddleware) RequireAdmin() func(http.Handler) http.Handler {
	return m.require(func(p *authz.Principal) bool { return p.IsAdmin() })
}

func (m *RBACMiddleware) require(allowed func(p *authz.Principal) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := GetUserID(r)
			if !ok {
				respondWithError(w, http.StatusUnauthorized, "User not authenticated")
				return
			}

			p, err := m.checker.Principal(r.Context(), userID)
			if err != nil {
				if errors.Is(err, apperr.ErrNotFound) {
					respondWithError(w, http.StatusUnauthorized, "User not authenticated")
					return
				}
				slog.Error("Failed to load user roles", "user_id", userID, "error", err)
				respondWithError(w, http.StatusInternalServerError, "Failed to get user roles")
				return
			}

			if !allowed(p) {
				respondWithError(w, http.StatusForbidden, "Insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
