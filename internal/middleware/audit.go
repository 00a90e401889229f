package middleware

import (
	"fmt"
	"net/http"

	"precinct/internal/models"
	"precinct/internal/service"
)

// AuditMiddleware logs security-related actions
type AuditMiddleware struct {
	auditService *service.AuditService
}

// NewAuditMiddleware creates a new audit middleware
func NewAuditMiddleware(auditService *service.AuditService) *AuditMiddleware {
	return &AuditMiddleware{auditService: auditService}
}

// Log records action on resource once the wrapped handler has answered. The
// entry carries the status code, so refused attempts are audited too.
func (m *AuditMiddleware) Log(action, resource string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			wrapped := newResponseWriter(w, false)
			next.ServeHTTP(wrapped, r)

			var userID *uint
			if id, ok := GetUserID(r); ok {
				userID = &id
			}

			m.auditService.Log(r.Context(), &models.AuditLog{
				UserID:    userID,
				Action:    action,
				Resource:  resource,
				Details:   fmt.Sprintf("%s %s -> %d", r.Method, r.URL.Path, wrapped.statusCode),
				IPAddress: getIP(r),
				UserAgent: r.UserAgent(),
			})
		})
	}
}
