package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"precinct/internal/apperr"
	"precinct/internal/auth"
	"precinct/internal/authz"
	"precinct/internal/config"
	"precinct/internal/metrics"
)

type stubSource map[uint]*authz.Principal

func (s stubSource) LoadPrincipal(_ context.Context, userID uint) (*authz.Principal, error) {
	p, ok := s[userID]
	if !ok {
		return nil, apperr.NotFound("user")
	}
	return p, nil
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func withUser(r *http.Request, id uint) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), UserIDKey, id))
}

func newAuthService() *auth.Service {
	return auth.NewService(&config.JWTConfig{Secret: "middleware-test-secret", Issuer: "precinct-test", Expiration: time.Hour})
}

func TestAuthenticate(t *testing.T) {
	authSvc := newAuthService()
	m := NewAuthMiddleware(authSvc)

	var gotID uint
	handler := m.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID, _ = GetUserID(r)
		w.WriteHeader(http.StatusOK)
	}))

	token, _, err := authSvc.GenerateToken(42, "detective")
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"garbage token", "Bearer not-a-jwt", http.StatusUnauthorized},
		{"valid token", "Bearer " + token, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/cases", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			assert.Equal(t, tt.status, rec.Code)
		})
	}
	assert.Equal(t, uint(42), gotID)
}

func TestRBAC(t *testing.T) {
	source := stubSource{
		1: authz.NewPrincipal(1, true, false, []authz.Role{authz.RoleSergeant}, []authz.Permission{authz.PermSergeantReview}),
		2: authz.NewPrincipal(2, true, false, []authz.Role{authz.RoleCadet}, []authz.Permission{authz.PermComplaintReviewCadet}),
		3: authz.NewPrincipal(3, false, false, []authz.Role{authz.RoleSergeant}, []authz.Permission{authz.PermSergeantReview}),
		4: authz.NewPrincipal(4, true, true, nil, nil),
	}
	m := NewRBACMiddleware(authz.NewChecker(source))
	byPermission := m.RequirePermission(authz.PermSergeantReview)(okHandler())
	byRole := m.RequireAnyRole(authz.RoleSergeant, authz.RoleCaptain)(okHandler())
	admin := m.RequireAdmin()(okHandler())

	serve := func(h http.Handler, userID uint) int {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/reports/1/review", nil)
		if userID != 0 {
			req = withUser(req, userID)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, serve(byPermission, 1))
	assert.Equal(t, http.StatusForbidden, serve(byPermission, 2))
	assert.Equal(t, http.StatusForbidden, serve(byPermission, 3), "inactive actors fail every check")
	assert.Equal(t, http.StatusOK, serve(byPermission, 4), "superusers pass every check")
	assert.Equal(t, http.StatusUnauthorized, serve(byPermission, 0))
	assert.Equal(t, http.StatusUnauthorized, serve(byPermission, 99))

	assert.Equal(t, http.StatusOK, serve(byRole, 1))
	assert.Equal(t, http.StatusForbidden, serve(byRole, 2))

	assert.Equal(t, http.StatusOK, serve(admin, 4))
	assert.Equal(t, http.StatusForbidden, serve(admin, 1))
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(&config.RateLimitConfig{Enabled: true, RequestsPerSecond: 0.001, Burst: 2})
	defer rl.Close()
	handler := rl.Limit(okHandler())

	serve := func(ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.RemoteAddr = ip + ":5555"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, serve("10.0.0.1"))
	assert.Equal(t, http.StatusOK, serve("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, serve("10.0.0.1"))
	assert.Equal(t, http.StatusOK, serve("10.0.0.2"))
}

func TestRateLimiterDisabled(t *testing.T) {
	rl := NewRateLimiter(&config.RateLimitConfig{Enabled: false})
	defer rl.Close()
	handler := rl.Limit(okHandler())

	for i := 0; i < 10; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		require.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestGetIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.7:1234"
	assert.Equal(t, "192.0.2.7", getIP(req))

	req.Header.Set("X-Real-IP", "198.51.100.1")
	assert.Equal(t, "198.51.100.1", getIP(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	assert.Equal(t, "203.0.113.9", getIP(req))
}

func TestCORS(t *testing.T) {
	m := NewCORSMiddleware(&config.CORSConfig{
		AllowedOrigins:   []string{"http://localhost:3000"},
		AllowedMethods:   []string{"GET", "POST"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	})
	handler := m.Handler(okHandler())

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/cases", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "GET, POST", rec.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
	assert.Equal(t, "300", rec.Header().Get("Access-Control-Max-Age"))

	req = httptest.NewRequest(http.MethodGet, "/api/v1/cases", nil)
	req.Header.Set("Origin", "http://evil.example")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestSecurityHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	SecurityHeaders(okHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/cases", nil))

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Contains(t, rec.Header().Get("Content-Security-Policy"), "default-src 'none'")
}

func TestLoggingMiddlewareObservesRequests(t *testing.T) {
	m := metrics.New()
	handler := LoggingMiddleware(m)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusTeapot, rec.Code)

	exposition := httptest.NewRecorder()
	m.Handler().ServeHTTP(exposition, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, exposition.Body.String(), `precinct_http_requests_total{code="418",method="GET"} 1`)
}
