package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"precinct/internal/config"
	"precinct/internal/metrics"
	"precinct/internal/models"
	"precinct/internal/testutil"
)

func testConfig() *config.Config {
	return &config.Config{
		JWT:       config.JWTConfig{Secret: testutil.TestSecret, Issuer: "precinct-test", Expiration: time.Hour},
		CORS:      config.CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}, AllowedMethods: []string{"GET", "POST"}},
		RateLimit: config.RateLimitConfig{Enabled: false},
		App:       config.AppConfig{Name: "Precinct", Version: "test"},
		Metrics:   config.MetricsConfig{Enabled: true, Path: "/metrics"},
		Workflow:  config.WorkflowConfig{MaxCadetRejections: 3, IntensivePursuitDays: 30, RewardUnit: 20_000_000},
	}
}

type apiClient struct {
	t       *testing.T
	handler http.Handler
}

func (c apiClient) do(method, path, token string, body any) (int, json.RawMessage) {
	c.t.Helper()
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		require.NoError(c.t, err)
		reader = bytes.NewReader(buf)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	c.handler.ServeHTTP(rec, req)

	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &envelope)
	return rec.Code, envelope.Data
}

func (c apiClient) login(identifier string) string {
	c.t.Helper()
	code, data := c.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"identifier": identifier,
		"password":   testutil.FixturePassword,
	})
	require.Equal(c.t, http.StatusOK, code)
	var result struct {
		Token string `json:"token"`
	}
	require.NoError(c.t, json.Unmarshal(data, &result))
	return result.Token
}

func TestRoutes(t *testing.T) {
	containers := testutil.SetupTestContainers(t)
	fixtures := testutil.SetupFixtures(t, containers.DB)

	srv := newServer(testConfig(), containers.DB, metrics.New())
	defer srv.Close()
	api := apiClient{t: t, handler: srv.handler}

	t.Run("public endpoints", func(t *testing.T) {
		code, _ := api.do(http.MethodGet, "/health", "", nil)
		assert.Equal(t, http.StatusOK, code)

		code, data := api.do(http.MethodGet, "/api/v1/suspects/most-wanted", "", nil)
		assert.Equal(t, http.StatusOK, code)
		assert.JSONEq(t, `[]`, string(data))

		code, _ = api.do(http.MethodGet, "/api/v1/cases", "", nil)
		assert.Equal(t, http.StatusUnauthorized, code)
	})

	t.Run("register and login by national id", func(t *testing.T) {
		code, _ := api.do(http.MethodPost, "/api/v1/auth/register", "", map[string]string{
			"username":    "witness",
			"email":       "witness@precinct.test",
			"password":    testutil.FixturePassword,
			"first_name":  "Wendy",
			"last_name":   "Witness",
			"national_id": "NID-WITNESS",
		})
		require.Equal(t, http.StatusCreated, code)

		token := api.login("NID-WITNESS")
		code, data := api.do(http.MethodGet, "/api/v1/auth/me", token, nil)
		require.Equal(t, http.StatusOK, code)
		var me models.UserWithRoles
		require.NoError(t, json.Unmarshal(data, &me))
		assert.Equal(t, "witness", me.Username)
		require.Len(t, me.Roles, 1)
		assert.Equal(t, "Base user", me.Roles[0].Name)

		code, _ = api.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{"identifier": "witness", "password": "wrong-password"})
		assert.Equal(t, http.StatusUnauthorized, code)
	})

	t.Run("complaint becomes a case", func(t *testing.T) {
		citizen := api.login(fixtures.Citizen.Username)
		cadet := api.login(fixtures.Cadet.Username)
		officer := api.login(fixtures.Officer.Username)

		code, data := api.do(http.MethodPost, "/api/v1/complaints", citizen, map[string]any{
			"title":             "Stolen bicycle",
			"description":       "Taken from the rack outside the library",
			"incident_date":     time.Now().Add(-24 * time.Hour),
			"incident_location": "Main library",
		})
		require.Equal(t, http.StatusCreated, code)
		var complaint models.Complaint
		require.NoError(t, json.Unmarshal(data, &complaint))

		review := "/api/v1/complaints/" + strconv.FormatUint(uint64(complaint.ID), 10)
		code, _ = api.do(http.MethodPost, review+"/cadet-review", citizen, map[string]string{"action": "approve"})
		assert.Equal(t, http.StatusForbidden, code, "citizens lack the cadet review permission")

		code, _ = api.do(http.MethodPost, review+"/cadet-review", cadet, map[string]string{"action": "approve"})
		require.Equal(t, http.StatusOK, code)
		code, _ = api.do(http.MethodPost, review+"/officer-review", officer, map[string]string{"action": "approve"})
		require.Equal(t, http.StatusOK, code)

		code, data = api.do(http.MethodGet, "/api/v1/cases", officer, nil)
		require.Equal(t, http.StatusOK, code)
		var cases []models.Case
		require.NoError(t, json.Unmarshal(data, &cases))
		assert.NotEmpty(t, cases)
	})

	t.Run("admin only routes", func(t *testing.T) {
		code, _ := api.do(http.MethodGet, "/api/v1/admin/audit-logs", api.login(fixtures.Detective.Username), nil)
		assert.Equal(t, http.StatusForbidden, code)

		code, data := api.do(http.MethodGet, "/api/v1/admin/audit-logs", api.login(fixtures.Admin.Username), nil)
		require.Equal(t, http.StatusOK, code)
		var logs []models.AuditLog
		require.NoError(t, json.Unmarshal(data, &logs))
		assert.NotEmpty(t, logs)
	})

	t.Run("issued tokens reach the case routes", func(t *testing.T) {
		helper := testutil.NewAuthHelper()
		serve := func(method, path, body string, user *models.User) *testutil.TestResponse {
			var reader io.Reader
			if body != "" {
				reader = strings.NewReader(body)
			}
			rec := testutil.NewTestResponse()
			srv.handler.ServeHTTP(rec, helper.CreateAuthenticatedRequest(t, method, path, reader, user))
			return rec
		}
		newCase := `{"title":"Hit and run","severity":"LEVEL2"}`

		rec := serve(http.MethodPost, "/api/v1/cases", newCase, fixtures.Detective)
		rec.AssertStatusCreated(t)
		var created struct {
			Data models.Case `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
		assert.Equal(t, models.CaseOpen, created.Data.Status)

		serve(http.MethodPost, "/api/v1/cases", newCase, fixtures.Cadet).AssertStatusForbidden(t)
		serve(http.MethodGet, "/api/v1/cases/999999", "", fixtures.Chief).AssertStatusNotFound(t)

		duplicate := `{"username":"` + fixtures.Citizen.Username + `","email":"other@precinct.test","password":"` +
			testutil.FixturePassword + `","first_name":"Other","last_name":"Person","national_id":"NID-OTHER"}`
		serve(http.MethodPost, "/api/v1/auth/register", duplicate, fixtures.Citizen).AssertStatusConflict(t)
	})

	t.Run("metrics and swagger", func(t *testing.T) {
		rec := httptest.NewRecorder()
		srv.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "precinct_http_requests_total")

		rec = httptest.NewRecorder()
		srv.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/swagger/doc.json", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "/complaints/{id}/cadet-review")
	})
}

func TestRulesFromConfig(t *testing.T) {
	rules := rulesFrom(&config.WorkflowConfig{MaxCadetRejections: 5, IntensivePursuitDays: 45, RewardUnit: 1_000})
	assert.Equal(t, 5, rules.MaxCadetRejections)
	assert.Equal(t, 45, rules.IntensivePursuitDays)
	assert.Equal(t, int64(1_000), rules.RewardUnit)
}
