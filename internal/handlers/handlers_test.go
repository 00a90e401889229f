package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"precinct/internal/apperr"
	"precinct/internal/config"
	"precinct/internal/middleware"
	"precinct/internal/models"
	"precinct/internal/service"
	"precinct/internal/testutil"
)

func decodeError(t *testing.T, body string) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal([]byte(body), &resp))
	return resp
}

func authedRequest(method, target, body string, userID uint) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req.WithContext(context.WithValue(req.Context(), middleware.UserIDKey, userID))
}

func TestRespondWithAppError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
		field   string
	}{
		{"invalid credentials", service.ErrInvalidCredentials, http.StatusUnauthorized, "Invalid credentials", ""},
		{"inactive user", fmt.Errorf("login: %w", service.ErrUserInactive), http.StatusForbidden, "User account is inactive", ""},
		{"forbidden", apperr.Forbidden("Only the assigned detective can do this."), http.StatusForbidden, "Only the assigned detective can do this.", ""},
		{"precondition", apperr.Precondition("Case is closed."), http.StatusBadRequest, "Case is closed.", ""},
		{"field validation", apperr.FieldValidation("severity", "severity is invalid"), http.StatusBadRequest, "severity is invalid", "severity"},
		{"not found", fmt.Errorf("load: %w", apperr.NotFound("case")), http.StatusNotFound, "case not found", ""},
		{"conflict", apperr.Conflict("A trial already exists for this case."), http.StatusConflict, "A trial already exists for this case.", ""},
		{"unclassified", errors.New("pq: connection refused"), http.StatusInternalServerError, ErrMsgInternal, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			respondWithAppError(rec, httptest.NewRequest(http.MethodGet, "/api/v1/cases/1", nil), tt.err)

			assert.Equal(t, tt.status, rec.Code)
			resp := decodeError(t, rec.Body.String())
			assert.Equal(t, tt.message, resp.Error)
			assert.Equal(t, tt.field, resp.Field)
		})
	}
}

func TestDecodeEvidenceRequest(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"unknown type", `{"type":"case","title":"x"}`, "type"},
		{"blank title", `{"type":"other","title":"  ","item_name":"knife"}`, "title"},
		{"testimony without statement", `{"type":"testimony","title":"Neighbour"}`, "statement"},
		{"credibility out of range", `{"type":"testimony","title":"Neighbour","statement":"Saw him","credibility":11}`, "credibility"},
		{"vehicle with plate and vin", `{"type":"vehicle","title":"Sedan","license_plate":"12A345","vin":"1HGCM82633A004352"}`, "license_plate"},
		{"valid vehicle", `{"type":"vehicle","title":"Sedan","license_plate":"12A345"}`, ""},
		{"valid document", `{"type":"document","title":"Deed","attributes":{"page":"3"}}`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/cases/1/evidence", strings.NewReader(tt.body))
			var dst EvidenceRequest
			err := decodeAndValidate(httptest.NewRecorder(), req, &dst)
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}
			var appErr *apperr.Error
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, apperr.KindValidation, appErr.Kind)
			assert.Equal(t, tt.field, appErr.Field)
		})
	}
}

func TestDecodeRejectsMalformedJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/complaints", strings.NewReader(`{"title":`))
	var dst ComplaintRequest
	err := decodeAndValidate(httptest.NewRecorder(), req, &dst)
	require.ErrorIs(t, err, apperr.ErrValidation)
	assert.EqualError(t, err, ErrMsgInvalidRequestBody)
}

func TestEvidenceRequestBuildsVariant(t *testing.T) {
	credibility := 8
	tests := []struct {
		req  EvidenceRequest
		want models.Evidence
	}{
		{
			EvidenceRequest{Type: models.RefTestimony, Title: "Neighbour", Statement: "Saw him", Credibility: &credibility},
			&models.Testimony{EvidenceBase: models.EvidenceBase{Title: "Neighbour"}, Statement: "Saw him", Credibility: &credibility},
		},
		{
			EvidenceRequest{Type: models.RefBiological, Title: "Blood", SampleType: "blood"},
			&models.Biological{EvidenceBase: models.EvidenceBase{Title: "Blood"}, SampleType: "blood"},
		},
		{
			EvidenceRequest{Type: models.RefVehicle, Title: "Sedan", VIN: "1HGCM82633A004352", OwnerName: "John Doe"},
			&models.Vehicle{EvidenceBase: models.EvidenceBase{Title: "Sedan"}, VIN: "1HGCM82633A004352", OwnerName: "John Doe"},
		},
		{
			EvidenceRequest{Type: models.RefOther, Title: "Knife", ItemName: "knife"},
			&models.OtherItem{EvidenceBase: models.EvidenceBase{Title: "Knife"}, ItemName: "knife"},
		},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.req.evidence())
	}
}

func TestPathID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/cases/12", nil)
	req.SetPathValue("id", "12")
	id, err := pathID(req, "id")
	require.NoError(t, err)
	assert.Equal(t, uint(12), id)

	for _, bad := range []string{"", "0", "-3", "abc"} {
		req.SetPathValue("id", bad)
		_, err := pathID(req, "id")
		assert.ErrorIs(t, err, apperr.ErrValidation, bad)
	}
}

func TestPagination(t *testing.T) {
	limit, offset := pagination(httptest.NewRequest(http.MethodGet, "/api/v1/users", nil))
	assert.Equal(t, 50, limit)
	assert.Equal(t, 0, offset)

	limit, offset = pagination(httptest.NewRequest(http.MethodGet, "/api/v1/users?page=3&limit=20", nil))
	assert.Equal(t, 20, limit)
	assert.Equal(t, 40, offset)

	limit, _ = pagination(httptest.NewRequest(http.MethodGet, "/api/v1/users?limit=500", nil))
	assert.Equal(t, 50, limit)
}

func TestRespondWithListNeverNull(t *testing.T) {
	rec := httptest.NewRecorder()
	var links []models.EvidenceLink
	respondWithList(rec, links)
	assert.JSONEq(t, `{"data":[]}`, rec.Body.String())
}

func TestHandlersRequireAuthenticatedUser(t *testing.T) {
	h := NewNotificationHandler(nil)
	rec := testutil.NewTestResponse()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/api/v1/notifications", nil))
	rec.AssertStatusUnauthorized(t)
}

func TestValidationHappensBeforeServiceCalls(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		body    string
		field   string
	}{
		{"report with bad reference", NewReportHandler(nil).Create, `{"suspects":[{"type":"vehicle"}]}`, "suspects[0].id"},
		{"review with unknown action", NewReportHandler(nil).Review, `{"action":"maybe"}`, "action"},
		{"score out of range", NewSuspectHandler(nil, nil).DetectiveScore, `{"score":11}`, "score"},
		{"payment of unknown kind", NewSuspectHandler(nil, nil).Pay, `{"kind":"tip","amount":5,"reference":"R1"}`, "kind"},
		{"bail without amounts", NewSuspectHandler(nil, nil).SetBail, `{}`, "bail_amount"},
		{"verdict unknown", NewTrialHandler(nil).Verdict, `{"verdict":"MAYBE"}`, "verdict"},
		{"tip without target", NewRewardHandler(nil).SubmitTip, `{"information":"He hides in the docks"}`, "case_id"},
		{"claim without station", NewRewardHandler(nil).Claim, `{"identity_verified":true}`, "station"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := authedRequest(http.MethodPost, "/", tt.body, 7)
			req.SetPathValue("id", "3")
			req.SetPathValue("suspectId", "4")
			rec := testutil.NewTestResponse()
			tt.handler(rec, req)

			rec.AssertStatusBadRequest(t)
			assert.Equal(t, tt.field, decodeError(t, rec.Body.String()).Field)
		})
	}
}

func TestOptionalRequestFields(t *testing.T) {
	var report ReportRequest
	req := httptest.NewRequest(http.MethodPost, "/api/v1/cases/3/reports", strings.NewReader(`{"suspects":[]}`))
	require.NoError(t, decodeAndValidate(httptest.NewRecorder(), req, &report))
	assert.Empty(t, report.Suspects)
	assert.Empty(t, report.Message)

	req = httptest.NewRequest(http.MethodPost, "/api/v1/cases/3/reports", strings.NewReader(`{}`))
	require.NoError(t, decodeAndValidate(httptest.NewRecorder(), req, &report))

	var review SergeantReviewRequest
	req = httptest.NewRequest(http.MethodPost, "/api/v1/reports/1/review", strings.NewReader(`{"action":"approve"}`))
	require.NoError(t, decodeAndValidate(httptest.NewRecorder(), req, &review))

	var payment PaymentRequest
	req = httptest.NewRequest(http.MethodPost, "/api/v1/suspects/4/bail/pay", strings.NewReader(`{"kind":"bail","amount":500}`))
	require.NoError(t, decodeAndValidate(httptest.NewRecorder(), req, &payment))
	assert.Empty(t, payment.Reference)
}

func TestEvidenceGetRejectsUnknownType(t *testing.T) {
	req := authedRequest(http.MethodGet, "/api/v1/evidence/case/1", "", 7)
	req.SetPathValue("type", "case")
	req.SetPathValue("id", "1")
	rec := testutil.NewTestResponse()
	NewEvidenceHandler(nil, nil).Get(rec, req)

	rec.AssertStatusBadRequest(t)
	assert.Equal(t, "type", decodeError(t, rec.Body.String()).Field)
}

func TestHealth(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	h := NewConfigHandler(&config.Config{App: config.AppConfig{Version: "1.2.3"}}, db)

	mock.ExpectPing()
	rec := testutil.NewTestResponse()
	h.Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	rec.AssertStatusOK(t)
	assert.JSONEq(t, `{"status":"healthy","version":"1.2.3"}`, rec.Body.String())

	mock.ExpectPing().WillReturnError(errors.New("connection refused"))
	rec = testutil.NewTestResponse()
	h.Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	rec.AssertStatus(t, http.StatusServiceUnavailable)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetAppConfig(t *testing.T) {
	cfg := &config.Config{
		App:      config.AppConfig{Name: "Precinct", Version: "1.0.0"},
		Workflow: config.WorkflowConfig{MaxCadetRejections: 3, IntensivePursuitDays: 30, RewardUnit: 20_000_000},
	}
	rec := testutil.NewTestResponse()
	NewConfigHandler(cfg, nil).GetAppConfig(rec, httptest.NewRequest(http.MethodGet, "/api/v1/config/app", nil))

	rec.AssertStatusOK(t)
	assert.JSONEq(t, `{"name":"Precinct","version":"1.0.0","max_cadet_rejections":3,"intensive_pursuit_days":30,"reward_unit":20000000}`, rec.Body.String())
}
