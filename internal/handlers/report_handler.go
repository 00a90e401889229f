package handlers

import (
	"context"
	"net/http"

	"precinct/internal/models"
	"precinct/internal/service"
	"precinct/internal/workflow"
)

// ReportHandler handles detective reports and their sergeant review
type ReportHandler struct {
	reports *service.ReportService
}

// NewReportHandler creates a new report handler
func NewReportHandler(reports *service.ReportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// ReportRequest names the suspects a detective puts forward
type ReportRequest struct {
	Message  string       `json:"message" validate:"max=5000"`
	Suspects []models.Ref `json:"suspects" validate:"dive"`
}

// SergeantReviewRequest is the sergeant's decision on a report
type SergeantReviewRequest struct {
	Action  workflow.Decision `json:"action" validate:"oneof=approve disagree reject"`
	Message string            `json:"message" validate:"max=2000"`
}

// Create submits a detective report
// @Summary Submit detective report
// @Description Each suspect reference is a vehicle, a document or an existing suspect of the case
// @Tags Reports
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Case ID"
// @Param request body ReportRequest true "Report"
// @Success 201 {object} DataResponse "Report submitted"
// @Failure 400 {object} ErrorResponse "Invalid reference"
// @Failure 403 {object} ErrorResponse "Not the assigned detective"
// @Router /cases/{id}/reports [post]
func (h *ReportHandler) Create(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(w, r)
	if !ok {
		return
	}
	caseID, err := pathID(r, "id")
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	var req ReportRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		respondWithAppError(w, r, err)
		return
	}

	report, err := h.reports.CreateReport(r.Context(), actorID, caseID, req.Message, req.Suspects)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithData(w, http.StatusCreated, "Report submitted", report)
}

// List lists the reports of a case
// @Summary List detective reports
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Param id path int true "Case ID"
// @Success 200 {object} DataResponse "Reports"
// @Router /cases/{id}/reports [get]
func (h *ReportHandler) List(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(w, r)
	if !ok {
		return
	}
	caseID, err := pathID(r, "id")
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	reports, err := h.reports.ListReports(r.Context(), actorID, caseID)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithList(w, reports)
}

// Review records the sergeant's decision on a report
// @Summary Sergeant review
// @Description Approve materializes the suspects, disagree and reject return the report to the detective
// @Tags Reports
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Report ID"
// @Param request body SergeantReviewRequest true "Decision"
// @Success 200 {object} DataResponse "Decision recorded"
// @Failure 400 {object} ErrorResponse "Report not pending"
// @Router /reports/{id}/review [post]
func (h *ReportHandler) Review(w http.ResponseWriter, r *http.Request) {
	serveDecision(w, r, func(ctx context.Context, actorID, id uint, req SergeantReviewRequest) (*models.DetectiveReport, string, error) {
		return h.reports.SergeantReview(ctx, actorID, id, req.Action, req.Message)
	})
}

// serveDecision decodes a request of type R for the entity named by the id
// path parameter and answers with the decision's status message
func serveDecision[R, T any](w http.ResponseWriter, r *http.Request,
	decide func(ctx context.Context, actorID, id uint, req R) (T, string, error)) {
	actorID, ok := actor(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	var req R
	if err := decodeAndValidate(w, r, &req); err != nil {
		respondWithAppError(w, r, err)
		return
	}

	result, status, err := decide(r.Context(), actorID, id, req)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithData(w, http.StatusOK, status, result)
}
