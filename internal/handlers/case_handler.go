package handlers

import (
	"net/http"
	"time"

	"precinct/internal/models"
	"precinct/internal/service"
	"precinct/internal/workflow"
)

// CaseHandler handles case lifecycle requests
type CaseHandler struct {
	cases *service.CaseService
}

// NewCaseHandler creates a new case handler
func NewCaseHandler(cases *service.CaseService) *CaseHandler {
	return &CaseHandler{cases: cases}
}

// CaseRequest is the content of a directly created case
type CaseRequest struct {
	Title            string          `json:"title" validate:"notblank,max=255"`
	Description      string          `json:"description"`
	Severity         models.Severity `json:"severity" validate:"severity"`
	IncidentDate     *time.Time      `json:"incident_date"`
	IncidentLocation string          `json:"incident_location" validate:"max=255"`
}

// AssignDetectiveRequest names the investigating detective
type AssignDetectiveRequest struct {
	DetectiveID uint `json:"detective_id" validate:"required"`
}

// TeamMemberRequest names a user joining the case team
type TeamMemberRequest struct {
	UserID uint `json:"user_id" validate:"required"`
}

// CaseStatusRequest resolves a case
type CaseStatusRequest struct {
	Status models.CaseStatus `json:"status" validate:"oneof=SOLVED CLOSED ARCHIVED"`
}

// Create opens a case
// @Summary Create case
// @Description Cases created by the police chief start under investigation, all others wait for approval
// @Tags Cases
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CaseRequest true "Case"
// @Success 201 {object} DataResponse "Case created"
// @Failure 400 {object} ErrorResponse "Invalid request"
// @Failure 403 {object} ErrorResponse "Forbidden"
// @Router /cases [post]
func (h *CaseHandler) Create(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(w, r)
	if !ok {
		return
	}
	var req CaseRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		respondWithAppError(w, r, err)
		return
	}

	c, err := h.cases.Create(r.Context(), actorID, workflow.CaseInput{
		Title:            req.Title,
		Description:      req.Description,
		Severity:         req.Severity,
		IncidentDate:     req.IncidentDate,
		IncidentLocation: req.IncidentLocation,
	})
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithData(w, http.StatusCreated, "Case created", c)
}

// List lists the cases visible to the actor
// @Summary List cases
// @Tags Cases
// @Produce json
// @Security BearerAuth
// @Success 200 {object} DataResponse "Cases"
// @Router /cases [get]
func (h *CaseHandler) List(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(w, r)
	if !ok {
		return
	}
	cases, err := h.cases.List(r.Context(), actorID)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithList(w, cases)
}

// Get returns one case
// @Summary Get case
// @Tags Cases
// @Produce json
// @Security BearerAuth
// @Param id path int true "Case ID"
// @Success 200 {object} DataResponse "Case"
// @Failure 403 {object} ErrorResponse "Not visible"
// @Failure 404 {object} ErrorResponse "Not found"
// @Router /cases/{id} [get]
func (h *CaseHandler) Get(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	c, err := h.cases.Get(r.Context(), actorID, id)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithData(w, http.StatusOK, "", c)
}

// Approve resolves the pending approval of a case
// @Summary Approve case
// @Tags Cases
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Case ID"
// @Param request body ReviewRequest true "Decision"
// @Success 200 {object} DataResponse "Decision recorded"
// @Failure 400 {object} ErrorResponse "Not pending approval"
// @Router /cases/{id}/approve [post]
func (h *CaseHandler) Approve(w http.ResponseWriter, r *http.Request) {
	serveReview(w, r, h.cases.Approve)
}

// AssignDetective sets the investigating detective
// @Summary Assign detective
// @Tags Cases
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Case ID"
// @Param request body AssignDetectiveRequest true "Detective"
// @Success 200 {object} DataResponse "Detective assigned"
// @Failure 400 {object} ErrorResponse "Not a detective"
// @Router /cases/{id}/assign-detective [post]
func (h *CaseHandler) AssignDetective(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	var req AssignDetectiveRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		respondWithAppError(w, r, err)
		return
	}

	c, err := h.cases.AssignDetective(r.Context(), actorID, id, req.DetectiveID)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithData(w, http.StatusOK, "Detective assigned", c)
}

// AddTeamMember adds a user to the case team
// @Summary Add team member
// @Tags Cases
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Case ID"
// @Param request body TeamMemberRequest true "Member"
// @Success 200 {object} DataResponse "Member added"
// @Router /cases/{id}/team [post]
func (h *CaseHandler) AddTeamMember(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	var req TeamMemberRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		respondWithAppError(w, r, err)
		return
	}

	c, err := h.cases.AddTeamMember(r.Context(), actorID, id, req.UserID)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithData(w, http.StatusOK, "Team member added", c)
}

// RemoveTeamMember removes a user from the case team
// @Summary Remove team member
// @Tags Cases
// @Produce json
// @Security BearerAuth
// @Param id path int true "Case ID"
// @Param userId path int true "User ID"
// @Success 200 {object} DataResponse "Member removed"
// @Router /cases/{id}/team/{userId} [delete]
func (h *CaseHandler) RemoveTeamMember(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	userID, err := pathID(r, "userId")
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	c, err := h.cases.RemoveTeamMember(r.Context(), actorID, id, userID)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithData(w, http.StatusOK, "Team member removed", c)
}

// UpdateStatus solves, closes or archives a case
// @Summary Resolve case
// @Tags Cases
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Case ID"
// @Param request body CaseStatusRequest true "Target status"
// @Success 200 {object} DataResponse "Status changed"
// @Failure 400 {object} ErrorResponse "Transition not allowed"
// @Router /cases/{id}/status [put]
func (h *CaseHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	var req CaseStatusRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		respondWithAppError(w, r, err)
		return
	}

	c, err := h.cases.UpdateStatus(r.Context(), actorID, id, req.Status)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithData(w, http.StatusOK, "Case status updated", c)
}
