package handlers

import (
	"context"
	"net/http"
	"time"

	"precinct/internal/models"
	"precinct/internal/service"
	"precinct/internal/workflow"
)

// ComplaintHandler handles complaint intake requests
type ComplaintHandler struct {
	complaints *service.ComplaintService
}

// NewComplaintHandler creates a new complaint handler
func NewComplaintHandler(complaints *service.ComplaintService) *ComplaintHandler {
	return &ComplaintHandler{complaints: complaints}
}

// ComplaintRequest is the complainant-editable content of a complaint
type ComplaintRequest struct {
	Title            string    `json:"title" validate:"notblank,max=255"`
	Description      string    `json:"description" validate:"notblank"`
	IncidentDate     time.Time `json:"incident_date" validate:"required"`
	IncidentLocation string    `json:"incident_location" validate:"notblank,max=255"`
}

func (req ComplaintRequest) content() workflow.ComplaintContent {
	return workflow.ComplaintContent{
		Title:            req.Title,
		Description:      req.Description,
		IncidentDate:     req.IncidentDate,
		IncidentLocation: req.IncidentLocation,
	}
}

// ReviewRequest is an approve or reject decision with an optional message
type ReviewRequest struct {
	Action  workflow.Decision `json:"action" validate:"oneof=approve reject"`
	Message string            `json:"message" validate:"max=2000"`
}

// Submit files a complaint
// @Summary Submit complaint
// @Tags Complaints
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body ComplaintRequest true "Complaint"
// @Success 201 {object} DataResponse "Complaint submitted"
// @Failure 400 {object} ErrorResponse "Invalid request"
// @Router /complaints [post]
func (h *ComplaintHandler) Submit(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(w, r)
	if !ok {
		return
	}
	var req ComplaintRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		respondWithAppError(w, r, err)
		return
	}

	c, err := h.complaints.Submit(r.Context(), actorID, req.content())
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithData(w, http.StatusCreated, "Complaint submitted", c)
}

// List lists the complaints visible to the actor
// @Summary List complaints
// @Description Cadets see their screening queue, police ranks the officer queue, everyone else their own complaints
// @Tags Complaints
// @Produce json
// @Security BearerAuth
// @Success 200 {object} DataResponse "Complaints"
// @Router /complaints [get]
func (h *ComplaintHandler) List(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(w, r)
	if !ok {
		return
	}
	complaints, err := h.complaints.List(r.Context(), actorID)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithList(w, complaints)
}

// Get returns one complaint
// @Summary Get complaint
// @Tags Complaints
// @Produce json
// @Security BearerAuth
// @Param id path int true "Complaint ID"
// @Success 200 {object} DataResponse "Complaint"
// @Failure 404 {object} ErrorResponse "Not found"
// @Router /complaints/{id} [get]
func (h *ComplaintHandler) Get(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	c, err := h.complaints.Get(r.Context(), actorID, id)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithData(w, http.StatusOK, "", c)
}

// Update corrects and resubmits a returned complaint
// @Summary Update complaint
// @Tags Complaints
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Complaint ID"
// @Param request body ComplaintRequest true "Complaint"
// @Success 200 {object} DataResponse "Complaint resubmitted"
// @Failure 400 {object} ErrorResponse "Not returned to complainant"
// @Failure 403 {object} ErrorResponse "Not the complainant"
// @Router /complaints/{id} [put]
func (h *ComplaintHandler) Update(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	var req ComplaintRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		respondWithAppError(w, r, err)
		return
	}

	c, err := h.complaints.Update(r.Context(), actorID, id, req.content())
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithData(w, http.StatusOK, "Complaint resubmitted for cadet review", c)
}

// CadetReview records the cadet's decision
// @Summary Cadet review
// @Description Approve forwards to an officer; reject returns to the complainant and voids the complaint on the third rejection
// @Tags Complaints
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Complaint ID"
// @Param request body ReviewRequest true "Decision"
// @Success 200 {object} DataResponse "Decision recorded"
// @Failure 400 {object} ErrorResponse "Invalid state or missing message"
// @Router /complaints/{id}/cadet-review [post]
func (h *ComplaintHandler) CadetReview(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, h.complaints.CadetReview)
}

// OfficerReview records the officer's decision
// @Summary Officer review
// @Description Approve opens a case from the complaint; reject returns it to the cadet
// @Tags Complaints
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Complaint ID"
// @Param request body ReviewRequest true "Decision"
// @Success 200 {object} DataResponse "Decision recorded"
// @Failure 400 {object} ErrorResponse "Invalid state or missing message"
// @Router /complaints/{id}/officer-review [post]
func (h *ComplaintHandler) OfficerReview(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, h.complaints.OfficerReview)
}

func (h *ComplaintHandler) review(w http.ResponseWriter, r *http.Request,
	decide func(ctx context.Context, actorID, id uint, d workflow.Decision, message string) (*models.Complaint, string, error)) {
	serveReview(w, r, decide)
}

// serveReview serves an approve or reject decision on the entity named by
// the id path parameter
func serveReview[T any](w http.ResponseWriter, r *http.Request,
	decide func(ctx context.Context, actorID, id uint, d workflow.Decision, message string) (T, string, error)) {
	serveDecision(w, r, func(ctx context.Context, actorID, id uint, req ReviewRequest) (T, string, error) {
		return decide(ctx, actorID, id, req.Action, req.Message)
	})
}
