package handlers

import (
	"context"
	"net/http"
	"time"

	"precinct/internal/models"
	"precinct/internal/service"
)

// TrialHandler handles trial scheduling and verdicts
type TrialHandler struct {
	trials *service.TrialService
}

// NewTrialHandler creates a new trial handler
func NewTrialHandler(trials *service.TrialService) *TrialHandler {
	return &TrialHandler{trials: trials}
}

// ScheduleTrialRequest names the presiding judge and the trial date
type ScheduleTrialRequest struct {
	JudgeID   uint      `json:"judge_id" validate:"required"`
	TrialDate time.Time `json:"trial_date" validate:"required"`
}

// VerdictRequest is the judge's verdict
type VerdictRequest struct {
	Verdict    models.Verdict `json:"verdict" validate:"oneof=GUILTY INNOCENT"`
	Punishment string         `json:"punishment" validate:"max=5000"`
	Notes      string         `json:"notes" validate:"max=5000"`
}

// Schedule opens the trial of a case
// @Summary Schedule trial
// @Tags Trials
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Case ID"
// @Param request body ScheduleTrialRequest true "Trial"
// @Success 201 {object} DataResponse "Trial scheduled"
// @Failure 400 {object} ErrorResponse "Case not ready for trial"
// @Failure 409 {object} ErrorResponse "Trial exists"
// @Router /cases/{id}/trial [post]
func (h *TrialHandler) Schedule(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(w, r)
	if !ok {
		return
	}
	caseID, err := pathID(r, "id")
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	var req ScheduleTrialRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		respondWithAppError(w, r, err)
		return
	}

	t, err := h.trials.ScheduleTrial(r.Context(), actorID, caseID, req.JudgeID, req.TrialDate)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithData(w, http.StatusCreated, "Trial scheduled", t)
}

// Get returns the trial dossier of a case
// @Summary Get trial
// @Description The trial with the case, its evidence and the involved individuals
// @Tags Trials
// @Produce json
// @Security BearerAuth
// @Param id path int true "Case ID"
// @Success 200 {object} DataResponse "Dossier"
// @Failure 404 {object} ErrorResponse "No trial"
// @Router /cases/{id}/trial [get]
func (h *TrialHandler) Get(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(w, r)
	if !ok {
		return
	}
	caseID, err := pathID(r, "id")
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	dossier, err := h.trials.GetTrial(r.Context(), actorID, caseID)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithData(w, http.StatusOK, "", dossier)
}

// Verdict records the verdict of the presiding judge
// @Summary Record verdict
// @Tags Trials
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Case ID"
// @Param request body VerdictRequest true "Verdict"
// @Success 200 {object} DataResponse "Verdict recorded"
// @Failure 403 {object} ErrorResponse "Not the presiding judge"
// @Router /cases/{id}/trial/verdict [post]
func (h *TrialHandler) Verdict(w http.ResponseWriter, r *http.Request) {
	serveDecision(w, r, func(ctx context.Context, actorID, caseID uint, req VerdictRequest) (*models.Trial, string, error) {
		return h.trials.RecordVerdict(ctx, actorID, caseID, req.Verdict, req.Punishment, req.Notes)
	})
}
