package handlers

import (
	"context"
	"net/http"

	"precinct/internal/models"
	"precinct/internal/service"
)

// SuspectHandler handles suspect assessment, pursuit and bail requests
type SuspectHandler struct {
	suspects *service.SuspectService
	bail     *service.BailService
}

// NewSuspectHandler creates a new suspect handler
func NewSuspectHandler(suspects *service.SuspectService, bail *service.BailService) *SuspectHandler {
	return &SuspectHandler{suspects: suspects, bail: bail}
}

// ScoreRequest is a guilt score between 1 and 10
type ScoreRequest struct {
	Score int `json:"score" validate:"gte=1,lte=10"`
}

// OpinionRequest is the captain's written opinion
type OpinionRequest struct {
	Opinion string `json:"opinion" validate:"notblank,max=5000"`
}

// ChiefDecisionRequest is the chief's decision on a critical case suspect
type ChiefDecisionRequest struct {
	Approved *bool `json:"approved" validate:"required"`
}

// BailAmountsRequest sets the bail and/or the fine of a suspect
type BailAmountsRequest struct {
	BailAmount *int64 `json:"bail_amount" validate:"required_without=FineAmount,omitempty,gt=0"`
	FineAmount *int64 `json:"fine_amount" validate:"omitempty,gt=0"`
}

// PaymentRequest records a confirmed bail or fine payment
type PaymentRequest struct {
	Kind      string `json:"kind" validate:"oneof=bail fine"`
	Amount    int64  `json:"amount" validate:"gt=0"`
	Reference string `json:"reference" validate:"max=255"`
}

// ListCaseSuspects lists the suspects of a case with their assessments
// @Summary List case suspects
// @Tags Suspects
// @Produce json
// @Security BearerAuth
// @Param id path int true "Case ID"
// @Success 200 {object} DataResponse "Suspects"
// @Router /cases/{id}/suspects [get]
func (h *SuspectHandler) ListCaseSuspects(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(w, r)
	if !ok {
		return
	}
	caseID, err := pathID(r, "id")
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	links, err := h.suspects.ListCaseSuspects(r.Context(), actorID, caseID)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithList(w, links)
}

// DetectiveScore records the detective's guilt score
// @Summary Detective score
// @Tags Suspects
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Case ID"
// @Param suspectId path int true "Suspect ID"
// @Param request body ScoreRequest true "Score"
// @Success 200 {object} DataResponse "Score recorded"
// @Router /cases/{id}/suspects/{suspectId}/detective-score [post]
func (h *SuspectHandler) DetectiveScore(w http.ResponseWriter, r *http.Request) {
	serveAssessment(w, r, "Detective score recorded", func(ctx context.Context, actorID, caseID, suspectID uint, req ScoreRequest) (*models.SuspectCaseLink, error) {
		return h.suspects.DetectiveAssessment(ctx, actorID, caseID, suspectID, req.Score)
	})
}

// SergeantScore records the sergeant's guilt score
// @Summary Sergeant score
// @Tags Suspects
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Case ID"
// @Param suspectId path int true "Suspect ID"
// @Param request body ScoreRequest true "Score"
// @Success 200 {object} DataResponse "Score recorded"
// @Router /cases/{id}/suspects/{suspectId}/sergeant-score [post]
func (h *SuspectHandler) SergeantScore(w http.ResponseWriter, r *http.Request) {
	serveAssessment(w, r, "Sergeant score recorded", func(ctx context.Context, actorID, caseID, suspectID uint, req ScoreRequest) (*models.SuspectCaseLink, error) {
		return h.suspects.SergeantAssessment(ctx, actorID, caseID, suspectID, req.Score)
	})
}

// CaptainOpinion records the captain's opinion
// @Summary Captain opinion
// @Tags Suspects
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Case ID"
// @Param suspectId path int true "Suspect ID"
// @Param request body OpinionRequest true "Opinion"
// @Success 200 {object} DataResponse "Opinion recorded"
// @Failure 400 {object} ErrorResponse "Scores missing"
// @Router /cases/{id}/suspects/{suspectId}/captain-opinion [post]
func (h *SuspectHandler) CaptainOpinion(w http.ResponseWriter, r *http.Request) {
	serveAssessment(w, r, "Captain opinion recorded", func(ctx context.Context, actorID, caseID, suspectID uint, req OpinionRequest) (*models.SuspectCaseLink, error) {
		return h.suspects.CaptainOpinion(ctx, actorID, caseID, suspectID, req.Opinion)
	})
}

// ChiefDecision records the chief's decision
// @Summary Chief decision
// @Tags Suspects
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Case ID"
// @Param suspectId path int true "Suspect ID"
// @Param request body ChiefDecisionRequest true "Decision"
// @Success 200 {object} DataResponse "Decision recorded"
// @Failure 400 {object} ErrorResponse "Case is not critical"
// @Router /cases/{id}/suspects/{suspectId}/chief-decision [post]
func (h *SuspectHandler) ChiefDecision(w http.ResponseWriter, r *http.Request) {
	serveAssessment(w, r, "Chief decision recorded", func(ctx context.Context, actorID, caseID, suspectID uint, req ChiefDecisionRequest) (*models.SuspectCaseLink, error) {
		return h.suspects.ChiefApproval(ctx, actorID, caseID, suspectID, *req.Approved)
	})
}

func serveAssessment[R any](w http.ResponseWriter, r *http.Request, message string,
	assess func(ctx context.Context, actorID, caseID, suspectID uint, req R) (*models.SuspectCaseLink, error)) {
	actorID, ok := actor(w, r)
	if !ok {
		return
	}
	caseID, err := pathID(r, "id")
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	suspectID, err := pathID(r, "suspectId")
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	var req R
	if err := decodeAndValidate(w, r, &req); err != nil {
		respondWithAppError(w, r, err)
		return
	}

	link, err := assess(r.Context(), actorID, caseID, suspectID, req)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithData(w, http.StatusOK, message, link)
}

// MarkWanted starts the pursuit of a suspect
// @Summary Mark suspect wanted
// @Tags Suspects
// @Produce json
// @Security BearerAuth
// @Param id path int true "Suspect ID"
// @Success 200 {object} DataResponse "Suspect wanted"
// @Router /suspects/{id}/wanted [post]
func (h *SuspectHandler) MarkWanted(w http.ResponseWriter, r *http.Request) {
	h.changeStatus(w, r, "Suspect marked as wanted", h.suspects.MarkWanted)
}

// MarkCaptured ends the pursuit of a suspect
// @Summary Mark suspect captured
// @Tags Suspects
// @Produce json
// @Security BearerAuth
// @Param id path int true "Suspect ID"
// @Success 200 {object} DataResponse "Suspect captured"
// @Router /suspects/{id}/captured [post]
func (h *SuspectHandler) MarkCaptured(w http.ResponseWriter, r *http.Request) {
	h.changeStatus(w, r, "Suspect marked as captured", h.suspects.MarkCaptured)
}

func (h *SuspectHandler) changeStatus(w http.ResponseWriter, r *http.Request, message string,
	change func(ctx context.Context, actorID, suspectID uint) (*models.Suspect, error)) {
	actorID, ok := actor(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	sp, err := change(r.Context(), actorID, id)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithData(w, http.StatusOK, message, sp)
}

// MostWanted lists the suspects under intensive pursuit
// @Summary Most wanted
// @Description Public list of suspects wanted for longer than a month, highest ranking first
// @Tags Suspects
// @Produce json
// @Success 200 {object} DataResponse "Ranked suspects"
// @Router /suspects/most-wanted [get]
func (h *SuspectHandler) MostWanted(w http.ResponseWriter, r *http.Request) {
	ranked, err := h.suspects.IntensivePursuit(r.Context())
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithList(w, ranked)
}

// Ranking returns the pursuit ranking and reward of a suspect
// @Summary Suspect ranking
// @Tags Suspects
// @Produce json
// @Security BearerAuth
// @Param id path int true "Suspect ID"
// @Success 200 {object} DataResponse "Ranking"
// @Failure 404 {object} ErrorResponse "Not found"
// @Router /suspects/{id}/ranking [get]
func (h *SuspectHandler) Ranking(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	ranking, err := h.suspects.Ranking(r.Context(), id)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithData(w, http.StatusOK, "", ranking)
}

// SetBail sets the bail and/or fine of a detained suspect
// @Summary Set bail and fine
// @Tags Bail
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Suspect ID"
// @Param request body BailAmountsRequest true "Amounts"
// @Success 200 {object} DataResponse "Amounts set"
// @Failure 400 {object} ErrorResponse "Suspect not eligible"
// @Router /suspects/{id}/bail [put]
func (h *SuspectHandler) SetBail(w http.ResponseWriter, r *http.Request) {
	serveDecision(w, r, func(ctx context.Context, actorID, id uint, req BailAmountsRequest) (*service.BailResult, string, error) {
		res, err := h.bail.SetAmounts(ctx, actorID, id, req.BailAmount, req.FineAmount)
		return res, "Bail amounts set", err
	})
}

// ApproveBail records the supervisor approval critical suspects need
// @Summary Approve bail
// @Tags Bail
// @Produce json
// @Security BearerAuth
// @Param id path int true "Suspect ID"
// @Success 200 {object} DataResponse "Bail approved"
// @Router /suspects/{id}/bail/approve [post]
func (h *SuspectHandler) ApproveBail(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	res, err := h.bail.SetSupervisorApproval(r.Context(), actorID, id)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithData(w, http.StatusOK, "Bail approved", res)
}

// Pay records a confirmed bail or fine payment
// @Summary Record payment
// @Description A suspect is released once every amount set is paid and, where required, bail was approved
// @Tags Bail
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Suspect ID"
// @Param request body PaymentRequest true "Payment"
// @Success 200 {object} DataResponse "Payment recorded"
// @Failure 400 {object} ErrorResponse "Amount mismatch"
// @Router /suspects/{id}/bail/pay [post]
func (h *SuspectHandler) Pay(w http.ResponseWriter, r *http.Request) {
	serveDecision(w, r, func(ctx context.Context, actorID, id uint, req PaymentRequest) (*service.BailResult, string, error) {
		record := h.bail.RecordBailPayment
		if req.Kind == "fine" {
			record = h.bail.RecordFinePayment
		}
		res, err := record(ctx, actorID, id, req.Amount, req.Reference)
		if err != nil {
			return nil, "", err
		}
		if res.Released {
			return res, "Payment recorded; suspect released", nil
		}
		return res, "Payment recorded", nil
	})
}
