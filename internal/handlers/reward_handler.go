package handlers

import (
	"context"
	"net/http"

	"precinct/internal/models"
	"precinct/internal/service"
	"precinct/internal/workflow"
)

// RewardHandler handles civilian tips and reward payouts
type RewardHandler struct {
	rewards *service.RewardService
}

// NewRewardHandler creates a new reward handler
func NewRewardHandler(rewards *service.RewardService) *RewardHandler {
	return &RewardHandler{rewards: rewards}
}

// TipRequest offers information about a case or a suspect
type TipRequest struct {
	CaseID      *uint  `json:"case_id" validate:"required_without=SuspectID"`
	SuspectID   *uint  `json:"suspect_id"`
	Information string `json:"information" validate:"notblank,max=5000"`
}

// DetectiveRewardReviewRequest is the detective's decision, optionally with
// an explicit reward amount
type DetectiveRewardReviewRequest struct {
	Action  workflow.Decision `json:"action" validate:"oneof=approve reject"`
	Message string            `json:"message" validate:"max=2000"`
	Amount  *int64            `json:"amount" validate:"omitempty,gt=0"`
}

// ClaimRequest pays out a reward at a station
type ClaimRequest struct {
	Station          string `json:"station" validate:"notblank,max=255"`
	IdentityVerified bool   `json:"identity_verified"`
	PaymentReference string `json:"payment_reference" validate:"max=255"`
}

// SubmitTip records a civilian tip
// @Summary Submit tip
// @Tags Rewards
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body TipRequest true "Tip"
// @Success 201 {object} DataResponse "Tip submitted"
// @Router /rewards [post]
func (h *RewardHandler) SubmitTip(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(w, r)
	if !ok {
		return
	}
	var req TipRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		respondWithAppError(w, r, err)
		return
	}

	rw, err := h.rewards.SubmitTip(r.Context(), actorID, req.CaseID, req.SuspectID, req.Information)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithData(w, http.StatusCreated, "Tip submitted", rw)
}

// List returns the rewards the caller works on
// @Summary List rewards
// @Tags Rewards
// @Produce json
// @Security BearerAuth
// @Success 200 {object} DataResponse "Rewards"
// @Router /rewards [get]
func (h *RewardHandler) List(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(w, r)
	if !ok {
		return
	}
	rewards, err := h.rewards.List(r.Context(), actorID)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithList(w, rewards)
}

// Lookup finds a reward by national id and claim code
// @Summary Look up reward
// @Tags Rewards
// @Produce json
// @Security BearerAuth
// @Param national_id query string true "Recipient national id"
// @Param reward_code query string true "Claim code"
// @Success 200 {object} DataResponse "Reward"
// @Failure 404 {object} ErrorResponse "Not found"
// @Router /rewards/lookup [get]
func (h *RewardHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	rw, err := h.rewards.Lookup(r.Context(), actorID, q.Get("national_id"), q.Get("reward_code"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithData(w, http.StatusOK, "", rw)
}

// Get returns one reward
// @Summary Get reward
// @Tags Rewards
// @Produce json
// @Security BearerAuth
// @Param id path int true "Reward ID"
// @Success 200 {object} DataResponse "Reward"
// @Router /rewards/{id} [get]
func (h *RewardHandler) Get(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	rw, err := h.rewards.Get(r.Context(), actorID, id)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithData(w, http.StatusOK, "", rw)
}

// OfficerReview triages a tip
// @Summary Officer review
// @Tags Rewards
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Reward ID"
// @Param request body ReviewRequest true "Decision"
// @Success 200 {object} DataResponse "Decision recorded"
// @Router /rewards/{id}/officer-review [post]
func (h *RewardHandler) OfficerReview(w http.ResponseWriter, r *http.Request) {
	serveReview(w, r, h.rewards.OfficerReview)
}

// DetectiveReview approves or rejects a forwarded tip
// @Summary Detective review
// @Description Approval issues the claim code to the recipient
// @Tags Rewards
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Reward ID"
// @Param request body DetectiveRewardReviewRequest true "Decision"
// @Success 200 {object} DataResponse "Decision recorded"
// @Router /rewards/{id}/detective-review [post]
func (h *RewardHandler) DetectiveReview(w http.ResponseWriter, r *http.Request) {
	serveDecision(w, r, func(ctx context.Context, actorID, id uint, req DetectiveRewardReviewRequest) (*models.Reward, string, error) {
		return h.rewards.DetectiveReview(ctx, actorID, id, req.Action, req.Message, req.Amount)
	})
}

// Claim pays out a reward
// @Summary Claim reward
// @Tags Rewards
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Reward ID"
// @Param request body ClaimRequest true "Claim"
// @Success 200 {object} DataResponse "Reward paid"
// @Failure 400 {object} ErrorResponse "Identity not verified"
// @Router /rewards/{id}/claim [post]
func (h *RewardHandler) Claim(w http.ResponseWriter, r *http.Request) {
	serveDecision(w, r, func(ctx context.Context, actorID, id uint, req ClaimRequest) (*models.Reward, string, error) {
		rw, err := h.rewards.Claim(ctx, actorID, id, req.Station, req.IdentityVerified, req.PaymentReference)
		return rw, "Reward paid", err
	})
}
