package service

import (
	"context"
	"strings"

	"precinct/internal/apperr"
	"precinct/internal/authz"
	"precinct/internal/models"
	"precinct/internal/repository"
	"precinct/internal/workflow"
)

const entityReward = "reward"

// RewardService runs civilian tips through officer triage, detective
// approval and the claim at a station
type RewardService struct {
	env Env
}

// NewRewardService creates a new reward service
func NewRewardService(env Env) *RewardService {
	return &RewardService{env: env}
}

// SubmitTip records information offered by a civilian for a reward
func (s *RewardService) SubmitTip(ctx context.Context, actorID uint, caseID, suspectID *uint, information string) (*models.Reward, error) {
	if _, err := s.env.Checker.RequirePermission(ctx, actorID, authz.PermRewardCreate); err != nil {
		return nil, s.env.fail(entityReward, err)
	}

	rw, err := workflow.NewTip(actorID, caseID, suspectID, information)
	if err != nil {
		return nil, s.env.fail(entityReward, err)
	}
	err = s.env.inTx(ctx, func(st *repository.Store) error {
		if caseID != nil {
			if _, err := st.Cases.GetByID(ctx, *caseID); err != nil {
				return err
			}
		}
		if suspectID != nil {
			if _, err := st.Suspects.GetByID(ctx, *suspectID); err != nil {
				return err
			}
		}
		return st.Rewards.Create(ctx, rw)
	})
	if err != nil {
		return nil, s.env.fail(entityReward, err)
	}

	s.env.transitioned(entityReward, rw.ID, "", string(rw.Status), actorID)
	return ptr(rw.Redacted()), nil
}

// OfficerReview rejects a tip or forwards it to the case's detective
func (s *RewardService) OfficerReview(ctx context.Context, actorID, id uint, d workflow.Decision, message string) (*models.Reward, string, error) {
	if _, err := s.env.Checker.RequirePermission(ctx, actorID, authz.PermRewardReviewOfficer); err != nil {
		return nil, "", s.env.fail(entityReward, err)
	}

	return s.review(ctx, actorID, id, false, func(st *repository.Store, rw *models.Reward, c *models.Case) (string, error) {
		status, err := workflow.OfficerTriage(rw, c, actorID, d, message, s.env.now())
		if err != nil {
			return "", err
		}
		if rw.Status == models.RewardPendingDetective {
			err = Notify(ctx, st, rw.CaseID, *c.AssignedDetectiveID, rewardRef(rw), "A reward submission awaits your review.")
		} else {
			err = Notify(ctx, st, rw.CaseID, rw.RecipientID, rewardRef(rw), "Your reward submission was rejected: "+message)
		}
		return status, err
	})
}

// DetectiveReview approves or rejects a forwarded tip. Approval mints the
// claim code and tells the recipient how to claim.
func (s *RewardService) DetectiveReview(ctx context.Context, actorID, id uint, d workflow.Decision, message string, amount *int64) (*models.Reward, string, error) {
	if _, err := s.env.Checker.RequirePermission(ctx, actorID, authz.PermRewardReviewDetective); err != nil {
		return nil, "", s.env.fail(entityReward, err)
	}

	return s.review(ctx, actorID, id, true, func(st *repository.Store, rw *models.Reward, c *models.Case) (string, error) {
		status, err := workflow.DetectiveDecision(rw, c, actorID, d, message, amount, s.env.now())
		if err != nil {
			return "", err
		}
		if rw.Status == models.RewardReadyForPayment {
			rw.RewardCode = workflow.RewardCode(s.env.now())
			err = Notify(ctx, st, rw.CaseID, rw.RecipientID, rewardRef(rw), workflow.ClaimNotice(rw.RewardCode))
		} else {
			err = Notify(ctx, st, rw.CaseID, rw.RecipientID, rewardRef(rw), "Your reward submission was rejected.")
		}
		return status, err
	})
}

// review loads and locks a reward with its case, applies decide and saves
// the reward. A colliding claim code reruns the whole transaction.
func (s *RewardService) review(ctx context.Context, actorID, id uint, retry bool,
	decide func(st *repository.Store, rw *models.Reward, c *models.Case) (string, error)) (*models.Reward, string, error) {
	var (
		rw     *models.Reward
		from   models.RewardStatus
		status string
	)
	run := s.env.inTx
	if retry {
		run = s.env.inTxRetry
	}
	err := run(ctx, func(st *repository.Store) error {
		var err error
		if rw, err = st.Rewards.GetForUpdate(ctx, id); err != nil {
			return err
		}
		var c *models.Case
		if rw.CaseID != nil {
			if c, err = st.Cases.GetByID(ctx, *rw.CaseID); err != nil {
				return err
			}
		}
		from = rw.Status
		if status, err = decide(st, rw, c); err != nil {
			return err
		}
		return st.Rewards.Update(ctx, rw)
	})
	if err != nil {
		return nil, "", s.env.fail(entityReward, err)
	}

	s.env.transitioned(entityReward, rw.ID, string(from), string(rw.Status), actorID)
	return rw, status, nil
}

// Claim pays out a reward at a station once the recipient's identity was
// checked
func (s *RewardService) Claim(ctx context.Context, actorID, id uint, station string, verified bool, paymentRef string) (*models.Reward, error) {
	if _, err := s.env.Checker.RequireAnyRole(ctx, actorID, authz.StationStaff...); err != nil {
		return nil, s.env.fail(entityReward, err)
	}

	var (
		rw   *models.Reward
		from models.RewardStatus
	)
	err := s.env.inTx(ctx, func(st *repository.Store) error {
		var err error
		if rw, err = st.Rewards.GetForUpdate(ctx, id); err != nil {
			return err
		}
		from = rw.Status
		if err := workflow.ClaimAtStation(rw, actorID, station, verified, strings.TrimSpace(paymentRef), s.env.now()); err != nil {
			return err
		}
		return st.Rewards.Update(ctx, rw)
	})
	if err != nil {
		return nil, s.env.fail(entityReward, err)
	}

	s.env.transitioned(entityReward, rw.ID, string(from), string(rw.Status), actorID)
	return rw, nil
}

// Lookup finds a reward by the recipient's national id and the claim code
func (s *RewardService) Lookup(ctx context.Context, actorID uint, nationalID, code string) (*models.Reward, error) {
	if _, err := s.env.Checker.RequirePermission(ctx, actorID, authz.PermRewardLookup); err != nil {
		return nil, err
	}
	nationalID, code = strings.TrimSpace(nationalID), strings.TrimSpace(code)
	if nationalID == "" || code == "" {
		return nil, apperr.Validation("national_id and reward_code are required.")
	}

	rw, err := s.env.store().Rewards.GetByCodeAndNationalID(ctx, code, nationalID)
	if err != nil {
		return nil, err
	}
	return ptr(rw.Redacted()), nil
}

// List returns the rewards the actor works on: the detective queue of own
// cases for detectives, the officer queue for other police ranks and own
// submissions for everyone else
func (s *RewardService) List(ctx context.Context, actorID uint) ([]models.Reward, error) {
	p, err := s.env.actor(ctx, actorID)
	if err != nil {
		return nil, err
	}

	filter := repository.RewardFilter{}
	switch {
	case p.IsAdmin():
	case p.HasRole(authz.RoleDetective):
		filter.DetectiveID = &actorID
		filter.Statuses = []models.RewardStatus{models.RewardPendingDetective}
	case p.HasAnyRole(seesAllCases...):
		filter.Statuses = []models.RewardStatus{models.RewardPending}
	default:
		filter.RecipientID = &actorID
	}

	rewards, err := s.env.store().Rewards.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	for i := range rewards {
		rewards[i] = rewards[i].Redacted()
	}
	return rewards, nil
}

// Get returns one reward to its recipient or to a reviewer
func (s *RewardService) Get(ctx context.Context, actorID, id uint) (*models.Reward, error) {
	p, err := s.env.actor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	rw, err := s.env.store().Rewards.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rw.RecipientID != actorID && !p.IsAdmin() &&
		!p.Can(authz.PermRewardReviewOfficer) && !p.Can(authz.PermRewardReviewDetective) {
		return nil, apperr.Forbidden("You cannot view this reward.")
	}
	return ptr(rw.Redacted()), nil
}

func rewardRef(rw *models.Reward) models.Ref {
	return models.Ref{Type: models.RefReward, ID: rw.ID}
}

func ptr[T any](v T) *T {
	return &v
}
