package service

import (
	"context"

	"precinct/internal/authz"
	"precinct/internal/models"
	"precinct/internal/repository"
	"precinct/internal/workflow"
)

const entityBail = "bail_fine"

// BailService manages bail and fine amounts, supervisor approval and
// payments that release detained suspects
type BailService struct {
	env Env
}

// NewBailService creates a new bail service
func NewBailService(env Env) *BailService {
	return &BailService{env: env}
}

// BailResult is a bail/fine record after an operation together with the
// suspect it belongs to
type BailResult struct {
	BailFine *models.BailFine `json:"bail_fine"`
	Suspect  *models.Suspect  `json:"suspect"`
	Tier     models.Severity  `json:"tier"`
	Released bool             `json:"released"`
}

// SetAmounts sets the bail and/or fine of a detained suspect
func (s *BailService) SetAmounts(ctx context.Context, actorID, suspectID uint, bail, fine *int64) (*BailResult, error) {
	if _, err := s.env.Checker.RequireAnyRole(ctx, actorID, authz.Supervisors...); err != nil {
		return nil, s.env.fail(entityBail, err)
	}
	return s.withRecord(ctx, actorID, suspectID, func(res *BailResult) error {
		return workflow.SetReleaseAmounts(res.BailFine, res.Suspect, bail, fine, actorID)
	})
}

// SetSupervisorApproval records the supervisor approval required before a
// payment releases a suspect of the top tier
func (s *BailService) SetSupervisorApproval(ctx context.Context, actorID, suspectID uint) (*BailResult, error) {
	if _, err := s.env.Checker.RequireAnyRole(ctx, actorID, authz.Supervisors...); err != nil {
		return nil, s.env.fail(entityBail, err)
	}
	return s.withRecord(ctx, actorID, suspectID, func(res *BailResult) error {
		workflow.ApproveRelease(res.BailFine, actorID, s.env.now())
		return nil
	})
}

// RecordBailPayment records a bail payment by the actor
func (s *BailService) RecordBailPayment(ctx context.Context, actorID, suspectID uint, amount int64, reference string) (*BailResult, error) {
	return s.recordPayment(ctx, actorID, suspectID, models.PaymentBail, amount, reference)
}

// RecordFinePayment records a fine payment by the actor
func (s *BailService) RecordFinePayment(ctx context.Context, actorID, suspectID uint, amount int64, reference string) (*BailResult, error) {
	return s.recordPayment(ctx, actorID, suspectID, models.PaymentFine, amount, reference)
}

func (s *BailService) recordPayment(ctx context.Context, actorID, suspectID uint, kind models.PaymentKind, amount int64, reference string) (*BailResult, error) {
	if _, err := s.env.actor(ctx, actorID); err != nil {
		return nil, s.env.fail(entityBail, err)
	}
	return s.withRecord(ctx, actorID, suspectID, func(res *BailResult) error {
		released, err := workflow.RecordPayment(res.BailFine, res.Suspect, res.Tier, kind, amount, reference, s.env.now())
		res.Released = released
		return err
	})
}

// withRecord locks the suspect and its bail/fine record, applies change and
// persists both. The suspect's tier is the highest severity of its cases.
func (s *BailService) withRecord(ctx context.Context, actorID, suspectID uint, change func(res *BailResult) error) (*BailResult, error) {
	res := &BailResult{}
	var from models.SuspectStatus
	err := s.env.inTx(ctx, func(st *repository.Store) error {
		var err error
		if res.Suspect, err = st.Suspects.GetForUpdate(ctx, suspectID); err != nil {
			return err
		}
		if res.BailFine, err = st.BailFines.GetOrCreateForUpdate(ctx, suspectID); err != nil {
			return err
		}
		if res.Tier, err = severityTier(ctx, st, suspectID); err != nil {
			return err
		}
		from = res.Suspect.Status
		if err := change(res); err != nil {
			return err
		}
		if err := st.BailFines.Update(ctx, res.BailFine); err != nil {
			return err
		}
		if res.Suspect.Status != from {
			return st.Suspects.Update(ctx, res.Suspect)
		}
		return nil
	})
	if err != nil {
		return nil, s.env.fail(entityBail, err)
	}

	if res.Suspect.Status != from {
		s.env.transitioned(entitySuspect, res.Suspect.ID, string(from), string(res.Suspect.Status), actorID)
	}
	return res, nil
}
