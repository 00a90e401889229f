package service

import (
	"context"
	"fmt"

	"precinct/internal/authz"
	"precinct/internal/models"
	"precinct/internal/repository"
	"precinct/internal/workflow"
)

const entityEvidence = "evidence"

// EvidenceService records evidence on cases and runs the coroner's review
// of biological items
type EvidenceService struct {
	env Env
}

// NewEvidenceService creates a new evidence service
func NewEvidenceService(env Env) *EvidenceService {
	return &EvidenceService{env: env}
}

// Add files e under caseID. The evidence number is generated here; the
// assigned detective, if any, is notified.
func (s *EvidenceService) Add(ctx context.Context, actorID, caseID uint, e models.Evidence) (models.Evidence, error) {
	if _, err := s.env.Checker.RequirePermission(ctx, actorID, authz.PermEvidenceAdd); err != nil {
		return nil, s.env.fail(entityEvidence, err)
	}
	if err := workflow.ValidateEvidence(e); err != nil {
		return nil, s.env.fail(entityEvidence, err)
	}

	b := e.Envelope()
	b.CaseID = caseID
	b.CollectedBy = &actorID

	err := s.env.inTxRetry(ctx, func(st *repository.Store) error {
		c, err := st.Cases.GetByID(ctx, caseID)
		if err != nil {
			return err
		}
		b.EvidenceNumber = workflow.EvidenceNumber(s.env.now())
		if err := st.Evidence.Create(ctx, e); err != nil {
			return err
		}
		if c.AssignedDetectiveID == nil || *c.AssignedDetectiveID == actorID {
			return nil
		}
		notice := fmt.Sprintf("New %s evidence %s was added to case %s.", e.Kind(), b.EvidenceNumber, c.CaseNumber)
		return Notify(ctx, st, &c.ID, *c.AssignedDetectiveID, models.RefOf(e), notice)
	})
	if err != nil {
		return nil, s.env.fail(entityEvidence, err)
	}

	s.env.transitioned(entityEvidence, b.ID, "", string(e.Kind()), actorID)
	return e, nil
}

// List returns every evidence item of a case across variants
func (s *EvidenceService) List(ctx context.Context, actorID, caseID uint) ([]models.Evidence, error) {
	st := s.env.store()
	if err := s.checkCase(ctx, st, actorID, caseID); err != nil {
		return nil, err
	}
	return st.Evidence.ListByCase(ctx, caseID)
}

// Get returns one evidence item
func (s *EvidenceService) Get(ctx context.Context, actorID uint, ref models.Ref) (models.Evidence, error) {
	st := s.env.store()
	e, err := st.Evidence.Get(ctx, ref)
	if err != nil {
		return nil, err
	}
	if err := s.checkCase(ctx, st, actorID, e.Envelope().CaseID); err != nil {
		return nil, err
	}
	return e, nil
}

// checkCase lets coroners through and applies case visibility to everyone else.
func (s *EvidenceService) checkCase(ctx context.Context, st *repository.Store, actorID, caseID uint) error {
	p, err := s.env.actor(ctx, actorID)
	if err != nil {
		return err
	}
	c, err := st.Cases.GetByID(ctx, caseID)
	if err != nil {
		return err
	}
	if p.Can(authz.PermEvidenceCoronerApprove) {
		return nil
	}
	return checkCaseVisible(ctx, st, p, c)
}

// RecordLabResult stores the lab result of a biological item
func (s *EvidenceService) RecordLabResult(ctx context.Context, actorID, id uint, result string) (*models.Biological, error) {
	return s.reviewBiological(ctx, actorID, id, func(e *models.Biological) error {
		return workflow.RecordLabResult(e, result)
	})
}

// CoronerApprove marks a biological item as examined and approved
func (s *EvidenceService) CoronerApprove(ctx context.Context, actorID, id uint) (*models.Biological, error) {
	e, err := s.reviewBiological(ctx, actorID, id, func(e *models.Biological) error {
		return workflow.CoronerApprove(e, actorID, s.env.now())
	})
	if err != nil {
		return nil, err
	}
	s.env.transitioned(entityEvidence, e.ID, "pending", "coroner_approved", actorID)
	return e, nil
}

func (s *EvidenceService) reviewBiological(ctx context.Context, actorID, id uint, review func(e *models.Biological) error) (*models.Biological, error) {
	if _, err := s.env.Checker.RequirePermission(ctx, actorID, authz.PermEvidenceCoronerApprove); err != nil {
		return nil, s.env.fail(entityEvidence, err)
	}

	var e *models.Biological
	err := s.env.inTx(ctx, func(st *repository.Store) error {
		var err error
		if e, err = st.Evidence.GetBiologicalForUpdate(ctx, id); err != nil {
			return err
		}
		if err := review(e); err != nil {
			return err
		}
		return st.Evidence.UpdateBiological(ctx, e)
	})
	if err != nil {
		return nil, s.env.fail(entityEvidence, err)
	}
	return e, nil
}
