package service

import (
	"context"
	"fmt"
	"time"

	"precinct/internal/apperr"
	"precinct/internal/authz"
	"precinct/internal/models"
	"precinct/internal/repository"
	"precinct/internal/workflow"
)

const entityTrial = "trial"

// TrialService schedules trials and records verdicts
type TrialService struct {
	env Env
}

// NewTrialService creates a new trial service
func NewTrialService(env Env) *TrialService {
	return &TrialService{env: env}
}

// TrialDossier is everything a judge sees about a trial: the case, its
// evidence and the suspects linked to it
type TrialDossier struct {
	Trial    *models.Trial            `json:"trial"`
	Case     *models.Case             `json:"case"`
	Evidence []models.Evidence        `json:"evidence"`
	Suspects []models.SuspectCaseLink `json:"involved_individuals"`
}

// ScheduleTrial opens the trial of a case before judgeID
func (s *TrialService) ScheduleTrial(ctx context.Context, actorID, caseID, judgeID uint, date time.Time) (*models.Trial, error) {
	if _, err := s.env.Checker.RequireAnyRole(ctx, actorID, authz.TrialSchedulers...); err != nil {
		return nil, s.env.fail(entityTrial, err)
	}
	isJudge, err := s.env.Checker.HasAnyRole(ctx, judgeID, authz.RoleJudge)
	if err != nil {
		return nil, s.env.fail(entityTrial, err)
	}
	if !isJudge {
		return nil, s.env.fail(entityTrial, apperr.FieldValidation("judge_id", "The presiding user must hold the Judge role."))
	}

	var t *models.Trial
	err = s.env.inTx(ctx, func(st *repository.Store) error {
		c, err := st.Cases.GetForUpdate(ctx, caseID)
		if err != nil {
			return err
		}
		if t, err = workflow.ScheduleTrial(c, judgeID, date); err != nil {
			return err
		}
		if err := st.Trials.Create(ctx, t); err != nil {
			return err
		}
		notice := fmt.Sprintf("You preside over the trial of case %s on %s.", c.CaseNumber, date.Format("2006-01-02"))
		return Notify(ctx, st, &c.ID, judgeID, models.Ref{Type: models.RefTrial, ID: t.ID}, notice)
	})
	if err != nil {
		return nil, s.env.fail(entityTrial, err)
	}

	s.env.transitioned(entityTrial, t.ID, "", string(t.Status), actorID)
	return t, nil
}

// RecordVerdict records the presiding judge's verdict and completes the trial
func (s *TrialService) RecordVerdict(ctx context.Context, actorID, caseID uint, v models.Verdict, punishment, notes string) (*models.Trial, string, error) {
	if _, err := s.env.actor(ctx, actorID); err != nil {
		return nil, "", s.env.fail(entityTrial, err)
	}

	var (
		t      *models.Trial
		from   models.TrialStatus
		status string
	)
	err := s.env.inTx(ctx, func(st *repository.Store) error {
		var err error
		if t, err = st.Trials.GetByCaseForUpdate(ctx, caseID); err != nil {
			return err
		}
		from = t.Status
		if status, err = workflow.RecordVerdict(t, actorID, v, punishment, notes, s.env.now()); err != nil {
			return err
		}
		return st.Trials.Update(ctx, t)
	})
	if err != nil {
		return nil, "", s.env.fail(entityTrial, err)
	}

	s.env.transitioned(entityTrial, t.ID, string(from), string(t.Status), actorID)
	return t, status, nil
}

// GetTrial returns the dossier of a case's trial to judges and the ranks
// that schedule trials
func (s *TrialService) GetTrial(ctx context.Context, actorID, caseID uint) (*TrialDossier, error) {
	if _, err := s.env.Checker.RequireAnyRole(ctx, actorID, append([]authz.Role{authz.RoleJudge}, authz.TrialSchedulers...)...); err != nil {
		return nil, err
	}

	st := s.env.store()
	d := &TrialDossier{}
	var err error
	if d.Trial, err = st.Trials.GetByCase(ctx, caseID); err != nil {
		return nil, err
	}
	if d.Case, err = st.Cases.GetByID(ctx, caseID); err != nil {
		return nil, err
	}
	if d.Evidence, err = st.Evidence.ListByCase(ctx, caseID); err != nil {
		return nil, err
	}
	if d.Suspects, err = st.Suspects.ListLinksByCase(ctx, caseID); err != nil {
		return nil, err
	}
	return d, nil
}
