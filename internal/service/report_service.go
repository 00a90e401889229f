package service

import (
	"context"
	"fmt"

	"precinct/internal/apperr"
	"precinct/internal/authz"
	"precinct/internal/models"
	"precinct/internal/repository"
	"precinct/internal/workflow"
)

const entityReport = "detective_report"

// ReportService handles detective reports and their sergeant review. An
// approved report turns its reported evidence into suspects linked to the
// case.
type ReportService struct {
	env Env
}

// NewReportService creates a new report service
func NewReportService(env Env) *ReportService {
	return &ReportService{env: env}
}

// CreateReport files a report by the case's assigned detective. Every
// reported suspect must point at evidence of the same case.
func (s *ReportService) CreateReport(ctx context.Context, actorID, caseID uint, message string, suspects []models.Ref) (*models.DetectiveReport, error) {
	if _, err := s.env.actor(ctx, actorID); err != nil {
		return nil, s.env.fail(entityReport, err)
	}

	var rep *models.DetectiveReport
	err := s.env.inTx(ctx, func(st *repository.Store) error {
		c, err := st.Cases.GetForUpdate(ctx, caseID)
		if err != nil {
			return err
		}
		if rep, err = workflow.NewReport(c, actorID, message, suspects); err != nil {
			return err
		}
		for _, rs := range rep.Suspects {
			e, err := st.Evidence.Find(ctx, rs.Ref)
			if err != nil {
				return err
			}
			if err := workflow.CheckBelongsToCase("Reported suspect", e, caseID); err != nil {
				return err
			}
		}
		if err := st.Reports.Create(ctx, rep); err != nil {
			return err
		}

		sergeants, err := st.Users.GetUsersByRole(ctx, authz.RoleSergeant)
		if err != nil {
			return err
		}
		notice := fmt.Sprintf("Detective report #%d on case %s awaits review.", rep.ID, c.CaseNumber)
		for _, sgt := range sergeants {
			if err := Notify(ctx, st, &c.ID, sgt.ID, models.Ref{Type: models.RefDetectiveReport, ID: rep.ID}, notice); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, s.env.fail(entityReport, err)
	}

	s.env.transitioned(entityReport, rep.ID, "", string(rep.Status), actorID)
	return rep, nil
}

// SergeantReview approves a report or records disagreement. On approval the
// reported suspects are materialized: evidence revealing the same identity
// resolves to the same suspect, and each suspect is linked to the case once.
func (s *ReportService) SergeantReview(ctx context.Context, actorID, reportID uint, d workflow.Decision, message string) (*models.DetectiveReport, string, error) {
	p, err := s.env.actor(ctx, actorID)
	if err != nil {
		return nil, "", s.env.fail(entityReport, err)
	}
	if !p.HasAnyRole(authz.Supervisors...) && !p.Can(authz.PermSergeantReview) {
		return nil, "", s.env.fail(entityReport, apperr.Forbidden("Only a sergeant can review detective reports."))
	}

	var (
		rep    *models.DetectiveReport
		status string
	)
	err = s.env.inTxRetry(ctx, func(st *repository.Store) error {
		var err error
		if rep, err = st.Reports.GetForUpdate(ctx, reportID); err != nil {
			return err
		}
		if status, err = workflow.SergeantReview(rep, actorID, d, message, s.env.now()); err != nil {
			return err
		}
		if err := st.Reports.Update(ctx, rep); err != nil {
			return err
		}

		rep.Materialized = nil
		if rep.Status == models.ReportApproved {
			if err := materializeSuspects(ctx, st, rep); err != nil {
				return err
			}
		}
		return Notify(ctx, st, &rep.CaseID, rep.DetectiveID,
			models.Ref{Type: models.RefDetectiveReport, ID: rep.ID}, status)
	})
	if err != nil {
		return nil, "", s.env.fail(entityReport, err)
	}

	s.env.transitioned(entityReport, rep.ID, string(models.ReportPendingSergeant), string(rep.Status), actorID)
	return rep, status, nil
}

// materializeSuspects resolves every reported reference of rep to a suspect
// and links it to the report's case. A concurrent insert of the same
// external id fails on the unique index and the transaction is retried.
func materializeSuspects(ctx context.Context, st *repository.Store, rep *models.DetectiveReport) error {
	seen := make(map[uint]bool, len(rep.Suspects))
	for _, rs := range rep.Suspects {
		e, err := st.Evidence.Get(ctx, rs.Ref)
		if err != nil {
			return err
		}

		identity := workflow.ExtractIdentity(e)
		externalID := workflow.ExternalID(identity, rep.ID, rs.Ref)
		suspect, err := st.Suspects.FindByExternalID(ctx, externalID)
		if err != nil {
			return err
		}
		if suspect == nil {
			suspect = workflow.SuspectFromIdentity(identity, externalID, rs.Ref)
			if err := st.Suspects.Create(ctx, suspect); err != nil {
				return err
			}
		}
		if seen[suspect.ID] {
			continue
		}
		seen[suspect.ID] = true

		link, _, err := st.Suspects.EnsureLink(ctx, suspect.ID, rep.CaseID)
		if err != nil {
			return err
		}
		link.Suspect = suspect
		rep.Materialized = append(rep.Materialized, *link)
	}
	return nil
}

// ListReports returns the reports filed on a case
func (s *ReportService) ListReports(ctx context.Context, actorID, caseID uint) ([]models.DetectiveReport, error) {
	p, err := s.env.actor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	st := s.env.store()
	c, err := st.Cases.GetByID(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if err := checkCaseVisible(ctx, st, p, c); err != nil {
		return nil, err
	}
	return st.Reports.ListByCase(ctx, caseID)
}
