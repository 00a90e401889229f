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

const entityComplaint = "complaint"

// ComplaintService runs complaint intake: submission, cadet and officer
// screening, and case creation on officer approval
type ComplaintService struct {
	env Env
}

// NewComplaintService creates a new complaint service
func NewComplaintService(env Env) *ComplaintService {
	return &ComplaintService{env: env}
}

// Submit files a new complaint for the actor
func (s *ComplaintService) Submit(ctx context.Context, actorID uint, in workflow.ComplaintContent) (*models.Complaint, error) {
	if _, err := s.env.Checker.RequirePermission(ctx, actorID, authz.PermComplaintCreate); err != nil {
		return nil, s.env.fail(entityComplaint, err)
	}

	c := workflow.NewComplaint(actorID, in)
	err := s.env.inTx(ctx, func(st *repository.Store) error {
		return st.Complaints.Create(ctx, c)
	})
	if err != nil {
		return nil, s.env.fail(entityComplaint, err)
	}

	s.env.transitioned(entityComplaint, c.ID, "", string(c.Status), actorID)
	return c, nil
}

// Update lets the complainant correct a returned complaint and resubmit it
func (s *ComplaintService) Update(ctx context.Context, actorID, id uint, in workflow.ComplaintContent) (*models.Complaint, error) {
	if _, err := s.env.actor(ctx, actorID); err != nil {
		return nil, s.env.fail(entityComplaint, err)
	}

	var (
		c    *models.Complaint
		from models.ComplaintStatus
	)
	err := s.env.inTx(ctx, func(st *repository.Store) error {
		var err error
		if c, err = st.Complaints.GetForUpdate(ctx, id); err != nil {
			return err
		}
		if c.ComplainantID != actorID {
			return apperr.Forbidden("Only the complainant can edit this complaint.")
		}
		from = c.Status
		if err := workflow.EditComplaint(c, in); err != nil {
			return err
		}
		return st.Complaints.Update(ctx, c)
	})
	if err != nil {
		return nil, s.env.fail(entityComplaint, err)
	}

	s.env.transitioned(entityComplaint, c.ID, string(from), string(c.Status), actorID)
	return c, nil
}

// CadetReview records the cadet's decision. Reaching the rejection limit
// voids the complaint.
func (s *ComplaintService) CadetReview(ctx context.Context, actorID, id uint, d workflow.Decision, message string) (*models.Complaint, string, error) {
	if _, err := s.env.Checker.RequirePermission(ctx, actorID, authz.PermComplaintReviewCadet); err != nil {
		return nil, "", s.env.fail(entityComplaint, err)
	}

	var (
		c      *models.Complaint
		from   models.ComplaintStatus
		status string
	)
	err := s.env.inTx(ctx, func(st *repository.Store) error {
		var err error
		if c, err = st.Complaints.GetForUpdate(ctx, id); err != nil {
			return err
		}
		from = c.Status
		if status, err = workflow.CadetReview(c, s.env.Rules, actorID, d, message); err != nil {
			return err
		}
		if err := st.Complaints.Update(ctx, c); err != nil {
			return err
		}
		if c.Status == models.ComplaintVoided || c.Status == models.ComplaintReturnedToComplainant {
			return Notify(ctx, st, nil, c.ComplainantID, models.Ref{Type: models.RefComplaint, ID: c.ID}, status)
		}
		return nil
	})
	if err != nil {
		return nil, "", s.env.fail(entityComplaint, err)
	}

	s.env.transitioned(entityComplaint, c.ID, string(from), string(c.Status), actorID)
	return c, status, nil
}

// OfficerReview records the officer's decision. Approval opens a case from
// the complaint in the same transaction.
func (s *ComplaintService) OfficerReview(ctx context.Context, actorID, id uint, d workflow.Decision, message string) (*models.Complaint, string, error) {
	if _, err := s.env.Checker.RequirePermission(ctx, actorID, authz.PermComplaintReviewOfficer); err != nil {
		return nil, "", s.env.fail(entityComplaint, err)
	}

	var (
		c      *models.Complaint
		from   models.ComplaintStatus
		status string
	)
	err := s.env.inTxRetry(ctx, func(st *repository.Store) error {
		var err error
		if c, err = st.Complaints.GetForUpdate(ctx, id); err != nil {
			return err
		}
		from = c.Status
		if status, err = workflow.OfficerReview(c, actorID, d, message); err != nil {
			return err
		}

		if c.Status == models.ComplaintApproved {
			cs := workflow.CaseFromComplaint(c, actorID)
			if err := createCase(ctx, st, cs, s.env.now()); err != nil {
				return err
			}
			c.CaseID = &cs.ID
			notice := fmt.Sprintf("Your complaint has been approved. Case %s was opened.", cs.CaseNumber)
			if err := Notify(ctx, st, c.CaseID, c.ComplainantID, models.Ref{Type: models.RefCase, ID: cs.ID}, notice); err != nil {
				return err
			}
		}
		return st.Complaints.Update(ctx, c)
	})
	if err != nil {
		return nil, "", s.env.fail(entityComplaint, err)
	}

	s.env.transitioned(entityComplaint, c.ID, string(from), string(c.Status), actorID)
	return c, status, nil
}

// List returns the complaints the actor may see. Cadets see their screening
// queue, police ranks the officer queue and everyone else their own.
func (s *ComplaintService) List(ctx context.Context, actorID uint) ([]models.Complaint, error) {
	p, err := s.env.actor(ctx, actorID)
	if err != nil {
		return nil, err
	}

	filter := repository.ComplaintFilter{}
	if !p.IsAdmin() {
		if p.HasRole(authz.RoleCadet) {
			filter.Statuses = append(filter.Statuses, models.ComplaintPendingCadet, models.ComplaintReturnedToCadet)
		}
		if p.HasAnyRole(authz.PoliceRanks...) {
			filter.Statuses = append(filter.Statuses, models.ComplaintPendingOfficer)
		}
		if len(filter.Statuses) == 0 {
			filter.ComplainantID = &actorID
		}
	}
	return s.env.store().Complaints.List(ctx, filter)
}

// Get returns one complaint if the actor filed it or reviews complaints
func (s *ComplaintService) Get(ctx context.Context, actorID, id uint) (*models.Complaint, error) {
	p, err := s.env.actor(ctx, actorID)
	if err != nil {
		return nil, err
	}

	c, err := s.env.store().Complaints.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.ComplainantID != actorID && !p.IsAdmin() && !p.Can(authz.PermComplaintList) &&
		!p.HasAnyRole(append([]authz.Role{authz.RoleCadet}, authz.PoliceRanks...)...) {
		return nil, apperr.Forbidden("You cannot view this complaint.")
	}
	return c, nil
}
