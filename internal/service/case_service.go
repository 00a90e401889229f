package service

import (
	"context"
	"fmt"
	"slices"
	"time"

	"precinct/internal/apperr"
	"precinct/internal/authz"
	"precinct/internal/models"
	"precinct/internal/repository"
	"precinct/internal/workflow"
)

const entityCase = "case"

// CaseService manages the case lifecycle and case visibility
type CaseService struct {
	env Env
}

// NewCaseService creates a new case service
func NewCaseService(env Env) *CaseService {
	return &CaseService{env: env}
}

// createCase numbers and inserts c. The sequence comes from the number of
// cases already opened this year, so concurrent creators can collide on the
// unique case number and the surrounding transaction is retried.
func createCase(ctx context.Context, st *repository.Store, c *models.Case, now time.Time) error {
	count, err := st.Cases.CountForYear(ctx, now.Year())
	if err != nil {
		return err
	}
	c.CaseNumber = workflow.CaseNumber(now, count+1)
	return st.Cases.Create(ctx, c)
}

// Create opens a case directly. Any police rank above cadet may do so; cases
// opened by the chief skip approval.
func (s *CaseService) Create(ctx context.Context, actorID uint, in workflow.CaseInput) (*models.Case, error) {
	p, err := s.env.Checker.RequireAnyRole(ctx, actorID, authz.CaseCreators...)
	if err != nil {
		return nil, s.env.fail(entityCase, err)
	}

	var c *models.Case
	err = s.env.inTxRetry(ctx, func(st *repository.Store) error {
		var err error
		if c, err = workflow.NewCase(actorID, p.HasRole(authz.RoleChief), in); err != nil {
			return err
		}
		return createCase(ctx, st, c, s.env.now())
	})
	if err != nil {
		return nil, s.env.fail(entityCase, err)
	}

	s.env.transitioned(entityCase, c.ID, "", string(c.Status), actorID)
	return c, nil
}

// Approve approves or rejects a case waiting in OPEN
func (s *CaseService) Approve(ctx context.Context, actorID, id uint, d workflow.Decision, message string) (*models.Case, string, error) {
	if _, err := s.env.Checker.RequirePermission(ctx, actorID, authz.PermCaseApprove); err != nil {
		return nil, "", s.env.fail(entityCase, err)
	}

	var (
		c      *models.Case
		from   models.CaseStatus
		status string
	)
	err := s.env.inTx(ctx, func(st *repository.Store) error {
		var err error
		if c, err = st.Cases.GetForUpdate(ctx, id); err != nil {
			return err
		}
		from = c.Status
		if status, err = workflow.ApproveCase(c, d, message, s.env.now()); err != nil {
			return err
		}
		return st.Cases.Update(ctx, c)
	})
	if err != nil {
		return nil, "", s.env.fail(entityCase, err)
	}

	s.env.transitioned(entityCase, c.ID, string(from), string(c.Status), actorID)
	return c, status, nil
}

// AssignDetective makes detectiveID the investigating detective and moves an
// open case under investigation
func (s *CaseService) AssignDetective(ctx context.Context, actorID, id, detectiveID uint) (*models.Case, error) {
	if _, err := s.env.Checker.RequirePermission(ctx, actorID, authz.PermCaseAssignDetective); err != nil {
		return nil, s.env.fail(entityCase, err)
	}
	isDetective, err := s.env.Checker.HasAnyRole(ctx, detectiveID, authz.RoleDetective)
	if err != nil {
		return nil, s.env.fail(entityCase, err)
	}
	if !isDetective {
		return nil, s.env.fail(entityCase, apperr.FieldValidation("detective_id", "The assignee must hold the Detective role."))
	}

	var (
		c    *models.Case
		from models.CaseStatus
	)
	err = s.env.inTx(ctx, func(st *repository.Store) error {
		var err error
		if c, err = st.Cases.GetForUpdate(ctx, id); err != nil {
			return err
		}
		from = c.Status
		if err := workflow.AssignDetective(c, detectiveID); err != nil {
			return err
		}
		if err := st.Cases.Update(ctx, c); err != nil {
			return err
		}
		notice := fmt.Sprintf("You have been assigned to case %s.", c.CaseNumber)
		return Notify(ctx, st, &c.ID, detectiveID, models.Ref{Type: models.RefCase, ID: c.ID}, notice)
	})
	if err != nil {
		return nil, s.env.fail(entityCase, err)
	}

	s.env.transitioned(entityCase, c.ID, string(from), string(c.Status), actorID)
	return c, nil
}

// AddTeamMember adds userID to the case team
func (s *CaseService) AddTeamMember(ctx context.Context, actorID, id, userID uint) (*models.Case, error) {
	return s.changeTeam(ctx, actorID, id, func(st *repository.Store, c *models.Case) error {
		if err := st.Cases.AddTeamMember(ctx, c.ID, userID); err != nil {
			return err
		}
		if !c.HasTeamMember(userID) {
			c.TeamMemberIDs = append(c.TeamMemberIDs, userID)
		}
		return nil
	})
}

// RemoveTeamMember removes userID from the case team
func (s *CaseService) RemoveTeamMember(ctx context.Context, actorID, id, userID uint) (*models.Case, error) {
	return s.changeTeam(ctx, actorID, id, func(st *repository.Store, c *models.Case) error {
		if err := st.Cases.RemoveTeamMember(ctx, c.ID, userID); err != nil {
			return err
		}
		kept := c.TeamMemberIDs[:0]
		for _, member := range c.TeamMemberIDs {
			if member != userID {
				kept = append(kept, member)
			}
		}
		c.TeamMemberIDs = kept
		return nil
	})
}

// changeTeam authorizes a team edit. Detectives may only edit the team of a
// case assigned to them.
func (s *CaseService) changeTeam(ctx context.Context, actorID, id uint, edit func(st *repository.Store, c *models.Case) error) (*models.Case, error) {
	p, err := s.env.Checker.RequirePermission(ctx, actorID, authz.PermCaseUpdate)
	if err != nil {
		return nil, s.env.fail(entityCase, err)
	}

	var c *models.Case
	err = s.env.inTx(ctx, func(st *repository.Store) error {
		var err error
		if c, err = st.Cases.GetForUpdate(ctx, id); err != nil {
			return err
		}
		if !p.IsAdmin() && !p.HasAnyRole(authz.CaseResolvers...) && !c.IsAssignedTo(actorID) {
			return apperr.Forbidden("Only the assigned detective or a supervisor can change the case team.")
		}
		return edit(st, c)
	})
	if err != nil {
		return nil, s.env.fail(entityCase, err)
	}
	return c, nil
}

// UpdateStatus solves, closes or archives a case
func (s *CaseService) UpdateStatus(ctx context.Context, actorID, id uint, to models.CaseStatus) (*models.Case, error) {
	if _, err := s.env.Checker.RequireAnyRole(ctx, actorID, authz.CaseResolvers...); err != nil {
		return nil, s.env.fail(entityCase, err)
	}

	var (
		c    *models.Case
		from models.CaseStatus
	)
	err := s.env.inTx(ctx, func(st *repository.Store) error {
		var err error
		if c, err = st.Cases.GetForUpdate(ctx, id); err != nil {
			return err
		}
		from = c.Status
		if err := workflow.ResolveCase(c, to, s.env.now()); err != nil {
			return err
		}
		return st.Cases.Update(ctx, c)
	})
	if err != nil {
		return nil, s.env.fail(entityCase, err)
	}

	s.env.transitioned(entityCase, c.ID, string(from), string(c.Status), actorID)
	return c, nil
}

// List returns the cases visible to the actor
func (s *CaseService) List(ctx context.Context, actorID uint) ([]models.Case, error) {
	p, err := s.env.actor(ctx, actorID)
	if err != nil {
		return nil, err
	}

	filter, visible := caseVisibility(p)
	if !visible {
		return []models.Case{}, nil
	}
	return s.env.store().Cases.List(ctx, filter)
}

// Get returns a case if the actor may see it
func (s *CaseService) Get(ctx context.Context, actorID, id uint) (*models.Case, error) {
	p, err := s.env.actor(ctx, actorID)
	if err != nil {
		return nil, err
	}

	st := s.env.store()
	c, err := st.Cases.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := checkCaseVisible(ctx, st, p, c); err != nil {
		return nil, err
	}
	return c, nil
}

// seesAllCases are the ranks with an unrestricted case view.
var seesAllCases = []authz.Role{authz.RoleOfficer, authz.RoleSergeant, authz.RoleCaptain, authz.RoleChief}

// caseVisibility translates the actor's roles into a case filter. The second
// result is false when the actor sees no cases at all.
func caseVisibility(p *authz.Principal) (repository.CaseFilter, bool) {
	switch {
	case p.IsAdmin():
		return repository.CaseFilter{}, true
	case p.HasRole(authz.RoleDetective):
		return repository.CaseFilter{
			InvolvingUserID: &p.UserID,
			Statuses:        []models.CaseStatus{models.CaseOpen, models.CaseUnderInvestigation},
		}, true
	case p.HasRole(authz.RoleCadet):
		return repository.CaseFilter{Statuses: []models.CaseStatus{models.CaseOpen}}, true
	case p.HasAnyRole(seesAllCases...):
		return repository.CaseFilter{}, true
	case p.HasRole(authz.RoleJudge):
		return repository.CaseFilter{WithTrial: true}, true
	}
	return repository.CaseFilter{}, false
}

// checkCaseVisible applies caseVisibility to a single loaded case.
func checkCaseVisible(ctx context.Context, st *repository.Store, p *authz.Principal, c *models.Case) error {
	filter, visible := caseVisibility(p)
	if visible {
		switch {
		case filter.InvolvingUserID != nil:
			visible = c.IsAssignedTo(p.UserID) || c.HasTeamMember(p.UserID) || slices.Contains(filter.Statuses, c.Status)
		case len(filter.Statuses) > 0:
			visible = slices.Contains(filter.Statuses, c.Status)
		case filter.WithTrial:
			_, err := st.Trials.GetByCase(ctx, c.ID)
			if err != nil && apperr.KindOf(err) != apperr.KindNotFound {
				return err
			}
			visible = err == nil
		}
	}
	if !visible {
		return apperr.Forbidden("You cannot view this case.")
	}
	return nil
}
