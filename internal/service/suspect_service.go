package service

import (
	"context"

	"precinct/internal/apperr"
	"precinct/internal/authz"
	"precinct/internal/models"
	"precinct/internal/repository"
	"precinct/internal/workflow"
)

const (
	entitySuspect     = "suspect"
	entitySuspectLink = "suspect_link"
)

// SuspectService runs the guilt assessment chain on suspect-case links,
// tracks pursuit and computes the wanted ranking
type SuspectService struct {
	env Env
}

// NewSuspectService creates a new suspect service
func NewSuspectService(env Env) *SuspectService {
	return &SuspectService{env: env}
}

// DetectiveAssessment records the assigned detective's guilt score
func (s *SuspectService) DetectiveAssessment(ctx context.Context, actorID, caseID, suspectID uint, score int) (*models.SuspectCaseLink, error) {
	return s.assess(ctx, actorID, caseID, suspectID, "detective_scored", nil,
		func(c *models.Case, l *models.SuspectCaseLink) error {
			if !c.IsAssignedTo(actorID) {
				return apperr.Forbidden("Only the detective assigned to this case can score its suspects.")
			}
			return workflow.DetectiveAssessment(l, actorID, score, s.env.now())
		})
}

// SergeantAssessment records the sergeant's guilt score
func (s *SuspectService) SergeantAssessment(ctx context.Context, actorID, caseID, suspectID uint, score int) (*models.SuspectCaseLink, error) {
	return s.assess(ctx, actorID, caseID, suspectID, "sergeant_scored", []authz.Role{authz.RoleSergeant},
		func(_ *models.Case, l *models.SuspectCaseLink) error {
			return workflow.SergeantAssessment(l, actorID, score, s.env.now())
		})
}

// CaptainOpinion records the captain's opinion once both scores exist
func (s *SuspectService) CaptainOpinion(ctx context.Context, actorID, caseID, suspectID uint, opinion string) (*models.SuspectCaseLink, error) {
	return s.assess(ctx, actorID, caseID, suspectID, "captain_opinion", []authz.Role{authz.RoleCaptain},
		func(_ *models.Case, l *models.SuspectCaseLink) error {
			return workflow.CaptainOpinion(l, actorID, opinion, s.env.now())
		})
}

// ChiefApproval records the chief's decision on a suspect of a top-tier case
func (s *SuspectService) ChiefApproval(ctx context.Context, actorID, caseID, suspectID uint, approved bool) (*models.SuspectCaseLink, error) {
	stage := "chief_rejected"
	if approved {
		stage = "chief_approved"
	}
	return s.assess(ctx, actorID, caseID, suspectID, stage, []authz.Role{authz.RoleChief},
		func(c *models.Case, l *models.SuspectCaseLink) error {
			return workflow.ChiefApproval(l, c.Severity, actorID, approved, s.env.now())
		})
}

// assess loads and locks the link of suspectID on caseID, applies one stage
// of the assessment chain and persists it. roles gates the stage; a nil
// slice leaves authorization to apply.
func (s *SuspectService) assess(ctx context.Context, actorID, caseID, suspectID uint, stage string, roles []authz.Role,
	apply func(c *models.Case, l *models.SuspectCaseLink) error) (*models.SuspectCaseLink, error) {
	if _, err := s.env.Checker.RequireAnyRole(ctx, actorID, roles...); err != nil {
		return nil, s.env.fail(entitySuspectLink, err)
	}

	var l *models.SuspectCaseLink
	err := s.env.inTx(ctx, func(st *repository.Store) error {
		c, err := st.Cases.GetByID(ctx, caseID)
		if err != nil {
			return err
		}
		if l, err = st.Suspects.GetLinkForUpdate(ctx, caseID, suspectID); err != nil {
			return err
		}
		if err := apply(c, l); err != nil {
			return err
		}
		return st.Suspects.UpdateLink(ctx, l)
	})
	if err != nil {
		return nil, s.env.fail(entitySuspectLink, err)
	}

	s.env.transitioned(entitySuspectLink, l.ID, "", stage, actorID)
	return l, nil
}

// ListCaseSuspects returns the suspects linked to a case with their
// assessments
func (s *SuspectService) ListCaseSuspects(ctx context.Context, actorID, caseID uint) ([]models.SuspectCaseLink, error) {
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
	return st.Suspects.ListLinksByCase(ctx, caseID)
}

// MarkWanted puts a suspect under pursuit. The pursuit start is kept when
// the suspect was already wanted.
func (s *SuspectService) MarkWanted(ctx context.Context, actorID, suspectID uint) (*models.Suspect, error) {
	return s.updateSuspect(ctx, actorID, suspectID, func(sp *models.Suspect) error {
		workflow.MarkWanted(sp, s.env.now())
		return nil
	})
}

// MarkCaptured records the arrest of a suspect
func (s *SuspectService) MarkCaptured(ctx context.Context, actorID, suspectID uint) (*models.Suspect, error) {
	return s.updateSuspect(ctx, actorID, suspectID, func(sp *models.Suspect) error {
		if sp.Status == models.SuspectDetained {
			return apperr.Precondition("Suspect is already detained.")
		}
		workflow.MarkCaptured(sp, s.env.now())
		return nil
	})
}

func (s *SuspectService) updateSuspect(ctx context.Context, actorID, suspectID uint, change func(sp *models.Suspect) error) (*models.Suspect, error) {
	if _, err := s.env.Checker.RequireAnyRole(ctx, actorID, authz.PoliceRanks...); err != nil {
		return nil, s.env.fail(entitySuspect, err)
	}

	var (
		sp   *models.Suspect
		from models.SuspectStatus
	)
	err := s.env.inTx(ctx, func(st *repository.Store) error {
		var err error
		if sp, err = st.Suspects.GetForUpdate(ctx, suspectID); err != nil {
			return err
		}
		from = sp.Status
		if err := change(sp); err != nil {
			return err
		}
		return st.Suspects.Update(ctx, sp)
	})
	if err != nil {
		return nil, s.env.fail(entitySuspect, err)
	}

	s.env.transitioned(entitySuspect, sp.ID, string(from), string(sp.Status), actorID)
	return sp, nil
}

// IntensivePursuit returns the suspects wanted for at least the intensive
// pursuit threshold, highest ranking first
func (s *SuspectService) IntensivePursuit(ctx context.Context) ([]models.PursuitRanking, error) {
	st := s.env.store()
	wanted, err := st.Suspects.ListWanted(ctx)
	if err != nil {
		return nil, err
	}
	ranked, err := s.rank(ctx, st, wanted)
	if err != nil {
		return nil, err
	}
	return workflow.IntensivePursuit(ranked), nil
}

// Ranking computes the pursuit ranking and reward of one suspect
func (s *SuspectService) Ranking(ctx context.Context, suspectID uint) (*models.PursuitRanking, error) {
	st := s.env.store()
	sp, err := st.Suspects.GetByID(ctx, suspectID)
	if err != nil {
		return nil, err
	}
	ranked, err := s.rank(ctx, st, []models.Suspect{*sp})
	if err != nil {
		return nil, err
	}
	return &ranked[0], nil
}

func (s *SuspectService) rank(ctx context.Context, st *repository.Store, suspects []models.Suspect) ([]models.PursuitRanking, error) {
	ids := make([]uint, len(suspects))
	for i, sp := range suspects {
		ids[i] = sp.ID
	}
	linked, err := st.Suspects.LinkedCases(ctx, ids)
	if err != nil {
		return nil, err
	}

	now := s.env.now()
	ranked := make([]models.PursuitRanking, len(suspects))
	for i, sp := range suspects {
		ranked[i] = workflow.Rank(sp, linkedCases(linked[sp.ID]), s.env.Rules, now)
	}
	return ranked, nil
}

func linkedCases(cases []models.Case) []workflow.LinkedCase {
	out := make([]workflow.LinkedCase, len(cases))
	for i, c := range cases {
		out[i] = workflow.LinkedCase{Status: c.Status, Severity: c.Severity}
	}
	return out
}

// severityTier returns the highest severity among the cases a suspect is
// linked to. A suspect without cases falls into the lowest tier.
func severityTier(ctx context.Context, st *repository.Store, suspectID uint) (models.Severity, error) {
	linked, err := st.Suspects.LinkedCases(ctx, []uint{suspectID})
	if err != nil {
		return "", err
	}
	tier := models.SeverityLevel3
	for _, c := range linked[suspectID] {
		if c.Severity.Degree() > tier.Degree() {
			tier = c.Severity
		}
	}
	return tier, nil
}
