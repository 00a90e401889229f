package service

import (
	"context"

	"precinct/internal/authz"
	"precinct/internal/models"
	"precinct/internal/repository"
	"precinct/internal/workflow"
)

const entityLink = "evidence_link"

// BoardService edits the detective board, the graph of links between the
// evidence items of a case
type BoardService struct {
	env Env
}

// NewBoardService creates a new detective board service
func NewBoardService(env Env) *BoardService {
	return &BoardService{env: env}
}

// CreateLink connects two evidence items of the same case
func (s *BoardService) CreateLink(ctx context.Context, actorID, caseID uint, from, to models.Ref, description string) (*models.EvidenceLink, error) {
	if _, err := s.env.Checker.RequirePermission(ctx, actorID, authz.PermDetectiveBoard); err != nil {
		return nil, s.env.fail(entityLink, err)
	}

	link := &models.EvidenceLink{
		CaseID:      caseID,
		From:        from,
		To:          to,
		Description: description,
		CreatedBy:   actorID,
	}
	err := s.env.inTx(ctx, func(st *repository.Store) error {
		if _, err := st.Cases.GetByID(ctx, caseID); err != nil {
			return err
		}
		fromItem, err := st.Evidence.Find(ctx, from)
		if err != nil {
			return err
		}
		toItem, err := st.Evidence.Find(ctx, to)
		if err != nil {
			return err
		}
		if err := workflow.ValidateLink(caseID, fromItem, toItem); err != nil {
			return err
		}
		return st.Links.Create(ctx, link)
	})
	if err != nil {
		return nil, s.env.fail(entityLink, err)
	}
	return link, nil
}

// ListLinks returns the links drawn on a case's board
func (s *BoardService) ListLinks(ctx context.Context, actorID, caseID uint) ([]models.EvidenceLink, error) {
	p, err := s.env.Checker.RequirePermission(ctx, actorID, authz.PermDetectiveBoard)
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
	return st.Links.ListByCase(ctx, caseID)
}

// DeleteLink removes a link from a case's board
func (s *BoardService) DeleteLink(ctx context.Context, actorID, caseID, linkID uint) error {
	if _, err := s.env.Checker.RequirePermission(ctx, actorID, authz.PermDetectiveBoard); err != nil {
		return s.env.fail(entityLink, err)
	}
	err := s.env.inTx(ctx, func(st *repository.Store) error {
		return st.Links.Delete(ctx, caseID, linkID)
	})
	if err != nil {
		return s.env.fail(entityLink, err)
	}
	return nil
}
