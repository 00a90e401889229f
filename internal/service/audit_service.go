package service

import (
	"context"
	"log/slog"

	"precinct/internal/authz"
	"precinct/internal/models"
	"precinct/internal/repository"
)

// AuditService handles audit logging
type AuditService struct {
	env       Env
	auditRepo *repository.AuditRepository
}

// NewAuditService creates a new audit service
func NewAuditService(env Env) *AuditService {
	return &AuditService{
		env:       env,
		auditRepo: repository.NewAuditRepository(env.DB),
	}
}

// Log creates an audit log entry, ignoring errors
// This is the recommended way to log audit events as it won't fail the main operation
func (s *AuditService) Log(ctx context.Context, entry *models.AuditLog) {
	if err := s.auditRepo.Create(ctx, entry); err != nil {
		slog.Warn("Failed to write audit log", "action", entry.Action, "error", err)
	}
}

// List returns audit entries, newest first, optionally for one user only
func (s *AuditService) List(ctx context.Context, actorID uint, userID *uint, limit, offset int) ([]models.AuditLog, error) {
	if _, err := s.env.Checker.RequirePermission(ctx, actorID, authz.PermManageUsers); err != nil {
		return nil, err
	}
	return s.auditRepo.GetAll(ctx, userID, limit, offset)
}
