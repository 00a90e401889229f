package service

import (
	"context"
	"fmt"

	"precinct/internal/models"
	"precinct/internal/repository"
)

// NotificationService lets actors read the messages addressed to them
type NotificationService struct {
	env Env
}

// NewNotificationService creates a new notification service
func NewNotificationService(env Env) *NotificationService {
	return &NotificationService{env: env}
}

// Notify records a notification inside the caller's transaction, so it is
// rolled back together with the transition that caused it.
func Notify(ctx context.Context, st *repository.Store, caseID *uint, recipientID uint, ref models.Ref, message string) error {
	n := &models.Notification{
		CaseID:      caseID,
		RecipientID: recipientID,
		Ref:         ref,
		Message:     message,
	}
	if err := st.Notifications.Create(ctx, n); err != nil {
		return fmt.Errorf("failed to notify user %d: %w", recipientID, err)
	}
	return nil
}

// ListForRecipient returns the actor's notifications, newest first
func (s *NotificationService) ListForRecipient(ctx context.Context, actorID uint, unreadOnly bool) ([]models.Notification, error) {
	if _, err := s.env.actor(ctx, actorID); err != nil {
		return nil, err
	}
	return s.env.store().Notifications.ListForRecipient(ctx, actorID, unreadOnly)
}

// MarkRead marks one of the actor's notifications as read
func (s *NotificationService) MarkRead(ctx context.Context, actorID, id uint) error {
	if _, err := s.env.actor(ctx, actorID); err != nil {
		return err
	}
	return s.env.store().Notifications.MarkRead(ctx, actorID, id)
}

// MarkAllRead marks all of the actor's notifications as read
func (s *NotificationService) MarkAllRead(ctx context.Context, actorID uint) (int64, error) {
	if _, err := s.env.actor(ctx, actorID); err != nil {
		return 0, err
	}
	return s.env.store().Notifications.MarkAllRead(ctx, actorID)
}
