package repository

import (
	"context"
	"fmt"
	"time"

	"precinct/internal/database"
	"precinct/internal/models"
)

// NotificationRepository handles notification database operations
type NotificationRepository struct {
	db database.DBTX
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db database.DBTX) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Create records a notification
func (r *NotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	query := `
		INSERT INTO notifications (case_id, recipient_id, ref_type, ref_id, message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	now := time.Now()
	err := r.db.QueryRowContext(ctx, query,
		n.CaseID, n.RecipientID, n.Ref.Type, n.Ref.ID, n.Message, now,
	).Scan(&n.ID)
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	n.CreatedAt = now
	return nil
}

// ListForRecipient retrieves the notifications of a user, newest first
func (r *NotificationRepository) ListForRecipient(ctx context.Context, recipientID uint, unreadOnly bool) ([]models.Notification, error) {
	query := `
		SELECT id, case_id, recipient_id, ref_type, ref_id, message, read_at, created_at
		FROM notifications
		WHERE recipient_id = $1
	`
	if unreadOnly {
		query += ` AND read_at IS NULL`
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query, recipientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer closeRows(rows)

	notifications := []models.Notification{}
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(&n.ID, &n.CaseID, &n.RecipientID, &n.Ref.Type, &n.Ref.ID, &n.Message, &n.ReadAt, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

// MarkRead marks one notification of recipientID as read. Marking a read
// notification again keeps the first read time.
func (r *NotificationRepository) MarkRead(ctx context.Context, recipientID, id uint) error {
	query := `
		UPDATE notifications
		SET read_at = COALESCE(read_at, $1)
		WHERE id = $2 AND recipient_id = $3
	`

	res, err := r.db.ExecContext(ctx, query, time.Now(), id, recipientID)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	return expectOneRow(res, "Notification")
}

// MarkAllRead marks every unread notification of recipientID as read and
// returns how many changed
func (r *NotificationRepository) MarkAllRead(ctx context.Context, recipientID uint) (int64, error) {
	query := `UPDATE notifications SET read_at = $1 WHERE recipient_id = $2 AND read_at IS NULL`

	res, err := r.db.ExecContext(ctx, query, time.Now(), recipientID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n, nil
}
