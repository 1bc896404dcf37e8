package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/studypulse/studypulse-backend/internal/domain/notification"
	"github.com/studypulse/studypulse-backend/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// NOTIFICATION REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// NotificationRepository implements notification.Repository for PostgreSQL.
type NotificationRepository struct {
	db Querier
}

// NewNotificationRepository creates a new NotificationRepository.
func NewNotificationRepository(conn *Connection) *NotificationRepository {
	return &NotificationRepository{db: conn}
}

const notificationColumns = `id, student_id, type, title, message, priority,
	status, payload, fail_reason, created_at, delivered_at`

// Create stores a new notification.
func (r *NotificationRepository) Create(ctx context.Context, n *notification.Notification) error {
	payload, err := json.Marshal(n.Payload)
	if err != nil {
		return fmt.Errorf("failed to marshal notification payload: %w", err)
	}

	query := `
		INSERT INTO notifications (
			id, student_id, type, title, message, priority,
			status, payload, fail_reason, created_at, delivered_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err = r.db.Exec(ctx, query,
		n.ID,
		n.StudentID,
		string(n.Type),
		n.Title,
		n.Message,
		int(n.Priority),
		string(n.Status),
		payload,
		nullableString(n.FailReason),
		n.CreatedAt,
		n.DeliveredAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}

	return nil
}

// Update stores a status change.
func (r *NotificationRepository) Update(ctx context.Context, n *notification.Notification) error {
	query := `
		UPDATE notifications SET
			status = $1,
			fail_reason = $2,
			delivered_at = $3
		WHERE id = $4
	`

	tag, err := r.db.Exec(ctx, query,
		string(n.Status),
		nullableString(n.FailReason),
		n.DeliveredAt,
		n.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update notification: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotificationNotFound
	}

	return nil
}

// GetByID returns a notification by ID.
func (r *NotificationRepository) GetByID(ctx context.Context, id string) (*notification.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE id = $1`
	return r.scanNotification(r.db.QueryRow(ctx, query, id))
}

// ListPending returns pending and queued notifications, oldest first.
func (r *NotificationRepository) ListPending(ctx context.Context, limit int) ([]*notification.Notification, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `SELECT ` + notificationColumns + `
		FROM notifications
		WHERE status IN ('pending', 'queued')
		ORDER BY created_at ASC
		LIMIT $1`

	return r.queryNotifications(ctx, query, limit)
}

// ListByStudent returns a student's notifications, newest first.
func (r *NotificationRepository) ListByStudent(ctx context.Context, studentID string, limit int) ([]*notification.Notification, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT ` + notificationColumns + `
		FROM notifications
		WHERE student_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	return r.queryNotifications(ctx, query, studentID, limit)
}

func (r *NotificationRepository) queryNotifications(ctx context.Context, query string, args ...interface{}) ([]*notification.Notification, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query notifications: %w", err)
	}
	defer rows.Close()

	var notifications []*notification.Notification
	for rows.Next() {
		n, err := r.scanNotification(rows)
		if err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}

	return notifications, rows.Err()
}

func (r *NotificationRepository) scanNotification(row rowScanner) (*notification.Notification, error) {
	var (
		n          notification.Notification
		nType      string
		priority   int
		status     string
		payload    []byte
		failReason *string
	)

	err := row.Scan(
		&n.ID,
		&n.StudentID,
		&nType,
		&n.Title,
		&n.Message,
		&priority,
		&status,
		&payload,
		&failReason,
		&n.CreatedAt,
		&n.DeliveredAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrNotificationNotFound
		}
		return nil, fmt.Errorf("failed to scan notification: %w", err)
	}

	if err := json.Unmarshal(payload, &n.Payload); err != nil {
		return nil, fmt.Errorf("failed to unmarshal notification payload: %w", err)
	}

	n.Type = notification.NotificationType(nType)
	n.Priority = notification.Priority(priority)
	n.Status = notification.Status(status)
	if failReason != nil {
		n.FailReason = *failReason
	}
	return &n, nil
}

// nullableString maps "" to NULL.
func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
