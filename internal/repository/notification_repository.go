package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/siliya-electrical-api/internal/models"
)

const notificationColumns = `id, kind, recipient, subject, payload, status, attempts, last_error, created_at, sent_at`

// NotificationRepository is the email outbox.
type NotificationRepository struct {
	db *sqlx.DB
}

// NewNotificationRepository constructs the repository.
func NewNotificationRepository(db *sqlx.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Create inserts a pending outbox row.
func (r *NotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.Status == "" {
		n.Status = models.NotificationStatusPending
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO notifications (` + notificationColumns + `) VALUES (:id, :kind, :recipient, :subject, :payload, :status, :attempts, :last_error, :created_at, :sent_at)`
	if _, err := r.db.NamedExecContext(ctx, query, n); err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}

// FindByID returns an outbox row.
func (r *NotificationRepository) FindByID(ctx context.Context, id string) (*models.Notification, error) {
	const query = `SELECT ` + notificationColumns + ` FROM notifications WHERE id = $1`
	var n models.Notification
	if err := r.db.GetContext(ctx, &n, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find notification: %w", err)
	}
	return &n, nil
}

// ListPending returns up to limit pending rows, oldest first.
func (r *NotificationRepository) ListPending(ctx context.Context, limit int) ([]models.Notification, error) {
	if limit <= 0 {
		limit = 100
	}
	const query = `SELECT ` + notificationColumns + ` FROM notifications WHERE status = $1 ORDER BY created_at ASC LIMIT $2`
	rows := make([]models.Notification, 0)
	if err := r.db.SelectContext(ctx, &rows, query, models.NotificationStatusPending, limit); err != nil {
		return nil, fmt.Errorf("list pending notifications: %w", err)
	}
	return rows, nil
}

// MarkSent records a successful delivery.
func (r *NotificationRepository) MarkSent(ctx context.Context, id string, at time.Time) error {
	const query = `UPDATE notifications SET status = $2, attempts = attempts + 1, last_error = '', sent_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, models.NotificationStatusSent, at); err != nil {
		return fmt.Errorf("mark notification sent: %w", err)
	}
	return nil
}

// MarkAttempt records a failed delivery that may still be retried.
func (r *NotificationRepository) MarkAttempt(ctx context.Context, id, lastError string) error {
	const query = `UPDATE notifications SET attempts = attempts + 1, last_error = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, lastError); err != nil {
		return fmt.Errorf("mark notification attempt: %w", err)
	}
	return nil
}

// MarkFailed gives up on a row.
func (r *NotificationRepository) MarkFailed(ctx context.Context, id, lastError string) error {
	const query = `UPDATE notifications SET status = $2, last_error = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, models.NotificationStatusFailed, lastError); err != nil {
		return fmt.Errorf("mark notification failed: %w", err)
	}
	return nil
}
