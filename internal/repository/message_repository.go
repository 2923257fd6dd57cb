package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/siliya-electrical-api/internal/models"
)

// MessageRepository persists customer conversations.
type MessageRepository struct {
	db *sqlx.DB
}

// NewMessageRepository constructs the repository.
func NewMessageRepository(db *sqlx.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// Create inserts a message.
func (r *MessageRepository) Create(ctx context.Context, msg *models.Message) error {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO messages (id, user_id, sender, content, read, created_at) VALUES (:id, :user_id, :sender, :content, :read, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, msg); err != nil {
		return fmt.Errorf("create message: %w", err)
	}
	return nil
}

// ListByUser returns a conversation oldest first.
func (r *MessageRepository) ListByUser(ctx context.Context, userID string) ([]models.Message, error) {
	const query = `SELECT id, user_id, sender, content, read, created_at FROM messages WHERE user_id = $1 ORDER BY created_at ASC`
	messages := make([]models.Message, 0)
	if err := r.db.SelectContext(ctx, &messages, query, userID); err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return messages, nil
}

// MarkRead flags as read every message in userID's conversation written by sender.
func (r *MessageRepository) MarkRead(ctx context.Context, userID string, sender models.MessageSender) (int64, error) {
	const query = `UPDATE messages SET read = TRUE WHERE user_id = $1 AND sender = $2 AND read = FALSE`
	res, err := r.db.ExecContext(ctx, query, userID, sender)
	if err != nil {
		return 0, fmt.Errorf("mark messages read: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("mark messages read: rows affected: %w", err)
	}
	return n, nil
}

// ListConversations groups messages per user with the last message and the
// number of user messages the shop has not read yet, most recent thread first.
func (r *MessageRepository) ListConversations(ctx context.Context) ([]models.Conversation, error) {
	const query = `
SELECT m.user_id,
       COALESCE(u.name, '') AS user_name,
       COALESCE(u.email, '') AS user_email,
       last.content AS last_message,
       last.created_at AS last_message_at,
       COUNT(*) FILTER (WHERE m.sender = 'user' AND m.read = FALSE) AS unread_count
FROM messages m
LEFT JOIN users u ON u.id = m.user_id
JOIN LATERAL (
    SELECT content, created_at FROM messages l WHERE l.user_id = m.user_id ORDER BY l.created_at DESC LIMIT 1
) last ON TRUE
GROUP BY m.user_id, u.name, u.email, last.content, last.created_at
ORDER BY last.created_at DESC`
	conversations := make([]models.Conversation, 0)
	if err := r.db.SelectContext(ctx, &conversations, query); err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	return conversations, nil
}
