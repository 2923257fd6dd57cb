package models

import "time"

// MessageSender identifies who wrote a message in a conversation.
type MessageSender string

const (
	SenderUser  MessageSender = "user"
	SenderAdmin MessageSender = "admin"
)

// Message belongs to the conversation of UserID with the shop.
type Message struct {
	ID        string        `db:"id" json:"id"`
	UserID    string        `db:"user_id" json:"user_id"`
	Sender    MessageSender `db:"sender" json:"sender"`
	Content   string        `db:"content" json:"content"`
	Read      bool          `db:"read" json:"read"`
	CreatedAt time.Time     `db:"created_at" json:"created_at"`
}

// Conversation summarises one user's thread for the admin inbox.
type Conversation struct {
	UserID        string    `db:"user_id" json:"user_id"`
	UserName      string    `db:"user_name" json:"user_name"`
	UserEmail     string    `db:"user_email" json:"user_email"`
	LastMessage   string    `db:"last_message" json:"last_message"`
	LastMessageAt time.Time `db:"last_message_at" json:"last_message_at"`
	UnreadCount   int       `db:"unread_count" json:"unread_count"`
}

// SendMessageRequest posts a message.
type SendMessageRequest struct {
	Content string `json:"content" validate:"required,max=2000"`
}
