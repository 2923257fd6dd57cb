package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/siliya-electrical-api/internal/models"
)

func TestMessageMarkRead(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewMessageRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE messages SET read = TRUE WHERE user_id = $1 AND sender = $2 AND read = FALSE")).
		WithArgs("u1", models.SenderUser).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := repo.MarkRead(context.Background(), "u1", models.SenderUser)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMessageListConversations(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewMessageRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"user_id", "user_name", "user_email", "last_message", "last_message_at", "unread_count"}).
		AddRow("u1", "Jane", "j@x.com", "Is my fridge ready?", now, 2)
	mock.ExpectQuery("FROM messages m").WillReturnRows(rows)

	conversations, err := repo.ListConversations(context.Background())
	require.NoError(t, err)
	require.Len(t, conversations, 1)
	assert.Equal(t, 2, conversations[0].UnreadCount)
	assert.Equal(t, "Is my fridge ready?", conversations[0].LastMessage)
	assert.NoError(t, mock.ExpectationsWereMet())
}
