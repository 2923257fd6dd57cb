package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/siliya-electrical-api/internal/models"
	appErrors "github.com/noah-isme/siliya-electrical-api/pkg/errors"
)

type memoryMessageStore struct {
	messages []*models.Message
}

func (m *memoryMessageStore) Create(ctx context.Context, msg *models.Message) error {
	clone := *msg
	m.messages = append(m.messages, &clone)
	return nil
}

func (m *memoryMessageStore) ListByUser(ctx context.Context, userID string) ([]models.Message, error) {
	out := []models.Message{}
	for _, msg := range m.messages {
		if msg.UserID == userID {
			out = append(out, *msg)
		}
	}
	return out, nil
}

func (m *memoryMessageStore) MarkRead(ctx context.Context, userID string, sender models.MessageSender) (int64, error) {
	var n int64
	for _, msg := range m.messages {
		if msg.UserID == userID && msg.Sender == sender && !msg.Read {
			msg.Read = true
			n++
		}
	}
	return n, nil
}

func (m *memoryMessageStore) ListConversations(ctx context.Context) ([]models.Conversation, error) {
	byUser := map[string]*models.Conversation{}
	order := []string{}
	for _, msg := range m.messages {
		conv, ok := byUser[msg.UserID]
		if !ok {
			conv = &models.Conversation{UserID: msg.UserID}
			byUser[msg.UserID] = conv
			order = append(order, msg.UserID)
		}
		conv.LastMessage = msg.Content
		conv.LastMessageAt = msg.CreatedAt
		if msg.Sender == models.SenderUser && !msg.Read {
			conv.UnreadCount++
		}
	}
	out := make([]models.Conversation, 0, len(order))
	for _, id := range order {
		out = append(out, *byUser[id])
	}
	return out, nil
}

func TestMessageServiceConversation(t *testing.T) {
	store := &memoryMessageStore{}
	svc := NewMessageService(store, seededUserRepo(), nil, nil)
	ctx := context.Background()

	_, err := svc.Send(ctx, models.SendMessageRequest{Content: "  My fridge is humming  "}, userClaims("user-1"))
	require.NoError(t, err)
	_, err = svc.Send(ctx, models.SendMessageRequest{Content: "Any update?"}, userClaims("user-1"))
	require.NoError(t, err)
	reply, err := svc.Reply(ctx, "user-1", models.SendMessageRequest{Content: "Bring it in tomorrow"}, adminClaims("admin-1"))
	require.NoError(t, err)
	assert.Equal(t, models.SenderAdmin, reply.Sender)

	history, err := svc.History(ctx, "user-1", userClaims("user-1"))
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, "My fridge is humming", history[0].Content)

	conversations, err := svc.Conversations(ctx, adminClaims("admin-1"))
	require.NoError(t, err)
	require.Len(t, conversations, 1)
	assert.Equal(t, 2, conversations[0].UnreadCount)
	assert.Equal(t, "Bring it in tomorrow", conversations[0].LastMessage)

	n, err := svc.MarkRead(ctx, "user-1", adminClaims("admin-1"))
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = svc.MarkRead(ctx, "user-1", userClaims("user-1"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestMessageServiceAccessRules(t *testing.T) {
	svc := NewMessageService(&memoryMessageStore{}, seededUserRepo(), nil, nil)
	ctx := context.Background()

	_, err := svc.History(ctx, "user-1", userClaims("user-2"))
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	_, err = svc.Reply(ctx, "user-1", models.SendMessageRequest{Content: "hi"}, userClaims("user-2"))
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	_, err = svc.Reply(ctx, "ghost", models.SendMessageRequest{Content: "hi"}, adminClaims("admin-1"))
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	_, err = svc.Send(ctx, models.SendMessageRequest{Content: "   "}, userClaims("user-1"))
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.Conversations(ctx, userClaims("user-1"))
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	_, err = svc.Send(ctx, models.SendMessageRequest{Content: "hi"}, nil)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}
