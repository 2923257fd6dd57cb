package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/siliya-electrical-api/internal/models"
	appErrors "github.com/noah-isme/siliya-electrical-api/pkg/errors"
)

type messageRepository interface {
	Create(ctx context.Context, msg *models.Message) error
	ListByUser(ctx context.Context, userID string) ([]models.Message, error)
	MarkRead(ctx context.Context, userID string, sender models.MessageSender) (int64, error)
	ListConversations(ctx context.Context) ([]models.Conversation, error)
}

// MessageService runs the customer/shop conversations. Each user has exactly one thread.
type MessageService struct {
	repo      messageRepository
	users     accountLookup
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewMessageService constructs MessageService.
func NewMessageService(repo messageRepository, users accountLookup, validate *validator.Validate, logger *zap.Logger) *MessageService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &MessageService{repo: repo, users: users, validator: validate, logger: logger, now: time.Now}
}

// Send posts a message from the caller to the shop.
func (s *MessageService) Send(ctx context.Context, req models.SendMessageRequest, actor *models.JWTClaims) (*models.Message, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	return s.post(ctx, actor.UserID, models.SenderUser, req)
}

// Reply posts an admin message into userID's conversation.
func (s *MessageService) Reply(ctx context.Context, userID string, req models.SendMessageRequest, actor *models.JWTClaims) (*models.Message, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		return nil, lookupError(err, "user")
	}
	return s.post(ctx, userID, models.SenderAdmin, req)
}

// History returns userID's conversation oldest first. Owner or admin.
func (s *MessageService) History(ctx context.Context, userID string, actor *models.JWTClaims) ([]models.Message, error) {
	if err := requireOwnerOrAdmin(actor, userID); err != nil {
		return nil, err
	}
	messages, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load messages")
	}
	return messages, nil
}

// MarkRead flags the other side's messages in userID's conversation as read.
// A user reading marks admin replies; an admin reading marks the user's messages.
func (s *MessageService) MarkRead(ctx context.Context, userID string, actor *models.JWTClaims) (int64, error) {
	if err := requireOwnerOrAdmin(actor, userID); err != nil {
		return 0, err
	}
	sender := models.SenderAdmin
	if actor.IsAdmin() && actor.UserID != userID {
		sender = models.SenderUser
	}
	n, err := s.repo.MarkRead(ctx, userID, sender)
	if err != nil {
		return 0, appErrors.Persistence(err, "failed to mark messages read")
	}
	return n, nil
}

// Conversations lists every thread for the admin inbox.
func (s *MessageService) Conversations(ctx context.Context, actor *models.JWTClaims) ([]models.Conversation, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	conversations, err := s.repo.ListConversations(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list conversations")
	}
	return conversations, nil
}

func (s *MessageService) post(ctx context.Context, userID string, sender models.MessageSender, req models.SendMessageRequest) (*models.Message, error) {
	req.Content = strings.TrimSpace(req.Content)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "message content is required")
	}
	msg := &models.Message{
		ID:        uuid.NewString(),
		UserID:    userID,
		Sender:    sender,
		Content:   req.Content,
		CreatedAt: s.now().UTC(),
	}
	if err := s.repo.Create(ctx, msg); err != nil {
		return nil, appErrors.Persistence(err, "failed to send message")
	}
	s.logger.Debug("message posted", zap.String("user_id", userID), zap.String("sender", string(sender)))
	return msg, nil
}
