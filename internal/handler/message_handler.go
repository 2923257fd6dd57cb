package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/siliya-electrical-api/internal/models"
	"github.com/noah-isme/siliya-electrical-api/pkg/response"
)

type messageService interface {
	Send(ctx context.Context, req models.SendMessageRequest, actor *models.JWTClaims) (*models.Message, error)
	Reply(ctx context.Context, userID string, req models.SendMessageRequest, actor *models.JWTClaims) (*models.Message, error)
	History(ctx context.Context, userID string, actor *models.JWTClaims) ([]models.Message, error)
	MarkRead(ctx context.Context, userID string, actor *models.JWTClaims) (int64, error)
	Conversations(ctx context.Context, actor *models.JWTClaims) ([]models.Conversation, error)
}

// MessageHandler exposes customer conversations.
type MessageHandler struct {
	service messageService
}

// NewMessageHandler constructs the handler.
func NewMessageHandler(svc messageService) *MessageHandler {
	return &MessageHandler{service: svc}
}

// Send godoc
// @Summary Send a message to the shop
// @Tags Messages
// @Accept json
// @Produce json
// @Param payload body models.SendMessageRequest true "Message"
// @Success 201 {object} response.Envelope
// @Router /messages [post]
func (h *MessageHandler) Send(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	var req models.SendMessageRequest
	if !bindJSON(c, &req, "invalid message payload") {
		return
	}
	msg, err := h.service.Send(c.Request.Context(), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, msg)
}

// Mine godoc
// @Summary The caller's conversation
// @Tags Messages
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /messages/mine [get]
func (h *MessageHandler) Mine(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	h.history(c, claims.UserID, claims)
}

// MarkMineRead godoc
// @Summary Mark shop replies as read
// @Tags Messages
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /messages/mine/read [patch]
func (h *MessageHandler) MarkMineRead(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	h.markRead(c, claims.UserID, claims)
}

// Conversations godoc
// @Summary Admin inbox
// @Tags Messages
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /messages/conversations [get]
func (h *MessageHandler) Conversations(c *gin.Context) {
	conversations, err := h.service.Conversations(c.Request.Context(), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, conversations, nil)
}

// History godoc
// @Summary A user's conversation
// @Tags Messages
// @Produce json
// @Param userId path string true "User ID"
// @Success 200 {object} response.Envelope
// @Router /messages/users/{userId} [get]
func (h *MessageHandler) History(c *gin.Context) {
	h.history(c, c.Param("userId"), claimsFromContext(c))
}

// Reply godoc
// @Summary Reply into a user's conversation
// @Tags Messages
// @Accept json
// @Produce json
// @Param userId path string true "User ID"
// @Param payload body models.SendMessageRequest true "Message"
// @Success 201 {object} response.Envelope
// @Router /messages/users/{userId} [post]
func (h *MessageHandler) Reply(c *gin.Context) {
	var req models.SendMessageRequest
	if !bindJSON(c, &req, "invalid message payload") {
		return
	}
	msg, err := h.service.Reply(c.Request.Context(), c.Param("userId"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, msg)
}

// MarkRead godoc
// @Summary Mark a user's messages as read
// @Tags Messages
// @Produce json
// @Param userId path string true "User ID"
// @Success 200 {object} response.Envelope
// @Router /messages/users/{userId}/read [patch]
func (h *MessageHandler) MarkRead(c *gin.Context) {
	h.markRead(c, c.Param("userId"), claimsFromContext(c))
}

func (h *MessageHandler) history(c *gin.Context, userID string, actor *models.JWTClaims) {
	messages, err := h.service.History(c.Request.Context(), userID, actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, messages, nil)
}

func (h *MessageHandler) markRead(c *gin.Context, userID string, actor *models.JWTClaims) {
	n, err := h.service.MarkRead(c.Request.Context(), userID, actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"updated": n}, nil)
}
