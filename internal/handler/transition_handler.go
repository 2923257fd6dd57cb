package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/siliya-electrical-api/internal/dto"
	"github.com/noah-isme/siliya-electrical-api/internal/models"
	"github.com/noah-isme/siliya-electrical-api/pkg/response"
)

type transitionService interface {
	Transition(ctx context.Context, req dto.StatusTransitionRequest, actor *models.JWTClaims) (interface{}, error)
}

// TransitionHandler exposes the generic status transition endpoint.
type TransitionHandler struct {
	service transitionService
}

// NewTransitionHandler constructs the handler.
func NewTransitionHandler(svc transitionService) *TransitionHandler {
	return &TransitionHandler{service: svc}
}

// Transition godoc
// @Summary Change the status of a repair, enrollment or payment
// @Description An invalid status leaves the record untouched. Each successful change emails the owner once.
// @Tags Admin
// @Accept json
// @Produce json
// @Param payload body dto.StatusTransitionRequest true "Transition"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/transitions [post]
func (h *TransitionHandler) Transition(c *gin.Context) {
	var req dto.StatusTransitionRequest
	if !bindJSON(c, &req, "invalid transition payload") {
		return
	}
	record, err := h.service.Transition(c.Request.Context(), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}
