package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/siliya-electrical-api/internal/models"
	"github.com/noah-isme/siliya-electrical-api/pkg/response"
)

type paymentService interface {
	Create(ctx context.Context, req models.CreatePaymentRequest, actor *models.JWTClaims) (*models.Payment, error)
	ListMine(ctx context.Context, actor *models.JWTClaims) ([]models.Payment, error)
	ListAll(ctx context.Context, status string, actor *models.JWTClaims) ([]models.Payment, error)
	Get(ctx context.Context, id string, actor *models.JWTClaims) (*models.Payment, error)
	Delete(ctx context.Context, id string, actor *models.JWTClaims) error
}

type paymentTransitioner interface {
	TransitionPayment(ctx context.Context, id, status string, actor *models.JWTClaims) (*models.Payment, error)
}

// PaymentHandler exposes manual payment endpoints.
type PaymentHandler struct {
	service     paymentService
	transitions paymentTransitioner
}

// NewPaymentHandler constructs the handler.
func NewPaymentHandler(svc paymentService, transitions paymentTransitioner) *PaymentHandler {
	return &PaymentHandler{service: svc, transitions: transitions}
}

// Create godoc
// @Summary Record a payment
// @Description Users record payments for themselves; admins may record for any user.
// @Tags Payments
// @Accept json
// @Produce json
// @Param payload body models.CreatePaymentRequest true "Payment"
// @Success 201 {object} response.Envelope
// @Router /payments [post]
func (h *PaymentHandler) Create(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	var req models.CreatePaymentRequest
	if !bindJSON(c, &req, "invalid payment payload") {
		return
	}
	payment, err := h.service.Create(c.Request.Context(), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, payment)
}

// ListMine godoc
// @Summary List the caller's payments
// @Tags Payments
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /payments/mine [get]
func (h *PaymentHandler) ListMine(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	payments, err := h.service.ListMine(c.Request.Context(), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, payments, nil)
}

// ListAll godoc
// @Summary List every payment
// @Tags Payments
// @Produce json
// @Param status query string false "Status filter"
// @Success 200 {object} response.Envelope
// @Router /payments [get]
func (h *PaymentHandler) ListAll(c *gin.Context) {
	payments, err := h.service.ListAll(c.Request.Context(), c.Query("status"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, payments, nil)
}

// Get godoc
// @Summary Get a payment
// @Tags Payments
// @Produce json
// @Param id path string true "Payment ID"
// @Success 200 {object} response.Envelope
// @Router /payments/{id} [get]
func (h *PaymentHandler) Get(c *gin.Context) {
	payment, err := h.service.Get(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, payment, nil)
}

// UpdateStatus godoc
// @Summary Change payment status
// @Description Confirming stamps paid_at once.
// @Tags Payments
// @Accept json
// @Produce json
// @Param id path string true "Payment ID"
// @Param payload body models.StatusUpdateRequest true "Status"
// @Success 200 {object} response.Envelope
// @Router /payments/{id}/status [patch]
func (h *PaymentHandler) UpdateStatus(c *gin.Context) {
	var req models.StatusUpdateRequest
	if !bindJSON(c, &req, "invalid status payload") {
		return
	}
	payment, err := h.transitions.TransitionPayment(c.Request.Context(), c.Param("id"), req.Status, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, payment, nil)
}

// Delete godoc
// @Summary Delete a payment
// @Tags Payments
// @Param id path string true "Payment ID"
// @Success 204
// @Router /payments/{id} [delete]
func (h *PaymentHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id"), claimsFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
