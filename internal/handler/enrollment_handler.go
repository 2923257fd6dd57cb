package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/siliya-electrical-api/internal/models"
	"github.com/noah-isme/siliya-electrical-api/pkg/response"
)

type enrollmentService interface {
	Create(ctx context.Context, req models.CreateEnrollmentRequest, actor *models.JWTClaims) (*models.Enrollment, error)
	ListMine(ctx context.Context, actor *models.JWTClaims) ([]models.Enrollment, error)
	ListAll(ctx context.Context, status string, actor *models.JWTClaims) ([]models.Enrollment, error)
	Get(ctx context.Context, id string, actor *models.JWTClaims) (*models.Enrollment, error)
	Delete(ctx context.Context, id string, actor *models.JWTClaims) error
}

type enrollmentTransitioner interface {
	TransitionEnrollment(ctx context.Context, id, status string, actor *models.JWTClaims) (*models.Enrollment, error)
	TransitionEnrollmentPayment(ctx context.Context, id, status string, actor *models.JWTClaims) (*models.Enrollment, error)
}

// EnrollmentHandler exposes course enrollment endpoints.
type EnrollmentHandler struct {
	service     enrollmentService
	transitions enrollmentTransitioner
}

// NewEnrollmentHandler constructs the handler.
func NewEnrollmentHandler(svc enrollmentService, transitions enrollmentTransitioner) *EnrollmentHandler {
	return &EnrollmentHandler{service: svc, transitions: transitions}
}

// Create godoc
// @Summary Apply to a course
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param payload body models.CreateEnrollmentRequest true "Application"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /enrollments [post]
func (h *EnrollmentHandler) Create(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	var req models.CreateEnrollmentRequest
	if !bindJSON(c, &req, "invalid enrollment payload") {
		return
	}
	enrollment, err := h.service.Create(c.Request.Context(), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, enrollment)
}

// ListMine godoc
// @Summary List the caller's enrollments
// @Tags Enrollments
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /enrollments/mine [get]
func (h *EnrollmentHandler) ListMine(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	enrollments, err := h.service.ListMine(c.Request.Context(), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollments, nil)
}

// ListAll godoc
// @Summary List every enrollment
// @Tags Enrollments
// @Produce json
// @Param status query string false "Status filter"
// @Success 200 {object} response.Envelope
// @Router /enrollments [get]
func (h *EnrollmentHandler) ListAll(c *gin.Context) {
	enrollments, err := h.service.ListAll(c.Request.Context(), c.Query("status"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollments, nil)
}

// Get godoc
// @Summary Get an enrollment
// @Tags Enrollments
// @Produce json
// @Param id path string true "Enrollment ID"
// @Success 200 {object} response.Envelope
// @Router /enrollments/{id} [get]
func (h *EnrollmentHandler) Get(c *gin.Context) {
	enrollment, err := h.service.Get(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollment, nil)
}

// UpdateStatus godoc
// @Summary Change enrollment status
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param id path string true "Enrollment ID"
// @Param payload body models.StatusUpdateRequest true "Status"
// @Success 200 {object} response.Envelope
// @Router /enrollments/{id}/status [patch]
func (h *EnrollmentHandler) UpdateStatus(c *gin.Context) {
	var req models.StatusUpdateRequest
	if !bindJSON(c, &req, "invalid status payload") {
		return
	}
	enrollment, err := h.transitions.TransitionEnrollment(c.Request.Context(), c.Param("id"), req.Status, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollment, nil)
}

// UpdatePaymentStatus godoc
// @Summary Change enrollment payment status
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param id path string true "Enrollment ID"
// @Param payload body models.PaymentStatusUpdateRequest true "Payment status"
// @Success 200 {object} response.Envelope
// @Router /enrollments/{id}/payment-status [patch]
func (h *EnrollmentHandler) UpdatePaymentStatus(c *gin.Context) {
	var req models.PaymentStatusUpdateRequest
	if !bindJSON(c, &req, "invalid payment status payload") {
		return
	}
	enrollment, err := h.transitions.TransitionEnrollmentPayment(c.Request.Context(), c.Param("id"), req.PaymentStatus, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollment, nil)
}

// Delete godoc
// @Summary Delete an enrollment
// @Tags Enrollments
// @Param id path string true "Enrollment ID"
// @Success 204
// @Router /enrollments/{id} [delete]
func (h *EnrollmentHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id"), claimsFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
