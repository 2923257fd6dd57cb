package handler

import (
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/siliya-electrical-api/internal/models"
	"github.com/noah-isme/siliya-electrical-api/internal/service"
	appErrors "github.com/noah-isme/siliya-electrical-api/pkg/errors"
	"github.com/noah-isme/siliya-electrical-api/pkg/response"
)

const photoFormField = "photos"

type repairService interface {
	Create(ctx context.Context, req models.CreateRepairRequest, photos []service.PhotoUpload, actor *models.JWTClaims) (*models.RepairTicket, error)
	ListMine(ctx context.Context, actor *models.JWTClaims) ([]models.RepairTicket, error)
	ListAll(ctx context.Context, status string, actor *models.JWTClaims) ([]models.RepairTicket, error)
	Get(ctx context.Context, id string, actor *models.JWTClaims) (*models.RepairTicket, error)
	Update(ctx context.Context, id string, req models.UpdateRepairRequest, actor *models.JWTClaims) (*models.RepairTicket, error)
	Delete(ctx context.Context, id string, actor *models.JWTClaims) error
	OpenPhoto(ctx context.Context, id string, index int, token string) (*service.StoredPhoto, error)
	Export(ctx context.Context, format string, actor *models.JWTClaims) (*service.ExportFile, error)
	MaxPhotos() int
}

type repairTransitioner interface {
	TransitionRepair(ctx context.Context, id, status string, actor *models.JWTClaims) (*models.RepairTicket, error)
}

// RepairHandler exposes repair ticket endpoints.
type RepairHandler struct {
	service     repairService
	transitions repairTransitioner
}

// NewRepairHandler constructs the handler.
func NewRepairHandler(svc repairService, transitions repairTransitioner) *RepairHandler {
	return &RepairHandler{service: svc, transitions: transitions}
}

// Create godoc
// @Summary Submit a repair request
// @Description Multipart form with device fields and up to three JPEG/PNG photos under "photos".
// @Tags Repairs
// @Accept multipart/form-data
// @Produce json
// @Param device_type formData string true "Device type"
// @Param brand formData string false "Brand"
// @Param model formData string false "Model"
// @Param issue formData string true "Issue description"
// @Param photos formData file false "Photos"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /repairs [post]
func (h *RepairHandler) Create(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}

	var req models.CreateRepairRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, appErrors.Validation(err, "invalid repair payload"))
		return
	}

	var headers []*multipart.FileHeader
	if form, err := c.MultipartForm(); err == nil && form != nil {
		headers = form.File[photoFormField]
	}
	if limit := h.service.MaxPhotos(); len(headers) > limit {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("at most %d photos are allowed", limit)))
		return
	}

	uploads := make([]service.PhotoUpload, 0, len(headers))
	for _, header := range headers {
		file, err := header.Open()
		if err != nil {
			response.Error(c, appErrors.Validation(err, "unable to read uploaded photo"))
			return
		}
		defer file.Close()
		uploads = append(uploads, service.PhotoUpload{Filename: header.Filename, Size: header.Size, Content: file})
	}

	ticket, err := h.service.Create(c.Request.Context(), req, uploads, claims)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, ticket)
}

// ListMine godoc
// @Summary List the caller's repair tickets
// @Tags Repairs
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /repairs/mine [get]
func (h *RepairHandler) ListMine(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	tickets, err := h.service.ListMine(c.Request.Context(), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, tickets, nil)
}

// ListAll godoc
// @Summary List every repair ticket
// @Tags Repairs
// @Produce json
// @Param status query string false "Status filter"
// @Success 200 {object} response.Envelope
// @Router /repairs [get]
func (h *RepairHandler) ListAll(c *gin.Context) {
	tickets, err := h.service.ListAll(c.Request.Context(), c.Query("status"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, tickets, nil)
}

// Get godoc
// @Summary Get a repair ticket
// @Tags Repairs
// @Produce json
// @Param id path string true "Repair ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /repairs/{id} [get]
func (h *RepairHandler) Get(c *gin.Context) {
	ticket, err := h.service.Get(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, ticket, nil)
}

// Update godoc
// @Summary Edit technician notes, amount and optionally status
// @Tags Repairs
// @Accept json
// @Produce json
// @Param id path string true "Repair ID"
// @Param payload body models.UpdateRepairRequest true "Fields"
// @Success 200 {object} response.Envelope
// @Router /repairs/{id} [patch]
func (h *RepairHandler) Update(c *gin.Context) {
	var req models.UpdateRepairRequest
	if !bindJSON(c, &req, "invalid repair payload") {
		return
	}
	ticket, err := h.service.Update(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, ticket, nil)
}

// UpdateStatus godoc
// @Summary Change repair status
// @Description Notifies the owner by email.
// @Tags Repairs
// @Accept json
// @Produce json
// @Param id path string true "Repair ID"
// @Param payload body models.StatusUpdateRequest true "Status"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /repairs/{id}/status [patch]
func (h *RepairHandler) UpdateStatus(c *gin.Context) {
	var req models.StatusUpdateRequest
	if !bindJSON(c, &req, "invalid status payload") {
		return
	}
	ticket, err := h.transitions.TransitionRepair(c.Request.Context(), c.Param("id"), req.Status, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, ticket, nil)
}

// Delete godoc
// @Summary Delete a repair ticket and its photos
// @Tags Repairs
// @Param id path string true "Repair ID"
// @Success 204
// @Router /repairs/{id} [delete]
func (h *RepairHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id"), claimsFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Photo godoc
// @Summary Download a repair photo through a signed link
// @Tags Repairs
// @Produce image/jpeg,image/png
// @Param id path string true "Repair ID"
// @Param index path int true "Photo index"
// @Param token query string true "Signed token"
// @Success 200 {file} binary
// @Failure 401 {object} response.Envelope
// @Router /repairs/{id}/photos/{index} [get]
func (h *RepairHandler) Photo(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "photo index must be a number"))
		return
	}
	photo, err := h.service.OpenPhoto(c.Request.Context(), c.Param("id"), index, c.Query("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer photo.Content.Close()

	c.DataFromReader(http.StatusOK, photo.Size, photo.ContentType, photo.Content, map[string]string{
		"Cache-Control":       "private, max-age=300",
		"Content-Disposition": "inline; filename=\"" + photo.Name + "\"",
	})
}

// Export godoc
// @Summary Export repair tickets
// @Tags Repairs
// @Produce text/csv,application/pdf
// @Param format query string false "csv or pdf"
// @Success 200 {file} binary
// @Router /repairs/export [get]
func (h *RepairHandler) Export(c *gin.Context) {
	file, err := h.service.Export(c.Request.Context(), c.DefaultQuery("format", "csv"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Data)
}
