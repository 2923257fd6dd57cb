package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/siliya-electrical-api/internal/dto"
	"github.com/noah-isme/siliya-electrical-api/internal/middleware"
	"github.com/noah-isme/siliya-electrical-api/internal/models"
	appErrors "github.com/noah-isme/siliya-electrical-api/pkg/errors"
	"github.com/noah-isme/siliya-electrical-api/pkg/response"
)

type dashboardService interface {
	Snapshot(ctx context.Context, query dto.DashboardQuery, actor *models.JWTClaims) (*dto.DashboardSnapshot, bool, error)
}

// DashboardHandler wires the admin snapshot to HTTP.
type DashboardHandler struct {
	service         dashboardService
	refreshInterval time.Duration
}

// NewDashboardHandler constructs the handler. refreshInterval is advertised to
// clients as the polling period.
func NewDashboardHandler(service dashboardService, refreshInterval time.Duration) *DashboardHandler {
	if refreshInterval <= 0 {
		refreshInterval = 30 * time.Second
	}
	return &DashboardHandler{service: service, refreshInterval: refreshInterval}
}

// Admin godoc
// @Summary Admin dashboard snapshot
// @Description Repairs, enrollments, courses and users in one payload. Failing sections are flagged individually.
// @Tags Dashboard
// @Produce json
// @Param recent query int false "Recent items per section (default 5)"
// @Param search query string false "Case-insensitive filter"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /admin/dashboard [get]
func (h *DashboardHandler) Admin(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	var query dto.DashboardQuery
	if raw := strings.TrimSpace(c.Query("recent")); raw != "" {
		recent, err := strconv.Atoi(raw)
		if err != nil || recent < 0 {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "recent must be a positive number"))
			return
		}
		query.Recent = recent
	}
	query.Search = c.Query("search")

	start := time.Now()
	snapshot, cacheHit, err := h.service.Snapshot(c.Request.Context(), query, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	middleware.SetMeta(c, "refresh_interval_seconds", int(h.refreshInterval.Seconds()))
	meta := middleware.ExtractMeta(c)
	meta["processing_time_ms"] = time.Since(start).Milliseconds()
	response.JSON(c, http.StatusOK, snapshot, nil, meta)
}
