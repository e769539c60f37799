package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ai-wes/fhj-content-api/internal/service"
	"github.com/ai-wes/fhj-content-api/pkg/response"
)

// AnalyticsHandler exposes dashboard aggregates.
type AnalyticsHandler struct {
	analytics *service.AnalyticsService
}

// NewAnalyticsHandler constructs AnalyticsHandler.
func NewAnalyticsHandler(analytics *service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics}
}

// Summary godoc
// @Summary Content dashboard summary
// @Tags Analytics
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /analytics/summary [get]
func (h *AnalyticsHandler) Summary(c *gin.Context) {
	summary, err := h.analytics.Summary(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// Cadence godoc
// @Summary Publishing cadence
// @Tags Analytics
// @Produce json
// @Param window query int false "Trailing window in days (default 30, max 365)"
// @Success 200 {object} response.Envelope
// @Router /analytics/cadence [get]
func (h *AnalyticsHandler) Cadence(c *gin.Context) {
	window := 0
	if raw := c.Query("window"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			window = parsed
		}
	}

	cadence, err := h.analytics.Cadence(c.Request.Context(), window)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cadence, nil)
}
