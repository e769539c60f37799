package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ai-wes/fhj-content-api/internal/service"
	"github.com/ai-wes/fhj-content-api/pkg/response"
)

// PublisherHandler exposes admin endpoints for the publish loop.
type PublisherHandler struct {
	publisher *service.PublisherService
}

// NewPublisherHandler constructs PublisherHandler.
func NewPublisherHandler(publisher *service.PublisherService) *PublisherHandler {
	return &PublisherHandler{publisher: publisher}
}

// Status godoc
// @Summary Publish loop status
// @Tags Publisher
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /publisher/status [get]
func (h *PublisherHandler) Status(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.publisher.Status(c.Request.Context()), nil)
}

// RunTick godoc
// @Summary Run one reconciliation pass now
// @Tags Publisher
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 500 {object} response.Envelope
// @Router /publisher/run [post]
func (h *PublisherHandler) RunTick(c *gin.Context) {
	result, err := h.publisher.Tick(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
