package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ai-wes/fhj-content-api/internal/dto"
	"github.com/ai-wes/fhj-content-api/internal/service"
	appErrors "github.com/ai-wes/fhj-content-api/pkg/errors"
	"github.com/ai-wes/fhj-content-api/pkg/response"
)

// ArticleHandler exposes article endpoints.
type ArticleHandler struct {
	articles *service.ArticleService
}

// NewArticleHandler constructs ArticleHandler.
func NewArticleHandler(articles *service.ArticleService) *ArticleHandler {
	return &ArticleHandler{articles: articles}
}

// List godoc
// @Summary List articles
// @Tags Articles
// @Produce json
// @Param status query string false "Filter by lifecycle status"
// @Param category query string false "Filter by category"
// @Param search query string false "Search in title and excerpt"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /articles [get]
func (h *ArticleHandler) List(c *gin.Context) {
	var query dto.ArticleListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query"))
		return
	}

	articles, pagination, err := h.articles.List(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, articles, pagination)
}

// Get godoc
// @Summary Get article
// @Tags Articles
// @Produce json
// @Param id path string true "Article ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /articles/{id} [get]
func (h *ArticleHandler) Get(c *gin.Context) {
	article, err := h.articles.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, article, nil)
}

// Create godoc
// @Summary Create article
// @Tags Articles
// @Accept json
// @Produce json
// @Param payload body dto.CreateArticleRequest true "Article payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /articles [post]
func (h *ArticleHandler) Create(c *gin.Context) {
	var req dto.CreateArticleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	var createdBy string
	if claims := claimsFromContext(c); claims != nil {
		createdBy = claims.UserID
	}

	article, err := h.articles.Create(c.Request.Context(), req, createdBy)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, article)
}

// Update godoc
// @Summary Update article content
// @Tags Articles
// @Accept json
// @Produce json
// @Param id path string true "Article ID"
// @Param payload body dto.UpdateArticleRequest true "Article payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /articles/{id} [put]
func (h *ArticleHandler) Update(c *gin.Context) {
	var req dto.UpdateArticleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	article, err := h.articles.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, article, nil)
}

// UpdateStatus godoc
// @Summary Transition article status
// @Tags Articles
// @Accept json
// @Produce json
// @Param id path string true "Article ID"
// @Param payload body dto.UpdateArticleStatusRequest true "Status payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /articles/{id}/status [put]
func (h *ArticleHandler) UpdateStatus(c *gin.Context) {
	var req dto.UpdateArticleStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	article, err := h.articles.UpdateStatus(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, article, nil)
}

// Delete godoc
// @Summary Delete article
// @Tags Articles
// @Produce json
// @Param id path string true "Article ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /articles/{id} [delete]
func (h *ArticleHandler) Delete(c *gin.Context) {
	if err := h.articles.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
