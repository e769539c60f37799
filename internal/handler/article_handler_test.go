package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ai-wes/fhj-content-api/internal/dto"
	"github.com/ai-wes/fhj-content-api/internal/middleware"
	"github.com/ai-wes/fhj-content-api/internal/models"
	"github.com/ai-wes/fhj-content-api/internal/service"
	"github.com/ai-wes/fhj-content-api/pkg/response"
)

type fakeArticleRepo struct {
	articles map[string]models.Article
}

func (f *fakeArticleRepo) List(ctx context.Context, filter models.ArticleFilter) ([]models.Article, int, error) {
	out := make([]models.Article, 0, len(f.articles))
	for _, a := range f.articles {
		out = append(out, a)
	}
	return out, len(out), nil
}

func (f *fakeArticleRepo) GetByID(ctx context.Context, id string) (*models.Article, error) {
	if a, ok := f.articles[id]; ok {
		return &a, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeArticleRepo) Create(ctx context.Context, article *models.Article) error {
	if f.articles == nil {
		f.articles = make(map[string]models.Article)
	}
	if article.ID == "" {
		article.ID = "generated"
	}
	f.articles[article.ID] = *article
	return nil
}

func (f *fakeArticleRepo) Update(ctx context.Context, article *models.Article) error {
	f.articles[article.ID] = *article
	return nil
}

func (f *fakeArticleRepo) UpdateStatus(ctx context.Context, id string, status models.ArticleStatus, date *time.Time) error {
	a, ok := f.articles[id]
	if !ok {
		return sql.ErrNoRows
	}
	a.Status = status
	a.Date = date
	f.articles[id] = a
	return nil
}

func (f *fakeArticleRepo) Delete(ctx context.Context, id string) error {
	delete(f.articles, id)
	return nil
}

func newArticleHandlerForTest(repo *fakeArticleRepo) *ArticleHandler {
	svc := service.NewArticleService(repo, nil, validator.New(), zap.NewNop())
	return NewArticleHandler(svc)
}

func jsonRequest(t *testing.T, method, target string, payload interface{}) *http.Request {
	t.Helper()
	var body bytes.Buffer
	if payload != nil {
		require.NoError(t, json.NewEncoder(&body).Encode(payload))
	}
	req, err := http.NewRequest(method, target, &body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestArticleHandlerCreate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newArticleHandlerForTest(&fakeArticleRepo{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = jsonRequest(t, http.MethodPost, "/articles", dto.CreateArticleRequest{
		Title:    "Brain-Computer Interfaces in 2026",
		Content:  "body",
		Category: "Neurotech",
	})
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "editor-1", Role: models.RoleEditor})

	handler.Create(c)
	require.Equal(t, http.StatusCreated, w.Code)

	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	data, err := json.Marshal(envelope.Data)
	require.NoError(t, err)
	var article models.Article
	require.NoError(t, json.Unmarshal(data, &article))
	assert.Equal(t, "brain-computer-interfaces-in-2026", article.Slug)
	assert.Equal(t, models.ArticleStatusDraft, article.Status)
	assert.Equal(t, "editor-1", article.CreatedBy)
}

func TestArticleHandlerCreateInvalidPayload(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newArticleHandlerForTest(&fakeArticleRepo{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = jsonRequest(t, http.MethodPost, "/articles", dto.CreateArticleRequest{Title: "no content"})

	handler.Create(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestArticleHandlerGetNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newArticleHandlerForTest(&fakeArticleRepo{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/articles/missing", nil)
	c.Params = gin.Params{{Key: "id", Value: "missing"}}

	handler.Get(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestArticleHandlerUpdateStatusConflict(t *testing.T) {
	gin.SetMode(gin.TestMode)
	now := time.Now().UTC()
	handler := newArticleHandlerForTest(&fakeArticleRepo{articles: map[string]models.Article{
		"a1": {ID: "a1", Status: models.ArticleStatusPublished, Date: &now},
	}})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = jsonRequest(t, http.MethodPut, "/articles/a1/status", dto.UpdateArticleStatusRequest{Status: "scheduled"})
	c.Params = gin.Params{{Key: "id", Value: "a1"}}

	handler.UpdateStatus(c)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestArticleHandlerDelete(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &fakeArticleRepo{articles: map[string]models.Article{
		"a1": {ID: "a1", Status: models.ArticleStatusDraft},
	}}
	handler := newArticleHandlerForTest(repo)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodDelete, "/articles/a1", nil)
	c.Params = gin.Params{{Key: "id", Value: "a1"}}

	handler.Delete(c)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, repo.articles)
}
