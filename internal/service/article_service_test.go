package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ai-wes/fhj-content-api/internal/dto"
	"github.com/ai-wes/fhj-content-api/internal/models"
	appErrors "github.com/ai-wes/fhj-content-api/pkg/errors"
)

type mockArticleRepo struct {
	articles   map[string]models.Article
	lastFilter models.ArticleFilter
	listTotal  int
	err        error
}

func (m *mockArticleRepo) List(ctx context.Context, filter models.ArticleFilter) ([]models.Article, int, error) {
	m.lastFilter = filter
	if m.err != nil {
		return nil, 0, m.err
	}
	out := make([]models.Article, 0, len(m.articles))
	for _, a := range m.articles {
		out = append(out, a)
	}
	return out, m.listTotal, nil
}

func (m *mockArticleRepo) GetByID(ctx context.Context, id string) (*models.Article, error) {
	if a, ok := m.articles[id]; ok {
		return &a, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockArticleRepo) Create(ctx context.Context, article *models.Article) error {
	if m.err != nil {
		return m.err
	}
	if m.articles == nil {
		m.articles = make(map[string]models.Article)
	}
	if article.ID == "" {
		article.ID = "generated"
	}
	article.CreatedAt = time.Now().UTC()
	article.UpdatedAt = article.CreatedAt
	m.articles[article.ID] = *article
	return nil
}

func (m *mockArticleRepo) Update(ctx context.Context, article *models.Article) error {
	m.articles[article.ID] = *article
	return nil
}

func (m *mockArticleRepo) UpdateStatus(ctx context.Context, id string, status models.ArticleStatus, date *time.Time) error {
	if m.err != nil {
		return m.err
	}
	a, ok := m.articles[id]
	if !ok {
		return sql.ErrNoRows
	}
	a.Status = status
	a.Date = date
	m.articles[id] = a
	return nil
}

func (m *mockArticleRepo) Delete(ctx context.Context, id string) error {
	delete(m.articles, id)
	return nil
}

type mockNotifier struct {
	kicks int
}

func (m *mockNotifier) Kick() { m.kicks++ }

func TestArticleServiceCreateDefaults(t *testing.T) {
	repo := &mockArticleRepo{}
	svc := NewArticleService(repo, nil, validator.New(), zap.NewNop())

	article, err := svc.Create(context.Background(), dto.CreateArticleRequest{
		Title:    "The Longevity Escape Velocity Debate",
		Content:  "word word word",
		Category: "Biotech",
	}, "editor-1")
	require.NoError(t, err)
	assert.Equal(t, models.ArticleStatusDraft, article.Status)
	assert.Equal(t, "the-longevity-escape-velocity-debate", article.Slug)
	assert.Equal(t, 1, article.ReadTime)
	assert.Nil(t, article.Date)
	assert.Equal(t, "editor-1", article.CreatedBy)
}

func TestArticleServiceCreateRejectsUnknownStatus(t *testing.T) {
	repo := &mockArticleRepo{}
	svc := NewArticleService(repo, nil, validator.New(), zap.NewNop())

	_, err := svc.Create(context.Background(), dto.CreateArticleRequest{
		Title:    "Bad Status",
		Content:  "body",
		Category: "AI",
		Status:   "live",
	}, "editor-1")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestArticleServiceUpdateStatusPublishStampsDate(t *testing.T) {
	repo := &mockArticleRepo{articles: map[string]models.Article{
		"a1": {ID: "a1", Title: "Draft", Status: models.ArticleStatusScheduled},
	}}
	notifier := &mockNotifier{}
	svc := NewArticleService(repo, notifier, validator.New(), zap.NewNop())

	article, err := svc.UpdateStatus(context.Background(), "a1", dto.UpdateArticleStatusRequest{Status: "published"})
	require.NoError(t, err)
	assert.Equal(t, models.ArticleStatusPublished, article.Status)
	require.NotNil(t, article.Date)
	assert.Equal(t, 1, notifier.kicks)
}

func TestArticleServiceUpdateStatusRejectsReschedulingPublished(t *testing.T) {
	now := time.Now().UTC()
	repo := &mockArticleRepo{articles: map[string]models.Article{
		"a1": {ID: "a1", Status: models.ArticleStatusPublished, Date: &now},
	}}
	svc := NewArticleService(repo, nil, validator.New(), zap.NewNop())

	_, err := svc.UpdateStatus(context.Background(), "a1", dto.UpdateArticleStatusRequest{Status: "scheduled"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErr.Code)
}

func TestArticleServicePublishIsIdempotent(t *testing.T) {
	repo := &mockArticleRepo{articles: map[string]models.Article{
		"a1": {ID: "a1", Status: models.ArticleStatusScheduled},
	}}
	svc := NewArticleService(repo, nil, validator.New(), zap.NewNop())

	at := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	published, err := svc.Publish(context.Background(), "a1", at)
	require.NoError(t, err)
	assert.True(t, published)

	stored := repo.articles["a1"]
	assert.Equal(t, models.ArticleStatusPublished, stored.Status)
	require.NotNil(t, stored.Date)
	assert.Equal(t, at, *stored.Date)

	published, err = svc.Publish(context.Background(), "a1", at.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, published)
	assert.Equal(t, at, *repo.articles["a1"].Date)
}

func TestArticleServicePublishMissingArticle(t *testing.T) {
	svc := NewArticleService(&mockArticleRepo{}, nil, validator.New(), zap.NewNop())

	_, err := svc.Publish(context.Background(), "ghost", time.Now())
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestArticleServiceListValidatesStatusFilter(t *testing.T) {
	svc := NewArticleService(&mockArticleRepo{}, nil, validator.New(), zap.NewNop())

	_, _, err := svc.List(context.Background(), dto.ArticleListQuery{Status: "bogus"})
	require.Error(t, err)
}

func TestArticleServiceGetNotFound(t *testing.T) {
	svc := NewArticleService(&mockArticleRepo{}, nil, validator.New(), zap.NewNop())

	_, err := svc.Get(context.Background(), "missing")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}
