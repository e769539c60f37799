package service

import (
	"context"
	"database/sql"
	"strings"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/ai-wes/fhj-content-api/internal/dto"
	"github.com/ai-wes/fhj-content-api/internal/models"
	appErrors "github.com/ai-wes/fhj-content-api/pkg/errors"
)

type articleRepository interface {
	List(ctx context.Context, filter models.ArticleFilter) ([]models.Article, int, error)
	GetByID(ctx context.Context, id string) (*models.Article, error)
	Create(ctx context.Context, article *models.Article) error
	Update(ctx context.Context, article *models.Article) error
	UpdateStatus(ctx context.Context, id string, status models.ArticleStatus, date *time.Time) error
	Delete(ctx context.Context, id string) error
}

// publishNotifier wakes the scheduled-publish loop after a mutation that may
// change what is due.
type publishNotifier interface {
	Kick()
}

// ArticleService handles article lifecycle use-cases.
type ArticleService struct {
	repo      articleRepository
	notifier  publishNotifier
	validator *validator.Validate
	logger    *zap.Logger
}

// NewArticleService constructs the article service and registers its custom
// validations.
func NewArticleService(repo articleRepository, notifier publishNotifier, validate *validator.Validate, logger *zap.Logger) *ArticleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	_ = validate.RegisterValidation("article_status", func(fl validator.FieldLevel) bool {
		return models.ArticleStatus(fl.Field().String()).Valid()
	})
	return &ArticleService{repo: repo, notifier: notifier, validator: validate, logger: logger}
}

// SetNotifier attaches the publish loop after construction. The article
// service and the publisher reference each other, so the notifier is wired
// once both exist.
func (s *ArticleService) SetNotifier(n publishNotifier) {
	s.notifier = n
}

// List returns articles matching the query plus pagination metadata.
func (s *ArticleService) List(ctx context.Context, query dto.ArticleListQuery) ([]models.Article, *models.Pagination, error) {
	filter := models.ArticleFilter{
		Category: query.Category,
		Search:   query.Search,
		Page:     query.Page,
		PageSize: query.PageSize,
	}
	if query.Status != "" {
		status := models.ArticleStatus(query.Status)
		if !status.Valid() {
			return nil, nil, appErrors.Clone(appErrors.ErrValidation, "unknown article status filter")
		}
		filter.Status = &status
	}

	articles, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list articles")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 50
	}
	return articles, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns a single article by id.
func (s *ArticleService) Get(ctx context.Context, id string) (*models.Article, error) {
	article, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "article not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load article")
	}
	return article, nil
}

// Create persists a new article. Status defaults to draft when omitted.
func (s *ArticleService) Create(ctx context.Context, req dto.CreateArticleRequest, createdBy string) (*models.Article, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid article payload")
	}

	status := models.ArticleStatusDraft
	if req.Status != "" {
		status = models.ArticleStatus(req.Status)
	}

	article := &models.Article{
		Title:     req.Title,
		Slug:      req.Slug,
		Excerpt:   req.Excerpt,
		Content:   req.Content,
		Category:  req.Category,
		Tags:      req.Tags,
		Status:    status,
		ReadTime:  req.ReadTime,
		HeroImage: req.HeroImage,
		CreatedBy: createdBy,
	}
	if article.Slug == "" {
		article.Slug = slugify(article.Title)
	}
	if article.ReadTime == 0 {
		article.ReadTime = estimateReadTime(article.Content)
	}
	if status == models.ArticleStatusPublished {
		now := time.Now().UTC()
		article.Date = &now
	}

	if err := s.repo.Create(ctx, article); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create article")
	}
	return article, nil
}

// Update replaces the content fields of an existing article. The lifecycle
// status is untouched; use UpdateStatus for transitions.
func (s *ArticleService) Update(ctx context.Context, id string, req dto.UpdateArticleRequest) (*models.Article, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid article payload")
	}

	article, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "article not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load article")
	}

	article.Title = req.Title
	article.Excerpt = req.Excerpt
	article.Content = req.Content
	article.Category = req.Category
	article.Tags = req.Tags
	article.HeroImage = req.HeroImage
	if req.Slug != "" {
		article.Slug = req.Slug
	}
	if req.ReadTime > 0 {
		article.ReadTime = req.ReadTime
	} else {
		article.ReadTime = estimateReadTime(article.Content)
	}

	if err := s.repo.Update(ctx, article); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update article")
	}
	return article, nil
}

// UpdateStatus transitions an article's lifecycle status. Publishing stamps
// the publication date when none is set yet.
func (s *ArticleService) UpdateStatus(ctx context.Context, id string, req dto.UpdateArticleStatusRequest) (*models.Article, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid status payload")
	}

	article, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "article not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load article")
	}

	target := models.ArticleStatus(req.Status)
	if article.Status == models.ArticleStatusPublished && target == models.ArticleStatusScheduled {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "published articles cannot be rescheduled")
	}

	date := article.Date
	if target == models.ArticleStatusPublished && date == nil {
		now := time.Now().UTC()
		date = &now
	}

	if err := s.repo.UpdateStatus(ctx, id, target, date); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update article status")
	}

	article.Status = target
	article.Date = date
	if s.notifier != nil {
		s.notifier.Kick()
	}
	return article, nil
}

// Publish marks the article as published at the given time. It reports false
// without touching the row when the article is already published.
func (s *ArticleService) Publish(ctx context.Context, id string, at time.Time) (bool, error) {
	article, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, appErrors.Clone(appErrors.ErrNotFound, "article not found")
		}
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load article")
	}

	if article.Status == models.ArticleStatusPublished {
		return false, nil
	}

	at = at.UTC()
	if err := s.repo.UpdateStatus(ctx, id, models.ArticleStatusPublished, &at); err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to publish article")
	}
	return true, nil
}

// Delete removes an article permanently.
func (s *ArticleService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "article not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load article")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete article")
	}
	return nil
}

func slugify(title string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(strings.TrimSpace(title)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastDash = false
		case !lastDash:
			b.WriteRune('-')
			lastDash = true
		}
	}
	return strings.Trim(b.String(), "-")
}

func estimateReadTime(content string) int {
	words := len(strings.Fields(content))
	minutes := (words + 199) / 200
	if minutes < 1 {
		minutes = 1
	}
	return minutes
}
