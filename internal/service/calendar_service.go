package service

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/ai-wes/fhj-content-api/internal/dto"
	"github.com/ai-wes/fhj-content-api/internal/models"
	"github.com/ai-wes/fhj-content-api/internal/repository"
	appErrors "github.com/ai-wes/fhj-content-api/pkg/errors"
)

type calendarEventStore interface {
	Load(ctx context.Context) ([]models.CalendarEvent, error)
	Create(ctx context.Context, event models.CalendarEvent) ([]models.CalendarEvent, error)
	Update(ctx context.Context, id string, patch models.CalendarEventPatch) ([]models.CalendarEvent, error)
	Delete(ctx context.Context, id string) ([]models.CalendarEvent, error)
}

type calendarArticleService interface {
	Get(ctx context.Context, id string) (*models.Article, error)
	Create(ctx context.Context, req dto.CreateArticleRequest, createdBy string) (*models.Article, error)
	UpdateStatus(ctx context.Context, id string, req dto.UpdateArticleStatusRequest) (*models.Article, error)
}

// CalendarService manages the content calendar and the article scheduling
// flow that ties calendar entries to persisted articles.
type CalendarService struct {
	store     calendarEventStore
	articles  calendarArticleService
	notifier  publishNotifier
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCalendarService constructs the calendar service and registers its
// custom validations.
func NewCalendarService(store calendarEventStore, articles calendarArticleService, notifier publishNotifier, validate *validator.Validate, logger *zap.Logger) *CalendarService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	_ = validate.RegisterValidation("platform", func(fl validator.FieldLevel) bool {
		return models.Platform(fl.Field().String()).Valid()
	})
	return &CalendarService{store: store, articles: articles, notifier: notifier, validator: validate, logger: logger}
}

// List returns calendar events, optionally narrowed to one article or to
// entries still awaiting publication.
func (s *CalendarService) List(ctx context.Context, query dto.EventListQuery) ([]models.CalendarEvent, error) {
	events, err := s.store.Load(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load calendar events")
	}

	if query.ArticleID == "" && !query.Pending {
		return events, nil
	}

	filtered := make([]models.CalendarEvent, 0, len(events))
	for _, event := range events {
		if query.ArticleID != "" && (event.ArticleID == nil || *event.ArticleID != query.ArticleID) {
			continue
		}
		if query.Pending && !event.Pending() {
			continue
		}
		filtered = append(filtered, event)
	}
	return filtered, nil
}

// Create adds a manual calendar entry that is not linked to an article.
func (s *CalendarService) Create(ctx context.Context, req dto.CreateEventRequest) (*models.CalendarEvent, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid calendar event payload")
	}

	event := models.CalendarEvent{
		Title:         req.Title,
		ScheduledDate: req.ScheduledDate.UTC(),
		Platform:      models.Platform(req.Platform),
		Type:          models.EventTypeScheduledPost,
		Status:        models.EventStatusScheduled,
	}

	events, err := s.store.Create(ctx, event)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist calendar event")
	}

	created := events[len(events)-1]
	if s.notifier != nil {
		s.notifier.Kick()
	}
	return &created, nil
}

// Update patches an existing calendar entry.
func (s *CalendarService) Update(ctx context.Context, id string, req dto.UpdateEventRequest) (*models.CalendarEvent, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid calendar event payload")
	}

	patch := models.CalendarEventPatch{Title: req.Title}
	if req.ScheduledDate != nil {
		utc := req.ScheduledDate.UTC()
		patch.ScheduledDate = &utc
	}
	if req.Platform != nil {
		platform := models.Platform(*req.Platform)
		patch.Platform = &platform
	}

	events, err := s.store.Update(ctx, id, patch)
	if err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "calendar event not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update calendar event")
	}

	for i := range events {
		if events[i].ID == id {
			if s.notifier != nil {
				s.notifier.Kick()
			}
			return &events[i], nil
		}
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, "calendar event not found")
}

// Delete removes a calendar entry. The linked article, if any, is untouched.
func (s *CalendarService) Delete(ctx context.Context, id string) error {
	if _, err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			return appErrors.Clone(appErrors.ErrNotFound, "calendar event not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete calendar event")
	}
	return nil
}

// Schedule attaches a publish date to an article. Exactly one of an existing
// article id or an inline draft must be supplied. A draft is persisted first,
// so the calendar entry always references a real article id; when the article
// cannot be stored no calendar entry is written.
func (s *CalendarService) Schedule(ctx context.Context, req dto.ScheduleRequest, createdBy string) (*models.CalendarEvent, *models.Article, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule payload")
	}
	if (req.ArticleID == nil) == (req.Draft == nil) {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "exactly one of article_id or draft must be provided")
	}

	var article *models.Article
	var err error
	if req.ArticleID != nil {
		article, err = s.articles.Get(ctx, *req.ArticleID)
		if err != nil {
			return nil, nil, err
		}
		if article.Status != models.ArticleStatusScheduled {
			article, err = s.articles.UpdateStatus(ctx, article.ID, dto.UpdateArticleStatusRequest{Status: string(models.ArticleStatusScheduled)})
			if err != nil {
				return nil, nil, err
			}
		}
	} else {
		article, err = s.articles.Create(ctx, req.Draft.ToCreateRequest(models.ArticleStatusScheduled), createdBy)
		if err != nil {
			return nil, nil, err
		}
	}

	title := req.Title
	if title == "" {
		title = article.Title
	}

	event := models.CalendarEvent{
		Title:         title,
		ScheduledDate: req.ScheduledDate.UTC(),
		Platform:      models.Platform(req.Platform),
		Type:          models.EventTypeArticle,
		ArticleID:     &article.ID,
		Status:        models.EventStatusScheduled,
	}

	events, err := s.store.Create(ctx, event)
	if err != nil {
		s.logger.Error("article stored but calendar entry failed",
			zap.String("article_id", article.ID), zap.Error(err))
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist calendar event")
	}

	created := events[len(events)-1]
	if s.notifier != nil {
		s.notifier.Kick()
	}
	s.logger.Info("article scheduled",
		zap.String("article_id", article.ID),
		zap.String("event_id", created.ID),
		zap.Time("scheduled_date", created.ScheduledDate))
	return &created, article, nil
}

// MarkPublished flags the event as acted upon. Used by the publish loop.
func (s *CalendarService) MarkPublished(ctx context.Context, id string) error {
	status := models.EventStatusPublished
	if _, err := s.store.Update(ctx, id, models.CalendarEventPatch{Status: &status}); err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			return appErrors.Clone(appErrors.ErrNotFound, "calendar event not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark calendar event published")
	}
	return nil
}
