package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ai-wes/fhj-content-api/internal/dto"
	"github.com/ai-wes/fhj-content-api/internal/models"
	"github.com/ai-wes/fhj-content-api/internal/repository"
	appErrors "github.com/ai-wes/fhj-content-api/pkg/errors"
)

const (
	analyticsSummaryCacheKey = "fhj:analytics:summary"
	analyticsCadenceCacheKey = "fhj:analytics:cadence:%d"
)

type analyticsRepository interface {
	CountByStatus(ctx context.Context) ([]repository.StatusCount, error)
	CountByCategory(ctx context.Context) ([]repository.CategoryCount, error)
	LastPublishedAt(ctx context.Context) (*time.Time, error)
	PublishCounts(ctx context.Context, since time.Time) ([]repository.DayCount, error)
}

type analyticsCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

type analyticsEventSource interface {
	Load(ctx context.Context) ([]models.CalendarEvent, error)
}

type analyticsCacheMetrics interface {
	RecordCacheOperation(hit bool)
}

// AnalyticsService aggregates dashboard numbers with short-lived caching.
type AnalyticsService struct {
	repo    analyticsRepository
	events  analyticsEventSource
	cache   analyticsCache
	metrics analyticsCacheMetrics
	logger  *zap.Logger
	ttl     time.Duration
	now     func() time.Time
}

// NewAnalyticsService constructs the analytics service.
func NewAnalyticsService(repo analyticsRepository, events analyticsEventSource, cache analyticsCache, metrics analyticsCacheMetrics, logger *zap.Logger, ttl time.Duration) *AnalyticsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &AnalyticsService{repo: repo, events: events, cache: cache, metrics: metrics, logger: logger, ttl: ttl, now: time.Now}
}

// Summary returns the dashboard aggregate, served from cache when fresh.
func (s *AnalyticsService) Summary(ctx context.Context) (*dto.AnalyticsSummary, error) {
	if s.cache != nil {
		var cached dto.AnalyticsSummary
		if err := s.cache.Get(ctx, analyticsSummaryCacheKey, &cached); err == nil {
			if s.metrics != nil {
				s.metrics.RecordCacheOperation(true)
			}
			return &cached, nil
		} else if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("analytics cache lookup failed", zap.Error(err))
		}
		if s.metrics != nil {
			s.metrics.RecordCacheOperation(false)
		}
	}

	now := s.now().UTC()
	summary := &dto.AnalyticsSummary{
		ByStatus:    map[string]int{},
		ByCategory:  map[string]int{},
		GeneratedAt: now,
	}

	statusCounts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to aggregate article statuses")
	}
	for _, sc := range statusCounts {
		summary.ByStatus[sc.Status] = sc.Count
		summary.TotalArticles += sc.Count
	}

	categoryCounts, err := s.repo.CountByCategory(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to aggregate article categories")
	}
	for _, cc := range categoryCounts {
		summary.ByCategory[cc.Category] = cc.Count
	}

	lastPublished, err := s.repo.LastPublishedAt(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load last publish date")
	}
	summary.LastPublishedAt = lastPublished

	events, err := s.events.Load(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load calendar events")
	}
	for _, event := range events {
		if !event.Pending() {
			continue
		}
		if event.Due(now) {
			summary.OverdueEvents++
		} else {
			summary.UpcomingEvents++
		}
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, analyticsSummaryCacheKey, summary, s.ttl); err != nil {
			s.logger.Warn("failed to cache analytics summary", zap.Error(err))
		}
	}
	return summary, nil
}

// Cadence reports publish counts per day over the trailing window.
func (s *AnalyticsService) Cadence(ctx context.Context, windowDays int) (*dto.PublishingCadence, error) {
	if windowDays <= 0 {
		windowDays = 30
	}
	if windowDays > 365 {
		windowDays = 365
	}

	cacheKey := fmt.Sprintf(analyticsCadenceCacheKey, windowDays)
	if s.cache != nil {
		var cached dto.PublishingCadence
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			if s.metrics != nil {
				s.metrics.RecordCacheOperation(true)
			}
			return &cached, nil
		} else if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("analytics cache lookup failed", zap.Error(err))
		}
		if s.metrics != nil {
			s.metrics.RecordCacheOperation(false)
		}
	}

	now := s.now().UTC()
	since := now.AddDate(0, 0, -windowDays)
	counts, err := s.repo.PublishCounts(ctx, since)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to aggregate publish cadence")
	}

	cadence := &dto.PublishingCadence{
		WindowDays:  windowDays,
		Points:      make([]dto.PublishingCadencePoint, 0, len(counts)),
		GeneratedAt: now,
	}
	for _, dc := range counts {
		cadence.Points = append(cadence.Points, dto.PublishingCadencePoint{
			Day:   dc.Day.Format("2006-01-02"),
			Count: dc.Count,
		})
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, cadence, s.ttl); err != nil {
			s.logger.Warn("failed to cache publish cadence", zap.Error(err))
		}
	}
	return cadence, nil
}
