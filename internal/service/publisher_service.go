package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/ai-wes/fhj-content-api/internal/dto"
	"github.com/ai-wes/fhj-content-api/internal/models"
	appErrors "github.com/ai-wes/fhj-content-api/pkg/errors"
)

type publisherEventStore interface {
	Load(ctx context.Context) ([]models.CalendarEvent, error)
	Update(ctx context.Context, id string, patch models.CalendarEventPatch) ([]models.CalendarEvent, error)
}

type publisherArticleService interface {
	Publish(ctx context.Context, id string, at time.Time) (bool, error)
}

type publisherMetrics interface {
	PublisherTick(published, skipped, failed int)
}

// PublisherService owns the scheduled-publish reconciliation loop. On every
// tick it loads the calendar, publishes the articles behind due pending
// entries and flags those entries as published. Each entry is handled
// independently so one failure never blocks the rest of the batch.
type PublisherService struct {
	events   publisherEventStore
	articles publisherArticleService
	metrics  publisherMetrics
	logger   *zap.Logger

	interval time.Duration
	now      func() time.Time

	kick chan struct{}
	stop chan struct{}
	done chan struct{}

	mu        sync.Mutex
	running   bool
	lastTick  time.Time
	lastError error

	ticks     atomic.Uint64
	published atomic.Uint64
	skipped   atomic.Uint64
	failed    atomic.Uint64
}

// NewPublisherService constructs the loop. A non-positive interval falls back
// to one minute.
func NewPublisherService(events publisherEventStore, articles publisherArticleService, metrics publisherMetrics, logger *zap.Logger, interval time.Duration) *PublisherService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if interval <= 0 {
		interval = time.Minute
	}
	return &PublisherService{
		events:   events,
		articles: articles,
		metrics:  metrics,
		logger:   logger,
		interval: interval,
		now:      time.Now,
		kick:     make(chan struct{}, 1),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the background loop. It runs one pass immediately so due
// work left over from downtime is picked up at boot.
func (s *PublisherService) Start(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()

	go s.run(ctx)
}

func (s *PublisherService) run(ctx context.Context) {
	defer close(s.done)

	s.logger.Info("publisher loop started", zap.Duration("interval", s.interval))
	if _, err := s.Tick(ctx); err != nil {
		s.logger.Error("initial publish pass failed", zap.Error(err))
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("publisher loop stopped", zap.Error(ctx.Err()))
			return
		case <-s.stop:
			s.logger.Info("publisher loop stopped")
			return
		case <-ticker.C:
		case <-s.kick:
		}
		if _, err := s.Tick(ctx); err != nil {
			s.logger.Error("publish pass failed", zap.Error(err))
		}
	}
}

// Stop shuts the loop down and waits for the in-flight pass to finish.
func (s *PublisherService) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	close(s.stop)
	<-s.done
}

// Kick requests an immediate pass without waiting for the next tick. Safe to
// call from any goroutine; a pending kick coalesces with later ones.
func (s *PublisherService) Kick() {
	select {
	case s.kick <- struct{}{}:
	default:
	}
}

// Tick runs one reconciliation pass and reports what it did. Exposed so the
// admin surface can trigger a pass on demand.
func (s *PublisherService) Tick(ctx context.Context) (dto.RunTickResponse, error) {
	now := s.now().UTC()
	result := dto.RunTickResponse{}

	events, err := s.events.Load(ctx)
	if err != nil {
		s.recordTick(now, err)
		return result, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load calendar events")
	}

	for _, event := range events {
		if !event.Pending() || !event.Due(now) {
			continue
		}
		// Manual entries carry no article; they are reminders only.
		if event.ArticleID == nil {
			continue
		}

		published, err := s.articles.Publish(ctx, *event.ArticleID, now)
		if err != nil {
			var appErr *appErrors.Error
			if errors.As(err, &appErr) && appErr.Code == appErrors.ErrNotFound.Code {
				// The article was deleted out from under the calendar.
				// Tolerate the dangling reference and leave the entry alone.
				s.logger.Warn("calendar entry references missing article",
					zap.String("event_id", event.ID),
					zap.String("article_id", *event.ArticleID))
				result.Skipped++
				continue
			}
			s.logger.Error("failed to publish scheduled article",
				zap.String("event_id", event.ID),
				zap.String("article_id", *event.ArticleID),
				zap.Error(err))
			result.Failed++
			continue
		}

		if !published {
			// Already published elsewhere; only the calendar flag was stale.
			result.Skipped++
		} else {
			s.logger.Info("scheduled article published",
				zap.String("event_id", event.ID),
				zap.String("article_id", *event.ArticleID),
				zap.Time("scheduled_date", event.ScheduledDate))
			result.Published++
		}

		status := models.EventStatusPublished
		if _, err := s.events.Update(ctx, event.ID, models.CalendarEventPatch{Status: &status}); err != nil {
			s.logger.Error("failed to flag calendar entry as published",
				zap.String("event_id", event.ID), zap.Error(err))
			result.Failed++
		}
	}

	s.published.Add(uint64(result.Published))
	s.skipped.Add(uint64(result.Skipped))
	s.failed.Add(uint64(result.Failed))
	if s.metrics != nil {
		s.metrics.PublisherTick(result.Published, result.Skipped, result.Failed)
	}
	s.recordTick(now, nil)
	return result, nil
}

// Status reports the loop's configuration and recent activity.
func (s *PublisherService) Status(ctx context.Context) dto.PublisherStatus {
	s.mu.Lock()
	status := dto.PublisherStatus{
		Running:    s.running,
		Interval:   s.interval.String(),
		TicksTotal: s.ticks.Load(),
		Published:  s.published.Load(),
		Skipped:    s.skipped.Load(),
		Failed:     s.failed.Load(),
	}
	if !s.lastTick.IsZero() {
		t := s.lastTick
		status.LastTickAt = &t
	}
	if s.lastError != nil {
		msg := s.lastError.Error()
		status.LastError = &msg
	}
	s.mu.Unlock()

	events, err := s.events.Load(ctx)
	if err != nil {
		s.logger.Warn("failed to count pending calendar entries", zap.Error(err))
		return status
	}
	for _, event := range events {
		if event.Pending() {
			status.PendingCount++
		}
	}
	return status
}

func (s *PublisherService) recordTick(at time.Time, err error) {
	s.ticks.Add(1)
	s.mu.Lock()
	s.lastTick = at
	s.lastError = err
	s.mu.Unlock()
}
