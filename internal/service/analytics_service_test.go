package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ai-wes/fhj-content-api/internal/models"
	"github.com/ai-wes/fhj-content-api/internal/repository"
	appErrors "github.com/ai-wes/fhj-content-api/pkg/errors"
)

type mockAnalyticsRepo struct {
	statuses   []repository.StatusCount
	categories []repository.CategoryCount
	last       *time.Time
	days       []repository.DayCount
	lastSince  time.Time
}

func (m *mockAnalyticsRepo) CountByStatus(ctx context.Context) ([]repository.StatusCount, error) {
	return m.statuses, nil
}

func (m *mockAnalyticsRepo) CountByCategory(ctx context.Context) ([]repository.CategoryCount, error) {
	return m.categories, nil
}

func (m *mockAnalyticsRepo) LastPublishedAt(ctx context.Context) (*time.Time, error) {
	return m.last, nil
}

func (m *mockAnalyticsRepo) PublishCounts(ctx context.Context, since time.Time) ([]repository.DayCount, error) {
	m.lastSince = since
	return m.days, nil
}

type mockCache struct {
	store map[string][]byte
	sets  int
}

func (m *mockCache) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := m.store[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *mockCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if m.store == nil {
		m.store = make(map[string][]byte)
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.store[key] = raw
	m.sets++
	return nil
}

func TestAnalyticsServiceSummaryAggregates(t *testing.T) {
	now := time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)
	published := now.Add(-48 * time.Hour)
	repo := &mockAnalyticsRepo{
		statuses: []repository.StatusCount{
			{Status: "draft", Count: 3},
			{Status: "published", Count: 7},
		},
		categories: []repository.CategoryCount{{Category: "AI", Count: 5}},
		last:       &published,
	}
	events := &mockEventStore{events: []models.CalendarEvent{
		{ID: "e1", ScheduledDate: now.Add(-time.Hour), Status: models.EventStatusScheduled},
		{ID: "e2", ScheduledDate: now.Add(time.Hour), Status: models.EventStatusScheduled},
		{ID: "e3", ScheduledDate: now.Add(-time.Hour), Status: models.EventStatusPublished},
	}}
	cache := &mockCache{}
	svc := NewAnalyticsService(repo, events, cache, nil, zap.NewNop(), time.Minute)
	svc.now = func() time.Time { return now }

	summary, err := svc.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 10, summary.TotalArticles)
	assert.Equal(t, 3, summary.ByStatus["draft"])
	assert.Equal(t, 5, summary.ByCategory["AI"])
	assert.Equal(t, 1, summary.OverdueEvents)
	assert.Equal(t, 1, summary.UpcomingEvents)
	require.NotNil(t, summary.LastPublishedAt)
	assert.Equal(t, 1, cache.sets)
}

func TestAnalyticsServiceSummaryServedFromCache(t *testing.T) {
	repo := &mockAnalyticsRepo{}
	cache := &mockCache{}
	svc := NewAnalyticsService(repo, &mockEventStore{}, cache, nil, zap.NewNop(), time.Minute)

	_, err := svc.Summary(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, cache.sets)

	_, err = svc.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, cache.sets)
}

func TestAnalyticsServiceCadenceClampsWindow(t *testing.T) {
	now := time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)
	repo := &mockAnalyticsRepo{days: []repository.DayCount{
		{Day: now.AddDate(0, 0, -1), Count: 2},
	}}
	svc := NewAnalyticsService(repo, &mockEventStore{}, nil, nil, zap.NewNop(), time.Minute)
	svc.now = func() time.Time { return now }

	cadence, err := svc.Cadence(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 30, cadence.WindowDays)
	assert.Equal(t, now.AddDate(0, 0, -30), repo.lastSince)
	require.Len(t, cadence.Points, 1)
	assert.Equal(t, "2025-06-30", cadence.Points[0].Day)

	cadence, err = svc.Cadence(context.Background(), 9999)
	require.NoError(t, err)
	assert.Equal(t, 365, cadence.WindowDays)
}
