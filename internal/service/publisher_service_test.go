package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ai-wes/fhj-content-api/internal/models"
	appErrors "github.com/ai-wes/fhj-content-api/pkg/errors"
)

type mockPublishTarget struct {
	published map[string]time.Time
	already   map[string]bool
	errs      map[string]error
	calls     []string
}

func (m *mockPublishTarget) Publish(ctx context.Context, id string, at time.Time) (bool, error) {
	m.calls = append(m.calls, id)
	if err, ok := m.errs[id]; ok {
		return false, err
	}
	if m.already[id] {
		return false, nil
	}
	if m.published == nil {
		m.published = make(map[string]time.Time)
	}
	m.published[id] = at
	return true, nil
}

func eventRef(id string) *string { return &id }

func newPublisher(store *mockEventStore, target *mockPublishTarget, now time.Time) *PublisherService {
	svc := NewPublisherService(store, target, nil, zap.NewNop(), time.Minute)
	svc.now = func() time.Time { return now }
	return svc
}

func TestPublisherTickPublishesDueEvents(t *testing.T) {
	now := time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)
	store := &mockEventStore{events: []models.CalendarEvent{
		{ID: "e1", ArticleID: eventRef("a1"), ScheduledDate: now.Add(-time.Hour), Status: models.EventStatusScheduled},
		{ID: "e2", ArticleID: eventRef("a2"), ScheduledDate: now, Status: models.EventStatusScheduled},
	}}
	target := &mockPublishTarget{}
	svc := newPublisher(store, target, now)

	result, err := svc.Tick(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, result.Published)
	assert.Equal(t, 0, result.Skipped)
	assert.Equal(t, 0, result.Failed)
	assert.Equal(t, models.EventStatusPublished, store.events[0].Status)
	assert.Equal(t, models.EventStatusPublished, store.events[1].Status)
	assert.Equal(t, now, target.published["a1"])
}

func TestPublisherTickLeavesFutureEventsAlone(t *testing.T) {
	now := time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)
	store := &mockEventStore{events: []models.CalendarEvent{
		{ID: "e1", ArticleID: eventRef("a1"), ScheduledDate: now.Add(time.Minute), Status: models.EventStatusScheduled},
	}}
	target := &mockPublishTarget{}
	svc := newPublisher(store, target, now)

	result, err := svc.Tick(context.Background())
	require.NoError(t, err)
	assert.Zero(t, result.Published)
	assert.Empty(t, target.calls)
	assert.Equal(t, models.EventStatusScheduled, store.events[0].Status)
}

func TestPublisherTickIsIdempotent(t *testing.T) {
	now := time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)
	store := &mockEventStore{events: []models.CalendarEvent{
		{ID: "e1", ArticleID: eventRef("a1"), ScheduledDate: now.Add(-time.Hour), Status: models.EventStatusScheduled},
	}}
	target := &mockPublishTarget{}
	svc := newPublisher(store, target, now)

	first, err := svc.Tick(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, first.Published)

	second, err := svc.Tick(context.Background())
	require.NoError(t, err)
	assert.Zero(t, second.Published)
	assert.Len(t, target.calls, 1)
}

func TestPublisherTickFlagsStaleEventForPublishedArticle(t *testing.T) {
	now := time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)
	store := &mockEventStore{events: []models.CalendarEvent{
		{ID: "e1", ArticleID: eventRef("a1"), ScheduledDate: now.Add(-time.Hour), Status: models.EventStatusScheduled},
	}}
	target := &mockPublishTarget{already: map[string]bool{"a1": true}}
	svc := newPublisher(store, target, now)

	result, err := svc.Tick(context.Background())
	require.NoError(t, err)
	assert.Zero(t, result.Published)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, models.EventStatusPublished, store.events[0].Status)
}

func TestPublisherTickToleratesMissingArticle(t *testing.T) {
	now := time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)
	store := &mockEventStore{events: []models.CalendarEvent{
		{ID: "e1", ArticleID: eventRef("gone"), ScheduledDate: now.Add(-time.Hour), Status: models.EventStatusScheduled},
	}}
	target := &mockPublishTarget{errs: map[string]error{
		"gone": appErrors.Clone(appErrors.ErrNotFound, "article not found"),
	}}
	svc := newPublisher(store, target, now)

	result, err := svc.Tick(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Skipped)
	assert.Zero(t, result.Failed)
	assert.Equal(t, models.EventStatusScheduled, store.events[0].Status)
}

func TestPublisherTickContinuesAfterFailure(t *testing.T) {
	now := time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)
	store := &mockEventStore{events: []models.CalendarEvent{
		{ID: "e1", ArticleID: eventRef("broken"), ScheduledDate: now.Add(-time.Hour), Status: models.EventStatusScheduled},
		{ID: "e2", ArticleID: eventRef("a2"), ScheduledDate: now.Add(-time.Hour), Status: models.EventStatusScheduled},
	}}
	target := &mockPublishTarget{errs: map[string]error{
		"broken": errors.New("db timeout"),
	}}
	svc := newPublisher(store, target, now)

	result, err := svc.Tick(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, 1, result.Published)
	assert.Equal(t, models.EventStatusScheduled, store.events[0].Status)
	assert.Equal(t, models.EventStatusPublished, store.events[1].Status)
}

func TestPublisherTickIgnoresManualEntries(t *testing.T) {
	now := time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)
	store := &mockEventStore{events: []models.CalendarEvent{
		{ID: "e1", Type: models.EventTypeScheduledPost, ScheduledDate: now.Add(-time.Hour), Status: models.EventStatusScheduled},
	}}
	target := &mockPublishTarget{}
	svc := newPublisher(store, target, now)

	result, err := svc.Tick(context.Background())
	require.NoError(t, err)
	assert.Zero(t, result.Published)
	assert.Empty(t, target.calls)
}

func TestPublisherTickPropagatesStoreFailure(t *testing.T) {
	now := time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)
	store := &mockEventStore{loadErr: errors.New("redis down")}
	svc := newPublisher(store, &mockPublishTarget{}, now)

	_, err := svc.Tick(context.Background())
	require.Error(t, err)

	status := svc.Status(context.Background())
	require.NotNil(t, status.LastError)
	assert.Contains(t, *status.LastError, "redis down")
}

func TestPublisherStatusCountsPending(t *testing.T) {
	now := time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)
	store := &mockEventStore{events: []models.CalendarEvent{
		{ID: "e1", Status: models.EventStatusPublished},
		{ID: "e2", Status: models.EventStatusScheduled},
		{ID: "e3"},
	}}
	svc := newPublisher(store, &mockPublishTarget{}, now)

	status := svc.Status(context.Background())
	assert.Equal(t, 2, status.PendingCount)
	assert.False(t, status.Running)
	assert.Equal(t, time.Minute.String(), status.Interval)
}

func TestPublisherKickTriggersImmediatePass(t *testing.T) {
	now := time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)
	store := &mockEventStore{}
	svc := newPublisher(store, &mockPublishTarget{}, now)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc.Start(ctx)
	defer svc.Stop()

	svc.Kick()
	require.Eventually(t, func() bool {
		return svc.Status(context.Background()).TicksTotal >= 1
	}, time.Second, 10*time.Millisecond)
}
