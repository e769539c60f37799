package handler

import (
	"context"
	"encoding/json"
	"fmt"
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
	"github.com/ai-wes/fhj-content-api/internal/repository"
	"github.com/ai-wes/fhj-content-api/internal/service"
	"github.com/ai-wes/fhj-content-api/pkg/response"
)

type fakeEventStore struct {
	events []models.CalendarEvent
	nextID int
}

func (f *fakeEventStore) Load(ctx context.Context) ([]models.CalendarEvent, error) {
	out := make([]models.CalendarEvent, len(f.events))
	copy(out, f.events)
	return out, nil
}

func (f *fakeEventStore) Create(ctx context.Context, event models.CalendarEvent) ([]models.CalendarEvent, error) {
	if event.ID == "" {
		f.nextID++
		event.ID = fmt.Sprintf("event-%d", f.nextID)
	}
	f.events = append(f.events, event)
	return f.Load(ctx)
}

func (f *fakeEventStore) Update(ctx context.Context, id string, patch models.CalendarEventPatch) ([]models.CalendarEvent, error) {
	for i := range f.events {
		if f.events[i].ID == id {
			if patch.Title != nil {
				f.events[i].Title = *patch.Title
			}
			if patch.Status != nil {
				f.events[i].Status = *patch.Status
			}
			return f.Load(ctx)
		}
	}
	return nil, repository.ErrEventNotFound
}

func (f *fakeEventStore) Delete(ctx context.Context, id string) ([]models.CalendarEvent, error) {
	for i := range f.events {
		if f.events[i].ID == id {
			f.events = append(f.events[:i], f.events[i+1:]...)
			return f.Load(ctx)
		}
	}
	return nil, repository.ErrEventNotFound
}

func newCalendarHandlerForTest(store *fakeEventStore, repo *fakeArticleRepo) *CalendarHandler {
	validate := validator.New()
	articles := service.NewArticleService(repo, nil, validate, zap.NewNop())
	calendar := service.NewCalendarService(store, articles, nil, validate, zap.NewNop())
	return NewCalendarHandler(calendar)
}

func TestCalendarHandlerScheduleDraft(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := &fakeEventStore{}
	repo := &fakeArticleRepo{}
	handler := newCalendarHandlerForTest(store, repo)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = jsonRequest(t, http.MethodPost, "/calendar/schedule", dto.ScheduleRequest{
		ScheduledDate: time.Date(2025, 9, 1, 8, 0, 0, 0, time.UTC),
		Platform:      "Website",
		Draft: &dto.ArticleDraft{
			Title:    "Synthetic Organs Update",
			Content:  "body",
			Category: "Biotech",
		},
	})
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "editor-1", Role: models.RoleEditor})

	handler.Schedule(c)
	require.Equal(t, http.StatusCreated, w.Code)

	require.Len(t, store.events, 1)
	require.NotNil(t, store.events[0].ArticleID)
	article, ok := repo.articles[*store.events[0].ArticleID]
	require.True(t, ok)
	assert.Equal(t, models.ArticleStatusScheduled, article.Status)
}

func TestCalendarHandlerScheduleRejectsAmbiguousPayload(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newCalendarHandlerForTest(&fakeEventStore{}, &fakeArticleRepo{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = jsonRequest(t, http.MethodPost, "/calendar/schedule", dto.ScheduleRequest{
		ScheduledDate: time.Now(),
		Platform:      "Website",
	})

	handler.Schedule(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCalendarHandlerScheduleMissingArticle(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newCalendarHandlerForTest(&fakeEventStore{}, &fakeArticleRepo{})

	id := "ghost"
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = jsonRequest(t, http.MethodPost, "/calendar/schedule", dto.ScheduleRequest{
		ScheduledDate: time.Now(),
		Platform:      "Website",
		ArticleID:     &id,
	})

	handler.Schedule(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCalendarHandlerListPending(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := &fakeEventStore{events: []models.CalendarEvent{
		{ID: "e1", Status: models.EventStatusPublished},
		{ID: "e2", Status: models.EventStatusScheduled},
	}}
	handler := newCalendarHandlerForTest(store, &fakeArticleRepo{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/calendar/events?pending=true", nil)

	handler.List(c)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	data, err := json.Marshal(envelope.Data)
	require.NoError(t, err)
	var events []models.CalendarEvent
	require.NoError(t, json.Unmarshal(data, &events))
	require.Len(t, events, 1)
	assert.Equal(t, "e2", events[0].ID)
}

func TestCalendarHandlerDeleteUnknownEvent(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newCalendarHandlerForTest(&fakeEventStore{}, &fakeArticleRepo{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodDelete, "/calendar/events/ghost", nil)
	c.Params = gin.Params{{Key: "id", Value: "ghost"}}

	handler.Delete(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
