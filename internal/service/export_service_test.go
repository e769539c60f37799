package service

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ai-wes/fhj-content-api/internal/models"
	"github.com/ai-wes/fhj-content-api/pkg/export"
	"github.com/ai-wes/fhj-content-api/pkg/storage"
)

type memoryFileStorage struct {
	files map[string][]byte
}

func (m *memoryFileStorage) Save(filename string, data []byte) (string, error) {
	if m.files == nil {
		m.files = make(map[string][]byte)
	}
	m.files[filename] = data
	return filename, nil
}

func (m *memoryFileStorage) Open(filename string) (*os.File, error) {
	return nil, os.ErrNotExist
}

func (m *memoryFileStorage) Delete(filename string) error {
	delete(m.files, filename)
	return nil
}

func (m *memoryFileStorage) CleanupOlderThan(ttl time.Duration) ([]string, error) {
	return nil, nil
}

func newExportServiceForTest(articles exportArticleSource, events exportEventSource, files *memoryFileStorage) *ExportService {
	signer := storage.NewSignedURLSigner("test-secret", time.Hour)
	return NewExportService(articles, events, files, signer, export.NewCSVExporter(), export.NewPDFExporter(), ExportConfig{}, zap.NewNop())
}

func TestExportServiceGeneratesArticleCSV(t *testing.T) {
	date := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	repo := &mockArticleRepo{articles: map[string]models.Article{
		"a1": {
			ID:       "a1",
			Title:    "Gene Therapy Milestones",
			Slug:     "gene-therapy-milestones",
			Category: "Biotech",
			Tags:     []string{"genetics", "therapy"},
			Status:   models.ArticleStatusPublished,
			Date:     &date,
			ReadTime: 6,
		},
	}}
	files := &memoryFileStorage{}
	svc := newExportServiceForTest(repo, &mockEventStore{}, files)

	job := &models.ReportJob{
		ID:     "job-1",
		Type:   models.ReportTypeArticles,
		Params: models.ReportJobParams{Format: models.ReportFormatCSV},
	}
	result, err := svc.Generate(context.Background(), job)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(result.URL, "/api/v1/reports/download/"))

	raw, ok := files.files["articles-job-1.csv"]
	require.True(t, ok)
	content := string(raw)
	assert.Contains(t, content, "Gene Therapy Milestones")
	assert.Contains(t, content, "genetics, therapy")

	token := strings.TrimPrefix(result.URL, "/api/v1/reports/download/")
	jobID, relPath, _, err := svc.ParseToken(token, false)
	require.NoError(t, err)
	assert.Equal(t, "job-1", jobID)
	assert.Equal(t, result.RelPath, relPath)
}

func TestExportServiceGeneratesCalendarPDF(t *testing.T) {
	articleID := "a1"
	events := &mockEventStore{events: []models.CalendarEvent{
		{
			ID:            "e1",
			Title:         "Launch post",
			ScheduledDate: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC),
			Platform:      models.PlatformWebsite,
			Type:          models.EventTypeArticle,
			ArticleID:     &articleID,
		},
	}}
	files := &memoryFileStorage{}
	svc := newExportServiceForTest(&mockArticleRepo{}, events, files)

	job := &models.ReportJob{
		ID:     "job-2",
		Type:   models.ReportTypeCalendar,
		Params: models.ReportJobParams{Format: models.ReportFormatPDF},
	}
	_, err := svc.Generate(context.Background(), job)
	require.NoError(t, err)

	raw, ok := files.files["calendar-job-2.pdf"]
	require.True(t, ok)
	assert.True(t, len(raw) > 0)
	assert.Equal(t, "%PDF", string(raw[:4]))
}

func TestExportServiceRejectsUnknownFormat(t *testing.T) {
	svc := newExportServiceForTest(&mockArticleRepo{}, &mockEventStore{}, &memoryFileStorage{})

	job := &models.ReportJob{
		ID:     "job-3",
		Type:   models.ReportTypeArticles,
		Params: models.ReportJobParams{Format: "xlsx"},
	}
	_, err := svc.Generate(context.Background(), job)
	require.Error(t, err)
}

func TestExportServiceFiltersArticlesByParams(t *testing.T) {
	repo := &mockArticleRepo{}
	svc := newExportServiceForTest(repo, &mockEventStore{}, &memoryFileStorage{})

	status := models.ArticleStatusPublished
	job := &models.ReportJob{
		ID:   "job-4",
		Type: models.ReportTypeArticles,
		Params: models.ReportJobParams{
			Format:   models.ReportFormatCSV,
			Status:   &status,
			Category: "AI",
		},
	}
	_, err := svc.Generate(context.Background(), job)
	require.NoError(t, err)
	require.NotNil(t, repo.lastFilter.Status)
	assert.Equal(t, models.ArticleStatusPublished, *repo.lastFilter.Status)
	assert.Equal(t, "AI", repo.lastFilter.Category)
}
