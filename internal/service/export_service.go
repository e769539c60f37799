package service

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ai-wes/fhj-content-api/internal/models"
	"github.com/ai-wes/fhj-content-api/pkg/export"
	"github.com/ai-wes/fhj-content-api/pkg/storage"
)

type exportArticleSource interface {
	List(ctx context.Context, filter models.ArticleFilter) ([]models.Article, int, error)
}

type exportEventSource interface {
	Load(ctx context.Context) ([]models.CalendarEvent, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportConfig governs where generated exports are linked from.
type ExportConfig struct {
	DownloadPathPrefix string
}

// ExportResult describes a rendered and stored export.
type ExportResult struct {
	RelPath   string
	URL       string
	ExpiresAt time.Time
}

// ExportService renders editorial exports (articles, calendar) to CSV or PDF
// and stores them behind signed download tokens.
type ExportService struct {
	articles exportArticleSource
	events   exportEventSource
	storage  fileStorage
	signer   *storage.SignedURLSigner
	csv      csvRenderer
	pdf      pdfRenderer
	cfg      ExportConfig
	logger   *zap.Logger
}

// NewExportService constructs the export service.
func NewExportService(articles exportArticleSource, events exportEventSource, store fileStorage, signer *storage.SignedURLSigner, csv csvRenderer, pdf pdfRenderer, cfg ExportConfig, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.DownloadPathPrefix == "" {
		cfg.DownloadPathPrefix = "/api/v1/reports/download"
	}
	return &ExportService{
		articles: articles,
		events:   events,
		storage:  store,
		signer:   signer,
		csv:      csv,
		pdf:      pdf,
		cfg:      cfg,
		logger:   logger,
	}
}

// Generate builds the dataset for the job, renders it and stores the result.
func (s *ExportService) Generate(ctx context.Context, job *models.ReportJob) (*ExportResult, error) {
	dataset, title, err := s.buildDataset(ctx, job)
	if err != nil {
		return nil, err
	}

	var payload []byte
	switch job.Params.Format {
	case models.ReportFormatPDF:
		payload, err = s.pdf.Render(dataset, title)
	case models.ReportFormatCSV:
		payload, err = s.csv.Render(dataset)
	default:
		return nil, fmt.Errorf("unsupported export format %q", job.Params.Format)
	}
	if err != nil {
		return nil, fmt.Errorf("render export: %w", err)
	}

	relPath, err := s.storage.Save(s.buildFilename(job), payload)
	if err != nil {
		return nil, fmt.Errorf("store export: %w", err)
	}

	token, expiresAt, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		return nil, fmt.Errorf("sign export url: %w", err)
	}

	return &ExportResult{
		RelPath:   relPath,
		URL:       fmt.Sprintf("%s/%s", strings.TrimRight(s.cfg.DownloadPathPrefix, "/"), token),
		ExpiresAt: expiresAt,
	}, nil
}

// ParseToken validates download token metadata.
func (s *ExportService) ParseToken(token string, allowExpired bool) (jobID, relPath string, expiresAt time.Time, err error) {
	return s.signer.Parse(token, allowExpired)
}

// Open opens a stored export file for streaming.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// Delete removes a stored export file.
func (s *ExportService) Delete(relPath string) error {
	return s.storage.Delete(relPath)
}

// Cleanup drops export files older than the TTL.
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	return s.storage.CleanupOlderThan(ttl)
}

func (s *ExportService) buildFilename(job *models.ReportJob) string {
	ext := "csv"
	if job.Params.Format == models.ReportFormatPDF {
		ext = "pdf"
	}
	return fmt.Sprintf("%s-%s.%s", job.Type, job.ID, ext)
}

func (s *ExportService) buildDataset(ctx context.Context, job *models.ReportJob) (export.Dataset, string, error) {
	switch job.Type {
	case models.ReportTypeArticles:
		return s.buildArticleDataset(ctx, job.Params)
	case models.ReportTypeCalendar:
		return s.buildCalendarDataset(ctx)
	default:
		return export.Dataset{}, "", fmt.Errorf("unsupported report type %q", job.Type)
	}
}

func (s *ExportService) buildArticleDataset(ctx context.Context, params models.ReportJobParams) (export.Dataset, string, error) {
	filter := models.ArticleFilter{
		Status:   params.Status,
		Category: params.Category,
		PageSize: 1000,
	}
	articles, _, err := s.articles.List(ctx, filter)
	if err != nil {
		return export.Dataset{}, "", fmt.Errorf("load articles for export: %w", err)
	}

	dataset := export.Dataset{
		Headers: []string{"ID", "Title", "Slug", "Category", "Tags", "Status", "Published", "Read Time", "Created At"},
		Rows:    make([]map[string]string, 0, len(articles)),
	}
	for _, a := range articles {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"ID":         a.ID,
			"Title":      a.Title,
			"Slug":       a.Slug,
			"Category":   a.Category,
			"Tags":       strings.Join(a.Tags, ", "),
			"Status":     string(a.Status),
			"Published":  formatExportTime(a.Date),
			"Read Time":  fmt.Sprintf("%d", a.ReadTime),
			"Created At": a.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return dataset, "Articles Export", nil
}

func (s *ExportService) buildCalendarDataset(ctx context.Context) (export.Dataset, string, error) {
	events, err := s.events.Load(ctx)
	if err != nil {
		return export.Dataset{}, "", fmt.Errorf("load calendar for export: %w", err)
	}

	dataset := export.Dataset{
		Headers: []string{"ID", "Title", "Scheduled Date", "Platform", "Type", "Article ID", "Status"},
		Rows:    make([]map[string]string, 0, len(events)),
	}
	for _, e := range events {
		status := string(e.Status)
		if status == "" {
			status = string(models.EventStatusScheduled)
		}
		dataset.Rows = append(dataset.Rows, map[string]string{
			"ID":             e.ID,
			"Title":          e.Title,
			"Scheduled Date": e.ScheduledDate.UTC().Format(time.RFC3339),
			"Platform":       string(e.Platform),
			"Type":           string(e.Type),
			"Article ID":     deref(e.ArticleID),
			"Status":         status,
		})
	}
	return dataset, "Content Calendar Export", nil
}

func deref(ptr *string) string {
	if ptr == nil {
		return ""
	}
	return *ptr
}

func formatExportTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
