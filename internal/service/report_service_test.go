package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ai-wes/fhj-content-api/internal/dto"
	"github.com/ai-wes/fhj-content-api/internal/models"
	"github.com/ai-wes/fhj-content-api/internal/repository"
	appErrors "github.com/ai-wes/fhj-content-api/pkg/errors"
	"github.com/ai-wes/fhj-content-api/pkg/jobs"
)

type mockReportStore struct {
	jobsByID map[string]*models.ReportJob
	updates  []repository.UpdateReportJobParams
}

func (m *mockReportStore) Create(ctx context.Context, job *models.ReportJob) error {
	if m.jobsByID == nil {
		m.jobsByID = make(map[string]*models.ReportJob)
	}
	if job.ID == "" {
		job.ID = "job-generated"
	}
	m.jobsByID[job.ID] = job
	return nil
}

func (m *mockReportStore) GetByID(ctx context.Context, id string) (*models.ReportJob, error) {
	job, ok := m.jobsByID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return job, nil
}

func (m *mockReportStore) Update(ctx context.Context, id string, params repository.UpdateReportJobParams) error {
	m.updates = append(m.updates, params)
	job, ok := m.jobsByID[id]
	if !ok {
		return sql.ErrNoRows
	}
	if params.Status != nil {
		job.Status = *params.Status
	}
	if params.Progress != nil {
		job.Progress = *params.Progress
	}
	if params.ResultURL != nil {
		job.ResultURL = params.ResultURL
	}
	if params.ErrorMessage != nil {
		job.ErrorMessage = params.ErrorMessage
	}
	if params.FinishedAt != nil {
		job.FinishedAt = params.FinishedAt
	}
	return nil
}

func (m *mockReportStore) ListQueued(ctx context.Context, limit int) ([]models.ReportJob, error) {
	var queued []models.ReportJob
	for _, job := range m.jobsByID {
		if job.Status == models.ReportStatusQueued {
			queued = append(queued, *job)
		}
	}
	return queued, nil
}

func (m *mockReportStore) ListFinishedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.ReportJob, error) {
	return nil, nil
}

type mockDispatcher struct {
	enqueued []jobs.Job
	err      error
}

func (m *mockDispatcher) Enqueue(job jobs.Job) error {
	if m.err != nil {
		return m.err
	}
	m.enqueued = append(m.enqueued, job)
	return nil
}

type mockGenerator struct {
	result *ExportResult
	err    error
	calls  int
}

func (m *mockGenerator) Generate(ctx context.Context, job *models.ReportJob) (*ExportResult, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

func TestReportServiceCreateJobEnqueues(t *testing.T) {
	store := &mockReportStore{}
	queue := &mockDispatcher{}
	svc := NewReportService(store, queue, nil, validator.New(), zap.NewNop(), ReportServiceConfig{})

	resp, err := svc.CreateJob(context.Background(), dto.ReportRequest{
		Type:   "articles",
		Format: "csv",
	}, "editor-1")
	require.NoError(t, err)
	assert.Equal(t, string(models.ReportStatusQueued), resp.Status)
	require.Len(t, queue.enqueued, 1)
	assert.Equal(t, resp.ID, queue.enqueued[0].ID)
	assert.Equal(t, "editor-1", store.jobsByID[resp.ID].CreatedBy)
}

func TestReportServiceCreateJobRejectsBadType(t *testing.T) {
	svc := NewReportService(&mockReportStore{}, &mockDispatcher{}, nil, validator.New(), zap.NewNop(), ReportServiceConfig{})

	_, err := svc.CreateJob(context.Background(), dto.ReportRequest{
		Type:   "podcasts",
		Format: "csv",
	}, "editor-1")
	require.Error(t, err)
}

func TestReportServiceCreateJobEnqueueFailureMarksFailed(t *testing.T) {
	store := &mockReportStore{}
	queue := &mockDispatcher{err: errors.New("queue stopped")}
	svc := NewReportService(store, queue, nil, validator.New(), zap.NewNop(), ReportServiceConfig{})

	_, err := svc.CreateJob(context.Background(), dto.ReportRequest{
		Type:   "calendar",
		Format: "pdf",
	}, "editor-1")
	require.Error(t, err)
	job := store.jobsByID["job-generated"]
	require.NotNil(t, job)
	assert.Equal(t, models.ReportStatusFailed, job.Status)
}

func TestReportServiceGetStatusEnforcesOwnership(t *testing.T) {
	store := &mockReportStore{jobsByID: map[string]*models.ReportJob{
		"job-1": {ID: "job-1", Status: models.ReportStatusFinished, CreatedBy: "editor-1"},
	}}
	svc := NewReportService(store, &mockDispatcher{}, nil, validator.New(), zap.NewNop(), ReportServiceConfig{})

	_, err := svc.GetStatus(context.Background(), "job-1", "editor-2", models.RoleEditor)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)

	resp, err := svc.GetStatus(context.Background(), "job-1", "admin-1", models.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, string(models.ReportStatusFinished), resp.Status)
}

func TestReportWorkerHandleSuccess(t *testing.T) {
	store := &mockReportStore{jobsByID: map[string]*models.ReportJob{
		"job-1": {ID: "job-1", Type: models.ReportTypeArticles, Status: models.ReportStatusQueued},
	}}
	gen := &mockGenerator{result: &ExportResult{URL: "/api/v1/reports/download/tok"}}
	worker := NewReportWorker(store, gen, 3, zap.NewNop())

	require.NoError(t, worker.Handle(context.Background(), jobs.Job{ID: "job-1"}))
	job := store.jobsByID["job-1"]
	assert.Equal(t, models.ReportStatusFinished, job.Status)
	assert.Equal(t, 100, job.Progress)
	require.NotNil(t, job.ResultURL)
	assert.Equal(t, "/api/v1/reports/download/tok", *job.ResultURL)
}

func TestReportWorkerHandleRetriesThenFails(t *testing.T) {
	store := &mockReportStore{jobsByID: map[string]*models.ReportJob{
		"job-1": {ID: "job-1", Type: models.ReportTypeArticles, Status: models.ReportStatusQueued},
	}}
	gen := &mockGenerator{err: errors.New("render blew up")}
	worker := NewReportWorker(store, gen, 2, zap.NewNop())

	err := worker.Handle(context.Background(), jobs.Job{ID: "job-1", Attempt: 0})
	require.Error(t, err)
	assert.Equal(t, models.ReportStatusQueued, store.jobsByID["job-1"].Status)

	err = worker.Handle(context.Background(), jobs.Job{ID: "job-1", Attempt: 2})
	require.Error(t, err)
	job := store.jobsByID["job-1"]
	assert.Equal(t, models.ReportStatusFailed, job.Status)
	require.NotNil(t, job.ErrorMessage)
	assert.Contains(t, *job.ErrorMessage, "render blew up")
}

func TestReportServiceRecoverPendingJobs(t *testing.T) {
	store := &mockReportStore{jobsByID: map[string]*models.ReportJob{
		"job-1": {ID: "job-1", Status: models.ReportStatusQueued},
		"job-2": {ID: "job-2", Status: models.ReportStatusFinished},
	}}
	queue := &mockDispatcher{}
	svc := NewReportService(store, queue, nil, validator.New(), zap.NewNop(), ReportServiceConfig{})

	svc.RecoverPendingJobs(context.Background())
	require.Len(t, queue.enqueued, 1)
	assert.Equal(t, "job-1", queue.enqueued[0].ID)
}
