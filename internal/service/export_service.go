package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/school-portal-api/internal/dto"
	"github.com/noah-isme/school-portal-api/internal/models"
	"github.com/noah-isme/school-portal-api/internal/repository"
	appErrors "github.com/noah-isme/school-portal-api/pkg/errors"
	"github.com/noah-isme/school-portal-api/pkg/export"
	"github.com/noah-isme/school-portal-api/pkg/jobs"
)

const exportPrefix = "attendance"

type exportJobStore interface {
	Create(ctx context.Context, job *models.ExportJob) error
	GetByID(ctx context.Context, id string) (*models.ExportJob, error)
	Update(ctx context.Context, id string, params repository.ExportJobUpdate) error
	ListQueued(ctx context.Context, limit int) ([]models.ExportJob, error)
	ListFinishedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.ExportJob, error)
}

type exportDispatcher interface {
	Enqueue(job jobs.Job[string]) error
}

type exportFileStore interface {
	Save(key string, data []byte) (string, error)
	Open(key string) (*os.File, error)
	Delete(key string) error
	CleanupOlderThan(prefix string, ttl time.Duration) ([]string, error)
}

type downloadSigner interface {
	Generate(exportID, key string) (string, time.Time, error)
	Parse(token string) (exportID, key string, err error)
}

type attendanceHistorySource interface {
	History(ctx context.Context, filter models.AttendanceHistoryFilter) ([]models.AttendanceHistoryRow, error)
}

// ExportServiceConfig governs download links and cleanup.
type ExportServiceConfig struct {
	DownloadBaseURL string
	ResultTTL       time.Duration
	CleanupInterval time.Duration
}

// ExportDownload is a resolved export file ready for streaming.
type ExportDownload struct {
	File        *os.File
	Filename    string
	ContentType string
}

// ExportService manages the lifecycle of asynchronous attendance exports.
type ExportService struct {
	repo      exportJobStore
	queue     exportDispatcher
	files     exportFileStore
	signer    downloadSigner
	validator *Validator
	metrics   *MetricsService
	logger    *zap.Logger
	cfg       ExportServiceConfig
}

// NewExportService constructs the export service.
func NewExportService(repo exportJobStore, queue exportDispatcher, files exportFileStore, signer downloadSigner, validate *Validator, metrics *MetricsService, logger *zap.Logger, cfg ExportServiceConfig) *ExportService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if cfg.DownloadBaseURL == "" {
		cfg.DownloadBaseURL = "/exports/download"
	}
	return &ExportService{repo: repo, queue: queue, files: files, signer: signer, validator: validate, metrics: metrics, logger: logger, cfg: cfg}
}

// Create validates the request, persists a queued job and enqueues it.
func (s *ExportService) Create(ctx context.Context, req dto.ExportRequest, userID string) (*dto.ExportJobResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}
	start, _ := models.ParseDate(req.StartDate)
	end, _ := models.ParseDate(req.EndDate)
	if end.Before(start.Time) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "End date must not be before start date")
	}

	job := &models.ExportJob{
		Format:    req.Format,
		Params:    models.ExportParams{StartDate: req.StartDate, EndDate: req.EndDate, Class: strings.TrimSpace(req.Class)},
		Status:    models.ExportStatusQueued,
		CreatedBy: optionalString(userID),
	}
	if err := s.repo.Create(ctx, job); err != nil {
		s.logger.Error("create export job failed", zap.Error(err))
		return nil, appErrors.Internal(err, "failed to create export job")
	}
	if err := s.queue.Enqueue(jobs.Job[string]{ID: job.ID, Payload: job.ID}); err != nil {
		msg := "failed to enqueue job"
		s.finish(ctx, job.ID, models.ExportStatusFailed, nil, &msg)
		s.metrics.RecordExport(job.Format, string(models.ExportStatusFailed))
		return nil, appErrors.Internal(err, "failed to enqueue export job")
	}
	return &dto.ExportJobResponse{ID: job.ID, Status: job.Status, Progress: job.Progress}, nil
}

// Status exposes job progress and a fresh signed link for finished jobs.
func (s *ExportService) Status(ctx context.Context, id string) (*dto.ExportStatusResponse, error) {
	job, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := &dto.ExportStatusResponse{ID: job.ID, Format: job.Format, Status: job.Status, Progress: job.Progress, Error: job.Error}
	if job.Status == models.ExportStatusFinished {
		if job.StorageKey == nil || *job.StorageKey == "" {
			expired := "export file expired"
			resp.Error = &expired
			return resp, nil
		}
		token, expiresAt, err := s.signer.Generate(job.ID, *job.StorageKey)
		if err != nil {
			return nil, appErrors.Internal(err, "failed to sign download link")
		}
		url := strings.TrimRight(s.cfg.DownloadBaseURL, "/") + "/" + token
		resp.DownloadURL = &url
		resp.ExpiresAt = &expiresAt
	}
	return resp, nil
}

// ResolveDownload validates a signed token and opens the export file.
func (s *ExportService) ResolveDownload(ctx context.Context, token string) (*ExportDownload, error) {
	jobID, key, err := s.signer.Parse(token)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download token")
	}
	job, err := s.load(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.Status != models.ExportStatusFinished || job.StorageKey == nil || *job.StorageKey != key {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "export not available")
	}
	file, err := s.files.Open(key)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "Export file expired")
		}
		return nil, appErrors.Internal(err, "failed to open export file")
	}
	return &ExportDownload{File: file, Filename: path.Base(key), ContentType: export.Format(job.Format).ContentType()}, nil
}

// RecoverPending re-enqueues jobs left queued by a previous process.
func (s *ExportService) RecoverPending(ctx context.Context) {
	pending, err := s.repo.ListQueued(ctx, 50)
	if err != nil {
		s.logger.Warn("failed to recover queued export jobs", zap.Error(err))
		return
	}
	for _, job := range pending {
		if err := s.queue.Enqueue(jobs.Job[string]{ID: job.ID, Payload: job.ID}); err != nil {
			s.logger.Warn("failed to requeue export job", zap.String("job_id", job.ID), zap.Error(err))
		}
	}
}

// StartCleanup purges expired export files every CleanupInterval until ctx ends.
func (s *ExportService) StartCleanup(ctx context.Context) {
	if s.cfg.CleanupInterval <= 0 {
		return
	}
	ticker := time.NewTicker(s.cfg.CleanupInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Cleanup(ctx, time.Now())
			}
		}
	}()
}

// Cleanup deletes files of jobs finished more than ResultTTL before now, then
// sweeps stray files of the same age.
func (s *ExportService) Cleanup(ctx context.Context, now time.Time) {
	cutoff := now.Add(-s.cfg.ResultTTL)
	expired, err := s.repo.ListFinishedBefore(ctx, cutoff, 100)
	if err != nil {
		s.logger.Warn("export cleanup list failed", zap.Error(err))
		return
	}
	for _, job := range expired {
		if job.StorageKey == nil || *job.StorageKey == "" {
			continue
		}
		if err := s.files.Delete(*job.StorageKey); err != nil {
			s.logger.Warn("export cleanup delete failed", zap.String("job_id", job.ID), zap.Error(err))
			continue
		}
		empty := ""
		if err := s.repo.Update(ctx, job.ID, repository.ExportJobUpdate{StorageKey: &empty}); err != nil {
			s.logger.Warn("export cleanup update failed", zap.String("job_id", job.ID), zap.Error(err))
		}
	}
	if _, err := s.files.CleanupOlderThan(exportPrefix, s.cfg.ResultTTL); err != nil {
		s.logger.Warn("export filesystem cleanup failed", zap.Error(err))
	}
}

func (s *ExportService) load(ctx context.Context, id string) (*models.ExportJob, error) {
	job, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "Export not found")
		}
		return nil, appErrors.Internal(err, "failed to load export job")
	}
	return job, nil
}

func (s *ExportService) finish(ctx context.Context, id string, status models.ExportStatus, key, msg *string) {
	progress := 100
	now := time.Now().UTC()
	if err := s.repo.Update(ctx, id, repository.ExportJobUpdate{Status: &status, Progress: &progress, StorageKey: key, Error: msg, FinishedAt: &now}); err != nil {
		s.logger.Warn("failed to finalise export job", zap.String("job_id", id), zap.Error(err))
	}
}

// ExportWorker renders queued export jobs.
type ExportWorker struct {
	repo      exportJobStore
	history   attendanceHistorySource
	files     exportFileStore
	renderers export.Renderers
	metrics   *MetricsService
	logger    *zap.Logger
}

// NewExportWorker constructs a worker; nil renderers means every built-in format.
func NewExportWorker(repo exportJobStore, history attendanceHistorySource, files exportFileStore, renderers export.Renderers, metrics *MetricsService, logger *zap.Logger) *ExportWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if renderers == nil {
		renderers = export.DefaultRenderers()
	}
	return &ExportWorker{repo: repo, history: history, files: files, renderers: renderers, metrics: metrics, logger: logger}
}

// Handle processes one queued job. Returning an error lets the queue retry.
func (w *ExportWorker) Handle(ctx context.Context, job jobs.Job[string]) error {
	record, err := w.repo.GetByID(ctx, job.Payload)
	if err != nil {
		return fmt.Errorf("load export job: %w", err)
	}
	if record.Status == models.ExportStatusFinished || record.Status == models.ExportStatusFailed {
		return nil
	}
	processing := models.ExportStatusProcessing
	progress := 10
	if err := w.repo.Update(ctx, record.ID, repository.ExportJobUpdate{Status: &processing, Progress: &progress}); err != nil {
		return fmt.Errorf("mark export processing: %w", err)
	}

	dataset, err := w.dataset(ctx, record.Params)
	if err != nil {
		return err
	}
	payload, err := w.renderers.Render(export.Format(record.Format), dataset)
	if err != nil {
		return fmt.Errorf("render export: %w", err)
	}
	key, err := w.files.Save(path.Join(exportPrefix, record.ID+"."+record.Format), payload)
	if err != nil {
		return fmt.Errorf("save export: %w", err)
	}

	finished := models.ExportStatusFinished
	progress = 100
	now := time.Now().UTC()
	noError := ""
	if err := w.repo.Update(ctx, record.ID, repository.ExportJobUpdate{
		Status:     &finished,
		Progress:   &progress,
		StorageKey: &key,
		Error:      &noError,
		FinishedAt: &now,
	}); err != nil {
		return fmt.Errorf("mark export finished: %w", err)
	}
	w.metrics.RecordExport(record.Format, string(finished))
	w.logger.Info("attendance export finished", zap.String("job_id", record.ID), zap.Int("rows", len(dataset.Rows)))
	return nil
}

// OnFailure marks a job failed once the queue has given up on it.
func (w *ExportWorker) OnFailure(ctx context.Context, job jobs.Job[string], cause error) {
	failed := models.ExportStatusFailed
	progress := 100
	now := time.Now().UTC()
	msg := cause.Error()
	if err := w.repo.Update(context.WithoutCancel(ctx), job.Payload, repository.ExportJobUpdate{
		Status:     &failed,
		Progress:   &progress,
		Error:      &msg,
		FinishedAt: &now,
	}); err != nil {
		w.logger.Warn("failed to mark export failed", zap.String("job_id", job.Payload), zap.Error(err))
	}
	format := ""
	if record, err := w.repo.GetByID(context.WithoutCancel(ctx), job.Payload); err == nil {
		format = record.Format
	}
	w.metrics.RecordExport(format, string(failed))
}

func (w *ExportWorker) dataset(ctx context.Context, params models.ExportParams) (export.Dataset, error) {
	start, err := models.ParseDate(params.StartDate)
	if err != nil {
		return export.Dataset{}, err
	}
	end, err := models.ParseDate(params.EndDate)
	if err != nil {
		return export.Dataset{}, err
	}
	rows, err := w.history.History(ctx, models.AttendanceHistoryFilter{StartDate: start, EndDate: end, Class: params.Class})
	if err != nil {
		return export.Dataset{}, fmt.Errorf("load attendance: %w", err)
	}

	title := fmt.Sprintf("Attendance %s to %s", params.StartDate, params.EndDate)
	if params.Class != "" {
		title += " (" + params.Class + ")"
	}
	data := export.Dataset{
		Title:   title,
		Headers: []string{"Date", "Student ID", "Name", "Class", "Roll No", "Status", "Notes"},
		Rows:    make([][]string, 0, len(rows)),
	}
	for _, r := range rows {
		data.Rows = append(data.Rows, []string{
			r.Date.String(),
			r.StudentCode,
			r.StudentName,
			r.Class,
			deref(r.RollNumber),
			string(r.Status),
			deref(r.Notes),
		})
	}
	return data, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
