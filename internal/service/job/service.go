package job

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/wb-go/wbf/zlog"

	"github.com/aliskhannn/image-reconciler/internal/model"
	"github.com/aliskhannn/image-reconciler/internal/reconciler"
	"github.com/aliskhannn/image-reconciler/internal/table"
)

// ErrHistoryDisabled is returned by history lookups when no repository is configured.
var ErrHistoryDisabled = errors.New("job history is disabled")

// stagingStorage stores uploaded tables before they are read.
type stagingStorage interface {
	Save(filename string, src io.Reader) (string, error)
}

// imageReconciler runs the copy job over a stream of rows.
type imageReconciler interface {
	Reconcile(ctx context.Context, rows reconciler.RowReader, sourceDir string) (model.Result, error)
	TargetDir() string
}

// processor renders image previews.
type processor interface {
	Thumbnail(filename string, width, height int) ([]byte, error)
}

// repository persists job reports.
type repository interface {
	SaveJob(ctx context.Context, job model.Job) error
	GetJob(ctx context.Context, id uuid.UUID) (model.Job, error)
	ListJobs(ctx context.Context, limit int) ([]model.Job, error)
}

// publisher announces finished jobs.
type publisher interface {
	Publish(ctx context.Context, job model.Job) error
}

// Upload is an uploaded table together with the directory to search.
type Upload struct {
	Filename        string
	ContentType     string
	File            io.Reader
	SourceDirectory string
}

// Service provides business logic for reconciliation jobs.
// It stages uploads, runs the reconciler, and records the outcome.
type Service struct {
	staging    stagingStorage
	reconciler imageReconciler
	processor  processor
	repo       repository
	publisher  publisher
	now        func() time.Time
}

// Option configures optional Service backends.
type Option func(*Service)

// WithRepository keeps a history of finished jobs in r.
func WithRepository(r repository) Option {
	return func(s *Service) {
		s.repo = r
	}
}

// WithPublisher announces finished jobs through p.
func WithPublisher(p publisher) Option {
	return func(s *Service) {
		s.publisher = p
	}
}

// NewService creates a new Service.
func NewService(staging stagingStorage, r imageReconciler, p processor, opts ...Option) *Service {
	s := &Service{
		staging:    staging,
		reconciler: r,
		processor:  p,
		now:        func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Reconcile stages the uploaded table and copies every image it references
// from the upload's source directory into the target directory.
//
// Table read failures return the failed job together with an error wrapping
// reconciler.ErrStream; the job still carries the rows processed before the
// failure. Any other error means no job was run.
func (s *Service) Reconcile(ctx context.Context, up Upload) (model.Job, error) {
	job := model.Job{
		ID:              uuid.New(),
		TableName:       up.Filename,
		SourceDirectory: up.SourceDirectory,
		TargetDirectory: s.reconciler.TargetDir(),
		Result:          model.NewResult(),
		CreatedAt:       s.now(),
	}

	// Stage under a unique name so concurrent uploads never collide.
	staged := job.ID.String() + strings.ToLower(filepath.Ext(up.Filename))
	path, err := s.staging.Save(staged, up.File)
	if err != nil {
		return model.Job{}, fmt.Errorf("upload: failed to stage table: %w", err)
	}

	return s.execute(ctx, job, path, table.FormatFor(up.ContentType, up.Filename))
}

// ReconcileTable runs a job over a table that is already on local disk, such
// as one dropped by a batch pipeline. The file is read in place.
func (s *Service) ReconcileTable(ctx context.Context, req model.ReconcileRequest) (model.Job, error) {
	format := table.FormatFor("", req.TablePath)
	if req.Format != "" {
		f, err := table.ParseFormat(req.Format)
		if err != nil {
			return model.Job{}, err
		}
		format = f
	}

	job := model.Job{
		ID:              uuid.New(),
		TableName:       filepath.Base(req.TablePath),
		SourceDirectory: req.SourceDirectory,
		TargetDirectory: s.reconciler.TargetDir(),
		Result:          model.NewResult(),
		CreatedAt:       s.now(),
	}

	return s.execute(ctx, job, req.TablePath, format)
}

// execute runs the reconciler over the table at path and records the outcome.
func (s *Service) execute(ctx context.Context, job model.Job, path string, format table.Format) (model.Job, error) {
	zlog.Logger.Info().
		Str("job_id", job.ID.String()).
		Str("table", job.TableName).
		Str("path", path).
		Str("source", job.SourceDirectory).
		Msg("reconciliation started")

	var err error
	job.Result, err = s.run(ctx, path, format, job.SourceDirectory)
	job.FinishedAt = s.now()
	job.Status = model.StatusCompleted
	if err != nil {
		job.Status = model.StatusFailed
		job.Error = err.Error()
	}

	s.record(ctx, job)

	return job, err
}

func (s *Service) run(ctx context.Context, path string, format table.Format, sourceDir string) (model.Result, error) {
	rows, err := table.Open(path, format)
	if err != nil {
		return model.NewResult(), fmt.Errorf("%w: %w", reconciler.ErrStream, err)
	}
	defer rows.Close()

	return s.reconciler.Reconcile(ctx, rows, sourceDir)
}

// record persists and publishes the job. Failures are logged only, the caller
// already has the result.
func (s *Service) record(ctx context.Context, job model.Job) {
	// The request may be gone by now, the report is still worth keeping.
	ctx = context.WithoutCancel(ctx)

	if s.repo != nil {
		if err := s.repo.SaveJob(ctx, job); err != nil {
			zlog.Logger.Err(err).Str("job_id", job.ID.String()).Msg("failed to save job")
		}
	}

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, job); err != nil {
			zlog.Logger.Err(err).Str("job_id", job.ID.String()).Msg("failed to publish job")
		}
	}
}

// GetJob returns a previously recorded job.
func (s *Service) GetJob(ctx context.Context, id uuid.UUID) (model.Job, error) {
	if s.repo == nil {
		return model.Job{}, ErrHistoryDisabled
	}

	return s.repo.GetJob(ctx, id)
}

// ListJobs returns up to limit recorded jobs, newest first.
func (s *Service) ListJobs(ctx context.Context, limit int) ([]model.Job, error) {
	if s.repo == nil {
		return nil, ErrHistoryDisabled
	}

	return s.repo.ListJobs(ctx, limit)
}

// Thumbnail returns a JPEG preview of an image in the target directory.
func (s *Service) Thumbnail(name string, width, height int) ([]byte, error) {
	return s.processor.Thumbnail(reconciler.ImageName(name), width, height)
}
