package job

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/wb-go/wbf/ginext"
	"github.com/wb-go/wbf/zlog"

	"github.com/aliskhannn/image-reconciler/internal/api/respond"
	"github.com/aliskhannn/image-reconciler/internal/model"
	"github.com/aliskhannn/image-reconciler/internal/processor"
	"github.com/aliskhannn/image-reconciler/internal/reconciler"
	jobrepo "github.com/aliskhannn/image-reconciler/internal/repository/job"
	jobsvc "github.com/aliskhannn/image-reconciler/internal/service/job"
	"github.com/aliskhannn/image-reconciler/internal/storage/file"
)

// Form fields of the upload request.
const (
	fieldFile      = "excelFile"
	fieldSourceDir = "sourceDirectory"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// allowedTypes are the content types accepted for the uploaded table.
var allowedTypes = map[string]bool{
	"application/vnd.ms-excel": true,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": true,
	"text/csv":        true,
	"application/csv": true,
}

var errInvalidType = errors.New("invalid file type, only Excel and CSV files are allowed")

// service defines the interface for reconciliation jobs.
type service interface {
	Reconcile(ctx context.Context, up jobsvc.Upload) (model.Job, error)
	GetJob(ctx context.Context, id uuid.UUID) (model.Job, error)
	ListJobs(ctx context.Context, limit int) ([]model.Job, error)
	Thumbnail(name string, width, height int) ([]byte, error)
}

// Handler provides HTTP handlers for reconciliation endpoints.
type Handler struct {
	service   service
	maxMemory int64
}

// NewHandler creates a new Handler. maxUploadMB bounds the part of a
// multipart upload held in memory, the rest spills to temporary files.
func NewHandler(s service, maxUploadMB int64) *Handler {
	return &Handler{service: s, maxMemory: maxUploadMB << 20}
}

// UploadResponse is returned when a table was processed to the end.
type UploadResponse struct {
	Message        string             `json:"message"`
	JobID          uuid.UUID          `json:"jobId"`
	CopiedCount    int                `json:"copiedCount"`
	NotFoundCount  int                `json:"notFoundCount"`
	SkippedCount   int                `json:"skippedCount"`
	CopiedImages   []string           `json:"copiedImages"`
	NotFoundImages []string           `json:"notFoundImages"`
	SkippedRows    []model.SkippedRow `json:"skippedRows"`
}

// ProcessingError is returned when the table could not be read to the end.
// It lists what was already copied before the failure.
type ProcessingError struct {
	Message        string    `json:"message"`
	Err            string    `json:"error"`
	JobID          uuid.UUID `json:"jobId"`
	CopiedImages   []string  `json:"copiedImages"`
	NotFoundImages []string  `json:"notFoundImages"`
}

// Upload handles the table upload: it validates the form, runs the
// reconciliation job and reports which images were copied and which were not
// found.
func (h *Handler) Upload(c *ginext.Context) {
	// A body that is not multipart simply carries no file.
	if err := c.Request.ParseMultipartForm(h.maxMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		zlog.Logger.Err(err).Msg("failed to parse multipart form")
		respond.Fail(c, http.StatusInternalServerError, "Error uploading file", err)
		return
	}

	file, header, err := c.Request.FormFile(fieldFile)
	if err != nil {
		if !errors.Is(err, http.ErrMissingFile) && !errors.Is(err, http.ErrNotMultipart) {
			zlog.Logger.Err(err).Msg("failed to read uploaded file")
		}
		respond.Fail(c, http.StatusBadRequest, "No file uploaded", nil)
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !allowedType(contentType) {
		zlog.Logger.Warn().Str("filename", header.Filename).Str("content_type", contentType).Msg("rejected upload")
		respond.Fail(c, http.StatusInternalServerError, "Error uploading file", errInvalidType)
		return
	}

	sourceDir := c.PostForm(fieldSourceDir)
	if strings.TrimSpace(sourceDir) == "" {
		respond.Fail(c, http.StatusBadRequest, "No source directory provided", nil)
		return
	}

	zlog.Logger.Info().
		Str("filename", header.Filename).
		Int64("size", header.Size).
		Str("source", sourceDir).
		Msg("table uploaded")

	job, err := h.service.Reconcile(c.Request.Context(), jobsvc.Upload{
		Filename:        header.Filename,
		ContentType:     contentType,
		File:            file,
		SourceDirectory: sourceDir,
	})
	if err != nil {
		if errors.Is(err, reconciler.ErrStream) {
			zlog.Logger.Err(err).Str("job_id", job.ID.String()).Msg("failed to process table")
			respond.JSON(c, http.StatusInternalServerError, ProcessingError{
				Message:        "Error processing file",
				Err:            err.Error(),
				JobID:          job.ID,
				CopiedImages:   nonNil(job.Result.CopiedImages),
				NotFoundImages: nonNil(job.Result.NotFoundImages),
			})
			return
		}

		zlog.Logger.Err(err).Msg("failed to run reconciliation")
		respond.Fail(c, http.StatusInternalServerError, "Error uploading file", err)
		return
	}

	res := job.Result
	respond.OK(c, UploadResponse{
		Message:        "File processed successfully",
		JobID:          job.ID,
		CopiedCount:    len(res.CopiedImages),
		NotFoundCount:  len(res.NotFoundImages),
		SkippedCount:   len(res.SkippedRows),
		CopiedImages:   nonNil(res.CopiedImages),
		NotFoundImages: nonNil(res.NotFoundImages),
		SkippedRows:    nonNilRows(res.SkippedRows),
	})
}

// Get returns the report of a recorded job.
func (h *Handler) Get(c *ginext.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respond.Fail(c, http.StatusBadRequest, "Invalid job id", err)
		return
	}

	job, err := h.service.GetJob(c.Request.Context(), id)
	if err != nil {
		h.historyError(c, err)
		return
	}

	respond.OK(c, job)
}

// List returns the most recent job reports. The limit query parameter
// defaults to 20 and is capped at 100.
func (h *Handler) List(c *ginext.Context) {
	limit := defaultListLimit
	if s := c.Query("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			respond.Fail(c, http.StatusBadRequest, "Invalid limit", nil)
			return
		}
		limit = min(n, maxListLimit)
	}

	jobs, err := h.service.ListJobs(c.Request.Context(), limit)
	if err != nil {
		h.historyError(c, err)
		return
	}

	respond.OK(c, jobs)
}

func (h *Handler) historyError(c *ginext.Context, err error) {
	switch {
	case errors.Is(err, jobsvc.ErrHistoryDisabled):
		respond.Fail(c, http.StatusServiceUnavailable, "Job history is disabled", nil)
	case errors.Is(err, jobrepo.ErrJobNotFound):
		respond.Fail(c, http.StatusNotFound, "Job not found", nil)
	default:
		zlog.Logger.Err(err).Msg("failed to read job history")
		respond.Fail(c, http.StatusInternalServerError, "Error reading job history", err)
	}
}

// Thumbnail serves a JPEG preview of an image in the target directory.
func (h *Handler) Thumbnail(c *ginext.Context) {
	width, err := sizeParam(c, "width")
	if err != nil {
		respond.Fail(c, http.StatusBadRequest, "Invalid width", err)
		return
	}
	height, err := sizeParam(c, "height")
	if err != nil {
		respond.Fail(c, http.StatusBadRequest, "Invalid height", err)
		return
	}

	data, err := h.service.Thumbnail(c.Param("name"), width, height)
	if err != nil {
		switch {
		case errors.Is(err, processor.ErrInvalidSize):
			respond.Fail(c, http.StatusBadRequest, "Invalid thumbnail size", err)
		case errors.Is(err, fs.ErrNotExist), errors.Is(err, file.ErrNotRegular):
			respond.Fail(c, http.StatusNotFound, "Image not found", nil)
		default:
			zlog.Logger.Err(err).Str("image", c.Param("name")).Msg("failed to render thumbnail")
			respond.Fail(c, http.StatusUnprocessableEntity, "Error rendering thumbnail", err)
		}
		return
	}

	// Copies are overwritten by later jobs, previews must not be cached.
	c.Header("Cache-Control", "no-cache, no-store, must-revalidate")
	respond.JPEG(c, http.StatusOK, data)
}

func sizeParam(c *ginext.Context, name string) (int, error) {
	s := c.Query(name)
	if s == "" {
		return processor.DefaultSize, nil
	}

	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}

	return n, nil
}

func allowedType(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}

	return allowedTypes[mediaType]
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}

	return s
}

func nonNilRows(s []model.SkippedRow) []model.SkippedRow {
	if s == nil {
		return []model.SkippedRow{}
	}

	return s
}
