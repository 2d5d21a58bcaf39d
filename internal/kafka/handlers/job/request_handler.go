package job

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/segmentio/kafka-go"
	"github.com/wb-go/wbf/zlog"

	"github.com/aliskhannn/image-reconciler/internal/model"
	"github.com/aliskhannn/image-reconciler/internal/reconciler"
)

// ErrInvalidRequest is returned for request messages missing a required field.
var ErrInvalidRequest = errors.New("invalid reconcile request")

// service defines the interface for running jobs over stored tables.
type service interface {
	ReconcileTable(ctx context.Context, req model.ReconcileRequest) (model.Job, error)
}

// RequestHandler handles Kafka messages asking for a reconciliation job.
type RequestHandler struct {
	service service
}

// NewRequestHandler creates a new handler with the given service.
func NewRequestHandler(s service) *RequestHandler {
	return &RequestHandler{service: s}
}

// Handle decodes a reconcile request and runs the job.
// A table that fails mid-stream still yields a recorded, failed job, so it is
// not treated as a handler error; the message would fail again on redelivery.
func (h *RequestHandler) Handle(ctx context.Context, msg kafka.Message) error {
	var req model.ReconcileRequest
	if err := json.Unmarshal(msg.Value, &req); err != nil {
		return fmt.Errorf("unmarshal request: %w", err)
	}

	if strings.TrimSpace(req.TablePath) == "" {
		return fmt.Errorf("%w: table_path is required", ErrInvalidRequest)
	}
	if strings.TrimSpace(req.SourceDirectory) == "" {
		return fmt.Errorf("%w: source_directory is required", ErrInvalidRequest)
	}

	job, err := h.service.ReconcileTable(ctx, req)
	if err != nil {
		if errors.Is(err, reconciler.ErrStream) {
			zlog.Logger.Err(err).Str("job_id", job.ID.String()).Msg("reconcile request failed")
			return nil
		}

		return fmt.Errorf("reconcile table: %w", err)
	}

	zlog.Logger.Info().
		Str("job_id", job.ID.String()).
		Int("copied", len(job.Result.CopiedImages)).
		Int("not_found", len(job.Result.NotFoundImages)).
		Msg("reconcile request processed")

	return nil
}
