package model

import (
	"time"

	"github.com/google/uuid"
)

// Job statuses.
const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Job is the report of a single reconciliation run.
// It is persisted to the job history and published as an event.
type Job struct {
	ID              uuid.UUID `json:"id"`
	TableName       string    `json:"table_name"`       // original upload filename
	SourceDirectory string    `json:"source_directory"` // directory searched for images
	TargetDirectory string    `json:"target_directory"` // directory images are copied to
	Status          string    `json:"status"`           // completed / failed
	Error           string    `json:"error,omitempty"`
	Result          Result    `json:"result"`
	CreatedAt       time.Time `json:"created_at"`
	FinishedAt      time.Time `json:"finished_at"`
}
