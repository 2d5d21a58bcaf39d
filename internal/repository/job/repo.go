package job

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/wb-go/wbf/dbpg"

	"github.com/aliskhannn/image-reconciler/internal/model"
)

var ErrJobNotFound = errors.New("job not found")

// Repository stores reconciliation job reports in the database.
type Repository struct {
	db *dbpg.DB
}

// NewRepository creates a new Repository with the given DB connection.
func NewRepository(db *dbpg.DB) *Repository {
	return &Repository{db: db}
}

// SaveJob inserts a job report.
func (r *Repository) SaveJob(ctx context.Context, job model.Job) error {
	query := `
		INSERT INTO jobs (id, table_name, source_directory, target_directory, status, error, result, created_at, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
    `

	resultJSON, err := json.Marshal(job.Result)
	if err != nil {
		return fmt.Errorf("save: failed to marshal result: %w", err)
	}

	_, err = r.db.ExecContext(
		ctx, query,
		job.ID, job.TableName, job.SourceDirectory, job.TargetDirectory,
		job.Status, job.Error, resultJSON, job.CreatedAt, job.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("save: failed to save job: %w", err)
	}

	return nil
}

// GetJob retrieves a job report by ID.
func (r *Repository) GetJob(ctx context.Context, id uuid.UUID) (model.Job, error) {
	query := `
		SELECT id, table_name, source_directory, target_directory, status, error, result, created_at, finished_at
		FROM jobs
		WHERE id = $1
    `

	job, err := scanJob(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Job{}, ErrJobNotFound
		}

		return model.Job{}, fmt.Errorf("get: failed to get job: %w", err)
	}

	return job, nil
}

// ListJobs returns the most recent job reports, newest first.
func (r *Repository) ListJobs(ctx context.Context, limit int) ([]model.Job, error) {
	query := `
		SELECT id, table_name, source_directory, target_directory, status, error, result, created_at, finished_at
		FROM jobs
		ORDER BY created_at DESC
		LIMIT $1
    `

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list: failed to query jobs: %w", err)
	}
	defer rows.Close()

	jobs := make([]model.Job, 0, limit)
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("list: failed to scan job: %w", err)
		}
		jobs = append(jobs, job)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list: failed to iterate jobs: %w", err)
	}

	return jobs, nil
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanJob(s scanner) (model.Job, error) {
	var (
		job        model.Job
		resultJSON []byte
	)

	err := s.Scan(
		&job.ID, &job.TableName, &job.SourceDirectory, &job.TargetDirectory,
		&job.Status, &job.Error, &resultJSON, &job.CreatedAt, &job.FinishedAt,
	)
	if err != nil {
		return model.Job{}, err
	}

	job.Result = model.NewResult()
	if err := json.Unmarshal(resultJSON, &job.Result); err != nil {
		return model.Job{}, fmt.Errorf("failed to unmarshal result: %w", err)
	}

	return job, nil
}
