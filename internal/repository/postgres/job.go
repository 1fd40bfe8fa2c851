package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/xxkhanxx77/aura-poc-llm/internal/repository"
)

// JobRepo implements repository.JobRepository
type JobRepo struct {
	db *DB
}

// NewJobRepo creates a new job repository
func NewJobRepo(db *DB) *JobRepo {
	return &JobRepo{db: db}
}

// Create creates a new job
func (r *JobRepo) Create(ctx context.Context, job *repository.Job) error {
	requirementsJSON, err := json.Marshal(job.Requirements)
	if err != nil {
		return fmt.Errorf("failed to marshal requirements: %w", err)
	}

	query := `
		INSERT INTO jobs (id, tenant_id, title, description, requirements, embedding_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err = r.db.Pool.Exec(ctx, query,
		job.ID, job.TenantID, job.Title, job.Description, requirementsJSON,
		job.EmbeddingID, job.Status, job.CreatedAt, job.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}
	return nil
}

// GetByID retrieves a job by ID, scoped to the tenant
func (r *JobRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*repository.Job, error) {
	query := `
		SELECT id, tenant_id, title, description, requirements, embedding_id, status, created_at, updated_at
		FROM jobs
		WHERE id = $1 AND tenant_id = $2
	`

	var job repository.Job
	var requirementsJSON []byte

	err := r.db.Pool.QueryRow(ctx, query, id, tenantID).Scan(
		&job.ID, &job.TenantID, &job.Title, &job.Description, &requirementsJSON,
		&job.EmbeddingID, &job.Status, &job.CreatedAt, &job.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	if err := json.Unmarshal(requirementsJSON, &job.Requirements); err != nil {
		return nil, fmt.Errorf("failed to unmarshal requirements: %w", err)
	}

	return &job, nil
}

// List retrieves all jobs for a tenant, newest first
func (r *JobRepo) List(ctx context.Context, tenantID uuid.UUID) ([]*repository.Job, error) {
	query := `
		SELECT id, tenant_id, title, description, requirements, embedding_id, status, created_at, updated_at
		FROM jobs
		WHERE tenant_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.db.Pool.Query(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*repository.Job
	for rows.Next() {
		var job repository.Job
		var requirementsJSON []byte
		if err := rows.Scan(&job.ID, &job.TenantID, &job.Title, &job.Description,
			&requirementsJSON, &job.EmbeddingID, &job.Status,
			&job.CreatedAt, &job.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}
		if err := json.Unmarshal(requirementsJSON, &job.Requirements); err != nil {
			return nil, fmt.Errorf("failed to unmarshal requirements: %w", err)
		}
		jobs = append(jobs, &job)
	}

	return jobs, nil
}

// Update rewrites a job's editable fields. Callers re-embed and re-fingerprint
// after a description change; stored results are untouched.
func (r *JobRepo) Update(ctx context.Context, job *repository.Job) error {
	requirementsJSON, err := json.Marshal(job.Requirements)
	if err != nil {
		return fmt.Errorf("failed to marshal requirements: %w", err)
	}

	query := `
		UPDATE jobs
		SET title = $3, description = $4, requirements = $5, status = $6, updated_at = NOW()
		WHERE id = $1 AND tenant_id = $2
	`
	result, err := r.db.Pool.Exec(ctx, query,
		job.ID, job.TenantID, job.Title, job.Description, requirementsJSON, job.Status)
	if err != nil {
		return fmt.Errorf("failed to update job: %w", err)
	}
	if result.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// SetEmbeddingID records the vector store reference for a job's description
func (r *JobRepo) SetEmbeddingID(ctx context.Context, tenantID, id uuid.UUID, embeddingID string) error {
	result, err := r.db.Pool.Exec(ctx,
		`UPDATE jobs SET embedding_id = $3, updated_at = NOW() WHERE id = $1 AND tenant_id = $2`,
		id, tenantID, embeddingID)
	if err != nil {
		return fmt.Errorf("failed to set embedding id: %w", err)
	}
	if result.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Ensure JobRepo implements the interface
var _ repository.JobRepository = (*JobRepo)(nil)
