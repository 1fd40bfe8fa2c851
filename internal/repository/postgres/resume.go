package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/xxkhanxx77/aura-poc-llm/internal/repository"
)

// ResumeRepo implements repository.ResumeRepository
type ResumeRepo struct {
	db *DB
}

// NewResumeRepo creates a new resume repository
func NewResumeRepo(db *DB) *ResumeRepo {
	return &ResumeRepo{db: db}
}

// Create creates a new resume
func (r *ResumeRepo) Create(ctx context.Context, resume *repository.Resume) error {
	query := `
		INSERT INTO resumes (id, tenant_id, candidate_name, email, raw_text, embedding_id, uploaded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.Pool.Exec(ctx, query,
		resume.ID, resume.TenantID, resume.CandidateName, resume.Email,
		resume.RawText, resume.EmbeddingID, resume.UploadedAt)
	if err != nil {
		return fmt.Errorf("failed to create resume: %w", err)
	}
	return nil
}

// GetByID retrieves a resume by ID, scoped to the tenant
func (r *ResumeRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*repository.Resume, error) {
	query := `
		SELECT id, tenant_id, candidate_name, COALESCE(email, ''), raw_text, embedding_id, uploaded_at
		FROM resumes
		WHERE id = $1 AND tenant_id = $2
	`

	var resume repository.Resume
	err := r.db.Pool.QueryRow(ctx, query, id, tenantID).Scan(
		&resume.ID, &resume.TenantID, &resume.CandidateName, &resume.Email,
		&resume.RawText, &resume.EmbeddingID, &resume.UploadedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get resume: %w", err)
	}

	return &resume, nil
}

// List retrieves all resumes for a tenant, newest first
func (r *ResumeRepo) List(ctx context.Context, tenantID uuid.UUID) ([]*repository.Resume, error) {
	query := `
		SELECT id, tenant_id, candidate_name, COALESCE(email, ''), raw_text, embedding_id, uploaded_at
		FROM resumes
		WHERE tenant_id = $1
		ORDER BY uploaded_at DESC
	`
	return r.queryResumes(ctx, query, tenantID)
}

// ListByIDs retrieves the given resumes, scoped to the tenant. IDs from
// other tenants or unknown IDs are silently absent from the result; callers
// decide whether that matters.
func (r *ResumeRepo) ListByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]*repository.Resume, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `
		SELECT id, tenant_id, candidate_name, COALESCE(email, ''), raw_text, embedding_id, uploaded_at
		FROM resumes
		WHERE tenant_id = $1 AND id = ANY($2)
	`
	return r.queryResumes(ctx, query, tenantID, ids)
}

func (r *ResumeRepo) queryResumes(ctx context.Context, query string, args ...any) ([]*repository.Resume, error) {
	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list resumes: %w", err)
	}
	defer rows.Close()

	var resumes []*repository.Resume
	for rows.Next() {
		var resume repository.Resume
		if err := rows.Scan(&resume.ID, &resume.TenantID, &resume.CandidateName,
			&resume.Email, &resume.RawText, &resume.EmbeddingID,
			&resume.UploadedAt); err != nil {
			return nil, fmt.Errorf("failed to scan resume: %w", err)
		}
		resumes = append(resumes, &resume)
	}

	return resumes, nil
}

// SetEmbeddingID records the vector store reference for a resume
func (r *ResumeRepo) SetEmbeddingID(ctx context.Context, tenantID, id uuid.UUID, embeddingID string) error {
	result, err := r.db.Pool.Exec(ctx,
		`UPDATE resumes SET embedding_id = $3 WHERE id = $1 AND tenant_id = $2`,
		id, tenantID, embeddingID)
	if err != nil {
		return fmt.Errorf("failed to set embedding id: %w", err)
	}
	if result.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Delete removes a resume. Screening results reference resumes with ON
// DELETE CASCADE, so they are removed in the same statement.
func (r *ResumeRepo) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	result, err := r.db.Pool.Exec(ctx,
		`DELETE FROM resumes WHERE id = $1 AND tenant_id = $2`,
		id, tenantID)
	if err != nil {
		return fmt.Errorf("failed to delete resume: %w", err)
	}
	if result.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Ensure ResumeRepo implements the interface
var _ repository.ResumeRepository = (*ResumeRepo)(nil)
