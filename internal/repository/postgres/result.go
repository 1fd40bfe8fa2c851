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

// ResultRepo implements repository.ResultRepository
type ResultRepo struct {
	db *DB
}

// NewResultRepo creates a new screening result repository
func NewResultRepo(db *DB) *ResultRepo {
	return &ResultRepo{db: db}
}

// Upsert inserts a screening result or replaces the scored fields of the
// existing (job, resume) row. The unique constraint on (job_id, resume_id)
// makes this a single atomic statement: two racing upserts for the same
// pair leave exactly one row, written by whichever lands second.
func (r *ResultRepo) Upsert(ctx context.Context, result *repository.ScreeningResult) error {
	strengthsJSON, err := json.Marshal(result.Strengths)
	if err != nil {
		return fmt.Errorf("failed to marshal strengths: %w", err)
	}
	weaknessesJSON, err := json.Marshal(result.Weaknesses)
	if err != nil {
		return fmt.Errorf("failed to marshal weaknesses: %w", err)
	}

	query := `
		INSERT INTO screening_results (
			id, tenant_id, job_id, resume_id, score, strengths, weaknesses,
			reasoning, experience_match, skills_match, model_used, prompt_version,
			tokens_used, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NOW(), NOW())
		ON CONFLICT (job_id, resume_id) DO UPDATE SET
			score = EXCLUDED.score,
			strengths = EXCLUDED.strengths,
			weaknesses = EXCLUDED.weaknesses,
			reasoning = EXCLUDED.reasoning,
			experience_match = EXCLUDED.experience_match,
			skills_match = EXCLUDED.skills_match,
			model_used = EXCLUDED.model_used,
			prompt_version = EXCLUDED.prompt_version,
			tokens_used = EXCLUDED.tokens_used,
			updated_at = NOW()
		RETURNING id, created_at, updated_at
	`

	err = r.db.Pool.QueryRow(ctx, query,
		result.ID, result.TenantID, result.JobID, result.ResumeID,
		result.Score, strengthsJSON, weaknessesJSON, result.Reasoning,
		result.ExperienceMatch, result.SkillsMatch, result.ModelUsed,
		result.PromptVersion, result.TokensUsed,
	).Scan(&result.ID, &result.CreatedAt, &result.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert screening result: %w", err)
	}
	return nil
}

// GetByID retrieves a screening result by ID, scoped to the tenant
func (r *ResultRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*repository.ScreeningResult, error) {
	query := `
		SELECT sr.id, sr.tenant_id, sr.job_id, sr.resume_id, res.candidate_name,
		       sr.score, sr.strengths, sr.weaknesses, sr.reasoning,
		       sr.experience_match, sr.skills_match, sr.model_used,
		       sr.prompt_version, sr.tokens_used, sr.created_at, sr.updated_at
		FROM screening_results sr
		JOIN resumes res ON res.id = sr.resume_id
		WHERE sr.id = $1 AND sr.tenant_id = $2
	`

	result, err := scanResult(r.db.Pool.QueryRow(ctx, query, id, tenantID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get screening result: %w", err)
	}
	return result, nil
}

// ListByJob retrieves all results for a job with candidate names attached,
// ranked by score with earlier submissions first on ties.
func (r *ResultRepo) ListByJob(ctx context.Context, tenantID, jobID uuid.UUID) ([]*repository.ScreeningResult, error) {
	query := `
		SELECT sr.id, sr.tenant_id, sr.job_id, sr.resume_id, res.candidate_name,
		       sr.score, sr.strengths, sr.weaknesses, sr.reasoning,
		       sr.experience_match, sr.skills_match, sr.model_used,
		       sr.prompt_version, sr.tokens_used, sr.created_at, sr.updated_at
		FROM screening_results sr
		JOIN resumes res ON res.id = sr.resume_id
		WHERE sr.job_id = $1 AND sr.tenant_id = $2
		ORDER BY sr.score DESC, sr.created_at ASC
	`
	rows, err := r.db.Pool.Query(ctx, query, jobID, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list screening results: %w", err)
	}
	defer rows.Close()

	var results []*repository.ScreeningResult
	for rows.Next() {
		result, err := scanResult(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan screening result: %w", err)
		}
		results = append(results, result)
	}

	return results, nil
}

// scanResult reads one joined result row from either a Row or Rows scanner.
func scanResult(row pgx.Row) (*repository.ScreeningResult, error) {
	var result repository.ScreeningResult
	var strengthsJSON, weaknessesJSON []byte

	err := row.Scan(
		&result.ID, &result.TenantID, &result.JobID, &result.ResumeID,
		&result.CandidateName, &result.Score, &strengthsJSON, &weaknessesJSON,
		&result.Reasoning, &result.ExperienceMatch, &result.SkillsMatch,
		&result.ModelUsed, &result.PromptVersion, &result.TokensUsed,
		&result.CreatedAt, &result.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(strengthsJSON, &result.Strengths); err != nil {
		return nil, fmt.Errorf("failed to unmarshal strengths: %w", err)
	}
	if err := json.Unmarshal(weaknessesJSON, &result.Weaknesses); err != nil {
		return nil, fmt.Errorf("failed to unmarshal weaknesses: %w", err)
	}

	return &result, nil
}

// Ensure ResultRepo implements the interface
var _ repository.ResultRepository = (*ResultRepo)(nil)
