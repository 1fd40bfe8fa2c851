// Package repository defines domain models and data access interfaces for
// tenants, jobs, resumes, screening results, and feedback.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/xxkhanxx77/aura-poc-llm/internal/scoring"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// Job lifecycle states
const (
	JobStatusActive = "active"
	JobStatusClosed = "closed"
)

// Tenant represents a tenant in the system. Every job, resume, and result
// belongs to exactly one tenant; no layer shares data across tenants.
type Tenant struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Plan      string    `json:"plan"`
	APIKey    string    `json:"api_key,omitempty"`
	LLMBudget int64     `json:"llm_budget"` // monthly generative call budget
	CreatedAt time.Time `json:"created_at"`
}

// Job represents a job description that resumes are screened against
type Job struct {
	ID           uuid.UUID `json:"id"`
	TenantID     uuid.UUID `json:"tenant_id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Requirements []string  `json:"requirements"`
	EmbeddingID  string    `json:"embedding_id,omitempty"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Resume represents one candidate's uploaded resume
type Resume struct {
	ID            uuid.UUID `json:"id"`
	TenantID      uuid.UUID `json:"tenant_id"`
	CandidateName string    `json:"candidate_name"`
	Email         string    `json:"email,omitempty"`
	RawText       string    `json:"raw_text"`
	EmbeddingID   string    `json:"embedding_id,omitempty"`
	UploadedAt    time.Time `json:"uploaded_at"`
}

// ScreeningResult is the persisted outcome of scoring one resume against
// one job. At most one exists per (job, resume) pair; re-scoring replaces
// the scored fields in place.
type ScreeningResult struct {
	ID              uuid.UUID          `json:"id"`
	TenantID        uuid.UUID          `json:"tenant_id"`
	JobID           uuid.UUID          `json:"job_id"`
	ResumeID        uuid.UUID          `json:"resume_id"`
	CandidateName   string             `json:"candidate_name,omitempty"` // populated on joined reads, not stored
	Score           int                `json:"score"`
	Strengths       []scoring.Finding  `json:"strengths"`
	Weaknesses      []scoring.Finding  `json:"weaknesses"`
	Reasoning       string             `json:"reasoning"`
	ExperienceMatch scoring.MatchLevel `json:"experience_match"`
	SkillsMatch     scoring.MatchLevel `json:"skills_match"`
	ModelUsed       string             `json:"model_used"`
	PromptVersion   string             `json:"prompt_version"`
	TokensUsed      int                `json:"tokens_used"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

// ScreeningFeedback is one human review of a screening result. Append-only;
// a result accumulates one row per review action.
type ScreeningFeedback struct {
	ID        uuid.UUID `json:"id"`
	TenantID  uuid.UUID `json:"tenant_id"`
	ResultID  uuid.UUID `json:"result_id"`
	Rating    int       `json:"rating"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// TenantRepository defines operations for tenant persistence
type TenantRepository interface {
	Create(ctx context.Context, tenant *Tenant) error
	GetByID(ctx context.Context, id uuid.UUID) (*Tenant, error)
	GetByAPIKey(ctx context.Context, apiKey string) (*Tenant, error)
	UpdateBudget(ctx context.Context, id uuid.UUID, budget int64) error
	UpdateAPIKey(ctx context.Context, id uuid.UUID, newAPIKey string) error
}

// JobRepository defines operations for job persistence. All reads are
// tenant-scoped; there is no call path that loads a job without its tenant.
type JobRepository interface {
	Create(ctx context.Context, job *Job) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*Job, error)
	List(ctx context.Context, tenantID uuid.UUID) ([]*Job, error)
	Update(ctx context.Context, job *Job) error
	SetEmbeddingID(ctx context.Context, tenantID, id uuid.UUID, embeddingID string) error
}

// ResumeRepository defines operations for resume persistence
type ResumeRepository interface {
	Create(ctx context.Context, resume *Resume) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*Resume, error)
	List(ctx context.Context, tenantID uuid.UUID) ([]*Resume, error)
	ListByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]*Resume, error)
	SetEmbeddingID(ctx context.Context, tenantID, id uuid.UUID, embeddingID string) error
	// Delete removes a resume. Screening results for it go with it.
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
}

// ResultRepository defines operations for screening result persistence.
// Upsert is the only write path; the unique (job, resume) constraint makes
// re-scoring idempotent.
type ResultRepository interface {
	// Upsert inserts the result or, when a row for (job, resume) already
	// exists, replaces its scored fields in place. The stored row's id and
	// timestamps are written back into result.
	Upsert(ctx context.Context, result *ScreeningResult) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*ScreeningResult, error)
	// ListByJob returns all results for a job with candidate names attached,
	// ordered by score descending with earlier submissions first on ties.
	ListByJob(ctx context.Context, tenantID, jobID uuid.UUID) ([]*ScreeningResult, error)
}

// FeedbackRepository defines operations for screening feedback persistence
type FeedbackRepository interface {
	Create(ctx context.Context, feedback *ScreeningFeedback) error
	ListByResult(ctx context.Context, tenantID, resultID uuid.UUID) ([]*ScreeningFeedback, error)
}
