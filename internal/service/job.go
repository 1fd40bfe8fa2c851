package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/xxkhanxx77/aura-poc-llm/internal/ingestion"
	"github.com/xxkhanxx77/aura-poc-llm/internal/repository"
)

// JobService manages job postings and keeps their description embeddings
// current.
type JobService struct {
	repo     repository.JobRepository
	pipeline *ingestion.Pipeline
	logger   *slog.Logger
}

// NewJobService creates a new JobService.
func NewJobService(repo repository.JobRepository, pipeline *ingestion.Pipeline, logger *slog.Logger) *JobService {
	if logger == nil {
		logger = slog.Default()
	}
	return &JobService{
		repo:     repo,
		pipeline: pipeline,
		logger:   logger,
	}
}

// Create persists a job and embeds its description for candidate matching.
// A job whose embedding fails is still created; screening then falls back to
// scoring every resume instead of pre-filtering.
func (s *JobService) Create(ctx context.Context, tenantID uuid.UUID, title, description string, requirements []string) (*repository.Job, error) {
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if description == "" {
		return nil, fmt.Errorf("%w: description is required", ErrInvalidInput)
	}
	if requirements == nil {
		requirements = []string{}
	}

	now := time.Now()
	job := &repository.Job{
		ID:           uuid.New(),
		TenantID:     tenantID,
		Title:        title,
		Description:  description,
		Requirements: requirements,
		Status:       repository.JobStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to create job: %w", err)
	}

	s.index(ctx, job)
	return job, nil
}

// Get retrieves a job, scoped to the tenant.
func (s *JobService) Get(ctx context.Context, tenantID, id uuid.UUID) (*repository.Job, error) {
	job, err := s.repo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return job, nil
}

// List retrieves all jobs for a tenant, newest first.
func (s *JobService) List(ctx context.Context, tenantID uuid.UUID) ([]*repository.Job, error) {
	jobs, err := s.repo.List(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	return jobs, nil
}

// UpdateJobParams carries the fields of a job update. Zero values leave the
// stored field unchanged.
type UpdateJobParams struct {
	Title        string
	Description  string
	Requirements []string
	Status       string
}

// Update edits a job. A description change re-embeds the job; previously
// cached screening outcomes for the old text stop matching on their own,
// since the description hash is part of the cache key.
func (s *JobService) Update(ctx context.Context, tenantID, id uuid.UUID, params UpdateJobParams) (*repository.Job, error) {
	job, err := s.repo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	reembed := false
	if params.Title != "" {
		job.Title = params.Title
	}
	if params.Description != "" && params.Description != job.Description {
		job.Description = params.Description
		reembed = true
	}
	if params.Requirements != nil {
		job.Requirements = params.Requirements
	}
	if params.Status != "" {
		if params.Status != repository.JobStatusActive && params.Status != repository.JobStatusClosed {
			return nil, fmt.Errorf("%w: status must be %q or %q",
				ErrInvalidInput, repository.JobStatusActive, repository.JobStatusClosed)
		}
		job.Status = params.Status
	}
	job.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to update job: %w", err)
	}

	if reembed {
		s.index(ctx, job)
	}
	return job, nil
}

// index embeds the job description and records the vector reference. The
// point shares the job's ID, so re-embedding overwrites in place.
func (s *JobService) index(ctx context.Context, job *repository.Job) {
	if err := s.pipeline.IndexJob(ctx, job.TenantID, job.ID, job.Description); err != nil {
		s.logger.Warn("failed to embed job description",
			"job_id", job.ID, "error", err)
		return
	}

	embeddingID := job.ID.String()
	if err := s.repo.SetEmbeddingID(ctx, job.TenantID, job.ID, embeddingID); err != nil {
		s.logger.Warn("failed to record job embedding id",
			"job_id", job.ID, "error", err)
		return
	}
	job.EmbeddingID = embeddingID
}
