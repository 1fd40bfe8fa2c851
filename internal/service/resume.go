package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/xxkhanxx77/aura-poc-llm/internal/extract"
	"github.com/xxkhanxx77/aura-poc-llm/internal/ingestion"
	"github.com/xxkhanxx77/aura-poc-llm/internal/repository"
	"github.com/xxkhanxx77/aura-poc-llm/internal/vectorstore"
)

// minExtractedText is the shortest extraction accepted from an uploaded
// file. Below this the file was almost certainly scanned images or noise.
const minExtractedText = 10

// ResumeService manages candidate resumes and their chunk embeddings.
type ResumeService struct {
	repo      repository.ResumeRepository
	pipeline  *ingestion.Pipeline
	extractor extract.Extractor
	vectors   vectorstore.VectorStore
	logger    *slog.Logger
}

// NewResumeService creates a new ResumeService.
func NewResumeService(repo repository.ResumeRepository, pipeline *ingestion.Pipeline, extractor extract.Extractor, vectors vectorstore.VectorStore, logger *slog.Logger) *ResumeService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ResumeService{
		repo:      repo,
		pipeline:  pipeline,
		extractor: extractor,
		vectors:   vectors,
		logger:    logger,
	}
}

// Create persists a plain-text resume and indexes it for similarity search.
// A resume whose indexing fails is still created and scorable; it is scored
// on its full text and skipped by the similarity pre-filter.
func (s *ResumeService) Create(ctx context.Context, tenantID uuid.UUID, candidateName, email, rawText string) (*repository.Resume, error) {
	if candidateName == "" {
		return nil, fmt.Errorf("%w: candidate_name is required", ErrInvalidInput)
	}
	if strings.TrimSpace(rawText) == "" {
		return nil, fmt.Errorf("%w: raw_text is required", ErrInvalidInput)
	}

	resume := &repository.Resume{
		ID:            uuid.New(),
		TenantID:      tenantID,
		CandidateName: candidateName,
		Email:         email,
		RawText:       rawText,
		UploadedAt:    time.Now(),
	}
	if err := s.repo.Create(ctx, resume); err != nil {
		return nil, fmt.Errorf("failed to create resume: %w", err)
	}

	s.index(ctx, resume)
	return resume, nil
}

// Upload extracts text from an uploaded file and stores it as a resume.
// Unsupported formats and unreadable files are rejected before anything is
// persisted.
func (s *ResumeService) Upload(ctx context.Context, tenantID uuid.UUID, candidateName, email, filename string, data []byte) (*repository.Resume, error) {
	text, err := s.extractor.Extract(data, filename)
	if err != nil {
		return nil, err
	}
	if len(strings.TrimSpace(text)) < minExtractedText {
		return nil, fmt.Errorf("%w: could not extract text from %s", ErrInvalidInput, filename)
	}

	return s.Create(ctx, tenantID, candidateName, email, text)
}

// Get retrieves a resume, scoped to the tenant.
func (s *ResumeService) Get(ctx context.Context, tenantID, id uuid.UUID) (*repository.Resume, error) {
	resume, err := s.repo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get resume: %w", err)
	}
	return resume, nil
}

// List retrieves all resumes for a tenant, newest first.
func (s *ResumeService) List(ctx context.Context, tenantID uuid.UUID) ([]*repository.Resume, error) {
	resumes, err := s.repo.List(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list resumes: %w", err)
	}
	return resumes, nil
}

// Delete removes a resume, its screening results, and its stored vectors.
// The durable row goes first; orphaned vectors are only an annoyance, a
// durable row without the tenant knowing is not.
func (s *ResumeService) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, tenantID, id); err != nil {
		return fmt.Errorf("failed to delete resume: %w", err)
	}

	if err := s.vectors.DeleteResume(ctx, tenantID.String(), id.String()); err != nil {
		s.logger.Warn("failed to delete resume vectors",
			"resume_id", id, "error", err)
	}
	return nil
}

// index chunks and embeds the resume text and records the vector reference.
func (s *ResumeService) index(ctx context.Context, resume *repository.Resume) {
	stats, err := s.pipeline.IndexResume(ctx, resume.TenantID, resume.ID, resume.RawText)
	if err != nil {
		s.logger.Warn("failed to index resume",
			"resume_id", resume.ID, "error", err)
		return
	}

	embeddingID := resume.ID.String()
	if err := s.repo.SetEmbeddingID(ctx, resume.TenantID, resume.ID, embeddingID); err != nil {
		s.logger.Warn("failed to record resume embedding id",
			"resume_id", resume.ID, "error", err)
		return
	}
	resume.EmbeddingID = embeddingID

	s.logger.Info("resume indexed",
		"resume_id", resume.ID,
		"chunks", stats.ChunkCount,
		"took", stats.ProcessingTime)
}
