// Package service implements business logic for tenant management, resume
// and job ingestion, and screening runs.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/xxkhanxx77/aura-poc-llm/internal/cache"
	"github.com/xxkhanxx77/aura-poc-llm/internal/fingerprint"
	"github.com/xxkhanxx77/aura-poc-llm/internal/llm"
	"github.com/xxkhanxx77/aura-poc-llm/internal/quota"
	"github.com/xxkhanxx77/aura-poc-llm/internal/ranking"
	"github.com/xxkhanxx77/aura-poc-llm/internal/repository"
	"github.com/xxkhanxx77/aura-poc-llm/internal/scoring"
	"github.com/xxkhanxx77/aura-poc-llm/internal/vectorstore"
)

var (
	// ErrUpstreamUnavailable marks a run that could not start because a
	// dependency the whole run needs (vector search for candidate
	// selection) is down.
	ErrUpstreamUnavailable = errors.New("upstream dependency unavailable")

	// ErrInvalidInput marks requests rejected before any work happens.
	ErrInvalidInput = errors.New("invalid input")
)

// Failure kinds reported per candidate when scoring one resume fails
// without aborting the run.
const (
	FailureKindQuota       = "quota_exceeded"
	FailureKindValidation  = "validation"
	FailureKindUnavailable = "upstream_unavailable"
	FailureKindNotFound    = "not_found"
	FailureKindInternal    = "internal"
)

const (
	DefaultMaxResumesPerScreen = 50
	DefaultWorkerCount         = 5
	DefaultCacheTTL            = 24 * time.Hour
	DefaultChunkTopK           = 5
)

// scoringMaxTokens bounds the assessment completion. Valid responses fit
// well under this; hitting the cap means the model rambled.
const scoringMaxTokens = 1500

// ScreeningConfig tunes screening runs.
type ScreeningConfig struct {
	Model               string        // chat model used for scoring, empty for the provider default
	MaxResumesPerScreen int           // candidate cap when no explicit resume list is given
	WorkerCount         int           // resumes scored concurrently
	CacheTTL            time.Duration // lifetime of cached assessments
	ChunkTopK           int           // resume chunks retrieved per candidate
	DefaultLLMBudget    int64         // monthly call budget for tenants without their own
}

// CandidateFailure describes one resume that could not be scored.
type CandidateFailure struct {
	ResumeID uuid.UUID `json:"resume_id"`
	Kind     string    `json:"kind"`
	Message  string    `json:"message"`
}

// ScreeningSummary is the outcome of a screening run: scored candidates
// ranked best first, plus the ones that failed.
type ScreeningSummary struct {
	JobID           uuid.UUID                     `json:"job_id"`
	JobTitle        string                        `json:"job_title"`
	TotalCandidates int                           `json:"total_candidates"`
	Results         []*repository.ScreeningResult `json:"results"`
	Failures        []CandidateFailure            `json:"failures,omitempty"`
}

// ScreeningService scores resumes against jobs. Each candidate is scored
// independently: cached assessments are reused, quota is charged per model
// call, and one candidate failing never aborts the run.
type ScreeningService struct {
	tenantRepo repository.TenantRepository
	jobRepo    repository.JobRepository
	resumeRepo repository.ResumeRepository
	resultRepo repository.ResultRepository
	feedback   repository.FeedbackRepository
	cache      cache.Store
	ledger     quota.Ledger
	vectors    vectorstore.VectorStore
	llmClient  llm.LLM
	logger     *slog.Logger
	config     ScreeningConfig

	inflight singleflight.Group
}

// NewScreeningService creates a screening service. Zero config fields fall
// back to defaults.
func NewScreeningService(
	tenantRepo repository.TenantRepository,
	jobRepo repository.JobRepository,
	resumeRepo repository.ResumeRepository,
	resultRepo repository.ResultRepository,
	feedback repository.FeedbackRepository,
	store cache.Store,
	ledger quota.Ledger,
	vectors vectorstore.VectorStore,
	llmClient llm.LLM,
	logger *slog.Logger,
	config ScreeningConfig,
) *ScreeningService {
	if config.MaxResumesPerScreen <= 0 {
		config.MaxResumesPerScreen = DefaultMaxResumesPerScreen
	}
	if config.WorkerCount <= 0 {
		config.WorkerCount = DefaultWorkerCount
	}
	if config.CacheTTL <= 0 {
		config.CacheTTL = DefaultCacheTTL
	}
	if config.ChunkTopK <= 0 {
		config.ChunkTopK = DefaultChunkTopK
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ScreeningService{
		tenantRepo: tenantRepo,
		jobRepo:    jobRepo,
		resumeRepo: resumeRepo,
		resultRepo: resultRepo,
		feedback:   feedback,
		cache:      store,
		ledger:     ledger,
		vectors:    vectors,
		llmClient:  llmClient,
		logger:     logger,
		config:     config,
	}
}

// Screen scores the given resumes against a job and returns them ranked by
// score. With no explicit resume IDs the candidate set is chosen by vector
// similarity to the job description, capped at MaxResumesPerScreen.
func (s *ScreeningService) Screen(ctx context.Context, tenantID, jobID uuid.UUID, resumeIDs []uuid.UUID) (*ScreeningSummary, error) {
	tenant, err := s.tenantRepo.GetByID(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to load tenant: %w", err)
	}

	job, err := s.jobRepo.GetByID(ctx, tenantID, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to load job: %w", err)
	}

	jobVector, jvErr := s.jobVector(ctx, job)

	var failures []CandidateFailure

	requested := dedupeIDs(resumeIDs)
	if len(requested) == 0 {
		if job.EmbeddingID != "" {
			if jvErr != nil {
				return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, jvErr)
			}
			requested, err = s.similarResumes(ctx, tenantID, jobVector)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
			}
		} else {
			requested, err = s.allResumes(ctx, tenantID)
			if err != nil {
				return nil, fmt.Errorf("failed to list resumes: %w", err)
			}
		}
	}
	if jvErr != nil {
		// The job's stored embedding could not be fetched; candidates are
		// still scored, on their full text.
		s.logger.Warn("job embedding unavailable, scoring on full text",
			"job_id", job.ID, "error", jvErr)
		jobVector = nil
	}

	resumes, err := s.resumeRepo.ListByIDs(ctx, tenantID, requested)
	if err != nil {
		return nil, fmt.Errorf("failed to load resumes: %w", err)
	}

	// Requested resumes that are missing, or belong to another tenant, are
	// reported rather than silently dropped.
	byID := make(map[uuid.UUID]*repository.Resume, len(resumes))
	for _, r := range resumes {
		byID[r.ID] = r
	}
	ordered := make([]*repository.Resume, 0, len(resumes))
	for _, id := range requested {
		if r, ok := byID[id]; ok {
			ordered = append(ordered, r)
		} else {
			failures = append(failures, CandidateFailure{
				ResumeID: id,
				Kind:     FailureKindNotFound,
				Message:  "resume not found",
			})
		}
	}

	// Each worker writes its own slot so ties in the final ranking break by
	// request order, not by completion order.
	slots := make([]*repository.ScreeningResult, len(ordered))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.WorkerCount)

	for i, resume := range ordered {
		g.Go(func() error {
			result, err := s.screenOne(gctx, tenant, job, resume, jobVector)
			if err != nil {
				s.logger.Warn("candidate scoring failed",
					"job_id", job.ID, "resume_id", resume.ID, "error", err)
				mu.Lock()
				failures = append(failures, CandidateFailure{
					ResumeID: resume.ID,
					Kind:     failureKind(err),
					Message:  err.Error(),
				})
				mu.Unlock()
				return nil
			}
			slots[i] = result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	results := make([]*repository.ScreeningResult, 0, len(slots))
	for _, r := range slots {
		if r != nil {
			results = append(results, r)
		}
	}
	ranking.Rank(results)

	return &ScreeningSummary{
		JobID:           job.ID,
		JobTitle:        job.Title,
		TotalCandidates: len(results),
		Results:         results,
		Failures:        failures,
	}, nil
}

// screenOne scores a single resume. Concurrent requests for the same
// (job, resume, description) share one execution.
func (s *ScreeningService) screenOne(ctx context.Context, tenant *repository.Tenant, job *repository.Job, resume *repository.Resume, jobVector []float32) (*repository.ScreeningResult, error) {
	key, err := fingerprint.New(tenant.ID, job.ID, resume.ID, job.Description)
	if err != nil {
		return nil, err
	}

	v, err, _ := s.inflight.Do(key.String(), func() (interface{}, error) {
		return s.scoreCandidate(ctx, tenant, job, resume, key, jobVector)
	})
	if err != nil {
		return nil, err
	}
	return v.(*repository.ScreeningResult), nil
}

func (s *ScreeningService) scoreCandidate(ctx context.Context, tenant *repository.Tenant, job *repository.Job, resume *repository.Resume, key fingerprint.Key, jobVector []float32) (*repository.ScreeningResult, error) {
	if cached, ok := s.cachedResult(ctx, key); ok {
		s.logger.Info("returning cached assessment",
			"job_id", job.ID, "resume_id", resume.ID)
		return cached, nil
	}

	budget := tenant.LLMBudget
	if budget <= 0 {
		budget = s.config.DefaultLLMBudget
	}
	if err := s.ledger.CheckAndReserve(ctx, tenant.ID, budget, 1); err != nil {
		return nil, err
	}

	resumeText := s.relevantText(ctx, tenant.ID, resume, jobVector)
	system, prompt := scoring.BuildPrompt(job.Title, job.Description, resumeText)
	opts := llm.GenerateOptions{
		Model:        s.config.Model,
		SystemPrompt: system,
		Temperature:  0,
		MaxTokens:    scoringMaxTokens,
	}

	gen, err := s.llmClient.Generate(ctx, prompt, opts)
	if err != nil {
		return nil, err
	}
	tokensUsed := gen.TokensUsed
	extraCalls := int64(0)

	assessment, err := scoring.Decode(gen.Text)
	if err != nil {
		// One retry with identical inputs. It counts against quota like any
		// other call.
		s.logger.Warn("model response failed validation, retrying",
			"job_id", job.ID, "resume_id", resume.ID, "error", err)
		retry, retryErr := s.llmClient.Generate(ctx, prompt, opts)
		if retryErr != nil {
			s.recordUsage(ctx, tenant.ID, extraCalls, tokensUsed)
			return nil, retryErr
		}
		tokensUsed += retry.TokensUsed
		extraCalls = 1
		assessment, err = scoring.Decode(retry.Text)
		if err != nil {
			s.recordUsage(ctx, tenant.ID, extraCalls, tokensUsed)
			return nil, err
		}
		gen = retry
	}

	s.recordUsage(ctx, tenant.ID, extraCalls, tokensUsed)

	result := &repository.ScreeningResult{
		ID:              uuid.New(),
		TenantID:        tenant.ID,
		JobID:           job.ID,
		ResumeID:        resume.ID,
		CandidateName:   resume.CandidateName,
		Score:           assessment.Score,
		Strengths:       assessment.Strengths,
		Weaknesses:      assessment.Weaknesses,
		Reasoning:       assessment.Reasoning,
		ExperienceMatch: assessment.ExperienceMatch,
		SkillsMatch:     assessment.SkillsMatch,
		ModelUsed:       gen.Model,
		PromptVersion:   scoring.PromptVersion,
		TokensUsed:      tokensUsed,
	}
	if err := s.resultRepo.Upsert(ctx, result); err != nil {
		return nil, fmt.Errorf("failed to persist result: %w", err)
	}

	s.cacheResult(ctx, key, result)
	return result, nil
}

// recordUsage is best effort: a usage write failing must not fail a
// candidate that was scored successfully.
func (s *ScreeningService) recordUsage(ctx context.Context, tenantID uuid.UUID, extraCalls int64, tokens int) {
	if err := s.ledger.RecordUsage(ctx, tenantID, extraCalls, int64(tokens)); err != nil {
		s.logger.Warn("failed to record usage", "tenant_id", tenantID, "error", err)
	}
}

func (s *ScreeningService) cachedResult(ctx context.Context, key fingerprint.Key) (*repository.ScreeningResult, bool) {
	payload, ok, err := s.cache.Get(ctx, key.String())
	if err != nil {
		s.logger.Warn("cache read failed", "error", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var result repository.ScreeningResult
	if err := json.Unmarshal(payload, &result); err != nil {
		s.logger.Warn("dropping undecodable cache entry", "key", key.String(), "error", err)
		_ = s.cache.Delete(ctx, key.String())
		return nil, false
	}
	return &result, true
}

// cacheResult stores the persisted outcome. Cache writes are best effort.
func (s *ScreeningService) cacheResult(ctx context.Context, key fingerprint.Key, result *repository.ScreeningResult) {
	payload, err := json.Marshal(result)
	if err != nil {
		s.logger.Warn("failed to encode result for cache", "error", err)
		return
	}
	if err := s.cache.Put(ctx, key.String(), payload, s.config.CacheTTL); err != nil {
		s.logger.Warn("cache write failed", "error", err)
	}
}

// relevantText returns the resume text sent to the model: the chunks most
// similar to the job when both embeddings exist, the full raw text
// otherwise. Retrieval failures degrade to full text.
func (s *ScreeningService) relevantText(ctx context.Context, tenantID uuid.UUID, resume *repository.Resume, jobVector []float32) string {
	if jobVector == nil || resume.EmbeddingID == "" {
		return resume.RawText
	}

	hits, err := s.vectors.SearchResumeChunks(ctx, tenantID.String(), resume.ID.String(), jobVector, s.config.ChunkTopK)
	if err != nil {
		s.logger.Warn("chunk retrieval failed, using full text",
			"resume_id", resume.ID, "error", err)
		return resume.RawText
	}
	if len(hits) == 0 {
		return resume.RawText
	}

	// Document order reads better in the prompt than similarity order.
	sort.Slice(hits, func(i, j int) bool { return hits[i].Index < hits[j].Index })

	parts := make([]string, len(hits))
	for i, hit := range hits {
		parts[i] = hit.Content
	}
	return strings.Join(parts, "\n\n")
}

// jobVector fetches the job's stored embedding. The error is non-nil only
// when the job has an embedding that could not be retrieved.
func (s *ScreeningService) jobVector(ctx context.Context, job *repository.Job) ([]float32, error) {
	if job.EmbeddingID == "" {
		return nil, nil
	}
	vector, err := s.vectors.GetVector(ctx, job.TenantID.String(), job.EmbeddingID)
	if err != nil {
		return nil, fmt.Errorf("failed to load job embedding: %w", err)
	}
	return vector, nil
}

// similarResumes picks up to MaxResumesPerScreen resume IDs ranked by chunk
// similarity to the job embedding. More chunks than needed are fetched
// because several top chunks often belong to the same resume.
func (s *ScreeningService) similarResumes(ctx context.Context, tenantID uuid.UUID, jobVector []float32) ([]uuid.UUID, error) {
	limit := s.config.MaxResumesPerScreen
	hits, err := s.vectors.Search(ctx, tenantID.String(), jobVector, limit*5)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(hits))
	ids := make([]uuid.UUID, 0, limit)
	for _, hit := range hits {
		if hit.ResumeID == "" || seen[hit.ResumeID] {
			continue
		}
		seen[hit.ResumeID] = true
		id, err := uuid.Parse(hit.ResumeID)
		if err != nil {
			continue
		}
		ids = append(ids, id)
		if len(ids) >= limit {
			break
		}
	}
	return ids, nil
}

// allResumes is the fallback candidate set for jobs without an embedding:
// every resume the tenant has, newest first, capped.
func (s *ScreeningService) allResumes(ctx context.Context, tenantID uuid.UUID) ([]uuid.UUID, error) {
	resumes, err := s.resumeRepo.List(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if len(resumes) > s.config.MaxResumesPerScreen {
		resumes = resumes[:s.config.MaxResumesPerScreen]
	}
	ids := make([]uuid.UUID, len(resumes))
	for i, r := range resumes {
		ids[i] = r.ID
	}
	return ids, nil
}

// Results returns the persisted outcomes for a job, ranked best first.
func (s *ScreeningService) Results(ctx context.Context, tenantID, jobID uuid.UUID) (*ScreeningSummary, error) {
	job, err := s.jobRepo.GetByID(ctx, tenantID, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to load job: %w", err)
	}
	results, err := s.resultRepo.ListByJob(ctx, tenantID, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to list results: %w", err)
	}
	return &ScreeningSummary{
		JobID:           job.ID,
		JobTitle:        job.Title,
		TotalCandidates: len(results),
		Results:         results,
	}, nil
}

// SubmitFeedback records a reviewer's rating of one screening result.
func (s *ScreeningService) SubmitFeedback(ctx context.Context, tenantID, resultID uuid.UUID, rating int, notes string) (*repository.ScreeningFeedback, error) {
	if rating < 1 || rating > 5 {
		return nil, fmt.Errorf("%w: rating must be between 1 and 5", ErrInvalidInput)
	}
	if _, err := s.resultRepo.GetByID(ctx, tenantID, resultID); err != nil {
		return nil, fmt.Errorf("failed to load result: %w", err)
	}
	fb := &repository.ScreeningFeedback{
		ID:        uuid.New(),
		TenantID:  tenantID,
		ResultID:  resultID,
		Rating:    rating,
		Notes:     notes,
		CreatedAt: time.Now(),
	}
	if err := s.feedback.Create(ctx, fb); err != nil {
		return nil, fmt.Errorf("failed to record feedback: %w", err)
	}
	return fb, nil
}

// FeedbackForResult lists the feedback recorded for one result.
func (s *ScreeningService) FeedbackForResult(ctx context.Context, tenantID, resultID uuid.UUID) ([]*repository.ScreeningFeedback, error) {
	if _, err := s.resultRepo.GetByID(ctx, tenantID, resultID); err != nil {
		return nil, fmt.Errorf("failed to load result: %w", err)
	}
	items, err := s.feedback.ListByResult(ctx, tenantID, resultID)
	if err != nil {
		return nil, fmt.Errorf("failed to list feedback: %w", err)
	}
	return items, nil
}

// failureKind buckets a per-candidate error for the run summary.
func failureKind(err error) string {
	switch {
	case errors.Is(err, quota.ErrExceeded):
		return FailureKindQuota
	case errors.Is(err, scoring.ErrInvalidResponse):
		return FailureKindValidation
	case errors.Is(err, llm.ErrUnavailable):
		return FailureKindUnavailable
	case errors.Is(err, repository.ErrNotFound):
		return FailureKindNotFound
	default:
		return FailureKindInternal
	}
}

func dedupeIDs(ids []uuid.UUID) []uuid.UUID {
	if len(ids) == 0 {
		return nil
	}
	seen := make(map[uuid.UUID]bool, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
