package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/xxkhanxx77/aura-poc-llm/internal/embedder"
	"github.com/xxkhanxx77/aura-poc-llm/internal/quota"
	"github.com/xxkhanxx77/aura-poc-llm/internal/repository"
	"github.com/xxkhanxx77/aura-poc-llm/internal/vectorstore"
)

// DefaultPlan is assigned to tenants created without an explicit plan.
const DefaultPlan = "standard"

// UsageReport is a tenant's consumption against its monthly budget.
type UsageReport struct {
	TenantID       uuid.UUID `json:"tenant_id"`
	Plan           string    `json:"plan"`
	LLMBudget      int64     `json:"llm_budget"`
	CallsUsed      int64     `json:"calls_used"`
	CallsRemaining int64     `json:"calls_remaining"`
	TokensUsed     int64     `json:"tokens_used"`
	PeriodEnd      time.Time `json:"period_end"`
}

// TenantService manages tenant accounts, their API keys, and their budgets.
type TenantService struct {
	repo          repository.TenantRepository
	vectors       vectorstore.VectorStore
	ledger        quota.Ledger
	emb           embedder.Embedder
	defaultBudget int64
	logger        *slog.Logger
}

// NewTenantService creates a new TenantService.
func NewTenantService(repo repository.TenantRepository, vectors vectorstore.VectorStore, ledger quota.Ledger, emb embedder.Embedder, defaultBudget int64, logger *slog.Logger) *TenantService {
	if logger == nil {
		logger = slog.Default()
	}
	return &TenantService{
		repo:          repo,
		vectors:       vectors,
		ledger:        ledger,
		emb:           emb,
		defaultBudget: defaultBudget,
		logger:        logger,
	}
}

// Create provisions a tenant with a fresh API key and its own vector
// collection. The API key is only ever returned here; store it.
func (s *TenantService) Create(ctx context.Context, name, plan string, llmBudget int64) (*repository.Tenant, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if plan == "" {
		plan = DefaultPlan
	}
	if llmBudget <= 0 {
		llmBudget = s.defaultBudget
	}

	apiKey, err := generateAPIKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate API key: %w", err)
	}

	tenant := &repository.Tenant{
		ID:        uuid.New(),
		Name:      name,
		Plan:      plan,
		APIKey:    apiKey,
		LLMBudget: llmBudget,
		CreatedAt: time.Now(),
	}
	if err := s.repo.Create(ctx, tenant); err != nil {
		return nil, fmt.Errorf("failed to create tenant: %w", err)
	}

	// The collection can also be created lazily on first index, so a vector
	// store outage does not block onboarding.
	if err := s.vectors.CreateCollection(ctx, tenant.ID.String(), s.emb.Dimension()); err != nil {
		s.logger.Warn("failed to create vector collection for tenant",
			"tenant_id", tenant.ID, "error", err)
	}

	return tenant, nil
}

// Get retrieves a tenant by ID.
func (s *TenantService) Get(ctx context.Context, id uuid.UUID) (*repository.Tenant, error) {
	tenant, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get tenant: %w", err)
	}
	return tenant, nil
}

// Usage reports a tenant's spend against its monthly budget.
func (s *TenantService) Usage(ctx context.Context, tenantID uuid.UUID) (*UsageReport, error) {
	tenant, err := s.repo.GetByID(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to get tenant: %w", err)
	}

	usage, err := s.ledger.CurrentUsage(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to read usage: %w", err)
	}

	budget := tenant.LLMBudget
	if budget <= 0 {
		budget = s.defaultBudget
	}
	remaining := budget - usage.Calls
	if remaining < 0 {
		remaining = 0
	}

	return &UsageReport{
		TenantID:       tenant.ID,
		Plan:           tenant.Plan,
		LLMBudget:      budget,
		CallsUsed:      usage.Calls,
		CallsRemaining: remaining,
		TokensUsed:     usage.Tokens,
		PeriodEnd:      usage.PeriodEnd,
	}, nil
}

// UpdateBudget changes a tenant's monthly call budget.
func (s *TenantService) UpdateBudget(ctx context.Context, tenantID uuid.UUID, budget int64) error {
	if budget <= 0 {
		return fmt.Errorf("%w: budget must be positive", ErrInvalidInput)
	}
	if _, err := s.repo.GetByID(ctx, tenantID); err != nil {
		return fmt.Errorf("failed to get tenant: %w", err)
	}
	if err := s.repo.UpdateBudget(ctx, tenantID, budget); err != nil {
		return fmt.Errorf("failed to update budget: %w", err)
	}
	return nil
}

// RegenerateAPIKey replaces a tenant's API key. The old key stops working
// immediately.
func (s *TenantService) RegenerateAPIKey(ctx context.Context, tenantID uuid.UUID) (string, error) {
	if _, err := s.repo.GetByID(ctx, tenantID); err != nil {
		return "", fmt.Errorf("failed to get tenant: %w", err)
	}

	newKey, err := generateAPIKey()
	if err != nil {
		return "", fmt.Errorf("failed to generate API key: %w", err)
	}
	if err := s.repo.UpdateAPIKey(ctx, tenantID, newKey); err != nil {
		return "", fmt.Errorf("failed to update API key: %w", err)
	}
	return newKey, nil
}

// generateAPIKey generates a new API key with format "aura_" + 32 random hex chars
func generateAPIKey() (string, error) {
	bytes := make([]byte, 16) // 16 bytes = 32 hex chars
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return "aura_" + hex.EncodeToString(bytes), nil
}
