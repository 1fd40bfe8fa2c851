package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/xxkhanxx77/aura-poc-llm/internal/quota"
	"github.com/xxkhanxx77/aura-poc-llm/internal/repository"
)

type tenantEnv struct {
	repo   *fakeTenantRepo
	ledger *quota.MemoryLedger
	svc    *TenantService
}

func newTenantEnv(t *testing.T) *tenantEnv {
	t.Helper()
	repo := &fakeTenantRepo{}
	ledger := quota.NewMemoryLedger()
	vectors := &fakeVectors{vectors: make(map[string][]float32)}
	svc := NewTenantService(repo, vectors, ledger, &stubEmbedder{}, 1000, nil)
	return &tenantEnv{repo: repo, ledger: ledger, svc: svc}
}

func TestTenantCreate(t *testing.T) {
	te := newTenantEnv(t)

	tenant, err := te.svc.Create(context.Background(), "acme", "", 0)
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if !strings.HasPrefix(tenant.APIKey, "aura_") {
		t.Errorf("expected API key with aura_ prefix, got %q", tenant.APIKey)
	}
	if len(tenant.APIKey) != len("aura_")+32 {
		t.Errorf("expected 32 hex chars after the prefix, got %q", tenant.APIKey)
	}
	if tenant.Plan != DefaultPlan {
		t.Errorf("expected default plan %q, got %q", DefaultPlan, tenant.Plan)
	}
	if tenant.LLMBudget != 1000 {
		t.Errorf("expected default budget 1000, got %d", tenant.LLMBudget)
	}

	loaded, err := te.svc.Get(context.Background(), tenant.ID)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if loaded.Name != "acme" {
		t.Errorf("expected name acme, got %q", loaded.Name)
	}
}

func TestTenantCreateRequiresName(t *testing.T) {
	te := newTenantEnv(t)

	if _, err := te.svc.Create(context.Background(), "", "pro", 50); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestTenantUsageReport(t *testing.T) {
	te := newTenantEnv(t)

	tenant, err := te.svc.Create(context.Background(), "acme", "pro", 10)
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if err := te.ledger.CheckAndReserve(ctx, tenant.ID, tenant.LLMBudget, 1); err != nil {
			t.Fatalf("CheckAndReserve returned error: %v", err)
		}
	}
	if err := te.ledger.RecordUsage(ctx, tenant.ID, 0, 4200); err != nil {
		t.Fatalf("RecordUsage returned error: %v", err)
	}

	report, err := te.svc.Usage(ctx, tenant.ID)
	if err != nil {
		t.Fatalf("Usage returned error: %v", err)
	}
	if report.CallsUsed != 3 {
		t.Errorf("expected 3 calls used, got %d", report.CallsUsed)
	}
	if report.CallsRemaining != 7 {
		t.Errorf("expected 7 calls remaining, got %d", report.CallsRemaining)
	}
	if report.TokensUsed != 4200 {
		t.Errorf("expected 4200 tokens, got %d", report.TokensUsed)
	}
	if report.LLMBudget != 10 {
		t.Errorf("expected budget 10, got %d", report.LLMBudget)
	}
	if report.PeriodEnd.IsZero() {
		t.Error("expected a period end")
	}
}

func TestTenantUpdateBudget(t *testing.T) {
	te := newTenantEnv(t)

	tenant, err := te.svc.Create(context.Background(), "acme", "", 0)
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if err := te.svc.UpdateBudget(context.Background(), tenant.ID, 0); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for zero budget, got %v", err)
	}
	if err := te.svc.UpdateBudget(context.Background(), tenant.ID, 2500); err != nil {
		t.Fatalf("UpdateBudget returned error: %v", err)
	}

	loaded, err := te.svc.Get(context.Background(), tenant.ID)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if loaded.LLMBudget != 2500 {
		t.Errorf("expected budget 2500, got %d", loaded.LLMBudget)
	}
}

func TestTenantRegenerateAPIKey(t *testing.T) {
	te := newTenantEnv(t)

	tenant, err := te.svc.Create(context.Background(), "acme", "", 0)
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	old := tenant.APIKey

	newKey, err := te.svc.RegenerateAPIKey(context.Background(), tenant.ID)
	if err != nil {
		t.Fatalf("RegenerateAPIKey returned error: %v", err)
	}
	if newKey == old {
		t.Error("expected a different API key")
	}
	if !strings.HasPrefix(newKey, "aura_") {
		t.Errorf("expected aura_ prefix, got %q", newKey)
	}

	if _, err := te.repo.GetByAPIKey(context.Background(), old); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected old key to stop resolving, got %v", err)
	}
	loaded, err := te.repo.GetByAPIKey(context.Background(), newKey)
	if err != nil {
		t.Fatalf("expected new key to resolve: %v", err)
	}
	if loaded.ID != tenant.ID {
		t.Errorf("expected tenant %s, got %s", tenant.ID, loaded.ID)
	}
}
