package quota

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
)

func TestMemoryLedger_ReserveWithinBudget(t *testing.T) {
	ledger := NewMemoryLedger()
	tenant := uuid.New()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := ledger.CheckAndReserve(ctx, tenant, 3, 1); err != nil {
			t.Fatalf("reservation %d failed: %v", i, err)
		}
	}

	if err := ledger.CheckAndReserve(ctx, tenant, 3, 1); !errors.Is(err, ErrExceeded) {
		t.Errorf("expected ErrExceeded after budget spent, got %v", err)
	}

	usage, err := ledger.CurrentUsage(ctx, tenant)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if usage.Calls != 3 {
		t.Errorf("expected 3 calls recorded, got %d", usage.Calls)
	}
}

func TestMemoryLedger_DenialClaimsNothing(t *testing.T) {
	ledger := NewMemoryLedger()
	tenant := uuid.New()
	ctx := context.Background()

	if err := ledger.CheckAndReserve(ctx, tenant, 1, 1); err != nil {
		t.Fatalf("first reservation failed: %v", err)
	}
	if err := ledger.CheckAndReserve(ctx, tenant, 1, 1); !errors.Is(err, ErrExceeded) {
		t.Fatalf("expected denial, got %v", err)
	}

	usage, _ := ledger.CurrentUsage(ctx, tenant)
	if usage.Calls != 1 {
		t.Errorf("denied reservation changed the counter: %d", usage.Calls)
	}
}

func TestMemoryLedger_ConcurrentReservations(t *testing.T) {
	ledger := NewMemoryLedger()
	tenant := uuid.New()
	ctx := context.Background()

	const budget = 10
	const attempts = 50

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := ledger.CheckAndReserve(ctx, tenant, budget, 1); err == nil {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if allowed != budget {
		t.Errorf("expected exactly %d successful reservations, got %d", budget, allowed)
	}

	usage, _ := ledger.CurrentUsage(ctx, tenant)
	if usage.Calls != budget {
		t.Errorf("expected counter at %d, got %d", budget, usage.Calls)
	}
}

func TestMemoryLedger_RecordUsage(t *testing.T) {
	ledger := NewMemoryLedger()
	tenant := uuid.New()
	ctx := context.Background()

	if err := ledger.CheckAndReserve(ctx, tenant, 100, 1); err != nil {
		t.Fatalf("reservation failed: %v", err)
	}
	if err := ledger.RecordUsage(ctx, tenant, 0, 1250); err != nil {
		t.Fatalf("record usage failed: %v", err)
	}
	// A validation retry adds one extra call on top of the reservation.
	if err := ledger.RecordUsage(ctx, tenant, 1, 900); err != nil {
		t.Fatalf("record usage failed: %v", err)
	}

	usage, err := ledger.CurrentUsage(ctx, tenant)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if usage.Calls != 2 {
		t.Errorf("expected 2 calls, got %d", usage.Calls)
	}
	if usage.Tokens != 2150 {
		t.Errorf("expected 2150 tokens, got %d", usage.Tokens)
	}
	if usage.PeriodEnd.IsZero() {
		t.Error("period end not set")
	}
}

func TestMemoryLedger_TenantsAreIsolated(t *testing.T) {
	ledger := NewMemoryLedger()
	ctx := context.Background()
	a := uuid.New()
	b := uuid.New()

	if err := ledger.CheckAndReserve(ctx, a, 1, 1); err != nil {
		t.Fatalf("reservation failed: %v", err)
	}

	// Tenant A being exhausted must not affect tenant B.
	if err := ledger.CheckAndReserve(ctx, a, 1, 1); !errors.Is(err, ErrExceeded) {
		t.Fatalf("expected tenant a to be denied, got %v", err)
	}
	if err := ledger.CheckAndReserve(ctx, b, 1, 1); err != nil {
		t.Errorf("tenant b should be unaffected, got %v", err)
	}
}
