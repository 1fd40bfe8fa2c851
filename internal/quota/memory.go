package quota

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryLedger implements Ledger with in-process counters. It backs local
// development and tests; a multi-replica deployment needs the Redis ledger
// so replicas share one budget.
type MemoryLedger struct {
	mu      sync.Mutex
	window  time.Duration
	tenants map[uuid.UUID]*counters
}

type counters struct {
	calls     int64
	tokens    int64
	periodEnd time.Time
}

var _ Ledger = (*MemoryLedger)(nil)

// NewMemoryLedger creates an empty in-process ledger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{
		window:  Window,
		tenants: make(map[uuid.UUID]*counters),
	}
}

// CheckAndReserve claims cost call units under the ledger lock, so the
// check and the claim cannot interleave with another caller's.
func (l *MemoryLedger) CheckAndReserve(ctx context.Context, tenantID uuid.UUID, budget, cost int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	c := l.tenant(tenantID)
	if c.calls+cost > budget {
		return ErrExceeded
	}
	c.calls += cost
	c.periodEnd = time.Now().Add(l.window)
	return nil
}

// RecordUsage adds post-invocation call and token deltas.
func (l *MemoryLedger) RecordUsage(ctx context.Context, tenantID uuid.UUID, calls, tokens int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	c := l.tenant(tenantID)
	c.calls += calls
	c.tokens += tokens
	c.periodEnd = time.Now().Add(l.window)
	return nil
}

// CurrentUsage reads the counters without modifying them.
func (l *MemoryLedger) CurrentUsage(ctx context.Context, tenantID uuid.UUID) (Usage, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	c := l.tenant(tenantID)
	return Usage{
		Calls:     c.calls,
		Tokens:    c.tokens,
		PeriodEnd: c.periodEnd,
	}, nil
}

// tenant returns the live counters for a tenant, resetting them when the
// window has lapsed. Callers must hold the lock.
func (l *MemoryLedger) tenant(tenantID uuid.UUID) *counters {
	c, ok := l.tenants[tenantID]
	if !ok || time.Now().After(c.periodEnd) {
		c = &counters{periodEnd: time.Now().Add(l.window)}
		l.tenants[tenantID] = c
	}
	return c
}
