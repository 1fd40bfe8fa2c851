// Package quota tracks and enforces per-tenant generative call budgets over
// a rolling monthly window.
//
// The ledger is advisory accounting for cost control, not billing truth:
// counters expire with the window and the durable store never depends on
// them. What must hold is the reservation invariant: two concurrent callers
// can never both pass a check when only one unit of budget remains.
package quota

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Window is the rolling period after which counters expire. Activity slides
// the window, matching a "calls this month" reading.
const Window = 31 * 24 * time.Hour

// ErrExceeded is returned by CheckAndReserve when a reservation would push a
// tenant past its monthly call budget. It is recoverable: the caller still
// serves whatever cached or persisted results exist.
var ErrExceeded = errors.New("monthly llm budget exceeded")

// Usage is a point-in-time read of one tenant's consumption.
type Usage struct {
	Calls     int64     `json:"calls"`
	Tokens    int64     `json:"tokens"`
	PeriodEnd time.Time `json:"period_end"`
}

// Ledger tracks per-tenant generative service spend.
type Ledger interface {
	// CheckAndReserve atomically claims cost call units against the budget.
	// It returns ErrExceeded, with nothing claimed, when the reservation
	// would exceed the budget. The check and the claim are a single step
	// with respect to concurrent callers for the same tenant.
	CheckAndReserve(ctx context.Context, tenantID uuid.UUID, budget, cost int64) error

	// RecordUsage adds post-invocation accounting: tokens always, extra
	// calls only when an invocation beyond the reservation happened (the
	// one automatic validation retry). Never called on a cache hit.
	RecordUsage(ctx context.Context, tenantID uuid.UUID, calls, tokens int64) error

	// CurrentUsage reads the counters without modifying them.
	CurrentUsage(ctx context.Context, tenantID uuid.UUID) (Usage, error)
}
