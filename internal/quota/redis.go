package quota

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisLedger implements Ledger on Redis counters. Keys follow the
// "tenant:{id}:llm_calls_month" / "tenant:{id}:tokens_month" scheme and
// expire after the rolling window; every write refreshes the expiry.
type RedisLedger struct {
	client *redis.Client
	window time.Duration
}

var _ Ledger = (*RedisLedger)(nil)

// NewRedisLedger creates a ledger backed by the given Redis client.
func NewRedisLedger(client *redis.Client) *RedisLedger {
	return &RedisLedger{
		client: client,
		window: Window,
	}
}

// CheckAndReserve claims cost call units via INCRBY and rolls the claim back
// when the new total exceeds the budget. INCRBY is atomic, so of two racing
// callers at one remaining unit exactly one observes a total within budget.
func (l *RedisLedger) CheckAndReserve(ctx context.Context, tenantID uuid.UUID, budget, cost int64) error {
	key := callsKey(tenantID)

	pipe := l.client.TxPipeline()
	incr := pipe.IncrBy(ctx, key, cost)
	pipe.Expire(ctx, key, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("reserve quota: %w", err)
	}

	if incr.Val() > budget {
		if err := l.client.DecrBy(ctx, key, cost).Err(); err != nil {
			return fmt.Errorf("release denied reservation: %w", err)
		}
		return ErrExceeded
	}
	return nil
}

// RecordUsage adds post-invocation call and token deltas.
func (l *RedisLedger) RecordUsage(ctx context.Context, tenantID uuid.UUID, calls, tokens int64) error {
	pipe := l.client.TxPipeline()
	if calls != 0 {
		pipe.IncrBy(ctx, callsKey(tenantID), calls)
		pipe.Expire(ctx, callsKey(tenantID), l.window)
	}
	if tokens != 0 {
		pipe.IncrBy(ctx, tokensKey(tenantID), tokens)
		pipe.Expire(ctx, tokensKey(tenantID), l.window)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("record usage: %w", err)
	}
	return nil
}

// CurrentUsage reads both counters. Missing keys read as zero; the period
// end is derived from the call counter's remaining TTL.
func (l *RedisLedger) CurrentUsage(ctx context.Context, tenantID uuid.UUID) (Usage, error) {
	var usage Usage

	calls, err := l.client.Get(ctx, callsKey(tenantID)).Int64()
	if err != nil && err != redis.Nil {
		return usage, fmt.Errorf("read call counter: %w", err)
	}
	tokens, err := l.client.Get(ctx, tokensKey(tenantID)).Int64()
	if err != nil && err != redis.Nil {
		return usage, fmt.Errorf("read token counter: %w", err)
	}

	ttl, err := l.client.TTL(ctx, callsKey(tenantID)).Result()
	if err != nil {
		return usage, fmt.Errorf("read counter ttl: %w", err)
	}
	if ttl <= 0 {
		ttl = l.window
	}

	usage.Calls = calls
	usage.Tokens = tokens
	usage.PeriodEnd = time.Now().Add(ttl)
	return usage, nil
}

func callsKey(tenantID uuid.UUID) string {
	return fmt.Sprintf("tenant:%s:llm_calls_month", tenantID)
}

func tokensKey(tenantID uuid.UUID) string {
	return fmt.Sprintf("tenant:%s:tokens_month", tenantID)
}
