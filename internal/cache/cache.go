// Package cache provides the advisory result cache that lets a screening
// run skip scoring work that was already paid for.
//
// Entries are keyed by fingerprint, so invalidation is content-based: an
// edited job description produces new fingerprints and the stale entries
// simply age out. The cache is never authoritative. A miss only costs one
// extra scoring invocation, and recomputation lands on the same durable row
// through the idempotent upsert.
package cache

import (
	"context"
	"time"
)

// DefaultTTL is how long a cached outcome stays valid.
const DefaultTTL = 24 * time.Hour

// Store is a key-value cache with per-entry expiry.
type Store interface {
	// Get returns the cached payload and whether the key was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Put stores payload under key, overwriting any existing entry.
	Put(ctx context.Context, key string, payload []byte, ttl time.Duration) error

	// Delete removes an entry. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}
