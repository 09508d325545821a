// Package password wraps bcrypt behind a bounded concurrency gate. A single
// hash costs on the order of 100-200ms of CPU, so unbounded concurrent calls
// under load would starve request handling; the semaphore turns overload
// into context-aware backpressure instead.
package password

import (
	"context"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"
)

const defaultMaxConcurrent = 4

type Hasher struct {
	cost int
	sem  *semaphore.Weighted
}

// NewHasher builds a Hasher with the given bcrypt cost and concurrency
// bound. Out-of-range values fall back to bcrypt.DefaultCost.
func NewHasher(cost, maxConcurrent int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	if maxConcurrent <= 0 {
		maxConcurrent = defaultMaxConcurrent
	}
	return &Hasher{
		cost: cost,
		sem:  semaphore.NewWeighted(int64(maxConcurrent)),
	}
}

// Hash derives a salted hash from plaintext. bcrypt generates a fresh random
// salt per call, so hashing the same plaintext twice yields different
// strings. Blocks until a worker slot is free or ctx is done.
func (h *Hasher) Hash(ctx context.Context, plaintext string) (string, error) {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer h.sem.Release(1)

	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Verify reports whether plaintext matches hash. Any failure, including a
// malformed hash string, is false rather than an error.
func (h *Hasher) Verify(ctx context.Context, plaintext, hash string) bool {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return false
	}
	defer h.sem.Release(1)

	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}
