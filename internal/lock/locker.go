// Package lock provides the exclusive per-attempt claim used to keep
// concurrent grading triggers from producing more than one result for the
// same attempt. The claim is held only for the duration of one
// grade-and-persist transaction.
package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// AttemptLocker is the claim primitive the grading service acquires before
// grading begins and releases after the transaction commits or aborts.
// Acquire returns false when another holder owns the claim.
type AttemptLocker interface {
	Acquire(ctx context.Context, attemptID uint, ttl time.Duration) (bool, error)
	Release(ctx context.Context, attemptID uint) error
}

// ===== REDIS LOCKER =====

// redisLocker implements the claim as a SET NX key with a TTL, so a crashed
// grader cannot hold a claim forever. Suitable when multiple service
// instances grade against the same store.
type redisLocker struct {
	client *redis.Client
	prefix string
}

func NewRedisLocker(client *redis.Client) AttemptLocker {
	return &redisLocker{
		client: client,
		prefix: "grading:claim:",
	}
}

func (l *redisLocker) key(attemptID uint) string {
	return fmt.Sprintf("%s%d", l.prefix, attemptID)
}

func (l *redisLocker) Acquire(ctx context.Context, attemptID uint, ttl time.Duration) (bool, error) {
	ok, err := l.client.SetNX(ctx, l.key(attemptID), "claimed", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire grading claim: %w", err)
	}
	return ok, nil
}

func (l *redisLocker) Release(ctx context.Context, attemptID uint) error {
	if err := l.client.Del(ctx, l.key(attemptID)).Err(); err != nil {
		return fmt.Errorf("failed to release grading claim: %w", err)
	}
	return nil
}

// ===== MEMORY LOCKER =====

// memoryLocker scopes the claim to a single service instance. Good enough
// for tests and single-node deployments; shared deployments use the redis
// locker.
type memoryLocker struct {
	mu     sync.Mutex
	claims map[uint]time.Time
}

func NewMemoryLocker() AttemptLocker {
	return &memoryLocker{
		claims: make(map[uint]time.Time),
	}
}

func (l *memoryLocker) Acquire(_ context.Context, attemptID uint, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if expiry, held := l.claims[attemptID]; held && time.Now().Before(expiry) {
		return false, nil
	}
	l.claims[attemptID] = time.Now().Add(ttl)
	return true, nil
}

func (l *memoryLocker) Release(_ context.Context, attemptID uint) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.claims, attemptID)
	return nil
}
