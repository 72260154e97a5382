// Package runlock enforces single-flight pipeline runs. The bulk mutator has
// no cross-batch atomicity, so two overlapping runs against the same store
// could double-mutate; the lock makes a second trigger fail fast instead.
package runlock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	id "reclass/pkg/domain"
	"reclass/pkg/platform/sentinel"
)

const (
	lockKey = "reclass:run:lock"

	// DefaultTTL bounds how long a crashed run can hold the lock.
	DefaultTTL = 15 * time.Minute
)

// releaseScript checks ownership and deletes in one server-side step. A
// separate GET and DEL would race: the lock can expire and be reacquired
// between the two commands, and the DEL would then free the new run's lock.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0`)

// RedisLock is the distributed implementation for deployments where multiple
// instances could trigger runs.
type RedisLock struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisLock constructs a Redis-backed run lock.
func NewRedisLock(client *redis.Client, ttl time.Duration) *RedisLock {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisLock{client: client, ttl: ttl}
}

// Acquire takes the lock via SET NX, storing the run id as owner so a
// foreign release is detectable.
func (l *RedisLock) Acquire(ctx context.Context, runID id.RunID) error {
	ok, err := l.client.SetNX(ctx, lockKey, runID.String(), l.ttl).Result()
	if err != nil {
		return fmt.Errorf("acquire run lock: %w", err)
	}
	if !ok {
		return sentinel.ErrRunActive
	}
	return nil
}

// Release drops the lock only if this run still owns it. An expired-and-
// reacquired lock must not be released by the old run.
func (l *RedisLock) Release(ctx context.Context, runID id.RunID) error {
	if err := releaseScript.Run(ctx, l.client, []string{lockKey}, runID.String()).Err(); err != nil {
		return fmt.Errorf("release run lock: %w", err)
	}
	return nil
}

// MemoryLock is the in-process fallback used when Redis is not configured
// and in tests.
type MemoryLock struct {
	mu    sync.Mutex
	owner string
}

func NewMemoryLock() *MemoryLock {
	return &MemoryLock{}
}

func (l *MemoryLock) Acquire(_ context.Context, runID id.RunID) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.owner != "" {
		return sentinel.ErrRunActive
	}
	l.owner = runID.String()
	return nil
}

func (l *MemoryLock) Release(_ context.Context, runID id.RunID) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.owner == runID.String() {
		l.owner = ""
	}
	return nil
}
