package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/pageza/pantrycoach/backend/internal/logging"
)

// MemoryLocker serialises turns within one process
type MemoryLocker struct {
	mu    sync.Mutex
	locks map[string]*memoryLock
}

type memoryLock struct {
	held chan struct{}
	refs int
}

var _ TurnLocker = (*MemoryLocker)(nil)

// NewMemoryLocker creates an empty MemoryLocker
func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{locks: make(map[string]*memoryLock)}
}

// Lock blocks until key is free or ctx is done
func (l *MemoryLocker) Lock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	entry, ok := l.locks[key]
	if !ok {
		entry = &memoryLock{held: make(chan struct{}, 1)}
		l.locks[key] = entry
	}
	entry.refs++
	l.mu.Unlock()

	select {
	case entry.held <- struct{}{}:
	case <-ctx.Done():
		l.release(key, entry)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-entry.held
			l.release(key, entry)
		})
	}, nil
}

func (l *MemoryLocker) release(key string, entry *memoryLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	entry.refs--
	if entry.refs == 0 {
		delete(l.locks, key)
	}
}

const (
	redisLockPrefix   = "turnlock:"
	redisLockRetry    = 50 * time.Millisecond
	redisUnlockBudget = 2 * time.Second
)

// unlockScript deletes the key only if it still holds our token
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker serialises turns across API replicas with SET NX PX. The ttl
// bounds how long a crashed holder can block the conversation. Turns on this
// replica also take an in-process lock, which is all that remains when Redis
// is unreachable: the turn goes ahead serialised locally only, the same way
// the rate limiter lets requests through.
type RedisLocker struct {
	client *redis.Client
	ttl    time.Duration
	local  *MemoryLocker
}

var _ TurnLocker = (*RedisLocker)(nil)

// NewRedisLocker creates a RedisLocker
func NewRedisLocker(client *redis.Client, ttl time.Duration) *RedisLocker {
	return &RedisLocker{client: client, ttl: ttl, local: NewMemoryLocker()}
}

// Lock polls until the key is acquired or ctx is done
func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	unlockLocal, err := l.local.Lock(ctx, key)
	if err != nil {
		return nil, err
	}

	redisKey := redisLockPrefix + key
	token := uuid.NewString()
	held, err := l.acquire(ctx, redisKey, token)
	if err != nil {
		unlockLocal()
		return nil, err
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			defer unlockLocal()
			if !held {
				return
			}
			unlockCtx, cancel := context.WithTimeout(context.Background(), redisUnlockBudget)
			defer cancel()
			err := unlockScript.Run(unlockCtx, l.client, []string{redisKey}, token).Err()
			if err != nil && !errors.Is(err, redis.Nil) {
				logging.Warnw("Failed to release turn lock", "key", key, "error", err)
			}
		})
	}, nil
}

// acquire reports whether the Redis key was taken. A Redis failure is logged
// and reported as not held rather than as an error.
func (l *RedisLocker) acquire(ctx context.Context, redisKey, token string) (bool, error) {
	ticker := time.NewTicker(redisLockRetry)
	defer ticker.Stop()

	for {
		ok, err := l.client.SetNX(ctx, redisKey, token, l.ttl).Result()
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return false, ctxErr
			}
			logging.Warnw("Turn lock unavailable, serialising in process only",
				"key", redisKey,
				"error", fmt.Errorf("failed to acquire turn lock: %w", err),
			)
			return false, nil
		}
		if ok {
			return true, nil
		}
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-ticker.C:
		}
	}
}
