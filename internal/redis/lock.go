package redisclient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	ErrLockNotAcquired = errors.New("assignment lock not acquired")
)

// Locker guards the provider-assignment critical section so two concurrent
// assignments cannot both pass the conflict check for the same provider day
type Locker interface {
	WithAssignmentLock(ctx context.Context, providerID uuid.UUID, date string, fn func(ctx context.Context) error) error
}

type redisAssignmentLocker struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisAssignmentLocker creates a locker keyed per provider and date
func NewRedisAssignmentLocker(client *redis.Client, ttl time.Duration) Locker {
	return &redisAssignmentLocker{
		client: client,
		ttl:    ttl,
	}
}

func (l *redisAssignmentLocker) WithAssignmentLock(ctx context.Context, providerID uuid.UUID, date string, fn func(ctx context.Context) error) error {
	key := fmt.Sprintf("lock:assign:%s:%s", providerID.String(), date)
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return fmt.Errorf("acquire assignment lock: %w", err)
	}
	if !ok {
		return ErrLockNotAcquired
	}

	defer func() {
		_ = l.release(ctx, key, token)
	}()

	ctxWithTimeout, cancel := context.WithTimeout(ctx, l.ttl)
	defer cancel()

	return fn(ctxWithTimeout)
}

var unlockScript = redis.NewScript(`
local val = redis.call("GET", KEYS[1])
if val == ARGV[1] then
  return redis.call("DEL", KEYS[1])
else
  return 0
end
`)

func (l *redisAssignmentLocker) release(ctx context.Context, key, token string) error {
	_, err := unlockScript.Run(ctx, l.client, []string{key}, token).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("release assignment lock: %w", err)
	}
	return nil
}
