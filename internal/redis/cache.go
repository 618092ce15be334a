package redisclient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ScheduleCache holds a provider's serialized day schedule for the polling
// cadence of the dashboards. A miss is not an error: callers fall through to
// the booking store and re-warm the entry.
type ScheduleCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewScheduleCache(client *redis.Client, ttl time.Duration) *ScheduleCache {
	return &ScheduleCache{
		client: client,
		ttl:    ttl,
	}
}

func scheduleKey(providerID uuid.UUID, date string) string {
	return fmt.Sprintf("schedule:%s:%s", providerID.String(), date)
}

// Get returns the cached schedule payload and whether it was present.
func (c *ScheduleCache) Get(ctx context.Context, providerID uuid.UUID, date string) ([]byte, bool, error) {
	data, err := c.client.Get(ctx, scheduleKey(providerID, date)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("get schedule cache: %w", err)
	}
	return data, true, nil
}

func (c *ScheduleCache) Set(ctx context.Context, providerID uuid.UUID, date string, payload []byte) error {
	if err := c.client.Set(ctx, scheduleKey(providerID, date), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("set schedule cache: %w", err)
	}
	return nil
}

// Invalidate drops a provider's cached day so the next read sees the store.
func (c *ScheduleCache) Invalidate(ctx context.Context, providerID uuid.UUID, date string) error {
	if err := c.client.Del(ctx, scheduleKey(providerID, date)).Err(); err != nil {
		return fmt.Errorf("invalidate schedule cache: %w", err)
	}
	return nil
}
