package sweep

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// reminderTTL keeps dedup keys around comfortably past the calendar day they
// guard, then lets Redis reclaim them.
const reminderTTL = 48 * time.Hour

// RedisReminderLog is a Redis-backed ReminderLog for multi-node deployments,
// where every sweep instance must observe the same sent-set.
type RedisReminderLog struct {
	client redis.UniversalClient
}

// NewRedisReminderLog creates a reminder log over the given Redis client.
func NewRedisReminderLog(client redis.UniversalClient) *RedisReminderLog {
	if client == nil {
		panic("sweep: redis client is required")
	}
	return &RedisReminderLog{client: client}
}

// MarkSent claims the subscription+offset+day key with SETNX semantics.
func (l *RedisReminderLog) MarkSent(ctx context.Context, subID uuid.UUID, offsetDays int, day string) (bool, error) {
	key := fmt.Sprintf("trial_reminder:%s:%d:%s", subID, offsetDays, day)

	first, err := l.client.SetNX(ctx, key, 1, reminderTTL).Result()
	if err != nil {
		return false, errors.Join(ErrReminderLogUnavailable, err)
	}
	return first, nil
}
