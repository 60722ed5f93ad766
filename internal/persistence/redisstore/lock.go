package redisstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	// ErrLockNotAcquired is returned when the lock stays held past the wait budget.
	ErrLockNotAcquired = errors.New("redisstore: lock not acquired")
	// ErrLockNotOwned is returned when releasing a lock that expired or was taken over.
	ErrLockNotOwned = errors.New("redisstore: lock not owned")
)

const lockPrefix = "roombooking:lock:room:"

var releaseScript = redis.NewScript(`
	if redis.call("GET", KEYS[1]) == ARGV[1] then
		return redis.call("DEL", KEYS[1])
	else
		return 0
	end
`)

// RoomLocker holds a short-lived lock per room around booking writes.
type RoomLocker struct {
	client     *redis.Client
	ttl        time.Duration
	retryDelay time.Duration
	maxRetries int
}

// NewRoomLocker creates a locker whose locks expire after ttl. Acquisition is
// retried until roughly one ttl has elapsed.
func NewRoomLocker(client *redis.Client, ttl time.Duration) *RoomLocker {
	retryDelay := 50 * time.Millisecond
	maxRetries := int(ttl / retryDelay)
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &RoomLocker{client: client, ttl: ttl, retryDelay: retryDelay, maxRetries: maxRetries}
}

// LockResource blocks until the room lock is held and returns its release func.
func (l *RoomLocker) LockResource(ctx context.Context, roomID int64) (func(ctx context.Context) error, error) {
	key := fmt.Sprintf("%s%d", lockPrefix, roomID)
	value := uuid.New().String()

	for attempt := 0; attempt < l.maxRetries; attempt++ {
		ok, err := l.client.SetNX(ctx, key, value, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("redis lock room %d: %w", roomID, err)
		}
		if ok {
			return func(ctx context.Context) error {
				return l.release(ctx, key, value)
			}, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.retryDelay):
		}
	}
	return nil, fmt.Errorf("%w: room %d", ErrLockNotAcquired, roomID)
}

func (l *RoomLocker) release(ctx context.Context, key, value string) error {
	result, err := releaseScript.Run(ctx, l.client, []string{key}, value).Int()
	if err != nil {
		return fmt.Errorf("redis unlock %s: %w", key, err)
	}
	if result == 0 {
		return ErrLockNotOwned
	}
	return nil
}
