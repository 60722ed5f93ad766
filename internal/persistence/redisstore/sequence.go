package redisstore

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const sequencePrefix = "roombooking:seq:"

// Sequence allocates identifiers with INCR so every process shares one counter.
type Sequence struct {
	client *redis.Client
}

// NewSequence creates a Redis sequence allocator.
func NewSequence(client *redis.Client) *Sequence {
	return &Sequence{client: client}
}

// Next increments the named counter. The first call for a name returns 1.
func (s *Sequence) Next(ctx context.Context, name string) (int64, error) {
	value, err := s.client.Incr(ctx, sequencePrefix+name).Result()
	if err != nil {
		return 0, fmt.Errorf("redis incr %s: %w", name, err)
	}
	return value, nil
}

// Seed sets the counter to value unless it already exists, so ids issued
// before switching backends are never reused.
func (s *Sequence) Seed(ctx context.Context, name string, value int64) error {
	if err := s.client.SetNX(ctx, sequencePrefix+name, value, 0).Err(); err != nil {
		return fmt.Errorf("redis seed %s: %w", name, err)
	}
	return nil
}
