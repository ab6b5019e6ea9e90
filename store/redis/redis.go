package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/smallnest/planweave/store"
)

// RedisPlanStore implements store.PlanStore using Redis.
type RedisPlanStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

var _ store.PlanStore = (*RedisPlanStore)(nil)

// RedisOptions configuration for the Redis connection
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Prefix   string        // Key prefix, default "planweave:"
	TTL      time.Duration // Expiration for plan records, default 0 (no expiration)
}

// NewRedisPlanStore creates a new Redis plan store.
func NewRedisPlanStore(opts RedisOptions) *RedisPlanStore {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	prefix := opts.Prefix
	if prefix == "" {
		prefix = "planweave:"
	}

	return &RedisPlanStore{
		client: client,
		prefix: prefix,
		ttl:    opts.TTL,
	}
}

func (s *RedisPlanStore) planKey(planID string) string {
	return fmt.Sprintf("%splan:%s", s.prefix, planID)
}

func (s *RedisPlanStore) indexKey() string {
	return s.prefix + "plans"
}

// Save stores a plan record, replacing any previous snapshot.
func (s *RedisPlanStore) Save(ctx context.Context, record *store.PlanRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal plan record: %w", err)
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, s.planKey(record.PlanID), data, s.ttl)
	pipe.SAdd(ctx, s.indexKey(), record.PlanID)
	if s.ttl > 0 {
		pipe.Expire(ctx, s.indexKey(), s.ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save plan record to redis: %w", err)
	}
	return nil
}

// Load retrieves the latest snapshot of a plan.
func (s *RedisPlanStore) Load(ctx context.Context, planID string) (*store.PlanRecord, error) {
	data, err := s.client.Get(ctx, s.planKey(planID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", store.ErrRecordNotFound, planID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load plan record from redis: %w", err)
	}

	var record store.PlanRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal plan record: %w", err)
	}
	return &record, nil
}

// List returns the IDs of all stored plans.
func (s *RedisPlanStore) List(ctx context.Context) ([]string, error) {
	ids, err := s.client.SMembers(ctx, s.indexKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list plan records: %w", err)
	}
	return ids, nil
}

// Delete removes a plan's snapshot.
func (s *RedisPlanStore) Delete(ctx context.Context, planID string) error {
	pipe := s.client.Pipeline()
	pipe.Del(ctx, s.planKey(planID))
	pipe.SRem(ctx, s.indexKey(), planID)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete plan record from redis: %w", err)
	}
	return nil
}

// Close closes the underlying Redis client.
func (s *RedisPlanStore) Close() error {
	return s.client.Close()
}
