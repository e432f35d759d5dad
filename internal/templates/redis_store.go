package templates

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/creator-sales-engine/internal/chatterplan"
	"github.com/wolfman30/creator-sales-engine/internal/drafting"
)

const overrideKeyPrefix = "templates:creator:"

// RedisStore keeps per-creator template overrides, one key per usage.
type RedisStore struct {
	client redis.Cmdable
}

// NewRedisStore creates a store on the given client.
func NewRedisStore(client redis.Cmdable) *RedisStore {
	if client == nil {
		panic("templates: redis client required")
	}
	return &RedisStore{client: client}
}

func (s *RedisStore) key(creatorID string, usage chatterplan.Usage) string {
	return overrideKeyPrefix + creatorID + ":" + string(usage)
}

// Get returns the creator's override for usage, or false when none is set.
func (s *RedisStore) Get(ctx context.Context, creatorID string, usage chatterplan.Usage) (drafting.Pools, bool, error) {
	data, err := s.client.Get(ctx, s.key(creatorID, usage)).Bytes()
	if errors.Is(err, redis.Nil) {
		return drafting.Pools{}, false, nil
	}
	if err != nil {
		return drafting.Pools{}, false, fmt.Errorf("templates: get override: %w", err)
	}
	var pools drafting.Pools
	if err := json.Unmarshal(data, &pools); err != nil {
		return drafting.Pools{}, false, fmt.Errorf("templates: decode override: %w", err)
	}
	return pools, !pools.Empty(), nil
}

// Set stores an override for usage.
func (s *RedisStore) Set(ctx context.Context, creatorID string, usage chatterplan.Usage, pools drafting.Pools) error {
	if _, ok := chatterplan.ParseUsage(string(usage)); !ok {
		return fmt.Errorf("templates: %w: %q", ErrUnknownUsage, usage)
	}
	if pools.Empty() {
		return ErrEmptyPools
	}
	data, err := json.Marshal(pools)
	if err != nil {
		return fmt.Errorf("templates: encode override: %w", err)
	}
	if err := s.client.Set(ctx, s.key(creatorID, usage), data, 0).Err(); err != nil {
		return fmt.Errorf("templates: set override: %w", err)
	}
	return nil
}

// Delete removes an override so the defaults apply again.
func (s *RedisStore) Delete(ctx context.Context, creatorID string, usage chatterplan.Usage) error {
	if err := s.client.Del(ctx, s.key(creatorID, usage)).Err(); err != nil {
		return fmt.Errorf("templates: delete override: %w", err)
	}
	return nil
}
