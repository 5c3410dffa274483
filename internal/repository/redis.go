package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// RedisHighScoreRepository stores each high score as a plain string value.
type RedisHighScoreRepository struct {
	client redis.UniversalClient
}

// NewRedisHighScoreRepository creates a repository on client.
func NewRedisHighScoreRepository(client redis.UniversalClient) *RedisHighScoreRepository {
	return &RedisHighScoreRepository{client: client}
}

// Get parses the value stored at key.
func (r *RedisHighScoreRepository) Get(ctx context.Context, key string) (int64, error) {
	raw, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, ErrHighScoreNotFound
		}
		return 0, fmt.Errorf("failed to get high score: %w", err)
	}

	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%w: %q", ErrHighScoreInvalid, raw)
	}
	return v, nil
}

// Put writes value at key with no expiry.
func (r *RedisHighScoreRepository) Put(ctx context.Context, key string, value int64) error {
	if err := r.client.Set(ctx, key, strconv.FormatInt(value, 10), 0).Err(); err != nil {
		return fmt.Errorf("failed to put high score: %w", err)
	}
	return nil
}
