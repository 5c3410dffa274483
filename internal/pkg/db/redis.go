package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"slot-machine/internal/config"
)

// Redis wraps a universal client so single-node and cluster addresses work
// the same way.
type Redis struct {
	redis.UniversalClient
}

// NewRedis connects to Redis and verifies the connection with a ping.
// cfg.Addr may hold a comma separated list of cluster nodes.
func NewRedis(ctx context.Context, cfg *config.RedisConfig) (*Redis, error) {
	addrs := strings.Split(cfg.Addr, ",")
	for i := range addrs {
		addrs[i] = strings.TrimSpace(addrs[i])
	}

	rdb := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:           addrs,
		Password:        cfg.Password,
		DB:              cfg.DB,
		DialTimeout:     orDefault(cfg.DialTimeout, 5*time.Second),
		ReadTimeout:     orDefault(cfg.ReadTimeout, 3*time.Second),
		WriteTimeout:    orDefault(cfg.WriteTimeout, 3*time.Second),
		PoolSize:        4,
		MinIdleConns:    1,
		MaxRetries:      3,
		MinRetryBackoff: 100 * time.Millisecond,
		MaxRetryBackoff: 500 * time.Millisecond,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	log.Info().Strs("addrs", addrs).Int("db", cfg.DB).Msg("Connected to Redis")
	return &Redis{UniversalClient: rdb}, nil
}

// Close closes the client.
func (r *Redis) Close() error {
	log.Info().Msg("Closing Redis connection")
	return r.UniversalClient.Close()
}

// HealthCheck pings Redis.
func (r *Redis) HealthCheck(ctx context.Context) error {
	return r.Ping(ctx).Err()
}
