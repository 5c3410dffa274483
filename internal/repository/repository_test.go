// Tests use testcontainers-go to spin up PostgreSQL and Redis containers.
package repository

import (
	"context"
	"fmt"
	"os/exec"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"pgregory.net/rapid"
)

// checkDockerAvailable checks if Docker is available and running
func checkDockerAvailable() bool {
	cmd := exec.Command("docker", "info")
	err := cmd.Run()
	return err == nil
}

// setupTestDB creates a PostgreSQL container with the high_scores table.
// Skips the test if Docker is not available
func setupTestDB(t *testing.T) (*pgxpool.Pool, func()) {
	if !checkDockerAvailable() {
		t.Skip("Docker is not available, skipping integration test")
	}

	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)

	require.NoError(t, NewPostgresHighScoreRepository(pool).Migrate(ctx))

	cleanup := func() {
		pool.Close()
		_ = pgContainer.Terminate(ctx)
	}

	return pool, cleanup
}

// setupTestRedis starts a Redis container and returns a connected client.
func setupTestRedis(t *testing.T) (redis.UniversalClient, func()) {
	if !checkDockerAvailable() {
		t.Skip("Docker is not available, skipping integration test")
	}

	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379/tcp")
	require.NoError(t, err)

	client := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs: []string{fmt.Sprintf("%s:%s", host, port.Port())},
	})
	require.NoError(t, client.Ping(ctx).Err())

	cleanup := func() {
		_ = client.Close()
		_ = container.Terminate(ctx)
	}
	return client, cleanup
}

// ============================================================================
// PostgresHighScoreRepository Tests
// ============================================================================

func TestPostgresHighScoreRepository_GetMissing(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewPostgresHighScoreRepository(pool)

	_, err := repo.Get(context.Background(), "highScore")
	assert.ErrorIs(t, err, ErrHighScoreNotFound)
}

func TestPostgresHighScoreRepository_PutAndGet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewPostgresHighScoreRepository(pool)
	ctx := context.Background()

	require.NoError(t, repo.Put(ctx, "highScore", 190))
	v, err := repo.Get(ctx, "highScore")
	require.NoError(t, err)
	assert.Equal(t, int64(190), v)

	// upsert overwrites
	require.NoError(t, repo.Put(ctx, "highScore", 1040))
	rec, err := repo.GetRecord(ctx, "highScore")
	require.NoError(t, err)
	assert.Equal(t, int64(1040), rec.Value)
	assert.Equal(t, "highScore", rec.Key)
	assert.False(t, rec.UpdatedAt.IsZero())

	// keys are independent
	_, err = repo.Get(ctx, "other")
	assert.ErrorIs(t, err, ErrHighScoreNotFound)
}

func TestPostgresHighScoreRepository_MigrateIsIdempotent(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewPostgresHighScoreRepository(pool)
	assert.NoError(t, repo.Migrate(context.Background()))
}

func TestPostgresHighScoreRepository_Invalid(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	_, err := pool.Exec(ctx, `INSERT INTO high_scores (key, value) VALUES ('broken', -5)`)
	require.NoError(t, err)

	_, err = NewPostgresHighScoreRepository(pool).Get(ctx, "broken")
	assert.ErrorIs(t, err, ErrHighScoreInvalid)
}

// ============================================================================
// RedisHighScoreRepository Tests
// ============================================================================

func TestRedisHighScoreRepository(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()

	repo := NewRedisHighScoreRepository(client)
	ctx := context.Background()

	_, err := repo.Get(ctx, "highScore")
	assert.ErrorIs(t, err, ErrHighScoreNotFound)

	require.NoError(t, repo.Put(ctx, "highScore", 250))
	v, err := repo.Get(ctx, "highScore")
	require.NoError(t, err)
	assert.Equal(t, int64(250), v)

	raw, err := client.Get(ctx, "highScore").Result()
	require.NoError(t, err)
	assert.Equal(t, "250", raw)

	require.NoError(t, client.Set(ctx, "garbage", "not-a-number", 0).Err())
	_, err = repo.Get(ctx, "garbage")
	assert.ErrorIs(t, err, ErrHighScoreInvalid)
}

// ============================================================================
// MemoryHighScoreRepository Tests
// ============================================================================

func TestMemoryHighScoreRepository(t *testing.T) {
	repo := NewMemoryHighScoreRepository()
	ctx := context.Background()

	_, err := repo.Get(ctx, "highScore")
	assert.ErrorIs(t, err, ErrHighScoreNotFound)

	require.NoError(t, repo.Put(ctx, "highScore", 42))
	v, err := repo.Get(ctx, "highScore")
	require.NoError(t, err)
	assert.Equal(t, int64(42), v)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	assert.ErrorIs(t, repo.Put(cancelled, "highScore", 1), context.Canceled)
	_, err = repo.Get(cancelled, "highScore")
	assert.ErrorIs(t, err, context.Canceled)
}

// TestMemoryHighScoreRepositoryLastWriteWinsProperty checks Get returns the
// last value Put under each key.
func TestMemoryHighScoreRepositoryLastWriteWinsProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		repo := NewMemoryHighScoreRepository()
		ctx := context.Background()
		want := make(map[string]int64)

		n := rapid.IntRange(1, 50).Draw(t, "writes")
		for i := 0; i < n; i++ {
			key := rapid.SampledFrom([]string{"a", "b", "c"}).Draw(t, "key")
			val := rapid.Int64Range(0, 1_000_000).Draw(t, "value")
			if err := repo.Put(ctx, key, val); err != nil {
				t.Fatalf("put: %v", err)
			}
			want[key] = val
		}

		for key, val := range want {
			got, err := repo.Get(ctx, key)
			if err != nil || got != val {
				t.Fatalf("key %s: got %d (%v), want %d", key, got, err, val)
			}
		}
	})
}

var (
	_ HighScoreRepository = (*PostgresHighScoreRepository)(nil)
	_ HighScoreRepository = (*RedisHighScoreRepository)(nil)
	_ HighScoreRepository = (*MemoryHighScoreRepository)(nil)
)
