// Package repository provides high score persistence backends.
package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"slot-machine/internal/model"
)

// Common errors for repository operations.
var (
	ErrHighScoreNotFound = errors.New("high score not found")
	ErrHighScoreInvalid  = errors.New("high score value is invalid")
)

// HighScoreRepository reads and writes a single integer per key.
type HighScoreRepository interface {
	Get(ctx context.Context, key string) (int64, error)
	Put(ctx context.Context, key string, value int64) error
}

// PostgresHighScoreRepository stores high scores in the high_scores table.
type PostgresHighScoreRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresHighScoreRepository creates a new PostgresHighScoreRepository instance.
func NewPostgresHighScoreRepository(pool *pgxpool.Pool) *PostgresHighScoreRepository {
	return &PostgresHighScoreRepository{pool: pool}
}

// Migrate creates the high_scores table if it does not exist.
func (r *PostgresHighScoreRepository) Migrate(ctx context.Context) error {
	const query = `
		CREATE TABLE IF NOT EXISTS high_scores (
			key TEXT PRIMARY KEY,
			value BIGINT NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`
	if _, err := r.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to migrate high_scores: %w", err)
	}
	return nil
}

// Get returns the stored value for key.
// Returns ErrHighScoreNotFound if the key does not exist.
func (r *PostgresHighScoreRepository) Get(ctx context.Context, key string) (int64, error) {
	hs, err := r.GetRecord(ctx, key)
	if err != nil {
		return 0, err
	}
	return hs.Value, nil
}

// GetRecord returns the full row for key.
func (r *PostgresHighScoreRepository) GetRecord(ctx context.Context, key string) (*model.HighScore, error) {
	const query = `
		SELECT key, value, updated_at
		FROM high_scores
		WHERE key = $1
	`

	var hs model.HighScore
	err := r.pool.QueryRow(ctx, query, key).Scan(&hs.Key, &hs.Value, &hs.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrHighScoreNotFound
		}
		return nil, fmt.Errorf("failed to get high score: %w", err)
	}
	if hs.Value < 0 {
		return nil, ErrHighScoreInvalid
	}
	return &hs, nil
}

// Put upserts value under key.
func (r *PostgresHighScoreRepository) Put(ctx context.Context, key string, value int64) error {
	const query = `
		INSERT INTO high_scores (key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value, updated_at = NOW()
	`
	if _, err := r.pool.Exec(ctx, query, key, value); err != nil {
		return fmt.Errorf("failed to put high score: %w", err)
	}
	return nil
}

// MemoryHighScoreRepository keeps high scores in process memory.
type MemoryHighScoreRepository struct {
	mu     sync.RWMutex
	values map[string]int64
}

// NewMemoryHighScoreRepository creates an empty in-memory repository.
func NewMemoryHighScoreRepository() *MemoryHighScoreRepository {
	return &MemoryHighScoreRepository{values: make(map[string]int64)}
}

func (r *MemoryHighScoreRepository) Get(ctx context.Context, key string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.values[key]
	if !ok {
		return 0, ErrHighScoreNotFound
	}
	return v, nil
}

func (r *MemoryHighScoreRepository) Put(ctx context.Context, key string, value int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values[key] = value
	return nil
}
