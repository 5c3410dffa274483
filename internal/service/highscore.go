// Package service provides business logic implementations.
package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"slot-machine/internal/repository"
)

const defaultWriteTimeout = 5 * time.Second

// HighScoreService loads the persisted high score at startup and writes new
// ones in the background. The machine calls Record from its tick; Record
// never touches the store.
type HighScoreService struct {
	repo    repository.HighScoreRepository
	key     string
	timeout time.Duration

	mu         sync.Mutex
	pending    int64
	hasPending bool
	written    int64

	wake chan struct{}
}

// NewHighScoreService creates a service storing under key.
func NewHighScoreService(repo repository.HighScoreRepository, key string) *HighScoreService {
	return &HighScoreService{
		repo:    repo,
		key:     key,
		timeout: defaultWriteTimeout,
		wake:    make(chan struct{}, 1),
	}
}

// Load returns the stored high score. Any failure, including a missing or
// unparseable value, yields 0.
func (s *HighScoreService) Load(ctx context.Context) int64 {
	v, err := s.repo.Get(ctx, s.key)
	switch {
	case err == nil:
	case errors.Is(err, repository.ErrHighScoreNotFound):
		log.Debug().Str("key", s.key).Msg("No stored high score")
		return 0
	case errors.Is(err, repository.ErrHighScoreInvalid):
		log.Warn().Err(err).Str("key", s.key).Msg("Stored high score is invalid, starting from 0")
		return 0
	default:
		log.Warn().Err(err).Str("key", s.key).Msg("Failed to load high score, starting from 0")
		return 0
	}

	s.mu.Lock()
	s.written = v
	s.mu.Unlock()

	log.Info().Int64("high_score", v).Msg("Loaded high score")
	return v
}

// Record queues score for writing. Only the highest pending score is kept.
func (s *HighScoreService) Record(score int64) {
	s.mu.Lock()
	if s.hasPending && score <= s.pending {
		s.mu.Unlock()
		return
	}
	if !s.hasPending && score <= s.written {
		s.mu.Unlock()
		return
	}
	s.pending = score
	s.hasPending = true
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Pending returns the score waiting to be written, if any.
func (s *HighScoreService) Pending() (int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending, s.hasPending
}

// Run writes pending scores until ctx is done.
func (s *HighScoreService) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.wake:
			_ = s.Flush(ctx)
		}
	}
}

// Flush writes the pending score, if any. On failure the score stays
// pending for the next attempt.
func (s *HighScoreService) Flush(ctx context.Context) error {
	s.mu.Lock()
	if !s.hasPending {
		s.mu.Unlock()
		return nil
	}
	v := s.pending
	s.hasPending = false
	s.mu.Unlock()

	writeCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.repo.Put(writeCtx, s.key, v); err != nil {
		log.Warn().Err(err).Int64("high_score", v).Msg("Failed to save high score")
		s.mu.Lock()
		if !s.hasPending || s.pending < v {
			s.pending = v
			s.hasPending = true
		}
		s.mu.Unlock()
		return err
	}

	s.mu.Lock()
	if v > s.written {
		s.written = v
	}
	s.mu.Unlock()

	log.Debug().Int64("high_score", v).Msg("Saved high score")
	return nil
}
