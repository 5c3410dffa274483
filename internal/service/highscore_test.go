package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"slot-machine/internal/repository"
)

type stubRepo struct {
	mu     sync.Mutex
	value  int64
	getErr error
	putErr error
	puts   []int64
}

func (r *stubRepo) Get(context.Context, string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.value, r.getErr
}

func (r *stubRepo) Put(_ context.Context, _ string, v int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.putErr != nil {
		return r.putErr
	}
	r.value = v
	r.puts = append(r.puts, v)
	return nil
}

func (r *stubRepo) setPutErr(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.putErr = err
}

func (r *stubRepo) putsCopy() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int64(nil), r.puts...)
}

func TestHighScoreService_Load(t *testing.T) {
	tests := []struct {
		name string
		repo *stubRepo
		want int64
	}{
		{"stored value", &stubRepo{value: 700}, 700},
		{"not found", &stubRepo{getErr: repository.ErrHighScoreNotFound}, 0},
		{"invalid", &stubRepo{getErr: fmt.Errorf("%w: %q", repository.ErrHighScoreInvalid, "abc")}, 0},
		{"store down", &stubRepo{getErr: errors.New("connection refused")}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewHighScoreService(tt.repo, "highScore")
			assert.Equal(t, tt.want, s.Load(context.Background()))
		})
	}
}

func TestHighScoreService_RecordCoalesces(t *testing.T) {
	repo := &stubRepo{}
	s := NewHighScoreService(repo, "highScore")

	s.Record(150)
	s.Record(300)
	s.Record(200)

	v, ok := s.Pending()
	require.True(t, ok)
	assert.Equal(t, int64(300), v)

	require.NoError(t, s.Flush(context.Background()))
	assert.Equal(t, []int64{300}, repo.putsCopy())

	_, ok = s.Pending()
	assert.False(t, ok)

	s.Record(250) // below what is stored
	_, ok = s.Pending()
	assert.False(t, ok)
	require.NoError(t, s.Flush(context.Background()))
	assert.Len(t, repo.putsCopy(), 1)
}

func TestHighScoreService_LoadedValueSuppressesLowerRecords(t *testing.T) {
	repo := &stubRepo{value: 500}
	s := NewHighScoreService(repo, "highScore")
	require.Equal(t, int64(500), s.Load(context.Background()))

	s.Record(400)
	_, ok := s.Pending()
	assert.False(t, ok)
}

func TestHighScoreService_FailedWriteStaysPending(t *testing.T) {
	repo := &stubRepo{putErr: errors.New("write failed")}
	s := NewHighScoreService(repo, "highScore")

	s.Record(120)
	assert.Error(t, s.Flush(context.Background()))

	v, ok := s.Pending()
	require.True(t, ok)
	assert.Equal(t, int64(120), v)

	repo.setPutErr(nil)
	require.NoError(t, s.Flush(context.Background()))
	assert.Equal(t, []int64{120}, repo.putsCopy())
}

func TestHighScoreService_Run(t *testing.T) {
	repo := &stubRepo{}
	s := NewHighScoreService(repo, "highScore")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	s.Record(190)
	require.Eventually(t, func() bool {
		puts := repo.putsCopy()
		return len(puts) > 0 && puts[len(puts)-1] == 190
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop")
	}
}

func TestHighScoreService_RecordDoesNotBlock(t *testing.T) {
	s := NewHighScoreService(&stubRepo{}, "highScore")
	done := make(chan struct{})
	go func() {
		for i := int64(1); i <= 1000; i++ {
			s.Record(i)
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Record blocked without a running writer")
	}
}

// TestHighScoreServiceStoresMaximumProperty records arbitrary scores with
// interleaved flushes and checks the store ends at the highest one.
func TestHighScoreServiceStoresMaximumProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		repo := repository.NewMemoryHighScoreRepository()
		s := NewHighScoreService(repo, "highScore")
		ctx := context.Background()

		scores := rapid.SliceOfN(rapid.Int64Range(1, 100_000), 1, 100).Draw(t, "scores")
		var best int64
		for _, sc := range scores {
			s.Record(sc)
			best = max(best, sc)
			if rapid.Bool().Draw(t, "flush") {
				if err := s.Flush(ctx); err != nil {
					t.Fatalf("flush: %v", err)
				}
			}
		}
		if err := s.Flush(ctx); err != nil {
			t.Fatalf("flush: %v", err)
		}

		got, err := repo.Get(ctx, "highScore")
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if got != best {
			t.Fatalf("stored %d, want %d", got, best)
		}
	})
}
