package input

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type counter struct{ n int }

func (c *counter) Activate() { c.n++ }

// fakeClock advances by step on every call.
type fakeClock struct {
	t    time.Time
	step time.Duration
}

func (c *fakeClock) now() time.Time {
	c.t = c.t.Add(c.step)
	return c.t
}

func TestTerminal_Debounce(t *testing.T) {
	tests := []struct {
		name  string
		input string
		step  time.Duration
		want  int
	}{
		{"space then enter collapses", " \n", 10 * time.Millisecond, 1},
		{"slow presses all count", " \n \n", time.Second, 4},
		{"other keys ignored", "abc\tq", time.Second, 0},
		{"carriage return counts", "\r", time.Second, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &counter{}
			term := NewTerminal(strings.NewReader(tt.input), c, DefaultDebounce)
			term.now = (&fakeClock{t: time.Unix(0, 0), step: tt.step}).now

			require.NoError(t, term.Run(context.Background()))
			assert.Equal(t, tt.want, c.n)
		})
	}
}

func TestTerminal_ZeroDebounce(t *testing.T) {
	c := &counter{}
	term := NewTerminal(strings.NewReader("   "), c, 0)
	require.NoError(t, term.Run(context.Background()))
	assert.Equal(t, 3, c.n)
}

func TestTerminal_RunStopsOnCancel(t *testing.T) {
	r, w := io.Pipe()
	defer w.Close()

	term := NewTerminal(r, &counter{}, DefaultDebounce)
	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)
	go func() { errCh <- term.Run(ctx) }()
	cancel()

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
