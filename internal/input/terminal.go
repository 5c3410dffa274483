// Package input turns terminal key presses into machine gestures.
package input

import (
	"bufio"
	"context"
	"errors"
	"io"
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultDebounce collapses a space followed by enter into one gesture.
const DefaultDebounce = 150 * time.Millisecond

// Activator receives one gesture per accepted key press.
type Activator interface {
	Activate()
}

// Terminal reads keys from a line-buffered reader. Space and enter are
// gestures; presses closer together than the debounce window are dropped.
type Terminal struct {
	r         io.Reader
	activator Activator
	debounce  time.Duration
	now       func() time.Time
	last      time.Time
}

// NewTerminal creates a terminal source.
func NewTerminal(r io.Reader, activator Activator, debounce time.Duration) *Terminal {
	if debounce < 0 {
		debounce = 0
	}
	return &Terminal{
		r:         r,
		activator: activator,
		debounce:  debounce,
		now:       time.Now,
	}
}

// Run reads until EOF or ctx is done. A blocked read is abandoned on cancel.
func (t *Terminal) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() { errCh <- t.read() }()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

func (t *Terminal) read() error {
	br := bufio.NewReader(t.r)
	for {
		b, err := br.ReadByte()
		if err != nil {
			if errors.Is(err, io.EOF) {
				log.Debug().Msg("Terminal input closed")
				return nil
			}
			return err
		}
		t.handle(b)
	}
}

func (t *Terminal) handle(b byte) {
	switch b {
	case ' ', '\n', '\r':
	default:
		return
	}

	now := t.now()
	if !t.last.IsZero() && now.Sub(t.last) < t.debounce {
		return
	}
	t.last = now
	t.activator.Activate()
}
