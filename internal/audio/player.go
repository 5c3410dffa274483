package audio

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/rs/zerolog/log"

	"slot-machine/internal/game"
)

// Note is one tone ready to be emitted.
type Note struct {
	Cue       game.Cue
	Step      int
	Waveform  Waveform
	Frequency float64
	Duration  time.Duration
	Volume    float64
}

// Sink makes a note audible.
type Sink interface {
	Emit(n Note)
}

// Player schedules cue sequences on a worker pool so the caller never waits
// for a note to sound.
type Player struct {
	bank *Bank
	sink Sink
	pool *ants.Pool

	mu     sync.Mutex
	timers map[*time.Timer]struct{}
	closed bool
}

// NewPlayer creates a player with workers goroutines.
func NewPlayer(bank *Bank, sink Sink, workers int) (*Player, error) {
	if workers <= 0 {
		workers = 4
	}
	pool, err := ants.NewPool(workers,
		ants.WithNonblocking(true),
		ants.WithPanicHandler(func(p any) {
			log.Error().Interface("panic", p).Msg("Audio sink panicked")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create audio pool: %w", err)
	}
	return &Player{
		bank:   bank,
		sink:   sink,
		pool:   pool,
		timers: make(map[*time.Timer]struct{}),
	}, nil
}

// Play schedules every step. Unknown cues and a saturated pool drop notes.
func (p *Player) Play(steps []game.CueStep) {
	for i, step := range steps {
		tone, ok := p.bank.Get(step.Cue)
		if !ok {
			log.Debug().Str("cue", string(step.Cue)).Msg("No tone for cue")
			continue
		}
		n := Note{
			Cue:       step.Cue,
			Step:      i,
			Waveform:  tone.Waveform,
			Frequency: tone.Frequency(i),
			Duration:  tone.Duration,
			Volume:    tone.Volume,
		}
		if step.Delay <= 0 {
			p.submit(n)
			continue
		}
		p.schedule(step.Delay, n)
	}
}

func (p *Player) schedule(delay time.Duration, n Note) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}

	var t *time.Timer
	t = time.AfterFunc(delay, func() {
		p.mu.Lock()
		delete(p.timers, t)
		p.mu.Unlock()
		p.submit(n)
	})
	p.timers[t] = struct{}{}
}

func (p *Player) submit(n Note) {
	if err := p.pool.Submit(func() { p.sink.Emit(n) }); err != nil {
		log.Debug().Err(err).Str("cue", string(n.Cue)).Msg("Audio note dropped")
	}
}

// Close cancels pending notes and releases the pool.
func (p *Player) Close() {
	p.mu.Lock()
	p.closed = true
	for t := range p.timers {
		t.Stop()
	}
	clear(p.timers)
	p.mu.Unlock()

	p.pool.Release()
}

// TerminalSink logs each note and optionally rings the terminal bell.
type TerminalSink struct {
	mu   sync.Mutex
	w    io.Writer
	bell bool
}

// NewTerminalSink creates a sink writing bells to w when bell is set.
func NewTerminalSink(w io.Writer, bell bool) *TerminalSink {
	return &TerminalSink{w: w, bell: bell}
}

func (s *TerminalSink) Emit(n Note) {
	log.Debug().
		Str("cue", string(n.Cue)).
		Int("step", n.Step).
		Str("wave", string(n.Waveform)).
		Float64("freq", n.Frequency).
		Dur("duration", n.Duration).
		Msg("Tone")

	if !s.bell || s.w == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := io.WriteString(s.w, "\a"); err != nil {
		log.Debug().Err(err).Msg("Failed to ring bell")
	}
}
