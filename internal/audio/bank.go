// Package audio turns the cues requested by the slot machine into tones and
// plays them off the frame loop.
package audio

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"slot-machine/internal/game"
)

// Waveform is the oscillator shape of a tone.
type Waveform string

const (
	WaveSine     Waveform = "sine"
	WaveSquare   Waveform = "square"
	WaveTriangle Waveform = "triangle"
)

// ErrInvalidTone is returned when a tone cannot be played.
var ErrInvalidTone = errors.New("invalid tone")

// Tone describes how a cue sounds. Step i of a cue sequence plays
// Frequencies[i % len(Frequencies)].
type Tone struct {
	Waveform    Waveform
	Frequencies []float64
	Duration    time.Duration
	Volume      float64
}

// Frequency returns the note played for the step at index i.
func (t Tone) Frequency(i int) float64 {
	if len(t.Frequencies) == 0 {
		return 0
	}
	return t.Frequencies[i%len(t.Frequencies)]
}

func (t Tone) validate() error {
	if len(t.Frequencies) == 0 {
		return fmt.Errorf("%w: no frequencies", ErrInvalidTone)
	}
	if t.Duration <= 0 {
		return fmt.Errorf("%w: duration must be positive", ErrInvalidTone)
	}
	return nil
}

// Bank maps cues to tones.
// It is safe for concurrent use.
type Bank struct {
	tones map[game.Cue]Tone
	mu    sync.RWMutex
}

// NewBank creates an empty bank.
func NewBank() *Bank {
	return &Bank{
		tones: make(map[game.Cue]Tone),
	}
}

// DefaultBank returns a bank with the stock cabinet sounds.
func DefaultBank() *Bank {
	b := NewBank()
	_ = b.Register(game.CueSpinStart, Tone{WaveSquare, []float64{150}, 300 * time.Millisecond, 0.1})
	_ = b.Register(game.CueReelStop, Tone{WaveTriangle, []float64{800}, 100 * time.Millisecond, 0.1})
	// C major arpeggio
	_ = b.Register(game.CueWin, Tone{WaveSine, []float64{523.25, 659.25, 783.99}, 300 * time.Millisecond, 0.1})
	// fanfare
	_ = b.Register(game.CueJackpot, Tone{WaveSquare, []float64{523.25, 523.25, 523.25, 659.25, 783.99, 1046.50}, 500 * time.Millisecond, 0.1})
	return b
}

// Register adds a tone for cue, replacing any existing one.
func (b *Bank) Register(cue game.Cue, t Tone) error {
	if cue == "" {
		return fmt.Errorf("%w: cue name cannot be empty", ErrInvalidTone)
	}
	if err := t.validate(); err != nil {
		return fmt.Errorf("cue %s: %w", cue, err)
	}

	freqs := make([]float64, len(t.Frequencies))
	copy(freqs, t.Frequencies)
	t.Frequencies = freqs

	b.mu.Lock()
	defer b.mu.Unlock()
	b.tones[cue] = t
	return nil
}

// Get retrieves the tone for cue.
func (b *Bank) Get(cue game.Cue) (Tone, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	t, ok := b.tones[cue]
	return t, ok
}

// Cues returns all registered cue names.
func (b *Bank) Cues() []game.Cue {
	b.mu.RLock()
	defer b.mu.RUnlock()

	cues := make([]game.Cue, 0, len(b.tones))
	for c := range b.tones {
		cues = append(cues, c)
	}
	return cues
}

// Count returns the number of registered cues.
func (b *Bank) Count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.tones)
}

// Unregister removes a cue. Returns true if it was present.
func (b *Bank) Unregister(cue game.Cue) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.tones[cue]; ok {
		delete(b.tones, cue)
		return true
	}
	return false
}
