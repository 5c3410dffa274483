// Package driver runs the slot machine frame loop. It owns the machine: every
// tick, gesture and load signal reaches the machine from the loop goroutine.
package driver

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"slot-machine/internal/effects"
	"slot-machine/internal/game/slot"
)

const (
	DefaultTickRate    = 60
	DefaultInputBuffer = 8
)

// Frame is what renderers and remote readers see after each step.
type Frame struct {
	*slot.Snapshot
	Particles []effects.Particle `json:"particles"`
	Seq       uint64             `json:"seq"`
}

// Renderer draws a frame. Render runs on the loop goroutine and must return
// quickly.
type Renderer interface {
	Render(f *Frame)
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(f *Frame)

func (fn RendererFunc) Render(f *Frame) { fn(f) }

// Config controls the loop cadence.
type Config struct {
	TickRate    int
	InputBuffer int
}

// Interval returns the duration of one frame.
func (c Config) Interval() time.Duration {
	return time.Second / time.Duration(c.TickRate)
}

// Dependencies holds optional collaborators.
type Dependencies struct {
	Particles *effects.System
	Renderers []Renderer
}

// Driver feeds the machine one tick per frame and publishes snapshots.
type Driver struct {
	machine   *slot.Machine
	particles *effects.System
	renderers []Renderer
	cfg       Config

	activations chan struct{}
	loaded      chan struct{}
	loadedSent  atomic.Bool

	frame atomic.Pointer[Frame]
	seq   uint64
}

// New creates a driver around machine and publishes its initial frame.
func New(machine *slot.Machine, cfg *Config, deps *Dependencies) *Driver {
	c := Config{}
	if cfg != nil {
		c = *cfg
	}
	if c.TickRate <= 0 {
		c.TickRate = DefaultTickRate
	}
	if c.InputBuffer <= 0 {
		c.InputBuffer = DefaultInputBuffer
	}

	d := &Driver{
		machine:     machine,
		cfg:         c,
		activations: make(chan struct{}, c.InputBuffer),
		loaded:      make(chan struct{}, 1),
	}
	if deps != nil {
		d.particles = deps.Particles
		d.renderers = deps.Renderers
	}
	if d.particles == nil {
		d.particles = effects.NewSystem(nil)
	}
	d.publish()
	return d
}

// Activate queues one user gesture. Safe from any goroutine; when the queue
// is full the gesture is dropped.
func (d *Driver) Activate() {
	select {
	case d.activations <- struct{}{}:
	default:
		log.Debug().Msg("Activation dropped, input buffer full")
	}
}

// AssetsLoaded queues the one-shot loaded signal. Later calls are ignored.
func (d *Driver) AssetsLoaded() {
	if d.loadedSent.Swap(true) {
		return
	}
	d.loaded <- struct{}{}
}

// Snapshot returns the last published frame. Safe from any goroutine.
func (d *Driver) Snapshot() *Frame {
	return d.frame.Load()
}

// Step runs one frame: pending signals, machine tick, particles, publish and
// render. Must only be called from the loop goroutine.
func (d *Driver) Step(dt time.Duration) {
	d.drain()
	d.machine.Tick(dt)
	d.particles.Update()

	f := d.publish()
	for _, r := range d.renderers {
		r.Render(f)
	}
}

func (d *Driver) drain() {
	select {
	case <-d.loaded:
		d.machine.AssetsLoaded()
	default:
	}
	for {
		select {
		case <-d.activations:
			d.machine.Activate()
		default:
			return
		}
	}
}

func (d *Driver) publish() *Frame {
	d.seq++
	f := &Frame{
		Snapshot:  d.machine.Snapshot(),
		Particles: d.particles.Particles(),
		Seq:       d.seq,
	}
	d.frame.Store(f)
	return f
}

// Run steps the machine at the configured tick rate until ctx is done.
func (d *Driver) Run(ctx context.Context) error {
	ticker := time.NewTicker(d.cfg.Interval())
	defer ticker.Stop()

	log.Info().
		Int("tick_rate", d.cfg.TickRate).
		Str("state", d.machine.State().String()).
		Msg("Frame loop started")

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Frame loop stopped")
			return ctx.Err()
		case now := <-ticker.C:
			d.Step(now.Sub(last))
			last = now
		}
	}
}
