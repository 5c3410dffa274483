package slot

import "math"

const (
	// BaseSpeed is the per-tick scroll of reel 0, in offset units.
	BaseSpeed = 20.0
	// SpeedStep is added per reel id so the reels spin visibly apart.
	SpeedStep = 5.0
	// ExtraSpinSymbols is how far a reel keeps moving after a stop request.
	ExtraSpinSymbols = 2
)

// Motion is the reel's motion state.
type Motion int

const (
	MotionIdle Motion = iota
	MotionSpinning
	MotionStopping
)

func (m Motion) String() string {
	switch m {
	case MotionIdle:
		return "IDLE"
	case MotionSpinning:
		return "SPINNING"
	case MotionStopping:
		return "STOPPING"
	default:
		return "UNKNOWN"
	}
}

// MarshalText encodes the motion by name.
func (m Motion) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// RNG is the random source used to build reel strips.
// *math/rand/v2.Rand satisfies it.
type RNG interface {
	IntN(n int) int
}

// Reel is one spinning column. Its offset only ever grows; the strip entry
// under the payline is found by reducing the offset modulo the strip.
type Reel struct {
	id           int
	strip        []Symbol
	symbolHeight float64
	offset       float64
	speed        float64
	motion       Motion
	targetOffset float64
}

// NewReel creates a reel with a strip of length symbols drawn uniformly from rng.
func NewReel(id, length int, symbolHeight float64, rng RNG) *Reel {
	strip := make([]Symbol, length)
	for i := range strip {
		strip[i] = Symbol(rng.IntN(SymbolCount))
	}
	return &Reel{
		id:           id,
		strip:        strip,
		symbolHeight: symbolHeight,
	}
}

// ID returns the reel's ordinal position.
func (r *Reel) ID() int { return r.id }

// Offset returns the accumulated scroll distance.
func (r *Reel) Offset() float64 { return r.offset }

// TargetOffset returns the snap position of a stopping reel.
func (r *Reel) TargetOffset() float64 { return r.targetOffset }

// Speed returns the current per-tick increment.
func (r *Reel) Speed() float64 { return r.speed }

// Motion returns the motion state.
func (r *Reel) Motion() Motion { return r.motion }

// Strip returns a copy of the symbol strip.
func (r *Reel) Strip() []Symbol {
	out := make([]Symbol, len(r.strip))
	copy(out, r.strip)
	return out
}

// Start sets an idle reel spinning at its id-derived speed.
func (r *Reel) Start() {
	if r.motion != MotionIdle {
		return
	}
	r.motion = MotionSpinning
	r.speed = BaseSpeed + float64(r.id)*SpeedStep
}

// RequestStop switches a spinning reel to stopping. The reel snaps to the
// first symbol boundary at least ExtraSpinSymbols symbols further on.
func (r *Reel) RequestStop() {
	if r.motion != MotionSpinning {
		return
	}
	r.motion = MotionStopping
	extra := r.symbolHeight * ExtraSpinSymbols
	r.targetOffset = math.Ceil((r.offset+extra)/r.symbolHeight) * r.symbolHeight
}

// Advance moves the reel by one tick and reports whether it came to rest
// during this tick.
func (r *Reel) Advance() bool {
	switch r.motion {
	case MotionSpinning:
		r.offset += r.speed
	case MotionStopping:
		if r.offset < r.targetOffset {
			r.offset += r.speed
		}
		if r.offset >= r.targetOffset {
			r.offset = r.targetOffset
			r.motion = MotionIdle
			r.speed = 0
			return true
		}
	}
	return false
}

// LandedSymbol returns the symbol on the payline: one strip slot below the
// slot at the top of the scroll window.
func (r *Reel) LandedSymbol() Symbol {
	n := int64(len(r.strip))
	top := int64(math.Floor(r.offset / r.symbolHeight))
	return r.strip[(top+1)%n]
}
