// Package game defines the contracts between the slot machine core and the
// collaborators it drives: audio, particles, high score persistence and
// round observers. Every contract is fire-and-forget; nothing here reports
// back into the machine.
package game

import "time"

// Cue names an audio event requested by the core.
type Cue string

const (
	CueSpinStart Cue = "spinStart"
	CueReelStop  Cue = "reelStop"
	CueWin       Cue = "win"
	CueJackpot   Cue = "jackpot"
)

// CueStep is one scheduled note of a cue sequence. Delay is measured from
// the moment the sequence is submitted.
type CueStep struct {
	Cue   Cue
	Delay time.Duration
}

// Sequence returns count steps of cue spaced interval apart, starting at zero.
func Sequence(cue Cue, count int, interval time.Duration) []CueStep {
	steps := make([]CueStep, count)
	for i := range steps {
		steps[i] = CueStep{Cue: cue, Delay: time.Duration(i) * interval}
	}
	return steps
}

// AudioPlayer plays cue sequences. Play must not block the caller.
type AudioPlayer interface {
	Play(steps []CueStep)
}

// ParticleSpawner spawns a cosmetic burst of count particles at (x, y).
type ParticleSpawner interface {
	Spawn(x, y float64, count int)
}

// HighScoreRecorder persists a new best coin balance. Record must not block
// the caller; write failures stay inside the recorder.
type HighScoreRecorder interface {
	Record(score int64)
}

// RoundReport describes one evaluated round.
type RoundReport struct {
	Symbols  [3]string
	Payout   int64
	Win      bool
	Jackpot  bool
	Fever    bool // fever was active when the round was evaluated
	FeverNow bool // fever is active after the round
	Coins    int64
	State    string
	Duration time.Duration // spin start to evaluation, in accumulated tick time
}

// RoundObserver is notified once per evaluated round.
type RoundObserver interface {
	SpinStarted(coins int64, fever bool)
	RoundSettled(r RoundReport)
}

// NopAudio discards every cue.
type NopAudio struct{}

func (NopAudio) Play([]CueStep) {}

// NopParticles discards every burst.
type NopParticles struct{}

func (NopParticles) Spawn(float64, float64, int) {}

// NopRecorder discards every score.
type NopRecorder struct{}

func (NopRecorder) Record(int64) {}

// NopObserver ignores every round.
type NopObserver struct{}

func (NopObserver) SpinStarted(int64, bool)  {}
func (NopObserver) RoundSettled(RoundReport) {}

// Observers fans one notification out to several observers in order.
type Observers []RoundObserver

func (o Observers) SpinStarted(coins int64, fever bool) {
	for _, obs := range o {
		obs.SpinStarted(coins, fever)
	}
}

func (o Observers) RoundSettled(r RoundReport) {
	for _, obs := range o {
		obs.RoundSettled(r)
	}
}
