package slot

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/rs/zerolog/log"

	"slot-machine/internal/game"
)

// ReelCount is the number of reels on the cabinet.
const ReelCount = 3

const (
	DefaultInitialCoins int64 = 100
	DefaultBetAmount    int64 = 10
	DefaultClearCoins   int64 = 1000
)

const (
	DefaultFeverTurns    = 5
	DefaultFlashDuration = 500 * time.Millisecond
	DefaultStripLength   = 20
	DefaultSymbolSize    = 100.0
)

// BigWinPayout is the smallest non-jackpot payout that bursts particles.
const BigWinPayout int64 = 50

// Particle burst sizes.
const (
	BigWinParticles  = 50
	JackpotParticles = 100
	ClearParticles   = 200
)

// Audio sequence timing for the arpeggio cues.
const (
	winNotes        = 3
	winInterval     = 100 * time.Millisecond
	jackpotNotes    = 6
	jackpotInterval = 150 * time.Millisecond
)

// Messages shown by renderers.
const (
	MsgLoading  = "LOADING..."
	MsgIntro    = "PRESS SPACE TO START"
	MsgReady    = "PRESS SPACE TO SPIN"
	MsgSpinning = "SPINNING..."
	MsgReach    = "REACH!!"
	MsgJackpot  = "JACKPOT! FEVER START!"
	MsgClear    = "CONGRATULATIONS!"
	MsgTryAgain = "TRY AGAIN"
	MsgGameOver = "GAME OVER"
)

// State is the machine state.
type State int

const (
	StateLoading State = iota
	StateIntro
	StateIdle
	StateSpinning
	StateStopping
	StateResult
	StateGameOver
	StateClear
)

var stateNames = [...]string{
	StateLoading:  "LOADING",
	StateIntro:    "INTRO",
	StateIdle:     "IDLE",
	StateSpinning: "SPINNING",
	StateStopping: "STOPPING",
	StateResult:   "RESULT",
	StateGameOver: "GAMEOVER",
	StateClear:    "CLEAR",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "UNKNOWN"
	}
	return stateNames[s]
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Layout is the cabinet geometry, in the same units as SymbolSize.
type Layout struct {
	CanvasWidth  float64
	CanvasHeight float64
	ReelWidth    float64
	ReelHeight   float64
	ReelGap      float64
}

// DefaultLayout is the reference 800x600 cabinet.
var DefaultLayout = Layout{
	CanvasWidth:  800,
	CanvasHeight: 600,
	ReelWidth:    120,
	ReelHeight:   300,
	ReelGap:      20,
}

// Config holds the economy and reel settings. Zero fields take defaults.
type Config struct {
	InitialCoins  int64
	BetAmount     int64
	ClearCoins    int64
	FeverTurns    int
	FlashDuration time.Duration
	StripLength   int
	SymbolSize    float64
	Layout        Layout
	// Preload starts the machine in LOADING until AssetsLoaded is called.
	Preload bool
}

// Dependencies holds the collaborators the machine emits side effects to.
// Nil fields are replaced with no-op implementations.
type Dependencies struct {
	Audio            game.AudioPlayer
	Particles        game.ParticleSpawner
	HighScore        game.HighScoreRecorder
	Observer         game.RoundObserver
	RNG              RNG
	InitialHighScore int64
}

// Machine is the slot machine session: wager economy, fever mode and the
// three reels. It is not safe for concurrent use; the frame driver owns it.
type Machine struct {
	cfg     Config
	reels   [ReelCount]*Reel
	reelPos [ReelCount][2]float64

	state      State
	coins      int64
	highScore  int64
	feverMode  bool
	feverTurns int
	stopIndex  int
	reach      bool
	flashTimer time.Duration
	message    string
	roundClock time.Duration

	audio     game.AudioPlayer
	particles game.ParticleSpawner
	recorder  game.HighScoreRecorder
	observer  game.RoundObserver
}

// NewMachine creates a machine with freshly generated reel strips.
func NewMachine(cfg *Config, deps *Dependencies) *Machine {
	c := Config{}
	if cfg != nil {
		c = *cfg
	}
	applyDefaults(&c)

	d := Dependencies{}
	if deps != nil {
		d = *deps
	}
	if d.Audio == nil {
		d.Audio = game.NopAudio{}
	}
	if d.Particles == nil {
		d.Particles = game.NopParticles{}
	}
	if d.HighScore == nil {
		d.HighScore = game.NopRecorder{}
	}
	if d.Observer == nil {
		d.Observer = game.NopObserver{}
	}
	if d.RNG == nil {
		d.RNG = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	m := &Machine{
		cfg:       c,
		coins:     c.InitialCoins,
		highScore: d.InitialHighScore,
		audio:     d.Audio,
		particles: d.Particles,
		recorder:  d.HighScore,
		observer:  d.Observer,
	}

	startX := (c.Layout.CanvasWidth - (c.Layout.ReelWidth*ReelCount + c.Layout.ReelGap*(ReelCount-1))) / 2
	startY := (c.Layout.CanvasHeight - c.Layout.ReelHeight) / 2
	for i := range m.reels {
		m.reels[i] = NewReel(i, c.StripLength, c.SymbolSize, d.RNG)
		m.reelPos[i] = [2]float64{startX + float64(i)*(c.Layout.ReelWidth+c.Layout.ReelGap), startY}
	}

	if c.Preload {
		m.state, m.message = StateLoading, MsgLoading
	} else {
		m.state, m.message = StateIntro, MsgIntro
	}
	return m
}

func applyDefaults(c *Config) {
	if c.InitialCoins <= 0 {
		c.InitialCoins = DefaultInitialCoins
	}
	if c.BetAmount <= 0 {
		c.BetAmount = DefaultBetAmount
	}
	if c.ClearCoins <= 0 {
		c.ClearCoins = DefaultClearCoins
	}
	if c.FeverTurns <= 0 {
		c.FeverTurns = DefaultFeverTurns
	}
	if c.FlashDuration <= 0 {
		c.FlashDuration = DefaultFlashDuration
	}
	if c.StripLength <= 0 {
		c.StripLength = DefaultStripLength
	}
	if c.SymbolSize <= 0 {
		c.SymbolSize = DefaultSymbolSize
	}
	if c.Layout == (Layout{}) {
		c.Layout = DefaultLayout
	}
}

// State returns the current machine state.
func (m *Machine) State() State { return m.state }

// Coins returns the coin balance.
func (m *Machine) Coins() int64 { return m.coins }

// HighScore returns the best balance seen, including the persisted one.
func (m *Machine) HighScore() int64 { return m.highScore }

// FeverMode reports whether fever is active.
func (m *Machine) FeverMode() bool { return m.feverMode }

// FeverTurnsRemaining returns the fever countdown.
func (m *Machine) FeverTurnsRemaining() int { return m.feverTurns }

// StopIndex returns the reel that the next stop request will target.
func (m *Machine) StopIndex() int { return m.stopIndex }

// Reach reports whether the first two stopped reels matched.
func (m *Machine) Reach() bool { return m.reach }

// FlashTimer returns the remaining win flash time.
func (m *Machine) FlashTimer() time.Duration { return m.flashTimer }

// Message returns the status line for renderers.
func (m *Machine) Message() string { return m.message }

// Reel returns reel i.
func (m *Machine) Reel(i int) *Reel { return m.reels[i] }

// AssetsLoaded is the one-shot signal that ends LOADING.
func (m *Machine) AssetsLoaded() {
	if m.state != StateLoading {
		return
	}
	m.message = MsgIntro
	m.setState(StateIntro)
}

// Activate handles one user gesture.
func (m *Machine) Activate() {
	switch m.state {
	case StateIntro, StateGameOver, StateClear:
		m.Reset()
	case StateIdle, StateResult:
		m.Spin()
	case StateSpinning, StateStopping:
		m.StopNextReel()
	}
}

// Reset starts a new session from INTRO, GAMEOVER or CLEAR. The high score
// survives the reset.
func (m *Machine) Reset() {
	switch m.state {
	case StateIntro, StateGameOver, StateClear:
	default:
		return
	}
	m.coins = m.cfg.InitialCoins
	m.feverMode = false
	m.feverTurns = 0
	m.reach = false
	m.stopIndex = 0
	m.message = MsgReady
	m.setState(StateIdle)
}

// Spin places the bet (or consumes a fever turn) and starts every reel.
// With too few coins outside fever the machine moves to GAMEOVER and
// nothing is deducted.
func (m *Machine) Spin() {
	if m.state != StateIdle && m.state != StateResult {
		return
	}
	bet := m.cfg.BetAmount

	if !m.feverMode && m.coins < bet {
		m.gameOver()
		return
	}

	if m.feverMode {
		m.feverTurns--
		if m.feverTurns < 0 {
			m.feverMode = false
			m.feverTurns = 0
			if m.coins < bet {
				m.gameOver()
				return
			}
			m.coins -= bet
		}
	} else {
		m.coins -= bet
	}

	m.stopIndex = 0
	m.reach = false
	m.roundClock = 0
	m.message = MsgSpinning
	m.audio.Play([]game.CueStep{{Cue: game.CueSpinStart}})
	for _, r := range m.reels {
		r.Start()
	}
	m.setState(StateSpinning)
	m.observer.SpinStarted(m.coins, m.feverMode)
}

// StopNextReel asks the next reel in order to stop. Once every reel has
// been asked the machine is STOPPING and further calls do nothing.
func (m *Machine) StopNextReel() {
	if m.state != StateSpinning && m.state != StateStopping {
		return
	}
	if m.stopIndex >= ReelCount {
		return
	}

	idx := m.stopIndex
	m.reels[idx].RequestStop()
	m.audio.Play([]game.CueStep{{Cue: game.CueReelStop}})

	// Reads reel 1 mid-animation: the hint can disagree with its final symbol.
	if idx == 1 && m.reels[0].LandedSymbol() == m.reels[1].LandedSymbol() {
		m.reach = true
		m.message = MsgReach
	}

	m.stopIndex++
	if m.stopIndex >= ReelCount {
		m.setState(StateStopping)
	}
}

// Tick advances the machine by one frame of dt.
func (m *Machine) Tick(dt time.Duration) {
	if m.state == StateLoading {
		return
	}

	if m.flashTimer > 0 {
		m.flashTimer -= dt
		if m.flashTimer < 0 {
			m.flashTimer = 0
		}
	}
	if m.state == StateSpinning || m.state == StateStopping {
		m.roundClock += dt
	}

	for _, r := range m.reels {
		r.Advance()
	}

	if m.state == StateStopping && m.allStopped() {
		m.evaluateRound()
	}
}

func (m *Machine) allStopped() bool {
	for _, r := range m.reels {
		if r.Motion() != MotionIdle {
			return false
		}
	}
	return true
}

// LandedSymbols reads the payline of every reel.
func (m *Machine) LandedSymbols() [ReelCount]Symbol {
	var out [ReelCount]Symbol
	for i, r := range m.reels {
		out[i] = r.LandedSymbol()
	}
	return out
}

func (m *Machine) evaluateRound() {
	symbols := m.LandedSymbols()
	feverActive := m.feverMode
	out := Evaluate(symbols, feverActive)

	// Fever starts after the jackpot round, so the jackpot itself is unscaled.
	if out.Jackpot {
		m.feverMode = true
		m.feverTurns = m.cfg.FeverTurns
	}

	m.coins += out.Payout
	cx, cy := m.cfg.Layout.CanvasWidth/2, m.cfg.Layout.CanvasHeight/2

	if out.Win {
		m.flashTimer = m.cfg.FlashDuration
		m.message = fmt.Sprintf("WIN! +%d", out.Payout)
		if out.Jackpot {
			m.message = MsgJackpot
			m.audio.Play(game.Sequence(game.CueJackpot, jackpotNotes, jackpotInterval))
			m.particles.Spawn(cx, cy, JackpotParticles)
		} else {
			m.audio.Play(game.Sequence(game.CueWin, winNotes, winInterval))
			if out.Payout >= BigWinPayout {
				m.particles.Spawn(cx, cy, BigWinParticles)
			}
		}
	}

	if m.coins > m.highScore {
		m.highScore = m.coins
		m.recorder.Record(m.coins)
	}

	switch {
	case m.coins >= m.cfg.ClearCoins:
		m.message = MsgClear
		m.audio.Play(game.Sequence(game.CueJackpot, jackpotNotes, jackpotInterval))
		m.particles.Spawn(cx, cy, ClearParticles)
		m.setState(StateClear)
	case out.Win:
		m.setState(StateResult)
	case m.coins < m.cfg.BetAmount && !m.feverMode:
		m.message = MsgGameOver
		m.setState(StateGameOver)
	default:
		m.message = MsgTryAgain
		m.setState(StateIdle)
	}

	log.Debug().
		Str("symbols", fmt.Sprintf("%s %s %s", symbols[0], symbols[1], symbols[2])).
		Int64("payout", out.Payout).
		Bool("jackpot", out.Jackpot).
		Bool("fever", feverActive).
		Int64("coins", m.coins).
		Msg("Round settled")

	m.observer.RoundSettled(game.RoundReport{
		Symbols:  [3]string{symbols[0].Name(), symbols[1].Name(), symbols[2].Name()},
		Payout:   out.Payout,
		Win:      out.Win,
		Jackpot:  out.Jackpot,
		Fever:    feverActive,
		FeverNow: m.feverMode,
		Coins:    m.coins,
		State:    m.state.String(),
		Duration: m.roundClock,
	})
}

func (m *Machine) gameOver() {
	m.message = MsgGameOver
	m.setState(StateGameOver)
}

func (m *Machine) setState(s State) {
	if s == m.state {
		return
	}
	log.Debug().
		Str("from", m.state.String()).
		Str("to", s.String()).
		Int64("coins", m.coins).
		Msg("State transition")
	m.state = s
}
