package slot

import "time"

// ReelView is the render-ready view of one reel.
type ReelView struct {
	ID         int      `json:"id"`
	X          float64  `json:"x"`
	Y          float64  `json:"y"`
	Width      float64  `json:"width"`
	Height     float64  `json:"height"`
	SymbolSize float64  `json:"symbol_size"`
	Offset     float64  `json:"offset"`
	Motion     Motion   `json:"motion"`
	Strip      []Symbol `json:"strip"`
	Landed     Symbol   `json:"landed"`
}

// Snapshot is an immutable copy of the machine for renderers and remote
// readers. It shares no memory with the machine.
type Snapshot struct {
	State               State               `json:"state"`
	Message             string              `json:"message"`
	Coins               int64               `json:"coins"`
	HighScore           int64               `json:"high_score"`
	Bet                 int64               `json:"bet"`
	FeverMode           bool                `json:"fever_mode"`
	FeverTurnsRemaining int                 `json:"fever_turns_remaining"`
	Reach               bool                `json:"reach"`
	FlashTimer          time.Duration       `json:"flash_timer"`
	StopIndex           int                 `json:"stop_index"`
	Reels               [ReelCount]ReelView `json:"reels"`
	CanvasWidth         float64             `json:"canvas_width"`
	CanvasHeight        float64             `json:"canvas_height"`
}

// Flashing reports whether the win flash is visible.
func (s *Snapshot) Flashing() bool { return s.FlashTimer > 0 }

// Snapshot copies the current session and reel state.
func (m *Machine) Snapshot() *Snapshot {
	s := &Snapshot{
		State:               m.state,
		Message:             m.message,
		Coins:               m.coins,
		HighScore:           m.highScore,
		Bet:                 m.cfg.BetAmount,
		FeverMode:           m.feverMode,
		FeverTurnsRemaining: m.feverTurns,
		Reach:               m.reach,
		FlashTimer:          m.flashTimer,
		StopIndex:           m.stopIndex,
		CanvasWidth:         m.cfg.Layout.CanvasWidth,
		CanvasHeight:        m.cfg.Layout.CanvasHeight,
	}
	for i, r := range m.reels {
		s.Reels[i] = ReelView{
			ID:         r.ID(),
			X:          m.reelPos[i][0],
			Y:          m.reelPos[i][1],
			Width:      m.cfg.Layout.ReelWidth,
			Height:     m.cfg.Layout.ReelHeight,
			SymbolSize: m.cfg.SymbolSize,
			Offset:     r.Offset(),
			Motion:     r.Motion(),
			Strip:      r.Strip(),
			Landed:     r.LandedSymbol(),
		}
	}
	return s
}
