// Package render draws frames as text on a terminal.
package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog/log"

	"slot-machine/internal/assets"
	"slot-machine/internal/driver"
	"slot-machine/internal/game/slot"
)

var symbolAssets = map[slot.Symbol]string{
	slot.SymbolSeven:  "seven",
	slot.SymbolBar:    "bar",
	slot.SymbolBell:   "bell",
	slot.SymbolCherry: "cherry",
}

// Console prints a status line whenever it changes. It is a driver renderer
// and is only called from the frame loop.
type Console struct {
	w      io.Writer
	art    *assets.Set
	last   string
	state  slot.State
	header bool
}

// NewConsole creates a console renderer. art may be nil.
func NewConsole(w io.Writer, art *assets.Set) *Console {
	return &Console{w: w, art: art, state: -1}
}

func (c *Console) Render(f *driver.Frame) {
	s := f.Snapshot
	var sb strings.Builder

	if !c.header && s.State != slot.StateLoading {
		c.header = true
		if a, ok := c.lookup("cabinet"); ok {
			sb.WriteString(a)
			sb.WriteString("\n")
		}
	}

	entered := s.State != c.state
	c.state = s.State
	if entered && (s.State == slot.StateResult || s.State == slot.StateClear) {
		if a := c.symbolArt(s); a != "" {
			sb.WriteString(a)
			sb.WriteString("\n")
		}
	}

	line := Format(s)
	if line != c.last {
		c.last = line
		sb.WriteString(line)
		sb.WriteString("\n")
	}

	if sb.Len() == 0 {
		return
	}
	if _, err := io.WriteString(c.w, sb.String()); err != nil {
		log.Debug().Err(err).Msg("Failed to write frame")
	}
}

func (c *Console) lookup(name string) (string, bool) {
	if c.art == nil {
		return "", false
	}
	return c.art.Get(name)
}

// symbolArt places the art of the landed symbols side by side. Returns ""
// unless every symbol has art.
func (c *Console) symbolArt(s *slot.Snapshot) string {
	blocks := make([][]string, len(s.Reels))
	height, width := 0, 0
	for i, r := range s.Reels {
		a, ok := c.lookup(symbolAssets[r.Landed])
		if !ok {
			return ""
		}
		blocks[i] = strings.Split(a, "\n")
		height = max(height, len(blocks[i]))
		for _, l := range blocks[i] {
			width = max(width, len([]rune(l)))
		}
	}

	rows := make([]string, height)
	for y := range rows {
		cells := make([]string, len(blocks))
		for i, b := range blocks {
			l := ""
			if y < len(b) {
				l = b[y]
			}
			cells[i] = l + strings.Repeat(" ", width-len([]rune(l)))
		}
		rows[y] = strings.TrimRight(strings.Join(cells, "  "), " ")
	}
	return strings.Join(rows, "\n")
}

// Format renders the snapshot as a single status line.
func Format(s *slot.Snapshot) string {
	var sb strings.Builder
	for _, r := range s.Reels {
		if r.Motion == slot.MotionIdle {
			fmt.Fprintf(&sb, "[%-4s]", r.Landed.Name())
		} else {
			sb.WriteString("[ ~~ ]")
		}
	}

	fmt.Fprintf(&sb, "  COINS %d  HIGH %d", s.Coins, s.HighScore)
	if s.FeverMode {
		fmt.Fprintf(&sb, "  FEVER %d", s.FeverTurnsRemaining)
	}
	sb.WriteString("  ")
	sb.WriteString(s.Message)
	if s.Flashing() {
		sb.WriteString(" *")
	}
	return sb.String()
}
