// Package slot implements the three-reel slot machine: reel motion, the
// fixed paytable and the game state machine.
package slot

// Symbol is one of the four reel symbols.
type Symbol int

const (
	SymbolSeven Symbol = iota
	SymbolBar
	SymbolBell
	SymbolCherry
)

// SymbolCount is the size of the closed symbol set.
const SymbolCount = 4

type symbolInfo struct {
	name   string
	payout int64
}

// symbolTable is the immutable paytable, indexed by Symbol.
var symbolTable = [SymbolCount]symbolInfo{
	SymbolSeven:  {name: "7", payout: 100},
	SymbolBar:    {name: "BAR", payout: 50},
	SymbolBell:   {name: "BELL", payout: 20},
	SymbolCherry: {name: "CHRY", payout: 10},
}

// Symbols lists every symbol in table order.
func Symbols() []Symbol {
	return []Symbol{SymbolSeven, SymbolBar, SymbolBell, SymbolCherry}
}

// Valid reports whether s belongs to the symbol set.
func (s Symbol) Valid() bool {
	return s >= 0 && s < SymbolCount
}

// Name returns the display name.
func (s Symbol) Name() string {
	if !s.Valid() {
		return "?"
	}
	return symbolTable[s].name
}

// Payout returns the three-of-a-kind payout.
func (s Symbol) Payout() int64 {
	if !s.Valid() {
		return 0
	}
	return symbolTable[s].payout
}

func (s Symbol) String() string {
	return s.Name()
}

// MarshalText encodes the symbol by display name.
func (s Symbol) MarshalText() ([]byte, error) {
	return []byte(s.Name()), nil
}
