package slot

const (
	// PairPayout is paid when exactly two of the three symbols match.
	PairPayout int64 = 5
	// FeverMultiplier scales every winning payout while fever is active.
	FeverMultiplier int64 = 5
)

// Outcome is the evaluation of one payline.
type Outcome struct {
	Payout  int64
	Win     bool
	Jackpot bool
}

// Evaluate scores three landed symbols.
// Rules:
//   - all three equal: that symbol's payout, jackpot when it is SEVEN
//   - any two equal: PairPayout
//   - otherwise: no win
//
// A win is multiplied by FeverMultiplier when feverActive is set.
func Evaluate(symbols [3]Symbol, feverActive bool) Outcome {
	a, b, c := symbols[0], symbols[1], symbols[2]

	var out Outcome
	switch {
	case a == b && b == c:
		out = Outcome{Payout: a.Payout(), Win: true, Jackpot: a == SymbolSeven}
	case a == b || b == c || a == c:
		out = Outcome{Payout: PairPayout, Win: true}
	default:
		return Outcome{}
	}

	if feverActive {
		out.Payout *= FeverMultiplier
	}
	return out
}
