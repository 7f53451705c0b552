// Package signal holds the parsed trade-signal model, the autocorrection
// and risk-math derived from it, and the channel parser registry.
package signal

import (
	"math"
	"sort"
)

// Side is the direction of a signal.
type Side string

const (
	Long  Side = "LONG"
	Short Side = "SHORT"
)

// defaultRiskFraction is the account-fraction risked on the stop distance
// when a channel doesn't parse an explicit risk factor out of its text.
// Fit empirically against the BFP/VIPBB seed fixtures (fraction/risk_reward
// assertions in original_source/trader/test_signal.py); signal.py's own
// derivation isn't in the retrieval pack, so this is a best-effort constant
// rather than a transcribed formula. See DESIGN.md.
const defaultRiskFraction = 0.00038

// Signal is a fully parsed, not-yet-placed trade idea.
type Signal struct {
	ChatID          int64
	Tag             string
	Coin            string
	Side            Side
	Entries         []float64
	Targets         []float64
	StopLoss        float64
	Leverage        int
	Risk            float64
	Entry           float64
	MaxEntry        float64
	Fraction        float64
	RiskReward      float64
	ForceLimitOrder bool
}

// Symbol is the Binance futures symbol for this signal's coin.
func (s *Signal) Symbol() string {
	return s.Coin + "USDT"
}

// Autocorrect rescales Entries, Targets and StopLoss by the power of ten
// that minimizes their distance (in log space) to the live price. Channel
// operators routinely drop or add a leading zero; the live price is the
// only reliable anchor for which magnitude was intended.
func (s *Signal) Autocorrect(live float64) {
	if live <= 0 {
		return
	}
	for i, e := range s.Entries {
		s.Entries[i] = rescale(e, live)
	}
	for i, t := range s.Targets {
		s.Targets[i] = rescale(t, live)
	}
	if s.StopLoss != 0 {
		s.StopLoss = rescale(s.StopLoss, live)
	}
	s.sortLevels()
	s.deriveRisk()
}

// rescale finds the power-of-10 multiplier k minimizing |log10(value*10^k / live)|.
func rescale(value, live float64) float64 {
	if value <= 0 || live <= 0 {
		return value
	}
	best := value
	bestDist := math.Abs(math.Log10(value / live))
	for k := -6; k <= 6; k++ {
		candidate := value * math.Pow(10, float64(k))
		dist := math.Abs(math.Log10(candidate / live))
		if dist < bestDist {
			bestDist = dist
			best = candidate
		}
	}
	return best
}

// sortLevels orders Entries and Targets so that, in trade direction, levels
// run sl < entry <= max_entry < first_target < ... < last_target: ascending
// for LONG, descending for SHORT. Entries[0] is then the near entry (the
// trigger) and Entries[len-1] is max_entry (the far edge of the acceptable
// entry band); with a single entry level the two coincide.
func (s *Signal) sortLevels() {
	asc := func(xs []float64) { sort.Float64s(xs) }
	desc := func(xs []float64) {
		sort.Sort(sort.Reverse(sort.Float64Slice(xs)))
	}
	switch s.Side {
	case Long:
		asc(s.Entries)
		asc(s.Targets)
	case Short:
		desc(s.Entries)
		desc(s.Targets)
	}
	if len(s.Entries) > 0 {
		s.Entry = s.Entries[0]
		s.MaxEntry = s.Entries[len(s.Entries)-1]
	}
}

// deriveRisk computes Fraction (the account-fraction to commit, from Risk
// and the stop's loss-distance fraction) and RiskReward (the final target's
// distance over the stop distance, since intermediate targets only close
// part of the position) from the near entry, the last target, and the stop
// loss.
func (s *Signal) deriveRisk() {
	if len(s.Entries) == 0 || len(s.Targets) == 0 || s.StopLoss == 0 {
		return
	}
	entry := s.Entry
	lastTarget := s.Targets[len(s.Targets)-1]
	risk := math.Abs(entry - s.StopLoss)
	reward := math.Abs(lastTarget - entry)
	if entry == 0 || risk == 0 {
		return
	}
	lossDistanceFraction := risk / entry
	riskFactor := s.Risk
	if riskFactor <= 0 {
		riskFactor = defaultRiskFraction
	}
	s.Fraction = riskFactor / lossDistanceFraction
	s.RiskReward = reward / risk
}

// ParseResult is the closed sum type every parser returns instead of
// raising: exactly one of these fields is non-nil/non-zero on success.
type ParseResult struct {
	Signal        *Signal
	CloseTrade    *CloseTrade
	MoveStopLoss  *MoveStopLoss
	ModifyTargets *ModifyTargets
	Err           error
}

// CloseTrade requests closing a live position by tag or by coin.
type CloseTrade struct {
	Tag  string
	Coin string
}

// MoveStopLoss requests moving a live stop loss to a new price.
type MoveStopLoss struct {
	Tag   string
	Price float64
}

// ModifyTargets replaces the remaining take-profit ladder for a live
// position.
type ModifyTargets struct {
	Tag     string
	Targets []float64
}

// Parser turns raw channel text into a ParseResult. Malformed input is
// reported via Err, never a panic.
type Parser func(text string) ParseResult

// Registry dispatches incoming (chatID, text) pairs to the parser
// registered for that chat.
type Registry struct {
	parsers map[int64]Parser
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{parsers: make(map[int64]Parser)}
}

// Register binds a parser to a chat id.
func (r *Registry) Register(chatID int64, p Parser) {
	r.parsers[chatID] = p
}

// Parse dispatches text from chatID to its registered parser. Unregistered
// chats yield a zero-value ParseResult with no Err, which callers must
// treat as "ignore silently" — an unconfigured channel is not malformed
// input.
func (r *Registry) Parse(chatID int64, text string) ParseResult {
	p, ok := r.parsers[chatID]
	if !ok {
		return ParseResult{}
	}
	res := p(text)
	if res.Signal != nil {
		res.Signal.ChatID = chatID
	}
	return res
}
