package signal

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseMCVIP implements the terse one-liner channel format:
//
//	COINUSDT LONG 1.23-1.25
//
// plus a "Close <coin>" control line.
func ParseMCVIP(text string) ParseResult {
	text = strings.TrimSpace(Sanitize(text))
	fields := strings.Fields(text)
	if len(fields) >= 2 && strings.EqualFold(fields[0], "close") {
		return ParseResult{CloseTrade: &CloseTrade{Coin: UpperCoin(fields[1])}}
	}
	if len(fields) < 3 {
		return ParseResult{Err: fmt.Errorf("mcvip: expected SYMBOL SIDE ENTRY[-ENTRY]")}
	}
	s := &Signal{Coin: UpperCoin(fields[0])}
	s.Tag = s.Coin
	switch strings.ToUpper(fields[1]) {
	case "LONG":
		s.Side = Long
	case "SHORT":
		s.Side = Short
	default:
		return ParseResult{Err: fmt.Errorf("mcvip: unknown side %q", fields[1])}
	}
	entries, err := parseDashList(fields[2])
	if err != nil {
		return ParseResult{Err: fmt.Errorf("mcvip: entries: %w", err)}
	}
	s.Entries = entries

	// Optional trailing tokens after the entry token are treated as
	// targets, matching channels that append a ladder on the same line.
	if len(fields) > 3 {
		targets := make([]float64, 0, len(fields)-3)
		for _, f := range fields[3:] {
			v, err := strconv.ParseFloat(NormalizeDecimalComma(f), 64)
			if err == nil {
				targets = append(targets, v)
			}
		}
		s.Targets = targets
	}
	return ParseResult{Signal: s}
}
