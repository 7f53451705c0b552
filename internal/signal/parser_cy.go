package signal

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	cyCoinRe = regexp.MustCompile(`(?i)^\s*([A-Za-z0-9]+)\s*$`)
	cyBuyRe  = regexp.MustCompile(`(?i)buy\s+([0-9.,]+)\s+to\s+([0-9.,]+)`)
	cySellRe = regexp.MustCompile(`(?i)sell\s+([0-9.,]+)`)
	cyStopRe = regexp.MustCompile(`(?i)stop\s+([0-9.,]+)`)
)

// ParseCY implements the narrow channel format:
//
//	COIN
//	Buy 1.20 to 1.25
//	Sell 1.40
//	Stop 1.05
//
// A bare "Stop COIN" line (non-numeric second token) is the control form
// requesting the live position on COIN be closed, not a stop-loss value.
func ParseCY(text string) ParseResult {
	text = Sanitize(text)
	lines := strings.Split(text, "\n")

	for _, line := range lines {
		fields := strings.Fields(line)
		if len(fields) == 2 && strings.EqualFold(fields[0], "stop") {
			if _, err := strconv.ParseFloat(NormalizeDecimalComma(fields[1]), 64); err != nil {
				return ParseResult{CloseTrade: &CloseTrade{Coin: UpperCoin(fields[1])}}
			}
		}
	}

	var coin string
	for _, line := range lines {
		if m := cyCoinRe.FindStringSubmatch(line); m != nil {
			coin = UpperCoin(m[1])
			break
		}
	}
	if coin == "" {
		return ParseResult{Err: fmt.Errorf("cy: no coin line found")}
	}
	s := &Signal{Coin: coin, Tag: coin, Side: Long}

	if m := cyBuyRe.FindStringSubmatch(text); m != nil {
		lo, err1 := strconv.ParseFloat(NormalizeDecimalComma(m[1]), 64)
		hi, err2 := strconv.ParseFloat(NormalizeDecimalComma(m[2]), 64)
		if err1 != nil || err2 != nil {
			return ParseResult{Err: fmt.Errorf("cy: buy range")}
		}
		s.Entries = []float64{lo, hi}
	}
	if m := cySellRe.FindStringSubmatch(text); m != nil {
		v, err := strconv.ParseFloat(NormalizeDecimalComma(m[1]), 64)
		if err != nil {
			return ParseResult{Err: fmt.Errorf("cy: sell: %w", err)}
		}
		s.Targets = []float64{v}
		s.Side = Long
	}
	if m := cyStopRe.FindStringSubmatch(text); m != nil {
		if v, err := strconv.ParseFloat(NormalizeDecimalComma(m[1]), 64); err == nil {
			s.StopLoss = v
		}
	}

	if len(s.Entries) == 0 {
		return ParseResult{Err: fmt.Errorf("cy: missing buy range")}
	}
	return ParseResult{Signal: s}
}
