package signal

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	ccsSideRe   = regexp.MustCompile(`(?i)(long|short)\s+(above|below)\s*:?\s*([0-9.,]+)`)
	ccsCoinRe   = regexp.MustCompile(`(?i)#?([A-Za-z0-9]+)\s*/?\s*USDT`)
	ccsTargetRe = regexp.MustCompile(`(?i)take\s*profit\s*:?\s*([0-9.,|+\s]+)`)
	ccsStopRe   = regexp.MustCompile(`(?i)stop\s*loss\s*:?\s*([0-9.,]+)`)
)

// ParseCCS implements the pipe-delimited channel format:
//
//	#COIN/USDT
//	LONG Below: 1.23
//	TAKE PROFIT: 1.30|1.35|1.40+
//	STOP LOSS: 1.10
func ParseCCS(text string) ParseResult {
	text = Sanitize(text)

	sideMatch := ccsSideRe.FindStringSubmatch(text)
	if sideMatch == nil {
		return ParseResult{Err: fmt.Errorf("ccs: no LONG/SHORT Above/Below line found")}
	}
	entry, err := strconv.ParseFloat(NormalizeDecimalComma(sideMatch[3]), 64)
	if err != nil {
		return ParseResult{Err: fmt.Errorf("ccs: entry: %w", err)}
	}

	coinMatch := ccsCoinRe.FindStringSubmatch(text)
	if coinMatch == nil {
		return ParseResult{Err: fmt.Errorf("ccs: no coin/USDT header found")}
	}

	s := &Signal{Coin: UpperCoin(coinMatch[1]), Entries: []float64{entry}}
	s.Tag = s.Coin
	if strings.EqualFold(sideMatch[1], "long") {
		s.Side = Long
	} else {
		s.Side = Short
	}

	if m := ccsTargetRe.FindStringSubmatch(text); m != nil {
		raw := strings.TrimRight(strings.TrimSpace(m[1]), "+")
		fields := strings.Split(raw, "|")
		for i, f := range fields {
			fields[i] = strings.TrimSpace(f)
		}
		targets, err := parseFloats(fields)
		if err != nil {
			return ParseResult{Err: fmt.Errorf("ccs: targets: %w", err)}
		}
		s.Targets = targets
	}
	if m := ccsStopRe.FindStringSubmatch(text); m != nil {
		v, err := strconv.ParseFloat(NormalizeDecimalComma(m[1]), 64)
		if err != nil {
			return ParseResult{Err: fmt.Errorf("ccs: stop loss: %w", err)}
		}
		s.StopLoss = v
	}

	return ParseResult{Signal: s}
}
