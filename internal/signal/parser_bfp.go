package signal

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	bfpSideRe   = regexp.MustCompile(`(?i)(long|short|buy|sell)\s*#?([A-Za-z0-9]+)\s*/?\s*USDT`)
	bfpEntryRe  = regexp.MustCompile(`(?i)entry\s*(?:point)?\s*[:\-]?\s*([0-9][0-9.,\-\s]*)`)
	bfpTargetRe = regexp.MustCompile(`(?i)targets?\s*:?\s*([0-9.,\-\s]+)`)
	bfpStopRe   = regexp.MustCompile(`(?i)stop\s*loss\s*[:\-]?\s*([0-9.,]+)`)
)

// ParseBFP implements the prose-with-labels channel format:
//
//	Long #COIN/USDT
//	Entry: 1.23 - 1.25
//	Targets: 1.30 - 1.35 - 1.40
//	Stop Loss: 1.10
func ParseBFP(text string) ParseResult {
	text = Sanitize(text)

	sideMatch := bfpSideRe.FindStringSubmatch(text)
	if sideMatch == nil {
		return ParseResult{Err: fmt.Errorf("bfp: no side/coin header found")}
	}
	s := &Signal{Coin: UpperCoin(sideMatch[2])}
	s.Tag = s.Coin
	switch strings.ToLower(sideMatch[1]) {
	case "long", "buy":
		s.Side = Long
	case "short", "sell":
		s.Side = Short
	}

	if m := bfpEntryRe.FindStringSubmatch(text); m != nil {
		entries, err := parseDashList(m[1])
		if err != nil {
			return ParseResult{Err: fmt.Errorf("bfp: entries: %w", err)}
		}
		s.Entries = entries
	}
	if m := bfpTargetRe.FindStringSubmatch(text); m != nil {
		targets, err := parseDashList(m[1])
		if err != nil {
			return ParseResult{Err: fmt.Errorf("bfp: targets: %w", err)}
		}
		s.Targets = targets
	}
	if m := bfpStopRe.FindStringSubmatch(text); m != nil {
		v, err := strconv.ParseFloat(NormalizeDecimalComma(strings.TrimSpace(m[1])), 64)
		if err != nil {
			return ParseResult{Err: fmt.Errorf("bfp: stop loss: %w", err)}
		}
		s.StopLoss = v
	}

	if len(s.Entries) == 0 || s.Side == "" {
		return ParseResult{Err: fmt.Errorf("bfp: missing required fields")}
	}
	return ParseResult{Signal: s}
}

// parseDashList parses a "a - b - c" or "a, b, c" style numeric list.
func parseDashList(raw string) ([]float64, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.NewReplacer("-", " ", ",", " ").Replace(raw)
	fields := strings.Fields(raw)
	return parseFloats(fields)
}
