package signal

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	mvipCoinRe   = regexp.MustCompile(`(?i)^\s*(long|short)\s+([A-Za-z0-9]+)`)
	mvipEntryRe  = regexp.MustCompile(`(?i)entry\s*zone\s*:?\s*([0-9.,\-\s]+)`)
	mvipTargetRe = regexp.MustCompile(`(?i)take-?profit\s*targets?\s*:?\s*([0-9.,\-\s]+)`)
	mvipStopRe   = regexp.MustCompile(`(?i)stop\s*targets?\s*:?\s*([0-9.,\-\s]+)`)

	mvipCloseAllRe = regexp.MustCompile(`(?i)^\s*close\s+all\s*$`)
	mvipCloseOneRe = regexp.MustCompile(`(?i)^\s*close\s+position\s+([A-Za-z0-9]+)\s*$`)
	mvipCloseTagRe = regexp.MustCompile(`(?i)^\s*close\s*:?\s*([A-Za-z0-9]+)\s*$`)
)

// ParseMVIP implements the labelled-block channel format:
//
//	Long COIN
//	Entry Zone: 1,23 - 1,25
//	Take-Profit Targets: 1,30 - 1,35
//	Stop Targets: 1,10
//
// and three close-trade control forms: "Close all", "Close position
// COIN", and "Close: COIN".
func ParseMVIP(text string) ParseResult {
	text = Sanitize(text)

	if mvipCloseAllRe.MatchString(text) {
		return ParseResult{CloseTrade: &CloseTrade{}}
	}
	if m := mvipCloseOneRe.FindStringSubmatch(text); m != nil {
		return ParseResult{CloseTrade: &CloseTrade{Coin: UpperCoin(m[1])}}
	}
	if m := mvipCloseTagRe.FindStringSubmatch(text); m != nil {
		return ParseResult{CloseTrade: &CloseTrade{Coin: UpperCoin(m[1])}}
	}

	header := mvipCoinRe.FindStringSubmatch(text)
	if header == nil {
		return ParseResult{Err: fmt.Errorf("mvip: no long/short header found")}
	}
	s := &Signal{Coin: UpperCoin(header[2])}
	s.Tag = s.Coin
	if strings.EqualFold(header[1], "long") {
		s.Side = Long
	} else {
		s.Side = Short
	}

	if m := mvipEntryRe.FindStringSubmatch(text); m != nil {
		entries, err := parseDashList(normalizeCommaList(m[1]))
		if err != nil {
			return ParseResult{Err: fmt.Errorf("mvip: entry zone: %w", err)}
		}
		s.Entries = entries
	}
	if m := mvipTargetRe.FindStringSubmatch(text); m != nil {
		targets, err := parseDashList(normalizeCommaList(m[1]))
		if err != nil {
			return ParseResult{Err: fmt.Errorf("mvip: targets: %w", err)}
		}
		s.Targets = targets
	}
	if m := mvipStopRe.FindStringSubmatch(text); m != nil {
		stops, err := parseDashList(normalizeCommaList(m[1]))
		if err != nil {
			return ParseResult{Err: fmt.Errorf("mvip: stop targets: %w", err)}
		}
		if len(stops) > 0 {
			s.StopLoss = stops[0]
		}
	}

	if len(s.Entries) == 0 {
		return ParseResult{Err: fmt.Errorf("mvip: missing entry zone")}
	}
	return ParseResult{Signal: s}
}

// normalizeCommaList rewrites each decimal-comma number in a dash/space
// separated list without disturbing the dashes that separate entries.
func normalizeCommaList(raw string) string {
	fields := strings.FieldsFunc(raw, func(r rune) bool { return r == '-' || r == ' ' })
	for i, f := range fields {
		fields[i] = NormalizeDecimalComma(f)
	}
	return strings.Join(fields, " - ")
}
