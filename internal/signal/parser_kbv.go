package signal

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	kbvCoinRe  = regexp.MustCompile(`(?i)(long|short)\s+#?([A-Za-z0-9]+)`)
	kbvEntryRe = regexp.MustCompile(`(?i)entry\s*limit\s*:?\s*([0-9.,\-\s]+)`)
	kbvSellRe  = regexp.MustCompile(`(?i)sell\s*:?\s*([0-9.,\-\s]+)`)
	kbvStopRe  = regexp.MustCompile(`(?i)stop\s*loss\s*:?\s*([0-9.,]+)`)
)

// ParseKBV implements the entry-limit/sell-list channel format:
//
//	Long #COIN
//	Entry LIMIT: 1.20 - 1.22
//	SELL: 1.30 - 1.35 - 1.40
//	Stop Loss: 1.10
//
// Every signal from this channel sets ForceLimitOrder: the engine places
// its entry as a resting stop-limit band while the live price has not yet
// reached the near entry, and as a market order once it has.
func ParseKBV(text string) ParseResult {
	text = Sanitize(text)

	header := kbvCoinRe.FindStringSubmatch(text)
	if header == nil {
		return ParseResult{Err: fmt.Errorf("kbv: no long/short header found")}
	}
	s := &Signal{Coin: UpperCoin(header[2]), ForceLimitOrder: true}
	s.Tag = s.Coin
	if strings.EqualFold(header[1], "long") {
		s.Side = Long
	} else {
		s.Side = Short
	}

	entryMatch := kbvEntryRe.FindStringSubmatch(text)
	if entryMatch == nil {
		return ParseResult{Err: fmt.Errorf("kbv: missing Entry LIMIT line")}
	}
	entries, err := parseDashList(entryMatch[1])
	if err != nil {
		return ParseResult{Err: fmt.Errorf("kbv: entries: %w", err)}
	}
	s.Entries = entries

	if m := kbvSellRe.FindStringSubmatch(text); m != nil {
		targets, err := parseDashList(m[1])
		if err != nil {
			return ParseResult{Err: fmt.Errorf("kbv: sell list: %w", err)}
		}
		s.Targets = targets
	}
	if m := kbvStopRe.FindStringSubmatch(text); m != nil {
		stops, err := parseDashList(m[1])
		if err != nil {
			return ParseResult{Err: fmt.Errorf("kbv: stop loss: %w", err)}
		}
		if len(stops) > 0 {
			s.StopLoss = stops[0]
		}
	}

	return ParseResult{Signal: s}
}
