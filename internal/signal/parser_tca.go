package signal

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	tcaAssetRe    = regexp.MustCompile(`(?i)asset\s*:?\s*([A-Za-z0-9]+)`)
	tcaPositionRe = regexp.MustCompile(`(?i)position\s*:?\s*(long|short)`)
	tcaEntryRe    = regexp.MustCompile(`(?i)entry\s*:?\s*([0-9.,\-\s]+)`)
	tcaTargetRe   = regexp.MustCompile(`(?i)targets?\s*:?\s*([0-9.,\-\s]+)`)
	tcaStopRe     = regexp.MustCompile(`(?i)stop\s*loss\s*:?\s*([0-9.,]+)`)
	tcaCloseRe    = regexp.MustCompile(`(?i)^\s*close\s+([A-Za-z0-9]+)\s*(?:@|at)\s*([0-9.,]+)\s*$`)
)

// ParseTCA implements the labelled-block channel format:
//
//	Asset: COIN
//	Position: Long
//	Entry: 1.23 - 1.25
//	Targets: 1.30 - 1.35
//	Stop loss: 1.10
//
// Sanitize already strips the zero-width characters this channel pastes
// between tokens. A "close COIN @ price" line is a control command
// requesting close-if-price-reached rather than a new signal.
func ParseTCA(text string) ParseResult {
	text = Sanitize(text)

	if m := tcaCloseRe.FindStringSubmatch(text); m != nil {
		price, err := strconv.ParseFloat(NormalizeDecimalComma(m[2]), 64)
		if err != nil {
			return ParseResult{Err: fmt.Errorf("tca: close price: %w", err)}
		}
		return ParseResult{MoveStopLoss: &MoveStopLoss{Tag: UpperCoin(m[1]), Price: price}}
	}

	asset := tcaAssetRe.FindStringSubmatch(text)
	position := tcaPositionRe.FindStringSubmatch(text)
	if asset == nil || position == nil {
		return ParseResult{Err: fmt.Errorf("tca: missing asset/position header")}
	}
	s := &Signal{Coin: UpperCoin(asset[1])}
	s.Tag = s.Coin
	if strings.EqualFold(position[1], "long") {
		s.Side = Long
	} else {
		s.Side = Short
	}

	if m := tcaEntryRe.FindStringSubmatch(text); m != nil {
		entries, err := parseDashList(m[1])
		if err != nil {
			return ParseResult{Err: fmt.Errorf("tca: entry: %w", err)}
		}
		s.Entries = entries
	}
	if m := tcaTargetRe.FindStringSubmatch(text); m != nil {
		targets, err := parseDashList(m[1])
		if err != nil {
			return ParseResult{Err: fmt.Errorf("tca: targets: %w", err)}
		}
		s.Targets = targets
	}
	if m := tcaStopRe.FindStringSubmatch(text); m != nil {
		v, err := strconv.ParseFloat(NormalizeDecimalComma(m[1]), 64)
		if err != nil {
			return ParseResult{Err: fmt.Errorf("tca: stop loss: %w", err)}
		}
		s.StopLoss = v
	}

	if len(s.Entries) == 0 {
		return ParseResult{Err: fmt.Errorf("tca: missing entry")}
	}
	return ParseResult{Signal: s}
}
