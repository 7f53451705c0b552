package signal

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseResults implements the RESULTS channel format: one command letter
// per line (c=coin, e=entries, t=targets, sl=stop loss, l=leverage,
// r=side), plus three control commands:
//
//	cancel <tag>
//	change <tag> sl <price>
//	change <tag> tp <p1> <p2> ...
func ParseResults(text string) ParseResult {
	text = Sanitize(text)
	lines := strings.Split(text, "\n")
	if len(lines) == 0 {
		return ParseResult{Err: fmt.Errorf("results: empty input")}
	}

	first := strings.Fields(strings.ToLower(strings.TrimSpace(lines[0])))
	if len(first) >= 2 && first[0] == "cancel" {
		return ParseResult{CloseTrade: &CloseTrade{Tag: first[1]}}
	}
	if len(first) >= 4 && first[0] == "change" && first[2] == "sl" {
		price, err := strconv.ParseFloat(first[3], 64)
		if err != nil {
			return ParseResult{Err: fmt.Errorf("results: bad sl price %q: %w", first[3], err)}
		}
		return ParseResult{MoveStopLoss: &MoveStopLoss{Tag: first[1], Price: price}}
	}
	if len(first) >= 4 && first[0] == "change" && first[2] == "tp" {
		targets, err := parseFloats(first[3:])
		if err != nil {
			return ParseResult{Err: fmt.Errorf("results: bad targets: %w", err)}
		}
		return ParseResult{ModifyTargets: &ModifyTargets{Tag: first[1], Targets: targets}}
	}

	s := &Signal{}
	for _, line := range lines {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		code := strings.ToLower(fields[0])
		rest := fields[1:]
		var err error
		switch code {
		case "c":
			s.Coin = UpperCoin(rest[0])
			s.Tag = s.Coin
		case "e":
			s.Entries, err = parseFloats(rest)
		case "t":
			s.Targets, err = parseFloats(rest)
		case "sl":
			s.StopLoss, err = strconv.ParseFloat(rest[0], 64)
		case "l":
			var lev int
			lev, err = strconv.Atoi(rest[0])
			s.Leverage = lev
		case "r":
			switch strings.ToLower(rest[0]) {
			case "long", "l":
				s.Side = Long
			case "short", "s":
				s.Side = Short
			default:
				err = fmt.Errorf("unknown side %q", rest[0])
			}
		}
		if err != nil {
			return ParseResult{Err: fmt.Errorf("results: line %q: %w", line, err)}
		}
	}
	if s.Coin == "" || len(s.Entries) == 0 || s.Side == "" {
		return ParseResult{Err: fmt.Errorf("results: missing required fields")}
	}
	return ParseResult{Signal: s}
}

func parseFloats(tokens []string) ([]float64, error) {
	out := make([]float64, 0, len(tokens))
	for _, tok := range tokens {
		tok = strings.Trim(tok, ",-")
		if tok == "" {
			continue
		}
		v, err := strconv.ParseFloat(NormalizeDecimalComma(tok), 64)
		if err != nil {
			return nil, fmt.Errorf("bad number %q: %w", tok, err)
		}
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no numbers found")
	}
	return out, nil
}
