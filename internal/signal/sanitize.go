package signal

import "strings"

// zeroWidth are characters some channels paste in from rich-text editors
// that split tokens a naive parser would otherwise read as one word.
var zeroWidth = []string{string(rune(0x200B)), string(rune(0x200C)), string(rune(0x200D)), string(rune(0xFEFF))}

var dashVariants = []string{"‐", "‒", "–", "—", "−"}

// Sanitize normalizes raw channel text before any parser sees it: strips
// zero-width characters, collapses dash variants to a plain hyphen, and
// trims surrounding whitespace. Parsers still do their own numeric and
// casing normalization, since "decimal comma vs point" is locale-specific
// per channel rather than universal.
func Sanitize(text string) string {
	for _, zw := range zeroWidth {
		text = strings.ReplaceAll(text, zw, "")
	}
	for _, d := range dashVariants {
		text = strings.ReplaceAll(text, d, "-")
	}
	return strings.TrimSpace(text)
}

// NormalizeDecimalComma rewrites a European-style decimal comma ("1,2345")
// to a point, but only when the token looks purely numeric with a single
// comma — it never touches thousand-grouped values like "1,234,567" or
// list separators like "1.2, 3.4".
func NormalizeDecimalComma(token string) string {
	if strings.Count(token, ",") != 1 || strings.Contains(token, ".") {
		return token
	}
	parts := strings.SplitN(token, ",", 2)
	if len(parts) != 2 || len(parts[1]) == 0 || len(parts[1]) > 8 {
		return token
	}
	for _, r := range parts[1] {
		if r < '0' || r > '9' {
			return token
		}
	}
	return parts[0] + "." + parts[1]
}

// UpperCoin uppercases and trims a coin ticker, stripping a trailing
// "USDT" suffix some channels include redundantly.
func UpperCoin(coin string) string {
	c := strings.ToUpper(strings.TrimSpace(coin))
	c = strings.TrimSuffix(c, "USDT")
	return c
}
