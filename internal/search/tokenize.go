package search

import "strings"

// Tokenize lowercases text and extracts maximal runs of ASCII letters and
// digits, discarding tokens shorter than minLen. Non-alphanumeric bytes,
// including all multi-byte runes, act as separators.
func Tokenize(text string, minLen int) []string {
	if text == "" {
		return nil
	}
	lower := strings.ToLower(text)
	var tokens []string
	start := -1
	for i := 0; i < len(lower); i++ {
		c := lower[i]
		if (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			if i-start >= minLen {
				tokens = append(tokens, lower[start:i])
			}
			start = -1
		}
	}
	if start >= 0 && len(lower)-start >= minLen {
		tokens = append(tokens, lower[start:])
	}
	return tokens
}
