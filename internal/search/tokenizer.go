package search

import (
	"regexp"
	"strings"
)

// tokenRegex matches maximal runs of ASCII letters and apostrophes.
var tokenRegex = regexp.MustCompile(`[A-Za-z']+`)

// Tokenize splits text into lowercase tokens. Everything other than ASCII
// letters and apostrophes is a separator. Empty input yields an empty slice.
func Tokenize(text string) []string {
	words := tokenRegex.FindAllString(text, -1)
	tokens := make([]string, len(words))
	for i, w := range words {
		tokens[i] = strings.ToLower(w)
	}
	return tokens
}

// uniqueTerms returns tokens with duplicates removed, first occurrence wins.
func uniqueTerms(tokens []string) []string {
	seen := make(map[string]struct{}, len(tokens))
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
