package search

import (
	"strings"
	"unicode"
)

// Tokenize lowercases the text and splits it into a set of word tokens.
// Single-character tokens carry no signal and are dropped.
func Tokenize(text string) map[string]struct{} {
	tokens := make(map[string]struct{})
	for _, field := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		if len(field) < 2 {
			continue
		}
		tokens[field] = struct{}{}
	}
	return tokens
}

// Jaccard returns |a ∩ b| / |a ∪ b| over two token sets.
func Jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	small, large := a, b
	if len(b) < len(a) {
		small, large = b, a
	}

	intersection := 0
	for token := range small {
		if _, ok := large[token]; ok {
			intersection++
		}
	}

	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

// LexicalOverlap scores how much of the query's vocabulary a passage shares.
func LexicalOverlap(query, passage string) float64 {
	return Jaccard(Tokenize(query), Tokenize(passage))
}
