package cleaner

import "unicode/utf8"

// EstimateTokens gives a rough token count for the document content returned
// to clients, without a tokenizer dependency.
//
// Heuristic: rune count / 3. English averages ~4 chars/token and CJK ~1.5,
// so 3 sits between them and slightly over-counts Latin text.
func EstimateTokens(text string) int {
	n := utf8.RuneCountInString(text)
	switch {
	case n == 0:
		return 0
	case n < 3:
		return 1
	default:
		return n / 3
	}
}
