package rally

import "strings"

// NormalizeAnswer is the canonical form used for answer comparison.
func NormalizeAnswer(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// MatchAnswer compares a typed or scanned answer against the answer key.
// Only exact matches after normalization count, for every free-text type.
func MatchAnswer(key AnswerRecord, input string) bool {
	want := NormalizeAnswer(key.Text)
	if want == "" {
		return false
	}
	return NormalizeAnswer(input) == want
}
