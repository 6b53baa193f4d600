// Package normalize canonicalizes free-text catalog fields and query terms
// so that equality and prefix comparisons are stable across datasets that
// were built independently.
package normalize

import "strings"

// Text uppercases s, trims it and collapses every run of whitespace to a
// single space. It is idempotent and total.
func Text(s string) string {
	if s == "" {
		return ""
	}
	return strings.Join(strings.Fields(strings.ToUpper(s)), " ")
}

// Prefix returns the first n runes of an already-normalized string.
func Prefix(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

// Len returns the length of s in runes.
func Len(s string) int {
	return len([]rune(s))
}
