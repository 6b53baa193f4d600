package resolver

import (
	"strings"

	"github.com/agext/levenshtein"
)

// Scorer rates how well a candidate trade name matches the query, from 0 to
// 100. Both arguments are normalized.
type Scorer func(query, candidate string) float64

// indel counts a substitution as one deletion plus one insertion.
var indel = levenshtein.NewParams().SubCost(2)

// Ratio is the normalized Indel similarity of a and b, from 0 to 100.
func Ratio(a, b string) float64 {
	return ratioRunes([]rune(a), []rune(b))
}

func ratioRunes(a, b []rune) float64 {
	total := len(a) + len(b)
	if total == 0 {
		return 100
	}
	dist := levenshtein.Distance(string(a), string(b), indel)
	return 100 * (1 - float64(dist)/float64(total))
}

// PartialRatio is the best Ratio between the shorter string and any window
// of the longer one of the same length, including windows cut short at
// either end. A shorter string contained in the longer one scores 100.
func PartialRatio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 || len(rb) == 0 {
		if len(ra) == len(rb) {
			return 100
		}
		return 0
	}

	if len(ra) == len(rb) {
		return max(partialRatio(ra, rb), partialRatio(rb, ra))
	}
	if len(ra) > len(rb) {
		ra, rb = rb, ra
	}
	return partialRatio(ra, rb)
}

// partialRatio slides short over long. len(short) <= len(long).
func partialRatio(short, long []rune) float64 {
	if strings.Contains(string(long), string(short)) {
		return 100
	}

	m, n := len(short), len(long)
	best := 0.0
	consider := func(window []rune) bool {
		if r := ratioRunes(short, window); r > best {
			best = r
		}
		return best >= 100
	}

	// Windows hanging off the left edge.
	for k := 1; k < m; k++ {
		if consider(long[:k]) {
			return best
		}
	}
	// Full-length windows.
	for i := 0; i+m <= n; i++ {
		if consider(long[i : i+m]) {
			return best
		}
	}
	// Windows hanging off the right edge.
	for k := m - 1; k >= 1; k-- {
		if consider(long[n-k:]) {
			return best
		}
	}
	return best
}
