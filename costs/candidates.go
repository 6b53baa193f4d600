package costs

import (
	"strings"

	"github.com/giygas/drugcost-api/normalize"
)

// saltWords are counter-ion and ester tokens dropped from an ingredient to
// guess the chemical name Part D reports spending under.
var saltWords = map[string]bool{
	"HYDROCHLORIDE": true,
	"HCL":           true,
	"SODIUM":        true,
	"POTASSIUM":     true,
	"CALCIUM":       true,
	"MAGNESIUM":     true,
	"PHOSPHATE":     true,
	"SULFATE":       true,
	"NITRATE":       true,
	"ACETATE":       true,
	"BESYLATE":      true,
	"MESYLATE":      true,
	"TARTRATE":      true,
	"CITRATE":       true,
	"FUMARATE":      true,
	"SUCCINATE":     true,
	"MALEATE":       true,
	"LACTATE":       true,
	"CHLORIDE":      true,
	"BROMIDE":       true,
	"IODIDE":        true,
	"OXALATE":       true,
}

// IsSalt reports whether the normalized token is a known salt word.
func IsSalt(token string) bool {
	return saltWords[token]
}

// splitIngredients splits a multi-ingredient string on ';' and '/'.
func splitIngredients(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool { return r == ';' || r == '/' })
}

// GenericCandidates derives generic-name search terms from an ingredient
// string. Each ingredient segment loses its salt words; segments that keep
// at least one token become candidates. Combination products add the
// concatenation of their stripped segments. Candidates are unique and keep
// first-seen order.
func GenericCandidates(ingredient string) []string {
	var (
		out  []string
		seen = make(map[string]bool)
		base []string
	)
	add := func(c string) {
		if c != "" && !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}

	for _, segment := range splitIngredients(normalize.Text(ingredient)) {
		var kept []string
		for _, tok := range strings.Fields(segment) {
			if !IsSalt(tok) {
				kept = append(kept, tok)
			}
		}
		if len(kept) == 0 {
			continue
		}
		stripped := strings.Join(kept, " ")
		base = append(base, stripped)
		add(stripped)
	}

	if len(base) > 1 {
		add(strings.Join(base, " "))
	}
	return out
}
