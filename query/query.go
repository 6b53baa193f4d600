// Package query splits a free-text drug request such as "Lipitor 20mg
// tablets" into the name, strength and dosage form the lookups expect.
package query

import (
	"regexp"
	"strings"

	"github.com/giygas/drugcost-api/normalize"
	"github.com/giygas/drugcost-api/outcome"
)

// Parsed is a split request. Strength and DosageForm may be empty.
type Parsed struct {
	Name       string `json:"name"`
	Strength   string `json:"strength,omitempty"`
	DosageForm string `json:"dosage_form,omitempty"`
}

var strengthRegex = regexp.MustCompile(
	`(?i)\b(\d+(?:\.\d+)?)\s*((?:mcg|mg|meq|iu|units?|ml|g)\b|%)(?:\s*/\s*(\d+(?:\.\d+)?)?\s*((?:ml|g|l|actuation|hr)\b))?`)

// forms maps spellings found in requests to the Orange Book dosage form word.
var forms = map[string]string{
	"TABLET":     "TABLET",
	"TABLETS":    "TABLET",
	"TAB":        "TABLET",
	"TABS":       "TABLET",
	"CAPSULE":    "CAPSULE",
	"CAPSULES":   "CAPSULE",
	"CAP":        "CAPSULE",
	"CAPS":       "CAPSULE",
	"INJECTION":  "INJECTABLE",
	"INJECTABLE": "INJECTABLE",
	"CREAM":      "CREAM",
	"OINTMENT":   "OINTMENT",
	"SOLUTION":   "SOLUTION",
	"SUSPENSION": "SUSPENSION",
	"GEL":        "GEL",
	"LOTION":     "LOTION",
	"PATCH":      "PATCH",
	"SPRAY":      "SPRAY",
	"SYRUP":      "SYRUP",
	"POWDER":     "POWDER",
}

// fillers are dropped from the name.
var fillers = map[string]bool{
	"OF":  true,
	"FOR": true,
	"THE": true,
	"MY":  true,
}

// Parse splits text. The first strength and the first dosage-form word are
// extracted; the remaining words form the name. A request that leaves no
// name is invalid.
func Parse(text string) (Parsed, error) {
	var p Parsed

	rest := text
	if loc := strengthRegex.FindStringSubmatchIndex(text); loc != nil {
		p.Strength = formatStrength(text, loc)
		rest = text[:loc[0]] + " " + text[loc[1]:]
	}

	var name []string
	for _, word := range strings.Fields(normalize.Text(rest)) {
		word = strings.Trim(word, ",.;:!?")
		if word == "" || fillers[word] {
			continue
		}
		if form, ok := forms[word]; ok {
			if p.DosageForm == "" {
				p.DosageForm = form
			}
			continue
		}
		name = append(name, word)
	}
	p.Name = strings.Join(name, " ")

	if p.Name == "" {
		return Parsed{}, outcome.InvalidInput(outcome.StageQuery, "no drug name in %q", text)
	}
	return p, nil
}

// formatStrength spells a match the Orange Book way: uppercase, no space
// between number and unit, "/ML" style denominators kept.
func formatStrength(text string, loc []int) string {
	group := func(i int) string {
		if loc[2*i] < 0 {
			return ""
		}
		return text[loc[2*i]:loc[2*i+1]]
	}

	var b strings.Builder
	b.WriteString(group(1))
	b.WriteString(strings.ToUpper(group(2)))
	if unit := group(4); unit != "" {
		b.WriteByte('/')
		b.WriteString(group(3))
		b.WriteString(strings.ToUpper(unit))
	}
	return b.String()
}
