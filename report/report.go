// Package report renders a comparison as plain text for people.
package report

import (
	"fmt"
	"slices"
	"strings"

	"github.com/giygas/drugcost-api/pipeline"
	"github.com/giygas/drugcost-api/ranking"
)

// DefaultTop is the number of options listed.
const DefaultTop = 5

// Render describes cmp: the program year, the top options cheapest first
// and the spending disclaimer. top of zero or less means DefaultTop.
func Render(cmp *pipeline.Comparison, top int) string {
	if top <= 0 {
		top = DefaultTop
	}
	var b strings.Builder

	fmt.Fprintf(&b, "Found %d therapeutic equivalent options (Medicare Part D, %d):\n\n",
		len(cmp.Ranking.Options), cmp.Year)

	for _, opt := range cmp.Ranking.Top(top) {
		fmt.Fprintf(&b, "%d. %s (%s) - %s per dose unit", opt.Rank, opt.Name, label(opt), dollars(opt.Cost))
		if opt.Manufacturer != "" {
			fmt.Fprintf(&b, " (Manufacturer: %s)", opt.Manufacturer)
		}
		b.WriteByte('\n')
	}
	if rest := len(cmp.Ranking.Options) - top; rest > 0 {
		fmt.Fprintf(&b, "... and %d more\n", rest)
	}

	if priced := fallbackNames(cmp.Ranking.Options); cmp.UsedFallback && len(priced) > 0 {
		fmt.Fprintf(&b, "\nNo equivalent trade name had %d cost data; prices are for the generic name%s %s.\n",
			cmp.Year, plural(len(priced)), strings.Join(priced, ", "))
	}

	fmt.Fprintf(&b, "\nNote: This is program-level Medicare Part D data for %d: average plan spend per dosage unit, not a copay. "+
		"Actual copay may differ. Consult your pharmacist.", cmp.Year)
	return b.String()
}

// fallbackNames returns the generic names that produced ranked options, in
// rank order.
func fallbackNames(options []ranking.Option) []string {
	var names []string
	for _, opt := range options {
		if opt.Fallback && !slices.Contains(names, opt.Name) {
			names = append(names, opt.Name)
		}
	}
	return names
}

// dollars keeps four decimals below one dollar so sub-cent spends stay distinct.
func dollars(cost float64) string {
	if cost < 1 {
		return fmt.Sprintf("$%.4f", cost)
	}
	return fmt.Sprintf("$%.2f", cost)
}

func label(opt ranking.Option) string {
	if opt.IsGeneric {
		return "Generic"
	}
	return "Brand"
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
