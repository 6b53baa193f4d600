// Package costs reads Medicare Part D spending for equivalence candidates,
// with an ingredient-derived fallback when no trade name has data.
package costs

import (
	"context"

	"github.com/giygas/drugcost-api/entities"
	"github.com/giygas/drugcost-api/interfaces"
	"github.com/giygas/drugcost-api/normalize"
	"github.com/giygas/drugcost-api/outcome"
)

// DefaultLimit bounds a direct lookup.
const DefaultLimit = 50

// LatestYear returns the most recent program year in c.
func LatestYear(ctx context.Context, c interfaces.CostCatalog) (int, error) {
	year, ok, err := c.LatestYear(ctx)
	if err != nil {
		return 0, outcome.Infrastructure(outcome.StageLatestYear, err, "latest year lookup failed")
	}
	if !ok {
		return 0, outcome.New(outcome.KindNoDataForYear, outcome.StageLatestYear, "cost catalog is empty")
	}
	return year, nil
}

// Lookup is the result of a direct cost lookup.
type Lookup struct {
	Name  string                `json:"name"`
	Year  int                   `json:"year"`
	Items []entities.CostRecord `json:"items"`
}

// LookupCosts returns the cheapest rows first whose brand or generic name
// equals name for year. A year of zero means the latest year in the
// catalog. No matching rows is a successful, empty lookup.
func LookupCosts(ctx context.Context, c interfaces.CostCatalog, name string, year, limit int) (*Lookup, error) {
	nameN := normalize.Text(name)
	if nameN == "" {
		return nil, outcome.InvalidInput(outcome.StageCosts, "name is required")
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if year == 0 {
		y, err := LatestYear(ctx, c)
		if err != nil {
			return nil, err
		}
		year = y
	}

	rows, err := c.CostsByName(ctx, nameN, year, limit)
	if err != nil {
		return nil, outcome.Infrastructure(outcome.StageCosts, err, "cost lookup failed")
	}
	if rows == nil {
		rows = []entities.CostRecord{}
	}
	return &Lookup{Name: name, Year: year, Items: rows}, nil
}
