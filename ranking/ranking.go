// Package ranking orders cost candidates by their cheapest average spend per
// dosage unit.
package ranking

import (
	"slices"

	"github.com/giygas/drugcost-api/costs"
	"github.com/giygas/drugcost-api/entities"
	"github.com/giygas/drugcost-api/outcome"
)

// Option is one ranked candidate.
type Option struct {
	Rank      int     `json:"rank"`
	Name      string  `json:"name"`
	IsGeneric bool    `json:"is_generic"`
	Fallback  bool    `json:"fallback"`
	Cost      float64 `json:"avg_spend_per_dose"`
	// Manufacturer is the Part D manufacturer of the representative row.
	Manufacturer string                `json:"manufacturer"`
	Identity     *entities.IdentityKey `json:"identity,omitempty"`
	Row          entities.CostRecord   `json:"row"`
}

// Ranking is the full ordering; Options[0] is the recommendation.
type Ranking struct {
	Options []Option `json:"options"`
}

// Recommendation returns the cheapest option.
func (r *Ranking) Recommendation() Option {
	return r.Options[0]
}

// Top returns at most n options.
func (r *Ranking) Top(n int) []Option {
	if n <= 0 || n >= len(r.Options) {
		return r.Options
	}
	return r.Options[:n]
}

// Rank keeps the cheapest row of each candidate and sorts candidates by it,
// cheapest first. Equal costs keep input order. Candidates without rows are
// dropped; if none remain Rank fails with NoDataForYear.
func Rank(candidates []costs.Candidate) (*Ranking, error) {
	options := make([]Option, 0, len(candidates))
	for i := range candidates {
		c := &candidates[i]
		if len(c.Costs) == 0 {
			continue
		}
		row := cheapest(c.Costs)
		opt := Option{
			Name:         c.Name,
			IsGeneric:    c.IsGeneric,
			Fallback:     c.Fallback,
			Cost:         row.AvgSpendPerDose,
			Manufacturer: row.Manufacturer,
			Row:          row,
		}
		if c.Member != nil {
			id := c.Member.Identity
			opt.Identity = &id
		}
		options = append(options, opt)
	}

	if len(options) == 0 {
		return nil, outcome.New(outcome.KindNoDataForYear, outcome.StageRanking, "no candidate has cost data")
	}

	slices.SortStableFunc(options, func(a, b Option) int {
		switch {
		case a.Cost < b.Cost:
			return -1
		case a.Cost > b.Cost:
			return 1
		default:
			return 0
		}
	})
	for i := range options {
		options[i].Rank = i + 1
	}
	return &Ranking{Options: options}, nil
}

// cheapest returns the first row with the minimum spend.
func cheapest(rows []entities.CostRecord) entities.CostRecord {
	best := rows[0]
	for _, r := range rows[1:] {
		if r.AvgSpendPerDose < best.AvgSpendPerDose {
			best = r
		}
	}
	return best
}
