// Package resolver matches a noisy drug name, and optionally a strength,
// against the Orange Book trade names.
package resolver

import (
	"context"
	"slices"

	"github.com/giygas/drugcost-api/entities"
	"github.com/giygas/drugcost-api/interfaces"
	"github.com/giygas/drugcost-api/logging"
	"github.com/giygas/drugcost-api/normalize"
	"github.com/giygas/drugcost-api/outcome"
)

// DefaultLimit is the number of ranked rows returned, best included.
const DefaultLimit = 50

// Options tunes matching. Zero values other than StrengthBonus are replaced
// by the defaults; start from DefaultOptions to keep the stock bonus.
type Options struct {
	// StrengthBonus is added to the score of rows whose strength equals the
	// requested strength.
	StrengthBonus float64
	// RowCap bounds the rows fetched per catalog query.
	RowCap int
	// PrefixMinLen is the shortest query that may fall back to a prefix search.
	PrefixMinLen int
	// PrefixLen is the number of leading runes used for the prefix search.
	PrefixLen int
	Scorer    Scorer
}

// DefaultOptions returns the stock tuning.
func DefaultOptions() Options {
	return Options{
		StrengthBonus: 20,
		RowCap:        2000,
		PrefixMinLen:  4,
		PrefixLen:     8,
		Scorer:        PartialRatio,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.RowCap <= 0 {
		o.RowCap = d.RowCap
	}
	if o.PrefixMinLen <= 0 {
		o.PrefixMinLen = d.PrefixMinLen
	}
	if o.PrefixLen <= 0 {
		o.PrefixLen = d.PrefixLen
	}
	if o.Scorer == nil {
		o.Scorer = d.Scorer
	}
	return o
}

// Candidate is one scored catalog row.
type Candidate struct {
	Product        entities.ProductRecord  `json:"product"`
	Classification entities.Classification `json:"classification"`
	Score          float64                 `json:"score"`
}

// Match is the result of a successful resolution.
type Match struct {
	Best       Candidate   `json:"best"`
	Alternates []Candidate `json:"alternates"`
	// Prefix is true when no trade name matched exactly and the rows came
	// from the prefix search.
	Prefix bool `json:"prefix"`
}

// Resolver resolves names against an identity catalog.
type Resolver struct {
	catalog interfaces.IdentityCatalog
	opts    Options
}

// New returns a Resolver over c.
func New(c interfaces.IdentityCatalog, opts Options) *Resolver {
	return &Resolver{catalog: c, opts: opts.withDefaults()}
}

// Resolve finds the row best matching name, plus up to limit-1 alternates.
// strength may be empty. A limit of zero or less means DefaultLimit.
func (r *Resolver) Resolve(ctx context.Context, name, strength string, limit int) (*Match, error) {
	nameN := normalize.Text(name)
	if nameN == "" {
		return nil, outcome.InvalidInput(outcome.StageIdentity, "name is required")
	}
	strengthN := normalize.Text(strength)
	if limit <= 0 {
		limit = DefaultLimit
	}

	rows, err := r.catalog.ProductsByTradeName(ctx, nameN, r.opts.RowCap)
	if err != nil {
		return nil, outcome.Infrastructure(outcome.StageIdentity, err, "trade name lookup failed")
	}

	prefix := false
	if len(rows) == 0 && normalize.Len(nameN) >= r.opts.PrefixMinLen {
		prefix = true
		rows, err = r.catalog.ProductsByTradeNamePrefix(ctx, normalize.Prefix(nameN, r.opts.PrefixLen), r.opts.RowCap)
		if err != nil {
			return nil, outcome.Infrastructure(outcome.StageIdentity, err, "trade name prefix lookup failed")
		}
	}

	if len(rows) == 0 {
		return nil, outcome.New(outcome.KindNoMatch, outcome.StageIdentity, "no product matches %q", name)
	}

	ranked := r.score(nameN, strengthN, rows)
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	logging.Debug("Identity resolved",
		"query", nameN,
		"strength", strengthN,
		"rows", len(rows),
		"prefix", prefix,
		"best", ranked[0].Product.TradeName,
		"score", ranked[0].Score)

	return &Match{
		Best:       ranked[0],
		Alternates: ranked[1:],
		Prefix:     prefix,
	}, nil
}

// score rates every row and orders them best first. Equal scores keep
// catalog order.
func (r *Resolver) score(nameN, strengthN string, rows []entities.ProductRecord) []Candidate {
	out := make([]Candidate, len(rows))
	for i := range rows {
		s := r.opts.Scorer(nameN, rows[i].TradeNameN)
		if strengthN != "" && rows[i].StrengthN == strengthN {
			s += r.opts.StrengthBonus
		}
		out[i] = Candidate{
			Product:        rows[i],
			Classification: rows[i].ApplType.Classification(),
			Score:          s,
		}
	}
	slices.SortStableFunc(out, func(a, b Candidate) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		default:
			return 0
		}
	})
	return out
}
