package costs

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/giygas/drugcost-api/entities"
	"github.com/giygas/drugcost-api/equivalence"
	"github.com/giygas/drugcost-api/interfaces"
	"github.com/giygas/drugcost-api/logging"
	"github.com/giygas/drugcost-api/normalize"
	"github.com/giygas/drugcost-api/outcome"
)

// JoinOptions tunes the per-candidate join. Zero values mean the defaults.
type JoinOptions struct {
	// CandidateLimit bounds the rows fetched per candidate.
	CandidateLimit int
	// FallbackTerms bounds how many derived generic terms are tried.
	FallbackTerms int
	// Parallelism bounds concurrent lookups.
	Parallelism int
}

// DefaultJoinOptions returns the stock tuning.
func DefaultJoinOptions() JoinOptions {
	return JoinOptions{CandidateLimit: 5, FallbackTerms: 5, Parallelism: 4}
}

func (o JoinOptions) withDefaults() JoinOptions {
	d := DefaultJoinOptions()
	if o.CandidateLimit <= 0 {
		o.CandidateLimit = d.CandidateLimit
	}
	if o.FallbackTerms <= 0 {
		o.FallbackTerms = d.FallbackTerms
	}
	if o.Parallelism <= 0 {
		o.Parallelism = d.Parallelism
	}
	return o
}

// Candidate pairs one equivalence member, or one fallback term, with its
// cost rows for the target year, cheapest first.
type Candidate struct {
	Name      string
	IsGeneric bool
	// Member is nil for fallback terms.
	Member   *equivalence.Member
	Fallback bool
	Costs    []entities.CostRecord
}

// Join is the outcome of joining an equivalence set against the costs.
type Join struct {
	Year          int
	Candidates    []Candidate
	UsedFallback  bool
	FallbackTerms []string
}

// Joiner looks up costs for equivalence sets.
type Joiner struct {
	catalog interfaces.CostCatalog
	opts    JoinOptions
}

// NewJoiner returns a Joiner over c.
func NewJoiner(c interfaces.CostCatalog, opts JoinOptions) *Joiner {
	return &Joiner{catalog: c, opts: opts.withDefaults()}
}

// Join looks up every distinct trade name among members for year. When none
// of them has a cost row, generic terms derived from ingredient are tried
// instead. Candidates keep the order of members, or of the derived terms.
// A join that finds nothing, fallback included, fails with NoDataForYear.
func (j *Joiner) Join(ctx context.Context, members []equivalence.Member, ingredient string, year int) (*Join, error) {
	direct, err := j.direct(ctx, members, year)
	if err == nil {
		return &Join{Year: year, Candidates: direct}, nil
	}
	if !outcome.Is(err, outcome.KindNoDataForYear) {
		return nil, err
	}

	terms := GenericCandidates(ingredient)
	if len(terms) > j.opts.FallbackTerms {
		terms = terms[:j.opts.FallbackTerms]
	}
	logging.Warn("No direct cost data, trying generic candidates",
		"ingredient", ingredient,
		"year", year,
		"members", len(members),
		"terms", terms)

	fallback, err := j.fallback(ctx, terms, year)
	if err != nil {
		return nil, err
	}
	if len(fallback) == 0 {
		return nil, outcome.New(outcome.KindNoDataForYear, outcome.StageCosts,
			"no cost data in %d for the equivalents or %d generic candidates", year, len(terms))
	}
	return &Join{Year: year, Candidates: fallback, UsedFallback: true, FallbackTerms: terms}, nil
}

// direct joins the members. It fails with NoDataForYear when every lookup
// came back empty.
func (j *Joiner) direct(ctx context.Context, members []equivalence.Member, year int) ([]Candidate, error) {
	// Members sharing a trade name share one lookup and one candidate.
	var (
		names  []string
		owners []int
		seen   = make(map[string]bool)
	)
	for i := range members {
		n := normalize.Text(members[i].TradeName)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		names = append(names, n)
		owners = append(owners, i)
	}

	rows, err := j.lookupAll(ctx, names, year)
	if err != nil {
		return nil, err
	}

	var out []Candidate
	for k, i := range owners {
		if len(rows[k]) == 0 {
			continue
		}
		m := members[i]
		out = append(out, Candidate{
			Name:      m.TradeName,
			IsGeneric: m.IsGeneric,
			Member:    &m,
			Costs:     rows[k],
		})
	}
	if len(out) == 0 {
		return nil, outcome.New(outcome.KindNoDataForYear, outcome.StageCosts,
			"no cost data for %d equivalent trade names in %d", len(names), year)
	}
	return out, nil
}

// fallback joins derived generic terms.
func (j *Joiner) fallback(ctx context.Context, terms []string, year int) ([]Candidate, error) {
	rows, err := j.lookupAll(ctx, terms, year)
	if err != nil {
		return nil, err
	}

	var out []Candidate
	for k, term := range terms {
		if len(rows[k]) == 0 {
			continue
		}
		out = append(out, Candidate{
			Name:      term,
			IsGeneric: true,
			Fallback:  true,
			Costs:     rows[k],
		})
	}
	return out, nil
}

// lookupAll runs one lookup per name with bounded parallelism. Results are
// indexed like names, independent of completion order.
func (j *Joiner) lookupAll(ctx context.Context, names []string, year int) ([][]entities.CostRecord, error) {
	results := make([][]entities.CostRecord, len(names))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(j.opts.Parallelism)
	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			rows, err := j.catalog.CostsByName(gctx, name, year, j.opts.CandidateLimit)
			if err != nil {
				return outcome.Infrastructure(outcome.StageCosts, err, "cost lookup failed for "+name)
			}
			results[i] = rows
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
