// Package pipeline runs a full comparison: program year, identity,
// equivalents, costs and ranking, all against one catalog snapshot.
package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/giygas/drugcost-api/costs"
	"github.com/giygas/drugcost-api/equivalence"
	"github.com/giygas/drugcost-api/interfaces"
	"github.com/giygas/drugcost-api/logging"
	"github.com/giygas/drugcost-api/metrics"
	"github.com/giygas/drugcost-api/outcome"
	"github.com/giygas/drugcost-api/ranking"
	"github.com/giygas/drugcost-api/resolver"
)

// DefaultEquivalentLimit bounds the equivalence set priced per comparison.
const DefaultEquivalentLimit = 50

// Options tunes every stage.
type Options struct {
	Resolver         resolver.Options
	EquivalentRowCap int
	EquivalentLimit  int
	Join             costs.JoinOptions
}

// DefaultOptions returns the stock tuning.
func DefaultOptions() Options {
	return Options{
		Resolver:         resolver.DefaultOptions(),
		EquivalentRowCap: equivalence.DefaultRowCap,
		EquivalentLimit:  DefaultEquivalentLimit,
		Join:             costs.DefaultJoinOptions(),
	}
}

// Snapshots hands out the active catalog set.
type Snapshots interface {
	Current() *interfaces.CatalogSet
}

// Request is one comparison query. Year zero means the latest program year.
type Request struct {
	Name     string `json:"name"`
	Strength string `json:"strength,omitempty"`
	Year     int    `json:"year,omitempty"`
}

// Comparison is a completed run.
type Comparison struct {
	RunID         uuid.UUID            `json:"run_id"`
	Year          int                  `json:"year"`
	Request       Request              `json:"request"`
	Identity      *resolver.Match      `json:"identity"`
	Equivalents   []equivalence.Member `json:"equivalents"`
	Ranking       *ranking.Ranking     `json:"ranking"`
	UsedFallback  bool                 `json:"used_fallback"`
	FallbackTerms []string             `json:"fallback_terms,omitempty"`
}

// Pipeline compares the cost of a drug's therapeutic equivalents.
type Pipeline struct {
	snapshots Snapshots
	opts      Options
}

// New returns a Pipeline reading catalogs from s.
func New(s Snapshots, opts Options) *Pipeline {
	if opts.EquivalentLimit <= 0 {
		opts.EquivalentLimit = DefaultEquivalentLimit
	}
	return &Pipeline{snapshots: s, opts: opts}
}

// Compare runs every stage for req. Failures are *outcome.Error values
// naming the stage that produced them.
func (p *Pipeline) Compare(ctx context.Context, req Request) (cmp *Comparison, err error) {
	runID := uuid.New()
	start := time.Now()
	defer func() {
		kind, stage := "ok", ""
		if err != nil {
			kind, stage = string(outcome.KindOf(err)), string(outcome.StageOf(err))
			logComparisonFailure(runID, req, err)
		}
		metrics.ObserveComparison(kind, stage, cmp != nil && cmp.UsedFallback, time.Since(start).Seconds())
	}()

	set := p.snapshots.Current()
	if set == nil || set.Identity == nil || set.Cost == nil {
		return nil, outcome.Infrastructure(outcome.StageLatestYear, errNotLoaded, "catalogs are not loaded")
	}

	year := req.Year
	if year == 0 {
		if year, err = costs.LatestYear(ctx, set.Cost); err != nil {
			return nil, err
		}
	}

	match, err := resolver.New(set.Identity, p.opts.Resolver).Resolve(ctx, req.Name, req.Strength, 0)
	if err != nil {
		return nil, err
	}
	best := match.Best.Product

	members, err := equivalence.New(set.Identity, p.opts.EquivalentRowCap).Find(ctx, equivalence.Query{
		Identity:          best.Identity(),
		SubstitutableOnly: true,
		Limit:             p.opts.EquivalentLimit,
	})
	if err != nil {
		return nil, err
	}
	if len(members) == 0 {
		return nil, outcome.New(outcome.KindNoEquivalents, outcome.StageEquivalents,
			"no substitutable equivalents for %s %s", best.TradeName, best.Strength)
	}

	joined, err := costs.NewJoiner(set.Cost, p.opts.Join).Join(ctx, members, best.Ingredient, year)
	if err != nil {
		return nil, err
	}

	ranked, err := ranking.Rank(joined.Candidates)
	if err != nil {
		return nil, err
	}

	logging.Info("Comparison complete",
		"run_id", runID,
		"query", req.Name,
		"year", year,
		"matched", best.TradeName,
		"equivalents", len(members),
		"options", len(ranked.Options),
		"fallback", joined.UsedFallback,
		"recommended", ranked.Recommendation().Name)

	return &Comparison{
		RunID:         runID,
		Year:          year,
		Request:       req,
		Identity:      match,
		Equivalents:   members,
		Ranking:       ranked,
		UsedFallback:  joined.UsedFallback,
		FallbackTerms: joined.FallbackTerms,
	}, nil
}

func logComparisonFailure(runID uuid.UUID, req Request, err error) {
	attrs := []any{
		"run_id", runID,
		"query", req.Name,
		"strength", req.Strength,
		"kind", outcome.KindOf(err),
		"stage", outcome.StageOf(err),
		"error", err,
	}
	if outcome.Is(err, outcome.KindInfrastructure) {
		logging.Error("Comparison failed", attrs...)
		return
	}
	logging.Info("Comparison ended without a result", attrs...)
}
