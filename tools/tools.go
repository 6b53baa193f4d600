// Package tools exposes each lookup stage, and the whole comparison, as a
// call that never fails with a Go error: every outcome is a Result.
package tools

import (
	"context"
	"errors"

	"github.com/giygas/drugcost-api/costs"
	"github.com/giygas/drugcost-api/entities"
	"github.com/giygas/drugcost-api/equivalence"
	"github.com/giygas/drugcost-api/interfaces"
	"github.com/giygas/drugcost-api/outcome"
	"github.com/giygas/drugcost-api/pipeline"
	"github.com/giygas/drugcost-api/query"
	"github.com/giygas/drugcost-api/report"
	"github.com/giygas/drugcost-api/resolver"
)

var errNotLoaded = errors.New("no catalog snapshot")

// Tools binds the tool surface to a catalog snapshot source.
type Tools struct {
	snapshots pipeline.Snapshots
	opts      pipeline.Options
	validator interfaces.InputValidator
	pipeline  *pipeline.Pipeline
}

// New returns the tool surface. Terms are checked with v before they reach
// a catalog.
func New(s pipeline.Snapshots, opts pipeline.Options, v interfaces.InputValidator) *Tools {
	return &Tools{
		snapshots: s,
		opts:      opts,
		validator: v,
		pipeline:  pipeline.New(s, opts),
	}
}

func (t *Tools) current(stage outcome.Stage) (*interfaces.CatalogSet, error) {
	set := t.snapshots.Current()
	if set == nil || set.Identity == nil || set.Cost == nil {
		return nil, outcome.Infrastructure(stage, errNotLoaded, "catalogs are not loaded")
	}
	return set, nil
}

// term is one caller-supplied field. Optional terms are skipped when empty.
type term struct {
	field    string
	value    string
	optional bool
}

// checkTerms validates terms in order and reports the first failure.
func (t *Tools) checkTerms(stage outcome.Stage, terms ...term) error {
	for _, tm := range terms {
		if tm.optional && tm.value == "" {
			continue
		}
		if err := t.validator.ValidateTerm(tm.field, tm.value); err != nil {
			return outcome.InvalidInput(stage, "%v", err)
		}
	}
	return nil
}

// Years is the latest_year payload.
type Years struct {
	Year  int   `json:"year"`
	Years []int `json:"years"`
}

// LatestYear reports the most recent program year with cost data.
func (t *Tools) LatestYear(ctx context.Context) Result[*Years] {
	set, err := t.current(outcome.StageLatestYear)
	if err != nil {
		return fail[*Years](err)
	}
	year, err := costs.LatestYear(ctx, set.Cost)
	if err != nil {
		return fail[*Years](err)
	}
	years, err := set.Cost.Years(ctx)
	if err != nil {
		return fail[*Years](outcome.Infrastructure(outcome.StageLatestYear, err, "year listing failed"))
	}
	return succeed(&Years{Year: year, Years: years})
}

// MatchArgs are the match_identity arguments.
type MatchArgs struct {
	Name     string `json:"name"`
	Strength string `json:"strength,omitempty"`
	Limit    int    `json:"limit,omitempty"`
}

// MatchIdentity resolves a name, and optionally a strength, to products.
func (t *Tools) MatchIdentity(ctx context.Context, args MatchArgs) Result[*resolver.Match] {
	if err := t.checkTerms(outcome.StageIdentity,
		term{field: "name", value: args.Name},
		term{field: "strength", value: args.Strength, optional: true}); err != nil {
		return fail[*resolver.Match](err)
	}
	set, err := t.current(outcome.StageIdentity)
	if err != nil {
		return fail[*resolver.Match](err)
	}
	return from[*resolver.Match](resolver.New(set.Identity, t.opts.Resolver).Resolve(ctx, args.Name, args.Strength, args.Limit))
}

// EquivalentsArgs are the find_equivalents arguments. Callers wanting the
// usual substitutable-only set must say so; NewEquivalentsArgs does.
type EquivalentsArgs struct {
	Ingredient        string `json:"ingredient"`
	Strength          string `json:"strength"`
	DosageForm        string `json:"dosage_form"`
	Route             string `json:"route"`
	SubstitutableOnly bool   `json:"substitutable_only"`
	Limit             int    `json:"limit,omitempty"`
}

// NewEquivalentsArgs returns arguments with the substitutable filter on.
func NewEquivalentsArgs(ingredient, strength, dosageForm, route string) EquivalentsArgs {
	return EquivalentsArgs{
		Ingredient:        ingredient,
		Strength:          strength,
		DosageForm:        dosageForm,
		Route:             route,
		SubstitutableOnly: true,
	}
}

// Equivalents is the find_equivalents payload.
type Equivalents struct {
	Count int                  `json:"count"`
	Items []equivalence.Member `json:"items"`
}

// FindEquivalents lists the products sharing one identity. An empty list
// is a success.
func (t *Tools) FindEquivalents(ctx context.Context, args EquivalentsArgs) Result[*Equivalents] {
	if err := t.checkTerms(outcome.StageEquivalents,
		term{field: "ingredient", value: args.Ingredient},
		term{field: "strength", value: args.Strength, optional: true},
		term{field: "dosage_form", value: args.DosageForm, optional: true},
		term{field: "route", value: args.Route, optional: true}); err != nil {
		return fail[*Equivalents](err)
	}
	set, err := t.current(outcome.StageEquivalents)
	if err != nil {
		return fail[*Equivalents](err)
	}

	members, err := equivalence.New(set.Identity, t.opts.EquivalentRowCap).Find(ctx, equivalence.Query{
		Identity: entities.IdentityKey{
			Ingredient: args.Ingredient,
			Strength:   args.Strength,
			DosageForm: args.DosageForm,
			Route:      args.Route,
		},
		SubstitutableOnly: args.SubstitutableOnly,
		Limit:             args.Limit,
	})
	if err != nil {
		return fail[*Equivalents](err)
	}
	if members == nil {
		members = []equivalence.Member{}
	}
	return succeed(&Equivalents{Count: len(members), Items: members})
}

// CostArgs are the lookup_costs arguments. Year zero means the latest year.
type CostArgs struct {
	Name  string `json:"name"`
	Year  int    `json:"year,omitempty"`
	Limit int    `json:"limit,omitempty"`
}

// LookupCosts returns the cost rows recorded under one brand or generic name.
func (t *Tools) LookupCosts(ctx context.Context, args CostArgs) Result[*costs.Lookup] {
	if err := t.checkTerms(outcome.StageCosts, term{field: "name", value: args.Name}); err != nil {
		return fail[*costs.Lookup](err)
	}
	set, err := t.current(outcome.StageCosts)
	if err != nil {
		return fail[*costs.Lookup](err)
	}
	return from[*costs.Lookup](costs.LookupCosts(ctx, set.Cost, args.Name, args.Year, args.Limit))
}

// Candidates is the generic_candidates payload.
type Candidates struct {
	Ingredient string   `json:"ingredient"`
	Candidates []string `json:"candidates"`
}

// GenericCandidates derives the generic search terms for an ingredient.
func (t *Tools) GenericCandidates(ingredient string) Result[*Candidates] {
	if err := t.checkTerms(outcome.StageCandidates, term{field: "ingredient", value: ingredient}); err != nil {
		return fail[*Candidates](err)
	}
	c := costs.GenericCandidates(ingredient)
	if c == nil {
		c = []string{}
	}
	return succeed(&Candidates{Ingredient: ingredient, Candidates: c})
}

// CompareArgs are the compare arguments. Text is a free-form request such as
// "Lipitor 20mg tablets".
type CompareArgs struct {
	Text string `json:"text"`
	Year int    `json:"year,omitempty"`
	Top  int    `json:"top,omitempty"`
}

// Comparison is the compare payload.
type Comparison struct {
	Query      query.Parsed         `json:"query"`
	Comparison *pipeline.Comparison `json:"comparison"`
	Report     string               `json:"report"`
}

// Compare runs the full pipeline on a free-text request.
func (t *Tools) Compare(ctx context.Context, args CompareArgs) Result[*Comparison] {
	if err := t.checkTerms(outcome.StageQuery, term{field: "query", value: args.Text}); err != nil {
		return fail[*Comparison](err)
	}
	parsed, err := query.Parse(args.Text)
	if err != nil {
		return fail[*Comparison](err)
	}

	cmp, err := t.pipeline.Compare(ctx, pipeline.Request{
		Name:     parsed.Name,
		Strength: parsed.Strength,
		Year:     args.Year,
	})
	if err != nil {
		return fail[*Comparison](err)
	}
	return succeed(&Comparison{
		Query:      parsed,
		Comparison: cmp,
		Report:     report.Render(cmp, args.Top),
	})
}
