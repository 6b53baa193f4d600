// Package equivalence expands a product identity into the set of products
// sharing the same ingredient, strength, dosage form and route.
package equivalence

import (
	"context"

	"github.com/giygas/drugcost-api/entities"
	"github.com/giygas/drugcost-api/interfaces"
	"github.com/giygas/drugcost-api/logging"
	"github.com/giygas/drugcost-api/outcome"
)

const (
	// DefaultLimit bounds the returned members.
	DefaultLimit = 200
	// DefaultRowCap bounds the rows fetched before filtering.
	DefaultRowCap = 5000
)

// Query selects an equivalence set.
type Query struct {
	Identity entities.IdentityKey
	// SubstitutableOnly keeps only rows whose TE code starts with "A".
	SubstitutableOnly bool
	Limit             int
}

// Member is one product of an equivalence set.
type Member struct {
	TradeName string                  `json:"trade_name"`
	IsGeneric bool                    `json:"is_generic"`
	ApplType  entities.ApplicationType `json:"appl_type"`
	ApplNo    string                  `json:"appl_no"`
	ProductNo string                  `json:"product_no"`
	TECode    string                  `json:"te_code"`
	Identity  entities.IdentityKey    `json:"identity"`
}

// NewMember packages a product row.
func NewMember(p entities.ProductRecord) Member {
	return Member{
		TradeName: p.TradeName,
		IsGeneric: p.ApplType.IsGeneric(),
		ApplType:  p.ApplType,
		ApplNo:    p.ApplNo,
		ProductNo: p.ProductNo,
		TECode:    p.TECode,
		Identity:  p.Identity(),
	}
}

// Expander looks up equivalence sets.
type Expander struct {
	catalog interfaces.IdentityCatalog
	rowCap  int
}

// New returns an Expander over c. A rowCap of zero or less means DefaultRowCap.
func New(c interfaces.IdentityCatalog, rowCap int) *Expander {
	if rowCap <= 0 {
		rowCap = DefaultRowCap
	}
	return &Expander{catalog: c, rowCap: rowCap}
}

// Find returns the members matching q in catalog order. An empty result is
// not an error.
func (e *Expander) Find(ctx context.Context, q Query) ([]Member, error) {
	key := q.Identity.Normalized()
	if key.Ingredient == "" {
		return nil, outcome.InvalidInput(outcome.StageEquivalents, "ingredient is required")
	}
	limit := q.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	rows, err := e.catalog.ProductsByIdentity(ctx, key, e.rowCap)
	if err != nil {
		return nil, outcome.Infrastructure(outcome.StageEquivalents, err, "identity lookup failed")
	}

	members := make([]Member, 0, min(len(rows), limit))
	for i := range rows {
		if len(members) >= limit {
			break
		}
		if q.SubstitutableOnly && !rows[i].IsSubstitutable() {
			continue
		}
		members = append(members, NewMember(rows[i]))
	}

	logging.Debug("Equivalents found",
		"ingredient", key.Ingredient,
		"strength", key.Strength,
		"dosage_form", key.DosageForm,
		"route", key.Route,
		"rows", len(rows),
		"members", len(members))
	return members, nil
}
