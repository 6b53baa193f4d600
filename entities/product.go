// Package entities holds the catalog records shared by the ingest, storage
// and lookup layers.
package entities

import (
	"strings"

	"github.com/giygas/drugcost-api/normalize"
)

// ApplicationType is the Orange Book application class of a product.
type ApplicationType string

const (
	ApplicationNDA     ApplicationType = "N" // new drug application
	ApplicationANDA    ApplicationType = "A" // abbreviated (generic) application
	ApplicationUnknown ApplicationType = ""
)

// ParseApplicationType maps a raw Appl_Type value. Anything other than N or A
// is kept verbatim so it reads back as unknown.
func ParseApplicationType(raw string) ApplicationType {
	return ApplicationType(strings.TrimSpace(strings.ToUpper(raw)))
}

// Classification is the brand/generic label shown to callers.
type Classification string

const (
	ClassificationBrand   Classification = "brand"
	ClassificationGeneric Classification = "generic"
	ClassificationUnknown Classification = "unknown"
)

// Classification derives the label from the application type.
func (a ApplicationType) Classification() Classification {
	switch a {
	case ApplicationNDA:
		return ClassificationBrand
	case ApplicationANDA:
		return ClassificationGeneric
	default:
		return ClassificationUnknown
	}
}

// IsGeneric reports whether the product was approved under an abbreviated
// application.
func (a ApplicationType) IsGeneric() bool {
	return a == ApplicationANDA
}

// IdentityKey is the product configuration shared by equivalent products.
type IdentityKey struct {
	Ingredient string `json:"ingredient"`
	Strength   string `json:"strength"`
	DosageForm string `json:"dosage_form"`
	Route      string `json:"route"`
}

// Normalized returns the key with every field passed through normalize.Text.
func (k IdentityKey) Normalized() IdentityKey {
	return IdentityKey{
		Ingredient: normalize.Text(k.Ingredient),
		Strength:   normalize.Text(k.Strength),
		DosageForm: normalize.Text(k.DosageForm),
		Route:      normalize.Text(k.Route),
	}
}

// ProductRecord is one Orange Book product row. The *N fields are the
// normalized twins used for equality and prefix matching only.
type ProductRecord struct {
	ApplType   ApplicationType `json:"appl_type"`
	ApplNo     string          `json:"appl_no"`
	ProductNo  string          `json:"product_no"`
	TradeName  string          `json:"trade_name"`
	Ingredient string          `json:"ingredient"`
	Strength   string          `json:"strength"`
	DosageForm string          `json:"dosage_form"`
	Route      string          `json:"route"`
	TECode     string          `json:"te_code"`
	RLD        string          `json:"rld,omitempty"`
	RS         string          `json:"rs,omitempty"`
	Type       string          `json:"type,omitempty"`

	TradeNameN  string `json:"-"`
	IngredientN string `json:"-"`
	StrengthN   string `json:"-"`
	DosageFormN string `json:"-"`
	RouteN      string `json:"-"`
	TECodeN     string `json:"-"`
}

// NewProductRecord builds a record and fills in the normalized twins.
func NewProductRecord(r ProductRecord) ProductRecord {
	r.Normalize()
	return r
}

// Normalize recomputes every normalized twin from its raw counterpart.
func (p *ProductRecord) Normalize() {
	p.TradeNameN = normalize.Text(p.TradeName)
	p.IngredientN = normalize.Text(p.Ingredient)
	p.StrengthN = normalize.Text(p.Strength)
	p.DosageFormN = normalize.Text(p.DosageForm)
	p.RouteN = normalize.Text(p.Route)
	p.TECodeN = normalize.Text(p.TECode)
}

// Identity returns the raw identity tuple of the product.
func (p ProductRecord) Identity() IdentityKey {
	return IdentityKey{
		Ingredient: p.Ingredient,
		Strength:   p.Strength,
		DosageForm: p.DosageForm,
		Route:      p.Route,
	}
}

// IdentityN returns the normalized identity tuple of the product.
func (p ProductRecord) IdentityN() IdentityKey {
	return IdentityKey{
		Ingredient: p.IngredientN,
		Strength:   p.StrengthN,
		DosageForm: p.DosageFormN,
		Route:      p.RouteN,
	}
}

// IsSubstitutable reports whether the TE code starts with "A". Every
// A-prefixed rating (AB, AB1, AB2, AN, AO, AP, AT) counts.
func (p ProductRecord) IsSubstitutable() bool {
	return strings.HasPrefix(normalize.Text(p.TECode), "A")
}
