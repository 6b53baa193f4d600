package entities

import "github.com/giygas/drugcost-api/normalize"

// CostRecord is one Part D spending row for a (brand, generic, manufacturer)
// combination in one year. Rows without an average spend never reach the
// catalog.
type CostRecord struct {
	BrandName       string  `json:"brand_name"`
	GenericName     string  `json:"generic_name"`
	Manufacturer    string  `json:"manufacturer"`
	TotManufacturer int     `json:"tot_mftr"`
	Year            int     `json:"year"`
	AvgSpendPerDose float64 `json:"avg_spend_per_dose"`
	OutlierFlag     bool    `json:"outlier_flag"`

	BrandNameN   string `json:"-"`
	GenericNameN string `json:"-"`
}

// NewCostRecord builds a record and fills in the normalized twins.
func NewCostRecord(r CostRecord) CostRecord {
	r.BrandNameN = normalize.Text(r.BrandName)
	r.GenericNameN = normalize.Text(r.GenericName)
	return r
}

// MatchesName reports whether the normalized query equals the brand or the
// generic name.
func (c CostRecord) MatchesName(nameN string) bool {
	return nameN != "" && (c.BrandNameN == nameN || c.GenericNameN == nameN)
}
