// Package catalogtest provides fixture catalogs for tests.
package catalogtest

import (
	"context"
	"sync"

	"github.com/giygas/drugcost-api/catalog"
	"github.com/giygas/drugcost-api/entities"
	"github.com/giygas/drugcost-api/interfaces"
)

// Product builds a normalized product record.
func Product(applType, tradeName, ingredient, strength, form, route, te string) entities.ProductRecord {
	return entities.NewProductRecord(entities.ProductRecord{
		ApplType:   entities.ParseApplicationType(applType),
		ApplNo:     "0" + tradeName,
		ProductNo:  "001",
		TradeName:  tradeName,
		Ingredient: ingredient,
		Strength:   strength,
		DosageForm: form,
		Route:      route,
		TECode:     te,
	})
}

// Cost builds a normalized cost record.
func Cost(brand, generic, manufacturer string, year int, spend float64) entities.CostRecord {
	return entities.NewCostRecord(entities.CostRecord{
		BrandName:       brand,
		GenericName:     generic,
		Manufacturer:    manufacturer,
		TotManufacturer: 1,
		Year:            year,
		AvgSpendPerDose: spend,
	})
}

// LipitorProducts is the Orange Book side of the Lipitor scenario.
func LipitorProducts() []entities.ProductRecord {
	return []entities.ProductRecord{
		Product("N", "LIPITOR", "ATORVASTATIN CALCIUM", "EQ 10MG BASE", "TABLET", "ORAL", "AB"),
		Product("N", "LIPITOR", "ATORVASTATIN CALCIUM", "20MG", "TABLET", "ORAL", "AB"),
		Product("A", "ATORVASTATIN CALCIUM", "ATORVASTATIN CALCIUM", "20MG", "TABLET", "ORAL", "AB"),
		Product("A", "ATORVASTATIN CALCIUM", "ATORVASTATIN CALCIUM", "20MG", "TABLET", "ORAL", ""),
		Product("N", "ZOLOFT", "SERTRALINE HYDROCHLORIDE", "EQ 50MG BASE", "TABLET", "ORAL", "AB"),
		Product("N", "CADUET", "AMLODIPINE BESYLATE; ATORVASTATIN CALCIUM", "EQ 5MG BASE;EQ 10MG BASE", "TABLET", "ORAL", "AB"),
		Product("N", "LIPOFEN", "FENOFIBRATE", "50MG", "CAPSULE", "ORAL", "AB"),
	}
}

// LipitorCosts is the Part D side of the Lipitor scenario: only the generic
// name carries spending for 2023.
func LipitorCosts() []entities.CostRecord {
	return []entities.CostRecord{
		Cost("Atorvastatin Calcium", "Atorvastatin Calcium", "Overall", 2023, 0.45),
		Cost("Atorvastatin Calcium", "Atorvastatin Calcium", "Overall", 2021, 0.61),
		Cost("Zoloft", "Sertraline HCl", "Viatris", 2023, 3.10),
	}
}

// Lipitor returns a memory catalog holding the Lipitor scenario.
func Lipitor() *catalog.MemoryCatalog {
	return catalog.NewMemoryCatalog(LipitorProducts(), LipitorCosts())
}

// CountingCosts wraps a cost catalog and records every name looked up.
type CountingCosts struct {
	interfaces.CostCatalog

	mu      sync.Mutex
	lookups []string
	Err     error
}

// NewCountingCosts wraps inner.
func NewCountingCosts(inner interfaces.CostCatalog) *CountingCosts {
	return &CountingCosts{CostCatalog: inner}
}

// CostsByName records nameN and delegates.
func (c *CountingCosts) CostsByName(ctx context.Context, nameN string, year, limit int) ([]entities.CostRecord, error) {
	c.mu.Lock()
	c.lookups = append(c.lookups, nameN)
	c.mu.Unlock()
	if c.Err != nil {
		return nil, c.Err
	}
	return c.CostCatalog.CostsByName(ctx, nameN, year, limit)
}

// Lookups returns a copy of the names looked up so far.
func (c *CountingCosts) Lookups() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.lookups...)
}
