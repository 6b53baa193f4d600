package catalog

import (
	"context"
	"slices"
	"strings"

	"github.com/giygas/drugcost-api/entities"
	"github.com/giygas/drugcost-api/interfaces"
)

// Compile-time checks to ensure MemoryCatalog implements both catalogs
var (
	_ interfaces.IdentityCatalog = (*MemoryCatalog)(nil)
	_ interfaces.CostCatalog     = (*MemoryCatalog)(nil)
)

// BackendMemory names the in-memory backend in health output and logs.
const BackendMemory = "memory"

type nameYear struct {
	name string
	year int
}

// MemoryCatalog serves both catalogs from indexed slices. It is immutable
// after construction and safe for concurrent readers.
type MemoryCatalog struct {
	products    []entities.ProductRecord
	byTradeName map[string][]int
	byIdentity  map[entities.IdentityKey][]int

	costs      []entities.CostRecord
	byNameYear map[nameYear][]int // cheapest first
	years      []int
	latestYear int
}

// NewMemoryCatalog indexes the given records. Normalized twins are
// recomputed so the result does not depend on how the records were built.
func NewMemoryCatalog(products []entities.ProductRecord, costs []entities.CostRecord) *MemoryCatalog {
	c := &MemoryCatalog{
		products:    make([]entities.ProductRecord, len(products)),
		byTradeName: make(map[string][]int),
		byIdentity:  make(map[entities.IdentityKey][]int),
		costs:       make([]entities.CostRecord, len(costs)),
		byNameYear:  make(map[nameYear][]int),
	}

	for i := range products {
		p := entities.NewProductRecord(products[i])
		c.products[i] = p
		c.byTradeName[p.TradeNameN] = append(c.byTradeName[p.TradeNameN], i)
		key := p.IdentityN()
		c.byIdentity[key] = append(c.byIdentity[key], i)
	}

	seen := make(map[int]bool)
	for i := range costs {
		r := entities.NewCostRecord(costs[i])
		c.costs[i] = r
		if !seen[r.Year] {
			seen[r.Year] = true
			c.years = append(c.years, r.Year)
		}
		if r.Year > c.latestYear {
			c.latestYear = r.Year
		}
		if r.BrandNameN != "" {
			k := nameYear{r.BrandNameN, r.Year}
			c.byNameYear[k] = append(c.byNameYear[k], i)
		}
		if r.GenericNameN != "" && r.GenericNameN != r.BrandNameN {
			k := nameYear{r.GenericNameN, r.Year}
			c.byNameYear[k] = append(c.byNameYear[k], i)
		}
	}

	slices.Sort(c.years)

	for k, idx := range c.byNameYear {
		slices.SortStableFunc(idx, func(a, b int) int {
			switch {
			case c.costs[a].AvgSpendPerDose < c.costs[b].AvgSpendPerDose:
				return -1
			case c.costs[a].AvgSpendPerDose > c.costs[b].AvgSpendPerDose:
				return 1
			default:
				return a - b
			}
		})
		c.byNameYear[k] = idx
	}

	return c
}

// ProductsByTradeName returns products whose normalized trade name equals tradeNameN.
func (c *MemoryCatalog) ProductsByTradeName(_ context.Context, tradeNameN string, limit int) ([]entities.ProductRecord, error) {
	return c.pickProducts(c.byTradeName[tradeNameN], limit), nil
}

// ProductsByTradeNamePrefix returns products whose normalized trade name starts with prefixN.
func (c *MemoryCatalog) ProductsByTradeNamePrefix(_ context.Context, prefixN string, limit int) ([]entities.ProductRecord, error) {
	if prefixN == "" {
		return nil, nil
	}
	var out []entities.ProductRecord
	for i := range c.products {
		if limit > 0 && len(out) >= limit {
			break
		}
		if strings.HasPrefix(c.products[i].TradeNameN, prefixN) {
			out = append(out, c.products[i])
		}
	}
	return out, nil
}

// ProductsByIdentity returns products matching all four normalized identity fields.
func (c *MemoryCatalog) ProductsByIdentity(_ context.Context, key entities.IdentityKey, limit int) ([]entities.ProductRecord, error) {
	return c.pickProducts(c.byIdentity[key], limit), nil
}

// ProductCount returns the number of products.
func (c *MemoryCatalog) ProductCount(context.Context) (int, error) {
	return len(c.products), nil
}

// LatestYear returns the maximum year among the cost rows.
func (c *MemoryCatalog) LatestYear(context.Context) (int, bool, error) {
	if len(c.costs) == 0 {
		return 0, false, nil
	}
	return c.latestYear, true, nil
}

// CostsByName returns the cheapest rows first for one name and year.
func (c *MemoryCatalog) CostsByName(_ context.Context, nameN string, year, limit int) ([]entities.CostRecord, error) {
	idx := c.byNameYear[nameYear{nameN, year}]
	if limit > 0 && len(idx) > limit {
		idx = idx[:limit]
	}
	out := make([]entities.CostRecord, 0, len(idx))
	for _, i := range idx {
		out = append(out, c.costs[i])
	}
	return out, nil
}

// Years lists the distinct years, oldest first.
func (c *MemoryCatalog) Years(context.Context) ([]int, error) {
	return slices.Clone(c.years), nil
}

// CostCount returns the number of cost rows.
func (c *MemoryCatalog) CostCount(context.Context) (int, error) {
	return len(c.costs), nil
}

// Close is a no-op; it lets the memory catalog stand in wherever a closer is expected.
func (c *MemoryCatalog) Close() error {
	return nil
}

func (c *MemoryCatalog) pickProducts(idx []int, limit int) []entities.ProductRecord {
	if limit > 0 && len(idx) > limit {
		idx = idx[:limit]
	}
	out := make([]entities.ProductRecord, 0, len(idx))
	for _, i := range idx {
		out = append(out, c.products[i])
	}
	return out
}
