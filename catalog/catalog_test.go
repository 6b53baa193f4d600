package catalog_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/giygas/drugcost-api/catalog"
	"github.com/giygas/drugcost-api/catalogtest"
	"github.com/giygas/drugcost-api/entities"
)

type backend interface {
	ProductsByTradeName(ctx context.Context, tradeNameN string, limit int) ([]entities.ProductRecord, error)
	ProductsByTradeNamePrefix(ctx context.Context, prefixN string, limit int) ([]entities.ProductRecord, error)
	ProductsByIdentity(ctx context.Context, key entities.IdentityKey, limit int) ([]entities.ProductRecord, error)
	ProductCount(ctx context.Context) (int, error)
	LatestYear(ctx context.Context) (int, bool, error)
	CostsByName(ctx context.Context, nameN string, year, limit int) ([]entities.CostRecord, error)
	Years(ctx context.Context) ([]int, error)
	CostCount(ctx context.Context) (int, error)
	Close() error
}

func newSQLiteBackend(t *testing.T, products []entities.ProductRecord, costs []entities.CostRecord) backend {
	t.Helper()
	dir := t.TempDir()
	productsPath := filepath.Join(dir, "products.db")
	costsPath := filepath.Join(dir, "medicare.db")

	ctx := context.Background()
	require.NoError(t, catalog.WriteProducts(ctx, productsPath, products))
	require.NoError(t, catalog.WriteCosts(ctx, costsPath, costs))

	c, err := catalog.OpenSQLite(productsPath, costsPath)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() }) //nolint:errcheck
	return c
}

func newMemoryBackend(_ *testing.T, products []entities.ProductRecord, costs []entities.CostRecord) backend {
	return catalog.NewMemoryCatalog(products, costs)
}

var backends = map[string]func(*testing.T, []entities.ProductRecord, []entities.CostRecord) backend{
	catalog.BackendSQLite: newSQLiteBackend,
	catalog.BackendMemory: newMemoryBackend,
}

func TestCatalog_ProductsByTradeName(t *testing.T) {
	for name, build := range backends {
		t.Run(name, func(t *testing.T) {
			c := build(t, catalogtest.LipitorProducts(), catalogtest.LipitorCosts())
			ctx := context.Background()

			rows, err := c.ProductsByTradeName(ctx, "LIPITOR", 2000)
			require.NoError(t, err)
			require.Len(t, rows, 2)
			assert.Equal(t, "EQ 10MG BASE", rows[0].Strength, "catalog order must be preserved")
			assert.Equal(t, "20MG", rows[1].Strength)
			assert.Equal(t, entities.ApplicationNDA, rows[0].ApplType)
			assert.Equal(t, "LIPITOR", rows[0].TradeNameN)

			rows, err = c.ProductsByTradeName(ctx, "LIPITOR", 1)
			require.NoError(t, err)
			assert.Len(t, rows, 1)

			rows, err = c.ProductsByTradeName(ctx, "lipitor", 10)
			require.NoError(t, err)
			assert.Empty(t, rows, "arguments are expected to be normalized already")
		})
	}
}

func TestCatalog_ProductsByTradeNamePrefix(t *testing.T) {
	for name, build := range backends {
		t.Run(name, func(t *testing.T) {
			c := build(t, catalogtest.LipitorProducts(), catalogtest.LipitorCosts())
			ctx := context.Background()

			rows, err := c.ProductsByTradeNamePrefix(ctx, "LIP", 2000)
			require.NoError(t, err)
			require.Len(t, rows, 3)
			assert.Equal(t, "LIPITOR", rows[0].TradeName)
			assert.Equal(t, "LIPITOR", rows[1].TradeName)
			assert.Equal(t, "LIPOFEN", rows[2].TradeName)

			rows, err = c.ProductsByTradeNamePrefix(ctx, "LIP", 2)
			require.NoError(t, err)
			assert.Len(t, rows, 2)

			rows, err = c.ProductsByTradeNamePrefix(ctx, "", 10)
			require.NoError(t, err)
			assert.Empty(t, rows)
		})
	}
}

func TestCatalog_ProductsByIdentity(t *testing.T) {
	for name, build := range backends {
		t.Run(name, func(t *testing.T) {
			c := build(t, catalogtest.LipitorProducts(), catalogtest.LipitorCosts())
			ctx := context.Background()

			key := entities.IdentityKey{Ingredient: "ATORVASTATIN CALCIUM", Strength: "20MG", DosageForm: "TABLET", Route: "ORAL"}
			rows, err := c.ProductsByIdentity(ctx, key, 5000)
			require.NoError(t, err)
			require.Len(t, rows, 3)
			for _, r := range rows {
				assert.Equal(t, key, r.IdentityN())
			}

			key.Strength = "EQ 20MG BASE"
			rows, err = c.ProductsByIdentity(ctx, key, 5000)
			require.NoError(t, err)
			assert.Empty(t, rows)
		})
	}
}

func TestCatalog_Costs(t *testing.T) {
	costs := []entities.CostRecord{
		catalogtest.Cost("Lipitor", "Atorvastatin Calcium", "Viatris", 2023, 2.50),
		catalogtest.Cost("Atorvastatin Calcium", "Atorvastatin Calcium", "Overall", 2023, 0.45),
		catalogtest.Cost("Atorvastatin Calcium", "Atorvastatin Calcium", "Accord", 2023, 0.30),
		catalogtest.Cost("Atorvastatin Calcium", "Atorvastatin Calcium", "Overall", 2021, 0.61),
	}

	for name, build := range backends {
		t.Run(name, func(t *testing.T) {
			c := build(t, catalogtest.LipitorProducts(), costs)
			ctx := context.Background()

			year, ok, err := c.LatestYear(ctx)
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, 2023, year)

			years, err := c.Years(ctx)
			require.NoError(t, err)
			assert.Equal(t, []int{2021, 2023}, years)

			rows, err := c.CostsByName(ctx, "ATORVASTATIN CALCIUM", 2023, 50)
			require.NoError(t, err)
			require.Len(t, rows, 3, "generic name matches the brand row too")
			assert.Equal(t, 0.30, rows[0].AvgSpendPerDose)
			assert.Equal(t, 0.45, rows[1].AvgSpendPerDose)
			assert.Equal(t, 2.50, rows[2].AvgSpendPerDose)
			for _, r := range rows {
				assert.Equal(t, 2023, r.Year)
			}

			rows, err = c.CostsByName(ctx, "ATORVASTATIN CALCIUM", 2021, 50)
			require.NoError(t, err)
			require.Len(t, rows, 1)
			assert.Equal(t, 2021, rows[0].Year)

			rows, err = c.CostsByName(ctx, "LIPITOR", 2023, 1)
			require.NoError(t, err)
			require.Len(t, rows, 1)
			assert.Equal(t, "Viatris", rows[0].Manufacturer)

			n, err := c.CostCount(ctx)
			require.NoError(t, err)
			assert.Equal(t, 4, n)

			n, err = c.ProductCount(ctx)
			require.NoError(t, err)
			assert.Equal(t, len(catalogtest.LipitorProducts()), n)
		})
	}
}

func TestCatalog_EmptyCosts(t *testing.T) {
	for name, build := range backends {
		t.Run(name, func(t *testing.T) {
			c := build(t, nil, nil)
			_, ok, err := c.LatestYear(context.Background())
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestOpenSQLite_MissingFile(t *testing.T) {
	dir := t.TempDir()
	_, err := catalog.OpenSQLite(filepath.Join(dir, "missing.db"), filepath.Join(dir, "missing2.db"))
	require.Error(t, err)

	_, statErr := os.Stat(filepath.Join(dir, "missing.db"))
	assert.True(t, os.IsNotExist(statErr), "opening read-only must not create the file")
}

func TestWriteProducts_ReplacesExistingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "products.db")
	costsPath := filepath.Join(dir, "medicare.db")
	ctx := context.Background()

	require.NoError(t, catalog.WriteProducts(ctx, path, catalogtest.LipitorProducts()))
	require.NoError(t, catalog.WriteProducts(ctx, path, catalogtest.LipitorProducts()[:1]))
	require.NoError(t, catalog.WriteCosts(ctx, costsPath, nil))

	c, err := catalog.OpenSQLite(path, costsPath)
	require.NoError(t, err)
	defer c.Close() //nolint:errcheck

	n, err := c.ProductCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = os.Stat(path + ".building")
	assert.True(t, os.IsNotExist(err))
}
