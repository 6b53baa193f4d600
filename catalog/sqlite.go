// Package catalog provides the two read-only reference stores: the Orange
// Book product catalog and the Part D cost catalog. SQLiteCatalog serves
// prebuilt database files, MemoryCatalog serves records parsed at startup.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/giygas/drugcost-api/entities"
	"github.com/giygas/drugcost-api/interfaces"
)

// Compile-time checks to ensure SQLiteCatalog implements both catalogs
var (
	_ interfaces.IdentityCatalog = (*SQLiteCatalog)(nil)
	_ interfaces.CostCatalog     = (*SQLiteCatalog)(nil)
)

// BackendSQLite names the SQLite backend in health output and logs.
const BackendSQLite = "sqlite"

const productColumns = `appl_type, appl_no, product_no, trade_name, ingredient, strength,
	dosage_form, route, te_code, rld, rs, product_type`

const costColumns = `brand_name, generic_name, manufacturer, tot_mftr, year, avg_spend_per_dose, outlier_flag`

// SQLiteCatalog reads the products and costs databases built by ingest.
type SQLiteCatalog struct {
	products *sql.DB
	costs    *sql.DB
}

// OpenSQLite opens both database files read-only. The files must exist.
func OpenSQLite(productsPath, costsPath string) (*SQLiteCatalog, error) {
	products, err := openReadOnly(productsPath)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open products")
	}
	costs, err := openReadOnly(costsPath)
	if err != nil {
		products.Close() //nolint:errcheck
		return nil, eris.Wrap(err, "sqlite: open costs")
	}
	return &SQLiteCatalog{products: products, costs: costs}, nil
}

func openReadOnly(path string) (*sql.DB, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, eris.Wrapf(err, "stat %s", path)
	}
	db, err := sql.Open("sqlite", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, eris.Wrapf(err, "open %s", path)
	}
	if err := db.Ping(); err != nil {
		db.Close() //nolint:errcheck
		return nil, eris.Wrapf(err, "ping %s", path)
	}
	return db, nil
}

// Close closes both databases.
func (c *SQLiteCatalog) Close() error {
	return errors.Join(c.products.Close(), c.costs.Close())
}

// ProductsByTradeName returns products whose normalized trade name equals tradeNameN.
func (c *SQLiteCatalog) ProductsByTradeName(ctx context.Context, tradeNameN string, limit int) ([]entities.ProductRecord, error) {
	rows, err := c.products.QueryContext(ctx,
		`SELECT `+productColumns+` FROM ob_products WHERE trade_name_n = ? ORDER BY rowid LIMIT ?`,
		tradeNameN, sqlLimit(limit),
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: products by trade name")
	}
	return scanProducts(rows)
}

// ProductsByTradeNamePrefix returns products whose normalized trade name
// starts with prefixN. The range form keeps the trade-name index usable.
func (c *SQLiteCatalog) ProductsByTradeNamePrefix(ctx context.Context, prefixN string, limit int) ([]entities.ProductRecord, error) {
	if prefixN == "" {
		return nil, nil
	}
	upper := prefixN + string(utf8.MaxRune)
	rows, err := c.products.QueryContext(ctx,
		`SELECT `+productColumns+` FROM ob_products
		WHERE trade_name_n >= ? AND trade_name_n < ?
		ORDER BY rowid LIMIT ?`,
		prefixN, upper, sqlLimit(limit),
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: products by trade name prefix")
	}
	return scanProducts(rows)
}

// ProductsByIdentity returns products matching all four normalized identity fields.
func (c *SQLiteCatalog) ProductsByIdentity(ctx context.Context, key entities.IdentityKey, limit int) ([]entities.ProductRecord, error) {
	rows, err := c.products.QueryContext(ctx,
		`SELECT `+productColumns+` FROM ob_products
		WHERE ingredient_n = ? AND strength_n = ? AND dosage_form_n = ? AND route_n = ?
		ORDER BY rowid LIMIT ?`,
		key.Ingredient, key.Strength, key.DosageForm, key.Route, sqlLimit(limit),
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: products by identity")
	}
	return scanProducts(rows)
}

// ProductCount returns the number of product rows.
func (c *SQLiteCatalog) ProductCount(ctx context.Context) (int, error) {
	var n int
	if err := c.products.QueryRowContext(ctx, `SELECT COUNT(*) FROM ob_products`).Scan(&n); err != nil {
		return 0, eris.Wrap(err, "sqlite: count products")
	}
	return n, nil
}

// LatestYear returns the maximum year in the cost table.
func (c *SQLiteCatalog) LatestYear(ctx context.Context) (int, bool, error) {
	var year sql.NullInt64
	if err := c.costs.QueryRowContext(ctx, `SELECT MAX(year) FROM partd_costs`).Scan(&year); err != nil {
		return 0, false, eris.Wrap(err, "sqlite: latest year")
	}
	if !year.Valid {
		return 0, false, nil
	}
	return int(year.Int64), true, nil
}

// CostsByName returns the cheapest rows first for one name and year.
func (c *SQLiteCatalog) CostsByName(ctx context.Context, nameN string, year, limit int) ([]entities.CostRecord, error) {
	rows, err := c.costs.QueryContext(ctx,
		`SELECT `+costColumns+` FROM partd_costs
		WHERE year = ?
		  AND (brand_name_n = ? OR generic_name_n = ?)
		  AND avg_spend_per_dose IS NOT NULL
		ORDER BY avg_spend_per_dose ASC, rowid
		LIMIT ?`,
		year, nameN, nameN, sqlLimit(limit),
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: costs for year %d", year)
	}
	defer rows.Close() //nolint:errcheck

	var out []entities.CostRecord
	for rows.Next() {
		var r entities.CostRecord
		var outlier int
		if err := rows.Scan(&r.BrandName, &r.GenericName, &r.Manufacturer, &r.TotManufacturer,
			&r.Year, &r.AvgSpendPerDose, &outlier); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan cost")
		}
		r.OutlierFlag = outlier != 0
		out = append(out, entities.NewCostRecord(r))
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate costs")
}

// Years lists the distinct years in the cost table, oldest first.
func (c *SQLiteCatalog) Years(ctx context.Context) ([]int, error) {
	rows, err := c.costs.QueryContext(ctx, `SELECT DISTINCT year FROM partd_costs ORDER BY year`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: years")
	}
	defer rows.Close() //nolint:errcheck

	var years []int
	for rows.Next() {
		var y int
		if err := rows.Scan(&y); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan year")
		}
		years = append(years, y)
	}
	return years, eris.Wrap(rows.Err(), "sqlite: iterate years")
}

// CostCount returns the number of cost rows.
func (c *SQLiteCatalog) CostCount(ctx context.Context) (int, error) {
	var n int
	if err := c.costs.QueryRowContext(ctx, `SELECT COUNT(*) FROM partd_costs`).Scan(&n); err != nil {
		return 0, eris.Wrap(err, "sqlite: count costs")
	}
	return n, nil
}

func scanProducts(rows *sql.Rows) ([]entities.ProductRecord, error) {
	defer rows.Close() //nolint:errcheck

	var out []entities.ProductRecord
	for rows.Next() {
		var r entities.ProductRecord
		var applType string
		if err := rows.Scan(&applType, &r.ApplNo, &r.ProductNo, &r.TradeName, &r.Ingredient, &r.Strength,
			&r.DosageForm, &r.Route, &r.TECode, &r.RLD, &r.RS, &r.Type); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan product")
		}
		r.ApplType = entities.ParseApplicationType(applType)
		out = append(out, entities.NewProductRecord(r))
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate products")
}

// sqlLimit maps a non-positive limit to SQLite's "no limit".
func sqlLimit(limit int) int {
	if limit <= 0 {
		return -1
	}
	return limit
}
