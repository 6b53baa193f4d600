package catalog

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"

	"github.com/giygas/drugcost-api/entities"
)

// WriteProducts builds a fresh products database at path. The file is written
// next to path and renamed into place, so readers never see a partial build.
func WriteProducts(ctx context.Context, path string, records []entities.ProductRecord) error {
	return writeDatabase(ctx, path, productsMigrations, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `INSERT INTO ob_products (
			appl_type, appl_no, product_no, trade_name, ingredient, strength,
			dosage_form, route, te_code, rld, rs, product_type,
			trade_name_n, ingredient_n, strength_n, dosage_form_n, route_n, te_code_n
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`)
		if err != nil {
			return eris.Wrap(err, "prepare product insert")
		}
		defer stmt.Close() //nolint:errcheck

		for i := range records {
			r := entities.NewProductRecord(records[i])
			if _, err := stmt.ExecContext(ctx,
				string(r.ApplType), r.ApplNo, r.ProductNo, r.TradeName, r.Ingredient, r.Strength,
				r.DosageForm, r.Route, r.TECode, r.RLD, r.RS, r.Type,
				r.TradeNameN, r.IngredientN, r.StrengthN, r.DosageFormN, r.RouteN, r.TECodeN,
			); err != nil {
				return eris.Wrapf(err, "insert product %s/%s", r.ApplNo, r.ProductNo)
			}
		}
		return nil
	})
}

// WriteCosts builds a fresh costs database at path.
func WriteCosts(ctx context.Context, path string, records []entities.CostRecord) error {
	return writeDatabase(ctx, path, costsMigrations, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `INSERT INTO partd_costs (
			brand_name, generic_name, manufacturer, tot_mftr,
			year, avg_spend_per_dose, outlier_flag,
			brand_name_n, generic_name_n
		) VALUES (?,?,?,?,?,?,?,?,?)`)
		if err != nil {
			return eris.Wrap(err, "prepare cost insert")
		}
		defer stmt.Close() //nolint:errcheck

		for i := range records {
			r := entities.NewCostRecord(records[i])
			outlier := 0
			if r.OutlierFlag {
				outlier = 1
			}
			if _, err := stmt.ExecContext(ctx,
				r.BrandName, r.GenericName, r.Manufacturer, r.TotManufacturer,
				r.Year, r.AvgSpendPerDose, outlier,
				r.BrandNameN, r.GenericNameN,
			); err != nil {
				return eris.Wrapf(err, "insert cost %s/%d", r.GenericName, r.Year)
			}
		}
		return nil
	})
}

func writeDatabase(ctx context.Context, path, migrations string, fill func(tx *sql.Tx) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return eris.Wrapf(err, "sqlite: create directory for %s", path)
	}

	tmp := path + ".building"
	if err := os.Remove(tmp); err != nil && !os.IsNotExist(err) {
		return eris.Wrapf(err, "sqlite: remove stale %s", tmp)
	}

	db, err := sql.Open("sqlite", tmp)
	if err != nil {
		return eris.Wrapf(err, "sqlite: open %s", tmp)
	}

	if err := buildInto(ctx, db, migrations, fill); err != nil {
		db.Close()     //nolint:errcheck
		os.Remove(tmp) //nolint:errcheck
		return err
	}
	if err := db.Close(); err != nil {
		os.Remove(tmp) //nolint:errcheck
		return eris.Wrapf(err, "sqlite: close %s", tmp)
	}

	return eris.Wrapf(os.Rename(tmp, path), "sqlite: move %s into place", path)
}

func buildInto(ctx context.Context, db *sql.DB, migrations string, fill func(tx *sql.Tx) error) error {
	if err := runMigrations(db, migrations); err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin")
	}
	if err := fill(tx); err != nil {
		tx.Rollback() //nolint:errcheck
		return eris.Wrap(err, "sqlite: fill")
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit")
}
