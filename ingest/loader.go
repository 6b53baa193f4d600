package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/giygas/drugcost-api/catalog"
	"github.com/giygas/drugcost-api/interfaces"
	"github.com/giygas/drugcost-api/logging"
	"github.com/giygas/drugcost-api/validation"
)

// Compile-time check to ensure Loader implements the Loader interface
var _ interfaces.Loader = (*Loader)(nil)

// Loader produces catalog sets for the configured backend.
type Loader struct {
	Backend    string
	Sources    Sources
	ProductsDB string
	MedicareDB string
	// Rebuild makes the sqlite backend rebuild its databases from the raw
	// sources before opening them.
	Rebuild bool
}

// WithRebuild returns a copy of l that rebuilds the SQLite catalogs from the
// raw sources on every load.
func (l Loader) WithRebuild() *Loader {
	l.Rebuild = true
	return &l
}

// Load builds a new catalog set. The returned set owns its resources and
// must be closed by the caller once it is no longer served.
func (l *Loader) Load(ctx context.Context) (*interfaces.CatalogSet, error) {
	start := time.Now()

	var (
		set *interfaces.CatalogSet
		err error
	)
	switch l.Backend {
	case catalog.BackendMemory:
		set, err = l.loadMemory(ctx)
	case catalog.BackendSQLite, "":
		set, err = l.loadSQLite(ctx)
	default:
		return nil, fmt.Errorf("unknown catalog backend %q", l.Backend)
	}
	if err != nil {
		return nil, err
	}

	if err := validation.NewDataValidator().ValidateCatalogs(set.Report); err != nil {
		set.Close() //nolint:errcheck
		return nil, fmt.Errorf("catalog validation failed: %w", err)
	}

	logging.Info("Catalogs loaded",
		"backend", set.Backend,
		"products", set.Report.Products,
		"costs", set.Report.Costs,
		"latest_year", set.Report.LatestYear,
		"duration", time.Since(start))
	return set, nil
}

func (l *Loader) loadMemory(ctx context.Context) (*interfaces.CatalogSet, error) {
	parsed, err := ParseSources(ctx, l.Sources)
	if err != nil {
		return nil, fmt.Errorf("failed to parse sources: %w", err)
	}
	c := catalog.NewMemoryCatalog(parsed.Products.Records, parsed.Costs.Records)
	return &interfaces.CatalogSet{
		Identity: c,
		Cost:     c,
		Backend:  catalog.BackendMemory,
		Report:   parsed.Report(),
		Closer:   c,
	}, nil
}

func (l *Loader) loadSQLite(ctx context.Context) (*interfaces.CatalogSet, error) {
	var report *interfaces.DataQualityReport
	if l.Rebuild {
		r, err := BuildSQLite(ctx, l.Sources, l.ProductsDB, l.MedicareDB)
		if err != nil {
			return nil, fmt.Errorf("failed to rebuild catalogs: %w", err)
		}
		report = r
	}

	c, err := catalog.OpenSQLite(l.ProductsDB, l.MedicareDB)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalogs: %w", err)
	}
	set := &interfaces.CatalogSet{
		Identity: c,
		Cost:     c,
		Backend:  catalog.BackendSQLite,
		Closer:   c,
	}

	if report == nil {
		report, err = validation.NewDataValidator().SummarizeCatalogs(ctx, set)
		if err != nil {
			c.Close() //nolint:errcheck
			return nil, err
		}
	}
	set.Report = report
	return set, nil
}
