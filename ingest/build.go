package ingest

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/giygas/drugcost-api/catalog"
	"github.com/giygas/drugcost-api/interfaces"
	"github.com/giygas/drugcost-api/logging"
	"github.com/giygas/drugcost-api/validation"
)

// Sources names the raw input files.
type Sources struct {
	OrangeBookFile string
	PartDFile      string
}

// Parsed holds both parsed sources.
type Parsed struct {
	Products *ProductResult
	Costs    *CostResult
}

// ParseSources parses both source files concurrently.
func ParseSources(ctx context.Context, src Sources) (*Parsed, error) {
	out := &Parsed{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		res, err := ParseOrangeBookFile(gctx, src.OrangeBookFile)
		out.Products = res
		return err
	})
	g.Go(func() error {
		res, err := ParsePartDFile(gctx, src.PartDFile)
		out.Costs = res
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Report builds the data-quality report for the parsed sources.
func (p *Parsed) Report() *interfaces.DataQualityReport {
	report := validation.NewDataValidator().ReportDataQuality(p.Products.Records, p.Costs.Records)
	report.SkippedProductLines = p.Products.Stats.Skipped()
	report.SkippedCostRows = p.Costs.Stats.Skipped()
	return report
}

// BuildSQLite parses the raw sources and writes both SQLite catalogs. Each
// database is built beside its target path and renamed into place.
func BuildSQLite(ctx context.Context, src Sources, productsDB, medicareDB string) (*interfaces.DataQualityReport, error) {
	start := time.Now()

	parsed, err := ParseSources(ctx, src)
	if err != nil {
		return nil, err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return catalog.WriteProducts(gctx, productsDB, parsed.Products.Records)
	})
	g.Go(func() error {
		return catalog.WriteCosts(gctx, medicareDB, parsed.Costs.Records)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := parsed.Report()
	logging.Info("SQLite catalogs built",
		"products_db", productsDB,
		"medicare_db", medicareDB,
		"products", report.Products,
		"costs", report.Costs,
		"latest_year", report.LatestYear,
		"duration", time.Since(start))
	return report, nil
}
