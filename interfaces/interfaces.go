// Package interfaces defines the contracts between the catalog storage,
// loading, scheduling and lookup layers of the drug cost API.
package interfaces

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/giygas/drugcost-api/entities"
)

// IdentityCatalog is read access to the Orange Book product table. All name
// and key arguments must already be normalized. Rows come back in catalog
// order so that callers can rely on a stable tie-break.
type IdentityCatalog interface {
	ProductsByTradeName(ctx context.Context, tradeNameN string, limit int) ([]entities.ProductRecord, error)
	ProductsByTradeNamePrefix(ctx context.Context, prefixN string, limit int) ([]entities.ProductRecord, error)
	ProductsByIdentity(ctx context.Context, key entities.IdentityKey, limit int) ([]entities.ProductRecord, error)
	ProductCount(ctx context.Context) (int, error)
}

// CostCatalog is read access to the Part D spending table.
type CostCatalog interface {
	// LatestYear returns the maximum year present; ok is false when the
	// catalog holds no rows.
	LatestYear(ctx context.Context) (year int, ok bool, err error)
	// CostsByName returns rows of the given year whose normalized brand or
	// generic name equals nameN, cheapest first.
	CostsByName(ctx context.Context, nameN string, year, limit int) ([]entities.CostRecord, error)
	// Years lists the distinct years present, oldest first.
	Years(ctx context.Context) ([]int, error)
	CostCount(ctx context.Context) (int, error)
}

// DataQualityReport summarizes what a catalog load found in the sources.
// Sample lists hold at most ten entries.
type DataQualityReport struct {
	Products              int      `json:"products"`
	ProductsWithoutTECode int      `json:"products_without_te_code"`
	DuplicateProductKeys  int      `json:"duplicate_product_keys"`
	DuplicateKeySamples   []string `json:"duplicate_key_samples,omitempty"`
	SkippedProductLines   int      `json:"skipped_product_lines"`
	Costs                 int      `json:"costs"`
	CostRowsWithoutName   int      `json:"cost_rows_without_name"`
	SkippedCostRows       int      `json:"skipped_cost_rows"`
	Years                 []int    `json:"years"`
	LatestYear            int      `json:"latest_year"`
}

// CatalogSet is one consistent pair of catalogs. Every query runs against a
// single set.
type CatalogSet struct {
	Identity IdentityCatalog
	Cost     CostCatalog
	Backend  string
	Report   *DataQualityReport
	Closer   io.Closer
}

// Close releases the resources behind the set, if any.
func (s *CatalogSet) Close() error {
	if s == nil || s.Closer == nil {
		return nil
	}
	return s.Closer.Close()
}

// CatalogStore holds the active catalog set with atomic replacement.
type CatalogStore interface {
	Current() *CatalogSet
	Swap(set *CatalogSet) *CatalogSet
	GetLastUpdated() time.Time
	GetServerStartTime() time.Time
	IsUpdating() bool
	GetUpdateStarted() time.Time
	BeginUpdate() bool
	EndUpdate()
}

// Loader produces a fresh catalog set, from prebuilt databases or raw
// source files.
type Loader interface {
	Load(ctx context.Context) (*CatalogSet, error)
}

// Scheduler manages automated catalog refreshes.
type Scheduler interface {
	Start() error
	Stop()
}

// HTTPHandler defines the contract for HTTP request handlers.
// It provides a consistent interface for all API endpoints.
type HTTPHandler interface {
	// ServeHTTP implements the http.Handler interface
	ServeHTTP(w http.ResponseWriter, r *http.Request)

	// Tool endpoints
	LatestYear(w http.ResponseWriter, r *http.Request)
	MatchIdentity(w http.ResponseWriter, r *http.Request)
	FindEquivalents(w http.ResponseWriter, r *http.Request)
	LookupCosts(w http.ResponseWriter, r *http.Request)
	GenericCandidates(w http.ResponseWriter, r *http.Request)
	Compare(w http.ResponseWriter, r *http.Request)

	HealthCheck(w http.ResponseWriter, r *http.Request)
}

// HealthChecker reports the health of the loaded catalogs.
type HealthChecker interface {
	HealthCheck(ctx context.Context) (status string, details map[string]any, httpStatus int)
}

// InputValidator validates user-supplied query terms.
type InputValidator interface {
	ValidateTerm(field, value string) error
	ValidateYear(value string) (int, error)
	ValidateLimit(value string, def, max int) (int, error)
}

// DataValidator validates query terms and the catalogs produced by a load.
type DataValidator interface {
	InputValidator
	ReportDataQuality(products []entities.ProductRecord, costs []entities.CostRecord) *DataQualityReport
	SummarizeCatalogs(ctx context.Context, set *CatalogSet) (*DataQualityReport, error)
	ValidateCatalogs(report *DataQualityReport) error
}
