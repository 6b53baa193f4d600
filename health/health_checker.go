// Package health provides health checking functionality for the drug cost API.
package health

import (
	"context"
	"math"
	"net/http"
	"time"

	"github.com/giygas/drugcost-api/interfaces"
	"github.com/giygas/drugcost-api/logging"
)

const (
	staleAfter      = 48 * time.Hour
	slowUpdateAfter = 1 * time.Hour
	statusHealthy   = "healthy"
	statusDegraded  = "degraded"
	statusUnhealthy = "unhealthy"
)

// Compile-time check to ensure HealthCheckerImpl implements HealthChecker
var _ interfaces.HealthChecker = (*HealthCheckerImpl)(nil)

// HealthCheckerImpl implements the interfaces.HealthChecker interface
type HealthCheckerImpl struct {
	store interfaces.CatalogStore
	// refreshEnabled makes data age count; without scheduled refreshes the
	// catalogs are expected to stay as loaded.
	refreshEnabled bool
}

// NewHealthChecker creates a new health checker with injected dependencies
func NewHealthChecker(store interfaces.CatalogStore, refreshEnabled bool) interfaces.HealthChecker {
	return &HealthCheckerImpl{
		store:          store,
		refreshEnabled: refreshEnabled,
	}
}

// HealthCheck evaluates the active catalog set. It is unhealthy without a
// set or with an empty catalog, degraded when refreshes are enabled and the
// data is stale or a refresh is taking too long.
func (h *HealthCheckerImpl) HealthCheck(ctx context.Context) (status string, data map[string]any, httpStatus int) {
	lastUpdate := h.store.GetLastUpdated()
	isUpdating := h.store.IsUpdating()
	dataAge := time.Since(lastUpdate)

	data = map[string]any{
		"last_update":    lastUpdate.Format(time.RFC3339),
		"data_age_hours": math.Round(dataAge.Hours()*10) / 10,
		"is_updating":    isUpdating,
	}

	set := h.store.Current()
	if set == nil || set.Identity == nil || set.Cost == nil {
		data["error"] = "catalogs are not loaded"
		return statusUnhealthy, data, http.StatusServiceUnavailable
	}
	data["backend"] = set.Backend

	products, err := set.Identity.ProductCount(ctx)
	if err != nil {
		logging.Error("Health check could not count products", "error", err)
		data["error"] = "product catalog unavailable"
		return statusUnhealthy, data, http.StatusServiceUnavailable
	}
	costs, err := set.Cost.CostCount(ctx)
	if err != nil {
		logging.Error("Health check could not count cost rows", "error", err)
		data["error"] = "cost catalog unavailable"
		return statusUnhealthy, data, http.StatusServiceUnavailable
	}
	data["products"] = products
	data["costs"] = costs

	if year, ok, err := set.Cost.LatestYear(ctx); err == nil && ok {
		data["latest_year"] = year
	}
	if set.Report != nil {
		data["data_quality"] = set.Report
	}

	started := h.store.GetUpdateStarted()
	switch {
	case products == 0 || costs == 0:
		status = statusUnhealthy
		httpStatus = http.StatusServiceUnavailable

	case h.refreshEnabled && dataAge > staleAfter:
		status = statusDegraded
		httpStatus = http.StatusOK

	case isUpdating && !started.IsZero() && time.Since(started) > slowUpdateAfter:
		status = statusDegraded
		httpStatus = http.StatusOK

	default:
		status = statusHealthy
		httpStatus = http.StatusOK
	}

	return status, data, httpStatus
}
