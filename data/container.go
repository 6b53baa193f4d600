// Package data holds the active catalog set. The set is swapped atomically so
// that a refresh never interrupts or mixes catalogs within a running query.
package data

import (
	"sync/atomic"
	"time"

	"github.com/giygas/drugcost-api/interfaces"
	"github.com/giygas/drugcost-api/logging"
)

// Compile-time check to ensure DataContainer implements CatalogStore
var _ interfaces.CatalogStore = (*DataContainer)(nil)

// DataContainer holds the catalog set with atomic pointers for zero-downtime updates
type DataContainer struct {
	current         atomic.Pointer[interfaces.CatalogSet]
	lastUpdated     atomic.Value // time.Time
	updating        atomic.Bool
	updateStarted   atomic.Value // time.Time
	serverStartTime atomic.Value // time.Time
}

// NewDataContainer creates a new DataContainer with no catalogs loaded
func NewDataContainer() *DataContainer {
	dc := &DataContainer{}
	dc.lastUpdated.Store(time.Time{})
	dc.updateStarted.Store(time.Time{})
	dc.serverStartTime.Store(time.Time{})
	return dc
}

// Current returns the active catalog set, or nil before the first load.
// Callers should take the set once per query and use it throughout.
func (dc *DataContainer) Current() *interfaces.CatalogSet {
	return dc.current.Load()
}

// Swap installs set as the active catalog set and returns the previous one,
// which the caller is responsible for closing.
func (dc *DataContainer) Swap(set *interfaces.CatalogSet) *interfaces.CatalogSet {
	old := dc.current.Swap(set)
	dc.lastUpdated.Store(time.Now())
	return old
}

// GetLastUpdated returns the timestamp of the last swap
func (dc *DataContainer) GetLastUpdated() time.Time {
	if v := dc.lastUpdated.Load(); v != nil {
		if lastUpdated, ok := v.(time.Time); ok {
			return lastUpdated
		}
	}

	logging.Warn("Could not get the last updated value")
	return time.Time{}
}

// IsUpdating returns true if a catalog refresh is currently in progress
func (dc *DataContainer) IsUpdating() bool {
	return dc.updating.Load()
}

// SetServerStartTime sets the server start time
func (dc *DataContainer) SetServerStartTime(startTime time.Time) {
	dc.serverStartTime.Store(startTime)
}

// GetServerStartTime returns the server start time
func (dc *DataContainer) GetServerStartTime() time.Time {
	if v := dc.serverStartTime.Load(); v != nil {
		if startTime, ok := v.(time.Time); ok {
			return startTime
		}
	}

	logging.Warn("Could not get the server start time value")
	return time.Time{}
}

// BeginUpdate marks the start of a refresh.
// Returns true if the refresh can proceed, false if another one is in progress
func (dc *DataContainer) BeginUpdate() bool {
	if !dc.updating.CompareAndSwap(false, true) {
		return false
	}
	dc.updateStarted.Store(time.Now())
	return true
}

// GetUpdateStarted returns when the running refresh began, or the zero time
// when no refresh is running
func (dc *DataContainer) GetUpdateStarted() time.Time {
	if !dc.updating.Load() {
		return time.Time{}
	}
	if v := dc.updateStarted.Load(); v != nil {
		if started, ok := v.(time.Time); ok {
			return started
		}
	}
	return time.Time{}
}

// EndUpdate marks the end of a refresh
func (dc *DataContainer) EndUpdate() {
	dc.updating.Store(false)
}
