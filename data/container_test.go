package data

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/giygas/drugcost-api/catalog"
	"github.com/giygas/drugcost-api/entities"
	"github.com/giygas/drugcost-api/interfaces"
)

func newSet(products int, year int) *interfaces.CatalogSet {
	var ps []entities.ProductRecord
	for i := 0; i < products; i++ {
		ps = append(ps, entities.NewProductRecord(entities.ProductRecord{TradeName: "LIPITOR", ApplType: "N"}))
	}
	c := catalog.NewMemoryCatalog(ps, []entities.CostRecord{
		entities.NewCostRecord(entities.CostRecord{GenericName: "Atorvastatin Calcium", Year: year, AvgSpendPerDose: 0.45}),
	})
	return &interfaces.CatalogSet{Identity: c, Cost: c, Backend: catalog.BackendMemory, Closer: c}
}

func TestNewDataContainer(t *testing.T) {
	container := NewDataContainer()

	if container.Current() != nil {
		t.Error("Expected no catalog set before the first swap")
	}
	if !container.GetLastUpdated().IsZero() {
		t.Error("Expected zero last updated time")
	}
	if !container.GetServerStartTime().IsZero() {
		t.Error("Expected zero server start time")
	}
	if container.IsUpdating() {
		t.Error("Container should not be updating initially")
	}
}

func TestSwap(t *testing.T) {
	container := NewDataContainer()

	first := newSet(1, 2022)
	before := time.Now()
	if old := container.Swap(first); old != nil {
		t.Error("First swap should return nil")
	}
	if container.Current() != first {
		t.Error("Current should return the swapped set")
	}
	if container.GetLastUpdated().Before(before) {
		t.Error("Last updated should be set by Swap")
	}

	second := newSet(2, 2023)
	if old := container.Swap(second); old != first {
		t.Error("Swap should return the previous set")
	}

	n, err := container.Current().Identity.ProductCount(context.Background())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if n != 2 {
		t.Errorf("Expected 2 products after swap, got %d", n)
	}
}

func TestServerStartTime(t *testing.T) {
	container := NewDataContainer()

	now := time.Now()
	container.SetServerStartTime(now)
	if !container.GetServerStartTime().Equal(now) {
		t.Errorf("Expected start time %v, got %v", now, container.GetServerStartTime())
	}
}

func TestBeginUpdateEndUpdate(t *testing.T) {
	container := NewDataContainer()

	if !container.GetUpdateStarted().IsZero() {
		t.Error("Update start should be zero when idle")
	}
	before := time.Now()
	if !container.BeginUpdate() {
		t.Error("BeginUpdate should return true when not updating")
	}
	if container.GetUpdateStarted().Before(before) {
		t.Error("BeginUpdate should record the start time")
	}
	if !container.IsUpdating() {
		t.Error("IsUpdating should return true after BeginUpdate")
	}
	if container.BeginUpdate() {
		t.Error("Second BeginUpdate should return false when already updating")
	}

	container.EndUpdate()
	if container.IsUpdating() {
		t.Error("IsUpdating should return false after EndUpdate")
	}
	if !container.GetUpdateStarted().IsZero() {
		t.Error("Update start should be cleared by EndUpdate")
	}
	if !container.BeginUpdate() {
		t.Error("BeginUpdate should return true after EndUpdate")
	}
	container.EndUpdate()
}

func TestConcurrentBeginUpdate(t *testing.T) {
	container := NewDataContainer()

	var wg sync.WaitGroup
	var mu sync.Mutex
	winners := 0

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if container.BeginUpdate() {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if winners != 1 {
		t.Errorf("Expected exactly one update to begin, got %d", winners)
	}
}

// Readers holding a set keep a consistent view while a swap happens.
func TestAtomicSwapZeroDowntime(t *testing.T) {
	container := NewDataContainer()
	container.Swap(newSet(1, 2022))

	ctx := context.Background()
	var wg sync.WaitGroup
	stop := make(chan struct{})
	errs := make(chan string, 100)

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				set := container.Current()
				if set == nil {
					errs <- "nil set during swap"
					return
				}
				n, _ := set.Identity.ProductCount(ctx)
				year, _, _ := set.Cost.LatestYear(ctx)
				// Each generation pairs n products with year 2021+n.
				if year != 2021+n {
					errs <- "mixed catalogs observed"
					return
				}
			}
		}()
	}

	for i := 0; i < 100; i++ {
		n := 1 + i%2
		container.Swap(newSet(n, 2021+n))
	}
	close(stop)
	wg.Wait()
	close(errs)

	for e := range errs {
		t.Error(e)
	}
}
