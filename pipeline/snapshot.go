package pipeline

import (
	"errors"

	"github.com/giygas/drugcost-api/interfaces"
)

var errNotLoaded = errors.New("no catalog snapshot")

// Fixed serves one catalog set forever, for the CLI and tests.
type Fixed struct {
	Set *interfaces.CatalogSet
}

// Current returns the fixed set.
func (f Fixed) Current() *interfaces.CatalogSet {
	return f.Set
}
