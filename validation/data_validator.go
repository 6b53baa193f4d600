// Package validation provides query-term validation and catalog data-quality
// checks for the drug cost API.
package validation

import (
	"context"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/giygas/drugcost-api/entities"
	"github.com/giygas/drugcost-api/interfaces"
	"github.com/giygas/drugcost-api/logging"
)

const (
	maxTermLength  = 200
	maxTermWords   = 20
	maxFieldLength = 2000
	minYear        = 1990
	maxYear        = 2100
	sampleSize     = 10
)

// Pre-compiled regex patterns, compiled once at package initialization
var (
	// Fields typed by people. Ingredient, strength, dosage form and route are
	// usually copied from a catalog row, and combination products carry
	// ingredient and strength lists of a dozen components or more.
	freeTextFields = map[string]bool{"name": true, "query": true}

	// Letters, digits, spaces and the punctuation found in drug names and strengths
	termRegex = regexp.MustCompile(`^[\p{L}0-9\s\-\.,\+/%\(\)';]+$`)

	// Dangerous patterns as strings (faster than regex for simple substring matching)
	dangerousPatterns = []string{
		"<script", "</script>", "javascript:", "vbscript:", "onload=", "onerror=",
		"eval(", "expression(", "url(", "@import",
		// SQL injection patterns
		"' or ", "\" or ", "union select", "drop table", "delete from", "insert into",
		"update set", "--", "exec(", "execute(",
		// Path traversal patterns
		"../", "..\\", "%2e%2e", "file://",
	}
)

// Compile-time check to ensure DataValidatorImpl implements DataValidator
var _ interfaces.DataValidator = (*DataValidatorImpl)(nil)

// DataValidatorImpl implements the interfaces.DataValidator interface
type DataValidatorImpl struct{}

// NewDataValidator creates a new data validator
func NewDataValidator() interfaces.DataValidator {
	return &DataValidatorImpl{}
}

// ValidateTerm checks a drug name, ingredient, strength, dosage form or route
// supplied by a caller. field names the parameter in error messages.
func (v *DataValidatorImpl) ValidateTerm(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s cannot be empty", field)
	}

	if freeTextFields[field] {
		if len(value) > maxTermLength {
			return fmt.Errorf("%s too long: maximum %d characters", field, maxTermLength)
		}
		if len(strings.Fields(value)) > maxTermWords {
			return fmt.Errorf("%s too complex: maximum %d words allowed", field, maxTermWords)
		}
	} else if len(value) > maxFieldLength {
		return fmt.Errorf("%s too long: maximum %d characters", field, maxFieldLength)
	}

	lower := strings.ToLower(value)
	for _, pattern := range dangerousPatterns {
		if strings.Contains(lower, pattern) {
			return fmt.Errorf("%s contains potentially dangerous content", field)
		}
	}

	if !termRegex.MatchString(value) {
		return fmt.Errorf("%s contains invalid characters. Only letters, numbers, spaces and - . , + / %% ( ) ' ; are allowed", field)
	}

	if hasExcessiveRepetition(value) {
		return fmt.Errorf("%s contains excessive character repetition", field)
	}

	return nil
}

// ValidateYear parses a program year. Only four-digit years in a plausible
// range are accepted.
func (v *DataValidatorImpl) ValidateYear(value string) (int, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return 0, fmt.Errorf("year cannot be empty")
	}
	if len(trimmed) != 4 || len(trimmed) != len(value) {
		return 0, fmt.Errorf("year should have 4 digits")
	}

	year, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0, fmt.Errorf("year contains invalid characters. Only numeric characters are allowed")
	}
	if year < minYear || year > maxYear {
		return 0, fmt.Errorf("year out of range: %d", year)
	}
	return year, nil
}

// ValidateLimit parses a result limit. An empty value yields def.
func (v *DataValidatorImpl) ValidateLimit(value string, def, max int) (int, error) {
	if value == "" {
		return def, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("limit must be a number")
	}
	if n < 1 || n > max {
		return 0, fmt.Errorf("limit must be between 1 and %d", max)
	}
	return n, nil
}

// ReportDataQuality summarizes parsed source records.
func (v *DataValidatorImpl) ReportDataQuality(
	products []entities.ProductRecord,
	costs []entities.CostRecord,
) *interfaces.DataQualityReport {
	report := &interfaces.DataQualityReport{
		Products:            len(products),
		Costs:               len(costs),
		DuplicateKeySamples: []string{},
		Years:               []int{},
	}

	// Check 1: products without a TE code
	for i := range products {
		if strings.TrimSpace(products[i].TECode) == "" {
			report.ProductsWithoutTECode++
		}
	}

	// Check 2: duplicate (appl_type, appl_no, product_no) keys
	keys := make(map[string]int, len(products))
	for i := range products {
		p := &products[i]
		key := string(p.ApplType) + "/" + p.ApplNo + "/" + p.ProductNo
		keys[key]++
		if keys[key] == 2 {
			report.DuplicateProductKeys++
			if len(report.DuplicateKeySamples) < sampleSize {
				report.DuplicateKeySamples = append(report.DuplicateKeySamples, key)
			}
		}
	}

	// Check 3: cost rows that no name lookup can ever reach
	years := make(map[int]bool)
	for i := range costs {
		c := &costs[i]
		if c.BrandNameN == "" && c.GenericNameN == "" {
			report.CostRowsWithoutName++
		}
		years[c.Year] = true
	}
	for y := range years {
		report.Years = append(report.Years, y)
	}
	slices.Sort(report.Years)
	if len(report.Years) > 0 {
		report.LatestYear = report.Years[len(report.Years)-1]
	}

	if report.DuplicateProductKeys > 0 {
		logging.Warn("Duplicate product keys detected",
			"count", report.DuplicateProductKeys,
			"samples", report.DuplicateKeySamples,
		)
	}
	if report.CostRowsWithoutName > 0 {
		logging.Warn("Cost rows without brand or generic name", "count", report.CostRowsWithoutName)
	}

	return report
}

// SummarizeCatalogs builds a report from an opened catalog set. Only counts
// and years are available this way.
func (v *DataValidatorImpl) SummarizeCatalogs(ctx context.Context, set *interfaces.CatalogSet) (*interfaces.DataQualityReport, error) {
	if set == nil || set.Identity == nil || set.Cost == nil {
		return nil, fmt.Errorf("catalog set is incomplete")
	}

	products, err := set.Identity.ProductCount(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}
	costs, err := set.Cost.CostCount(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count costs: %w", err)
	}
	years, err := set.Cost.Years(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list years: %w", err)
	}

	report := &interfaces.DataQualityReport{
		Products:            products,
		Costs:               costs,
		DuplicateKeySamples: []string{},
		Years:               years,
	}
	if report.Years == nil {
		report.Years = []int{}
	}
	if len(years) > 0 {
		report.LatestYear = years[len(years)-1]
	}
	return report, nil
}

// ValidateCatalogs rejects a load that cannot answer any query.
func (v *DataValidatorImpl) ValidateCatalogs(report *interfaces.DataQualityReport) error {
	if report == nil {
		return fmt.Errorf("no data quality report")
	}
	if report.Products == 0 {
		return fmt.Errorf("no products found")
	}
	if report.Costs == 0 {
		return fmt.Errorf("no cost rows found")
	}
	return nil
}

// hasExcessiveRepetition checks for the same character repeated more than 10 times consecutively
func hasExcessiveRepetition(input string) bool {
	run := 1
	for i := 1; i < len(input); i++ {
		if input[i] == input[i-1] {
			run++
			if run > 10 {
				return true
			}
		} else {
			run = 1
		}
	}
	return false
}
