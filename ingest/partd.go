package ingest

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"

	"github.com/giygas/drugcost-api/entities"
	"github.com/giygas/drugcost-api/logging"
)

var (
	spendColumn   = regexp.MustCompile(`(?i)^Avg_Spnd_Per_Dsg_Unt_Wghtd_(\d{4})$`)
	outlierColumn = regexp.MustCompile(`(?i)^Outlier_Flag_(\d{4})$`)
)

var requiredCostColumns = []string{"Brnd_Name", "Gnrc_Name", "Tot_Mftr", "Mftr_Name"}

// partDRow holds the year-independent columns of one spending row. Numbers
// are kept as text and parsed leniently.
type partDRow struct {
	BrandName    string `csv:"Brnd_Name"`
	GenericName  string `csv:"Gnrc_Name"`
	TotMftr      string `csv:"Tot_Mftr"`
	Manufacturer string `csv:"Mftr_Name"`
}

type yearColumns struct {
	year    int
	spend   int
	outlier int // -1 when the file has no flag for the year
}

// CostResult is the outcome of parsing one Part D spending file.
type CostResult struct {
	Records []entities.CostRecord
	Years   []int
	Stats   Stats
}

// ParsePartDFile parses the spending CSV at path.
func ParsePartDFile(ctx context.Context, path string) (*CostResult, error) {
	f, err := openSource(path)
	if err != nil {
		return nil, err
	}
	defer closeSource(f)

	res, err := ParsePartD(ctx, f)
	if err != nil {
		return nil, eris.Wrapf(err, "part d %s", path)
	}
	return res, nil
}

// ParsePartD parses the wide CMS spending CSV. Every row is melted into one
// record per year whose average spend per dosage unit is numeric; rows
// without a value for a year produce nothing for that year.
func ParsePartD(ctx context.Context, r io.Reader) (*CostResult, error) {
	src, err := decodeSource(r)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(src)
	reader.FieldsPerRecord = -1

	dec, err := csvutil.NewDecoder(reader)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, eris.New("empty spending file")
		}
		return nil, eris.Wrap(err, "read header")
	}

	header := dec.Header()
	index := headerIndex(header)
	if missing := missingColumns(index, requiredCostColumns); len(missing) > 0 {
		return nil, eris.Errorf("missing required columns: %s", strings.Join(missing, ", "))
	}

	years := discoverYears(header)
	if len(years) == 0 {
		return nil, eris.New("no Avg_Spnd_Per_Dsg_Unt_Wghtd_YYYY columns in header")
	}

	res := &CostResult{}
	for _, y := range years {
		res.Years = append(res.Years, y.year)
	}

	for {
		var row partDRow
		err := dec.Decode(&row)
		if errors.Is(err, io.EOF) {
			break
		}
		res.Stats.Lines++
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) && !errors.Is(err, csv.ErrFieldCount) {
				return nil, eris.Wrapf(err, "line %d", res.Stats.Lines+1)
			}
			res.Stats.MissingColumns++
			continue
		}
		if res.Stats.Lines%10000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		record := dec.Record()
		if isBlank(record) {
			res.Stats.EmptyLines++
			continue
		}
		if len(record) != len(header) {
			res.Stats.MissingColumns++
			continue
		}

		before := len(res.Records)
		totMftr := parseCount(row.TotMftr)
		for _, y := range years {
			spend, ok := parseSpend(record[y.spend])
			if !ok {
				continue
			}
			outlier := false
			if y.outlier >= 0 {
				outlier = parseCount(record[y.outlier]) != 0
			}
			res.Records = append(res.Records, entities.NewCostRecord(entities.CostRecord{
				BrandName:       strings.TrimSpace(row.BrandName),
				GenericName:     strings.TrimSpace(row.GenericName),
				Manufacturer:    strings.TrimSpace(row.Manufacturer),
				TotManufacturer: totMftr,
				Year:            y.year,
				AvgSpendPerDose: spend,
				OutlierFlag:     outlier,
			}))
		}
		if len(res.Records) == before {
			res.Stats.FormatErrors++
		}
	}

	res.Stats.Parsed = len(res.Records)
	res.Stats.log("Part D spending", len(res.Records))
	logging.Debug("Part D conversion completed", "records_count", len(res.Records), "years", res.Years)
	return res, nil
}

// discoverYears finds the per-year spend and outlier columns, oldest year first.
func discoverYears(header []string) []yearColumns {
	outliers := make(map[int]int)
	for i, h := range header {
		if m := outlierColumn.FindStringSubmatch(strings.TrimSpace(h)); m != nil {
			y, _ := strconv.Atoi(m[1])
			outliers[y] = i
		}
	}

	var years []yearColumns
	for i, h := range header {
		m := spendColumn.FindStringSubmatch(strings.TrimSpace(h))
		if m == nil {
			continue
		}
		y, _ := strconv.Atoi(m[1])
		col := yearColumns{year: y, spend: i, outlier: -1}
		if o, ok := outliers[y]; ok {
			col.outlier = o
		}
		years = append(years, col)
	}
	slices.SortFunc(years, func(a, b yearColumns) int { return a.year - b.year })
	return years
}

// parseSpend returns the spend value; empty and non-numeric values are absent.
func parseSpend(v string) (float64, bool) {
	v = strings.ReplaceAll(strings.TrimSpace(v), ",", "")
	if v == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// parseCount parses an integer column, tolerating thousands separators and a
// trailing ".0". Anything else reads as 0.
func parseCount(v string) int {
	v = strings.ReplaceAll(strings.TrimSpace(v), ",", "")
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return int(f)
	}
	return 0
}

func isBlank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
