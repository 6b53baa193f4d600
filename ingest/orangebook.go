package ingest

import (
	"bufio"
	"context"
	"io"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/giygas/drugcost-api/entities"
	"github.com/giygas/drugcost-api/logging"
)

const orangeBookDelimiter = "~"

// Orange Book column names, as they appear in the header of products.txt.
const (
	colIngredient = "Ingredient"
	colFormRoute  = "DF;Route"
	colTradeName  = "Trade_Name"
	colStrength   = "Strength"
	colApplType   = "Appl_Type"
	colApplNo     = "Appl_No"
	colProductNo  = "Product_No"
	colTECode     = "TE_Code"
	colRLD        = "RLD"
	colRS         = "RS"
	colType       = "Type"
)

var requiredProductColumns = []string{
	colIngredient, colFormRoute, colTradeName, colStrength,
	colApplType, colApplNo, colProductNo, colTECode,
}

// ProductResult is the outcome of parsing one Orange Book products file.
type ProductResult struct {
	Records []entities.ProductRecord
	Stats   Stats
}

// ParseOrangeBookFile parses the products file at path.
func ParseOrangeBookFile(ctx context.Context, path string) (*ProductResult, error) {
	f, err := openSource(path)
	if err != nil {
		return nil, err
	}
	defer closeSource(f)

	res, err := ParseOrangeBook(ctx, f)
	if err != nil {
		return nil, eris.Wrapf(err, "orange book %s", path)
	}
	return res, nil
}

// ParseOrangeBook parses a tilde-delimited Orange Book products file. The
// first line is the header; columns are located by name so that the optional
// trailing columns may be absent.
func ParseOrangeBook(ctx context.Context, r io.Reader) (*ProductResult, error) {
	src, err := decodeSource(r)
	if err != nil {
		return nil, err
	}

	scanner := bufio.NewScanner(src)
	scanner.Buffer(make([]byte, 0, 64*1024), 1*1024*1024)

	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, eris.Wrap(err, "read header")
		}
		return nil, eris.New("empty products file")
	}

	index := headerIndex(strings.Split(scanner.Text(), orangeBookDelimiter))
	if missing := missingColumns(index, requiredProductColumns); len(missing) > 0 {
		return nil, eris.Errorf("missing required columns: %s", strings.Join(missing, ", "))
	}

	// Lines shorter than this cannot hold every required field.
	minFields := 0
	for _, c := range requiredProductColumns {
		minFields = max(minFields, index[strings.ToLower(c)]+1)
	}

	res := &ProductResult{}
	for scanner.Scan() {
		res.Stats.Lines++
		if res.Stats.Lines%10000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			res.Stats.EmptyLines++
			continue
		}

		fields := strings.Split(line, orangeBookDelimiter)
		if len(fields) < minFields {
			res.Stats.MissingColumns++
			continue
		}

		get := func(name string) string {
			i, ok := index[strings.ToLower(name)]
			if !ok || i >= len(fields) {
				return ""
			}
			return strings.TrimSpace(fields[i])
		}

		form, route := splitFormRoute(get(colFormRoute))
		res.Records = append(res.Records, entities.NewProductRecord(entities.ProductRecord{
			ApplType:   entities.ParseApplicationType(get(colApplType)),
			ApplNo:     get(colApplNo),
			ProductNo:  get(colProductNo),
			TradeName:  get(colTradeName),
			Ingredient: get(colIngredient),
			Strength:   get(colStrength),
			DosageForm: form,
			Route:      route,
			TECode:     get(colTECode),
			RLD:        get(colRLD),
			RS:         get(colRS),
			Type:       get(colType),
		}))
	}
	if err := scanner.Err(); err != nil {
		return nil, eris.Wrap(err, "scan products")
	}

	res.Stats.Parsed = len(res.Records)
	res.Stats.log("Orange Book products", len(res.Records))
	logging.Debug("Orange Book conversion completed", "records_count", len(res.Records))
	return res, nil
}

// splitFormRoute splits "TABLET;ORAL" on the first ';'. A value without a
// separator is all dosage form.
func splitFormRoute(v string) (form, route string) {
	form, route, _ = strings.Cut(v, ";")
	return strings.TrimSpace(form), strings.TrimSpace(route)
}

// headerIndex maps lower-cased, trimmed column names to their position.
func headerIndex(header []string) map[string]int {
	index := make(map[string]int, len(header))
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(h))
		if _, dup := index[key]; !dup {
			index[key] = i
		}
	}
	return index
}

func missingColumns(index map[string]int, required []string) []string {
	var missing []string
	for _, c := range required {
		if _, ok := index[strings.ToLower(c)]; !ok {
			missing = append(missing, c)
		}
	}
	return missing
}
