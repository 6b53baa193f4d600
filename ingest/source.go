// Package ingest turns the raw government source files into catalog records:
// the FDA Orange Book products file and the CMS Medicare Part D spending
// by brand and generic name CSV.
package ingest

import (
	"bytes"
	"io"
	"os"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/charmap"

	"github.com/giygas/drugcost-api/logging"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Stats counts what a parser did with the lines of one source.
type Stats struct {
	Lines          int `json:"lines"`
	Parsed         int `json:"parsed"`
	EmptyLines     int `json:"empty_lines"`
	MissingColumns int `json:"missing_columns"`
	FormatErrors   int `json:"format_errors"`
}

// Skipped returns the number of non-empty lines that produced no record.
func (s Stats) Skipped() int {
	return s.MissingColumns + s.FormatErrors
}

func (s Stats) log(source string, records int) {
	if s.EmptyLines > 0 || s.Skipped() > 0 {
		logging.Info(source+" skip statistics",
			"empty_lines", s.EmptyLines,
			"missing_columns", s.MissingColumns,
			"format_errors", s.FormatErrors,
			"total_lines", s.Lines,
			"records_parsed", records)
	}
}

// decodeSource reads r fully and returns a UTF-8 reader over it. The Orange
// Book ships in ISO-8859-1, so input that is not valid UTF-8 is decoded from
// latin-1. A leading byte-order mark is dropped.
func decodeSource(r io.Reader) (io.Reader, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, eris.Wrap(err, "read source")
	}
	body = bytes.TrimPrefix(body, utf8BOM)

	if utf8.Valid(body) {
		return bytes.NewReader(body), nil
	}
	return charmap.ISO8859_1.NewDecoder().Reader(bytes.NewReader(body)), nil
}

func openSource(path string) (*os.File, error) {
	f, err := os.Open(path) // #nosec G304 -- path comes from configuration
	if err != nil {
		return nil, eris.Wrapf(err, "open %s", path)
	}
	return f, nil
}

func closeSource(f *os.File) {
	if err := f.Close(); err != nil {
		logging.Warn("Failed to close source file", "file", f.Name(), "error", err)
	}
}
