// Package table opens schedule exports as a stream of text rows.
package table

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Reader yields rows of text fields until io.EOF.
type Reader interface {
	Read() ([]string, error)
	Close() error
}

// Open opens path as a workbook when it has an .xlsx extension and as
// comma-separated text otherwise.
func Open(path string) (Reader, error) {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return OpenXLSX(path)
	}
	return OpenCSV(path)
}

type csvFile struct {
	*csv.Reader
	f *os.File
}

func (c *csvFile) Close() error {
	return c.f.Close()
}

// OpenCSV opens a comma-separated export.
func OpenCSV(path string) (Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open csv: %w", err)
	}
	return &csvFile{Reader: NewCSVReader(f), f: f}, nil
}

// NewCSVReader reads UTF-8 CSV from r. A leading byte order mark is
// dropped and rows may have differing field counts.
func NewCSVReader(r io.Reader) *csv.Reader {
	decoded := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))

	cr := csv.NewReader(decoded)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	return cr
}
