package table

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/unidoc/unioffice/spreadsheet"
	"github.com/unidoc/unioffice/spreadsheet/reference"
)

// OpenXLSX reads the first worksheet of a workbook. Merged cells keep their
// value on the top-left cell only, so a date merged across a block of rows
// arrives exactly like the sparse CSV export.
func OpenXLSX(path string) (Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat workbook: %w", err)
	}

	wb, err := spreadsheet.Read(f, info.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to read workbook: %w", err)
	}

	sheets := wb.Sheets()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no worksheets")
	}

	var g grid
	for _, row := range sheets[0].Rows() {
		rowIdx := int(row.RowNumber()) - 1
		g.touch(rowIdx)
		for _, cell := range row.Cells() {
			colName, err := cell.Column()
			if err != nil {
				continue
			}
			g.set(rowIdx, int(reference.ColumnToIndex(colName)), cell.GetFormattedValue())
		}
	}

	return &gridReader{rows: g.rows}, nil
}

// grid collects sparse cells into dense rows. Missing rows and cells are empty.
type grid struct {
	rows [][]string
}

func (g *grid) touch(row int) {
	for len(g.rows) <= row {
		g.rows = append(g.rows, nil)
	}
}

func (g *grid) set(row, col int, value string) {
	if row < 0 || col < 0 {
		return
	}
	g.touch(row)
	for len(g.rows[row]) <= col {
		g.rows[row] = append(g.rows[row], "")
	}
	g.rows[row][col] = value
}

type gridReader struct {
	rows [][]string
	pos  int
}

func (r *gridReader) Read() ([]string, error) {
	if r.pos >= len(r.rows) {
		return nil, io.EOF
	}
	row := r.rows[r.pos]
	r.pos++
	return row, nil
}

func (r *gridReader) Close() error {
	return nil
}
