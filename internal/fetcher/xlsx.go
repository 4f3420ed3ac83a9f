package fetcher

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// XLSXOptions selects the sheet to read. SheetName wins over SheetIndex.
type XLSXOptions struct {
	SheetIndex int
	SheetName  string
}

// ReadXLSX returns the selected sheet as trimmed cell text, one slice per
// row. Rows whose cells are all blank are dropped, as are trailing blank
// cells.
func ReadXLSX(data []byte, opts XLSXOptions) ([][]string, error) {
	wb, err := xlsx.OpenBinary(data)
	if err != nil {
		return nil, eris.Wrap(err, "xlsx: open file")
	}

	sheet, err := selectSheet(wb, opts)
	if err != nil {
		return nil, err
	}

	var rows [][]string
	for _, r := range sheet.Rows {
		if r == nil {
			continue
		}
		if cells := rowText(r); len(cells) > 0 {
			rows = append(rows, cells)
		}
	}
	return rows, nil
}

func selectSheet(wb *xlsx.File, opts XLSXOptions) (*xlsx.Sheet, error) {
	if opts.SheetName != "" {
		if sheet, ok := wb.Sheet[opts.SheetName]; ok {
			return sheet, nil
		}
		return nil, eris.Errorf("xlsx: sheet %q not found", opts.SheetName)
	}
	if opts.SheetIndex < 0 || opts.SheetIndex >= len(wb.Sheets) {
		return nil, eris.Errorf("xlsx: sheet index %d out of range (file has %d sheets)", opts.SheetIndex, len(wb.Sheets))
	}
	return wb.Sheets[opts.SheetIndex], nil
}

func rowText(r *xlsx.Row) []string {
	cells := make([]string, len(r.Cells))
	last := -1
	for i, c := range r.Cells {
		cells[i] = strings.TrimSpace(c.String())
		if cells[i] != "" {
			last = i
		}
	}
	return cells[:last+1]
}
