// Package export writes extracted rows as an XLSX workbook or as JSON.
package export

import (
	"bytes"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/n42-extract/internal/entity"
)

// SheetName is the worksheet every workbook is written to.
const SheetName = "Sheet1"

// WriteXLSX writes rows to w as a single-sheet workbook: a header row followed by one
// row per document. Each column is as wide as its longest cell plus two, capped at
// excelize.MaxColumnWidth.
func WriteXLSX(w io.Writer, rows []entity.Row) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	widths := make([]int, len(entity.RowHeaders))
	for i, h := range entity.RowHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(SheetName, cell, h); err != nil {
			return fmt.Errorf("xlsx header: %w", err)
		}
		widths[i] = utf8.RuneCountInString(h)
	}

	for r, row := range rows {
		for c, v := range row.Cells() {
			if v == nil {
				continue
			}
			s := v.(string)
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if err := f.SetCellStr(SheetName, cell, s); err != nil {
				return fmt.Errorf("xlsx cell %s: %w", cell, err)
			}
			if n := utf8.RuneCountInString(s); n > widths[c] {
				widths[c] = n
			}
		}
	}

	for i, n := range widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(SheetName, col, col, float64(min(n+2, excelize.MaxColumnWidth))); err != nil {
			return fmt.Errorf("xlsx width %s: %w", col, err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("xlsx write: %w", err)
	}
	return nil
}

// XLSXBytes returns the workbook WriteXLSX would produce.
func XLSXBytes(rows []entity.Row) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteXLSX(&buf, rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
