package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/cvsift/cvsift/internal/screening"
)

// sheetName is the single worksheet holding the screening results.
const sheetName = "Screening"

// WriteXLSX writes a one-sheet workbook with the same layout as the CSV
// output.
func WriteXLSX(w io.Writer, rows []screening.RowResult) error {
	columns := Columns(rows)

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return fmt.Errorf("name sheet: %w", err)
	}

	for i, col := range columns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return fmt.Errorf("header cell: %w", err)
		}
		if err := f.SetCellValue(sheetName, cell, col); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}

	for r, row := range rows {
		for c, col := range columns {
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return fmt.Errorf("row cell: %w", err)
			}
			if err := f.SetCellValue(sheetName, cell, cellValue(row[col])); err != nil {
				return fmt.Errorf("write row: %w", err)
			}
		}
	}

	if err := sizeColumns(f, columns); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// sizeColumns widens the columns a reviewer reads first; the generic input
// columns keep the default width.
func sizeColumns(f *excelize.File, columns []string) error {
	widths := map[string]float64{
		screening.EmailField:            28,
		screening.ExtractionStatusField: 16,
		screening.RatingField:           10,
		screening.SummaryField:          80,
	}

	for i, col := range columns {
		width, ok := widths[col]
		if !ok {
			continue
		}
		name, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return fmt.Errorf("column name: %w", err)
		}
		if err := f.SetColWidth(sheetName, name, name, width); err != nil {
			return fmt.Errorf("set column width: %w", err)
		}
	}
	return nil
}
