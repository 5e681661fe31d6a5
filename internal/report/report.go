// Package report renders finished screening jobs as CSV or XLSX files.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cvsift/cvsift/internal/screening"
)

// resultColumns are appended after the input columns, in this order.
var resultColumns = []string{
	screening.ExtractionStatusField,
	screening.RatingField,
	screening.SummaryField,
}

// Columns returns the header for a row set: email first, the union of the
// remaining input fields in sorted order, then the screening result fields.
// The order is deterministic for any given row set.
func Columns(rows []screening.RowResult) []string {
	reserved := map[string]bool{screening.EmailField: true}
	for _, col := range resultColumns {
		reserved[col] = true
	}

	var extra []string
	for _, row := range rows {
		for field := range row {
			if reserved[field] {
				continue
			}
			reserved[field] = true
			extra = append(extra, field)
		}
	}
	sort.Strings(extra)

	columns := make([]string, 0, len(extra)+4)
	columns = append(columns, screening.EmailField)
	columns = append(columns, extra...)
	return append(columns, resultColumns...)
}

// WriteFile writes rows to path, picking the format from the extension:
// ".xlsx" produces a workbook, anything else CSV.
func WriteFile(path string, rows []screening.RowResult) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report file: %w", err)
	}

	var werr error
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		werr = WriteXLSX(file, rows)
	} else {
		werr = WriteCSV(file, rows)
	}

	cerr := file.Close()
	if werr != nil {
		return werr
	}
	return cerr
}

// cellString renders one field for CSV output.
func cellString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		return fmt.Sprintf("%v", t)
	}
}

// cellValue keeps native scalar types for XLSX cells so numbers stay
// numbers in the workbook.
func cellValue(v any) any {
	switch v.(type) {
	case nil:
		return ""
	case string, bool, int, int32, int64, float32, float64:
		return v
	default:
		return fmt.Sprintf("%v", v)
	}
}
