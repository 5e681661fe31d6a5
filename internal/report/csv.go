package report

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/cvsift/cvsift/internal/screening"
)

// WriteCSV writes the header and one line per row. Fields a row does not
// carry are left empty.
func WriteCSV(w io.Writer, rows []screening.RowResult) error {
	columns := Columns(rows)

	cw := csv.NewWriter(w)
	if err := cw.Write(columns); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	line := make([]string, len(columns))
	for _, row := range rows {
		for i, col := range columns {
			line[i] = cellString(row[col])
		}
		if err := cw.Write(line); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}
