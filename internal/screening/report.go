package screening

import "fmt"

// RowResult is a Record's fields merged with the screening outcome: the
// resolved email, extractionStatus, rating, and summary.
type RowResult map[string]any

// Report is the final outcome of one job: every row in input order plus
// the aggregate counters.
type Report struct {
	Rows                  []RowResult
	SuccessfulExtractions int
	SuccessfulScorings    int
}

// Message returns the closing human-readable line citing both counters.
func (r *Report) Message() string {
	return fmt.Sprintf("Processed %d resumes (successful extractions: %d, successful scorings: %d)",
		len(r.Rows), r.SuccessfulExtractions, r.SuccessfulScorings)
}
