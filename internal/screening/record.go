package screening

import (
	"fmt"
	"strings"
)

// Record is one row of a submitted batch, holding arbitrary fields as
// received. Records are read-only for the duration of a job.
type Record map[string]any

// Field names recognized or produced by the pipeline.
const (
	EmailField            = "email"
	ExtractionStatusField = "extractionStatus"
	RatingField           = "rating"
	SummaryField          = "summary"
)

// ExtractionStatusField values. The status stays two-valued: the finer
// failure reason (missing link, fetch, parse) goes to logs only.
const (
	ExtractionSuccess = "Success"
	ExtractionFailed  = "Failed"
)

// linkFields are the accepted aliases for the document link column, in
// lookup order.
var linkFields = []string{"resumeLink", "resume_link", "pdfLink", "pdf_link", "link", "url"}

// Identity returns the row's display identity: the email field when it
// holds a non-blank string, otherwise a NoEmail_<index> placeholder.
func (r Record) Identity(index int) string {
	if v, ok := r[EmailField]; ok {
		if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return fmt.Sprintf("NoEmail_%d", index)
}

// DocumentLink returns the first non-empty string among the accepted link
// fields. A non-string value under a link key is skipped, never an error.
func (r Record) DocumentLink() string {
	for _, field := range linkFields {
		v, ok := r[field]
		if !ok {
			continue
		}
		if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return ""
}
