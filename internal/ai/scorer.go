package ai

import "context"

// Fixed summary strings surfaced in results when scoring cannot produce a
// real assessment. Downstream consumers (report columns, tests) match on
// them verbatim.
const (
	NotConfiguredSummary  = "LLM not configured."
	MissingContentSummary = "Missing resume content for LLM analysis."
	UnparsableSummary     = "Could not parse summary from LLM response."
	BackendFailureSummary = "Failed to get LLM report due to API error."
)

// Result is the outcome of scoring one resume against a job description.
type Result struct {
	// Rating is an integer in [0,10]. Out-of-range or unparseable backend
	// output is normalized to 0, never passed through raw.
	Rating int
	// Summary is a one-line assessment, or a diagnostic string when scoring
	// could not be completed.
	Summary string
	// Scored reports whether the backend call succeeded and yielded a
	// rating inside the accepted range. It feeds the job's aggregate
	// counters and is not part of the row payload.
	Scored bool
}

// Scorer rates how well a resume matches a job description. Score never
// returns an error: every failure is absorbed into the Result so one bad
// row cannot abort a batch. Implementations with a backend resolve empty
// resume text to MissingContentSummary without making a call.
type Scorer interface {
	Score(ctx context.Context, resumeText, jobDescription string) Result
}

// Disabled is a Scorer for running without a backend credential. It makes
// no network calls and marks every row as not configured.
type Disabled struct{}

func NewDisabled() Disabled { return Disabled{} }

func (Disabled) Score(context.Context, string, string) Result {
	return Result{Rating: 0, Summary: NotConfiguredSummary}
}
