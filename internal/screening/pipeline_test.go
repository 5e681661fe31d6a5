package screening

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/cvsift/cvsift/internal/ai"
)

type stubFetcher struct {
	data    []byte
	err     error
	failFor string
	calls   int
	links   []string
}

func (f *stubFetcher) Fetch(_ context.Context, link string) ([]byte, error) {
	f.calls++
	f.links = append(f.links, link)
	if f.err != nil {
		return nil, f.err
	}
	if f.failFor != "" && strings.Contains(link, f.failFor) {
		return nil, errors.New("document gone")
	}
	return f.data, nil
}

type stubExtractor struct {
	text  string
	err   error
	calls int
}

func (e *stubExtractor) Extract([]byte) (string, error) {
	e.calls++
	if e.err != nil {
		return "", e.err
	}
	return e.text, nil
}

type stubScorer struct {
	result       ai.Result
	panicMessage string
	calls        int
	texts        []string
	descriptions []string
}

func (s *stubScorer) Score(_ context.Context, resumeText, jobDescription string) ai.Result {
	s.calls++
	s.texts = append(s.texts, resumeText)
	s.descriptions = append(s.descriptions, jobDescription)
	if strings.TrimSpace(resumeText) == "" {
		return ai.Result{Rating: 0, Summary: ai.MissingContentSummary}
	}
	if s.panicMessage != "" {
		panic(s.panicMessage)
	}
	return s.result
}

type recordingSink struct {
	updates     []Update
	completions []Completion
	failures    []Failure
}

func (s *recordingSink) Update(u Update)       { s.updates = append(s.updates, u) }
func (s *recordingSink) Complete(c Completion) { s.completions = append(s.completions, c) }
func (s *recordingSink) Fail(f Failure)        { s.failures = append(s.failures, f) }

func keepLink(link string) string { return link }

func newTestPipeline(t *testing.T, resolve func(string) string, fetcher Fetcher, extractor Extractor, scorer ai.Scorer) *Pipeline {
	t.Helper()

	p, err := NewPipeline(resolve, fetcher, extractor, scorer, zap.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return p
}

func TestProcessRowScoresExtractedText(t *testing.T) {
	t.Parallel()

	fetcher := &stubFetcher{data: []byte("%PDF-1.4 raw")}
	extractor := &stubExtractor{text: "ten years of Go"}
	scorer := &stubScorer{result: ai.Result{Rating: 8, Summary: "Strong match.", Scored: true}}
	sink := &recordingSink{}

	resolve := func(link string) string { return link + "?download=1" }
	p := newTestPipeline(t, resolve, fetcher, extractor, scorer)

	record := Record{"email": "jane@example.com", "name": "Jane", "resumeLink": "https://cv.example/jane"}
	outcome := p.ProcessRow(context.Background(), record, "Go developer", 0, sink)

	if got := fetcher.links[0]; got != "https://cv.example/jane?download=1" {
		t.Fatalf("fetcher received unresolved link %q", got)
	}
	if scorer.texts[0] != "ten years of Go" || scorer.descriptions[0] != "Go developer" {
		t.Fatalf("scorer received %q / %q", scorer.texts[0], scorer.descriptions[0])
	}

	if !outcome.Extracted || !outcome.Scored {
		t.Fatalf("expected extracted and scored outcome, got %+v", outcome)
	}
	if got := outcome.Row[ExtractionStatusField]; got != ExtractionSuccess {
		t.Errorf("expected status %q, got %v", ExtractionSuccess, got)
	}
	if got := outcome.Row[RatingField]; got != 8 {
		t.Errorf("expected rating 8, got %v", got)
	}
	if got := outcome.Row[SummaryField]; got != "Strong match." {
		t.Errorf("expected summary to pass through, got %v", got)
	}
	if got := outcome.Row["name"]; got != "Jane" {
		t.Errorf("expected input fields preserved, got name=%v", got)
	}

	if len(sink.updates) != 2 {
		t.Fatalf("expected 2 progress updates, got %d: %+v", len(sink.updates), sink.updates)
	}
	if got := sink.updates[0].Report; got != "Processing resume 1 (jane@example.com)" {
		t.Errorf("unexpected start update %q", got)
	}
	if got := sink.updates[1].Report; got != "Processed resume 1 (jane@example.com): rating 8" {
		t.Errorf("unexpected end update %q", got)
	}
	if sink.updates[0].Status != "" || sink.updates[1].Status != "" {
		t.Error("per-row updates must not carry a phase status")
	}
}

func TestProcessRowWithoutLink(t *testing.T) {
	t.Parallel()

	fetcher := &stubFetcher{}
	scorer := &stubScorer{result: ai.Result{Rating: 9, Summary: "never used", Scored: true}}
	sink := &recordingSink{}

	p := newTestPipeline(t, keepLink, fetcher, &stubExtractor{text: "never used"}, scorer)

	outcome := p.ProcessRow(context.Background(), Record{"name": "Anon"}, "Go developer", 3, sink)

	if fetcher.calls != 0 {
		t.Errorf("expected no fetch without a link, got %d calls", fetcher.calls)
	}
	if scorer.calls != 1 {
		t.Fatalf("expected one scorer call with absent text, got %d", scorer.calls)
	}
	if scorer.texts[0] != "" {
		t.Errorf("expected empty resume text, got %q", scorer.texts[0])
	}

	if got := outcome.Row[EmailField]; got != "NoEmail_3" {
		t.Errorf("expected placeholder email, got %v", got)
	}
	if got := outcome.Row[ExtractionStatusField]; got != ExtractionFailed {
		t.Errorf("expected status %q, got %v", ExtractionFailed, got)
	}
	if got := outcome.Row[RatingField]; got != 0 {
		t.Errorf("expected rating 0, got %v", got)
	}
	if got := outcome.Row[SummaryField]; got != ai.MissingContentSummary {
		t.Errorf("expected missing-content summary, got %v", got)
	}
	if outcome.Extracted || outcome.Scored {
		t.Errorf("expected failed outcome, got %+v", outcome)
	}

	if len(sink.updates) != 3 {
		t.Fatalf("expected 3 progress updates, got %d: %+v", len(sink.updates), sink.updates)
	}
	if got := sink.updates[1].Report; got != "Resume 4 (NoEmail_3): no document link provided" {
		t.Errorf("unexpected missing-link update %q", got)
	}
}

func TestProcessRowAbsorbsStageFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		fetcher   *stubFetcher
		extractor *stubExtractor
	}{
		{
			name:      "fetch fails",
			fetcher:   &stubFetcher{err: errors.New("connection refused")},
			extractor: &stubExtractor{text: "never used"},
		},
		{
			name:      "extraction fails",
			fetcher:   &stubFetcher{data: []byte("not a pdf")},
			extractor: &stubExtractor{err: errors.New("pdf parse failed")},
		},
		{
			name:      "extraction yields only whitespace",
			fetcher:   &stubFetcher{data: []byte("%PDF-1.4")},
			extractor: &stubExtractor{text: " \n\t "},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			scorer := &stubScorer{result: ai.Result{Rating: 9, Summary: "never used", Scored: true}}
			p := newTestPipeline(t, keepLink, tt.fetcher, tt.extractor, scorer)

			record := Record{"email": "jane@example.com", "resumeLink": "https://cv.example/jane"}
			outcome := p.ProcessRow(context.Background(), record, "Go developer", 0, &recordingSink{})

			if scorer.calls != 0 {
				t.Errorf("expected scoring to be skipped, got %d calls", scorer.calls)
			}
			if got := outcome.Row[ExtractionStatusField]; got != ExtractionFailed {
				t.Errorf("expected status %q, got %v", ExtractionFailed, got)
			}
			if got := outcome.Row[SummaryField]; got != SkippedAnalysisSummary {
				t.Errorf("expected skip summary, got %v", got)
			}
			if got := outcome.Row[RatingField]; got != 0 {
				t.Errorf("expected rating 0, got %v", got)
			}
			if outcome.Extracted || outcome.Scored {
				t.Errorf("expected failed outcome, got %+v", outcome)
			}
		})
	}
}

func TestProcessRowUnscoredResultCountsExtractionOnly(t *testing.T) {
	t.Parallel()

	scorer := &stubScorer{result: ai.Result{Rating: 0, Summary: ai.UnparsableSummary, Scored: false}}
	p := newTestPipeline(t, keepLink, &stubFetcher{data: []byte("raw")}, &stubExtractor{text: "body"}, scorer)

	record := Record{"email": "jane@example.com", "resumeLink": "https://cv.example/jane"}
	outcome := p.ProcessRow(context.Background(), record, "Go developer", 0, &recordingSink{})

	if !outcome.Extracted {
		t.Error("expected extraction to count")
	}
	if outcome.Scored {
		t.Error("expected unscored result not to count")
	}
	if got := outcome.Row[ExtractionStatusField]; got != ExtractionSuccess {
		t.Errorf("expected status %q, got %v", ExtractionSuccess, got)
	}
}

func TestProcessRowDoesNotMutateInput(t *testing.T) {
	t.Parallel()

	p := newTestPipeline(t, keepLink, &stubFetcher{data: []byte("raw")}, &stubExtractor{text: "body"},
		&stubScorer{result: ai.Result{Rating: 5, Summary: "OK.", Scored: true}})

	record := Record{"resumeLink": "https://cv.example/anon"}
	outcome := p.ProcessRow(context.Background(), record, "Go developer", 0, &recordingSink{})

	if _, ok := record[EmailField]; ok {
		t.Error("input record gained an email field")
	}
	if _, ok := record[RatingField]; ok {
		t.Error("input record gained a rating field")
	}
	if got := outcome.Row[EmailField]; got != "NoEmail_0" {
		t.Errorf("expected placeholder email on the result row, got %v", got)
	}
}

func TestProcessRowWorksWithNilSink(t *testing.T) {
	t.Parallel()

	p := newTestPipeline(t, keepLink, &stubFetcher{data: []byte("raw")}, &stubExtractor{text: "body"},
		&stubScorer{result: ai.Result{Rating: 5, Summary: "OK.", Scored: true}})

	outcome := p.ProcessRow(context.Background(), Record{"resumeLink": "https://cv.example/a"}, "jd", 0, nil)

	if got := outcome.Row[RatingField]; got != 5 {
		t.Fatalf("expected rating 5, got %v", got)
	}
}

func TestNewPipelineRequiresStages(t *testing.T) {
	t.Parallel()

	fetcher := &stubFetcher{}
	extractor := &stubExtractor{}
	scorer := &stubScorer{}

	tests := []struct {
		name      string
		resolve   func(string) string
		fetcher   Fetcher
		extractor Extractor
		scorer    ai.Scorer
	}{
		{name: "nil resolver", fetcher: fetcher, extractor: extractor, scorer: scorer},
		{name: "nil fetcher", resolve: keepLink, extractor: extractor, scorer: scorer},
		{name: "nil extractor", resolve: keepLink, fetcher: fetcher, scorer: scorer},
		{name: "nil scorer", resolve: keepLink, fetcher: fetcher, extractor: extractor},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if _, err := NewPipeline(tt.resolve, tt.fetcher, tt.extractor, tt.scorer, nil); err == nil {
				t.Fatal("expected a construction error")
			}
		})
	}

	if _, err := NewPipeline(keepLink, fetcher, extractor, scorer, nil); err != nil {
		t.Fatalf("nil logger must be allowed, got %v", err)
	}
}
