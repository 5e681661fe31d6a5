package screening

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/cvsift/cvsift/internal/ai"
)

// SkippedAnalysisSummary is the fixed summary for rows whose document was
// fetched or parsed unsuccessfully. Rows without any link never reach
// acquisition and are resolved by the scorer instead.
const SkippedAnalysisSummary = "LLM analysis skipped due to no extracted PDF text."

// Fetcher retrieves raw document bytes for a link.
type Fetcher interface {
	Fetch(ctx context.Context, link string) ([]byte, error)
}

// Extractor converts raw document bytes into plain text.
type Extractor interface {
	Extract(data []byte) (string, error)
}

// RowOutcome pairs the emitted row with the counters it contributes to the
// job report.
type RowOutcome struct {
	Row       RowResult
	Extracted bool
	Scored    bool
}

// Pipeline runs one record through the per-row stages: link resolution,
// fetch, text extraction, scoring. Every stage failure is absorbed into
// the row's result fields; nothing raises past ProcessRow.
type Pipeline struct {
	resolve   func(string) string
	fetcher   Fetcher
	extractor Extractor
	scorer    ai.Scorer
	logger    *zap.Logger
}

// NewPipeline wires the per-row stages. All stages are required: a missing
// one is a programming error surfaced at construction, not a per-row
// runtime check.
func NewPipeline(resolve func(string) string, fetcher Fetcher, extractor Extractor, scorer ai.Scorer, logger *zap.Logger) (*Pipeline, error) {
	if resolve == nil {
		return nil, errors.New("link resolver is required")
	}
	if fetcher == nil {
		return nil, errors.New("document fetcher is required")
	}
	if extractor == nil {
		return nil, errors.New("text extractor is required")
	}
	if scorer == nil {
		return nil, errors.New("scorer is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Pipeline{
		resolve:   resolve,
		fetcher:   fetcher,
		extractor: extractor,
		scorer:    scorer,
		logger:    logger,
	}, nil
}

// ProcessRow screens one record against the job description. The returned
// outcome merges the record's fields with the screening result; failures
// downgrade the row and never abort the batch. A row without a document
// link goes to the scorer with absent text, which it resolves to its
// missing-content result without calling the backend.
func (p *Pipeline) ProcessRow(ctx context.Context, record Record, jobDescription string, index int, sink ProgressSink) RowOutcome {
	identity := record.Identity(index)

	emit(sink, Update{Report: fmt.Sprintf("Processing resume %d (%s)", index+1, identity)})

	var score ai.Result
	status := ExtractionFailed

	if link := record.DocumentLink(); link == "" {
		p.logger.Info("row has no document link",
			zap.Int("row", index),
			zap.String("identity", identity),
		)
		emit(sink, Update{Report: fmt.Sprintf("Resume %d (%s): no document link provided", index+1, identity)})
		score = p.scorer.Score(ctx, "", jobDescription)
	} else if text := p.acquire(ctx, link, identity, index); strings.TrimSpace(text) != "" {
		status = ExtractionSuccess
		score = p.scorer.Score(ctx, text, jobDescription)
	} else {
		score = ai.Result{Rating: 0, Summary: SkippedAnalysisSummary}
	}

	emit(sink, Update{Report: fmt.Sprintf("Processed resume %d (%s): rating %d", index+1, identity, score.Rating)})

	row := make(RowResult, len(record)+3)
	for k, v := range record {
		row[k] = v
	}
	row[EmailField] = identity
	row[ExtractionStatusField] = status
	row[RatingField] = score.Rating
	row[SummaryField] = score.Summary

	return RowOutcome{
		Row:       row,
		Extracted: status == ExtractionSuccess,
		Scored:    score.Scored,
	}
}

// acquire fetches the resolved link and extracts its text. Any failure
// returns empty text; the finer reason is logged here and in the failing
// stage.
func (p *Pipeline) acquire(ctx context.Context, link, identity string, index int) string {
	data, err := p.fetcher.Fetch(ctx, p.resolve(link))
	if err != nil {
		p.logger.Warn("document retrieval failed for row",
			zap.Int("row", index),
			zap.String("identity", identity),
			zap.Error(err),
		)
		return ""
	}

	text, err := p.extractor.Extract(data)
	if err != nil {
		p.logger.Warn("text extraction failed for row",
			zap.Int("row", index),
			zap.String("identity", identity),
			zap.Error(err),
		)
		return ""
	}

	return text
}

func emit(sink ProgressSink, u Update) {
	if sink != nil {
		sink.Update(u)
	}
}
