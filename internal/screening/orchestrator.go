package screening

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/cvsift/cvsift/internal/logger"
)

// State names a job's position in its lifecycle.
type State string

const (
	StateStarted     State = "started"
	StateProcessing  State = "processing"
	StateAggregating State = "aggregating"
	StateCompleted   State = "completed"
	StateFailed      State = "failed"
)

// Status strings carried on phase-transition updates.
const (
	StatusAnalysing  = "analysing all resume"
	StatusConverting = "converting to csv"
)

// Update is one incremental progress line. Status is set only at major
// phase transitions.
type Update struct {
	Status string
	Report string
}

// Completion carries the final report payload.
type Completion struct {
	Rows    []RowResult
	Message string
}

// Failure describes a job that ended without a report.
type Failure struct {
	Message string
	Err     error
}

// ProgressSink receives incremental notifications while a job runs.
// Implementations must tolerate emissions after their consumer is gone:
// a disconnected session makes every call a no-op, never an error.
type ProgressSink interface {
	Update(u Update)
	Complete(c Completion)
	Fail(f Failure)
}

type nopSink struct{}

func (nopSink) Update(Update)       {}
func (nopSink) Complete(Completion) {}
func (nopSink) Fail(Failure)        {}

// Job is one submitted batch: the rows plus the shared job description.
type Job struct {
	ID             string
	Records        []Record
	JobDescription string
}

// Orchestrator runs jobs row by row, strictly in input order, and reports
// progress after every row.
type Orchestrator struct {
	pipeline *Pipeline
	logger   *zap.Logger
}

func NewOrchestrator(pipeline *Pipeline, log *zap.Logger) (*Orchestrator, error) {
	if pipeline == nil {
		return nil, errors.New("pipeline is required")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Orchestrator{pipeline: pipeline, logger: log}, nil
}

// Run processes every record of the job in order and emits progress and the
// terminal event to the sink. Row-level failures are folded into the report;
// the returned error covers only orchestration-level failures, and in that
// case the sink has already received the failure and no partial report is
// produced.
func (o *Orchestrator) Run(ctx context.Context, job Job, sink ProgressSink) (report *Report, err error) {
	if sink == nil {
		sink = nopSink{}
	}

	log := logger.WithJob(o.logger, job.ID)

	state := StateStarted

	// Row failures never reach this fence. It catches orchestration bugs so
	// the session gets a single terminal error event instead of silence.
	defer func() {
		if r := recover(); r != nil {
			log.Error("screening job failed",
				zap.String("state", string(state)),
				zap.Any("panic", r),
			)
			report = nil
			err = fmt.Errorf("screening job failed in state %q: %v", state, r)
			sink.Fail(Failure{Message: "Resume screening failed.", Err: err})
		}
	}()

	n := len(job.Records)
	log.Info("screening job started", zap.Int("rows", n))
	sink.Update(Update{
		Status: StatusAnalysing,
		Report: fmt.Sprintf("Started screening %d resumes", n),
	})

	result := &Report{Rows: make([]RowResult, 0, n)}

	for i, record := range job.Records {
		state = StateProcessing
		outcome := o.pipeline.ProcessRow(ctx, record, job.JobDescription, i, sink)

		if outcome.Extracted {
			result.SuccessfulExtractions++
		}
		if outcome.Scored {
			result.SuccessfulScorings++
		}
		result.Rows = append(result.Rows, outcome.Row)
	}

	state = StateAggregating
	sink.Update(Update{
		Status: StatusConverting,
		Report: "Generating the final report",
	})

	state = StateCompleted
	log.Info("screening job completed",
		zap.Int("rows", len(result.Rows)),
		zap.Int("successful_extractions", result.SuccessfulExtractions),
		zap.Int("successful_scorings", result.SuccessfulScorings),
	)
	sink.Complete(Completion{Rows: result.Rows, Message: result.Message()})

	return result, nil
}
