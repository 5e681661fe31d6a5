package cmd

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	stdlog "log"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/cvsift/cvsift/internal/ai"
	"github.com/cvsift/cvsift/internal/document"
	"github.com/cvsift/cvsift/internal/logger"
	"github.com/cvsift/cvsift/internal/report"
	"github.com/cvsift/cvsift/internal/screening"
)

const (
	PromptYes = "Yes"
	PromptNo  = "No"
)

var prompt = promptui.Select{
	Label: "Proceed with screening?",
	Items: []string{PromptYes, PromptNo},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Screen a resume batch from a CSV file and write the report",
	Run: func(cmd *cobra.Command, _ []string) {
		run(cmd)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringP("input", "i", "", "path to the batch CSV file")
	runCmd.Flags().StringP("job-description", "t", "", "path to the job description text file")
	runCmd.Flags().StringP("output", "o", "", "report path; .xlsx selects a workbook, anything else CSV (default <input>.report.csv)")
	runCmd.Flags().BoolP("yes", "y", false, "do not ask for confirmation before screening")
	runCmd.Flags().Bool("skip-scoring", false, "run without the scoring backend, extraction results only")

	_ = runCmd.MarkFlagRequired("input")
	_ = runCmd.MarkFlagRequired("job-description")
}

// run screens a local batch with the same pipeline the server uses.
func run(cmd *cobra.Command) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		stdlog.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the cvsift batch run", zap.String("version", version))

	inputPath, _ := cmd.Flags().GetString("input")
	outputPath, _ := cmd.Flags().GetString("output")
	if outputPath == "" {
		outputPath = strings.TrimSuffix(inputPath, filepath.Ext(inputPath)) + ".report.csv"
	}

	records, err := readBatch(inputPath)
	if err != nil {
		logger.Fatal("reading the batch file", zap.Error(err))
	}
	if len(records) == 0 {
		logger.Info("exiting", zap.String("reason", "no records in the batch file"))
		return
	}

	jdPath, _ := cmd.Flags().GetString("job-description")
	jobDescription, err := os.ReadFile(jdPath)
	if err != nil {
		logger.Fatal("reading the job description", zap.Error(err))
	}

	logger.Info("batch loaded",
		zap.Int("rows", len(records)),
		zap.String("input", inputPath),
		zap.String("output", outputPath),
	)

	if yes, _ := cmd.Flags().GetBool("yes"); !yes {
		_, action, err := prompt.Run()
		if err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}
		if action != PromptYes {
			logger.Info("exiting", zap.String("reason", "got no from prompt"))
			return
		}
	}

	pipeline, err := screening.NewPipeline(
		document.Resolve,
		document.NewFetcher(config.FetchTimeout, logger),
		document.NewExtractor(logger),
		buildScorer(ctx, cmd, config, logger),
		logger,
	)
	if err != nil {
		logger.Fatal("building the row pipeline", zap.Error(err))
	}

	orchestrator, err := screening.NewOrchestrator(pipeline, logger)
	if err != nil {
		logger.Fatal("building the orchestrator", zap.Error(err))
	}

	job := screening.Job{
		ID:             uuid.NewString(),
		Records:        records,
		JobDescription: string(jobDescription),
	}

	result, err := orchestrator.Run(ctx, job, progressLogger{logger})
	if err != nil {
		logger.Fatal("screening failed", zap.Error(err))
	}

	if err := report.WriteFile(outputPath, result.Rows); err != nil {
		logger.Fatal("writing the report", zap.Error(err))
	}

	logger.Info("report written",
		zap.String("path", outputPath),
		zap.Int("rows", len(result.Rows)),
		zap.Int("successful_extractions", result.SuccessfulExtractions),
		zap.Int("successful_scorings", result.SuccessfulScorings),
	)
}

// buildScorer falls back to the disabled scorer: a local run without a
// credential still produces extraction results.
func buildScorer(ctx context.Context, cmd *cobra.Command, config *Config, log *zap.Logger) ai.Scorer {
	if skip, _ := cmd.Flags().GetBool("skip-scoring"); skip {
		log.Info("scoring disabled by flag")
		return ai.NewDisabled()
	}

	scorer, err := newScorer(ctx, config, log)
	if err != nil {
		log.Warn("scoring disabled", zap.Error(err))
		return ai.NewDisabled()
	}

	return scorer
}

// progressLogger adapts job progress to log lines for local runs.
type progressLogger struct {
	logger *zap.Logger
}

func (p progressLogger) Update(u screening.Update) {
	if u.Status != "" {
		p.logger.Info(u.Report, zap.String("status", u.Status))
		return
	}
	p.logger.Info(u.Report)
}

func (p progressLogger) Complete(c screening.Completion) {
	p.logger.Info(c.Message)
}

func (p progressLogger) Fail(f screening.Failure) {
	p.logger.Error(f.Message, zap.Error(f.Err))
}

// readBatch loads a header-labelled CSV into screening records. Ragged rows
// are tolerated: a short row leaves its trailing fields unset.
func readBatch(path string) ([]screening.Record, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open batch file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	var records []screening.Record
	for {
		line, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv line %d: %w", len(records)+2, err)
		}

		record := make(screening.Record, len(header))
		for i, field := range header {
			if i < len(line) {
				record[field] = line[i]
			}
		}
		records = append(records, record)
	}

	return records, nil
}
