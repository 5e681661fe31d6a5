package gemini

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	_ "embed"

	"go.uber.org/zap"

	"github.com/cvsift/cvsift/internal/ai"
	"github.com/cvsift/cvsift/internal/util"
)

// contentGenerator is the slice of Generator the scorer depends on.
type contentGenerator interface {
	GenerateContent(ctx context.Context, system, message string) (string, error)
	Model() string
}

//go:embed prompt.md
var systemInstruction string

const (
	// maxSectionRunes bounds each prompt section to respect backend input limits.
	maxSectionRunes  = 8000
	truncationMarker = "…(truncated)"

	defaultMaxLogLength = 200

	messageTemplate = "Job Description:\n{{JOB_DESCRIPTION}}\n\nResume:\n{{RESUME_TEXT}}"
)

// The backend is an untrusted text generator: both extractions tolerate
// label variants and are applied independently, so a response missing one
// label can still contribute the other.
var (
	ratingPattern  = regexp.MustCompile(`(?:Numeric\s+)?Rating:\s*(-?\d+)\s*(?:/10)?`)
	summaryPattern = regexp.MustCompile(`(?:Summary|Summarized Report):[ \t]*(.*)`)
)

// Scorer rates resume text against a job description via Gemini and parses
// the mandated one-line response format.
type Scorer struct {
	generator contentGenerator
	logger    *zap.Logger
	maxLogLen int
}

func NewScorer(generator contentGenerator, maxLogLength int, logger *zap.Logger) *Scorer {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Scorer{
		generator: generator,
		logger:    logger,
		maxLogLen: maxLogLength,
	}
}

// Score implements ai.Scorer. It never returns an error: backend and parse
// failures are folded into the Result's rating and summary.
func (s *Scorer) Score(ctx context.Context, resumeText, jobDescription string) ai.Result {
	if strings.TrimSpace(resumeText) == "" {
		return ai.Result{Rating: 0, Summary: ai.MissingContentSummary}
	}

	message := buildMessage(resumeText, jobDescription)

	s.logger.Debug("gemini scoring request",
		zap.Int("message_length", utf8.RuneCountInString(message)),
		zap.String("message_preview", util.TruncateForLog(message, s.maxLogLen)),
	)

	raw, err := s.generator.GenerateContent(ctx, systemInstruction, message)
	if err != nil {
		s.logger.Warn("gemini scoring failed", zap.Error(err))
		return ai.Result{Rating: 0, Summary: ai.BackendFailureSummary}
	}

	s.logger.Debug("gemini scoring response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", util.TruncateForLog(raw, s.maxLogLen)),
	)

	return s.parse(raw)
}

// Model reports the backing model identifier for log enrichment.
func (s *Scorer) Model() string {
	return s.generator.Model()
}

func buildMessage(resumeText, jobDescription string) string {
	message := strings.ReplaceAll(messageTemplate, "{{JOB_DESCRIPTION}}", truncateSection(jobDescription))
	return strings.ReplaceAll(message, "{{RESUME_TEXT}}", truncateSection(resumeText))
}

func truncateSection(s string) string {
	s = strings.TrimSpace(s)
	runes := []rune(s)
	if len(runes) <= maxSectionRunes {
		return s
	}
	return string(runes[:maxSectionRunes]) + truncationMarker
}

func (s *Scorer) parse(raw string) ai.Result {
	result := ai.Result{Scored: true}

	if match := ratingPattern.FindStringSubmatch(raw); match != nil {
		rating, err := strconv.Atoi(match[1])
		if err != nil || rating < 0 || rating > 10 {
			s.logger.Warn("gemini returned out-of-range rating", zap.String("rating", match[1]))
			result.Scored = false
		} else {
			result.Rating = rating
		}
	} else {
		s.logger.Warn("gemini response missing rating label",
			zap.String("response_preview", util.TruncateForLog(raw, s.maxLogLen)),
		)
		result.Scored = false
	}

	if match := summaryPattern.FindStringSubmatch(raw); match != nil && strings.TrimSpace(match[1]) != "" {
		result.Summary = strings.TrimSpace(match[1])
	} else {
		result.Summary = ai.UnparsableSummary
	}

	return result
}
