package cmd

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/cvsift/cvsift/internal/ai"
	"github.com/cvsift/cvsift/internal/ai/gemini"
	"github.com/cvsift/cvsift/internal/logger"
	"github.com/cvsift/cvsift/internal/secrets"
)

// newScorer builds the Gemini scorer from config and environment. The caller
// decides whether a missing credential is fatal.
func newScorer(ctx context.Context, config *Config, log *zap.Logger) (ai.Scorer, error) {
	provider := strings.TrimSpace(strings.ToLower(config.provider()))
	if provider != "" && provider != "gemini" {
		return nil, fmt.Errorf("unsupported ai provider: %s", config.provider())
	}

	cfg := config.gemini()

	apiKey, err := secrets.Load(secrets.Source{
		Name:  "gemini api key",
		Value: cfg.APIKey,
		Env:   "GEMINI_API_KEY",
		File:  cfg.APIKeyFile,
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set ai.gemini.api-key-file, GEMINI_API_KEY_FILE, or GEMINI_API_KEY)", err)
	}

	generator, err := gemini.NewGenerator(ctx, apiKey, cfg.Model, cfg.MaxRetries, cfg.RequestsPerMinute,
		logger.WithScoringFields(log, "gemini", cfg.Model))
	if err != nil {
		return nil, fmt.Errorf("building gemini client: %w", err)
	}

	// generator.Model carries the default when the config left it empty.
	return gemini.NewScorer(generator, cfg.MaxLogLength,
		logger.WithScoringFields(log, "gemini", generator.Model())), nil
}
