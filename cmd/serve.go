package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	stdlog "log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/cvsift/cvsift/internal/document"
	"github.com/cvsift/cvsift/internal/logger"
	"github.com/cvsift/cvsift/internal/screening"
	"github.com/cvsift/cvsift/internal/session"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the cvsift screening session server",
	Run: func(cmd *cobra.Command, _ []string) {
		serve(cmd)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("listen", "l", "", "address to listen on (default "+defaultListen+")")

	viper.BindPFlag("listen", serveCmd.Flags().Lookup("listen"))
}

func serve(_ *cobra.Command) {
	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		stdlog.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the cvsift server", zap.String("version", version))
	logger.Debug(fmt.Sprintf("starting with config: \n %s", prettyConfig(config)))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// The server must not come up without a scoring backend.
	scorer, err := newScorer(ctx, config, logger)
	if err != nil {
		logger.Fatal("configuring the scorer", zap.Error(err))
	}

	pipeline, err := screening.NewPipeline(
		document.Resolve,
		document.NewFetcher(config.FetchTimeout, logger),
		document.NewExtractor(logger),
		scorer,
		logger,
	)
	if err != nil {
		logger.Fatal("building the row pipeline", zap.Error(err))
	}

	orchestrator, err := screening.NewOrchestrator(pipeline, logger)
	if err != nil {
		logger.Fatal("building the orchestrator", zap.Error(err))
	}

	sessions, err := session.New(ctx, orchestrator, logger)
	if err != nil {
		logger.Fatal("building the session server", zap.Error(err))
	}

	// No read/write timeouts: sessions are long-lived websocket
	// connections.
	server := &http.Server{
		Addr:              config.listenAddr(),
		Handler:           sessions,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		logger.Info("session server listening", zap.String("address", server.Addr))
		errChan <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("session server failed", zap.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("graceful shutdown failed", zap.Error(err))
	}

	sessions.Drain()
	logger.Info("server stopped")
}

// prettyConfig renders the config for debug logging with the inline
// credential masked.
func prettyConfig(c *Config) string {
	clone := *c
	if c.AI != nil && c.AI.Gemini != nil {
		gemini := *c.AI.Gemini
		if gemini.APIKey != "" {
			gemini.APIKey = "[redacted]"
		}
		aiClone := *c.AI
		aiClone.Gemini = &gemini
		clone.AI = &aiClone
	}

	pretty, _ := json.MarshalIndent(clone, "", "  ")
	return string(pretty)
}
