package document

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/cvsift/cvsift/internal/util"
)

const (
	defaultFetchTimeout = 10 * time.Second
	userAgent           = "cvsift resume screener"

	// urlLogLimit bounds document URLs in log lines.
	urlLogLimit = 120
)

// Fetcher retrieves raw document bytes over HTTP with a bounded timeout.
type Fetcher struct {
	logger     *zap.Logger
	HTTPClient *http.Client
	UserAgent  string
}

// NewFetcher creates a Fetcher. A non-positive timeout falls back to the
// default of 10 seconds.
func NewFetcher(timeout time.Duration, logger *zap.Logger) *Fetcher {
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Fetcher{
		logger: logger,
		HTTPClient: &http.Client{
			Timeout: timeout,
		},
		UserAgent: userAgent,
	}
}

// Fetch downloads the document at link and returns its bytes. A transport
// error, a timeout, and a non-OK status all return an error; the caller
// treats them uniformly as a failed acquisition.
func (f *Fetcher) Fetch(ctx context.Context, link string) ([]byte, error) {
	if link == "" {
		return nil, errors.New("document link is empty")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return nil, fmt.Errorf("build document request: %w", err)
	}
	req.Header.Set("User-Agent", f.UserAgent)

	f.logger.Debug("fetching document", zap.String("url", util.URLPrefix(link, urlLogLimit)))

	resp, err := f.HTTPClient.Do(req)
	if err != nil {
		f.logger.Warn("document fetch failed",
			zap.String("url", util.URLPrefix(link, urlLogLimit)),
			zap.Error(err),
		)
		return nil, fmt.Errorf("fetch document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		f.logger.Warn("document fetch returned bad status",
			zap.String("url", util.URLPrefix(link, urlLogLimit)),
			zap.String("status", resp.Status),
		)
		return nil, fmt.Errorf("bad status: %s", resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		f.logger.Warn("reading document body failed",
			zap.String("url", util.URLPrefix(link, urlLogLimit)),
			zap.Error(err),
		)
		return nil, fmt.Errorf("read document body: %w", err)
	}

	return data, nil
}
