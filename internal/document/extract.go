package document

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"
)

// Extractor converts raw PDF bytes into plain text.
type Extractor struct {
	logger *zap.Logger
}

func NewExtractor(logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{logger: logger}
}

// Extract parses the bytes as a PDF and returns the concatenated page text.
// A parse failure and a document with only whitespace text both return an
// error: neither yields usable content for scoring.
func (e *Extractor) Extract(data []byte) (text string, err error) {
	// The pdf library panics on some malformed inputs. A bad document coming
	// from an arbitrary link must fail this row, not the whole job.
	defer func() {
		if r := recover(); r != nil {
			e.logger.Warn("pdf parsing panicked", zap.Any("panic", r))
			err = fmt.Errorf("parse pdf: %v", r)
		}
	}()

	if len(data) == 0 {
		return "", errors.New("document is empty")
	}

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		e.logger.Warn("pdf parsing failed", zap.Error(err))
		return "", fmt.Errorf("parse pdf: %w", err)
	}

	var builder strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		pageText, err := page.GetPlainText(nil)
		if err != nil {
			e.logger.Debug("skipping unreadable pdf page",
				zap.Int("page", i),
				zap.Error(err),
			)
			continue
		}

		if builder.Len() > 0 {
			builder.WriteString("\n")
		}
		builder.WriteString(pageText)
	}

	text = strings.TrimSpace(builder.String())
	if text == "" {
		e.logger.Warn("pdf contains no extractable text", zap.Int("pages", reader.NumPage()))
		return "", errors.New("pdf contains no extractable text")
	}

	return text, nil
}
