package pipeline

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/joseph-ayodele/ticket-ingest/constants"
	"github.com/joseph-ayodele/ticket-ingest/internal/extract"
)

// acquireText runs OCR on the stored file and rejects unreadable documents.
func (p *Processor) acquireText(ctx context.Context, path string) (extract.TextExtractionResult, error) {
	res, err := p.text.Extract(ctx, path)
	if err != nil {
		p.logger.Warn("pipeline.ocr.failed", "path", path, "error", err)
		return res, reject(StateTextExtracted, CodeOCREmpty, "ocr failed", err)
	}
	body := strings.TrimSpace(strings.Join(res.Pages, "\n"))
	if n := utf8.RuneCountInString(body); n < constants.MinOCRTextLen {
		p.logger.Warn("pipeline.ocr.empty", "path", path, "chars", n, "method", res.Method)
		return res, reject(StateTextExtracted, CodeOCREmpty, "ocr text too short", nil)
	}
	p.logger.Info("pipeline.ocr.ok",
		"path", path,
		"method", res.Method,
		"pages", len(res.Pages),
		"elapsed_ms", res.Duration.Milliseconds(),
	)
	return res, nil
}
