package extract

import (
	"context"
	"log/slog"

	"github.com/joseph-ayodele/ticket-ingest/internal/ocr"
)

// lowConfidence flags OCR output that is likely to miss fields.
const lowConfidence = 0.45

// OCRAdapter exposes the OCR extractor as a TextExtractor.
type OCRAdapter struct {
	ocr    *ocr.Extractor
	logger *slog.Logger
}

var _ TextExtractor = (*OCRAdapter)(nil)

func NewOCRAdapter(e *ocr.Extractor, l *slog.Logger) *OCRAdapter {
	if l == nil {
		l = slog.Default()
	}
	return &OCRAdapter{ocr: e, logger: l}
}

func (a *OCRAdapter) Extract(ctx context.Context, path string) (TextExtractionResult, error) {
	r, err := a.ocr.Extract(ctx, path)
	out := fromOCR(r)
	if err != nil {
		a.logger.Warn("ocr.extract.failed", "path", path, "method", r.Method, "error", err)
		return out, err
	}
	if r.Confidence > 0 && r.Confidence < lowConfidence {
		a.logger.Warn("ocr.extract.low_confidence", "path", path, "confidence", r.Confidence, "method", r.Method)
	}
	a.logger.Debug("ocr.extract.ok",
		"path", path,
		"method", r.Method,
		"pages", len(r.Pages),
		"duration_ms", r.Duration.Milliseconds(),
	)
	return out, nil
}

func fromOCR(r ocr.ExtractionResult) TextExtractionResult {
	return TextExtractionResult{
		Pages:      r.Pages,
		Text:       r.Text,
		SourceType: r.SourceType,
		Method:     r.Method,
		Language:   r.Language,
		Duration:   r.Duration,
		Warnings:   r.Warnings,
		Confidence: r.Confidence,
	}
}
