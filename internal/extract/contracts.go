package extract

import (
	"context"
	"time"

	"github.com/joseph-ayodele/ticket-ingest/internal/fields"
)

// TextExtractor is Stage 1: file -> text.
type TextExtractor interface {
	Extract(ctx context.Context, path string) (TextExtractionResult, error)
}

type TextExtractionResult struct {
	Pages      []string
	Text       string // pages joined with page markers
	SourceType string // "PDF" | "IMAGE"
	Method     string // "pdf-text" | "pdf-ocr" | "pdf-mixed" | "image-ocr"
	Language   string
	Duration   time.Duration
	Warnings   []string
	Confidence float32 // 0..1; zero when the tool reported none
}

// FieldExtractor is Stage 2: text -> fields.
type FieldExtractor interface {
	Extract(pages []string, mode Mode, cfg fields.Config) Result
}

var _ FieldExtractor = (*Extractor)(nil)
