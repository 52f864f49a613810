package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/joseph-ayodele/ticket-ingest/constants"
)

type Config struct {
	Pdftotext string // binary name or absolute path; if empty -> "pdftotext"
	Pdftoppm  string // binary name or absolute path; if empty -> "pdftoppm"
	Tesseract string // binary name or absolute path; if empty -> "tesseract"

	TesseractLang string // default "spa+eng"
	DPI           int    // rasterization DPI for scanned PDFs, default 300
	MaxPages      int    // 0 = no limit

	TessdataDir         string
	EnableTSVConfidence bool

	PSM int // 6 = uniform block of text, which suits scale tickets
	OEM int // 3 = default engine selection

	Timeout time.Duration // per tool invocation; 0 = no limit
}

type ExtractionResult struct {
	Text       string   // pages joined with page markers
	Pages      []string // one entry per page, in document order
	SourceType string   // constants.PDF | constants.IMAGE
	Method     string   // "pdf-text" | "pdf-ocr" | "pdf-mixed" | "image-ocr"
	Language   string
	Duration   time.Duration
	Warnings   []string
	Confidence float32
}

type Extractor struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

// NewExtractor runs the OCR tools as child processes, each bounded by cfg.Timeout.
func NewExtractor(cfg Config, logger *slog.Logger) *Extractor {
	return NewExtractorWithRunner(cfg, nil, logger)
}

// NewExtractorWithRunner lets callers substitute how external tools are executed.
// A nil runner means ExecRunner.
func NewExtractorWithRunner(cfg Config, runner Runner, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if runner == nil {
		runner = ExecRunner{Logger: logger, Timeout: cfg.Timeout}
	}
	return &Extractor{cfg: cfg.withDefaults(), runner: runner, logger: logger}
}

func (c Config) withDefaults() Config {
	orString := func(v *string, def string) {
		if *v == "" {
			*v = def
		}
	}
	orInt := func(v *int, def int) {
		if *v <= 0 {
			*v = def
		}
	}
	orString(&c.Pdftotext, "pdftotext")
	orString(&c.Pdftoppm, "pdftoppm")
	orString(&c.Tesseract, "tesseract")
	orString(&c.TesseractLang, "spa+eng")
	orInt(&c.DPI, 300)
	orInt(&c.PSM, 6)
	orInt(&c.OEM, 3)
	return c
}

// Extract dispatches on the file extension and stamps the elapsed time.
func (e *Extractor) Extract(ctx context.Context, path string) (ExtractionResult, error) {
	ext := constants.NormalizeExt(filepath.Ext(path))
	var run func(context.Context, string) (ExtractionResult, error)
	switch constants.MapExtToFormat(ext) {
	case constants.PDF:
		run = e.extractPDF
	case constants.IMAGE:
		run = e.extractImage
	default:
		e.logger.Warn("ocr.unsupported", "path", path, "ext", ext)
		return ExtractionResult{}, fmt.Errorf("unsupported extension: %q", ext)
	}

	start := time.Now()
	res, err := run(ctx, path)
	res.Duration = time.Since(start)
	if err != nil {
		e.logger.Warn("ocr.failed", "path", path, "ext", ext, "error", err)
		return res, err
	}
	e.logger.Debug("ocr.ok", "path", path, "method", res.Method, "pages", len(res.Pages), "confidence", res.Confidence)
	return res, nil
}
