package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/joseph-ayodele/ticket-ingest/internal/common"
	"github.com/joseph-ayodele/ticket-ingest/internal/extract"
	"github.com/joseph-ayodele/ticket-ingest/internal/fields"
	"github.com/joseph-ayodele/ticket-ingest/internal/ocr"
)

type output struct {
	File           string          `json:"file"`
	Method         string          `json:"method"`
	SourceType     string          `json:"source_type"`
	Pages          []string        `json:"pages"`
	Warnings       []string        `json:"warnings,omitempty"`
	Confidence     float32         `json:"confidence"`
	DurationMS     int64           `json:"duration_ms"`
	Mode           extract.Mode    `json:"mode"`
	Fields         extract.Fields  `json:"fields"`
	FallbackFields []extract.Field `json:"fallback_fields"`
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	modeFlag := pflag.String("mode", string(extract.ModeMultiPage), "extraction mode: multipage or legacy")
	fieldsPath := pflag.String("fields", "", "field configuration file (default: built-in)")
	pflag.Parse()
	if pflag.NArg() != 1 {
		logger.Error("usage", "cmd", "runocr [--mode multipage|legacy] [--fields path] <file>")
		os.Exit(2)
	}
	path := pflag.Arg(0)

	mode, err := extract.ParseMode(*modeFlag)
	if err != nil {
		logger.Error("invalid mode", "error", err)
		os.Exit(2)
	}
	fieldCfg := fields.Default()
	if *fieldsPath != "" {
		if fieldCfg, err = fields.Load(*fieldsPath); err != nil {
			logger.Error("load field configuration", "error", err)
			os.Exit(2)
		}
	}

	cfg := common.LoadConfig()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	ocrx := ocr.NewExtractor(ocr.Config{
		Pdftotext:           cfg.OCR.Pdftotext,
		Pdftoppm:            cfg.OCR.Pdftoppm,
		Tesseract:           cfg.OCR.Tesseract,
		TesseractLang:       cfg.OCR.TesseractLang,
		DPI:                 cfg.OCR.DPI,
		MaxPages:            cfg.OCR.MaxPages,
		TessdataDir:         cfg.OCR.TessdataDir,
		EnableTSVConfidence: true,
		PSM:                 cfg.OCR.PSM,
		OEM:                 cfg.OCR.OEM,
		Timeout:             cfg.OCR.Timeout,
	}, logger)

	res, err := ocrx.Extract(ctx, path)
	if err != nil {
		logger.Error("text extraction failed", "file", path, "error", err)
		os.Exit(1)
	}
	fx := extract.New(extract.WithLogger(logger)).Extract(res.Pages, mode, fieldCfg)

	out := output{
		File:           path,
		Method:         res.Method,
		SourceType:     res.SourceType,
		Pages:          res.Pages,
		Warnings:       res.Warnings,
		Confidence:     res.Confidence,
		DurationMS:     res.Duration.Milliseconds(),
		Mode:           fx.Mode,
		Fields:         fx.Fields,
		FallbackFields: fx.Fallbacks(),
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		logger.Error("encode output", "error", err)
		os.Exit(1)
	}
}
