package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/ticket-ingest/internal/async"
	"github.com/joseph-ayodele/ticket-ingest/internal/common"
	"github.com/joseph-ayodele/ticket-ingest/internal/export"
	"github.com/joseph-ayodele/ticket-ingest/internal/extract"
	"github.com/joseph-ayodele/ticket-ingest/internal/fields"
	"github.com/joseph-ayodele/ticket-ingest/internal/ingest"
	"github.com/joseph-ayodele/ticket-ingest/internal/ocr"
	"github.com/joseph-ayodele/ticket-ingest/internal/pipeline"
	"github.com/joseph-ayodele/ticket-ingest/internal/repository"
	"github.com/joseph-ayodele/ticket-ingest/internal/server"
	"github.com/joseph-ayodele/ticket-ingest/internal/storage"
)

// how long queued watch jobs get to finish after interrupt
const drainTimeout = 2 * time.Minute

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	opts, err := loadOptions(os.Args[1:])
	if err != nil {
		printError("Error: %v\n", err)
		os.Exit(2)
	}

	cfg := common.LoadConfig()
	logger := common.NewLogger(common.LogConfig{Level: opts.LogLevel, Format: cfg.Log.Format})
	slog.SetDefault(logger)

	if opts.InMem {
		cfg.Database.InMemory = true
	}
	if cfg.Database.DSN == "" && !cfg.Database.InMemory && cfg.Database.SQLitePath == "" {
		printError("Error: set DB_URL, DB_SQLITE_PATH or pass --inmem\n")
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, opts, logger); err != nil {
		logger.Error("batch failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *common.Config, opts options, logger *slog.Logger) error {
	db, err := server.ConnectDB(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("initialize database: %w", err)
	}
	defer repository.Close(db, logger)

	fieldCfg, err := fields.Load(opts.FieldsPath)
	if err != nil {
		return err
	}
	store := fields.NewStore(fieldCfg, "", logger)

	uploads, err := storage.NewLocal(cfg.Storage.UploadDir, logger)
	if err != nil {
		return err
	}
	artifacts, err := storage.NewLocal(cfg.Storage.ArtifactDir, logger)
	if err != nil {
		return err
	}

	ocrx := ocr.NewExtractor(ocr.Config{
		Pdftotext:     cfg.OCR.Pdftotext,
		Pdftoppm:      cfg.OCR.Pdftoppm,
		Tesseract:     cfg.OCR.Tesseract,
		TesseractLang: cfg.OCR.TesseractLang,
		DPI:           cfg.OCR.DPI,
		MaxPages:      cfg.OCR.MaxPages,
		TessdataDir:   cfg.OCR.TessdataDir,
		PSM:           cfg.OCR.PSM,
		OEM:           cfg.OCR.OEM,
		Timeout:       cfg.OCR.Timeout,
	}, logger)
	proc := pipeline.NewProcessor(
		uploads, artifacts,
		extract.NewOCRAdapter(ocrx, logger),
		extract.New(extract.WithLogger(logger)),
		repository.NewDocumentRecordRepository(db, logger),
		export.NewWriter(logger, nil),
		pipeline.Options{MaxUploadBytes: cfg.Storage.MaxUploadBytes},
		logger,
	)
	ing := ingest.NewIngestor(proc, store.Snapshot, opts.Mode, logger)

	results, stats, err := ing.IngestDirectory(ctx, opts.Dir, opts.SkipHidden)
	if err != nil {
		return err
	}
	var ids []uuid.UUID
	for _, r := range results {
		if r.ID != uuid.Nil {
			ids = append(ids, r.ID)
		}
	}
	logger.Info("directory processed",
		"dir", opts.Dir,
		"scanned", stats.Scanned,
		"matched", stats.Matched,
		"succeeded", stats.Succeeded,
		"rejected", stats.Rejected,
		"failed", stats.Failed,
	)

	if opts.Watch {
		ids = append(ids, follow(ctx, ing, opts, logger)...)
	}

	// the context may be cancelled by now; the report is still written
	reportCtx := context.WithoutCancel(ctx)
	if len(ids) == 0 {
		logger.Warn("no documents processed; writing an empty batch")
	}
	key, art, err := proc.BatchReport(reportCtx, nonEmpty(ids), store.Snapshot())
	if err != nil {
		return err
	}
	src, err := artifacts.Path(key)
	if err != nil {
		return err
	}
	if err := copyFile(src, opts.Out); err != nil {
		return fmt.Errorf("write %s: %w", opts.Out, err)
	}
	logger.Info("batch report written", "path", opts.Out, "documents", len(ids), "minimal", art.Minimal)
	return nil
}

// nonEmpty keeps an empty batch from falling back to every stored record.
func nonEmpty(ids []uuid.UUID) []uuid.UUID {
	if len(ids) == 0 {
		return []uuid.UUID{uuid.Nil}
	}
	return ids
}

// follow processes files appearing under opts.Dir until ctx is done.
func follow(ctx context.Context, ing *ingest.Ingestor, opts options, logger *slog.Logger) []uuid.UUID {
	paths, errs, err := ingest.Watch(ctx, ingest.WatchConfig{
		Roots:      []string{opts.Dir},
		SkipHidden: opts.SkipHidden,
		Debounce:   opts.Debounce,
	}, logger)
	if err != nil {
		logger.Error("watch failed", "error", err)
		return nil
	}
	logger.Info("watching for new tickets; interrupt to write the report", "dir", opts.Dir, "workers", opts.Workers)

	var (
		mu  sync.Mutex
		ids []uuid.UUID
	)
	q := async.NewQueue(func(ctx context.Context, job async.Job) error {
		r, err := ing.IngestPath(ctx, job.Path)
		if err != nil {
			return err
		}
		mu.Lock()
		ids = append(ids, r.ID)
		mu.Unlock()
		return nil
	}, logger, async.WithWorkers(opts.Workers))

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), drainTimeout)
		defer cancel()
		q.Shutdown(shutdownCtx)
	}()
	for {
		select {
		case p, ok := <-paths:
			if !ok {
				return drained(q, &mu, &ids)
			}
			if err := q.Enqueue(ctx, async.Job{Path: p}); err != nil {
				logger.Warn("watched file not queued", "path", p, "error", err)
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			logger.Warn("watch error", "error", err)
		}
	}
}

// drained waits for queued files before reading the collected ids.
func drained(q *async.Queue, mu *sync.Mutex, ids *[]uuid.UUID) []uuid.UUID {
	ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()
	q.Shutdown(ctx)
	mu.Lock()
	defer mu.Unlock()
	return append([]uuid.UUID(nil), *ids...)
}

func copyFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
