// Package ingest feeds ticket files from disk into the processing pipeline.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/ticket-ingest/internal/extract"
	"github.com/joseph-ayodele/ticket-ingest/internal/fields"
	"github.com/joseph-ayodele/ticket-ingest/internal/pipeline"
)

// Submitter is the part of the processor the ingestor depends on.
type Submitter interface {
	Process(ctx context.Context, up pipeline.Upload) (pipeline.Outcome, error)
}

var _ Submitter = (*pipeline.Processor)(nil)

// FileResult is the per-file ingest outcome.
type FileResult struct {
	Path      string
	ID        uuid.UUID
	State     pipeline.State
	Fallbacks []extract.Field
	Err       string
}

// DirStats summarizes a directory ingest.
type DirStats struct {
	Scanned   uint32
	Matched   uint32
	Succeeded uint32
	Rejected  uint32
	Failed    uint32
}

// Ingestor submits local files to the pipeline.
type Ingestor struct {
	proc   Submitter
	fields func() fields.Config
	mode   extract.Mode
	logger *slog.Logger
}

// NewIngestor returns an ingestor. cfg is read once per file so edits to the
// field configuration apply to the next file.
func NewIngestor(proc Submitter, cfg func() fields.Config, mode extract.Mode, logger *slog.Logger) *Ingestor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg == nil {
		cfg = fields.Default
	}
	return &Ingestor{proc: proc, fields: cfg, mode: mode, logger: logger}
}

// IngestPath processes a single file.
func (i *Ingestor) IngestPath(ctx context.Context, path string) (FileResult, error) {
	out := FileResult{Path: path}

	abs, err := filepath.Abs(path)
	if err != nil {
		return out, err
	}
	if !AllowedExt(filepath.Ext(abs)) {
		return out, fmt.Errorf("unsupported or missing extension: %q", filepath.Ext(abs))
	}

	f, err := os.Open(abs)
	if err != nil {
		i.logger.Error("ingest.open.failed", "path", abs, "error", err)
		return out, err
	}
	defer f.Close()
	st, err := f.Stat()
	if err != nil {
		return out, err
	}
	if st.IsDir() {
		return out, fmt.Errorf("%s is a directory", abs)
	}

	res, err := i.proc.Process(ctx, pipeline.Upload{
		FileName: filepath.Base(abs),
		Size:     st.Size(),
		Body:     f,
		Mode:     i.mode,
		Fields:   i.fields(),
	})
	out.State = res.State
	if err != nil {
		out.Err = err.Error()
		return out, err
	}
	out.ID = res.Record.ID
	out.Fallbacks = res.Fallbacks
	i.logger.Info("ingest.file.ok", "path", abs, "id", out.ID, "fallbacks", len(out.Fallbacks))
	return out, nil
}

func isRejection(err error) bool {
	var rej *pipeline.RejectionError
	return errors.As(err, &rej)
}
