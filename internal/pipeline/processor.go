// Package pipeline drives an uploaded ticket from raw file to persisted
// record and spreadsheet artifact.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/ticket-ingest/constants"
	"github.com/joseph-ayodele/ticket-ingest/internal/entity"
	"github.com/joseph-ayodele/ticket-ingest/internal/export"
	"github.com/joseph-ayodele/ticket-ingest/internal/extract"
	"github.com/joseph-ayodele/ticket-ingest/internal/fields"
	"github.com/joseph-ayodele/ticket-ingest/internal/records"
	"github.com/joseph-ayodele/ticket-ingest/internal/repository"
	"github.com/joseph-ayodele/ticket-ingest/internal/storage"
)

// FileStore is where originals and artifacts live.
type FileStore interface {
	Save(ctx context.Context, fileName string, r io.Reader, max int64) (string, int64, error)
	Path(key string) (string, error)
	Remove(ctx context.Context, key string) error
}

// ArtifactWriter renders field maps into spreadsheets.
type ArtifactWriter interface {
	WriteSingle(ctx context.Context, fs extract.Fields, prov export.Provenance, cfg fields.Config, path string) (export.Artifact, error)
	WriteBatch(ctx context.Context, rows []export.DocumentRow, cfg fields.Config, path string) (export.Artifact, error)
}

var (
	_ FileStore      = (*storage.Local)(nil)
	_ ArtifactWriter = (*export.Writer)(nil)
)

// Upload is one file submitted for processing.
type Upload struct {
	FileName   string
	Size       int64 // declared size; <= 0 when unknown
	Body       io.Reader
	Mode       extract.Mode
	UploadedBy *uuid.UUID
	Fields     fields.Config
}

// Outcome summarizes a processed upload. On rejection only State, Message
// and the fields reached so far are set.
type Outcome struct {
	State     State
	Message   string
	Record    *entity.DocumentRecord
	Result    extract.Result
	Fallbacks []extract.Field
	Skipped   []extract.Field
	Artifact  export.Artifact
	OCRMethod string
	Pages     int
}

type Options struct {
	MaxUploadBytes int64
	Now            func() time.Time
}

type Processor struct {
	uploads   FileStore
	artifacts FileStore
	text      extract.TextExtractor
	fields    extract.FieldExtractor
	builder   *records.Builder
	records   repository.DocumentRecordRepository
	writer    ArtifactWriter
	maxBytes  int64
	now       func() time.Time
	logger    *slog.Logger
}

func NewProcessor(
	uploads, artifacts FileStore,
	text extract.TextExtractor,
	fx extract.FieldExtractor,
	recs repository.DocumentRecordRepository,
	writer ArtifactWriter,
	opts Options,
	logger *slog.Logger,
) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = constants.MaxUploadBytes
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Processor{
		uploads:   uploads,
		artifacts: artifacts,
		text:      text,
		fields:    fx,
		builder:   records.NewBuilder(logger, opts.Now),
		records:   recs,
		writer:    writer,
		maxBytes:  opts.MaxUploadBytes,
		now:       opts.Now,
		logger:    logger,
	}
}

// attempt tracks the files written for one upload so a rejection can undo them.
type attempt struct {
	uploadKey   string
	artifactKey string
}

// Process runs the upload state machine. A rejection is returned as a
// *RejectionError together with an Outcome carrying the user message.
func (p *Processor) Process(ctx context.Context, up Upload) (Outcome, error) {
	start := time.Now()
	var att attempt
	out, err := p.process(ctx, up, &att)
	if err != nil {
		p.cleanup(att)
		var rej *RejectionError
		if !errors.As(err, &rej) {
			rej = reject(StateRejected, CodeStorage, "unexpected failure", err)
		}
		out.State = StateRejected
		out.Message = rej.UserMessage()
		p.logger.Warn("pipeline.rejected",
			"file", up.FileName,
			"stage", rej.Stage,
			"code", rej.Code,
			"reason", rej.Reason,
			"error", rej.Err,
		)
		return out, rej
	}
	p.logger.Info("pipeline.done",
		"id", out.Record.ID,
		"file", up.FileName,
		"mode", out.Result.Mode,
		"fallbacks", len(out.Fallbacks),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, nil
}

func (p *Processor) process(ctx context.Context, up Upload, att *attempt) (Outcome, error) {
	var out Outcome

	// Received
	ext := filepath.Ext(up.FileName)
	if !constants.IsAllowedExt(ext) {
		return out, reject(StateReceived, CodeFileType, fmt.Sprintf("extension %q not allowed", ext), nil)
	}
	if up.Size > p.maxBytes {
		return out, reject(StateReceived, CodeFileSize, fmt.Sprintf("%d bytes exceeds %d", up.Size, p.maxBytes), nil)
	}
	key, size, err := p.uploads.Save(ctx, up.FileName, up.Body, p.maxBytes)
	if errors.Is(err, storage.ErrTooLarge) {
		return out, reject(StateReceived, CodeFileSize, fmt.Sprintf("body exceeds %d bytes", p.maxBytes), nil)
	}
	if err != nil {
		return out, reject(StateReceived, CodeStorage, "store upload", err)
	}
	att.uploadKey = key
	out.State = StateReceived

	// TextExtracted
	path, err := p.uploads.Path(key)
	if err != nil {
		return out, reject(StateTextExtracted, CodeStorage, "resolve upload path", err)
	}
	text, err := p.acquireText(ctx, path)
	if err != nil {
		return out, err
	}
	out.State = StateTextExtracted
	out.OCRMethod = text.Method
	out.Pages = len(text.Pages)

	// FieldsExtracted
	cfg := up.Fields
	if len(cfg.Fields) == 0 {
		cfg = fields.Default()
	}
	mode := up.Mode
	if mode == "" {
		mode = extract.ModeMultiPage
	}
	res := p.fields.Extract(text.Pages, mode, cfg)
	out.Result = res
	out.Fallbacks = res.Fallbacks()
	out.State = StateFieldsExtracted
	if res.Recovered {
		p.logger.Warn("pipeline.extract.recovered", "file", up.FileName)
	}

	// Validated
	if err := p.validate(res, cfg); err != nil {
		return out, err
	}
	out.State = StateValidated

	// Persisted
	artifactKey := strings.TrimSuffix(key, filepath.Ext(key)) + ".xlsx"
	rec, skipped := p.builder.Build(res.Fields, records.UploadContext{
		OriginalFile: key,
		ExcelFile:    artifactKey,
		UploadedBy:   up.UploadedBy,
		FileSize:     size,
	})
	out.Skipped = skipped
	if err := p.records.Create(ctx, rec); err != nil {
		return out, reject(StatePersisted, CodeStorage, "insert record", err)
	}
	out.Record = rec
	out.State = StatePersisted
	p.logger.Info("pipeline.persist.ok", "id", rec.ID, "weigh_date", rec.WeighDate)

	// ArtifactGenerated
	att.artifactKey = artifactKey
	if err := p.writeArtifact(ctx, rec, res, cfg, up.FileName); err != nil {
		if derr := p.records.Delete(context.WithoutCancel(ctx), rec.ID); derr != nil {
			p.logger.Error("pipeline.compensate.failed", "id", rec.ID, "error", derr)
		}
		out.Record = nil
		return out, err
	}
	out.Artifact = export.Artifact{Path: artifactKey}
	out.State = StateArtifactGenerated
	return out, nil
}

func (p *Processor) writeArtifact(ctx context.Context, rec *entity.DocumentRecord, res extract.Result, cfg fields.Config, source string) error {
	path, err := p.artifacts.Path(rec.ExcelFile)
	if err != nil {
		return reject(StateArtifactGenerated, CodeArtifact, "resolve artifact path", err)
	}
	art, err := p.writer.WriteSingle(ctx, res.Fields, export.Provenance{
		Mode:        res.Mode,
		GeneratedAt: p.now(),
		SourceFile:  source,
		Fallbacks:   res.Fallbacks(),
		Recovered:   res.Recovered,
	}, cfg, path)
	if err != nil {
		return reject(StateArtifactGenerated, CodeArtifact, "write artifact", err)
	}
	if art.Minimal {
		p.logger.Warn("pipeline.artifact.minimal", "id", rec.ID, "path", path)
	}
	return nil
}

// cleanup removes whatever the attempt wrote. Failures are only logged.
func (p *Processor) cleanup(att attempt) {
	ctx := context.Background()
	if att.uploadKey != "" {
		if err := p.uploads.Remove(ctx, att.uploadKey); err != nil {
			p.logger.Warn("pipeline.cleanup.failed", "key", att.uploadKey, "error", err)
		}
	}
	if att.artifactKey != "" {
		if err := p.artifacts.Remove(ctx, att.artifactKey); err != nil {
			p.logger.Warn("pipeline.cleanup.failed", "key", att.artifactKey, "error", err)
		}
	}
}

// Delete removes the record and both of its files. Missing files are tolerated.
func (p *Processor) Delete(ctx context.Context, id uuid.UUID) error {
	rec, err := p.records.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := p.records.Delete(ctx, id); err != nil {
		return err
	}
	// the row is gone; the files go too even if the caller has left
	fileCtx := context.WithoutCancel(ctx)
	if err := p.uploads.Remove(fileCtx, rec.OriginalFile); err != nil {
		p.logger.Warn("pipeline.delete.file_failed", "id", id, "key", rec.OriginalFile, "error", err)
	}
	if err := p.artifacts.Remove(fileCtx, rec.ExcelFile); err != nil {
		p.logger.Warn("pipeline.delete.file_failed", "id", id, "key", rec.ExcelFile, "error", err)
	}
	p.logger.Info("pipeline.delete.ok", "id", id)
	return nil
}
