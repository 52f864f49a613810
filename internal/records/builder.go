// Package records maps extracted fields onto persisted document records.
package records

import (
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/ticket-ingest/constants"
	"github.com/joseph-ayodele/ticket-ingest/internal/entity"
	"github.com/joseph-ayodele/ticket-ingest/internal/extract"
)

// UploadContext carries the metadata of the upload a record is built for.
type UploadContext struct {
	OriginalFile string
	ExcelFile    string
	UploadedBy   *uuid.UUID
	FileSize     int64
}

type Builder struct {
	now    func() time.Time
	logger *slog.Logger
}

func NewBuilder(logger *slog.Logger, now func() time.Time) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	if now == nil {
		now = time.Now
	}
	return &Builder{now: now, logger: logger}
}

// Build copies every present field with a column onto a new record and
// returns the present fields that have none.
func (b *Builder) Build(fs extract.Fields, uc UploadContext) (*entity.DocumentRecord, []extract.Field) {
	now := b.now()
	rec := &entity.DocumentRecord{
		ID:             uuid.New(),
		OriginalFile:   uc.OriginalFile,
		ExcelFile:      uc.ExcelFile,
		UploadedBy:     uc.UploadedBy,
		Status:         string(constants.RecordStatusProcessed),
		FileSize:       uc.FileSize,
		CreatedAt:      now,
		FallbackFields: []string{},
	}

	var skipped []extract.Field
	for _, f := range extract.All() {
		r, ok := fs.Get(f)
		if !ok {
			continue
		}
		col, ok := columns[f]
		if !ok {
			b.logger.Debug("records.field.skipped", "field", f)
			skipped = append(skipped, f)
			continue
		}
		if r.Value.Kind != f.Kind() {
			b.logger.Warn("records.field.kind_mismatch", "field", f, "kind", r.Value.Kind)
			skipped = append(skipped, f)
			continue
		}
		col.set(rec, r.Value)
		if r.Status == extract.FallbackUsed {
			rec.FallbackFields = append(rec.FallbackFields, string(f))
		}
	}
	for f := range fs {
		if _, known := extract.Known(string(f)); !known {
			b.logger.Warn("records.field.unknown", "field", f)
			skipped = append(skipped, f)
		}
	}

	if rec.WeighDate.IsZero() {
		rec.WeighDate = now
	}
	return rec, skipped
}

// Fields rebuilds the field map of a stored record. Values listed in
// FallbackFields keep their FallbackUsed status; the rest read as Matched.
func Fields(rec *entity.DocumentRecord) extract.Fields {
	fallback := make(map[string]bool, len(rec.FallbackFields))
	for _, f := range rec.FallbackFields {
		fallback[f] = true
	}
	fs := extract.Fields{}
	for _, f := range extract.All() {
		col, ok := columns[f]
		if !ok {
			continue
		}
		v, ok := col.get(rec)
		if !ok {
			continue
		}
		st := extract.Matched
		if fallback[string(f)] {
			st = extract.FallbackUsed
		}
		fs.Set(f, v, st)
	}
	return fs
}
