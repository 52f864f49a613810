package pipeline

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/ticket-ingest/internal/entity"
	"github.com/joseph-ayodele/ticket-ingest/internal/export"
	"github.com/joseph-ayodele/ticket-ingest/internal/fields"
	"github.com/joseph-ayodele/ticket-ingest/internal/records"
	"github.com/joseph-ayodele/ticket-ingest/internal/repository"
)

// batchLimit caps a report over "all" documents.
const batchLimit = 10000

// BatchReport writes a batch workbook for ids, or for every stored record when
// ids is empty, and returns the artifact key.
func (p *Processor) BatchReport(ctx context.Context, ids []uuid.UUID, cfg fields.Config) (string, export.Artifact, error) {
	var (
		recs []*entity.DocumentRecord
		err  error
	)
	if len(ids) == 0 {
		recs, err = p.records.List(ctx, repository.ListFilter{Limit: batchLimit})
		// newest first from the repository; reports read oldest first
		for i, j := 0, len(recs)-1; i < j; i, j = i+1, j-1 {
			recs[i], recs[j] = recs[j], recs[i]
		}
	} else {
		recs, err = p.records.ListByIDs(ctx, ids)
	}
	if err != nil {
		return "", export.Artifact{}, err
	}

	rows := make([]export.DocumentRow, len(recs))
	for i, rec := range recs {
		rows[i] = export.DocumentRow{FileName: displayName(rec.OriginalFile), Fields: records.Fields(rec)}
	}
	key := fmt.Sprintf("batch_%s.xlsx", p.now().UTC().Format("20060102_150405"))
	path, err := p.artifacts.Path(key)
	if err != nil {
		return "", export.Artifact{}, err
	}
	if len(cfg.Fields) == 0 {
		cfg = fields.Default()
	}
	art, err := p.writer.WriteBatch(ctx, rows, cfg, path)
	if err != nil {
		return "", export.Artifact{}, fmt.Errorf("batch report: %w", err)
	}
	p.logger.Info("pipeline.batch.ok", "key", key, "documents", len(rows), "minimal", art.Minimal)
	return key, art, nil
}

// displayName strips the uuid_ prefix from a stored file key.
func displayName(key string) string {
	base := filepath.Base(key)
	if len(base) > 37 && base[36] == '_' {
		if _, err := uuid.Parse(base[:36]); err == nil {
			return base[37:]
		}
	}
	return base
}
