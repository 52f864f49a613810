package repository

import (
	"context"
	stdsql "database/sql"
	"database/sql/driver"
	"fmt"
	"log/slog"
	"strings"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/ticket-ingest/internal/common"
	"github.com/joseph-ayodele/ticket-ingest/internal/entity"
)

// ListFilter narrows and pages document listings. A zero Limit means 50.
type ListFilter struct {
	Limit      int
	Offset     int
	UploadedBy *uuid.UUID
}

type DocumentRecordRepository interface {
	Create(ctx context.Context, rec *entity.DocumentRecord) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.DocumentRecord, error)
	List(ctx context.Context, filter ListFilter) ([]*entity.DocumentRecord, error)
	ListByIDs(ctx context.Context, ids []uuid.UUID) ([]*entity.DocumentRecord, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Count(ctx context.Context) (int, error)
}

type documentRecordRepository struct {
	db     *DB
	logger *slog.Logger
}

func NewDocumentRecordRepository(db *DB, logger *slog.Logger) DocumentRecordRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &documentRecordRepository{
		db:     db,
		logger: logger,
	}
}

var recordColumns = []string{
	"id",
	"process_number", "weigh_number", "card_number", "operation",
	"weigh_date", "tare_date", "gross_date", "net_date",
	"tare_weight", "gross_weight", "net_weight",
	"plate_tractor", "plate_trailer", "driver", "provider", "recipient_ruc",
	"product", "concentration", "verification_code", "guide_number",
	"origin_address", "destination_address", "observations",
	"original_file", "excel_file", "uploaded_by", "status", "file_size",
	"fallback_fields", "created_at",
}

func nullable[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}

func recordValues(r *entity.DocumentRecord) []any {
	return []any{
		r.ID,
		nullable(r.ProcessNumber), nullable(r.WeighNumber), nullable(r.CardNumber), nullable(r.Operation),
		r.WeighDate, nullable(r.TareDate), nullable(r.GrossDate), nullable(r.NetDate),
		nullable(r.TareWeight), nullable(r.GrossWeight), nullable(r.NetWeight),
		nullable(r.PlateTractor), nullable(r.PlateTrailer), nullable(r.Driver), nullable(r.Provider), nullable(r.RecipientRUC),
		nullable(r.Product), nullable(r.Concentration), nullable(r.VerificationCode), nullable(r.GuideNumber),
		nullable(r.OriginAddress), nullable(r.DestinationAddress), nullable(r.Observations),
		r.OriginalFile, r.ExcelFile, nullable(r.UploadedBy), r.Status, r.FileSize,
		strings.Join(r.FallbackFields, ","), r.CreatedAt,
	}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(sc scanner) (*entity.DocumentRecord, error) {
	var (
		r        entity.DocumentRecord
		fallback string
	)
	// pointer columns scan NULL as nil
	err := sc.Scan(
		&r.ID,
		&r.ProcessNumber, &r.WeighNumber, &r.CardNumber, &r.Operation,
		&r.WeighDate, &r.TareDate, &r.GrossDate, &r.NetDate,
		&r.TareWeight, &r.GrossWeight, &r.NetWeight,
		&r.PlateTractor, &r.PlateTrailer, &r.Driver, &r.Provider, &r.RecipientRUC,
		&r.Product, &r.Concentration, &r.VerificationCode, &r.GuideNumber,
		&r.OriginAddress, &r.DestinationAddress, &r.Observations,
		&r.OriginalFile, &r.ExcelFile, &r.UploadedBy, &r.Status, &r.FileSize,
		&fallback, &r.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	r.FallbackFields = []string{}
	if fallback != "" {
		r.FallbackFields = strings.Split(fallback, ",")
	}
	return &r, nil
}

func dbError(message string, err error) error {
	return common.NewAppError("DATABASE_ERROR", message, fmt.Errorf("%w: %w", common.ErrDatabase, err))
}

func (r *documentRecordRepository) Create(ctx context.Context, rec *entity.DocumentRecord) error {
	vals := recordValues(rec)
	if err := recordTable.validate(recordColumns, vals); err != nil {
		return common.NewAppError("VALIDATION_ERROR", "invalid document record", fmt.Errorf("%w: %w", common.ErrValidation, err))
	}
	query, args := entsql.Dialect(r.db.Dialect()).
		Insert(recordTable.table.Name).
		Columns(recordColumns...).
		Values(vals...).
		Query()

	tx, err := r.db.drv.Tx(ctx)
	if err != nil {
		r.logger.Error("failed to begin transaction", "error", err)
		return dbError("begin transaction", err)
	}
	var res stdsql.Result
	if err := tx.Exec(ctx, query, args, &res); err != nil {
		if rerr := tx.Rollback(); rerr != nil {
			r.logger.Error("failed to roll back document insert", "id", rec.ID, "error", rerr)
		}
		r.logger.Error("failed to insert document record", "id", rec.ID, "error", err)
		return dbError("insert document record", err)
	}
	if err := tx.Commit(); err != nil {
		r.logger.Error("failed to commit document insert", "id", rec.ID, "error", err)
		return dbError("commit document record", err)
	}
	r.logger.Debug("document record inserted", "id", rec.ID, "process_number", nullable(rec.ProcessNumber))
	return nil
}

func (r *documentRecordRepository) query(ctx context.Context, sel *entsql.Selector) ([]*entity.DocumentRecord, error) {
	query, args := sel.Query()
	var rows entsql.Rows
	if err := r.db.drv.Query(ctx, query, args, &rows); err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*entity.DocumentRecord
	for rows.Next() {
		rec, err := scanRecord(&rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *documentRecordRepository) selectRecords() *entsql.Selector {
	return entsql.Dialect(r.db.Dialect()).
		Select(recordColumns...).
		From(entsql.Table(recordTable.table.Name))
}

func (r *documentRecordRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.DocumentRecord, error) {
	recs, err := r.query(ctx, r.selectRecords().Where(entsql.EQ("id", id)))
	if err != nil {
		r.logger.Error("failed to get document record", "id", id, "error", err)
		return nil, dbError("get document record", err)
	}
	if len(recs) == 0 {
		return nil, common.NewAppError("NOT_FOUND", fmt.Sprintf("document %s not found", id), common.ErrNotFound)
	}
	return recs[0], nil
}

func (r *documentRecordRepository) List(ctx context.Context, filter ListFilter) ([]*entity.DocumentRecord, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	sel := r.selectRecords().OrderBy(entsql.Desc("created_at")).Limit(limit)
	if filter.Offset > 0 {
		sel = sel.Offset(filter.Offset)
	}
	if filter.UploadedBy != nil {
		sel = sel.Where(entsql.EQ("uploaded_by", *filter.UploadedBy))
	}
	recs, err := r.query(ctx, sel)
	if err != nil {
		r.logger.Error("failed to list document records", "error", err)
		return nil, dbError("list document records", err)
	}
	return recs, nil
}

// ListByIDs returns the records in the order of ids; unknown ids are skipped.
func (r *documentRecordRepository) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]*entity.DocumentRecord, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	args := make([]driver.Value, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	recs, err := r.query(ctx, r.selectRecords().Where(entsql.InValues("id", args...)))
	if err != nil {
		r.logger.Error("failed to list document records by id", "count", len(ids), "error", err)
		return nil, dbError("list document records", err)
	}
	byID := make(map[uuid.UUID]*entity.DocumentRecord, len(recs))
	for _, rec := range recs {
		byID[rec.ID] = rec
	}
	out := make([]*entity.DocumentRecord, 0, len(ids))
	for _, id := range ids {
		if rec, ok := byID[id]; ok {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (r *documentRecordRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query, args := entsql.Dialect(r.db.Dialect()).
		Delete(recordTable.table.Name).
		Where(entsql.EQ("id", id)).
		Query()
	var res stdsql.Result
	if err := r.db.drv.Exec(ctx, query, args, &res); err != nil {
		r.logger.Error("failed to delete document record", "id", id, "error", err)
		return dbError("delete document record", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return dbError("delete document record", err)
	}
	if n == 0 {
		return common.NewAppError("NOT_FOUND", fmt.Sprintf("document %s not found", id), common.ErrNotFound)
	}
	return nil
}

func (r *documentRecordRepository) Count(ctx context.Context) (int, error) {
	return count(ctx, r.db, recordTable.table.Name)
}

func count(ctx context.Context, db *DB, table string) (int, error) {
	query, args := entsql.Dialect(db.Dialect()).
		Select(entsql.Count("*")).
		From(entsql.Table(table)).
		Query()
	var rows entsql.Rows
	if err := db.drv.Query(ctx, query, args, &rows); err != nil {
		return 0, dbError("count "+table, err)
	}
	defer rows.Close()
	n := 0
	if rows.Next() {
		if err := rows.Scan(&n); err != nil {
			return 0, dbError("count "+table, err)
		}
	}
	if err := rows.Err(); err != nil {
		return 0, dbError("count "+table, err)
	}
	return n, nil
}
