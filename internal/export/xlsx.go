// Package export renders extracted ticket fields into XLSX workbooks.
package export

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/ticket-ingest/internal/extract"
	"github.com/joseph-ayodele/ticket-ingest/internal/fields"
)

const (
	SheetTicket       = "Ticket"
	SheetObservations = "Observaciones"
	SheetProvenance   = "Procedencia"
	SheetTickets      = "Tickets"
	SheetSummary      = "Resumen"
	SheetMinimal      = "Datos"

	maxColWidth = 50
	stampLayout = "2006-01-02 15:04:05"
)

// coreFields make up the minimal artifact.
var coreFields = []extract.Field{
	extract.ProcessNumber,
	extract.Provider,
	extract.Driver,
	extract.PlateTractor,
	extract.NetWeight,
	extract.WeighDate,
}

// Provenance describes how a field map was produced.
type Provenance struct {
	Mode        extract.Mode
	GeneratedAt time.Time
	SourceFile  string
	Fallbacks   []extract.Field
	Recovered   bool
}

// DocumentRow is one document of a batch report.
type DocumentRow struct {
	FileName string
	Fields   extract.Fields
}

// Artifact reports what was written. Minimal is set when the full layout
// failed and the Datos sheet was written instead.
type Artifact struct {
	Path    string
	Minimal bool
}

type Writer struct {
	logger *slog.Logger
	now    func() time.Time

	// overridable so tests can force the degraded path
	single func(ctx context.Context, f *excelize.File, fs extract.Fields, prov Provenance, cfg fields.Config) error
	batch  func(ctx context.Context, f *excelize.File, rows []DocumentRow, cfg fields.Config) error
}

func NewWriter(logger *slog.Logger, now func() time.Time) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	if now == nil {
		now = time.Now
	}
	w := &Writer{logger: logger, now: now}
	w.single = w.fillSingle
	w.batch = w.fillBatch
	return w
}

// WriteSingle writes the per-document workbook to path.
func (w *Writer) WriteSingle(ctx context.Context, fs extract.Fields, prov Provenance, cfg fields.Config, path string) (Artifact, error) {
	start := time.Now()
	if prov.GeneratedAt.IsZero() {
		prov.GeneratedAt = w.now()
	}
	err := w.save(path, func(f *excelize.File) error { return w.single(ctx, f, fs, prov, cfg) })
	if err == nil {
		w.logger.Info("export.xlsx.ok", "path", path, "layout", "single", "elapsed_ms", time.Since(start).Milliseconds())
		return Artifact{Path: path}, nil
	}
	w.logger.Warn("export.xlsx.degraded", "path", path, "layout", "single", "error", err)
	if err := w.writeMinimal(path, []DocumentRow{{FileName: prov.SourceFile, Fields: fs}}); err != nil {
		return Artifact{}, err
	}
	return Artifact{Path: path, Minimal: true}, nil
}

// WriteBatch writes one Tickets row per document, in input order, plus a summary sheet.
func (w *Writer) WriteBatch(ctx context.Context, rows []DocumentRow, cfg fields.Config, path string) (Artifact, error) {
	start := time.Now()
	err := w.save(path, func(f *excelize.File) error { return w.batch(ctx, f, rows, cfg) })
	if err == nil {
		w.logger.Info("export.xlsx.ok", "path", path, "layout", "batch", "rows", len(rows), "elapsed_ms", time.Since(start).Milliseconds())
		return Artifact{Path: path}, nil
	}
	w.logger.Warn("export.xlsx.degraded", "path", path, "layout", "batch", "error", err)
	if err := w.writeMinimal(path, rows); err != nil {
		return Artifact{}, err
	}
	return Artifact{Path: path, Minimal: true}, nil
}

func (w *Writer) save(path string, fill func(*excelize.File) error) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	if err := fill(f); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("xlsx write: %w", err)
	}
	return nil
}

func (w *Writer) fillSingle(ctx context.Context, f *excelize.File, fs extract.Fields, prov Provenance, cfg fields.Config) error {
	if err := f.SetSheetName("Sheet1", SheetTicket); err != nil {
		return err
	}
	grid := [][]any{{"CODIGO", "VALOR", "DESCRIPCION"}}
	for _, fld := range extract.All() {
		grid = append(grid, []any{string(fld), cellValue(fs, fld), cfg.Display(string(fld))})
	}
	if err := writeGrid(f, SheetTicket, grid); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	obs, _ := fs.String(extract.Observations)
	if err := newSheet(f, SheetObservations, [][]any{{"OBSERVACIONES"}, {obs}}); err != nil {
		return err
	}

	fallbacks := make([]string, len(prov.Fallbacks))
	for i, fb := range prov.Fallbacks {
		fallbacks[i] = string(fb)
	}
	return newSheet(f, SheetProvenance, [][]any{
		{"Modo", string(prov.Mode)},
		{"Generado", prov.GeneratedAt.Format(stampLayout)},
		{"Archivo", prov.SourceFile},
		{"Campos sintetizados", strings.Join(fallbacks, ", ")},
		{"Recuperado", yesNo(prov.Recovered)},
	})
}

func (w *Writer) fillBatch(ctx context.Context, f *excelize.File, rows []DocumentRow, cfg fields.Config) error {
	if err := f.SetSheetName("Sheet1", SheetTickets); err != nil {
		return err
	}
	cols := cfg.Columns()
	header := make([]any, 0, len(cols)+1)
	header = append(header, "Archivo")
	for _, c := range cols {
		header = append(header, c.Display)
	}
	grid := [][]any{header}
	for _, r := range rows {
		line := make([]any, 0, len(cols)+1)
		line = append(line, r.FileName)
		for _, c := range cols {
			line = append(line, cellValue(r.Fields, extract.Field(c.Key)))
		}
		grid = append(grid, line)
	}
	if err := writeGrid(f, SheetTickets, grid); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return newSheet(f, SheetSummary, summarize(rows, w.now()).grid())
}

// writeMinimal is the last resort layout: field/value pairs for the core subset.
func (w *Writer) writeMinimal(path string, rows []DocumentRow) error {
	err := w.save(path, func(f *excelize.File) error {
		if err := f.SetSheetName("Sheet1", SheetMinimal); err != nil {
			return err
		}
		grid := [][]any{{"CAMPO", "VALOR"}}
		for _, r := range rows {
			if len(rows) > 1 || r.FileName != "" {
				grid = append(grid, []any{"archivo", r.FileName})
			}
			for _, fld := range coreFields {
				grid = append(grid, []any{string(fld), cellValue(r.Fields, fld)})
			}
		}
		return writeGrid(f, SheetMinimal, grid)
	})
	if err != nil {
		w.logger.Error("export.xlsx.failed", "path", path, "error", err)
		return fmt.Errorf("write minimal artifact: %w", err)
	}
	w.logger.Info("export.xlsx.minimal", "path", path, "documents", len(rows))
	return nil
}

// cellValue keeps numbers numeric and renders everything else as text.
func cellValue(fs extract.Fields, f extract.Field) any {
	r, ok := fs.Get(f)
	if !ok {
		return ""
	}
	if r.Value.Kind == extract.KindNumber {
		return r.Value.Num
	}
	return r.Value.String()
}

func yesNo(b bool) string {
	if b {
		return "SI"
	}
	return "NO"
}

func newSheet(f *excelize.File, sheet string, grid [][]any) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	return writeGrid(f, sheet, grid)
}

func writeGrid(f *excelize.File, sheet string, grid [][]any) error {
	widths := map[int]int{}
	for r, row := range grid {
		for c, v := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return err
			}
			if n := utf8.RuneCountInString(fmt.Sprint(v)); n > widths[c] {
				widths[c] = n
			}
		}
	}
	for c, n := range widths {
		col, err := excelize.ColumnNumberToName(c + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, col, col, columnWidth(n)); err != nil {
			return err
		}
	}
	return nil
}

func columnWidth(longest int) float64 {
	return float64(min(longest+2, maxColWidth))
}
