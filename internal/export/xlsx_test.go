package export

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/ticket-ingest/internal/extract"
	"github.com/joseph-ayodele/ticket-ingest/internal/fields"
)

var fixedNow = time.Date(2026, 1, 15, 8, 0, 0, 0, time.UTC)

func newTestWriter() *Writer {
	return NewWriter(nil, func() time.Time { return fixedNow })
}

func ticketFields(process, provider string, tare, gross, net float64) extract.Fields {
	fs := extract.Fields{}
	fs.Set(extract.ProcessNumber, extract.StringValue(process), extract.Matched)
	fs.Set(extract.Provider, extract.StringValue(provider), extract.Matched)
	fs.Set(extract.Driver, extract.StringValue("JUAN PEREZ"), extract.Matched)
	fs.Set(extract.TareWeight, extract.NumberValue(tare), extract.Matched)
	fs.Set(extract.GrossWeight, extract.NumberValue(gross), extract.Matched)
	fs.Set(extract.NetWeight, extract.NumberValue(net), extract.Derived)
	fs.Set(extract.WeighDate, extract.TimeValue(time.Date(2026, 1, 14, 18, 2, 0, 0, time.UTC)), extract.Matched)
	return fs
}

func rowsOf(t *testing.T, path, sheet string) [][]string {
	t.Helper()
	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(sheet)
	require.NoError(t, err)
	return rows
}

func TestWriteSingleLayout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "ticket.xlsx")
	fs := ticketFields("4521", "PROVEEDOR GENERICO", 16910, 44730, 27820)
	fs.Set(extract.Observations, extract.StringValue("CARGA SELLADA"), extract.Matched)

	art, err := newTestWriter().WriteSingle(context.Background(), fs, Provenance{
		Mode:       extract.ModeLegacy,
		SourceFile: "scan.pdf",
		Fallbacks:  []extract.Field{extract.Provider, extract.PlateTractor},
	}, fields.Default(), path)
	require.NoError(t, err)
	assert.False(t, art.Minimal)

	rows := rowsOf(t, path, SheetTicket)
	require.Len(t, rows, len(extract.All())+1)
	assert.Equal(t, []string{"CODIGO", "VALOR", "DESCRIPCION"}, rows[0])
	assert.Equal(t, []string{"process_number", "4521", "PROCESO"}, rows[1])

	byCode := map[string][]string{}
	for _, r := range rows[1:] {
		byCode[r[0]] = r
	}
	assert.Equal(t, "27820", byCode["net_weight"][1])
	assert.Equal(t, "2026-01-14 18:02", byCode["weigh_date"][1])
	assert.Equal(t, "NETO (KG)", byCode["net_weight"][2])

	obs := rowsOf(t, path, SheetObservations)
	assert.Equal(t, "CARGA SELLADA", obs[1][0])

	prov := rowsOf(t, path, SheetProvenance)
	assert.Equal(t, []string{"Modo", "legacy"}, prov[0])
	assert.Equal(t, []string{"Generado", "2026-01-15 08:00:00"}, prov[1])
	assert.Equal(t, []string{"Archivo", "scan.pdf"}, prov[2])
	assert.Equal(t, []string{"Campos sintetizados", "provider, plate_tractor"}, prov[3])
	assert.Equal(t, []string{"Recuperado", "NO"}, prov[4])
}

func TestWriteBatchRowsInOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "batch.xlsx")
	docs := []DocumentRow{
		{FileName: "a.pdf", Fields: ticketFields("1", "ACME", 100, 300, 200)},
		{FileName: "b.pdf", Fields: ticketFields("2", "ACME", 10, 40, 30)},
		{FileName: "c.png", Fields: ticketFields("3", "OTRO", 1, 2, 1)},
	}
	docs[2].Fields.Set(extract.PlateTractor, extract.StringValue("SIN-PLACA"), extract.FallbackUsed)

	cfg := fields.Config{Fields: []fields.Spec{
		{Key: "process_number", Extract: true, Display: "PROCESO"},
		{Key: "plate_tractor", Extract: false, Display: "PLACA"},
		{Key: "net_weight", Extract: true, Display: "NETO"},
	}}
	art, err := newTestWriter().WriteBatch(context.Background(), docs, cfg, path)
	require.NoError(t, err)
	assert.False(t, art.Minimal)

	rows := rowsOf(t, path, SheetTickets)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"Archivo", "PROCESO", "NETO"}, rows[0])
	assert.Equal(t, []string{"a.pdf", "1", "200"}, rows[1])
	assert.Equal(t, []string{"b.pdf", "2", "30"}, rows[2])
	assert.Equal(t, []string{"c.png", "3", "1"}, rows[3])

	sum := rowsOf(t, path, SheetSummary)
	got := map[string]string{}
	for _, r := range sum[1:] {
		got[r[0]] = r[1]
	}
	assert.Equal(t, "3", got["Total documentos"])
	assert.Equal(t, "111", got["Total tara (kg)"])
	assert.Equal(t, "231", got["Total neto (kg)"])
	assert.Equal(t, "2", got["Proveedores distintos"])
	assert.Equal(t, "1", got["Conductores distintos"])
	assert.Equal(t, "1", got["Documentos con campos sintetizados"])
}

func TestWriteBatchEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.xlsx")
	_, err := newTestWriter().WriteBatch(context.Background(), nil, fields.Default(), path)
	require.NoError(t, err)
	rows := rowsOf(t, path, SheetTickets)
	assert.Len(t, rows, 1)
}

func TestSingleDegradesToMinimal(t *testing.T) {
	w := newTestWriter()
	w.single = func(context.Context, *excelize.File, extract.Fields, Provenance, fields.Config) error {
		return errors.New("layout failed")
	}
	path := filepath.Join(t.TempDir(), "min.xlsx")
	art, err := w.WriteSingle(context.Background(), ticketFields("9", "ACME", 1, 3, 2), Provenance{}, fields.Default(), path)
	require.NoError(t, err)
	assert.True(t, art.Minimal)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{SheetMinimal}, f.GetSheetList())

	rows, err := f.GetRows(SheetMinimal)
	require.NoError(t, err)
	require.Len(t, rows, len(coreFields)+1)
	assert.Equal(t, []string{"CAMPO", "VALOR"}, rows[0])
	assert.Equal(t, []string{"process_number", "9"}, rows[1])
	assert.Equal(t, []string{"net_weight", "2"}, rows[5])
}

func TestBatchDegradesToMinimal(t *testing.T) {
	w := newTestWriter()
	w.batch = func(context.Context, *excelize.File, []DocumentRow, fields.Config) error {
		return errors.New("layout failed")
	}
	path := filepath.Join(t.TempDir(), "min.xlsx")
	docs := []DocumentRow{
		{FileName: "a.pdf", Fields: ticketFields("1", "ACME", 1, 3, 2)},
		{FileName: "b.pdf", Fields: ticketFields("2", "ACME", 1, 3, 2)},
	}
	art, err := w.WriteBatch(context.Background(), docs, fields.Default(), path)
	require.NoError(t, err)
	assert.True(t, art.Minimal)
	rows := rowsOf(t, path, SheetMinimal)
	assert.Len(t, rows, 1+2*(len(coreFields)+1))
	assert.Equal(t, []string{"archivo", "b.pdf"}, rows[1+len(coreFields)+1])
}

func TestMinimalFailureIsReturned(t *testing.T) {
	w := newTestWriter()
	w.single = func(context.Context, *excelize.File, extract.Fields, Provenance, fields.Config) error {
		return errors.New("layout failed")
	}
	// a regular file where the parent directory should be
	parent := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(parent, nil, 0o644))

	_, err := w.WriteSingle(context.Background(), extract.Fields{}, Provenance{}, fields.Default(), filepath.Join(parent, "x.xlsx"))
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "minimal artifact"))
}

func TestColumnWidth(t *testing.T) {
	assert.Equal(t, 7.0, columnWidth(5))
	assert.Equal(t, 50.0, columnWidth(48))
	assert.Equal(t, 50.0, columnWidth(300))

	path := filepath.Join(t.TempDir(), "w.xlsx")
	fs := extract.Fields{}
	fs.Set(extract.OriginAddress, extract.StringValue(strings.Repeat("A", 80)), extract.Matched)
	_, err := newTestWriter().WriteSingle(context.Background(), fs, Provenance{}, fields.Default(), path)
	require.NoError(t, err)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	wB, err := f.GetColWidth(SheetTicket, "B")
	require.NoError(t, err)
	assert.Equal(t, 50.0, wB)
	wA, err := f.GetColWidth(SheetTicket, "A")
	require.NoError(t, err)
	assert.Equal(t, float64(len("destination_address")+2), wA)
}
