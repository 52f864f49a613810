// Package report renders the PDF verification report of a stored ticket.
package report

import (
	"bytes"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jung-kurt/gofpdf"
	"github.com/skip2/go-qrcode"

	"github.com/joseph-ayodele/ticket-ingest/internal/entity"
	"github.com/joseph-ayodele/ticket-ingest/internal/extract"
	"github.com/joseph-ayodele/ticket-ingest/internal/fields"
	"github.com/joseph-ayodele/ticket-ingest/internal/records"
)

const codeStampLayout = "20060102150405"

// SecurityCode identifies one rendering of a record's report.
func SecurityCode(id uuid.UUID, at time.Time) string {
	return fmt.Sprintf("SEC-%s-%s", id, at.UTC().Format(codeStampLayout))
}

type Generator struct {
	logger *slog.Logger
	now    func() time.Time
}

func NewGenerator(logger *slog.Logger, now func() time.Time) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	if now == nil {
		now = time.Now
	}
	return &Generator{logger: logger, now: now}
}

// Rendered is a generated report and the security code printed on it.
type Rendered struct {
	PDF          []byte
	SecurityCode string
	GeneratedAt  time.Time
}

// Render lays out the record fields, the security code and its QR code on one A4 page.
func (g *Generator) Render(rec *entity.DocumentRecord, cfg fields.Config) (Rendered, error) {
	at := g.now().UTC()
	code := SecurityCode(rec.ID, at)

	qrPng, err := qrcode.Encode(code, qrcode.Medium, 256)
	if err != nil {
		return Rendered{}, fmt.Errorf("encode qr: %w", err)
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(true, 20)
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("Arial", "I", 8)
		pdf.CellFormat(0, 5, tr("Código de seguridad: "+code), "", 0, "R", false, 0, "")
	})
	pdf.AddPage()

	pdf.SetFillColor(0, 59, 113)
	pdf.Rect(0, 0, 210, 28, "F")
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Arial", "B", 18)
	pdf.SetXY(15, 8)
	pdf.CellFormat(0, 8, tr("Reporte de verificación de ticket"), "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.SetX(15)
	pdf.CellFormat(0, 6, tr("Documento "+rec.ID.String()), "", 1, "L", false, 0, "")
	pdf.SetTextColor(0, 0, 0)

	imgOptions := gofpdf.ImageOptions{ImageType: "PNG", ReadDpi: true}
	pdf.RegisterImageOptionsReader("qr", imgOptions, bytes.NewReader(qrPng))
	pdf.ImageOptions("qr", 160, 34, 35, 35, false, imgOptions, 0, "")

	pdf.SetXY(15, 36)
	pdf.SetFont("Arial", "", 10)
	meta := [][2]string{
		{"Archivo original", rec.OriginalFile},
		{"Registrado", rec.CreatedAt.UTC().Format("2006-01-02 15:04:05")},
		{"Generado", at.Format("2006-01-02 15:04:05")},
		{"Estado", rec.Status},
	}
	if len(rec.FallbackFields) > 0 {
		meta = append(meta, [2]string{"Campos sintetizados", strings.Join(rec.FallbackFields, ", ")})
	}
	for _, kv := range meta {
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(45, 6, tr(kv[0]), "", 0, "L", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		pdf.CellFormat(95, 6, tr(kv[1]), "", 1, "L", false, 0, "")
	}

	pdf.SetY(76)
	pdf.SetFont("Arial", "B", 11)
	pdf.SetFillColor(230, 236, 245)
	pdf.CellFormat(60, 7, tr("Campo"), "1", 0, "L", true, 0, "")
	pdf.CellFormat(120, 7, tr("Valor"), "1", 1, "L", true, 0, "")
	pdf.SetFont("Arial", "", 10)

	fs := records.Fields(rec)
	for _, f := range extract.All() {
		r, ok := fs.Get(f)
		if !ok {
			continue
		}
		val := r.Value.String()
		if r.Status == extract.FallbackUsed {
			val += " (*)"
		}
		pdf.CellFormat(60, 6, tr(cfg.Display(string(f))), "1", 0, "L", false, 0, "")
		pdf.MultiCell(120, 6, tr(val), "1", "L", false)
	}

	if len(rec.FallbackFields) > 0 {
		pdf.Ln(3)
		pdf.SetFont("Arial", "I", 9)
		pdf.MultiCell(0, 5, tr("(*) Valor sintetizado: el dato no se pudo leer del documento."), "", "L", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return Rendered{}, fmt.Errorf("render pdf: %w", err)
	}
	g.logger.Info("report.pdf.ok", "id", rec.ID, "security_code", code, "bytes", buf.Len())
	return Rendered{PDF: buf.Bytes(), SecurityCode: code, GeneratedAt: at}, nil
}
