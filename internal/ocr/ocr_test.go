package ocr

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/jung-kurt/gofpdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	mu        sync.Mutex
	calls     []string
	tesseract string
	pdftotext string
	fail      map[string]error
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
	f.mu.Lock()
	f.calls = append(f.calls, name)
	f.mu.Unlock()
	if err := f.fail[name]; err != nil {
		return nil, []byte("boom"), err
	}
	switch name {
	case "tesseract":
		return []byte(f.tesseract), nil, nil
	case "pdftotext":
		return []byte(f.pdftotext), nil, nil
	case "pdftoppm":
		prefix := args[len(args)-1]
		if err := os.WriteFile(prefix+"-1.png", []byte("png"), 0o644); err != nil {
			return nil, nil, err
		}
		return nil, nil, nil
	}
	return nil, nil, errors.New("unexpected command " + name)
}

func (f *fakeRunner) called(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == name {
			n++
		}
	}
	return n
}

func writePDF(t *testing.T, pages ...string) string {
	t.Helper()
	doc := gofpdf.New("P", "mm", "A4", "")
	doc.SetFont("Helvetica", "", 12)
	for _, p := range pages {
		doc.AddPage()
		if p == "" {
			doc.Rect(20, 20, 50, 30, "D")
			continue
		}
		for _, line := range strings.Split(p, "\n") {
			doc.Cell(0, 8, line)
			doc.Ln(8)
		}
	}
	path := filepath.Join(t.TempDir(), "ticket.pdf")
	require.NoError(t, doc.OutputFileAndClose(path))
	return path
}

func TestExtractImageUsesTesseract(t *testing.T) {
	img := filepath.Join(t.TempDir(), "ticket.png")
	require.NoError(t, os.WriteFile(img, []byte("png"), 0o644))

	r := &fakeRunner{tesseract: "PROCESO: 4521\r\n\tTARA   14,230 KG\n-----\n"}
	e := NewExtractorWithRunner(Config{}, r, nil)

	res, err := e.Extract(context.Background(), img)
	require.NoError(t, err)
	assert.Equal(t, "image-ocr", res.Method)
	assert.Equal(t, []string{"PROCESO: 4521\n TARA 14,230 KG"}, res.Pages)
	assert.True(t, strings.HasPrefix(res.Text, "=== Página 1 ===\n"))
	assert.Equal(t, "spa+eng", res.Language)
	assert.Greater(t, res.Confidence, float32(0.2))
}

func TestExtractImageTesseractFailure(t *testing.T) {
	img := filepath.Join(t.TempDir(), "ticket.jpg")
	require.NoError(t, os.WriteFile(img, []byte("jpg"), 0o644))

	r := &fakeRunner{fail: map[string]error{"tesseract": errors.New("exit status 1")}}
	_, err := NewExtractorWithRunner(Config{}, r, nil).Extract(context.Background(), img)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tesseract")
}

func TestExtractUnsupportedExtension(t *testing.T) {
	_, err := NewExtractorWithRunner(Config{}, &fakeRunner{}, nil).Extract(context.Background(), "notes.docx")
	require.Error(t, err)
}

func TestTesseractArgs(t *testing.T) {
	e := NewExtractorWithRunner(Config{TessdataDir: "/td"}, &fakeRunner{}, nil)
	assert.Equal(t,
		[]string{"a.png", "stdout", "--oem", "3", "--psm", "6", "-l", "spa+eng", "--tessdata-dir", "/td"},
		e.tesseractArgs("a.png"))
}

func TestExtractPDFTextLayer(t *testing.T) {
	path := writePDF(t, "PROCESO: 12345\nTARA 14230 KG", "GUIA DE REMISION EG07-000123")
	r := &fakeRunner{}
	res, err := NewExtractorWithRunner(Config{}, r, nil).Extract(context.Background(), path)
	require.NoError(t, err)

	require.Len(t, res.Pages, 2)
	assert.Contains(t, res.Pages[0], "12345")
	assert.Contains(t, res.Pages[1], "EG07-000123")
	assert.Equal(t, "pdf-text", res.Method)
	assert.Zero(t, r.called("tesseract"))
	assert.Contains(t, res.Text, "=== Página 2 ===")
}

func TestExtractPDFScannedPageFallsBackToOCR(t *testing.T) {
	path := writePDF(t, "")
	r := &fakeRunner{tesseract: "NRO. PESAJE: 778"}
	res, err := NewExtractorWithRunner(Config{}, r, nil).Extract(context.Background(), path)
	require.NoError(t, err)

	require.Len(t, res.Pages, 1)
	assert.Equal(t, "NRO. PESAJE: 778", res.Pages[0])
	assert.Equal(t, "pdf-ocr", res.Method)
	assert.Equal(t, 1, r.called("pdftotext"))
	assert.Equal(t, 1, r.called("pdftoppm"))
}

func TestExtractPDFMaxPages(t *testing.T) {
	path := writePDF(t, "PAGINA UNO CON TEXTO", "PAGINA DOS CON TEXTO", "PAGINA TRES CON TEXTO")
	res, err := NewExtractorWithRunner(Config{MaxPages: 2}, &fakeRunner{}, nil).Extract(context.Background(), path)
	require.NoError(t, err)
	assert.Len(t, res.Pages, 2)
}

func TestNormalizeKeepsDigits(t *testing.T) {
	in := "FECHA:  01/05/2024\r\n\r\n\r\n\r\nNETO\t\t05,120   \n"
	assert.Equal(t, "FECHA: 01/05/2024\n\nNETO 05,120", Normalize(in))
}

func TestSplitPagesRoundTrip(t *testing.T) {
	pages := []string{"uno", "dos\nlinea", "tres"}
	assert.Equal(t, pages, SplitPages(JoinPages(pages)))
	assert.Equal(t, []string{"sin marcas"}, SplitPages("  sin marcas "))
}

func TestHeuristicConfidence(t *testing.T) {
	low := heuristicConfidence("hola")
	high := heuristicConfidence("FECHA 12/03/2024 TARA 14,230 KG BRUTO 42,010 KG NETO 27,780 KG PLACA ABC-123")
	assert.Less(t, low, high)
	assert.LessOrEqual(t, high, float32(1.0))
}

func TestMeanWordConfidence(t *testing.T) {
	tsv := "level\tpage_num\tblock_num\tpar_num\tline_num\tword_num\tleft\ttop\twidth\theight\tconf\ttext\n" +
		"1\t1\t0\t0\t0\t0\t0\t0\t800\t600\t-1\t\n" +
		"5\t1\t1\t1\t1\t1\t10\t10\t50\t20\t90\tTARA\n" +
		"5\t1\t1\t1\t1\t2\t70\t10\t60\t20\t70\t14,230\n"
	assert.InDelta(t, 0.8, meanWordConfidence([]byte(tsv)), 0.0001)
	assert.Zero(t, meanWordConfidence([]byte("level\tconf\n")))
}

func TestBlendConfidence(t *testing.T) {
	assert.Equal(t, float32(0.5), blend(0, 0.5))
	assert.InDelta(t, 0.7*0.9+0.3*0.5, blend(0.9, 0.5), 0.0001)
	assert.LessOrEqual(t, blend(1, 1), float32(1))
}
