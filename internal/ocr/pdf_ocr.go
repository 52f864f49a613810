package ocr

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/joseph-ayodele/ticket-ingest/constants"
)

// extractPDF reads the embedded text layer page by page and only falls back
// to pdftotext, then rasterization plus tesseract, for pages that come back empty.
func (e *Extractor) extractPDF(ctx context.Context, path string) (ExtractionResult, error) {
	res := ExtractionResult{SourceType: constants.PDF, Language: e.cfg.TesseractLang}

	count, err := pageCount(path)
	if err != nil {
		res.Warnings = append(res.Warnings, fmt.Sprintf("page count: %v", err))
	}

	pages, err := textLayer(path)
	if err != nil {
		res.Warnings = append(res.Warnings, fmt.Sprintf("text layer: %v", err))
	}
	if count < len(pages) {
		count = len(pages)
	}
	if count == 0 {
		count = 1
	}
	if e.cfg.MaxPages > 0 && count > e.cfg.MaxPages {
		count = e.cfg.MaxPages
	}
	for len(pages) < count {
		pages = append(pages, "")
	}
	pages = pages[:count]

	var fromText, fromOCR int
	var layoutPages []string
	layoutTried := false
	for i := range pages {
		pages[i] = Normalize(pages[i])
		if usable(pages[i]) {
			fromText++
			continue
		}
		if !layoutTried {
			layoutTried = true
			lp, w, err := e.pdfToText(ctx, path)
			res.Warnings = append(res.Warnings, w...)
			if err == nil {
				layoutPages = lp
			}
		}
		if i < len(layoutPages) {
			if t := Normalize(layoutPages[i]); usable(t) {
				pages[i] = t
				fromText++
				continue
			}
		}
		t, w, err := e.pageToOCR(ctx, path, i+1)
		res.Warnings = append(res.Warnings, w...)
		if err != nil {
			e.logger.Warn("page ocr failed", "path", path, "page", i+1, "error", err)
			continue
		}
		pages[i] = Normalize(t)
		fromOCR++
	}

	res.Pages = pages
	res.Text = JoinPages(pages)
	switch {
	case fromOCR == 0:
		res.Method = "pdf-text"
		res.Confidence = 0.95
	case fromText == 0:
		res.Method = "pdf-ocr"
		res.Confidence = heuristicConfidence(res.Text)
	default:
		res.Method = "pdf-mixed"
		res.Confidence = (0.95 + heuristicConfidence(res.Text)) / 2
	}
	e.logger.Info("pdf extracted",
		"path", path, "pages", len(pages), "method", res.Method,
		"text_pages", fromText, "ocr_pages", fromOCR)
	return res, nil
}

func usable(s string) bool {
	return len(strings.TrimSpace(s)) >= constants.MinOCRTextLen
}

func pageCount(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	pctx, err := api.ReadContext(f, conf)
	if err != nil {
		return 0, fmt.Errorf("read pdf context: %w", err)
	}
	if err := pctx.EnsurePageCount(); err != nil {
		return 0, fmt.Errorf("ensure page count: %w", err)
	}
	return pctx.PageCount, nil
}

func textLayer(path string) (pages []string, err error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("malformed text layer: %v", rec)
		}
	}()

	n := r.NumPage()
	pages = make([]string, n)
	for i := 1; i <= n; i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		txt, perr := p.GetPlainText(nil)
		if perr != nil {
			continue
		}
		pages[i-1] = txt
	}
	return pages, nil
}

func (e *Extractor) pdfToText(ctx context.Context, path string) ([]string, []string, error) {
	// pdftotext -layout -enc UTF-8 -eol unix <path> -
	out, errb, err := e.runner.Run(ctx, e.cfg.Pdftotext, "-layout", "-enc", "UTF-8", "-eol", "unix", path, "-")
	if err != nil {
		return nil, []string{strings.TrimSpace(string(errb))}, err
	}
	// form feed separates pages
	return strings.Split(string(out), "\f"), nil, nil
}

func (e *Extractor) pageToOCR(ctx context.Context, path string, page int) (string, []string, error) {
	tmpDir, err := os.MkdirTemp("", "tk-pp-*")
	if err != nil {
		return "", nil, err
	}
	defer func() {
		if err := os.RemoveAll(tmpDir); err != nil {
			e.logger.Warn("failed to remove temp dir", "dir", tmpDir, "error", err)
		}
	}()

	prefix := filepath.Join(tmpDir, "page")
	n := strconv.Itoa(page)
	// pdftoppm -f N -l N -r 300 -png <in.pdf> <tmp/page>
	_, errb, err := e.runner.Run(ctx, e.cfg.Pdftoppm,
		"-f", n, "-l", n, "-r", strconv.Itoa(e.cfg.DPI), "-png", path, prefix)
	if err != nil {
		return "", []string{strings.TrimSpace(string(errb))}, fmt.Errorf("pdftoppm: %w", err)
	}

	// output name is zero padded by page count: page-1.png, page-01.png, ...
	matches, _ := filepath.Glob(prefix + "-*.png")
	sort.Strings(matches)
	if len(matches) == 0 {
		return "", []string{"pdftoppm produced no images"}, fmt.Errorf("page %d not rendered", page)
	}
	return e.tesseractOCR(ctx, matches[0])
}
