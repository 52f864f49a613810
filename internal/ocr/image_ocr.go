package ocr

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/ticket-ingest/constants"
)

// tsvConfIndex is the zero-based conf column of tesseract's TSV output
// (level page_num block_num par_num line_num word_num left top width height conf text).
const tsvConfIndex = 10

func (e *Extractor) extractImage(ctx context.Context, path string) (ExtractionResult, error) {
	res := ExtractionResult{SourceType: constants.IMAGE, Language: e.cfg.TesseractLang}
	raw, warnings, err := e.tesseractOCR(ctx, path)
	res.Warnings = warnings
	if err != nil {
		return res, err
	}

	page := Normalize(raw)
	var engine float32
	if e.cfg.EnableTSVConfidence {
		c, err := e.tesseractConfidence(ctx, path)
		if err != nil {
			res.Warnings = append(res.Warnings, err.Error())
		}
		engine = c
	}

	res.Pages = []string{page}
	res.Text = JoinPages(res.Pages)
	res.Method = "image-ocr"
	res.Confidence = blend(engine, heuristicConfidence(page))
	return res, nil
}

// blend favors the engine score when tesseract reported one.
func blend(engine, heuristic float32) float32 {
	if engine <= 0 {
		return heuristic
	}
	return min(0.7*engine+0.3*heuristic, 1)
}

func (e *Extractor) tesseractArgs(path string) []string {
	args := []string{
		path, "stdout",
		"--oem", strconv.Itoa(e.cfg.OEM),
		"--psm", strconv.Itoa(e.cfg.PSM),
		"-l", e.cfg.TesseractLang,
	}
	if dir := e.cfg.TessdataDir; dir != "" {
		args = append(args, "--tessdata-dir", dir)
	}
	return args
}

func (e *Extractor) tesseractOCR(ctx context.Context, path string) (string, []string, error) {
	stdout, stderr, err := e.runner.Run(ctx, e.cfg.Tesseract, e.tesseractArgs(path)...)
	if err != nil {
		return "", []string{strings.TrimSpace(string(stderr))}, fmt.Errorf("tesseract: %w", err)
	}
	return reBoxNoise.ReplaceAllString(string(stdout), ""), nil, nil
}

// tesseractConfidence reruns tesseract with the tsv config and averages word confidences.
func (e *Extractor) tesseractConfidence(ctx context.Context, path string) (float32, error) {
	stdout, stderr, err := e.runner.Run(ctx, e.cfg.Tesseract, append(e.tesseractArgs(path), "tsv")...)
	if err != nil {
		return 0, fmt.Errorf("tesseract tsv: %w: %s", err, strings.TrimSpace(string(stderr)))
	}
	return meanWordConfidence(stdout), nil
}

// meanWordConfidence returns the mean of the TSV conf column scaled to 0..1.
// Rows without a word (conf -1) and the header are skipped.
func meanWordConfidence(tsv []byte) float32 {
	sc := bufio.NewScanner(bytes.NewReader(tsv))
	var sum float64
	var words int
	for first := true; sc.Scan(); first = false {
		if first {
			continue
		}
		cols := strings.Split(sc.Text(), "\t")
		if len(cols) <= tsvConfIndex {
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(cols[tsvConfIndex]), 64)
		if err != nil || v < 0 {
			continue
		}
		sum += v
		words++
	}
	if words == 0 {
		return 0
	}
	return float32(sum / float64(words) / 100)
}
