// Package extract turns OCR text into typed ticket fields using ordered
// regular-expression rules.
package extract

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joseph-ayodele/ticket-ingest/internal/fields"
)

// Extractor applies page rule sets or the legacy flat rule set. It never
// returns an error: failures collapse into a placeholder result.
type Extractor struct {
	pages  [][]Rule
	legacy []Rule
	now    func() time.Time
	logger *slog.Logger
}

type Option func(*Extractor)

func WithClock(now func() time.Time) Option {
	return func(e *Extractor) { e.now = now }
}

func WithLogger(l *slog.Logger) Option {
	return func(e *Extractor) { e.logger = l }
}

// WithPageRules replaces the rule set for page n (1-based).
func WithPageRules(n int, rules []Rule) Option {
	return func(e *Extractor) {
		for len(e.pages) < n {
			e.pages = append(e.pages, nil)
		}
		e.pages[n-1] = rules
	}
}

func WithLegacyRules(rules []Rule) Option {
	return func(e *Extractor) { e.legacy = rules }
}

func New(opts ...Option) *Extractor {
	e := &Extractor{
		pages:  [][]Rule{scaleTicketRules, manifestRules, declarationRules},
		legacy: legacyRules,
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Extract reads pages in the given mode. Legacy mode treats all pages as one text.
func (e *Extractor) Extract(pages []string, mode Mode, cfg fields.Config) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			msg := fmt.Sprint(r)
			e.logger.Error("extract.recovered", "mode", mode, "panic", msg)
			res = Result{Mode: mode, Fields: recoveredFields(msg, e.now()), Recovered: true}
			filter(res.Fields, cfg)
		}
	}()

	var fs Fields
	switch mode {
	case ModeLegacy:
		text := strings.Join(pages, "\n")
		fs = applyRules(e.legacy, text)
		deriveNet(fs)
		applyFallbacks(fs, text, fallbackTargets(cfg.RequiredKeys()), e.now())
	default:
		mode = ModeMultiPage
		fs = e.extractPages(pages)
		deriveNet(fs)
	}
	filter(fs, cfg)

	res = Result{Mode: mode, Fields: fs}
	e.logger.Debug("extract.done", "mode", mode, "fields", len(fs), "fallbacks", len(res.Fallbacks()))
	return res
}

func (e *Extractor) extractPages(pages []string) Fields {
	out := Fields{}
	for i, text := range pages {
		if i >= len(e.pages) {
			e.logger.Debug("extract.page.ignored", "page", i+1)
			continue
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		// earlier pages win
		for f, r := range applyRules(e.pages[i], text) {
			out.setIfAbsent(f, r)
		}
	}
	return out
}

func applyRules(rules []Rule, text string) Fields {
	fs := Fields{}
	for _, r := range rules {
		if _, ok := fs.Get(r.Field); ok {
			continue
		}
		if v, ok := r.apply(text); ok {
			fs.Set(r.Field, v, Matched)
		}
	}
	applyReadings(fs, text)
	return fs
}

// applyReadings routes every weight reading to its weight/date pair. The
// first reading per label wins and explicit rule matches are kept.
func applyReadings(fs Fields, text string) {
	seen := map[string]bool{}
	for _, m := range reReading.FindAllStringSubmatch(text, -1) {
		label := strings.ToUpper(m[1])
		if seen[label] {
			continue
		}
		seen[label] = true
		target := readingTargets[label]
		if n, err := parseNumber(m[2]); err == nil {
			fs.setIfAbsent(target[0], FieldResult{Value: NumberValue(n), Status: Matched})
		}
		if m[3] != "" {
			if t, err := parseStamp(m[3], LayoutTicketStamp); err == nil {
				fs.setIfAbsent(target[1], FieldResult{Value: TimeValue(t), Status: Matched})
			}
		}
	}
}

func deriveNet(fs Fields) {
	if _, ok := fs.Get(NetWeight); ok {
		return
	}
	gross, okG := fs.Float(GrossWeight)
	tare, okT := fs.Float(TareWeight)
	if okG && okT {
		fs.Set(NetWeight, NumberValue(gross-tare), Derived)
	}
}

func filter(fs Fields, cfg fields.Config) {
	for f := range fs {
		if !cfg.Enabled(string(f)) {
			delete(fs, f)
		}
	}
}
