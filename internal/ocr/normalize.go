package ocr

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	reCRLF       = regexp.MustCompile(`\r\n?`)
	reTabs       = regexp.MustCompile(`\t+`)
	reMultiSpace = regexp.MustCompile(` {2,}`)
	reMultiBlank = regexp.MustCompile(`\n{3,}`)
	reBoxNoise   = regexp.MustCompile(`(?m)^\s*[_\-=]{3,}\s*$`)
	rePageMarker = regexp.MustCompile(`(?m)^=== P[aá]gina (\d+) ===$`)
)

// Normalize collapses noisy whitespace while keeping line breaks.
// Digits are never rewritten: weights and dates must survive untouched.
func Normalize(s string) string {
	if s == "" {
		return s
	}
	s = reCRLF.ReplaceAllString(s, "\n")
	s = reTabs.ReplaceAllString(s, " ")
	s = reMultiSpace.ReplaceAllString(s, " ")
	s = reMultiBlank.ReplaceAllString(s, "\n\n")
	lines := strings.Split(s, "\n")
	for i := range lines {
		lines[i] = strings.TrimRight(lines[i], " ")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// PageMarker returns the separator line written before page n (1-based).
func PageMarker(n int) string {
	return fmt.Sprintf("=== Página %d ===", n)
}

// JoinPages concatenates page texts, each preceded by its marker.
func JoinPages(pages []string) string {
	var b strings.Builder
	for i, p := range pages {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(PageMarker(i + 1))
		b.WriteString("\n")
		b.WriteString(p)
	}
	return b.String()
}

// SplitPages is the inverse of JoinPages. Text without markers is a single page.
func SplitPages(text string) []string {
	locs := rePageMarker.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return []string{strings.TrimSpace(text)}
	}
	pages := make([]string, 0, len(locs))
	for i, loc := range locs {
		end := len(text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		pages = append(pages, strings.TrimSpace(text[loc[1]:end]))
	}
	return pages
}
