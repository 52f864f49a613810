package extract

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Converter turns a trimmed capture into a typed value.
type Converter func(raw string) (Value, error)

// Rule maps ordered patterns to one field. The first matching pattern wins;
// a conversion failure leaves the field absent.
type Rule struct {
	Field    Field
	Patterns []*regexp.Regexp
	Convert  Converter
}

var errEmpty = errors.New("empty capture")

func (r Rule) apply(text string) (Value, bool) {
	for _, re := range r.Patterns {
		m := re.FindStringSubmatch(text)
		if len(m) < 2 {
			continue
		}
		v, err := r.Convert(strings.TrimSpace(m[1]))
		if err != nil {
			return Value{}, false
		}
		return v, true
	}
	return Value{}, false
}

func line(p string) *regexp.Regexp { return regexp.MustCompile(`(?i)` + p) }
func span(p string) *regexp.Regexp { return regexp.MustCompile(`(?is)` + p) }

func lines(ps ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(ps))
	for i, p := range ps {
		out[i] = line(p)
	}
	return out
}

func textRule(f Field, patterns ...string) Rule {
	return Rule{Field: f, Patterns: lines(patterns...), Convert: convertText}
}

func numberRule(f Field, patterns ...string) Rule {
	return Rule{Field: f, Patterns: lines(patterns...), Convert: convertNumber}
}

func timeRule(f Field, layouts []string, patterns ...string) Rule {
	return Rule{Field: f, Patterns: lines(patterns...), Convert: timeConverter(layouts...)}
}

// spanRule captures text that may wrap lines, up to the next section marker.
func spanRule(f Field, patterns ...string) Rule {
	res := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		res[i] = span(p)
	}
	return Rule{Field: f, Patterns: res, Convert: convertSpan}
}

func convertText(raw string) (Value, error) {
	if raw == "" {
		return Value{}, errEmpty
	}
	return StringValue(raw), nil
}

var (
	reWhitespace = regexp.MustCompile(`\s+`)
	reMeridiem   = regexp.MustCompile(`(?i)\s+([AP]M)$`)
)

const quoteChars = "\"'“”‘’«»"

func convertSpan(raw string) (Value, error) {
	s := strings.Map(func(r rune) rune {
		if strings.ContainsRune(quoteChars, r) {
			return -1
		}
		return r
	}, raw)
	s = strings.TrimSpace(reWhitespace.ReplaceAllString(s, " "))
	s = strings.Trim(s, " :;,-")
	if s == "" {
		return Value{}, errEmpty
	}
	return StringValue(s), nil
}

func parseNumber(raw string) (float64, error) {
	s := strings.ReplaceAll(raw, ",", "")
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return 0, errEmpty
	}
	return strconv.ParseFloat(s, 64)
}

func convertNumber(raw string) (Value, error) {
	n, err := parseNumber(raw)
	if err != nil {
		return Value{}, err
	}
	return NumberValue(n), nil
}

// Layouts used on scale tickets.
const (
	LayoutTicketStamp = "Jan 2 2006 3:04PM"
	LayoutDayFirst    = "2/1/2006"
	LayoutDayFirstHM  = "2/1/2006 15:04"
)

func normalizeStamp(raw string) string {
	s := strings.ToUpper(strings.TrimSpace(reWhitespace.ReplaceAllString(raw, " ")))
	return reMeridiem.ReplaceAllString(s, "$1")
}

func parseStamp(raw string, layouts ...string) (time.Time, error) {
	s := normalizeStamp(raw)
	for _, l := range layouts {
		if t, err := time.ParseInLocation(l, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", raw)
}

func timeConverter(layouts ...string) Converter {
	return func(raw string) (Value, error) {
		t, err := parseStamp(raw, layouts...)
		if err != nil {
			return Value{}, err
		}
		return TimeValue(t), nil
	}
}
