package extract

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Status records how a field obtained its value.
type Status int

const (
	Absent Status = iota
	Matched
	Derived
	FallbackUsed
)

func (s Status) String() string {
	switch s {
	case Matched:
		return "matched"
	case Derived:
		return "derived"
	case FallbackUsed:
		return "fallback"
	default:
		return "absent"
	}
}

func (s Status) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

type Kind int

const (
	KindString Kind = iota
	KindNumber
	KindTime
)

// DisplayTimeLayout is how time values are rendered as text.
const DisplayTimeLayout = "2006-01-02 15:04"

// Value is a typed field value. Only the member matching Kind is meaningful.
type Value struct {
	Kind Kind
	Str  string
	Num  float64
	Time time.Time
}

func StringValue(s string) Value { return Value{Kind: KindString, Str: s} }
func NumberValue(n float64) Value { return Value{Kind: KindNumber, Num: n} }
func TimeValue(t time.Time) Value { return Value{Kind: KindTime, Time: t} }
func (v Value) Interface() any { return v.native() }
func (v Value) MarshalJSON() ([]byte, error) { return json.Marshal(v.native()) }

func (v Value) native() any {
	switch v.Kind {
	case KindNumber:
		return v.Num
	case KindTime:
		return v.Time
	default:
		return v.Str
	}
}

func (v Value) String() string {
	switch v.Kind {
	case KindNumber:
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	case KindTime:
		return v.Time.Format(DisplayTimeLayout)
	default:
		return v.Str
	}
}

type FieldResult struct {
	Value  Value  `json:"value"`
	Status Status `json:"status"`
}

func (r FieldResult) Present() bool { return r.Status != Absent }

// Fields is the extracted field map. Missing keys are absent.
type Fields map[Field]FieldResult

func (fs Fields) Get(f Field) (FieldResult, bool) {
	r, ok := fs[f]
	if !ok || !r.Present() {
		return FieldResult{}, false
	}
	return r, true
}

func (fs Fields) String(f Field) (string, bool) {
	r, ok := fs.Get(f)
	if !ok {
		return "", false
	}
	return r.Value.String(), true
}

func (fs Fields) Float(f Field) (float64, bool) {
	r, ok := fs.Get(f)
	if !ok || r.Value.Kind != KindNumber {
		return 0, false
	}
	return r.Value.Num, true
}

func (fs Fields) Time(f Field) (time.Time, bool) {
	r, ok := fs.Get(f)
	if !ok || r.Value.Kind != KindTime {
		return time.Time{}, false
	}
	return r.Value.Time, true
}

// Set stores v under f with the given status.
func (fs Fields) Set(f Field, v Value, st Status) {
	fs[f] = FieldResult{Value: v, Status: st}
}

func (fs Fields) setIfAbsent(f Field, r FieldResult) {
	if _, ok := fs.Get(f); !ok {
		fs[f] = r
	}
}

// Mode selects the rule layout.
type Mode string

const (
	ModeMultiPage Mode = "multipage"
	ModeLegacy    Mode = "legacy"
)

// ParseMode accepts "" as multipage.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeMultiPage:
		return ModeMultiPage, nil
	case ModeLegacy:
		return ModeLegacy, nil
	}
	return "", fmt.Errorf("unknown extraction mode %q", s)
}

type Result struct {
	Mode      Mode
	Fields    Fields
	Recovered bool // extraction failed and Fields holds the fixed placeholder map
}

// Fallbacks lists synthesized fields in canonical order.
func (r Result) Fallbacks() []Field {
	var out []Field
	for _, f := range allFields {
		if fr, ok := r.Fields[f]; ok && fr.Status == FallbackUsed {
			out = append(out, f)
		}
	}
	return out
}
