package common

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// ValidationError is one failed rule on one input field.
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationRule returns nil when value passes.
type ValidationRule func(field string, value any) *ValidationError

// Validator collects every failure instead of stopping at the first.
type Validator struct {
	failures []ValidationError
}

func NewValidator() *Validator { return &Validator{} }

func (v *Validator) Field(name string, value any, rules ...ValidationRule) *Validator {
	for _, rule := range rules {
		if f := rule(name, value); f != nil {
			v.failures = append(v.failures, *f)
		}
	}
	return v
}

func (v *Validator) HasErrors() bool { return len(v.failures) > 0 }

func (v *Validator) Errors() []ValidationError { return v.failures }

// ErrorMessage joins the failures with "; ".
func (v *Validator) ErrorMessage() string {
	msgs := make([]string, len(v.failures))
	for i, f := range v.failures {
		msgs[i] = f.Error()
	}
	return strings.Join(msgs, "; ")
}

// Error wraps ErrValidation, or returns nil when every rule passed.
func (v *Validator) Error() error {
	if len(v.failures) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrValidation, v.ErrorMessage())
}

func fail(field string, value any, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: fmt.Sprintf(format, args...)}
}

// text reads strings and string pointers; other types are not text.
func text(value any) (string, bool) {
	switch s := value.(type) {
	case string:
		return s, true
	case *string:
		if s != nil {
			return *s, true
		}
	case fmt.Stringer:
		return s.String(), true
	}
	return "", false
}

func Required(field string, value any) *ValidationError {
	s, ok := text(value)
	if value == nil || (ok && strings.TrimSpace(s) == "") {
		return fail(field, value, "is required")
	}
	if p, isPtr := value.(*string); isPtr && p == nil {
		return fail(field, value, "is required")
	}
	return nil
}

func MinLength(n int) ValidationRule {
	return func(field string, value any) *ValidationError {
		if s, ok := text(value); ok && utf8.RuneCountInString(s) < n {
			return fail(field, value, "must be at least %d characters", n)
		}
		return nil
	}
}

func MaxLength(n int) ValidationRule {
	return func(field string, value any) *ValidationError {
		if s, ok := text(value); ok && utf8.RuneCountInString(s) > n {
			return fail(field, value, "must be at most %d characters", n)
		}
		return nil
	}
}

func OneOf(allowed ...string) ValidationRule {
	return func(field string, value any) *ValidationError {
		s, _ := text(value)
		for _, a := range allowed {
			if s == a {
				return nil
			}
		}
		return fail(field, value, "must be one of: %s", strings.Join(allowed, ", "))
	}
}

var usernamePattern = regexp.MustCompile(`^[a-z0-9._-]{3,64}$`)

// Username accepts lowercase login names.
func Username(field string, value any) *ValidationError {
	if s, _ := text(value); !usernamePattern.MatchString(s) {
		return fail(field, value, "must be 3-64 lowercase letters, digits, '.', '_' or '-'")
	}
	return nil
}
