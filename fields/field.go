// Package fields coerces raw request strings into typed filter values
package fields

import (
	"errors"
	"fmt"
	"strings"

	"github.com/amirphl/filterkit/widgets"
)

// Raw is the ordered list of raw parts for one filter; nil means absent
type Raw = widgets.Raw

// Field validates raw parts and produces a typed value.
// A nil value with a nil error means "no value": the filter is skipped.
type Field interface {
	Clean(raw Raw) (any, error)
	Widget() widgets.Widget
	// Arity is the number of raw parts Clean expects; 0 means any number
	Arity() int
	Required() bool
	Label() string
}

// Options are shared by every field constructor
type Options struct {
	Label    string
	Required bool
	// Rules are validator tags checked against the parsed value, e.g. "max=64"
	Rules string
	// Widget overrides the field's default widget
	Widget widgets.Widget
}

func (o Options) widget(fallback widgets.Widget) widgets.Widget {
	if o.Widget != nil {
		return o.Widget
	}
	return fallback
}

// Code classifies a validation failure
type Code string

const (
	RequiredValueMissing Code = "required"
	InvalidScalarValue   Code = "invalid"
	InvalidOperator      Code = "invalid_operator"
	InvalidChoice        Code = "invalid_choice"
)

// NoPart marks an error that is not attributable to a sub-part
const NoPart = -1

// ValidationError is a single coercion failure
type ValidationError struct {
	Code    Code
	Part    int
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Part != NoPart {
		return fmt.Sprintf("part %d: %s", e.Part, e.Message)
	}
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// ValidationErrors collects the failures of a composite field
type ValidationErrors []*ValidationError

func (es ValidationErrors) Error() string {
	msgs := make([]string, len(es))
	for i, e := range es {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "; ")
}

// NewValidationError creates a validation error not tied to a sub-part
func NewValidationError(code Code, message string, err error) *ValidationError {
	return &ValidationError{Code: code, Part: NoPart, Message: message, Err: err}
}

// AsValidationErrors flattens err into its validation errors.
// ok is false when err carries no validation error.
func AsValidationErrors(err error) (ValidationErrors, bool) {
	var many ValidationErrors
	if errors.As(err, &many) {
		return many, true
	}
	var one *ValidationError
	if errors.As(err, &one) {
		return ValidationErrors{one}, true
	}
	return nil, false
}

// IsValidationError checks if err is a coercion failure
func IsValidationError(err error) bool {
	_, ok := AsValidationErrors(err)
	return ok
}

// atPart re-indexes the errors of a sub-field so they point at part offset+i
func atPart(err error, offset int) error {
	es, ok := AsValidationErrors(err)
	if !ok {
		return err
	}
	out := make(ValidationErrors, 0, len(es))
	for _, e := range es {
		part := e.Part
		if part == NoPart {
			part = 0
		}
		out = append(out, &ValidationError{Code: e.Code, Part: part + offset, Message: e.Message, Err: e.Err})
	}
	return out
}

func required(label string) *ValidationError {
	if label == "" {
		return NewValidationError(RequiredValueMissing, "This field is required.", nil)
	}
	return NewValidationError(RequiredValueMissing, label+" is required", nil)
}
