package filterset

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/amirphl/filterkit/fields"
)

var (
	ErrDuplicateName = errors.New("duplicate filter name")
	ErrNilFilter     = errors.New("nil filter")
)

// ConfigError reports a filter set declared with an invalid filter
type ConfigError struct {
	Set    string
	Filter string
	Err    error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid filterset %s: %v", e.Set, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// IsConfigError checks if err came from an invalid declaration
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// FieldError is one validation failure of a filter. Part is the sub-part index
// of a composite filter and is nil when the whole value is at fault.
type FieldError struct {
	Code    fields.Code `json:"code"`
	Part    *int        `json:"part,omitempty"`
	Message string      `json:"message"`
}

// Errors maps filter names to their validation failures
type Errors map[string][]FieldError

func (e Errors) Error() string {
	names := make([]string, 0, len(e))
	for name := range e {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for i, name := range names {
		if i > 0 {
			b.WriteString("; ")
		}
		for j, fe := range e[name] {
			if j > 0 {
				b.WriteString(", ")
			}
			b.WriteString(name)
			if fe.Part != nil {
				fmt.Fprintf(&b, "[%d]", *fe.Part)
			}
			b.WriteString(": ")
			b.WriteString(fe.Message)
		}
	}
	return b.String()
}

// Has reports whether the named filter failed validation
func (e Errors) Has(name string) bool {
	return len(e[name]) > 0
}

// add records err under name; errors that are not validation failures are
// kept as invalid values so a pass never aborts on a coercer's error
func (e Errors) add(name string, err error) []FieldError {
	es, ok := fields.AsValidationErrors(err)
	if !ok {
		es = fields.ValidationErrors{fields.NewValidationError(fields.InvalidScalarValue, err.Error(), err)}
	}
	out := make([]FieldError, 0, len(es))
	for _, ve := range es {
		fe := FieldError{Code: ve.Code, Message: ve.Message}
		if ve.Part != fields.NoPart {
			part := ve.Part
			fe.Part = &part
		}
		out = append(out, fe)
	}
	e[name] = append(e[name], out...)
	return out
}
