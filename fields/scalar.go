package fields

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/amirphl/filterkit/widgets"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

// Accepted input layouts, tried in order
var (
	DateLayouts     = []string{"2006-01-02", "01/02/2006", "01/02/06"}
	DateTimeLayouts = []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02T15:04:05", "2006-01-02 15:04", "2006-01-02T15:04", "2006-01-02", "01/02/2006 15:04:05", "01/02/2006"}
	TimeLayouts     = []string{"15:04:05", "15:04"}
)

// Scalar parses a single raw string into T
type Scalar[T any] struct {
	opts    Options
	parse   func(string) (T, error)
	invalid string
	// ruleValue is what validator rules are checked against
	ruleValue func(T) any
}

func (f *Scalar[T]) Clean(raw Raw) (any, error) {
	s := strings.TrimSpace(raw.Part(0))
	if s == "" {
		if f.opts.Required {
			return nil, required(f.opts.Label)
		}
		return nil, nil
	}

	v, err := f.parse(s)
	if err != nil {
		return nil, NewValidationError(InvalidScalarValue, f.invalid, err)
	}

	if f.opts.Rules != "" {
		var target any = v
		if f.ruleValue != nil {
			target = f.ruleValue(v)
		}
		if err := validate.Var(target, f.opts.Rules); err != nil {
			return nil, NewValidationError(InvalidScalarValue, ruleMessage(err), err)
		}
	}
	return v, nil
}

func (f *Scalar[T]) Widget() widgets.Widget { return f.opts.widget(widgets.TextInput{}) }

func (f *Scalar[T]) Arity() int { return 1 }

func (f *Scalar[T]) Required() bool { return f.opts.Required }

func (f *Scalar[T]) Label() string { return f.opts.Label }

// Char accepts any text
func Char(opts Options) *Scalar[string] {
	return &Scalar[string]{
		opts:    opts,
		parse:   func(s string) (string, error) { return s, nil },
		invalid: "Enter a valid value.",
	}
}

// Integer parses a base 10 integer
func Integer(opts Options) *Scalar[int64] {
	return &Scalar[int64]{
		opts:    opts,
		parse:   func(s string) (int64, error) { return strconv.ParseInt(s, 10, 64) },
		invalid: "Enter a whole number.",
	}
}

// Decimal parses an exact decimal number
func Decimal(opts Options) *Scalar[decimal.Decimal] {
	return &Scalar[decimal.Decimal]{
		opts:      opts,
		parse:     decimal.NewFromString,
		invalid:   "Enter a number.",
		ruleValue: func(d decimal.Decimal) any { return d.InexactFloat64() },
	}
}

// Date parses a calendar date at midnight UTC
func Date(opts Options) *Scalar[time.Time] {
	return &Scalar[time.Time]{
		opts:    opts,
		parse:   layouts(DateLayouts),
		invalid: "Enter a valid date.",
	}
}

// DateTime parses a date with an optional time of day
func DateTime(opts Options) *Scalar[time.Time] {
	return &Scalar[time.Time]{
		opts:    opts,
		parse:   layouts(DateTimeLayouts),
		invalid: "Enter a valid date/time.",
	}
}

// Time parses a time of day on the zero date
func Time(opts Options) *Scalar[time.Time] {
	return &Scalar[time.Time]{
		opts:    opts,
		parse:   layouts(TimeLayouts),
		invalid: "Enter a valid time.",
	}
}

// UUID parses a record reference by UUID
func UUID(opts Options) *Scalar[uuid.UUID] {
	return &Scalar[uuid.UUID]{
		opts:    opts,
		parse:   uuid.Parse,
		invalid: "Enter a valid UUID.",
	}
}

func layouts(candidates []string) func(string) (time.Time, error) {
	return func(s string) (time.Time, error) {
		var firstErr error
		for _, layout := range candidates {
			t, err := time.Parse(layout, s)
			if err == nil {
				return t, nil
			}
			if firstErr == nil {
				firstErr = err
			}
		}
		return time.Time{}, firstErr
	}
}

func ruleMessage(err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return "Enter a valid value."
	}
	fe := fieldErrs[0]
	switch fe.Tag() {
	case "min":
		return "Value must be at least " + fe.Param()
	case "max":
		return "Value must be at most " + fe.Param()
	case "gte":
		return "Value must be greater than or equal to " + fe.Param()
	case "lte":
		return "Value must be less than or equal to " + fe.Param()
	case "gt":
		return "Value must be greater than " + fe.Param()
	case "lt":
		return "Value must be less than " + fe.Param()
	case "oneof":
		return "Value must be one of: " + fe.Param()
	case "alphanum":
		return "Value must contain only letters and numbers"
	default:
		return "Value is invalid"
	}
}

// Boolean is a tri-state field: true, false or unset (nil). It never fails.
type Boolean struct {
	opts Options
}

func NewBoolean(opts Options) *Boolean {
	return &Boolean{opts: opts}
}

func (f *Boolean) Clean(raw Raw) (any, error) {
	switch strings.TrimSpace(raw.Part(0)) {
	case "2", "true", "True", "1":
		return true, nil
	case "3", "false", "False", "0":
		return false, nil
	default:
		return nil, nil
	}
}

func (f *Boolean) Widget() widgets.Widget { return f.opts.widget(widgets.BooleanSelect{}) }

func (f *Boolean) Arity() int { return 1 }

func (f *Boolean) Required() bool { return f.opts.Required }

func (f *Boolean) Label() string { return f.opts.Label }
