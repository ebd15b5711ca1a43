package fields

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/amirphl/filterkit/lookup"
	"github.com/amirphl/filterkit/widgets"
	"github.com/shopspring/decimal"
)

// RangeValue is a pair of decimal bounds. A nil bound was left blank.
type RangeValue struct {
	Start *decimal.Decimal
	End   *decimal.Decimal
}

// Compress builds a range from its bounds; ok is false when both are absent
func Compress(start, end *decimal.Decimal) (RangeValue, bool) {
	if start == nil && end == nil {
		return RangeValue{}, false
	}
	return RangeValue{Start: start, End: end}, true
}

// Parts implements widgets.Compressed
func (r RangeValue) Parts() []string {
	parts := []string{"", ""}
	if r.Start != nil {
		parts[0] = r.Start.String()
	}
	if r.End != nil {
		parts[1] = r.End.String()
	}
	return parts
}

func (r RangeValue) String() string {
	p := r.Parts()
	return p[0] + "-" + p[1]
}

// Range coerces two raw decimals into a RangeValue. Bounds are not ordered.
type Range struct {
	opts  Options
	bound *Scalar[decimal.Decimal]
}

func NewRange(opts Options) *Range {
	return &Range{opts: opts, bound: Decimal(Options{})}
}

func (f *Range) Clean(raw Raw) (any, error) {
	var (
		bounds [2]*decimal.Decimal
		errs   ValidationErrors
	)
	for i := range bounds {
		v, err := f.bound.Clean(Raw{raw.Part(i)})
		if err != nil {
			es, _ := AsValidationErrors(atPart(err, i))
			errs = append(errs, es...)
			continue
		}
		if d, ok := v.(decimal.Decimal); ok {
			bounds[i] = &d
		}
	}
	if len(errs) > 0 {
		return nil, errs
	}
	r, ok := Compress(bounds[0], bounds[1])
	if !ok {
		if f.opts.Required {
			return nil, required(f.opts.Label)
		}
		return nil, nil
	}
	return r, nil
}

func (f *Range) Widget() widgets.Widget { return f.opts.widget(widgets.RangeWidget{}) }

func (f *Range) Arity() int { return 2 }

func (f *Range) Required() bool { return f.opts.Required }

func (f *Range) Label() string { return f.opts.Label }

// LookupType is a composite of an operator key followed by the inner field's parts
type LookupType struct {
	opts    Options
	inner   Field
	allowed []lookup.Type
}

// NewLookupType wraps inner; an empty allowed list permits the whole vocabulary
func NewLookupType(inner Field, allowed []lookup.Type, opts Options) *LookupType {
	return &LookupType{opts: opts, inner: inner, allowed: allowed}
}

// Lookups returns the operators a caller may pick, sorted by key
func (f *LookupType) Lookups() []lookup.Choice {
	return lookup.Choices(f.allowed)
}

func (f *LookupType) permits(t lookup.Type) bool {
	if !t.Valid() {
		return false
	}
	if len(f.allowed) == 0 {
		return true
	}
	for _, a := range f.allowed {
		if a == t {
			return true
		}
	}
	return false
}

func (f *LookupType) Clean(raw Raw) (any, error) {
	// The operator is checked even when the value part is missing
	t := lookup.Exact
	if op := strings.TrimSpace(raw.Part(0)); op != "" {
		t = lookup.Type(op)
		if !f.permits(t) {
			return nil, ValidationErrors{{
				Code:    InvalidOperator,
				Part:    0,
				Message: fmt.Sprintf("Select a valid choice. %s is not one of the available choices.", op),
				Err:     lookup.ErrUnknownLookup,
			}}
		}
	}

	if len(raw) < 2 {
		if f.opts.Required {
			return nil, required(f.opts.Label)
		}
		return lookup.New(nil, lookup.Exact), nil
	}

	v, err := f.cleanValue(t, raw[1:])
	if err != nil {
		return nil, atPart(err, 1)
	}
	if v == nil && f.opts.Required {
		return nil, required(f.opts.Label)
	}
	return lookup.New(v, t), nil
}

// cleanValue coerces the value parts; list and range operators take a
// comma separated value and isnull takes a boolean
func (f *LookupType) cleanValue(t lookup.Type, parts Raw) (any, error) {
	if f.inner.Arity() != 1 {
		return f.inner.Clean(parts)
	}
	switch t {
	case lookup.IsNull:
		v, _ := NewBoolean(Options{}).Clean(parts)
		return v, nil
	case lookup.In:
		items := strings.Split(parts.Part(0), ",")
		out := make([]any, 0, len(items))
		var errs ValidationErrors
		for _, item := range items {
			v, err := f.inner.Clean(Raw{item})
			if err != nil {
				es, _ := AsValidationErrors(err)
				errs = append(errs, es...)
				continue
			}
			if v != nil {
				out = append(out, v)
			}
		}
		if len(errs) > 0 {
			return nil, errs
		}
		return out, nil
	case lookup.Range:
		items := strings.SplitN(parts.Part(0), ",", 2)
		return NewRange(Options{}).Clean(items)
	case lookup.Year, lookup.Month, lookup.Day, lookup.WeekDay:
		return Integer(Options{}).Clean(parts)
	default:
		return f.inner.Clean(parts)
	}
}

func (f *LookupType) Widget() widgets.Widget {
	return f.opts.widget(widgets.LookupTypeWidget{Lookups: f.Lookups(), Inner: f.inner.Widget()})
}

func (f *LookupType) Arity() int {
	if f.inner.Arity() == 0 {
		return 0
	}
	return 1 + f.inner.Arity()
}

func (f *LookupType) Required() bool { return f.opts.Required }

func (f *LookupType) Label() string { return f.opts.Label }

// DateOffset is "Amount units of UnitDays days"
type DateOffset struct {
	Amount   int
	UnitDays int
}

// Days is the total length of the offset
func (o DateOffset) Days() int {
	return o.Amount * o.UnitDays
}

// DateOffsetField coerces (amount, unit) into a DateOffset. Any integers are accepted.
type DateOffsetField struct {
	opts      Options
	direction string
}

func NewDateOffset(direction string, opts Options) *DateOffsetField {
	return &DateOffsetField{opts: opts, direction: direction}
}

func (f *DateOffsetField) Clean(raw Raw) (any, error) {
	amount, unit := strings.TrimSpace(raw.Part(0)), strings.TrimSpace(raw.Part(1))
	if amount == "" || unit == "" {
		if f.opts.Required {
			return nil, required(f.opts.Label)
		}
		return nil, nil
	}

	var (
		nums [2]int
		errs ValidationErrors
	)
	for i, s := range []string{amount, unit} {
		n, err := strconv.Atoi(s)
		if err != nil {
			errs = append(errs, &ValidationError{Code: InvalidScalarValue, Part: i, Message: "Enter a whole number.", Err: err})
			continue
		}
		nums[i] = n
	}
	if len(errs) > 0 {
		return nil, errs
	}
	return DateOffset{Amount: nums[0], UnitDays: nums[1]}, nil
}

func (f *DateOffsetField) Widget() widgets.Widget {
	return f.opts.widget(widgets.DateOffsetWidget{Direction: f.direction})
}

func (f *DateOffsetField) Arity() int { return 2 }

func (f *DateOffsetField) Required() bool { return f.opts.Required }

func (f *DateOffsetField) Label() string { return f.opts.Label }
