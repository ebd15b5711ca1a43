// Package filters binds record fields to coercers, lookup operators and the
// rule that narrows a query with a cleaned value
package filters

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/amirphl/filterkit/fields"
	"github.com/amirphl/filterkit/lookup"
	"github.com/amirphl/filterkit/query"
	"github.com/amirphl/filterkit/widgets"
)

// Configuration errors reported by Validate
var (
	ErrEmptyName      = errors.New("filter name is empty")
	ErrArityMismatch  = errors.New("widget and field part counts differ")
	ErrMissingSource  = errors.New("filter has no choice source")
	ErrInvalidOptions = errors.New("invalid filter options")
)

// Filter is an immutable declaration shared by every filtering pass
type Filter interface {
	Name() string
	Label() string
	// Field returns the coercer; dynamic filters rebuild it on every call
	Field(ctx context.Context) (fields.Field, error)
	// Apply narrows q with a cleaned value and reports whether it did
	Apply(q query.Query, value any) (query.Query, bool)
	Validate() error
}

// Action replaces a filter's default apply rule
type Action func(q query.Query, value any) (query.Query, bool)

// Options configures every filter kind
type Options struct {
	// Name is the request parameter
	Name string
	// Field is the record field; defaults to Name
	Field    string
	Label    string
	Required bool
	Distinct bool
	// Lookup is the fixed operator, exact by default
	Lookup lookup.Type
	// Lookups lets the caller pick one of these operators
	Lookups []lookup.Type
	// AllLookups lets the caller pick any operator
	AllLookups bool
	Widget     widgets.Widget
	Rules      string
	// Parse converts an accepted choice into the filtered value
	Parse  func(string) (any, error)
	Action Action
	// Now is the clock used by relative date filters
	Now func() time.Time
}

// IsEmpty reports whether value means "no filtering": nil, an empty string,
// an empty slice, array or map, or a lookup without a value
func IsEmpty(value any) bool {
	if value == nil {
		return true
	}
	if l, ok := value.(lookup.Lookup); ok {
		return IsEmpty(l.Value)
	}
	if l, ok := value.(interface{ Len() int }); ok {
		return l.Len() == 0
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.String, reflect.Slice, reflect.Array, reflect.Map:
		return rv.Len() == 0
	case reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// ApplyLookup is the default rule: a lookup.Lookup value supplies its own
// operator, empty values leave q untouched, anything else becomes one condition
func ApplyLookup(q query.Query, field string, t lookup.Type, distinct bool, value any) (query.Query, bool) {
	if l, ok := value.(lookup.Lookup); ok {
		value, t = l.Value, l.Type
	}
	if t == "" {
		t = lookup.Exact
	}
	if IsEmpty(value) {
		return q, false
	}
	switch v := value.(type) {
	case fields.RangeValue:
		value = bounds(v)
	case fields.Selection:
		value = v.Values
	}
	q = q.Filter(query.Where(field, t, value))
	if distinct {
		q = q.Distinct()
	}
	return q, true
}

func bounds(r fields.RangeValue) query.Bounds {
	var b query.Bounds
	if r.Start != nil {
		b.Low = *r.Start
	}
	if r.End != nil {
		b.High = *r.End
	}
	return b
}

// Base implements Filter for every kind. Static fields are built once and
// shared read-only; dynamic fields are rebuilt on each Field call.
type Base struct {
	opts    Options
	build   func(fields.Options) fields.Field
	dynamic func(ctx context.Context, fo fields.Options) (fields.Field, error)
	// arity of dynamic fields, checked by Validate without loading choices
	arity int
	apply Action
	check func() error

	once  sync.Once
	field fields.Field
}

func newBase(opts Options, build func(fields.Options) fields.Field) *Base {
	b := &Base{opts: opts, build: build}
	b.apply = b.applyLookup
	return b
}

// New declares a filter with a custom coercer and the default apply rule
func New(opts Options, build func(fields.Options) fields.Field) *Base {
	return newBase(opts, build)
}

func (b *Base) Name() string { return b.opts.Name }

// Column is the record field the filter narrows
func (b *Base) Column() string {
	if b.opts.Field != "" {
		return b.opts.Field
	}
	return b.opts.Name
}

// Label returns the configured label or a humanized name
func (b *Base) Label() string {
	if b.opts.Label != "" {
		return b.opts.Label
	}
	s := strings.ReplaceAll(b.opts.Name, "_", " ")
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// Options returns a copy of the declaration
func (b *Base) Options() Options { return b.opts }

func (b *Base) now() time.Time {
	if b.opts.Now != nil {
		return b.opts.Now()
	}
	return time.Now()
}

func (b *Base) fieldOptions() fields.Options {
	return fields.Options{Label: b.Label(), Required: b.opts.Required, Rules: b.opts.Rules, Widget: b.opts.Widget}
}

func (b *Base) choosesLookup() bool {
	return b.opts.AllLookups || len(b.opts.Lookups) > 0
}

func (b *Base) Field(ctx context.Context) (fields.Field, error) {
	if b.dynamic != nil {
		f, err := b.dynamic(ctx, b.fieldOptions())
		if err != nil {
			return nil, fmt.Errorf("failed to load choices for filter %s: %w", b.opts.Name, err)
		}
		return f, nil
	}
	b.once.Do(func() {
		inner := b.build(b.fieldOptions())
		if b.choosesLookup() {
			allowed := b.opts.Lookups
			if b.opts.AllLookups {
				allowed = nil
			}
			inner = fields.NewLookupType(inner, allowed, fields.Options{Label: b.Label(), Required: b.opts.Required})
		}
		b.field = inner
	})
	return b.field, nil
}

// Apply narrows q with value using the custom action when one is configured
func (b *Base) Apply(q query.Query, value any) (query.Query, bool) {
	if b.opts.Action != nil {
		return b.opts.Action(q, value)
	}
	return b.apply(q, value)
}

func (b *Base) applyLookup(q query.Query, value any) (query.Query, bool) {
	return ApplyLookup(q, b.Column(), b.opts.Lookup, b.opts.Distinct, value)
}

// Validate checks the declaration without touching any data source
func (b *Base) Validate() error {
	if strings.TrimSpace(b.opts.Name) == "" {
		return ErrEmptyName
	}
	if b.opts.Lookup != "" && !b.opts.Lookup.Valid() {
		return fmt.Errorf("filter %s: %w: %q", b.opts.Name, lookup.ErrUnknownLookup, b.opts.Lookup)
	}
	for _, t := range b.opts.Lookups {
		if !t.Valid() {
			return fmt.Errorf("filter %s: %w: %q", b.opts.Name, lookup.ErrUnknownLookup, t)
		}
	}
	if b.check != nil {
		if err := b.check(); err != nil {
			return fmt.Errorf("filter %s: %w", b.opts.Name, err)
		}
	}

	if b.dynamic != nil {
		if b.opts.Widget != nil && b.opts.Widget.Arity() != b.arity {
			return fmt.Errorf("filter %s: %w: widget %d, field %d", b.opts.Name, ErrArityMismatch, b.opts.Widget.Arity(), b.arity)
		}
		return nil
	}
	f, err := b.Field(context.Background())
	if err != nil {
		return err
	}
	if w := f.Widget(); w.Arity() != f.Arity() {
		return fmt.Errorf("filter %s: %w: widget %d, field %d", b.opts.Name, ErrArityMismatch, w.Arity(), f.Arity())
	}
	return nil
}
