package filters

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/amirphl/filterkit/choices"
	"github.com/amirphl/filterkit/fields"
	"github.com/amirphl/filterkit/lookup"
	"github.com/amirphl/filterkit/query"
	"github.com/amirphl/filterkit/widgets"
)

func Char(opts Options) *Base {
	return newBase(opts, func(fo fields.Options) fields.Field { return fields.Char(fo) })
}

// Number filters on exact decimals
func Number(opts Options) *Base {
	return newBase(opts, func(fo fields.Options) fields.Field { return fields.Decimal(fo) })
}

func Date(opts Options) *Base {
	return newBase(opts, func(fo fields.Options) fields.Field { return fields.Date(fo) })
}

func DateTime(opts Options) *Base {
	return newBase(opts, func(fo fields.Options) fields.Field { return fields.DateTime(fo) })
}

func Time(opts Options) *Base {
	return newBase(opts, func(fo fields.Options) fields.Field { return fields.Time(fo) })
}

// UUID filters on a record reference by UUID
func UUID(opts Options) *Base {
	return newBase(opts, func(fo fields.Options) fields.Field { return fields.UUID(fo) })
}

// Boolean applies field = value when the tri-state input is set
func Boolean(opts Options) *Base {
	b := newBase(opts, func(fo fields.Options) fields.Field { return fields.NewBoolean(fo) })
	b.check = func() error {
		if b.choosesLookup() {
			return fmt.Errorf("%w: boolean filters take no operator choice", ErrInvalidOptions)
		}
		return nil
	}
	b.apply = b.applyBoolean
	return b
}

var nullBooleanChoices = []widgets.Option{{Value: "", Label: "Unknown"}, {Value: "2", Label: "Yes"}, {Value: "3", Label: "No"}}

// NullBoolean is Boolean for nullable columns, offered as unknown / yes / no
func NullBoolean(opts Options) *Base {
	if opts.Widget == nil {
		opts.Widget = widgets.Select{Choices: nullBooleanChoices}
	}
	return Boolean(opts)
}

func (b *Base) applyBoolean(q query.Query, value any) (query.Query, bool) {
	v, ok := value.(bool)
	if !ok {
		return q, false
	}
	q = q.Filter(query.Where(b.Column(), lookup.Exact, v))
	if b.opts.Distinct {
		q = q.Distinct()
	}
	return q, true
}

func choiceOptions(opts Options, fo fields.Options) fields.ChoiceOptions {
	return fields.ChoiceOptions{Options: fo, Parse: opts.Parse}
}

// Choice accepts one of a fixed set of values
func Choice(choiceList []widgets.Option, opts Options) *Base {
	return newBase(opts, func(fo fields.Options) fields.Field {
		return fields.NewChoice(choiceList, choiceOptions(opts, fo))
	})
}

// MultipleChoice ORs the selected values. Selecting every choice matches
// everything and still counts as used.
func MultipleChoice(choiceList []widgets.Option, opts Options) *Base {
	b := newBase(opts, func(fo fields.Options) fields.Field {
		return fields.NewMultipleChoice(choiceList, choiceOptions(opts, fo))
	})
	b.apply = b.applyMultiple
	return b
}

func (b *Base) applyMultiple(q query.Query, value any) (query.Query, bool) {
	if IsEmpty(value) {
		return q, false
	}
	var values []any
	switch v := value.(type) {
	case fields.Selection:
		if v.All {
			return q, true
		}
		values = v.Values
	case []any:
		values = v
	case []string:
		for _, s := range v {
			values = append(values, s)
		}
	default:
		values = []any{v}
	}

	or := make(query.Or, 0, len(values))
	for _, v := range values {
		or = append(or, query.Where(b.Column(), lookup.Exact, v))
	}
	return q.Filter(or).Distinct(), true
}

// ModelChoice accepts one of the records listed by source, loaded on every Field call
func ModelChoice(source choices.Source, opts Options) *Base {
	b := newBase(opts, nil)
	b.arity = 1
	b.check = sourceCheck(source)
	b.dynamic = func(ctx context.Context, fo fields.Options) (fields.Field, error) {
		list, err := source.Choices(ctx)
		if err != nil {
			return nil, err
		}
		return fields.NewChoice(withBlank(list), choiceOptions(opts, fo)), nil
	}
	return b
}

// ModelMultipleChoice is MultipleChoice over the records listed by source
func ModelMultipleChoice(source choices.Source, opts Options) *Base {
	b := newBase(opts, nil)
	b.arity = 0
	b.check = sourceCheck(source)
	b.apply = b.applyMultiple
	b.dynamic = func(ctx context.Context, fo fields.Options) (fields.Field, error) {
		list, err := source.Choices(ctx)
		if err != nil {
			return nil, err
		}
		return fields.NewMultipleChoice(list, choiceOptions(opts, fo)), nil
	}
	return b
}

// AllValues offers every distinct value currently stored in the column.
// The values are queried each time the field is requested, never cached here.
// A source that implements choices.Verifier gets to recheck unlisted values.
func AllValues(source choices.ValueSource, opts Options) *Base {
	b := newBase(opts, nil)
	b.arity = 1
	b.check = func() error {
		if source == nil {
			return ErrMissingSource
		}
		return nil
	}
	b.dynamic = func(ctx context.Context, fo fields.Options) (fields.Field, error) {
		values, err := source.DistinctValues(ctx, b.Column())
		if err != nil {
			return nil, err
		}
		list := make([]widgets.Option, 0, len(values))
		for _, v := range values {
			list = append(list, widgets.Option{Value: v, Label: v})
		}
		co := choiceOptions(opts, fo)
		if v, ok := source.(choices.Verifier); ok {
			co.Recheck = func(value string) (bool, error) {
				return v.HasValue(ctx, b.Column(), value)
			}
		}
		return fields.NewChoice(withBlank(list), co), nil
	}
	return b
}

func sourceCheck(source choices.Source) func() error {
	return func() error {
		if source == nil {
			return ErrMissingSource
		}
		return nil
	}
}

func withBlank(list []widgets.Option) []widgets.Option {
	return append([]widgets.Option{{Value: "", Label: "---------"}}, list...)
}

// Range applies field BETWEEN start AND end; a single bound applies gte or lte
func Range(opts Options) *Base {
	b := newBase(opts, func(fo fields.Options) fields.Field { return fields.NewRange(fo) })
	b.apply = b.applyRange
	return b
}

func (b *Base) applyRange(q query.Query, value any) (query.Query, bool) {
	r, ok := value.(fields.RangeValue)
	if !ok {
		return q, false
	}
	var cond query.Condition
	switch {
	case r.Start != nil && r.End != nil:
		cond = query.Where(b.Column(), lookup.Range, bounds(r))
	case r.Start != nil:
		cond = query.Where(b.Column(), lookup.GTE, *r.Start)
	case r.End != nil:
		cond = query.Where(b.Column(), lookup.LTE, *r.End)
	default:
		return q, false
	}
	q = q.Filter(cond)
	if b.opts.Distinct {
		q = q.Distinct()
	}
	return q, true
}

// Date range menu keys
const (
	AnyDate    = 0
	Today      = 1
	PastWeek   = 2
	ThisMonth  = 3
	ThisYear   = 4
	anyDateKey = ""
)

// DateRangeChoices is the fixed menu of the date range filter
var DateRangeChoices = []widgets.Option{
	{Value: anyDateKey, Label: "Any date"},
	{Value: strconv.Itoa(Today), Label: "Today"},
	{Value: strconv.Itoa(PastWeek), Label: "Past 7 days"},
	{Value: strconv.Itoa(ThisMonth), Label: "This month"},
	{Value: strconv.Itoa(ThisYear), Label: "This year"},
}

// DateRange narrows a date column to a period relative to now.
// Unknown or malformed keys mean "any date" and never fail.
func DateRange(opts Options) *Base {
	b := newBase(opts, func(fo fields.Options) fields.Field {
		return fields.NewChoice(DateRangeChoices, fields.ChoiceOptions{
			Options: fo,
			Lenient: true,
			Parse:   func(s string) (any, error) { return strconv.Atoi(s) },
		})
	})
	b.apply = b.applyDateRange
	return b
}

func (b *Base) applyDateRange(q query.Query, value any) (query.Query, bool) {
	key, ok := dateRangeKey(value)
	if !ok {
		return q, false
	}
	pred, ok := DateRangePredicate(b.Column(), key, b.now())
	if !ok {
		return q, false
	}
	q = q.Filter(pred)
	if b.opts.Distinct {
		q = q.Distinct()
	}
	return q, true
}

func dateRangeKey(value any) (int, bool) {
	switch v := value.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		return n, err == nil
	default:
		return 0, false
	}
}

// DateRangePredicate builds the closed-form predicate of a menu key; ok is
// false for "any date" and unknown keys
func DateRangePredicate(field string, key int, now time.Time) (query.Predicate, bool) {
	switch key {
	case Today:
		return query.And{
			query.Where(field, lookup.Year, now.Year()),
			query.Where(field, lookup.Month, int(now.Month())),
			query.Where(field, lookup.Day, now.Day()),
		}, true
	case PastWeek:
		return query.And{
			query.Where(field, lookup.GTE, midnight(now.AddDate(0, 0, -7))),
			query.Where(field, lookup.LT, midnight(now.AddDate(0, 0, 1))),
		}, true
	case ThisMonth:
		return query.And{
			query.Where(field, lookup.Year, now.Year()),
			query.Where(field, lookup.Month, int(now.Month())),
		}, true
	case ThisYear:
		return query.Where(field, lookup.Year, now.Year()), true
	default:
		return nil, false
	}
}

// DateOffset narrows a date column to the last (past) or next (future) N
// units of K days, measured from midnight
func DateOffset(direction string, opts Options) *Base {
	if opts.Widget == nil {
		opts.Widget = widgets.DateOffsetWidget{Direction: direction}
	}
	b := newBase(opts, func(fo fields.Options) fields.Field { return fields.NewDateOffset(direction, fo) })
	b.check = func() error {
		if direction != widgets.Past && direction != widgets.Future {
			return fmt.Errorf("%w: unknown direction %q", ErrInvalidOptions, direction)
		}
		return nil
	}
	b.apply = func(q query.Query, value any) (query.Query, bool) {
		off, ok := value.(fields.DateOffset)
		if !ok {
			return q, false
		}
		q = q.Filter(DateOffsetCondition(b.Column(), direction, off, b.now()))
		if b.opts.Distinct {
			q = q.Distinct()
		}
		return q, true
	}
	return b
}

// DateOffsetCondition computes the boundary midnight(now -/+ offset days)
func DateOffsetCondition(field, direction string, off fields.DateOffset, now time.Time) query.Condition {
	if direction == widgets.Future {
		return query.Where(field, lookup.LT, midnight(now.AddDate(0, 0, off.Days())))
	}
	return query.Where(field, lookup.GTE, midnight(now.AddDate(0, 0, -off.Days())))
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
