package query

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/amirphl/filterkit/lookup"
	"github.com/shopspring/decimal"
)

// ErrUnsupportedLookup is returned by a query implementation that has no
// strategy for a lookup type
var ErrUnsupportedLookup = errors.New("unsupported lookup type")

// Row is a single record held by the in-memory query
type Row map[string]any

type matcher func(field, value any) (bool, error)

// matchers holds one strategy per lookup type; the set is closed.
var matchers = map[lookup.Type]matcher{
	lookup.Exact:       matchExact,
	lookup.IExact:      textMatcher(func(f, v string) bool { return strings.EqualFold(f, v) }),
	lookup.Contains:    textMatcher(strings.Contains),
	lookup.IContains:   textMatcher(func(f, v string) bool { return strings.Contains(strings.ToLower(f), strings.ToLower(v)) }),
	lookup.StartsWith:  textMatcher(strings.HasPrefix),
	lookup.IStartsWith: textMatcher(func(f, v string) bool { return strings.HasPrefix(strings.ToLower(f), strings.ToLower(v)) }),
	lookup.EndsWith:    textMatcher(strings.HasSuffix),
	lookup.IEndsWith:   textMatcher(func(f, v string) bool { return strings.HasSuffix(strings.ToLower(f), strings.ToLower(v)) }),
	lookup.In:          matchIn,
	lookup.GT:          orderMatcher(func(c int) bool { return c > 0 }),
	lookup.GTE:         orderMatcher(func(c int) bool { return c >= 0 }),
	lookup.LT:          orderMatcher(func(c int) bool { return c < 0 }),
	lookup.LTE:         orderMatcher(func(c int) bool { return c <= 0 }),
	lookup.Range:       matchRange,
	lookup.Year:        partMatcher(func(t time.Time) int { return t.Year() }),
	lookup.Month:       partMatcher(func(t time.Time) int { return int(t.Month()) }),
	lookup.Day:         partMatcher(func(t time.Time) int { return t.Day() }),
	lookup.WeekDay:     partMatcher(func(t time.Time) int { return int(t.Weekday()) + 1 }),
	lookup.IsNull:      matchIsNull,
	lookup.Search:      matchSearch,
	lookup.Regex:       regexMatcher(""),
	lookup.IRegex:      regexMatcher("(?i)"),
}

// Match evaluates p against a single row
func Match(p Predicate, r Row) (bool, error) {
	switch pred := p.(type) {
	case Condition:
		m, ok := matchers[pred.Lookup]
		if !ok {
			return false, fmt.Errorf("%w: %q", ErrUnsupportedLookup, pred.Lookup)
		}
		return m(r[pred.Field], pred.Value)
	case Or:
		if len(pred) == 0 {
			return true, nil
		}
		for _, child := range pred {
			ok, err := Match(child, r)
			if err != nil || ok {
				return ok, err
			}
		}
		return false, nil
	case And:
		for _, child := range pred {
			ok, err := Match(child, r)
			if err != nil || !ok {
				return false, err
			}
		}
		return true, nil
	case Not:
		ok, err := Match(pred.Predicate, r)
		return !ok, err
	default:
		return false, fmt.Errorf("unknown predicate %T", p)
	}
}

func matchExact(field, value any) (bool, error) {
	if value == nil {
		return field == nil, nil
	}
	return equal(field, value), nil
}

func matchIn(field, value any) (bool, error) {
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return false, fmt.Errorf("in lookup expects a list, got %T", value)
	}
	for i := 0; i < rv.Len(); i++ {
		if equal(field, rv.Index(i).Interface()) {
			return true, nil
		}
	}
	return false, nil
}

func matchRange(field, value any) (bool, error) {
	b, ok := value.(Bounds)
	if !ok {
		return false, fmt.Errorf("range lookup expects Bounds, got %T", value)
	}
	if b.Low != nil {
		c, ok := compare(field, b.Low)
		if !ok || c < 0 {
			return false, nil
		}
	}
	if b.High != nil {
		c, ok := compare(field, b.High)
		if !ok || c > 0 {
			return false, nil
		}
	}
	return true, nil
}

func matchIsNull(field, value any) (bool, error) {
	want, ok := value.(bool)
	if !ok {
		return false, fmt.Errorf("isnull lookup expects a bool, got %T", value)
	}
	return (field == nil) == want, nil
}

func matchSearch(field, value any) (bool, error) {
	f, ok := text(field)
	if !ok {
		return false, nil
	}
	f = strings.ToLower(f)
	v, _ := text(value)
	for _, word := range strings.Fields(strings.ToLower(v)) {
		if !strings.Contains(f, word) {
			return false, nil
		}
	}
	return true, nil
}

func textMatcher(fn func(field, value string) bool) matcher {
	return func(field, value any) (bool, error) {
		f, ok := text(field)
		if !ok {
			return false, nil
		}
		v, ok := text(value)
		if !ok {
			return false, fmt.Errorf("text lookup expects a string, got %T", value)
		}
		return fn(f, v), nil
	}
}

func orderMatcher(fn func(int) bool) matcher {
	return func(field, value any) (bool, error) {
		c, ok := compare(field, value)
		return ok && fn(c), nil
	}
}

func partMatcher(part func(time.Time) int) matcher {
	return func(field, value any) (bool, error) {
		t, ok := field.(time.Time)
		if !ok {
			return false, nil
		}
		return equal(part(t), value), nil
	}
}

func regexMatcher(flags string) matcher {
	return func(field, value any) (bool, error) {
		pattern, ok := text(value)
		if !ok {
			return false, fmt.Errorf("regex lookup expects a string, got %T", value)
		}
		re, err := regexp.Compile(flags + pattern)
		if err != nil {
			return false, fmt.Errorf("invalid regex %q: %w", pattern, err)
		}
		f, ok := text(field)
		return ok && re.MatchString(f), nil
	}
}

func text(v any) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, true
	case fmt.Stringer:
		return s.String(), true
	default:
		return "", false
	}
}

func number(v any) (decimal.Decimal, bool) {
	switch n := v.(type) {
	case decimal.Decimal:
		return n, true
	case *decimal.Decimal:
		if n == nil {
			return decimal.Decimal{}, false
		}
		return *n, true
	case float32:
		return decimal.NewFromFloat32(n), true
	case float64:
		return decimal.NewFromFloat(n), true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return decimal.NewFromInt(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return decimal.NewFromUint64(rv.Uint()), true
	}
	return decimal.Decimal{}, false
}

// compare orders two values of compatible kinds; ok is false when they are not comparable
func compare(a, b any) (int, bool) {
	if a == nil || b == nil {
		return 0, false
	}
	if x, ok := number(a); ok {
		if y, ok := number(b); ok {
			return x.Cmp(y), true
		}
		return 0, false
	}
	if x, ok := a.(time.Time); ok {
		if y, ok := b.(time.Time); ok {
			return x.Compare(y), true
		}
		return 0, false
	}
	if x, ok := text(a); ok {
		if y, ok := text(b); ok {
			return strings.Compare(x, y), true
		}
	}
	return 0, false
}

func equal(a, b any) bool {
	if c, ok := compare(a, b); ok {
		return c == 0
	}
	return reflect.DeepEqual(a, b)
}
