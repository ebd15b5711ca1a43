// Package gormquery implements query.Query on top of a gorm chain
package gormquery

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/amirphl/filterkit/lookup"
	"github.com/amirphl/filterkit/query"
	"gorm.io/gorm"
)

var (
	ErrInvalidColumn = errors.New("invalid column name")
	ErrInvalidValue  = errors.New("invalid lookup value")
)

var columnPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// Query wraps a *gorm.DB. Every operation starts a new session so the
// receiver's statement is never shared with the derived query.
type Query struct {
	db      *gorm.DB
	dialect Dialect
}

// New wraps db using the dialect matching its dialector
func New(db *gorm.DB) *Query {
	return &Query{db: db, dialect: DialectFor(db)}
}

// WithDialect returns a copy rendering engine-specific lookups with d
func (q *Query) WithDialect(d Dialect) *Query {
	return &Query{db: q.db, dialect: d}
}

// DB returns the underlying chain, ready for Find, Count or Pluck
func (q *Query) DB() *gorm.DB {
	return q.db
}

// Err returns the first error recorded while building the chain
func (q *Query) Err() error {
	return q.db.Error
}

func (q *Query) derive(fn func(tx *gorm.DB) *gorm.DB) *Query {
	return &Query{db: fn(q.db.Session(&gorm.Session{})), dialect: q.dialect}
}

// Filter implements query.Query
func (q *Query) Filter(p query.Predicate) query.Query {
	sql, args, err := q.build(p)
	if err != nil {
		return q.fail(err)
	}
	return q.derive(func(tx *gorm.DB) *gorm.DB { return tx.Where(sql, args...) })
}

// Exclude implements query.Query
func (q *Query) Exclude(p query.Predicate) query.Query {
	sql, args, err := q.build(p)
	if err != nil {
		return q.fail(err)
	}
	return q.derive(func(tx *gorm.DB) *gorm.DB { return tx.Where("NOT ("+sql+")", args...) })
}

// Distinct implements query.Query
func (q *Query) Distinct() query.Query {
	return q.derive(func(tx *gorm.DB) *gorm.DB { return tx.Distinct() })
}

func (q *Query) fail(err error) *Query {
	return q.derive(func(tx *gorm.DB) *gorm.DB {
		_ = tx.AddError(err)
		return tx
	})
}

func (q *Query) column(field string) (string, error) {
	if !columnPattern.MatchString(field) {
		return "", fmt.Errorf("%w: %q", ErrInvalidColumn, field)
	}
	return q.db.Statement.Quote(field), nil
}

func (q *Query) build(p query.Predicate) (string, []any, error) {
	switch pred := p.(type) {
	case query.Condition:
		return q.condition(pred)
	case query.Or:
		return q.group([]query.Predicate(pred), " OR ")
	case query.And:
		return q.group([]query.Predicate(pred), " AND ")
	case query.Not:
		sql, args, err := q.build(pred.Predicate)
		if err != nil {
			return "", nil, err
		}
		return "NOT (" + sql + ")", args, nil
	default:
		return "", nil, fmt.Errorf("unknown predicate %T", p)
	}
}

func (q *Query) group(children []query.Predicate, sep string) (string, []any, error) {
	if len(children) == 0 {
		return "1 = 1", nil, nil
	}
	parts := make([]string, 0, len(children))
	var args []any
	for _, child := range children {
		sql, childArgs, err := q.build(child)
		if err != nil {
			return "", nil, err
		}
		parts = append(parts, "("+sql+")")
		args = append(args, childArgs...)
	}
	return strings.Join(parts, sep), args, nil
}

var comparisons = map[lookup.Type]string{
	lookup.GT:  ">",
	lookup.GTE: ">=",
	lookup.LT:  "<",
	lookup.LTE: "<=",
}

func (q *Query) condition(c query.Condition) (string, []any, error) {
	col, err := q.column(c.Field)
	if err != nil {
		return "", nil, err
	}

	switch c.Lookup {
	case lookup.Exact:
		if c.Value == nil {
			return col + " IS NULL", nil, nil
		}
		return col + " = ?", []any{c.Value}, nil
	case lookup.GT, lookup.GTE, lookup.LT, lookup.LTE:
		return fmt.Sprintf("%s %s ?", col, comparisons[c.Lookup]), []any{c.Value}, nil
	case lookup.IExact, lookup.IContains, lookup.IStartsWith, lookup.IEndsWith,
		lookup.Contains, lookup.StartsWith, lookup.EndsWith:
		return q.like(col, c)
	case lookup.In:
		values, err := list(c.Value)
		if err != nil {
			return "", nil, err
		}
		if len(values) == 0 {
			return "1 = 0", nil, nil
		}
		return col + " IN ?", []any{values}, nil
	case lookup.Range:
		b, ok := c.Value.(query.Bounds)
		if !ok {
			return "", nil, fmt.Errorf("%w: range expects bounds, got %T", ErrInvalidValue, c.Value)
		}
		switch {
		case b.Low != nil && b.High != nil:
			return col + " BETWEEN ? AND ?", []any{b.Low, b.High}, nil
		case b.Low != nil:
			return col + " >= ?", []any{b.Low}, nil
		case b.High != nil:
			return col + " <= ?", []any{b.High}, nil
		default:
			return "1 = 1", nil, nil
		}
	case lookup.Year, lookup.Month, lookup.Day, lookup.WeekDay:
		return q.dialect.DatePart(c.Lookup, col) + " = ?", []any{c.Value}, nil
	case lookup.IsNull:
		isNull, ok := c.Value.(bool)
		if !ok {
			return "", nil, fmt.Errorf("%w: isnull expects a bool, got %T", ErrInvalidValue, c.Value)
		}
		if isNull {
			return col + " IS NULL", nil, nil
		}
		return col + " IS NOT NULL", nil, nil
	case lookup.Search:
		sql, args := q.dialect.Search(col, fmt.Sprint(c.Value))
		return sql, args, nil
	case lookup.Regex, lookup.IRegex:
		sql, args := q.dialect.Regex(col, fmt.Sprint(c.Value), c.Lookup == lookup.IRegex)
		return sql, args, nil
	default:
		return "", nil, fmt.Errorf("%w: %q", query.ErrUnsupportedLookup, c.Lookup)
	}
}

func (q *Query) like(col string, c query.Condition) (string, []any, error) {
	s, ok := c.Value.(string)
	if !ok {
		if str, isStringer := c.Value.(fmt.Stringer); isStringer {
			s = str.String()
		} else {
			return "", nil, fmt.Errorf("%w: %s expects text, got %T", ErrInvalidValue, c.Lookup, c.Value)
		}
	}
	s = escapeLike(s)

	switch c.Lookup {
	case lookup.Contains, lookup.IContains:
		s = "%" + s + "%"
	case lookup.StartsWith, lookup.IStartsWith:
		s += "%"
	case lookup.EndsWith, lookup.IEndsWith:
		s = "%" + s
	}

	switch c.Lookup {
	case lookup.Contains, lookup.StartsWith, lookup.EndsWith:
		return col + ` LIKE ? ESCAPE '\'`, []any{s}, nil
	default:
		return q.dialect.ILike(col), []any{s}, nil
	}
}

func list(v any) ([]any, error) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, fmt.Errorf("%w: in expects a list, got %T", ErrInvalidValue, v)
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, nil
}
