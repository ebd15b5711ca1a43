// Package filterset runs an ordered group of filters over one query per request
package filterset

import (
	"context"
	"fmt"
	"net/url"
	"reflect"

	"github.com/amirphl/filterkit/filters"
	"github.com/amirphl/filterkit/query"
	"github.com/amirphl/filterkit/widgets"
	"github.com/rs/zerolog"
)

// FilterSet is an ordered, named group of filters. It is immutable after New
// and safe for concurrent passes.
type FilterSet struct {
	name    string
	filters []filters.Filter
	index   map[string]filters.Filter
	logger  zerolog.Logger
	metrics *Metrics
}

// New validates every filter and rejects duplicate names
func New(name string, list ...filters.Filter) (*FilterSet, error) {
	s := &FilterSet{
		name:    name,
		filters: make([]filters.Filter, 0, len(list)),
		index:   make(map[string]filters.Filter, len(list)),
		logger:  zerolog.Nop(),
	}
	for i, f := range list {
		if isNil(f) {
			return nil, &ConfigError{Set: name, Err: fmt.Errorf("filter #%d: %w", i, ErrNilFilter)}
		}
		if err := f.Validate(); err != nil {
			return nil, &ConfigError{Set: name, Filter: f.Name(), Err: err}
		}
		if _, dup := s.index[f.Name()]; dup {
			return nil, &ConfigError{Set: name, Filter: f.Name(), Err: fmt.Errorf("filter %s: %w", f.Name(), ErrDuplicateName)}
		}
		s.index[f.Name()] = f
		s.filters = append(s.filters, f)
	}
	return s, nil
}

// isNil also catches a typed nil such as (*filters.Base)(nil)
func isNil(f filters.Filter) bool {
	if f == nil {
		return true
	}
	v := reflect.ValueOf(f)
	return v.Kind() == reflect.Pointer && v.IsNil()
}

// MustNew is New for package-level declarations; it panics on a config error
func MustNew(name string, list ...filters.Filter) *FilterSet {
	s, err := New(name, list...)
	if err != nil {
		panic(err)
	}
	return s
}

// WithLogger returns a copy of s that logs applied and rejected filters to l
func (s *FilterSet) WithLogger(l zerolog.Logger) *FilterSet {
	c := *s
	c.logger = l.With().Str("filterset", s.name).Logger()
	return &c
}

// WithMetrics returns a copy of s that records its passes in m
func (s *FilterSet) WithMetrics(m *Metrics) *FilterSet {
	c := *s
	c.metrics = m
	return &c
}

func (s *FilterSet) Name() string { return s.name }

// Filters returns the filters in declaration order
func (s *FilterSet) Filters() []filters.Filter {
	return append([]filters.Filter(nil), s.filters...)
}

func (s *FilterSet) Get(name string) (filters.Filter, bool) {
	f, ok := s.index[name]
	return f, ok
}

// Result is the outcome of one filtering pass
type Result struct {
	Query query.Query
	// Used is true for every filter that narrowed the query in this pass
	Used map[string]bool
	// Values holds the cleaned value of every filter that validated
	Values map[string]any
	Errors Errors
}

// Valid reports whether every filter value validated
func (r *Result) Valid() bool {
	return len(r.Errors) == 0
}

func (r *Result) IsUsed(name string) bool {
	return r.Used[name]
}

// Filter runs one pass over q. Invalid values are collected in Result.Errors
// and their filters skipped; the returned error is reserved for failures of the
// choice sources behind dynamic filters.
func (s *FilterSet) Filter(ctx context.Context, q query.Query, data url.Values) (*Result, error) {
	res := &Result{
		Query:  q,
		Used:   make(map[string]bool, len(s.filters)),
		Values: make(map[string]any, len(s.filters)),
		Errors: Errors{},
	}
	s.metrics.pass(s.name)

	for _, f := range s.filters {
		name := f.Name()
		field, err := f.Field(ctx)
		if err != nil {
			return nil, fmt.Errorf("filterset %s: %w", s.name, err)
		}
		raw := field.Widget().ValueFromData(data, name)
		value, err := field.Clean(raw)
		if err != nil {
			fes := res.Errors.add(name, err)
			s.metrics.reject(s.name, name, fes)
			s.logger.Warn().Err(err).Str("filter", name).Strs("raw", raw).Msg("Filter value rejected")
			continue
		}

		res.Values[name] = value
		next, used := f.Apply(res.Query, value)
		res.Used[name] = used
		if used {
			res.Query = next
			s.metrics.apply(s.name, name)
			s.logger.Debug().Str("filter", name).Interface("value", value).Msg("Filter applied")
		}
	}
	return res, nil
}

// bind gives request-aware widgets a view of the whole request
func bind(w widgets.Widget, data url.Values) widgets.Widget {
	if b, ok := w.(widgets.DataBinder); ok {
		return b.Bind(data)
	}
	return w
}
