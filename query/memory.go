package query

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// Memory is a Query evaluated eagerly over an in-memory slice of rows.
// The first evaluation error sticks and is reported by Rows and Err.
type Memory struct {
	rows []Row
	err  error
}

// NewMemory wraps rows; the slice itself is never modified
func NewMemory(rows []Row) *Memory {
	return &Memory{rows: rows}
}

func (m *Memory) keep(p Predicate, want bool) Query {
	if m.err != nil {
		return m
	}
	out := make([]Row, 0, len(m.rows))
	for _, r := range m.rows {
		ok, err := Match(p, r)
		if err != nil {
			return &Memory{rows: m.rows, err: err}
		}
		if ok == want {
			out = append(out, r)
		}
	}
	return &Memory{rows: out}
}

// Filter implements Query
func (m *Memory) Filter(p Predicate) Query {
	return m.keep(p, true)
}

// Exclude implements Query
func (m *Memory) Exclude(p Predicate) Query {
	return m.keep(p, false)
}

// Distinct implements Query by dropping rows identical to an earlier one
func (m *Memory) Distinct() Query {
	if m.err != nil {
		return m
	}
	seen := make(map[string]struct{}, len(m.rows))
	out := make([]Row, 0, len(m.rows))
	for _, r := range m.rows {
		k := rowKey(r)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, r)
	}
	return &Memory{rows: out}
}

// Rows returns the matching rows
func (m *Memory) Rows() ([]Row, error) {
	return m.rows, m.err
}

// Err returns the first evaluation error, if any
func (m *Memory) Err() error {
	return m.err
}

// Len returns the number of matching rows
func (m *Memory) Len() int {
	return len(m.rows)
}

// DistinctValues returns the sorted distinct non-null values of field
func (m *Memory) DistinctValues(_ context.Context, field string) ([]string, error) {
	if m.err != nil {
		return nil, m.err
	}
	set := make(map[string]struct{})
	for _, r := range m.rows {
		v, ok := r[field]
		if !ok || v == nil {
			continue
		}
		set[fmt.Sprint(v)] = struct{}{}
	}
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Strings(out)
	return out, nil
}

func rowKey(r Row) string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "%s=%v;", k, r[k])
	}
	return b.String()
}
