// Package lookup defines the fixed vocabulary of comparison operators a filter can apply
package lookup

import (
	"errors"
	"fmt"
	"sort"
)

// Type is a lookup operator key such as "exact" or "gte"
type Type string

const (
	Exact       Type = "exact"
	IExact      Type = "iexact"
	Contains    Type = "contains"
	IContains   Type = "icontains"
	In          Type = "in"
	GT          Type = "gt"
	GTE         Type = "gte"
	LT          Type = "lt"
	LTE         Type = "lte"
	StartsWith  Type = "startswith"
	IStartsWith Type = "istartswith"
	EndsWith    Type = "endswith"
	IEndsWith   Type = "iendswith"
	Range       Type = "range"
	Year        Type = "year"
	Month       Type = "month"
	Day         Type = "day"
	WeekDay     Type = "week_day"
	IsNull      Type = "isnull"
	Search      Type = "search"
	Regex       Type = "regex"
	IRegex      Type = "iregex"
)

// ErrUnknownLookup is returned when a key is not part of the vocabulary
var ErrUnknownLookup = errors.New("unknown lookup type")

var labels = map[Type]string{
	Contains:    "contains",
	Day:         "day",
	EndsWith:    "ends with",
	Exact:       "is",
	GT:          "greater than",
	GTE:         "greater or equal than",
	IContains:   "contains (ci)",
	IEndsWith:   "ends with (ci)",
	IExact:      "is (ci)",
	In:          "in",
	IRegex:      "regex (ci)",
	IsNull:      "is null",
	IStartsWith: "starts with (ci)",
	LT:          "less than",
	LTE:         "less or equal than",
	Month:       "month",
	Range:       "range",
	Regex:       "regex",
	Search:      "search",
	StartsWith:  "starts with",
	WeekDay:     "week day",
	Year:        "year",
}

var sorted = func() []Type {
	keys := make([]Type, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}()

// All returns every known lookup type sorted by key
func All() []Type {
	out := make([]Type, len(sorted))
	copy(out, sorted)
	return out
}

// Valid reports whether t belongs to the vocabulary
func (t Type) Valid() bool {
	_, ok := labels[t]
	return ok
}

// Label returns the human readable label, or the raw key when none is registered
func (t Type) Label() string {
	if l, ok := labels[t]; ok {
		return l
	}
	return string(t)
}

// String returns the canonical key
func (t Type) String() string {
	return string(t)
}

// Parse converts a raw key into a Type
func Parse(key string) (Type, error) {
	t := Type(key)
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownLookup, key)
	}
	return t, nil
}

// Lookup pairs a coerced value with the operator the caller picked for it
type Lookup struct {
	Value any
	Type  Type
}

// New builds a Lookup, defaulting the operator to Exact
func New(value any, t Type) Lookup {
	if t == "" {
		t = Exact
	}
	return Lookup{Value: value, Type: t}
}

// Choice is a key/label pair suitable for an operator select control
type Choice struct {
	Key   Type
	Label string
}

// Choices returns the key/label pairs of subset in sorted key order.
// An empty subset means the whole vocabulary; unknown keys are dropped.
func Choices(subset []Type) []Choice {
	allowed := make(map[Type]struct{}, len(subset))
	for _, t := range subset {
		allowed[t] = struct{}{}
	}
	out := make([]Choice, 0, len(sorted))
	for _, t := range sorted {
		if len(subset) > 0 {
			if _, ok := allowed[t]; !ok {
				continue
			}
		}
		out = append(out, Choice{Key: t, Label: t.Label()})
	}
	return out
}
