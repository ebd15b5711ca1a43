// Package query defines the record-query capability filters are applied against
package query

import (
	"fmt"
	"strings"

	"github.com/amirphl/filterkit/lookup"
)

// Predicate is one of Condition, Or, And or Not
type Predicate interface {
	isPredicate()
	fmt.Stringer
}

// Condition is the triple "field OPERATOR value"
type Condition struct {
	Field  string
	Lookup lookup.Type
	Value  any
}

// Bounds is the value of a range condition. A nil bound is open.
type Bounds struct {
	Low  any
	High any
}

// Or matches when any child matches. An empty Or places no restriction.
type Or []Predicate

// And matches when every child matches. An empty And places no restriction.
type And []Predicate

// Not negates its child
type Not struct {
	Predicate Predicate
}

func (Condition) isPredicate() {}
func (Or) isPredicate()        {}
func (And) isPredicate()       {}
func (Not) isPredicate()       {}

func (c Condition) String() string {
	return fmt.Sprintf("%s__%s=%v", c.Field, c.Lookup, c.Value)
}

func (o Or) String() string  { return join([]Predicate(o), " | ") }
func (a And) String() string { return join([]Predicate(a), " & ") }
func (n Not) String() string { return "~" + n.Predicate.String() }

func join(ps []Predicate, sep string) string {
	parts := make([]string, len(ps))
	for i, p := range ps {
		parts[i] = p.String()
	}
	return "(" + strings.Join(parts, sep) + ")"
}

// Where is shorthand for a Condition
func Where(field string, t lookup.Type, value any) Condition {
	return Condition{Field: field, Lookup: t, Value: value}
}

// Query is a persistent query: every call returns a derived query and leaves
// the receiver untouched. Sequential Filter calls compose by AND.
type Query interface {
	Filter(p Predicate) Query
	Exclude(p Predicate) Query
	Distinct() Query
}
