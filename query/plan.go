package query

// Plan is a Query that only records what was asked of it.
// It backs dry runs and lets callers inspect the predicates a filtering pass produced.
type Plan struct {
	Filters    []Predicate
	Excludes   []Predicate
	IsDistinct bool
}

// NewPlan returns an empty plan
func NewPlan() *Plan {
	return &Plan{}
}

func (p *Plan) clone() *Plan {
	return &Plan{
		Filters:    append([]Predicate(nil), p.Filters...),
		Excludes:   append([]Predicate(nil), p.Excludes...),
		IsDistinct: p.IsDistinct,
	}
}

// Filter implements Query
func (p *Plan) Filter(pred Predicate) Query {
	out := p.clone()
	out.Filters = append(out.Filters, pred)
	return out
}

// Exclude implements Query
func (p *Plan) Exclude(pred Predicate) Query {
	out := p.clone()
	out.Excludes = append(out.Excludes, pred)
	return out
}

// Distinct implements Query
func (p *Plan) Distinct() Query {
	out := p.clone()
	out.IsDistinct = true
	return out
}

// Len returns the number of recorded filter and exclude predicates
func (p *Plan) Len() int {
	return len(p.Filters) + len(p.Excludes)
}
