package widgets

import (
	"html"
	"net/url"
	"strings"

	"github.com/amirphl/filterkit/lookup"
)

var booleanChoices = []Option{{"", "Any"}, {"2", "Yes"}, {"3", "No"}}

// BooleanSelect offers any / yes / no, submitted as "", "2" and "3"
type BooleanSelect struct {
	Attrs Attrs
}

func (w BooleanSelect) Render(name string, value Raw, attrs Attrs) string {
	v := ""
	switch value.Part(0) {
	case "2", "true", "True", "1":
		v = "2"
	case "3", "false", "False", "0":
		v = "3"
	}
	return renderSelect(name, booleanChoices, Raw{v}, merge(w.Attrs, attrs), false)
}

func (BooleanSelect) ValueFromData(data url.Values, name string) Raw { return single(data, name) }

func (BooleanSelect) Arity() int { return 1 }

// Compressed is a value that splits back into the parts it was built from
type Compressed interface {
	Parts() []string
}

// RangeWidget renders two text inputs named <name>_0 and <name>_1
type RangeWidget struct {
	Attrs Attrs
}

func (w RangeWidget) Render(name string, value Raw, attrs Attrs) string {
	input := TextInput{Attrs: w.Attrs}
	return input.Render(name+"_0", Raw{value.Part(0)}, attrs) + "-" +
		input.Render(name+"_1", Raw{value.Part(1)}, attrs)
}

func (RangeWidget) ValueFromData(data url.Values, name string) Raw {
	start, end := single(data, name+"_0"), single(data, name+"_1")
	if start == nil && end == nil {
		return nil
	}
	return Raw{start.Part(0), end.Part(0)}
}

func (RangeWidget) Arity() int { return 2 }

// Decompress is the inverse of the range field's compression
func (RangeWidget) Decompress(v Compressed) Raw {
	if v == nil {
		return Raw{"", ""}
	}
	parts := v.Parts()
	return Raw{Raw(parts).Part(0), Raw(parts).Part(1)}
}

// LookupTypeWidget pairs an operator select named <name>_0 with an inner
// widget rendered under <name>_1. Parts are the operator followed by the
// inner widget's parts.
type LookupTypeWidget struct {
	Lookups []lookup.Choice
	Inner   Widget
}

func (w LookupTypeWidget) operators() []Option {
	out := make([]Option, 0, len(w.Lookups))
	for _, c := range w.Lookups {
		out = append(out, Option{Value: string(c.Key), Label: c.Label})
	}
	return out
}

func (w LookupTypeWidget) Render(name string, value Raw, attrs Attrs) string {
	var inner Raw
	if len(value) > 1 {
		inner = value[1:]
	}
	return renderSelect(name+"_0", w.operators(), Raw{value.Part(0)}, attrs, false) +
		w.Inner.Render(name+"_1", inner, attrs)
}

func (w LookupTypeWidget) ValueFromData(data url.Values, name string) Raw {
	op := single(data, name+"_0")
	inner := w.Inner.ValueFromData(data, name+"_1")
	if op == nil && inner == nil {
		return nil
	}
	return append(Raw{op.Part(0)}, inner...)
}

func (w LookupTypeWidget) Arity() int {
	if w.Inner.Arity() == 0 {
		return 0
	}
	return 1 + w.Inner.Arity()
}

// Offset directions
const (
	Past   = "past"
	Future = "future"
)

var offsetUnits = []Option{
	{"", "unit"},
	{"1", "days"},
	{"7", "weeks"},
	{"30", "months"},
	{"365", "years"},
}

// DateOffsetWidget renders an amount input <name>_n and a unit select <name>_m
type DateOffsetWidget struct {
	Direction string
	Attrs     Attrs
}

func (w DateOffsetWidget) Render(name string, value Raw, attrs Attrs) string {
	prefix := "Last"
	if w.Direction == Future {
		prefix = "Next"
	}
	amount := TextInput{Type: "number", Attrs: Attrs{"placeholder": "number"}}
	return strings.Join([]string{
		"<span>" + prefix + "</span>",
		amount.Render(name+"_n", Raw{value.Part(0)}, nil),
		renderSelect(name+"_m", offsetUnits, Raw{value.Part(1)}, merge(w.Attrs, attrs), false),
	}, "\n")
}

// ValueFromData yields both parts only when both were submitted
func (DateOffsetWidget) ValueFromData(data url.Values, name string) Raw {
	n, m := data.Get(name+"_n"), data.Get(name+"_m")
	if n == "" || m == "" {
		return nil
	}
	return Raw{n, m}
}

func (DateOffsetWidget) Arity() int { return 2 }

// LinkWidget renders each choice as a link to the current query string with
// this filter's parameter replaced
type LinkWidget struct {
	Choices []Option
	Attrs   Attrs
	data    url.Values
}

// Bind returns a copy rendering links relative to data
func (w LinkWidget) Bind(data url.Values) Widget {
	w.data = data
	return w
}

func (w LinkWidget) Render(name string, value Raw, attrs Attrs) string {
	current := value.Part(0)
	var b strings.Builder
	b.WriteString("<ul")
	writeAttrs(&b, merge(w.Attrs, attrs))
	b.WriteString(">")
	for _, c := range w.Choices {
		q := url.Values{}
		for k, v := range w.data {
			q[k] = append([]string(nil), v...)
		}
		q.Set(name, c.Value)

		label := c.Label
		if c.Value == "" {
			label = "All"
		}
		b.WriteString("\n<li><a")
		if c.Value == current {
			b.WriteString(` class="selected"`)
		}
		b.WriteString(` href="?` + html.EscapeString(q.Encode()) + `">` + html.EscapeString(label) + "</a></li>")
	}
	b.WriteString("\n</ul>")
	return b.String()
}

func (LinkWidget) ValueFromData(data url.Values, name string) Raw { return single(data, name) }

func (LinkWidget) Arity() int { return 1 }
