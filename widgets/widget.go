// Package widgets renders filter values as HTML input controls and reads them back
// from request data in the part order the paired field expects
package widgets

import (
	"html"
	"net/url"
	"sort"
	"strings"
)

// Raw is the ordered list of raw strings a widget extracts for one filter.
// A nil Raw means the filter was absent from the request.
type Raw []string

// Blank reports whether every part is empty after trimming
func (r Raw) Blank() bool {
	for _, p := range r {
		if strings.TrimSpace(p) != "" {
			return false
		}
	}
	return true
}

// Part returns part i, or "" when out of range
func (r Raw) Part(i int) string {
	if i < 0 || i >= len(r) {
		return ""
	}
	return r[i]
}

// Attrs are extra HTML attributes added to the rendered control
type Attrs map[string]string

// Option is a value/label pair of a select-like control
type Option struct {
	Value string
	Label string
}

// Widget renders and parses the raw input shape of one filter
type Widget interface {
	Render(name string, value Raw, attrs Attrs) string
	ValueFromData(data url.Values, name string) Raw
	// Arity is the number of parts ValueFromData yields; 0 means any number
	Arity() int
}

// DataBinder is implemented by widgets whose rendering depends on the whole request
type DataBinder interface {
	Bind(data url.Values) Widget
}

func single(data url.Values, name string) Raw {
	values, ok := data[name]
	if !ok {
		return nil
	}
	if len(values) == 0 {
		return Raw{""}
	}
	return Raw{values[0]}
}

func writeAttrs(b *strings.Builder, attrs Attrs) {
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.WriteString(" ")
		b.WriteString(html.EscapeString(k))
		b.WriteString(`="`)
		b.WriteString(html.EscapeString(attrs[k]))
		b.WriteString(`"`)
	}
}

func merge(base, extra Attrs) Attrs {
	out := make(Attrs, len(base)+len(extra))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}

// TextInput renders a single <input>
type TextInput struct {
	Type  string
	Attrs Attrs
}

func (w TextInput) Render(name string, value Raw, attrs Attrs) string {
	typ := w.Type
	if typ == "" {
		typ = "text"
	}
	var b strings.Builder
	b.WriteString(`<input type="` + html.EscapeString(typ) + `" name="` + html.EscapeString(name) + `"`)
	if v := value.Part(0); v != "" {
		b.WriteString(` value="` + html.EscapeString(v) + `"`)
	}
	writeAttrs(&b, merge(w.Attrs, attrs))
	b.WriteString(" />")
	return b.String()
}

func (TextInput) ValueFromData(data url.Values, name string) Raw { return single(data, name) }

func (TextInput) Arity() int { return 1 }

// Select renders a single-choice <select>
type Select struct {
	Choices []Option
	Attrs   Attrs
}

func (w Select) Render(name string, value Raw, attrs Attrs) string {
	return renderSelect(name, w.Choices, value, merge(w.Attrs, attrs), false)
}

func (Select) ValueFromData(data url.Values, name string) Raw { return single(data, name) }

func (Select) Arity() int { return 1 }

// SelectMultiple renders a <select multiple>; every submitted value is a part
type SelectMultiple struct {
	Choices []Option
	Attrs   Attrs
}

func (w SelectMultiple) Render(name string, value Raw, attrs Attrs) string {
	return renderSelect(name, w.Choices, value, merge(w.Attrs, attrs), true)
}

func (SelectMultiple) ValueFromData(data url.Values, name string) Raw {
	values, ok := data[name]
	if !ok {
		return nil
	}
	return append(Raw{}, values...)
}

func (SelectMultiple) Arity() int { return 0 }

func renderSelect(name string, choices []Option, value Raw, attrs Attrs, multiple bool) string {
	selected := make(map[string]struct{}, len(value))
	for _, v := range value {
		selected[v] = struct{}{}
	}

	var b strings.Builder
	b.WriteString(`<select name="` + html.EscapeString(name) + `"`)
	if multiple {
		b.WriteString(" multiple")
	}
	writeAttrs(&b, attrs)
	b.WriteString(">\n")
	for _, c := range choices {
		b.WriteString(`<option value="` + html.EscapeString(c.Value) + `"`)
		if _, ok := selected[c.Value]; ok {
			b.WriteString(" selected")
		}
		b.WriteString(">" + html.EscapeString(c.Label) + "</option>\n")
	}
	b.WriteString("</select>")
	return b.String()
}
