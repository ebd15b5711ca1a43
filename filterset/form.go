package filterset

import (
	"context"
	"fmt"
	"html"
	"net/url"
	"strings"

	"github.com/amirphl/filterkit/widgets"
)

// FormField is one rendered filter control
type FormField struct {
	Name   string
	Label  string
	HTML   string
	Raw    widgets.Raw
	Errors []FieldError
}

// Form is the filter set bound to one request
type Form struct {
	Fields []FormField
	Errors Errors
}

func (f *Form) Valid() bool {
	return len(f.Errors) == 0
}

// HTML renders every control as a labelled paragraph followed by its errors
func (f *Form) HTML() string {
	var b strings.Builder
	for _, ff := range f.Fields {
		fmt.Fprintf(&b, "<p><label for=\"id_%s\">%s</label> %s", html.EscapeString(ff.Name), html.EscapeString(ff.Label), ff.HTML)
		if len(ff.Errors) > 0 {
			b.WriteString("<ul class=\"errorlist\">")
			for _, fe := range ff.Errors {
				fmt.Fprintf(&b, "<li>%s</li>", html.EscapeString(fe.Message))
			}
			b.WriteString("</ul>")
		}
		b.WriteString("</p>\n")
	}
	return b.String()
}

// Form binds data to every filter's widget. Values are validated only when
// data is non-nil, so an unbound form renders without errors.
func (s *FilterSet) Form(ctx context.Context, data url.Values) (*Form, error) {
	form := &Form{Fields: make([]FormField, 0, len(s.filters)), Errors: Errors{}}
	for _, f := range s.filters {
		name := f.Name()
		field, err := f.Field(ctx)
		if err != nil {
			return nil, fmt.Errorf("filterset %s: %w", s.name, err)
		}
		w := bind(field.Widget(), data)
		raw := w.ValueFromData(data, name)

		ff := FormField{
			Name:  name,
			Label: f.Label(),
			Raw:   raw,
			HTML:  w.Render(name, raw, widgets.Attrs{"id": "id_" + name}),
		}
		if data != nil {
			if _, err := field.Clean(raw); err != nil {
				ff.Errors = form.Errors.add(name, err)
			}
		}
		form.Fields = append(form.Fields, ff)
	}
	return form, nil
}
