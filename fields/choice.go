package fields

import (
	"fmt"
	"strings"

	"github.com/amirphl/filterkit/widgets"
)

// ChoiceOptions configures Choice and MultipleChoice
type ChoiceOptions struct {
	Options
	// Parse converts an accepted raw choice into the filtered value; identity when nil
	Parse func(string) (any, error)
	// Lenient maps an unknown choice to "no value" instead of InvalidChoice
	Lenient bool
	// Recheck confirms a value missing from the choices, for choices read from a cache
	Recheck func(string) (bool, error)
}

type choiceSet struct {
	opts    ChoiceOptions
	choices []widgets.Option
	index   map[string]struct{}
}

func newChoiceSet(choices []widgets.Option, opts ChoiceOptions) choiceSet {
	index := make(map[string]struct{}, len(choices))
	for _, c := range choices {
		index[c.Value] = struct{}{}
	}
	return choiceSet{opts: opts, choices: choices, index: index}
}

func (c choiceSet) accept(s string) (any, error) {
	if _, ok := c.index[s]; !ok {
		var err error
		found := false
		if c.opts.Recheck != nil {
			found, err = c.opts.Recheck(s)
		}
		if !found {
			return nil, NewValidationError(InvalidChoice,
				fmt.Sprintf("Select a valid choice. %s is not one of the available choices.", s), err)
		}
	}
	if c.opts.Parse == nil {
		return s, nil
	}
	v, err := c.opts.Parse(s)
	if err != nil {
		return nil, NewValidationError(InvalidChoice, fmt.Sprintf("Select a valid choice. %s is not valid.", s), err)
	}
	return v, nil
}

// selectable returns the choices a user can actually pick, skipping the blank one
func (c choiceSet) selectable() int {
	n := 0
	for _, o := range c.choices {
		if o.Value != "" {
			n++
		}
	}
	return n
}

// Choice accepts one value out of a fixed set
type Choice struct {
	choiceSet
}

func NewChoice(choices []widgets.Option, opts ChoiceOptions) *Choice {
	return &Choice{choiceSet: newChoiceSet(choices, opts)}
}

func (f *Choice) Clean(raw Raw) (any, error) {
	s := strings.TrimSpace(raw.Part(0))
	if s == "" {
		if f.opts.Required {
			return nil, required(f.opts.Label)
		}
		return nil, nil
	}
	v, err := f.accept(s)
	if err != nil && f.opts.Lenient {
		return nil, nil
	}
	return v, err
}

// Choices returns the declared options
func (f *Choice) Choices() []widgets.Option { return f.choices }

func (f *Choice) Widget() widgets.Widget {
	return f.opts.widget(widgets.Select{Choices: f.choices})
}

func (f *Choice) Arity() int { return 1 }

func (f *Choice) Required() bool { return f.opts.Required }

func (f *Choice) Label() string { return f.opts.Label }

// Selection is the cleaned value of a MultipleChoice field.
// All is set when every selectable choice was picked.
type Selection struct {
	Values []any
	All    bool
}

// Len implements the emptiness check used by filters
func (s Selection) Len() int { return len(s.Values) }

// MultipleChoice accepts any number of values out of a fixed set
type MultipleChoice struct {
	choiceSet
}

func NewMultipleChoice(choices []widgets.Option, opts ChoiceOptions) *MultipleChoice {
	return &MultipleChoice{choiceSet: newChoiceSet(choices, opts)}
}

func (f *MultipleChoice) Clean(raw Raw) (any, error) {
	seen := make(map[string]struct{}, len(raw))
	values := make([]any, 0, len(raw))
	var errs ValidationErrors
	for i, part := range raw {
		s := strings.TrimSpace(part)
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		v, err := f.accept(s)
		if err != nil {
			if f.opts.Lenient {
				continue
			}
			ve := err.(*ValidationError)
			ve.Part = i
			errs = append(errs, ve)
			continue
		}
		values = append(values, v)
	}
	if len(errs) > 0 {
		return nil, errs
	}
	if len(values) == 0 {
		if f.opts.Required {
			return nil, required(f.opts.Label)
		}
		return nil, nil
	}
	return Selection{Values: values, All: len(values) == f.selectable()}, nil
}

// Choices returns the declared options
func (f *MultipleChoice) Choices() []widgets.Option { return f.choices }

func (f *MultipleChoice) Widget() widgets.Widget {
	return f.opts.widget(widgets.SelectMultiple{Choices: f.choices})
}

func (f *MultipleChoice) Arity() int { return 0 }

func (f *MultipleChoice) Required() bool { return f.opts.Required }

func (f *MultipleChoice) Label() string { return f.opts.Label }
