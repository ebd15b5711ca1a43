package fields

import (
	"errors"
	"testing"
	"time"

	"github.com/amirphl/filterkit/lookup"
	"github.com/amirphl/filterkit/widgets"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func firstError(t *testing.T, err error) *ValidationError {
	t.Helper()
	es, ok := AsValidationErrors(err)
	require.True(t, ok, "expected a validation error, got %v", err)
	require.NotEmpty(t, es)
	return es[0]
}

func TestScalarBlankIsNoValue(t *testing.T) {
	for _, f := range []Field{Char(Options{}), Integer(Options{}), Decimal(Options{}), Date(Options{}), DateTime(Options{}), Time(Options{}), UUID(Options{})} {
		for _, raw := range []Raw{nil, {""}, {"   "}} {
			v, err := f.Clean(raw)
			assert.NoError(t, err)
			assert.Nil(t, v)
		}
	}
}

func TestScalarRequired(t *testing.T) {
	_, err := Char(Options{Label: "Title", Required: true}).Clean(nil)
	ve := firstError(t, err)
	assert.Equal(t, RequiredValueMissing, ve.Code)
	assert.Equal(t, NoPart, ve.Part)
	assert.Equal(t, "Title is required", ve.Message)
}

func TestScalarParsing(t *testing.T) {
	tests := []struct {
		name  string
		field Field
		raw   string
		want  any
	}{
		{"char is trimmed", Char(Options{}), " spring sale ", "spring sale"},
		{"integer", Integer(Options{}), "42", int64(42)},
		{"decimal", Decimal(Options{}), "12.50", decimal.RequireFromString("12.50")},
		{"date iso", Date(Options{}), "2024-03-15", time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)},
		{"date us", Date(Options{}), "03/15/2024", time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)},
		{"datetime", DateTime(Options{}), "2024-03-15 10:30", time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)},
		{"time", Time(Options{}), "10:30:15", time.Date(0, 1, 1, 10, 30, 15, 0, time.UTC)},
		{"uuid", UUID(Options{}), "1f0c8d3e-7b52-4f7a-9a3e-2d2b1c9e8f10", uuid.MustParse("1f0c8d3e-7b52-4f7a-9a3e-2d2b1c9e8f10")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.field.Clean(Raw{tt.raw})
			require.NoError(t, err)
			if d, ok := tt.want.(decimal.Decimal); ok {
				assert.True(t, d.Equal(got.(decimal.Decimal)))
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestScalarInvalid(t *testing.T) {
	tests := []struct {
		name  string
		field Field
		raw   string
		msg   string
	}{
		{"integer", Integer(Options{}), "4.2", "Enter a whole number."},
		{"decimal", Decimal(Options{}), "abc", "Enter a number."},
		{"date", Date(Options{}), "2024-13-01", "Enter a valid date."},
		{"uuid", UUID(Options{}), "not-a-uuid", "Enter a valid UUID."},
		{"char rules", Char(Options{Rules: "max=3"}), "abcd", "Value must be at most 3"},
		{"decimal rules", Decimal(Options{Rules: "gte=0"}), "-1", "Value must be greater than or equal to 0"},
		{"integer rules", Integer(Options{Rules: "lte=10"}), "11", "Value must be less than or equal to 10"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.field.Clean(Raw{tt.raw})
			ve := firstError(t, err)
			assert.Equal(t, InvalidScalarValue, ve.Code)
			assert.Equal(t, tt.msg, ve.Message)
		})
	}
}

func TestBoolean(t *testing.T) {
	f := NewBoolean(Options{})
	tests := []struct {
		raw  Raw
		want any
	}{
		{Raw{"2"}, true},
		{Raw{"true"}, true},
		{Raw{"True"}, true},
		{Raw{"1"}, true},
		{Raw{"3"}, false},
		{Raw{"false"}, false},
		{Raw{"False"}, false},
		{Raw{"0"}, false},
		{Raw{""}, nil},
		{Raw{"maybe"}, nil},
		{nil, nil},
	}
	for _, tt := range tests {
		got, err := f.Clean(tt.raw)
		assert.NoError(t, err)
		assert.Equal(t, tt.want, got, "raw %v", tt.raw)
	}
	assert.IsType(t, widgets.BooleanSelect{}, f.Widget())
}

var statuses = []widgets.Option{{Value: "", Label: "---------"}, {Value: "draft", Label: "Draft"}, {Value: "running", Label: "Running"}, {Value: "finished", Label: "Finished"}}

func TestChoice(t *testing.T) {
	f := NewChoice(statuses, ChoiceOptions{})

	v, err := f.Clean(Raw{"draft"})
	require.NoError(t, err)
	assert.Equal(t, "draft", v)

	v, err = f.Clean(Raw{""})
	require.NoError(t, err)
	assert.Nil(t, v)

	_, err = f.Clean(Raw{"paused"})
	assert.Equal(t, InvalidChoice, firstError(t, err).Code)

	lenient := NewChoice(statuses, ChoiceOptions{Lenient: true})
	v, err = lenient.Clean(Raw{"paused"})
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestChoiceTypedParse(t *testing.T) {
	f := NewChoice([]widgets.Option{{Value: "1", Label: "Today"}, {Value: "x", Label: "Broken"}}, ChoiceOptions{
		Parse: func(s string) (any, error) {
			d, err := decimal.NewFromString(s)
			return d.IntPart(), err
		},
	})
	v, err := f.Clean(Raw{"1"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), v)

	_, err = f.Clean(Raw{"x"})
	assert.Equal(t, InvalidChoice, firstError(t, err).Code)
}

func TestMultipleChoice(t *testing.T) {
	f := NewMultipleChoice(statuses, ChoiceOptions{})
	assert.Equal(t, 0, f.Arity())

	t.Run("some", func(t *testing.T) {
		v, err := f.Clean(Raw{"draft", "running", "draft"})
		require.NoError(t, err)
		assert.Equal(t, Selection{Values: []any{"draft", "running"}}, v)
	})

	t.Run("all", func(t *testing.T) {
		v, err := f.Clean(Raw{"finished", "draft", "running"})
		require.NoError(t, err)
		assert.True(t, v.(Selection).All)
	})

	t.Run("none", func(t *testing.T) {
		v, err := f.Clean(nil)
		require.NoError(t, err)
		assert.Nil(t, v)
	})

	t.Run("invalid carries index", func(t *testing.T) {
		_, err := f.Clean(Raw{"draft", "paused"})
		ve := firstError(t, err)
		assert.Equal(t, InvalidChoice, ve.Code)
		assert.Equal(t, 1, ve.Part)
	})
}

func TestRangeRoundTrip(t *testing.T) {
	f := NewRange(Options{})
	w := widgets.RangeWidget{}

	for _, parts := range []Raw{{"1", "9"}, {"-2.5", "100.25"}, {"9", "1"}} {
		v, err := f.Clean(parts)
		require.NoError(t, err)
		assert.Equal(t, parts, w.Decompress(v.(RangeValue)), "a reversed range is accepted as-is")
	}

	r, ok := Compress(nil, nil)
	assert.False(t, ok)
	assert.Equal(t, RangeValue{}, r)

	v, err := f.Clean(Raw{"", ""})
	require.NoError(t, err)
	assert.Nil(t, v)

	v, err = f.Clean(Raw{"5", ""})
	require.NoError(t, err)
	rv := v.(RangeValue)
	assert.True(t, rv.Start.Equal(*dec("5")))
	assert.Nil(t, rv.End)
}

func TestRangeErrorsCarryPart(t *testing.T) {
	_, err := NewRange(Options{}).Clean(Raw{"1", "x"})
	ve := firstError(t, err)
	assert.Equal(t, InvalidScalarValue, ve.Code)
	assert.Equal(t, 1, ve.Part)
}

func TestLookupType(t *testing.T) {
	f := NewLookupType(Integer(Options{}), nil, Options{})

	t.Run("operator and value", func(t *testing.T) {
		v, err := f.Clean(Raw{"gt", "5"})
		require.NoError(t, err)
		assert.Equal(t, lookup.Lookup{Value: int64(5), Type: lookup.GT}, v)
	})

	t.Run("blank operator is exact", func(t *testing.T) {
		v, err := f.Clean(Raw{"", "5"})
		require.NoError(t, err)
		assert.Equal(t, lookup.Lookup{Value: int64(5), Type: lookup.Exact}, v)
	})

	t.Run("no parts", func(t *testing.T) {
		v, err := f.Clean(Raw{})
		require.NoError(t, err)
		assert.Equal(t, lookup.Lookup{Value: nil, Type: lookup.Exact}, v)
	})

	t.Run("inner failure is re-indexed", func(t *testing.T) {
		_, err := f.Clean(Raw{"gt", "five"})
		ve := firstError(t, err)
		assert.Equal(t, InvalidScalarValue, ve.Code)
		assert.Equal(t, 1, ve.Part)
	})

	t.Run("in takes a list", func(t *testing.T) {
		v, err := f.Clean(Raw{"in", "1,2,3"})
		require.NoError(t, err)
		assert.Equal(t, lookup.Lookup{Value: []any{int64(1), int64(2), int64(3)}, Type: lookup.In}, v)
	})

	t.Run("isnull takes a boolean", func(t *testing.T) {
		v, err := f.Clean(Raw{"isnull", "true"})
		require.NoError(t, err)
		assert.Equal(t, lookup.Lookup{Value: true, Type: lookup.IsNull}, v)
	})
}

func TestLookupTypeOperatorSubset(t *testing.T) {
	f := NewLookupType(Decimal(Options{}), []lookup.Type{lookup.GT, lookup.LT}, Options{})

	for _, op := range []string{"exact", "overlap"} {
		_, err := f.Clean(Raw{op, "5"})
		ve := firstError(t, err)
		assert.Equal(t, InvalidOperator, ve.Code)
		assert.Equal(t, 0, ve.Part)
		assert.True(t, errors.Is(ve, lookup.ErrUnknownLookup))
	}

	t.Run("operator without a value is still checked", func(t *testing.T) {
		_, err := f.Clean(Raw{"bogus"})
		ve := firstError(t, err)
		assert.Equal(t, InvalidOperator, ve.Code)
		assert.Equal(t, 0, ve.Part)

		v, err := f.Clean(Raw{"gt"})
		require.NoError(t, err)
		assert.Equal(t, lookup.Lookup{Value: nil, Type: lookup.Exact}, v)
	})

	assert.Equal(t, 2, f.Arity())
	w, ok := f.Widget().(widgets.LookupTypeWidget)
	require.True(t, ok)
	assert.Len(t, w.Lookups, 2)
}

func TestDateOffset(t *testing.T) {
	f := NewDateOffset(widgets.Past, Options{})

	v, err := f.Clean(Raw{"2", "7"})
	require.NoError(t, err)
	assert.Equal(t, DateOffset{Amount: 2, UnitDays: 7}, v)
	assert.Equal(t, 14, v.(DateOffset).Days())

	v, err = f.Clean(Raw{"-3", "1"})
	require.NoError(t, err)
	assert.Equal(t, -3, v.(DateOffset).Days())

	v, err = f.Clean(Raw{"2", ""})
	require.NoError(t, err)
	assert.Nil(t, v)

	_, err = f.Clean(Raw{"2", "weeks"})
	ve := firstError(t, err)
	assert.Equal(t, 1, ve.Part)
}
