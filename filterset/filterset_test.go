package filterset

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/amirphl/filterkit/filters"
	"github.com/amirphl/filterkit/lookup"
	"github.com/amirphl/filterkit/query"
	"github.com/amirphl/filterkit/widgets"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)

var statuses = []widgets.Option{
	{Value: "draft", Label: "Draft"},
	{Value: "running", Label: "Running"},
	{Value: "finished", Label: "Finished"},
}

type brokenSource struct{}

func (brokenSource) DistinctValues(context.Context, string) ([]string, error) {
	return nil, errors.New("connection reset")
}

func campaignSet(t *testing.T) *FilterSet {
	t.Helper()
	s, err := New("campaigns",
		filters.Char(filters.Options{Name: "title", Lookup: lookup.IContains}),
		filters.MultipleChoice(statuses, filters.Options{Name: "status"}),
		filters.Number(filters.Options{Name: "price", Field: "budget", Lookups: []lookup.Type{lookup.GT, lookup.LT}}),
		filters.Range(filters.Options{Name: "budget"}),
		filters.Boolean(filters.Options{Name: "archived"}),
		filters.DateRange(filters.Options{Name: "created", Field: "created_at", Now: func() time.Time { return now }, Widget: widgets.LinkWidget{Choices: filters.DateRangeChoices}}),
	)
	require.NoError(t, err)
	return s
}

func mustParse(t *testing.T, raw string) url.Values {
	t.Helper()
	v, err := url.ParseQuery(raw)
	require.NoError(t, err)
	return v
}

func TestNewRejectsBadDeclarations(t *testing.T) {
	tests := []struct {
		name    string
		filters []filters.Filter
		want    error
	}{
		{
			name: "duplicate names",
			filters: []filters.Filter{
				filters.Char(filters.Options{Name: "title"}),
				filters.Char(filters.Options{Name: "title", Lookup: lookup.IContains}),
			},
			want: ErrDuplicateName,
		},
		{
			name:    "empty name",
			filters: []filters.Filter{filters.Char(filters.Options{Name: " "})},
			want:    filters.ErrEmptyName,
		},
		{
			name:    "unknown operator",
			filters: []filters.Filter{filters.Number(filters.Options{Name: "budget", Lookups: []lookup.Type{"between"}})},
			want:    lookup.ErrUnknownLookup,
		},
		{
			name:    "widget arity",
			filters: []filters.Filter{filters.Range(filters.Options{Name: "budget", Widget: widgets.TextInput{}})},
			want:    filters.ErrArityMismatch,
		},
		{
			name:    "nil filter",
			filters: []filters.Filter{nil},
			want:    ErrNilFilter,
		},
		{
			name:    "typed nil filter",
			filters: []filters.Filter{(*filters.Base)(nil)},
			want:    ErrNilFilter,
		},
		{
			name:    "boolean with operator choice",
			filters: []filters.Filter{filters.Boolean(filters.Options{Name: "archived", AllLookups: true})},
			want:    filters.ErrInvalidOptions,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := New("campaigns", tt.filters...)
			assert.Nil(t, s)
			require.Error(t, err)
			assert.True(t, IsConfigError(err))
			assert.ErrorIs(t, err, tt.want)
			assert.Contains(t, err.Error(), "invalid filterset campaigns")
		})
	}

	assert.Panics(t, func() {
		MustNew("campaigns", filters.Char(filters.Options{}))
	})
	assert.NotPanics(t, func() {
		MustNew("empty")
	})
}

func TestFilterPass(t *testing.T) {
	s := campaignSet(t)
	data := mustParse(t, "title=sale&status=draft&status=running&budget_0=10&archived=2&created=bogus")

	res, err := s.Filter(context.Background(), query.NewPlan(), data)
	require.NoError(t, err)
	assert.True(t, res.Valid())
	assert.Equal(t, map[string]bool{
		"title":    true,
		"status":   true,
		"price":    false,
		"budget":   true,
		"archived": true,
		"created":  false,
	}, res.Used)

	p := res.Query.(*query.Plan)
	require.Len(t, p.Filters, 4)
	assert.Equal(t, query.Where("title", lookup.IContains, "sale"), p.Filters[0])
	assert.Equal(t, query.Or{
		query.Where("status", lookup.Exact, "draft"),
		query.Where("status", lookup.Exact, "running"),
	}, p.Filters[1])
	budget := p.Filters[2].(query.Condition)
	assert.Equal(t, lookup.GTE, budget.Lookup)
	assert.True(t, decimal.NewFromInt(10).Equal(budget.Value.(decimal.Decimal)))
	assert.Equal(t, query.Where("archived", lookup.Exact, true), p.Filters[3])
	assert.True(t, p.IsDistinct)
	assert.Equal(t, "sale", res.Values["title"])
}

func TestFilterPassLeavesInputUntouched(t *testing.T) {
	s := campaignSet(t)
	base := query.NewPlan()

	res, err := s.Filter(context.Background(), base, mustParse(t, "title=sale"))
	require.NoError(t, err)
	assert.Equal(t, 0, base.Len())
	assert.Equal(t, 1, res.Query.(*query.Plan).Len())

	res, err = s.Filter(context.Background(), base, nil)
	require.NoError(t, err)
	assert.Same(t, base, res.Query)
	assert.Empty(t, res.Errors)
	for name, used := range res.Used {
		assert.False(t, used, name)
	}
}

func TestFilterCollectsValidationErrors(t *testing.T) {
	s := campaignSet(t)
	data := mustParse(t, "title=sale&budget_0=abc&budget_1=x&price_0=regex&price_1=5")

	res, err := s.Filter(context.Background(), query.NewPlan(), data)
	require.NoError(t, err)
	assert.False(t, res.Valid())
	assert.True(t, res.IsUsed("title"))
	assert.False(t, res.IsUsed("budget"))
	assert.False(t, res.IsUsed("price"))

	require.Len(t, res.Errors["budget"], 2)
	assert.Equal(t, 0, *res.Errors["budget"][0].Part)
	assert.Equal(t, 1, *res.Errors["budget"][1].Part)
	assert.Equal(t, "invalid", string(res.Errors["budget"][0].Code))

	require.Len(t, res.Errors["price"], 1)
	assert.Equal(t, "invalid_operator", string(res.Errors["price"][0].Code))
	assert.Equal(t, 0, *res.Errors["price"][0].Part)

	assert.Contains(t, res.Errors.Error(), "budget[0]: ")
	assert.True(t, res.Errors.Has("price"))
	assert.False(t, res.Errors.Has("title"))
	assert.Equal(t, 1, res.Query.(*query.Plan).Len())
}

func TestUnknownOperatorWithoutValue(t *testing.T) {
	s := campaignSet(t)

	res, err := s.Filter(context.Background(), query.NewPlan(), mustParse(t, "price_0=bogus"))
	require.NoError(t, err)
	assert.False(t, res.IsUsed("price"))
	require.Len(t, res.Errors["price"], 1)
	assert.Equal(t, "invalid_operator", string(res.Errors["price"][0].Code))
	assert.Equal(t, 0, *res.Errors["price"][0].Part)
}

func TestRequiredErrorHasNoPart(t *testing.T) {
	s := MustNew("campaigns", filters.Char(filters.Options{Name: "title", Required: true}))
	res, err := s.Filter(context.Background(), query.NewPlan(), url.Values{})
	require.NoError(t, err)
	require.Len(t, res.Errors["title"], 1)
	assert.Nil(t, res.Errors["title"][0].Part)
	assert.Equal(t, "Title is required", res.Errors["title"][0].Message)
}

func TestFilterReturnsSourceFailures(t *testing.T) {
	s := MustNew("campaigns", filters.AllValues(brokenSource{}, filters.Options{Name: "city"}))

	_, err := s.Filter(context.Background(), query.NewPlan(), url.Values{"city": {"Tehran"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
	assert.False(t, IsConfigError(err))

	_, err = s.Form(context.Background(), nil)
	require.Error(t, err)
}

func TestFilterOverRows(t *testing.T) {
	rows := []query.Row{
		{"id": 1, "title": "Spring Sale", "status": "running", "budget": decimal.NewFromInt(50), "archived": false, "created_at": now.AddDate(0, 0, -2)},
		{"id": 2, "title": "Winter sale", "status": "draft", "budget": decimal.NewFromInt(5), "archived": false, "created_at": now.AddDate(0, 0, -30)},
		{"id": 3, "title": "Launch", "status": "running", "budget": decimal.NewFromInt(80), "archived": true, "created_at": now},
	}
	s := campaignSet(t)

	res, err := s.Filter(context.Background(), query.NewMemory(rows), mustParse(t, "title=SALE&created=2"))
	require.NoError(t, err)
	got, err := res.Query.(*query.Memory).Rows()
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 1, got[0]["id"])

	res, err = s.Filter(context.Background(), query.NewMemory(rows), mustParse(t, "status=running&status=draft&status=finished&price_0=gt&price_1=10"))
	require.NoError(t, err)
	assert.True(t, res.IsUsed("status"))
	got, err = res.Query.(*query.Memory).Rows()
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestConcurrentPassesDoNotShareUsedFlags(t *testing.T) {
	s := campaignSet(t)

	var wg sync.WaitGroup
	failures := make(chan string, 64)
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			data := url.Values{}
			withTitle := i%2 == 0
			if withTitle {
				data.Set("title", fmt.Sprintf("t%d", i))
			}
			res, err := s.Filter(context.Background(), query.NewPlan(), data)
			if err != nil {
				failures <- err.Error()
				return
			}
			if res.IsUsed("title") != withTitle {
				failures <- fmt.Sprintf("pass %d saw used=%v", i, res.IsUsed("title"))
			}
			if withTitle && res.Values["title"] != fmt.Sprintf("t%d", i) {
				failures <- fmt.Sprintf("pass %d saw value %v", i, res.Values["title"])
			}
		}(i)
	}
	wg.Wait()
	close(failures)

	for f := range failures {
		t.Error(f)
	}
}

func counterValue(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
	metrics:
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if labels[lp.GetName()] != lp.GetValue() {
					continue metrics
				}
			}
			return m.GetCounter().GetValue()
		}
	}
	return 0
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	s := campaignSet(t).WithMetrics(NewMetrics(reg))

	for i := 0; i < 2; i++ {
		_, err := s.Filter(context.Background(), query.NewPlan(), mustParse(t, "title=sale&budget_0=abc"))
		require.NoError(t, err)
	}

	assert.Equal(t, 2.0, counterValue(t, reg, "filterset_passes_total", map[string]string{"filterset": "campaigns"}))
	assert.Equal(t, 2.0, counterValue(t, reg, "filterset_filters_applied_total", map[string]string{"filterset": "campaigns", "filter": "title"}))
	assert.Equal(t, 2.0, counterValue(t, reg, "filterset_validation_errors_total", map[string]string{"filterset": "campaigns", "filter": "budget", "code": "invalid"}))
}

func TestLogging(t *testing.T) {
	var buf bytes.Buffer
	s := campaignSet(t).WithLogger(zerolog.New(&buf).Level(zerolog.DebugLevel))

	_, err := s.Filter(context.Background(), query.NewPlan(), mustParse(t, "title=sale&budget_0=abc"))
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, `"filterset":"campaigns"`)
	assert.Contains(t, out, `"filter":"title"`)
	assert.Contains(t, out, `"message":"Filter applied"`)
	assert.Contains(t, out, `"level":"warn"`)
	assert.Contains(t, out, `"message":"Filter value rejected"`)

	buf.Reset()
	_, err = campaignSet(t).Filter(context.Background(), query.NewPlan(), mustParse(t, "title=sale"))
	require.NoError(t, err)
	assert.Empty(t, buf.String())
}

func TestForm(t *testing.T) {
	s := campaignSet(t)

	t.Run("unbound form has no errors", func(t *testing.T) {
		form, err := s.Form(context.Background(), nil)
		require.NoError(t, err)
		assert.True(t, form.Valid())
		require.Len(t, form.Fields, 6)
		assert.Equal(t, "Title", form.Fields[0].Label)
		assert.Contains(t, form.Fields[0].HTML, `id="id_title"`)
		assert.NotContains(t, form.HTML(), "errorlist")
	})

	t.Run("bound form keeps raw values and errors", func(t *testing.T) {
		form, err := s.Form(context.Background(), mustParse(t, "title=sale&budget_0=abc&status=draft&created=2"))
		require.NoError(t, err)
		assert.False(t, form.Valid())

		title := form.Fields[0]
		assert.Equal(t, widgets.Raw{"sale"}, title.Raw)
		assert.Contains(t, title.HTML, `value="sale"`)

		budget := form.Fields[3]
		require.Len(t, budget.Errors, 1)
		assert.Equal(t, 0, *budget.Errors[0].Part)

		created := form.Fields[5]
		assert.Contains(t, created.HTML, `<a class="selected" href="?budget_0=abc&amp;created=2&amp;status=draft&amp;title=sale">Past 7 days</a>`)
		assert.Contains(t, created.HTML, `href="?budget_0=abc&amp;created=&amp;status=draft&amp;title=sale">All</a>`)

		page := form.HTML()
		assert.Contains(t, page, `<label for="id_budget">Budget</label>`)
		assert.Contains(t, page, `<ul class="errorlist"><li>`)
	})
}
